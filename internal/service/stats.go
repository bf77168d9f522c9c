// internal/service/stats.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/examgen/backend/internal/domain/question"
)

// ResultsSource provides the most recent finished result per question.
type ResultsSource interface {
	LatestAnsweredResultsByQuestion(ctx context.Context, datasetID string) (map[string]bool, error)
}

// ExamStats aggregates the latest results for one exam.
type ExamStats struct {
	Total      int  `json:"total"`
	Answered   int  `json:"answered"`
	Correct    int  `json:"correct"`
	Wrong      int  `json:"wrong"`
	Unanswered int  `json:"unanswered"`
	Pct        int  `json:"pct"`
	Complete   bool `json:"complete"`
}

// StatsService computes per-exam statistics across finished sessions.
type StatsService struct {
	results ResultsSource
	logger  *slog.Logger
}

func NewStatsService(results ResultsSource, logger *slog.Logger) *StatsService {
	return &StatsService{results: results, logger: logger}
}

// ExamStats groups qs by exam name and counts, for every exam, how many of
// its questions were answered in a finished session and how many of those
// answers were correct. Exams without any answered question are omitted.
func (s *StatsService) ExamStats(ctx context.Context, datasetID string, qs []question.Question) (map[string]ExamStats, error) {
	latest, err := s.results.LatestAnsweredResultsByQuestion(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("latest results: %w", err)
	}

	out := make(map[string]ExamStats)
	if len(latest) == 0 {
		return out, nil
	}

	byExam := make(map[string]*ExamStats)
	for _, q := range qs {
		if q.ExamName == "" {
			continue
		}
		st, ok := byExam[q.ExamName]
		if !ok {
			st = &ExamStats{}
			byExam[q.ExamName] = st
		}
		st.Total++
		correct, answered := latest[q.ID]
		if !answered {
			continue
		}
		st.Answered++
		if correct {
			st.Correct++
		}
	}

	for exam, st := range byExam {
		if st.Answered == 0 {
			continue
		}
		st.Wrong = st.Answered - st.Correct
		st.Unanswered = st.Total - st.Answered
		st.Complete = st.Unanswered == 0
		st.Pct = (st.Correct*200 + st.Answered) / (st.Answered * 2)
		out[exam] = *st
	}

	s.logger.Debug("exam stats computed", "dataset_id", datasetID, "exams", len(out))
	return out, nil
}
