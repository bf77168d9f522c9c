// Package filter narrows a question catalog to the subset a session or the
// search view works on. Every stage is total: an empty selector leaves its
// input unchanged and no stage re-expands what an earlier one removed.
package filter

import (
	"strings"
	"time"

	"github.com/examgen/backend/internal/domain/question"
	"github.com/examgen/backend/internal/random"
)

// Criteria bundles the selectors of the pipeline.
type Criteria struct {
	Exams       []string           `json:"exams,omitempty"`
	SuperTopics []string           `json:"superTopics,omitempty"`
	SubTopics   []string           `json:"subTopics,omitempty"` // "super::sub" keys
	ImageMode   question.ImageMode `json:"imageMode,omitempty"`
	Query       string             `json:"query,omitempty"`
	InAnswers   bool               `json:"inAnswers,omitempty"`

	RandomN          int  `json:"randomN,omitempty"`
	ShuffleQuestions bool `json:"shuffleQuestions,omitempty"`
}

// Apply runs the full quiz pipeline. Sampling and shuffling are seeded from
// the wall clock so that every session draws a different subset.
func Apply(qs []question.Question, c Criteria) []question.Question {
	return ApplyWith(qs, c, random.NewTimeSeeded(time.Now()))
}

// ApplyWith is Apply with an explicit generator.
func ApplyWith(qs []question.Question, c Criteria, rng random.RNG) []question.Question {
	out := ByExams(qs, c.Exams)
	out = ByTopics(out, c.SuperTopics, c.SubTopics)
	out = ByImageMode(out, c.ImageMode)
	out = Search(out, c.Query, c.InAnswers)
	return RandomAndShuffle(out, c.RandomN, c.ShuffleQuestions, rng)
}

// SearchSubset is the search view's pipeline: exams, images, then text.
func SearchSubset(qs []question.Question, c Criteria) []question.Question {
	out := ByExams(qs, c.Exams)
	out = ByImageMode(out, c.ImageMode)
	return Search(out, c.Query, c.InAnswers)
}

// ByExams keeps questions whose exam name is one of names.
func ByExams(qs []question.Question, names []string) []question.Question {
	if len(names) == 0 {
		return qs
	}
	set := toSet(names)
	return keep(qs, func(q question.Question) bool {
		_, ok := set[q.ExamName]
		return q.ExamName != "" && ok
	})
}

// ByTopics keeps questions whose super topic is selected or whose
// "super::sub" pair is selected.
func ByTopics(qs []question.Question, superTopics, pairKeys []string) []question.Question {
	if len(superTopics) == 0 && len(pairKeys) == 0 {
		return qs
	}
	supers := toSet(superTopics)
	pairs := toSet(pairKeys)
	return keep(qs, func(q question.Question) bool {
		sup := strings.TrimSpace(q.SuperTopic)
		if sup == "" {
			return false
		}
		if _, ok := supers[sup]; ok {
			return true
		}
		if key := q.TopicKey(); key != "" {
			_, ok := pairs[key]
			return ok
		}
		return false
	})
}

// ByImageMode keeps questions with or without images. Unknown modes are a
// no-op.
func ByImageMode(qs []question.Question, mode question.ImageMode) []question.Question {
	switch mode {
	case question.ImageModeWith:
		return keep(qs, question.Question.HasImages)
	case question.ImageModeWithout:
		return keep(qs, func(q question.Question) bool { return !q.HasImages() })
	default:
		return qs
	}
}

// Search keeps questions whose text, or optionally one of whose answers,
// contains query case-insensitively.
func Search(qs []question.Question, query string, inAnswers bool) []question.Question {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return qs
	}
	return keep(qs, func(q question.Question) bool {
		if strings.Contains(strings.ToLower(q.Text), needle) {
			return true
		}
		if !inAnswers {
			return false
		}
		for _, a := range q.Answers {
			if strings.Contains(strings.ToLower(a.Text), needle) {
				return true
			}
		}
		return false
	})
}

// RandomAndShuffle samples n questions when 0 < n < len(qs), then optionally
// shuffles the result. Both steps draw from the same generator.
func RandomAndShuffle(qs []question.Question, n int, shuffle bool, rng random.RNG) []question.Question {
	out := make([]question.Question, len(qs))
	copy(out, qs)
	if n > 0 && n < len(out) {
		out = random.SampleK(out, n, rng)
	}
	if shuffle {
		out = random.Shuffle(out, rng)
	}
	return out
}

func keep(qs []question.Question, pred func(question.Question) bool) []question.Question {
	out := make([]question.Question, 0, len(qs))
	for _, q := range qs {
		if pred(q) {
			out = append(out, q)
		}
	}
	return out
}

func toSet(xs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		m[x] = struct{}{}
	}
	return m
}
