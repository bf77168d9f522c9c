package quizsession

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// View is the workflow state of an Engine.
type View string

const (
	ViewConfig View = "config"
	ViewQuiz   View = "quiz"
	ViewReview View = "review"
	ViewSearch View = "search"
)

// Session is one attempt at a fixed, ordered list of questions. All answer
// indices are original indices; AnswerOrder only affects presentation.
type Session struct {
	ID         string
	CreatedAt  time.Time
	FinishedAt *time.Time
	Config     Config

	// QuestionOrder is fixed at creation and never re-filtered.
	QuestionOrder []string
	// AnswerOrder holds display permutations for shuffled questions.
	AnswerOrder map[string][]int
	Answers     map[string][]int
	Submitted   map[string]struct{}
	Results     map[string]bool

	// rawConfig is the stored configuration, kept so unknown fields survive
	// a load/save cycle.
	rawConfig json.RawMessage
}

func newSession(sessionID string, createdAt time.Time, cfg Config) *Session {
	return &Session{
		ID:          sessionID,
		CreatedAt:   createdAt,
		Config:      cfg,
		AnswerOrder: make(map[string][]int),
		Answers:     make(map[string][]int),
		Submitted:   make(map[string]struct{}),
		Results:     make(map[string]bool),
	}
}

// Contains reports whether questionID is part of the session.
func (s *Session) Contains(questionID string) bool {
	return slices.Contains(s.QuestionOrder, questionID)
}

func (s *Session) IsSubmitted(questionID string) bool {
	_, ok := s.Submitted[questionID]
	return ok
}

func (s *Session) IsFinished() bool {
	return s.FinishedAt != nil
}

// Result returns the stored correctness of a submitted question.
func (s *Session) Result(questionID string) (correct bool, ok bool) {
	correct, ok = s.Results[questionID]
	return correct, ok
}

// DisplayOrder returns the order in which the n answers of questionID are
// shown: its stored permutation, or the identity.
func (s *Session) DisplayOrder(questionID string, n int) []int {
	if order, ok := s.AnswerOrder[questionID]; ok && len(order) == n {
		return slices.Clone(order)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// SubmittedIDs returns the submitted question ids in question order.
func (s *Session) SubmittedIDs() []string {
	out := make([]string, 0, len(s.Submitted))
	for _, qid := range s.QuestionOrder {
		if s.IsSubmitted(qid) {
			out = append(out, qid)
		}
	}
	return out
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		c.FinishedAt = &t
	}
	c.QuestionOrder = slices.Clone(s.QuestionOrder)
	c.AnswerOrder = cloneIndexMap(s.AnswerOrder)
	c.Answers = cloneIndexMap(s.Answers)
	c.Submitted = maps.Clone(s.Submitted)
	c.Results = maps.Clone(s.Results)
	c.rawConfig = slices.Clone(s.rawConfig)
	c.Config.Exams = slices.Clone(s.Config.Exams)
	c.Config.SuperTopics = slices.Clone(s.Config.SuperTopics)
	c.Config.SubTopics = slices.Clone(s.Config.SubTopics)
	return &c
}

// Progress summarizes a running session.
type Progress struct {
	Total     int `json:"total"`
	Submitted int `json:"submitted"`
	Correct   int `json:"correct"`
	Pct       int `json:"pct"`
}

// Progress counts submissions and the share of correct ones among them.
func (s *Session) Progress() Progress {
	p := Progress{
		Total:     len(s.QuestionOrder),
		Submitted: len(s.Submitted),
	}
	for qid := range s.Submitted {
		if s.Results[qid] {
			p.Correct++
		}
	}
	if p.Submitted > 0 {
		p.Pct = roundPct(p.Correct, p.Submitted)
	}
	return p
}

func roundPct(part, total int) int {
	return (part*200 + total) / (total * 2)
}

func cloneIndexMap(m map[string][]int) map[string][]int {
	out := make(map[string][]int, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}
