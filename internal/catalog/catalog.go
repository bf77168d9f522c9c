// Package catalog loads question datasets and serves them read-only.
package catalog

import (
	"slices"

	"github.com/examgen/backend/internal/domain/question"
)

// Catalog is an immutable, ordered set of questions keyed by id.
type Catalog struct {
	questions []question.Question
	byID      map[string]question.Question
}

// New builds a catalog. Later duplicates of an id replace earlier ones in
// place.
func New(qs []question.Question) *Catalog {
	c := &Catalog{byID: make(map[string]question.Question, len(qs))}
	pos := make(map[string]int, len(qs))
	for _, q := range qs {
		if i, ok := pos[q.ID]; ok {
			c.questions[i] = q
		} else {
			pos[q.ID] = len(c.questions)
			c.questions = append(c.questions, q)
		}
		c.byID[q.ID] = q
	}
	return c
}

func (c *Catalog) Len() int { return len(c.questions) }

// All returns every question in catalog order. The slice is a copy.
func (c *Catalog) All() []question.Question {
	return slices.Clone(c.questions)
}

func (c *Catalog) Get(id string) (question.Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Subset resolves ids in the given order, skipping unknown ones.
func (c *Catalog) Subset(ids []string) []question.Question {
	out := make([]question.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := c.byID[id]; ok {
			out = append(out, q)
		}
	}
	return out
}

// Exams returns the distinct non-empty exam names, sorted.
func (c *Catalog) Exams() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range c.questions {
		if q.ExamName == "" {
			continue
		}
		if _, ok := seen[q.ExamName]; !ok {
			seen[q.ExamName] = struct{}{}
			out = append(out, q.ExamName)
		}
	}
	slices.Sort(out)
	return out
}

// Topics maps every super-topic to its sorted sub-topics. Questions missing
// either part are not listed.
func (c *Catalog) Topics() map[string][]string {
	out := make(map[string][]string)
	for _, q := range c.questions {
		if q.TopicKey() == "" {
			continue
		}
		if !slices.Contains(out[q.SuperTopic], q.SubTopic) {
			out[q.SuperTopic] = append(out[q.SuperTopic], q.SubTopic)
		}
	}
	for _, subs := range out {
		slices.Sort(subs)
	}
	return out
}
