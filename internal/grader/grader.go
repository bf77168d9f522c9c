package grader

import (
	"slices"

	"github.com/examgen/backend/internal/domain/question"
)

// Grader decides whether a selection of original answer indices is correct.
// Implementations fix the answer-key policy for the lifetime of a session.
type Grader interface {
	Grade(q question.Question, selected []int) bool
}

// AnswerKey grades against the question's answer key. With PreferOriginal
// set, questions whose key was edited are scored against the pre-edit key.
type AnswerKey struct {
	PreferOriginal bool
}

// Compile-time check: AnswerKey satisfies the Grader interface.
var _ Grader = AnswerKey{}

func (k AnswerKey) Grade(q question.Question, selected []int) bool {
	return Evaluate(q, selected, k.PreferOriginal)
}

// CorrectIndexSet resolves the indices that count as correct. The order of
// precedence is: the original key (only when preferOriginal), the current
// key, then the answers flagged IsCorrect.
func CorrectIndexSet(q question.Question, preferOriginal bool) []int {
	if preferOriginal && len(q.OriginalCorrectIndices) > 0 {
		return slices.Clone(q.OriginalCorrectIndices)
	}
	if len(q.CorrectIndices) > 0 {
		return slices.Clone(q.CorrectIndices)
	}
	derived := make([]int, 0, 1)
	for i, a := range q.Answers {
		if a.IsCorrect {
			derived = append(derived, i)
		}
	}
	return derived
}

// Evaluate reports whether selected, taken as a set, equals the correct set.
func Evaluate(q question.Question, selected []int, preferOriginal bool) bool {
	want := toSet(CorrectIndexSet(q, preferOriginal))
	got := toSet(selected)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if _, ok := want[i]; !ok {
			return false
		}
	}
	return true
}

// IsMultiCorrect reports whether the current key has more than one correct
// answer, which lets the UI accept several simultaneous selections.
func IsMultiCorrect(q question.Question) bool {
	return len(toSet(CorrectIndexSet(q, false))) > 1
}

func toSet(xs []int) map[int]struct{} {
	m := make(map[int]struct{}, len(xs))
	for _, x := range xs {
		m[x] = struct{}{}
	}
	return m
}
