package grader_test

import (
	"slices"
	"testing"

	"github.com/examgen/backend/internal/domain/question"
	"github.com/examgen/backend/internal/grader"
)

func TestEvaluate_SetEquality(t *testing.T) {
	q := question.Question{
		ID:             "q1",
		Answers:        make([]question.Answer, 3),
		CorrectIndices: []int{0, 2},
	}

	tests := []struct {
		name     string
		selected []int
		want     bool
	}{
		{"exact", []int{0, 2}, true},
		{"reordered", []int{2, 0}, true},
		{"duplicates", []int{0, 2, 2, 0}, true},
		{"subset", []int{0}, false},
		{"superset", []int{0, 1, 2}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grader.Evaluate(q, tt.selected, false); got != tt.want {
				t.Errorf("Evaluate(%v) = %v, want %v", tt.selected, got, tt.want)
			}
		})
	}
}

func TestCorrectIndexSet_DerivedFromAnswers(t *testing.T) {
	q := question.Question{
		Answers: []question.Answer{{IsCorrect: false}, {IsCorrect: true}},
	}
	if got := grader.CorrectIndexSet(q, false); !slices.Equal(got, []int{1}) {
		t.Errorf("expected [1], got %v", got)
	}
}

func TestCorrectIndexSet_OriginalPolicy(t *testing.T) {
	q := question.Question{
		Answers:                make([]question.Answer, 2),
		OriginalCorrectIndices: []int{0},
		CorrectIndices:         []int{1},
	}

	if got := grader.CorrectIndexSet(q, true); !slices.Equal(got, []int{0}) {
		t.Errorf("preferOriginal=true: expected [0], got %v", got)
	}
	if got := grader.CorrectIndexSet(q, false); !slices.Equal(got, []int{1}) {
		t.Errorf("preferOriginal=false: expected [1], got %v", got)
	}
}

func TestCorrectIndexSet_PreferOriginalWithoutOriginal(t *testing.T) {
	q := question.Question{
		Answers:        []question.Answer{{IsCorrect: true}, {}},
		CorrectIndices: []int{1},
	}
	if got := grader.CorrectIndexSet(q, true); !slices.Equal(got, []int{1}) {
		t.Errorf("expected fallback to current key [1], got %v", got)
	}
}

func TestCorrectIndexSet_DoesNotAliasQuestion(t *testing.T) {
	q := question.Question{CorrectIndices: []int{1}}
	got := grader.CorrectIndexSet(q, false)
	got[0] = 9
	if q.CorrectIndices[0] != 1 {
		t.Error("expected returned slice not to alias the question")
	}
}

func TestIsMultiCorrect(t *testing.T) {
	single := question.Question{CorrectIndices: []int{2}}
	multi := question.Question{Answers: []question.Answer{{IsCorrect: true}, {IsCorrect: true}}}
	originalOnly := question.Question{
		CorrectIndices:         []int{0},
		OriginalCorrectIndices: []int{0, 1},
	}

	if grader.IsMultiCorrect(single) {
		t.Error("expected single-correct question")
	}
	if !grader.IsMultiCorrect(multi) {
		t.Error("expected multi-correct question")
	}
	if grader.IsMultiCorrect(originalOnly) {
		t.Error("expected IsMultiCorrect to use the current key")
	}
}

func TestAnswerKey_Grade(t *testing.T) {
	q := question.Question{
		OriginalCorrectIndices: []int{0},
		CorrectIndices:         []int{1},
	}
	if !(grader.AnswerKey{PreferOriginal: true}).Grade(q, []int{0}) {
		t.Error("expected original key to accept [0]")
	}
	if !(grader.AnswerKey{}).Grade(q, []int{1}) {
		t.Error("expected current key to accept [1]")
	}
}
