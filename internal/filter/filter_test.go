package filter_test

import (
	"slices"
	"testing"

	"github.com/examgen/backend/internal/domain/question"
	"github.com/examgen/backend/internal/filter"
	"github.com/examgen/backend/internal/random"
)

func catalog() []question.Question {
	return []question.Question{
		{ID: "q1", ExamName: "2020", Text: "Goroutines and channels", SuperTopic: "Runtime", SubTopic: "Scheduler", ImageFiles: []string{"a.png"}},
		{ID: "q2", ExamName: "2020", Text: "Interfaces", SuperTopic: "Types", SubTopic: "Interfaces",
			Answers: []question.Answer{{Text: "Method sets"}, {Text: "Embedding"}}},
		{ID: "q3", ExamName: "2021", Text: "Garbage collector", SuperTopic: "Runtime", SubTopic: "GC"},
		{ID: "q4", ExamName: "", Text: "Generics", SuperTopic: "Types", SubTopic: "Generics", ImageFiles: []string{"b.png"}},
		{ID: "q5", ExamName: "2021", Text: "Modules"},
	}
}

func ids(qs []question.Question) []string {
	return question.IDs(qs)
}

func TestByExams(t *testing.T) {
	qs := catalog()

	if got := ids(filter.ByExams(qs, nil)); len(got) != 5 {
		t.Errorf("expected no-op for empty selector, got %v", got)
	}
	if got := ids(filter.ByExams(qs, []string{"2021"})); !slices.Equal(got, []string{"q3", "q5"}) {
		t.Errorf("unexpected result: %v", got)
	}
	if got := ids(filter.ByExams(qs, []string{""})); len(got) != 0 {
		t.Errorf("expected questions without exam never to match, got %v", got)
	}
}

func TestByTopics(t *testing.T) {
	qs := catalog()

	got := ids(filter.ByTopics(qs, []string{"Runtime"}, []string{question.TopicKey("Types", "Generics")}))
	if !slices.Equal(got, []string{"q1", "q3", "q4"}) {
		t.Errorf("unexpected result: %v", got)
	}

	if got := ids(filter.ByTopics(qs, nil, nil)); len(got) != 5 {
		t.Errorf("expected no-op for empty selectors, got %v", got)
	}
}

func TestByImageMode(t *testing.T) {
	qs := catalog()

	tests := []struct {
		mode question.ImageMode
		want []string
	}{
		{question.ImageModeAll, []string{"q1", "q2", "q3", "q4", "q5"}},
		{"", []string{"q1", "q2", "q3", "q4", "q5"}},
		{"bogus", []string{"q1", "q2", "q3", "q4", "q5"}},
		{question.ImageModeWith, []string{"q1", "q4"}},
		{question.ImageModeWithout, []string{"q2", "q3", "q5"}},
	}

	for _, tt := range tests {
		if got := ids(filter.ByImageMode(qs, tt.mode)); !slices.Equal(got, tt.want) {
			t.Errorf("mode %q: expected %v, got %v", tt.mode, tt.want, got)
		}
	}
}

func TestSearch(t *testing.T) {
	qs := catalog()

	if got := ids(filter.Search(qs, "  GOROUTINE ", false)); !slices.Equal(got, []string{"q1"}) {
		t.Errorf("expected case-insensitive match on text, got %v", got)
	}
	if got := ids(filter.Search(qs, "embedding", false)); len(got) != 0 {
		t.Errorf("expected answers to be ignored, got %v", got)
	}
	if got := ids(filter.Search(qs, "embedding", true)); !slices.Equal(got, []string{"q2"}) {
		t.Errorf("expected answer match, got %v", got)
	}
	if got := ids(filter.Search(qs, "   ", true)); len(got) != 5 {
		t.Errorf("expected blank query to be a no-op, got %v", got)
	}
}

func TestRandomAndShuffle(t *testing.T) {
	qs := catalog()

	sampled := filter.RandomAndShuffle(qs, 3, false, random.New(1))
	if len(sampled) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(sampled))
	}

	all := filter.RandomAndShuffle(qs, 10, false, random.New(1))
	if !slices.Equal(ids(all), ids(qs)) {
		t.Errorf("expected no sampling when n >= len, got %v", ids(all))
	}

	shuffled := filter.RandomAndShuffle(qs, 0, true, random.New(1))
	sorted := slices.Clone(ids(shuffled))
	slices.Sort(sorted)
	if !slices.Equal(sorted, ids(qs)) {
		t.Errorf("expected permutation, got %v", ids(shuffled))
	}
}

func TestApplyWith_StagesOnlyNarrow(t *testing.T) {
	qs := catalog()

	// The topic stage leaves only q3 (no images), so the image stage must
	// yield nothing.
	c := filter.Criteria{
		SubTopics: []string{question.TopicKey("Runtime", "GC")},
		ImageMode: question.ImageModeWith,
	}
	if got := filter.ApplyWith(qs, c, random.New(1)); len(got) != 0 {
		t.Errorf("expected empty result, got %v", ids(got))
	}
}

func TestApplyWith_FullPipeline(t *testing.T) {
	qs := catalog()
	c := filter.Criteria{
		Exams:       []string{"2020", "2021"},
		SuperTopics: []string{"Runtime", "Types"},
		ImageMode:   question.ImageModeWithout,
		RandomN:     1,
	}

	got := filter.ApplyWith(qs, c, random.New(4))
	if len(got) != 1 {
		t.Fatalf("expected 1 question, got %v", ids(got))
	}
	if id := got[0].ID; id != "q2" && id != "q3" {
		t.Errorf("unexpected question %q", id)
	}
}

func TestSearchSubset_IgnoresTopicsAndSampling(t *testing.T) {
	qs := catalog()
	c := filter.Criteria{
		SuperTopics: []string{"Nothing"},
		RandomN:     1,
		Query:       "g",
	}
	got := ids(filter.SearchSubset(qs, c))
	if !slices.Equal(got, []string{"q1", "q3", "q4"}) {
		t.Errorf("unexpected search subset: %v", got)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	qs := catalog()
	before := ids(qs)
	filter.Apply(qs, filter.Criteria{ShuffleQuestions: true})
	if !slices.Equal(ids(qs), before) {
		t.Error("expected input order to be preserved")
	}
}
