package question

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
)

// RawQuestion is a question as it appears in a dataset source file.
type RawQuestion struct {
	ID                     json.RawMessage   `json:"id"`
	ExamName               string            `json:"examName"`
	ExamYear               json.RawMessage   `json:"examYear"`
	QuestionText           string            `json:"questionText"`
	ExplanationText        string            `json:"explanationText"`
	Answers                []RawAnswer       `json:"answers"`
	CorrectIndices         []json.RawMessage `json:"correctIndices"`
	OriginalCorrectIndices []json.RawMessage `json:"originalCorrectIndices"`
	FinalCorrectIndices    []json.RawMessage `json:"finalCorrectIndices"`
	AISuperTopic           string            `json:"aiSuperTopic"`
	AISubtopic             string            `json:"aiSubtopic"`
	ImageFiles             []string          `json:"imageFiles"`
	AIAudit                *struct {
		AnswerPlausibility *struct {
			OriginalCorrectIndices []json.RawMessage `json:"originalCorrectIndices"`
			FinalCorrectIndices    []json.RawMessage `json:"finalCorrectIndices"`
			ChangedInDataset       *bool             `json:"changedInDataset"`
		} `json:"answerPlausibility"`
	} `json:"aiAudit"`
}

type RawAnswer struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Source is the top-level shape of a dataset source file.
type Source struct {
	Questions []RawQuestion `json:"questions"`
}

// Normalize converts a raw record. It returns false when the id is missing
// or blank, in which case the record must be dropped.
func Normalize(raw RawQuestion) (Question, bool) {
	id := strings.TrimSpace(scalarString(raw.ID))
	if id == "" {
		return Question{}, false
	}

	q := Question{
		ID:          id,
		ExamName:    raw.ExamName,
		ExamYear:    scalarInt(raw.ExamYear),
		Text:        NormSpace(raw.QuestionText),
		Explanation: NormSpace(raw.ExplanationText),
		SuperTopic:  NormSpace(raw.AISuperTopic),
		SubTopic:    NormSpace(raw.AISubtopic),
		ImageFiles:  slices.Clone(raw.ImageFiles),
	}

	q.Answers = make([]Answer, len(raw.Answers))
	for i, a := range raw.Answers {
		q.Answers[i] = Answer{Text: NormSpace(a.Text), IsCorrect: a.IsCorrect}
	}

	q.CorrectIndices = parseIndices(raw.CorrectIndices, false)

	var changed *bool
	original := raw.OriginalCorrectIndices
	final := raw.FinalCorrectIndices
	if audit := raw.AIAudit; audit != nil && audit.AnswerPlausibility != nil {
		ap := audit.AnswerPlausibility
		if len(original) == 0 {
			original = ap.OriginalCorrectIndices
		}
		if len(final) == 0 {
			final = ap.FinalCorrectIndices
		}
		changed = ap.ChangedInDataset
	}
	if len(final) == 0 {
		final = raw.CorrectIndices
	}
	q.OriginalCorrectIndices = parseIndices(original, true)
	q.KeyChanged = keyChanged(changed, q.OriginalCorrectIndices, parseIndices(final, true))

	return q, true
}

// Merge normalizes every source in order and collapses duplicate ids. A
// question keeps the position where its id first appeared and the value of
// the last source that defined it.
func Merge(sources ...Source) []Question {
	pos := make(map[string]int)
	var out []Question
	for _, src := range sources {
		for _, raw := range src.Questions {
			q, ok := Normalize(raw)
			if !ok {
				continue
			}
			if i, seen := pos[q.ID]; seen {
				out[i] = q
				continue
			}
			pos[q.ID] = len(out)
			out = append(out, q)
		}
	}
	return out
}

// NormSpace collapses whitespace runs into single spaces and trims.
func NormSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func keyChanged(flag *bool, original, final []int) bool {
	if flag != nil {
		return *flag
	}
	if len(original) == 0 || len(final) == 0 {
		return false
	}
	return !slices.Equal(original, final)
}

// parseIndices keeps integer entries, accepting numbers and numeric strings.
func parseIndices(raws []json.RawMessage, sorted bool) []int {
	out := make([]int, 0, len(raws))
	for _, r := range raws {
		if n := scalarInt(r); n != nil {
			out = append(out, *n)
		}
	}
	if sorted {
		slices.Sort(out)
	}
	return out
}

func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func scalarInt(raw json.RawMessage) *int {
	s := strings.TrimSpace(scalarString(raw))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	return &n
}
