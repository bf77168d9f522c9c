package question

import "strings"

// ImageMode selects questions by whether they carry image assets.
type ImageMode string

const (
	ImageModeAll     ImageMode = "all"
	ImageModeWith    ImageMode = "with"
	ImageModeWithout ImageMode = "without"
)

// Answer is one choice of a question. Its position in Question.Answers is
// the original index used for selections, scoring and storage.
type Answer struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a normalized, read-only question record.
type Question struct {
	ID          string
	ExamName    string
	ExamYear    *int
	Text        string
	Explanation string
	Answers     []Answer

	// CorrectIndices is the current answer key. Empty means the key is
	// derived from Answers[i].IsCorrect.
	CorrectIndices []int
	// OriginalCorrectIndices is the key before any maintainer edit.
	OriginalCorrectIndices []int
	// KeyChanged marks questions whose current key differs from the original.
	KeyChanged bool

	SuperTopic string
	SubTopic   string
	ImageFiles []string
}

// HasImages reports whether the question references at least one image.
func (q Question) HasImages() bool {
	return len(q.ImageFiles) > 0
}

// TopicKey returns the "super::sub" key used by topic selectors, or "" when
// either part is missing.
func (q Question) TopicKey() string {
	if q.SuperTopic == "" || q.SubTopic == "" {
		return ""
	}
	return TopicKey(q.SuperTopic, q.SubTopic)
}

// TopicKey joins a super topic and a sub topic into a selector key.
func TopicKey(superTopic, subTopic string) string {
	return strings.TrimSpace(superTopic) + "::" + strings.TrimSpace(subTopic)
}

// Index maps question ids to records.
func Index(qs []Question) map[string]Question {
	m := make(map[string]Question, len(qs))
	for _, q := range qs {
		m[q.ID] = q
	}
	return m
}

// IDs returns the ids of qs in order.
func IDs(qs []Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
