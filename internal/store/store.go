package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrInvalidBackup = errors.New("invalid backup format")
)

const (
	// Namespace is the versioned prefix of every key this store owns.
	Namespace = "examgen:v1:"
	// SessionsPrefix prefixes every per-dataset session partition.
	SessionsPrefix = Namespace + "sessions:"

	KindQuiz = "quiz"
)

// PartitionKey returns the storage key holding datasetID's session list.
func PartitionKey(datasetID string) string {
	return SessionsPrefix + datasetID
}

// IsSessionKey reports whether key belongs to this store's namespace.
func IsSessionKey(key string) bool {
	return strings.HasPrefix(key, SessionsPrefix)
}

// SessionRecord is the persisted form of a session. Timestamps are epoch
// milliseconds. QuizConfig is stored verbatim.
type SessionRecord struct {
	ID           string  `json:"id"`
	CreatedAt    int64   `json:"createdAt"`
	UpdatedAt    int64   `json:"updatedAt,omitempty"`
	FinishedAt   *int64  `json:"finishedAt"`
	DatasetID    string  `json:"datasetId"`
	DatasetLabel string  `json:"datasetLabel"`
	NotebookURL  *string `json:"notebookUrl"`

	Kind          string                     `json:"kind"`
	QuizConfig    json.RawMessage            `json:"quizConfig,omitempty"`
	QuestionOrder []string                   `json:"questionOrder"`
	AnswerOrder   map[string][]int           `json:"answerOrder"`
	Answers       map[string][]int           `json:"answers"`
	Submitted     []string                   `json:"submitted"`
	Results       map[string]json.RawMessage `json:"results"`
}

// IsFinishedQuiz reports whether r is a quiz that went through finish.
func (r SessionRecord) IsFinishedQuiz() bool {
	return r.Kind == KindQuiz && r.FinishedAt != nil && *r.FinishedAt != 0
}

// recency orders lists: last update, falling back to creation.
func (r SessionRecord) recency() int64 {
	if r.UpdatedAt != 0 {
		return r.UpdatedAt
	}
	return r.CreatedAt
}

// EncodeResult is the canonical stored form of a result.
func EncodeResult(correct bool) json.RawMessage {
	if correct {
		return json.RawMessage("true")
	}
	return json.RawMessage("false")
}

// DecodeResult reads a stored result. Besides booleans it accepts the legacy
// encodings 1/0 and "1"/"0". ok is false for anything else.
func DecodeResult(raw json.RawMessage) (correct bool, ok bool) {
	switch string(bytes.TrimSpace(raw)) {
	case "true", "1", `"1"`:
		return true, true
	case "false", "0", `"0"`:
		return false, true
	default:
		return false, false
	}
}
