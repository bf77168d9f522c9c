package quizsession

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/examgen/backend/internal/store"
)

// ToRecord serializes s into its stored form for dataset d.
func ToRecord(s *Session, d Dataset) store.SessionRecord {
	rec := store.SessionRecord{
		ID:            s.ID,
		CreatedAt:     s.CreatedAt.UnixMilli(),
		DatasetID:     d.ID,
		DatasetLabel:  d.label(),
		Kind:          store.KindQuiz,
		QuizConfig:    s.configJSON(),
		QuestionOrder: slices.Clone(s.QuestionOrder),
		AnswerOrder:   cloneIndexMap(s.AnswerOrder),
		Answers:       cloneIndexMap(s.Answers),
		Submitted:     s.SubmittedIDs(),
		Results:       make(map[string]json.RawMessage, len(s.Results)),
	}
	if rec.QuestionOrder == nil {
		rec.QuestionOrder = []string{}
	}
	if d.NotebookURL != "" {
		url := d.NotebookURL
		rec.NotebookURL = &url
	}
	if s.FinishedAt != nil {
		ms := s.FinishedAt.UnixMilli()
		rec.FinishedAt = &ms
	}
	for qid, correct := range s.Results {
		rec.Results[qid] = store.EncodeResult(correct)
	}
	return rec
}

// FromRecord rebuilds a session from its stored form. Entries that refer to
// questions outside QuestionOrder and results of unsubmitted questions are
// dropped. A submitted question whose result is missing or cannot be decoded
// is reopened so that it can be submitted again.
func FromRecord(rec store.SessionRecord) (*Session, error) {
	if rec.Kind != store.KindQuiz {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionType, rec.Kind)
	}

	s := newSession(rec.ID, time.UnixMilli(rec.CreatedAt), DefaultConfig())
	if len(rec.QuizConfig) > 0 && string(rec.QuizConfig) != "null" {
		s.rawConfig = slices.Clone(rec.QuizConfig)
		var cfg Config
		if err := json.Unmarshal(rec.QuizConfig, &cfg); err == nil {
			s.Config = cfg
		}
	}
	if rec.FinishedAt != nil && *rec.FinishedAt != 0 {
		t := time.UnixMilli(*rec.FinishedAt)
		s.FinishedAt = &t
	}

	seen := make(map[string]struct{}, len(rec.QuestionOrder))
	for _, qid := range rec.QuestionOrder {
		if _, dup := seen[qid]; dup {
			continue
		}
		seen[qid] = struct{}{}
		s.QuestionOrder = append(s.QuestionOrder, qid)
	}
	member := func(qid string) bool {
		_, ok := seen[qid]
		return ok
	}

	for qid, order := range rec.AnswerOrder {
		if member(qid) && order != nil {
			s.AnswerOrder[qid] = slices.Clone(order)
		}
	}
	for qid, sel := range rec.Answers {
		if member(qid) && sel != nil {
			s.Answers[qid] = slices.Clone(sel)
		}
	}
	for _, qid := range rec.Submitted {
		if member(qid) {
			s.Submitted[qid] = struct{}{}
		}
	}
	for qid, raw := range rec.Results {
		if !s.IsSubmitted(qid) {
			continue
		}
		if correct, ok := store.DecodeResult(raw); ok {
			s.Results[qid] = correct
		}
	}
	for qid := range s.Submitted {
		if _, ok := s.Results[qid]; !ok {
			delete(s.Submitted, qid)
		}
	}
	return s, nil
}

func (s *Session) configJSON() json.RawMessage {
	if len(s.rawConfig) > 0 {
		return slices.Clone(s.rawConfig)
	}
	data, err := json.Marshal(s.Config)
	if err != nil {
		return nil
	}
	return data
}
