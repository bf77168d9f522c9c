package quizsession

import "github.com/examgen/backend/internal/filter"

type QuizMode string

const (
	// ModePractice shows solutions right after each submission.
	ModePractice QuizMode = "practice"
	// ModeExam shows solutions only once the session is finished.
	ModeExam QuizMode = "exam"
)

// Config is the configuration a quiz session was started with. It is
// persisted verbatim alongside the session.
type Config struct {
	filter.Criteria

	QuizMode       QuizMode `json:"quizMode,omitempty"`
	ShuffleAnswers bool     `json:"shuffleAnswers"`

	// PreferOriginalKey scores questions with an edited answer key against
	// the key they had before the edit.
	PreferOriginalKey bool `json:"preferOriginalKey,omitempty"`
	// UseModifiedKey is the older spelling of !PreferOriginalKey found in
	// stored sessions.
	UseModifiedKey *bool `json:"useAiModifiedAnswers,omitempty"`
}

// DefaultConfig returns a practice configuration without any shuffling.
func DefaultConfig() Config {
	return Config{
		QuizMode: ModePractice,
	}
}

// PrefersOriginal resolves the answer-key policy, honouring the legacy
// field when it is set.
func (c Config) PrefersOriginal() bool {
	if c.UseModifiedKey != nil && !*c.UseModifiedKey {
		return true
	}
	return c.PreferOriginalKey
}

// SolutionsVisible reports whether solutions may be revealed in view v.
func (c Config) SolutionsVisible(v View) bool {
	if c.QuizMode == ModeExam {
		return v == ViewReview
	}
	return true
}
