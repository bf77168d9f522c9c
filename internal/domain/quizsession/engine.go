package quizsession

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/examgen/backend/internal/domain/question"
	"github.com/examgen/backend/internal/filter"
	"github.com/examgen/backend/internal/grader"
	"github.com/examgen/backend/internal/id"
	"github.com/examgen/backend/internal/random"
	"github.com/examgen/backend/internal/store"
)

var (
	ErrInvalidSubset      = errors.New("cannot start a session without questions")
	ErrInvalidSessionType = errors.New("invalid session type")
	ErrNotActive          = errors.New("no active quiz session")
	ErrNotInSession       = errors.New("question is not part of the session")
	ErrAlreadySubmitted   = errors.New("question already submitted")
	ErrInvalidSelection   = errors.New("answer index out of range")
)

// SessionStore is the durable side of an Engine.
type SessionStore interface {
	Save(ctx context.Context, datasetID string, rec store.SessionRecord) (store.SessionRecord, error)
	Delete(ctx context.Context, datasetID, sessionID string) error
}

// Dataset identifies the question dataset sessions belong to.
type Dataset struct {
	ID          string
	Label       string
	NotebookURL string
}

func (d Dataset) label() string {
	if d.Label != "" {
		return d.Label
	}
	return d.ID
}

// SearchView is the state of the stateless browse mode.
type SearchView struct {
	Criteria filter.Criteria
	Order    []string
}

// Engine drives one quiz session through config → quiz → review. It is not
// safe for concurrent use; callers serialize access.
//
// In-memory state is authoritative. Every mutation attempts to persist the
// session before returning, but a failed save is only logged.
type Engine struct {
	dataset Dataset
	store   SessionStore
	logger  *slog.Logger
	now     func() time.Time
	newID   func(time.Time) string

	view    View
	session *Session
	search  *SearchView
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(fn func(time.Time) string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine returns an engine in the config view.
func NewEngine(dataset Dataset, s SessionStore, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		dataset: dataset,
		store:   s,
		logger:  logger,
		now:     time.Now,
		newID:   id.NewSessionID,
		view:    ViewConfig,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) View() View { return e.view }

func (e *Engine) Dataset() Dataset { return e.dataset }

// Session returns a copy of the current session, or nil.
func (e *Engine) Session() *Session {
	return e.session.Clone()
}

// Search returns the search view state, or nil outside the search view.
func (e *Engine) Search() *SearchView {
	if e.search == nil {
		return nil
	}
	return &SearchView{Criteria: e.search.Criteria, Order: slices.Clone(e.search.Order)}
}

// Progress summarizes the current session. It is zero without a session.
func (e *Engine) Progress() Progress {
	if e.session == nil {
		return Progress{}
	}
	return e.session.Progress()
}

// Grader returns the grader matching the session's answer-key policy.
func (e *Engine) Grader() grader.Grader {
	if e.session == nil {
		return grader.AnswerKey{}
	}
	return grader.AnswerKey{PreferOriginal: e.session.Config.PrefersOriginal()}
}

// Start begins a new session over subset in the given order. Any previous
// session state is discarded.
func (e *Engine) Start(ctx context.Context, subset []question.Question, cfg Config) error {
	if len(subset) == 0 {
		return ErrInvalidSubset
	}

	now := truncateMillis(e.now())
	s := newSession(e.newID(now), now, cfg)

	seen := make(map[string]struct{}, len(subset))
	for _, q := range subset {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		s.QuestionOrder = append(s.QuestionOrder, q.ID)

		if cfg.ShuffleAnswers {
			rng := random.New(random.SeedFromString(s.ID + "|" + q.ID))
			s.AnswerOrder[q.ID] = random.Perm(len(q.Answers), rng)
		}
	}

	e.session = s
	e.search = nil
	e.view = ViewQuiz
	e.persist(ctx)

	e.logger.Info("quiz session started",
		"dataset_id", e.dataset.ID,
		"session_id", s.ID,
		"questions", len(s.QuestionOrder),
	)
	return nil
}

// Select records the current selection for q. Single-answer questions keep
// only the last index given.
func (e *Engine) Select(ctx context.Context, q question.Question, indices []int) error {
	if err := e.requireQuestion(q.ID); err != nil {
		return err
	}
	if e.session.IsSubmitted(q.ID) {
		return ErrAlreadySubmitted
	}
	for _, i := range indices {
		if i < 0 || i >= len(q.Answers) {
			return ErrInvalidSelection
		}
	}

	multi := grader.IsMultiCorrect(q)
	if !multi && e.session.Config.PrefersOriginal() {
		key := grader.CorrectIndexSet(q, true)
		slices.Sort(key)
		multi = len(slices.Compact(key)) > 1
	}
	sel := slices.Clone(indices)
	if !multi && len(sel) > 1 {
		sel = sel[len(sel)-1:]
	}
	slices.Sort(sel)
	sel = slices.Compact(sel)

	if sel == nil {
		sel = []int{}
	}
	e.session.Answers[q.ID] = sel
	e.persist(ctx)
	return nil
}

// Submit locks in the current selection for q and stores its result.
func (e *Engine) Submit(ctx context.Context, q question.Question) error {
	if err := e.requireQuestion(q.ID); err != nil {
		return err
	}
	if e.session.IsSubmitted(q.ID) {
		return ErrAlreadySubmitted
	}

	selected := e.session.Answers[q.ID]
	e.session.Submitted[q.ID] = struct{}{}
	e.session.Results[q.ID] = e.Grader().Grade(q, selected)
	e.persist(ctx)
	return nil
}

// Unsubmit reopens q for editing. The selection is kept.
func (e *Engine) Unsubmit(ctx context.Context, questionID string) error {
	if err := e.requireQuestion(questionID); err != nil {
		return err
	}
	delete(e.session.Submitted, questionID)
	delete(e.session.Results, questionID)
	e.persist(ctx)
	return nil
}

// Finish moves the session to review. The completion time is recorded on
// the first call only; finishing a reviewed session is a no-op.
func (e *Engine) Finish(ctx context.Context) error {
	if e.session == nil {
		return ErrNotActive
	}
	switch e.view {
	case ViewReview:
		return nil
	case ViewQuiz:
	default:
		return ErrNotActive
	}

	e.view = ViewReview
	if e.session.FinishedAt == nil {
		t := truncateMillis(e.now())
		e.session.FinishedAt = &t
	}
	e.persist(ctx)

	progress := e.session.Progress()
	e.logger.Info("quiz session finished",
		"dataset_id", e.dataset.ID,
		"session_id", e.session.ID,
		"submitted", progress.Submitted,
		"correct", progress.Correct,
	)
	return nil
}

// Abort deletes the session from the store and returns to the config view.
// A failed delete is logged and otherwise ignored.
func (e *Engine) Abort(ctx context.Context) {
	if e.session != nil && e.dataset.ID != "" {
		if err := e.store.Delete(ctx, e.dataset.ID, e.session.ID); err != nil {
			e.logger.Warn("failed to delete aborted session",
				"dataset_id", e.dataset.ID,
				"session_id", e.session.ID,
				"error", err,
			)
		}
	}
	e.reset()
	e.view = ViewConfig
}

// Hydrate replaces the engine state with a stored session. The view becomes
// review for finished sessions and quiz otherwise.
func (e *Engine) Hydrate(rec store.SessionRecord) error {
	s, err := FromRecord(rec)
	if err != nil {
		return err
	}
	e.reset()
	e.session = s
	if s.IsFinished() {
		e.view = ViewReview
	} else {
		e.view = ViewQuiz
	}
	return nil
}

// StartSearch switches to the browse view over subset. The current session,
// if any, is left untouched.
func (e *Engine) StartSearch(subset []question.Question, criteria filter.Criteria) {
	e.view = ViewSearch
	e.search = &SearchView{
		Criteria: criteria,
		Order:    question.IDs(subset),
	}
}

// ExitToConfig returns to the config view without discarding the session.
func (e *Engine) ExitToConfig() {
	e.view = ViewConfig
}

func (e *Engine) requireQuestion(questionID string) error {
	if e.session == nil || e.view != ViewQuiz {
		return ErrNotActive
	}
	if !e.session.Contains(questionID) {
		return ErrNotInSession
	}
	return nil
}

func (e *Engine) reset() {
	e.session = nil
	e.search = nil
}

// persist writes the session to the store. Failures never touch the
// in-memory state.
func (e *Engine) persist(ctx context.Context) {
	if e.session == nil || e.dataset.ID == "" {
		return
	}
	if _, err := e.store.Save(ctx, e.dataset.ID, ToRecord(e.session, e.dataset)); err != nil {
		e.logger.Error("failed to persist quiz session",
			"dataset_id", e.dataset.ID,
			"session_id", e.session.ID,
			"error", err,
		)
	}
}

func truncateMillis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}
