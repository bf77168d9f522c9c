package quizsession_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/examgen/backend/internal/domain/question"
	"github.com/examgen/backend/internal/domain/quizsession"
	"github.com/examgen/backend/internal/filter"
	"github.com/examgen/backend/internal/random"
	"github.com/examgen/backend/internal/store"
)

var errStoreDown = errors.New("store down")

// memStore records saves and deletes and can be told to fail.
type memStore struct {
	saved      map[string]store.SessionRecord
	saves      int
	deletes    []string
	failSave   bool
	failDelete bool
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]store.SessionRecord)}
}

func (m *memStore) Save(_ context.Context, _ string, rec store.SessionRecord) (store.SessionRecord, error) {
	if m.failSave {
		return store.SessionRecord{}, errStoreDown
	}
	m.saves++
	m.saved[rec.ID] = rec
	return rec, nil
}

func (m *memStore) Delete(_ context.Context, _ string, sessionID string) error {
	if m.failDelete {
		return errStoreDown
	}
	m.deletes = append(m.deletes, sessionID)
	delete(m.saved, sessionID)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func answers(n int) []question.Answer {
	out := make([]question.Answer, n)
	for i := range out {
		out[i] = question.Answer{Text: string(rune('A' + i))}
	}
	return out
}

func testQuestions() []question.Question {
	return []question.Question{
		{ID: "q1", ExamName: "E1", Text: "one", Answers: answers(4), CorrectIndices: []int{1}},
		{ID: "q2", ExamName: "E1", Text: "two", Answers: answers(4), CorrectIndices: []int{0, 2}},
		{
			ID: "q3", ExamName: "E2", Text: "three", Answers: answers(4),
			CorrectIndices: []int{3}, OriginalCorrectIndices: []int{0}, KeyChanged: true,
		},
	}
}

var fixedStart = time.UnixMilli(1_700_000_000_123)

func newTestEngine(s quizsession.SessionStore) *quizsession.Engine {
	now := fixedStart
	return quizsession.NewEngine(
		quizsession.Dataset{ID: "ds", Label: "Dataset"},
		s,
		discardLogger(),
		quizsession.WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}),
		quizsession.WithIDGenerator(func(time.Time) string { return "s_test" }),
	)
}

func startedEngine(t *testing.T, s quizsession.SessionStore, cfg quizsession.Config) *quizsession.Engine {
	t.Helper()
	e := newTestEngine(s)
	if err := e.Start(context.Background(), testQuestions(), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	return e
}

func TestStart_EmptySubset(t *testing.T) {
	e := newTestEngine(newMemStore())

	err := e.Start(context.Background(), nil, quizsession.DefaultConfig())
	if !errors.Is(err, quizsession.ErrInvalidSubset) {
		t.Fatalf("expected ErrInvalidSubset, got %v", err)
	}
	if e.View() != quizsession.ViewConfig {
		t.Errorf("expected config view, got %s", e.View())
	}
}

func TestStart_SetsOrderAndPersists(t *testing.T) {
	ms := newMemStore()
	qs := testQuestions()
	subset := []question.Question{qs[2], qs[0], qs[2], qs[1]}

	e := newTestEngine(ms)
	if err := e.Start(context.Background(), subset, quizsession.DefaultConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if e.View() != quizsession.ViewQuiz {
		t.Errorf("expected quiz view, got %s", e.View())
	}
	s := e.Session()
	if want := []string{"q3", "q1", "q2"}; !slices.Equal(s.QuestionOrder, want) {
		t.Errorf("expected order %v, got %v", want, s.QuestionOrder)
	}
	if len(s.AnswerOrder) != 0 {
		t.Errorf("expected no answer order without shuffling, got %v", s.AnswerOrder)
	}
	if s.CreatedAt.UnixMilli()%1000 != 123 {
		t.Errorf("expected millisecond creation time, got %v", s.CreatedAt)
	}
	rec, ok := ms.saved["s_test"]
	if !ok {
		t.Fatal("expected session to be persisted on start")
	}
	if rec.Kind != store.KindQuiz || rec.DatasetID != "ds" || rec.DatasetLabel != "Dataset" {
		t.Errorf("unexpected record header: %+v", rec)
	}
}

func TestStart_ShuffledAnswerOrderIsSeededBySessionAndQuestion(t *testing.T) {
	cfg := quizsession.DefaultConfig()
	cfg.ShuffleAnswers = true

	e := startedEngine(t, newMemStore(), cfg)
	s := e.Session()

	for _, q := range testQuestions() {
		want := random.Perm(len(q.Answers), random.New(random.SeedFromString("s_test|"+q.ID)))
		if got := s.AnswerOrder[q.ID]; !slices.Equal(got, want) {
			t.Errorf("%s: expected display order %v, got %v", q.ID, want, got)
		}
		if got := s.DisplayOrder(q.ID, len(q.Answers)); !slices.Equal(got, want) {
			t.Errorf("%s: DisplayOrder returned %v", q.ID, got)
		}
	}
}

func TestStart_DiscardsPreviousState(t *testing.T) {
	e := startedEngine(t, newMemStore(), quizsession.DefaultConfig())
	q := testQuestions()[0]
	ctx := context.Background()
	if err := e.Select(ctx, q, []int{1}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := e.Submit(ctx, q); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := e.Start(ctx, testQuestions()[:2], quizsession.DefaultConfig()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	s := e.Session()
	if len(s.Answers) != 0 || len(s.Submitted) != 0 || len(s.Results) != 0 {
		t.Errorf("expected a clean session, got %+v", s)
	}
}

func TestSelect_SingleCorrectKeepsLastIndex(t *testing.T) {
	e := startedEngine(t, newMemStore(), quizsession.DefaultConfig())
	q := testQuestions()[0]

	if err := e.Select(context.Background(), q, []int{2, 0}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := e.Session().Answers["q1"]; !slices.Equal(got, []int{0}) {
		t.Errorf("expected [0], got %v", got)
	}
}

func TestSelect_MultiCorrectKeepsSet(t *testing.T) {
	e := startedEngine(t, newMemStore(), quizsession.DefaultConfig())
	q := testQuestions()[1]

	if err := e.Select(context.Background(), q, []int{2, 0, 2}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := e.Session().Answers["q2"]; !slices.Equal(got, []int{0, 2}) {
		t.Errorf("expected [0 2], got %v", got)
	}
}

func TestSelect_Errors(t *testing.T) {
	ctx := context.Background()
	qs := testQuestions()

	idle := newTestEngine(newMemStore())
	if err := idle.Select(ctx, qs[0], []int{0}); !errors.Is(err, quizsession.ErrNotActive) {
		t.Errorf("expected ErrNotActive without a session, got %v", err)
	}

	e := startedEngine(t, newMemStore(), quizsession.DefaultConfig())
	stranger := question.Question{ID: "qx", Answers: answers(2), CorrectIndices: []int{0}}
	if err := e.Select(ctx, stranger, []int{0}); !errors.Is(err, quizsession.ErrNotInSession) {
		t.Errorf("expected ErrNotInSession, got %v", err)
	}
	if err := e.Select(ctx, qs[0], []int{4}); !errors.Is(err, quizsession.ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection, got %v", err)
	}
	if err := e.Select(ctx, qs[0], []int{-1}); !errors.Is(err, quizsession.ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection for negative index, got %v", err)
	}
}

func TestSubmit_GradesAndLocks(t *testing.T) {
	ms := newMemStore()
	e := startedEngine(t, ms, quizsession.DefaultConfig())
	ctx := context.Background()
	qs := testQuestions()

	if err := e.Select(ctx, qs[0], []int{1}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := e.Submit(ctx, qs[0]); err != nil {
		t.Fatalf("submit q1: %v", err)
	}
	if err := e.Select(ctx, qs[1], []int{0}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := e.Submit(ctx, qs[1]); err != nil {
		t.Fatalf("submit q2: %v", err)
	}

	s := e.Session()
	if correct, ok := s.Result("q1"); !ok || !correct {
		t.Errorf("expected q1 correct, got %v (ok=%v)", correct, ok)
	}
	if correct, ok := s.Result("q2"); !ok || correct {
		t.Errorf("expected q2 wrong, got %v (ok=%v)", correct, ok)
	}

	if err := e.Submit(ctx, qs[0]); !errors.Is(err, quizsession.ErrAlreadySubmitted) {
		t.Errorf("expected ErrAlreadySubmitted, got %v", err)
	}
	if err := e.Select(ctx, qs[0], []int{2}); !errors.Is(err, quizsession.ErrAlreadySubmitted) {
		t.Errorf("expected selection to be locked, got %v", err)
	}

	rec := ms.saved["s_test"]
	if !slices.Equal(rec.Submitted, []string{"q1", "q2"}) {
		t.Errorf("expected persisted submissions [q1 q2], got %v", rec.Submitted)
	}
	if string(rec.Results["q1"]) != "true" || string(rec.Results["q2"]) != "false" {
		t.Errorf("unexpected persisted results: %s %s", rec.Results["q1"], rec.Results["q2"])
	}
}

func TestSubmit_WithoutSelectionIsWrong(t *testing.T) {
	e := startedEngine(t, newMemStore(), quizsession.DefaultConfig())

	if err := e.Submit(context.Background(), testQuestions()[0]); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if correct, ok := e.Session().Result("q1"); !ok || correct {
		t.Errorf("expected a stored wrong result, got %v (ok=%v)", correct, ok)
	}
}

func TestSubmit_AnswerKeyPolicy(t *testing.T) {
	ctx := context.Background()
	q3 := testQuestions()[2]

	current := startedEngine(t, newMemStore(), quizsession.DefaultConfig())
	_ = current.Select(ctx, q3, []int{3})
	_ = current.Submit(ctx, q3)
	if correct, _ := current.Session().Result("q3"); !correct {
		t.Error("expected current key to accept index 3")
	}

	cfg := quizsession.DefaultConfig()
	cfg.PreferOriginalKey = true
	original := startedEngine(t, newMemStore(), cfg)
	_ = original.Select(ctx, q3, []int{0})
	_ = original.Submit(ctx, q3)
	if correct, _ := original.Session().Result("q3"); !correct {
		t.Error("expected original key to accept index 0")
	}
}

func TestUnsubmit_KeepsSelection(t *testing.T) {
	e := startedEngine(t, newMemStore(), quizsession.DefaultConfig())
	ctx := context.Background()
	q := testQuestions()[0]

	_ = e.Select(ctx, q, []int{2})
	_ = e.Submit(ctx, q)
	if err := e.Unsubmit(ctx, "q1"); err != nil {
		t.Fatalf("unsubmit: %v", err)
	}

	s := e.Session()
	if s.IsSubmitted("q1") {
		t.Error("expected q1 to be reopened")
	}
	if _, ok := s.Result("q1"); ok {
		t.Error("expected q1 result to be cleared")
	}
	if !slices.Equal(s.Answers["q1"], []int{2}) {
		t.Errorf("expected selection to survive, got %v", s.Answers["q1"])
	}

	if err := e.Select(ctx, q, []int{1}); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if err := e.Submit(ctx, q); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if correct, _ := e.Session().Result("q1"); !correct {
		t.Error("expected revised answer to be correct")
	}
}

func TestFinish_SetsTimestampOnce(t *testing.T) {
	ms := newMemStore()
	e := startedEngine(t, ms, quizsession.DefaultConfig())
	ctx := context.Background()

	if err := e.Finish(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if e.View() != quizsession.ViewReview {
		t.Errorf("expected review view, got %s", e.View())
	}
	first := e.Session().FinishedAt
	if first == nil {
		t.Fatal("expected finishedAt to be set")
	}

	if err := e.Finish(ctx); err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if !e.Session().FinishedAt.Equal(*first) {
		t.Errorf("expected finishedAt to stay %v, got %v", first, e.Session().FinishedAt)
	}
	if rec := ms.saved["s_test"]; rec.FinishedAt == nil || *rec.FinishedAt != first.UnixMilli() {
		t.Errorf("expected persisted finishedAt %d, got %v", first.UnixMilli(), rec.FinishedAt)
	}
}

func TestFinish_FreezesAnswers(t *testing.T) {
	e := startedEngine(t, newMemStore(), quizsession.DefaultConfig())
	ctx := context.Background()
	q := testQuestions()[0]
	_ = e.Finish(ctx)

	if err := e.Select(ctx, q, []int{1}); !errors.Is(err, quizsession.ErrNotActive) {
		t.Errorf("expected ErrNotActive in review, got %v", err)
	}
	if err := e.Submit(ctx, q); !errors.Is(err, quizsession.ErrNotActive) {
		t.Errorf("expected ErrNotActive in review, got %v", err)
	}
	if err := e.Unsubmit(ctx, q.ID); !errors.Is(err, quizsession.ErrNotActive) {
		t.Errorf("expected ErrNotActive in review, got %v", err)
	}
}

func TestFinish_WithoutSession(t *testing.T) {
	e := newTestEngine(newMemStore())
	if err := e.Finish(context.Background()); !errors.Is(err, quizsession.ErrNotActive) {
		t.Errorf("expected ErrNotActive, got %v", err)
	}
}

func TestAbort_DeletesAndResets(t *testing.T) {
	ms := newMemStore()
	e := startedEngine(t, ms, quizsession.DefaultConfig())
	ctx := context.Background()
	_ = e.Finish(ctx)

	e.Abort(ctx)

	if e.View() != quizsession.ViewConfig {
		t.Errorf("expected config view, got %s", e.View())
	}
	if e.Session() != nil {
		t.Error("expected session to be cleared")
	}
	if !slices.Equal(ms.deletes, []string{"s_test"}) {
		t.Errorf("expected delete of s_test, got %v", ms.deletes)
	}
}

func TestAbort_SwallowsDeleteFailure(t *testing.T) {
	ms := newMemStore()
	e := startedEngine(t, ms, quizsession.DefaultConfig())
	ms.failDelete = true

	e.Abort(context.Background())

	if e.View() != quizsession.ViewConfig || e.Session() != nil {
		t.Error("expected engine to reset even when delete fails")
	}
}

func TestSaveFailure_KeepsInMemoryState(t *testing.T) {
	ms := newMemStore()
	e := startedEngine(t, ms, quizsession.DefaultConfig())
	ms.failSave = true
	ctx := context.Background()
	q := testQuestions()[0]

	if err := e.Select(ctx, q, []int{1}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := e.Submit(ctx, q); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if correct, ok := e.Session().Result("q1"); !ok || !correct {
		t.Error("expected in-memory result despite failed save")
	}
	if got := ms.saved["s_test"].Submitted; len(got) != 0 {
		t.Errorf("expected last durable save to predate the failure, got %v", got)
	}
}

func TestExitToConfig_KeepsSession(t *testing.T) {
	e := startedEngine(t, newMemStore(), quizsession.DefaultConfig())

	e.ExitToConfig()

	if e.View() != quizsession.ViewConfig {
		t.Errorf("expected config view, got %s", e.View())
	}
	if e.Session() == nil {
		t.Error("expected session to be kept")
	}
}

func TestStartSearch(t *testing.T) {
	e := startedEngine(t, newMemStore(), quizsession.DefaultConfig())
	qs := testQuestions()
	criteria := filter.Criteria{Query: "t"}

	e.StartSearch(filter.SearchSubset(qs, criteria), criteria)

	if e.View() != quizsession.ViewSearch {
		t.Errorf("expected search view, got %s", e.View())
	}
	sv := e.Search()
	if sv == nil || !slices.Equal(sv.Order, []string{"q2", "q3"}) {
		t.Errorf("expected search order [q2 q3], got %+v", sv)
	}
	if e.Session() == nil {
		t.Error("expected search to leave the session alone")
	}
}

func TestSession_ReturnsCopy(t *testing.T) {
	e := startedEngine(t, newMemStore(), quizsession.DefaultConfig())

	s := e.Session()
	s.QuestionOrder[0] = "changed"
	s.Answers["q1"] = []int{3}

	again := e.Session()
	if again.QuestionOrder[0] != "q1" {
		t.Error("expected question order to be unaffected by caller edits")
	}
	if _, ok := again.Answers["q1"]; ok {
		t.Error("expected answers to be unaffected by caller edits")
	}
}

func TestProgress(t *testing.T) {
	e := startedEngine(t, newMemStore(), quizsession.DefaultConfig())
	ctx := context.Background()
	qs := testQuestions()

	if p := e.Progress(); p != (quizsession.Progress{Total: 3}) {
		t.Errorf("unexpected initial progress: %+v", p)
	}

	_ = e.Select(ctx, qs[0], []int{1})
	_ = e.Submit(ctx, qs[0])
	_ = e.Submit(ctx, qs[1])
	_ = e.Select(ctx, qs[2], []int{3})
	_ = e.Submit(ctx, qs[2])

	want := quizsession.Progress{Total: 3, Submitted: 3, Correct: 2, Pct: 67}
	if p := e.Progress(); p != want {
		t.Errorf("expected %+v, got %+v", want, p)
	}
}

func TestHydrate_InvalidKind(t *testing.T) {
	e := newTestEngine(newMemStore())

	err := e.Hydrate(store.SessionRecord{ID: "x", Kind: "flashcards"})
	if !errors.Is(err, quizsession.ErrInvalidSessionType) {
		t.Fatalf("expected ErrInvalidSessionType, got %v", err)
	}
	if e.View() != quizsession.ViewConfig {
		t.Errorf("expected view to stay config, got %s", e.View())
	}
}

func TestLifecycle_AgainstSQLStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sqlStore := store.NewSQLStore(db, discardLogger())
	t.Cleanup(func() { sqlStore.Close() })

	cfg := quizsession.DefaultConfig()
	cfg.ShuffleAnswers = true
	cfg.Exams = []string{"E1", "E2"}
	e := startedEngine(t, sqlStore, cfg)
	qs := testQuestions()

	_ = e.Select(ctx, qs[0], []int{1})
	_ = e.Submit(ctx, qs[0])
	_ = e.Select(ctx, qs[1], []int{0, 2})
	_ = e.Submit(ctx, qs[1])
	_ = e.Select(ctx, qs[2], []int{1})
	if err := e.Finish(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}
	want := e.Session()

	rec, err := sqlStore.Load(ctx, "ds", "s_test")
	if err != nil || rec == nil {
		t.Fatalf("load: rec=%v err=%v", rec, err)
	}
	restored := newTestEngine(sqlStore)
	if err := restored.Hydrate(*rec); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if restored.View() != quizsession.ViewReview {
		t.Errorf("expected review view, got %s", restored.View())
	}
	assertSessionsEqual(t, want, restored.Session())

	latest, err := sqlStore.LatestAnsweredResultsByQuestion(ctx, "ds")
	if err != nil {
		t.Fatalf("latest answered: %v", err)
	}
	if len(latest) != 2 || !latest["q1"] || !latest["q2"] {
		t.Errorf("unexpected latest answered results: %v", latest)
	}

	restored.Abort(ctx)
	rec, err = sqlStore.Load(ctx, "ds", "s_test")
	if err != nil {
		t.Fatalf("load after abort: %v", err)
	}
	if rec != nil {
		t.Error("expected session to be gone after abort")
	}
}
