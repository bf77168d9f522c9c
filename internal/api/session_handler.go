package api

import (
	"fmt"
	"net/http"

	"github.com/examgen/backend/internal/catalog"
	"github.com/examgen/backend/internal/domain/question"
	"github.com/examgen/backend/internal/domain/quizsession"
	"github.com/examgen/backend/internal/filter"
	"github.com/examgen/backend/internal/service"
	"github.com/examgen/backend/internal/store"
)

// ── Request / Response types ────────────────────────────────────────────────

type StartSessionRequest struct {
	quizsession.Config

	// QuestionIDs starts the session on exactly these questions, in this
	// order, instead of running the filters.
	QuestionIDs []string `json:"questionIds,omitempty"`
}

type SelectAnswerRequest struct {
	Selected []int `json:"selected"`
}

type SessionQuestion struct {
	QuestionView
	Selected  []int `json:"selected"`
	Submitted bool  `json:"submitted"`
	Correct   *bool `json:"correct,omitempty"`
}

type SessionResponse struct {
	ID         string               `json:"id"`
	View       quizsession.View     `json:"view"`
	CreatedAt  int64                `json:"createdAt"`
	FinishedAt *int64               `json:"finishedAt,omitempty"`
	Config     quizsession.Config   `json:"config"`
	Progress   quizsession.Progress `json:"progress"`
	Questions  []SessionQuestion    `json:"questions"`
}

type SessionSummary struct {
	ID         string                `json:"id"`
	Kind       string                `json:"kind"`
	CreatedAt  int64                 `json:"createdAt"`
	UpdatedAt  int64                 `json:"updatedAt,omitempty"`
	FinishedAt *int64                `json:"finishedAt,omitempty"`
	Progress   *quizsession.Progress `json:"progress,omitempty"`
}

// ── Rendering ───────────────────────────────────────────────────────────────

// renderSession renders the engine's session against the catalog.
// Questions that no longer exist in the catalog are left out.
func renderSession(e *quizsession.Engine, cat *catalog.Catalog) SessionResponse {
	s := e.Session()
	view := e.View()
	preferOriginal := s.Config.PrefersOriginal()

	resp := SessionResponse{
		ID:        s.ID,
		View:      view,
		CreatedAt: s.CreatedAt.UnixMilli(),
		Config:    s.Config,
		Progress:  e.Progress(),
		Questions: make([]SessionQuestion, 0, len(s.QuestionOrder)),
	}
	if s.FinishedAt != nil {
		ms := s.FinishedAt.UnixMilli()
		resp.FinishedAt = &ms
	}

	for _, qid := range s.QuestionOrder {
		q, ok := cat.Get(qid)
		if !ok {
			continue
		}
		submitted := s.IsSubmitted(qid)
		reveal := s.Config.SolutionsVisible(view) && (submitted || view == quizsession.ViewReview)

		sq := SessionQuestion{
			QuestionView: questionView(q, s.DisplayOrder(qid, len(q.Answers)), reveal, preferOriginal),
			Selected:     s.Answers[qid],
			Submitted:    submitted,
		}
		if sq.Selected == nil {
			sq.Selected = []int{}
		}
		if correct, ok := s.Result(qid); ok && reveal {
			sq.Correct = &correct
		}
		resp.Questions = append(resp.Questions, sq)
	}
	return resp
}

func summarize(rec store.SessionRecord) SessionSummary {
	sum := SessionSummary{
		ID:         rec.ID,
		Kind:       rec.Kind,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
		FinishedAt: rec.FinishedAt,
	}
	if s, err := quizsession.FromRecord(rec); err == nil {
		p := s.Progress()
		sum.Progress = &p
	}
	return sum
}

// ── Handlers ────────────────────────────────────────────────────────────────

// startSession creates a quiz session from the filters or an explicit list.
// @Summary      Start a quiz session
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        datasetID  path  string               true  "Dataset ID"
// @Param        request    body  StartSessionRequest  true  "Session configuration"
// @Success      201  {object}  SessionResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /datasets/{datasetID}/sessions [post]
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	datasetID := r.PathValue("datasetID")

	req := StartSessionRequest{Config: quizsession.DefaultConfig()}
	if !decodeJSON(w, r, &req) {
		return
	}

	ds, err := h.catalogs.Dataset(datasetID)
	if h.handleError(w, err, "dataset") {
		return
	}
	cat, err := h.catalogs.Catalog(ctx, datasetID)
	if h.handleError(w, err, "catalog") {
		return
	}

	subset := cat.Subset(req.QuestionIDs)
	if len(req.QuestionIDs) == 0 {
		subset = filter.Apply(cat.All(), req.Config.Criteria)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.newEngine(ds)
	if err := e.Start(ctx, subset, req.Config); h.handleError(w, err, "session") {
		return
	}
	respondJSON(w, http.StatusCreated, renderSession(e, cat))
}

// listSessions lists the stored sessions of a dataset, newest first.
// @Summary      List sessions
// @Tags         Sessions
// @Produce      json
// @Param        datasetID  path  string  true  "Dataset ID"
// @Success      200  {array}   SessionSummary
// @Failure      404  {object}  map[string]string
// @Router       /datasets/{datasetID}/sessions [get]
func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	datasetID := r.PathValue("datasetID")
	if _, err := h.catalogs.Dataset(datasetID); h.handleError(w, err, "dataset") {
		return
	}

	list, err := h.store.List(r.Context(), datasetID)
	if h.handleError(w, err, "sessions") {
		return
	}

	out := make([]SessionSummary, len(list))
	for i, rec := range list {
		out[i] = summarize(rec)
	}
	respondJSON(w, http.StatusOK, out)
}

// latestFinishedSession returns the most recently finished quiz.
// @Summary      Latest finished session
// @Tags         Sessions
// @Produce      json
// @Param        datasetID  path  string  true  "Dataset ID"
// @Success      200  {object}  SessionResponse
// @Failure      404  {object}  map[string]string
// @Router       /datasets/{datasetID}/sessions/latest-finished [get]
func (h *Handler) latestFinishedSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	datasetID := r.PathValue("datasetID")

	rec, err := h.store.LatestFinishedQuiz(ctx, datasetID)
	if h.handleError(w, err, "session") {
		return
	}
	if rec == nil {
		http.Error(w, "no finished session", http.StatusNotFound)
		return
	}

	e, cat, err := h.loadEngine(ctx, datasetID, rec.ID)
	if h.handleError(w, err, "session") {
		return
	}
	respondJSON(w, http.StatusOK, renderSession(e, cat))
}

// getSession resumes a stored session.
// @Summary      Get a session
// @Description  Returns the session in quiz view, or in review view once it is finished.
// @Tags         Sessions
// @Produce      json
// @Param        datasetID  path  string  true  "Dataset ID"
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  SessionResponse
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /datasets/{datasetID}/sessions/{sessionID} [get]
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	e, cat, err := h.loadEngine(r.Context(), r.PathValue("datasetID"), r.PathValue("sessionID"))
	if h.handleError(w, err, "session") {
		return
	}
	respondJSON(w, http.StatusOK, renderSession(e, cat))
}

// selectAnswer replaces the current selection of a question.
// @Summary      Select answers
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        datasetID   path  string               true  "Dataset ID"
// @Param        sessionID   path  string               true  "Session ID"
// @Param        questionID  path  string               true  "Question ID"
// @Param        request     body  SelectAnswerRequest  true  "Selected original answer indices"
// @Success      200  {object}  SessionResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /datasets/{datasetID}/sessions/{sessionID}/answers/{questionID} [put]
func (h *Handler) selectAnswer(w http.ResponseWriter, r *http.Request) {
	var req SelectAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.mutateQuestion(w, r, func(e *quizsession.Engine, q question.Question) error {
		return e.Select(r.Context(), q, req.Selected)
	})
}

// submitAnswer locks in the selection of a question and grades it.
// @Summary      Submit an answer
// @Tags         Sessions
// @Produce      json
// @Param        datasetID   path  string  true  "Dataset ID"
// @Param        sessionID   path  string  true  "Session ID"
// @Param        questionID  path  string  true  "Question ID"
// @Success      200  {object}  SessionResponse
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /datasets/{datasetID}/sessions/{sessionID}/answers/{questionID}/submit [post]
func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	h.mutateQuestion(w, r, func(e *quizsession.Engine, q question.Question) error {
		return e.Submit(r.Context(), q)
	})
}

// unsubmitAnswer reopens a submitted question.
// @Summary      Reopen an answer
// @Tags         Sessions
// @Produce      json
// @Param        datasetID   path  string  true  "Dataset ID"
// @Param        sessionID   path  string  true  "Session ID"
// @Param        questionID  path  string  true  "Question ID"
// @Success      200  {object}  SessionResponse
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /datasets/{datasetID}/sessions/{sessionID}/answers/{questionID}/submit [delete]
func (h *Handler) unsubmitAnswer(w http.ResponseWriter, r *http.Request) {
	h.mutateQuestion(w, r, func(e *quizsession.Engine, q question.Question) error {
		return e.Unsubmit(r.Context(), q.ID)
	})
}

// mutateQuestion runs fn on a hydrated engine for the request's question
// and responds with the updated session.
func (h *Handler) mutateQuestion(w http.ResponseWriter, r *http.Request, fn func(*quizsession.Engine, question.Question) error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, cat, err := h.loadEngine(r.Context(), r.PathValue("datasetID"), r.PathValue("sessionID"))
	if h.handleError(w, err, "session") {
		return
	}
	q, ok := cat.Get(r.PathValue("questionID"))
	if !ok {
		http.Error(w, "question not found", http.StatusNotFound)
		return
	}
	if h.handleError(w, fn(e, q), "answer") {
		return
	}
	respondJSON(w, http.StatusOK, renderSession(e, cat))
}

// finishSession moves a session to review.
// @Summary      Finish a session
// @Tags         Sessions
// @Produce      json
// @Param        datasetID  path  string  true  "Dataset ID"
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  SessionResponse
// @Failure      404  {object}  map[string]string
// @Router       /datasets/{datasetID}/sessions/{sessionID}/finish [post]
func (h *Handler) finishSession(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, cat, err := h.loadEngine(r.Context(), r.PathValue("datasetID"), r.PathValue("sessionID"))
	if h.handleError(w, err, "session") {
		return
	}
	if h.handleError(w, e.Finish(r.Context()), "session") {
		return
	}
	respondJSON(w, http.StatusOK, renderSession(e, cat))
}

// abortSession deletes a session.
// @Summary      Abort a session
// @Tags         Sessions
// @Param        datasetID  path  string  true  "Dataset ID"
// @Param        sessionID  path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /datasets/{datasetID}/sessions/{sessionID} [delete]
func (h *Handler) abortSession(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, _, err := h.loadEngine(r.Context(), r.PathValue("datasetID"), r.PathValue("sessionID"))
	if h.handleError(w, err, "session") {
		return
	}
	e.Abort(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// exportResults downloads the session's answers as CSV.
// @Summary      Export session results
// @Tags         Sessions
// @Produce      text/csv
// @Param        datasetID  path  string  true  "Dataset ID"
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {string}  string
// @Failure      404  {object}  map[string]string
// @Router       /datasets/{datasetID}/sessions/{sessionID}/results.csv [get]
func (h *Handler) exportResults(w http.ResponseWriter, r *http.Request) {
	datasetID := r.PathValue("datasetID")
	e, cat, err := h.loadEngine(r.Context(), datasetID, r.PathValue("sessionID"))
	if h.handleError(w, err, "session") {
		return
	}

	s := e.Session()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", datasetID+"_results.csv"))
	if err := service.WriteResultsCSV(w, s, cat.Subset(s.QuestionOrder)); err != nil {
		h.logger.Error("failed to write results", "error", err, "session_id", s.ID)
	}
}
