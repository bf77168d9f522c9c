package api

import (
	"net/http"
	"strconv"

	"github.com/examgen/backend/internal/catalog"
	"github.com/examgen/backend/internal/domain/question"
	"github.com/examgen/backend/internal/filter"
	"github.com/examgen/backend/internal/grader"
	"github.com/examgen/backend/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type AnswerView struct {
	Index int    `json:"index"` // original index, used for selections
	Text  string `json:"text"`
}

type QuestionView struct {
	ID           string       `json:"id"`
	ExamName     string       `json:"examName,omitempty"`
	ExamYear     *int         `json:"examYear,omitempty"`
	Text         string       `json:"text"`
	Answers      []AnswerView `json:"answers"`
	MultiCorrect bool         `json:"multiCorrect"`
	SuperTopic   string       `json:"superTopic,omitempty"`
	SubTopic     string       `json:"subTopic,omitempty"`
	ImageFiles   []string     `json:"imageFiles,omitempty"`

	// Solution fields are only filled when solutions may be shown.
	CorrectIndices         []int  `json:"correctIndices,omitempty"`
	OriginalCorrectIndices []int  `json:"originalCorrectIndices,omitempty"`
	KeyChanged             bool   `json:"keyChanged,omitempty"`
	Explanation            string `json:"explanation,omitempty"`
}

type SearchResponse struct {
	Criteria  filter.Criteria `json:"criteria"`
	Total     int             `json:"total"`
	Questions []QuestionView  `json:"questions"`
}

type FiltersResponse struct {
	Exams  []string            `json:"exams"`
	Topics map[string][]string `json:"topics"`
}

// questionView renders q with its answers in displayOrder. Solutions are
// included when withSolution is set.
func questionView(q question.Question, displayOrder []int, withSolution, preferOriginal bool) QuestionView {
	v := QuestionView{
		ID:           q.ID,
		ExamName:     q.ExamName,
		ExamYear:     q.ExamYear,
		Text:         q.Text,
		Answers:      make([]AnswerView, 0, len(q.Answers)),
		MultiCorrect: grader.IsMultiCorrect(q),
		SuperTopic:   q.SuperTopic,
		SubTopic:     q.SubTopic,
		ImageFiles:   q.ImageFiles,
	}
	for _, i := range displayOrder {
		if i >= 0 && i < len(q.Answers) {
			v.Answers = append(v.Answers, AnswerView{Index: i, Text: q.Answers[i].Text})
		}
	}
	if withSolution {
		v.CorrectIndices = grader.CorrectIndexSet(q, preferOriginal)
		v.OriginalCorrectIndices = q.OriginalCorrectIndices
		v.KeyChanged = q.KeyChanged
		v.Explanation = q.Explanation
	}
	return v
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// ── Handlers ────────────────────────────────────────────────────────────────

// listDatasets lists the datasets of the manifest.
// @Summary      List datasets
// @Tags         Datasets
// @Produce      json
// @Success      200  {array}   catalog.Dataset
// @Router       /datasets [get]
func (h *Handler) listDatasets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalogs.Datasets())
}

// searchQuestions is the browse view: it filters by exam, images and text
// and returns full questions including solutions.
// @Summary      Search questions
// @Tags         Datasets
// @Produce      json
// @Param        datasetID   path   string  true   "Dataset ID"
// @Param        exam        query  []string  false  "Exam names"  collectionFormat(multi)
// @Param        image       query  string  false  "all, with or without"
// @Param        q           query  string  false  "Search text"
// @Param        in_answers  query  bool    false  "Search answer texts too"
// @Success      200  {object}  SearchResponse
// @Failure      404  {object}  map[string]string
// @Router       /datasets/{datasetID}/questions [get]
func (h *Handler) searchQuestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	datasetID := r.PathValue("datasetID")

	ds, err := h.catalogs.Dataset(datasetID)
	if h.handleError(w, err, "dataset") {
		return
	}
	cat, err := h.catalogs.Catalog(ctx, datasetID)
	if h.handleError(w, err, "catalog") {
		return
	}

	query := r.URL.Query()
	inAnswers, _ := strconv.ParseBool(query.Get("in_answers"))
	criteria := filter.Criteria{
		Exams:     query["exam"],
		ImageMode: question.ImageMode(query.Get("image")),
		Query:     query.Get("q"),
		InAnswers: inAnswers,
	}

	e := h.newEngine(ds)
	e.StartSearch(filter.SearchSubset(cat.All(), criteria), criteria)
	view := e.Search()

	questions := make([]QuestionView, 0, len(view.Order))
	for _, q := range cat.Subset(view.Order) {
		questions = append(questions, questionView(q, identity(len(q.Answers)), true, false))
	}

	respondJSON(w, http.StatusOK, SearchResponse{
		Criteria:  view.Criteria,
		Total:     len(questions),
		Questions: questions,
	})
}

// getFilters returns the values the config view offers as filters.
// @Summary      List filter values
// @Tags         Datasets
// @Produce      json
// @Param        datasetID  path  string  true  "Dataset ID"
// @Success      200  {object}  FiltersResponse
// @Failure      404  {object}  map[string]string
// @Router       /datasets/{datasetID}/filters [get]
func (h *Handler) getFilters(w http.ResponseWriter, r *http.Request) {
	cat, err := h.datasetCatalog(r)
	if h.handleError(w, err, "catalog") {
		return
	}

	exams := cat.Exams()
	if exams == nil {
		exams = []string{}
	}
	respondJSON(w, http.StatusOK, FiltersResponse{
		Exams:  exams,
		Topics: cat.Topics(),
	})
}

// getExamStats aggregates the latest finished results per exam.
// @Summary      Exam statistics
// @Description  Per exam: answered, correct and wrong counts from the most recent finished session that answered each question.
// @Tags         Datasets
// @Produce      json
// @Param        datasetID  path  string  true  "Dataset ID"
// @Success      200  {object}  map[string]service.ExamStats
// @Failure      404  {object}  map[string]string
// @Router       /datasets/{datasetID}/stats [get]
func (h *Handler) getExamStats(w http.ResponseWriter, r *http.Request) {
	cat, err := h.datasetCatalog(r)
	if h.handleError(w, err, "catalog") {
		return
	}

	stats, err := h.stats.ExamStats(r.Context(), r.PathValue("datasetID"), cat.All())
	if h.handleError(w, err, "stats") {
		return
	}
	if stats == nil {
		stats = map[string]service.ExamStats{}
	}
	respondJSON(w, http.StatusOK, stats)
}

// datasetCatalog resolves the request's dataset catalog.
func (h *Handler) datasetCatalog(r *http.Request) (*catalog.Catalog, error) {
	return h.catalogs.Catalog(r.Context(), r.PathValue("datasetID"))
}
