package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizmaster/quizmaster/internal/catalog"
	"github.com/quizmaster/quizmaster/internal/model"
)

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: model.Categories})
}

func (h *Handler) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sortKey := q.Get("sort")
	if sortKey == "" {
		sortKey = catalog.SortNewest
	}

	summaries := make([]quizSummary, 0)
	names := make(map[string]string)
	for quiz := range h.catalog.List(r.Context(), q.Get("search"), q.Get("category"), sortKey) {
		name, ok := names[quiz.CreatedBy]
		if !ok {
			name = h.catalog.CreatorName(r.Context(), quiz.CreatedBy)
			names[quiz.CreatedBy] = name
		}
		summaries = append(summaries, toQuizSummary(quiz, name))
	}
	writeJSON(w, http.StatusOK, quizListResponse{Quizzes: summaries})
}

func (h *Handler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.catalog.Get(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quizDetailResponse{
		ID:            quiz.ID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		Category:      quiz.Category,
		CreatedBy:     h.catalog.CreatorName(r.Context(), quiz.CreatedBy),
		CreatedAt:     quiz.CreatedAt,
		QuestionCount: len(quiz.Questions),
		Questions:     toQuestionViews(quiz.Questions),
	})
}

func (h *Handler) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	author := model.IdentityFromContext(r.Context())
	draft := model.QuizDraft{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CreatedBy:   author.ID,
		Questions:   make([]model.Question, len(req.Questions)),
	}
	for i, q := range req.Questions {
		draft.Questions[i] = model.Question{
			Prompt:        q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		}
	}

	quiz, err := h.catalog.Create(r.Context(), draft)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuizSummary(quiz, author.Name))
}
