package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizmaster/quizmaster/internal/attempt"
)

func (h *Handler) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.catalog.Get(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// The timer outlives this request, so it is bound to the server
	// context rather than the request context.
	a := h.attempts.Start(h.baseCtx, quiz)
	writeJSON(w, http.StatusCreated, h.attemptView(a))
}

func (h *Handler) handleAttemptView(w http.ResponseWriter, r *http.Request) {
	a, err := h.attempts.Get(chi.URLParam(r, "attemptID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.attemptView(a))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	h.transition(w, r, func(a *attempt.Attempt) error {
		return a.Select(req.Option)
	})
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(a *attempt.Attempt) error {
		return a.Next()
	})
}

func (h *Handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(a *attempt.Attempt) error {
		return a.Previous()
	})
}

func (h *Handler) handleJump(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	h.transition(w, r, func(a *attempt.Attempt) error {
		return a.JumpTo(req.Index)
	})
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	a, err := h.attempts.Get(chi.URLParam(r, "attemptID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := a.Result()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	h.attempts.Remove(chi.URLParam(r, "attemptID"))
	w.WriteHeader(http.StatusNoContent)
}

// transition applies op to the attempt from the URL and responds with the
// updated view.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(*attempt.Attempt) error) {
	a, err := h.attempts.Get(chi.URLParam(r, "attemptID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := op(a); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.attemptView(a))
}

func (h *Handler) attemptView(a *attempt.Attempt) attemptResponse {
	p := a.Progress()
	quiz := a.Quiz()
	current := quiz.Questions[p.Current]
	return attemptResponse{
		AttemptID:        a.ID(),
		QuizID:           quiz.ID,
		Title:            quiz.Title,
		QuestionCount:    len(quiz.Questions),
		CurrentQuestion:  p.Current,
		Question:         questionView{Question: current.Prompt, Options: current.Options},
		Answers:          p.Answers,
		RemainingSeconds: p.RemainingSeconds,
		Completed:        p.Completed,
	}
}
