// Package httpapi exposes the quiz platform as a JSON API: registration
// and login, quiz authoring, catalog browsing, and timed quiz attempts.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizmaster/quizmaster/internal/attempt"
	"github.com/quizmaster/quizmaster/internal/catalog"
	"github.com/quizmaster/quizmaster/internal/identity"
	"github.com/quizmaster/quizmaster/internal/model"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	ids      *identity.Store
	catalog  *catalog.Catalog
	attempts *attempt.Registry

	// baseCtx bounds the lifetime of attempt timers to the server, so a
	// shutdown cancels every outstanding countdown.
	baseCtx context.Context
}

// New creates a new Handler. baseCtx should live as long as the server.
func New(baseCtx context.Context, ids *identity.Store, cat *catalog.Catalog, attempts *attempt.Registry) *Handler {
	return &Handler{ids: ids, catalog: cat, attempts: attempts, baseCtx: baseCtx}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)

		r.Get("/categories", h.handleCategories)
		r.Get("/quizzes", h.handleListQuizzes)
		r.Get("/quizzes/{quizID}", h.handleGetQuiz)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/quizzes", h.handleCreateQuiz)
			r.Post("/quizzes/{quizID}/attempts", h.handleStartAttempt)
			r.Get("/attempts/{attemptID}", h.handleAttemptView)
			r.Post("/attempts/{attemptID}/answer", h.handleAnswer)
			r.Post("/attempts/{attemptID}/next", h.handleNext)
			r.Post("/attempts/{attemptID}/previous", h.handlePrevious)
			r.Post("/attempts/{attemptID}/goto", h.handleJump)
			r.Get("/attempts/{attemptID}/result", h.handleResult)
			r.Delete("/attempts/{attemptID}", h.handleAbandon)
		})
	})
}

// requireAuth rejects requests while nobody is logged in and stores the
// active identity in the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.ids.Current(r.Context())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if id == nil {
			h.writeError(w, r, model.ErrUnauthorized)
			return
		}
		ctx := model.ContextWithIdentity(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
