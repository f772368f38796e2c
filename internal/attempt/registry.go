package attempt

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quizmaster/quizmaster/internal/model"
)

// DefaultRetention is how long a finished attempt stays fetchable before
// the registry drops it.
const DefaultRetention = 5 * time.Minute

// Registry tracks live attempts by id and owns their countdown timers.
// Each started attempt gets a dedicated ticker goroutine that is torn down
// on every exit path: grading, timeout, abandonment, or server shutdown.
// Finished attempts are kept for the retention window so the taker can
// still fetch the result, then reaped.
type Registry struct {
	mu        sync.RWMutex
	attempts  map[string]*Attempt
	interval  time.Duration
	retention time.Duration
	budget    int
}

func NewRegistry() *Registry {
	return newRegistry(time.Second)
}

// NewRegistryWithInterval shortens the tick interval. Test-only.
func NewRegistryWithInterval(interval time.Duration) *Registry {
	return newRegistry(interval)
}

func newRegistry(interval time.Duration) *Registry {
	return &Registry{
		attempts:  make(map[string]*Attempt),
		interval:  interval,
		retention: DefaultRetention,
		budget:    SecondsPerQuestion,
	}
}

// SetRetention overrides how long finished attempts stay fetchable.
func (r *Registry) SetRetention(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	r.retention = d
	r.mu.Unlock()
}

// SetQuestionBudget overrides the per-question seconds granted to attempts
// started after the call.
func (r *Registry) SetQuestionBudget(seconds int) {
	if seconds < 1 {
		return
	}
	r.mu.Lock()
	r.budget = seconds
	r.mu.Unlock()
}

// Start creates an attempt for quiz and begins its countdown. The timer
// stops when the attempt completes or ctx is cancelled.
func (r *Registry) Start(ctx context.Context, quiz model.Quiz) *Attempt {
	r.mu.Lock()
	a := NewWithBudget(quiz, r.budget)
	r.attempts[a.ID()] = a
	r.mu.Unlock()

	go r.runTimer(ctx, a)
	slog.Info("started attempt", "attempt", a.ID(), "quiz", quiz.ID, "questions", len(quiz.Questions))
	return a
}

// Get returns the attempt with the given id.
func (r *Registry) Get(id string) (*Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, model.ErrAttemptNotFound
	}
	return a, nil
}

// Remove abandons the attempt (stopping its timer if still running) and
// forgets it.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	a, ok := r.attempts[id]
	delete(r.attempts, id)
	r.mu.Unlock()
	if ok {
		a.Abandon()
	}
}

func (r *Registry) runTimer(ctx context.Context, a *Attempt) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.Abandon()
			r.forget(a.ID())
			return
		case <-a.Done():
			r.reap(ctx, a.ID())
			return
		case <-ticker.C:
			a.Tick()
		}
	}
}

// reap drops a finished attempt after the retention window, so a taker who
// never deletes their attempt does not pin it in memory forever.
func (r *Registry) reap(ctx context.Context, id string) {
	r.mu.RLock()
	retention := r.retention
	r.mu.RUnlock()

	timer := time.NewTimer(retention)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	r.forget(id)
	slog.Debug("reaped finished attempt", "attempt", id)
}

func (r *Registry) forget(id string) {
	r.mu.Lock()
	delete(r.attempts, id)
	r.mu.Unlock()
}
