// Package catalog holds the append-only list of authored quizzes and the
// browse/filter/sort operations over it.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/quizmaster/quizmaster/internal/identity"
	"github.com/quizmaster/quizmaster/internal/kv"
	"github.com/quizmaster/quizmaster/internal/model"
)

const quizzesKey = "quizmaster:quizzes"

// Sort keys accepted by List.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortTitle  = "title"
)

// Catalog is the quiz catalog backed by a single blob in the key-value
// store, with a decoded in-memory copy so List does not reparse the blob
// on every request.
type Catalog struct {
	kv  kv.Store
	ids *identity.Store
	now func() time.Time

	mu     sync.RWMutex
	cache  []model.Quiz
	loaded bool
	sf     singleflight.Group
}

func New(store kv.Store, ids *identity.Store) *Catalog {
	return &Catalog{kv: store, ids: ids, now: time.Now}
}

// NewWithClock is test-only for deterministic timestamps.
func NewWithClock(store kv.Store, ids *identity.Store, now func() time.Time) *Catalog {
	return &Catalog{kv: store, ids: ids, now: now}
}

// Create validates the draft and appends it to the catalog. Existing
// entries are never touched. Every offending field is reported in one
// ValidationError.
func (c *Catalog) Create(ctx context.Context, draft model.QuizDraft) (model.Quiz, error) {
	if err := validateDraft(draft); err != nil {
		return model.Quiz{}, err
	}

	quiz := model.Quiz{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Questions:   make([]model.Question, len(draft.Questions)),
		CreatedBy:   draft.CreatedBy,
		CreatedAt:   c.now(),
	}
	for i, q := range draft.Questions {
		quiz.Questions[i] = q
		if quiz.Questions[i].ID == "" {
			quiz.Questions[i].ID = uuid.NewString()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	quizzes, err := c.loadLocked(ctx)
	if err != nil {
		return model.Quiz{}, err
	}
	quizzes = append(quizzes, quiz)
	data, err := json.Marshal(quizzes)
	if err != nil {
		return model.Quiz{}, fmt.Errorf("encode quizzes: %w", err)
	}
	if err := c.kv.Set(ctx, quizzesKey, string(data)); err != nil {
		return model.Quiz{}, fmt.Errorf("save quizzes: %w", err)
	}
	c.cache = quizzes
	c.loaded = true

	slog.Info("created quiz", "id", quiz.ID, "title", quiz.Title, "questions", len(quiz.Questions))
	return quiz, nil
}

// List returns a restartable sequence of quizzes whose title or
// description case-insensitively contains filter (empty matches all) and
// whose category equals category (empty matches all), ordered per sortKey.
// Timestamp ties keep catalog insertion order.
func (c *Catalog) List(ctx context.Context, filter, category, sortKey string) iter.Seq[model.Quiz] {
	return func(yield func(model.Quiz) bool) {
		quizzes, err := c.snapshot(ctx)
		if err != nil {
			slog.Error("list quizzes", "error", err)
			return
		}

		needle := strings.ToLower(filter)
		matched := make([]model.Quiz, 0, len(quizzes))
		for _, q := range quizzes {
			if needle != "" &&
				!strings.Contains(strings.ToLower(q.Title), needle) &&
				!strings.Contains(strings.ToLower(q.Description), needle) {
				continue
			}
			if category != "" && q.Category != category {
				continue
			}
			matched = append(matched, q)
		}

		switch sortKey {
		case SortOldest:
			sort.SliceStable(matched, func(i, j int) bool {
				return matched[i].CreatedAt.Before(matched[j].CreatedAt)
			})
		case SortTitle:
			sort.SliceStable(matched, func(i, j int) bool {
				return matched[i].Title < matched[j].Title
			})
		default: // SortNewest
			sort.SliceStable(matched, func(i, j int) bool {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			})
		}

		for _, q := range matched {
			if !yield(q) {
				return
			}
		}
	}
}

// All returns every quiz in insertion order, surfacing store failures to
// the caller. List is for serving browse requests; All is for bulk reads
// like export, where a failing store must abort instead of passing for an
// empty catalog.
func (c *Catalog) All(ctx context.Context) ([]model.Quiz, error) {
	quizzes, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Quiz, len(quizzes))
	copy(out, quizzes)
	return out, nil
}

// Get returns the quiz with the given id, or ErrQuizNotFound.
func (c *Catalog) Get(ctx context.Context, id string) (model.Quiz, error) {
	quizzes, err := c.snapshot(ctx)
	if err != nil {
		return model.Quiz{}, err
	}
	for _, q := range quizzes {
		if q.ID == id {
			return q, nil
		}
	}
	return model.Quiz{}, model.ErrQuizNotFound
}

// CreatorName resolves the display name for a quiz author, with an
// "Unknown" sentinel for accounts that no longer resolve.
func (c *Catalog) CreatorName(ctx context.Context, accountID string) string {
	return c.ids.ResolveName(ctx, accountID)
}

// snapshot returns the decoded catalog, loading it once on demand.
// Concurrent cold reads are collapsed into a single decode.
func (c *Catalog) snapshot(ctx context.Context) ([]model.Quiz, error) {
	c.mu.RLock()
	if c.loaded {
		cached := c.cache
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizzesKey, func() (any, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.loadLocked(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]model.Quiz), nil
}

func (c *Catalog) loadLocked(ctx context.Context) ([]model.Quiz, error) {
	if c.loaded {
		return c.cache, nil
	}
	raw, ok, err := c.kv.Get(ctx, quizzesKey)
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	var quizzes []model.Quiz
	if ok {
		quizzes, err = decodeQuizzes(raw)
		if err != nil {
			slog.Warn("quizzes blob corrupted, treating catalog as empty", "error", err)
			quizzes = nil
		}
	}
	c.cache = quizzes
	c.loaded = true
	return quizzes, nil
}

// decodeQuizzes validates the persisted catalog blob against the expected
// shape instead of trusting whatever was stored.
func decodeQuizzes(raw string) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	if err := json.Unmarshal([]byte(raw), &quizzes); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDataCorruption, err)
	}
	for _, q := range quizzes {
		if q.ID == "" || len(q.Questions) == 0 {
			return nil, fmt.Errorf("%w: quiz entry missing id or questions", model.ErrDataCorruption)
		}
		for _, question := range q.Questions {
			if len(question.Options) != model.OptionCount ||
				question.CorrectAnswer < 0 || question.CorrectAnswer >= model.OptionCount {
				return nil, fmt.Errorf("%w: malformed question in quiz %s", model.ErrDataCorruption, q.ID)
			}
		}
	}
	return quizzes, nil
}

func validateDraft(draft model.QuizDraft) error {
	var bad []string
	if strings.TrimSpace(draft.Title) == "" {
		bad = append(bad, "title")
	}
	if strings.TrimSpace(draft.Description) == "" {
		bad = append(bad, "description")
	}
	if !model.ValidCategory(draft.Category) {
		bad = append(bad, "category")
	}
	if len(draft.Questions) == 0 {
		bad = append(bad, "questions")
	}
	for i, q := range draft.Questions {
		n := i + 1
		if strings.TrimSpace(q.Prompt) == "" {
			bad = append(bad, fmt.Sprintf("question %d prompt", n))
		}
		if len(q.Options) != model.OptionCount {
			bad = append(bad, fmt.Sprintf("question %d options", n))
		} else {
			for j, opt := range q.Options {
				if strings.TrimSpace(opt) == "" {
					bad = append(bad, fmt.Sprintf("question %d option %d", n, j+1))
				}
			}
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= model.OptionCount {
			bad = append(bad, fmt.Sprintf("question %d correct answer", n))
		}
	}
	return model.NewValidationError(bad)
}
