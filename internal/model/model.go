package model

import (
	"context"
	"time"
)

// Account is a registered user as stored in the accounts blob.
// The password is part of the persisted record and is compared verbatim
// at login.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is the public-facing subset of an Account representing "who is
// logged in". It never carries the password.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Identity derives the session identity from an account.
func (a Account) Identity() Identity {
	return Identity{ID: a.ID, Name: a.Name, Email: a.Email}
}

// OptionCount is the fixed number of options per question.
const OptionCount = 4

// Question is a multiple-choice question. Immutable once its quiz is created.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// Quiz is an authored quiz in the catalog. Append-only once created.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Questions   []Question `json:"questions"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// QuizDraft is the author's input before the catalog assigns ids and a
// creation timestamp.
type QuizDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Questions   []Question `json:"questions"`
	CreatedBy   string     `json:"-"`
}

// Categories is the fixed set a quiz may belong to.
var Categories = []string{
	"Science", "History", "Technology", "Sports", "Art", "Music",
	"Literature", "Geography", "Mathematics", "Movies", "General Knowledge",
}

// ValidCategory reports whether c is one of the allowed categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Unanswered is the sentinel recorded for a question the user never answered.
// It never equals a valid option index, so grading counts it as incorrect.
const Unanswered = -1

// QuestionResult is the graded outcome for a single question.
type QuestionResult struct {
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	SelectedAnswer int      `json:"selectedAnswer"`
	CorrectAnswer  int      `json:"correctAnswer"`
	IsCorrect      bool     `json:"isCorrect"`
}

// Result is produced once per completed attempt.
type Result struct {
	Quiz           Quiz             `json:"quiz"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	Percentage     int              `json:"percentage"`
	Results        []QuestionResult `json:"results"`
	TimeTaken      int              `json:"timeTaken"`
}

type identityCtxKey struct{}

// ContextWithIdentity stores the logged-in identity in the request context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext retrieves the logged-in identity from context, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityCtxKey{}).(*Identity)
	return id
}
