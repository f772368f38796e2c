package httpapi

import (
	"time"

	"github.com/quizmaster/quizmaster/internal/model"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type createQuizRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Questions   []questionPayload `json:"questions"`
}

type questionPayload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// quizSummary is a catalog card: enough to browse, nothing to cheat with.
type quizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	QuestionCount int       `json:"questionCount"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

type quizListResponse struct {
	Quizzes []quizSummary `json:"quizzes"`
}

// questionView is a question as shown to a quiz taker: the correct answer
// index is withheld.
type questionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type quizDetailResponse struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	CreatedBy     string         `json:"createdBy"`
	CreatedAt     time.Time      `json:"createdAt"`
	QuestionCount int            `json:"questionCount"`
	Questions     []questionView `json:"questions"`
}

type attemptResponse struct {
	AttemptID        string       `json:"attemptId"`
	QuizID           string       `json:"quizId"`
	Title            string       `json:"title"`
	QuestionCount    int          `json:"questionCount"`
	CurrentQuestion  int          `json:"currentQuestion"`
	Question         questionView `json:"question"`
	Answers          []int        `json:"answers"`
	RemainingSeconds int          `json:"remainingSeconds"`
	Completed        bool         `json:"completed"`
}

type answerRequest struct {
	Option int `json:"option"`
}

type jumpRequest struct {
	Index int `json:"index"`
}

func toQuizSummary(q model.Quiz, creatorName string) quizSummary {
	return quizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		Category:      q.Category,
		QuestionCount: len(q.Questions),
		CreatedBy:     creatorName,
		CreatedAt:     q.CreatedAt,
	}
}

func toQuestionViews(questions []model.Question) []questionView {
	views := make([]questionView, len(questions))
	for i, q := range questions {
		views[i] = questionView{Question: q.Prompt, Options: q.Options}
	}
	return views
}
