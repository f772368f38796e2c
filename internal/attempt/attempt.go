// Package attempt implements one user's run through a quiz: answer
// capture, navigation, the countdown timer, and grading.
package attempt

import (
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/quizmaster/quizmaster/internal/model"
)

// SecondsPerQuestion is the default per-question time budget. The total
// countdown for an attempt is the per-question budget times the question
// count.
const SecondsPerQuestion = 30

type state int

const (
	inProgress state = iota
	done
)

// Attempt is the state machine for a single quiz run. It starts in
// progress at question 0 with every answer unanswered, and transitions to
// completed exactly once: either through Next on the last question or when
// the countdown reaches zero.
//
// Handlers and the ticker goroutine share an attempt, so every transition
// takes the mutex.
type Attempt struct {
	id   string
	quiz model.Quiz

	mu        sync.Mutex
	state     state
	current   int
	answers   []int
	total     int
	remaining int
	result    *model.Result
	doneCh    chan struct{}
}

// New builds an in-progress attempt for quiz with the default question
// budget.
func New(quiz model.Quiz) *Attempt {
	return NewWithBudget(quiz, SecondsPerQuestion)
}

// NewWithBudget builds an in-progress attempt granting secondsPerQuestion
// for each question. Budgets below one second fall back to the default.
func NewWithBudget(quiz model.Quiz, secondsPerQuestion int) *Attempt {
	if secondsPerQuestion < 1 {
		secondsPerQuestion = SecondsPerQuestion
	}
	n := len(quiz.Questions)
	answers := make([]int, n)
	for i := range answers {
		answers[i] = model.Unanswered
	}
	return &Attempt{
		id:        uuid.NewString(),
		quiz:      quiz,
		current:   0,
		answers:   answers,
		total:     secondsPerQuestion * n,
		remaining: secondsPerQuestion * n,
		doneCh:    make(chan struct{}),
	}
}

func (a *Attempt) ID() string       { return a.id }
func (a *Attempt) Quiz() model.Quiz { return a.quiz }

// Done is closed once the attempt completes or is abandoned. The ticker
// goroutine exits on it.
func (a *Attempt) Done() <-chan struct{} { return a.doneCh }

// Select records option for the current question. Re-answering overwrites
// the previous selection without error.
func (a *Attempt) Select(option int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != inProgress {
		return model.ErrAttemptCompleted
	}
	if option < 0 || option >= len(a.quiz.Questions[a.current].Options) {
		return model.ErrInvalidOption
	}
	a.answers[a.current] = option
	return nil
}

// Next advances to the following question, or grades the attempt when the
// current question is the last one. It rejects with ErrNotAnswered while
// the current question has no recorded answer.
func (a *Attempt) Next() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != inProgress {
		return model.ErrAttemptCompleted
	}
	if a.answers[a.current] == model.Unanswered {
		return model.ErrNotAnswered
	}
	if a.current == len(a.quiz.Questions)-1 {
		a.completeLocked()
		return nil
	}
	a.current++
	return nil
}

// Previous steps back one question. No answer is required and the timer is
// not affected.
func (a *Attempt) Previous() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != inProgress {
		return model.ErrAttemptCompleted
	}
	if a.current == 0 {
		return model.ErrInvalidIndex
	}
	a.current--
	return nil
}

// JumpTo moves to any question, answered or not.
func (a *Attempt) JumpTo(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != inProgress {
		return model.ErrAttemptCompleted
	}
	if index < 0 || index >= len(a.quiz.Questions) {
		return model.ErrInvalidIndex
	}
	a.current = index
	return nil
}

// Tick consumes one second of the countdown. At zero the attempt is graded
// as-is: unanswered questions count as incorrect. Ticks after completion
// are no-ops, so a straggling timer fire cannot grade twice.
func (a *Attempt) Tick() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != inProgress {
		return
	}
	a.remaining--
	if a.remaining <= 0 {
		a.remaining = 0
		a.completeLocked()
	}
}

// Abandon tears the attempt down without grading, releasing the timer.
func (a *Attempt) Abandon() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != inProgress {
		return
	}
	a.state = done
	close(a.doneCh)
}

// Progress is a point-in-time view of an in-progress attempt.
type Progress struct {
	QuizID           string
	Current          int
	Answers          []int
	RemainingSeconds int
	Completed        bool
}

// Progress returns a snapshot safe to hand to a renderer.
func (a *Attempt) Progress() Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	answers := make([]int, len(a.answers))
	copy(answers, a.answers)
	return Progress{
		QuizID:           a.quiz.ID,
		Current:          a.current,
		Answers:          answers,
		RemainingSeconds: a.remaining,
		Completed:        a.state == done,
	}
}

// Result returns the graded outcome, or ErrAttemptInProgress before
// completion.
func (a *Attempt) Result() (model.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.result == nil {
		return model.Result{}, model.ErrAttemptInProgress
	}
	return *a.result, nil
}

// completeLocked grades the attempt and freezes it. Callers hold the mutex.
func (a *Attempt) completeLocked() {
	n := len(a.quiz.Questions)
	score := 0
	perQuestion := make([]model.QuestionResult, n)
	for i, q := range a.quiz.Questions {
		correct := a.answers[i] == q.CorrectAnswer
		if correct {
			score++
		}
		perQuestion[i] = model.QuestionResult{
			Question:       q.Prompt,
			Options:        q.Options,
			SelectedAnswer: a.answers[i],
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      correct,
		}
	}

	a.result = &model.Result{
		Quiz:           a.quiz,
		Score:          score,
		TotalQuestions: n,
		Percentage:     int(math.Round(100 * float64(score) / float64(n))),
		Results:        perQuestion,
		TimeTaken:      a.total - a.remaining,
	}
	a.state = done
	close(a.doneCh)
}
