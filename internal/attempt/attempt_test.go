package attempt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quizmaster/quizmaster/internal/model"
)

// quizWithAnswers builds a quiz whose i-th question has the given correct
// option index.
func quizWithAnswers(correct ...int) model.Quiz {
	questions := make([]model.Question, len(correct))
	for i, c := range correct {
		questions[i] = model.Question{
			ID:            string(rune('a' + i)),
			Prompt:        "Question",
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: c,
		}
	}
	return model.Quiz{ID: "quiz-1", Title: "Test Quiz", Questions: questions}
}

// finish answers every question correctly and walks to completion.
func finish(t *testing.T, a *Attempt) model.Result {
	t.Helper()
	for i, q := range a.Quiz().Questions {
		if err := a.JumpTo(i); err != nil {
			t.Fatalf("JumpTo(%d): %v", i, err)
		}
		if err := a.Select(q.CorrectAnswer); err != nil {
			t.Fatalf("Select: %v", err)
		}
	}
	if err := a.JumpTo(len(a.Quiz().Questions) - 1); err != nil {
		t.Fatalf("JumpTo last: %v", err)
	}
	if err := a.Next(); err != nil {
		t.Fatalf("Next on last: %v", err)
	}
	result, err := a.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	return result
}

func TestFreshAttempt(t *testing.T) {
	a := New(quizWithAnswers(0, 1, 2))

	p := a.Progress()
	if p.RemainingSeconds != 3*SecondsPerQuestion {
		t.Errorf("expected %d seconds, got %d", 3*SecondsPerQuestion, p.RemainingSeconds)
	}
	if p.Current != 0 {
		t.Errorf("expected index 0, got %d", p.Current)
	}
	for i, ans := range p.Answers {
		if ans != model.Unanswered {
			t.Errorf("question %d: expected unanswered, got %d", i, ans)
		}
	}
	if p.Completed {
		t.Error("fresh attempt must be in progress")
	}
	if _, err := a.Result(); !errors.Is(err, model.ErrAttemptInProgress) {
		t.Errorf("expected ErrAttemptInProgress, got %v", err)
	}
}

func TestSelectLastWriteWins(t *testing.T) {
	a := New(quizWithAnswers(0))

	if err := a.Select(1); err != nil {
		t.Fatalf("Select(1): %v", err)
	}
	if err := a.Select(2); err != nil {
		t.Fatalf("Select(2): %v", err)
	}
	if got := a.Progress().Answers[0]; got != 2 {
		t.Errorf("expected answer 2, got %d", got)
	}

	if err := a.Select(4); !errors.Is(err, model.ErrInvalidOption) {
		t.Errorf("expected ErrInvalidOption for index 4, got %v", err)
	}
	if err := a.Select(-1); !errors.Is(err, model.ErrInvalidOption) {
		t.Errorf("expected ErrInvalidOption for index -1, got %v", err)
	}
}

func TestNextRequiresAnswer(t *testing.T) {
	a := New(quizWithAnswers(0, 1))

	if err := a.Next(); !errors.Is(err, model.ErrNotAnswered) {
		t.Fatalf("expected ErrNotAnswered, got %v", err)
	}
	if got := a.Progress().Current; got != 0 {
		t.Errorf("rejected Next must not advance, index is %d", got)
	}

	if err := a.Select(3); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := a.Next(); err != nil {
		t.Fatalf("Next after answering: %v", err)
	}
	if got := a.Progress().Current; got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}
}

func TestNavigation(t *testing.T) {
	a := New(quizWithAnswers(0, 1, 2))

	// Previous at the first question is rejected.
	if err := a.Previous(); !errors.Is(err, model.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}

	// Jump anywhere regardless of answer state.
	if err := a.JumpTo(2); err != nil {
		t.Fatalf("JumpTo(2): %v", err)
	}
	if got := a.Progress().Current; got != 2 {
		t.Errorf("expected index 2, got %d", got)
	}

	// Previous needs no answer on the current question.
	if err := a.Previous(); err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if got := a.Progress().Current; got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}

	if err := a.JumpTo(3); !errors.Is(err, model.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex for out-of-range jump, got %v", err)
	}
	if err := a.JumpTo(-1); !errors.Is(err, model.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex for negative jump, got %v", err)
	}

	// Navigation does not consume the timer.
	if got := a.Progress().RemainingSeconds; got != 3*SecondsPerQuestion {
		t.Errorf("expected untouched timer, got %d", got)
	}
}

func TestGradeAllCorrect(t *testing.T) {
	a := New(quizWithAnswers(0, 1, 2, 3))
	result := finish(t, a)

	if result.Score != 4 || result.Percentage != 100 {
		t.Errorf("expected 4/100, got %d/%d", result.Score, result.Percentage)
	}
	if result.TotalQuestions != 4 {
		t.Errorf("expected 4 questions, got %d", result.TotalQuestions)
	}
	for i, qr := range result.Results {
		if !qr.IsCorrect {
			t.Errorf("question %d: expected correct", i)
		}
	}
}

func TestTimeoutGradesUnansweredAsZero(t *testing.T) {
	a := New(quizWithAnswers(0, 1))

	for i := 0; i < 2*SecondsPerQuestion; i++ {
		a.Tick()
	}

	result, err := a.Result()
	if err != nil {
		t.Fatalf("Result after timeout: %v", err)
	}
	if result.Score != 0 || result.Percentage != 0 {
		t.Errorf("expected 0/0%%, got %d/%d%%", result.Score, result.Percentage)
	}
	for i, qr := range result.Results {
		if qr.SelectedAnswer != model.Unanswered {
			t.Errorf("question %d: expected unanswered sentinel, got %d", i, qr.SelectedAnswer)
		}
		if qr.IsCorrect {
			t.Errorf("question %d: unanswered must be incorrect", i)
		}
	}
	if result.TimeTaken != 2*SecondsPerQuestion {
		t.Errorf("expected full budget consumed, got %d", result.TimeTaken)
	}
}

func TestPercentageRounding(t *testing.T) {
	tests := []struct {
		name       string
		correct    []int // correct option per question
		selections []int // what the user picks
		wantScore  int
		wantPct    int
	}{
		{"two of three rounds up", []int{0, 0, 0}, []int{0, 0, 1}, 2, 67},
		{"one of three rounds down", []int{0, 0, 0}, []int{0, 1, 1}, 1, 33},
		{"half", []int{0, 1}, []int{0, 2}, 1, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(quizWithAnswers(tt.correct...))
			for i, sel := range tt.selections {
				if err := a.JumpTo(i); err != nil {
					t.Fatalf("JumpTo: %v", err)
				}
				if err := a.Select(sel); err != nil {
					t.Fatalf("Select: %v", err)
				}
			}
			if err := a.Next(); err != nil {
				t.Fatalf("Next on last: %v", err)
			}
			result, err := a.Result()
			if err != nil {
				t.Fatalf("Result: %v", err)
			}
			if result.Score != tt.wantScore {
				t.Errorf("expected score %d, got %d", tt.wantScore, result.Score)
			}
			if result.Percentage != tt.wantPct {
				t.Errorf("expected percentage %d, got %d", tt.wantPct, result.Percentage)
			}
		})
	}
}

func TestScenarioPartialAnswers(t *testing.T) {
	// Quiz with 2 questions, correct answers [0,1]; user answers [0,2].
	a := New(quizWithAnswers(0, 1))
	if err := a.Select(0); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := a.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := a.Select(2); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := a.Next(); err != nil {
		t.Fatalf("Next (finish): %v", err)
	}

	result, err := a.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.Score != 1 || result.Percentage != 50 {
		t.Errorf("expected score 1 at 50%%, got %d at %d%%", result.Score, result.Percentage)
	}
	if result.Results[0].IsCorrect != true || result.Results[1].IsCorrect != false {
		t.Errorf("unexpected per-question results: %+v", result.Results)
	}
}

func TestCompletionIsTerminal(t *testing.T) {
	a := New(quizWithAnswers(0))

	for i := 0; i < SecondsPerQuestion; i++ {
		a.Tick()
	}
	first, err := a.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}

	// A straggling tick after completion changes nothing.
	a.Tick()
	second, _ := a.Result()
	if second.TimeTaken != first.TimeTaken || second.Score != first.Score {
		t.Error("tick after completion must be a no-op")
	}
	if got := a.Progress().RemainingSeconds; got != 0 {
		t.Errorf("expected remaining to stay at 0, got %d", got)
	}

	if err := a.Select(0); !errors.Is(err, model.ErrAttemptCompleted) {
		t.Errorf("expected ErrAttemptCompleted from Select, got %v", err)
	}
	if err := a.Next(); !errors.Is(err, model.ErrAttemptCompleted) {
		t.Errorf("expected ErrAttemptCompleted from Next, got %v", err)
	}
	if err := a.Previous(); !errors.Is(err, model.ErrAttemptCompleted) {
		t.Errorf("expected ErrAttemptCompleted from Previous, got %v", err)
	}
	if err := a.JumpTo(0); !errors.Is(err, model.ErrAttemptCompleted) {
		t.Errorf("expected ErrAttemptCompleted from JumpTo, got %v", err)
	}
}

func TestTimeTaken(t *testing.T) {
	a := New(quizWithAnswers(0, 1))

	// Spend 10 seconds, then finish manually.
	for i := 0; i < 10; i++ {
		a.Tick()
	}
	if err := a.Select(0); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := a.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := a.Select(1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := a.Next(); err != nil {
		t.Fatalf("Next (finish): %v", err)
	}

	result, err := a.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.TimeTaken != 10 {
		t.Errorf("expected 10 seconds taken, got %d", result.TimeTaken)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRegistry()
	a := r.Start(ctx, quizWithAnswers(0))

	got, err := r.Get(a.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != a {
		t.Error("expected the same attempt back")
	}

	if _, err := r.Get("missing"); !errors.Is(err, model.ErrAttemptNotFound) {
		t.Errorf("expected ErrAttemptNotFound, got %v", err)
	}

	r.Remove(a.ID())
	if _, err := r.Get(a.ID()); !errors.Is(err, model.ErrAttemptNotFound) {
		t.Errorf("expected removed attempt to be gone, got %v", err)
	}
	select {
	case <-a.Done():
	default:
		t.Error("expected Remove to stop the attempt's timer")
	}
}

func TestTimerDrivesCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRegistryWithInterval(time.Millisecond)
	a := r.Start(ctx, quizWithAnswers(0))

	select {
	case <-a.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timer never completed the attempt")
	}

	result, err := a.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.Percentage != 0 {
		t.Errorf("expected timed-out attempt to score 0, got %d", result.Percentage)
	}
}

func TestContextCancelStopsTimer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRegistryWithInterval(time.Hour)
	a := r.Start(ctx, quizWithAnswers(0))

	cancel()
	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled context did not stop the attempt")
	}
	// Abandonment does not grade.
	if _, err := a.Result(); !errors.Is(err, model.ErrAttemptInProgress) {
		t.Errorf("expected abandoned attempt to have no result, got %v", err)
	}
}

func TestQuestionBudget(t *testing.T) {
	a := NewWithBudget(quizWithAnswers(0, 1), 10)
	if got := a.Progress().RemainingSeconds; got != 20 {
		t.Fatalf("expected 20 seconds for two questions at 10s each, got %d", got)
	}

	// Out-of-range budgets fall back to the default.
	a = NewWithBudget(quizWithAnswers(0), 0)
	if got := a.Progress().RemainingSeconds; got != SecondsPerQuestion {
		t.Errorf("expected default budget %d, got %d", SecondsPerQuestion, got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewRegistryWithInterval(time.Hour)
	r.SetQuestionBudget(5)
	started := r.Start(ctx, quizWithAnswers(0, 1, 2))
	if got := started.Progress().RemainingSeconds; got != 15 {
		t.Errorf("expected registry budget to apply, got %d seconds", got)
	}
}

func TestCompletedAttemptReaped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRegistryWithInterval(time.Hour)
	r.SetRetention(time.Millisecond)
	a := r.Start(ctx, quizWithAnswers(0))
	finish(t, a)

	deadline := time.After(5 * time.Second)
	for {
		if _, err := r.Get(a.ID()); errors.Is(err, model.ErrAttemptNotFound) {
			return
		}
		select {
		case <-deadline:
			t.Fatal("completed attempt was never reaped")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestFinishedAttemptFetchableWithinRetention(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Default retention is minutes, far beyond this test's lifetime.
	r := NewRegistryWithInterval(time.Hour)
	a := r.Start(ctx, quizWithAnswers(0))
	want := finish(t, a)

	got, err := r.Get(a.ID())
	if err != nil {
		t.Fatalf("Get after completion: %v", err)
	}
	result, err := got.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.Score != want.Score {
		t.Errorf("expected score %d, got %d", want.Score, result.Score)
	}
}
