package present

import (
	"strings"
	"testing"

	"classtask-client/internal/domain"
)

func TestPollResultsDeclaredOrder(t *testing.T) {
	task := domain.Task{Type: domain.TypePoll, Options: []string{"Yes", "No"}}
	results := domain.PollResults{
		Total:       10,
		Counts:      map[string]int{"Yes": 7, "No": 3},
		Percentages: map[string]int{"Yes": 70, "No": 30},
	}

	out := PollResults(task, results)
	lines := strings.Split(out, "\n")
	if lines[0] != "Poll Results (10 votes)" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "Yes — 7 votes (70%)" || lines[2] != "No — 3 votes (30%)" {
		t.Fatalf("unexpected option lines %q", lines[1:])
	}
}

func TestPollResultsMissingOptionDefaultsToZero(t *testing.T) {
	task := domain.Task{Type: domain.TypePoll, Options: []string{"Yes", "No", "Maybe"}}
	results := domain.PollResults{
		Total:       1,
		Counts:      map[string]int{"Yes": 1},
		Percentages: map[string]int{"Yes": 100},
	}

	out := PollResults(task, results)
	if !strings.Contains(out, "Maybe — 0 votes (0%)") {
		t.Fatalf("expected zero defaults for unvoted option, got %q", out)
	}
}

func TestChoiceResultHeadersFollowAuthority(t *testing.T) {
	correct := Result(domain.TypeMultipleChoice, domain.SubmissionResult{Message: "Well done", Correct: true, PointsEarned: 5})
	if correct.Title != "Correct!" {
		t.Fatalf("unexpected title %q", correct.Title)
	}
	if !correct.RefreshBalance {
		t.Fatalf("earned points must signal a balance refresh")
	}
	if !strings.Contains(correct.Body, "+5 points earned!") {
		t.Fatalf("expected earned amount in body, got %q", correct.Body)
	}

	wrong := Result(domain.TypeMultipleChoice, domain.SubmissionResult{Message: "Not quite", Correct: false})
	if wrong.Title != "Incorrect" || wrong.RefreshBalance {
		t.Fatalf("unexpected rendering %+v", wrong)
	}
}

func TestMarkAsDoneResultNeedsNoPoints(t *testing.T) {
	r := Result(domain.TypeMarkAsDone, domain.SubmissionResult{Message: "Task marked as done"})
	if r.Title != "Submitted" || r.Body != "Task marked as done" {
		t.Fatalf("unexpected rendering %+v", r)
	}
	if r.RefreshBalance {
		t.Fatalf("no points means no balance refresh")
	}
}

func TestQuizResultBreakdownOrder(t *testing.T) {
	r := Result(domain.TypeQuiz, domain.SubmissionResult{
		Message:    "Quiz complete",
		Score:      1,
		Total:      2,
		Percentage: 50,
		Results: []domain.BreakdownEntry{
			{Question: "2+2?", UserAnswer: "4", CorrectAnswer: "4", IsCorrect: true},
			{Question: "Capital of France?", UserAnswer: "Lyon", CorrectAnswer: "Paris", IsCorrect: false},
		},
	})

	if r.Title != "Quiz complete" {
		t.Fatalf("unexpected title %q", r.Title)
	}
	if !strings.Contains(r.Body, "50%") || !strings.Contains(r.Body, "Score: 1 out of 2 correct") {
		t.Fatalf("missing aggregate lines in %q", r.Body)
	}
	q1 := strings.Index(r.Body, "Q1: 2+2?")
	q2 := strings.Index(r.Body, "Q2: Capital of France?")
	if q1 < 0 || q2 < 0 || q1 > q2 {
		t.Fatalf("breakdown must keep authority order, got %q", r.Body)
	}
	if !strings.Contains(r.Body, "Correct answer: Paris") {
		t.Fatalf("expected authority's correct answer, got %q", r.Body)
	}
}

func TestGradeNoticeRendering(t *testing.T) {
	r := Grade(domain.GradeNotice{
		TaskTitle: "Essay",
		SubmissionResult: domain.SubmissionResult{
			Message:      "Great work",
			PointsEarned: 10,
		},
	})
	if r.Title != "Grade Received: Essay" {
		t.Fatalf("unexpected title %q", r.Title)
	}
	if !r.RefreshBalance || !strings.Contains(r.Body, "+10 points earned!") {
		t.Fatalf("unexpected rendering %+v", r)
	}
}
