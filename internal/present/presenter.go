// Package present turns grading results and poll tallies into user-facing
// text. Rendering is a pure function of its inputs; follow-up actions
// (balance refresh, catalog refresh) are returned as signals for the caller
// instead of being performed here.
package present

import (
	"fmt"
	"strings"

	"classtask-client/internal/domain"
)

// Rendered is a presented result plus the refresh signals it implies.
type Rendered struct {
	Title          string
	Body           string
	RefreshBalance bool
}

// Result renders the authority's verdict for a submission of the given task
// type. It never recomputes correctness; correct/incorrect tags come straight
// from the result.
func Result(taskType domain.TaskType, result domain.SubmissionResult) Rendered {
	switch taskType {
	case domain.TypeMultipleChoice:
		return choiceResult(result)
	case domain.TypeQuiz:
		return quizResult(result)
	case domain.TypePoll:
		return Rendered{Title: "Vote Submitted", Body: result.Message, RefreshBalance: result.PointsEarned > 0}
	default:
		r := Rendered{Title: "Submitted", Body: result.Message}
		if result.PointsEarned > 0 {
			r.Body += fmt.Sprintf("\n+%d points earned!", result.PointsEarned)
			r.RefreshBalance = true
		}
		return r
	}
}

// Grade renders an out-of-band grading notice delivered over the realtime
// channel for asynchronously graded tasks.
func Grade(notice domain.GradeNotice) Rendered {
	r := Result(domain.TypeQuestion, notice.SubmissionResult)
	r.Title = "Grade Received: " + notice.TaskTitle
	return r
}

func choiceResult(result domain.SubmissionResult) Rendered {
	r := Rendered{Body: result.Message}
	if result.Correct {
		r.Title = "Correct!"
	} else {
		r.Title = "Incorrect"
	}
	if result.PointsEarned > 0 {
		r.Body += fmt.Sprintf("\n+%d points earned!", result.PointsEarned)
		r.RefreshBalance = true
	}
	return r
}

func quizResult(result domain.SubmissionResult) Rendered {
	var b strings.Builder
	fmt.Fprintf(&b, "%d%%\n", result.Percentage)
	fmt.Fprintf(&b, "Score: %d out of %d correct\n", result.Score, result.Total)
	r := Rendered{Title: result.Message}
	if result.PointsEarned > 0 {
		fmt.Fprintf(&b, "+%d points earned!\n", result.PointsEarned)
		r.RefreshBalance = true
	}
	if len(result.Results) > 0 {
		b.WriteString("\nQuestion Breakdown:\n")
		for i, entry := range result.Results {
			verdict := "Incorrect"
			if entry.IsCorrect {
				verdict = "Correct"
			}
			fmt.Fprintf(&b, "Q%d: %s\n  Your answer: %s\n  Correct answer: %s\n  %s\n",
				i+1, entry.Question, entry.UserAnswer, entry.CorrectAnswer, verdict)
		}
	}
	r.Body = strings.TrimRight(b.String(), "\n")
	return r
}

// PollResults renders vote counts for each of the task's declared options in
// declared order. Options with no recorded votes show 0 votes (0%). The
// percentages are the authority's pre-rounded integers.
func PollResults(task domain.Task, results domain.PollResults) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Poll Results (%d votes)\n", results.Total)
	for _, opt := range task.Options {
		fmt.Fprintf(&b, "%s — %d votes (%d%%)\n", opt, results.Counts[opt], results.Percentages[opt])
	}
	return strings.TrimRight(b.String(), "\n")
}
