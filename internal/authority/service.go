// Package authority is a development stand-in for the scoring authority the
// client talks to. It grades submissions against per-task answer keys, tracks
// statuses, votes and point balances, and broadcasts realtime events. It
// exists for demos and tests; it is not a production server.
package authority

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"classtask-client/internal/domain"
)

var (
	// ErrBadSubmission is returned when a payload does not match the task's type.
	ErrBadSubmission = errors.New("submission does not match task type")
	// ErrTaskLocked is returned when submitting to an already completed task.
	ErrTaskLocked = errors.New("task already completed")
)

// KeyedTask is a task plus the grading key the authority keeps to itself.
type KeyedTask struct {
	domain.Task
	CorrectChoice string   `json:"correctChoice,omitempty"`
	QuizKey       []string `json:"quizKey,omitempty"` // one entry per question page, in page order
}

// TaskBank loads the keyed task set (static map, Postgres, ...).
type TaskBank interface {
	LoadTasks(ctx context.Context) ([]KeyedTask, error)
}

// Store persists per-user statuses and points and per-poll votes.
type Store interface {
	AddPoints(ctx context.Context, userID string, delta int) (int, error)
	Points(ctx context.Context, userID string) (int, error)
	RecordVote(ctx context.Context, taskID, option string) error
	Votes(ctx context.Context, taskID string) (map[string]int, error)
	SetStatus(ctx context.Context, userID, taskID string, status domain.TaskStatus) error
	Statuses(ctx context.Context, userID string) (map[string]domain.TaskStatus, error)
}

// Event is a realtime broadcast in the {type, payload} envelope shape.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// SubmitRequest mirrors the client's typed submit body.
type SubmitRequest struct {
	UserID      string   `json:"userId"`
	Answer      string   `json:"answer,omitempty"`
	Choice      string   `json:"choice,omitempty"`
	QuizAnswers []string `json:"quizAnswers,omitempty"`
	Attachment  string   `json:"attachment,omitempty"`
	MarkedDone  bool     `json:"markedDone,omitempty"`
}

// Service implements the authority's use cases: list, submit, poll tallies,
// balances and teacher-side async grading.
type Service struct {
	bank  TaskBank
	store Store

	mu          sync.Mutex
	subscribers map[chan Event]struct{}
}

func NewService(bank TaskBank, store Store) *Service {
	return &Service{
		bank:        bank,
		store:       store,
		subscribers: make(map[chan Event]struct{}),
	}
}

// ListTasks returns the bank's tasks with per-user statuses applied and
// grading keys stripped.
func (s *Service) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	keyed, err := s.bank.LoadTasks(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.store.Statuses(ctx, userID)
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(keyed))
	for _, kt := range keyed {
		task := kt.Task
		if status, ok := statuses[task.ID]; ok {
			task.Status = status
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Submit grades a typed submission and returns the structured verdict.
func (s *Service) Submit(ctx context.Context, taskID string, req SubmitRequest) (domain.SubmissionResult, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	statuses, err := s.store.Statuses(ctx, req.UserID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if statuses[taskID] == domain.StatusCompleted {
		return domain.SubmissionResult{}, ErrTaskLocked
	}

	switch task.Type {
	case domain.TypeQuestion, domain.TypeAttachment:
		return s.acceptForReview(ctx, task, req)
	case domain.TypeMultipleChoice:
		return s.gradeChoice(ctx, task, req)
	case domain.TypePoll:
		return s.recordVote(ctx, task, req)
	case domain.TypeQuiz:
		return s.gradeQuiz(ctx, task, req)
	case domain.TypeMarkAsDone:
		return s.markDone(ctx, task, req)
	default:
		return domain.SubmissionResult{}, fmt.Errorf("task %s: unknown type %q", taskID, task.Type)
	}
}

// PollResults tallies the recorded votes with pre-rounded integer percentages.
func (s *Service) PollResults(ctx context.Context, taskID string) (domain.PollResults, error) {
	if _, err := s.findTask(ctx, taskID); err != nil {
		return domain.PollResults{}, err
	}
	votes, err := s.store.Votes(ctx, taskID)
	if err != nil {
		return domain.PollResults{}, err
	}
	total := 0
	for _, count := range votes {
		total += count
	}
	percentages := make(map[string]int, len(votes))
	for option, count := range votes {
		percentages[option] = roundPercent(count, total)
	}
	return domain.PollResults{Total: total, Counts: votes, Percentages: percentages}, nil
}

// Points reads a user's current balance.
func (s *Service) Points(ctx context.Context, userID string) (int, error) {
	return s.store.Points(ctx, userID)
}

// Grade applies a teacher-issued verdict for an asynchronously graded task
// (question/attachment) and pushes it to the user over the event channel.
func (s *Service) Grade(ctx context.Context, userID, taskID string, result domain.SubmissionResult) error {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return err
	}
	status := domain.StatusFailed
	if result.Correct || result.PointsEarned > 0 {
		status = domain.StatusCompleted
	}
	if err := s.store.SetStatus(ctx, userID, taskID, status); err != nil {
		return err
	}
	if result.PointsEarned > 0 {
		total, err := s.store.AddPoints(ctx, userID, result.PointsEarned)
		if err != nil {
			return err
		}
		s.broadcast(Event{Type: "pointsUpdate", Payload: domain.PointsUpdate{UserID: userID, Points: total}})
	}
	s.broadcast(Event{Type: "gradeReceived", Payload: domain.GradeNotice{
		UserID:           userID,
		TaskID:           taskID,
		TaskTitle:        task.Title,
		SubmissionResult: result,
	}})
	s.broadcast(Event{Type: "taskUpdate", Payload: domain.TaskUpdate{UserID: userID}})
	return nil
}

// Subscribe returns a channel receiving broadcast events. The cancel func
// must be called to avoid leaks.
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Service) broadcast(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest pending event so slow readers never block grading.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func (s *Service) acceptForReview(ctx context.Context, task KeyedTask, req SubmitRequest) (domain.SubmissionResult, error) {
	text := req.Answer
	if task.Type == domain.TypeAttachment {
		text = req.Attachment
	}
	if text == "" {
		return domain.SubmissionResult{}, ErrBadSubmission
	}
	if err := s.store.SetStatus(ctx, req.UserID, task.ID, domain.StatusPending); err != nil {
		return domain.SubmissionResult{}, err
	}
	s.broadcast(Event{Type: "taskUpdate", Payload: domain.TaskUpdate{UserID: req.UserID}})
	return domain.SubmissionResult{Message: "Submitted for review"}, nil
}

func (s *Service) gradeChoice(ctx context.Context, task KeyedTask, req SubmitRequest) (domain.SubmissionResult, error) {
	if req.Choice == "" {
		return domain.SubmissionResult{}, ErrBadSubmission
	}
	correct := req.Choice == task.CorrectChoice
	result := domain.SubmissionResult{Correct: correct}
	status := domain.StatusFailed
	if correct {
		status = domain.StatusCompleted
		result.Message = "That is the right answer."
		if task.Points > 0 {
			result.PointsEarned = task.Points
		}
	} else {
		result.Message = fmt.Sprintf("The right answer was %q.", task.CorrectChoice)
	}
	if err := s.finishSubmission(ctx, req.UserID, task.ID, status, result.PointsEarned); err != nil {
		return domain.SubmissionResult{}, err
	}
	return result, nil
}

func (s *Service) recordVote(ctx context.Context, task KeyedTask, req SubmitRequest) (domain.SubmissionResult, error) {
	if req.Choice == "" {
		return domain.SubmissionResult{}, ErrBadSubmission
	}
	if err := s.store.RecordVote(ctx, task.ID, req.Choice); err != nil {
		return domain.SubmissionResult{}, err
	}
	if err := s.finishSubmission(ctx, req.UserID, task.ID, domain.StatusCompleted, task.Points); err != nil {
		return domain.SubmissionResult{}, err
	}
	result := domain.SubmissionResult{Message: "Vote recorded"}
	if task.Points > 0 {
		result.PointsEarned = task.Points
	}
	return result, nil
}

func (s *Service) gradeQuiz(ctx context.Context, task KeyedTask, req SubmitRequest) (domain.SubmissionResult, error) {
	questions := make([]domain.QuizPage, 0, len(task.QuizPages))
	for _, page := range task.QuizPages {
		if page.Kind == domain.PageQuestion {
			questions = append(questions, page)
		}
	}
	if len(req.QuizAnswers) != len(questions) || len(task.QuizKey) != len(questions) {
		return domain.SubmissionResult{}, ErrBadSubmission
	}

	score := 0
	breakdown := make([]domain.BreakdownEntry, 0, len(questions))
	for i, page := range questions {
		correct := req.QuizAnswers[i] == task.QuizKey[i]
		if correct {
			score++
		}
		breakdown = append(breakdown, domain.BreakdownEntry{
			Question:      page.Question,
			UserAnswer:    req.QuizAnswers[i],
			CorrectAnswer: task.QuizKey[i],
			IsCorrect:     correct,
		})
	}

	total := len(questions)
	result := domain.SubmissionResult{
		Message:    "Quiz complete!",
		Score:      score,
		Total:      total,
		Percentage: roundPercent(score, total),
		Results:    breakdown,
	}
	if total == 0 {
		result.Percentage = 100
	}
	if task.Points > 0 && total > 0 {
		result.PointsEarned = task.Points * score / total
	}
	status := domain.StatusCompleted
	if total > 0 && score == 0 {
		status = domain.StatusFailed
	}
	if err := s.finishSubmission(ctx, req.UserID, task.ID, status, result.PointsEarned); err != nil {
		return domain.SubmissionResult{}, err
	}
	return result, nil
}

func (s *Service) markDone(ctx context.Context, task KeyedTask, req SubmitRequest) (domain.SubmissionResult, error) {
	if !req.MarkedDone {
		return domain.SubmissionResult{}, ErrBadSubmission
	}
	if err := s.finishSubmission(ctx, req.UserID, task.ID, domain.StatusCompleted, task.Points); err != nil {
		return domain.SubmissionResult{}, err
	}
	result := domain.SubmissionResult{Message: "Task marked as done"}
	if task.Points > 0 {
		result.PointsEarned = task.Points
	}
	return result, nil
}

// finishSubmission records the new status, awards points and broadcasts the
// resulting state changes.
func (s *Service) finishSubmission(ctx context.Context, userID, taskID string, status domain.TaskStatus, points int) error {
	if err := s.store.SetStatus(ctx, userID, taskID, status); err != nil {
		return err
	}
	if points > 0 {
		total, err := s.store.AddPoints(ctx, userID, points)
		if err != nil {
			return err
		}
		s.broadcast(Event{Type: "pointsUpdate", Payload: domain.PointsUpdate{UserID: userID, Points: total}})
	}
	s.broadcast(Event{Type: "taskUpdate", Payload: domain.TaskUpdate{UserID: userID}})
	return nil
}

func (s *Service) findTask(ctx context.Context, taskID string) (KeyedTask, error) {
	tasks, err := s.bank.LoadTasks(ctx)
	if err != nil {
		return KeyedTask{}, err
	}
	for _, task := range tasks {
		if task.ID == taskID {
			return task, nil
		}
	}
	return KeyedTask{}, domain.ErrTaskNotFound
}

func roundPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
