package engine

import (
	"context"
	"strings"
	"sync"

	"classtask-client/internal/domain"
)

// Submitter dispatches a typed submission payload to the scoring authority.
// It performs no local correctness evaluation and no retries.
type Submitter interface {
	Submit(ctx context.Context, sub domain.Submission) (domain.SubmissionResult, error)
}

// SubmitPhase tracks a session's submission lifecycle so overlapping submits
// for the same task are rejected instead of double-scored.
type SubmitPhase int

const (
	PhaseIdle SubmitPhase = iota
	PhaseSubmitting
	PhaseSubmitted
)

// TaskSession drives the interaction flow for one opened task. Each opened
// task gets its own session, so sequential or concurrent task openings do not
// interfere through shared state.
type TaskSession struct {
	task    domain.Task
	gateway Submitter
	refresh func(context.Context)

	mu        sync.Mutex
	phase     SubmitPhase
	choice    string
	hasChoice bool
	quiz      *QuizSession
}

// TaskView is the render model for an opened task.
type TaskView struct {
	Title            string
	Description      string
	Type             domain.TaskType
	Status           domain.TaskStatus
	Points           int
	Instructions     string
	TaskInstructions string
	ResourceContent  string
	Options          []string
	ReadOnly         bool
	SelectedChoice   string
	HasChoice        bool
}

// Controller opens tasks from the catalog and wires their sessions to the
// submission gateway.
type Controller struct {
	catalog *Catalog
	gateway Submitter
}

func NewController(catalog *Catalog, gateway Submitter) *Controller {
	return &Controller{catalog: catalog, gateway: gateway}
}

// Open starts a session for the given task ID. Completed tasks are refused
// locally; no submission flow is entered and no network call is made.
func (c *Controller) Open(ctx context.Context, taskID string) (*TaskSession, error) {
	task, ok := c.catalog.Find(taskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	session, err := OpenTask(task, c.gateway)
	if err != nil {
		return nil, err
	}
	session.refresh = func(ctx context.Context) {
		// Best-effort: a refresh failure must not fail the submission.
		_, _ = c.catalog.Refresh(ctx)
	}
	return session, nil
}

// OpenTask starts a session directly from a task value.
func OpenTask(task domain.Task, gateway Submitter) (*TaskSession, error) {
	if task.Status == domain.StatusCompleted {
		return nil, domain.ErrTaskCompleted
	}
	session := &TaskSession{task: task, gateway: gateway}
	if task.Status != domain.StatusResource && task.Type == domain.TypeQuiz {
		session.quiz = NewQuizSession(task.QuizPages)
	}
	return session, nil
}

// Task returns the task this session was opened for.
func (s *TaskSession) Task() domain.Task {
	return s.task
}

// Quiz returns the quiz state machine, or nil for non-quiz tasks.
func (s *TaskSession) Quiz() *QuizSession {
	return s.quiz
}

// Phase reports the session's submission lifecycle state.
func (s *TaskSession) Phase() SubmitPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// View derives the render model for the opened task. Resource tasks render
// read-only content with no submission affordance.
func (s *TaskSession) View() TaskView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TaskView{
		Title:            s.task.Title,
		Description:      s.task.Description,
		Type:             s.task.Type,
		Status:           s.task.Status,
		Points:           s.task.Points,
		Instructions:     s.task.Instructions,
		TaskInstructions: s.task.TaskInstructions,
		ResourceContent:  s.task.ResourceContent,
		Options:          append([]string(nil), s.task.Options...),
		ReadOnly:         s.task.Status == domain.StatusResource,
		SelectedChoice:   s.choice,
		HasChoice:        s.hasChoice,
	}
}

// SelectChoice records the single selected option for choice-based tasks.
// Selecting option B after A leaves exactly B selected.
func (s *TaskSession) SelectChoice(option string) error {
	if s.task.Type != domain.TypeMultipleChoice && s.task.Type != domain.TypePoll {
		return domain.ErrUnknownOption
	}
	if !containsOption(s.task.Options, option) {
		return domain.ErrUnknownOption
	}
	s.mu.Lock()
	s.choice = option
	s.hasChoice = true
	s.mu.Unlock()
	return nil
}

// Selected returns the current selection for choice-based tasks.
func (s *TaskSession) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.choice, s.hasChoice
}

// Submit validates local state for the task's type, builds the submission and
// dispatches it. Local validation failures block the call before any network
// traffic. A transport failure leaves local state (choice, quiz answers)
// untouched so the user can retry. input carries the free text for
// question/attachment tasks and is ignored for other types.
func (s *TaskSession) Submit(ctx context.Context, input string) (domain.SubmissionResult, error) {
	if s.task.Status == domain.StatusResource {
		return domain.SubmissionResult{}, domain.ErrReadOnlyTask
	}

	sub := domain.Submission{TaskID: s.task.ID, Type: s.task.Type}
	switch s.task.Type {
	case domain.TypeQuestion:
		text := strings.TrimSpace(input)
		if text == "" {
			return domain.SubmissionResult{}, domain.ErrEmptyAnswer
		}
		sub.Answer = text
	case domain.TypeAttachment:
		text := strings.TrimSpace(input)
		if text == "" {
			return domain.SubmissionResult{}, domain.ErrEmptyAnswer
		}
		sub.Attachment = text
	case domain.TypeMultipleChoice, domain.TypePoll:
		choice, ok := s.Selected()
		if !ok {
			return domain.SubmissionResult{}, domain.ErrNoChoiceSelected
		}
		sub.Choice = choice
	case domain.TypeQuiz:
		record, err := s.quiz.Finish()
		if err != nil {
			return domain.SubmissionResult{}, err
		}
		sub.QuizAnswers = record
	case domain.TypeMarkAsDone:
		// Fixed completion marker, no input collected.
	}

	if err := s.beginSubmit(); err != nil {
		return domain.SubmissionResult{}, err
	}

	result, err := s.gateway.Submit(ctx, sub)
	if err != nil {
		s.endSubmit(PhaseIdle)
		if s.quiz != nil {
			// The answer record is intact; reopen the terminal state so a
			// user-initiated retry can finish again.
			s.quiz.submitted = false
		}
		return domain.SubmissionResult{}, err
	}
	s.endSubmit(PhaseSubmitted)

	if s.refresh != nil {
		s.refresh(ctx)
	}
	return result, nil
}

func (s *TaskSession) beginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case PhaseSubmitting:
		return domain.ErrSubmitInFlight
	case PhaseSubmitted:
		return domain.ErrAlreadySubmitted
	}
	s.phase = PhaseSubmitting
	return nil
}

func (s *TaskSession) endSubmit(phase SubmitPhase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}
