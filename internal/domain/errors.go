package domain

import "errors"

var (
	// ErrTaskNotFound is returned when a task ID is absent from the catalog.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskCompleted is returned when opening a task that is already completed.
	ErrTaskCompleted = errors.New("task already completed")
	// ErrReadOnlyTask is returned when submitting a resource task.
	ErrReadOnlyTask = errors.New("resource task has nothing to submit")
	// ErrEmptyAnswer is returned when a free-text submission is blank.
	ErrEmptyAnswer = errors.New("answer must not be empty")
	// ErrNoChoiceSelected is returned when submitting a choice task without a selection.
	ErrNoChoiceSelected = errors.New("no option selected")
	// ErrUnknownOption is returned when a selection is not one of the task's options.
	ErrUnknownOption = errors.New("option not among the task's choices")
	// ErrPageUnanswered blocks advancing past a question page with no answer.
	ErrPageUnanswered = errors.New("current quiz page is unanswered")
	// ErrNotLastPage is returned when finishing a quiz before its last page.
	ErrNotLastPage = errors.New("quiz can only be finished on its last page")
	// ErrNoQuestionOnPage is returned when selecting an answer on an info page.
	ErrNoQuestionOnPage = errors.New("current quiz page has no question")
	// ErrSubmitInFlight rejects a submit while a previous one is still pending.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrAlreadySubmitted rejects a second submit after a successful one.
	ErrAlreadySubmitted = errors.New("task already submitted in this session")
)
