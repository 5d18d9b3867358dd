package engine

import (
	"classtask-client/internal/domain"
)

// QuizSession owns multi-page quiz navigation, per-page answer recording and
// completion validation. It holds an immutable snapshot of the quiz pages for
// its lifetime and is never persisted; closing the task view discards it.
// PageView is derived from the session and rendering it has no effect on
// the session.
type QuizSession struct {
	pages      []domain.QuizPage
	index      int
	answers    []string
	answered   []bool
	pending    string
	hasPending bool
	submitted  bool
}

// PageView is the render model for the current quiz page.
type PageView struct {
	Index       int
	Count       int
	Kind        domain.PageKind
	Title       string
	Content     string
	Question    string
	Options     []string
	Selected    string // pending selection, or the committed answer when revisiting
	HasSelected bool
	HasPrevious bool
	IsLast      bool
}

// NewQuizSession starts a session at page 0 with an empty answer record.
func NewQuizSession(pages []domain.QuizPage) *QuizSession {
	snapshot := make([]domain.QuizPage, len(pages))
	copy(snapshot, pages)
	return &QuizSession{
		pages:    snapshot,
		answers:  make([]string, len(snapshot)),
		answered: make([]bool, len(snapshot)),
	}
}

// Select records the pending answer for the current page. Only one option is
// pending at a time; selecting again replaces the previous pending value.
func (s *QuizSession) Select(option string) error {
	if s.submitted {
		return domain.ErrAlreadySubmitted
	}
	page := s.pages[s.index]
	if page.Kind != domain.PageQuestion {
		return domain.ErrNoQuestionOnPage
	}
	if !containsOption(page.Options, option) {
		return domain.ErrUnknownOption
	}
	s.pending = option
	s.hasPending = true
	return nil
}

// Next advances to the following page. A question page must carry a pending
// or previously committed answer, otherwise the transition is refused and the
// session is unchanged. The index never moves past the last page.
func (s *QuizSession) Next() error {
	if s.submitted {
		return domain.ErrAlreadySubmitted
	}
	if err := s.commitCurrent(); err != nil {
		return err
	}
	if s.index < len(s.pages)-1 {
		s.index++
	}
	return nil
}

// Previous moves back one page without revalidating and without touching any
// committed answer. Info pages never block navigation in either direction.
func (s *QuizSession) Previous() {
	if s.submitted {
		return
	}
	if s.index > 0 {
		s.index--
		s.pending = ""
		s.hasPending = false
	}
}

// Finish validates the last page, commits it and returns the full answer
// record: one entry per question page in page order, info pages contribute
// nothing. A quiz with zero pages is immediately complete with an empty
// record. After Finish succeeds the session is terminal.
func (s *QuizSession) Finish() ([]string, error) {
	if s.submitted {
		return nil, domain.ErrAlreadySubmitted
	}
	if len(s.pages) == 0 {
		s.submitted = true
		return []string{}, nil
	}
	if s.index != len(s.pages)-1 {
		return nil, domain.ErrNotLastPage
	}
	if err := s.commitCurrent(); err != nil {
		return nil, err
	}
	s.submitted = true

	record := make([]string, 0, len(s.pages))
	for i, page := range s.pages {
		if page.Kind == domain.PageQuestion {
			record = append(record, s.answers[i])
		}
	}
	return record, nil
}

// Submitted reports whether the session reached its terminal state.
func (s *QuizSession) Submitted() bool {
	return s.submitted
}

// View derives the render model for the current page. Calling it repeatedly
// without intervening transitions yields identical views.
func (s *QuizSession) View() PageView {
	view := PageView{
		Index:       s.index,
		Count:       len(s.pages),
		HasPrevious: s.index > 0,
		IsLast:      s.index >= len(s.pages)-1,
	}
	if len(s.pages) == 0 {
		view.IsLast = true
		return view
	}
	page := s.pages[s.index]
	view.Kind = page.Kind
	view.Title = page.Title
	view.Content = page.Content
	view.Question = page.Question
	view.Options = append([]string(nil), page.Options...)
	if s.hasPending {
		view.Selected = s.pending
		view.HasSelected = true
	} else if s.answered[s.index] {
		view.Selected = s.answers[s.index]
		view.HasSelected = true
	}
	return view
}

// commitCurrent enforces the question-page invariant and folds the pending
// selection into the answer record. Revisited pages keep their committed
// answer when nothing new is pending.
func (s *QuizSession) commitCurrent() error {
	page := s.pages[s.index]
	if page.Kind == domain.PageQuestion {
		if !s.hasPending && !s.answered[s.index] {
			return domain.ErrPageUnanswered
		}
		if s.hasPending {
			s.answers[s.index] = s.pending
			s.answered[s.index] = true
		}
	}
	s.pending = ""
	s.hasPending = false
	return nil
}

func containsOption(options []string, option string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}
