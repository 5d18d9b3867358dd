package domain

// TaskType selects the interaction flow a task drives on the client.
type TaskType string

const (
	TypeQuestion       TaskType = "question"
	TypeMultipleChoice TaskType = "multipleChoice"
	TypePoll           TaskType = "poll"
	TypeQuiz           TaskType = "quiz"
	TypeAttachment     TaskType = "attachment"
	TypeMarkAsDone     TaskType = "markAsDone"
)

// TaskStatus is set exclusively by the scoring authority; the client only
// reflects the last value it fetched.
type TaskStatus string

const (
	StatusAvailable TaskStatus = "available"
	StatusPending   TaskStatus = "pending"
	StatusResource  TaskStatus = "resource"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// PageKind distinguishes informational quiz pages from question pages.
type PageKind string

const (
	PageInfo     PageKind = "info"
	PageQuestion PageKind = "question"
)

// QuizPage is one step of a multi-page quiz. Info pages carry Title/Content,
// question pages carry Question/Options.
type QuizPage struct {
	Kind     PageKind `json:"type"`
	Title    string   `json:"title,omitempty"`
	Content  string   `json:"content,omitempty"`
	Question string   `json:"question,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// Task is a unit of work with a lifecycle status owned by the authority.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Type             TaskType   `json:"type"`
	Status           TaskStatus `json:"status"`
	Points           int        `json:"points,omitempty"`
	Options          []string   `json:"options,omitempty"`
	Instructions     string     `json:"instructions,omitempty"`
	TaskInstructions string     `json:"taskInstructions,omitempty"`
	ResourceContent  string     `json:"resourceContent,omitempty"`
	QuizPages        []QuizPage `json:"quizPages,omitempty"`
}

// Submission is the typed payload for one task submission. Exactly one of the
// per-type fields is meaningful, selected by Type.
type Submission struct {
	TaskID      string
	Type        TaskType
	Answer      string   // question
	Choice      string   // multipleChoice, poll
	QuizAnswers []string // quiz, one entry per question page in page order
	Attachment  string   // attachment
}

// BreakdownEntry is the authority's per-question verdict inside a quiz result.
type BreakdownEntry struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correct"`
	IsCorrect     bool   `json:"isCorrect"`
}

// SubmissionResult is the authority's structured verdict for a submission.
// Correct/PointsEarned apply to choice-based tasks; Score/Total/Percentage/
// Results apply to quizzes. The client never recomputes any of these.
type SubmissionResult struct {
	Message      string           `json:"message"`
	Correct      bool             `json:"correct,omitempty"`
	PointsEarned int              `json:"pointsEarned,omitempty"`
	Score        int              `json:"score,omitempty"`
	Total        int              `json:"total,omitempty"`
	Percentage   int              `json:"percentage,omitempty"`
	Results      []BreakdownEntry `json:"results,omitempty"`
}

// PollResults aggregates votes for a poll task. Percentages are
// authority-computed pre-rounded integers.
type PollResults struct {
	Total       int            `json:"total"`
	Counts      map[string]int `json:"counts"`
	Percentages map[string]int `json:"percentages"`
}

// GradeNotice delivers an asynchronous grading verdict over the realtime
// channel, for tasks the authority grades out of band.
type GradeNotice struct {
	UserID    string `json:"userId"`
	TaskID    string `json:"taskId"`
	TaskTitle string `json:"taskTitle"`
	SubmissionResult
}

// PointsUpdate announces a user's new authoritative point balance.
type PointsUpdate struct {
	UserID string `json:"userId"`
	Points int    `json:"points"`
}

// TaskUpdate tells a client its task list changed and should be refetched.
type TaskUpdate struct {
	UserID string `json:"userId"`
}
