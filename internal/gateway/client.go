package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"classtask-client/internal/domain"
)

// Client talks to the scoring authority's REST API. It is a thin transport
// wrapper: no local scoring, no retries. A failed call surfaces as a single
// error and the caller's local state is untouched.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
}

// NewClient builds a client against baseURL (e.g. "http://localhost:8080")
// acting as userID. httpClient may be nil.
func NewClient(baseURL, userID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, userID: userID, http: httpClient}
}

// FetchTasks loads the user's task list in authority order.
func (c *Client) FetchTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	endpoint := fmt.Sprintf("%s/api/tasks?userId=%s", c.baseURL, url.QueryEscape(c.userID))
	if err := c.getJSON(ctx, endpoint, &tasks); err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	return tasks, nil
}

// Submit sends the type-specific payload for a task and returns the
// authority's verdict. The body shape is selected by the submission type:
// {answer} | {choice} | {quizAnswers} | {attachment} | {markedDone: true},
// always alongside the submitting userId.
func (c *Client) Submit(ctx context.Context, sub domain.Submission) (domain.SubmissionResult, error) {
	body := map[string]any{"userId": c.userID}
	switch sub.Type {
	case domain.TypeQuestion:
		body["answer"] = sub.Answer
	case domain.TypeMultipleChoice, domain.TypePoll:
		body["choice"] = sub.Choice
	case domain.TypeQuiz:
		answers := sub.QuizAnswers
		if answers == nil {
			answers = []string{}
		}
		body["quizAnswers"] = answers
	case domain.TypeAttachment:
		body["attachment"] = sub.Attachment
	case domain.TypeMarkAsDone:
		body["markedDone"] = true
	default:
		return domain.SubmissionResult{}, fmt.Errorf("submit: unsupported task type %q", sub.Type)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("submit: %w", err)
	}
	endpoint := fmt.Sprintf("%s/api/submit/%s", c.baseURL, url.PathEscape(sub.TaskID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("submit: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("submit %s: %w", sub.TaskID, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return domain.SubmissionResult{}, fmt.Errorf("submit %s: unexpected status %d", sub.TaskID, res.StatusCode)
	}

	var result domain.SubmissionResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("submit %s: decode result: %w", sub.TaskID, err)
	}
	return result, nil
}

// PollResults fetches the aggregated votes for a poll task.
func (c *Client) PollResults(ctx context.Context, taskID string) (domain.PollResults, error) {
	var results domain.PollResults
	endpoint := fmt.Sprintf("%s/api/poll/%s/results", c.baseURL, url.PathEscape(taskID))
	if err := c.getJSON(ctx, endpoint, &results); err != nil {
		return domain.PollResults{}, fmt.Errorf("poll results %s: %w", taskID, err)
	}
	return results, nil
}

// Balance reads the user's current authoritative point balance.
func (c *Client) Balance(ctx context.Context) (int, error) {
	var user struct {
		Points int `json:"points"`
	}
	endpoint := fmt.Sprintf("%s/api/user/%s", c.baseURL, url.PathEscape(c.userID))
	if err := c.getJSON(ctx, endpoint, &user); err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	return user.Points, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
