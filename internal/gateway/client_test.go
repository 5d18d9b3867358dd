package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"classtask-client/internal/domain"
)

func TestSubmitBodyShapes(t *testing.T) {
	cases := []struct {
		name string
		sub  domain.Submission
		want map[string]any
	}{
		{
			name: "question",
			sub:  domain.Submission{TaskID: "t1", Type: domain.TypeQuestion, Answer: "photosynthesis"},
			want: map[string]any{"userId": "u1", "answer": "photosynthesis"},
		},
		{
			name: "choice",
			sub:  domain.Submission{TaskID: "t2", Type: domain.TypeMultipleChoice, Choice: "4"},
			want: map[string]any{"userId": "u1", "choice": "4"},
		},
		{
			name: "quiz",
			sub:  domain.Submission{TaskID: "t3", Type: domain.TypeQuiz, QuizAnswers: []string{"4", "Paris"}},
			want: map[string]any{"userId": "u1", "quizAnswers": []any{"4", "Paris"}},
		},
		{
			name: "attachment",
			sub:  domain.Submission{TaskID: "t4", Type: domain.TypeAttachment, Attachment: "https://example.com/essay"},
			want: map[string]any{"userId": "u1", "attachment": "https://example.com/essay"},
		},
		{
			name: "markAsDone",
			sub:  domain.Submission{TaskID: "t5", Type: domain.TypeMarkAsDone},
			want: map[string]any{"userId": "u1", "markedDone": true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotPath string
			var gotBody map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				_ = json.NewEncoder(w).Encode(domain.SubmissionResult{Message: "ok"})
			}))
			defer server.Close()

			client := NewClient(server.URL, "u1", nil)
			result, err := client.Submit(context.Background(), tc.sub)
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if result.Message != "ok" {
				t.Fatalf("expected decoded result, got %+v", result)
			}
			if gotPath != "/api/submit/"+tc.sub.TaskID {
				t.Fatalf("unexpected path %s", gotPath)
			}
			if !reflect.DeepEqual(gotBody, tc.want) {
				t.Fatalf("body mismatch: got %v want %v", gotBody, tc.want)
			}
		})
	}
}

func TestSubmitErrorsSurfaceOnce(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "task locked", http.StatusConflict)
	}))
	defer server.Close()

	client := NewClient(server.URL, "u1", nil)
	_, err := client.Submit(context.Background(), domain.Submission{TaskID: "t1", Type: domain.TypeMarkAsDone})
	if err == nil {
		t.Fatalf("expected error on non-success status")
	}
	if calls != 1 {
		t.Fatalf("no retries expected, got %d calls", calls)
	}
}

func TestFetchTasksAndBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tasks":
			if r.URL.Query().Get("userId") != "u1" {
				t.Fatalf("missing userId query, got %s", r.URL.RawQuery)
			}
			_ = json.NewEncoder(w).Encode([]domain.Task{
				{ID: "t1", Title: "Warmup", Type: domain.TypeQuestion, Status: domain.StatusAvailable},
			})
		case "/api/user/u1":
			_ = json.NewEncoder(w).Encode(map[string]any{"points": 42, "username": "alice"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "u1", nil)
	tasks, err := client.FetchTasks(context.Background())
	if err != nil {
		t.Fatalf("fetch tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}

	points, err := client.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if points != 42 {
		t.Fatalf("expected 42 points, got %d", points)
	}
}

func TestPollResultsDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/poll/t7/results" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.PollResults{
			Total:       10,
			Counts:      map[string]int{"Yes": 7, "No": 3},
			Percentages: map[string]int{"Yes": 70, "No": 30},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "u1", nil)
	results, err := client.PollResults(context.Background(), "t7")
	if err != nil {
		t.Fatalf("poll results: %v", err)
	}
	if results.Total != 10 || results.Counts["Yes"] != 7 || results.Percentages["No"] != 30 {
		t.Fatalf("unexpected results %+v", results)
	}
}
