// Package http exposes the dev scoring authority over the REST and websocket
// contracts the client consumes.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"classtask-client/internal/authority"
	"classtask-client/internal/domain"
)

// Server wires the authority's use cases into HTTP handlers.
type Server struct {
	service *authority.Service
	ws      *WSHandler
}

func NewServer(service *authority.Service) *Server {
	return &Server{service: service, ws: NewWSHandler(service)}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/tasks", s.handleTasks)
	mux.HandleFunc("POST /api/submit/{taskID}", s.handleSubmit)
	mux.HandleFunc("GET /api/poll/{taskID}/results", s.handlePollResults)
	mux.HandleFunc("GET /api/user/{userID}", s.handleUser)
	mux.HandleFunc("POST /api/grade/{taskID}", s.handleGrade)
	mux.HandleFunc("GET /ws", s.ws.ServeWS)
	return mux
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	tasks, err := s.service.ListTasks(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tasks)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req authority.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid submit payload", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	result, err := s.service.Submit(r.Context(), r.PathValue("taskID"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handlePollResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.service.PollResults(r.Context(), r.PathValue("taskID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, results)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	points, err := s.service.Points(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": r.PathValue("userID"), "points": points})
}

// handleGrade lets a teacher push an out-of-band verdict for a pending
// submission, which fans out as a gradeReceived event.
func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		domain.SubmissionResult
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid grade payload", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	if err := s.service.Grade(r.Context(), req.UserID, r.PathValue("taskID"), req.SubmissionResult); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, authority.ErrBadSubmission):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, authority.ErrTaskLocked):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
