// Package realtime consumes the server's websocket event stream: task list
// invalidations, out-of-band grading verdicts and point balance broadcasts.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"classtask-client/internal/domain"
)

// Handlers receive decoded events. Nil handlers are skipped. Events for other
// users are filtered out before dispatch.
type Handlers struct {
	TaskUpdate    func(domain.TaskUpdate)
	GradeReceived func(domain.GradeNotice)
	PointsUpdate  func(domain.PointsUpdate)
}

type inboundEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Listener holds one websocket connection to the authority's event channel.
type Listener struct {
	conn     *websocket.Conn
	userID   string
	handlers Handlers
}

// Dial connects to the event channel at serverURL (http or ws scheme) for the
// given user.
func Dial(ctx context.Context, serverURL, userID string, handlers Handlers) (*Listener, error) {
	wsURL, err := eventURL(serverURL, userID)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial event channel: %w", err)
	}
	return &Listener{conn: conn, userID: userID, handlers: handlers}, nil
}

// Run reads events until the connection drops or ctx is canceled. It always
// closes the connection before returning.
func (l *Listener) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = l.conn.Close()
		case <-done:
		}
	}()
	defer l.conn.Close()

	for {
		var event inboundEvent
		if err := l.conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("event channel: %w", err)
		}
		l.dispatch(event)
	}
}

// Close tears the connection down; a concurrent Run returns afterwards.
func (l *Listener) Close() error {
	return l.conn.Close()
}

func (l *Listener) dispatch(event inboundEvent) {
	switch event.Type {
	case "taskUpdate":
		var update domain.TaskUpdate
		if err := json.Unmarshal(event.Payload, &update); err != nil {
			log.Printf("malformed taskUpdate: %v", err)
			return
		}
		if update.UserID != "" && update.UserID != l.userID {
			return
		}
		if l.handlers.TaskUpdate != nil {
			l.handlers.TaskUpdate(update)
		}
	case "gradeReceived":
		var notice domain.GradeNotice
		if err := json.Unmarshal(event.Payload, &notice); err != nil {
			log.Printf("malformed gradeReceived: %v", err)
			return
		}
		if notice.UserID != "" && notice.UserID != l.userID {
			return
		}
		if l.handlers.GradeReceived != nil {
			l.handlers.GradeReceived(notice)
		}
	case "pointsUpdate":
		var update domain.PointsUpdate
		if err := json.Unmarshal(event.Payload, &update); err != nil {
			log.Printf("malformed pointsUpdate: %v", err)
			return
		}
		if update.UserID != "" && update.UserID != l.userID {
			return
		}
		if l.handlers.PointsUpdate != nil {
			l.handlers.PointsUpdate(update)
		}
	default:
		// Unknown event types are ignored so the server can grow its surface.
	}
}

func eventURL(serverURL, userID string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch {
	case u.Scheme == "https":
		u.Scheme = "wss"
	case u.Scheme == "http" || u.Scheme == "":
		u.Scheme = "ws"
	case strings.HasPrefix(u.Scheme, "ws"):
		// already a websocket url
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
