package httpserver

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/polyrun/polyrun/runner"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // single-user local service
	},
}

// wsOutgoing is a message to the client.
type wsOutgoing struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Channel    string `json:"channel,omitempty"`
	Message    string `json:"message,omitempty"`
	ExitCode   int    `json:"exit_code,omitempty"`
	TimedOut   bool   `json:"timed_out,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// handleRunWebSocket accepts one run request per connection, streams output
// lines as they are produced, then sends a terminal result message and closes.
func (s *Server) handleRunWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var req runRequest
	if err := conn.ReadJSON(&req); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return
		}
		s.wsWrite(conn, wsOutgoing{Type: "error", Message: "invalid request: " + err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		s.wsWrite(conn, wsOutgoing{Type: "error", Message: err.Error()})
		return
	}

	// Mutex for thread-safe writes to the WebSocket connection
	var wsMu sync.Mutex

	result, err := s.executor.Run(r.Context(), req.Code, req.Language, req.Dependencies, func(line string, channel runner.Channel) {
		wsMu.Lock()
		s.wsWrite(conn, wsOutgoing{Type: "line", Text: line, Channel: string(channel)})
		wsMu.Unlock()
	})

	wsMu.Lock()
	defer wsMu.Unlock()

	if err != nil {
		if errors.Is(err, runner.ErrBusy) {
			s.wsWrite(conn, wsOutgoing{Type: "error", Message: err.Error()})
			return
		}
		s.logger.Error("run failed", zap.Error(err), zap.String("language", req.Language))
		s.wsWrite(conn, wsOutgoing{Type: "error", Message: err.Error()})
		return
	}

	s.wsWrite(conn, wsOutgoing{
		Type:       "result",
		ExitCode:   result.ExitCode,
		TimedOut:   result.TimedOut,
		DurationMS: result.Duration.Milliseconds(),
	})
}

func (s *Server) wsWrite(conn *websocket.Conn, v wsOutgoing) {
	if err := conn.WriteJSON(v); err != nil {
		s.logger.Warn("websocket write failed", zap.Error(err))
	}
}
