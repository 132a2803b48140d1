package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/polyrun/polyrun/runner"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Request / response bodies ---

type runRequest struct {
	Code         string `json:"code"`
	Language     string `json:"language"`
	Dependencies string `json:"dependencies"`
}

func (r runRequest) validate() error {
	if r.Code == "" {
		return errors.New("code is required")
	}
	if r.Language == "" {
		return errors.New("language is required")
	}
	return nil
}

type outputLine struct {
	Text    string `json:"text"`
	Channel string `json:"channel"`
}

type runResponse struct {
	Lines      []outputLine `json:"lines"`
	ExitCode   int          `json:"exit_code"`
	TimedOut   bool         `json:"timed_out"`
	DurationMS int64        `json:"duration_ms"`
}

// --- Handlers ---

func (s *Server) handleListLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.executor.Languages())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.executor.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lines := make([]outputLine, 0, 16)
	result, err := s.executor.Run(r.Context(), req.Code, req.Language, req.Dependencies, func(line string, channel runner.Channel) {
		lines = append(lines, outputLine{Text: line, Channel: string(channel)})
	})
	if err != nil {
		if errors.Is(err, runner.ErrBusy) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("run failed", zap.Error(err), zap.String("language", req.Language))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Lines:      lines,
		ExitCode:   result.ExitCode,
		TimedOut:   result.TimedOut,
		DurationMS: result.Duration.Milliseconds(),
	})
}
