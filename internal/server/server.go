// Package server exposes the session service over JSON HTTP and WebSocket.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/progress"
	"github.com/p-n-ai/learnly/internal/quiz"
	"github.com/p-n-ai/learnly/internal/report"
)

const maxBodyBytes = 1 << 20

// Sessions is the learner call surface the handlers drive.
type Sessions interface {
	StartSession(ctx context.Context, learnerID string, profile progress.Profile) (progress.Delta, error)
	BuildCurriculum(ctx context.Context, learnerID, topic, level string) (*curriculum.Curriculum, error)
	Curriculum(ctx context.Context, learnerID string) (*curriculum.Curriculum, error)
	CompleteActivity(ctx context.Context, learnerID string, key curriculum.ActivityKey) (progress.Delta, error)
	DerivedState(ctx context.Context, learnerID string) (progress.DerivedState, error)
	GenerateQuiz(ctx context.Context, learnerID, topic string) (*quiz.Quiz, error)
	SubmitQuiz(ctx context.Context, learnerID, quizID string, answers []string) (quiz.Result, progress.Delta, error)
}

// Streamer serves a learner's live event stream.
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, learnerID string) error
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Config holds dependencies for the HTTP handlers.
type Config struct {
	Sessions Sessions
	Streamer Streamer     // optional; /events is 404 without it
	Metrics  http.Handler // optional
	Checks   []Check
}

type server struct {
	sessions Sessions
	streamer Streamer
	checks   []Check
}

// New returns the HTTP handler.
func New(cfg Config) http.Handler {
	s := &server{sessions: cfg.Sessions, streamer: cfg.Streamer, checks: cfg.Checks}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	mux.HandleFunc("POST /v1/learners/{id}/sessions", s.handleStartSession)
	mux.HandleFunc("POST /v1/learners/{id}/curriculum", s.handleBuildCurriculum)
	mux.HandleFunc("GET /v1/learners/{id}/curriculum", s.handleGetCurriculum)
	mux.HandleFunc("POST /v1/learners/{id}/activities/{key}/complete", s.handleCompleteActivity)
	mux.HandleFunc("GET /v1/learners/{id}/progress", s.handleProgress)
	mux.HandleFunc("GET /v1/learners/{id}/report.xlsx", s.handleReport)
	mux.HandleFunc("POST /v1/learners/{id}/quizzes", s.handleGenerateQuiz)
	mux.HandleFunc("POST /v1/learners/{id}/quizzes/{quizID}/answers", s.handleSubmitQuiz)
	if cfg.Streamer != nil {
		mux.HandleFunc("GET /v1/learners/{id}/events", s.handleEvents)
	}
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	failed := map[string]string{}
	for _, c := range s.checks {
		if err := c.Fn(ctx); err != nil {
			failed[c.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		slog.Warn("readiness check failed", "checks", failed)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type startSessionRequest struct {
	Name   string `json:"name"`
	XP     int    `json:"xp"`
	Streak int    `json:"streak"`
}

func (s *server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	d, err := s.sessions.StartSession(r.Context(), r.PathValue("id"), progress.Profile{
		Name:   req.Name,
		XP:     req.XP,
		Streak: req.Streak,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type buildRequest struct {
	Topic string `json:"topic"`
	Level string `json:"level"`
}

func (s *server) handleBuildCurriculum(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := s.sessions.BuildCurriculum(r.Context(), r.PathValue("id"), req.Topic, req.Level)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleGetCurriculum(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessions.Curriculum(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleCompleteActivity(w http.ResponseWriter, r *http.Request) {
	key, err := curriculum.ParseActivityKey(r.PathValue("key"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "invalid_key"})
		return
	}
	d, err := s.sessions.CompleteActivity(r.Context(), r.PathValue("id"), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *server) handleProgress(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.DerivedState(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.DerivedState(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteProgress(&buf, st); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="progress.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type quizRequest struct {
	Topic string `json:"topic"`
}

func (s *server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	q, err := s.sessions.GenerateQuiz(r.Context(), r.PathValue("id"), req.Topic)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q.Public())
}

type answersRequest struct {
	Answers []string `json:"answers"`
}

type answersResponse struct {
	Result quiz.Result    `json:"result"`
	Delta  progress.Delta `json:"delta"`
}

func (s *server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if !decode(w, r, &req) {
		return
	}
	res, d, err := s.sessions.SubmitQuiz(r.Context(), r.PathValue("id"), r.PathValue("quizID"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answersResponse{Result: res, Delta: d})
}

func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if err := s.streamer.Serve(w, r, r.PathValue("id")); err != nil {
		slog.Warn("event stream ended with error", "learner_id", r.PathValue("id"), "error", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body: " + err.Error(), Code: "invalid_body"})
		return false
	}
	return true
}

// decodeOptional is decode that also accepts an empty body.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return decode(w, r, dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
