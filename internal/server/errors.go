package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/learnly/internal/builder"
	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/progress"
	"github.com/p-n-ai/learnly/internal/quiz"
	"github.com/p-n-ai/learnly/internal/session"
)

type errorBody struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	Retryable bool     `json:"retryable,omitempty"`
	Details   []string `json:"details,omitempty"`
}

// statusFor maps a service error to an HTTP status and response body.
func statusFor(err error) (int, errorBody) {
	var (
		topicErr *curriculum.TopicError
		genErr   *curriculum.GenerationError
		keyErr   *progress.InvalidKeyError
	)
	switch {
	case errors.As(err, &topicErr):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: "invalid_topic"}
	case errors.Is(err, session.ErrNoLearnerID):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: "invalid_learner"}
	case errors.Is(err, builder.ErrBudgetExceeded):
		return http.StatusTooManyRequests, errorBody{Error: err.Error(), Code: "budget_exceeded"}
	case errors.As(err, &genErr):
		return http.StatusBadGateway, errorBody{
			Error:     err.Error(),
			Code:      "generation_failed",
			Retryable: genErr.Retryable(),
			Details:   genErr.Details,
		}
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "superseded"}
	case errors.As(err, &keyErr):
		return http.StatusNotFound, errorBody{Error: err.Error(), Code: "unknown_activity"}
	case errors.Is(err, session.ErrNoCurriculum):
		return http.StatusNotFound, errorBody{Error: err.Error(), Code: "no_curriculum"}
	case errors.Is(err, quiz.ErrUnknownQuiz):
		return http.StatusNotFound, errorBody{Error: err.Error(), Code: "unknown_quiz"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorBody{Error: "request timed out", Code: "timeout"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	} else {
		slog.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}
