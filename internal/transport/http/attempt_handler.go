package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/domain"
)

// AttemptHandler exposes the attempt use cases over JSON.
type AttemptHandler struct {
	service *app.AttemptService
	log     *zap.Logger
}

func NewAttemptHandler(service *app.AttemptService, log *zap.Logger) *AttemptHandler {
	return &AttemptHandler{service: service, log: log}
}

type startAttemptRequest struct {
	StudentID string `json:"studentId"`
}

// submitAttemptRequest maps question ids to the selected answer ids.
type submitAttemptRequest struct {
	Answers map[string][]string `json:"answers"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (h *AttemptHandler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	var req startAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, domain.Invalidf("decode body: %v", err))
		return
	}
	attempt, err := h.service.StartAttempt(r.Context(), chi.URLParam(r, "quizID"), req.StudentID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, attempt)
}

func (h *AttemptHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, domain.Invalidf("decode body: %v", err))
		return
	}
	res, err := h.service.SubmitAttempt(r.Context(), chi.URLParam(r, "attemptID"), req.Answers)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

func (h *AttemptHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.GetAttemptScore(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, report)
}

func (h *AttemptHandler) GetResponses(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.service.GetAttemptResponses(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, breakdown)
}

func (h *AttemptHandler) respond(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("write response", zap.Error(err))
	}
}

func (h *AttemptHandler) respondError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.Error(err))
	}
	h.respond(w, code, errorResponse{Error: err.Error(), Retryable: domain.Retryable(err)})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDependency):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
