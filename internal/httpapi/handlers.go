// Package httpapi exposes the record service over a JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rpascore/internal/blob"
	"rpascore/internal/core"
	"rpascore/pkg/domain"
	"rpascore/pkg/logger"
)

// Handler wires HTTP endpoints to the record service.
type Handler struct {
	svc *core.Service
	log *logger.Logger
}

// NewHandler creates the API handler.
func NewHandler(svc *core.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log.Named("http-handler")}
}

// violationPayload is the JSON shape of a rule violation.
type violationPayload struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Entity   string `json:"entity,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
}

func violationPayloads(violations []domain.Violation) []violationPayload {
	if len(violations) == 0 {
		return nil
	}
	out := make([]violationPayload, len(violations))
	for i, v := range violations {
		out[i] = violationPayload{
			Rule:     v.Rule,
			Severity: string(v.Severity),
			Message:  v.Message,
			Entity:   string(v.Entity),
			EntityID: v.EntityID,
		}
	}
	return out
}

// mutationResponse wraps a committed record together with any advisory
// warnings the rules raised.
type mutationResponse struct {
	Data     any                `json:"data"`
	Warnings []violationPayload `json:"warnings,omitempty"`
}

func mutated(data any, res domain.Result) mutationResponse {
	return mutationResponse{Data: data, Warnings: violationPayloads(res.Warnings())}
}

// errorResponse is the JSON shape of every error the API returns.
type errorResponse struct {
	Error      string             `json:"error"`
	Reasons    []domain.Reason    `json:"reasons,omitempty"`
	Violations []violationPayload `json:"violations,omitempty"`
}

// badRequestError marks malformed input so the error mapper answers 400.
type badRequestError struct {
	err error
}

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return badRequestError{err: fmt.Errorf(format, args...)}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("decode request body: %w", err)
	}
	return nil
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("encode response", logger.Error(err))
	}
}

// respondError maps the service's typed errors onto HTTP statuses: recoverable
// input problems answer 4xx with structured reasons, everything unexpected is
// logged and answers a bare 500.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var (
		malformed  badRequestError
		notFound   domain.ErrNotFound
		constraint domain.ConstraintViolationError
		geometry   domain.InvalidGeometryError
		ruleErr    domain.RuleViolationError
		transition domain.InvalidTransitionError
		authority  domain.InsufficientAuthorityError
		duplicate  domain.DuplicateIdentifierError
	)
	switch {
	case errors.As(err, &malformed):
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: malformed.Error()})
	case errors.As(err, &notFound):
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Error()})
	case errors.Is(err, blob.ErrNotExist):
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &constraint):
		h.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "constraint violation",
			Reasons: constraint.Reasons,
		})
	case errors.As(err, &geometry):
		h.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: geometry.Error()})
	case errors.As(err, &ruleErr):
		h.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      "blocked by compliance rules",
			Violations: violationPayloads(ruleErr.Result.Violations),
		})
	case errors.As(err, &transition):
		h.respondJSON(w, http.StatusConflict, errorResponse{Error: transition.Error()})
	case errors.As(err, &duplicate):
		h.respondJSON(w, http.StatusConflict, errorResponse{Error: duplicate.Error()})
	case errors.As(err, &authority):
		h.respondJSON(w, http.StatusForbidden, errorResponse{Error: authority.Error()})
	case errors.Is(err, core.ErrNoBlobStore):
		h.respondJSON(w, http.StatusNotImplemented, errorResponse{Error: "attachment storage not configured"})
	default:
		h.log.Error("request failed", logger.Error(err))
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
