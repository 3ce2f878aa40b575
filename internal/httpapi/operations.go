package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rpascore/internal/core"
	"rpascore/pkg/compliance"
	"rpascore/pkg/domain"
)

type transitionRequest struct {
	Target string       `json:"target"`
	Actor  domain.Actor `json:"actor"`
}

func decodeTransition(r *http.Request) (transitionRequest, error) {
	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		return transitionRequest{}, err
	}
	if req.Target == "" {
		return transitionRequest{}, badRequest("target is required")
	}
	return req, nil
}

func (h *Handler) TransitionManual(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTransition(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	manual, res, err := h.svc.TransitionManual(r.Context(), chi.URLParam(r, "id"), req.Target, req.Actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(manual, res))
}

func (h *Handler) TransitionMission(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTransition(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	mission, res, err := h.svc.TransitionMission(r.Context(), chi.URLParam(r, "id"), req.Target, req.Actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(mission, res))
}

func (h *Handler) TransitionFlightPlan(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTransition(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	plan, res, err := h.svc.TransitionFlightPlan(r.Context(), chi.URLParam(r, "id"), req.Target, req.Actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(plan, res))
}

func (h *Handler) TransitionIncident(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTransition(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	rep, res, err := h.svc.TransitionIncident(r.Context(), chi.URLParam(r, "id"), req.Target, req.Actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(rep, res))
}

// optionalInstant reads an optional timestamp field from the request body.
// An empty body means "now" and is not an error.
func optionalInstant(r *http.Request, field string) (time.Time, error) {
	var body map[string]time.Time
	if err := decodeJSON(r, &body); err != nil {
		if errors.Is(err, io.EOF) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return body[field], nil
}

func (h *Handler) CompleteMaintenance(w http.ResponseWriter, r *http.Request) {
	at, err := optionalInstant(r, "completed_at")
	if err != nil {
		h.respondError(w, err)
		return
	}
	rec, res, err := h.svc.CompleteMaintenance(r.Context(), chi.URLParam(r, "id"), at)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(rec, res))
}

func (h *Handler) ReportIncident(w http.ResponseWriter, r *http.Request) {
	at, err := optionalInstant(r, "reported_at")
	if err != nil {
		h.respondError(w, err)
		return
	}
	rep, res, err := h.svc.MarkIncidentReported(r.Context(), chi.URLParam(r, "id"), at)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(rep, res))
}

type conflictsResponse struct {
	PlanID    string             `json:"plan_id"`
	Conflicts []compliance.Claim `json:"conflicts"`
}

func (h *Handler) FlightPlanConflicts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conflicts, err := h.svc.PlanConflicts(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if conflicts == nil {
		conflicts = []compliance.Claim{}
	}
	h.respondJSON(w, http.StatusOK, conflictsResponse{PlanID: id, Conflicts: conflicts})
}

func (h *Handler) ScheduleDashboard(w http.ResponseWriter, r *http.Request) {
	var at time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.respondError(w, badRequest("invalid at parameter: %v", err))
			return
		}
		at = parsed
	}
	dash, err := h.svc.ScheduleDashboard(r.Context(), at)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if dash.Items == nil {
		dash.Items = []core.ScheduleItem{}
	}
	h.respondJSON(w, http.StatusOK, dash)
}

type nearbyIncidentsResponse struct {
	Center   domain.LatLon           `json:"center"`
	RadiusNM float64                 `json:"radius_nm"`
	Items    []core.IncidentDistance `json:"items"`
}

func (h *Handler) NearbyIncidents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	parse := func(name string) (float64, error) {
		raw := query.Get(name)
		if raw == "" {
			return 0, badRequest("%s parameter is required", name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, badRequest("invalid %s parameter: %v", name, err)
		}
		return v, nil
	}
	lat, err := parse("lat")
	if err != nil {
		h.respondError(w, err)
		return
	}
	lon, err := parse("lon")
	if err != nil {
		h.respondError(w, err)
		return
	}
	radius, err := parse("radius_nm")
	if err != nil {
		h.respondError(w, err)
		return
	}
	center := domain.LatLon{Lat: lat, Lon: lon}
	items, err := h.svc.NearbyIncidents(r.Context(), center, radius)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if items == nil {
		items = []core.IncidentDistance{}
	}
	h.respondJSON(w, http.StatusOK, nearbyIncidentsResponse{Center: center, RadiusNM: radius, Items: items})
}

type auditResponse struct {
	RecordID string              `json:"record_id"`
	Entries  []domain.AuditEntry `json:"entries"`
}

func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	entries, err := h.svc.AuditTrail(r.Context(), recordID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	h.respondJSON(w, http.StatusOK, auditResponse{RecordID: recordID, Entries: entries})
}
