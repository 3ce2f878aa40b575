package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rpascore/pkg/domain"
)

// Update handlers decode the request body over the current record, so absent
// fields keep their stored values. Identity (internal id, record id) and
// lifecycle-managed fields (status, completion and approval stamps,
// attachment keys) only change through their dedicated endpoints.

func (h *Handler) CreateAircraft(w http.ResponseWriter, r *http.Request) {
	var aircraft domain.Aircraft
	if err := decodeJSON(r, &aircraft); err != nil {
		h.respondError(w, err)
		return
	}
	created, res, err := h.svc.CreateAircraft(r.Context(), aircraft)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mutated(created, res))
}

func (h *Handler) ListAircraft(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.Store().ListAircraft())
}

func (h *Handler) GetAircraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	aircraft, ok := h.svc.Store().GetAircraft(id)
	if !ok {
		h.respondError(w, domain.ErrNotFound{Entity: domain.EntityAircraft, ID: id})
		return
	}
	h.respondJSON(w, http.StatusOK, aircraft)
}

func (h *Handler) UpdateAircraft(w http.ResponseWriter, r *http.Request) {
	updated, res, err := h.svc.UpdateAircraft(r.Context(), chi.URLParam(r, "id"), func(a *domain.Aircraft) error {
		keep := *a
		if err := decodeJSON(r, a); err != nil {
			return err
		}
		a.Base = keep.Base
		return nil
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(updated, res))
}

func (h *Handler) DeleteAircraft(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeleteAircraft(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateManual(w http.ResponseWriter, r *http.Request) {
	var manual domain.Manual
	if err := decodeJSON(r, &manual); err != nil {
		h.respondError(w, err)
		return
	}
	created, res, err := h.svc.CreateManual(r.Context(), manual)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mutated(created, res))
}

func (h *Handler) ListManuals(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.Store().ListManuals())
}

func (h *Handler) GetManual(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	manual, ok := h.svc.Store().GetManual(id)
	if !ok {
		h.respondError(w, domain.ErrNotFound{Entity: domain.EntityManual, ID: id})
		return
	}
	h.respondJSON(w, http.StatusOK, manual)
}

func (h *Handler) UpdateManual(w http.ResponseWriter, r *http.Request) {
	updated, res, err := h.svc.UpdateManual(r.Context(), chi.URLParam(r, "id"), func(m *domain.Manual) error {
		keep := *m
		if err := decodeJSON(r, m); err != nil {
			return err
		}
		m.Base = keep.Base
		m.RecordID = keep.RecordID
		m.Status = keep.Status
		m.ApprovedBy = keep.ApprovedBy
		m.PublishedAt = keep.PublishedAt
		m.AttachmentKeys = keep.AttachmentKeys
		return nil
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(updated, res))
}

func (h *Handler) DeleteManual(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeleteManual(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var mission domain.Mission
	if err := decodeJSON(r, &mission); err != nil {
		h.respondError(w, err)
		return
	}
	created, res, err := h.svc.CreateMission(r.Context(), mission)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mutated(created, res))
}

func (h *Handler) ListMissions(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.Store().ListMissions())
}

func (h *Handler) GetMission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mission, ok := h.svc.Store().GetMission(id)
	if !ok {
		h.respondError(w, domain.ErrNotFound{Entity: domain.EntityMission, ID: id})
		return
	}
	h.respondJSON(w, http.StatusOK, mission)
}

func (h *Handler) UpdateMission(w http.ResponseWriter, r *http.Request) {
	updated, res, err := h.svc.UpdateMission(r.Context(), chi.URLParam(r, "id"), func(m *domain.Mission) error {
		keep := *m
		if err := decodeJSON(r, m); err != nil {
			return err
		}
		m.Base = keep.Base
		m.RecordID = keep.RecordID
		m.Status = keep.Status
		return nil
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(updated, res))
}

func (h *Handler) DeleteMission(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeleteMission(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateFlightPlan(w http.ResponseWriter, r *http.Request) {
	var plan domain.FlightPlan
	if err := decodeJSON(r, &plan); err != nil {
		h.respondError(w, err)
		return
	}
	created, res, err := h.svc.CreateFlightPlan(r.Context(), plan)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mutated(created, res))
}

func (h *Handler) ListFlightPlans(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.Store().ListFlightPlans())
}

func (h *Handler) GetFlightPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	plan, ok := h.svc.Store().GetFlightPlan(id)
	if !ok {
		h.respondError(w, domain.ErrNotFound{Entity: domain.EntityFlightPlan, ID: id})
		return
	}
	h.respondJSON(w, http.StatusOK, plan)
}

func (h *Handler) UpdateFlightPlan(w http.ResponseWriter, r *http.Request) {
	updated, res, err := h.svc.UpdateFlightPlan(r.Context(), chi.URLParam(r, "id"), func(p *domain.FlightPlan) error {
		keep := *p
		if err := decodeJSON(r, p); err != nil {
			return err
		}
		p.Base = keep.Base
		p.RecordID = keep.RecordID
		p.Status = keep.Status
		return nil
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(updated, res))
}

func (h *Handler) DeleteFlightPlan(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeleteFlightPlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateMaintenanceRecord(w http.ResponseWriter, r *http.Request) {
	var rec domain.MaintenanceRecord
	if err := decodeJSON(r, &rec); err != nil {
		h.respondError(w, err)
		return
	}
	created, res, err := h.svc.CreateMaintenanceRecord(r.Context(), rec)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mutated(created, res))
}

func (h *Handler) ListMaintenanceRecords(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.Store().ListMaintenanceRecords())
}

func (h *Handler) GetMaintenanceRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := h.svc.Store().GetMaintenanceRecord(id)
	if !ok {
		h.respondError(w, domain.ErrNotFound{Entity: domain.EntityMaintenance, ID: id})
		return
	}
	h.respondJSON(w, http.StatusOK, rec)
}

func (h *Handler) UpdateMaintenanceRecord(w http.ResponseWriter, r *http.Request) {
	updated, res, err := h.svc.UpdateMaintenanceRecord(r.Context(), chi.URLParam(r, "id"), func(rec *domain.MaintenanceRecord) error {
		keep := *rec
		if err := decodeJSON(r, rec); err != nil {
			return err
		}
		rec.Base = keep.Base
		rec.RecordID = keep.RecordID
		rec.CompletedAt = keep.CompletedAt
		return nil
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(updated, res))
}

func (h *Handler) DeleteMaintenanceRecord(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeleteMaintenanceRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateIncidentReport(w http.ResponseWriter, r *http.Request) {
	var rep domain.IncidentReport
	if err := decodeJSON(r, &rep); err != nil {
		h.respondError(w, err)
		return
	}
	created, res, err := h.svc.CreateIncidentReport(r.Context(), rep)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mutated(created, res))
}

func (h *Handler) ListIncidentReports(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.Store().ListIncidentReports())
}

func (h *Handler) GetIncidentReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, ok := h.svc.Store().GetIncidentReport(id)
	if !ok {
		h.respondError(w, domain.ErrNotFound{Entity: domain.EntityIncident, ID: id})
		return
	}
	h.respondJSON(w, http.StatusOK, rep)
}

func (h *Handler) UpdateIncidentReport(w http.ResponseWriter, r *http.Request) {
	updated, res, err := h.svc.UpdateIncidentReport(r.Context(), chi.URLParam(r, "id"), func(rep *domain.IncidentReport) error {
		keep := *rep
		if err := decodeJSON(r, rep); err != nil {
			return err
		}
		rep.Base = keep.Base
		rep.RecordID = keep.RecordID
		rep.Status = keep.Status
		rep.ReportedAt = keep.ReportedAt
		rep.AttachmentKeys = keep.AttachmentKeys
		return nil
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(updated, res))
}

func (h *Handler) DeleteIncidentReport(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeleteIncidentReport(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateOperationalArea(w http.ResponseWriter, r *http.Request) {
	var area domain.OperationalArea
	if err := decodeJSON(r, &area); err != nil {
		h.respondError(w, err)
		return
	}
	created, res, err := h.svc.CreateOperationalArea(r.Context(), area)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mutated(created, res))
}

func (h *Handler) ListOperationalAreas(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.Store().ListOperationalAreas())
}

func (h *Handler) GetOperationalArea(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	area, ok := h.svc.Store().GetOperationalArea(id)
	if !ok {
		h.respondError(w, domain.ErrNotFound{Entity: domain.EntityArea, ID: id})
		return
	}
	h.respondJSON(w, http.StatusOK, area)
}

func (h *Handler) UpdateOperationalArea(w http.ResponseWriter, r *http.Request) {
	updated, res, err := h.svc.UpdateOperationalArea(r.Context(), chi.URLParam(r, "id"), func(area *domain.OperationalArea) error {
		keep := *area
		if err := decodeJSON(r, area); err != nil {
			return err
		}
		area.Base = keep.Base
		area.RecordID = keep.RecordID
		return nil
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(updated, res))
}

func (h *Handler) DeleteOperationalArea(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeleteOperationalArea(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateCertificate(w http.ResponseWriter, r *http.Request) {
	var cert domain.Certificate
	if err := decodeJSON(r, &cert); err != nil {
		h.respondError(w, err)
		return
	}
	created, res, err := h.svc.CreateCertificate(r.Context(), cert)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mutated(created, res))
}

func (h *Handler) ListCertificates(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.Store().ListCertificates())
}

func (h *Handler) GetCertificate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cert, ok := h.svc.Store().GetCertificate(id)
	if !ok {
		h.respondError(w, domain.ErrNotFound{Entity: domain.EntityCertificate, ID: id})
		return
	}
	h.respondJSON(w, http.StatusOK, cert)
}

func (h *Handler) UpdateCertificate(w http.ResponseWriter, r *http.Request) {
	updated, res, err := h.svc.UpdateCertificate(r.Context(), chi.URLParam(r, "id"), func(cert *domain.Certificate) error {
		keep := *cert
		if err := decodeJSON(r, cert); err != nil {
			return err
		}
		cert.Base = keep.Base
		return nil
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mutated(updated, res))
}

func (h *Handler) DeleteCertificate(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeleteCertificate(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
