package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rpascore/internal/core"
	"rpascore/pkg/logger"
)

// Router assembles the HTTP surface of the record service.
type Router struct {
	handler    *Handler
	middleware *Middleware
	metrics    http.Handler
	logger     *logger.Logger
}

// NewRouter creates a router over the record service. The metrics handler is
// optional; when nil no /metrics endpoint is registered.
func NewRouter(svc *core.Service, metrics http.Handler, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(svc, log),
		middleware: NewMiddleware(log),
		metrics:    metrics,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the route tree.
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)

	if r.metrics != nil {
		router.Handle("/metrics", r.metrics)
	}

	router.Route("/api/v1", func(router chi.Router) {
		// Health check
		router.Get("/health", r.handler.Health)

		// Aircraft register
		router.Get("/aircraft", r.handler.ListAircraft)
		router.Post("/aircraft", r.handler.CreateAircraft)
		router.Get("/aircraft/{id}", r.handler.GetAircraft)
		router.Put("/aircraft/{id}", r.handler.UpdateAircraft)
		router.Delete("/aircraft/{id}", r.handler.DeleteAircraft)

		// Operations manuals
		router.Get("/manuals", r.handler.ListManuals)
		router.Post("/manuals", r.handler.CreateManual)
		router.Get("/manuals/{id}", r.handler.GetManual)
		router.Put("/manuals/{id}", r.handler.UpdateManual)
		router.Delete("/manuals/{id}", r.handler.DeleteManual)
		router.Post("/manuals/{id}/transition", r.handler.TransitionManual)
		router.Get("/manuals/{id}/attachments", r.handler.ListManualAttachments)
		router.Post("/manuals/{id}/attachments", r.handler.AttachManualRevision)

		// Missions
		router.Get("/missions", r.handler.ListMissions)
		router.Post("/missions", r.handler.CreateMission)
		router.Get("/missions/{id}", r.handler.GetMission)
		router.Put("/missions/{id}", r.handler.UpdateMission)
		router.Delete("/missions/{id}", r.handler.DeleteMission)
		router.Post("/missions/{id}/transition", r.handler.TransitionMission)

		// Flight plans
		router.Get("/flight-plans", r.handler.ListFlightPlans)
		router.Post("/flight-plans", r.handler.CreateFlightPlan)
		router.Get("/flight-plans/{id}", r.handler.GetFlightPlan)
		router.Put("/flight-plans/{id}", r.handler.UpdateFlightPlan)
		router.Delete("/flight-plans/{id}", r.handler.DeleteFlightPlan)
		router.Post("/flight-plans/{id}/transition", r.handler.TransitionFlightPlan)
		router.Get("/flight-plans/{id}/conflicts", r.handler.FlightPlanConflicts)

		// Maintenance records
		router.Get("/maintenance", r.handler.ListMaintenanceRecords)
		router.Post("/maintenance", r.handler.CreateMaintenanceRecord)
		router.Get("/maintenance/{id}", r.handler.GetMaintenanceRecord)
		router.Put("/maintenance/{id}", r.handler.UpdateMaintenanceRecord)
		router.Delete("/maintenance/{id}", r.handler.DeleteMaintenanceRecord)
		router.Post("/maintenance/{id}/complete", r.handler.CompleteMaintenance)

		// Incident reports
		router.Get("/incidents", r.handler.ListIncidentReports)
		router.Get("/incidents/nearby", r.handler.NearbyIncidents)
		router.Post("/incidents", r.handler.CreateIncidentReport)
		router.Get("/incidents/{id}", r.handler.GetIncidentReport)
		router.Put("/incidents/{id}", r.handler.UpdateIncidentReport)
		router.Delete("/incidents/{id}", r.handler.DeleteIncidentReport)
		router.Post("/incidents/{id}/transition", r.handler.TransitionIncident)
		router.Post("/incidents/{id}/report", r.handler.ReportIncident)
		router.Get("/incidents/{id}/attachments", r.handler.ListIncidentEvidence)
		router.Post("/incidents/{id}/attachments", r.handler.AttachIncidentEvidence)

		// Operational areas
		router.Get("/areas", r.handler.ListOperationalAreas)
		router.Post("/areas", r.handler.CreateOperationalArea)
		router.Get("/areas/{id}", r.handler.GetOperationalArea)
		router.Put("/areas/{id}", r.handler.UpdateOperationalArea)
		router.Delete("/areas/{id}", r.handler.DeleteOperationalArea)

		// Certificates
		router.Get("/certificates", r.handler.ListCertificates)
		router.Post("/certificates", r.handler.CreateCertificate)
		router.Get("/certificates/{id}", r.handler.GetCertificate)
		router.Put("/certificates/{id}", r.handler.UpdateCertificate)
		router.Delete("/certificates/{id}", r.handler.DeleteCertificate)

		// Compliance views
		router.Get("/schedule/dashboard", r.handler.ScheduleDashboard)
		router.Get("/audit/{recordID}", r.handler.AuditTrail)

		// Attachment downloads by storage key
		router.Get("/attachments/*", r.handler.DownloadAttachment)
	})

	return router
}
