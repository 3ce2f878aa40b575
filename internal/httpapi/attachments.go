package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rpascore/internal/blob"
	"rpascore/pkg/domain"
	"rpascore/pkg/logger"
)

// Attachment uploads take the raw file as the request body. The stored
// filename comes from the filename query parameter and the stored content
// type from the Content-Type header.

func (h *Handler) uploadAttachment(w http.ResponseWriter, r *http.Request, attach func(id, filename, contentType string, body io.Reader) (blob.Info, domain.Result, error)) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		h.respondError(w, badRequest("filename query parameter is required"))
		return
	}
	info, res, err := attach(chi.URLParam(r, "id"), filename, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mutated(info, res))
}

func (h *Handler) AttachManualRevision(w http.ResponseWriter, r *http.Request) {
	h.uploadAttachment(w, r, func(id, filename, contentType string, body io.Reader) (blob.Info, domain.Result, error) {
		return h.svc.AttachManualRevision(r.Context(), id, filename, contentType, body)
	})
}

func (h *Handler) AttachIncidentEvidence(w http.ResponseWriter, r *http.Request) {
	h.uploadAttachment(w, r, func(id, filename, contentType string, body io.Reader) (blob.Info, domain.Result, error) {
		return h.svc.AttachIncidentEvidence(r.Context(), id, filename, contentType, body)
	})
}

func (h *Handler) ListManualAttachments(w http.ResponseWriter, r *http.Request) {
	infos, err := h.svc.ListManualAttachments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if infos == nil {
		infos = []blob.Info{}
	}
	h.respondJSON(w, http.StatusOK, infos)
}

func (h *Handler) ListIncidentEvidence(w http.ResponseWriter, r *http.Request) {
	infos, err := h.svc.ListIncidentEvidence(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if infos == nil {
		infos = []blob.Info{}
	}
	h.respondJSON(w, http.StatusOK, infos)
}

// DownloadAttachment streams a stored attachment by its full storage key.
func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	info, rc, err := h.svc.OpenAttachment(r.Context(), key)
	if err != nil {
		h.respondError(w, err)
		return
	}
	defer rc.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Error("streaming attachment", logger.String("key", key), logger.Error(err))
	}
}
