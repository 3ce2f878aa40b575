package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"rpascore/internal/blob"
	"rpascore/pkg/domain"
	"rpascore/pkg/logger"
)

// ErrNoBlobStore is returned by attachment operations when the service was
// built without attachment storage.
var ErrNoBlobStore = errors.New("core: no blob store configured")

// attachmentKey builds a collision-free key under the record's folder. The
// uuid segment lets the same filename be uploaded repeatedly without
// tripping the store's create-only guarantee.
func attachmentKey(folder, recordID, filename string) string {
	name := path.Base(filename)
	if name == "" || name == "." || name == "/" {
		name = "attachment"
	}
	return fmt.Sprintf("%s/%s/%s-%s", folder, recordID, uuid.NewString(), name)
}

// AttachManualRevision stores an uploaded manual document and records its key
// on the manual. The blob write happens first; if registering the key fails
// the orphaned blob is removed.
func (s *Service) AttachManualRevision(ctx context.Context, manualID, filename, contentType string, r io.Reader) (blob.Info, domain.Result, error) {
	if s.blobs == nil {
		return blob.Info{}, domain.Result{}, ErrNoBlobStore
	}
	var info blob.Info
	var res domain.Result
	err := s.instrument(ctx, "attach_manual_revision", func(ctx context.Context) error {
		manual, ok := s.store.GetManual(manualID)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityManual, ID: manualID}
		}
		stored, err := s.blobs.Put(ctx, attachmentKey("manuals", manual.RecordID, filename), r, blob.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"record_id": manual.RecordID},
		})
		if err != nil {
			return err
		}
		info = stored
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.UpdateManual(manualID, func(m *domain.Manual) error {
				m.AttachmentKeys = append(m.AttachmentKeys, stored.Key)
				return nil
			})
			return err
		})
		if err != nil {
			if _, delErr := s.blobs.Delete(ctx, stored.Key); delErr != nil {
				s.log.Warn("orphaned attachment left behind", logger.String("key", stored.Key), logger.Error(delErr))
			}
			return err
		}
		return nil
	})
	s.logWarnings(res)
	return info, res, err
}

// ListManualAttachments lists the stored attachments of a manual.
func (s *Service) ListManualAttachments(ctx context.Context, manualID string) ([]blob.Info, error) {
	if s.blobs == nil {
		return nil, ErrNoBlobStore
	}
	var infos []blob.Info
	err := s.instrument(ctx, "list_manual_attachments", func(ctx context.Context) error {
		manual, ok := s.store.GetManual(manualID)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityManual, ID: manualID}
		}
		var err error
		infos, err = s.blobs.List(ctx, "manuals/"+manual.RecordID+"/")
		return err
	})
	return infos, err
}

// AttachIncidentEvidence stores uploaded incident evidence and records its
// key on the report.
func (s *Service) AttachIncidentEvidence(ctx context.Context, incidentID, filename, contentType string, r io.Reader) (blob.Info, domain.Result, error) {
	if s.blobs == nil {
		return blob.Info{}, domain.Result{}, ErrNoBlobStore
	}
	var info blob.Info
	var res domain.Result
	err := s.instrument(ctx, "attach_incident_evidence", func(ctx context.Context) error {
		rep, ok := s.store.GetIncidentReport(incidentID)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityIncident, ID: incidentID}
		}
		stored, err := s.blobs.Put(ctx, attachmentKey("incidents", rep.RecordID, filename), r, blob.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"record_id": rep.RecordID},
		})
		if err != nil {
			return err
		}
		info = stored
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.UpdateIncidentReport(incidentID, func(r *domain.IncidentReport) error {
				r.AttachmentKeys = append(r.AttachmentKeys, stored.Key)
				return nil
			})
			return err
		})
		if err != nil {
			if _, delErr := s.blobs.Delete(ctx, stored.Key); delErr != nil {
				s.log.Warn("orphaned attachment left behind", logger.String("key", stored.Key), logger.Error(delErr))
			}
			return err
		}
		return nil
	})
	s.logWarnings(res)
	return info, res, err
}

// ListIncidentEvidence lists the stored evidence of an incident report.
func (s *Service) ListIncidentEvidence(ctx context.Context, incidentID string) ([]blob.Info, error) {
	if s.blobs == nil {
		return nil, ErrNoBlobStore
	}
	var infos []blob.Info
	err := s.instrument(ctx, "list_incident_evidence", func(ctx context.Context) error {
		rep, ok := s.store.GetIncidentReport(incidentID)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityIncident, ID: incidentID}
		}
		var err error
		infos, err = s.blobs.List(ctx, "incidents/"+rep.RecordID+"/")
		return err
	})
	return infos, err
}

// OpenAttachment streams a stored attachment. The caller closes the reader.
func (s *Service) OpenAttachment(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	if s.blobs == nil {
		return blob.Info{}, nil, ErrNoBlobStore
	}
	var info blob.Info
	var rc io.ReadCloser
	err := s.instrument(ctx, "open_attachment", func(ctx context.Context) error {
		var err error
		info, rc, err = s.blobs.Get(ctx, key)
		return err
	})
	return info, rc, err
}
