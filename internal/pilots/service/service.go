// Package service implements pilot onboarding, availability, compliance
// document review, and the candidate feed for dispatch.
package service

import (
	"context"
	"time"

	"skyshot_backend/internal/adapters/storage"
	"skyshot_backend/internal/events"
	"skyshot_backend/internal/pilots/domain"
	"skyshot_backend/internal/pilots/repository"
	"skyshot_backend/platform/apperr"
	"skyshot_backend/platform/logger"
	"skyshot_backend/platform/phone"

	"github.com/google/uuid"
)

// Service is the pilots service.
type Service struct {
	repo       repository.PilotsRepository
	storage    storage.StorageService
	docsBucket string
	bus        events.Bus
	log        *logger.Logger
}

// New creates the pilots service. storageSvc may be nil when MinIO is not
// configured; document endpoints then report the feature as unavailable.
func New(repo repository.PilotsRepository, storageSvc storage.StorageService, docsBucket string, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, storage: storageSvc, docsBucket: docsBucket, bus: bus, log: log}
}

// RegisterParams carries pilot registration data.
type RegisterParams struct {
	UserID    uuid.UUID
	Name      string
	Email     string
	Phone     string
	Latitude  *float64
	Longitude *float64
}

// Register creates a pilot profile in the pending approval state. The
// phone number is normalized to E.164 so notification delivery never
// deals with local formats.
func (s *Service) Register(ctx context.Context, params RegisterParams) (repository.Profile, error) {
	return s.repo.CreateProfile(ctx, repository.CreateProfileParams{
		ID:        params.UserID,
		Name:      params.Name,
		Email:     params.Email,
		Phone:     phone.NormalizeE164(params.Phone),
		Latitude:  params.Latitude,
		Longitude: params.Longitude,
	})
}

// Get retrieves a pilot profile.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// List returns pilots matching the filter.
func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.Profile, int, error) {
	return s.repo.ListProfiles(ctx, params)
}

// UpdateProfile patches the mutable profile fields, normalizing the
// phone number when it changes.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, params repository.UpdateProfileParams) (repository.Profile, error) {
	if params.Phone != nil {
		normalized := phone.NormalizeE164(*params.Phone)
		params.Phone = &normalized
	}
	return s.repo.UpdateProfile(ctx, id, params)
}

// SetAvailability flips the pilot's availability flag.
func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (repository.Profile, error) {
	return s.repo.SetAvailability(ctx, id, available)
}

// Heartbeat refreshes the pilot's activity timestamp and position. The
// matching engine treats pilots without a recent heartbeat as inactive,
// so mobile clients call this on a short interval while on duty.
func (s *Service) Heartbeat(ctx context.Context, id uuid.UUID, lat, lon *float64) error {
	return s.repo.Heartbeat(ctx, id, lat, lon, time.Now().UTC())
}

// Approve marks the pilot as approved for dispatch.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (repository.Profile, error) {
	return s.setApproval(ctx, id, domain.ApprovalApproved)
}

// Reject marks the pilot's application as rejected.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (repository.Profile, error) {
	return s.setApproval(ctx, id, domain.ApprovalRejected)
}

// Suspend removes the pilot from dispatch until re-approved.
func (s *Service) Suspend(ctx context.Context, id uuid.UUID) (repository.Profile, error) {
	return s.setApproval(ctx, id, domain.ApprovalSuspended)
}

func (s *Service) setApproval(ctx context.Context, id uuid.UUID, status domain.ApprovalStatus) (repository.Profile, error) {
	profile, err := s.repo.SetApproval(ctx, id, status)
	if err != nil {
		return repository.Profile{}, err
	}
	if s.log != nil {
		s.log.Info("pilot approval changed", "pilotId", id, "status", string(status))
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.PilotApprovalChanged{
			BaseEvent: events.NewBaseEvent(),
			PilotID:   id,
			Status:    string(status),
		})
	}
	return profile, nil
}

// DispatchCandidates returns approved, available pilots with document
// states, excluding the given IDs. Used by the matching engine through
// an adapter.
func (s *Service) DispatchCandidates(ctx context.Context, exclude []uuid.UUID) ([]repository.Candidate, error) {
	return s.repo.ListDispatchCandidates(ctx, exclude)
}

// =====================================
// Compliance documents
// =====================================

// DocumentUpload is the presigned upload slot handed to the client.
type DocumentUpload struct {
	UploadURL string    `json:"uploadUrl"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RequestDocumentUpload presigns an upload slot for a compliance document.
func (s *Service) RequestDocumentUpload(ctx context.Context, pilotID uuid.UUID, docType domain.DocumentType, fileName, contentType string, sizeBytes int64) (DocumentUpload, error) {
	if s.storage == nil {
		return DocumentUpload{}, apperr.Internal("document storage is not configured")
	}
	if !domain.IsKnownDocumentType(docType) {
		return DocumentUpload{}, apperr.Validation("unknown document type: " + string(docType))
	}

	folder := pilotID.String() + "/" + string(docType)
	presigned, err := s.storage.GenerateUploadURL(ctx, s.docsBucket, folder, fileName, contentType, sizeBytes)
	if err != nil {
		return DocumentUpload{}, apperr.Wrap(apperr.KindValidation, "cannot presign document upload", err)
	}
	return DocumentUpload{
		UploadURL: presigned.URL,
		FileKey:   presigned.FileKey,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// AttachDocument records an uploaded file as the pilot's document of the
// given type, pending review. Resubmission resets any earlier verdict.
func (s *Service) AttachDocument(ctx context.Context, pilotID uuid.UUID, docType domain.DocumentType, fileKey string, expiresAt *time.Time) (repository.Document, error) {
	if !domain.IsKnownDocumentType(docType) {
		return repository.Document{}, apperr.Validation("unknown document type: " + string(docType))
	}
	if fileKey == "" {
		return repository.Document{}, apperr.Validation("file key is required")
	}
	return s.repo.UpsertDocument(ctx, repository.UpsertDocumentParams{
		PilotID:   pilotID,
		Type:      docType,
		FileKey:   fileKey,
		ExpiresAt: expiresAt,
	})
}

// ListDocuments returns the pilot's documents.
func (s *Service) ListDocuments(ctx context.Context, pilotID uuid.UUID) ([]repository.Document, error) {
	return s.repo.ListDocuments(ctx, pilotID)
}

// DocumentDownloadURL presigns a download link for a document's file.
func (s *Service) DocumentDownloadURL(ctx context.Context, documentID uuid.UUID) (string, error) {
	if s.storage == nil {
		return "", apperr.Internal("document storage is not configured")
	}
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	presigned, err := s.storage.GenerateDownloadURL(ctx, s.docsBucket, doc.FileKey)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "cannot presign document download", err)
	}
	return presigned.URL, nil
}

// ReviewDocument records an admin verdict on a compliance document.
func (s *Service) ReviewDocument(ctx context.Context, documentID uuid.UUID, approved bool, note *string, expiresAt *time.Time) (repository.Document, error) {
	status := domain.DocApproved
	if !approved {
		status = domain.DocRejected
	}
	return s.repo.ReviewDocument(ctx, documentID, repository.ReviewDocumentParams{
		Status:     status,
		ReviewNote: note,
		ExpiresAt:  expiresAt,
		ReviewedAt: time.Now().UTC(),
	})
}

// =====================================
// Event handlers
// =====================================

// RegisterHandlers subscribes the pilots context to dispatch events so a
// published job bumps the winning pilot's completion counter.
func (s *Service) RegisterHandlers(bus events.Bus) {
	bus.Subscribe("dispatch.job.status_changed", events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		changed, ok := e.(events.JobStatusChanged)
		if !ok {
			return nil
		}
		if changed.To != "published" || changed.PilotID == nil {
			return nil
		}
		if err := s.repo.IncrementCompletedJobs(ctx, *changed.PilotID); err != nil {
			if s.log != nil {
				s.log.Error("failed to increment completed jobs", "pilotId", *changed.PilotID, "error", err)
			}
			return err
		}
		return nil
	}))
}
