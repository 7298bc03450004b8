package repository

import (
	"context"
	"time"

	"skyshot_backend/internal/pilots/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// ProfileReader provides read-only access to pilot profiles.
type ProfileReader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (Profile, error)
	ListProfiles(ctx context.Context, params ListParams) ([]Profile, int, error)
	// ListDispatchCandidates returns approved, currently available pilots
	// with their document review states, excluding the given IDs.
	ListDispatchCandidates(ctx context.Context, exclude []uuid.UUID) ([]Candidate, error)
}

// ProfileWriter provides write operations for pilot profiles.
type ProfileWriter interface {
	CreateProfile(ctx context.Context, params CreateProfileParams) (Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (Profile, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (Profile, error)
	// Heartbeat refreshes the activity timestamp and, when coordinates
	// are provided, the pilot's last known position.
	Heartbeat(ctx context.Context, id uuid.UUID, lat, lon *float64, at time.Time) error
	SetApproval(ctx context.Context, id uuid.UUID, status domain.ApprovalStatus) (Profile, error)
	IncrementCompletedJobs(ctx context.Context, id uuid.UUID) error
}

// DocumentStore manages pilot compliance documents, one per (pilot, type).
type DocumentStore interface {
	UpsertDocument(ctx context.Context, params UpsertDocumentParams) (Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (Document, error)
	ListDocuments(ctx context.Context, pilotID uuid.UUID) ([]Document, error)
	ReviewDocument(ctx context.Context, id uuid.UUID, params ReviewDocumentParams) (Document, error)
}

// PilotsRepository is the full repository contract the pilots service
// depends on. Tests substitute an in-memory fake.
type PilotsRepository interface {
	ProfileReader
	ProfileWriter
	DocumentStore
}
