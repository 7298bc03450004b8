package repository

import (
	"context"
	"time"

	"skyshot_backend/internal/dispatch/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// JobReader provides read-only access to jobs.
type JobReader interface {
	GetJob(ctx context.Context, id uuid.UUID) (Job, error)
	GetJobByProperty(ctx context.Context, propertyID uuid.UUID) (Job, error)
	ListJobs(ctx context.Context, params ListJobsParams) ([]Job, int, error)
}

// JobWriter provides write operations for jobs.
type JobWriter interface {
	CreateJob(ctx context.Context, params CreateJobParams) (Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, params UpdateJobStatusParams) (Job, error)
	// AdvanceJobWave bumps the invite-wave counter. The update is a
	// compare-and-set on "wave > current" so concurrent sends can never
	// move the counter backward.
	AdvanceJobWave(ctx context.Context, id uuid.UUID, wave int) (Job, error)
}

// OfferReader provides read access to job offers.
type OfferReader interface {
	GetOffer(ctx context.Context, id uuid.UUID) (JobOffer, error)
	ListOffersByJob(ctx context.Context, jobID uuid.UUID) ([]JobOffer, error)
	ListOffersByPilot(ctx context.Context, pilotID uuid.UUID) ([]JobOffer, error)
	ListOfferPilotIDs(ctx context.Context, jobID uuid.UUID) ([]uuid.UUID, error)
	CountPendingOffers(ctx context.Context, jobID uuid.UUID) (int, error)
}

// OfferWriter provides write operations for job offers.
type OfferWriter interface {
	// EnsureOffer is get-or-create on (job, pilot) so duplicate wave
	// invocations cannot violate the uniqueness invariant. The boolean
	// reports whether a new row was created.
	EnsureOffer(ctx context.Context, params CreateOfferParams) (JobOffer, bool, error)
	// ResolveOffer moves a pending offer to a terminal status. It is a
	// compare-and-set on status=pending; the boolean is false when the
	// offer was no longer pending.
	ResolveOffer(ctx context.Context, id uuid.UUID, status domain.OfferStatus, respondedAt time.Time) (JobOffer, bool, error)
	// ExpireOtherPending force-expires every pending offer on the job
	// except the given one, returning the expired offers.
	ExpireOtherPending(ctx context.Context, jobID uuid.UUID, except uuid.UUID, respondedAt time.Time) ([]JobOffer, error)
	// ExpireOverduePending expires pending offers whose expiry has
	// passed, returning the expired offers.
	ExpireOverduePending(ctx context.Context, jobID uuid.UUID, now time.Time) ([]JobOffer, error)
	// AcceptOffer atomically accepts a pending offer and claims the
	// job's assignment slot in one transaction. The boolean is false
	// when either compare-and-set loses: the offer is no longer pending
	// or another pilot already holds the job.
	AcceptOffer(ctx context.Context, offerID uuid.UUID, respondedAt time.Time) (JobOffer, bool, error)
}

// TimelineWriter appends to a job's audit trail.
type TimelineWriter interface {
	AppendTimelineEvent(ctx context.Context, params TimelineEventParams) error
	ListTimeline(ctx context.Context, jobID uuid.UUID) ([]TimelineEvent, error)
}

// DispatchRepository is the full repository contract the dispatch service
// depends on. Tests substitute an in-memory fake.
type DispatchRepository interface {
	JobReader
	JobWriter
	OfferReader
	OfferWriter
	TimelineWriter
}
