package service

import (
	"context"
	"time"

	"skyshot_backend/internal/dispatch/domain"
	"skyshot_backend/internal/dispatch/repository"
	"skyshot_backend/internal/events"
	"skyshot_backend/platform/apperr"

	"github.com/google/uuid"
)

// TransitionOpts carries the optional attributes of a job transition.
type TransitionOpts struct {
	Actor    string
	Message  string
	Metadata map[string]any
	// AssignedPilotID is persisted only when transitioning into assigned.
	AssignedPilotID *uuid.UUID
	// ScheduledStart/End are persisted only when transitioning into
	// scheduled and both are set.
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
}

// TransitionJob moves a job to a new status, appends the audit row, and
// mirrors the change onto the property workflow when the status has a
// mapped substate.
func (s *Service) TransitionJob(ctx context.Context, jobID uuid.UUID, status domain.JobStatus, opts TransitionOpts) (repository.Job, error) {
	if !domain.IsKnownJobStatus(status) {
		return repository.Job{}, apperr.Validation("unknown job status: " + string(status))
	}

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return repository.Job{}, err
	}
	if domain.IsTerminalJobStatus(job.Status) && job.Status != status {
		return repository.Job{}, apperr.Conflict("job is in terminal status " + string(job.Status))
	}

	params := repository.UpdateJobStatusParams{
		Status:             status,
		LastStatusChangeAt: time.Now().UTC(),
	}
	if status == domain.JobAssigned {
		params.AssignedPilotID = opts.AssignedPilotID
	}
	if status == domain.JobScheduled && opts.ScheduledStart != nil && opts.ScheduledEnd != nil {
		params.ScheduledStart = opts.ScheduledStart
		params.ScheduledEnd = opts.ScheduledEnd
	}

	previous := job.Status
	updated, err := s.repo.UpdateJobStatus(ctx, jobID, params)
	if err != nil {
		return repository.Job{}, err
	}

	var actor *string
	if opts.Actor != "" {
		actor = &opts.Actor
	}
	if err := s.repo.AppendTimelineEvent(ctx, repository.TimelineEventParams{
		JobID:    jobID,
		Kind:     string(status),
		Message:  opts.Message,
		Metadata: opts.Metadata,
		Actor:    actor,
	}); err != nil {
		return repository.Job{}, err
	}

	// Mirror onto the property workflow. Canceled has no mapped substate:
	// canceling a job never forces the property backward.
	if substate, ok := domain.MirroredSubstate(status); ok {
		if err := s.workflow.TransitionTo(ctx, updated.PropertyID, substate, opts.Actor, opts.Message, opts.Metadata); err != nil {
			return repository.Job{}, err
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.JobStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			JobID:      jobID,
			PropertyID: updated.PropertyID,
			From:       string(previous),
			To:         string(status),
			PilotID:    updated.AssignedPilotID,
			Actor:      opts.Actor,
		})
	}

	return updated, nil
}

// ScheduleJob records the shoot window and moves the job to scheduled.
func (s *Service) ScheduleJob(ctx context.Context, jobID uuid.UUID, start, end time.Time, actor string) (repository.Job, error) {
	if !end.After(start) {
		return repository.Job{}, apperr.Validation("scheduled end must be after start")
	}
	return s.TransitionJob(ctx, jobID, domain.JobScheduled, TransitionOpts{
		Actor:          actor,
		Message:        "shoot scheduled",
		ScheduledStart: &start,
		ScheduledEnd:   &end,
	})
}

// GetJob retrieves a job, opportunistically sweeping overdue offers first.
// Time-based state only becomes authoritative at the next observation,
// and a read is an observation.
func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID) (repository.Job, error) {
	if _, err := s.ExpirePendingOffers(ctx, jobID, true); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return repository.Job{}, err
		}
		if s.log != nil {
			s.log.Error("opportunistic expiry sweep failed", "jobId", jobID, "error", err)
		}
	}
	return s.repo.GetJob(ctx, jobID)
}

// GetJobByProperty resolves the job attached to a property.
func (s *Service) GetJobByProperty(ctx context.Context, propertyID uuid.UUID) (repository.Job, error) {
	job, err := s.repo.GetJobByProperty(ctx, propertyID)
	if err != nil {
		return repository.Job{}, err
	}
	return s.GetJob(ctx, job.ID)
}

// ListJobs returns jobs with an optional status filter.
func (s *Service) ListJobs(ctx context.Context, params repository.ListJobsParams) ([]repository.Job, int, error) {
	return s.repo.ListJobs(ctx, params)
}

// ListPilotOffers returns a pilot's own offers with lapsed pending rows
// resolved first, so a pilot never sees a stale pending offer.
func (s *Service) ListPilotOffers(ctx context.Context, pilotID uuid.UUID) ([]repository.JobOffer, error) {
	offers, err := s.repo.ListOffersByPilot(ctx, pilotID)
	if err != nil {
		return nil, err
	}
	for _, o := range offers {
		if o.Status == domain.OfferPending && time.Now().After(o.ExpiresAt) {
			if _, err := s.ExpirePendingOffers(ctx, o.JobID, true); err != nil && s.log != nil {
				s.log.Error("opportunistic expiry sweep failed", "jobId", o.JobID, "error", err)
			}
		}
	}
	return s.repo.ListOffersByPilot(ctx, pilotID)
}

// ListOffers returns every offer on a job.
func (s *Service) ListOffers(ctx context.Context, jobID uuid.UUID) ([]repository.JobOffer, error) {
	return s.repo.ListOffersByJob(ctx, jobID)
}

// ListTimeline returns a job's audit trail.
func (s *Service) ListTimeline(ctx context.Context, jobID uuid.UUID) ([]repository.TimelineEvent, error) {
	return s.repo.ListTimeline(ctx, jobID)
}
