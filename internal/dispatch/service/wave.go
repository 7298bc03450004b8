package service

import (
	"context"
	"fmt"
	"time"

	"skyshot_backend/internal/dispatch/domain"
	"skyshot_backend/internal/dispatch/matching"
	"skyshot_backend/internal/dispatch/repository"
	"skyshot_backend/internal/events"
	"skyshot_backend/platform/apperr"

	"github.com/google/uuid"
)

// SendWave broadcasts a wave of time-boxed offers for a job. Returns the
// offers created by this call; an empty result is not an error — the
// caller decides whether a degraded outcome warrants an alert.
func (s *Service) SendWave(ctx context.Context, jobID uuid.UUID, wave int, actor string) ([]repository.JobOffer, error) {
	if wave < 1 || wave > s.cfg.MaxWaves {
		if s.log != nil {
			s.log.DispatchEvent("wave_refused", jobID.String(), wave, 0)
		}
		return nil, nil
	}

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobDraft && job.Status != domain.JobInviting {
		return nil, apperr.Conflict("job is no longer accepting invite waves")
	}

	// Sweep stale pending offers before computing a fresh shortlist so
	// they are not counted as still outstanding. No auto-escalation
	// here: this call IS the escalation.
	now := time.Now().UTC()
	if _, err := s.repo.ExpireOverduePending(ctx, jobID, now); err != nil {
		return nil, err
	}

	info, err := s.properties.GetDispatchInfo(ctx, job.PropertyID)
	if err != nil {
		return nil, err
	}
	if info.Latitude == nil || info.Longitude == nil {
		return nil, apperr.Validation("property has no coordinates")
	}

	matches, err := s.engine.Shortlist(ctx, matching.Target{
		JobID:     jobID,
		Latitude:  *info.Latitude,
		Longitude: *info.Longitude,
	}, wave)
	if err != nil {
		return nil, err
	}

	ttl := s.cfg.OfferTTL
	expiresAt := now.Add(ttl)
	created := make([]repository.JobOffer, 0, len(matches))
	for _, m := range matches {
		offer, isNew, err := s.repo.EnsureOffer(ctx, repository.CreateOfferParams{
			JobID:      jobID,
			PilotID:    m.Candidate.PilotID,
			Wave:       wave,
			Score:      m.Score,
			RadiusKm:   s.cfg.RadiusForWave(wave),
			DistanceKm: m.DistanceKm,
			TTLSeconds: int(ttl.Seconds()),
			ExpiresAt:  expiresAt,
		})
		if err != nil {
			return nil, err
		}
		if isNew {
			created = append(created, offer)
		}
	}

	if s.log != nil {
		s.log.DispatchEvent("wave_sent", jobID.String(), wave, len(created))
	}
	if len(created) == 0 {
		return nil, nil
	}

	if _, err := s.repo.AdvanceJobWave(ctx, jobID, wave); err != nil {
		return nil, err
	}
	if _, err := s.TransitionJob(ctx, jobID, domain.JobInviting, TransitionOpts{
		Actor:   actor,
		Message: fmt.Sprintf("invite wave %d sent to %d pilots", wave, len(created)),
	}); err != nil {
		return nil, err
	}

	offerIDs := make([]string, 0, len(created))
	for _, o := range created {
		offerIDs = append(offerIDs, o.ID.String())
	}
	var actorPtr *string
	if actor != "" {
		actorPtr = &actor
	}
	if err := s.repo.AppendTimelineEvent(ctx, repository.TimelineEventParams{
		JobID:    jobID,
		Kind:     fmt.Sprintf("invite_wave_%d", wave),
		Message:  fmt.Sprintf("wave %d: %d offers", wave, len(created)),
		Metadata: map[string]any{"offerIds": offerIDs, "radiusKm": s.cfg.RadiusForWave(wave)},
		Actor:    actorPtr,
	}); err != nil {
		return nil, err
	}

	// One batch call for the whole wave. Delivery is best-effort: the
	// offers are already durable, so failures are logged and swallowed.
	if s.notifier != nil {
		if _, err := s.notifier.SendBatch(ctx, created); err != nil && s.log != nil {
			s.log.NotifyFailure("offer_batch", err)
		}
	}

	if s.sweeper != nil {
		if err := s.sweeper.ScheduleOfferSweep(ctx, jobID, expiresAt); err != nil && s.log != nil {
			s.log.Error("failed to schedule offer sweep", "jobId", jobID, "error", err)
		}
	}

	if s.bus != nil {
		summaries := make([]events.OfferSummary, 0, len(created))
		for _, o := range created {
			summaries = append(summaries, events.OfferSummary{
				OfferID:   o.ID,
				JobID:     o.JobID,
				PilotID:   o.PilotID,
				Wave:      o.Wave,
				ExpiresAt: o.ExpiresAt,
			})
		}
		s.bus.Publish(ctx, events.OfferWaveSent{
			BaseEvent:  events.NewBaseEvent(),
			JobID:      jobID,
			PropertyID: job.PropertyID,
			Wave:       wave,
			Offers:     summaries,
		})
	}

	return created, nil
}

// InviteNextWave sends the wave after the job's current one.
func (s *Service) InviteNextWave(ctx context.Context, jobID uuid.UUID, actor string) ([]repository.JobOffer, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s.SendWave(ctx, jobID, job.InviteWave+1, actor)
}

// EnsureJob lazily creates the property's job. The boolean reports whether
// a job was created by this call. With autoInvite, waves are attempted in
// order until one yields offers; a fully dry run attaches a "no pilots
// available" alert instead of failing.
func (s *Service) EnsureJob(ctx context.Context, propertyID uuid.UUID, actor string, autoInvite bool) (repository.Job, bool, error) {
	if existing, err := s.repo.GetJobByProperty(ctx, propertyID); err == nil {
		return existing, false, nil
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return repository.Job{}, false, err
	}

	info, err := s.properties.GetDispatchInfo(ctx, propertyID)
	if err != nil {
		return repository.Job{}, false, err
	}

	job, err := s.repo.CreateJob(ctx, repository.CreateJobParams{
		PropertyID:         propertyID,
		PriceCents:         info.PlanPriceCents,
		PayoutCents:        info.PlanPayoutCents,
		VendorInstructions: info.AccessNotes,
	})
	if err != nil {
		// Lost a creation race: the job exists, reuse it.
		if apperr.Is(err, apperr.KindConflict) {
			existing, getErr := s.repo.GetJobByProperty(ctx, propertyID)
			if getErr != nil {
				return repository.Job{}, false, getErr
			}
			return existing, false, nil
		}
		return repository.Job{}, false, err
	}

	var actorPtr *string
	if actor != "" {
		actorPtr = &actor
	}
	if err := s.repo.AppendTimelineEvent(ctx, repository.TimelineEventParams{
		JobID:   job.ID,
		Kind:    string(domain.JobDraft),
		Message: "job created",
		Actor:   actorPtr,
	}); err != nil {
		return repository.Job{}, false, err
	}

	if autoInvite {
		invited := false
		for wave := 1; wave <= s.cfg.MaxWaves; wave++ {
			offers, err := s.SendWave(ctx, job.ID, wave, actor)
			if err != nil {
				return job, true, err
			}
			if len(offers) > 0 {
				invited = true
				break
			}
		}
		if !invited {
			s.raiseAlert(ctx, propertyID, AlertNoPilots, "no pilots available for this property")
		}
	}

	return job, true, nil
}
