package service

import (
	"context"
	"fmt"
	"time"

	"skyshot_backend/internal/dispatch/domain"
	"skyshot_backend/internal/dispatch/repository"
	"skyshot_backend/internal/events"
	"skyshot_backend/platform/apperr"

	"github.com/google/uuid"
)

// AcceptOffer handles a pilot's acceptance. First responder wins: the
// accept is a single compare-and-set that claims both the offer and the
// job's assigned pilot, so two racing accepts cannot both succeed. Losers
// get a conflict, lapsed offers a gone.
func (s *Service) AcceptOffer(ctx context.Context, offerID, pilotID uuid.UUID) (repository.JobOffer, error) {
	offer, err := s.repo.GetOffer(ctx, offerID)
	if err != nil {
		return repository.JobOffer{}, err
	}
	if offer.PilotID != pilotID {
		return repository.JobOffer{}, apperr.Forbidden("offer belongs to another pilot")
	}

	now := time.Now().UTC()
	switch offer.Status {
	case domain.OfferPending:
		// fall through to the expiry check
	case domain.OfferAccepted:
		return offer, nil
	case domain.OfferExpired:
		return repository.JobOffer{}, apperr.Gone("offer has expired")
	default:
		return repository.JobOffer{}, apperr.Conflict("offer is no longer open")
	}

	if now.After(offer.ExpiresAt) {
		// The row lapsed before any sweep observed it. Resolve it now so
		// the stored status matches what the pilot was told.
		if resolved, ok, rerr := s.repo.ResolveOffer(ctx, offerID, domain.OfferExpired, now); rerr == nil && ok {
			offer = resolved
		}
		return repository.JobOffer{}, apperr.Gone("offer has expired")
	}

	accepted, ok, err := s.repo.AcceptOffer(ctx, offerID, now)
	if err != nil {
		return repository.JobOffer{}, err
	}
	if !ok {
		// Lost the race: another accept or a sweep got there first.
		return repository.JobOffer{}, apperr.Conflict("job has already been assigned")
	}

	// Close out every sibling still pending so no other pilot can act on
	// a job that already has a winner.
	if _, err := s.repo.ExpireOtherPending(ctx, accepted.JobID, accepted.ID, now); err != nil {
		return repository.JobOffer{}, err
	}

	actor := "pilot:" + pilotID.String()
	if _, err := s.TransitionJob(ctx, accepted.JobID, domain.JobAssigned, TransitionOpts{
		Actor:           actor,
		Message:         fmt.Sprintf("offer accepted on wave %d", accepted.Wave),
		AssignedPilotID: &pilotID,
	}); err != nil {
		return repository.JobOffer{}, err
	}

	if err := s.repo.AppendTimelineEvent(ctx, repository.TimelineEventParams{
		JobID:    accepted.JobID,
		Kind:     "offer_accepted",
		Message:  fmt.Sprintf("pilot accepted offer %s", accepted.ID),
		Metadata: map[string]any{"offerId": accepted.ID.String(), "wave": accepted.Wave},
		Actor:    &actor,
	}); err != nil {
		return repository.JobOffer{}, err
	}

	if s.log != nil {
		s.log.DispatchEvent("offer_accepted", accepted.JobID.String(), accepted.Wave, 1)
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.OfferAccepted{
			BaseEvent: events.NewBaseEvent(),
			OfferID:   accepted.ID,
			JobID:     accepted.JobID,
			PilotID:   pilotID,
			Wave:      accepted.Wave,
		})
	}

	return accepted, nil
}

// DeclineOffer records a pilot's explicit decline. A decline of a
// non-pending offer is a conflict so clients learn the offer has already
// settled. When the decline drains the job's last pending offer the next
// wave goes out immediately instead of waiting for the expiry sweep.
func (s *Service) DeclineOffer(ctx context.Context, offerID, pilotID uuid.UUID) (repository.JobOffer, error) {
	offer, err := s.repo.GetOffer(ctx, offerID)
	if err != nil {
		return repository.JobOffer{}, err
	}
	if offer.PilotID != pilotID {
		return repository.JobOffer{}, apperr.Forbidden("offer belongs to another pilot")
	}

	now := time.Now().UTC()
	if offer.Status == domain.OfferPending && now.After(offer.ExpiresAt) {
		// Full sweep, not just this row: a decline observed after the
		// deadline must still escalate when it was the last offer out.
		if _, serr := s.ExpirePendingOffers(ctx, offer.JobID, true); serr != nil {
			return repository.JobOffer{}, serr
		}
		return repository.JobOffer{}, apperr.Gone("offer has expired")
	}

	declined, ok, err := s.repo.ResolveOffer(ctx, offerID, domain.OfferDeclined, now)
	if err != nil {
		return repository.JobOffer{}, err
	}
	if !ok {
		return repository.JobOffer{}, apperr.Conflict("offer is no longer open")
	}

	actor := "pilot:" + pilotID.String()
	if err := s.repo.AppendTimelineEvent(ctx, repository.TimelineEventParams{
		JobID:    declined.JobID,
		Kind:     "offer_declined",
		Message:  fmt.Sprintf("pilot declined offer %s", declined.ID),
		Metadata: map[string]any{"offerId": declined.ID.String(), "wave": declined.Wave},
		Actor:    &actor,
	}); err != nil {
		return repository.JobOffer{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.OfferDeclined{
			BaseEvent: events.NewBaseEvent(),
			OfferID:   declined.ID,
			JobID:     declined.JobID,
			PilotID:   pilotID,
		})
	}

	pending, err := s.repo.CountPendingOffers(ctx, declined.JobID)
	if err != nil {
		return repository.JobOffer{}, err
	}
	if pending == 0 {
		if err := s.escalate(ctx, declined.JobID, actor); err != nil {
			return repository.JobOffer{}, err
		}
	}

	return declined, nil
}

// ExpirePendingOffers sweeps the job's overdue pending offers. It is
// idempotent: a second sweep over the same window finds nothing. With
// auto set, a sweep that actually expired something also escalates,
// which is how offers observed after their deadline move the job
// forward without a ticking clock.
func (s *Service) ExpirePendingOffers(ctx context.Context, jobID uuid.UUID, auto bool) ([]repository.JobOffer, error) {
	now := time.Now().UTC()
	expired, err := s.repo.ExpireOverduePending(ctx, jobID, now)
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(expired))
	for _, o := range expired {
		ids = append(ids, o.ID.String())
	}
	if err := s.repo.AppendTimelineEvent(ctx, repository.TimelineEventParams{
		JobID:    jobID,
		Kind:     "offers_expired",
		Message:  fmt.Sprintf("%d offers expired", len(expired)),
		Metadata: map[string]any{"offerIds": ids},
	}); err != nil {
		return nil, err
	}
	if s.log != nil {
		s.log.DispatchEvent("offers_expired", jobID.String(), 0, len(expired))
	}

	if auto {
		pending, err := s.repo.CountPendingOffers(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if pending == 0 {
			if err := s.escalate(ctx, jobID, "system"); err != nil {
				return nil, err
			}
		}
	}

	return expired, nil
}

// escalate sends the next wave for a job with no offers left standing, or
// raises an alert when the ladder is exhausted or the wave comes back dry.
// Jobs already assigned or otherwise terminal are left alone.
func (s *Service) escalate(ctx context.Context, jobID uuid.UUID, actor string) error {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != domain.JobInviting {
		return nil
	}

	// A dry wave leaves nothing pending that could trigger a later
	// sweep, so keep climbing until a wave lands or the ladder runs out.
	for wave := job.InviteWave + 1; wave <= s.cfg.MaxWaves; wave++ {
		offers, err := s.SendWave(ctx, jobID, wave, actor)
		if err != nil {
			return err
		}
		if len(offers) > 0 {
			return nil
		}
	}

	s.raiseAlert(ctx, job.PropertyID, AlertEscalationExhausted,
		fmt.Sprintf("all %d invite waves exhausted without acceptance", s.cfg.MaxWaves))
	return nil
}
