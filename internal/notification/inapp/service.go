package inapp

import (
	"context"
	"fmt"

	dispatchrepo "skyshot_backend/internal/dispatch/repository"
	"skyshot_backend/internal/events"
	"skyshot_backend/internal/notification/sse"
	"skyshot_backend/platform/logger"

	"github.com/google/uuid"
)

// Store persists in-app notifications.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
}

// Pusher is the live delivery channel.
type Pusher interface {
	Publish(userID uuid.UUID, event sse.Event)
}

const (
	categoryOffer = "offer"
	categoryJob   = "job"

	resourceTypeOffer = "job_offer"
	resourceTypeJob   = "job"
)

// Service fans domain events out to the in-app store and SSE channel.
type Service struct {
	store Store
	push  Pusher
	log   *logger.Logger
}

// NewService creates the notification service.
func NewService(store Store, push Pusher, log *logger.Logger) *Service {
	return &Service{store: store, push: push, log: log}
}

// SendBatch notifies every pilot in a freshly created offer wave. It
// returns the number of deliveries that reached the in-app store; partial
// failure is fine, the caller only logs it.
func (s *Service) SendBatch(ctx context.Context, offers []dispatchrepo.JobOffer) (int, error) {
	var delivered int
	var firstErr error
	for _, offer := range offers {
		if err := s.notifyOffer(ctx, offer); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delivered++
	}
	return delivered, firstErr
}

func (s *Service) notifyOffer(ctx context.Context, offer dispatchrepo.JobOffer) error {
	offerID := offer.ID
	resourceType := resourceTypeOffer
	_, err := s.store.Create(ctx, CreateParams{
		UserID:       offer.PilotID,
		Title:        "New shoot offer",
		Content:      fmt.Sprintf("A shoot %.1f km away is available. Respond before %s.", offer.DistanceKm, offer.ExpiresAt.Format("15:04 MST")),
		ResourceID:   &offerID,
		ResourceType: &resourceType,
		Category:     categoryOffer,
	})
	if err != nil {
		return err
	}

	if s.push != nil {
		s.push.Publish(offer.PilotID, sse.Event{
			Type: sse.EventOfferReceived,
			Data: map[string]any{
				"offerId":    offer.ID,
				"jobId":      offer.JobID,
				"distanceKm": offer.DistanceKm,
				"expiresAt":  offer.ExpiresAt,
			},
		})
	}
	return nil
}

// List returns a user's notification feed.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	return s.store.List(ctx, userID, limit, offset)
}

// CountUnread returns the unread badge count.
func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) (Notification, error) {
	return s.store.MarkRead(ctx, id, userID)
}

// MarkAllRead marks the whole feed as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.MarkAllRead(ctx, userID)
}

// RegisterHandlers subscribes to the domain events that fan out to users.
func (s *Service) RegisterHandlers(bus events.Bus) {
	bus.Subscribe("dispatch.offer.accepted", events.HandlerFunc(s.onOfferAccepted))
	bus.Subscribe("dispatch.job.status_changed", events.HandlerFunc(s.onJobStatusChanged))
}

func (s *Service) onOfferAccepted(ctx context.Context, e events.Event) error {
	accepted, ok := e.(events.OfferAccepted)
	if !ok {
		return nil
	}

	jobID := accepted.JobID
	resourceType := resourceTypeJob
	_, err := s.store.Create(ctx, CreateParams{
		UserID:       accepted.PilotID,
		Title:        "Shoot confirmed",
		Content:      "You won the job. Coordinate the shoot window with the vendor.",
		ResourceID:   &jobID,
		ResourceType: &resourceType,
		Category:     categoryJob,
	})
	if err != nil {
		if s.log != nil {
			s.log.NotifyFailure("inapp", err)
		}
		return err
	}

	if s.push != nil {
		s.push.Publish(accepted.PilotID, sse.Event{
			Type: sse.EventJobAssigned,
			Data: map[string]any{"jobId": accepted.JobID, "offerId": accepted.OfferID},
		})
	}
	return nil
}

func (s *Service) onJobStatusChanged(ctx context.Context, e events.Event) error {
	changed, ok := e.(events.JobStatusChanged)
	if !ok || changed.PilotID == nil {
		return nil
	}

	// Live-only update; the feed would drown in row-per-transition noise.
	if s.push != nil {
		s.push.Publish(*changed.PilotID, sse.Event{
			Type: sse.EventJobStatusChanged,
			Data: map[string]any{"jobId": changed.JobID, "from": changed.From, "to": changed.To},
		})
	}
	return nil
}
