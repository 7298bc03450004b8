package inapp

import (
	"context"
	"errors"
	"testing"
	"time"

	dispatchrepo "skyshot_backend/internal/dispatch/repository"
	"skyshot_backend/internal/events"
	"skyshot_backend/internal/notification/sse"

	"github.com/google/uuid"
)

type fakeStore struct {
	created []CreateParams
	fail    map[uuid.UUID]bool
}

func (f *fakeStore) Create(_ context.Context, p CreateParams) (Notification, error) {
	if f.fail[p.UserID] {
		return Notification{}, errors.New("store down")
	}
	f.created = append(f.created, p)
	return Notification{ID: uuid.New(), UserID: p.UserID, Title: p.Title}, nil
}

func (f *fakeStore) List(context.Context, uuid.UUID, int, int) ([]Notification, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) CountUnread(context.Context, uuid.UUID) (int, error) { return 0, nil }

func (f *fakeStore) MarkRead(context.Context, uuid.UUID, uuid.UUID) (Notification, error) {
	return Notification{}, nil
}

func (f *fakeStore) MarkAllRead(context.Context, uuid.UUID) (int, error) { return 0, nil }

type fakePusher struct {
	published []sse.Event
	users     []uuid.UUID
}

func (f *fakePusher) Publish(userID uuid.UUID, event sse.Event) {
	f.users = append(f.users, userID)
	f.published = append(f.published, event)
}

func offerFor(pilotID uuid.UUID) dispatchrepo.JobOffer {
	return dispatchrepo.JobOffer{
		ID:        uuid.New(),
		JobID:     uuid.New(),
		PilotID:   pilotID,
		Wave:      1,
		ExpiresAt: time.Now().Add(20 * time.Second),
	}
}

func TestSendBatchDeliversToEveryPilot(t *testing.T) {
	store := &fakeStore{}
	push := &fakePusher{}
	svc := NewService(store, push, nil)

	a, b := uuid.New(), uuid.New()
	delivered, err := svc.SendBatch(context.Background(), []dispatchrepo.JobOffer{offerFor(a), offerFor(b)})
	if err != nil {
		t.Fatalf("send batch: %v", err)
	}
	if delivered != 2 {
		t.Fatalf("delivered = %d, want 2", delivered)
	}
	if len(store.created) != 2 {
		t.Fatalf("in-app rows = %d, want 2", len(store.created))
	}
	if len(push.published) != 2 || push.published[0].Type != sse.EventOfferReceived {
		t.Fatalf("push events = %v, want two offer_received", push.published)
	}
}

func TestSendBatchSurvivesPartialFailure(t *testing.T) {
	broken := uuid.New()
	store := &fakeStore{fail: map[uuid.UUID]bool{broken: true}}
	svc := NewService(store, &fakePusher{}, nil)

	healthy := uuid.New()
	delivered, err := svc.SendBatch(context.Background(), []dispatchrepo.JobOffer{offerFor(broken), offerFor(healthy)})
	if err == nil {
		t.Fatal("want the first failure reported")
	}
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}
}

func TestOfferAcceptedNotifiesTheWinner(t *testing.T) {
	store := &fakeStore{}
	push := &fakePusher{}
	svc := NewService(store, push, nil)

	pilotID := uuid.New()
	err := svc.onOfferAccepted(context.Background(), events.OfferAccepted{
		BaseEvent: events.NewBaseEvent(),
		OfferID:   uuid.New(),
		JobID:     uuid.New(),
		PilotID:   pilotID,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.created) != 1 || store.created[0].UserID != pilotID {
		t.Fatalf("created = %v, want one row for the winner", store.created)
	}
	if len(push.published) != 1 || push.published[0].Type != sse.EventJobAssigned {
		t.Fatalf("push = %v, want job_assigned", push.published)
	}
}

func TestJobStatusChangeIsPushOnly(t *testing.T) {
	store := &fakeStore{}
	push := &fakePusher{}
	svc := NewService(store, push, nil)

	pilotID := uuid.New()
	err := svc.onJobStatusChanged(context.Background(), events.JobStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		JobID:     uuid.New(),
		From:      "assigned",
		To:        "scheduled",
		PilotID:   &pilotID,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.created) != 0 {
		t.Fatal("status changes must not write feed rows")
	}
	if len(push.published) != 1 || push.users[0] != pilotID {
		t.Fatalf("push = %v, want one event for the assigned pilot", push.published)
	}
}
