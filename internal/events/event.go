// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"skyshot_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Dispatch Domain Events
// =============================================================================

// OfferSummary is the slice of an offer carried on events; consumers
// (notifications) never need the full row.
type OfferSummary struct {
	OfferID   uuid.UUID `json:"offerId"`
	JobID     uuid.UUID `json:"jobId"`
	PilotID   uuid.UUID `json:"pilotId"`
	Wave      int       `json:"wave"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// OfferWaveSent is published after a wave of offers has been persisted.
type OfferWaveSent struct {
	BaseEvent
	JobID      uuid.UUID      `json:"jobId"`
	PropertyID uuid.UUID      `json:"propertyId"`
	Wave       int            `json:"wave"`
	Offers     []OfferSummary `json:"offers"`
}

func (e OfferWaveSent) EventName() string { return "dispatch.offer_wave.sent" }

// OfferAccepted is published when a pilot wins a job.
type OfferAccepted struct {
	BaseEvent
	OfferID uuid.UUID `json:"offerId"`
	JobID   uuid.UUID `json:"jobId"`
	PilotID uuid.UUID `json:"pilotId"`
	Wave    int       `json:"wave"`
}

func (e OfferAccepted) EventName() string { return "dispatch.offer.accepted" }

// OfferDeclined is published when a pilot explicitly declines an offer.
type OfferDeclined struct {
	BaseEvent
	OfferID uuid.UUID `json:"offerId"`
	JobID   uuid.UUID `json:"jobId"`
	PilotID uuid.UUID `json:"pilotId"`
}

func (e OfferDeclined) EventName() string { return "dispatch.offer.declined" }

// JobStatusChanged is published after every job status transition.
// PilotID is set once the job has an assigned pilot.
type JobStatusChanged struct {
	BaseEvent
	JobID      uuid.UUID  `json:"jobId"`
	PropertyID uuid.UUID  `json:"propertyId"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	PilotID    *uuid.UUID `json:"pilotId,omitempty"`
	Actor      string     `json:"actor,omitempty"`
}

func (e JobStatusChanged) EventName() string { return "dispatch.job.status_changed" }

// =============================================================================
// Property Domain Events
// =============================================================================

// PropertyStageChanged is published after every workflow substate change.
type PropertyStageChanged struct {
	BaseEvent
	PropertyID uuid.UUID `json:"propertyId"`
	Node       string    `json:"node"`
	Substate   string    `json:"substate"`
	Percent    int       `json:"percent"`
	Actor      string    `json:"actor,omitempty"`
}

func (e PropertyStageChanged) EventName() string { return "properties.stage.changed" }

// PropertyAlertRaised is published when a degraded-but-successful outcome
// (no pilots, escalation exhausted, job creation failure) is attached to a
// property for manual follow-up.
type PropertyAlertRaised struct {
	BaseEvent
	PropertyID uuid.UUID `json:"propertyId"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
}

func (e PropertyAlertRaised) EventName() string { return "properties.alert.raised" }

// =============================================================================
// Pilot Domain Events
// =============================================================================

// PilotApprovalChanged is published when an admin changes a pilot's
// approval status.
type PilotApprovalChanged struct {
	BaseEvent
	PilotID uuid.UUID `json:"pilotId"`
	Status  string    `json:"status"`
}

func (e PilotApprovalChanged) EventName() string { return "pilots.approval.changed" }
