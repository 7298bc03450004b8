// Package service implements the dispatch core: wave orchestration, the
// offer lifecycle, and the job state machine with its property mirror.
package service

import (
	"context"
	"time"

	"skyshot_backend/internal/dispatch/matching"
	"skyshot_backend/internal/dispatch/repository"
	"skyshot_backend/internal/events"
	workflow "skyshot_backend/internal/properties/domain"
	"skyshot_backend/platform/logger"

	"github.com/google/uuid"
)

// PropertyWorkflow mirrors job transitions onto the property's publication
// pipeline. Implemented by the properties service and injected through the
// constructor to break the module cycle.
type PropertyWorkflow interface {
	TransitionTo(ctx context.Context, propertyID uuid.UUID, substate workflow.Substate, actor, message string, metadata map[string]any) error
}

// PropertyInfo is the slice of a property the dispatch core reads.
type PropertyInfo struct {
	ID              uuid.UUID
	Latitude        *float64
	Longitude       *float64
	PlanPriceCents  int64
	PlanPayoutCents int64
	AccessNotes     *string
}

// PropertyReader resolves dispatch-relevant property attributes.
type PropertyReader interface {
	GetDispatchInfo(ctx context.Context, propertyID uuid.UUID) (PropertyInfo, error)
}

// AlertSink attaches a persistent, queryable alert to a property. Degraded
// outcomes (no pilots, exhausted escalation) surface here instead of as
// errors.
type AlertSink interface {
	RaiseAlert(ctx context.Context, propertyID uuid.UUID, kind, message string) error
}

// Notifier broadcasts a freshly created wave of offers to its pilots.
// Delivery is best-effort: failures are logged by the caller and never
// propagate.
type Notifier interface {
	SendBatch(ctx context.Context, offers []repository.JobOffer) (int, error)
}

// SweepScheduler books a future expiry sweep for a job. Optional: when nil
// the lazy, observation-triggered sweep paths remain the only mechanism.
type SweepScheduler interface {
	ScheduleOfferSweep(ctx context.Context, jobID uuid.UUID, runAt time.Time) error
}

// Service is the dispatch core service.
type Service struct {
	repo       repository.DispatchRepository
	engine     *matching.Engine
	cfg        matching.Config
	properties PropertyReader
	workflow   PropertyWorkflow
	alerts     AlertSink
	notifier   Notifier
	sweeper    SweepScheduler
	bus        events.Bus
	log        *logger.Logger
}

// New creates the dispatch service. notifier and sweeper may be nil.
func New(
	repo repository.DispatchRepository,
	engine *matching.Engine,
	properties PropertyReader,
	wf PropertyWorkflow,
	alerts AlertSink,
	notifier Notifier,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		engine:     engine,
		cfg:        engine.Config(),
		properties: properties,
		workflow:   wf,
		alerts:     alerts,
		notifier:   notifier,
		bus:        bus,
		log:        log,
	}
}

// SetSweepScheduler injects the optional background sweep scheduler after
// module initialization.
func (s *Service) SetSweepScheduler(sweeper SweepScheduler) {
	s.sweeper = sweeper
}

// Config exposes the immutable dispatch configuration.
func (s *Service) Config() matching.Config {
	return s.cfg
}

const (
	// AlertNoPilots marks a job for which no wave produced any offer.
	AlertNoPilots = "no_pilots_available"
	// AlertEscalationExhausted marks a job whose final wave elapsed
	// without a response.
	AlertEscalationExhausted = "escalation_exhausted"
)

func (s *Service) raiseAlert(ctx context.Context, propertyID uuid.UUID, kind, message string) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.RaiseAlert(ctx, propertyID, kind, message); err != nil && s.log != nil {
		s.log.Error("failed to raise property alert", "propertyId", propertyID, "kind", kind, "error", err)
	}
}
