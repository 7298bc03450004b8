// Package service implements the properties workflow: listing CRUD, the
// publication state machine, and degraded-outcome alerts.
package service

import (
	"context"
	"time"

	"skyshot_backend/internal/events"
	"skyshot_backend/internal/properties/domain"
	"skyshot_backend/internal/properties/repository"
	"skyshot_backend/platform/apperr"
	"skyshot_backend/platform/logger"

	"github.com/google/uuid"
)

// AlertJobCreationFailed marks a property whose lazy job creation failed
// after shoot approval.
const AlertJobCreationFailed = "job_creation_failed"

// JobCreator lazily creates the recording job for a property that has
// been approved for a shoot. Injected through a setter because the
// dispatch module is constructed after the properties module.
type JobCreator interface {
	EnsureJob(ctx context.Context, propertyID uuid.UUID, actor string, autoInvite bool) error
}

// Service is the properties service.
type Service struct {
	repo       repository.PropertiesRepository
	bus        events.Bus
	log        *logger.Logger
	jobCreator JobCreator
}

// New creates the properties service.
func New(repo repository.PropertiesRepository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetJobCreator injects the dispatch-side job creation port after module
// initialization (breaks the circular dependency between contexts).
func (s *Service) SetJobCreator(jc JobCreator) {
	s.jobCreator = jc
}

// Create registers a new property in the review stage.
func (s *Service) Create(ctx context.Context, params repository.CreateParams) (repository.Property, error) {
	property, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Property{}, err
	}

	if err := s.repo.AppendHistory(ctx, repository.HistoryParams{
		PropertyID: property.ID,
		Substate:   property.Substate,
		Message:    "property submitted",
	}); err != nil {
		return repository.Property{}, err
	}

	return property, nil
}

// Get retrieves a property.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Property, error) {
	return s.repo.Get(ctx, id)
}

// List returns properties matching the filter.
func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.Property, int, error) {
	return s.repo.List(ctx, params)
}

// Update patches the mutable listing fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params repository.UpdateParams) (repository.Property, error) {
	return s.repo.Update(ctx, id, params)
}

// TransitionTo moves a property to a new workflow substate, records the
// audit row, and kicks off job creation when the property is approved
// for a shoot. Unknown substates are rejected; archived properties are
// frozen.
func (s *Service) TransitionTo(ctx context.Context, propertyID uuid.UUID, substate domain.Substate, actor, message string, metadata map[string]any) error {
	if !domain.IsKnown(substate) {
		return apperr.Validation("unknown workflow substate: " + string(substate))
	}

	now := time.Now().UTC()
	property, ok, err := s.repo.SetWorkflowState(ctx, propertyID, substate, now)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("property is archived")
	}

	var actorPtr *string
	if actor != "" {
		actorPtr = &actor
	}
	if err := s.repo.AppendHistory(ctx, repository.HistoryParams{
		PropertyID: propertyID,
		Substate:   substate,
		Actor:      actorPtr,
		Message:    message,
		Metadata:   metadata,
	}); err != nil {
		return err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.PropertyStageChanged{
			BaseEvent:  events.NewBaseEvent(),
			PropertyID: propertyID,
			Node:       string(property.Node),
			Substate:   string(substate),
			Percent:    property.Percent,
			Actor:      actor,
		})
	}

	if substate == domain.SubstateApprovedForShoot {
		s.ensureJob(ctx, propertyID, actor)
	}

	return nil
}

// ensureJob triggers lazy job creation. A failure here must not roll the
// approval back, so it degrades to an alert.
func (s *Service) ensureJob(ctx context.Context, propertyID uuid.UUID, actor string) {
	if s.jobCreator == nil {
		return
	}
	if err := s.jobCreator.EnsureJob(ctx, propertyID, actor, true); err != nil {
		if s.log != nil {
			s.log.Error("job creation failed after shoot approval", "propertyId", propertyID, "error", err)
		}
		if raiseErr := s.RaiseAlert(ctx, propertyID, AlertJobCreationFailed, "failed to create recording job: "+err.Error()); raiseErr != nil && s.log != nil {
			s.log.Error("failed to raise property alert", "propertyId", propertyID, "error", raiseErr)
		}
	}
}

// RaiseAlert attaches a degraded-outcome alert to the property and
// publishes it for operator tooling.
func (s *Service) RaiseAlert(ctx context.Context, propertyID uuid.UUID, kind, message string) error {
	alert, err := s.repo.CreateAlert(ctx, repository.AlertParams{
		PropertyID: propertyID,
		Kind:       kind,
		Message:    message,
	})
	if err != nil {
		return err
	}

	if s.log != nil {
		s.log.Warn("property alert raised", "propertyId", propertyID, "kind", kind)
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.PropertyAlertRaised{
			BaseEvent:  events.NewBaseEvent(),
			PropertyID: alert.PropertyID,
			Kind:       alert.Kind,
			Message:    alert.Message,
		})
	}
	return nil
}

// ListAlerts returns the property's alerts.
func (s *Service) ListAlerts(ctx context.Context, propertyID uuid.UUID, includeResolved bool) ([]repository.Alert, error) {
	return s.repo.ListAlerts(ctx, propertyID, includeResolved)
}

// ResolveAlert marks an alert as handled.
func (s *Service) ResolveAlert(ctx context.Context, id uuid.UUID) (repository.Alert, error) {
	return s.repo.ResolveAlert(ctx, id, time.Now().UTC())
}

// ListHistory returns the property's workflow audit trail.
func (s *Service) ListHistory(ctx context.Context, propertyID uuid.UUID) ([]repository.HistoryEntry, error) {
	return s.repo.ListHistory(ctx, propertyID)
}

// DispatchInfo is the slice of a property the dispatch context reads when
// creating and pricing a job.
type DispatchInfo struct {
	ID              uuid.UUID
	Latitude        *float64
	Longitude       *float64
	PlanPriceCents  int64
	PlanPayoutCents int64
	AccessNotes     *string
}

// GetDispatchInfo resolves the dispatch-relevant attributes of a property.
func (s *Service) GetDispatchInfo(ctx context.Context, propertyID uuid.UUID) (DispatchInfo, error) {
	p, err := s.repo.Get(ctx, propertyID)
	if err != nil {
		return DispatchInfo{}, err
	}
	return DispatchInfo{
		ID:              p.ID,
		Latitude:        p.Latitude,
		Longitude:       p.Longitude,
		PlanPriceCents:  p.PlanPriceCents,
		PlanPayoutCents: p.PlanPayoutCents,
		AccessNotes:     p.AccessNotes,
	}, nil
}

// NodeState summarizes one pipeline node for the status bar.
type NodeState struct {
	Node    domain.Node `json:"node"`
	State   string      `json:"state"` // done, active, or upcoming
	Percent int         `json:"percent"`
}

// StatusBar is the progress view rendered on property pages: the current
// substate with per-node completion and any open alerts.
type StatusBar struct {
	Node       domain.Node     `json:"node"`
	Substate   domain.Substate `json:"substate"`
	Percent    int             `json:"percent"`
	Nodes      []NodeState     `json:"nodes"`
	OpenAlerts int             `json:"openAlerts"`
}

// GetStatusBar computes the property's progress view.
func (s *Service) GetStatusBar(ctx context.Context, propertyID uuid.UUID) (StatusBar, error) {
	p, err := s.repo.Get(ctx, propertyID)
	if err != nil {
		return StatusBar{}, err
	}
	alerts, err := s.repo.ListAlerts(ctx, propertyID, false)
	if err != nil {
		return StatusBar{}, err
	}

	currentIdx := nodeIndex(p.Node)
	nodes := make([]NodeState, 0, len(domain.Nodes))
	for i, node := range domain.Nodes {
		state := "upcoming"
		percent := 0
		switch {
		case i < currentIdx:
			state = "done"
			percent = 100
		case i == currentIdx:
			state = "active"
			percent = p.Percent
		}
		nodes = append(nodes, NodeState{Node: node, State: state, Percent: percent})
	}

	return StatusBar{
		Node:       p.Node,
		Substate:   p.Substate,
		Percent:    p.Percent,
		Nodes:      nodes,
		OpenAlerts: len(alerts),
	}, nil
}

func nodeIndex(node domain.Node) int {
	for i, n := range domain.Nodes {
		if n == node {
			return i
		}
	}
	return 0
}
