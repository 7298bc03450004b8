package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"skyshot_backend/internal/properties/domain"
	"skyshot_backend/internal/properties/repository"
	"skyshot_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu         sync.Mutex
	properties map[uuid.UUID]repository.Property
	history    []repository.HistoryEntry
	alerts     map[uuid.UUID]repository.Alert
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		properties: make(map[uuid.UUID]repository.Property),
		alerts:     make(map[uuid.UUID]repository.Alert),
	}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	substate := domain.SubstateSubmitted
	p := repository.Property{
		ID:              uuid.New(),
		VendorID:        params.VendorID,
		AddressLine1:    params.AddressLine1,
		City:            params.City,
		PostalCode:      params.PostalCode,
		Country:         params.Country,
		Latitude:        params.Latitude,
		Longitude:       params.Longitude,
		PlanPriceCents:  params.PlanPriceCents,
		PlanPayoutCents: params.PlanPayoutCents,
		AccessNotes:     params.AccessNotes,
		Node:            domain.NodeFor(substate),
		Substate:        substate,
		Percent:         domain.PercentFor(substate),
		LastChangeAt:    now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.properties[p.ID] = p
	return p, nil
}

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID) (repository.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.properties[id]
	if !ok {
		return repository.Property{}, apperr.NotFound("property not found")
	}
	return p, nil
}

func (f *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Property, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Property
	for _, p := range f.properties {
		if params.VendorID != nil && p.VendorID != *params.VendorID {
			continue
		}
		if params.Node != nil && p.Node != *params.Node {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, params repository.UpdateParams) (repository.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.properties[id]
	if !ok {
		return repository.Property{}, apperr.NotFound("property not found")
	}
	if params.Latitude != nil {
		p.Latitude = params.Latitude
	}
	if params.Longitude != nil {
		p.Longitude = params.Longitude
	}
	f.properties[id] = p
	return p, nil
}

func (f *fakeRepo) SetWorkflowState(_ context.Context, id uuid.UUID, substate domain.Substate, changedAt time.Time) (repository.Property, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.properties[id]
	if !ok {
		return repository.Property{}, false, apperr.NotFound("property not found")
	}
	if p.Substate == domain.SubstateArchived {
		return repository.Property{}, false, nil
	}
	p.Substate = substate
	p.Node = domain.NodeFor(substate)
	p.Percent = domain.PercentFor(substate)
	p.LastChangeAt = changedAt
	f.properties[id] = p
	return p, true, nil
}

func (f *fakeRepo) AppendHistory(_ context.Context, params repository.HistoryParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, repository.HistoryEntry{
		ID:         uuid.New(),
		PropertyID: params.PropertyID,
		Substate:   params.Substate,
		Node:       domain.NodeFor(params.Substate),
		Percent:    domain.PercentFor(params.Substate),
		Actor:      params.Actor,
		Message:    params.Message,
		Metadata:   params.Metadata,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (f *fakeRepo) ListHistory(_ context.Context, propertyID uuid.UUID) ([]repository.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.HistoryEntry
	for _, e := range f.history {
		if e.PropertyID == propertyID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateAlert(_ context.Context, params repository.AlertParams) (repository.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := repository.Alert{
		ID:         uuid.New(),
		PropertyID: params.PropertyID,
		Kind:       params.Kind,
		Message:    params.Message,
		CreatedAt:  time.Now().UTC(),
	}
	f.alerts[a.ID] = a
	return a, nil
}

func (f *fakeRepo) ListAlerts(_ context.Context, propertyID uuid.UUID, includeResolved bool) ([]repository.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Alert
	for _, a := range f.alerts {
		if a.PropertyID != propertyID {
			continue
		}
		if !includeResolved && a.ResolvedAt != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRepo) ResolveAlert(_ context.Context, id uuid.UUID, resolvedAt time.Time) (repository.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	if !ok {
		return repository.Alert{}, apperr.NotFound("alert not found")
	}
	a.ResolvedAt = &resolvedAt
	f.alerts[id] = a
	return a, nil
}

var _ repository.PropertiesRepository = (*fakeRepo)(nil)

type fakeJobCreator struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
}

func (f *fakeJobCreator) EnsureJob(_ context.Context, propertyID uuid.UUID, _ string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, propertyID)
	return f.err
}

func ptr[T any](v T) *T { return &v }

func createProperty(t *testing.T, svc *Service) repository.Property {
	t.Helper()
	p, err := svc.Create(context.Background(), repository.CreateParams{
		VendorID:        uuid.New(),
		AddressLine1:    "Herengracht 1",
		City:            "Amsterdam",
		PostalCode:      "1015 BA",
		Country:         "NL",
		Latitude:        ptr(52.37),
		Longitude:       ptr(4.89),
		PlanPriceCents:  24900,
		PlanPayoutCents: 15000,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return p
}

func TestCreateStartsInReview(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil)

	p := createProperty(t, svc)
	if p.Node != domain.NodeReview || p.Substate != domain.SubstateSubmitted {
		t.Fatalf("new property must start in review/submitted, got %s/%s", p.Node, p.Substate)
	}
	if p.Percent != 5 {
		t.Fatalf("submitted means 5%%, got %d", p.Percent)
	}

	history, _ := svc.ListHistory(context.Background(), p.ID)
	if len(history) != 1 {
		t.Fatalf("creation must write one history row, got %d", len(history))
	}
}

func TestTransitionDerivesNodeAndPercent(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil)
	p := createProperty(t, svc)
	ctx := context.Background()

	steps := []struct {
		substate domain.Substate
		node     domain.Node
		percent  int
	}{
		{domain.SubstateUnderReview, domain.NodeReview, 10},
		{domain.SubstateApprovedForShoot, domain.NodeApproved, 15},
		{domain.SubstateShooting, domain.NodePilot, 40},
		{domain.SubstateQC, domain.NodePost, 60},
		{domain.SubstatePublished, domain.NodeLive, 100},
	}
	for _, step := range steps {
		if err := svc.TransitionTo(ctx, p.ID, step.substate, "admin", "", nil); err != nil {
			t.Fatalf("transition to %s failed: %v", step.substate, err)
		}
		got, _ := svc.Get(ctx, p.ID)
		if got.Node != step.node || got.Percent != step.percent {
			t.Fatalf("substate %s: expected %s/%d, got %s/%d",
				step.substate, step.node, step.percent, got.Node, got.Percent)
		}
	}

	history, _ := svc.ListHistory(ctx, p.ID)
	if len(history) != len(steps)+1 {
		t.Fatalf("expected %d history rows, got %d", len(steps)+1, len(history))
	}
}

func TestTransitionRejectsUnknownSubstate(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil)
	p := createProperty(t, svc)

	err := svc.TransitionTo(context.Background(), p.ID, domain.Substate("launched"), "admin", "", nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestArchivedPropertyIsFrozen(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil)
	p := createProperty(t, svc)
	ctx := context.Background()

	if err := svc.TransitionTo(ctx, p.ID, domain.SubstateArchived, "admin", "", nil); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	err := svc.TransitionTo(ctx, p.ID, domain.SubstateUnderReview, "admin", "", nil)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on archived property, got %v", err)
	}
}

func TestShootApprovalTriggersJobCreation(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil)
	jc := &fakeJobCreator{}
	svc.SetJobCreator(jc)
	p := createProperty(t, svc)

	if err := svc.TransitionTo(context.Background(), p.ID, domain.SubstateApprovedForShoot, "admin", "", nil); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if len(jc.calls) != 1 || jc.calls[0] != p.ID {
		t.Fatalf("expected one job creation call for %s, got %v", p.ID, jc.calls)
	}
}

func TestJobCreationFailureDegradesToAlert(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil)
	jc := &fakeJobCreator{err: errors.New("database unavailable")}
	svc.SetJobCreator(jc)
	p := createProperty(t, svc)
	ctx := context.Background()

	// The approval itself must still succeed.
	if err := svc.TransitionTo(ctx, p.ID, domain.SubstateApprovedForShoot, "admin", "", nil); err != nil {
		t.Fatalf("transition must not fail on job creation error: %v", err)
	}

	got, _ := svc.Get(ctx, p.ID)
	if got.Substate != domain.SubstateApprovedForShoot {
		t.Fatalf("approval must stick, got %s", got.Substate)
	}

	alerts, _ := svc.ListAlerts(ctx, p.ID, false)
	if len(alerts) != 1 || alerts[0].Kind != AlertJobCreationFailed {
		t.Fatalf("expected one %s alert, got %v", AlertJobCreationFailed, alerts)
	}
}

func TestOtherTransitionsDoNotTriggerJobCreation(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil)
	jc := &fakeJobCreator{}
	svc.SetJobCreator(jc)
	p := createProperty(t, svc)

	if err := svc.TransitionTo(context.Background(), p.ID, domain.SubstateUnderReview, "admin", "", nil); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if len(jc.calls) != 0 {
		t.Fatalf("under_review must not create a job, got %v", jc.calls)
	}
}

func TestResolveAlertClearsItFromOpenList(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil)
	p := createProperty(t, svc)
	ctx := context.Background()

	if err := svc.RaiseAlert(ctx, p.ID, "no_pilots_available", "nobody in range"); err != nil {
		t.Fatalf("RaiseAlert failed: %v", err)
	}
	alerts, _ := svc.ListAlerts(ctx, p.ID, false)
	if len(alerts) != 1 {
		t.Fatalf("expected one open alert, got %d", len(alerts))
	}

	resolved, err := svc.ResolveAlert(ctx, alerts[0].ID)
	if err != nil {
		t.Fatalf("ResolveAlert failed: %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Fatal("resolved alert must carry a resolution time")
	}

	open, _ := svc.ListAlerts(ctx, p.ID, false)
	if len(open) != 0 {
		t.Fatalf("resolved alert must not be listed as open, got %d", len(open))
	}
	all, _ := svc.ListAlerts(ctx, p.ID, true)
	if len(all) != 1 {
		t.Fatalf("resolved alert must remain queryable, got %d", len(all))
	}
}

func TestStatusBarReflectsPipelineProgress(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil)
	p := createProperty(t, svc)
	ctx := context.Background()

	if err := svc.TransitionTo(ctx, p.ID, domain.SubstateShooting, "admin", "", nil); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if err := svc.RaiseAlert(ctx, p.ID, "no_pilots_available", "first wave dry"); err != nil {
		t.Fatalf("RaiseAlert failed: %v", err)
	}

	bar, err := svc.GetStatusBar(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetStatusBar failed: %v", err)
	}
	if bar.Node != domain.NodePilot || bar.Substate != domain.SubstateShooting || bar.Percent != 40 {
		t.Fatalf("unexpected bar head: %s/%s/%d", bar.Node, bar.Substate, bar.Percent)
	}
	if bar.OpenAlerts != 1 {
		t.Fatalf("expected 1 open alert, got %d", bar.OpenAlerts)
	}
	if len(bar.Nodes) != len(domain.Nodes) {
		t.Fatalf("expected %d node states, got %d", len(domain.Nodes), len(bar.Nodes))
	}
	// review and approved are behind the pilot node, post and live ahead
	wantStates := []string{"done", "done", "active", "upcoming", "upcoming"}
	for i, want := range wantStates {
		if bar.Nodes[i].State != want {
			t.Fatalf("node %s: expected %s, got %s", bar.Nodes[i].Node, want, bar.Nodes[i].State)
		}
	}
}

func TestGetDispatchInfoCarriesPlanPricing(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil)
	p := createProperty(t, svc)

	info, err := svc.GetDispatchInfo(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetDispatchInfo failed: %v", err)
	}
	if info.PlanPriceCents != 24900 || info.PlanPayoutCents != 15000 {
		t.Fatalf("plan pricing wrong: %d/%d", info.PlanPriceCents, info.PlanPayoutCents)
	}
	if info.Latitude == nil || info.Longitude == nil {
		t.Fatal("coordinates must be carried through")
	}
}
