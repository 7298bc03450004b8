package repository

import (
	"context"
	"time"

	"skyshot_backend/internal/properties/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// PropertyReader provides read-only access to properties.
type PropertyReader interface {
	Get(ctx context.Context, id uuid.UUID) (Property, error)
	List(ctx context.Context, params ListParams) ([]Property, int, error)
}

// PropertyWriter provides write operations for properties.
type PropertyWriter interface {
	Create(ctx context.Context, params CreateParams) (Property, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Property, error)
	// SetWorkflowState moves a property to a new substate with its
	// derived node and percent. The boolean is false when the property
	// was already archived.
	SetWorkflowState(ctx context.Context, id uuid.UUID, substate domain.Substate, changedAt time.Time) (Property, bool, error)
}

// HistoryWriter appends to a property's workflow audit trail.
type HistoryWriter interface {
	AppendHistory(ctx context.Context, params HistoryParams) error
	ListHistory(ctx context.Context, propertyID uuid.UUID) ([]HistoryEntry, error)
}

// AlertStore manages the degraded-outcome alerts attached to properties.
type AlertStore interface {
	CreateAlert(ctx context.Context, params AlertParams) (Alert, error)
	ListAlerts(ctx context.Context, propertyID uuid.UUID, includeResolved bool) ([]Alert, error)
	ResolveAlert(ctx context.Context, id uuid.UUID, resolvedAt time.Time) (Alert, error)
}

// PropertiesRepository is the full repository contract the properties
// service depends on. Tests substitute an in-memory fake.
type PropertiesRepository interface {
	PropertyReader
	PropertyWriter
	HistoryWriter
	AlertStore
}
