// Package repository provides database operations for properties, their
// workflow history, and alerts.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skyshot_backend/internal/properties/domain"
	"skyshot_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const propertyNotFoundMsg = "property not found"

// Repository provides database operations for the properties context.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new properties repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Property is a vendor listing moving through the publication workflow.
type Property struct {
	ID              uuid.UUID
	VendorID        uuid.UUID
	AddressLine1    string
	City            string
	PostalCode      string
	Country         string
	Latitude        *float64
	Longitude       *float64
	PlanPriceCents  int64
	PlanPayoutCents int64
	AccessNotes     *string
	Node            domain.Node
	Substate        domain.Substate
	Percent         int
	LastChangeAt    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HistoryEntry is one append-only workflow audit row.
type HistoryEntry struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	Substate   domain.Substate
	Node       domain.Node
	Percent    int
	Actor      *string
	Message    string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Alert is a degraded-outcome flag attached to a property for manual
// follow-up.
type Alert struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	Kind       string
	Message    string
	ResolvedAt *time.Time
	CreatedAt  time.Time
}

// CreateParams carries data for property creation.
type CreateParams struct {
	VendorID        uuid.UUID
	AddressLine1    string
	City            string
	PostalCode      string
	Country         string
	Latitude        *float64
	Longitude       *float64
	PlanPriceCents  int64
	PlanPayoutCents int64
	AccessNotes     *string
}

// UpdateParams carries the optional fields of a property update.
type UpdateParams struct {
	AddressLine1    *string
	City            *string
	PostalCode      *string
	Country         *string
	Latitude        *float64
	Longitude       *float64
	PlanPriceCents  *int64
	PlanPayoutCents *int64
	AccessNotes     *string
}

// ListParams filters the property list.
type ListParams struct {
	VendorID *uuid.UUID
	Node     *domain.Node
	Limit    int
	Offset   int
}

// HistoryParams carries data for one workflow audit row.
type HistoryParams struct {
	PropertyID uuid.UUID
	Substate   domain.Substate
	Actor      *string
	Message    string
	Metadata   map[string]any
}

// AlertParams carries data for alert creation.
type AlertParams struct {
	PropertyID uuid.UUID
	Kind       string
	Message    string
}

const propertyColumns = `
	id, vendor_id, address_line1, city, postal_code, country,
	latitude, longitude, plan_price_cents, plan_payout_cents, access_notes,
	node, substate, percent, last_change_at, created_at, updated_at`

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	err := row.Scan(
		&p.ID, &p.VendorID, &p.AddressLine1, &p.City, &p.PostalCode, &p.Country,
		&p.Latitude, &p.Longitude, &p.PlanPriceCents, &p.PlanPayoutCents, &p.AccessNotes,
		&p.Node, &p.Substate, &p.Percent, &p.LastChangeAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// Create inserts a property in the initial review stage.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Property, error) {
	substate := domain.SubstateSubmitted
	row := r.pool.QueryRow(ctx, `
		INSERT INTO properties (
			vendor_id, address_line1, city, postal_code, country,
			latitude, longitude, plan_price_cents, plan_payout_cents, access_notes,
			node, substate, percent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING`+propertyColumns,
		params.VendorID, params.AddressLine1, params.City, params.PostalCode, params.Country,
		params.Latitude, params.Longitude, params.PlanPriceCents, params.PlanPayoutCents, params.AccessNotes,
		domain.NodeFor(substate), substate, domain.PercentFor(substate),
	)
	p, err := scanProperty(row)
	if err != nil {
		return Property{}, fmt.Errorf("create property: %w", err)
	}
	return p, nil
}

// Get retrieves a property by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Property, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+propertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, apperr.NotFound(propertyNotFoundMsg)
	}
	if err != nil {
		return Property{}, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

// List returns properties matching the filter plus the unpaged total.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Property, int, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	where := "TRUE"
	args := []any{}
	if params.VendorID != nil {
		args = append(args, *params.VendorID)
		where += fmt.Sprintf(" AND vendor_id = $%d", len(args))
	}
	if params.Node != nil {
		args = append(args, *params.Node)
		where += fmt.Sprintf(" AND node = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count properties: %w", err)
	}

	args = append(args, limit, params.Offset)
	rows, err := r.pool.Query(ctx, `
		SELECT`+propertyColumns+` FROM properties
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Update patches the mutable listing fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Property, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE properties SET
			address_line1 = COALESCE($2, address_line1),
			city = COALESCE($3, city),
			postal_code = COALESCE($4, postal_code),
			country = COALESCE($5, country),
			latitude = COALESCE($6, latitude),
			longitude = COALESCE($7, longitude),
			plan_price_cents = COALESCE($8, plan_price_cents),
			plan_payout_cents = COALESCE($9, plan_payout_cents),
			access_notes = COALESCE($10, access_notes),
			updated_at = now()
		WHERE id = $1
		RETURNING`+propertyColumns,
		id, params.AddressLine1, params.City, params.PostalCode, params.Country,
		params.Latitude, params.Longitude, params.PlanPriceCents, params.PlanPayoutCents, params.AccessNotes,
	)
	p, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, apperr.NotFound(propertyNotFoundMsg)
	}
	if err != nil {
		return Property{}, fmt.Errorf("update property: %w", err)
	}
	return p, nil
}

// SetWorkflowState moves the property to a new substate. Archived
// properties are frozen; the boolean reports whether the update applied.
func (r *Repository) SetWorkflowState(ctx context.Context, id uuid.UUID, substate domain.Substate, changedAt time.Time) (Property, bool, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE properties SET
			node = $2, substate = $3, percent = $4,
			last_change_at = $5, updated_at = now()
		WHERE id = $1 AND substate <> $6
		RETURNING`+propertyColumns,
		id, domain.NodeFor(substate), substate, domain.PercentFor(substate),
		changedAt, domain.SubstateArchived,
	)
	p, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either missing or archived; disambiguate for the caller.
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return Property{}, false, getErr
		}
		return Property{}, false, nil
	}
	if err != nil {
		return Property{}, false, fmt.Errorf("set workflow state: %w", err)
	}
	return p, true, nil
}

// AppendHistory appends one workflow audit row.
func (r *Repository) AppendHistory(ctx context.Context, params HistoryParams) error {
	var metadata []byte
	if params.Metadata != nil {
		var err error
		metadata, err = json.Marshal(params.Metadata)
		if err != nil {
			return fmt.Errorf("marshal history metadata: %w", err)
		}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO property_status_history (property_id, substate, node, percent, actor, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		params.PropertyID, params.Substate, domain.NodeFor(params.Substate),
		domain.PercentFor(params.Substate), params.Actor, params.Message, metadata,
	)
	if err != nil {
		return fmt.Errorf("append property history: %w", err)
	}
	return nil
}

// ListHistory returns the property's workflow audit trail, oldest first.
func (r *Repository) ListHistory(ctx context.Context, propertyID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, property_id, substate, node, percent, actor, message, metadata, created_at
		FROM property_status_history
		WHERE property_id = $1
		ORDER BY created_at ASC
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list property history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.PropertyID, &e.Substate, &e.Node, &e.Percent,
			&e.Actor, &e.Message, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &e.Metadata)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateAlert attaches a degraded-outcome alert to a property.
func (r *Repository) CreateAlert(ctx context.Context, params AlertParams) (Alert, error) {
	var a Alert
	err := r.pool.QueryRow(ctx, `
		INSERT INTO property_alerts (property_id, kind, message)
		VALUES ($1, $2, $3)
		RETURNING id, property_id, kind, message, resolved_at, created_at`,
		params.PropertyID, params.Kind, params.Message,
	).Scan(&a.ID, &a.PropertyID, &a.Kind, &a.Message, &a.ResolvedAt, &a.CreatedAt)
	if err != nil {
		return Alert{}, fmt.Errorf("create property alert: %w", err)
	}
	return a, nil
}

// ListAlerts returns the property's alerts, newest first.
func (r *Repository) ListAlerts(ctx context.Context, propertyID uuid.UUID, includeResolved bool) ([]Alert, error) {
	query := `
		SELECT id, property_id, kind, message, resolved_at, created_at
		FROM property_alerts
		WHERE property_id = $1`
	if !includeResolved {
		query += ` AND resolved_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list property alerts: %w", err)
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.PropertyID, &a.Kind, &a.Message, &a.ResolvedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan property alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResolveAlert marks an alert as handled.
func (r *Repository) ResolveAlert(ctx context.Context, id uuid.UUID, resolvedAt time.Time) (Alert, error) {
	var a Alert
	err := r.pool.QueryRow(ctx, `
		UPDATE property_alerts SET resolved_at = $2
		WHERE id = $1
		RETURNING id, property_id, kind, message, resolved_at, created_at`,
		id, resolvedAt,
	).Scan(&a.ID, &a.PropertyID, &a.Kind, &a.Message, &a.ResolvedAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Alert{}, apperr.NotFound("alert not found")
	}
	if err != nil {
		return Alert{}, fmt.Errorf("resolve property alert: %w", err)
	}
	return a, nil
}

// Compile-time check that Repository satisfies the repository contract.
var _ PropertiesRepository = (*Repository)(nil)
