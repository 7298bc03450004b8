// Package repository provides database operations for pilot profiles and
// their compliance documents.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skyshot_backend/internal/pilots/domain"
	"skyshot_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	pilotNotFoundMsg    = "pilot not found"
	documentNotFoundMsg = "document not found"
	uniqueViolationCode = "23505"
)

// Repository provides database operations for the pilots context.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new pilots repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Profile is a drone pilot's operational record. The ID doubles as the
// pilot's user ID in auth tokens.
type Profile struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Phone           string
	Latitude        *float64
	Longitude       *float64
	Rating          float64
	CompletedJobs   int
	Available       bool
	Approval        domain.ApprovalStatus
	LastHeartbeatAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Document is one compliance document under review.
type Document struct {
	ID         uuid.UUID
	PilotID    uuid.UUID
	Type       domain.DocumentType
	Status     domain.DocumentStatus
	FileKey    string
	ExpiresAt  *time.Time
	ReviewNote *string
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Candidate pairs a profile with its document states for eligibility
// checks in the matching engine.
type Candidate struct {
	Profile   Profile
	Documents []domain.DocumentState
}

// CreateProfileParams carries data for pilot registration.
type CreateProfileParams struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Latitude  *float64
	Longitude *float64
}

// UpdateProfileParams carries the optional fields of a profile update.
type UpdateProfileParams struct {
	Name      *string
	Phone     *string
	Latitude  *float64
	Longitude *float64
}

// ListParams filters the pilot list.
type ListParams struct {
	Approval *domain.ApprovalStatus
	Limit    int
	Offset   int
}

// UpsertDocumentParams carries data for a document submission. A second
// submission for the same (pilot, type) replaces the file and resets the
// review.
type UpsertDocumentParams struct {
	PilotID   uuid.UUID
	Type      domain.DocumentType
	FileKey   string
	ExpiresAt *time.Time
}

// ReviewDocumentParams carries an admin review verdict.
type ReviewDocumentParams struct {
	Status     domain.DocumentStatus
	ReviewNote *string
	ExpiresAt  *time.Time
	ReviewedAt time.Time
}

const profileColumns = `
	id, name, email, phone, latitude, longitude, rating, completed_jobs,
	available, approval_status, last_heartbeat_at, created_at, updated_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.Latitude, &p.Longitude,
		&p.Rating, &p.CompletedJobs, &p.Available, &p.Approval,
		&p.LastHeartbeatAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationCode
}

// CreateProfile registers a pilot in the pending approval state.
func (r *Repository) CreateProfile(ctx context.Context, params CreateProfileParams) (Profile, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO pilot_profiles (id, name, email, phone, latitude, longitude, approval_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING`+profileColumns,
		params.ID, params.Name, params.Email, params.Phone,
		params.Latitude, params.Longitude, domain.ApprovalPending,
	)
	p, err := scanProfile(row)
	if isUniqueViolation(err) {
		return Profile{}, apperr.Conflict("pilot profile already exists")
	}
	if err != nil {
		return Profile{}, fmt.Errorf("create pilot profile: %w", err)
	}
	return p, nil
}

// GetProfile retrieves a pilot profile by ID.
func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+profileColumns+` FROM pilot_profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, apperr.NotFound(pilotNotFoundMsg)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get pilot profile: %w", err)
	}
	return p, nil
}

// ListProfiles returns pilots matching the filter plus the unpaged total.
func (r *Repository) ListProfiles(ctx context.Context, params ListParams) ([]Profile, int, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	where := "TRUE"
	args := []any{}
	if params.Approval != nil {
		args = append(args, *params.Approval)
		where += fmt.Sprintf(" AND approval_status = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pilot_profiles WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count pilots: %w", err)
	}

	args = append(args, limit, params.Offset)
	rows, err := r.pool.Query(ctx, `
		SELECT`+profileColumns+` FROM pilot_profiles
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list pilots: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan pilot profile: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// UpdateProfile patches the mutable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (Profile, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE pilot_profiles SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			latitude = COALESCE($4, latitude),
			longitude = COALESCE($5, longitude),
			updated_at = now()
		WHERE id = $1
		RETURNING`+profileColumns,
		id, params.Name, params.Phone, params.Latitude, params.Longitude,
	)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, apperr.NotFound(pilotNotFoundMsg)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("update pilot profile: %w", err)
	}
	return p, nil
}

// SetAvailability flips the pilot's availability flag.
func (r *Repository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (Profile, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE pilot_profiles SET available = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+profileColumns,
		id, available,
	)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, apperr.NotFound(pilotNotFoundMsg)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("set pilot availability: %w", err)
	}
	return p, nil
}

// Heartbeat refreshes the activity timestamp and optionally the position.
func (r *Repository) Heartbeat(ctx context.Context, id uuid.UUID, lat, lon *float64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pilot_profiles SET
			last_heartbeat_at = $2,
			latitude = COALESCE($3, latitude),
			longitude = COALESCE($4, longitude),
			updated_at = now()
		WHERE id = $1`,
		id, at, lat, lon,
	)
	if err != nil {
		return fmt.Errorf("pilot heartbeat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(pilotNotFoundMsg)
	}
	return nil
}

// SetApproval moves a pilot to a new approval status.
func (r *Repository) SetApproval(ctx context.Context, id uuid.UUID, status domain.ApprovalStatus) (Profile, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE pilot_profiles SET approval_status = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+profileColumns,
		id, status,
	)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, apperr.NotFound(pilotNotFoundMsg)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("set pilot approval: %w", err)
	}
	return p, nil
}

// IncrementCompletedJobs bumps the pilot's completed job counter.
func (r *Repository) IncrementCompletedJobs(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE pilot_profiles SET completed_jobs = completed_jobs + 1, updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment completed jobs: %w", err)
	}
	return nil
}

// ListDispatchCandidates returns approved, available pilots with their
// document states. Final eligibility (document completeness, expiry) is
// decided by the caller so the rule lives in one place.
func (r *Repository) ListDispatchCandidates(ctx context.Context, exclude []uuid.UUID) ([]Candidate, error) {
	if exclude == nil {
		exclude = []uuid.UUID{}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+profileColumns+` FROM pilot_profiles
		WHERE approval_status = $1
		  AND available = TRUE
		  AND NOT (id = ANY($2))
	`, domain.ApprovalApproved, exclude)
	if err != nil {
		return nil, fmt.Errorf("list dispatch candidates: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dispatch candidate: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Document loads are independent, so run them concurrently. The limit
	// keeps a big candidate pool from monopolizing the connection pool.
	out := make([]Candidate, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range profiles {
		g.Go(func() error {
			docs, err := r.ListDocuments(gctx, p.ID)
			if err != nil {
				return err
			}
			states := make([]domain.DocumentState, 0, len(docs))
			for _, d := range docs {
				states = append(states, domain.DocumentState{Status: d.Status, ExpiresAt: d.ExpiresAt})
			}
			out[i] = Candidate{Profile: p, Documents: states}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertDocument records a document submission. Resubmitting a type
// replaces the file and resets the review to pending.
func (r *Repository) UpsertDocument(ctx context.Context, params UpsertDocumentParams) (Document, error) {
	var d Document
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pilot_documents (pilot_id, doc_type, status, file_key, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (pilot_id, doc_type) DO UPDATE SET
			status = EXCLUDED.status,
			file_key = EXCLUDED.file_key,
			expires_at = EXCLUDED.expires_at,
			review_note = NULL,
			reviewed_at = NULL,
			updated_at = now()
		RETURNING id, pilot_id, doc_type, status, file_key, expires_at, review_note, reviewed_at, created_at, updated_at`,
		params.PilotID, params.Type, domain.DocPending, params.FileKey, params.ExpiresAt,
	).Scan(&d.ID, &d.PilotID, &d.Type, &d.Status, &d.FileKey, &d.ExpiresAt,
		&d.ReviewNote, &d.ReviewedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("upsert pilot document: %w", err)
	}
	return d, nil
}

// GetDocument retrieves a document by ID.
func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	var d Document
	err := r.pool.QueryRow(ctx, `
		SELECT id, pilot_id, doc_type, status, file_key, expires_at, review_note, reviewed_at, created_at, updated_at
		FROM pilot_documents WHERE id = $1`, id,
	).Scan(&d.ID, &d.PilotID, &d.Type, &d.Status, &d.FileKey, &d.ExpiresAt,
		&d.ReviewNote, &d.ReviewedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, apperr.NotFound(documentNotFoundMsg)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get pilot document: %w", err)
	}
	return d, nil
}

// ListDocuments returns the pilot's documents.
func (r *Repository) ListDocuments(ctx context.Context, pilotID uuid.UUID) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, pilot_id, doc_type, status, file_key, expires_at, review_note, reviewed_at, created_at, updated_at
		FROM pilot_documents
		WHERE pilot_id = $1
		ORDER BY doc_type
	`, pilotID)
	if err != nil {
		return nil, fmt.Errorf("list pilot documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.PilotID, &d.Type, &d.Status, &d.FileKey, &d.ExpiresAt,
			&d.ReviewNote, &d.ReviewedAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pilot document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ReviewDocument records an admin verdict on a document.
func (r *Repository) ReviewDocument(ctx context.Context, id uuid.UUID, params ReviewDocumentParams) (Document, error) {
	var d Document
	err := r.pool.QueryRow(ctx, `
		UPDATE pilot_documents SET
			status = $2,
			review_note = $3,
			expires_at = COALESCE($4, expires_at),
			reviewed_at = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING id, pilot_id, doc_type, status, file_key, expires_at, review_note, reviewed_at, created_at, updated_at`,
		id, params.Status, params.ReviewNote, params.ExpiresAt, params.ReviewedAt,
	).Scan(&d.ID, &d.PilotID, &d.Type, &d.Status, &d.FileKey, &d.ExpiresAt,
		&d.ReviewNote, &d.ReviewedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, apperr.NotFound(documentNotFoundMsg)
	}
	if err != nil {
		return Document{}, fmt.Errorf("review pilot document: %w", err)
	}
	return d, nil
}

// Compile-time check that Repository satisfies the repository contract.
var _ PilotsRepository = (*Repository)(nil)
