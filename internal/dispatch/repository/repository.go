// Package repository provides database operations for jobs, offers, and
// the job timeline.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skyshot_backend/internal/dispatch/domain"
	"skyshot_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	jobNotFoundMsg   = "job not found"
	offerNotFoundMsg = "offer not found"
)

// Repository provides database operations for the dispatch context.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new dispatch repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Job is one operational engagement to produce drone media for a property.
type Job struct {
	ID                 uuid.UUID
	PropertyID         uuid.UUID
	Status             domain.JobStatus
	AssignedPilotID    *uuid.UUID
	PriceCents         int64
	PayoutCents        int64
	ScheduledStart     *time.Time
	ScheduledEnd       *time.Time
	InviteWave         int
	VendorInstructions *string
	LastStatusChangeAt time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// JobOffer is a time-boxed invitation from a job to a pilot.
type JobOffer struct {
	ID          uuid.UUID
	JobID       uuid.UUID
	PilotID     uuid.UUID
	Wave        int
	Status      domain.OfferStatus
	Score       float64
	RadiusKm    float64
	DistanceKm  float64
	TTLSeconds  int
	ExpiresAt   time.Time
	RespondedAt *time.Time
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TimelineEvent is one append-only audit row for a job.
type TimelineEvent struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	Kind      string
	Message   string
	Metadata  map[string]any
	Actor     *string
	CreatedAt time.Time
}

// CreateJobParams carries data for lazy job creation.
type CreateJobParams struct {
	PropertyID         uuid.UUID
	PriceCents         int64
	PayoutCents        int64
	VendorInstructions *string
}

// ListJobsParams filters the job list.
type ListJobsParams struct {
	Status *domain.JobStatus
	Limit  int
	Offset int
}

// UpdateJobStatusParams carries the conditional fields persisted alongside
// a status transition.
type UpdateJobStatusParams struct {
	Status             domain.JobStatus
	LastStatusChangeAt time.Time
	AssignedPilotID    *uuid.UUID // only set when entering assigned
	ScheduledStart     *time.Time // only set when entering scheduled
	ScheduledEnd       *time.Time
}

// CreateOfferParams carries data for offer creation.
type CreateOfferParams struct {
	JobID      uuid.UUID
	PilotID    uuid.UUID
	Wave       int
	Score      float64
	RadiusKm   float64
	DistanceKm float64
	TTLSeconds int
	ExpiresAt  time.Time
	Metadata   map[string]any
}

// TimelineEventParams carries data for one audit row.
type TimelineEventParams struct {
	JobID    uuid.UUID
	Kind     string
	Message  string
	Metadata map[string]any
	Actor    *string
}

const jobColumns = `
	id, property_id, status, assigned_pilot_id, price_cents, payout_cents,
	scheduled_start, scheduled_end, invite_wave, vendor_instructions,
	last_status_change_at, created_at, updated_at`

func scanJob(row pgx.Row) (Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.PropertyID, &j.Status, &j.AssignedPilotID, &j.PriceCents,
		&j.PayoutCents, &j.ScheduledStart, &j.ScheduledEnd, &j.InviteWave,
		&j.VendorInstructions, &j.LastStatusChangeAt, &j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}

// GetJob retrieves a job by ID.
func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+jobColumns+` FROM jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, apperr.NotFound(jobNotFoundMsg)
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// GetJobByProperty retrieves the job for a property (one-to-one).
func (r *Repository) GetJobByProperty(ctx context.Context, propertyID uuid.UUID) (Job, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+jobColumns+` FROM jobs WHERE property_id = $1`, propertyID)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, apperr.NotFound(jobNotFoundMsg)
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job by property: %w", err)
	}
	return j, nil
}

// ListJobs returns jobs with an optional status filter plus the total count.
func (r *Repository) ListJobs(ctx context.Context, params ListJobsParams) ([]Job, int, error) {
	limit := params.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
		SELECT`+jobColumns+`, COUNT(*) OVER() AS total
		FROM jobs
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, params.Status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	var total int
	for rows.Next() {
		var j Job
		if err := rows.Scan(
			&j.ID, &j.PropertyID, &j.Status, &j.AssignedPilotID, &j.PriceCents,
			&j.PayoutCents, &j.ScheduledStart, &j.ScheduledEnd, &j.InviteWave,
			&j.VendorInstructions, &j.LastStatusChangeAt, &j.CreatedAt, &j.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

// CreateJob inserts a new draft job. The unique property_id index enforces
// one job per property; a duplicate insert surfaces as a conflict.
func (r *Repository) CreateJob(ctx context.Context, params CreateJobParams) (Job, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO jobs (property_id, status, price_cents, payout_cents, vendor_instructions)
		VALUES ($1, 'draft', $2, $3, $4)
		RETURNING`+jobColumns,
		params.PropertyID, params.PriceCents, params.PayoutCents, params.VendorInstructions,
	)
	j, err := scanJob(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Job{}, apperr.Conflict("property already has a job")
		}
		return Job{}, fmt.Errorf("create job: %w", err)
	}
	return j, nil
}

// UpdateJobStatus persists a status transition and its conditional fields.
func (r *Repository) UpdateJobStatus(ctx context.Context, id uuid.UUID, params UpdateJobStatusParams) (Job, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE jobs SET
			status = $2,
			last_status_change_at = $3,
			assigned_pilot_id = COALESCE($4, assigned_pilot_id),
			scheduled_start = COALESCE($5, scheduled_start),
			scheduled_end = COALESCE($6, scheduled_end),
			updated_at = now()
		WHERE id = $1
		RETURNING`+jobColumns,
		id, params.Status, params.LastStatusChangeAt,
		params.AssignedPilotID, params.ScheduledStart, params.ScheduledEnd,
	)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, apperr.NotFound(jobNotFoundMsg)
	}
	if err != nil {
		return Job{}, fmt.Errorf("update job status: %w", err)
	}
	return j, nil
}

// AdvanceJobWave bumps invite_wave, never backward.
func (r *Repository) AdvanceJobWave(ctx context.Context, id uuid.UUID, wave int) (Job, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE jobs SET invite_wave = GREATEST(invite_wave, $2), updated_at = now()
		WHERE id = $1
		RETURNING`+jobColumns,
		id, wave,
	)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, apperr.NotFound(jobNotFoundMsg)
	}
	if err != nil {
		return Job{}, fmt.Errorf("advance job wave: %w", err)
	}
	return j, nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}

const offerColumns = `
	id, job_id, pilot_id, wave, status, score, radius_km, distance_km,
	ttl_seconds, expires_at, responded_at, metadata, created_at, updated_at`

func scanOffer(row pgx.Row) (JobOffer, error) {
	var o JobOffer
	var metadata []byte
	err := row.Scan(
		&o.ID, &o.JobID, &o.PilotID, &o.Wave, &o.Status, &o.Score,
		&o.RadiusKm, &o.DistanceKm, &o.TTLSeconds, &o.ExpiresAt,
		&o.RespondedAt, &metadata, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return JobOffer{}, err
	}
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &o.Metadata)
	}
	return o, nil
}

// GetOffer retrieves an offer by ID.
func (r *Repository) GetOffer(ctx context.Context, id uuid.UUID) (JobOffer, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+offerColumns+` FROM job_offers WHERE id = $1`, id)
	o, err := scanOffer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return JobOffer{}, apperr.NotFound(offerNotFoundMsg)
	}
	if err != nil {
		return JobOffer{}, fmt.Errorf("get offer: %w", err)
	}
	return o, nil
}

// ListOffersByJob returns every offer on a job, newest wave first.
func (r *Repository) ListOffersByJob(ctx context.Context, jobID uuid.UUID) ([]JobOffer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+offerColumns+` FROM job_offers
		WHERE job_id = $1
		ORDER BY wave DESC, score DESC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

// ListOffersByPilot returns a pilot's offers, newest first.
func (r *Repository) ListOffersByPilot(ctx context.Context, pilotID uuid.UUID) ([]JobOffer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+offerColumns+` FROM job_offers
		WHERE pilot_id = $1
		ORDER BY created_at DESC
	`, pilotID)
	if err != nil {
		return nil, fmt.Errorf("list pilot offers: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

// ListOfferPilotIDs returns the pilots holding an offer of any status on
// the job.
func (r *Repository) ListOfferPilotIDs(ctx context.Context, jobID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT pilot_id FROM job_offers WHERE job_id = $1`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list offer pilots: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountPendingOffers counts pending offers on a job.
func (r *Repository) CountPendingOffers(ctx context.Context, jobID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM job_offers WHERE job_id = $1 AND status = 'pending'`, jobID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending offers: %w", err)
	}
	return count, nil
}

// EnsureOffer inserts an offer, tolerating a duplicate (job, pilot) pair
// by returning the existing row instead.
func (r *Repository) EnsureOffer(ctx context.Context, params CreateOfferParams) (JobOffer, bool, error) {
	metadata, err := json.Marshal(params.Metadata)
	if err != nil {
		return JobOffer{}, false, fmt.Errorf("marshal offer metadata: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO job_offers (
			job_id, pilot_id, wave, status, score, radius_km, distance_km,
			ttl_seconds, expires_at, metadata
		) VALUES ($1, $2, $3, 'pending', $4, $5, $6, $7, $8, $9)
		ON CONFLICT (job_id, pilot_id) DO NOTHING
		RETURNING`+offerColumns,
		params.JobID, params.PilotID, params.Wave, params.Score,
		params.RadiusKm, params.DistanceKm, params.TTLSeconds,
		params.ExpiresAt, metadata,
	)
	o, err := scanOffer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := r.getOfferByJobPilot(ctx, params.JobID, params.PilotID)
		if getErr != nil {
			return JobOffer{}, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return JobOffer{}, false, fmt.Errorf("ensure offer: %w", err)
	}
	return o, true, nil
}

func (r *Repository) getOfferByJobPilot(ctx context.Context, jobID, pilotID uuid.UUID) (JobOffer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT`+offerColumns+` FROM job_offers WHERE job_id = $1 AND pilot_id = $2`,
		jobID, pilotID,
	)
	o, err := scanOffer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return JobOffer{}, apperr.NotFound(offerNotFoundMsg)
	}
	if err != nil {
		return JobOffer{}, fmt.Errorf("get offer by job/pilot: %w", err)
	}
	return o, nil
}

// ResolveOffer moves a pending offer to the given status (compare-and-set).
func (r *Repository) ResolveOffer(ctx context.Context, id uuid.UUID, status domain.OfferStatus, respondedAt time.Time) (JobOffer, bool, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE job_offers
		SET status = $2, responded_at = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING`+offerColumns,
		id, status, respondedAt,
	)
	o, err := scanOffer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return JobOffer{}, false, nil
	}
	if err != nil {
		return JobOffer{}, false, fmt.Errorf("resolve offer: %w", err)
	}
	return o, true, nil
}

// ExpireOtherPending force-expires every other pending offer on the job.
func (r *Repository) ExpireOtherPending(ctx context.Context, jobID uuid.UUID, except uuid.UUID, respondedAt time.Time) ([]JobOffer, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE job_offers
		SET status = 'expired', responded_at = $3, updated_at = now()
		WHERE job_id = $1 AND id != $2 AND status = 'pending'
		RETURNING`+offerColumns,
		jobID, except, respondedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("expire other pending: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

// ExpireOverduePending expires pending offers past their expiry timestamp.
func (r *Repository) ExpireOverduePending(ctx context.Context, jobID uuid.UUID, now time.Time) ([]JobOffer, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE job_offers
		SET status = 'expired', responded_at = $2, updated_at = now()
		WHERE job_id = $1 AND status = 'pending' AND expires_at <= $2
		RETURNING`+offerColumns,
		jobID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("expire overdue pending: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

// AcceptOffer accepts a pending offer and claims the job assignment slot
// in one transaction. Both updates are compare-and-sets, so only the first
// of two racing accepts can succeed; the loser sees ok=false.
func (r *Repository) AcceptOffer(ctx context.Context, offerID uuid.UUID, respondedAt time.Time) (JobOffer, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return JobOffer{}, false, fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE job_offers
		SET status = 'accepted', responded_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING`+offerColumns,
		offerID, respondedAt,
	)
	o, err := scanOffer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return JobOffer{}, false, nil
	}
	if err != nil {
		return JobOffer{}, false, fmt.Errorf("accept offer: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE jobs SET assigned_pilot_id = $2, updated_at = now()
		WHERE id = $1 AND (assigned_pilot_id IS NULL OR assigned_pilot_id = $2)
	`, o.JobID, o.PilotID)
	if err != nil {
		return JobOffer{}, false, fmt.Errorf("claim job assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Another pilot already holds the job; roll the acceptance back.
		return JobOffer{}, false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return JobOffer{}, false, fmt.Errorf("commit accept tx: %w", err)
	}
	return o, true, nil
}

func collectOffers(rows pgx.Rows) ([]JobOffer, error) {
	var offers []JobOffer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// AppendTimelineEvent writes one append-only audit row.
func (r *Repository) AppendTimelineEvent(ctx context.Context, params TimelineEventParams) error {
	metadata, err := json.Marshal(params.Metadata)
	if err != nil {
		return fmt.Errorf("marshal timeline metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO job_timeline_events (job_id, kind, message, metadata, actor)
		VALUES ($1, $2, $3, $4, $5)
	`, params.JobID, params.Kind, params.Message, metadata, params.Actor)
	if err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	return nil
}

// ListTimeline returns a job's audit trail, oldest first.
func (r *Repository) ListTimeline(ctx context.Context, jobID uuid.UUID) ([]TimelineEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, job_id, kind, message, metadata, actor, created_at
		FROM job_timeline_events
		WHERE job_id = $1
		ORDER BY created_at ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	defer rows.Close()

	var out []TimelineEvent
	for rows.Next() {
		var e TimelineEvent
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.JobID, &e.Kind, &e.Message, &metadata, &e.Actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &e.Metadata)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Compile-time check that the pgx repository satisfies the service contract.
var _ DispatchRepository = (*Repository)(nil)
