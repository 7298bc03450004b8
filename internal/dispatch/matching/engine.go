// Package matching produces ranked pilot shortlists for a job's invite
// waves. The engine is pure coordination logic over two narrow ports: a
// candidate source (pilots) and an offer index (already-invited exclusion).
package matching

import (
	"context"
	"sort"
	"time"

	"skyshot_backend/internal/dispatch/domain"
	pilots "skyshot_backend/internal/pilots/domain"
	"skyshot_backend/platform/config"
	"skyshot_backend/platform/geo"

	"github.com/google/uuid"
)

// Config holds the immutable matching tunables, read once at startup and
// injected through constructors.
type Config struct {
	InviteCount     int
	InitialRadiusKm float64
	RadiusStepKm    float64
	MaxRadiusKm     float64
	OfferTTL        time.Duration
	MaxWaves        int
	ActivityWindow  time.Duration
}

// NewConfig builds a Config from the application configuration.
func NewConfig(cfg config.DispatchConfig) Config {
	return Config{
		InviteCount:     cfg.GetInviteCount(),
		InitialRadiusKm: cfg.GetInitialRadiusKm(),
		RadiusStepKm:    cfg.GetRadiusStepKm(),
		MaxRadiusKm:     cfg.GetMaxRadiusKm(),
		OfferTTL:        cfg.GetOfferTTL(),
		MaxWaves:        cfg.GetMaxWaves(),
		ActivityWindow:  cfg.GetActivityWindow(),
	}
}

// RadiusForWave returns the wave's search radius: the initial radius plus
// one step per escalation, capped at the maximum.
func (c Config) RadiusForWave(wave int) float64 {
	if wave < 1 {
		wave = 1
	}
	radius := c.InitialRadiusKm + float64(wave-1)*c.RadiusStepKm
	if radius > c.MaxRadiusKm {
		radius = c.MaxRadiusKm
	}
	return radius
}

// Candidate is a pilot as seen by the matching engine.
type Candidate struct {
	PilotID       uuid.UUID
	Latitude      *float64
	Longitude     *float64
	Rating        float64
	CompletedJobs int
	Available     bool
	Approval      pilots.ApprovalStatus
	LastHeartbeat *time.Time
	Documents     []pilots.DocumentState
}

// Match is one shortlist entry: a candidate with its computed distance and
// score for the wave that produced it.
type Match struct {
	Candidate  Candidate
	DistanceKm float64
	Score      float64
}

// Target anchors a shortlist computation: the job and its property's
// coordinates.
type Target struct {
	JobID     uuid.UUID
	Latitude  float64
	Longitude float64
}

// CandidateSource lists pilots that are approved and currently flagged
// available, excluding the given pilot IDs.
type CandidateSource interface {
	ListDispatchCandidates(ctx context.Context, exclude []uuid.UUID) ([]Candidate, error)
}

// OfferIndex reports which pilots already hold an offer (any status) on a
// job. Exclusion by history is what keeps the one-offer-per-pilot
// invariant without a separate "already tried" table.
type OfferIndex interface {
	ListOfferPilotIDs(ctx context.Context, jobID uuid.UUID) ([]uuid.UUID, error)
}

// Engine computes ranked shortlists.
type Engine struct {
	cfg        Config
	candidates CandidateSource
	offers     OfferIndex
}

// NewEngine creates a matching engine.
func NewEngine(cfg Config, candidates CandidateSource, offers OfferIndex) *Engine {
	return &Engine{cfg: cfg, candidates: candidates, offers: offers}
}

// Config exposes the engine's immutable configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Shortlist ranks eligible, not-yet-invited pilots within the wave's
// radius, best score first, capped at the configured invite count.
func (e *Engine) Shortlist(ctx context.Context, target Target, wave int) ([]Match, error) {
	radius := e.cfg.RadiusForWave(wave)

	invited, err := e.offers.ListOfferPilotIDs(ctx, target.JobID)
	if err != nil {
		return nil, err
	}

	candidates, err := e.candidates.ListDispatchCandidates(ctx, invited)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}

		distance := geo.DistanceKm(target.Latitude, target.Longitude, *c.Latitude, *c.Longitude)
		if distance > radius {
			continue
		}

		if !pilots.Dispatchable(c.Approval, c.Available, c.Documents, now) {
			continue
		}

		score := domain.Score(domain.ScoreInput{
			Rating:        c.Rating,
			CompletedJobs: c.CompletedJobs,
			Available:     c.Available,
			LastHeartbeat: c.LastHeartbeat,
		}, distance, radius, e.cfg.ActivityWindow, now)

		matches = append(matches, Match{Candidate: c, DistanceKm: distance, Score: score})
	}

	// Deterministic order: score descending, pilot ID as tie-breaker.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Candidate.PilotID.String() < matches[j].Candidate.PilotID.String()
	})

	if len(matches) > e.cfg.InviteCount {
		matches = matches[:e.cfg.InviteCount]
	}

	return matches, nil
}
