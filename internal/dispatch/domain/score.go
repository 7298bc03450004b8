package domain

import "time"

// Scoring weights. The formula is fixed, not pluggable: a weighted linear
// combination with every component normalized to [0,1] before weighting.
const (
	weightRating     = 0.50
	weightDistance   = 0.30
	weightCompletion = 0.15
	weightRecency    = 0.05

	// completionCeiling is the completed-job count at which the
	// completion component saturates.
	completionCeiling = 50

	// unavailablePenalty is subtracted when a pilot is marked
	// unavailable. Unavailable pilots are filtered out upstream; the
	// penalty only matters if one slips through.
	unavailablePenalty = 0.5
)

// ScoreInput captures the pilot attributes the scoring formula reads.
type ScoreInput struct {
	Rating        float64 // 0..5
	CompletedJobs int
	Available     bool
	LastHeartbeat *time.Time
}

// Score converts a pilot, its distance to the property, and the wave's
// search radius into a single comparable value. Higher ranks first.
func Score(p ScoreInput, distanceKm, radiusKm float64, activityWindow time.Duration, now time.Time) float64 {
	rating := clamp01(p.Rating / 5)

	distance := 0.0
	if radiusKm > 0 {
		distance = 1 - clamp01(distanceKm/radiusKm)
	}

	completion := clamp01(float64(p.CompletedJobs) / completionCeiling)

	recency := 0.0
	if p.LastHeartbeat != nil && activityWindow > 0 {
		elapsed := now.Sub(*p.LastHeartbeat)
		if elapsed < 0 {
			elapsed = 0
		}
		recency = 1 - clamp01(float64(elapsed)/float64(activityWindow))
	}

	score := weightRating*rating +
		weightDistance*distance +
		weightCompletion*completion +
		weightRecency*recency

	if !p.Available {
		score -= unavailablePenalty
	}

	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
