// Package adapters contains thin translation layers between bounded
// contexts so modules depend on each other's service ports instead of
// their internals.
package adapters

import (
	"context"

	"skyshot_backend/internal/dispatch/matching"
	pilotsvc "skyshot_backend/internal/pilots/service"

	"github.com/google/uuid"
)

// PilotCandidateSource feeds the matching engine from the pilots context.
type PilotCandidateSource struct {
	svc *pilotsvc.Service
}

func NewPilotCandidateSource(svc *pilotsvc.Service) *PilotCandidateSource {
	return &PilotCandidateSource{svc: svc}
}

func (a *PilotCandidateSource) ListDispatchCandidates(ctx context.Context, exclude []uuid.UUID) ([]matching.Candidate, error) {
	candidates, err := a.svc.DispatchCandidates(ctx, exclude)
	if err != nil {
		return nil, err
	}

	out := make([]matching.Candidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, matching.Candidate{
			PilotID:       c.Profile.ID,
			Latitude:      c.Profile.Latitude,
			Longitude:     c.Profile.Longitude,
			Rating:        c.Profile.Rating,
			CompletedJobs: c.Profile.CompletedJobs,
			Available:     c.Profile.Available,
			Approval:      c.Profile.Approval,
			LastHeartbeat: c.Profile.LastHeartbeatAt,
			Documents:     c.Documents,
		})
	}
	return out, nil
}

var _ matching.CandidateSource = (*PilotCandidateSource)(nil)
