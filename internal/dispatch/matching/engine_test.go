package matching

import (
	"context"
	"testing"
	"time"

	pilots "skyshot_backend/internal/pilots/domain"

	"github.com/google/uuid"
)

func testConfig() Config {
	return Config{
		InviteCount:     5,
		InitialRadiusKm: 10,
		RadiusStepKm:    10,
		MaxRadiusKm:     50,
		OfferTTL:        20 * time.Second,
		MaxWaves:        3,
		ActivityWindow:  30 * time.Minute,
	}
}

type fakeCandidateSource struct {
	candidates []Candidate
}

func (f *fakeCandidateSource) ListDispatchCandidates(_ context.Context, exclude []uuid.UUID) ([]Candidate, error) {
	excluded := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}
	out := make([]Candidate, 0, len(f.candidates))
	for _, c := range f.candidates {
		if !excluded[c.PilotID] {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeOfferIndex struct {
	invited map[uuid.UUID][]uuid.UUID
}

func (f *fakeOfferIndex) ListOfferPilotIDs(_ context.Context, jobID uuid.UUID) ([]uuid.UUID, error) {
	return f.invited[jobID], nil
}

func ptr[T any](v T) *T { return &v }

// pilotAt builds a fully eligible candidate offset north of the anchor by
// roughly km kilometers (0.009 degrees of latitude per km).
func pilotAt(anchorLat, anchorLon, km float64) Candidate {
	hb := time.Now()
	return Candidate{
		PilotID:       uuid.New(),
		Latitude:      ptr(anchorLat + km*0.009),
		Longitude:     ptr(anchorLon),
		Rating:        4.5,
		CompletedJobs: 20,
		Available:     true,
		Approval:      pilots.ApprovalApproved,
		LastHeartbeat: &hb,
		Documents:     []pilots.DocumentState{{Status: pilots.DocApproved}},
	}
}

const anchorLat, anchorLon = 52.0, 5.0

func TestRadiusEscalatesPerWaveAndCaps(t *testing.T) {
	cfg := testConfig()
	prev := 0.0
	for wave := 1; wave <= 10; wave++ {
		r := cfg.RadiusForWave(wave)
		if r < prev {
			t.Fatalf("radius decreased at wave %d: %f < %f", wave, r, prev)
		}
		if r > cfg.MaxRadiusKm {
			t.Fatalf("radius exceeds cap at wave %d: %f", wave, r)
		}
		prev = r
	}
	if got := cfg.RadiusForWave(1); got != 10 {
		t.Fatalf("wave 1 radius = %f, expected 10", got)
	}
	if got := cfg.RadiusForWave(3); got != 30 {
		t.Fatalf("wave 3 radius = %f, expected 30", got)
	}
	if got := cfg.RadiusForWave(9); got != 50 {
		t.Fatalf("wave 9 radius = %f, expected cap 50", got)
	}
}

func TestShortlistFiltersByDistanceForWave(t *testing.T) {
	near := pilotAt(anchorLat, anchorLon, 5)
	far := pilotAt(anchorLat, anchorLon, 15)

	engine := NewEngine(testConfig(),
		&fakeCandidateSource{candidates: []Candidate{near, far}},
		&fakeOfferIndex{})
	target := Target{JobID: uuid.New(), Latitude: anchorLat, Longitude: anchorLon}

	wave1, err := engine.Shortlist(context.Background(), target, 1)
	if err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if len(wave1) != 1 || wave1[0].Candidate.PilotID != near.PilotID {
		t.Fatalf("wave 1 should only reach the 5 km pilot, got %d matches", len(wave1))
	}

	wave2, err := engine.Shortlist(context.Background(), target, 2)
	if err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if len(wave2) != 2 {
		t.Fatalf("wave 2 (20 km) should reach both pilots, got %d", len(wave2))
	}
}

func TestShortlistExcludesAlreadyInvitedPilots(t *testing.T) {
	jobID := uuid.New()
	invited := pilotAt(anchorLat, anchorLon, 2)
	fresh := pilotAt(anchorLat, anchorLon, 3)

	engine := NewEngine(testConfig(),
		&fakeCandidateSource{candidates: []Candidate{invited, fresh}},
		&fakeOfferIndex{invited: map[uuid.UUID][]uuid.UUID{jobID: {invited.PilotID}}})

	matches, err := engine.Shortlist(context.Background(), Target{JobID: jobID, Latitude: anchorLat, Longitude: anchorLon}, 1)
	if err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if len(matches) != 1 || matches[0].Candidate.PilotID != fresh.PilotID {
		t.Fatalf("already-invited pilot must be excluded")
	}
}

func TestShortlistRejectsMissingCoordinates(t *testing.T) {
	noCoords := pilotAt(anchorLat, anchorLon, 1)
	noCoords.Latitude = nil
	noCoords.Longitude = nil

	engine := NewEngine(testConfig(),
		&fakeCandidateSource{candidates: []Candidate{noCoords}},
		&fakeOfferIndex{})

	matches, err := engine.Shortlist(context.Background(), Target{JobID: uuid.New(), Latitude: anchorLat, Longitude: anchorLon}, 1)
	if err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("pilot without coordinates must be rejected")
	}
}

func TestShortlistRejectsIncompleteDocuments(t *testing.T) {
	// A rejected insurance document excludes the pilot no matter how
	// close or highly rated it is.
	uninsured := pilotAt(anchorLat, anchorLon, 1)
	uninsured.Rating = 5
	uninsured.Documents = []pilots.DocumentState{
		{Status: pilots.DocApproved},
		{Status: pilots.DocRejected},
	}

	engine := NewEngine(testConfig(),
		&fakeCandidateSource{candidates: []Candidate{uninsured}},
		&fakeOfferIndex{})

	matches, err := engine.Shortlist(context.Background(), Target{JobID: uuid.New(), Latitude: anchorLat, Longitude: anchorLon}, 1)
	if err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("pilot with a rejected document must never be shortlisted")
	}
}

func TestShortlistRanksByScoreAndCaps(t *testing.T) {
	candidates := make([]Candidate, 0, 8)
	for i := 0; i < 8; i++ {
		c := pilotAt(anchorLat, anchorLon, float64(i+1))
		c.Rating = 5 - float64(i)*0.5
		candidates = append(candidates, c)
	}

	engine := NewEngine(testConfig(),
		&fakeCandidateSource{candidates: candidates},
		&fakeOfferIndex{})

	matches, err := engine.Shortlist(context.Background(), Target{JobID: uuid.New(), Latitude: anchorLat, Longitude: anchorLon}, 1)
	if err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if len(matches) != 5 {
		t.Fatalf("shortlist must cap at invite count 5, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Fatalf("shortlist not sorted by score at index %d", i)
		}
	}
}

func TestShortlistDeterministicTieBreak(t *testing.T) {
	a := pilotAt(anchorLat, anchorLon, 2)
	b := a
	b.PilotID = uuid.New()
	// Same position, rating, history: identical scores.

	engine := NewEngine(testConfig(),
		&fakeCandidateSource{candidates: []Candidate{a, b}},
		&fakeOfferIndex{})
	target := Target{JobID: uuid.New(), Latitude: anchorLat, Longitude: anchorLon}

	first, err := engine.Shortlist(context.Background(), target, 1)
	if err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	second, err := engine.Shortlist(context.Background(), target, 1)
	if err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected both pilots in both runs")
	}
	if first[0].Candidate.PilotID != second[0].Candidate.PilotID {
		t.Fatalf("tie-break order must be stable across runs")
	}
}
