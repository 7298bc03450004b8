package domain

import (
	"testing"
	"time"

	workflow "skyshot_backend/internal/properties/domain"
)

func TestEveryStatusExceptCanceledHasMirroredSubstate(t *testing.T) {
	for _, s := range AllJobStatuses {
		sub, ok := MirroredSubstate(s)
		if s == JobCanceled {
			if ok {
				t.Fatalf("canceled must not mirror a substate, got %q", sub)
			}
			continue
		}
		if !ok {
			t.Fatalf("status %q has no mirrored substate", s)
		}
		if !workflow.IsKnown(sub) {
			t.Fatalf("status %q mirrors unknown substate %q", s, sub)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range AllJobStatuses {
		terminal := s == JobPublished || s == JobCanceled
		if IsTerminalJobStatus(s) != terminal {
			t.Fatalf("status %q terminal=%v, expected %v", s, IsTerminalJobStatus(s), terminal)
		}
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	if IsKnownJobStatus(JobStatus("rebooting")) {
		t.Fatalf("unexpected status accepted")
	}
}

func TestScoreMaxedOutPilot(t *testing.T) {
	now := time.Now()
	hb := now
	in := ScoreInput{Rating: 5, CompletedJobs: 50, Available: true, LastHeartbeat: &hb}

	got := Score(in, 0, 10, 30*time.Minute, now)
	if got < 0.999 || got > 1.001 {
		t.Fatalf("expected score ~1.0, got %f", got)
	}
}

func TestScoreDistanceComponent(t *testing.T) {
	now := time.Now()
	in := ScoreInput{Rating: 0, CompletedJobs: 0, Available: true}

	atCenter := Score(in, 0, 10, 30*time.Minute, now)
	atEdge := Score(in, 10, 10, 30*time.Minute, now)
	beyond := Score(in, 25, 10, 30*time.Minute, now)

	if atCenter < 0.299 || atCenter > 0.301 {
		t.Fatalf("expected full distance weight 0.30 at center, got %f", atCenter)
	}
	if atEdge != 0 {
		t.Fatalf("expected zero distance component at the radius edge, got %f", atEdge)
	}
	if beyond != 0 {
		t.Fatalf("distance component must clamp at 0 beyond radius, got %f", beyond)
	}
}

func TestScoreNoHeartbeatGivesNoRecency(t *testing.T) {
	now := time.Now()
	withNone := Score(ScoreInput{Rating: 5, Available: true}, 5, 10, 30*time.Minute, now)

	stale := now.Add(-2 * time.Hour)
	withStale := Score(ScoreInput{Rating: 5, Available: true, LastHeartbeat: &stale}, 5, 10, 30*time.Minute, now)

	if withNone != withStale {
		t.Fatalf("missing heartbeat and stale heartbeat should score alike: %f vs %f", withNone, withStale)
	}
}

func TestScoreUnavailablePenalty(t *testing.T) {
	now := time.Now()
	avail := Score(ScoreInput{Rating: 5, Available: true}, 0, 10, 0, now)
	unavail := Score(ScoreInput{Rating: 5, Available: false}, 0, 10, 0, now)

	diff := avail - unavail
	if diff < 0.499 || diff > 0.501 {
		t.Fatalf("expected a flat 0.5 penalty, got diff %f", diff)
	}
}
