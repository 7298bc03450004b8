package domain

import "testing"

func TestDefinitionsCoverAllSubstates(t *testing.T) {
	if len(AllSubstates) != len(definitions) {
		t.Fatalf("substate list has %d entries, definition table has %d", len(AllSubstates), len(definitions))
	}
	for _, s := range AllSubstates {
		if !IsKnown(s) {
			t.Fatalf("substate %q missing from definition table", s)
		}
	}
}

func TestEverySubstateHasValidNodeAndPercent(t *testing.T) {
	validNodes := map[Node]bool{}
	for _, n := range Nodes {
		validNodes[n] = true
	}

	for _, s := range AllSubstates {
		def, ok := Lookup(s)
		if !ok {
			t.Fatalf("no definition for %q", s)
		}
		if !validNodes[def.Node] {
			t.Fatalf("substate %q maps to unknown node %q", s, def.Node)
		}
		if def.Percent < 0 || def.Percent > 100 {
			t.Fatalf("substate %q has out-of-range percent %d", s, def.Percent)
		}
	}
}

func TestProgressNonDecreasingAlongPipeline(t *testing.T) {
	prev := -1
	for _, s := range AllSubstates {
		pct := PercentFor(s)
		if pct < prev {
			t.Fatalf("substate %q regresses percent: %d after %d", s, pct, prev)
		}
		prev = pct
	}
}

func TestUnknownSubstateRejected(t *testing.T) {
	if IsKnown(Substate("warp_drive")) {
		t.Fatalf("unexpected substate accepted")
	}
	if _, ok := Lookup(Substate("")); ok {
		t.Fatalf("empty substate should not resolve")
	}
}

func TestNodeForPublished(t *testing.T) {
	if NodeFor(SubstatePublished) != NodeLive {
		t.Fatalf("published should live on the live node, got %q", NodeFor(SubstatePublished))
	}
	if PercentFor(SubstatePublished) != 100 {
		t.Fatalf("published should be 100%%, got %d", PercentFor(SubstatePublished))
	}
}
