package domain

import (
	"testing"
	"time"
)

func approvedDoc() DocumentState {
	return DocumentState{Status: DocApproved}
}

func TestDocumentsCompleteFailClosedOnEmptySet(t *testing.T) {
	if DocumentsComplete(nil, time.Now()) {
		t.Fatalf("pilot with zero documents must not be eligible")
	}
}

func TestDocumentsCompleteRejectsPendingAndRejected(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		docs []DocumentState
	}{
		{"pending", []DocumentState{approvedDoc(), {Status: DocPending}}},
		{"rejected", []DocumentState{approvedDoc(), {Status: DocRejected}}},
	}
	for _, tc := range cases {
		if DocumentsComplete(tc.docs, now) {
			t.Fatalf("%s document should disqualify the set", tc.name)
		}
	}
}

func TestDocumentsCompleteRejectsExpired(t *testing.T) {
	now := time.Now()
	lapsed := now.Add(-time.Hour)
	docs := []DocumentState{approvedDoc(), {Status: DocApproved, ExpiresAt: &lapsed}}

	if DocumentsComplete(docs, now) {
		t.Fatalf("expired document should disqualify the set")
	}
}

func TestDocumentsCompleteAllApproved(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	docs := []DocumentState{approvedDoc(), {Status: DocApproved, ExpiresAt: &future}}

	if !DocumentsComplete(docs, now) {
		t.Fatalf("fully approved and unexpired set should be complete")
	}
}

func TestDispatchableRequiresApprovalAndAvailability(t *testing.T) {
	now := time.Now()
	docs := []DocumentState{approvedDoc()}

	if Dispatchable(ApprovalPending, true, docs, now) {
		t.Fatalf("pending pilot must not be dispatchable")
	}
	if Dispatchable(ApprovalSuspended, true, docs, now) {
		t.Fatalf("suspended pilot must not be dispatchable")
	}
	if Dispatchable(ApprovalApproved, false, docs, now) {
		t.Fatalf("unavailable pilot must not be dispatchable")
	}
	if !Dispatchable(ApprovalApproved, true, docs, now) {
		t.Fatalf("approved, available, documented pilot should be dispatchable")
	}
}
