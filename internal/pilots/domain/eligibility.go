// Package domain provides core business rules for the pilots bounded
// context: approval states, document compliance, and dispatch eligibility.
package domain

import "time"

// ApprovalStatus is the admin-controlled state of a pilot profile.
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalRejected  ApprovalStatus = "rejected"
	ApprovalSuspended ApprovalStatus = "suspended"
)

// DocumentType identifies a compliance document. One document per
// (pilot, type) pair.
type DocumentType string

const (
	DocIdentity          DocumentType = "identity"
	DocLicense           DocumentType = "license"
	DocDroneRegistration DocumentType = "drone_registration"
	DocInsurance         DocumentType = "insurance"
	DocBackgroundCheck   DocumentType = "background_check"
	DocOther             DocumentType = "other"
)

var knownDocumentTypes = map[DocumentType]struct{}{
	DocIdentity:          {},
	DocLicense:           {},
	DocDroneRegistration: {},
	DocInsurance:         {},
	DocBackgroundCheck:   {},
	DocOther:             {},
}

// IsKnownDocumentType reports whether t is a recognized document type.
func IsKnownDocumentType(t DocumentType) bool {
	_, ok := knownDocumentTypes[t]
	return ok
}

// DocumentStatus is the review state of a compliance document.
type DocumentStatus string

const (
	DocPending  DocumentStatus = "pending"
	DocApproved DocumentStatus = "approved"
	DocRejected DocumentStatus = "rejected"
)

// DocumentState is the slice of a document the eligibility check reads.
type DocumentState struct {
	Status    DocumentStatus
	ExpiresAt *time.Time
}

// Expired reports whether the document's validity window has lapsed.
func (d DocumentState) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(now)
}

// DocumentsComplete reports whether a pilot's document set permits
// dispatch. Fail-closed: an empty set is incomplete, and any pending,
// rejected, or expired document disqualifies the whole set.
func DocumentsComplete(docs []DocumentState, now time.Time) bool {
	if len(docs) == 0 {
		return false
	}
	for _, d := range docs {
		if d.Status != DocApproved {
			return false
		}
		if d.Expired(now) {
			return false
		}
	}
	return true
}

// Dispatchable reports whether a pilot profile may receive offers right
// now: approved, available, and holding a complete document set.
func Dispatchable(approval ApprovalStatus, available bool, docs []DocumentState, now time.Time) bool {
	if approval != ApprovalApproved {
		return false
	}
	if !available {
		return false
	}
	return DocumentsComplete(docs, now)
}
