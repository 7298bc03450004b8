// Package domain provides core business rules for the dispatch bounded
// context: job and offer state machines plus the pilot scoring formula.
package domain

import (
	workflow "skyshot_backend/internal/properties/domain"
)

// JobStatus is the operational state of a recording engagement.
type JobStatus string

const (
	JobDraft           JobStatus = "draft"
	JobInviting        JobStatus = "inviting"
	JobAssigned        JobStatus = "assigned"
	JobScheduling      JobStatus = "scheduling"
	JobScheduled       JobStatus = "scheduled"
	JobShooting        JobStatus = "shooting"
	JobFinished        JobStatus = "finished"
	JobUploading       JobStatus = "uploading"
	JobReceived        JobStatus = "received"
	JobQC              JobStatus = "qc"
	JobEditing         JobStatus = "editing"
	JobPreviewReady    JobStatus = "preview_ready"
	JobReadyForPublish JobStatus = "ready_for_publish"
	JobPublished       JobStatus = "published"
	JobCanceled        JobStatus = "canceled"
)

// AllJobStatuses lists every job status in lifecycle order.
var AllJobStatuses = []JobStatus{
	JobDraft, JobInviting, JobAssigned, JobScheduling, JobScheduled,
	JobShooting, JobFinished, JobUploading, JobReceived, JobQC,
	JobEditing, JobPreviewReady, JobReadyForPublish, JobPublished,
	JobCanceled,
}

// jobSubstates mirrors each job status onto the property workflow.
// Canceled is deliberately absent: canceling a job never moves the
// property backward.
var jobSubstates = map[JobStatus]workflow.Substate{
	JobDraft:           workflow.SubstateShootPending,
	JobInviting:        workflow.SubstateInviting,
	JobAssigned:        workflow.SubstateAssigned,
	JobScheduling:      workflow.SubstateScheduling,
	JobScheduled:       workflow.SubstateScheduled,
	JobShooting:        workflow.SubstateShooting,
	JobFinished:        workflow.SubstateFinished,
	JobUploading:       workflow.SubstateUploading,
	JobReceived:        workflow.SubstateReceived,
	JobQC:              workflow.SubstateQC,
	JobEditing:         workflow.SubstateEditing,
	JobPreviewReady:    workflow.SubstatePreviewReady,
	JobReadyForPublish: workflow.SubstateReadyForPublish,
	JobPublished:       workflow.SubstatePublished,
}

var knownJobStatuses = func() map[JobStatus]struct{} {
	m := make(map[JobStatus]struct{}, len(AllJobStatuses))
	for _, s := range AllJobStatuses {
		m[s] = struct{}{}
	}
	return m
}()

// IsKnownJobStatus reports whether s is a status the system recognizes.
func IsKnownJobStatus(s JobStatus) bool {
	_, ok := knownJobStatuses[s]
	return ok
}

// IsTerminalJobStatus reports whether no further transitions may occur.
func IsTerminalJobStatus(s JobStatus) bool {
	return s == JobPublished || s == JobCanceled
}

// MirroredSubstate returns the property substate a job status maps to.
// The boolean is false for canceled (and unknown) statuses.
func MirroredSubstate(s JobStatus) (workflow.Substate, bool) {
	sub, ok := jobSubstates[s]
	return sub, ok
}

// OfferStatus is the state of a single pilot's invitation.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
	OfferExpired  OfferStatus = "expired"
	OfferCanceled OfferStatus = "canceled"
)
