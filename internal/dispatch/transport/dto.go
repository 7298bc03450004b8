// Package transport defines request and response DTOs for the dispatch API.
package transport

import (
	"time"

	"skyshot_backend/internal/dispatch/repository"

	"github.com/google/uuid"
)

type CreateJobRequest struct {
	PropertyID uuid.UUID `json:"propertyId" validate:"required"`
	AutoInvite bool      `json:"autoInvite"`
}

type TransitionJobRequest struct {
	Status  string `json:"status" validate:"required,max=40"`
	Message string `json:"message,omitempty" validate:"omitempty,max=500"`
}

type ScheduleJobRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

type ListJobsRequest struct {
	Status string `form:"status" validate:"omitempty,max=40"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

type JobResponse struct {
	ID                 uuid.UUID  `json:"id"`
	PropertyID         uuid.UUID  `json:"propertyId"`
	Status             string     `json:"status"`
	AssignedPilotID    *uuid.UUID `json:"assignedPilotId,omitempty"`
	PriceCents         int64      `json:"priceCents"`
	PayoutCents        int64      `json:"payoutCents"`
	ScheduledStart     *time.Time `json:"scheduledStart,omitempty"`
	ScheduledEnd       *time.Time `json:"scheduledEnd,omitempty"`
	InviteWave         int        `json:"inviteWave"`
	VendorInstructions *string    `json:"vendorInstructions,omitempty"`
	LastStatusChangeAt time.Time  `json:"lastStatusChangeAt"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Total int           `json:"total"`
}

type OfferResponse struct {
	ID          uuid.UUID  `json:"id"`
	JobID       uuid.UUID  `json:"jobId"`
	PilotID     uuid.UUID  `json:"pilotId"`
	Wave        int        `json:"wave"`
	Status      string     `json:"status"`
	Score       float64    `json:"score"`
	RadiusKm    float64    `json:"radiusKm"`
	DistanceKm  float64    `json:"distanceKm"`
	TTLSeconds  int        `json:"ttlSeconds"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type TimelineEventResponse struct {
	ID        uuid.UUID      `json:"id"`
	Kind      string         `json:"kind"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Actor     *string        `json:"actor,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type WaveResponse struct {
	Wave   int             `json:"wave"`
	Offers []OfferResponse `json:"offers"`
}

func ToJobResponse(j repository.Job) JobResponse {
	return JobResponse{
		ID:                 j.ID,
		PropertyID:         j.PropertyID,
		Status:             string(j.Status),
		AssignedPilotID:    j.AssignedPilotID,
		PriceCents:         j.PriceCents,
		PayoutCents:        j.PayoutCents,
		ScheduledStart:     j.ScheduledStart,
		ScheduledEnd:       j.ScheduledEnd,
		InviteWave:         j.InviteWave,
		VendorInstructions: j.VendorInstructions,
		LastStatusChangeAt: j.LastStatusChangeAt,
		CreatedAt:          j.CreatedAt,
		UpdatedAt:          j.UpdatedAt,
	}
}

func ToJobResponses(jobs []repository.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, ToJobResponse(j))
	}
	return out
}

func ToOfferResponse(o repository.JobOffer) OfferResponse {
	return OfferResponse{
		ID:          o.ID,
		JobID:       o.JobID,
		PilotID:     o.PilotID,
		Wave:        o.Wave,
		Status:      string(o.Status),
		Score:       o.Score,
		RadiusKm:    o.RadiusKm,
		DistanceKm:  o.DistanceKm,
		TTLSeconds:  o.TTLSeconds,
		ExpiresAt:   o.ExpiresAt,
		RespondedAt: o.RespondedAt,
		CreatedAt:   o.CreatedAt,
	}
}

func ToOfferResponses(offers []repository.JobOffer) []OfferResponse {
	out := make([]OfferResponse, 0, len(offers))
	for _, o := range offers {
		out = append(out, ToOfferResponse(o))
	}
	return out
}

func ToTimelineResponses(events []repository.TimelineEvent) []TimelineEventResponse {
	out := make([]TimelineEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, TimelineEventResponse{
			ID:        e.ID,
			Kind:      e.Kind,
			Message:   e.Message,
			Metadata:  e.Metadata,
			Actor:     e.Actor,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
