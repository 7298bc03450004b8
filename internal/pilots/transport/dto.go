// Package transport defines request and response DTOs for the pilots API.
package transport

import (
	"time"

	"skyshot_backend/internal/pilots/repository"

	"github.com/google/uuid"
)

type RegisterPilotRequest struct {
	Name      string   `json:"name" validate:"required,max=120"`
	Email     string   `json:"email" validate:"required,email,max=254"`
	Phone     string   `json:"phone" validate:"required,max=32"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

type UpdatePilotRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,max=120"`
	Phone     *string  `json:"phone,omitempty" validate:"omitempty,max=32"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

type SetAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

type HeartbeatRequest struct {
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

type ListPilotsRequest struct {
	Approval string `form:"approval" validate:"omitempty,oneof=pending approved rejected suspended"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset   int    `form:"offset" validate:"omitempty,min=0"`
}

type RequestDocumentUploadRequest struct {
	Type        string `json:"type" validate:"required,max=40"`
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,gt=0"`
}

type AttachDocumentRequest struct {
	Type      string     `json:"type" validate:"required,max=40"`
	FileKey   string     `json:"fileKey" validate:"required,max=512"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type ReviewDocumentRequest struct {
	Approved  *bool      `json:"approved" validate:"required"`
	Note      *string    `json:"note,omitempty" validate:"omitempty,max=500"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type PilotResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	Rating          float64    `json:"rating"`
	CompletedJobs   int        `json:"completedJobs"`
	Available       bool       `json:"available"`
	ApprovalStatus  string     `json:"approvalStatus"`
	LastHeartbeatAt *time.Time `json:"lastHeartbeatAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type PilotListResponse struct {
	Pilots []PilotResponse `json:"pilots"`
	Total  int             `json:"total"`
}

type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	PilotID     uuid.UUID  `json:"pilotId"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	FileKey     string     `json:"fileKey"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ReviewNote  *string    `json:"reviewNote,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func ToPilotResponse(p repository.Profile) PilotResponse {
	return PilotResponse{
		ID:              p.ID,
		Name:            p.Name,
		Email:           p.Email,
		Phone:           p.Phone,
		Latitude:        p.Latitude,
		Longitude:       p.Longitude,
		Rating:          p.Rating,
		CompletedJobs:   p.CompletedJobs,
		Available:       p.Available,
		ApprovalStatus:  string(p.Approval),
		LastHeartbeatAt: p.LastHeartbeatAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func ToPilotListResponse(profiles []repository.Profile, total int) PilotListResponse {
	out := make([]PilotResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ToPilotResponse(p))
	}
	return PilotListResponse{Pilots: out, Total: total}
}

func ToDocumentResponse(d repository.Document) DocumentResponse {
	return DocumentResponse{
		ID:         d.ID,
		PilotID:    d.PilotID,
		Type:       string(d.Type),
		Status:     string(d.Status),
		FileKey:    d.FileKey,
		ExpiresAt:  d.ExpiresAt,
		ReviewNote: d.ReviewNote,
		ReviewedAt: d.ReviewedAt,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
