// Package transport defines request and response DTOs for the properties API.
package transport

import (
	"time"

	"skyshot_backend/internal/properties/repository"

	"github.com/google/uuid"
)

type CreatePropertyRequest struct {
	AddressLine1    string   `json:"addressLine1" validate:"required,max=200"`
	City            string   `json:"city" validate:"required,max=120"`
	PostalCode      string   `json:"postalCode" validate:"required,max=20"`
	Country         string   `json:"country" validate:"required,max=120"`
	Latitude        *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude       *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	PlanPriceCents  int64    `json:"planPriceCents" validate:"required,gt=0"`
	PlanPayoutCents int64    `json:"planPayoutCents" validate:"required,gt=0"`
	AccessNotes     *string  `json:"accessNotes,omitempty" validate:"omitempty,max=2000"`
}

type UpdatePropertyRequest struct {
	AddressLine1    *string  `json:"addressLine1,omitempty" validate:"omitempty,max=200"`
	City            *string  `json:"city,omitempty" validate:"omitempty,max=120"`
	PostalCode      *string  `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	Country         *string  `json:"country,omitempty" validate:"omitempty,max=120"`
	Latitude        *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude       *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	PlanPriceCents  *int64   `json:"planPriceCents,omitempty" validate:"omitempty,gt=0"`
	PlanPayoutCents *int64   `json:"planPayoutCents,omitempty" validate:"omitempty,gt=0"`
	AccessNotes     *string  `json:"accessNotes,omitempty" validate:"omitempty,max=2000"`
}

type TransitionPropertyRequest struct {
	Substate string `json:"substate" validate:"required,max=40"`
	Message  string `json:"message,omitempty" validate:"omitempty,max=500"`
}

type ListPropertiesRequest struct {
	Node   string `form:"node" validate:"omitempty,max=20"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

type PropertyResponse struct {
	ID              uuid.UUID `json:"id"`
	VendorID        uuid.UUID `json:"vendorId"`
	AddressLine1    string    `json:"addressLine1"`
	City            string    `json:"city"`
	PostalCode      string    `json:"postalCode"`
	Country         string    `json:"country"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	PlanPriceCents  int64     `json:"planPriceCents"`
	PlanPayoutCents int64     `json:"planPayoutCents"`
	AccessNotes     *string   `json:"accessNotes,omitempty"`
	Node            string    `json:"node"`
	Substate        string    `json:"substate"`
	Percent         int       `json:"percent"`
	LastChangeAt    time.Time `json:"lastChangeAt"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type PropertyListResponse struct {
	Properties []PropertyResponse `json:"properties"`
	Total      int                `json:"total"`
}

type HistoryEntryResponse struct {
	ID        uuid.UUID      `json:"id"`
	Substate  string         `json:"substate"`
	Node      string         `json:"node"`
	Percent   int            `json:"percent"`
	Actor     *string        `json:"actor,omitempty"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type AlertResponse struct {
	ID         uuid.UUID  `json:"id"`
	PropertyID uuid.UUID  `json:"propertyId"`
	Kind       string     `json:"kind"`
	Message    string     `json:"message"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func ToPropertyResponse(p repository.Property) PropertyResponse {
	return PropertyResponse{
		ID:              p.ID,
		VendorID:        p.VendorID,
		AddressLine1:    p.AddressLine1,
		City:            p.City,
		PostalCode:      p.PostalCode,
		Country:         p.Country,
		Latitude:        p.Latitude,
		Longitude:       p.Longitude,
		PlanPriceCents:  p.PlanPriceCents,
		PlanPayoutCents: p.PlanPayoutCents,
		AccessNotes:     p.AccessNotes,
		Node:            string(p.Node),
		Substate:        string(p.Substate),
		Percent:         p.Percent,
		LastChangeAt:    p.LastChangeAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func ToPropertyResponses(props []repository.Property) []PropertyResponse {
	out := make([]PropertyResponse, 0, len(props))
	for _, p := range props {
		out = append(out, ToPropertyResponse(p))
	}
	return out
}

func ToHistoryResponses(entries []repository.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			ID:        e.ID,
			Substate:  string(e.Substate),
			Node:      string(e.Node),
			Percent:   e.Percent,
			Actor:     e.Actor,
			Message:   e.Message,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func ToAlertResponse(a repository.Alert) AlertResponse {
	return AlertResponse{
		ID:         a.ID,
		PropertyID: a.PropertyID,
		Kind:       a.Kind,
		Message:    a.Message,
		ResolvedAt: a.ResolvedAt,
		CreatedAt:  a.CreatedAt,
	}
}

func ToAlertResponses(alerts []repository.Alert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, ToAlertResponse(a))
	}
	return out
}
