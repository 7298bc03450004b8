// Package handler exposes the dispatch HTTP API.
package handler

import (
	"net/http"

	"skyshot_backend/internal/dispatch/domain"
	"skyshot_backend/internal/dispatch/repository"
	"skyshot_backend/internal/dispatch/service"
	"skyshot_backend/internal/dispatch/transport"
	"skyshot_backend/platform/httpkit"
	"skyshot_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// Handler handles job management requests for vendors and admins.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new dispatch handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers job management routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.GET("/by-property/:propertyId", h.GetByProperty)
	rg.POST("/:id/transition", h.Transition)
	rg.POST("/:id/schedule", h.Schedule)
	rg.POST("/:id/waves", h.InviteNextWave)
	rg.POST("/:id/cancel", h.Cancel)
	rg.GET("/:id/offers", h.ListOffers)
	rg.GET("/:id/timeline", h.Timeline)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	job, created, err := h.svc.EnsureJob(c.Request.Context(), req.PropertyID, identity.UserID().String(), req.AutoInvite)
	if httpkit.HandleError(c, err) {
		return
	}
	if created {
		httpkit.Created(c, transport.ToJobResponse(job))
		return
	}
	httpkit.OK(c, transport.ToJobResponse(job))
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := repository.ListJobsParams{Limit: req.Limit, Offset: req.Offset}
	if req.Status != "" {
		status := domain.JobStatus(req.Status)
		params.Status = &status
	}

	jobs, total, err := h.svc.ListJobs(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.JobListResponse{Jobs: transport.ToJobResponses(jobs), Total: total})
}

func (h *Handler) GetByID(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	job, err := h.svc.GetJob(c.Request.Context(), jobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToJobResponse(job))
}

func (h *Handler) GetByProperty(c *gin.Context) {
	propertyID, ok := pathUUID(c, "propertyId")
	if !ok {
		return
	}
	job, err := h.svc.GetJobByProperty(c.Request.Context(), propertyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToJobResponse(job))
}

func (h *Handler) Transition(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req transport.TransitionJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	job, err := h.svc.TransitionJob(c.Request.Context(), jobID, domain.JobStatus(req.Status), service.TransitionOpts{
		Actor:   identity.UserID().String(),
		Message: req.Message,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToJobResponse(job))
}

func (h *Handler) Schedule(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req transport.ScheduleJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	job, err := h.svc.ScheduleJob(c.Request.Context(), jobID, req.Start, req.End, identity.UserID().String())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToJobResponse(job))
}

func (h *Handler) InviteNextWave(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	offers, err := h.svc.InviteNextWave(c.Request.Context(), jobID, identity.UserID().String())
	if httpkit.HandleError(c, err) {
		return
	}

	wave := 0
	if len(offers) > 0 {
		wave = offers[0].Wave
	}
	httpkit.OK(c, transport.WaveResponse{Wave: wave, Offers: transport.ToOfferResponses(offers)})
}

func (h *Handler) Cancel(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	job, err := h.svc.TransitionJob(c.Request.Context(), jobID, domain.JobCanceled, service.TransitionOpts{
		Actor:   identity.UserID().String(),
		Message: "job canceled",
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToJobResponse(job))
}

func (h *Handler) ListOffers(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	offers, err := h.svc.ListOffers(c.Request.Context(), jobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToOfferResponses(offers))
}

func (h *Handler) Timeline(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	events, err := h.svc.ListTimeline(c.Request.Context(), jobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTimelineResponses(events))
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
