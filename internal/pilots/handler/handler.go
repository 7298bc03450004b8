// Package handler exposes the pilots HTTP API.
package handler

import (
	"context"
	"net/http"

	"skyshot_backend/internal/pilots/domain"
	"skyshot_backend/internal/pilots/repository"
	"skyshot_backend/internal/pilots/service"
	"skyshot_backend/internal/pilots/transport"
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

// Handler handles HTTP requests for pilot profiles and documents.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new pilots handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the pilot-facing routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Register)
	rg.GET("/me", h.Me)
	rg.PUT("/me", h.UpdateMe)
	rg.PUT("/me/availability", h.SetAvailability)
	rg.POST("/me/heartbeat", h.Heartbeat)
	rg.GET("/me/documents", h.ListMyDocuments)
	rg.POST("/me/documents/upload-url", h.RequestDocumentUpload)
	rg.POST("/me/documents", h.AttachDocument)
}

// RegisterAdminRoutes registers the operator routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/approve", h.Approve)
	rg.POST("/:id/reject", h.Reject)
	rg.POST("/:id/suspend", h.Suspend)
	rg.GET("/:id/documents", h.ListDocuments)
	rg.GET("/documents/:documentId/download-url", h.DocumentDownloadURL)
	rg.POST("/documents/:documentId/review", h.ReviewDocument)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterPilotRequest
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

	profile, err := h.svc.Register(c.Request.Context(), service.RegisterParams{
		UserID:    identity.UserID(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToPilotResponse(profile))
}

func (h *Handler) Me(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	profile, err := h.svc.Get(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPilotResponse(profile))
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req transport.UpdatePilotRequest
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

	profile, err := h.svc.UpdateProfile(c.Request.Context(), identity.UserID(), repository.UpdateProfileParams{
		Name:      req.Name,
		Phone:     req.Phone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPilotResponse(profile))
}

func (h *Handler) SetAvailability(c *gin.Context) {
	var req transport.SetAvailabilityRequest
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

	profile, err := h.svc.SetAvailability(c.Request.Context(), identity.UserID(), *req.Available)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPilotResponse(profile))
}

func (h *Handler) Heartbeat(c *gin.Context) {
	var req transport.HeartbeatRequest
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

	if err := h.svc.Heartbeat(c.Request.Context(), identity.UserID(), req.Latitude, req.Longitude); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListPilotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := repository.ListParams{Limit: req.Limit, Offset: req.Offset}
	if req.Approval != "" {
		approval := domain.ApprovalStatus(req.Approval)
		params.Approval = &approval
	}

	profiles, total, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPilotListResponse(profiles, total))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	profile, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPilotResponse(profile))
}

func (h *Handler) Approve(c *gin.Context) {
	h.setApproval(c, h.svc.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.setApproval(c, h.svc.Reject)
}

func (h *Handler) Suspend(c *gin.Context) {
	h.setApproval(c, h.svc.Suspend)
}

func (h *Handler) setApproval(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (repository.Profile, error)) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	profile, err := fn(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPilotResponse(profile))
}

func (h *Handler) RequestDocumentUpload(c *gin.Context) {
	var req transport.RequestDocumentUploadRequest
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

	upload, err := h.svc.RequestDocumentUpload(c.Request.Context(), identity.UserID(), domain.DocumentType(req.Type), req.FileName, req.ContentType, req.SizeBytes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, upload)
}

func (h *Handler) AttachDocument(c *gin.Context) {
	var req transport.AttachDocumentRequest
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

	doc, err := h.svc.AttachDocument(c.Request.Context(), identity.UserID(), domain.DocumentType(req.Type), req.FileKey, req.ExpiresAt)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToDocumentResponse(doc))
}

func (h *Handler) ListMyDocuments(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	h.listDocuments(c, identity.UserID())
}

func (h *Handler) ListDocuments(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	h.listDocuments(c, id)
}

func (h *Handler) listDocuments(c *gin.Context, pilotID uuid.UUID) {
	docs, err := h.svc.ListDocuments(c.Request.Context(), pilotID)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, transport.ToDocumentResponse(d))
	}
	httpkit.OK(c, gin.H{"documents": out})
}

func (h *Handler) DocumentDownloadURL(c *gin.Context) {
	id, ok := pathUUID(c, "documentId")
	if !ok {
		return
	}
	url, err := h.svc.DocumentDownloadURL(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"downloadUrl": url})
}

func (h *Handler) ReviewDocument(c *gin.Context) {
	id, ok := pathUUID(c, "documentId")
	if !ok {
		return
	}

	var req transport.ReviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	doc, err := h.svc.ReviewDocument(c.Request.Context(), id, *req.Approved, req.Note, req.ExpiresAt)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToDocumentResponse(doc))
}
