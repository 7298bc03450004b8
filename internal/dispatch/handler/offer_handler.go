package handler

import (
	"skyshot_backend/internal/dispatch/service"
	"skyshot_backend/internal/dispatch/transport"
	"skyshot_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// OfferHandler handles the pilot-facing offer routes.
type OfferHandler struct {
	svc *service.Service
}

// NewOfferHandler creates a new pilot offer handler.
func NewOfferHandler(svc *service.Service) *OfferHandler {
	return &OfferHandler{svc: svc}
}

// RegisterRoutes registers pilot offer routes.
func (h *OfferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListMine)
	rg.POST("/:id/accept", h.Accept)
	rg.POST("/:id/decline", h.Decline)
}

func (h *OfferHandler) ListMine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	offers, err := h.svc.ListPilotOffers(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToOfferResponses(offers))
}

func (h *OfferHandler) Accept(c *gin.Context) {
	offerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	offer, err := h.svc.AcceptOffer(c.Request.Context(), offerID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToOfferResponse(offer))
}

func (h *OfferHandler) Decline(c *gin.Context) {
	offerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	offer, err := h.svc.DeclineOffer(c.Request.Context(), offerID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToOfferResponse(offer))
}
