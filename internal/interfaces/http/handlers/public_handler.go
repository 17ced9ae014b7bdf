package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/interfaces/http/response"
)

// PotService reads on-chain savings pots
type PotService interface {
	PotInfo(ctx context.Context, address string) (*entities.PotInfo, error)
}

// PublicHandler handles unauthenticated read endpoints
type PublicHandler struct {
	pots PotService
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(pots PotService) *PublicHandler {
	return &PublicHandler{pots: pots}
}

// PotInfo returns the savings pot of an address
// GET /api/public/pot-info?address=
func (h *PublicHandler) PotInfo(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		response.Error(c, domainerrors.BadRequest("address is required"))
		return
	}

	info, err := h.pots.PotInfo(c.Request.Context(), address)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, info)
}
