package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/interfaces/http/response"
)

// FeeDelegationService co-signs and broadcasts fee delegated transactions
type FeeDelegationService interface {
	Relay(ctx context.Context, userSignedTx string) (*entities.RelayResult, error)
	Balances(ctx context.Context) ([]entities.FeePayerBalance, error)
}

// FeeDelegationHandler handles fee delegation endpoints
type FeeDelegationHandler struct {
	service FeeDelegationService
}

// NewFeeDelegationHandler creates a new fee delegation handler
func NewFeeDelegationHandler(service FeeDelegationService) *FeeDelegationHandler {
	return &FeeDelegationHandler{service: service}
}

// Relay signs as fee payer and broadcasts
// POST /api/fee-delegation/relay
func (h *FeeDelegationHandler) Relay(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	var input entities.RelayInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.service.Relay(c.Request.Context(), input.UserSignedTx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Balance lists fee payer balances
// GET /api/fee-delegation/balance
func (h *FeeDelegationHandler) Balance(c *gin.Context) {
	balances, err := h.service.Balances(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"balances": balances})
}
