package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/interfaces/http/response"
)

// PaymentService creates and resolves payment requests
type PaymentService interface {
	Create(ctx context.Context, userID string, input *entities.CreatePaymentInput) (*entities.CreatePaymentResponse, error)
	GetByCode(ctx context.Context, code string) (*entities.PaymentDetail, error)
}

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	service PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(service PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// CreatePayment creates a shareable payment request
// POST /api/payment/create
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var input entities.CreatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.service.Create(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// GetPayment resolves a payment code
// GET /api/payment/:code
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	code := c.Param("code")
	if len(code) != entities.PaymentCodeLength {
		response.Error(c, domainerrors.BadRequest("invalid payment code"))
		return
	}

	payment, err := h.service.GetByCode(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}
