package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/interfaces/http/response"
)

// UserService reads and updates the caller's profile
type UserService interface {
	Me(ctx context.Context, userID string) (*entities.UserProfile, error)
	UpdateKaiapayID(ctx context.Context, userID string, input *entities.UpdateKaiapayIDInput) (*entities.User, error)
}

// UserHandler handles user endpoints
type UserHandler struct {
	service UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Me returns the caller's profile
// GET /api/user/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// UpdateKaiapayID claims a handle for the caller
// PUT /api/user/update-kaiapay-id
func (h *UserHandler) UpdateKaiapayID(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var input entities.UpdateKaiapayIDInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	user, err := h.service.UpdateKaiapayID(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
