package response

import (
	"github.com/gin-gonic/gin"
	domainerrors "kaiapay.backend/internal/domain/errors"
)

var exposeInternalErrors = false

// SetExposeInternalErrors toggles whether 5xx responses carry the underlying error text.
// Only enabled in development.
func SetExposeInternalErrors(enabled bool) {
	exposeInternalErrors = enabled
}

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromError(err)
	if appErr == nil {
		appErr = domainerrors.InternalServerError("internal server error")
	}

	message := appErr.Message
	if appErr.Status >= 500 && exposeInternalErrors && appErr.Err != nil {
		message = appErr.Err.Error()
	}

	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": message,
	})
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
