package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "event-board.backend/internal/domain/errors"
	"event-board.backend/pkg/logger"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Domain sentinels are mapped to their HTTP
// representation; anything else is reported as an internal error.
func Error(c *gin.Context, err error) {
	appErr := FromError(err)
	if appErr.Status >= 500 {
		logger.Error(c.Request.Context(), "Request failed", zap.Error(err))
	}

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// FromError converts err into an AppError.
func FromError(err error) *domainerrors.AppError {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case domainerrors.IsTokenError(err):
		return domainerrors.InvalidToken(err)
	case errors.Is(err, domainerrors.ErrSessionInvalid), errors.Is(err, domainerrors.ErrUnauthorized):
		return domainerrors.Unauthorized("authentication required")
	case errors.Is(err, domainerrors.ErrInvalidInput):
		return domainerrors.BadRequest("invalid input")
	case errors.Is(err, domainerrors.ErrNotFound):
		return domainerrors.NotFound("resource not found")
	case errors.Is(err, domainerrors.ErrRateLimited):
		return domainerrors.TooManyRequests("too many requests")
	case errors.Is(err, domainerrors.ErrDelivery):
		return domainerrors.ServiceUnavailable("could not send sign-in link, try again later", err)
	case errors.Is(err, domainerrors.ErrConflict), errors.Is(err, domainerrors.ErrAlreadyExists):
		return domainerrors.Conflict("conflict")
	default:
		return domainerrors.InternalError(err)
	}
}
