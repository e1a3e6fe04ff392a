package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quotly/backend/internal/identity"
	"github.com/quotly/backend/internal/quotes"
	"github.com/quotly/backend/internal/session"
	"github.com/quotly/backend/internal/users"
	"github.com/quotly/backend/internal/webhooks"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// abortWithError maps a domain failure onto its HTTP status. Unexpected
// failures are logged at error level with the request id, expected domain
// outcomes at debug.
func (h *httpHandler) abortWithError(c *gin.Context, err error) {
	status, code := statusFor(err)
	logger := h.requestLogger(c)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("code", code), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("code", code), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrInvalidSession), errors.Is(err, errMissingToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, quotes.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, users.ErrUserNotFound),
		errors.Is(err, users.ErrRoleNotFound),
		errors.Is(err, quotes.ErrQuoteNotFound),
		errors.Is(err, quotes.ErrCommentNotFound),
		errors.Is(err, webhooks.ErrRegistrationNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict, "conflict"
	case errors.Is(err, identity.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, quotes.ErrInvalidReaction),
		errors.Is(err, quotes.ErrEmptyQuote),
		errors.Is(err, quotes.ErrEmptyComment),
		errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
