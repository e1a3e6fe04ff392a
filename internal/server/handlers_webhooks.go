package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quotly/backend/internal/webhooks"
)

func (h *httpHandler) handleListWebhooks(c *gin.Context) {
	actor, err := h.resolveActor(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	registrations, err := h.webhooks.ListByUser(c.Request.Context(), actor.UserID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, registrations)
}

// handleCreateWebhook runs the secondary authorization flow: the exchanged
// token response carries a webhook descriptor, which is registered for the
// caller and embedded into the issued session token.
func (h *httpHandler) handleCreateWebhook(c *gin.Context) {
	code := strings.TrimSpace(c.PostForm("code"))
	if code == "" {
		h.abortWithError(c, errInvalidRequest)
		return
	}

	access, err := h.identity.ExchangeCode(c.Request.Context(), code, h.webhookRedirectURI)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if access.Webhook == nil {
		h.abortWithError(c, webhooks.ErrRegistrationNotFound)
		return
	}

	profile, err := h.identity.FetchProfile(c.Request.Context(), access.AccessToken)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	actor, err := h.directory.FindByDiscordID(c.Request.Context(), profile.ID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	if _, err := h.webhooks.Register(c.Request.Context(), actor.UserID, *access.Webhook); err != nil {
		h.abortWithError(c, err)
		return
	}

	token, err := h.sessions.Issue(access)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *httpHandler) handleDeleteWebhook(c *gin.Context) {
	registrationID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	actor, err := h.resolveActor(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	if err := h.webhooks.Delete(c.Request.Context(), registrationID, actor.UserID); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
