package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quotly/backend/internal/quotes"
)

func (h *httpHandler) handleListUsers(c *gin.Context) {
	result, err := h.directory.List(
		c.Request.Context(),
		queryInt(c, "page", 0),
		queryInt(c, "limit", 0),
		strings.TrimSpace(c.Query("search")),
	)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) handleGetMe(c *gin.Context) {
	actor, err := h.resolveActor(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, actor)
}

func (h *httpHandler) handleDeleteMe(c *gin.Context) {
	actor, err := h.resolveActor(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	snapshot, err := h.directory.DeleteSelf(c.Request.Context(), actor.DiscordID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *httpHandler) handleGetUser(c *gin.Context) {
	user, err := h.directory.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) handleUserQuotes(c *gin.Context) {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	viewer, err := h.resolveViewer(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if _, err := h.directory.Find(c.Request.Context(), c.Param("id")); err != nil {
		h.abortWithError(c, err)
		return
	}

	views, err := h.quotes.ListByUser(
		c.Request.Context(), userID, quotes.ParseSortOrder(c.Query("sort")), viewer)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *httpHandler) handleUserReactions(c *gin.Context) {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	reactions, err := h.quotes.ReactionsByUser(c.Request.Context(), userID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reactions)
}

func (h *httpHandler) handleUserRoles(c *gin.Context) {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	roles, err := h.directory.Roles(c.Request.Context(), userID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (h *httpHandler) handleUserSavedQuotes(c *gin.Context) {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	viewer, err := h.resolveViewer(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	views, err := h.quotes.SavedByUser(c.Request.Context(), userID, viewer)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *httpHandler) handleListRoles(c *gin.Context) {
	roles, err := h.directory.ListRoles(c.Request.Context(), queryInt(c, "page", 0), queryInt(c, "limit", 0))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (h *httpHandler) handleGetRole(c *gin.Context) {
	roleID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	role, err := h.directory.FindRole(c.Request.Context(), roleID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}
