package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quotly/backend/internal/quotes"
)

func parseUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, errInvalidRequest
	}
	return uint(value), nil
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func (h *httpHandler) handleListQuotes(c *gin.Context) {
	viewer, err := h.resolveViewer(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	query := quotes.ListQuery{
		Page:   queryInt(c, "page", 0),
		Limit:  queryInt(c, "limit", 0),
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   quotes.ParseSortOrder(c.Query("sort")),
	}
	views, err := h.quotes.List(c.Request.Context(), query, viewer)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *httpHandler) handleCreateQuote(c *gin.Context) {
	actor, err := h.resolveActor(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	view, err := h.quotes.Create(c.Request.Context(), actor, c.PostForm("quote"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	// The quote is committed; announcement failures are the notifier's
	// problem, not the caller's.
	if sendWebhook, _ := strconv.ParseBool(c.PostForm("sendWebhook")); sendWebhook && h.notifier != nil {
		h.notifier.Announce(c.Request.Context(), view)
	}

	c.JSON(http.StatusOK, view)
}

func (h *httpHandler) handleTopQuotes(c *gin.Context) {
	viewer, err := h.resolveViewer(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	views, err := h.quotes.Top(c.Request.Context(), queryInt(c, "limit", 10), viewer)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *httpHandler) handleGetQuote(c *gin.Context) {
	quoteID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	viewer, err := h.resolveViewer(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	view, err := h.quotes.Get(c.Request.Context(), quoteID, viewer)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *httpHandler) handleDeleteQuote(c *gin.Context) {
	quoteID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	actor, err := h.resolveActor(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	if err := h.quotes.Delete(c.Request.Context(), actor, quoteID); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleQuoteReactions(c *gin.Context) {
	quoteID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	reactions, err := h.quotes.Reactions(c.Request.Context(), quoteID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reactions)
}

func (h *httpHandler) handleQuoteComments(c *gin.Context) {
	quoteID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	comments, err := h.quotes.Comments(c.Request.Context(), quoteID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *httpHandler) handleCreateComment(c *gin.Context) {
	quoteID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	actor, err := h.resolveActor(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	var parent *uint
	if raw := strings.TrimSpace(c.PostForm("parent")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			h.abortWithError(c, errInvalidRequest)
			return
		}
		parentID := uint(parsed)
		parent = &parentID
	}

	comment, err := h.quotes.AddComment(c.Request.Context(), actor, quoteID, c.PostForm("comment"), parent)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *httpHandler) handleToggleReaction(c *gin.Context) {
	quoteID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	actor, err := h.resolveActor(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	kind, err := quotes.ParseReactionKind(c.PostForm("reaction"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	active, err := h.quotes.ToggleReaction(c.Request.Context(), actor, quoteID, kind)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, active)
}

func (h *httpHandler) handleToggleSave(c *gin.Context) {
	quoteID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	actor, err := h.resolveActor(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	saved, err := h.quotes.ToggleSave(c.Request.Context(), actor, quoteID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *httpHandler) handleIsQuoteSaved(c *gin.Context) {
	quoteID, err := parseUintParam(c, "id")
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	actor, err := h.resolveActor(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	saved, err := h.quotes.IsSaved(c.Request.Context(), actor, quoteID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
