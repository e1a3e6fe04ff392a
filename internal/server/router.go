package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quotly/backend/internal/identity"
	"github.com/quotly/backend/internal/quotes"
	"github.com/quotly/backend/internal/users"
	"github.com/quotly/backend/internal/webhooks"
	"go.uber.org/zap"
)

const (
	requestIDContextKey = "quotly_request_id"
	requestIDHeader     = "X-Request-ID"
)

var (
	errMissingIdentityGateway = errors.New("identity gateway dependency required")
	errMissingSessionCodec    = errors.New("session codec dependency required")
	errMissingDirectory       = errors.New("user directory dependency required")
	errMissingQuoteService    = errors.New("quote service dependency required")
	errMissingWebhookStore    = errors.New("webhook store dependency required")
	errInvalidRequest         = errors.New("invalid request")
	errMissingToken           = errors.New("token missing")
)

// IdentityGateway is the adapter to the upstream identity provider.
type IdentityGateway interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (identity.AccessResponse, error)
	FetchProfile(ctx context.Context, accessToken string) (identity.Profile, error)
}

// SessionCodec signs and verifies self-contained session tokens.
type SessionCodec interface {
	Issue(access identity.AccessResponse) (string, error)
	Verify(token string) (identity.AccessResponse, error)
}

// QuoteNotifier announces created quotes to registered webhooks.
type QuoteNotifier interface {
	Announce(ctx context.Context, view quotes.QuoteView)
}

// Dependencies wires the HTTP surface to the core services.
type Dependencies struct {
	Identity           IdentityGateway
	Sessions           SessionCodec
	Directory          *users.Directory
	Quotes             *quotes.Service
	Webhooks           *webhooks.Store
	Notifier           QuoteNotifier
	RedirectURI        string
	WebhookRedirectURI string
	Logger             *zap.Logger
}

// NewHTTPHandler builds the versioned API router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Identity == nil {
		return nil, errMissingIdentityGateway
	}
	if deps.Sessions == nil {
		return nil, errMissingSessionCodec
	}
	if deps.Directory == nil {
		return nil, errMissingDirectory
	}
	if deps.Quotes == nil {
		return nil, errMissingQuoteService
	}
	if deps.Webhooks == nil {
		return nil, errMissingWebhookStore
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		identity:           deps.Identity,
		sessions:           deps.Sessions,
		directory:          deps.Directory,
		quotes:             deps.Quotes,
		webhooks:           deps.Webhooks,
		notifier:           deps.Notifier,
		redirectURI:        deps.RedirectURI,
		webhookRedirectURI: deps.WebhookRedirectURI,
		logger:             logger,
	}

	v1 := router.Group("/v1")
	v1.POST("/authorize", handler.handleAuthorize)

	v1.GET("/quotes", handler.handleListQuotes)
	v1.POST("/quotes/create", handler.handleCreateQuote)
	v1.GET("/quotes/top", handler.handleTopQuotes)
	v1.GET("/quotes/:id", handler.handleGetQuote)
	v1.DELETE("/quotes/:id", handler.handleDeleteQuote)
	v1.GET("/quotes/:id/reactions", handler.handleQuoteReactions)
	v1.GET("/quotes/:id/comments", handler.handleQuoteComments)
	v1.POST("/quotes/:id/comments", handler.handleCreateComment)
	v1.POST("/quotes/:id/react", handler.handleToggleReaction)
	v1.POST("/quotes/:id/save", handler.handleToggleSave)
	v1.GET("/quotes/:id/saved", handler.handleIsQuoteSaved)

	v1.GET("/users", handler.handleListUsers)
	v1.GET("/users/me", handler.handleGetMe)
	v1.DELETE("/users/me", handler.handleDeleteMe)
	v1.GET("/users/:id", handler.handleGetUser)
	v1.GET("/users/:id/quotes", handler.handleUserQuotes)
	v1.GET("/users/:id/reactions", handler.handleUserReactions)
	v1.GET("/users/:id/roles", handler.handleUserRoles)
	v1.GET("/users/:id/saved-quotes", handler.handleUserSavedQuotes)

	v1.GET("/roles", handler.handleListRoles)
	v1.GET("/roles/:id", handler.handleGetRole)

	v1.GET("/webhooks", handler.handleListWebhooks)
	v1.POST("/webhooks", handler.handleCreateWebhook)
	v1.DELETE("/webhooks/:id", handler.handleDeleteWebhook)

	return router, nil
}

type httpHandler struct {
	identity           IdentityGateway
	sessions           SessionCodec
	directory          *users.Directory
	quotes             *quotes.Service
	webhooks           *webhooks.Store
	notifier           QuoteNotifier
	redirectURI        string
	webhookRedirectURI string
	logger             *zap.Logger
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

func (h *httpHandler) requestLogger(c *gin.Context) *zap.Logger {
	if requestID := c.GetString(requestIDContextKey); requestID != "" {
		return h.logger.With(zap.String("request_id", requestID))
	}
	return h.logger
}

// bearerToken extracts the session token from the Authorization header or the
// token query/form parameter.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token
		}
	}
	if token := strings.TrimSpace(c.Query("token")); token != "" {
		return token
	}
	return strings.TrimSpace(c.PostForm("token"))
}

// resolveActor authenticates a mutating request: token, upstream profile and
// local user must all resolve before anything is written.
func (h *httpHandler) resolveActor(c *gin.Context) (users.User, error) {
	token := bearerToken(c)
	if token == "" {
		return users.User{}, errMissingToken
	}
	access, err := h.sessions.Verify(token)
	if err != nil {
		return users.User{}, err
	}
	profile, err := h.identity.FetchProfile(c.Request.Context(), access.AccessToken)
	if err != nil {
		return users.User{}, err
	}
	return h.directory.FindByDiscordID(c.Request.Context(), profile.ID)
}

// resolveViewer authenticates a read request when a token is present. A
// missing token yields the anonymous view; a token holder who never
// registered still gets the authenticated shape with no interactions.
func (h *httpHandler) resolveViewer(c *gin.Context) (*users.User, error) {
	token := bearerToken(c)
	if token == "" {
		return nil, nil
	}
	access, err := h.sessions.Verify(token)
	if err != nil {
		return nil, err
	}
	profile, err := h.identity.FetchProfile(c.Request.Context(), access.AccessToken)
	if err != nil {
		return nil, err
	}
	viewer, err := h.directory.FindByDiscordID(c.Request.Context(), profile.ID)
	if errors.Is(err, users.ErrUserNotFound) {
		return &users.User{DiscordID: profile.ID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &viewer, nil
}

// handleAuthorize exchanges a provider authorization code for a session
// token, reconciling the local user record with the fresh profile.
func (h *httpHandler) handleAuthorize(c *gin.Context) {
	code := strings.TrimSpace(c.PostForm("code"))
	if code == "" {
		h.abortWithError(c, errInvalidRequest)
		return
	}

	access, err := h.identity.ExchangeCode(c.Request.Context(), code, h.redirectURI)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	profile, err := h.identity.FetchProfile(c.Request.Context(), access.AccessToken)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if _, err := h.directory.ResolveOrCreate(c.Request.Context(), profile); err != nil {
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
