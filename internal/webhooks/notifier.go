package webhooks

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/quotly/backend/internal/quotes"
	"go.uber.org/zap"
)

const (
	embedColorWhite        = 0xffffff
	defaultDeliveryTimeout = 10 * time.Second
)

// NotifierConfig describes the delivery settings for quote announcements.
type NotifierConfig struct {
	Store        *Store
	APIBase      string
	Username     string
	AvatarURL    string
	QuoteBaseURL string
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Notifier fans newly created quotes out to every registered webhook. Delivery
// is best effort: a failing target is logged and skipped, never propagated.
type Notifier struct {
	store        *Store
	http         *resty.Client
	username     string
	avatarURL    string
	quoteBaseURL string
	logger       *zap.Logger
}

type embedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url"`
}

type embed struct {
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Description string      `json:"description"`
	Color       int         `json:"color"`
	Footer      embedFooter `json:"footer"`
}

type webhookPayload struct {
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatar_url"`
	Embeds    []embed `json:"embeds"`
}

// NewNotifier constructs the notifier.
func NewNotifier(cfg NotifierConfig) (*Notifier, error) {
	if cfg.Store == nil {
		return nil, errMissingDatabase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		store:        cfg.Store,
		http:         resty.New().SetBaseURL(cfg.APIBase).SetTimeout(timeout),
		username:     cfg.Username,
		avatarURL:    cfg.AvatarURL,
		quoteBaseURL: cfg.QuoteBaseURL,
		logger:       logger,
	}, nil
}

// Announce posts the quote as an embed to every registered webhook. The quote
// is already committed by the time this runs, so failures only lose the
// announcement, never the quote.
func (n *Notifier) Announce(ctx context.Context, view quotes.QuoteView) {
	registrations, err := n.store.ListAll(ctx)
	if err != nil {
		n.logger.Warn("webhook registration lookup failed", zap.Error(err))
		return
	}
	if len(registrations) == 0 {
		return
	}

	payload := webhookPayload{
		Username:  n.username,
		AvatarURL: n.avatarURL,
		Embeds: []embed{{
			Title:       n.username,
			URL:         fmt.Sprintf("%s/quote/%d", n.quoteBaseURL, view.QuoteID),
			Description: view.Quote,
			Color:       embedColorWhite,
			Footer: embedFooter{
				Text: view.User.DisplayName,
				IconURL: fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s",
					view.User.DiscordID, view.User.AvatarURL),
			},
		}},
	}

	for _, registration := range registrations {
		target := fmt.Sprintf("/webhooks/%s/%s", registration.WebhookID, registration.WebhookToken)
		resp, err := n.http.R().
			SetContext(ctx).
			SetBody(payload).
			Post(target)
		if err != nil {
			n.logger.Warn("webhook delivery failed",
				zap.String("webhook_id", registration.WebhookID),
				zap.Error(err))
			continue
		}
		if resp.IsError() {
			n.logger.Warn("webhook delivery rejected",
				zap.String("webhook_id", registration.WebhookID),
				zap.Int("status", resp.StatusCode()))
		}
	}
}
