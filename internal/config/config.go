package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "QUOTLY"
	defaultHTTPAddress     = "0.0.0.0:3560"
	defaultDatabasePath    = "quotly.db"
	defaultLogLevel        = "info"
	defaultDiscordAPIBase  = "https://discord.com/api/v10"
	defaultWebhookUsername = "Quotly"
	defaultWebhookAvatar   = "https://quotly.eu/quotly512.png"
	defaultQuoteBaseURL    = "https://quotly.eu"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress         string
	DatabasePath        string
	LogLevel            string
	SessionSigningKey   string
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string
	WebhookRedirectURI  string
	DiscordAPIBase      string
	WebhookUsername     string
	WebhookAvatarURL    string
	QuoteBaseURL        string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("discord.api_base", defaultDiscordAPIBase)
	configViper.SetDefault("webhook.username", defaultWebhookUsername)
	configViper.SetDefault("webhook.avatar_url", defaultWebhookAvatar)
	configViper.SetDefault("quote.base_url", defaultQuoteBaseURL)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:         configViper.GetString("http.address"),
		DatabasePath:        configViper.GetString("database.path"),
		LogLevel:            configViper.GetString("log.level"),
		SessionSigningKey:   configViper.GetString("session.signing_secret"),
		DiscordClientID:     configViper.GetString("discord.client_id"),
		DiscordClientSecret: configViper.GetString("discord.client_secret"),
		DiscordRedirectURI:  configViper.GetString("discord.redirect_uri"),
		WebhookRedirectURI:  configViper.GetString("discord.webhook_redirect_uri"),
		DiscordAPIBase:      configViper.GetString("discord.api_base"),
		WebhookUsername:     configViper.GetString("webhook.username"),
		WebhookAvatarURL:    configViper.GetString("webhook.avatar_url"),
		QuoteBaseURL:        configViper.GetString("quote.base_url"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SessionSigningKey) == "" {
		return fmt.Errorf("session.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.DiscordClientID) == "" {
		return fmt.Errorf("discord.client_id is required")
	}
	if strings.TrimSpace(c.DiscordClientSecret) == "" {
		return fmt.Errorf("discord.client_secret is required")
	}
	if strings.TrimSpace(c.DiscordRedirectURI) == "" {
		return fmt.Errorf("discord.redirect_uri is required")
	}
	return nil
}
