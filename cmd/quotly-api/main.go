package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quotly/backend/internal/config"
	"github.com/quotly/backend/internal/database"
	"github.com/quotly/backend/internal/identity"
	"github.com/quotly/backend/internal/logging"
	"github.com/quotly/backend/internal/quotes"
	"github.com/quotly/backend/internal/server"
	"github.com/quotly/backend/internal/session"
	"github.com/quotly/backend/internal/users"
	"github.com/quotly/backend/internal/webhooks"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "quotly-api",
		Short: "Quotly quote-sharing backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("discord-client-id", defaults.GetString("discord.client_id"), "Discord OAuth client ID")
	cmd.PersistentFlags().String("discord-redirect-uri", defaults.GetString("discord.redirect_uri"), "Discord OAuth redirect URI")
	cmd.PersistentFlags().String("discord-webhook-redirect-uri", defaults.GetString("discord.webhook_redirect_uri"), "Discord webhook authorization redirect URI")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "discord.client_id", "discord-client-id")
	bindFlag(cmd, "discord.redirect_uri", "discord-redirect-uri")
	bindFlag(cmd, "discord.webhook_redirect_uri", "discord-webhook-redirect-uri")
	bindFlag(cmd, "session.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	codec, err := session.NewCodec([]byte(appConfig.SessionSigningKey))
	if err != nil {
		return err
	}

	identityClient := identity.NewClient(identity.ClientConfig{
		APIBase:      appConfig.DiscordAPIBase,
		ClientID:     appConfig.DiscordClientID,
		ClientSecret: appConfig.DiscordClientSecret,
	})

	directory, err := users.NewDirectory(users.DirectoryConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	quoteService, err := quotes.NewService(quotes.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Roles:    directory,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	webhookStore, err := webhooks.NewStore(db)
	if err != nil {
		return err
	}
	notifier, err := webhooks.NewNotifier(webhooks.NotifierConfig{
		Store:        webhookStore,
		APIBase:      appConfig.DiscordAPIBase,
		Username:     appConfig.WebhookUsername,
		AvatarURL:    appConfig.WebhookAvatarURL,
		QuoteBaseURL: appConfig.QuoteBaseURL,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Identity:           identityClient,
		Sessions:           codec,
		Directory:          directory,
		Quotes:             quoteService,
		Webhooks:           webhookStore,
		Notifier:           notifier,
		RedirectURI:        appConfig.DiscordRedirectURI,
		WebhookRedirectURI: appConfig.WebhookRedirectURI,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
