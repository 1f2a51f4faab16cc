package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/spf13/cobra"
	"github.com/welldanyogia/webrana-unibox-backend/internal/api"
	"github.com/welldanyogia/webrana-unibox-backend/internal/api/handlers"
	"github.com/welldanyogia/webrana-unibox-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-unibox-backend/internal/auth"
	"github.com/welldanyogia/webrana-unibox-backend/internal/channels"
	"github.com/welldanyogia/webrana-unibox-backend/internal/config"
	"github.com/welldanyogia/webrana-unibox-backend/internal/database"
	"github.com/welldanyogia/webrana-unibox-backend/internal/events"
	"github.com/welldanyogia/webrana-unibox-backend/internal/logger"
	"github.com/welldanyogia/webrana-unibox-backend/internal/repository"
	"github.com/welldanyogia/webrana-unibox-backend/internal/services"
	"github.com/welldanyogia/webrana-unibox-backend/internal/smtp"
	"github.com/welldanyogia/webrana-unibox-backend/internal/storage"
	"github.com/welldanyogia/webrana-unibox-backend/internal/webhook"
	"github.com/welldanyogia/webrana-unibox-backend/internal/websocket"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout      = 15 * time.Second
	limiterCleanupPeriod = time.Minute
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	secLogger := logger.NewSecurityLogger()

	log.Info("starting unibox backend")
	cfg.LogConfig(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(database.Options{
		URL:        cfg.DatabaseURL,
		Production: cfg.IsProduction(),
		Debug:      cfg.LogLevel == "debug",
	})
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Error("failed to run migrations", slog.Any("error", err))
		return err
	}

	fileStorage, err := storage.NewLocalStorage(cfg.AttachmentStoragePath)
	if err != nil {
		log.Error("failed to initialize attachment storage", slog.Any("error", err))
		return err
	}

	publisher, eventsProbe, closeEvents := connectEvents(ctx, cfg, log)
	defer closeEvents()

	hub := websocket.NewHub(log)

	// Repositories
	contactRepo := repository.NewContactRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// Services
	contacts := services.NewContactResolver(contactRepo, log)
	store := services.NewMessageStore(services.MessageStoreDeps{
		Contacts:   contacts,
		Threads:    services.NewThreadResolver(threadRepo, log),
		ThreadRepo: threadRepo,
		Messages:   messageRepo,
		Analytics:  analyticsRepo,
		Notifier:   hub,
		Publisher:  publisher,
		Logger:     log,
	})

	twilioCfg := channels.TwilioConfig{
		AccountSID:        cfg.TwilioAccountSID,
		AuthToken:         cfg.TwilioAuthToken,
		PhoneNumber:       cfg.TwilioPhoneNumber,
		WhatsAppNumber:    cfg.TwilioWhatsAppNumber,
		StatusCallbackURL: cfg.TwilioStatusCallbackURL,
	}
	emailCfg := channels.EmailConfig{APIKey: cfg.ResendAPIKey, FromEmail: cfg.ResendFromEmail}

	var twilioAPI channels.TwilioAPI
	var accounts services.ProviderAccountService
	if cfg.TwilioConfigured() {
		client, err := channels.NewTwilioClient(twilioCfg)
		if err != nil {
			return err
		}
		twilioAPI = client
		accounts = services.NewProviderAccountService(client, cfg.TwilioWhatsAppNumber, log)
	}
	var emailAPI channels.EmailAPI
	if emailCfg.Configured() {
		client, err := channels.NewResendClient(emailCfg)
		if err != nil {
			return err
		}
		emailAPI = client
	}

	factory := channels.NewFactory(twilioCfg, twilioAPI, emailCfg, emailAPI)
	outbound := services.NewOutboundService(factory, store, services.SenderAddresses{
		SMS:      cfg.TwilioPhoneNumber,
		WhatsApp: cfg.TwilioWhatsAppNumber,
		Email:    cfg.ResendFromEmail,
	}, log)

	var signatures handlers.SignatureValidator
	if cfg.WebhookValidateSignature {
		signatures = webhook.NewSignatureValidator(cfg.TwilioAuthToken, cfg.WebhookBaseURL)
	} else {
		log.Warn("webhook signature validation is disabled")
	}

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst)

	probes := map[string]handlers.Probe{}
	if eventsProbe != nil {
		probes["events"] = eventsProbe
	}

	router := api.NewRouter(&api.RouterConfig{
		DB:             db,
		FileStorage:    fileStorage,
		Logger:         log,
		SecurityLogger: secLogger,
		Outbound:       outbound,
		Contacts:       contacts,
		Accounts:       accounts,
		Webhooks:       webhook.NewProcessor(store, log),
		Signatures:     signatures,
		Hub:            hub,
		Channels:       factory.ConfiguredChannels(),
		HealthProbes:   probes,
		APIKey:         cfg.APIKey,
		AllowedOrigins: cfg.CORSOrigins(),
		Production:     cfg.IsProduction(),
		Session:        auth.Config{Secret: cfg.AuthSecret, Issuer: cfg.AuthBaseURL},
		RateLimiter:    limiter,
		MetricsEnabled: cfg.MetricsEnabled,
	})

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.APIPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var smtpServer *gosmtp.Server
	if cfg.SMTPEnabled {
		backend := smtp.NewBackend(&smtp.BackendConfig{
			Store:           store,
			FileStorage:     fileStorage,
			AcceptedDomains: cfg.InboundEmailDomains,
			SecurityLogger:  secLogger,
			Logger:          log,
		})
		smtpServer = smtp.NewSecureServer(backend, &smtp.ServerConfig{
			Addr:   ":" + strconv.Itoa(cfg.SMTPPort),
			Domain: cfg.SMTPHostname,
		})
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		limiter.RunCleanup(gctx, limiterCleanupPeriod)
		return nil
	})

	g.Go(func() error {
		log.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if smtpServer != nil {
		g.Go(func() error {
			log.Info("SMTP server listening", slog.String("addr", smtpServer.Addr), slog.String("domain", smtpServer.Domain))
			// Close makes ListenAndServe return an error during shutdown
			if err := smtpServer.ListenAndServe(); err != nil && gctx.Err() == nil {
				return fmt.Errorf("smtp server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown failed", slog.Any("error", err))
		}
		if smtpServer != nil {
			if err := smtpServer.Close(); err != nil {
				log.Error("SMTP server shutdown failed", slog.Any("error", err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		return err
	}
	log.Info("server stopped")
	return nil
}

// connectEvents returns the analytics publisher and, when NATS is in use, a
// health probe for the connection. NATS is optional; when it is unset or
// unreachable events are only stored in the database.
func connectEvents(ctx context.Context, cfg *config.Config, log *slog.Logger) (services.EventPublisher, handlers.Probe, func()) {
	if cfg.NATSURL == "" {
		return events.NoopPublisher{}, nil, func() {}
	}

	client, err := events.Connect(ctx, events.Config{URL: cfg.NATSURL, Token: cfg.NATSToken}, log)
	if err != nil {
		log.Warn("NATS unavailable, analytics stream disabled", slog.Any("error", err))
		return events.NoopPublisher{}, nil, func() {}
	}
	if err := events.EnsureStream(ctx, client.JetStream()); err != nil {
		log.Warn("failed to ensure analytics stream", slog.Any("error", err))
	}
	return events.NewJetStreamPublisher(client.JetStream()), client.IsConnected, client.Close
}
