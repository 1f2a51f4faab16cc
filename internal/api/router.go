package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/welldanyogia/webrana-unibox-backend/internal/api/handlers"
	"github.com/welldanyogia/webrana-unibox-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-unibox-backend/internal/auth"
	"github.com/welldanyogia/webrana-unibox-backend/internal/logger"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/repository"
	"github.com/welldanyogia/webrana-unibox-backend/internal/services"
	"github.com/welldanyogia/webrana-unibox-backend/internal/storage"
	"github.com/welldanyogia/webrana-unibox-backend/internal/websocket"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB             *gorm.DB
	FileStorage    storage.FileStorage
	Logger         *slog.Logger
	SecurityLogger *logger.SecurityLogger

	Outbound services.OutboundService
	Contacts services.ContactResolver
	// Accounts is nil when Twilio is not configured
	Accounts services.ProviderAccountService
	Webhooks handlers.WebhookProcessor
	// Signatures is nil when webhook signature validation is off
	Signatures handlers.SignatureValidator
	Hub        *websocket.Hub
	Channels   []models.Channel
	// HealthProbes are optional dependencies reported by /health
	HealthProbes map[string]handlers.Probe

	// Security configuration
	APIKey         string // API key for /api (empty = disabled)
	AllowedOrigins []string
	Production     bool
	Session        auth.Config
	RateLimiter    *middleware.IPRateLimiter
	MetricsEnabled bool
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	secLogger := cfg.SecurityLogger
	if secLogger == nil {
		secLogger = logger.NewSecurityLogger()
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = middleware.NewIPRateLimiter(100, 200)
	}

	// throttled requests never reach the request log
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins, cfg.Production))
	e.Use(middleware.RateLimiter(limiter, secLogger))
	e.Use(middleware.RequestLogger(log))
	if cfg.MetricsEnabled {
		e.Use(middleware.Metrics())
	}

	threadRepo := repository.NewThreadRepository(cfg.DB)
	attachmentRepo := repository.NewAttachmentRepository(cfg.DB)
	contactRepo := repository.NewContactRepository(cfg.DB)
	analyticsRepo := repository.NewAnalyticsRepository(cfg.DB)

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Channels, cfg.HealthProbes)
	messageHandler := handlers.NewMessageHandler(cfg.Outbound, log)
	threadHandler := handlers.NewThreadHandler(threadRepo, log)
	contactHandler := handlers.NewContactHandler(cfg.Contacts, contactRepo, analyticsRepo, log)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentRepo, cfg.FileStorage, secLogger, log)
	accountHandler := handlers.NewAccountHandler(cfg.Accounts, log)
	webhookHandler := handlers.NewWebhookHandler(cfg.Webhooks, cfg.Signatures, secLogger, log)

	// Health and metrics routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)
	if cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api")
	api.Use(middleware.APIKeyAuth(cfg.APIKey, secLogger))

	// Provider webhooks authenticate by signature
	api.POST("/webhooks/twilio", webhookHandler.Receive)
	api.GET("/webhooks/twilio", webhookHandler.Ping)

	api.POST("/messages/send", messageHandler.Send, auth.Middleware(cfg.Session, secLogger))
	api.POST("/test-message", messageHandler.TestSend)

	inbox := api.Group("/inbox")
	inbox.GET("/threads", threadHandler.List)
	inbox.GET("/threads/:id", threadHandler.Get)

	api.GET("/contacts/:id", contactHandler.Get)
	api.POST("/contacts/:id/merge", contactHandler.Merge)

	attachments := api.Group("/attachments")
	attachments.GET("/:id", attachmentHandler.Get)
	attachments.GET("/:id/download", attachmentHandler.Download)

	api.GET("/twilio/account", accountHandler.Get)

	if cfg.Hub != nil {
		upgrader := websocket.NewSecureUpgrader(cfg.AllowedOrigins, secLogger)
		api.GET("/ws", handlers.NewWebSocketHandler(cfg.Hub, upgrader, log).Serve)
	}

	return e
}
