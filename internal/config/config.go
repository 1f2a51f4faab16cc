package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/welldanyogia/webrana-unibox-backend/internal/validator"
)

// DefaultWhatsAppNumber is the Twilio sandbox sender.
const DefaultWhatsAppNumber = "whatsapp:+14155238886"

// MinAuthSecretLength is the minimum AUTH_SECRET size accepted in production
const MinAuthSecretLength = 32

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	APIPort int
	AppEnv  string

	// Logging
	LogLevel string

	// Security
	APIKey         string
	AllowedOrigins string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int

	// Twilio (SMS + WhatsApp)
	TwilioAccountSID        string
	TwilioAuthToken         string
	TwilioPhoneNumber       string
	TwilioWhatsAppNumber    string
	TwilioStatusCallbackURL string

	// Webhook ingress
	WebhookBaseURL           string
	WebhookValidateSignature bool

	// Resend (email)
	ResendAPIKey    string
	ResendFromEmail string

	// Sessions
	AuthSecret         string
	AuthBaseURL        string
	AuthTrustedOrigins string

	// Inbound email
	SMTPEnabled         bool
	SMTPPort            int
	SMTPHostname        string
	InboundEmailDomains []string

	// Storage
	AttachmentStoragePath string

	// Analytics stream
	NATSURL   string
	NATSToken string

	// Metrics
	MetricsEnabled bool
}

// Load reads configuration from the environment. CONFIG_FILE may name a
// YAML file whose keys are the lower-cased variable names; the environment
// wins over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		DatabaseURL:             v.GetString("DATABASE_URL"),
		AppEnv:                  v.GetString("APP_ENV"),
		LogLevel:                v.GetString("LOG_LEVEL"),
		AttachmentStoragePath:   v.GetString("ATTACHMENT_STORAGE_PATH"),
		SMTPHostname:            v.GetString("SMTP_HOSTNAME"),
		InboundEmailDomains:     splitList(v.GetString("INBOUND_EMAIL_DOMAINS")),
		APIKey:                  v.GetString("API_KEY"),
		AllowedOrigins:          v.GetString("ALLOWED_ORIGINS"),
		TwilioAccountSID:        v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:         v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber:       v.GetString("TWILIO_PHONE_NUMBER"),
		TwilioWhatsAppNumber:    v.GetString("TWILIO_WHATSAPP_NUMBER"),
		TwilioStatusCallbackURL: v.GetString("TWILIO_STATUS_CALLBACK_URL"),
		ResendAPIKey:            v.GetString("RESEND_API_KEY"),
		ResendFromEmail:         v.GetString("RESEND_FROM_EMAIL"),
		WebhookBaseURL:          strings.TrimRight(v.GetString("WEBHOOK_BASE_URL"), "/"),
		AuthSecret:              v.GetString("AUTH_SECRET"),
		AuthBaseURL:             v.GetString("AUTH_BASE_URL"),
		AuthTrustedOrigins:      v.GetString("AUTH_TRUSTED_ORIGINS"),
		NATSURL:                 v.GetString("NATS_URL"),
		NATSToken:               v.GetString("NATS_TOKEN"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	// signature checks default on in production
	v.SetDefault("WEBHOOK_VALIDATE_SIGNATURE", cfg.IsProduction())

	var err error
	if cfg.APIPort, err = intSetting(v, "API_PORT"); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = intSetting(v, "SMTP_PORT"); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = intSetting(v, "RATE_LIMIT_BURST"); err != nil {
		return nil, err
	}
	if cfg.RateLimitRequests, err = floatSetting(v, "RATE_LIMIT_RPS"); err != nil {
		return nil, err
	}
	if cfg.SMTPEnabled, err = boolSetting(v, "SMTP_ENABLED"); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled, err = boolSetting(v, "METRICS_ENABLED"); err != nil {
		return nil, err
	}
	if cfg.WebhookValidateSignature, err = boolSetting(v, "WEBHOOK_VALIDATE_SIGNATURE"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so the environment and config file can
// override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_PORT", 8080)

	v.SetDefault("API_KEY", "")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("RATE_LIMIT_RPS", 100.0)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_PHONE_NUMBER", "")
	v.SetDefault("TWILIO_WHATSAPP_NUMBER", DefaultWhatsAppNumber)
	v.SetDefault("TWILIO_STATUS_CALLBACK_URL", "")
	v.SetDefault("WEBHOOK_BASE_URL", "")

	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("RESEND_FROM_EMAIL", "onboarding@resend.dev")

	v.SetDefault("AUTH_SECRET", "")
	v.SetDefault("AUTH_BASE_URL", "http://localhost:3000")
	v.SetDefault("AUTH_TRUSTED_ORIGINS", "")

	v.SetDefault("SMTP_ENABLED", false)
	v.SetDefault("SMTP_PORT", 2525)
	v.SetDefault("SMTP_HOSTNAME", "localhost")
	v.SetDefault("INBOUND_EMAIL_DOMAINS", "")
	v.SetDefault("ATTACHMENT_STORAGE_PATH", "./attachments")

	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_TOKEN", "")
	v.SetDefault("METRICS_ENABLED", true)
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.IsProduction() {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TwilioConfigured reports whether SMS and WhatsApp credentials are present
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

// CORSOrigins merges ALLOWED_ORIGINS and AUTH_TRUSTED_ORIGINS without duplicates
func (c *Config) CORSOrigins() []string {
	seen := make(map[string]bool)
	var origins []string
	for _, o := range append(splitList(c.AllowedOrigins), splitList(c.AuthTrustedOrigins)...) {
		if seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	return origins
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.SMTPEnabled && (c.SMTPPort <= 0 || c.SMTPPort > 65535) {
		return fmt.Errorf("SMTPPort must be between 1 and 65535")
	}
	if c.AttachmentStoragePath == "" {
		return fmt.Errorf("AttachmentStoragePath cannot be empty")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}
	if c.WebhookValidateSignature && c.TwilioAuthToken == "" {
		return fmt.Errorf("TWILIO_AUTH_TOKEN is required when webhook signature validation is enabled")
	}
	if c.ResendAPIKey != "" {
		if err := validator.ValidateEmail(c.ResendFromEmail); err != nil {
			return fmt.Errorf("RESEND_FROM_EMAIL %q: %w", c.ResendFromEmail, err)
		}
	}
	for _, domain := range c.InboundEmailDomains {
		if err := validator.ValidateDomain(domain); err != nil {
			return fmt.Errorf("INBOUND_EMAIL_DOMAINS entry %q: %w", domain, err)
		}
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}

	if len(c.AuthSecret) < MinAuthSecretLength {
		return fmt.Errorf("AUTH_SECRET must be at least %d bytes in production", MinAuthSecretLength)
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") || strings.Contains(c.AuthTrustedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	return nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
		slog.Bool("twilio_configured", c.TwilioConfigured()),
		slog.String("twilio_whatsapp_number", c.TwilioWhatsAppNumber),
		slog.Bool("status_callback_set", c.TwilioStatusCallbackURL != ""),
		slog.Bool("webhook_signature_validation", c.WebhookValidateSignature),
		slog.Bool("resend_configured", c.ResendAPIKey != ""),
		slog.String("resend_from_email", c.ResendFromEmail),
		slog.Bool("auth_secret_set", c.AuthSecret != ""),
		slog.Bool("smtp_enabled", c.SMTPEnabled),
		slog.Int("smtp_port", c.SMTPPort),
		slog.Int("inbound_email_domains", len(c.InboundEmailDomains)),
		slog.String("storage_path", c.AttachmentStoragePath),
		slog.Bool("nats_enabled", c.NATSURL != ""),
		slog.Bool("metrics_enabled", c.MetricsEnabled),
	)
}

func intSetting(v *viper.Viper, key string) (int, error) {
	n, err := cast.ToIntE(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func floatSetting(v *viper.Viper, key string) (float64, error) {
	f, err := cast.ToFloat64E(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return f, nil
}

func boolSetting(v *viper.Viper, key string) (bool, error) {
	b, err := cast.ToBoolE(v.Get(key))
	if err != nil {
		return false, fmt.Errorf("%s must be a valid boolean: %w", key, err)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
