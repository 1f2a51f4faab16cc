// Package smtp receives inbound email and files it into the unified inbox.
package smtp

import (
	"crypto/tls"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/welldanyogia/webrana-unibox-backend/internal/logger"
	"github.com/welldanyogia/webrana-unibox-backend/internal/services"
	"github.com/welldanyogia/webrana-unibox-backend/internal/storage"
)

// Security limits
const (
	DefaultMaxMessageSize = 25 * 1024 * 1024 // 25 MB
	DefaultMaxRecipients  = 50
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultMaxLineLength  = 2000
)

// Backend implements the go-smtp Backend interface
type Backend struct {
	store           services.MessageStore
	fileStorage     storage.FileStorage
	acceptedDomains map[string]bool
	secLogger       *logger.SecurityLogger
	logger          *slog.Logger
}

// BackendConfig holds the collaborators of the SMTP backend. An empty
// AcceptedDomains list accepts mail for any domain.
type BackendConfig struct {
	Store           services.MessageStore
	FileStorage     storage.FileStorage
	AcceptedDomains []string
	SecurityLogger  *logger.SecurityLogger
	Logger          *slog.Logger
}

// NewBackend creates a new SMTP backend
func NewBackend(cfg *BackendConfig) *Backend {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	secLogger := cfg.SecurityLogger
	if secLogger == nil {
		secLogger = logger.NewSecurityLoggerWithHandler(log.Handler())
	}

	domains := make(map[string]bool, len(cfg.AcceptedDomains))
	for _, d := range cfg.AcceptedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains[d] = true
		}
	}

	return &Backend{
		store:           cfg.Store,
		fileStorage:     cfg.FileStorage,
		acceptedDomains: domains,
		secLogger:       secLogger,
		logger:          log,
	}
}

// NewSession creates a new SMTP session
func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	remote := ""
	if c != nil && c.Conn() != nil {
		remote = c.Conn().RemoteAddr().String()
	}
	b.logger.Debug("new SMTP connection", slog.String("remote_addr", remote))
	return NewSession(b, remote), nil
}

// accepts reports whether mail for domain is taken in
func (b *Backend) accepts(domain string) bool {
	return len(b.acceptedDomains) == 0 || b.acceptedDomains[domain]
}

// ServerConfig holds security configuration for the SMTP server
type ServerConfig struct {
	Addr           string
	Domain         string
	MaxMessageSize int64
	MaxRecipients  int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	TLSConfig      *tls.Config
}

// NewSecureServer creates a new SMTP server with size and time limits
func NewSecureServer(backend *Backend, cfg *ServerConfig) *smtp.Server {
	s := smtp.NewServer(backend)

	s.Addr = cfg.Addr
	s.Domain = cfg.Domain

	s.MaxMessageBytes = DefaultMaxMessageSize
	if cfg.MaxMessageSize > 0 {
		s.MaxMessageBytes = cfg.MaxMessageSize
	}

	s.MaxRecipients = DefaultMaxRecipients
	if cfg.MaxRecipients > 0 {
		s.MaxRecipients = cfg.MaxRecipients
	}

	s.ReadTimeout = DefaultReadTimeout
	if cfg.ReadTimeout > 0 {
		s.ReadTimeout = cfg.ReadTimeout
	}

	s.WriteTimeout = DefaultWriteTimeout
	if cfg.WriteTimeout > 0 {
		s.WriteTimeout = cfg.WriteTimeout
	}

	// receive only, never authenticate
	s.AllowInsecureAuth = false
	if cfg.TLSConfig != nil {
		s.TLSConfig = cfg.TLSConfig
	}

	s.MaxLineLength = DefaultMaxLineLength

	return s
}
