package logger

import (
	"log/slog"
	"os"
	"time"
)

// Security event types, logged under event_type
const (
	EventAuthFailure       = "auth_failure"
	EventInvalidSession    = "invalid_session"
	EventWebhookSignature  = "webhook_signature"
	EventRateLimit         = "rate_limit"
	EventPathTraversal     = "path_traversal"
	EventInvalidOrigin     = "invalid_origin"
	EventBlockedUpload     = "blocked_upload"
	EventRejectedRecipient = "rejected_recipient"
)

// SecurityLogger writes security events as JSON. Callers pass request
// metadata only; keys, tokens and signatures never reach it.
type SecurityLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewSecurityLogger() *SecurityLogger {
	return NewSecurityLoggerWithHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func NewSecurityLoggerWithHandler(handler slog.Handler) *SecurityLogger {
	return &SecurityLogger{logger: slog.New(handler), now: time.Now}
}

// AuthFailure records a rejected API key
func (s *SecurityLogger) AuthFailure(ip, path, reason string) {
	s.event("authentication_failure", EventAuthFailure, ip,
		slog.String("path", path),
		slog.String("reason", reason))
}

func (s *SecurityLogger) InvalidSessionToken(ip, path string) {
	s.event("invalid_session_token", EventInvalidSession, ip, slog.String("path", path))
}

// InvalidWebhookSignature records a provider callback that failed verification
func (s *SecurityLogger) InvalidWebhookSignature(ip, path string, signaturePresent bool) {
	s.event("invalid_webhook_signature", EventWebhookSignature, ip,
		slog.String("path", path),
		slog.Bool("signature_present", signaturePresent))
}

func (s *SecurityLogger) RateLimitExceeded(ip, path string) {
	s.event("rate_limit_exceeded", EventRateLimit, ip, slog.String("path", path))
}

func (s *SecurityLogger) PathTraversalAttempt(ip, path, attemptedPath string) {
	s.event("path_traversal_attempt", EventPathTraversal, ip,
		slog.String("path", path),
		slog.String("attempted_path", attemptedPath))
}

// InvalidOrigin records a websocket upgrade from an origin outside the allow-list
func (s *SecurityLogger) InvalidOrigin(ip, origin string) {
	s.event("invalid_origin", EventInvalidOrigin, ip, slog.String("origin", origin))
}

// BlockedFileUpload records an inbound attachment that was not stored
func (s *SecurityLogger) BlockedFileUpload(ip, filename, reason string) {
	s.event("blocked_file_upload", EventBlockedUpload, ip,
		slog.String("filename", filename),
		slog.String("reason", reason))
}

// RejectedRecipient records an SMTP recipient outside the inbound domains,
// usually a relay probe.
func (s *SecurityLogger) RejectedRecipient(ip, recipient, reason string) {
	s.event("rejected_recipient", EventRejectedRecipient, ip,
		slog.String("recipient", recipient),
		slog.String("reason", reason))
}

func (s *SecurityLogger) event(msg, eventType, ip string, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+3)
	args = append(args,
		slog.String("event_type", eventType),
		slog.String("ip", ip),
		slog.Time("timestamp", s.now().UTC()))
	for _, a := range attrs {
		args = append(args, a)
	}
	s.logger.Warn(msg, args...)
}
