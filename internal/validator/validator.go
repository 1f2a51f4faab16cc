// Package validator provides address predicates, normalization and input
// sanitization shared by the channel senders, resolvers and HTTP layer.
package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidEmail  = errors.New("invalid email format")
	ErrInvalidDomain = errors.New("invalid domain format")
	ErrInputTooLong  = errors.New("input exceeds maximum length")
	ErrEmptyInput    = errors.New("input cannot be empty")
)

// WhatsAppPrefix is the URI scheme Twilio uses for WhatsApp addresses
const WhatsAppPrefix = "whatsapp:"

var (
	// E.164: optional plus, leading non-zero digit, up to 15 digits total
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

	// Deliberately loose: something@something.tld without whitespace
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	domainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

	nonPhoneChars = regexp.MustCompile(`[^\d+]`)
)

// IsPhone reports whether s is an E.164-shaped phone number
func IsPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// IsEmailAddress reports whether s looks like an email address
func IsEmailAddress(s string) bool {
	return emailRegex.MatchString(s)
}

// HasWhatsAppPrefix reports whether addr carries the whatsapp: scheme
func HasWhatsAppPrefix(addr string) bool {
	return strings.HasPrefix(addr, WhatsAppPrefix)
}

// StripWhatsAppPrefix removes a leading whatsapp: scheme
func StripWhatsAppPrefix(addr string) string {
	return strings.TrimPrefix(addr, WhatsAppPrefix)
}

// EnsureWhatsAppPrefix adds the whatsapp: scheme when missing
func EnsureWhatsAppPrefix(addr string) string {
	if HasWhatsAppPrefix(addr) {
		return addr
	}
	return WhatsAppPrefix + addr
}

// NormalizePhone reduces a phone number to digits with a leading plus.
// Ten-digit numbers without a country code are treated as US numbers.
func NormalizePhone(phone string) string {
	normalized := nonPhoneChars.ReplaceAllString(phone, "")
	if strings.HasPrefix(normalized, "+") {
		return normalized
	}
	if len(normalized) == 10 {
		return "+1" + normalized
	}
	return "+" + normalized
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PhoneSuffix returns the last n characters of a normalized phone number
func PhoneSuffix(phone string, n int) string {
	if len(phone) <= n {
		return phone
	}
	return phone[len(phone)-n:]
}

// ValidateEmail validates email address format according to RFC 5322.
// Returns nil if valid, or an appropriate error.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)

	if email == "" {
		return ErrEmptyInput
	}

	// RFC 5321 specifies max email length of 254 characters
	if utf8.RuneCountInString(email) > 254 {
		return ErrInputTooLong
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateDomain validates domain name format against DNS standards.
func ValidateDomain(domain string) error {
	domain = strings.TrimSpace(strings.ToLower(domain))

	if domain == "" {
		return ErrEmptyInput
	}
	if len(domain) > 253 {
		return ErrInputTooLong
	}
	if !domainRegex.MatchString(domain) {
		return ErrInvalidDomain
	}
	return nil
}

// Pagination constants
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// ValidatePagination validates and sanitizes pagination parameters.
// Returns sanitized limit and offset values.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// SanitizeFilename removes dangerous characters from filename.
// Prevents path traversal and removes control characters.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")
	filename = strings.ReplaceAll(filename, "\x00", "")

	filename = stripControl(filename)
	filename = strings.TrimSpace(filename)

	// Common filesystem limit
	filename = Truncate(filename, 255)

	if filename == "" {
		return "unnamed"
	}

	return filename
}

// SanitizeString removes control characters, trims whitespace and enforces
// maxLength when it is positive.
func SanitizeString(input string, maxLength int) string {
	input = strings.TrimSpace(stripControl(input))
	if maxLength > 0 {
		input = Truncate(input, maxLength)
	}
	return input
}

// Truncate shortens s to at most n runes
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
