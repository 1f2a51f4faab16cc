package webhook

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go/client"
)

// SignatureHeader carries the Twilio request signature
const SignatureHeader = "X-Twilio-Signature"

// SignatureValidator checks X-Twilio-Signature against the auth token
type SignatureValidator struct {
	validator client.RequestValidator
	baseURL   string
}

// NewSignatureValidator creates a validator. baseURL, when set, replaces
// the scheme and host of incoming requests so signatures computed against
// the public URL verify behind a proxy.
func NewSignatureValidator(authToken, baseURL string) *SignatureValidator {
	return &SignatureValidator{
		validator: client.NewRequestValidator(authToken),
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// Validate reports whether signature matches the request URL and form
func (v *SignatureValidator) Validate(r *http.Request, form url.Values, signature string) bool {
	if signature == "" {
		return false
	}
	params := make(map[string]string, len(form))
	for k := range form {
		params[k] = form.Get(k)
	}
	return v.validator.Validate(v.RequestURL(r), params, signature)
}

// RequestURL rebuilds the URL Twilio signed
func (v *SignatureValidator) RequestURL(r *http.Request) string {
	if v.baseURL != "" {
		return v.baseURL + r.URL.RequestURI()
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host + r.URL.RequestURI()
}
