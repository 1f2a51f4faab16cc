package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testAuthToken = "12345"

// sign computes a Twilio request signature: HMAC-SHA1 over the URL followed
// by every form key and value in key order.
func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestSignatureValidator_Validate(t *testing.T) {
	form := url.Values{
		"MessageSid": {"SM123"},
		"From":       {"+15551234567"},
		"To":         {"+15550001111"},
		"Body":       {"hello"},
	}
	req := httptest.NewRequest("POST", "/api/webhooks/twilio", strings.NewReader(form.Encode()))
	req.Host = "inbox.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")

	v := NewSignatureValidator(testAuthToken, "")
	good := sign(testAuthToken, "https://inbox.example.com/api/webhooks/twilio", form)

	assert.True(t, v.Validate(req, form, good))
	assert.False(t, v.Validate(req, form, ""))
	assert.False(t, v.Validate(req, form, sign("other-token", "https://inbox.example.com/api/webhooks/twilio", form)))

	tampered := url.Values{}
	for k, vals := range form {
		tampered[k] = vals
	}
	tampered.Set("Body", "goodbye")
	assert.False(t, v.Validate(req, tampered, good))
}

func TestSignatureValidator_RequestURL(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/webhooks/twilio?x=1", nil)
	req.Host = "internal:8080"

	assert.Equal(t, "http://internal:8080/api/webhooks/twilio?x=1", NewSignatureValidator(testAuthToken, "").RequestURL(req))

	req.Header.Set("X-Forwarded-Host", "inbox.example.com")
	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://inbox.example.com/api/webhooks/twilio?x=1", NewSignatureValidator(testAuthToken, "").RequestURL(req))

	withBase := NewSignatureValidator(testAuthToken, "https://public.example.com/")
	assert.Equal(t, "https://public.example.com/api/webhooks/twilio?x=1", withBase.RequestURL(req))
}
