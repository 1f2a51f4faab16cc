package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/webrana-unibox-backend/internal/webhook"
	"github.com/welldanyogia/webrana-unibox-backend/tests/mocks"
)

// WebhookHandlerTestSuite is the test suite for WebhookHandler
type WebhookHandlerTestSuite struct {
	suite.Suite
	echo          *echo.Echo
	mockProcessor *mocks.MockWebhookProcessor
	mockValidator *mocks.MockSignatureValidator
	secLogs       interface{ String() string }
	handler       *WebhookHandler
}

func (s *WebhookHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.mockProcessor = new(mocks.MockWebhookProcessor)
	s.mockValidator = new(mocks.MockSignatureValidator)
	secLogger, buf := bufferedSecurityLogger()
	s.secLogs = buf
	s.handler = NewWebhookHandler(s.mockProcessor, s.mockValidator, secLogger, quietLogger())
}

func (s *WebhookHandlerTestSuite) TearDownTest() {
	s.mockProcessor.AssertExpectations(s.T())
	s.mockValidator.AssertExpectations(s.T())
}

func TestWebhookHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}

func inboundForm() url.Values {
	return url.Values{
		"MessageSid": {"SM123"},
		"From":       {"+15551234567"},
		"To":         {"+15557654321"},
		"Body":       {"hello"},
		"NumMedia":   {"0"},
	}
}

func (s *WebhookHandlerTestSuite) post(form url.Values, signature string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/twilio", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if signature != "" {
		req.Header.Set(webhook.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	return s.echo.NewContext(req, rec), rec
}

func formMatches(want url.Values) interface{} {
	return mock.MatchedBy(func(got url.Values) bool {
		return got.Encode() == want.Encode()
	})
}

func (s *WebhookHandlerTestSuite) TestReceive_ValidSignature() {
	form := inboundForm()
	s.mockValidator.On("Validate", mock.Anything, formMatches(form), "sig").Return(true)
	s.mockProcessor.On("Process", mock.Anything, formMatches(form)).Return(nil)

	c, rec := s.post(form, "sig")

	s.NoError(s.handler.Receive(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(true, decodeBody(rec)["received"])
}

func (s *WebhookHandlerTestSuite) TestReceive_InvalidSignature() {
	form := inboundForm()
	s.mockValidator.On("Validate", mock.Anything, mock.Anything, "forged").Return(false)

	c, rec := s.post(form, "forged")

	s.NoError(s.handler.Receive(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Invalid signature", decodeBody(rec)["error"])
	s.Contains(s.secLogs.String(), "webhook_signature")
	s.NotContains(s.secLogs.String(), "forged")
	s.mockProcessor.AssertNotCalled(s.T(), "Process", mock.Anything, mock.Anything)
}

func (s *WebhookHandlerTestSuite) TestReceive_ProcessingError() {
	form := url.Values{"MessageSid": {"SM9"}, "MessageStatus": {"delivered"}}
	s.mockValidator.On("Validate", mock.Anything, mock.Anything, "sig").Return(true)
	s.mockProcessor.On("Process", mock.Anything, mock.Anything).Return(errors.New("db down"))

	c, rec := s.post(form, "sig")

	s.NoError(s.handler.Receive(c))
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("Webhook processing failed", decodeBody(rec)["error"])
}

func (s *WebhookHandlerTestSuite) TestReceive_WithoutValidator() {
	form := inboundForm()
	s.mockProcessor.On("Process", mock.Anything, formMatches(form)).Return(nil)
	handler := NewWebhookHandler(s.mockProcessor, nil, nil, quietLogger())

	c, rec := s.post(form, "")

	s.NoError(handler.Receive(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *WebhookHandlerTestSuite) TestPing() {
	c, rec := newJSONContext(s.echo, http.MethodGet, "/api/webhooks/twilio", "")

	s.NoError(s.handler.Ping(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Twilio webhook endpoint is active", decodeBody(rec)["message"])
}
