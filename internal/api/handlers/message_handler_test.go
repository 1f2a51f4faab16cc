package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/webrana-unibox-backend/internal/auth"
	"github.com/welldanyogia/webrana-unibox-backend/internal/channels"
	apperrors "github.com/welldanyogia/webrana-unibox-backend/internal/errors"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/tests/mocks"
)

// MessageHandlerTestSuite is the test suite for MessageHandler
type MessageHandlerTestSuite struct {
	suite.Suite
	echo         *echo.Echo
	handler      *MessageHandler
	mockOutbound *mocks.MockOutboundService
}

func (s *MessageHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.mockOutbound = new(mocks.MockOutboundService)
	s.handler = NewMessageHandler(s.mockOutbound, quietLogger())
}

func (s *MessageHandlerTestSuite) TearDownTest() {
	s.mockOutbound.AssertExpectations(s.T())
}

func TestMessageHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(MessageHandlerTestSuite))
}

func smsPayload(p *channels.MessagePayload) bool {
	return p.Channel == models.ChannelSMS && p.To == "+15551234567" && p.Body == "hello"
}

func (s *MessageHandlerTestSuite) TestSend_Success() {
	s.mockOutbound.On("Send", mock.Anything, mock.MatchedBy(smsPayload), "").
		Return(&channels.MessageResponse{
			Success:   true,
			MessageID: "SM123",
			Status:    models.MessageStatusSent,
			Channel:   models.ChannelSMS,
		}, nil)

	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/messages/send",
		`{"channel":"SMS","to":" +15551234567 ","body":"hello","threadId":"t-1"}`)

	s.NoError(s.handler.Send(c))
	s.Equal(http.StatusOK, rec.Code)

	body := decodeBody(rec)
	s.Equal(true, body["success"])
	s.Equal("SM123", body["messageId"])
	s.Equal("sent", body["status"])
	s.Equal("sms", body["channel"])
	s.NotContains(body, "error")
}

func (s *MessageHandlerTestSuite) TestSend_MissingFields() {
	for _, payload := range []string{
		`{"to":"+15551234567","body":"hello"}`,
		`{"channel":"sms","body":"hello"}`,
		`{"channel":"sms","to":"+15551234567"}`,
	} {
		c, rec := newJSONContext(s.echo, http.MethodPost, "/api/messages/send", payload)

		s.NoError(s.handler.Send(c))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(errMissingSendFields, decodeBody(rec)["error"])
	}
}

func (s *MessageHandlerTestSuite) TestSend_InvalidJSON() {
	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/messages/send", `{"channel":`)

	s.NoError(s.handler.Send(c))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *MessageHandlerTestSuite) TestSend_ProviderFailureIsReported() {
	s.mockOutbound.On("Send", mock.Anything, mock.Anything, "").
		Return(&channels.MessageResponse{
			Success: false,
			Status:  models.MessageStatusFailed,
			Channel: models.ChannelSMS,
			Error:   "Twilio error: invalid number",
		}, nil)

	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/messages/send",
		`{"channel":"sms","to":"+15551234567","body":"hello"}`)

	s.NoError(s.handler.Send(c))
	s.Equal(http.StatusOK, rec.Code)

	body := decodeBody(rec)
	s.Equal(false, body["success"])
	s.Equal("failed", body["status"])
	s.Equal("Twilio error: invalid number", body["error"])
}

func (s *MessageHandlerTestSuite) TestSend_UnsupportedChannel() {
	s.mockOutbound.On("Send", mock.Anything, mock.Anything, "").
		Return(nil, fmt.Errorf("%w: fax", apperrors.ErrUnsupportedChannel))

	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/messages/send",
		`{"channel":"fax","to":"+15551234567","body":"hello"}`)

	s.NoError(s.handler.Send(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(apperrors.CodeUnsupportedChannel, decodeBody(rec)["code"])
}

func (s *MessageHandlerTestSuite) TestSend_ProviderNotConfigured() {
	s.mockOutbound.On("Send", mock.Anything, mock.Anything, "").
		Return(nil, apperrors.ErrProviderNotConfigured)

	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/messages/send",
		`{"channel":"email","to":"a@example.com","body":"hello"}`)

	s.NoError(s.handler.Send(c))
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal(apperrors.CodeProviderNotConfigured, decodeBody(rec)["code"])
}

func (s *MessageHandlerTestSuite) TestSend_AttachesSessionUser() {
	cfg := auth.Config{Secret: strings.Repeat("s", 32), Issuer: "test"}
	token, err := auth.IssueToken(cfg, auth.Session{UserID: "user-1"}, time.Now())
	s.Require().NoError(err)

	s.mockOutbound.On("Send", mock.Anything, mock.MatchedBy(smsPayload), "user-1").
		Return(&channels.MessageResponse{Success: true, MessageID: "SM1", Status: models.MessageStatusSent, Channel: models.ChannelSMS}, nil)

	s.echo.POST("/api/messages/send", s.handler.Send, auth.Middleware(cfg, nil))
	req := httptest.NewRequest(http.MethodPost, "/api/messages/send",
		strings.NewReader(`{"channel":"sms","to":"+15551234567","body":"hello"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(auth.HeaderName, token)
	rec := httptest.NewRecorder()

	s.echo.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *MessageHandlerTestSuite) TestTestSend_DoesNotStore() {
	s.mockOutbound.On("Test", mock.Anything, mock.MatchedBy(func(p *channels.MessagePayload) bool {
		return p.Channel == models.ChannelEmail && p.Subject == "Hi"
	})).Return(&channels.MessageResponse{
		Success:   true,
		MessageID: "re_1",
		Status:    models.MessageStatusSent,
		Channel:   models.ChannelEmail,
	}, nil)

	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/test-message",
		`{"channel":"email","to":"a@example.com","body":"hello","subject":"Hi"}`)

	s.NoError(s.handler.TestSend(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("re_1", decodeBody(rec)["messageId"])
	s.mockOutbound.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything, mock.Anything)
}

func (s *MessageHandlerTestSuite) TestTestSend_MissingFields() {
	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/test-message", `{"channel":"sms"}`)

	s.NoError(s.handler.TestSend(c))
	s.Equal(http.StatusBadRequest, rec.Code)
}
