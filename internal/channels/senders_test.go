package channels

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	apperrors "github.com/welldanyogia/webrana-unibox-backend/internal/errors"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
)

type SenderTestSuite struct {
	suite.Suite
	twilio *mockTwilio
	email  *mockEmail
	ctx    context.Context
}

func (s *SenderTestSuite) SetupTest() {
	s.twilio = new(mockTwilio)
	s.email = new(mockEmail)
	s.ctx = context.Background()
}

func TestSenderSuite(t *testing.T) {
	suite.Run(t, new(SenderTestSuite))
}

func (s *SenderTestSuite) TestSMS_Send_Success() {
	sender, err := NewSMSSender(testTwilioConfig, s.twilio)
	s.Require().NoError(err)

	s.twilio.On("CreateMessage", s.ctx, mock.MatchedBy(func(p *TwilioMessageParams) bool {
		return p.To == "+15551234567" &&
			p.From == "+15550001111" &&
			p.Body == "hello" &&
			p.StatusCallback == testTwilioConfig.StatusCallbackURL &&
			assert.ObjectsAreEqual([]string{"https://cdn.example.com/a.png"}, p.MediaURLs)
	})).Return(&TwilioMessage{Sid: "SM1", Status: "sent", AccountSid: "AC123", Price: "-0.0075", PriceUnit: "USD"}, nil)

	resp := sender.Send(s.ctx, &MessagePayload{
		Channel: models.ChannelSMS,
		To:      "+15551234567",
		Body:    "hello",
		Attachments: []Attachment{
			{Filename: "a.png", ContentType: "image/png", URL: "https://cdn.example.com/a.png"},
			{Filename: "b.png", ContentType: "image/png", Base64: "aGk="},
		},
	})

	s.True(resp.Success)
	s.Equal("SM1", resp.MessageID)
	s.Equal("SM1", resp.ExternalID)
	s.Equal(models.MessageStatusSent, resp.Status)
	s.Equal(models.ChannelSMS, resp.Channel)
	s.Equal("AC123", resp.Metadata["accountSid"])
	s.Equal("USD", resp.Metadata["priceUnit"])
	s.twilio.AssertExpectations(s.T())
}

func (s *SenderTestSuite) TestSMS_Send_UsesPayloadFrom() {
	sender, err := NewSMSSender(testTwilioConfig, s.twilio)
	s.Require().NoError(err)

	s.twilio.On("CreateMessage", s.ctx, mock.MatchedBy(func(p *TwilioMessageParams) bool {
		return p.From == "+15559998888"
	})).Return(&TwilioMessage{Sid: "SM2", Status: "queued"}, nil)

	resp := sender.Send(s.ctx, &MessagePayload{Channel: models.ChannelSMS, To: "+15551234567", From: "+15559998888", Body: "x"})
	s.True(resp.Success)
	s.Equal(models.MessageStatusPending, resp.Status)
}

func (s *SenderTestSuite) TestSMS_Send_NoSenderNumber() {
	cfg := testTwilioConfig
	cfg.PhoneNumber = ""
	sender, err := NewSMSSender(cfg, s.twilio)
	s.Require().NoError(err)

	resp := sender.Send(s.ctx, &MessagePayload{Channel: models.ChannelSMS, To: "+15551234567", Body: "x"})
	s.False(resp.Success)
	s.Equal(models.MessageStatusFailed, resp.Status)
	s.Contains(resp.Error, "Twilio SMS error: No sender phone number provided")
	s.twilio.AssertNotCalled(s.T(), "CreateMessage", mock.Anything, mock.Anything)
}

func (s *SenderTestSuite) TestSMS_Send_ProviderError() {
	sender, err := NewSMSSender(testTwilioConfig, s.twilio)
	s.Require().NoError(err)

	s.twilio.On("CreateMessage", s.ctx, mock.Anything).Return(nil, errors.New("The 'To' number is not a valid phone number."))

	resp := sender.Send(s.ctx, &MessagePayload{Channel: models.ChannelSMS, To: "+15551234567", Body: "x"})
	s.False(resp.Success)
	s.Equal(models.MessageStatusFailed, resp.Status)
	s.Equal("Twilio SMS error: The 'To' number is not a valid phone number.", resp.Error)
}

func (s *SenderTestSuite) TestSend_InvalidPayloadSkipsProvider() {
	sms, err := NewSMSSender(testTwilioConfig, s.twilio)
	s.Require().NoError(err)
	wa, err := NewWhatsAppSender(testTwilioConfig, s.twilio)
	s.Require().NoError(err)
	email, err := NewEmailSender(testEmailConfig, s.email)
	s.Require().NoError(err)

	tests := []struct {
		name    string
		sender  Sender
		payload *MessagePayload
		wantErr string
	}{
		{"sms bad recipient", sms, &MessagePayload{Channel: models.ChannelSMS, To: "not-a-phone", Body: "hi"}, "Validation failed"},
		{"sms email recipient", sms, &MessagePayload{Channel: models.ChannelSMS, To: "jane@example.com", Body: "hi"}, "Invalid phone number format"},
		{"whatsapp empty body", wa, &MessagePayload{Channel: models.ChannelWhatsApp, To: "+15551234567"}, "Message body cannot be empty"},
		{"email phone recipient", email, &MessagePayload{Channel: models.ChannelEmail, To: "+15551234567"}, "Validation failed"},
		{"email channel mismatch", email, &MessagePayload{Channel: models.ChannelSMS, To: "jane@example.com", Body: "hi"}, "Channel mismatch: expected Email"},
		{"nil payload", sms, nil, "payload is required"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := tt.sender.Send(s.ctx, tt.payload)
			s.False(resp.Success)
			s.Equal(models.MessageStatusFailed, resp.Status)
			s.Equal(tt.sender.Channel(), resp.Channel)
			s.Contains(resp.Error, tt.wantErr)
			s.Empty(resp.ExternalID)
		})
	}

	s.twilio.AssertNotCalled(s.T(), "CreateMessage", mock.Anything, mock.Anything)
	s.email.AssertNotCalled(s.T(), "SendEmail", mock.Anything, mock.Anything)
}

func (s *SenderTestSuite) TestSMS_Validate_ChannelMismatch() {
	sender, err := NewSMSSender(testTwilioConfig, s.twilio)
	s.Require().NoError(err)

	res := sender.Validate(&MessagePayload{Channel: models.ChannelEmail, To: "a@b.com", Body: "x"})
	s.False(res.Valid)
	s.Equal("Channel mismatch: expected SMS", res.Error)
}

func (s *SenderTestSuite) TestNewSenders_MissingCredentials() {
	_, err := NewSMSSender(TwilioConfig{}, s.twilio)
	s.ErrorIs(err, apperrors.ErrProviderNotConfigured)

	_, err = NewWhatsAppSender(TwilioConfig{AccountSID: "AC123"}, s.twilio)
	s.ErrorIs(err, apperrors.ErrProviderNotConfigured)

	_, err = NewEmailSender(EmailConfig{}, s.email)
	s.ErrorIs(err, apperrors.ErrProviderNotConfigured)
}

func (s *SenderTestSuite) TestWhatsApp_Send_PrefixesAddresses() {
	sender, err := NewWhatsAppSender(testTwilioConfig, s.twilio)
	s.Require().NoError(err)

	s.twilio.On("CreateMessage", s.ctx, mock.MatchedBy(func(p *TwilioMessageParams) bool {
		return p.To == "whatsapp:+15551234567" && p.From == DefaultWhatsAppNumber
	})).Return(&TwilioMessage{Sid: "SM123", Status: "queued", NumMedia: "0"}, nil)

	resp := sender.Send(s.ctx, &MessagePayload{Channel: models.ChannelWhatsApp, To: "+15551234567", Body: "hi"})

	s.True(resp.Success)
	s.Equal("SM123", resp.MessageID)
	s.Equal(models.MessageStatusPending, resp.Status)
	s.Equal(models.ChannelWhatsApp, resp.Channel)
	s.Equal("0", resp.Metadata["numMedia"])
	s.twilio.AssertExpectations(s.T())
}

func (s *SenderTestSuite) TestWhatsApp_Send_PrefixesPayloadFrom() {
	sender, err := NewWhatsAppSender(testTwilioConfig, s.twilio)
	s.Require().NoError(err)

	s.twilio.On("CreateMessage", s.ctx, mock.MatchedBy(func(p *TwilioMessageParams) bool {
		return p.From == "whatsapp:+15550002222"
	})).Return(&TwilioMessage{Sid: "SM9", Status: "read"}, nil)

	resp := sender.Send(s.ctx, &MessagePayload{Channel: models.ChannelWhatsApp, To: "+15551234567", From: "+15550002222", Body: "hi"})
	s.True(resp.Success)
	s.Equal(models.MessageStatusRead, resp.Status)
}

func (s *SenderTestSuite) TestWhatsApp_Send_InvalidConfiguredSender() {
	cfg := testTwilioConfig
	cfg.WhatsAppNumber = "+15550002222"
	sender, err := NewWhatsAppSender(cfg, s.twilio)
	s.Require().NoError(err)

	resp := sender.Send(s.ctx, &MessagePayload{Channel: models.ChannelWhatsApp, To: "+15551234567", Body: "hi"})
	s.False(resp.Success)
	s.Contains(resp.Error, "Twilio WhatsApp error: Invalid WhatsApp sender number")
}

func (s *SenderTestSuite) TestEmail_Send_Success() {
	sender, err := NewEmailSender(testEmailConfig, s.email)
	s.Require().NoError(err)

	var captured *EmailRequest
	s.email.On("SendEmail", s.ctx, mock.AnythingOfType("*channels.EmailRequest")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*EmailRequest) }).
		Return("re_msg_1", nil)

	resp := sender.Send(s.ctx, &MessagePayload{
		Channel: models.ChannelEmail,
		To:      "jane@example.com",
		Body:    "line one\nline two",
		Attachments: []Attachment{
			{Filename: "inline.txt", ContentType: "text/plain", Base64: base64.StdEncoding.EncodeToString([]byte("hi")), URL: "https://ignored"},
			{Filename: "remote.pdf", ContentType: "application/pdf", URL: "https://cdn.example.com/r.pdf"},
		},
		Metadata: map[string]interface{}{"campaign": "spring", "attempt": 2},
	})

	s.True(resp.Success)
	s.Equal("re_msg_1", resp.MessageID)
	s.Equal("re_msg_1", resp.ExternalID)
	s.Equal(models.MessageStatusSent, resp.Status)
	s.Equal("inbox@example.com", resp.Metadata["from"])
	s.Equal("line one\nline two", resp.Metadata["subject"])

	s.Require().NotNil(captured)
	s.Equal([]string{"jane@example.com"}, captured.To)
	s.Equal("<p>line one<br>line two</p>", captured.HTML)
	s.Equal("line one\nline two", captured.Text)
	s.Require().Len(captured.Attachments, 2)
	s.Equal([]byte("hi"), captured.Attachments[0].Content)
	s.Empty(captured.Attachments[0].Path)
	s.Equal("https://cdn.example.com/r.pdf", captured.Attachments[1].Path)
	s.Equal([]EmailTag{{Name: "attempt", Value: "2"}, {Name: "campaign", Value: "spring"}}, captured.Tags)
}

func (s *SenderTestSuite) TestEmail_Send_APIError() {
	sender, err := NewEmailSender(testEmailConfig, s.email)
	s.Require().NoError(err)

	s.email.On("SendEmail", s.ctx, mock.Anything).Return("", errors.New("domain not verified"))

	resp := sender.Send(s.ctx, &MessagePayload{Channel: models.ChannelEmail, To: "jane@example.com", Subject: "s"})
	s.False(resp.Success)
	s.Equal(models.MessageStatusFailed, resp.Status)
	s.Equal("Resend API error: domain not verified", resp.Error)
}

func (s *SenderTestSuite) TestEmail_Send_BadBase64() {
	sender, err := NewEmailSender(testEmailConfig, s.email)
	s.Require().NoError(err)

	resp := sender.Send(s.ctx, &MessagePayload{
		Channel:     models.ChannelEmail,
		To:          "jane@example.com",
		Body:        "x",
		Attachments: []Attachment{{Filename: "f", ContentType: "text/plain", Base64: "%%%"}},
	})
	s.False(resp.Success)
	s.Contains(resp.Error, "Resend email error: invalid base64 content")
	s.email.AssertNotCalled(s.T(), "SendEmail", mock.Anything, mock.Anything)
}

func (s *SenderTestSuite) TestEmail_DefaultFrom() {
	sender, err := NewEmailSender(EmailConfig{APIKey: "re_test"}, s.email)
	s.Require().NoError(err)

	s.email.On("SendEmail", s.ctx, mock.MatchedBy(func(r *EmailRequest) bool {
		return r.From == DefaultFromEmail
	})).Return("id", nil)

	resp := sender.Send(s.ctx, &MessagePayload{Channel: models.ChannelEmail, To: "jane@example.com", Subject: "s"})
	s.True(resp.Success)
}

func TestEmailSubject(t *testing.T) {
	assert.Equal(t, "Explicit", EmailSubject(&MessagePayload{Subject: "Explicit", Body: "body"}))
	assert.Equal(t, "No Subject", EmailSubject(&MessagePayload{}))

	long := "0123456789012345678901234567890123456789012345678901234567890123456789"
	assert.Equal(t, long[:50], EmailSubject(&MessagePayload{Body: long}))
}

func TestEmailHTML(t *testing.T) {
	assert.Equal(t, "<b>x</b>", EmailHTML(&MessagePayload{HTMLBody: "<b>x</b>", Body: "x"}))
	assert.Equal(t, "<p>a<br>b</p>", EmailHTML(&MessagePayload{Body: "a\nb"}))
	assert.Equal(t, "<p>1 &lt; 2</p>", EmailHTML(&MessagePayload{Body: "1 < 2"}))
}

func TestFactory_CreateSender(t *testing.T) {
	f := NewFactory(testTwilioConfig, new(mockTwilio), testEmailConfig, new(mockEmail))

	for _, ch := range models.Channels {
		sender, err := f.CreateSender(ch)
		require.NoError(t, err)
		assert.Equal(t, ch, sender.Channel())
	}

	_, err := f.CreateSender("pigeon")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedChannel)
}

func TestFactory_CreateSender_NotConfigured(t *testing.T) {
	f := NewFactory(TwilioConfig{}, nil, EmailConfig{}, nil)

	_, err := f.CreateSender(models.ChannelSMS)
	assert.ErrorIs(t, err, apperrors.ErrProviderNotConfigured)
	_, err = f.CreateSender(models.ChannelEmail)
	assert.ErrorIs(t, err, apperrors.ErrProviderNotConfigured)
	assert.Empty(t, f.ConfiguredChannels())
}

func TestFactory_Send_ValidationFailureSkipsProvider(t *testing.T) {
	tw := new(mockTwilio)
	f := NewFactory(testTwilioConfig, tw, testEmailConfig, new(mockEmail))

	resp, err := f.Send(context.Background(), &MessagePayload{Channel: models.ChannelSMS, To: "user@example.com", Body: "hi"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, models.MessageStatusFailed, resp.Status)
	assert.NotEmpty(t, resp.Error)
	tw.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestFactory_Send_Delegates(t *testing.T) {
	tw := new(mockTwilio)
	tw.On("CreateMessage", mock.Anything, mock.Anything).Return(&TwilioMessage{Sid: "SM123", Status: "queued"}, nil)
	f := NewFactory(testTwilioConfig, tw, testEmailConfig, new(mockEmail))

	resp, err := f.Send(context.Background(), &MessagePayload{Channel: models.ChannelWhatsApp, To: "+15551234567", Body: "hi"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "SM123", resp.MessageID)
	assert.Equal(t, models.MessageStatusPending, resp.Status)
	assert.Equal(t, []models.Channel{models.ChannelSMS, models.ChannelWhatsApp, models.ChannelEmail}, f.ConfiguredChannels())
}
