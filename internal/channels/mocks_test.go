package channels

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockTwilio struct {
	mock.Mock
}

func (m *mockTwilio) CreateMessage(ctx context.Context, params *TwilioMessageParams) (*TwilioMessage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TwilioMessage), args.Error(1)
}

func (m *mockTwilio) FetchAccount(ctx context.Context) (*AccountInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AccountInfo), args.Error(1)
}

func (m *mockTwilio) ListPhoneNumbers(ctx context.Context) ([]PhoneNumber, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]PhoneNumber), args.Error(1)
}

type mockEmail struct {
	mock.Mock
}

func (m *mockEmail) SendEmail(ctx context.Context, req *EmailRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

var testTwilioConfig = TwilioConfig{
	AccountSID:        "AC123",
	AuthToken:         "token",
	PhoneNumber:       "+15550001111",
	StatusCallbackURL: "https://example.com/api/webhooks/twilio",
}

var testEmailConfig = EmailConfig{
	APIKey:    "re_test",
	FromEmail: "inbox@example.com",
}
