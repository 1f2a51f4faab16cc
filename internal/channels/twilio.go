package channels

import (
	"context"
	"fmt"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	apperrors "github.com/welldanyogia/webrana-unibox-backend/internal/errors"
)

// DefaultWhatsAppNumber is the Twilio WhatsApp sandbox sender
const DefaultWhatsAppNumber = "whatsapp:+14155238886"

// TwilioConfig holds Twilio credentials and sender defaults
type TwilioConfig struct {
	AccountSID        string
	AuthToken         string
	PhoneNumber       string
	WhatsAppNumber    string
	StatusCallbackURL string
}

// Configured reports whether credentials are present
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

func (c TwilioConfig) check() error {
	if !c.Configured() {
		return fmt.Errorf("%w: Twilio credentials not configured. Set TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN",
			apperrors.ErrProviderNotConfigured)
	}
	return nil
}

// TwilioMessageParams is an outbound Twilio message request
type TwilioMessageParams struct {
	To             string
	From           string
	Body           string
	MediaURLs      []string
	StatusCallback string
}

// TwilioMessage is the subset of a Twilio message resource the senders use
type TwilioMessage struct {
	Sid        string
	Status     string
	AccountSid string
	Price      string
	PriceUnit  string
	NumMedia   string
}

// AccountInfo describes the Twilio account
type AccountInfo struct {
	AccountSID   string `json:"accountSid"`
	FriendlyName string `json:"friendlyName"`
	Status       string `json:"status"`
	Type         string `json:"type"`
}

// PhoneCapabilities lists what a number can do
type PhoneCapabilities struct {
	SMS   bool `json:"sms"`
	MMS   bool `json:"mms"`
	Voice bool `json:"voice"`
}

// PhoneNumber is an incoming phone number owned by the account
type PhoneNumber struct {
	Sid          string            `json:"sid"`
	PhoneNumber  string            `json:"phoneNumber"`
	FriendlyName string            `json:"friendlyName"`
	Capabilities PhoneCapabilities `json:"capabilities"`
}

// TwilioAPI is the slice of the Twilio REST API the inbox needs
type TwilioAPI interface {
	CreateMessage(ctx context.Context, params *TwilioMessageParams) (*TwilioMessage, error)
	FetchAccount(ctx context.Context) (*AccountInfo, error)
	ListPhoneNumbers(ctx context.Context) ([]PhoneNumber, error)
}

// TwilioClient implements TwilioAPI on top of twilio-go
type TwilioClient struct {
	rest       *twilio.RestClient
	accountSID string
}

// NewTwilioClient creates a Twilio REST client. It fails when credentials
// are missing.
func NewTwilioClient(cfg TwilioConfig) (*TwilioClient, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioClient{rest: rest, accountSID: cfg.AccountSID}, nil
}

// CreateMessage sends an SMS or WhatsApp message
func (c *TwilioClient) CreateMessage(ctx context.Context, params *TwilioMessageParams) (*TwilioMessage, error) {
	p := &openapi.CreateMessageParams{}
	p.SetTo(params.To)
	p.SetFrom(params.From)
	if params.Body != "" {
		p.SetBody(params.Body)
	}
	if len(params.MediaURLs) > 0 {
		p.SetMediaUrl(params.MediaURLs)
	}
	if params.StatusCallback != "" {
		p.SetStatusCallback(params.StatusCallback)
	}

	resp, err := c.rest.Api.CreateMessage(p)
	if err != nil {
		return nil, err
	}

	return &TwilioMessage{
		Sid:        deref(resp.Sid),
		Status:     deref(resp.Status),
		AccountSid: deref(resp.AccountSid),
		Price:      deref(resp.Price),
		PriceUnit:  deref(resp.PriceUnit),
		NumMedia:   deref(resp.NumMedia),
	}, nil
}

// FetchAccount returns the configured account
func (c *TwilioClient) FetchAccount(ctx context.Context) (*AccountInfo, error) {
	acct, err := c.rest.Api.FetchAccount(c.accountSID)
	if err != nil {
		return nil, err
	}
	return &AccountInfo{
		AccountSID:   deref(acct.Sid),
		FriendlyName: deref(acct.FriendlyName),
		Status:       deref(acct.Status),
		Type:         deref(acct.Type),
	}, nil
}

// ListPhoneNumbers returns the account's incoming phone numbers
func (c *TwilioClient) ListPhoneNumbers(ctx context.Context) ([]PhoneNumber, error) {
	params := &openapi.ListIncomingPhoneNumberParams{}
	params.SetLimit(50)

	records, err := c.rest.Api.ListIncomingPhoneNumber(params)
	if err != nil {
		return nil, err
	}

	numbers := make([]PhoneNumber, 0, len(records))
	for _, r := range records {
		n := PhoneNumber{
			Sid:          deref(r.Sid),
			PhoneNumber:  deref(r.PhoneNumber),
			FriendlyName: deref(r.FriendlyName),
		}
		if caps := r.Capabilities; caps != nil {
			n.Capabilities = PhoneCapabilities{SMS: caps.Sms, MMS: caps.Mms, Voice: caps.Voice}
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
