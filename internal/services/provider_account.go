package services

import (
	"context"
	"log/slog"

	"github.com/welldanyogia/webrana-unibox-backend/internal/channels"
	"golang.org/x/sync/errgroup"
)

// SandboxJoinHint tells users where to find the WhatsApp sandbox join code
const SandboxJoinHint = "Check Twilio Console → Messaging → Try it out → Send a WhatsApp message"

// TrialMessagePrefix is prepended by Twilio to messages from trial accounts
const TrialMessagePrefix = "Sent from a Twilio trial account"

// WhatsAppSandbox describes the WhatsApp sandbox sender
type WhatsAppSandbox struct {
	SandboxNumber string `json:"sandboxNumber"`
	JoinCode      string `json:"joinCode"`
}

// TrialRestrictions lists the limits of a trial account
type TrialRestrictions struct {
	CanOnlySendToVerified bool   `json:"canOnlySendToVerified"`
	MessagePrefix         string `json:"messagePrefix"`
	UpgradeRequired       bool   `json:"upgradeRequired"`
}

// ProviderAccount is the provider account overview
type ProviderAccount struct {
	Account         *channels.AccountInfo  `json:"account"`
	PhoneNumbers    []channels.PhoneNumber `json:"phoneNumbers"`
	IsTrial         bool                   `json:"isTrial"`
	WhatsAppSandbox *WhatsAppSandbox       `json:"whatsappSandbox"`
	Restrictions    *TrialRestrictions     `json:"restrictions"`
}

// ProviderAccountService reads account details from the SMS/WhatsApp provider
type ProviderAccountService interface {
	Overview(ctx context.Context) (*ProviderAccount, error)
}

type providerAccountService struct {
	client         channels.TwilioAPI
	whatsAppNumber string
	logger         *slog.Logger
}

// NewProviderAccountService creates a new ProviderAccountService
func NewProviderAccountService(client channels.TwilioAPI, whatsAppNumber string, logger *slog.Logger) ProviderAccountService {
	if logger == nil {
		logger = slog.Default()
	}
	if whatsAppNumber == "" {
		whatsAppNumber = channels.DefaultWhatsAppNumber
	}
	return &providerAccountService{client: client, whatsAppNumber: whatsAppNumber, logger: logger}
}

// Overview fetches the account and its phone numbers concurrently. A failed
// fetch is logged and leaves that part empty.
func (s *providerAccountService) Overview(ctx context.Context) (*ProviderAccount, error) {
	var (
		account *channels.AccountInfo
		numbers []channels.PhoneNumber
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := s.client.FetchAccount(gctx)
		if err != nil {
			s.logger.Error("failed to fetch provider account", slog.Any("error", err))
			return nil
		}
		account = info
		return nil
	})
	g.Go(func() error {
		list, err := s.client.ListPhoneNumbers(gctx)
		if err != nil {
			s.logger.Error("failed to list provider phone numbers", slog.Any("error", err))
			return nil
		}
		numbers = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if numbers == nil {
		numbers = []channels.PhoneNumber{}
	}

	overview := &ProviderAccount{
		Account:      account,
		PhoneNumbers: numbers,
		IsTrial:      isTrial(account),
		WhatsAppSandbox: &WhatsAppSandbox{
			SandboxNumber: s.whatsAppNumber,
			JoinCode:      SandboxJoinHint,
		},
	}
	if overview.IsTrial {
		overview.Restrictions = &TrialRestrictions{
			CanOnlySendToVerified: true,
			MessagePrefix:         TrialMessagePrefix,
			UpgradeRequired:       true,
		}
	}
	return overview, nil
}

func isTrial(account *channels.AccountInfo) bool {
	return account != nil && (account.Type == "Trial" || account.Status == "trial")
}
