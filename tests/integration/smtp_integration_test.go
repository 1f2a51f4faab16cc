//go:build integration

package integration

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/repository"
	"github.com/welldanyogia/webrana-unibox-backend/internal/services"
	"github.com/welldanyogia/webrana-unibox-backend/internal/smtp"
	"github.com/welldanyogia/webrana-unibox-backend/internal/storage"
	"github.com/welldanyogia/webrana-unibox-backend/tests/fixtures"
	"github.com/welldanyogia/webrana-unibox-backend/tests/mocks"
	"gorm.io/gorm"
)

// SMTPIntegrationTestSuite delivers mail to a live SMTP listener backed by
// real PostgreSQL
type SMTPIntegrationTestSuite struct {
	suite.Suite
	container   testcontainers.Container
	db          *gorm.DB
	fileStorage storage.FileStorage
	smtpServer  *gosmtp.Server
	smtpAddr    string
	notifier    *mocks.MockNotifier
}

// SetupSuite starts PostgreSQL and the SMTP server
func (s *SMTPIntegrationTestSuite) SetupSuite() {
	container, db, err := startPostgres(context.Background(), "unibox_smtp_test")
	s.container = container
	s.Require().NoError(err)
	s.db = db

	s.fileStorage, err = storage.NewLocalStorage(s.T().TempDir())
	s.Require().NoError(err)

	log := discardLogger()
	threadRepo := repository.NewThreadRepository(db)
	s.notifier = mocks.NewMockNotifier()
	store := services.NewMessageStore(services.MessageStoreDeps{
		Contacts:   services.NewContactResolver(repository.NewContactRepository(db), log),
		Threads:    services.NewThreadResolver(threadRepo, log),
		ThreadRepo: threadRepo,
		Messages:   repository.NewMessageRepository(db),
		Analytics:  repository.NewAnalyticsRepository(db),
		Notifier:   s.notifier,
		Logger:     log,
	})

	backend := smtp.NewBackend(&smtp.BackendConfig{
		Store:           store,
		FileStorage:     s.fileStorage,
		AcceptedDomains: []string{"inbox.example.com"},
		Logger:          log,
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.smtpAddr = listener.Addr().String()

	s.smtpServer = smtp.NewSecureServer(backend, &smtp.ServerConfig{
		Domain:       "inbox.example.com",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})
	go s.smtpServer.Serve(listener)
}

// TearDownSuite stops the SMTP server and PostgreSQL container
func (s *SMTPIntegrationTestSuite) TearDownSuite() {
	if s.smtpServer != nil {
		s.smtpServer.Close()
	}
	if s.container != nil {
		s.container.Terminate(context.Background())
	}
}

// SetupTest cleans up data before each test
func (s *SMTPIntegrationTestSuite) SetupTest() {
	s.Require().NoError(s.db.Exec(truncateAll).Error)
}

func TestSMTPIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(SMTPIntegrationTestSuite))
}

func (s *SMTPIntegrationTestSuite) send(from string, to []string, raw string) error {
	return gosmtp.SendMail(s.smtpAddr, nil, from, to, strings.NewReader(raw))
}

func (s *SMTPIntegrationTestSuite) emailThreads() []models.Thread {
	var threads []models.Thread
	s.Require().NoError(s.db.
		Preload("Contact").
		Preload("Messages.Attachments").
		Where("channel = ?", models.ChannelEmail).
		Find(&threads).Error)
	return threads
}

func (s *SMTPIntegrationTestSuite) TestPlainEmailCreatesContactAndThread() {
	raw := fixtures.RawEmail("Alice Example <alice@example.com>", "support@inbox.example.com",
		"Order question", "Where is my order?", "order-1@example.com")

	s.Require().NoError(s.send("alice@example.com", []string{"support@inbox.example.com"}, raw))

	threads := s.emailThreads()
	s.Require().Len(threads, 1)
	s.Equal(1, threads[0].UnreadCount)
	s.Require().NotNil(threads[0].Contact)
	s.Require().NotNil(threads[0].Contact.Email)
	s.Equal("alice@example.com", *threads[0].Contact.Email)

	s.Require().Len(threads[0].Messages, 1)
	msg := threads[0].Messages[0]
	s.Equal(models.DirectionInbound, msg.Direction)
	s.Equal("support@inbox.example.com", msg.To)
	s.Require().NotNil(msg.Subject)
	s.Equal("Order question", *msg.Subject)
	s.Require().NotNil(msg.ExternalID)
	s.Equal("order-1@example.com", *msg.ExternalID)
}

func (s *SMTPIntegrationTestSuite) TestRedeliveryIsStoredOnce() {
	raw := fixtures.RawEmail("bob@example.com", "support@inbox.example.com", "Hello", "Hi", "dup-1@example.com")

	s.Require().NoError(s.send("bob@example.com", []string{"support@inbox.example.com"}, raw))
	s.Require().NoError(s.send("bob@example.com", []string{"support@inbox.example.com"}, raw))

	var count int64
	s.Require().NoError(s.db.Model(&models.Message{}).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *SMTPIntegrationTestSuite) TestMultipleRecipientsStoreOneMessage() {
	raw := fixtures.RawEmail("carol@example.com", "sales@inbox.example.com", "Quote", "Need a quote", "quote-1@example.com")

	err := s.send("carol@example.com", []string{"sales@inbox.example.com", "support@inbox.example.com"}, raw)
	s.Require().NoError(err)

	threads := s.emailThreads()
	s.Require().Len(threads, 1)
	s.Require().Len(threads[0].Messages, 1)
	s.Equal("sales@inbox.example.com", threads[0].Messages[0].To)
}

func (s *SMTPIntegrationTestSuite) TestAttachmentIsSavedToStorage() {
	raw := fixtures.RawEmailWithAttachment("dave@example.com", "support@inbox.example.com",
		"Invoice", "See attached", "invoice-1@example.com", "invoice.txt", "total: 42")

	s.Require().NoError(s.send("dave@example.com", []string{"support@inbox.example.com"}, raw))

	threads := s.emailThreads()
	s.Require().Len(threads, 1)
	s.Require().Len(threads[0].Messages, 1)
	attachments := threads[0].Messages[0].Attachments
	s.Require().Len(attachments, 1)
	s.Equal("invoice.txt", attachments[0].Filename)
	s.NotEmpty(attachments[0].FilePath)

	rc, err := s.fileStorage.Get(attachments[0].FilePath)
	s.Require().NoError(err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	s.Require().NoError(err)
	s.Contains(string(content), "total: 42")
}

func (s *SMTPIntegrationTestSuite) TestForeignDomainIsRejected() {
	c, err := gosmtp.Dial(s.smtpAddr)
	s.Require().NoError(err)
	defer c.Close()

	s.Require().NoError(c.Hello("client.example.com"))
	s.Require().NoError(c.Mail("eve@example.com", nil))

	err = c.Rcpt("someone@elsewhere.example.org", nil)
	s.Require().Error(err)

	var smtpErr *gosmtp.SMTPError
	s.Require().True(errors.As(err, &smtpErr))
	s.Equal(550, smtpErr.Code)
	s.Empty(s.emailThreads())
}
