package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ContactRepositoryTestSuite is the test suite for ContactRepository
type ContactRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo ContactRepository
	ctx  context.Context
}

func (s *ContactRepositoryTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.repo = NewContactRepository(s.db)
	s.ctx = context.Background()
}

func (s *ContactRepositoryTestSuite) TearDownTest() {
	if sqlDB, _ := s.db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
}

func TestContactRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ContactRepositoryTestSuite))
}

func (s *ContactRepositoryTestSuite) createContact(name, phone, email string) *models.Contact {
	c := &models.Contact{}
	if name != "" {
		c.Name = strPtr(name)
	}
	if phone != "" {
		c.Phone = strPtr(phone)
	}
	if email != "" {
		c.Email = strPtr(email)
	}
	s.Require().NoError(s.repo.Create(s.ctx, c))
	return c
}

func (s *ContactRepositoryTestSuite) TestCreate_AssignsDefaults() {
	c := s.createContact("Jane", "+15551234567", "")

	s.NotEmpty(c.ID)
	s.Equal(models.ContactStatusLead, c.Status)
	s.NotNil(c.MergedFromIDs)
}

func (s *ContactRepositoryTestSuite) TestFindByPhoneAndEmail() {
	c := s.createContact("Jane", "+15551234567", "jane@example.com")

	found, err := s.repo.FindByPhone(s.ctx, "+15551234567")
	s.Require().NoError(err)
	s.Equal(c.ID, found.ID)

	found, err = s.repo.FindByEmail(s.ctx, "jane@example.com")
	s.Require().NoError(err)
	s.Equal(c.ID, found.ID)

	_, err = s.repo.FindByPhone(s.ctx, "+19999999999")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.repo.GetByID(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}

func (s *ContactRepositoryTestSuite) TestFindByPhoneSuffix() {
	s.createContact("", "+15551234567", "")
	s.createContact("", "+445551234567", "")
	s.createContact("", "+15550000000", "")

	matches, err := s.repo.FindByPhoneSuffix(s.ctx, "5551234567", 2)
	s.Require().NoError(err)
	s.Len(matches, 2)

	matches, err = s.repo.FindByPhoneSuffix(s.ctx, "5550000000", 2)
	s.Require().NoError(err)
	s.Len(matches, 1)
}

func (s *ContactRepositoryTestSuite) TestUpdate() {
	c := s.createContact("", "+15551234567", "")

	s.Require().NoError(s.repo.Update(s.ctx, c.ID, map[string]interface{}{"name": "Jane"}))

	found, err := s.repo.GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("Jane", *found.Name)

	s.ErrorIs(s.repo.Update(s.ctx, "missing", map[string]interface{}{"name": "x"}), ErrNotFound)
}

func (s *ContactRepositoryTestSuite) TestMerge_RepointsOwnedRecordsAndDeletesSource() {
	target := s.createContact("", "", "jane@example.com")
	source := s.createContact("Jane Doe", "+15551234567", "other@example.com")
	source.TwitterHandle = strPtr("@jane")
	s.Require().NoError(s.db.Save(source).Error)

	thread := &models.Thread{ContactID: source.ID, Channel: models.ChannelSMS}
	s.Require().NoError(s.db.Create(thread).Error)
	note := &models.Note{ContactID: source.ID, Body: "called twice"}
	s.Require().NoError(s.db.Create(note).Error)
	scheduled := &models.ScheduledMessage{ContactID: source.ID, Channel: models.ChannelSMS, Body: "reminder", ScheduledFor: time.Now().Add(time.Hour)}
	s.Require().NoError(s.db.Create(scheduled).Error)
	event := &models.AnalyticsEvent{ContactID: source.ID, EventType: models.EventResponseReceived}
	s.Require().NoError(s.db.Create(event).Error)

	merged, err := s.repo.Merge(s.ctx, target.ID, source.ID)
	s.Require().NoError(err)

	s.Equal(target.ID, merged.ID)
	s.Equal("Jane Doe", *merged.Name)
	s.Equal("+15551234567", *merged.Phone)
	s.Equal("jane@example.com", *merged.Email, "non-empty target values are kept")
	s.Equal("@jane", *merged.TwitterHandle)
	s.Equal(models.StringList{source.ID}, merged.MergedFromIDs)

	_, err = s.repo.GetByID(s.ctx, source.ID)
	s.ErrorIs(err, ErrNotFound)

	var count int64
	s.db.Model(&models.Thread{}).Where("contact_id = ?", source.ID).Count(&count)
	s.Zero(count)
	s.db.Model(&models.Note{}).Where("contact_id = ?", source.ID).Count(&count)
	s.Zero(count)
	s.db.Model(&models.ScheduledMessage{}).Where("contact_id = ?", source.ID).Count(&count)
	s.Zero(count)
	s.db.Model(&models.AnalyticsEvent{}).Where("contact_id = ?", source.ID).Count(&count)
	s.Zero(count)

	var moved models.Thread
	s.Require().NoError(s.db.First(&moved, "id = ?", thread.ID).Error)
	s.Equal(target.ID, moved.ContactID)
	s.Equal(models.ThreadStatusOpen, moved.Status)
}

func (s *ContactRepositoryTestSuite) TestMerge_ArchivesConflictingActiveThread() {
	target := s.createContact("A", "+15551234567", "")
	source := s.createContact("B", "+15551234568", "")

	targetThread := &models.Thread{ContactID: target.ID, Channel: models.ChannelSMS}
	s.Require().NoError(s.db.Create(targetThread).Error)
	sourceSMS := &models.Thread{ContactID: source.ID, Channel: models.ChannelSMS}
	s.Require().NoError(s.db.Create(sourceSMS).Error)
	sourceEmail := &models.Thread{ContactID: source.ID, Channel: models.ChannelEmail}
	s.Require().NoError(s.db.Create(sourceEmail).Error)

	_, err := s.repo.Merge(s.ctx, target.ID, source.ID)
	s.Require().NoError(err)

	var active []models.Thread
	s.db.Where("contact_id = ? AND status IN ?", target.ID, models.ActiveThreadStatuses).Order("channel").Find(&active)
	s.Require().Len(active, 2)
	s.Equal(sourceEmail.ID, active[0].ID)
	s.Equal(targetThread.ID, active[1].ID)

	var archived models.Thread
	s.Require().NoError(s.db.First(&archived, "id = ?", sourceSMS.ID).Error)
	s.Equal(models.ThreadStatusArchived, archived.Status)
	s.Equal(target.ID, archived.ContactID)
}

func (s *ContactRepositoryTestSuite) TestMerge_AccumulatesMergedIDs() {
	target := s.createContact("A", "", "")
	first := s.createContact("B", "", "")
	second := s.createContact("C", "", "")

	_, err := s.repo.Merge(s.ctx, target.ID, first.ID)
	s.Require().NoError(err)
	merged, err := s.repo.Merge(s.ctx, target.ID, second.ID)
	s.Require().NoError(err)

	s.Equal(models.StringList{first.ID, second.ID}, merged.MergedFromIDs)
	s.Equal("A", *merged.Name)
}

func (s *ContactRepositoryTestSuite) TestMerge_MissingContact() {
	target := s.createContact("A", "", "")

	_, err := s.repo.Merge(s.ctx, target.ID, "missing")
	s.ErrorIs(err, ErrNotFound)

	_, err = s.repo.GetByID(s.ctx, target.ID)
	s.NoError(err)
}

func (s *ContactRepositoryTestSuite) TestMerge_Self() {
	target := s.createContact("A", "", "")

	_, err := s.repo.Merge(s.ctx, target.ID, target.ID)
	s.ErrorIs(err, ErrInvalidInput)
}

func TestContactRepository_Merge_RollsBackOnFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "contacts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "merged_from_ids"}).AddRow("target", "[]"))
	mock.ExpectQuery(`SELECT \* FROM "contacts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "merged_from_ids"}).AddRow("source", "[]"))
	mock.ExpectExec(`UPDATE "threads" SET "status"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "threads" SET "contact_id"`).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	repo := NewContactRepository(db)
	merged, err := repo.Merge(context.Background(), "target", "source")

	require.Error(t, err)
	assert.Nil(t, merged)
	assert.Contains(t, err.Error(), "failed to move threads")
	assert.NoError(t, mock.ExpectationsWereMet())
}
