package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/repository"
	"github.com/welldanyogia/webrana-unibox-backend/tests/mocks"
)

// ThreadHandlerTestSuite is the test suite for ThreadHandler
type ThreadHandlerTestSuite struct {
	suite.Suite
	echo           *echo.Echo
	handler        *ThreadHandler
	mockThreadRepo *mocks.MockThreadRepository
}

func (s *ThreadHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.mockThreadRepo = new(mocks.MockThreadRepository)
	s.handler = NewThreadHandler(s.mockThreadRepo, quietLogger())
}

func (s *ThreadHandlerTestSuite) TearDownTest() {
	s.mockThreadRepo.AssertExpectations(s.T())
}

func TestThreadHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ThreadHandlerTestSuite))
}

func (s *ThreadHandlerTestSuite) thread(id string, unread int) *models.Thread {
	now := time.Now()
	return &models.Thread{
		ID:            id,
		ContactID:     "contact-1",
		Channel:       models.ChannelSMS,
		Status:        models.ThreadStatusOpen,
		UnreadCount:   unread,
		LastMessageAt: &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *ThreadHandlerTestSuite) TestList_DefaultsAndPagination() {
	threads := []models.Thread{*s.thread("t-1", 2), *s.thread("t-2", 0)}
	s.mockThreadRepo.On("List", mock.Anything, repository.ThreadFilter{Limit: 50, Offset: 0}).
		Return(threads, int64(75), nil)

	c, rec := newJSONContext(s.echo, http.MethodGet, "/api/inbox/threads", "")

	s.NoError(s.handler.List(c))
	s.Equal(http.StatusOK, rec.Code)

	body := decodeBody(rec)
	s.Len(body["threads"], 2)
	pagination := body["pagination"].(map[string]interface{})
	s.Equal(float64(75), pagination["total"])
	s.Equal(float64(50), pagination["limit"])
	s.Equal(float64(0), pagination["offset"])
	s.Equal(true, pagination["hasMore"])
}

func (s *ThreadHandlerTestSuite) TestList_PassesFilters() {
	want := repository.ThreadFilter{
		Status:     models.ThreadStatusOpen,
		Channel:    models.ChannelWhatsApp,
		UnreadOnly: true,
		Search:     "alice",
		Limit:      10,
		Offset:     20,
	}
	s.mockThreadRepo.On("List", mock.Anything, want).Return([]models.Thread{}, int64(25), nil)

	c, rec := newJSONContext(s.echo, http.MethodGet,
		"/api/inbox/threads?status=open&channel=whatsapp&unreadOnly=true&search=alice&limit=10&offset=20", "")

	s.NoError(s.handler.List(c))
	s.Equal(http.StatusOK, rec.Code)

	pagination := decodeBody(rec)["pagination"].(map[string]interface{})
	s.Equal(false, pagination["hasMore"])
}

func (s *ThreadHandlerTestSuite) TestList_ClampsLimit() {
	s.mockThreadRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ThreadFilter) bool {
		return f.Limit == 100 && f.Offset == 0
	})).Return(nil, int64(0), nil)

	c, rec := newJSONContext(s.echo, http.MethodGet, "/api/inbox/threads?limit=500&offset=-3", "")

	s.NoError(s.handler.List(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"threads":[]`)
}

func (s *ThreadHandlerTestSuite) TestList_RejectsUnknownFilters() {
	for _, query := range []string{"channel=fax", "status=deleted"} {
		c, rec := newJSONContext(s.echo, http.MethodGet, "/api/inbox/threads?"+query, "")

		s.NoError(s.handler.List(c))
		s.Equal(http.StatusBadRequest, rec.Code, query)
	}
}

func (s *ThreadHandlerTestSuite) TestList_RepositoryError() {
	s.mockThreadRepo.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("db down"))

	c, rec := newJSONContext(s.echo, http.MethodGet, "/api/inbox/threads", "")

	s.NoError(s.handler.List(c))
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("Failed to fetch threads", decodeBody(rec)["error"])
}

func (s *ThreadHandlerTestSuite) TestGet_MarksRead() {
	thread := s.thread("t-1", 3)
	body := "hi"
	thread.Messages = []models.Message{{ID: "m-1", ThreadID: "t-1", Body: &body}}
	s.mockThreadRepo.On("GetWithMessages", mock.Anything, "t-1").Return(thread, nil)
	s.mockThreadRepo.On("MarkRead", mock.Anything, "t-1").Return(nil)

	c, rec := newJSONContext(s.echo, http.MethodGet, "/api/inbox/threads/t-1", "")
	c.SetParamNames("id")
	c.SetParamValues("t-1")

	s.NoError(s.handler.Get(c))
	s.Equal(http.StatusOK, rec.Code)

	resp := decodeBody(rec)
	s.Equal("t-1", resp["id"])
	s.Equal(float64(0), resp["unreadCount"])
	s.Len(resp["messages"], 1)
}

func (s *ThreadHandlerTestSuite) TestGet_AlreadyReadSkipsUpdate() {
	s.mockThreadRepo.On("GetWithMessages", mock.Anything, "t-1").Return(s.thread("t-1", 0), nil)

	c, rec := newJSONContext(s.echo, http.MethodGet, "/api/inbox/threads/t-1", "")
	c.SetParamNames("id")
	c.SetParamValues("t-1")

	s.NoError(s.handler.Get(c))
	s.Equal(http.StatusOK, rec.Code)
	s.mockThreadRepo.AssertNotCalled(s.T(), "MarkRead", mock.Anything, mock.Anything)
}

func (s *ThreadHandlerTestSuite) TestGet_NotFound() {
	s.mockThreadRepo.On("GetWithMessages", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	c, rec := newJSONContext(s.echo, http.MethodGet, "/api/inbox/threads/missing", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")

	s.NoError(s.handler.Get(c))
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Thread not found", decodeBody(rec)["error"])
}

func (s *ThreadHandlerTestSuite) TestGet_MarkReadFailure() {
	s.mockThreadRepo.On("GetWithMessages", mock.Anything, "t-1").Return(s.thread("t-1", 1), nil)
	s.mockThreadRepo.On("MarkRead", mock.Anything, "t-1").Return(errors.New("db down"))

	c, rec := newJSONContext(s.echo, http.MethodGet, "/api/inbox/threads/t-1", "")
	c.SetParamNames("id")
	c.SetParamValues("t-1")

	s.NoError(s.handler.Get(c))
	s.Equal(http.StatusInternalServerError, rec.Code)
}
