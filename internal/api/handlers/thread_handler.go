package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-unibox-backend/internal/api/response"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/repository"
	"github.com/welldanyogia/webrana-unibox-backend/internal/validator"
)

// ThreadHandler handles inbox thread HTTP requests
type ThreadHandler struct {
	threadRepo repository.ThreadRepository
	logger     *slog.Logger
}

// NewThreadHandler creates a new ThreadHandler
func NewThreadHandler(threadRepo repository.ThreadRepository, logger *slog.Logger) *ThreadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThreadHandler{threadRepo: threadRepo, logger: logger}
}

// ThreadListResponse is one page of inbox threads
type ThreadListResponse struct {
	Threads    []models.Thread     `json:"threads"`
	Pagination response.Pagination `json:"pagination"`
}

// List handles GET /api/inbox/threads
func (h *ThreadHandler) List(c echo.Context) error {
	filter := repository.ThreadFilter{
		Status:     models.ThreadStatus(strings.ToLower(c.QueryParam("status"))),
		Channel:    models.Channel(strings.ToLower(c.QueryParam("channel"))),
		UnreadOnly: c.QueryParam("unreadOnly") == "true",
		Search:     c.QueryParam("search"),
	}

	if filter.Channel != "" && !filter.Channel.Valid() {
		return response.BadRequest(c, "invalid channel")
	}
	switch filter.Status {
	case "", models.ThreadStatusOpen, models.ThreadStatusClosed, models.ThreadStatusArchived:
	default:
		return response.BadRequest(c, "invalid status")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	filter.Limit, filter.Offset = validator.ValidatePagination(limit, offset)

	threads, total, err := h.threadRepo.List(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("failed to list threads", slog.Any("error", err))
		return response.InternalError(c, "Failed to fetch threads")
	}
	if threads == nil {
		threads = []models.Thread{}
	}

	return response.JSON(c, ThreadListResponse{
		Threads:    threads,
		Pagination: response.NewPagination(total, filter.Limit, filter.Offset),
	})
}

// Get handles GET /api/inbox/threads/:id and marks the thread read
func (h *ThreadHandler) Get(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return response.BadRequest(c, "Thread ID is required")
	}

	thread, err := h.threadRepo.GetWithMessages(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "Thread not found")
		}
		h.logger.Error("failed to get thread", slog.String("thread_id", id), slog.Any("error", err))
		return response.InternalError(c, "Failed to fetch thread")
	}

	if thread.UnreadCount > 0 {
		if err := h.threadRepo.MarkRead(c.Request().Context(), id); err != nil {
			h.logger.Error("failed to mark thread read", slog.String("thread_id", id), slog.Any("error", err))
			return response.InternalError(c, "Failed to fetch thread")
		}
		thread.UnreadCount = 0
	}

	return response.JSON(c, thread)
}
