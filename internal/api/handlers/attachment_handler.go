package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-unibox-backend/internal/api/response"
	"github.com/welldanyogia/webrana-unibox-backend/internal/logger"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/repository"
	"github.com/welldanyogia/webrana-unibox-backend/internal/storage"
	"github.com/welldanyogia/webrana-unibox-backend/internal/validator"
)

// AttachmentHandler handles attachment-related HTTP requests
type AttachmentHandler struct {
	attachmentRepo repository.AttachmentRepository
	fileStorage    storage.FileStorage
	secLogger      *logger.SecurityLogger
	logger         *slog.Logger
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(
	attachmentRepo repository.AttachmentRepository,
	fileStorage storage.FileStorage,
	secLogger *logger.SecurityLogger,
	log *slog.Logger,
) *AttachmentHandler {
	if log == nil {
		log = slog.Default()
	}
	if secLogger == nil {
		secLogger = logger.NewSecurityLogger()
	}
	return &AttachmentHandler{
		attachmentRepo: attachmentRepo,
		fileStorage:    fileStorage,
		secLogger:      secLogger,
		logger:         log,
	}
}

// Get handles GET /api/attachments/:id
func (h *AttachmentHandler) Get(c echo.Context) error {
	attachment, err := h.lookup(c)
	if err != nil {
		return err
	}
	if attachment == nil {
		return nil
	}
	return response.Success(c, attachment)
}

// Download handles GET /api/attachments/:id/download. Files received over
// SMTP are streamed from storage; provider media redirects to its URL.
func (h *AttachmentHandler) Download(c echo.Context) error {
	attachment, err := h.lookup(c)
	if err != nil {
		return err
	}
	if attachment == nil {
		return nil
	}

	if attachment.FilePath == "" {
		if attachment.URL != nil && *attachment.URL != "" {
			return c.Redirect(http.StatusFound, *attachment.URL)
		}
		return response.NotFound(c, "attachment content not available")
	}

	file, err := h.fileStorage.Get(attachment.FilePath)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPathTraversal):
			h.secLogger.PathTraversalAttempt(c.RealIP(), c.Request().URL.Path, attachment.FilePath)
			return response.NotFound(c, "attachment not found")
		case errors.Is(err, storage.ErrFileNotFound):
			return response.NotFound(c, "attachment file missing")
		}
		h.logger.Error("failed to open attachment", slog.String("attachment_id", attachment.ID), slog.Any("error", err))
		return response.InternalError(c, "failed to retrieve file")
	}
	defer file.Close()

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	header := c.Response().Header()
	header.Set(echo.HeaderContentType, contentType)
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, validator.SanitizeFilename(attachment.Filename)))
	header.Set(echo.HeaderXContentTypeOptions, "nosniff")
	if attachment.Size != nil && *attachment.Size > 0 {
		header.Set(echo.HeaderContentLength, strconv.FormatInt(*attachment.Size, 10))
	}

	c.Response().WriteHeader(http.StatusOK)
	if _, err := io.Copy(c.Response(), file); err != nil {
		h.logger.Warn("attachment download interrupted", slog.String("attachment_id", attachment.ID), slog.Any("error", err))
	}
	return nil
}

// lookup loads the attachment named by :id. A nil attachment with a nil
// error means the response was already written.
func (h *AttachmentHandler) lookup(c echo.Context) (*models.MessageAttachment, error) {
	id := c.Param("id")
	if id == "" {
		return nil, response.BadRequest(c, "invalid attachment ID")
	}

	attachment, err := h.attachmentRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, response.NotFound(c, "attachment not found")
		}
		h.logger.Error("failed to get attachment", slog.String("attachment_id", id), slog.Any("error", err))
		return nil, response.InternalError(c, "failed to get attachment")
	}
	return attachment, nil
}
