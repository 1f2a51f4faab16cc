package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/repository"
)

// ThreadResolver returns the active thread for a contact on a channel
type ThreadResolver interface {
	FindOrCreate(ctx context.Context, contactID string, channel models.Channel) (*models.Thread, error)
}

type threadResolver struct {
	repo   repository.ThreadRepository
	logger *slog.Logger
}

// NewThreadResolver creates a new ThreadResolver
func NewThreadResolver(repo repository.ThreadRepository, logger *slog.Logger) ThreadResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &threadResolver{repo: repo, logger: logger}
}

// FindOrCreate reuses an open or closed thread and opens a new one otherwise.
func (r *threadResolver) FindOrCreate(ctx context.Context, contactID string, channel models.Channel) (*models.Thread, error) {
	thread, err := r.repo.FindActive(ctx, contactID, channel)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to find thread: %w", err)
	}

	thread = &models.Thread{
		ContactID:   contactID,
		Channel:     channel,
		Status:      models.ThreadStatusOpen,
		UnreadCount: 0,
	}
	if err := r.repo.Create(ctx, thread); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	r.logger.Info("thread created",
		slog.String("thread_id", thread.ID),
		slog.String("contact_id", contactID),
		slog.String("channel", string(channel)),
	)
	return thread, nil
}
