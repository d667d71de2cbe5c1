// Package activity records the append-only audit trail shown in the admin
// dashboard.
package activity

import (
	"context"
	"fmt"

	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/storage"
	"github.com/content-agent/pkg/logger"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Log writes activity entries
type Log struct {
	repo   storage.Repository
	logger *logger.Logger
}

// New creates an activity log
func New(repo storage.Repository, log *logger.Logger) *Log {
	return &Log{
		repo:   repo,
		logger: log.WithComponent("activity"),
	}
}

// Record appends an entry. Failures are logged, not returned.
func (l *Log) Record(ctx context.Context, activityType, details, icon string) {
	entry := &models.ActivityLog{
		Type:    activityType,
		Details: details,
		Icon:    icon,
	}
	if err := l.repo.CreateActivity(ctx, entry); err != nil {
		l.logger.Warn().Err(err).Str("type", activityType).Msg("Failed to record activity")
		return
	}
	l.logger.Debug().Str("type", activityType).Str("details", details).Msg("Activity recorded")
}

// Recordf is Record with a formatted detail line
func (l *Log) Recordf(ctx context.Context, activityType, icon, format string, args ...any) {
	l.Record(ctx, activityType, fmt.Sprintf(format, args...), icon)
}

// List returns the most recent entries, newest first
func (l *Log) List(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	entries, err := l.repo.ListActivity(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}
