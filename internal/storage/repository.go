package storage

import (
	"context"
	"errors"
	"time"

	"github.com/promocard-agent/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Repository defines the interface for data persistence
type Repository interface {
	// Schedule operations
	SaveSchedule(ctx context.Context, schedule *models.Schedule) error
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	ListSchedules(ctx context.Context) ([]*models.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	DueSchedules(ctx context.Context, now time.Time) ([]*models.Schedule, error)

	// Generation history, capped to the most recent
	// models.GenerationHistoryLimit entries (oldest evicted first)
	AppendGeneration(ctx context.Context, record *models.GenerationRecord) error
	ListGenerations(ctx context.Context, limit int) ([]*models.GenerationRecord, error)

	// Schedule execution history
	AppendExecution(ctx context.Context, record *models.ExecutionRecord) error
	ListExecutions(ctx context.Context, scheduleID string, limit int) ([]*models.ExecutionRecord, error)

	// Maintenance
	Close() error
	Migrate() error
}
