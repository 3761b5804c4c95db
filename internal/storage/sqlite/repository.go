package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.Schedule{},
		&models.GenerationRecord{},
		&models.ExecutionRecord{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Schedule operations

func (r *Repository) SaveSchedule(ctx context.Context, schedule *models.Schedule) error {
	return r.db.WithContext(ctx).Save(schedule).Error
}

func (r *Repository) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := r.db.WithContext(ctx).First(&schedule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *Repository) ListSchedules(ctx context.Context) ([]*models.Schedule, error) {
	var schedules []*models.Schedule
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *Repository) DeleteSchedule(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Schedule{}, "id = ?", id).Error
}

func (r *Repository) DueSchedules(ctx context.Context, now time.Time) ([]*models.Schedule, error) {
	var schedules []*models.Schedule
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Where("status <> ?", models.ScheduleStatusCompleted).
		Where("next_run IS NULL OR next_run <= ?", now).
		Order("next_run ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

// Generation history

func (r *Repository) AppendGeneration(ctx context.Context, record *models.GenerationRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		// Enforce the retention cap by evicting the oldest entries
		var count int64
		if err := tx.Model(&models.GenerationRecord{}).Count(&count).Error; err != nil {
			return err
		}
		if excess := count - models.GenerationHistoryLimit; excess > 0 {
			var ids []string
			if err := tx.Model(&models.GenerationRecord{}).
				Order("created_at ASC").
				Limit(int(excess)).
				Pluck("id", &ids).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.GenerationRecord{}, "id IN ?", ids).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ListGenerations(ctx context.Context, limit int) ([]*models.GenerationRecord, error) {
	if limit <= 0 || limit > models.GenerationHistoryLimit {
		limit = models.GenerationHistoryLimit
	}
	var records []*models.GenerationRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Execution history

func (r *Repository) AppendExecution(ctx context.Context, record *models.ExecutionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *Repository) ListExecutions(ctx context.Context, scheduleID string, limit int) ([]*models.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.WithContext(ctx).Model(&models.ExecutionRecord{})
	if scheduleID != "" {
		query = query.Where("schedule_id = ?", scheduleID)
	}

	var records []*models.ExecutionRecord
	err := query.Order("started_at DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
