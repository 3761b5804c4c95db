package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/internal/storage"
)

const (
	scheduleKeyPrefix = "promocard:schedule:"
	generationsKey    = "promocard:generations"
	executionsKey     = "promocard:executions"

	executionHistoryLimit = 500
)

// Repository implements storage.Repository on Redis. Records are stored
// as JSON values keyed by id; history lives in lists trimmed server-side,
// so concurrent appenders never overwrite each other's entries.
type Repository struct {
	client *redis.Client
}

// Config holds Redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New creates a new Redis repository
func New(cfg Config) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Repository{client: client}, nil
}

// Migrate is a no-op for the schemaless backend
func (r *Repository) Migrate() error {
	return nil
}

// Close closes the connection pool
func (r *Repository) Close() error {
	return r.client.Close()
}

// Schedule operations

func (r *Repository) SaveSchedule(ctx context.Context, schedule *models.Schedule) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}
	return r.client.Set(ctx, scheduleKeyPrefix+schedule.ID, data, 0).Err()
}

func (r *Repository) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	data, err := r.client.Get(ctx, scheduleKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var schedule models.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("failed to decode schedule %s: %w", id, err)
	}
	return &schedule, nil
}

func (r *Repository) ListSchedules(ctx context.Context) ([]*models.Schedule, error) {
	keys, err := r.client.Keys(ctx, scheduleKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	schedules := make([]*models.Schedule, 0, len(keys))
	for _, key := range keys {
		data, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // deleted between KEYS and GET
		}
		if err != nil {
			return nil, err
		}
		var schedule models.Schedule
		if err := json.Unmarshal(data, &schedule); err != nil {
			return nil, fmt.Errorf("failed to decode schedule at %s: %w", key, err)
		}
		schedules = append(schedules, &schedule)
	}
	return schedules, nil
}

func (r *Repository) DeleteSchedule(ctx context.Context, id string) error {
	return r.client.Del(ctx, scheduleKeyPrefix+id).Err()
}

func (r *Repository) DueSchedules(ctx context.Context, now time.Time) ([]*models.Schedule, error) {
	all, err := r.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}

	var due []*models.Schedule
	for _, s := range all {
		if !s.Enabled || s.Status == models.ScheduleStatusCompleted {
			continue
		}
		if s.NextRun == nil || !s.NextRun.After(now) {
			due = append(due, s)
		}
	}
	return due, nil
}

// Generation history

func (r *Repository) AppendGeneration(ctx context.Context, record *models.GenerationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode generation record: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, generationsKey, data)
	pipe.LTrim(ctx, generationsKey, 0, models.GenerationHistoryLimit-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Repository) ListGenerations(ctx context.Context, limit int) ([]*models.GenerationRecord, error) {
	if limit <= 0 || limit > models.GenerationHistoryLimit {
		limit = models.GenerationHistoryLimit
	}

	raw, err := r.client.LRange(ctx, generationsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*models.GenerationRecord, 0, len(raw))
	for _, item := range raw {
		var record models.GenerationRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("failed to decode generation record: %w", err)
		}
		records = append(records, &record)
	}
	return records, nil
}

// Execution history

func (r *Repository) AppendExecution(ctx context.Context, record *models.ExecutionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode execution record: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, executionsKey, data)
	pipe.LTrim(ctx, executionsKey, 0, executionHistoryLimit-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Repository) ListExecutions(ctx context.Context, scheduleID string, limit int) ([]*models.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	raw, err := r.client.LRange(ctx, executionsKey, 0, executionHistoryLimit-1).Result()
	if err != nil {
		return nil, err
	}

	var records []*models.ExecutionRecord
	for _, item := range raw {
		var record models.ExecutionRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("failed to decode execution record: %w", err)
		}
		if scheduleID != "" && record.ScheduleID != scheduleID {
			continue
		}
		records = append(records, &record)
		if len(records) == limit {
			break
		}
	}
	return records, nil
}
