package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/internal/storage"
	"github.com/promocard-agent/internal/storage/sqlite"
)

func newTestRepo(t *testing.T) *sqlite.Repository {
	t.Helper()

	repo, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleSchedule(id string) *models.Schedule {
	return &models.Schedule{
		ID:        id,
		Name:      "schedule " + id,
		Enabled:   true,
		Frequency: models.FrequencyWeekly,
		Hour:      9,
		Weekdays:  models.IntSlice{1, 3, 5},
		Search: models.SearchCriteria{
			Type:  models.SearchTypeQuery,
			Query: "deals",
			Limit: 5,
		},
		Card: models.CardGenerationConfig{
			Template:  models.TemplateModern,
			Encodings: models.StringSlice{"png"},
			UseAI:     true,
		},
		Status: models.ScheduleStatusPending,
	}
}

func TestRepository_ScheduleRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := sampleSchedule("s1")
	require.NoError(t, repo.SaveSchedule(ctx, s))

	got, err := repo.GetSchedule(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s.Name, got.Name)
	assert.Equal(t, models.IntSlice{1, 3, 5}, got.Weekdays)
	assert.Equal(t, models.SearchTypeQuery, got.Search.Type)
	assert.Equal(t, models.TemplateModern, got.Card.Template)
	assert.True(t, got.Card.UseAI)

	_, err = repo.GetSchedule(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, repo.DeleteSchedule(ctx, "s1"))
	_, err = repo.GetSchedule(ctx, "s1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRepository_DueSchedules(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	due := sampleSchedule("due")
	past := now.Add(-time.Hour)
	due.NextRun = &past
	require.NoError(t, repo.SaveSchedule(ctx, due))

	future := sampleSchedule("future")
	later := now.Add(time.Hour)
	future.NextRun = &later
	require.NoError(t, repo.SaveSchedule(ctx, future))

	disabled := sampleSchedule("disabled")
	disabled.Enabled = false
	disabled.NextRun = &past
	require.NoError(t, repo.SaveSchedule(ctx, disabled))

	completed := sampleSchedule("completed")
	completed.Status = models.ScheduleStatusCompleted
	require.NoError(t, repo.SaveSchedule(ctx, completed))

	unplanned := sampleSchedule("unplanned")
	require.NoError(t, repo.SaveSchedule(ctx, unplanned))

	got, err := repo.DueSchedules(ctx, now)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"due", "unplanned"}, ids)
}

func TestRepository_GenerationHistoryCap(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	total := models.GenerationHistoryLimit + 10
	base := time.Now().Add(-time.Duration(total) * time.Minute)
	for i := 0; i < total; i++ {
		record := &models.GenerationRecord{
			ID:          fmt.Sprintf("g%03d", i),
			ProductID:   "p1",
			ProductName: "Product",
			Mode:        models.ModeAutomated,
			Template:    models.TemplateModern,
			Cards:       map[models.Encoding]string{models.EncodingPNG: "/cards/x.png"},
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.AppendGeneration(ctx, record))
	}

	records, err := repo.ListGenerations(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, models.GenerationHistoryLimit)

	// Newest first, oldest evicted
	assert.Equal(t, fmt.Sprintf("g%03d", total-1), records[0].ID)
	for _, r := range records {
		assert.NotEqual(t, "g000", r.ID)
	}
}

func TestRepository_Executions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		scheduleID := "s1"
		if i == 2 {
			scheduleID = "s2"
		}
		record := &models.ExecutionRecord{
			ID:           fmt.Sprintf("e%d", i),
			ScheduleID:   scheduleID,
			StartedAt:    time.Now().Add(time.Duration(i) * time.Minute),
			ProductCount: 2,
			SuccessCount: 1,
			Errors:       models.StringSlice{"product x: render failed"},
			Success:      true,
		}
		require.NoError(t, repo.AppendExecution(ctx, record))
	}

	all, err := repo.ListExecutions(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := repo.ListExecutions(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
	assert.Equal(t, models.StringSlice{"product x: render failed"}, filtered[0].Errors)
}
