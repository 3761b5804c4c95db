package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promocard-agent/internal/models"
)

func validSchedule() *models.Schedule {
	return &models.Schedule{
		ID:        "s1",
		Name:      "morning deals",
		Enabled:   true,
		Frequency: models.FrequencyDaily,
		Hour:      9,
		Minute:    0,
		Search: models.SearchCriteria{
			Type:  models.SearchTypeQuery,
			Query: "headphones",
			Limit: 5,
		},
		Status: models.ScheduleStatusPending,
	}
}

func TestSchedule_Validate(t *testing.T) {
	require.NoError(t, validSchedule().Validate())

	t.Run("empty name", func(t *testing.T) {
		s := validSchedule()
		s.Name = ""
		assert.Error(t, s.Validate())
	})

	t.Run("hour out of range", func(t *testing.T) {
		s := validSchedule()
		s.Hour = 24
		assert.Error(t, s.Validate())
	})

	t.Run("weekly needs weekdays", func(t *testing.T) {
		s := validSchedule()
		s.Frequency = models.FrequencyWeekly
		assert.Error(t, s.Validate())

		s.Weekdays = models.IntSlice{1, 3, 5}
		assert.NoError(t, s.Validate())

		s.Weekdays = models.IntSlice{7}
		assert.Error(t, s.Validate())
	})

	t.Run("monthly day range", func(t *testing.T) {
		s := validSchedule()
		s.Frequency = models.FrequencyMonthly
		s.DayOfMonth = 0
		assert.Error(t, s.Validate())

		s.DayOfMonth = 31
		assert.NoError(t, s.Validate())
	})

	t.Run("non-positive limit", func(t *testing.T) {
		s := validSchedule()
		s.Search.Limit = 0
		assert.Error(t, s.Validate())
	})

	t.Run("unknown frequency", func(t *testing.T) {
		s := validSchedule()
		s.Frequency = "hourly"
		assert.Error(t, s.Validate())
	})
}

func TestSchedule_Clone(t *testing.T) {
	s := validSchedule()
	s.Frequency = models.FrequencyWeekly
	s.Weekdays = models.IntSlice{1, 3}
	now := time.Now()
	s.NextRun = &now

	clone := s.Clone()
	clone.Weekdays[0] = 6
	*clone.NextRun = now.Add(time.Hour)

	assert.Equal(t, 1, s.Weekdays[0])
	assert.True(t, s.NextRun.Equal(now))
}

func TestParseFrequency(t *testing.T) {
	for _, name := range []string{"once", "daily", "weekly", "monthly"} {
		got, err := models.ParseFrequency(name)
		require.NoError(t, err)
		assert.Equal(t, models.Frequency(name), got)
	}

	_, err := models.ParseFrequency("yearly")
	assert.Error(t, err)
}
