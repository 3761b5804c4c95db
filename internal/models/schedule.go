package models

import (
	"fmt"
	"time"
)

// Frequency describes how often a schedule repeats
type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency validates a frequency name, rejecting unknown values
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", s)
	}
}

// ScheduleStatus represents the current state of a schedule
type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "pending"
	ScheduleStatusRunning   ScheduleStatus = "running"
	ScheduleStatusCompleted ScheduleStatus = "completed" // once-frequency after its run
	ScheduleStatusError     ScheduleStatus = "error"     // last run failed
)

// SearchType selects which product source a schedule pulls from
type SearchType string

const (
	SearchTypeQuery    SearchType = "query"
	SearchTypeTrending SearchType = "trending"
	SearchTypeFeed     SearchType = "feed"
)

// SearchCriteria describes the product set a schedule generates for
type SearchCriteria struct {
	Type  SearchType `json:"type"`
	Query string     `json:"query,omitempty"`
	Limit int        `json:"limit"`
}

// Schedule is a persisted recurrence rule plus generation configuration
type Schedule struct {
	ID         string               `gorm:"primaryKey" json:"id"`
	Name       string               `gorm:"not null" json:"name"`
	Enabled    bool                 `gorm:"default:true" json:"enabled"`
	Frequency  Frequency            `gorm:"not null" json:"frequency"`
	Hour       int                  `json:"hour"`
	Minute     int                  `json:"minute"`
	Weekdays   IntSlice             `gorm:"type:json" json:"weekdays,omitempty"`     // weekly only, 0=Sunday
	DayOfMonth int                  `json:"day_of_month,omitempty"`                  // monthly only
	Search     SearchCriteria       `gorm:"type:json;serializer:json" json:"search"`
	Card       CardGenerationConfig `gorm:"type:json;serializer:json" json:"card"`
	Status     ScheduleStatus       `gorm:"default:'pending'" json:"status"`
	LastRun    *time.Time           `json:"last_run"`
	NextRun    *time.Time           `gorm:"index" json:"next_run"`
	CreatedAt  time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

// ValidationError reports a malformed schedule mutation. Invalid schedules
// are rejected before persistence, never stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid schedule: %s %s", e.Field, e.Reason)
}

// Validate checks the schedule invariants
func (s *Schedule) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if _, err := ParseFrequency(string(s.Frequency)); err != nil {
		return &ValidationError{Field: "frequency", Reason: err.Error()}
	}
	if s.Hour < 0 || s.Hour > 23 {
		return &ValidationError{Field: "hour", Reason: "must be in 0..23"}
	}
	if s.Minute < 0 || s.Minute > 59 {
		return &ValidationError{Field: "minute", Reason: "must be in 0..59"}
	}
	if s.Frequency == FrequencyWeekly {
		if len(s.Weekdays) == 0 {
			return &ValidationError{Field: "weekdays", Reason: "must not be empty for weekly schedules"}
		}
		for _, d := range s.Weekdays {
			if d < 0 || d > 6 {
				return &ValidationError{Field: "weekdays", Reason: fmt.Sprintf("weekday %d out of range 0..6", d)}
			}
		}
	}
	if s.Frequency == FrequencyMonthly && (s.DayOfMonth < 1 || s.DayOfMonth > 31) {
		return &ValidationError{Field: "day_of_month", Reason: "must be in 1..31"}
	}
	if s.Search.Limit <= 0 {
		return &ValidationError{Field: "search.limit", Reason: "must be positive"}
	}
	return nil
}

// Clone returns a deep copy so mutations can be value replacements
func (s *Schedule) Clone() *Schedule {
	out := *s
	out.Weekdays = append(IntSlice(nil), s.Weekdays...)
	out.Card.Encodings = append(StringSlice(nil), s.Card.Encodings...)
	if s.LastRun != nil {
		t := *s.LastRun
		out.LastRun = &t
	}
	if s.NextRun != nil {
		t := *s.NextRun
		out.NextRun = &t
	}
	return &out
}
