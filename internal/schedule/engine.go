package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/internal/storage"
	"github.com/promocard-agent/pkg/logger"
)

// CardGenerator produces card artifacts for one product
type CardGenerator interface {
	GenerateCards(ctx context.Context, product *models.Product, cfg models.CardGenerationConfig) *models.CardGenerationResult
}

// ProductSearcher finds the products a schedule generates cards for
type ProductSearcher interface {
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Product, error)
}

// Engine executes schedules: it finds due schedules, pulls their product
// sets, drives the generator for each product and advances the recurrence
// state.
type Engine struct {
	repo      storage.Repository
	searcher  ProductSearcher
	generator CardGenerator
	log       *logger.Logger
}

// NewEngine creates a schedule engine
func NewEngine(repo storage.Repository, searcher ProductSearcher, generator CardGenerator, log *logger.Logger) *Engine {
	return &Engine{
		repo:      repo,
		searcher:  searcher,
		generator: generator,
		log:       log.WithComponent("schedule"),
	}
}

// CalculateNextRun computes the next execution time for a schedule
// relative to now. Seconds are always zero. The returned time is strictly
// after now.
func CalculateNextRun(s *models.Schedule, now time.Time) (time.Time, error) {
	if err := s.Validate(); err != nil {
		return time.Time{}, err
	}

	loc := now.Location()
	tentative := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, loc)

	switch s.Frequency {
	case models.FrequencyOnce, models.FrequencyDaily:
		if !tentative.After(now) {
			tentative = tentative.AddDate(0, 0, 1)
		}
		return tentative, nil

	case models.FrequencyWeekly:
		if !tentative.After(now) {
			tentative = tentative.AddDate(0, 0, 1)
		}
		return nextWeekday(tentative, s.Weekdays), nil

	case models.FrequencyMonthly:
		next := monthlyAt(now.Year(), now.Month(), s.DayOfMonth, s.Hour, s.Minute, loc)
		if !next.After(now) {
			year, month := now.Year(), now.Month()+1
			next = monthlyAt(year, month, s.DayOfMonth, s.Hour, s.Minute, loc)
		}
		return next, nil
	}

	return time.Time{}, fmt.Errorf("unknown frequency %q", s.Frequency)
}

// nextWeekday moves tentative forward to the nearest enabled weekday,
// keeping tentative itself when its weekday is enabled. Weekdays use
// 0=Sunday, matching time.Weekday.
func nextWeekday(tentative time.Time, weekdays models.IntSlice) time.Time {
	current := int(tentative.Weekday())

	best := -1
	for _, d := range weekdays {
		if d >= current && (best == -1 || d < best) {
			best = d
		}
	}
	if best >= 0 {
		return tentative.AddDate(0, 0, best-current)
	}

	// Nothing left this week, wrap to the earliest enabled day next week
	first := weekdays[0]
	for _, d := range weekdays {
		if d < first {
			first = d
		}
	}
	return tentative.AddDate(0, 0, 7-current+first)
}

// monthlyAt places hh:mm on the target day of the given month, clamping
// the day to the month length so day 31 lands on April 30, not May 1.
func monthlyAt(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

// ToggleWeekday returns a copy of the schedule with the given weekday
// flipped. Removing the last enabled weekday of a weekly schedule is
// rejected: the unchanged schedule is returned together with the
// validation error so callers can surface it without losing state.
func ToggleWeekday(s *models.Schedule, weekday int) (*models.Schedule, error) {
	if weekday < 0 || weekday > 6 {
		return s.Clone(), &models.ValidationError{Field: "weekdays", Reason: fmt.Sprintf("weekday %d out of range 0..6", weekday)}
	}
	if s.Frequency != models.FrequencyWeekly {
		return s.Clone(), &models.ValidationError{Field: "frequency", Reason: "weekday toggles apply to weekly schedules only"}
	}

	out := s.Clone()
	idx := -1
	for i, d := range out.Weekdays {
		if d == weekday {
			idx = i
			break
		}
	}

	if idx >= 0 {
		if len(out.Weekdays) == 1 {
			return s.Clone(), &models.ValidationError{Field: "weekdays", Reason: "cannot remove the last enabled weekday"}
		}
		out.Weekdays = append(out.Weekdays[:idx], out.Weekdays[idx+1:]...)
	} else {
		out.Weekdays = append(out.Weekdays, weekday)
		sort.Ints(out.Weekdays)
	}
	return out, nil
}

// RunSchedule executes one schedule now: search products, generate cards
// for each, advance the recurrence state and record the execution. A run
// with zero products is a failure.
func (e *Engine) RunSchedule(ctx context.Context, s *models.Schedule) error {
	start := time.Now()
	log := e.log.WithScheduleID(s.ID)
	log.Info().Str("name", s.Name).Str("frequency", string(s.Frequency)).Msg("Running schedule")

	s.Status = models.ScheduleStatusRunning
	if err := e.repo.SaveSchedule(ctx, s); err != nil {
		return fmt.Errorf("failed to mark schedule running: %w", err)
	}

	products, err := e.searcher.Search(ctx, s.Search)
	if err != nil {
		return e.finishFailed(ctx, s, start, fmt.Errorf("product search failed: %w", err))
	}
	if len(products) == 0 {
		return e.finishFailed(ctx, s, start, fmt.Errorf("no products found for schedule %s", s.ID))
	}

	cfg := s.Card
	cfg.Mode = models.ModeAutomated
	cfg.ScheduleID = s.ID

	var (
		successCount int
		runErrors    models.StringSlice
	)
	for _, product := range products {
		result := e.generator.GenerateCards(ctx, product, cfg)
		if result.Success {
			successCount++
			continue
		}
		runErrors = append(runErrors, fmt.Sprintf("product %s: %s", product.ID, result.Error))
	}

	success := successCount > 0
	e.advance(s, start, success)
	if err := e.repo.SaveSchedule(ctx, s); err != nil {
		log.Error().Err(err).Msg("Failed to persist schedule state")
	}

	e.recordExecution(ctx, s.ID, start, len(products), successCount, runErrors, success)

	log.Info().
		Int("products", len(products)).
		Int("generated", successCount).
		Dur("elapsed", time.Since(start)).
		Msg("Schedule run finished")

	if !success {
		return fmt.Errorf("schedule %s generated no cards: %d products failed", s.ID, len(products))
	}
	return nil
}

// finishFailed records a run that produced nothing and leaves the
// schedule in error state. The recurrence still advances so a transient
// failure does not stall the schedule forever.
func (e *Engine) finishFailed(ctx context.Context, s *models.Schedule, start time.Time, cause error) error {
	e.log.WithScheduleID(s.ID).Error().Err(cause).Msg("Schedule run failed")

	e.advance(s, start, false)
	if err := e.repo.SaveSchedule(ctx, s); err != nil {
		e.log.WithScheduleID(s.ID).Error().Err(err).Msg("Failed to persist schedule state")
	}

	e.recordExecution(ctx, s.ID, start, 0, 0, models.StringSlice{cause.Error()}, false)
	return cause
}

// advance updates LastRun, NextRun and Status after a run
func (e *Engine) advance(s *models.Schedule, start time.Time, success bool) {
	runAt := start
	s.LastRun = &runAt

	if s.Frequency == models.FrequencyOnce {
		s.NextRun = nil
		s.Status = models.ScheduleStatusCompleted
		if !success {
			s.Status = models.ScheduleStatusError
		}
		return
	}

	next, err := CalculateNextRun(s, start)
	if err != nil {
		e.log.WithScheduleID(s.ID).Error().Err(err).Msg("Failed to compute next run")
		s.NextRun = nil
	} else {
		s.NextRun = &next
	}

	if success {
		s.Status = models.ScheduleStatusPending
	} else {
		s.Status = models.ScheduleStatusError
	}
}

func (e *Engine) recordExecution(ctx context.Context, scheduleID string, start time.Time, productCount, successCount int, errs models.StringSlice, success bool) {
	record := &models.ExecutionRecord{
		ID:           uuid.NewString(),
		ScheduleID:   scheduleID,
		StartedAt:    start,
		Duration:     time.Since(start),
		ProductCount: productCount,
		SuccessCount: successCount,
		Errors:       errs,
		Success:      success,
	}
	if err := e.repo.AppendExecution(ctx, record); err != nil {
		e.log.WithScheduleID(scheduleID).Warn().Err(err).Msg("Failed to append execution record")
	}
}

// RunDue executes every enabled schedule whose next run is at or before
// now. Schedules saved without a next run get one computed first and are
// picked up on a later tick.
func (e *Engine) RunDue(ctx context.Context, now time.Time) error {
	due, err := e.repo.DueSchedules(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list due schedules: %w", err)
	}

	var failures int
	for _, s := range due {
		if s.NextRun == nil {
			next, err := CalculateNextRun(s, now)
			if err != nil {
				e.log.WithScheduleID(s.ID).Error().Err(err).Msg("Skipping schedule with invalid recurrence")
				continue
			}
			s.NextRun = &next
			if err := e.repo.SaveSchedule(ctx, s); err != nil {
				e.log.WithScheduleID(s.ID).Error().Err(err).Msg("Failed to persist next run")
			}
			continue
		}

		if err := e.RunSchedule(ctx, s); err != nil {
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d due schedules failed", failures, len(due))
	}
	return nil
}
