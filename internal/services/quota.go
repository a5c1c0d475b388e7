package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchbot-server/internal/models"
	"matchbot-server/internal/repository"
	"matchbot-server/internal/utils"

	"github.com/sirupsen/logrus"
)

const DefaultMaxDailyViews = 10

type quotaStore interface {
	repository.Clock
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	repository.QuotaStore
}

// QuotaTracker enforces the per-user daily view limit.
//
// CanView and RecordView are separate store round trips, so two concurrent
// requests from one user may both pass CanView before either increments.
// The overshoot is bounded by the number of in-flight requests.
type QuotaTracker struct {
	store     quotaStore
	limits    LimitsSwitch
	maxPerDay int
	loc       *time.Location
	log       logrus.FieldLogger
}

func NewQuotaTracker(store quotaStore, limits LimitsSwitch, maxPerDay int, loc *time.Location, log logrus.FieldLogger) *QuotaTracker {
	if maxPerDay <= 0 {
		maxPerDay = DefaultMaxDailyViews
	}
	if loc == nil {
		loc = time.UTC
	}
	return &QuotaTracker{
		store:     store,
		limits:    limits,
		maxPerDay: maxPerDay,
		loc:       loc,
		log:       log,
	}
}

// today returns the store's current time and the calendar day it falls on.
func (q *QuotaTracker) today(ctx context.Context) (time.Time, time.Time, error) {
	now, err := q.store.Now(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return now, utils.CalendarDay(now, q.loc), nil
}

func (q *QuotaTracker) profile(ctx context.Context, userID int64) (*models.Profile, error) {
	p, err := q.store.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// ResetIfStale zeroes the counter of a non-VIP user whose last view was
// before today. Calling it again on the same day changes nothing.
func (q *QuotaTracker) ResetIfStale(ctx context.Context, userID int64) error {
	p, err := q.profile(ctx, userID)
	if err != nil {
		return err
	}
	now, day, err := q.today(ctx)
	if err != nil {
		return err
	}
	_, err = q.resetIfStale(ctx, p, now, day)
	return err
}

// resetIfStale applies the reset and returns the counter value in effect for day.
func (q *QuotaTracker) resetIfStale(ctx context.Context, p *models.Profile, now, day time.Time) (int, error) {
	if p.IsVIPActive(now) {
		return p.DailyViews, nil
	}
	if p.LastViewDate != nil && utils.SameOrAfterDay(*p.LastViewDate, day) {
		return p.DailyViews, nil
	}
	if err := q.store.ResetDailyViews(ctx, p.TelegramID, day); err != nil {
		return 0, fmt.Errorf("reset daily views: %w", err)
	}
	q.log.WithFields(logrus.Fields{"user_id": p.TelegramID, "day": day.Format("2006-01-02")}).Debug("daily views reset")
	return 0, nil
}

// CanView reports whether the user may be shown another candidate today.
func (q *QuotaTracker) CanView(ctx context.Context, userID int64) (bool, error) {
	disabled, err := q.limits.LimitsDisabled(ctx)
	if err != nil {
		return false, err
	}
	if disabled {
		return true, nil
	}

	p, err := q.profile(ctx, userID)
	if err != nil {
		return false, err
	}
	now, day, err := q.today(ctx)
	if err != nil {
		return false, err
	}
	views, err := q.resetIfStale(ctx, p, now, day)
	if err != nil {
		return false, err
	}
	if p.IsVIPActive(now) {
		return true, nil
	}
	return views < q.maxPerDay, nil
}

// RecordView counts one shown candidate against today's quota. The bound is
// enforced only by CanView.
func (q *QuotaTracker) RecordView(ctx context.Context, userID int64) error {
	_, day, err := q.today(ctx)
	if err != nil {
		return err
	}
	if err := q.store.IncrementDailyViews(ctx, userID, day); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("increment daily views: %w", err)
	}
	return nil
}
