package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchbot-server/internal/models"
	"matchbot-server/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const DefaultVIPDuration = 30 * 24 * time.Hour

type subscriptionStore interface {
	repository.Clock
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	SetVIP(ctx context.Context, userID int64, vip bool) error
	SetVIPUntil(ctx context.Context, userID int64, until time.Time) error
	repository.PaymentStore
}

// PaymentEvent is a terminal status reported by the payment provider.
type PaymentEvent struct {
	PaymentID string               `json:"payment_id"`
	UserID    int64                `json:"user_id" binding:"required"`
	Amount    int64                `json:"amount"`
	Currency  string               `json:"currency"`
	Status    models.PaymentStatus `json:"status" binding:"required,oneof=paid failed"`
}

type PaymentResult struct {
	Payment   *models.Payment `json:"payment"`
	Activated bool            `json:"activated"`
	VIPUntil  *time.Time      `json:"vip_until,omitempty"`
}

type SubscriptionManager struct {
	store    subscriptionStore
	duration time.Duration
	amount   int64
	currency string
	log      logrus.FieldLogger
}

func NewSubscriptionManager(store subscriptionStore, duration time.Duration, amount int64, currency string, log logrus.FieldLogger) *SubscriptionManager {
	if duration <= 0 {
		duration = DefaultVIPDuration
	}
	return &SubscriptionManager{
		store:    store,
		duration: duration,
		amount:   amount,
		currency: currency,
		log:      log,
	}
}

// Activate sets VIP until now+duration. Remaining time from an earlier
// activation is discarded, not extended.
func (m *SubscriptionManager) Activate(ctx context.Context, userID int64, duration time.Duration) (time.Time, error) {
	if duration <= 0 {
		duration = m.duration
	}
	now, err := m.store.Now(ctx)
	if err != nil {
		return time.Time{}, err
	}
	until := now.Add(duration)
	if err := m.store.SetVIPUntil(ctx, userID, until); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return time.Time{}, ErrProfileNotFound
		}
		return time.Time{}, fmt.Errorf("activate vip: %w", err)
	}

	m.log.WithFields(logrus.Fields{"user_id": userID, "vip_until": until}).Info("vip activated")
	return until, nil
}

// IsActive evaluates VIP status against the store clock.
func (m *SubscriptionManager) IsActive(ctx context.Context, userID int64) (bool, error) {
	p, err := m.store.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, ErrProfileNotFound
	}
	if err != nil {
		return false, err
	}
	now, err := m.store.Now(ctx)
	if err != nil {
		return false, err
	}
	return p.IsVIPActive(now), nil
}

// Revoke clears both the VIP flag and the expiry.
func (m *SubscriptionManager) Revoke(ctx context.Context, userID int64) error {
	if err := m.store.SetVIP(ctx, userID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("revoke vip: %w", err)
	}
	m.log.WithField("user_id", userID).Info("vip revoked")
	return nil
}

// Grant sets the permanent VIP flag.
func (m *SubscriptionManager) Grant(ctx context.Context, userID int64) error {
	if err := m.store.SetVIP(ctx, userID, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("grant vip: %w", err)
	}
	return nil
}

// ConfirmPayment records the payment and, on the single pending->paid
// transition, activates VIP. Redelivered events for an already settled
// payment are no-ops.
func (m *SubscriptionManager) ConfirmPayment(ctx context.Context, ev PaymentEvent) (*PaymentResult, error) {
	if ev.Status != models.PaymentPaid && ev.Status != models.PaymentFailed {
		return nil, fmt.Errorf("%w: unsupported status %q", ErrPaymentTransition, ev.Status)
	}
	if _, err := m.store.GetProfile(ctx, ev.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if ev.PaymentID == "" {
		ev.PaymentID = fmt.Sprintf("tg:%d:%s", ev.UserID, uuid.NewString())
	}
	if ev.Amount <= 0 {
		ev.Amount = m.amount
	}
	if ev.Currency == "" {
		ev.Currency = m.currency
	}

	if _, err := m.store.InsertPaymentIfAbsent(ctx, &models.Payment{
		PaymentID: ev.PaymentID,
		UserID:    ev.UserID,
		Amount:    ev.Amount,
		Currency:  ev.Currency,
		Status:    models.PaymentPending,
	}); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	log := m.log.WithFields(logrus.Fields{"payment_id": ev.PaymentID, "user_id": ev.UserID, "status": ev.Status})

	if ev.Status == models.PaymentFailed {
		moved, err := m.store.TransitionPaymentStatus(ctx, ev.PaymentID, models.PaymentPending, models.PaymentFailed, nil)
		if err != nil {
			return nil, fmt.Errorf("fail payment: %w", err)
		}
		payment, err := m.settled(ctx, ev, moved)
		if err != nil {
			return nil, err
		}
		log.Info("payment failed")
		return &PaymentResult{Payment: payment}, nil
	}

	now, err := m.store.Now(ctx)
	if err != nil {
		return nil, err
	}
	until := now.Add(m.duration)
	moved, err := m.store.TransitionPaymentStatus(ctx, ev.PaymentID, models.PaymentPending, models.PaymentPaid, &until)
	if err != nil {
		return nil, fmt.Errorf("settle payment: %w", err)
	}
	payment, err := m.settled(ctx, ev, moved)
	if err != nil {
		return nil, err
	}

	if !moved {
		// Redelivery. Reapply the recorded expiry only if the first delivery
		// settled the payment but never reached the profile.
		repaired, err := m.repairActivation(ctx, payment, now)
		if err != nil {
			return nil, err
		}
		log.WithField("repaired", repaired).Info("payment already settled")
		return &PaymentResult{Payment: payment, Activated: repaired, VIPUntil: payment.ExpiresAt}, nil
	}

	if err := m.store.SetVIPUntil(ctx, ev.UserID, until); err != nil {
		return nil, fmt.Errorf("activate vip: %w", err)
	}
	log.WithField("vip_until", until).Info("payment confirmed, vip activated")
	return &PaymentResult{Payment: payment, Activated: true, VIPUntil: &until}, nil
}

// settled loads the payment and checks it ended in the event's status.
func (m *SubscriptionManager) settled(ctx context.Context, ev PaymentEvent, moved bool) (*models.Payment, error) {
	payment, err := m.store.GetPayment(ctx, ev.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if payment.UserID != ev.UserID {
		return nil, fmt.Errorf("%w: payment %s belongs to another user", ErrPaymentTransition, ev.PaymentID)
	}
	if !moved && payment.Status != ev.Status {
		return nil, fmt.Errorf("%w: %s -> %s", ErrPaymentTransition, payment.Status, ev.Status)
	}
	return payment, nil
}

func (m *SubscriptionManager) repairActivation(ctx context.Context, payment *models.Payment, now time.Time) (bool, error) {
	if payment.ExpiresAt == nil || !now.Before(*payment.ExpiresAt) {
		return false, nil
	}
	p, err := m.store.GetProfile(ctx, payment.UserID)
	if err != nil {
		return false, err
	}
	if p.VIPUntil != nil && !p.VIPUntil.Before(*payment.ExpiresAt) {
		return false, nil
	}
	if err := m.store.SetVIPUntil(ctx, payment.UserID, *payment.ExpiresAt); err != nil {
		return false, fmt.Errorf("repair vip activation: %w", err)
	}
	return true, nil
}
