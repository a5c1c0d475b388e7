package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"matchbot-server/internal/models"
	"matchbot-server/internal/repository"

	"github.com/sirupsen/logrus"
)

const defaultListLimit = 50

type moderationStore interface {
	repository.Clock
	SetBlocked(ctx context.Context, userID int64, blocked bool) error
	repository.AuditStore
}

type ModerationService struct {
	store moderationStore
	loc   *time.Location
	log   logrus.FieldLogger
}

func NewModerationService(store moderationStore, loc *time.Location, log logrus.FieldLogger) *ModerationService {
	if loc == nil {
		loc = time.UTC
	}
	return &ModerationService{store: store, loc: loc, log: log}
}

func (s *ModerationService) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	if err := s.store.SetBlocked(ctx, userID, blocked); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("set blocked: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "blocked": blocked}).Info("moderation flag changed")
	return nil
}

func (s *ModerationService) AddComplaint(ctx context.Context, reporter, reported int64, reason string) (*models.Complaint, error) {
	if reporter == reported {
		return nil, fmt.Errorf("%w: cannot report own profile", ErrInvalidComplaint)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = models.DefaultComplaintReason
	}

	complaint := &models.Complaint{ReporterID: reporter, ReportedID: reported, Reason: reason}
	if err := s.store.InsertComplaint(ctx, complaint); err != nil {
		return nil, fmt.Errorf("add complaint: %w", err)
	}
	s.log.WithFields(logrus.Fields{"reporter": reporter, "reported": reported}).Info("complaint filed")
	return complaint, nil
}

func (s *ModerationService) ListComplaints(ctx context.Context, limit int) ([]models.Complaint, error) {
	return s.store.ListComplaints(ctx, clampLimit(limit))
}

func (s *ModerationService) ComplaintsAgainst(ctx context.Context, userID int64) ([]models.Complaint, error) {
	return s.store.ComplaintsAgainst(ctx, userID)
}

// ViewHistory returns the most recent view events.
func (s *ModerationService) ViewHistory(ctx context.Context, limit int) ([]models.ViewEvent, error) {
	return s.store.ListViews(ctx, clampLimit(limit))
}

// Stats counts profiles, likes, payments and today's views. The day starts
// at local midnight in the quota timezone.
func (s *ModerationService) Stats(ctx context.Context) (*models.Stats, error) {
	now, err := s.store.Now(ctx)
	if err != nil {
		return nil, err
	}
	y, m, d := now.In(s.loc).Date()
	return s.store.Stats(ctx, time.Date(y, m, d, 0, 0, 0, 0, s.loc))
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}
