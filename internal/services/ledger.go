package services

import (
	"context"
	"fmt"

	"matchbot-server/internal/models"
	"matchbot-server/internal/repository"
)

// InterestLedger records likes and maintains each recipient's inbox of
// unreviewed incoming likes. Duplicate writes are absorbed by the store's
// insert-if-absent contract.
type InterestLedger struct {
	store repository.InterestStore
}

func NewInterestLedger(store repository.InterestStore) *InterestLedger {
	return &InterestLedger{store: store}
}

type likeRecord struct {
	inserted bool
	mutual   bool
}

// RecordLike stores from->to, queues it in to's inbox and reports whether
// to already likes from. It emits no notifications.
func (l *InterestLedger) RecordLike(ctx context.Context, from, to int64) (bool, error) {
	rec, err := l.record(ctx, from, to)
	if err != nil {
		return false, err
	}
	return rec.mutual, nil
}

func (l *InterestLedger) record(ctx context.Context, from, to int64) (likeRecord, error) {
	if from == to {
		return likeRecord{}, ErrSelfLike
	}

	inserted, err := l.store.InsertLike(ctx, from, to)
	if err != nil {
		return likeRecord{}, fmt.Errorf("insert like: %w", err)
	}
	if _, err := l.store.InsertInboxEntry(ctx, to, from); err != nil {
		return likeRecord{}, fmt.Errorf("insert inbox entry: %w", err)
	}
	mutual, err := l.store.LikeExists(ctx, to, from)
	if err != nil {
		return likeRecord{}, fmt.Errorf("check reverse like: %w", err)
	}
	return likeRecord{inserted: inserted, mutual: mutual}, nil
}

// ListUnseenInbox returns unreviewed incoming likes, oldest first. Entries
// stay listed until MarkSeen is called for them.
func (l *InterestLedger) ListUnseenInbox(ctx context.Context, userID int64) ([]models.LikeInboxEntry, error) {
	return l.store.ListUnseenInbox(ctx, userID)
}

func (l *InterestLedger) MarkSeen(ctx context.Context, to, from int64) error {
	return l.store.MarkInboxSeen(ctx, to, from)
}

func (l *InterestLedger) CountUnseen(ctx context.Context, userID int64) (int64, error) {
	return l.store.CountUnseenInbox(ctx, userID)
}
