package services

import (
	"context"
	"errors"
	"fmt"

	"matchbot-server/internal/models"
	"matchbot-server/internal/repository"

	"github.com/sirupsen/logrus"
)

// Outcome is the control-flow result of a session step. Only store failures
// are errors.
type Outcome int

const (
	OutcomeShown Outcome = iota
	OutcomeQuotaExceeded
	OutcomeNoCandidates
	OutcomeDenied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeShown:
		return "shown"
	case OutcomeQuotaExceeded:
		return "quota_exceeded"
	case OutcomeNoCandidates:
		return "no_candidates"
	case OutcomeDenied:
		return "denied"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Notifier delivers match and inbox events to the chat transport.
type Notifier interface {
	NotifyMatch(ctx context.Context, userID, peerID int64) error
	NotifyInbox(ctx context.Context, userID int64, unseen int64) error
}

type sessionStore interface {
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	RecordView(ctx context.Context, viewer, viewed int64) error
}

type ShowNextResult struct {
	Outcome       Outcome         `json:"outcome"`
	Candidate     *models.Profile `json:"candidate,omitempty"`
	RevealContact bool            `json:"reveal_contact"`
}

type LikeResult struct {
	Denied          bool  `json:"denied"`
	Mutual          bool  `json:"mutual"`
	RecipientUnseen int64 `json:"recipient_unseen"`
}

type InboxItem struct {
	Entry   models.LikeInboxEntry `json:"entry"`
	Profile *models.Profile       `json:"profile"`
}

// MatchSession orchestrates the show-next and like steps of a conversation.
// Steps are not atomic: a failure after the candidate is selected is
// returned to the caller and the step is not retried.
type MatchSession struct {
	store    sessionStore
	quota    *QuotaTracker
	selector *CandidateSelector
	ledger   *InterestLedger
	subs     *SubscriptionManager
	notifier Notifier
	log      logrus.FieldLogger
}

func NewMatchSession(
	store sessionStore,
	quota *QuotaTracker,
	selector *CandidateSelector,
	ledger *InterestLedger,
	subs *SubscriptionManager,
	notifier Notifier,
	log logrus.FieldLogger,
) *MatchSession {
	return &MatchSession{
		store:    store,
		quota:    quota,
		selector: selector,
		ledger:   ledger,
		subs:     subs,
		notifier: notifier,
		log:      log,
	}
}

// active loads an unblocked profile, or returns nil when the user is absent or blocked.
func (s *MatchSession) active(ctx context.Context, userID int64) (*models.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Blocked {
		return nil, nil
	}
	return p, nil
}

// ShowNext selects the next candidate for userID and counts it as viewed.
func (s *MatchSession) ShowNext(ctx context.Context, userID int64) (*ShowNextResult, error) {
	p, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &ShowNextResult{Outcome: OutcomeDenied}, nil
	}

	ok, err := s.quota.CanView(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &ShowNextResult{Outcome: OutcomeQuotaExceeded}, nil
	}

	candidate, err := s.selector.Select(ctx, userID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return &ShowNextResult{Outcome: OutcomeNoCandidates}, nil
	}

	if err := s.quota.RecordView(ctx, userID); err != nil {
		return nil, fmt.Errorf("record view: %w", err)
	}
	if err := s.store.RecordView(ctx, userID, candidate.TelegramID); err != nil {
		return nil, fmt.Errorf("append view event: %w", err)
	}

	reveal, err := s.subs.IsActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "candidate": candidate.TelegramID}).Info("candidate shown")
	return &ShowNextResult{Outcome: OutcomeShown, Candidate: candidate, RevealContact: reveal}, nil
}

// Like records from's interest in to. A newly created mutual like notifies
// both parties; the recipient is always sent its unseen count.
func (s *MatchSession) Like(ctx context.Context, from, to int64) (*LikeResult, error) {
	p, err := s.active(ctx, from)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &LikeResult{Denied: true}, nil
	}
	if _, err := s.store.GetProfile(ctx, to); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	rec, err := s.ledger.record(ctx, from, to)
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"from": from, "to": to})
	if rec.mutual && rec.inserted {
		if err := s.notifier.NotifyMatch(ctx, from, to); err != nil {
			log.WithError(err).Warn("match notification failed")
		}
		if err := s.notifier.NotifyMatch(ctx, to, from); err != nil {
			log.WithError(err).Warn("match notification failed")
		}
		log.Info("mutual like")
	}

	unseen, err := s.ledger.CountUnseen(ctx, to)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.NotifyInbox(ctx, to, unseen); err != nil {
		log.WithError(err).Warn("inbox notification failed")
	}

	return &LikeResult{Mutual: rec.mutual, RecipientUnseen: unseen}, nil
}

// ReviewInbox returns userID's unseen incoming likes with the liker profiles.
// Entries whose liker is gone or blocked are marked seen and skipped.
func (s *MatchSession) ReviewInbox(ctx context.Context, userID int64) ([]InboxItem, error) {
	p, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	entries, err := s.ledger.ListUnseenInbox(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]InboxItem, 0, len(entries))
	for _, e := range entries {
		liker, err := s.active(ctx, e.FromUser)
		if err != nil {
			return nil, err
		}
		if liker == nil {
			if err := s.ledger.MarkSeen(ctx, userID, e.FromUser); err != nil {
				return nil, err
			}
			continue
		}
		items = append(items, InboxItem{Entry: e, Profile: liker})
	}
	return items, nil
}

// RespondToInbox likes back (when like is true) and marks the entry reviewed.
func (s *MatchSession) RespondToInbox(ctx context.Context, userID, from int64, like bool) (*LikeResult, error) {
	result := &LikeResult{}
	if like {
		var err error
		result, err = s.Like(ctx, userID, from)
		if err != nil {
			return nil, err
		}
		if result.Denied {
			return result, nil
		}
	} else {
		p, err := s.active(ctx, userID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return &LikeResult{Denied: true}, nil
		}
	}

	if err := s.ledger.MarkSeen(ctx, userID, from); err != nil {
		return nil, err
	}
	return result, nil
}
