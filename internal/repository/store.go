package repository

import (
	"context"
	"errors"
	"time"

	"matchbot-server/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStoreUnavailable wraps every driver or connectivity failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// CandidateQuery filters the candidate pool. Nil filters are not applied.
type CandidateQuery struct {
	ExcludeID int64
	MinAge    *int
	MaxAge    *int
	City      *string
	Gender    *models.Gender
	Limit     int
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name           *string
	Age            *int
	City           *string
	Gender         *models.Gender
	Bio            *string
	GenderInterest *models.GenderInterest
	Interests      []string
	Smoking        *models.Answer
	Drinking       *models.Answer
	Relationship   *models.Answer

	AgeMinPreference  *int
	AgeMaxPreference  *int
	ClearAgeBand      bool
	CityFilterEnabled *bool
	Photos            []string
	Videos            []string
}

// Clock reports the store's notion of the current time.
type Clock interface {
	Now(ctx context.Context) (time.Time, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) error
	DeleteProfile(ctx context.Context, userID int64) error
	SetNormalizedCity(ctx context.Context, userID int64, city string) error
	FindCandidates(ctx context.Context, q CandidateQuery) ([]models.Profile, error)
	SetBlocked(ctx context.Context, userID int64, blocked bool) error
	SetVIP(ctx context.Context, userID int64, vip bool) error
	SetVIPUntil(ctx context.Context, userID int64, until time.Time) error
	TouchLastActive(ctx context.Context, userID int64, at time.Time) error
}

type QuotaStore interface {
	// ResetDailyViews zeroes the counter when the last view is before day or unset.
	ResetDailyViews(ctx context.Context, userID int64, day time.Time) error
	IncrementDailyViews(ctx context.Context, userID int64, day time.Time) error
}

type InterestStore interface {
	InsertLike(ctx context.Context, from, to int64) (bool, error)
	InsertInboxEntry(ctx context.Context, to, from int64) (bool, error)
	LikeExists(ctx context.Context, from, to int64) (bool, error)
	ListUnseenInbox(ctx context.Context, userID int64) ([]models.LikeInboxEntry, error)
	MarkInboxSeen(ctx context.Context, to, from int64) error
	CountUnseenInbox(ctx context.Context, userID int64) (int64, error)
}

type AuditStore interface {
	RecordView(ctx context.Context, viewer, viewed int64) error
	ListViews(ctx context.Context, limit int) ([]models.ViewEvent, error)
	InsertComplaint(ctx context.Context, complaint *models.Complaint) error
	ListComplaints(ctx context.Context, limit int) ([]models.Complaint, error)
	ComplaintsAgainst(ctx context.Context, userID int64) ([]models.Complaint, error)
	Stats(ctx context.Context, day time.Time) (*models.Stats, error)
}

type PaymentStore interface {
	InsertPaymentIfAbsent(ctx context.Context, payment *models.Payment) (bool, error)
	// TransitionPaymentStatus moves a payment from one status to another and
	// reports false when the payment was not in the from status.
	TransitionPaymentStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus, expiresAt *time.Time) (bool, error)
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
}

type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Store is the full persistence surface used by the services.
type Store interface {
	Clock
	ProfileStore
	QuotaStore
	InterestStore
	AuditStore
	PaymentStore
	SettingsStore
}
