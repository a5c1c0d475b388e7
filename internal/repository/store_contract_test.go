package repository

import (
	"context"
	"testing"
	"time"

	"matchbot-server/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfile(id int64, age int, city string, gender models.Gender, interest models.GenderInterest) *models.Profile {
	normalized := city
	return &models.Profile{
		TelegramID:        id,
		Name:              "user",
		Age:               age,
		City:              city,
		NormalizedCity:    &normalized,
		Gender:            gender,
		GenderInterest:    interest,
		Interests:         pq.StringArray{"music"},
		CityFilterEnabled: true,
	}
}

// runStoreContract exercises behaviour every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("like insert is idempotent", func(t *testing.T) {
		s := newStore(t)

		inserted, err := s.InsertLike(ctx, 1, 2)
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = s.InsertLike(ctx, 1, 2)
		require.NoError(t, err)
		assert.False(t, inserted)

		exists, err := s.LikeExists(ctx, 1, 2)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = s.LikeExists(ctx, 2, 1)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("inbox is ordered and seen flag is per pair", func(t *testing.T) {
		s := newStore(t)

		_, err := s.InsertInboxEntry(ctx, 10, 1)
		require.NoError(t, err)
		_, err = s.InsertInboxEntry(ctx, 10, 2)
		require.NoError(t, err)
		inserted, err := s.InsertInboxEntry(ctx, 10, 1)
		require.NoError(t, err)
		assert.False(t, inserted)

		entries, err := s.ListUnseenInbox(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(1), entries[0].FromUser)
		assert.Equal(t, int64(2), entries[1].FromUser)

		require.NoError(t, s.MarkInboxSeen(ctx, 10, 1))
		require.NoError(t, s.MarkInboxSeen(ctx, 10, 1))

		count, err := s.CountUnseenInbox(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("delete cascades in both directions", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.UpsertProfile(ctx, newProfile(1, 25, "moscow", models.GenderMale, models.InterestAny)))
		require.NoError(t, s.UpsertProfile(ctx, newProfile(2, 25, "moscow", models.GenderFemale, models.InterestAny)))

		_, _ = s.InsertLike(ctx, 1, 2)
		_, _ = s.InsertLike(ctx, 2, 1)
		_, _ = s.InsertInboxEntry(ctx, 2, 1)
		require.NoError(t, s.RecordView(ctx, 1, 2))
		require.NoError(t, s.RecordView(ctx, 2, 1))
		require.NoError(t, s.InsertComplaint(ctx, &models.Complaint{ReporterID: 2, ReportedID: 1, Reason: models.DefaultComplaintReason}))

		require.NoError(t, s.DeleteProfile(ctx, 1))

		_, err := s.GetProfile(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)

		for _, p := range [][2]int64{{1, 2}, {2, 1}} {
			exists, err := s.LikeExists(ctx, p[0], p[1])
			require.NoError(t, err)
			assert.False(t, exists)
		}
		count, err := s.CountUnseenInbox(ctx, 2)
		require.NoError(t, err)
		assert.Zero(t, count)

		views, err := s.ListViews(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, views)

		complaints, err := s.ComplaintsAgainst(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, complaints)

		assert.ErrorIs(t, s.DeleteProfile(ctx, 1), ErrNotFound)
	})

	t.Run("candidate filters", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.UpsertProfile(ctx, newProfile(1, 25, "moscow", models.GenderMale, models.InterestFemale)))
		require.NoError(t, s.UpsertProfile(ctx, newProfile(2, 24, "moscow", models.GenderFemale, models.InterestAny)))
		require.NoError(t, s.UpsertProfile(ctx, newProfile(3, 40, "kazan", models.GenderFemale, models.InterestAny)))
		require.NoError(t, s.UpsertProfile(ctx, newProfile(4, 25, "moscow", models.GenderFemale, models.InterestAny)))
		require.NoError(t, s.SetBlocked(ctx, 4, true))

		city := "moscow"
		female := models.GenderFemale
		minAge, maxAge := 22, 28

		got, err := s.FindCandidates(ctx, CandidateQuery{ExcludeID: 1, MinAge: &minAge, MaxAge: &maxAge, City: &city, Gender: &female, Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(2), got[0].TelegramID)

		got, err = s.FindCandidates(ctx, CandidateQuery{ExcludeID: 1, Gender: &female, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("daily views reset only when stale", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.UpsertProfile(ctx, newProfile(1, 25, "moscow", models.GenderMale, models.InterestAny)))

		today := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.IncrementDailyViews(ctx, 1, today))
		require.NoError(t, s.IncrementDailyViews(ctx, 1, today))
		require.NoError(t, s.ResetDailyViews(ctx, 1, today))

		p, err := s.GetProfile(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, p.DailyViews)

		require.NoError(t, s.ResetDailyViews(ctx, 1, today.AddDate(0, 0, 1)))
		p, err = s.GetProfile(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, p.DailyViews)
	})

	t.Run("payment transitions are conditional", func(t *testing.T) {
		s := newStore(t)
		payment := &models.Payment{PaymentID: "pay-1", UserID: 1, Amount: 30000, Currency: "RUB", Status: models.PaymentPending}

		inserted, err := s.InsertPaymentIfAbsent(ctx, payment)
		require.NoError(t, err)
		assert.True(t, inserted)
		inserted, err = s.InsertPaymentIfAbsent(ctx, payment)
		require.NoError(t, err)
		assert.False(t, inserted)

		moved, err := s.TransitionPaymentStatus(ctx, "pay-1", models.PaymentPending, models.PaymentPaid, nil)
		require.NoError(t, err)
		assert.True(t, moved)

		moved, err = s.TransitionPaymentStatus(ctx, "pay-1", models.PaymentPending, models.PaymentPaid, nil)
		require.NoError(t, err)
		assert.False(t, moved)

		got, err := s.GetPayment(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPaid, got.Status)
	})

	t.Run("settings round trip", func(t *testing.T) {
		s := newStore(t)

		_, ok, err := s.GetSetting(ctx, "limits_disabled")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.SetSetting(ctx, "limits_disabled", "1"))
		require.NoError(t, s.SetSetting(ctx, "limits_disabled", "0"))

		v, ok, err := s.GetSetting(ctx, "limits_disabled")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "0", v)
	})
}
