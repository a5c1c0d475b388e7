package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchbot-server/internal/models"
	"matchbot-server/internal/utils"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

// GormStore is the PostgreSQL-backed Store.
type GormStore struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGormStore(db *gorm.DB, timeout time.Duration) *GormStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GormStore{db: db, timeout: timeout}
}

func (s *GormStore) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func (s *GormStore) Now(ctx context.Context) (time.Time, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var now time.Time
	if err := db.Raw("SELECT NOW()").Row().Scan(&now); err != nil {
		return time.Time{}, wrap("now", err)
	}
	return now, nil
}

func (s *GormStore) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var profile models.Profile
	if err := db.First(&profile, "telegram_id = ?", userID).Error; err != nil {
		return nil, wrap("get profile", err)
	}
	return &profile, nil
}

func (s *GormStore) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "age", "city", "normalized_city", "gender", "bio",
			"gender_interest", "interests", "photos", "videos",
			"smoking", "drinking", "relationship", "last_active_at",
		}),
	}).Create(profile).Error
	return wrap("upsert profile", err)
}

func (s *GormStore) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) error {
	changes := updateColumns(update)
	if len(changes) == 0 {
		return nil
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Model(&models.Profile{}).Where("telegram_id = ?", userID).Updates(changes)
	if res.Error != nil {
		return wrap("update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func updateColumns(u ProfileUpdate) map[string]interface{} {
	changes := map[string]interface{}{}
	if u.Name != nil {
		changes["name"] = *u.Name
	}
	if u.Age != nil {
		changes["age"] = *u.Age
	}
	if u.City != nil {
		changes["city"] = *u.City
		changes["normalized_city"] = utils.NormalizeCity(*u.City)
	}
	if u.Gender != nil {
		changes["gender"] = *u.Gender
	}
	if u.Bio != nil {
		changes["bio"] = *u.Bio
	}
	if u.GenderInterest != nil {
		changes["gender_interest"] = *u.GenderInterest
	}
	if u.Interests != nil {
		changes["interests"] = pq.StringArray(u.Interests)
	}
	if u.Smoking != nil {
		changes["smoking"] = *u.Smoking
	}
	if u.Drinking != nil {
		changes["drinking"] = *u.Drinking
	}
	if u.Relationship != nil {
		changes["relationship"] = *u.Relationship
	}
	if u.ClearAgeBand {
		changes["age_min_preference"] = gorm.Expr("NULL")
		changes["age_max_preference"] = gorm.Expr("NULL")
	} else {
		if u.AgeMinPreference != nil {
			changes["age_min_preference"] = *u.AgeMinPreference
		}
		if u.AgeMaxPreference != nil {
			changes["age_max_preference"] = *u.AgeMaxPreference
		}
	}
	if u.CityFilterEnabled != nil {
		changes["city_filter_enabled"] = *u.CityFilterEnabled
	}
	if u.Photos != nil {
		changes["photos"] = pq.StringArray(u.Photos)
	}
	if u.Videos != nil {
		changes["videos"] = pq.StringArray(u.Videos)
	}
	return changes
}

// DeleteProfile removes the profile and every like, inbox entry, view and
// complaint referencing it in either direction.
func (s *GormStore) DeleteProfile(ctx context.Context, userID int64) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("from_user = ? OR to_user = ?", userID, userID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("from_user = ? OR to_user = ?", userID, userID).Delete(&models.LikeInboxEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("viewer_id = ? OR viewed_id = ?", userID, userID).Delete(&models.ViewEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("reporter_id = ? OR reported_id = ?", userID, userID).Delete(&models.Complaint{}).Error; err != nil {
			return err
		}
		res := tx.Where("telegram_id = ?", userID).Delete(&models.Profile{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return wrap("delete profile", err)
}

func (s *GormStore) SetNormalizedCity(ctx context.Context, userID int64, city string) error {
	return s.updateColumn(ctx, "set normalized city", userID, "normalized_city", city)
}

func (s *GormStore) FindCandidates(ctx context.Context, q CandidateQuery) ([]models.Profile, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	tx := db.Model(&models.Profile{}).
		Where("telegram_id <> ?", q.ExcludeID).
		Where("blocked = ?", false)
	if q.MinAge != nil {
		tx = tx.Where("age >= ?", *q.MinAge)
	}
	if q.MaxAge != nil {
		tx = tx.Where("age <= ?", *q.MaxAge)
	}
	if q.City != nil {
		tx = tx.Where("COALESCE(normalized_city, LOWER(city)) = ?", *q.City)
	}
	if q.Gender != nil {
		tx = tx.Where("gender = ?", *q.Gender)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	// Random order inside each VIP class keeps the capped pool an unbiased sample.
	var candidates []models.Profile
	if err := tx.Order("vip DESC").Order("RANDOM()").Find(&candidates).Error; err != nil {
		return nil, wrap("find candidates", err)
	}
	return candidates, nil
}

func (s *GormStore) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	return s.updateColumn(ctx, "set blocked", userID, "blocked", blocked)
}

func (s *GormStore) SetVIP(ctx context.Context, userID int64, vip bool) error {
	changes := map[string]interface{}{"vip": vip}
	if !vip {
		changes["vip_until"] = gorm.Expr("NULL")
	}
	return s.updateColumns(ctx, "set vip", userID, changes)
}

func (s *GormStore) SetVIPUntil(ctx context.Context, userID int64, until time.Time) error {
	return s.updateColumns(ctx, "set vip until", userID, map[string]interface{}{
		"vip":       true,
		"vip_until": until,
	})
}

func (s *GormStore) TouchLastActive(ctx context.Context, userID int64, at time.Time) error {
	return s.updateColumn(ctx, "touch last active", userID, "last_active_at", at)
}

func (s *GormStore) updateColumn(ctx context.Context, op string, userID int64, column string, value interface{}) error {
	return s.updateColumns(ctx, op, userID, map[string]interface{}{column: value})
}

func (s *GormStore) updateColumns(ctx context.Context, op string, userID int64, changes map[string]interface{}) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Model(&models.Profile{}).Where("telegram_id = ?", userID).Updates(changes)
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ResetDailyViews(ctx context.Context, userID int64, day time.Time) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	date := day.Format(dateLayout)
	err := db.Model(&models.Profile{}).
		Where("telegram_id = ? AND (last_view_date IS NULL OR last_view_date < ?)", userID, date).
		Updates(map[string]interface{}{"daily_views": 0, "last_view_date": date}).Error
	return wrap("reset daily views", err)
}

func (s *GormStore) IncrementDailyViews(ctx context.Context, userID int64, day time.Time) error {
	return s.updateColumns(ctx, "increment daily views", userID, map[string]interface{}{
		"daily_views":    gorm.Expr("daily_views + 1"),
		"last_view_date": day.Format(dateLayout),
	})
}

func (s *GormStore) InsertLike(ctx context.Context, from, to int64) (bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Like{FromUser: from, ToUser: to})
	if res.Error != nil {
		return false, wrap("insert like", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) InsertInboxEntry(ctx context.Context, to, from int64) (bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.LikeInboxEntry{ToUser: to, FromUser: from})
	if res.Error != nil {
		return false, wrap("insert inbox entry", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) LikeExists(ctx context.Context, from, to int64) (bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.Like{}).Where("from_user = ? AND to_user = ?", from, to).Count(&count).Error
	if err != nil {
		return false, wrap("like exists", err)
	}
	return count > 0, nil
}

func (s *GormStore) ListUnseenInbox(ctx context.Context, userID int64) ([]models.LikeInboxEntry, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var entries []models.LikeInboxEntry
	err := db.Where("to_user = ? AND seen = ?", userID, false).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, wrap("list unseen inbox", err)
	}
	return entries, nil
}

func (s *GormStore) MarkInboxSeen(ctx context.Context, to, from int64) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	err := db.Model(&models.LikeInboxEntry{}).
		Where("to_user = ? AND from_user = ?", to, from).
		Update("seen", true).Error
	return wrap("mark inbox seen", err)
}

func (s *GormStore) CountUnseenInbox(ctx context.Context, userID int64) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.LikeInboxEntry{}).Where("to_user = ? AND seen = ?", userID, false).Count(&count).Error
	if err != nil {
		return 0, wrap("count unseen inbox", err)
	}
	return count, nil
}

func (s *GormStore) RecordView(ctx context.Context, viewer, viewed int64) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	return wrap("record view", db.Create(&models.ViewEvent{ViewerID: viewer, ViewedID: viewed}).Error)
}

func (s *GormStore) ListViews(ctx context.Context, limit int) ([]models.ViewEvent, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var views []models.ViewEvent
	if err := db.Order("created_at DESC").Limit(limit).Find(&views).Error; err != nil {
		return nil, wrap("list views", err)
	}
	return views, nil
}

func (s *GormStore) InsertComplaint(ctx context.Context, complaint *models.Complaint) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	return wrap("insert complaint", db.Create(complaint).Error)
}

func (s *GormStore) ListComplaints(ctx context.Context, limit int) ([]models.Complaint, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var complaints []models.Complaint
	if err := db.Order("created_at DESC").Limit(limit).Find(&complaints).Error; err != nil {
		return nil, wrap("list complaints", err)
	}
	return complaints, nil
}

func (s *GormStore) ComplaintsAgainst(ctx context.Context, userID int64) ([]models.Complaint, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var complaints []models.Complaint
	err := db.Where("reported_id = ?", userID).Order("created_at DESC").Find(&complaints).Error
	if err != nil {
		return nil, wrap("complaints against", err)
	}
	return complaints, nil
}

func (s *GormStore) Stats(ctx context.Context, day time.Time) (*models.Stats, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	stats := &models.Stats{Date: day}
	counts := []struct {
		dest  *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&stats.TotalProfiles, &models.Profile{}, "", nil},
		{&stats.BlockedProfiles, &models.Profile{}, "blocked = ?", []interface{}{true}},
		{&stats.VIPProfiles, &models.Profile{}, "vip = ? OR vip_until > NOW()", []interface{}{true}},
		{&stats.TotalLikes, &models.Like{}, "", nil},
		{&stats.ViewsToday, &models.ViewEvent{}, "created_at >= ?", []interface{}{day}},
		{&stats.TotalComplaints, &models.Complaint{}, "", nil},
		{&stats.PaidPayments, &models.Payment{}, "status = ?", []interface{}{models.PaymentPaid}},
	}

	for _, c := range counts {
		tx := db.Model(c.model)
		if c.query != "" {
			tx = tx.Where(c.query, c.args...)
		}
		if err := tx.Count(c.dest).Error; err != nil {
			return nil, wrap("stats", err)
		}
	}
	return stats, nil
}

func (s *GormStore) InsertPaymentIfAbsent(ctx context.Context, payment *models.Payment) (bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(payment)
	if res.Error != nil {
		return false, wrap("insert payment", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) TransitionPaymentStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus, expiresAt *time.Time) (bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	changes := map[string]interface{}{"status": to}
	if expiresAt != nil {
		changes["expires_at"] = *expiresAt
	}
	res := db.Model(&models.Payment{}).
		Where("payment_id = ? AND status = ?", paymentID, from).
		Updates(changes)
	if res.Error != nil {
		return false, wrap("transition payment", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var payment models.Payment
	if err := db.First(&payment, "payment_id = ?", paymentID).Error; err != nil {
		return nil, wrap("get payment", err)
	}
	return &payment, nil
}

func (s *GormStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var setting models.AppSetting
	err := db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("get setting", err)
	}
	return setting.Value, true, nil
}

func (s *GormStore) SetSetting(ctx context.Context, key, value string) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.AppSetting{Key: key, Value: value}).Error
	return wrap("set setting", err)
}
