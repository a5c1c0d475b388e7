package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"matchbot-server/internal/models"
	"matchbot-server/internal/utils"

	"github.com/lib/pq"
)

type pair struct {
	a, b int64
}

// MemoryStore is an in-process Store with the same uniqueness guarantees as
// the PostgreSQL schema. It is used by tests and local runs without a database.
type MemoryStore struct {
	mu sync.Mutex

	now      func() time.Time
	failures map[string]error
	nextID   uint

	profiles   map[int64]*models.Profile
	likes      map[pair]models.Like
	inbox      map[pair]*models.LikeInboxEntry
	views      []models.ViewEvent
	complaints []models.Complaint
	payments   map[string]*models.Payment
	settings   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		failures: map[string]error{},
		profiles: map[int64]*models.Profile{},
		likes:    map[pair]models.Like{},
		inbox:    map[pair]*models.LikeInboxEntry{},
		payments: map[string]*models.Payment{},
		settings: map[string]string{},
	}
}

// SetNow replaces the store clock.
func (m *MemoryStore) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// FailOn makes every later call of the named operation fail with err wrapped
// in ErrStoreUnavailable. A nil err clears the failure.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

func (m *MemoryStore) check(op string) error {
	if err, ok := m.failures[op]; ok {
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	}
	return nil
}

func (m *MemoryStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) Now(ctx context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("now"); err != nil {
		return time.Time{}, err
	}
	return m.now(), nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("get profile"); err != nil {
		return nil, err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(p), nil
}

func (m *MemoryStore) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("upsert profile"); err != nil {
		return err
	}

	existing, ok := m.profiles[profile.TelegramID]
	if !ok {
		p := cloneProfile(profile)
		p.ID = m.id()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = m.now()
		}
		if p.Photos == nil {
			p.Photos = pq.StringArray{}
		}
		if p.Videos == nil {
			p.Videos = pq.StringArray{}
		}
		m.profiles[profile.TelegramID] = p
		profile.ID = p.ID
		return nil
	}

	src := cloneProfile(profile)
	existing.Name = src.Name
	existing.Age = src.Age
	existing.City = src.City
	existing.NormalizedCity = src.NormalizedCity
	existing.Gender = src.Gender
	existing.Bio = src.Bio
	existing.GenderInterest = src.GenderInterest
	existing.Interests = src.Interests
	existing.Photos = src.Photos
	existing.Videos = src.Videos
	existing.Smoking = src.Smoking
	existing.Drinking = src.Drinking
	existing.Relationship = src.Relationship
	existing.LastActiveAt = src.LastActiveAt
	return nil
}

func (m *MemoryStore) UpdateProfile(ctx context.Context, userID int64, u ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("update profile"); err != nil {
		return err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}

	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.City != nil {
		p.City = *u.City
		normalized := utils.NormalizeCity(*u.City)
		p.NormalizedCity = &normalized
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.Bio != nil {
		bio := *u.Bio
		p.Bio = &bio
	}
	if u.GenderInterest != nil {
		p.GenderInterest = *u.GenderInterest
	}
	if u.Interests != nil {
		p.Interests = append(pq.StringArray{}, u.Interests...)
	}
	if u.Smoking != nil {
		p.Smoking = answerPtr(*u.Smoking)
	}
	if u.Drinking != nil {
		p.Drinking = answerPtr(*u.Drinking)
	}
	if u.Relationship != nil {
		p.Relationship = answerPtr(*u.Relationship)
	}
	if u.ClearAgeBand {
		p.AgeMinPreference = nil
		p.AgeMaxPreference = nil
	} else {
		if u.AgeMinPreference != nil {
			p.AgeMinPreference = intPtr(*u.AgeMinPreference)
		}
		if u.AgeMaxPreference != nil {
			p.AgeMaxPreference = intPtr(*u.AgeMaxPreference)
		}
	}
	if u.CityFilterEnabled != nil {
		p.CityFilterEnabled = *u.CityFilterEnabled
	}
	if u.Photos != nil {
		p.Photos = append(pq.StringArray{}, u.Photos...)
	}
	if u.Videos != nil {
		p.Videos = append(pq.StringArray{}, u.Videos...)
	}
	return nil
}

func (m *MemoryStore) DeleteProfile(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("delete profile"); err != nil {
		return err
	}
	if _, ok := m.profiles[userID]; !ok {
		return ErrNotFound
	}

	for k := range m.likes {
		if k.a == userID || k.b == userID {
			delete(m.likes, k)
		}
	}
	for k := range m.inbox {
		if k.a == userID || k.b == userID {
			delete(m.inbox, k)
		}
	}
	views := m.views[:0]
	for _, v := range m.views {
		if v.ViewerID != userID && v.ViewedID != userID {
			views = append(views, v)
		}
	}
	m.views = views
	complaints := m.complaints[:0]
	for _, c := range m.complaints {
		if c.ReporterID != userID && c.ReportedID != userID {
			complaints = append(complaints, c)
		}
	}
	m.complaints = complaints
	delete(m.profiles, userID)
	return nil
}

func (m *MemoryStore) SetNormalizedCity(ctx context.Context, userID int64, city string) error {
	return m.mutate("set normalized city", userID, func(p *models.Profile) {
		p.NormalizedCity = &city
	})
}

func (m *MemoryStore) FindCandidates(ctx context.Context, q CandidateQuery) ([]models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("find candidates"); err != nil {
		return nil, err
	}

	var out []models.Profile
	for id, p := range m.profiles {
		if id == q.ExcludeID || p.Blocked {
			continue
		}
		if q.MinAge != nil && p.Age < *q.MinAge {
			continue
		}
		if q.MaxAge != nil && p.Age > *q.MaxAge {
			continue
		}
		if q.City != nil && memoryCityKey(p) != *q.City {
			continue
		}
		if q.Gender != nil && p.Gender != *q.Gender {
			continue
		}
		out = append(out, *cloneProfile(p))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].VIP != out[j].VIP {
			return out[i].VIP
		}
		return out[i].TelegramID < out[j].TelegramID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// memoryCityKey mirrors COALESCE(normalized_city, LOWER(city)).
func memoryCityKey(p *models.Profile) string {
	if p.NormalizedCity != nil {
		return *p.NormalizedCity
	}
	return strings.ToLower(p.City)
}

func (m *MemoryStore) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	return m.mutate("set blocked", userID, func(p *models.Profile) {
		p.Blocked = blocked
	})
}

func (m *MemoryStore) SetVIP(ctx context.Context, userID int64, vip bool) error {
	return m.mutate("set vip", userID, func(p *models.Profile) {
		p.VIP = vip
		if !vip {
			p.VIPUntil = nil
		}
	})
}

func (m *MemoryStore) SetVIPUntil(ctx context.Context, userID int64, until time.Time) error {
	return m.mutate("set vip until", userID, func(p *models.Profile) {
		p.VIP = true
		p.VIPUntil = &until
	})
}

func (m *MemoryStore) TouchLastActive(ctx context.Context, userID int64, at time.Time) error {
	return m.mutate("touch last active", userID, func(p *models.Profile) {
		p.LastActiveAt = at
	})
}

func (m *MemoryStore) ResetDailyViews(ctx context.Context, userID int64, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("reset daily views"); err != nil {
		return err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil
	}
	if p.LastViewDate == nil || !utils.SameOrAfterDay(*p.LastViewDate, day) {
		p.DailyViews = 0
		d := utils.CalendarDay(day, time.UTC)
		p.LastViewDate = &d
	}
	return nil
}

func (m *MemoryStore) IncrementDailyViews(ctx context.Context, userID int64, day time.Time) error {
	return m.mutate("increment daily views", userID, func(p *models.Profile) {
		p.DailyViews++
		d := utils.CalendarDay(day, time.UTC)
		p.LastViewDate = &d
	})
}

func (m *MemoryStore) mutate(op string, userID int64, fn func(p *models.Profile)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(op); err != nil {
		return err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	fn(p)
	return nil
}

func (m *MemoryStore) InsertLike(ctx context.Context, from, to int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("insert like"); err != nil {
		return false, err
	}
	k := pair{from, to}
	if _, ok := m.likes[k]; ok {
		return false, nil
	}
	m.likes[k] = models.Like{ID: m.id(), FromUser: from, ToUser: to, CreatedAt: m.now()}
	return true, nil
}

func (m *MemoryStore) InsertInboxEntry(ctx context.Context, to, from int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("insert inbox entry"); err != nil {
		return false, err
	}
	k := pair{to, from}
	if _, ok := m.inbox[k]; ok {
		return false, nil
	}
	m.inbox[k] = &models.LikeInboxEntry{ID: m.id(), ToUser: to, FromUser: from, CreatedAt: m.now()}
	return true, nil
}

func (m *MemoryStore) LikeExists(ctx context.Context, from, to int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("like exists"); err != nil {
		return false, err
	}
	_, ok := m.likes[pair{from, to}]
	return ok, nil
}

func (m *MemoryStore) ListUnseenInbox(ctx context.Context, userID int64) ([]models.LikeInboxEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("list unseen inbox"); err != nil {
		return nil, err
	}

	var out []models.LikeInboxEntry
	for k, e := range m.inbox {
		if k.a == userID && !e.Seen {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) MarkInboxSeen(ctx context.Context, to, from int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("mark inbox seen"); err != nil {
		return err
	}
	if e, ok := m.inbox[pair{to, from}]; ok {
		e.Seen = true
	}
	return nil
}

func (m *MemoryStore) CountUnseenInbox(ctx context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("count unseen inbox"); err != nil {
		return 0, err
	}
	var n int64
	for k, e := range m.inbox {
		if k.a == userID && !e.Seen {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) RecordView(ctx context.Context, viewer, viewed int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("record view"); err != nil {
		return err
	}
	m.views = append(m.views, models.ViewEvent{ID: m.id(), ViewerID: viewer, ViewedID: viewed, CreatedAt: m.now()})
	return nil
}

func (m *MemoryStore) ListViews(ctx context.Context, limit int) ([]models.ViewEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("list views"); err != nil {
		return nil, err
	}
	return newestFirst(m.views, limit), nil
}

func (m *MemoryStore) InsertComplaint(ctx context.Context, complaint *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("insert complaint"); err != nil {
		return err
	}
	complaint.ID = m.id()
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = m.now()
	}
	m.complaints = append(m.complaints, *complaint)
	return nil
}

func (m *MemoryStore) ListComplaints(ctx context.Context, limit int) ([]models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("list complaints"); err != nil {
		return nil, err
	}
	return newestFirst(m.complaints, limit), nil
}

func (m *MemoryStore) ComplaintsAgainst(ctx context.Context, userID int64) ([]models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("complaints against"); err != nil {
		return nil, err
	}
	var out []models.Complaint
	for _, c := range m.complaints {
		if c.ReportedID == userID {
			out = append(out, c)
		}
	}
	return newestFirst(out, 0), nil
}

// newestFirst returns a reversed copy of rows kept in insertion order, capped at limit when positive.
func newestFirst[T any](rows []T, limit int) []T {
	out := make([]T, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (m *MemoryStore) Stats(ctx context.Context, day time.Time) (*models.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("stats"); err != nil {
		return nil, err
	}

	now := m.now()
	stats := &models.Stats{Date: day, TotalLikes: int64(len(m.likes)), TotalComplaints: int64(len(m.complaints))}
	for _, p := range m.profiles {
		stats.TotalProfiles++
		if p.Blocked {
			stats.BlockedProfiles++
		}
		if p.IsVIPActive(now) {
			stats.VIPProfiles++
		}
	}
	for _, v := range m.views {
		if !v.CreatedAt.Before(day) {
			stats.ViewsToday++
		}
	}
	for _, p := range m.payments {
		if p.Status == models.PaymentPaid {
			stats.PaidPayments++
		}
	}
	return stats, nil
}

func (m *MemoryStore) InsertPaymentIfAbsent(ctx context.Context, payment *models.Payment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("insert payment"); err != nil {
		return false, err
	}
	if _, ok := m.payments[payment.PaymentID]; ok {
		return false, nil
	}
	p := *payment
	p.ID = m.id()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
	}
	m.payments[p.PaymentID] = &p
	return true, nil
}

func (m *MemoryStore) TransitionPaymentStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus, expiresAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("transition payment"); err != nil {
		return false, err
	}
	p, ok := m.payments[paymentID]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	if expiresAt != nil {
		t := *expiresAt
		p.ExpiresAt = &t
	}
	return true, nil
}

func (m *MemoryStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("get payment"); err != nil {
		return nil, err
	}
	p, ok := m.payments[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *MemoryStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("get setting"); err != nil {
		return "", false, err
	}
	v, ok := m.settings[key]
	return v, ok, nil
}

func (m *MemoryStore) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("set setting"); err != nil {
		return err
	}
	m.settings[key] = value
	return nil
}

// LikeCount returns the number of stored like edges.
func (m *MemoryStore) LikeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.likes)
}

// ViewCount returns the number of stored view events.
func (m *MemoryStore) ViewCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}

func cloneProfile(p *models.Profile) *models.Profile {
	out := *p
	out.Interests = cloneStrings(p.Interests)
	out.Photos = cloneStrings(p.Photos)
	out.Videos = cloneStrings(p.Videos)
	if p.NormalizedCity != nil {
		v := *p.NormalizedCity
		out.NormalizedCity = &v
	}
	if p.Bio != nil {
		v := *p.Bio
		out.Bio = &v
	}
	if p.Smoking != nil {
		out.Smoking = answerPtr(*p.Smoking)
	}
	if p.Drinking != nil {
		out.Drinking = answerPtr(*p.Drinking)
	}
	if p.Relationship != nil {
		out.Relationship = answerPtr(*p.Relationship)
	}
	if p.VIPUntil != nil {
		v := *p.VIPUntil
		out.VIPUntil = &v
	}
	if p.LastViewDate != nil {
		v := *p.LastViewDate
		out.LastViewDate = &v
	}
	if p.AgeMinPreference != nil {
		out.AgeMinPreference = intPtr(*p.AgeMinPreference)
	}
	if p.AgeMaxPreference != nil {
		out.AgeMaxPreference = intPtr(*p.AgeMaxPreference)
	}
	return &out
}

func cloneStrings(in pq.StringArray) pq.StringArray {
	if in == nil {
		return nil
	}
	return append(pq.StringArray{}, in...)
}

func answerPtr(a models.Answer) *models.Answer { return &a }

func intPtr(v int) *int { return &v }
