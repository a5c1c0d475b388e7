package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"matchbot-server/internal/models"
	"matchbot-server/internal/repository"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	mu      sync.Mutex
	matches [][2]int64
	inbox   map[int64]int64
	err     error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{inbox: map[int64]int64{}}
}

func (n *fakeNotifier) NotifyMatch(ctx context.Context, userID, peerID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.matches = append(n.matches, [2]int64{userID, peerID})
	return n.err
}

func (n *fakeNotifier) NotifyInbox(ctx context.Context, userID int64, unseen int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inbox[userID] = unseen
	return n.err
}

type fakeMedia struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failPut bool
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: map[string][]byte{}}
}

func (m *fakeMedia) Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return "", errors.New("bucket unreachable")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", err
	}
	ref := "media/" + key
	m.objects[ref] = buf.Bytes()
	return ref, nil
}

func (m *fakeMedia) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ref)
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *fakeMedia) PresignedURL(ctx context.Context, ref string, expiration time.Duration) (string, error) {
	return "https://media.example/" + ref, nil
}

type testEnv struct {
	now      time.Time
	store    *repository.MemoryStore
	log      *logrus.Logger
	notifier *fakeNotifier
	media    *fakeMedia

	settings   *SettingsService
	quota      *QuotaTracker
	selector   *CandidateSelector
	ledger     *InterestLedger
	subs       *SubscriptionManager
	session    *MatchSession
	profiles   *ProfileService
	moderation *ModerationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, _ := logtest.NewNullLogger()
	e := &testEnv{
		now:      testNow,
		store:    repository.NewMemoryStore(),
		log:      log,
		notifier: newFakeNotifier(),
		media:    newFakeMedia(),
	}
	e.store.SetNow(func() time.Time { return e.now })

	e.settings = NewSettingsService(e.store, []int64{1000})
	e.quota = NewQuotaTracker(e.store, e.settings, 10, time.UTC, log)
	e.selector = NewCandidateSelector(e.store, 50, log)
	e.ledger = NewInterestLedger(e.store)
	e.subs = NewSubscriptionManager(e.store, DefaultVIPDuration, 30000, "RUB", log)
	e.session = NewMatchSession(e.store, e.quota, e.selector, e.ledger, e.subs, e.notifier, log)
	e.profiles = NewProfileService(e.store, e.media, log)
	e.moderation = NewModerationService(e.store, time.UTC, log)
	return e
}

type profileOpt func(p *models.Profile)

func withVIP() profileOpt { return func(p *models.Profile) { p.VIP = true } }

func blocked() profileOpt { return func(p *models.Profile) { p.Blocked = true } }

func withInterest(gi models.GenderInterest) profileOpt {
	return func(p *models.Profile) { p.GenderInterest = gi }
}

func withViews(n int, day time.Time) profileOpt {
	return func(p *models.Profile) {
		p.DailyViews = n
		p.LastViewDate = &day
	}
}

func cityFilterOff() profileOpt { return func(p *models.Profile) { p.CityFilterEnabled = false } }

func rawCity() profileOpt { return func(p *models.Profile) { p.NormalizedCity = nil } }

// addProfile stores a profile directly, bypassing registration.
func (e *testEnv) addProfile(t *testing.T, id int64, age int, city string, gender models.Gender, opts ...profileOpt) {
	t.Helper()

	normalized := city
	p := &models.Profile{
		TelegramID:        id,
		Name:              "user",
		Age:               age,
		City:              city,
		NormalizedCity:    &normalized,
		Gender:            gender,
		GenderInterest:    models.InterestAny,
		Interests:         []string{"music"},
		CityFilterEnabled: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, e.store.UpsertProfile(context.Background(), p))
}

func (e *testEnv) profile(t *testing.T, id int64) *models.Profile {
	t.Helper()
	p, err := e.store.GetProfile(context.Background(), id)
	require.NoError(t, err)
	return p
}

func today() time.Time {
	return time.Date(testNow.Year(), testNow.Month(), testNow.Day(), 0, 0, 0, 0, time.UTC)
}
