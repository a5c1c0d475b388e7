package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"matchbot-server/internal/config"
	"matchbot-server/internal/models"
	"matchbot-server/internal/redis"
	"matchbot-server/internal/repository"
	"matchbot-server/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	gatewaySecret = "gateway-secret"
	adminSecret   = "admin-secret"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type memMedia struct {
	mu      sync.Mutex
	objects map[string]int
}

func (m *memMedia) Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := io.Copy(io.Discard, file)
	if err != nil {
		return "", err
	}
	ref := "media/" + key
	m.objects[ref] = int(n)
	return ref, nil
}

func (m *memMedia) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ref)
	return nil
}

func (m *memMedia) PresignedURL(ctx context.Context, ref string, expiration time.Duration) (string, error) {
	return "https://cdn.test/" + ref, nil
}

type testServer struct {
	router *gin.Engine
	store  *repository.MemoryStore
	media  *memMedia
	events <-chan redis.Event
}

func hashSecret(t *testing.T, secret string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	log, _ := logtest.NewNullLogger()

	cfg := &config.Config{
		EventsChannel:     "matchbot:events",
		JWTSecret:         "jwt-test-secret",
		JWTExpiry:         time.Hour,
		GatewaySecretHash: hashSecret(t, gatewaySecret),
		AdminSecretHash:   hashSecret(t, adminSecret),
		AdminIDs:          []int64{900},
		MaxDailyViews:     2,
		CandidatePoolSize: 50,
		QuotaTimezone:     "UTC",
		VIPDuration:       30 * 24 * time.Hour,
		VIPPriceAmount:    30000,
		VIPCurrency:       "RUB",
		MaxFileSize:       1024,
		AllowedImageTypes: []string{"image/jpeg", "image/png"},
		AllowedVideoTypes: []string{"video/mp4"},
	}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })
	notifier := redis.NewEventNotifier(client, cfg.EventsChannel)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	events, err := notifier.Events(ctx, nil)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	store.SetNow(func() time.Time { return testNow })
	media := &memMedia{objects: map[string]int{}}

	settings := services.NewSettingsService(store, cfg.AdminIDs)
	quota := services.NewQuotaTracker(store, settings, cfg.MaxDailyViews, cfg.Location(), log)
	selector := services.NewCandidateSelector(store, cfg.CandidatePoolSize, log)
	ledger := services.NewInterestLedger(store)
	subs := services.NewSubscriptionManager(store, cfg.VIPDuration, cfg.VIPPriceAmount, cfg.VIPCurrency, log)
	session := services.NewMatchSession(store, quota, selector, ledger, subs, notifier, log)
	profiles := services.NewProfileService(store, media, log)
	moderation := services.NewModerationService(store, cfg.Location(), log)

	router := SetupRoutes(Handlers{
		Auth:    NewAuthHandler(cfg, log),
		User:    NewUserHandler(profiles, moderation, subs, cfg, log),
		Match:   NewMatchHandler(session, log),
		Payment: NewPaymentHandler(subs, log),
		Admin:   NewAdminHandler(moderation, subs, settings, log),
	}, cfg, log)

	return &testServer{router: router, store: store, media: media, events: events}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) token(t *testing.T, role, secret string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/token", "", gin.H{"gateway": "tg-main", "secret": secret, "role": role})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp TokenResponse
	decode(t, w, &resp)
	return resp.AccessToken
}

func (s *testServer) register(t *testing.T, token string, id int64, body gin.H) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/users/"+strconv.FormatInt(id, 10)+"/profile", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (s *testServer) nextEvent(t *testing.T) redis.Event {
	t.Helper()
	select {
	case ev := <-s.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return redis.Event{}
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type nextResponse struct {
	Outcome       string          `json:"outcome"`
	Candidate     *models.Profile `json:"candidate"`
	RevealContact bool            `json:"reveal_contact"`
}

// decodeNext decodes into a fresh value so fields absent from this response stay zero.
func decodeNext(t *testing.T, w *httptest.ResponseRecorder) nextResponse {
	t.Helper()
	var next nextResponse
	decode(t, w, &next)
	return next
}

func profileBody(name string, age int, city, gender, interest string) gin.H {
	return gin.H{
		"name":            name,
		"age":             age,
		"city":            city,
		"gender":          gender,
		"gender_interest": interest,
		"interests":       []string{"music"},
	}
}

func TestIssueToken(t *testing.T) {
	s := newTestServer(t)

	gateway := s.token(t, "", gatewaySecret)
	w := s.do(t, http.MethodGet, "/api/v1/users/1/profile", gateway, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	tests := []struct {
		name   string
		body   gin.H
		status int
	}{
		{"wrong secret", gin.H{"gateway": "tg", "secret": "nope"}, http.StatusUnauthorized},
		{"admin with gateway secret", gin.H{"gateway": "tg", "secret": gatewaySecret, "role": "admin"}, http.StatusUnauthorized},
		{"unknown role", gin.H{"gateway": "tg", "secret": gatewaySecret, "role": "root"}, http.StatusBadRequest},
		{"missing gateway", gin.H{"secret": gatewaySecret}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/auth/token", "", tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w = s.do(t, http.MethodGet, "/api/v1/users/1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "gateway", gatewaySecret)

	w := s.do(t, http.MethodPost, "/api/v1/users/1/profile", token, profileBody("Anna", 15, "Moscow", "female", "male"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/users/1/profile", token, gin.H{"name": "Anna", "age": 25, "city": "Moscow", "gender": "female", "gender_interest": "male", "interests": []string{"skydiving"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.register(t, token, 1, profileBody("Anna", 25, "  Moscow ", "female", "male"))

	w = s.do(t, http.MethodPatch, "/api/v1/users/1/profile", token, gin.H{"city": "Санкт-Петербург", "bio": "hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Profile models.Profile `json:"profile"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "Санкт-Петербург", resp.Profile.City)
	require.NotNil(t, resp.Profile.NormalizedCity)
	assert.Equal(t, "санкт-петербург", *resp.Profile.NormalizedCity)
	assert.True(t, resp.Profile.CityFilterEnabled)

	w = s.do(t, http.MethodPatch, "/api/v1/users/1/profile", token, gin.H{"gender": "robot"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/users/1/preferences/age", token, gin.H{"min_age": 40, "max_age": 30})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPut, "/api/v1/users/1/preferences/age", token, gin.H{"min_age": 20, "max_age": 30})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodPut, "/api/v1/users/1/preferences/city-filter", token, gin.H{"enabled": false})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodPut, "/api/v1/users/1/preferences/city-filter", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/users/1/activity", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/users/1/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.False(t, resp.Profile.CityFilterEnabled)
	require.NotNil(t, resp.Profile.AgeMinPreference)
	assert.Equal(t, 20, *resp.Profile.AgeMinPreference)

	w = s.do(t, http.MethodDelete, "/api/v1/users/1/profile", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/users/1/profile", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/users/abc/profile", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "gateway", gatewaySecret)

	s.register(t, token, 1, profileBody("Ivan", 25, "Moscow", "male", "female"))
	s.register(t, token, 2, profileBody("Anna", 24, "moscow", "female", "male"))

	w := s.do(t, http.MethodPost, "/api/v1/users/1/next", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	next := decodeNext(t, w)
	assert.Equal(t, "shown", next.Outcome)
	require.NotNil(t, next.Candidate)
	assert.Equal(t, int64(2), next.Candidate.TelegramID)
	assert.False(t, next.RevealContact)

	w = s.do(t, http.MethodPost, "/api/v1/users/1/likes/2", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var like services.LikeResult
	decode(t, w, &like)
	assert.False(t, like.Mutual)
	assert.Equal(t, int64(1), like.RecipientUnseen)

	ev := s.nextEvent(t)
	assert.Equal(t, redis.EventInbox, ev.Type)
	assert.Equal(t, int64(2), ev.UserID)
	require.NotNil(t, ev.Unseen)
	assert.Equal(t, int64(1), *ev.Unseen)

	w = s.do(t, http.MethodPost, "/api/v1/users/1/likes/1", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/users/1/likes/77", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/users/2/inbox", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var inbox struct {
		Items []services.InboxItem `json:"items"`
		Count int                  `json:"count"`
	}
	decode(t, w, &inbox)
	require.Equal(t, 1, inbox.Count)
	assert.Equal(t, int64(1), inbox.Items[0].Profile.TelegramID)

	w = s.do(t, http.MethodPost, "/api/v1/users/2/inbox/1", token, gin.H{"like": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &like)
	assert.True(t, like.Mutual)

	matches := map[int64]int64{}
	for i := 0; i < 3; i++ {
		ev := s.nextEvent(t)
		if ev.Type == redis.EventMatch {
			matches[ev.UserID] = ev.PeerID
		}
	}
	assert.Equal(t, map[int64]int64{1: 2, 2: 1}, matches)

	w = s.do(t, http.MethodGet, "/api/v1/users/2/inbox", token, nil)
	decode(t, w, &inbox)
	assert.Zero(t, inbox.Count)

	// Second view uses the last of the two daily views.
	w = s.do(t, http.MethodPost, "/api/v1/users/1/next", token, nil)
	next = decodeNext(t, w)
	assert.Equal(t, "shown", next.Outcome)
	w = s.do(t, http.MethodPost, "/api/v1/users/1/next", token, nil)
	next = decodeNext(t, w)
	assert.Equal(t, "quota_exceeded", next.Outcome)
	assert.Nil(t, next.Candidate)
	assert.NotContains(t, w.Body.String(), `"candidate"`)
}

func TestPaymentConfirm(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "gateway", gatewaySecret)
	s.register(t, token, 1, profileBody("Ivan", 25, "Moscow", "male", "female"))

	event := gin.H{"payment_id": "charge-1", "user_id": 1, "status": "paid"}
	w := s.do(t, http.MethodPost, "/api/v1/payments/confirm", token, event)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result services.PaymentResult
	decode(t, w, &result)
	assert.True(t, result.Activated)
	require.NotNil(t, result.VIPUntil)
	assert.True(t, testNow.Add(30*24*time.Hour).Equal(*result.VIPUntil))
	assert.Equal(t, int64(30000), result.Payment.Amount)

	w = s.do(t, http.MethodPost, "/api/v1/payments/confirm", token, event)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &result)
	assert.False(t, result.Activated)

	w = s.do(t, http.MethodPost, "/api/v1/payments/confirm", token, gin.H{"payment_id": "charge-1", "user_id": 1, "status": "failed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/payments/confirm", token, gin.H{"user_id": 1, "status": "refunded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/payments/confirm", token, gin.H{"user_id": 5, "status": "paid"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/users/1/vip", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var vip struct {
		Active bool `json:"active"`
		VIP    bool `json:"vip"`
	}
	decode(t, w, &vip)
	assert.True(t, vip.Active)
	assert.True(t, vip.VIP)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	gateway := s.token(t, "gateway", gatewaySecret)
	admin := s.token(t, "admin", adminSecret)

	s.register(t, gateway, 1, profileBody("Ivan", 25, "Moscow", "male", "female"))
	s.register(t, gateway, 2, profileBody("Anna", 24, "Moscow", "female", "male"))

	w := s.do(t, http.MethodGet, "/api/v1/admin/stats", gateway, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/users/2/complaints", gateway, gin.H{"reported_id": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/v1/users/2/complaints", gateway, gin.H{"reported_id": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var complaints struct {
		Complaints []models.Complaint `json:"complaints"`
	}
	w = s.do(t, http.MethodGet, "/api/v1/admin/complaints", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &complaints)
	require.Len(t, complaints.Complaints, 1)
	assert.Equal(t, models.DefaultComplaintReason, complaints.Complaints[0].Reason)

	w = s.do(t, http.MethodGet, "/api/v1/admin/users/1/complaints", admin, nil)
	decode(t, w, &complaints)
	assert.Len(t, complaints.Complaints, 1)

	w = s.do(t, http.MethodPut, "/api/v1/admin/users/1/blocked", admin, gin.H{"blocked": true})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/users/1/next", gateway, nil)
	assert.Contains(t, w.Body.String(), `"outcome":"denied"`)
	w = s.do(t, http.MethodPut, "/api/v1/admin/users/404/blocked", admin, gin.H{"blocked": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/admin/users/2/vip", admin, gin.H{"vip": true, "duration": "48h"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "vip_until")
	w = s.do(t, http.MethodPut, "/api/v1/admin/users/2/vip", admin, gin.H{"vip": true, "duration": "soon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPut, "/api/v1/admin/users/2/vip", admin, gin.H{"vip": false})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/users/2/vip", gateway, nil)
	assert.Contains(t, w.Body.String(), `"active":false`)

	w = s.do(t, http.MethodPut, "/api/v1/admin/settings/limits", admin, gin.H{"disabled": true})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/admin/settings/limits", admin, nil)
	assert.JSONEq(t, `{"disabled":true}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/admin/moderators/55", admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/admin/moderators", admin, nil)
	assert.JSONEq(t, `{"moderators":[55]}`, w.Body.String())
	w = s.do(t, http.MethodGet, "/api/v1/users/55/moderator", gateway, nil)
	assert.JSONEq(t, `{"user_id":55,"admin":false,"moderator":true}`, w.Body.String())
	w = s.do(t, http.MethodGet, "/api/v1/users/900/moderator", gateway, nil)
	assert.JSONEq(t, `{"user_id":900,"admin":true,"moderator":true}`, w.Body.String())
	w = s.do(t, http.MethodDelete, "/api/v1/admin/moderators/55", admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/admin/moderators", admin, nil)
	assert.JSONEq(t, `{"moderators":[]}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.Stats
	decode(t, w, &stats)
	assert.Equal(t, int64(2), stats.TotalProfiles)
	assert.Equal(t, int64(1), stats.BlockedProfiles)
	assert.Equal(t, int64(1), stats.TotalComplaints)

	w = s.do(t, http.MethodGet, "/api/v1/admin/views", admin, nil)
	assert.JSONEq(t, `{"views":[]}`, w.Body.String())
}

func TestStoreUnavailable(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "gateway", gatewaySecret)
	s.register(t, token, 1, profileBody("Ivan", 25, "Moscow", "male", "female"))

	s.store.FailOn("get profile", errors.New("connection refused"))
	w := s.do(t, http.MethodGet, "/api/v1/users/1/profile", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Storage temporarily unavailable","retryable":true}`, w.Body.String())
}

func upload(t *testing.T, s *testServer, token, path, filename, contentType string, size int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xff}, size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestMediaUpload(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "gateway", gatewaySecret)
	s.register(t, token, 1, profileBody("Ivan", 25, "Moscow", "male", "female"))

	path := "/api/v1/users/1/media/photos"
	var refs []string
	for i := 0; i < models.MaxPhotos; i++ {
		w := upload(t, s, token, path, "me.jpg", "image/jpeg", 100)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp struct {
			Ref string `json:"ref"`
		}
		decode(t, w, &resp)
		assert.True(t, strings.HasPrefix(resp.Ref, "media/photos/1/"), resp.Ref)
		refs = append(refs, resp.Ref)
	}

	w := upload(t, s, token, path, "me.jpg", "image/jpeg", 100)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = upload(t, s, token, "/api/v1/users/1/media/videos", "clip.gif", "image/gif", 100)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = upload(t, s, token, "/api/v1/users/1/media/videos", "clip.mp4", "video/mp4", 4096)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = upload(t, s, token, "/api/v1/users/1/media/videos", "clip.mp4", "video/mp4", 512)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPut, path, token, gin.H{"refs": refs[:1]})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, s.media.objects, 2)

	w = s.do(t, http.MethodGet, "/api/v1/users/1/profile?media_urls=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		PhotoURLs []string `json:"photo_urls"`
		VideoURLs []string `json:"video_urls"`
	}
	decode(t, w, &resp)
	assert.Equal(t, []string{"https://cdn.test/" + refs[0]}, resp.PhotoURLs)
	assert.Len(t, resp.VideoURLs, 1)
}
