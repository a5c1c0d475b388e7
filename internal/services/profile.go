package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"matchbot-server/internal/models"
	"matchbot-server/internal/repository"
	"matchbot-server/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const (
	MediaPhotos = "photos"
	MediaVideos = "videos"
)

type profileStore interface {
	repository.Clock
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	UpdateProfile(ctx context.Context, userID int64, update repository.ProfileUpdate) error
	DeleteProfile(ctx context.Context, userID int64) error
	TouchLastActive(ctx context.Context, userID int64, at time.Time) error
}

// NewValidator returns a validator that also knows the interest_tag rule.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("interest_tag", func(fl validator.FieldLevel) bool {
		return models.IsInterestTag(fl.Field().String())
	})
	return v
}

// ProfileService owns profile registration and field-by-field edits.
type ProfileService struct {
	store    profileStore
	media    MediaStorage
	validate *validator.Validate
	log      logrus.FieldLogger
}

// NewProfileService accepts a nil media storage; uploads then fail with ErrMediaUnavailable.
func NewProfileService(store profileStore, media MediaStorage, log logrus.FieldLogger) *ProfileService {
	return &ProfileService{
		store:    store,
		media:    media,
		validate: NewValidator(),
		log:      log,
	}
}

func (s *ProfileService) invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
}

// Register stores a completed registration. Re-registering overwrites the
// questionnaire fields and keeps moderation, VIP and quota state.
func (s *ProfileService) Register(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if err := s.validate.Struct(p); err != nil {
		return nil, s.invalid(err)
	}

	normalized := utils.NormalizeCity(p.City)
	p.NormalizedCity = &normalized
	p.CityFilterEnabled = true

	now, err := s.store.Now(ctx)
	if err != nil {
		return nil, err
	}
	p.LastActiveAt = now

	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("register profile: %w", err)
	}
	s.log.WithField("user_id", p.TelegramID).Info("profile registered")
	return s.Get(ctx, p.TelegramID)
}

func (s *ProfileService) Get(ctx context.Context, userID int64) (*models.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// Update applies a partial edit of the questionnaire fields.
func (s *ProfileService) Update(ctx context.Context, userID int64, u repository.ProfileUpdate) (*models.Profile, error) {
	if err := s.validateUpdate(u); err != nil {
		return nil, err
	}
	if err := s.apply(ctx, userID, u); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

type fieldCheck struct {
	value interface{}
	tag   string
}

func (s *ProfileService) validateUpdate(u repository.ProfileUpdate) error {
	var checks []fieldCheck
	if u.Name != nil {
		checks = append(checks, fieldCheck{*u.Name, "required,min=2,max=30"})
	}
	if u.Age != nil {
		checks = append(checks, fieldCheck{*u.Age, "gte=18,lte=99"})
	}
	if u.City != nil {
		checks = append(checks, fieldCheck{*u.City, "required,min=2,max=50"})
	}
	if u.Gender != nil {
		checks = append(checks, fieldCheck{string(*u.Gender), "oneof=male female"})
	}
	if u.Bio != nil {
		checks = append(checks, fieldCheck{*u.Bio, "max=1000"})
	}
	if u.GenderInterest != nil {
		checks = append(checks, fieldCheck{string(*u.GenderInterest), "oneof=male female any"})
	}
	if u.Interests != nil {
		checks = append(checks, fieldCheck{u.Interests, "dive,interest_tag"})
	}
	for _, a := range []*models.Answer{u.Smoking, u.Drinking, u.Relationship} {
		if a != nil {
			checks = append(checks, fieldCheck{string(*a), "oneof=yes no undisclosed"})
		}
	}

	for _, c := range checks {
		if err := s.validate.Var(c.value, c.tag); err != nil {
			return s.invalid(err)
		}
	}
	return nil
}

func (s *ProfileService) apply(ctx context.Context, userID int64, u repository.ProfileUpdate) error {
	if err := s.store.UpdateProfile(ctx, userID, u); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetAgePreference stores an explicit age band.
func (s *ProfileService) SetAgePreference(ctx context.Context, userID int64, minAge, maxAge int) error {
	if minAge < models.MinAge || maxAge > models.MaxAge || minAge > maxAge {
		return s.invalid(fmt.Errorf("age band %d-%d", minAge, maxAge))
	}
	return s.apply(ctx, userID, repository.ProfileUpdate{AgeMinPreference: &minAge, AgeMaxPreference: &maxAge})
}

// ClearAgePreference returns the profile to the default band around its own age.
func (s *ProfileService) ClearAgePreference(ctx context.Context, userID int64) error {
	return s.apply(ctx, userID, repository.ProfileUpdate{ClearAgeBand: true})
}

func (s *ProfileService) SetCityFilter(ctx context.Context, userID int64, enabled bool) error {
	return s.apply(ctx, userID, repository.ProfileUpdate{CityFilterEnabled: &enabled})
}

func (s *ProfileService) AddPhoto(ctx context.Context, userID int64, file io.Reader, size int64, filename, contentType string) (string, error) {
	return s.addMedia(ctx, userID, MediaPhotos, file, size, filename, contentType)
}

func (s *ProfileService) AddVideo(ctx context.Context, userID int64, file io.Reader, size int64, filename, contentType string) (string, error) {
	return s.addMedia(ctx, userID, MediaVideos, file, size, filename, contentType)
}

func (s *ProfileService) addMedia(ctx context.Context, userID int64, kind string, file io.Reader, size int64, filename, contentType string) (string, error) {
	if s.media == nil {
		return "", ErrMediaUnavailable
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	current, limit := []string(p.Photos), models.MaxPhotos
	if kind == MediaVideos {
		current, limit = []string(p.Videos), models.MaxVideos
	}
	if len(current) >= limit {
		return "", fmt.Errorf("%w: at most %d %s", ErrMediaLimit, limit, kind)
	}

	ref, err := s.media.Upload(ctx, ObjectKey(kind, userID, filename), file, size, contentType)
	if err != nil {
		return "", err
	}

	refs := append(append([]string{}, current...), ref)
	u := repository.ProfileUpdate{Photos: refs}
	if kind == MediaVideos {
		u = repository.ProfileUpdate{Videos: refs}
	}
	if err := s.apply(ctx, userID, u); err != nil {
		s.removeMedia(ctx, userID, ref)
		return "", err
	}
	return ref, nil
}

// ReplacePhotos sets the ordered photo list and removes blobs no longer referenced.
func (s *ProfileService) ReplacePhotos(ctx context.Context, userID int64, refs []string) error {
	if len(refs) > models.MaxPhotos {
		return fmt.Errorf("%w: at most %d photos", ErrMediaLimit, models.MaxPhotos)
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if refs == nil {
		refs = []string{}
	}
	if err := s.apply(ctx, userID, repository.ProfileUpdate{Photos: refs}); err != nil {
		return err
	}

	kept := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		kept[r] = struct{}{}
	}
	for _, old := range p.Photos {
		if _, ok := kept[old]; !ok {
			s.removeMedia(ctx, userID, old)
		}
	}
	return nil
}

// Delete removes the profile with its likes, inbox entries, views and
// complaints. Media blobs are removed afterwards on a best-effort basis.
func (s *ProfileService) Delete(ctx context.Context, userID int64) error {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProfile(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("delete profile: %w", err)
	}

	for _, ref := range append(append([]string{}, p.Photos...), p.Videos...) {
		s.removeMedia(ctx, userID, ref)
	}
	s.log.WithField("user_id", userID).Info("profile deleted")
	return nil
}

func (s *ProfileService) removeMedia(ctx context.Context, userID int64, ref string) {
	if s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, ref); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "ref": ref}).Warn("media cleanup failed")
	}
}

// Touch records activity by the user.
func (s *ProfileService) Touch(ctx context.Context, userID int64) error {
	now, err := s.store.Now(ctx)
	if err != nil {
		return err
	}
	if err := s.store.TouchLastActive(ctx, userID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	return nil
}

// MediaURLs resolves stored references to temporary download URLs.
func (s *ProfileService) MediaURLs(ctx context.Context, refs []string, expiration time.Duration) ([]string, error) {
	if s.media == nil {
		return nil, ErrMediaUnavailable
	}
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		u, err := s.media.PresignedURL(ctx, ref, expiration)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}
