package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"matchbot-server/internal/models"
	"matchbot-server/internal/repository"
	"matchbot-server/internal/utils"

	"github.com/sirupsen/logrus"
)

const DefaultCandidatePoolSize = 50

type selectorStore interface {
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	SetNormalizedCity(ctx context.Context, userID int64, city string) error
	FindCandidates(ctx context.Context, q repository.CandidateQuery) ([]models.Profile, error)
}

// CandidateSelector picks the next profile to show a requester. Tiers are
// tried in order and the first non-empty pool wins:
//
//  1. same city, age band and gender (only with the city filter on)
//  2. age band and gender, any city
//  3. gender only
type CandidateSelector struct {
	store    selectorStore
	poolSize int
	intn     func(n int) int
	log      logrus.FieldLogger
}

func NewCandidateSelector(store selectorStore, poolSize int, log logrus.FieldLogger) *CandidateSelector {
	if poolSize <= 0 {
		poolSize = DefaultCandidatePoolSize
	}
	return &CandidateSelector{
		store:    store,
		poolSize: poolSize,
		intn:     rand.Intn,
		log:      log,
	}
}

// Select returns nil without error when the requester has no profile, is
// blocked, or no eligible candidate exists.
func (s *CandidateSelector) Select(ctx context.Context, requesterID int64) (*models.Profile, error) {
	requester, err := s.store.GetProfile(ctx, requesterID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if requester.Blocked {
		return nil, nil
	}

	if err := s.backfillCity(ctx, requester); err != nil {
		return nil, err
	}

	for i, q := range s.tiers(requester) {
		pool, err := s.store.FindCandidates(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("candidate tier %d: %w", i+1, err)
		}
		if len(pool) == 0 {
			continue
		}
		picked := s.pick(pool)
		s.log.WithFields(logrus.Fields{
			"user_id":   requesterID,
			"candidate": picked.TelegramID,
			"tier":      i + 1,
			"pool":      len(pool),
		}).Debug("candidate selected")
		return picked, nil
	}
	return nil, nil
}

func (s *CandidateSelector) backfillCity(ctx context.Context, p *models.Profile) error {
	if p.NormalizedCity != nil {
		return nil
	}
	city := utils.NormalizeCity(p.City)
	if city == "" {
		return nil
	}
	if err := s.store.SetNormalizedCity(ctx, p.TelegramID, city); err != nil {
		return fmt.Errorf("backfill normalized city: %w", err)
	}
	p.NormalizedCity = &city
	return nil
}

func (s *CandidateSelector) tiers(p *models.Profile) []repository.CandidateQuery {
	minAge, maxAge := p.AgeBand()

	var gender *models.Gender
	if g, ok := p.GenderInterest.Target(); ok {
		gender = &g
	}

	banded := repository.CandidateQuery{
		ExcludeID: p.TelegramID,
		MinAge:    &minAge,
		MaxAge:    &maxAge,
		Gender:    gender,
		Limit:     s.poolSize,
	}
	anyAge := repository.CandidateQuery{
		ExcludeID: p.TelegramID,
		Gender:    gender,
		Limit:     s.poolSize,
	}

	tiers := make([]repository.CandidateQuery, 0, 3)
	if city := p.CityKey(); p.CityFilterEnabled && city != "" {
		sameCity := banded
		sameCity.City = &city
		tiers = append(tiers, sameCity)
	}
	return append(tiers, banded, anyAge)
}

// pick samples uniformly among VIP candidates when the pool has any, otherwise among all.
func (s *CandidateSelector) pick(pool []models.Profile) *models.Profile {
	vip := make([]int, 0, len(pool))
	for i := range pool {
		if pool[i].VIP {
			vip = append(vip, i)
		}
	}
	if len(vip) > 0 {
		return &pool[vip[s.intn(len(vip))]]
	}
	return &pool[s.intn(len(pool))]
}
