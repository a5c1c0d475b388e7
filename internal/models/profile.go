package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	MinAge = 18
	MaxAge = 99

	// DefaultAgeSpread is the half-width of the age band used when a profile
	// has no explicit age preference.
	DefaultAgeSpread = 3

	MaxPhotos = 3
	MaxVideos = 3
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// GenderInterest is the desired partner gender.
type GenderInterest string

const (
	InterestMale   GenderInterest = "male"
	InterestFemale GenderInterest = "female"
	InterestAny    GenderInterest = "any"
)

// Target returns the gender candidates must have, or false when any gender fits.
func (gi GenderInterest) Target() (Gender, bool) {
	switch gi {
	case InterestMale:
		return GenderMale, true
	case InterestFemale:
		return GenderFemale, true
	default:
		return "", false
	}
}

// Answer is a lifestyle attribute value.
type Answer string

const (
	AnswerYes         Answer = "yes"
	AnswerNo          Answer = "no"
	AnswerUndisclosed Answer = "undisclosed"
)

// InterestTags is the fixed set of tags a profile may carry.
var InterestTags = []string{
	"music", "travel", "reading", "design", "blogging",
	"cars", "crafts", "religion", "languages", "work",
	"sports", "games", "dancing", "movies", "cooking",
	"drawing", "volunteering",
}

// IsInterestTag reports whether tag belongs to InterestTags.
func IsInterestTag(tag string) bool {
	for _, known := range InterestTags {
		if known == tag {
			return true
		}
	}
	return false
}

type Profile struct {
	ID                uint           `json:"-" gorm:"primaryKey"`
	TelegramID        int64          `json:"telegram_id" gorm:"uniqueIndex;not null"`
	Name              string         `json:"name" gorm:"not null" validate:"required,min=2,max=30"`
	Age               int            `json:"age" gorm:"not null;check:chk_profiles_age,age BETWEEN 18 AND 99" validate:"gte=18,lte=99"`
	City              string         `json:"city" gorm:"not null;index" validate:"required,min=2,max=50"`
	NormalizedCity    *string        `json:"normalized_city,omitempty" gorm:"index"`
	Gender            Gender         `json:"gender" gorm:"not null" validate:"required,oneof=male female"`
	Bio               *string        `json:"bio,omitempty" validate:"omitempty,max=1000"`
	GenderInterest    GenderInterest `json:"gender_interest" gorm:"not null;index" validate:"required,oneof=male female any"`
	Interests         pq.StringArray `json:"interests" gorm:"type:text[];not null" validate:"dive,interest_tag"`
	Photos            pq.StringArray `json:"photos" gorm:"type:text[];not null;default:'{}'" validate:"max=3"`
	Videos            pq.StringArray `json:"videos" gorm:"type:text[];not null;default:'{}'" validate:"max=3"`
	Smoking           *Answer        `json:"smoking,omitempty" validate:"omitempty,oneof=yes no undisclosed"`
	Drinking          *Answer        `json:"drinking,omitempty" validate:"omitempty,oneof=yes no undisclosed"`
	Relationship      *Answer        `json:"relationship,omitempty" validate:"omitempty,oneof=yes no undisclosed"`
	Blocked           bool           `json:"blocked" gorm:"not null;default:false"`
	VIP               bool           `json:"vip" gorm:"not null;default:false;index"`
	VIPUntil          *time.Time     `json:"vip_until,omitempty"`
	DailyViews        int            `json:"daily_views" gorm:"not null;default:0"`
	LastViewDate      *time.Time     `json:"last_view_date,omitempty" gorm:"type:date"`
	AgeMinPreference  *int           `json:"age_min_preference,omitempty" validate:"omitempty,gte=18,lte=99"`
	AgeMaxPreference  *int           `json:"age_max_preference,omitempty" validate:"omitempty,gte=18,lte=99"`
	CityFilterEnabled bool           `json:"city_filter_enabled" gorm:"not null"`
	CreatedAt         time.Time      `json:"created_at"`
	LastActiveAt      time.Time      `json:"last_active_at"`
}

// AgeBand returns the inclusive age range used to filter candidates. Explicit
// preferences win; otherwise the band is the profile's own age ±3, never below 18.
func (p *Profile) AgeBand() (int, int) {
	age := p.Age
	if age == 0 {
		age = MinAge
	}

	minAge := age - DefaultAgeSpread
	if minAge < MinAge {
		minAge = MinAge
	}
	maxAge := age + DefaultAgeSpread

	if p.AgeMinPreference != nil {
		minAge = *p.AgeMinPreference
	}
	if p.AgeMaxPreference != nil {
		maxAge = *p.AgeMaxPreference
	}
	return minAge, maxAge
}

// IsVIPActive reports whether the VIP flag is set or VIPUntil lies strictly after now.
func (p *Profile) IsVIPActive(now time.Time) bool {
	if p.VIP {
		return true
	}
	return p.VIPUntil != nil && now.Before(*p.VIPUntil)
}

// CityKey is the value candidates are matched on in the same-city tier.
func (p *Profile) CityKey() string {
	if p.NormalizedCity != nil && *p.NormalizedCity != "" {
		return *p.NormalizedCity
	}
	return ""
}
