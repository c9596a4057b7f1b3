package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	// MinScore and MaxScore bound every category score and the derived overall score.
	MinScore = 1
	MaxScore = 5

	// DefaultLanguage is recorded when a submission does not name one.
	DefaultLanguage = "english"

	// LowRatingThreshold is the highest overall score that still raises an alert.
	LowRatingThreshold = 2
	criticalThreshold  = 1
)

// Category names a rated aspect of a coach.
type Category string

const (
	CategoryCleanliness Category = "cleanliness"
	CategoryToilet      Category = "toilet"
	CategoryOdor        Category = "odor"
	CategoryGarbage     Category = "garbage"
	CategoryWater       Category = "water"
)

// Categories lists every rated aspect in presentation order. Ties between categories
// are always resolved in this order.
var Categories = []Category{
	CategoryCleanliness,
	CategoryToilet,
	CategoryOdor,
	CategoryGarbage,
	CategoryWater,
}

// Scores holds the five category scores of a single submission.
type Scores struct {
	Cleanliness int
	Toilet      int
	Odor        int
	Garbage     int
	Water       int
}

// Get returns the score recorded for a category.
func (s Scores) Get(c Category) int {
	switch c {
	case CategoryCleanliness:
		return s.Cleanliness
	case CategoryToilet:
		return s.Toilet
	case CategoryOdor:
		return s.Odor
	case CategoryGarbage:
		return s.Garbage
	case CategoryWater:
		return s.Water
	}
	return 0
}

// Validate reports the first category whose score lies outside [MinScore, MaxScore].
func (s Scores) Validate() error {
	for _, c := range Categories {
		if v := s.Get(c); v < MinScore || v > MaxScore {
			return NewValidationError(string(c), fmt.Sprintf("%s must be between %d and %d", c, MinScore, MaxScore))
		}
	}
	return nil
}

// Overall is the mean of the five scores rounded half up.
func (s Scores) Overall() int {
	sum := s.Cleanliness + s.Toilet + s.Odor + s.Garbage + s.Water
	return int(math.Floor(float64(sum)/float64(len(Categories)) + 0.5))
}

// Rating represents one passenger submission for a coach. It is never updated.
type Rating struct {
	ID        string
	CoachID   string
	Scores    Scores
	Overall   int
	Comments  *string
	Language  string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// RatingAverages holds arithmetic means over a set of ratings.
type RatingAverages struct {
	Cleanliness float64
	Toilet      float64
	Odor        float64
	Garbage     float64
	Water       float64
	Overall     float64
}

// AverageRatings computes per-category and overall means over exactly the given
// ratings. It returns nil for an empty slice.
func AverageRatings(ratings []Rating) *RatingAverages {
	if len(ratings) == 0 {
		return nil
	}
	var avg RatingAverages
	for _, r := range ratings {
		avg.Cleanliness += float64(r.Scores.Cleanliness)
		avg.Toilet += float64(r.Scores.Toilet)
		avg.Odor += float64(r.Scores.Odor)
		avg.Garbage += float64(r.Scores.Garbage)
		avg.Water += float64(r.Scores.Water)
		avg.Overall += float64(r.Overall)
	}
	n := float64(len(ratings))
	avg.Cleanliness /= n
	avg.Toilet /= n
	avg.Odor /= n
	avg.Garbage /= n
	avg.Water /= n
	avg.Overall /= n
	return &avg
}
