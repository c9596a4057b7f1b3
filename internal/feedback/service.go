// Package feedback ingests passenger ratings and raises low-rating alerts.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
	"github.com/jitenkr2030/Rail-Clean/internal/notify"
	"github.com/jitenkr2030/Rail-Clean/internal/repository"
)

// PageLimit caps the ratings returned for one coach.
const PageLimit = 100

const unknown = "unknown"

// RatingStore persists ratings.
type RatingStore interface {
	Create(ctx context.Context, params repository.RatingCreateParams) (domain.Rating, error)
	ListByCoach(ctx context.Context, coachID string, limit int) ([]domain.Rating, error)
}

// AlertStore persists alerts.
type AlertStore interface {
	Create(ctx context.Context, alert domain.Alert) (domain.Alert, error)
}

// Submission is one validated-on-submit rating request.
type Submission struct {
	CoachID   string
	Scores    domain.Scores
	Comments  *string
	Language  string
	IPAddress string
	UserAgent string
}

// Result is the outcome of a successful submission. Alert is nil when no alert was
// raised or storing it failed.
type Result struct {
	Rating domain.Rating
	Alert  *domain.Alert
}

// CoachFeedback is the newest page of ratings for a coach with its means.
type CoachFeedback struct {
	Ratings  []domain.Rating
	Averages *domain.RatingAverages
}

// Service validates and stores ratings.
type Service struct {
	ratings  RatingStore
	alerts   AlertStore
	notifier notify.Notifier
	logger   zerolog.Logger

	inflight sync.WaitGroup
}

// NewService wires a Service. A nil notifier disables alert delivery.
func NewService(ratings RatingStore, alerts AlertStore, notifier notify.Notifier, logger zerolog.Logger) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Service{
		ratings:  ratings,
		alerts:   alerts,
		notifier: notifier,
		logger:   logger.With().Str("component", "feedback").Logger(),
	}
}

// Submit validates a submission, stores the rating and, for a low overall score,
// raises an alert. The rating is written first; a failed alert write is logged and
// does not fail the submission.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	coachID := strings.TrimSpace(sub.CoachID)
	if coachID == "" {
		return Result{}, domain.NewValidationError("coachId", "coachId is required")
	}
	if err := sub.Scores.Validate(); err != nil {
		return Result{}, err
	}

	overall := sub.Scores.Overall()
	rating, err := s.ratings.Create(ctx, repository.RatingCreateParams{
		CoachID:   coachID,
		Scores:    sub.Scores,
		Overall:   overall,
		Comments:  sub.Comments,
		Language:  orDefault(sub.Language, domain.DefaultLanguage),
		IPAddress: orDefault(sub.IPAddress, unknown),
		UserAgent: orDefault(sub.UserAgent, unknown),
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Rating: rating}
	alert, raise := domain.LowRatingAlert(coachID, overall)
	if !raise {
		return res, nil
	}

	// The rating is committed; a client disconnect must not drop its alert.
	ctx = context.WithoutCancel(ctx)
	stored, err := s.alerts.Create(ctx, alert)
	if err != nil {
		s.logger.Error().Err(err).
			Str("rating_id", rating.ID).
			Str("coach_id", coachID).
			Int("overall", overall).
			Msg("alert creation failed")
		return res, nil
	}
	res.Alert = &stored
	s.deliver(ctx, stored)
	return res, nil
}

// deliver hands the alert to the notifier without blocking the submission.
func (s *Service) deliver(ctx context.Context, alert domain.Alert) {
	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.notifier.Notify(ctx, alert); err != nil {
			s.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("alert notification failed")
		}
	}()
}

// Wait blocks until every pending alert notification has finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// ForCoach returns the newest ratings of a coach with their means.
func (s *Service) ForCoach(ctx context.Context, coachID string) (CoachFeedback, error) {
	coachID = strings.TrimSpace(coachID)
	if coachID == "" {
		return CoachFeedback{}, domain.NewValidationError("coachId", "Coach ID required")
	}
	ratings, err := s.ratings.ListByCoach(ctx, coachID, PageLimit)
	if err != nil {
		return CoachFeedback{}, fmt.Errorf("list feedback: %w", err)
	}
	return CoachFeedback{Ratings: ratings, Averages: domain.AverageRatings(ratings)}, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
