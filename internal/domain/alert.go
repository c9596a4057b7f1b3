package domain

import (
	"fmt"
	"time"
)

// AlertTypeLowRating tags alerts raised by a low passenger rating.
const AlertTypeLowRating = "low_rating"

// Severity grades how urgently an alert needs follow-up.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
)

// Alert flags a coach for operational follow-up.
type Alert struct {
	ID         string
	CoachID    string
	Type       string
	Severity   Severity
	Message    string
	IsResolved bool
	CreatedAt  time.Time
}

// AlertSummary is an alert joined with the coach and train it concerns.
type AlertSummary struct {
	Alert
	CoachNumber string
	TrainNumber string
	TrainName   string
}

// LowRatingAlert returns the alert a rating with the given overall score raises, or
// false when the score is above LowRatingThreshold.
func LowRatingAlert(coachID string, overall int) (Alert, bool) {
	if overall > LowRatingThreshold {
		return Alert{}, false
	}
	severity := SeverityHigh
	if overall <= criticalThreshold {
		severity = SeverityCritical
	}
	return Alert{
		CoachID:  coachID,
		Type:     AlertTypeLowRating,
		Severity: severity,
		Message:  fmt.Sprintf("Coach received low rating: %d/5", overall),
	}, true
}
