package domain

import "time"

// CleaningStatus tracks a cleaning record through its lifecycle.
type CleaningStatus string

const (
	CleaningPending    CleaningStatus = "pending"
	CleaningInProgress CleaningStatus = "in_progress"
	CleaningCompleted  CleaningStatus = "completed"
	CleaningVerified   CleaningStatus = "verified"
)

// Valid reports whether s is a known status.
func (s CleaningStatus) Valid() bool {
	switch s {
	case CleaningPending, CleaningInProgress, CleaningCompleted, CleaningVerified:
		return true
	}
	return false
}

// CleaningTeam is a staff crew stationed at one station.
type CleaningTeam struct {
	ID          string
	Name        string
	LeaderName  string
	Contact     string
	StationID   string
	StationName string
	StationCode string
	IsActive    bool
	CreatedAt   time.Time
}

// CleaningRecord logs one cleaning job on a coach.
type CleaningRecord struct {
	ID             string
	CoachID        string
	TeamID         string
	Status         CleaningStatus
	BeforePhotoURL *string
	AfterPhotoURL  *string
	Notes          *string
	CleanedAt      time.Time
	VerifiedAt     *time.Time
}

// CleaningRecordDetail is a record joined with its coach, train and team.
type CleaningRecordDetail struct {
	CleaningRecord
	CoachNumber    string
	TrainNumber    string
	TrainName      string
	TeamName       string
	TeamLeaderName string
}
