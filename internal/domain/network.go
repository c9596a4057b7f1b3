package domain

import "time"

// Division groups trains and stations administratively.
type Division struct {
	ID          string
	Name        string
	Code        string
	Description *string
	CreatedAt   time.Time
}

// Station is a train origin or destination.
type Station struct {
	ID         string
	Name       string
	Code       string
	DivisionID string
	Address    *string
	CreatedAt  time.Time
}

// Train belongs to one division and runs from an origin to a destination station.
type Train struct {
	ID            string
	Number        string
	Name          string
	DivisionID    string
	OriginID      string
	DestinationID string
	Type          string
	IsActive      bool
	CreatedAt     time.Time
}

// Coach belongs to exactly one train and carries the QR code passengers scan.
type Coach struct {
	ID        string
	Number    string
	TrainID   string
	Type      string
	QRCode    string
	IsActive  bool
	CreatedAt time.Time
}

// CoachInfo is a coach together with the train it runs in.
type CoachInfo struct {
	Coach
	TrainNumber string
	TrainName   string
}
