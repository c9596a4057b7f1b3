// Package seed loads the reference network, cleaning teams and sample cleaning
// records into the database.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
	"github.com/jitenkr2030/Rail-Clean/internal/repository"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the YAML document describing the data to load.
type Fixtures struct {
	Divisions       []DivisionFixture `yaml:"divisions"`
	Stations        []StationFixture  `yaml:"stations"`
	CoachTypes      []string          `yaml:"coachTypes"`
	Trains          []TrainFixture    `yaml:"trains"`
	Teams           []TeamFixture     `yaml:"teams"`
	CleaningRecords RecordsFixture    `yaml:"cleaningRecords"`
}

// DivisionFixture is a division keyed by its unique code.
type DivisionFixture struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// StationFixture is a station; Division names a division code.
type StationFixture struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Division string `yaml:"division"`
	Address  string `yaml:"address"`
}

// TrainFixture is a train with Coaches numbered coaches. Stations are referenced by code.
type TrainFixture struct {
	Number      string `yaml:"number"`
	Name        string `yaml:"name"`
	Division    string `yaml:"division"`
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination"`
	Type        string `yaml:"type"`
	Coaches     int    `yaml:"coaches"`
	Inactive    bool   `yaml:"inactive"`
}

// TeamFixture is a cleaning team keyed by name and based at a station code.
type TeamFixture struct {
	Name    string `yaml:"name"`
	Leader  string `yaml:"leader"`
	Contact string `yaml:"contact"`
	Station string `yaml:"station"`
}

// RecordsFixture describes the sample cleaning records: one per coach for the first
// Coaches coaches, assigned to a team by the origin station of the coach's train.
type RecordsFixture struct {
	Coaches      int               `yaml:"coaches"`
	Status       string            `yaml:"status"`
	TeamByOrigin map[string]string `yaml:"teamByOrigin"`
	DefaultTeam  string            `yaml:"defaultTeam"`
}

// Summary counts what a run touched.
type Summary struct {
	Divisions       int `json:"divisions"`
	Stations        int `json:"stations"`
	Trains          int `json:"trains"`
	Coaches         int `json:"coaches"`
	CleaningTeams   int `json:"cleaningTeams"`
	CleaningRecords int `json:"cleaningRecords"`
}

// Default returns the built-in fixtures.
func Default() (Fixtures, error) {
	return Parse(defaultFixtures)
}

// Parse decodes and validates a fixtures document. Unknown keys are rejected.
func Parse(data []byte) (Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := fx.validate(); err != nil {
		return Fixtures{}, err
	}
	return fx, nil
}

func (fx Fixtures) validate() error {
	divisions := make(map[string]bool, len(fx.Divisions))
	for _, d := range fx.Divisions {
		if d.Code == "" || d.Name == "" {
			return fmt.Errorf("division requires code and name")
		}
		divisions[d.Code] = true
	}
	stations := make(map[string]bool, len(fx.Stations))
	for _, s := range fx.Stations {
		if !divisions[s.Division] {
			return fmt.Errorf("station %s: unknown division %q", s.Code, s.Division)
		}
		stations[s.Code] = true
	}
	coaches := 0
	for _, t := range fx.Trains {
		if t.Number == "" {
			return fmt.Errorf("train requires a number")
		}
		if !divisions[t.Division] {
			return fmt.Errorf("train %s: unknown division %q", t.Number, t.Division)
		}
		if !stations[t.Origin] || !stations[t.Destination] {
			return fmt.Errorf("train %s: unknown station", t.Number)
		}
		if t.Coaches > 0 && len(fx.CoachTypes) == 0 {
			return fmt.Errorf("train %s: coachTypes must not be empty", t.Number)
		}
		coaches += t.Coaches
	}
	teams := make(map[string]bool, len(fx.Teams))
	for _, t := range fx.Teams {
		if !stations[t.Station] {
			return fmt.Errorf("team %s: unknown station %q", t.Name, t.Station)
		}
		teams[t.Name] = true
	}
	rec := fx.CleaningRecords
	if rec.Coaches < 0 {
		return fmt.Errorf("cleaningRecords: coaches must not be negative")
	}
	if rec.Coaches > 0 {
		if rec.Coaches > coaches {
			return fmt.Errorf("cleaningRecords: %d coaches requested, %d defined", rec.Coaches, coaches)
		}
		if !domain.CleaningStatus(rec.Status).Valid() {
			return fmt.Errorf("cleaningRecords: invalid status %q", rec.Status)
		}
		if !teams[rec.DefaultTeam] {
			return fmt.Errorf("cleaningRecords: unknown default team %q", rec.DefaultTeam)
		}
		for origin, team := range rec.TeamByOrigin {
			if !stations[origin] || !teams[team] {
				return fmt.Errorf("cleaningRecords: bad team mapping %s -> %s", origin, team)
			}
		}
	}
	return nil
}

// CoachNumber formats the n-th (1-based) coach number of a train.
func CoachNumber(n int) string {
	return fmt.Sprintf("C%02d", n)
}

// QRCode is the code printed in a coach: "<train number>-<coach number>".
func QRCode(trainNumber, coachNumber string) string {
	return trainNumber + "-" + coachNumber
}

type seededCoach struct {
	id       string
	number   string
	qrCode   string
	originID string
}

// Apply upserts the fixtures in one transaction. Running it again updates the
// network in place; sample cleaning records are only written into an empty table.
func Apply(ctx context.Context, repo *repository.Repository, fx Fixtures, logger zerolog.Logger) (Summary, error) {
	var sum Summary
	err := repo.WithTx(ctx, func(tx *repository.Repository) error {
		sum = Summary{}
		divisionIDs := make(map[string]string)
		for _, d := range fx.Divisions {
			id, err := tx.Network.UpsertDivision(ctx, domain.Division{Name: d.Name, Code: d.Code, Description: optional(d.Description)})
			if err != nil {
				return err
			}
			divisionIDs[d.Code] = id
			sum.Divisions++
		}

		stationIDs := make(map[string]string)
		for _, s := range fx.Stations {
			id, err := tx.Network.UpsertStation(ctx, domain.Station{
				Name:       s.Name,
				Code:       s.Code,
				DivisionID: divisionIDs[s.Division],
				Address:    optional(s.Address),
			})
			if err != nil {
				return err
			}
			stationIDs[s.Code] = id
			sum.Stations++
		}

		var coaches []seededCoach
		for _, t := range fx.Trains {
			trainID, err := tx.Network.UpsertTrain(ctx, domain.Train{
				Number:        t.Number,
				Name:          t.Name,
				DivisionID:    divisionIDs[t.Division],
				OriginID:      stationIDs[t.Origin],
				DestinationID: stationIDs[t.Destination],
				Type:          t.Type,
				IsActive:      !t.Inactive,
			})
			if err != nil {
				return err
			}
			sum.Trains++

			for i := 1; i <= t.Coaches; i++ {
				number := CoachNumber(i)
				qr := QRCode(t.Number, number)
				id, err := tx.Network.UpsertCoach(ctx, domain.Coach{
					Number:   number,
					TrainID:  trainID,
					Type:     fx.CoachTypes[(i-1)%len(fx.CoachTypes)],
					QRCode:   qr,
					IsActive: true,
				})
				if err != nil {
					return err
				}
				coaches = append(coaches, seededCoach{id: id, number: number, qrCode: qr, originID: stationIDs[t.Origin]})
				sum.Coaches++
			}
		}

		teamIDs := make(map[string]string)
		for _, t := range fx.Teams {
			id, err := tx.Staff.UpsertTeam(ctx, domain.CleaningTeam{
				Name:       t.Name,
				LeaderName: t.Leader,
				Contact:    t.Contact,
				StationID:  stationIDs[t.Station],
				IsActive:   true,
			})
			if err != nil {
				return err
			}
			teamIDs[t.Name] = id
			sum.CleaningTeams++
		}

		existing, err := tx.Staff.CountRecords(ctx)
		if err != nil {
			return err
		}
		if existing > 0 {
			logger.Info().Int64("existing", existing).Msg("cleaning records present, skipping samples")
			return nil
		}

		teamByOrigin := make(map[string]string, len(fx.CleaningRecords.TeamByOrigin))
		for code, team := range fx.CleaningRecords.TeamByOrigin {
			teamByOrigin[stationIDs[code]] = teamIDs[team]
		}
		verifiedAt := time.Now().UTC()
		for _, c := range coaches[:fx.CleaningRecords.Coaches] {
			teamID, ok := teamByOrigin[c.originID]
			if !ok {
				teamID = teamIDs[fx.CleaningRecords.DefaultTeam]
			}
			if _, err := tx.Staff.CreateRecord(ctx, domain.CleaningRecord{
				CoachID:        c.id,
				TeamID:         teamID,
				Status:         domain.CleaningStatus(fx.CleaningRecords.Status),
				BeforePhotoURL: optional("/photos/before/" + c.qrCode + ".jpg"),
				AfterPhotoURL:  optional("/photos/after/" + c.qrCode + ".jpg"),
				Notes:          optional(fmt.Sprintf("Coach %s cleaned successfully", c.number)),
				VerifiedAt:     &verifiedAt,
			}); err != nil {
				return err
			}
			sum.CleaningRecords++
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("seed: %w", err)
	}
	logger.Info().
		Int("divisions", sum.Divisions).
		Int("stations", sum.Stations).
		Int("trains", sum.Trains).
		Int("coaches", sum.Coaches).
		Int("teams", sum.CleaningTeams).
		Int("records", sum.CleaningRecords).
		Msg("seed applied")
	return sum, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
