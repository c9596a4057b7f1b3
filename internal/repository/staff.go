package repository

import (
	"context"
	"fmt"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
)

// StaffRepository manages cleaning teams and the records they log.
type StaffRepository struct {
	db DBTX
}

// ActiveTeams lists active cleaning teams with their home station, by name.
func (r *StaffRepository) ActiveTeams(ctx context.Context) ([]domain.CleaningTeam, error) {
	const query = `
        SELECT t.id, t.name, t.leader_name, t.contact, t.station_id, s.name, s.code, t.is_active, t.created_at
        FROM cleaning_teams t
        JOIN stations s ON s.id = t.station_id
        WHERE t.is_active
        ORDER BY t.name
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]domain.CleaningTeam, 0)
	for rows.Next() {
		var t domain.CleaningTeam
		if err := rows.Scan(&t.ID, &t.Name, &t.LeaderName, &t.Contact, &t.StationID,
			&t.StationName, &t.StationCode, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// UpsertTeam inserts a team keyed by name.
func (r *StaffRepository) UpsertTeam(ctx context.Context, t domain.CleaningTeam) (string, error) {
	const query = `
        INSERT INTO cleaning_teams (id, name, leader_name, contact, station_id, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (name) DO UPDATE SET
            leader_name = EXCLUDED.leader_name,
            contact = EXCLUDED.contact,
            station_id = EXCLUDED.station_id,
            is_active = EXCLUDED.is_active
        RETURNING id
    `
	var id string
	if err := r.db.QueryRow(ctx, query, newID(t.ID), t.Name, t.LeaderName, t.Contact, t.StationID, t.IsActive).Scan(&id); err != nil {
		return "", fmt.Errorf("upsert team %s: %w", t.Name, err)
	}
	return id, nil
}

// CreateRecord stores a cleaning record. Unknown coach or team ids yield a
// *domain.ValidationError.
func (r *StaffRepository) CreateRecord(ctx context.Context, rec domain.CleaningRecord) (domain.CleaningRecordDetail, error) {
	const insert = `
        INSERT INTO cleaning_records (id, coach_id, team_id, status, before_photo_url, after_photo_url,
                                      notes, cleaned_at, verified_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,COALESCE($8, clock_timestamp()),$9)
        RETURNING id
    `
	var cleanedAt any
	if !rec.CleanedAt.IsZero() {
		cleanedAt = rec.CleanedAt
	}
	var id string
	err := r.db.QueryRow(ctx, insert,
		newID(rec.ID), rec.CoachID, rec.TeamID, string(rec.Status),
		rec.BeforePhotoURL, rec.AfterPhotoURL, rec.Notes, cleanedAt, rec.VerifiedAt,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			if violatedConstraint(err) == "cleaning_records_team_id_fkey" {
				return domain.CleaningRecordDetail{}, domain.NewValidationError("teamId", "team not found")
			}
			return domain.CleaningRecordDetail{}, domain.NewValidationError("coachId", "coach not found")
		}
		if isInvalidText(err) {
			return domain.CleaningRecordDetail{}, domain.NewValidationError("notes", "record contains invalid characters")
		}
		return domain.CleaningRecordDetail{}, fmt.Errorf("insert cleaning record: %w", err)
	}
	return r.RecordByID(ctx, id)
}

const recordDetailSelect = `
    SELECT r.id, r.coach_id, r.team_id, r.status, r.before_photo_url, r.after_photo_url, r.notes,
           r.cleaned_at, r.verified_at,
           c.coach_number, tr.train_number, tr.train_name, tm.name, tm.leader_name
    FROM cleaning_records r
    JOIN coaches c ON c.id = r.coach_id
    JOIN trains tr ON tr.id = c.train_id
    JOIN cleaning_teams tm ON tm.id = r.team_id
`

// RecordByID loads one record with its coach, train and team.
func (r *StaffRepository) RecordByID(ctx context.Context, id string) (domain.CleaningRecordDetail, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, recordDetailSelect+` WHERE r.id = $1`, id))
	if err != nil {
		return domain.CleaningRecordDetail{}, notFound(err)
	}
	return rec, nil
}

// ListRecords returns records newest first. An empty coachID lists every coach.
func (r *StaffRepository) ListRecords(ctx context.Context, coachID string, limit int) ([]domain.CleaningRecordDetail, error) {
	query := recordDetailSelect + `
        WHERE ($1 = '' OR r.coach_id = $1)
        ORDER BY r.cleaned_at DESC, r.id DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, coachID, limit)
	if err != nil {
		return nil, fmt.Errorf("list cleaning records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.CleaningRecordDetail, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row rowScanner) (domain.CleaningRecordDetail, error) {
	var rec domain.CleaningRecordDetail
	err := row.Scan(
		&rec.ID,
		&rec.CoachID,
		&rec.TeamID,
		&rec.Status,
		&rec.BeforePhotoURL,
		&rec.AfterPhotoURL,
		&rec.Notes,
		&rec.CleanedAt,
		&rec.VerifiedAt,
		&rec.CoachNumber,
		&rec.TrainNumber,
		&rec.TrainName,
		&rec.TeamName,
		&rec.TeamLeaderName,
	)
	if err != nil {
		return domain.CleaningRecordDetail{}, err
	}
	return rec, nil
}

// CountRecords returns the number of stored cleaning records.
func (r *StaffRepository) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cleaning_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cleaning records: %w", err)
	}
	return n, nil
}
