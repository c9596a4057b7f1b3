package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
)

// NetworkRepository manages divisions, stations, trains and coaches.
type NetworkRepository struct {
	db DBTX
}

// CoachByQRCode resolves the QR code printed in a coach.
func (r *NetworkRepository) CoachByQRCode(ctx context.Context, qrCode string) (domain.CoachInfo, error) {
	const query = `
        SELECT c.id, c.coach_number, c.train_id, c.type, c.qr_code, c.is_active, c.created_at,
               t.train_number, t.train_name
        FROM coaches c
        JOIN trains t ON t.id = c.train_id
        WHERE c.qr_code = $1
    `
	var info domain.CoachInfo
	err := r.db.QueryRow(ctx, query, qrCode).Scan(
		&info.ID,
		&info.Number,
		&info.TrainID,
		&info.Type,
		&info.QRCode,
		&info.IsActive,
		&info.CreatedAt,
		&info.TrainNumber,
		&info.TrainName,
	)
	if err != nil {
		return domain.CoachInfo{}, notFound(err)
	}
	return info, nil
}

// UpsertDivision inserts a division or updates the one sharing its code, returning
// the stored id.
func (r *NetworkRepository) UpsertDivision(ctx context.Context, d domain.Division) (string, error) {
	const query = `
        INSERT INTO divisions (id, name, code, description)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description
        RETURNING id
    `
	var id string
	if err := r.db.QueryRow(ctx, query, newID(d.ID), d.Name, d.Code, d.Description).Scan(&id); err != nil {
		return "", fmt.Errorf("upsert division %s: %w", d.Code, err)
	}
	return id, nil
}

// UpsertStation inserts a station keyed by code.
func (r *NetworkRepository) UpsertStation(ctx context.Context, s domain.Station) (string, error) {
	const query = `
        INSERT INTO stations (id, name, code, division_id, address)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, division_id = EXCLUDED.division_id,
                                         address = EXCLUDED.address
        RETURNING id
    `
	var id string
	if err := r.db.QueryRow(ctx, query, newID(s.ID), s.Name, s.Code, s.DivisionID, s.Address).Scan(&id); err != nil {
		return "", fmt.Errorf("upsert station %s: %w", s.Code, err)
	}
	return id, nil
}

// UpsertTrain inserts a train keyed by train number.
func (r *NetworkRepository) UpsertTrain(ctx context.Context, t domain.Train) (string, error) {
	const query = `
        INSERT INTO trains (id, train_number, train_name, division_id, origin_id, destination_id, type, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (train_number) DO UPDATE SET
            train_name = EXCLUDED.train_name,
            division_id = EXCLUDED.division_id,
            origin_id = EXCLUDED.origin_id,
            destination_id = EXCLUDED.destination_id,
            type = EXCLUDED.type,
            is_active = EXCLUDED.is_active
        RETURNING id
    `
	var id string
	err := r.db.QueryRow(ctx, query,
		newID(t.ID), t.Number, t.Name, t.DivisionID, t.OriginID, t.DestinationID, t.Type, t.IsActive,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert train %s: %w", t.Number, err)
	}
	return id, nil
}

// UpsertCoach inserts a coach keyed by QR code.
func (r *NetworkRepository) UpsertCoach(ctx context.Context, c domain.Coach) (string, error) {
	const query = `
        INSERT INTO coaches (id, coach_number, train_id, type, qr_code, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (qr_code) DO UPDATE SET
            coach_number = EXCLUDED.coach_number,
            train_id = EXCLUDED.train_id,
            type = EXCLUDED.type,
            is_active = EXCLUDED.is_active
        RETURNING id
    `
	var id string
	err := r.db.QueryRow(ctx, query, newID(c.ID), c.Number, c.TrainID, c.Type, c.QRCode, c.IsActive).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert coach %s: %w", c.QRCode, err)
	}
	return id, nil
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
