package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
)

// AlertsRepository stores low-rating alerts.
type AlertsRepository struct {
	db DBTX
}

// Create inserts an unresolved alert and returns the stored row.
func (r *AlertsRepository) Create(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	const query = `
        INSERT INTO alerts (id, coach_id, type, severity, message)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, coach_id, type, severity, message, is_resolved, created_at
    `
	var out domain.Alert
	err := r.db.QueryRow(ctx, query, uuid.NewString(), alert.CoachID, alert.Type, string(alert.Severity), alert.Message).Scan(
		&out.ID,
		&out.CoachID,
		&out.Type,
		&out.Severity,
		&out.Message,
		&out.IsResolved,
		&out.CreatedAt,
	)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("insert alert: %w", err)
	}
	return out, nil
}

// ListByCoach returns every alert raised for a coach, newest first.
func (r *AlertsRepository) ListByCoach(ctx context.Context, coachID string) ([]domain.Alert, error) {
	const query = `
        SELECT id, coach_id, type, severity, message, is_resolved, created_at
        FROM alerts
        WHERE coach_id = $1
        ORDER BY created_at DESC, id DESC
    `
	rows, err := r.db.Query(ctx, query, coachID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]domain.Alert, 0)
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.CoachID, &a.Type, &a.Severity, &a.Message, &a.IsResolved, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
