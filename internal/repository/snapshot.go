package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jitenkr2030/Rail-Clean/internal/analytics"
	"github.com/jitenkr2030/Rail-Clean/internal/domain"
)

// SnapshotRepository serves the read snapshot the analytics rollups run on.
type SnapshotRepository struct {
	db DBTX
}

var _ analytics.Source = (*SnapshotRepository)(nil)

// Counts returns the dashboard headline numbers.
func (r *SnapshotRepository) Counts(ctx context.Context) (analytics.Counts, error) {
	const query = `
        SELECT
            (SELECT COUNT(*) FROM ratings),
            (SELECT COUNT(*) FROM trains WHERE is_active),
            (SELECT COUNT(*) FROM coaches WHERE is_active),
            (SELECT COUNT(*) FROM alerts WHERE NOT is_resolved)
    `
	var c analytics.Counts
	if err := r.db.QueryRow(ctx, query).Scan(&c.Feedback, &c.ActiveTrains, &c.ActiveCoaches, &c.ActiveAlerts); err != nil {
		return analytics.Counts{}, fmt.Errorf("count snapshot: %w", err)
	}
	return c, nil
}

// TrainNodes returns every train with its coach count and rating tally, in
// creation order.
func (r *SnapshotRepository) TrainNodes(ctx context.Context) ([]analytics.TrainNode, error) {
	const query = `
        SELECT t.id, t.train_number, t.train_name, t.division_id, t.origin_id, t.destination_id,
               t.type, t.is_active, t.created_at,
               COUNT(DISTINCT c.id),
               COUNT(r.id),
               COALESCE(SUM(r.overall), 0)
        FROM trains t
        LEFT JOIN coaches c ON c.train_id = t.id
        LEFT JOIN ratings r ON r.coach_id = c.id
        GROUP BY t.id
        ORDER BY t.created_at, t.id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query train tallies: %w", err)
	}
	defer rows.Close()

	nodes := make([]analytics.TrainNode, 0)
	for rows.Next() {
		var n analytics.TrainNode
		t := &n.Train
		if err := rows.Scan(&t.ID, &t.Number, &t.Name, &t.DivisionID, &t.OriginID, &t.DestinationID,
			&t.Type, &t.IsActive, &t.CreatedAt, &n.Coaches, &n.Ratings.Count, &n.Ratings.Sum); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// Divisions returns every division in creation order.
func (r *SnapshotRepository) Divisions(ctx context.Context) ([]domain.Division, error) {
	const query = `
        SELECT id, name, code, description, created_at
        FROM divisions
        ORDER BY created_at, id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query divisions: %w", err)
	}
	defer rows.Close()

	divisions := make([]domain.Division, 0)
	for rows.Next() {
		var d domain.Division
		if err := rows.Scan(&d.ID, &d.Name, &d.Code, &d.Description, &d.CreatedAt); err != nil {
			return nil, err
		}
		divisions = append(divisions, d)
	}
	return divisions, rows.Err()
}

// Stations returns every station in creation order.
func (r *SnapshotRepository) Stations(ctx context.Context) ([]domain.Station, error) {
	const query = `
        SELECT id, name, code, division_id, address, created_at
        FROM stations
        ORDER BY created_at, id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	stations := make([]domain.Station, 0)
	for rows.Next() {
		var s domain.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.DivisionID, &s.Address, &s.CreatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// CategoryTotals sums each category across all ratings.
func (r *SnapshotRepository) CategoryTotals(ctx context.Context) (analytics.CategoryTotals, error) {
	const query = `
        SELECT COUNT(*),
               COALESCE(SUM(cleanliness), 0),
               COALESCE(SUM(toilet), 0),
               COALESCE(SUM(odor), 0),
               COALESCE(SUM(garbage), 0),
               COALESCE(SUM(water), 0),
               COALESCE(SUM(overall), 0)
        FROM ratings
    `
	var t analytics.CategoryTotals
	err := r.db.QueryRow(ctx, query).Scan(&t.Count, &t.Cleanliness, &t.Toilet, &t.Odor, &t.Garbage, &t.Water, &t.Overall)
	if err != nil {
		return analytics.CategoryTotals{}, fmt.Errorf("sum categories: %w", err)
	}
	return t, nil
}

// RatingPointsSince returns the overall score and timestamp of every rating created
// at or after since, oldest first.
func (r *SnapshotRepository) RatingPointsSince(ctx context.Context, since time.Time) ([]analytics.RatingPoint, error) {
	const query = `
        SELECT overall, created_at
        FROM ratings
        WHERE created_at >= $1
        ORDER BY created_at, id
    `
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query rating points: %w", err)
	}
	defer rows.Close()

	points := make([]analytics.RatingPoint, 0)
	for rows.Next() {
		var p analytics.RatingPoint
		if err := rows.Scan(&p.Overall, &p.CreatedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// RecentAlerts returns the newest alerts joined with their coach and train.
func (r *SnapshotRepository) RecentAlerts(ctx context.Context, limit int) ([]domain.AlertSummary, error) {
	const query = `
        SELECT a.id, a.coach_id, a.type, a.severity, a.message, a.is_resolved, a.created_at,
               c.coach_number, t.train_number, t.train_name
        FROM alerts a
        JOIN coaches c ON c.id = a.coach_id
        JOIN trains t ON t.id = c.train_id
        ORDER BY a.created_at DESC, a.id DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]domain.AlertSummary, 0)
	for rows.Next() {
		var a domain.AlertSummary
		if err := rows.Scan(&a.ID, &a.CoachID, &a.Type, &a.Severity, &a.Message, &a.IsResolved, &a.CreatedAt,
			&a.CoachNumber, &a.TrainNumber, &a.TrainName); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
