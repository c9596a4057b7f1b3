package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
)

// RatingsRepository stores passenger ratings. Rows are insert-only.
type RatingsRepository struct {
	db DBTX
}

// RatingCreateParams captures the payload required to store a rating.
type RatingCreateParams struct {
	CoachID   string
	Scores    domain.Scores
	Overall   int
	Comments  *string
	Language  string
	IPAddress string
	UserAgent string
}

const ratingColumns = `
    id, coach_id, cleanliness, toilet, odor, garbage, water, overall,
    comments, language, ip_address, user_agent, created_at
`

// Create inserts a rating. A coach id that does not exist, or text PostgreSQL
// cannot store, yields a *domain.ValidationError.
func (r *RatingsRepository) Create(ctx context.Context, params RatingCreateParams) (domain.Rating, error) {
	query := fmt.Sprintf(`
        INSERT INTO ratings (id, coach_id, cleanliness, toilet, odor, garbage, water, overall,
                             comments, language, ip_address, user_agent)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING %s
    `, ratingColumns)

	s := params.Scores
	row := r.db.QueryRow(ctx, query,
		uuid.NewString(), params.CoachID,
		s.Cleanliness, s.Toilet, s.Odor, s.Garbage, s.Water, params.Overall,
		params.Comments, params.Language, params.IPAddress, params.UserAgent,
	)
	rating, err := scanRating(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Rating{}, domain.NewValidationError("coachId", "coach not found")
		}
		if isInvalidText(err) {
			return domain.Rating{}, domain.NewValidationError("comments", "submission contains invalid characters")
		}
		return domain.Rating{}, fmt.Errorf("insert rating: %w", err)
	}
	return rating, nil
}

// ListByCoach returns at most limit ratings for a coach, newest first.
func (r *RatingsRepository) ListByCoach(ctx context.Context, coachID string, limit int) ([]domain.Rating, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM ratings
        WHERE coach_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `, ratingColumns)

	rows, err := r.db.Query(ctx, query, coachID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]domain.Rating, 0)
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRating(row rowScanner) (domain.Rating, error) {
	var rating domain.Rating
	err := row.Scan(
		&rating.ID,
		&rating.CoachID,
		&rating.Scores.Cleanliness,
		&rating.Scores.Toilet,
		&rating.Scores.Odor,
		&rating.Scores.Garbage,
		&rating.Scores.Water,
		&rating.Overall,
		&rating.Comments,
		&rating.Language,
		&rating.IPAddress,
		&rating.UserAgent,
		&rating.CreatedAt,
	)
	if err != nil {
		return domain.Rating{}, err
	}
	return rating, nil
}
