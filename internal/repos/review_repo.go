package repos

import (
	"driveshare/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Upsert writes the author's review, replacing an earlier one for the same car.
func (r *ReviewRepo) Upsert(rv *domain.Review) error {
	_, err := r.db.Exec(`
	  INSERT INTO reviews(id, car_id, author_id, rating, comment, created_at)
	  VALUES(?,?,?,?,?,CURRENT_TIMESTAMP)
	  ON CONFLICT(car_id, author_id) DO UPDATE SET rating=excluded.rating, comment=excluded.comment
	`, rv.ID, rv.CarID, rv.AuthorID, rv.Rating, rv.Comment)
	return err
}

func (r *ReviewRepo) ListByCar(carID string, limit int) ([]domain.Review, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []domain.Review{}
	err := r.db.Select(&out, `
	  SELECT id, car_id, author_id, rating, comment, created_at
	  FROM reviews
	  WHERE car_id = ?
	  ORDER BY created_at DESC
	  LIMIT ?
	`, carID, limit)
	return out, err
}
