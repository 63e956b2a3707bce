package repos

import (
	"driveshare/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CarRepo struct{ db *sqlx.DB }

func NewCarRepo(db *sqlx.DB) *CarRepo { return &CarRepo{db: db} }

func (r *CarRepo) Get(id string) (domain.Car, error) {
	var c domain.Car
	err := r.db.Get(&c, `
	  SELECT id, owner_id, title, description, location, price_per_day, available,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM cars
	  WHERE id = ?
	`, id)
	return c, err
}

// List returns available cars with optional location and price-ceiling filters.
func (r *CarRepo) List(location string, maxPrice float64, limit, offset int) ([]domain.Car, error) {
	where := `available = 1`
	args := []any{}
	if location != "" {
		where += ` AND LOWER(location) = LOWER(?)`
		args = append(args, location)
	}
	if maxPrice > 0 {
		where += ` AND price_per_day <= ?`
		args = append(args, maxPrice)
	}

	q := `
	  SELECT id, owner_id, title, description, location, price_per_day, available,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM cars
	  WHERE ` + where + `
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	out := []domain.Car{}
	err := r.db.Select(&out, q, args...)
	return out, err
}

func (r *CarRepo) ListByOwner(ownerID string) ([]domain.Car, error) {
	out := []domain.Car{}
	err := r.db.Select(&out, `
	  SELECT id, owner_id, title, description, location, price_per_day, available,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM cars WHERE owner_id = ?
	  ORDER BY created_at DESC
	`, ownerID)
	return out, err
}

func (r *CarRepo) Create(c *domain.Car) error {
	_, err := r.db.Exec(`
	  INSERT INTO cars(id, owner_id, title, description, location, price_per_day, available, created_at)
	  VALUES(?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, c.ID, c.OwnerID, c.Title, c.Description, c.Location, c.PricePerDay, c.Available)
	return err
}

func (r *CarRepo) Update(c *domain.Car) error {
	res, err := r.db.Exec(`
	  UPDATE cars
	  SET title=?, description=?, location=?, price_per_day=?, available=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=? AND owner_id=?
	`, c.Title, c.Description, c.Location, c.PricePerDay, c.Available, c.ID, c.OwnerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNoRowChanged
	}
	return nil
}

func (r *CarRepo) Delete(id, ownerID string) error {
	res, err := r.db.Exec(`DELETE FROM cars WHERE id=? AND owner_id=?`, id, ownerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNoRowChanged
	}
	return nil
}
