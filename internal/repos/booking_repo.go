package repos

import (
	"database/sql"
	"errors"

	"driveshare/internal/domain"

	"github.com/jmoiron/sqlx"
)

// ErrNoRowChanged is returned by guarded writes whose WHERE clause matched
// nothing (CAS miss, ownership miss, or overlap guard rejection).
var ErrNoRowChanged = errors.New("no row changed")

type BookingRepo struct{ db *sqlx.DB }

func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = `id, car_id, renter_id, start_date, end_date, pickup_time, return_time,
	         status, total_amount, payment_status, created_at, COALESCE(updated_at,'') AS updated_at`

// ReserveIfFree inserts the booking only if no PENDING or CONFIRMED booking on
// the same car overlaps its half-open [start_date, end_date) range. The guard
// and the insert are one statement, so SQLite's writer serialization makes the
// check-and-insert atomic: of two racing overlapping requests, exactly one
// row is inserted. Returns ErrNoRowChanged when the guard rejects.
func (r *BookingRepo) ReserveIfFree(b *domain.Booking) error {
	res, err := r.db.Exec(`
	  INSERT INTO bookings(id, car_id, renter_id, start_date, end_date, pickup_time, return_time,
	                       status, total_amount, payment_status, created_at)
	  SELECT ?, ?, ?, ?, ?, ?, ?, 'PENDING', ?, 'UNPAID', CURRENT_TIMESTAMP
	  WHERE NOT EXISTS (
	    SELECT 1 FROM bookings
	    WHERE car_id = ?
	      AND status IN ('PENDING','CONFIRMED')
	      AND start_date < ?
	      AND ? < end_date
	  )
	`, b.ID, b.CarID, b.RenterID, b.StartDate, b.EndDate, b.PickupTime, b.ReturnTime,
		b.TotalAmount, b.CarID, b.EndDate, b.StartDate)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNoRowChanged
	}
	b.Status = domain.BookingPending
	b.PaymentStatus = domain.PaymentUnpaid
	return nil
}

// FindConflict returns the first active booking overlapping the given range,
// or sql.ErrNoRows. Used to name the blocker after ReserveIfFree rejects.
func (r *BookingRepo) FindConflict(carID, start, end string) (domain.Booking, error) {
	var b domain.Booking
	err := r.db.Get(&b, `
	  SELECT `+bookingCols+`
	  FROM bookings
	  WHERE car_id = ?
	    AND status IN ('PENDING','CONFIRMED')
	    AND start_date < ?
	    AND ? < end_date
	  ORDER BY start_date
	  LIMIT 1
	`, carID, end, start)
	return b, err
}

func (r *BookingRepo) Get(id string) (domain.Booking, error) {
	var b domain.Booking
	err := r.db.Get(&b, `SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id)
	return b, err
}

// ActiveByCar lists PENDING and CONFIRMED bookings for a car, soonest first.
func (r *BookingRepo) ActiveByCar(carID string) ([]domain.Booking, error) {
	out := []domain.Booking{}
	err := r.db.Select(&out, `
	  SELECT `+bookingCols+`
	  FROM bookings
	  WHERE car_id = ? AND status IN ('PENDING','CONFIRMED')
	  ORDER BY start_date
	`, carID)
	return out, err
}

func (r *BookingRepo) ListByRenter(renterID string) ([]domain.Booking, error) {
	out := []domain.Booking{}
	err := r.db.Select(&out, `
	  SELECT `+bookingCols+`
	  FROM bookings
	  WHERE renter_id = ?
	  ORDER BY start_date DESC
	`, renterID)
	return out, err
}

// ListRecent returns the newest bookings across all cars, for the admin view.
func (r *BookingRepo) ListRecent(limit int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	out := []domain.Booking{}
	err := r.db.Select(&out, `
	  SELECT `+bookingCols+`
	  FROM bookings
	  ORDER BY created_at DESC
	  LIMIT ?
	`, limit)
	return out, err
}

// UpdateStatusFrom moves a booking from one status to another, compare-and-
// swap style: the write only lands if the booking is still in the expected
// state. ErrNoRowChanged means the booking moved (or never existed).
func (r *BookingRepo) UpdateStatusFrom(id, from, to string) error {
	res, err := r.db.Exec(`
	  UPDATE bookings
	  SET status = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND status = ?
	`, to, id, from)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNoRowChanged
	}
	return nil
}

func (r *BookingRepo) SetPaymentStatus(id, paymentStatus string) error {
	_, err := r.db.Exec(`
	  UPDATE bookings SET payment_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, paymentStatus, id)
	return err
}

// CompleteExpired flips CONFIRMED bookings whose rental window has fully
// passed to COMPLETED and returns the rows it touched, so callers can
// invalidate the affected cache namespaces.
func (r *BookingRepo) CompleteExpired(today string) ([]domain.Booking, error) {
	expired := []domain.Booking{}
	if err := r.db.Select(&expired, `
	  SELECT `+bookingCols+`
	  FROM bookings
	  WHERE status = 'CONFIRMED' AND end_date <= ?
	`, today); err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}
	if _, err := r.db.Exec(`
	  UPDATE bookings
	  SET status = 'COMPLETED', updated_at = CURRENT_TIMESTAMP
	  WHERE status = 'CONFIRMED' AND end_date <= ?
	`, today); err != nil {
		return nil, err
	}
	return expired, nil
}

// HasCompletedRental reports whether the user finished a rental of the car,
// which is what entitles them to review it.
func (r *BookingRepo) HasCompletedRental(carID, renterID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `
	  SELECT COUNT(*) FROM bookings
	  WHERE car_id = ? AND renter_id = ? AND status = 'COMPLETED'
	`, carID, renterID)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	return n > 0, nil
}
