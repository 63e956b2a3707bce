package services

import (
	"context"
	"database/sql"
	"time"

	"driveshare/internal/apperrors"
	"driveshare/internal/cache"
	"driveshare/internal/domain"
	applog "driveshare/internal/log"
	"driveshare/internal/repos"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// BookingInput is the validated reservation request handed to the engine.
// Dates are whole days; pickup/return clock times ride along as metadata and
// play no part in the overlap decision.
type BookingInput struct {
	CarID      string
	RenterID   string
	StartDate  string
	EndDate    string
	PickupTime string
	ReturnTime string
}

type BookingService struct {
	Bookings *repos.BookingRepo
	Cars     *repos.CarRepo
	Cache    *cache.Client
	Payments PaymentProvider

	// RetryWait is the pause before the single storage retry.
	RetryWait time.Duration
}

func NewBookingService(bookings *repos.BookingRepo, cars *repos.CarRepo, cc *cache.Client, payments PaymentProvider) *BookingService {
	return &BookingService{
		Bookings:  bookings,
		Cars:      cars,
		Cache:     cc,
		Payments:  payments,
		RetryWait: 100 * time.Millisecond,
	}
}

// Request runs the full reservation decision: range validation, car lookup,
// atomic reserve-if-free, and the conflict report when the guard rejects.
// The winner comes back PENDING with a charge created against it.
func (s *BookingService) Request(ctx context.Context, in BookingInput) (*domain.Booking, error) {
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return nil, apperrors.InvalidRange("startDate must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return nil, apperrors.InvalidRange("endDate must be YYYY-MM-DD")
	}
	if !start.Before(end) {
		return nil, apperrors.InvalidRange("endDate must be after startDate")
	}

	car, err := s.Cars.Get(in.CarID)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("car")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if !car.Available {
		return nil, apperrors.InvalidInput("car is not open for booking")
	}
	if car.OwnerID == in.RenterID {
		return nil, apperrors.InvalidInput("you cannot book your own car")
	}

	days := int(end.Sub(start).Hours() / 24)
	b := &domain.Booking{
		ID:          uuid.NewString(),
		CarID:       in.CarID,
		RenterID:    in.RenterID,
		StartDate:   start.Format(dateLayout),
		EndDate:     end.Format(dateLayout),
		PickupTime:  in.PickupTime,
		ReturnTime:  in.ReturnTime,
		TotalAmount: car.PricePerDay * float64(days),
	}

	if err := s.reserveWithRetry(b); err != nil {
		return nil, err
	}

	s.invalidateFor(ctx, b)
	applog.Audit(nil, "booking.create", map[string]any{
		"booking_id": b.ID, "car_id": b.CarID, "renter_id": b.RenterID,
		"start": b.StartDate, "end": b.EndDate, "total": b.TotalAmount,
	})

	if s.Payments != nil {
		if ch, err := s.Payments.CreateCharge(ctx, b.ID, b.TotalAmount, "USD"); err != nil {
			// The booking stands; payment can be retried. Conflicts are final,
			// charge hiccups are not.
			applog.Error(nil, "booking.charge.fail", err, map[string]any{"booking_id": b.ID})
		} else {
			applog.Info(nil, "booking.charge", map[string]any{"booking_id": b.ID, "charge_id": ch.ID})
		}
	}

	return b, nil
}

// reserveWithRetry maps the guarded insert's outcomes: a rejected guard is a
// conflict to report, a backend failure gets one retry with backoff before it
// surfaces as a storage error.
func (s *BookingService) reserveWithRetry(b *domain.Booking) error {
	err := s.Bookings.ReserveIfFree(b)
	if err == repos.ErrNoRowChanged {
		return s.conflictError(b)
	}
	if err != nil {
		applog.Error(nil, "booking.reserve.retry", err, map[string]any{"car_id": b.CarID})
		time.Sleep(s.RetryWait)
		err = s.Bookings.ReserveIfFree(b)
		if err == repos.ErrNoRowChanged {
			return s.conflictError(b)
		}
		if err != nil {
			return apperrors.Storage(err)
		}
	}
	return nil
}

func (s *BookingService) conflictError(b *domain.Booking) error {
	existing, err := s.Bookings.FindConflict(b.CarID, b.StartDate, b.EndDate)
	if err != nil {
		// The blocker vanished between the guard and this read; still a
		// conflict from the caller's view, just anonymous.
		return apperrors.Conflict("", b.StartDate, b.EndDate)
	}
	return apperrors.Conflict(existing.ID, existing.StartDate, existing.EndDate)
}

// CheckAvailability reports whether a range is free and which bookings block it.
func (s *BookingService) CheckAvailability(carID, startDate, endDate string) (domain.Availability, error) {
	active, err := s.Bookings.ActiveByCar(carID)
	if err != nil {
		return domain.Availability{}, apperrors.Storage(err)
	}
	out := domain.Availability{Status: "FREE"}
	for _, b := range active {
		if domain.Overlaps(b.StartDate, b.EndDate, startDate, endDate) {
			out.Status = "BOOKED"
			out.Conflicts = append(out.Conflicts, domain.DateRange{Start: b.StartDate, End: b.EndDate})
		}
	}
	return out, nil
}

// HandlePaymentResult is the gateway callback: success confirms the pending
// booking, failure cancels it. Either way the payment status is recorded.
func (s *BookingService) HandlePaymentResult(ctx context.Context, bookingID string, paid bool) (*domain.Booking, error) {
	if paid {
		if err := s.transition(ctx, bookingID, domain.BookingPending, domain.BookingConfirmed); err != nil {
			return nil, err
		}
		if err := s.Bookings.SetPaymentStatus(bookingID, domain.PaymentPaid); err != nil {
			return nil, apperrors.Storage(err)
		}
	} else {
		if err := s.transition(ctx, bookingID, domain.BookingPending, domain.BookingCancelled); err != nil {
			return nil, err
		}
		if err := s.Bookings.SetPaymentStatus(bookingID, domain.PaymentFailed); err != nil {
			return nil, apperrors.Storage(err)
		}
	}
	b, err := s.Bookings.Get(bookingID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return &b, nil
}

// Cancel cancels a booking on behalf of its renter.
func (s *BookingService) Cancel(ctx context.Context, bookingID, renterID string) (*domain.Booking, error) {
	b, err := s.Bookings.Get(bookingID)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("booking")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if b.RenterID != renterID {
		return nil, apperrors.Forbidden("not your booking")
	}
	if err := s.transition(ctx, bookingID, b.Status, domain.BookingCancelled); err != nil {
		return nil, err
	}
	b.Status = domain.BookingCancelled
	return &b, nil
}

// transition applies one guarded status move and fires invalidation for the
// booking's car and renter namespaces.
func (s *BookingService) transition(ctx context.Context, bookingID, from, to string) error {
	if !domain.CanTransition(from, to) {
		return apperrors.InvalidInput("booking cannot move from " + from + " to " + to)
	}
	err := s.Bookings.UpdateStatusFrom(bookingID, from, to)
	if err == repos.ErrNoRowChanged {
		return apperrors.InvalidInput("booking is no longer " + from)
	}
	if err != nil {
		return apperrors.Storage(err)
	}
	if b, err := s.Bookings.Get(bookingID); err == nil {
		s.invalidateFor(ctx, &b)
	}
	applog.Audit(nil, "booking.status", map[string]any{"booking_id": bookingID, "from": from, "to": to})
	return nil
}

// CompleteExpired sweeps confirmed bookings whose rental window has passed.
// Run periodically from main.
func (s *BookingService) CompleteExpired(ctx context.Context, now time.Time) (int, error) {
	done, err := s.Bookings.CompleteExpired(now.Format(dateLayout))
	if err != nil {
		return 0, apperrors.Storage(err)
	}
	for i := range done {
		s.invalidateFor(ctx, &done[i])
	}
	if len(done) > 0 {
		applog.Info(nil, "booking.sweep", map[string]any{"completed": len(done)})
	}
	return len(done), nil
}

// invalidateFor drops every cache namespace a booking write can go stale:
// the car's listing and availability entries, the bare listings namespace,
// and the renter's bookings. One-way, fire-and-forget.
func (s *BookingService) invalidateFor(ctx context.Context, b *domain.Booking) {
	s.Cache.Invalidate(ctx,
		"cars:"+b.CarID,
		"availability:"+b.CarID,
		"cars",
		"bookings:"+b.RenterID,
	)
}
