package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"driveshare/internal/apperrors"
	"driveshare/internal/cache"
	"driveshare/internal/domain"
	"driveshare/internal/repos"
	"driveshare/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// One connection keeps every statement on the same in-memory database.
	db.SetMaxOpenConns(1)
	if err := repos.EnsureSchema(db); err != nil {
		t.Fatal(err)
	}
	seed := `
	INSERT INTO users(id,email,name,password_hash,role) VALUES
	  ('u-owner','o@x.test','Owner','h','USER'),
	  ('u-renter','r@x.test','Renter','h','USER'),
	  ('u-other','t@x.test','Other','h','USER');
	INSERT INTO cars(id,owner_id,title,location,price_per_day,available) VALUES
	  ('car-1','u-owner','Civic','College Park',50.0,1),
	  ('car-parked','u-owner','Parked','College Park',40.0,0);
	`
	if _, err := db.Exec(seed); err != nil {
		t.Fatal(err)
	}
	return db
}

func newEngine(t *testing.T, db *sqlx.DB) (*services.BookingService, *cache.Client) {
	t.Helper()
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	cc := cache.NewClient(store)
	svc := services.NewBookingService(repos.NewBookingRepo(db), repos.NewCarRepo(db), cc, nil)
	svc.RetryWait = time.Millisecond
	return svc, cc
}

func request(svc *services.BookingService, carID, renter, start, end string) (*domain.Booking, error) {
	return svc.Request(context.Background(), services.BookingInput{
		CarID: carID, RenterID: renter, StartDate: start, EndDate: end,
	})
}

func TestRequestBooking(t *testing.T) {
	db := memdb(t)
	svc, _ := newEngine(t, db)

	b, err := request(svc, "car-1", "u-renter", "2025-01-01", "2025-01-05")
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != domain.BookingPending {
		t.Fatalf("want PENDING, got %s", b.Status)
	}
	if b.TotalAmount != 200.0 { // 4 days * 50
		t.Fatalf("want total 200, got %v", b.TotalAmount)
	}
	if b.PaymentStatus != domain.PaymentUnpaid {
		t.Fatalf("want UNPAID, got %s", b.PaymentStatus)
	}
}

func TestRequestBookingInvalidRange(t *testing.T) {
	db := memdb(t)
	svc, _ := newEngine(t, db)

	cases := [][2]string{
		{"2025-01-05", "2025-01-05"}, // zero-length
		{"2025-01-05", "2025-01-01"}, // reversed
		{"not-a-date", "2025-01-05"},
		{"2025-01-01", "bogus"},
	}
	for _, tc := range cases {
		_, err := request(svc, "car-1", "u-renter", tc[0], tc[1])
		ae := apperrors.As(err)
		if ae == nil || ae.Code != apperrors.CodeInvalidRange {
			t.Fatalf("range %v: want invalid_range, got %v", tc, err)
		}
	}
}

func TestRequestBookingConflict(t *testing.T) {
	db := memdb(t)
	svc, _ := newEngine(t, db)

	first, err := request(svc, "car-1", "u-renter", "2025-01-01", "2025-01-05")
	if err != nil {
		t.Fatal(err)
	}

	// Overlapping request from another renter loses and learns the blocker.
	_, err = request(svc, "car-1", "u-other", "2025-01-04", "2025-01-06")
	ae := apperrors.As(err)
	if ae == nil || ae.Code != apperrors.CodeConflict {
		t.Fatalf("want conflict, got %v", err)
	}
	if ae.Details["conflictingBookingId"] != first.ID {
		t.Fatalf("conflict should name %s, got %v", first.ID, ae.Details)
	}
	if ae.Details["unavailableFrom"] != "2025-01-01" || ae.Details["unavailableUntil"] != "2025-01-05" {
		t.Fatalf("conflict should carry the blocking range, got %v", ae.Details)
	}
}

func TestSameDayHandoffIsNotAConflict(t *testing.T) {
	db := memdb(t)
	svc, _ := newEngine(t, db)

	if _, err := request(svc, "car-1", "u-renter", "2025-01-01", "2025-01-05"); err != nil {
		t.Fatal(err)
	}
	// End of one equals start of the next: half-open ranges, both stand.
	if _, err := request(svc, "car-1", "u-other", "2025-01-05", "2025-01-10"); err != nil {
		t.Fatalf("adjacent booking rejected: %v", err)
	}
}

func TestCancelledBookingDoesNotBlock(t *testing.T) {
	db := memdb(t)
	svc, _ := newEngine(t, db)

	b, err := request(svc, "car-1", "u-renter", "2025-01-01", "2025-01-05")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(context.Background(), b.ID, "u-renter"); err != nil {
		t.Fatal(err)
	}
	if _, err := request(svc, "car-1", "u-other", "2025-01-01", "2025-01-05"); err != nil {
		t.Fatalf("cancelled booking still blocks: %v", err)
	}
}

func TestConcurrentOverlapExactlyOneWins(t *testing.T) {
	db := memdb(t)
	svc, _ := newEngine(t, db)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	renters := []string{"u-renter", "u-other"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = request(svc, "car-1", renters[i], "2025-03-01", "2025-03-08")
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case apperrors.As(err) != nil && apperrors.As(err).Code == apperrors.CodeConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("want exactly one winner and one conflict, got wins=%d conflicts=%d", wins, conflicts)
	}
}

func TestBookingValidationRules(t *testing.T) {
	db := memdb(t)
	svc, _ := newEngine(t, db)

	// Unknown car
	_, err := request(svc, "car-none", "u-renter", "2025-01-01", "2025-01-05")
	if ae := apperrors.As(err); ae == nil || ae.Code != apperrors.CodeNotFound {
		t.Fatalf("want not_found, got %v", err)
	}
	// Withdrawn listing
	_, err = request(svc, "car-parked", "u-renter", "2025-01-01", "2025-01-05")
	if ae := apperrors.As(err); ae == nil || ae.Code != apperrors.CodeInvalidInput {
		t.Fatalf("want invalid_input, got %v", err)
	}
	// Owner booking their own car
	_, err = request(svc, "car-1", "u-owner", "2025-01-01", "2025-01-05")
	if ae := apperrors.As(err); ae == nil || ae.Code != apperrors.CodeInvalidInput {
		t.Fatalf("want invalid_input, got %v", err)
	}
}

func TestPaymentDrivesStatus(t *testing.T) {
	db := memdb(t)
	svc, _ := newEngine(t, db)
	ctx := context.Background()

	paid, err := request(svc, "car-1", "u-renter", "2025-01-01", "2025-01-05")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.HandlePaymentResult(ctx, paid.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != domain.BookingConfirmed || b.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("want CONFIRMED/PAID, got %s/%s", b.Status, b.PaymentStatus)
	}

	failed, err := request(svc, "car-1", "u-other", "2025-02-01", "2025-02-05")
	if err != nil {
		t.Fatal(err)
	}
	b, err = svc.HandlePaymentResult(ctx, failed.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != domain.BookingCancelled || b.PaymentStatus != domain.PaymentFailed {
		t.Fatalf("want CANCELLED/FAILED, got %s/%s", b.Status, b.PaymentStatus)
	}

	// Terminal states refuse further payment signals.
	if _, err := svc.HandlePaymentResult(ctx, failed.ID, true); err == nil {
		t.Fatal("cancelled booking accepted a payment transition")
	}
}

func TestCompleteExpiredSweep(t *testing.T) {
	db := memdb(t)
	svc, _ := newEngine(t, db)
	ctx := context.Background()

	b, err := request(svc, "car-1", "u-renter", "2025-01-01", "2025-01-05")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.HandlePaymentResult(ctx, b.ID, true); err != nil {
		t.Fatal(err)
	}

	now, _ := time.Parse("2006-01-02", "2025-01-06")
	n, err := svc.CompleteExpired(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want 1 completed, got %d", n)
	}
	got, err := repos.NewBookingRepo(db).Get(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.BookingCompleted {
		t.Fatalf("want COMPLETED, got %s", got.Status)
	}

	// Completed is terminal: the renter can no longer cancel.
	if _, err := svc.Cancel(ctx, b.ID, "u-renter"); err == nil {
		t.Fatal("completed booking accepted a cancel")
	}
}

func TestBookingWriteInvalidatesCarCache(t *testing.T) {
	db := memdb(t)
	svc, cc := newEngine(t, db)
	ctx := context.Background()

	cc.Set(ctx, "cars:car-1", []byte("stale"))
	cc.Set(ctx, "availability:car-1?end=2025-01-05&start=2025-01-01", []byte("stale"))
	cc.Set(ctx, "bookings:u-renter", []byte("stale"))
	cc.Set(ctx, "users:u-renter", []byte("fresh"))

	if _, err := request(svc, "car-1", "u-renter", "2025-01-01", "2025-01-05"); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{
		"cars:car-1",
		"availability:car-1?end=2025-01-05&start=2025-01-01",
		"bookings:u-renter",
	} {
		if _, ok := cc.Get(ctx, key); ok {
			t.Fatalf("stale entry %q survived the booking write", key)
		}
	}
	if _, ok := cc.Get(ctx, "users:u-renter"); !ok {
		t.Fatal("unrelated namespace was invalidated")
	}
}

func TestAvailabilityCheck(t *testing.T) {
	db := memdb(t)
	svc, _ := newEngine(t, db)

	if _, err := request(svc, "car-1", "u-renter", "2025-01-10", "2025-01-15"); err != nil {
		t.Fatal(err)
	}

	free, err := svc.CheckAvailability("car-1", "2025-01-15", "2025-01-20")
	if err != nil {
		t.Fatal(err)
	}
	if free.Status != "FREE" || len(free.Conflicts) != 0 {
		t.Fatalf("adjacent range should be FREE, got %+v", free)
	}

	busy, err := svc.CheckAvailability("car-1", "2025-01-12", "2025-01-13")
	if err != nil {
		t.Fatal(err)
	}
	if busy.Status != "BOOKED" || len(busy.Conflicts) != 1 {
		t.Fatalf("overlapping range should be BOOKED, got %+v", busy)
	}
	if busy.Conflicts[0].Start != "2025-01-10" || busy.Conflicts[0].End != "2025-01-15" {
		t.Fatalf("conflict range wrong: %+v", busy.Conflicts[0])
	}
}

func TestStorageErrorAfterRetry(t *testing.T) {
	db := memdb(t)
	svc, _ := newEngine(t, db)

	// Kill the backend so the request path hits a dead store.
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	_, err := request(svc, "car-1", "u-renter", "2025-01-01", "2025-01-05")
	ae := apperrors.As(err)
	if ae == nil || ae.Code != apperrors.CodeStorage {
		t.Fatalf("want storage_error, got %v", err)
	}
}
