package domain_test

import (
	"testing"

	"driveshare/internal/domain"
)

func TestOverlapsHalfOpen(t *testing.T) {
	// A = [2025-01-01, 2025-01-05), B = [2025-01-05, 2025-01-10): adjacent,
	// same-day handoff, no conflict.
	if domain.Overlaps("2025-01-01", "2025-01-05", "2025-01-05", "2025-01-10") {
		t.Fatal("adjacent ranges must not overlap")
	}
	// C = [2025-01-04, 2025-01-06) vs A: conflict.
	if !domain.Overlaps("2025-01-01", "2025-01-05", "2025-01-04", "2025-01-06") {
		t.Fatal("intersecting ranges must overlap")
	}
	// Containment both ways.
	if !domain.Overlaps("2025-01-01", "2025-01-31", "2025-01-10", "2025-01-12") {
		t.Fatal("contained range must overlap")
	}
	if !domain.Overlaps("2025-01-10", "2025-01-12", "2025-01-01", "2025-01-31") {
		t.Fatal("containing range must overlap")
	}
	// Disjoint.
	if domain.Overlaps("2025-01-01", "2025-01-05", "2025-02-01", "2025-02-05") {
		t.Fatal("disjoint ranges must not overlap")
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{domain.BookingPending, domain.BookingConfirmed},
		{domain.BookingPending, domain.BookingCancelled},
		{domain.BookingConfirmed, domain.BookingCompleted},
		{domain.BookingConfirmed, domain.BookingCancelled},
	}
	for _, tc := range allowed {
		if !domain.CanTransition(tc[0], tc[1]) {
			t.Fatalf("%s -> %s should be allowed", tc[0], tc[1])
		}
	}
	denied := [][2]string{
		{domain.BookingCancelled, domain.BookingPending},
		{domain.BookingCancelled, domain.BookingConfirmed},
		{domain.BookingCompleted, domain.BookingCancelled},
		{domain.BookingConfirmed, domain.BookingPending},
		{domain.BookingPending, domain.BookingCompleted},
	}
	for _, tc := range denied {
		if domain.CanTransition(tc[0], tc[1]) {
			t.Fatalf("%s -> %s should be rejected", tc[0], tc[1])
		}
	}
}
