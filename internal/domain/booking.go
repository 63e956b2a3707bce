package domain

// Booking statuses. CANCELLED and COMPLETED are terminal.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingCompleted = "COMPLETED"
)

// Payment statuses tracked alongside the booking.
const (
	PaymentUnpaid   = "UNPAID"
	PaymentPaid     = "PAID"
	PaymentFailed   = "FAILED"
	PaymentRefunded = "REFUNDED"
)

type Booking struct {
	ID            string  `db:"id" json:"id"`
	CarID         string  `db:"car_id" json:"carId"`
	RenterID      string  `db:"renter_id" json:"renterId"`
	StartDate     string  `db:"start_date" json:"startDate"` // YYYY-MM-DD, inclusive
	EndDate       string  `db:"end_date" json:"endDate"`     // YYYY-MM-DD, exclusive
	PickupTime    string  `db:"pickup_time" json:"pickupTime,omitempty"`
	ReturnTime    string  `db:"return_time" json:"returnTime,omitempty"`
	Status        string  `db:"status" json:"status"`
	TotalAmount   float64 `db:"total_amount" json:"totalAmount"`
	PaymentStatus string  `db:"payment_status" json:"paymentStatus"`
	CreatedAt     string  `db:"created_at" json:"createdAt"`
	UpdatedAt     string  `db:"updated_at" json:"updatedAt,omitempty"`
}

var bookingTransitions = map[string][]string{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// CanTransition reports whether a booking may move from -> to.
func CanTransition(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Overlaps applies the half-open interval test to two day ranges: a booking
// ending on day X does not conflict with one starting on day X (same-day
// handoff). Dates are YYYY-MM-DD strings, so string order is date order.
func Overlaps(s1, e1, s2, e2 string) bool {
	return s1 < e2 && s2 < e1
}
