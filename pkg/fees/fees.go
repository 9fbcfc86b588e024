// Package fees computes the platform fee charged on top of an agreed price.
package fees

import "math"

// Type selects how the fee amount is interpreted.
type Type string

const (
	Fixed      Type = "fixed"      // Amount is a flat rupiah amount
	Percentage Type = "percentage" // Amount is a percent of the agreed price
)

// Schedule is a read-only fee configuration, injected into the payment path
// so the workflow stays testable with arbitrary schedules.
type Schedule struct {
	Type   Type
	Amount int64
}

// Fee returns the platform fee for the given agreed price, rounded to a
// whole rupiah.
func (s Schedule) Fee(agreedPrice int64) int64 {
	if s.Type == Percentage {
		return int64(math.Round(float64(agreedPrice) * float64(s.Amount) / 100))
	}
	return s.Amount
}

// Total returns the full amount charged to the client.
func (s Schedule) Total(agreedPrice int64) int64 {
	return agreedPrice + s.Fee(agreedPrice)
}
