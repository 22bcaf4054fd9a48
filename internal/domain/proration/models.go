package proration

import "time"

// Result is the prorated first charge of an enrollment and the instant the
// recurring subscription is anchored to.
type Result struct {
	// ChargeAmount is in minor units, 0 <= ChargeAmount <= full amount
	ChargeAmount  int64     `json:"charge_amount"`
	DaysRemaining int       `json:"days_remaining"`
	DaysInPeriod  int       `json:"days_in_period"`
	BillingAnchor time.Time `json:"billing_anchor"`
}

// IsZero reports whether nothing is owed for the current period
func (r *Result) IsZero() bool {
	return r.ChargeAmount == 0
}
