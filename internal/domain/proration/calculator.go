package proration

import (
	"time"

	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/shopspring/decimal"
)

// Calculator computes month-based proration in a fixed billing timezone
type Calculator interface {
	// Compute prorates fullAmount for the rest of now's calendar month
	Compute(fullAmount int64, now time.Time) (*Result, error)
	// NextAnchor is local midnight on the first day of the month after now
	NextAnchor(now time.Time) time.Time
	Location() *time.Location
}

// NewCalculator creates a day-based calculator for the given timezone.
// A nil location means UTC.
func NewCalculator(loc *time.Location) Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &dayBasedCalculator{loc: loc}
}

// dayBasedCalculator charges whole days. The enrollment day itself is never
// charged, so enrolling on the 1st leaves DaysInPeriod-1 days.
type dayBasedCalculator struct {
	loc *time.Location
}

func (c *dayBasedCalculator) Location() *time.Location {
	return c.loc
}

func (c *dayBasedCalculator) Compute(fullAmount int64, now time.Time) (*Result, error) {
	if fullAmount < 0 {
		return nil, ierr.NewError("invalid proration amount").
			WithHintf("full amount must not be negative, got %d", fullAmount).
			Mark(ierr.ErrValidation)
	}

	local := now.In(c.loc)
	inPeriod := DaysInMonth(local)
	remaining := inPeriod - local.Day()

	return &Result{
		ChargeAmount:  ChargeFor(fullAmount, remaining, inPeriod),
		DaysRemaining: remaining,
		DaysInPeriod:  inPeriod,
		BillingAnchor: c.NextAnchor(now),
	}, nil
}

func (c *dayBasedCalculator) NextAnchor(now time.Time) time.Time {
	return NextAnchor(now, c.loc)
}

// ChargeFor returns round(fullAmount * remaining / inPeriod) with exact
// halves rounded up. The result is clamped to [0, fullAmount].
func ChargeFor(fullAmount int64, remaining, inPeriod int) int64 {
	if inPeriod <= 0 || remaining <= 0 || fullAmount <= 0 {
		return 0
	}
	if remaining >= inPeriod {
		return fullAmount
	}

	// DivRound rounds half away from zero, which is half-up for
	// non-negative quotients.
	charge := decimal.NewFromInt(fullAmount).
		Mul(decimal.NewFromInt(int64(remaining))).
		DivRound(decimal.NewFromInt(int64(inPeriod)), 0)

	return charge.IntPart()
}

// NextAnchor returns midnight on day 1 of the month after now's month in
// loc, as a UTC instant.
func NextAnchor(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	// time.Date normalizes month 13 into January of the next year
	return time.Date(local.Year(), local.Month()+1, 1, 0, 0, 0, 0, loc).UTC()
}

// DaysInMonth returns the number of calendar days in t's month, in t's location
func DaysInMonth(t time.Time) int {
	// day 0 of the next month is the last day of this one
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
