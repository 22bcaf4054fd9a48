package plan

import "github.com/lessonpay/lessonpay/internal/types"

// Plan is a lesson plan sold as a monthly subscription
type Plan struct {
	// Label is the human readable name shown on the enrollment form. It is
	// also the correlation key stored on gateway objects.
	Label string `json:"label"`
	// PriceRef is the gateway price identifier of the recurring price
	PriceRef string `json:"price_ref"`
	// FullAmount is the monthly price in minor currency units
	FullAmount int64          `json:"full_amount"`
	Currency   string         `json:"currency"`
	Mode       types.PlanMode `json:"mode"`
}
