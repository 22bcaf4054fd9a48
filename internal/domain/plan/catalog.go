package plan

import (
	"sort"
	"strings"

	"github.com/lessonpay/lessonpay/internal/config"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/samber/lo"
)

// Catalog maps plan labels to gateway prices. It holds one disjoint set of
// plans per mode and never changes after construction.
type Catalog struct {
	plans map[types.PlanMode]map[string]Plan
}

const defaultCurrency = "usd"

// DefaultEntries are the lesson plans offered by the studio
var DefaultEntries = map[types.PlanMode][]config.PlanEntry{
	types.PlanModeLive: {
		{Label: "30 Minute Lessons - $150 / Month", PriceID: "price_1QweXFIaMu5TUCAvMfkFUcnp", Amount: 15000},
		{Label: "45 Minute Lessons - $225 / Month", PriceID: "price_1QweYQIaMu5TUCAv3z4AGnAv", Amount: 22500},
		{Label: "60 Minute Lessons - $300 / Month", PriceID: "price_1QweZcIaMu5TUCAv76jQaoON", Amount: 30000},
	},
	types.PlanModeTest: {
		{Label: "30 Minute Lessons - $150 / Month", PriceID: "price_1QxCAgIaMu5TUCAvAYJ1hCm0", Amount: 15000},
		{Label: "45 Minute Lessons - $225 / Month", PriceID: "price_1QxDDOIaMu5TUCAv38VEqyFU", Amount: 22500},
		{Label: "60 Minute Lessons - $300 / Month", PriceID: "price_1QxDDfIaMu5TUCAvHi6jUXYu", Amount: 30000},
	},
}

// NewCatalog builds a catalog from per-mode entries
func NewCatalog(entries map[types.PlanMode][]config.PlanEntry, currency string) *Catalog {
	if currency == "" {
		currency = defaultCurrency
	}
	c := &Catalog{plans: make(map[types.PlanMode]map[string]Plan, len(entries))}
	for mode, list := range entries {
		byLabel := make(map[string]Plan, len(list))
		for _, e := range list {
			byLabel[e.Label] = Plan{
				Label:      e.Label,
				PriceRef:   e.PriceID,
				FullAmount: e.Amount,
				Currency:   strings.ToLower(lo.Ternary(e.Currency != "", e.Currency, currency)),
				Mode:       mode,
			}
		}
		c.plans[mode] = byLabel
	}
	return c
}

// NewCatalogFromConfig uses the configured plans, falling back to the
// built-in ones for any mode left empty.
func NewCatalogFromConfig(cfg *config.Configuration) *Catalog {
	entries := map[types.PlanMode][]config.PlanEntry{
		types.PlanModeLive: lo.Ternary(len(cfg.Plans.Live) > 0, cfg.Plans.Live, DefaultEntries[types.PlanModeLive]),
		types.PlanModeTest: lo.Ternary(len(cfg.Plans.Test) > 0, cfg.Plans.Test, DefaultEntries[types.PlanModeTest]),
	}
	return NewCatalog(entries, cfg.Billing.Currency)
}

// Resolve looks a plan up by exact label in the catalog of the given mode
func (c *Catalog) Resolve(label string, mode types.PlanMode) (*Plan, error) {
	p, ok := c.plans[mode][label]
	if !ok {
		return nil, ierr.NewError("plan not found").
			WithHint("Invalid lesson type selected.").
			WithReportableDetails(map[string]any{
				"lesson_type": label,
				"mode":        string(mode),
			}).
			Mark(ierr.ErrInvalidPlan)
	}
	return &p, nil
}

// List returns the plans of a mode ordered by amount, then label
func (c *Catalog) List(mode types.PlanMode) []Plan {
	list := lo.Values(c.plans[mode])
	sort.Slice(list, func(i, j int) bool {
		if list[i].FullAmount != list[j].FullAmount {
			return list[i].FullAmount < list[j].FullAmount
		}
		return list[i].Label < list[j].Label
	})
	return list
}
