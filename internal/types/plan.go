package types

import "strings"

// PlanMode selects which price catalog is active
type PlanMode string

const (
	PlanModeLive PlanMode = "live"
	PlanModeTest PlanMode = "test"
)

// PlanModeFromLiveFlag maps the gateway live-mode flag to a catalog mode
func PlanModeFromLiveFlag(live bool) PlanMode {
	if live {
		return PlanModeLive
	}
	return PlanModeTest
}

// ParsePlanMode parses a mode string, defaulting to test for anything
// other than "live".
func ParsePlanMode(s string) PlanMode {
	if strings.EqualFold(strings.TrimSpace(s), string(PlanModeLive)) {
		return PlanModeLive
	}
	return PlanModeTest
}
