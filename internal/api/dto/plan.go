package dto

import (
	"github.com/lessonpay/lessonpay/internal/domain/plan"
	"github.com/samber/lo"
)

type PlanResponse struct {
	Label    string `json:"label"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type ListPlansResponse struct {
	Mode  string         `json:"mode"`
	Plans []PlanResponse `json:"plans"`
}

func NewListPlansResponse(mode string, plans []plan.Plan) *ListPlansResponse {
	return &ListPlansResponse{
		Mode: mode,
		Plans: lo.Map(plans, func(p plan.Plan, _ int) PlanResponse {
			return PlanResponse{Label: p.Label, Amount: p.FullAmount, Currency: p.Currency}
		}),
	}
}
