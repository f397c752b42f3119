package portfolioService

import (
	"sort"

	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PlanRebalance converts allocation deltas into concrete buy/sell amounts,
// spreading the current portfolio value plus additionalAmount across buckets
// at their target percentages. Actions come back sorted by amount descending
// so the most material moves surface first.
func (s *PortfolioService) PlanRebalance(analysis model.AllocationAnalysis, additionalAmount decimal.Decimal) []model.RebalanceAction {
	totalBasis := lo.Reduce(analysis.Allocations, func(acc decimal.Decimal, a model.BucketAllocation, _ int) decimal.Decimal {
		return acc.Add(a.CurrentValue)
	}, decimal.Zero).Add(additionalAmount)

	if totalBasis.IsZero() {
		return []model.RebalanceAction{}
	}

	hundred := decimal.NewFromInt(100)

	actions := lo.Map(analysis.Allocations, func(a model.BucketAllocation, _ int) model.RebalanceAction {
		targetValue := totalBasis.Mul(a.TargetPercent).Div(hundred)
		delta := targetValue.Sub(a.CurrentValue)

		action := model.ActionBuy
		if delta.IsNegative() {
			action = model.ActionSell
		}

		return model.RebalanceAction{
			BucketName:     a.BucketName,
			Action:         action,
			Amount:         delta.Abs(),
			CurrentValue:   a.CurrentValue,
			TargetValue:    targetValue,
			CurrentPercent: a.CurrentPercent,
			TargetPercent:  a.TargetPercent,
		}
	})

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Amount.GreaterThan(actions[j].Amount)
	})

	return actions
}
