package portfolioService

import (
	"regexp"

	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var targetInNameRe = regexp.MustCompile(`\((\d+(?:\.\d+)?)%\)`)

// parseTargetFromName extracts a "(NN%)" suffix from a bucket name, e.g.
// "Tech (30%)" -> 30. The second return reports whether a target was found.
func parseTargetFromName(name string) (decimal.Decimal, bool) {
	matches := targetInNameRe.FindStringSubmatch(name)
	if matches == nil {
		return decimal.Zero, false
	}

	target, err := decimal.NewFromString(matches[1])
	if err != nil {
		return decimal.Zero, false
	}

	return target, true
}

// resolveTargetAllocations fills in each bucket's target percentage using an
// ordered strategy list: explicit stored preference, then a percentage
// parsed from the bucket name, then an equal split across buckets. The
// reserved pseudo-bucket is skipped and does not count toward the split.
func resolveTargetAllocations(buckets []model.Bucket, stored map[string]decimal.Decimal) {
	included := lo.CountBy(buckets, func(b model.Bucket) bool {
		return b.Name != reservedBucketName
	})

	equalSplit := decimal.Zero
	if included > 0 {
		equalSplit = decimal.NewFromInt(100).Div(decimal.NewFromInt(int64(included)))
	}

	resolvers := []func(b model.Bucket) (decimal.Decimal, bool){
		func(b model.Bucket) (decimal.Decimal, bool) {
			target, ok := stored[b.Name]
			return target, ok
		},
		func(b model.Bucket) (decimal.Decimal, bool) {
			return parseTargetFromName(b.Name)
		},
		func(b model.Bucket) (decimal.Decimal, bool) {
			return equalSplit, true
		},
	}

	for i := range buckets {
		if buckets[i].Name == reservedBucketName {
			continue
		}
		for _, resolve := range resolvers {
			if target, ok := resolve(buckets[i]); ok {
				buckets[i].TargetAllocation = target
				break
			}
		}
	}
}

// analyzeAllocation computes the current-vs-target view and the estimated
// annual dividend. Targets are surfaced as resolved, deliberately not
// normalized to 100: user-entered inconsistency shows up in Difference.
func analyzeAllocation(buckets []model.Bucket, monthlyBudget decimal.Decimal) model.AllocationAnalysis {
	included := lo.Filter(buckets, func(b model.Bucket, _ int) bool {
		return b.Name != reservedBucketName
	})

	totalValue := lo.Reduce(included, func(acc decimal.Decimal, b model.Bucket, _ int) decimal.Decimal {
		return acc.Add(b.TotalValue)
	}, decimal.Zero)

	hundred := decimal.NewFromInt(100)

	allocations := lo.Map(included, func(b model.Bucket, _ int) model.BucketAllocation {
		currentPercent := decimal.Zero
		if !totalValue.IsZero() {
			currentPercent = b.TotalValue.Div(totalValue).Mul(hundred)
		}

		return model.BucketAllocation{
			BucketName:     b.Name,
			CurrentValue:   b.TotalValue,
			CurrentPercent: currentPercent,
			TargetPercent:  b.TargetAllocation,
			Difference:     currentPercent.Sub(b.TargetAllocation),
		}
	})

	return model.AllocationAnalysis{
		Allocations:             allocations,
		EstimatedAnnualDividend: estimateAnnualDividend(included, totalValue, monthlyBudget),
	}
}

// estimateAnnualDividend sums each holding's current-position dividend plus
// the dividend a year of monthly contributions would earn if allocated
// proportionally to today's mix: it answers "what yield do I get if I keep
// investing at this budget", not just today's yield.
func estimateAnnualDividend(buckets []model.Bucket, totalValue, monthlyBudget decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	annualBudget := monthlyBudget.Mul(decimal.NewFromInt(12))

	total := decimal.Zero
	for _, bucket := range buckets {
		for _, holding := range bucket.Holdings {
			if holding.DividendYield.IsZero() {
				continue
			}

			yield := holding.DividendYield.Div(hundred)
			total = total.Add(holding.CurrentValue.Mul(yield))

			if !totalValue.IsZero() {
				share := holding.CurrentValue.Div(totalValue)
				total = total.Add(annualBudget.Mul(share).Mul(yield))
			}
		}
	}

	return total
}
