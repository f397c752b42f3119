package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a single instrument position inside a bucket. Quantity and the
// invested/current values come from the brokerage and are authoritative;
// everything else is best-effort enrichment and may be absent.
type Holding struct {
	Ticker        string
	FullName      string
	CurrencyCode  string
	Exchange      string
	Type          string
	Quantity      decimal.Decimal
	InvestedValue decimal.Decimal
	CurrentValue  decimal.Decimal
	ResultValue   decimal.Decimal
	DividendYield decimal.Decimal
	Performance1W *decimal.Decimal
	Performance1M *decimal.Decimal
	Performance3M *decimal.Decimal
	Performance1Y *decimal.Decimal
}

// Bucket is a named grouping of holdings (a brokerage "pie") with a resolved
// target allocation and derived totals.
type Bucket struct {
	ID                 int64
	Name               string
	CreatedAt          time.Time
	DividendCashAction string
	TargetAllocation   decimal.Decimal
	Holdings           []Holding
	TotalInvested      decimal.Decimal
	TotalResult        decimal.Decimal
	ReturnPercentage   decimal.Decimal
	TotalValue         decimal.Decimal
}

type OverallSummary struct {
	TotalInvested    decimal.Decimal
	TotalResult      decimal.Decimal
	ReturnPercentage decimal.Decimal
	FreeCash         decimal.Decimal
	FetchDate        time.Time
}

type BucketAllocation struct {
	BucketName     string
	CurrentValue   decimal.Decimal
	CurrentPercent decimal.Decimal
	TargetPercent  decimal.Decimal
	Difference     decimal.Decimal
}

type AllocationAnalysis struct {
	Allocations             []BucketAllocation
	EstimatedAnnualDividend decimal.Decimal
}

// RebalanceAction is a suggested monetary move for one bucket. Amount is
// always non-negative, direction lives in Action.
type RebalanceAction struct {
	BucketName     string
	Action         string
	Amount         decimal.Decimal
	CurrentValue   decimal.Decimal
	TargetValue    decimal.Decimal
	CurrentPercent decimal.Decimal
	TargetPercent  decimal.Decimal
}

const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// PerformanceMetrics is the engine's public result: everything the
// presentation layer needs for one aggregation run.
type PerformanceMetrics struct {
	Buckets                      []Bucket
	OverallSummary               OverallSummary
	AllocationAnalysis           AllocationAnalysis
	RebalanceInvestmentForTarget []RebalanceAction
	FreeCashAvailable            decimal.Decimal
	FetchDate                    time.Time
}
