package model

import "github.com/shopspring/decimal"

type BucketPreference struct {
	BucketName       string
	TargetAllocation decimal.Decimal
}

type InstrumentNote struct {
	Ticker string
	Note   string
}
