package yahooApi

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closePtr(v float64) *float64 {
	return &v
}

func TestTrailingReturns(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	latest := decimal.NewFromInt(130)

	timestamps := []int64{
		now.AddDate(0, 0, -370).Unix(),
		now.AddDate(0, 0, -100).Unix(),
		now.AddDate(0, 0, -40).Unix(),
		now.AddDate(0, 0, -10).Unix(),
	}
	closes := []*float64{
		closePtr(100),
		closePtr(110),
		closePtr(120),
		closePtr(125),
	}

	perf := trailingReturns(now, latest, timestamps, closes)

	require.NotNil(t, perf.Perf1W)
	require.NotNil(t, perf.Perf1M)
	require.NotNil(t, perf.Perf3M)
	require.NotNil(t, perf.Perf1Y)

	// Window close is the newest close at or before now-window.
	assert.InDelta(t, 4.0, perf.Perf1W.InexactFloat64(), 1e-9)     // (130-125)/125
	assert.InDelta(t, 8.3333333, perf.Perf1M.InexactFloat64(), 1e-6) // (130-120)/120
	assert.InDelta(t, 18.181818, perf.Perf3M.InexactFloat64(), 1e-6) // (130-110)/110
	assert.InDelta(t, 30.0, perf.Perf1Y.InexactFloat64(), 1e-9)    // (130-100)/100
}

func TestTrailingReturnsInsufficientHistory(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	latest := decimal.NewFromInt(100)

	// Only five days of history: every window boundary predates the series.
	timestamps := []int64{
		now.AddDate(0, 0, -5).Unix(),
		now.AddDate(0, 0, -4).Unix(),
	}
	closes := []*float64{closePtr(98), closePtr(99)}

	perf := trailingReturns(now, latest, timestamps, closes)

	assert.Nil(t, perf.Perf1W)
	assert.Nil(t, perf.Perf1M)
	assert.Nil(t, perf.Perf3M)
	assert.Nil(t, perf.Perf1Y)
}

func TestTrailingReturnsSkipsNilCloses(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	latest := decimal.NewFromInt(110)

	timestamps := []int64{
		now.AddDate(0, 0, -20).Unix(),
		now.AddDate(0, 0, -9).Unix(),
	}
	closes := []*float64{closePtr(100), nil}

	perf := trailingReturns(now, latest, timestamps, closes)

	// The nil close just before the boundary falls back to the older one.
	require.NotNil(t, perf.Perf1W)
	assert.InDelta(t, 10.0, perf.Perf1W.InexactFloat64(), 1e-9)

	assert.Nil(t, perf.Perf1Y)
}

func TestTrailingReturnsEmptySeries(t *testing.T) {
	perf := trailingReturns(time.Now(), decimal.NewFromInt(100), nil, nil)

	assert.Nil(t, perf.Perf1W)
	assert.Nil(t, perf.Perf1M)
	assert.Nil(t, perf.Perf3M)
	assert.Nil(t, perf.Perf1Y)
}
