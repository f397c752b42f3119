package xlsxGenerator

import (
	"context"
	"testing"

	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketSheetName(t *testing.T) {
	tests := []struct {
		name       string
		bucketName string
		ordinal    int
		want       string
	}{
		{
			name:       "plain name",
			bucketName: "Tech",
			ordinal:    1,
			want:       "1. Tech",
		},
		{
			name:       "forbidden characters replaced",
			bucketName: "Growth/Income [EU]*?",
			ordinal:    2,
			want:       "2. Growth Income  EU   ",
		},
		{
			name:       "long name truncated to limit",
			bucketName: "Dividend Aristocrats And Other Compounders",
			ordinal:    3,
			want:       "3. Dividend Aristocrats And Oth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bucketSheetName(tt.ordinal, tt.bucketName)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), maxSheetNameLen)
		})
	}
}

func TestGenerateHandlesAwkwardBucketNames(t *testing.T) {
	g := New()

	metrics := model.PerformanceMetrics{
		Buckets: []model.Bucket{
			{
				Name: "Core/Satellite [50:50]? A Very Long Strategy Name Indeed",
				Holdings: []model.Holding{
					{
						Ticker:        "AAPL_US_EQ",
						FullName:      "Apple Inc",
						Quantity:      decimal.NewFromInt(1),
						InvestedValue: decimal.NewFromInt(100),
						CurrentValue:  decimal.NewFromInt(110),
						ResultValue:   decimal.NewFromInt(10),
					},
				},
				TotalInvested:    decimal.NewFromInt(100),
				TotalValue:       decimal.NewFromInt(110),
				TotalResult:      decimal.NewFromInt(10),
				ReturnPercentage: decimal.NewFromInt(10),
			},
		},
	}

	fileBytes, ext, err := g.Generate(context.Background(), metrics)

	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)
	assert.NotEmpty(t, fileBytes)
}

func TestGenerateEmptyPortfolio(t *testing.T) {
	g := New()

	_, _, err := g.Generate(context.Background(), model.PerformanceMetrics{})

	assert.Error(t, err)
}
