package yahooApi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToProviderSymbol(t *testing.T) {
	tests := []struct {
		name   string
		ticker string
		want   string
	}{
		{
			name:   "US equity suffix",
			ticker: "AAPL_US_EQ",
			want:   "AAPL",
		},
		{
			name:   "plain equity suffix",
			ticker: "ENEL_EQ",
			want:   "ENEL",
		},
		{
			name:   "London listing with trailing l",
			ticker: "VUSAl_EQ",
			want:   "VUSA.L",
		},
		{
			name:   "London listing with digit before trailing l",
			ticker: "SGLN1l_EQ",
			want:   "SGLN1.L",
		},
		{
			name:   "override table wins",
			ticker: "BRK_B_US_EQ",
			want:   "BRK-B",
		},
		{
			name:   "override for cross-listed share",
			ticker: "ALVd_EQ",
			want:   "ALV.DE",
		},
		{
			name:   "unknown suffix passes through",
			ticker: "XYZ",
			want:   "XYZ",
		},
		{
			name:   "already normalized symbol is stable",
			ticker: "VUSA.L",
			want:   "VUSA.L",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToProviderSymbol(tt.ticker))
		})
	}
}

func TestToProviderSymbolIdempotent(t *testing.T) {
	for _, ticker := range []string{"AAPL_US_EQ", "VUSAl_EQ", "XYZ", "MSFT"} {
		once := ToProviderSymbol(ticker)
		assert.Equal(t, once, ToProviderSymbol(once), "normalizing %q twice must be stable", ticker)
	}
}
