package yahooApi

import "strings"

// symbolOverrides maps brokerage tickers whose normalized form is irregular
// (cross-listed shares, share-class suffixes) straight to the provider
// symbol. Checked before any suffix rule.
var symbolOverrides = map[string]string{
	"BRK_B_US_EQ": "BRK-B",
	"BF_B_US_EQ":  "BF-B",
	"ALVd_EQ":     "ALV.DE",
	"VOWd_EQ":     "VOW3.DE",
	"MCp_EQ":      "MC.PA",
}

// ToProviderSymbol translates a brokerage ticker into the market-data
// provider's symbol syntax:
//
//	AAPL_US_EQ -> AAPL
//	VUSAl_EQ   -> VUSA.L
//	SGLN1l_EQ  -> SGLN1.L
//
// Tickers without a known suffix pass through unchanged, so normalizing an
// already-normalized symbol is a no-op.
func ToProviderSymbol(ticker string) string {
	if symbol, ok := symbolOverrides[ticker]; ok {
		return symbol
	}

	s := strings.TrimSuffix(ticker, "_EQ")
	s = strings.TrimSuffix(s, "_US")

	// Trailing lowercase 'l' marks a London listing.
	if len(s) > 1 && s[len(s)-1] == 'l' {
		s = s[:len(s)-1] + ".L"
	}

	return s
}
