package yahooModel

import "github.com/shopspring/decimal"

// Performance holds enrichment figures for one instrument. Trailing returns
// are nil when the provider has no usable history for the window.
type Performance struct {
	Symbol        string
	DividendYield decimal.Decimal
	Perf1W        *decimal.Decimal
	Perf1M        *decimal.Decimal
	Perf3M        *decimal.Decimal
	Perf1Y        *decimal.Decimal
}

type SearchResult struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname"`
	LongName  string `json:"longname"`
	Exchange  string `json:"exchange"`
	QuoteType string `json:"quoteType"`
}

type InstrumentDetails struct {
	Symbol        string
	Name          string
	CurrencyCode  string
	Exchange      string
	Type          string
	Sector        string
	Industry      string
	MarketCap     decimal.Decimal
	CurrentPrice  decimal.Decimal
	DividendYield decimal.Decimal
}

// Raw response shapes below follow the provider's JSON envelope.

type RawChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *RawError `json:"error"`
	} `json:"chart"`
}

type RawQuoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				DividendYield               RawValue `json:"dividendYield"`
				TrailingAnnualDividendYield RawValue `json:"trailingAnnualDividendYield"`
				MarketCap                   RawValue `json:"marketCap"`
			} `json:"summaryDetail"`
			Price struct {
				ShortName          string   `json:"shortName"`
				LongName           string   `json:"longName"`
				Currency           string   `json:"currency"`
				ExchangeName       string   `json:"exchangeName"`
				QuoteType          string   `json:"quoteType"`
				RegularMarketPrice RawValue `json:"regularMarketPrice"`
			} `json:"price"`
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *RawError `json:"error"`
	} `json:"quoteSummary"`
}

type RawSearch struct {
	Quotes []SearchResult `json:"quotes"`
}

type RawValue struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

type RawError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
