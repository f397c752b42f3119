package t212Model

import "github.com/shopspring/decimal"

type CashBalance struct {
	Free     decimal.Decimal `json:"free"`
	Total    decimal.Decimal `json:"total"`
	Invested decimal.Decimal `json:"invested"`
	Result   decimal.Decimal `json:"result"`
	PieCash  decimal.Decimal `json:"pieCash"`
	Blocked  decimal.Decimal `json:"blocked"`
}

type PieRef struct {
	ID       int64           `json:"id"`
	Cash     decimal.Decimal `json:"cash"`
	Progress decimal.Decimal `json:"progress"`
	Status   string          `json:"status"`
}

type PieSettings struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	CreationDate       string `json:"creationDate"`
	DividendCashAction string `json:"dividendCashAction"`
	Icon               string `json:"icon"`
}

type PositionResult struct {
	PriceAvgInvestedValue decimal.Decimal `json:"priceAvgInvestedValue"`
	PriceAvgValue         decimal.Decimal `json:"priceAvgValue"`
	PriceAvgResult        decimal.Decimal `json:"priceAvgResult"`
}

type Position struct {
	Ticker        string          `json:"ticker"`
	OwnedQuantity decimal.Decimal `json:"ownedQuantity"`
	CurrentShare  decimal.Decimal `json:"currentShare"`
	Result        PositionResult  `json:"result"`
}

type PieDetail struct {
	Settings    PieSettings `json:"settings"`
	Instruments []Position  `json:"instruments"`
}

type Instrument struct {
	Ticker       string `json:"ticker"`
	Type         string `json:"type"`
	ISIN         string `json:"isin"`
	CurrencyCode string `json:"currencyCode"`
	Name         string `json:"name"`
	ShortName    string `json:"shortName"`
	Exchange     string `json:"exchange"`
}
