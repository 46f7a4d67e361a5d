package market

import "time"

// TickSummary is the persisted audit row for one completed tick and the
// response body of the tick trigger.
type TickSummary struct {
	TickNumber    int64     `json:"tick_number"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	BotPurchases  int64     `json:"bot_purchases"`
	StockUpdates  int64     `json:"stock_updates"`
	CryptoUpdates int64     `json:"crypto_updates"`
	Failures      int64     `json:"failures"`
}

type StockView struct {
	Symbol              string  `json:"symbol"`
	DisplayName         string  `json:"display_name"`
	PriceMicros         int64   `json:"price_micros"`
	PreviousPriceMicros int64   `json:"previous_price_micros"`
	TotalShares         int64   `json:"total_shares"`
	MarketCapMicros     int64   `json:"market_cap_micros"`
	Volatility          float64 `json:"volatility"`
}

type CryptoView struct {
	Symbol              string  `json:"symbol"`
	DisplayName         string  `json:"display_name"`
	PriceMicros         int64   `json:"price_micros"`
	PreviousPriceMicros int64   `json:"previous_price_micros"`
	Volatility          float64 `json:"volatility"`
}

type StockDetail struct {
	StockView
	CompanyName         string       `json:"company_name"`
	RevenueAnnualMicros int64        `json:"revenue_annual_micros"`
	Series              []PricePoint `json:"series,omitempty"`
}

type PricePoint struct {
	TickAt      time.Time `json:"tick_at"`
	PriceMicros int64     `json:"price_micros"`
}

type HoldingView struct {
	Kind                string `json:"kind"`
	Symbol              string `json:"symbol"`
	QuantityUnits       int64  `json:"quantity_units"`
	TotalInvestedMicros int64  `json:"total_invested_micros"`
	CurrentValueMicros  int64  `json:"current_value_micros"`
	ProfitLossMicros    int64  `json:"profit_loss_micros"`
}

type NetWorthView struct {
	PlayerID       string        `json:"player_id"`
	Username       string        `json:"username"`
	CashMicros     int64         `json:"cash_micros"`
	Holdings       []HoldingView `json:"holdings"`
	NetWorthMicros int64         `json:"net_worth_micros"`
}

type LeaderboardRow struct {
	Rank           int64  `json:"rank"`
	Username       string `json:"username"`
	NetWorthMicros int64  `json:"net_worth_micros"`
}

// HistoryQuery bounds a price series read. Zero times mean unbounded.
type HistoryQuery struct {
	Kind   string
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}
