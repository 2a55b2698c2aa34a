package model

import "time"

// Position kinds as exposed in API payloads.
const (
	KindCash            = "cash"
	KindMarginFinancing = "margin_financing"
	KindMarginShort     = "margin_short"
)

// Price sources reported alongside a holding's current price.
const (
	PriceSourceRealtime    = "realtime"
	PriceSourceClose       = "close"
	PriceSourceManual      = "manual"
	PriceSourceTransaction = "transaction"
)

// Holding is one valued position: a (account, code, kind, currency class)
// group with a positive quantity. holding_cost and profit_loss are whole
// TWD (or whole units of the foreign currency).
type Holding struct {
	SecuritiesAccountID *string    `json:"securities_account_id"`
	AccountName         string     `json:"account_name"`
	BrokerName          string     `json:"broker_name"`
	StockCode           string     `json:"stock_code"`
	StockName           string     `json:"stock_name"`
	MarketType          string     `json:"market_type,omitempty"`
	Industry            string     `json:"industry,omitempty"`
	TransactionType     string     `json:"transaction_type"`
	Currency            string     `json:"currency"`
	Quantity            int64      `json:"quantity"`
	AvailableQuantity   *int64     `json:"available_quantity"`
	CostPrice           float64    `json:"cost_price"`
	BreakEvenPrice      float64    `json:"break_even_price"`
	CurrentPrice        float64    `json:"current_price"`
	MarketValue         float64    `json:"market_value"`
	HoldingCost         int64      `json:"holding_cost"`
	ProfitLoss          int64      `json:"profit_loss"`
	ProfitLossPercent   float64    `json:"profit_loss_percent"`
	EstimatedInterest   float64    `json:"estimated_interest,omitempty"`
	PriceSource         string     `json:"price_source"`
	PriceUpdatedAt      *time.Time `json:"price_updated_at"`
}

// HoldingStats aggregates every holding in a response.
type HoldingStats struct {
	TotalHoldings          int     `json:"totalHoldings"`
	TotalMarketValue       float64 `json:"totalMarketValue"`
	TotalCost              int64   `json:"totalCost"`
	TotalProfitLoss        int64   `json:"totalProfitLoss"`
	TotalProfitLossPercent float64 `json:"totalProfitLossPercent"`
}

// HoldingsResult is the payload of GET /api/holdings.
type HoldingsResult struct {
	Data  []Holding    `json:"data"`
	Stats HoldingStats `json:"stats"`
}

// LotDetail describes the still-open remainder of one opening transaction.
type LotDetail struct {
	ID                          string    `json:"id"`
	SecuritiesAccountID         *string   `json:"securities_account_id"`
	AccountName                 string    `json:"account_name"`
	TransactionType             string    `json:"transaction_type"`
	StockCode                   string    `json:"stock_code"`
	StockName                   string    `json:"stock_name"`
	TradeDate                   time.Time `json:"trade_date"`
	Quantity                    int64     `json:"quantity"`
	OriginalQuantity            int64     `json:"original_quantity"`
	Price                       float64   `json:"price"`
	HoldingCost                 int64     `json:"holding_cost"`
	EstimatedInterest           float64   `json:"estimated_interest"`
	FinancingAmountOrCollateral *float64  `json:"financing_amount_or_collateral"`
	Currency                    string    `json:"currency"`
	BuyReason                   string    `json:"buy_reason,omitempty"`
}

// Quote is a price observation from the oracle or a manual override.
type Quote struct {
	Price     float64   `json:"price"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updatedAt"`
}
