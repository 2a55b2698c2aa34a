package model

import "time"

// Transaction is one ledger row as the holdings engine sees it: the trade
// itself joined with its securities account and instrument metadata.
// Ledger rows are immutable once read.
type Transaction struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"userId"`
	SecuritiesAccountID *string    `json:"securitiesAccountId"`
	AccountName         string     `json:"accountName"`
	BrokerName          string     `json:"brokerName"`
	TradeDate           time.Time  `json:"tradeDate"`
	SettlementDate      *time.Time `json:"settlementDate,omitempty"`
	TransactionType     string     `json:"transactionType"`
	StockCode           string     `json:"stockCode"`
	StockName           string     `json:"stockName"`
	Quantity            int64      `json:"quantity"`
	Price               float64    `json:"price"`
	Fee                 float64    `json:"fee"`
	Tax                 float64    `json:"tax"`
	SecuritiesTax       float64    `json:"securitiesTax"`
	FinancingAmount     float64    `json:"financingAmount"`
	Margin              float64    `json:"margin"`
	Interest            float64    `json:"interest"`
	BorrowingFee        float64    `json:"borrowingFee"`
	NetAmount           float64    `json:"netAmount"`
	Currency            string     `json:"currency"`
	BuyReason           string     `json:"buyReason,omitempty"`
	CreatedAt           time.Time  `json:"createdAt,omitempty"`

	// Instrument metadata from stock_data; empty when the code is unknown.
	MarketType string `json:"marketType,omitempty"`
	ETFType    string `json:"etfType,omitempty"`
	Industry   string `json:"industry,omitempty"`
}

// AccountKey renders the securities account for grouping. Transactions
// without an account share the "null" bucket.
func (t Transaction) AccountKey() string {
	if t.SecuritiesAccountID == nil || *t.SecuritiesAccountID == "" {
		return "null"
	}
	return *t.SecuritiesAccountID
}

// IsDomestic reports whether the transaction settles in TWD. A missing
// currency is treated as TWD.
func (t Transaction) IsDomestic() bool {
	return t.Currency == "" || t.Currency == "TWD"
}

// TransactionFilter narrows the ledger read for a holdings request.
type TransactionFilter struct {
	// SecuritiesAccountID limits to one account. "null" selects
	// transactions without an account.
	SecuritiesAccountID string
	// StockCode is matched as a substring.
	StockCode string
	// DomesticOnly keeps TWD (or currency-less) rows only.
	DomesticOnly bool
}

// Instrument identifies a listed code and the market it trades on.
type Instrument struct {
	Code       string `json:"code"`
	MarketType string `json:"marketType"`
}
