package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
)

// AccountBuilder provides a fluent interface for creating test securities accounts.
//
// Example usage:
//
//	// Simple creation with defaults
//	account := testutil.NewAccount(userID).Build(t, db)
//
//	// Customized account
//	account := testutil.NewAccount(userID).
//	    WithName("Sub-brokerage").
//	    WithBroker("Fubon").
//	    Build(t, db)
type AccountBuilder struct {
	ID          string
	UserID      string
	AccountName string
	BrokerName  string
}

// NewAccount creates an AccountBuilder with sensible defaults.
func NewAccount(userID string) *AccountBuilder {
	return &AccountBuilder{
		ID:          MakeID(),
		UserID:      userID,
		AccountName: "Main account",
		BrokerName:  "Test Securities",
	}
}

// WithID sets a custom ID.
func (b *AccountBuilder) WithID(id string) *AccountBuilder {
	b.ID = id
	return b
}

// WithName sets a custom account name.
func (b *AccountBuilder) WithName(name string) *AccountBuilder {
	b.AccountName = name
	return b
}

// WithBroker sets a custom broker name.
func (b *AccountBuilder) WithBroker(broker string) *AccountBuilder {
	b.BrokerName = broker
	return b
}

// Build creates the account in the database and returns it.
func (b *AccountBuilder) Build(t *testing.T, db *sql.DB) model.SecuritiesAccount {
	t.Helper()

	query := `
		INSERT INTO securities_account (id, user_id, account_name, broker_name)
		VALUES (?, ?, ?, ?)
	`

	if _, err := db.Exec(query, b.ID, b.UserID, b.AccountName, b.BrokerName); err != nil {
		t.Fatalf("Failed to create test securities account: %v", err)
	}

	return model.SecuritiesAccount{
		ID:          b.ID,
		UserID:      b.UserID,
		AccountName: b.AccountName,
		BrokerName:  b.BrokerName,
	}
}

// InstrumentBuilder provides a fluent interface for creating stock_data rows.
type InstrumentBuilder struct {
	Code       string
	Name       string
	MarketType string
	ETFType    string
	Industry   string
}

// NewInstrument creates an InstrumentBuilder for a listed stock.
func NewInstrument(code string) *InstrumentBuilder {
	return &InstrumentBuilder{
		Code:       code,
		Name:       "Stock " + code,
		MarketType: "上市",
	}
}

// WithName sets the instrument name.
func (b *InstrumentBuilder) WithName(name string) *InstrumentBuilder {
	b.Name = name
	return b
}

// WithMarketType sets the market (上市, 上櫃, 興櫃).
func (b *InstrumentBuilder) WithMarketType(marketType string) *InstrumentBuilder {
	b.MarketType = marketType
	return b
}

// WithETFType marks the instrument as an ETF.
func (b *InstrumentBuilder) WithETFType(etfType string) *InstrumentBuilder {
	b.ETFType = etfType
	return b
}

// WithIndustry sets the industry.
func (b *InstrumentBuilder) WithIndustry(industry string) *InstrumentBuilder {
	b.Industry = industry
	return b
}

// Build creates the instrument in the database.
func (b *InstrumentBuilder) Build(t *testing.T, db *sql.DB) {
	t.Helper()

	query := `
		INSERT INTO stock_data (stock_code, stock_name, market_type, etf_type, industry)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := db.Exec(query, b.Code, b.Name, b.MarketType, b.ETFType, b.Industry); err != nil {
		t.Fatalf("Failed to create test instrument: %v", err)
	}
}

// TransactionBuilder provides a fluent interface for creating ledger rows.
//
// Example usage:
//
//	testutil.NewTransaction(userID).
//	    WithAccount(account.ID).
//	    WithType("現股買進").
//	    WithStock("2330", "台積電").
//	    WithQuantity(1000).
//	    WithPrice(899).
//	    WithFee(1000).
//	    Build(t, db)
type TransactionBuilder struct {
	tx model.Transaction
}

// NewTransaction creates a TransactionBuilder for a cash buy of 1000
// shares of 2330 at 899, traded 2025-06-02.
func NewTransaction(userID string) *TransactionBuilder {
	return &TransactionBuilder{tx: model.Transaction{
		ID:              MakeID(),
		UserID:          userID,
		TradeDate:       time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		TransactionType: "buy",
		StockCode:       "2330",
		StockName:       "台積電",
		Quantity:        1000,
		Price:           899,
		Currency:        "TWD",
		CreatedAt:       time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
	}}
}

// WithID sets a custom ID.
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.tx.ID = id
	return b
}

// WithAccount assigns the transaction to a securities account.
func (b *TransactionBuilder) WithAccount(accountID string) *TransactionBuilder {
	b.tx.SecuritiesAccountID = &accountID
	return b
}

// WithType sets the ledger type tag (buy, 現股賣出, 融資買進 ...).
func (b *TransactionBuilder) WithType(txType string) *TransactionBuilder {
	b.tx.TransactionType = txType
	return b
}

// WithStock sets the instrument code and name.
func (b *TransactionBuilder) WithStock(code, name string) *TransactionBuilder {
	b.tx.StockCode = code
	b.tx.StockName = name
	return b
}

// WithQuantity sets the share count.
func (b *TransactionBuilder) WithQuantity(qty int64) *TransactionBuilder {
	b.tx.Quantity = qty
	return b
}

// WithPrice sets the per-share price.
func (b *TransactionBuilder) WithPrice(price float64) *TransactionBuilder {
	b.tx.Price = price
	return b
}

// WithFee sets the commission.
func (b *TransactionBuilder) WithFee(fee float64) *TransactionBuilder {
	b.tx.Fee = fee
	return b
}

// WithTax sets the transaction tax.
func (b *TransactionBuilder) WithTax(tax float64) *TransactionBuilder {
	b.tx.Tax = tax
	return b
}

// WithFinancing sets the financed amount of a margin buy.
func (b *TransactionBuilder) WithFinancing(amount float64) *TransactionBuilder {
	b.tx.FinancingAmount = amount
	return b
}

// WithMargin sets the collateral of a short sale.
func (b *TransactionBuilder) WithMargin(margin float64) *TransactionBuilder {
	b.tx.Margin = margin
	return b
}

// WithTradeDate sets the trade date.
func (b *TransactionBuilder) WithTradeDate(date time.Time) *TransactionBuilder {
	b.tx.TradeDate = date
	return b
}

// WithSettlementDate sets the settlement date.
func (b *TransactionBuilder) WithSettlementDate(date time.Time) *TransactionBuilder {
	b.tx.SettlementDate = &date
	return b
}

// WithCreatedAt sets the insertion time used to order same-day trades.
func (b *TransactionBuilder) WithCreatedAt(at time.Time) *TransactionBuilder {
	b.tx.CreatedAt = at
	return b
}

// WithCurrency sets the settlement currency.
func (b *TransactionBuilder) WithCurrency(currency string) *TransactionBuilder {
	b.tx.Currency = currency
	return b
}

// WithBuyReason sets the free-text buy reason.
func (b *TransactionBuilder) WithBuyReason(reason string) *TransactionBuilder {
	b.tx.BuyReason = reason
	return b
}

// Build creates the transaction in the database and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	query := `
		INSERT INTO "transaction" (
			id, user_id, securities_account_id, trade_date, settlement_date,
			transaction_type, stock_code, stock_name, quantity, price,
			fee, tax, securities_tax, financing_amount, margin, interest,
			borrowing_fee, net_amount, currency, buy_reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var settlement any
	if b.tx.SettlementDate != nil {
		settlement = b.tx.SettlementDate.Format("2006-01-02")
	}
	var buyReason any
	if b.tx.BuyReason != "" {
		buyReason = b.tx.BuyReason
	}

	tx := b.tx
	_, err := db.Exec(query,
		tx.ID, tx.UserID, tx.SecuritiesAccountID, tx.TradeDate.Format("2006-01-02"), settlement,
		tx.TransactionType, tx.StockCode, tx.StockName, tx.Quantity, tx.Price,
		tx.Fee, tx.Tax, tx.SecuritiesTax, tx.FinancingAmount, tx.Margin, tx.Interest,
		tx.BorrowingFee, tx.NetAmount, tx.Currency, buyReason, tx.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return tx
}

// SetSetting stores a raw setting value for a user.
//
// Example usage:
//
//	testutil.SetSetting(t, db, userID, "feeSettings", `{"taxRate":0.15}`)
func SetSetting(t *testing.T, db *sql.DB, userID, key, value string) {
	t.Helper()

	query := `
		INSERT INTO system_setting (id, user_id, setting_key, setting_value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, setting_key) DO UPDATE SET setting_value = excluded.setting_value
	`

	if _, err := db.Exec(query, MakeID(), userID, key, value, "2025-06-20T08:00:00Z"); err != nil {
		t.Fatalf("Failed to store test setting: %v", err)
	}
}

// SetFeeSettings stores the user's fee settings JSON.
func SetFeeSettings(t *testing.T, db *sql.DB, userID, settingsJSON string) {
	t.Helper()
	SetSetting(t, db, userID, model.SettingKeyFeeSettings, settingsJSON)
}
