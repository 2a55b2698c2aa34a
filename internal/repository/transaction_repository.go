package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
)

// TransactionRepository provides read access to the brokerage ledger.
// The ledger is owned by another service; this repository never writes it.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const ledgerSelect = `
	SELECT t.id, t.user_id, t.securities_account_id, t.trade_date, t.settlement_date,
		t.transaction_type, t.stock_code, t.stock_name, t.quantity, t.price,
		t.fee, t.tax, t.securities_tax, t.financing_amount, t.margin, t.interest,
		t.borrowing_fee, t.net_amount, t.currency, t.buy_reason, t.created_at,
		sa.account_name, sa.broker_name,
		sd.market_type, sd.etf_type, sd.industry
	FROM "transaction" t
	LEFT JOIN securities_account sa ON t.securities_account_id = sa.id
	LEFT JOIN stock_data sd ON t.stock_code = sd.stock_code
`

// ListForHoldings returns a user's ledger joined with account and
// instrument metadata, in the chronological order the holdings engine
// folds it: trade date, then insertion time, then insertion order.
//
// Parameters:
//   - userID: the owner of the ledger
//   - filter: optional account, stock code substring and currency restrictions
//
// Returns an empty slice (not nil) when the user has no matching transactions.
func (r *TransactionRepository) ListForHoldings(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error) {
	where := []string{"t.user_id = ?"}
	args := []any{userID}

	switch filter.SecuritiesAccountID {
	case "":
	case "null":
		where = append(where, "t.securities_account_id IS NULL")
	default:
		where = append(where, "t.securities_account_id = ?")
		args = append(args, filter.SecuritiesAccountID)
	}
	if filter.StockCode != "" {
		where = append(where, "t.stock_code LIKE '%' || ? || '%'")
		args = append(args, filter.StockCode)
	}
	if filter.DomesticOnly {
		where = append(where, "(t.currency IS NULL OR t.currency = '' OR t.currency = 'TWD')")
	}

	query := ledgerSelect + " WHERE " + strings.Join(where, " AND ") +
		" ORDER BY t.trade_date ASC, t.created_at ASC, t.rowid ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	txns := []model.Transaction{}
	for rows.Next() {
		t, err := scanLedgerRow(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}
	return txns, nil
}

// ListUserIDs returns every user with at least one domestic transaction.
func (r *TransactionRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM "transaction"
		WHERE currency IS NULL OR currency = '' OR currency = 'TWD'
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ledger user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger users: %w", err)
	}
	return ids, nil
}

func scanLedgerRow(rows *sql.Rows) (model.Transaction, error) {
	var (
		t                                    model.Transaction
		accountID, settlement, currency, why sql.NullString
		tradeDate, createdAt                 string
		accountName, brokerName              sql.NullString
		marketType, etfType, industry        sql.NullString
	)
	err := rows.Scan(
		&t.ID, &t.UserID, &accountID, &tradeDate, &settlement,
		&t.TransactionType, &t.StockCode, &t.StockName, &t.Quantity, &t.Price,
		&t.Fee, &t.Tax, &t.SecuritiesTax, &t.FinancingAmount, &t.Margin, &t.Interest,
		&t.BorrowingFee, &t.NetAmount, &currency, &why, &createdAt,
		&accountName, &brokerName,
		&marketType, &etfType, &industry,
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction table results: %w", err)
	}

	if t.TradeDate, err = ParseTime(tradeDate); err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	if settlement.Valid && settlement.String != "" {
		sd, err := ParseTime(settlement.String)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		t.SettlementDate = &sd
	}
	if createdAt != "" {
		// created_at only breaks ties in ordering; an unreadable value is not fatal.
		t.CreatedAt, _ = ParseTime(createdAt)
	}

	if accountID.Valid && accountID.String != "" {
		id := accountID.String
		t.SecuritiesAccountID = &id
	}
	t.Currency = nullString(currency)
	if t.Currency == "" {
		t.Currency = "TWD"
	}
	t.BuyReason = nullString(why)
	t.AccountName = nullString(accountName)
	t.BrokerName = nullString(brokerName)
	t.MarketType = nullString(marketType)
	t.ETFType = nullString(etfType)
	t.Industry = nullString(industry)
	return t, nil
}
