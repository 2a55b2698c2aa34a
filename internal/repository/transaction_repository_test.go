package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/apperrors"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/repository"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/testutil"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

// TestTransactionRepository_ListForHoldings tests ledger reads for valuation.
//
// WHY: The holdings engine folds the ledger in order, so a sell that sorts
// before its buy would corrupt the position. Same-day trades must keep
// insertion order, and the account/code filters must match what the UI sends.
func TestTransactionRepository_ListForHoldings(t *testing.T) {
	ctx := context.Background()

	t.Run("returns empty slice when user has no transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		txns, err := repo.ListForHoldings(ctx, testutil.MakeID(), model.TransactionFilter{})

		require.NoError(t, err)
		assert.NotNil(t, txns)
		assert.Empty(t, txns)
	})

	t.Run("orders by trade date then insertion time", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		user := testutil.MakeID()

		sell := testutil.NewTransaction(user).WithType("sell").WithTradeDate(day(10)).
			WithCreatedAt(time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)).Build(t, db)
		late := testutil.NewTransaction(user).WithTradeDate(day(12)).Build(t, db)
		buy := testutil.NewTransaction(user).WithTradeDate(day(10)).
			WithCreatedAt(time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)).Build(t, db)
		first := testutil.NewTransaction(user).WithTradeDate(day(3)).Build(t, db)

		txns, err := repo.ListForHoldings(ctx, user, model.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, txns, 4)

		assert.Equal(t, []string{first.ID, buy.ID, sell.ID, late.ID},
			[]string{txns[0].ID, txns[1].ID, txns[2].ID, txns[3].ID})
	})

	t.Run("joins account and instrument metadata", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		user := testutil.MakeID()

		account := testutil.NewAccount(user).WithName("Margin").WithBroker("Fubon").Build(t, db)
		testutil.NewInstrument("6488").WithName("環球晶").WithMarketType("上櫃").WithIndustry("半導體業").Build(t, db)
		testutil.NewTransaction(user).WithAccount(account.ID).WithStock("6488", "環球晶").
			WithSettlementDate(day(4)).WithBuyReason("dip").Build(t, db)

		txns, err := repo.ListForHoldings(ctx, user, model.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, txns, 1)

		tx := txns[0]
		require.NotNil(t, tx.SecuritiesAccountID)
		assert.Equal(t, account.ID, *tx.SecuritiesAccountID)
		assert.Equal(t, "Margin", tx.AccountName)
		assert.Equal(t, "Fubon", tx.BrokerName)
		assert.Equal(t, "上櫃", tx.MarketType)
		assert.Equal(t, "半導體業", tx.Industry)
		assert.Equal(t, day(2), tx.TradeDate)
		require.NotNil(t, tx.SettlementDate)
		assert.Equal(t, day(4), *tx.SettlementDate)
		assert.Equal(t, "dip", tx.BuyReason)
		assert.Equal(t, "TWD", tx.Currency)
	})

	t.Run("filters by account, unassigned, code substring and currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		user := testutil.MakeID()
		account := testutil.NewAccount(user).Build(t, db)

		inAccount := testutil.NewTransaction(user).WithAccount(account.ID).Build(t, db)
		unassigned := testutil.NewTransaction(user).WithStock("00878", "國泰永續高股息").Build(t, db)
		foreign := testutil.NewTransaction(user).WithStock("AAPL", "Apple").WithCurrency("USD").Build(t, db)
		testutil.NewTransaction(testutil.MakeID()).Build(t, db) // another user

		byAccount, err := repo.ListForHoldings(ctx, user, model.TransactionFilter{SecuritiesAccountID: account.ID})
		require.NoError(t, err)
		require.Len(t, byAccount, 1)
		assert.Equal(t, inAccount.ID, byAccount[0].ID)

		nullAccount, err := repo.ListForHoldings(ctx, user, model.TransactionFilter{SecuritiesAccountID: "null"})
		require.NoError(t, err)
		assert.Len(t, nullAccount, 2)

		byCode, err := repo.ListForHoldings(ctx, user, model.TransactionFilter{StockCode: "87"})
		require.NoError(t, err)
		require.Len(t, byCode, 1)
		assert.Equal(t, unassigned.ID, byCode[0].ID)

		domestic, err := repo.ListForHoldings(ctx, user, model.TransactionFilter{DomesticOnly: true})
		require.NoError(t, err)
		assert.Len(t, domestic, 2)
		for _, tx := range domestic {
			assert.NotEqual(t, foreign.ID, tx.ID)
		}
	})
}

func TestTransactionRepository_ListUserIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)

	testutil.NewTransaction("user-b").Build(t, db)
	testutil.NewTransaction("user-a").Build(t, db)
	testutil.NewTransaction("user-a").WithStock("0050", "元大台灣50").Build(t, db)
	testutil.NewTransaction("user-c").WithStock("AAPL", "Apple").WithCurrency("USD").Build(t, db)

	ids, err := repo.ListUserIDs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"user-a", "user-b"}, ids)
}

func TestAccountRepository_GetAccount(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewAccountRepository(db)
	account := testutil.NewAccount("owner").WithName("Main").Build(t, db)

	t.Run("returns owned account", func(t *testing.T) {
		got, err := repo.GetAccount(ctx, "owner", account.ID)
		require.NoError(t, err)
		assert.Equal(t, "Main", got.AccountName)
	})

	t.Run("hides another user's account", func(t *testing.T) {
		_, err := repo.GetAccount(ctx, "someone-else", account.ID)
		assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	})
}
