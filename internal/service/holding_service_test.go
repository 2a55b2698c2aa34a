package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/apperrors"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/pricing"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/service"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/testutil"
)

// TestHoldingService_GetHoldings tests valuation of a stored ledger.
//
// WHY: This is the path every holdings request takes: ledger, fee settings
// and manual prices come from the database, quotes from the oracle. A
// broker-statement position (1000 x 2330 @ 899, fee 1000, quote 1000) must
// come out at the statement's figures regardless of where each input lives.
func TestHoldingService_GetHoldings(t *testing.T) {
	ctx := context.Background()
	user := "user-1"

	t.Run("returns empty result when ledger is empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		oracle := testutil.NewFakeOracle(nil)
		svc := testutil.NewTestHoldingService(t, db, oracle)

		result, err := svc.GetHoldings(ctx, user, service.HoldingsQuery{})

		require.NoError(t, err)
		assert.NotNil(t, result.Data)
		assert.Empty(t, result.Data)
		assert.Equal(t, 0, result.Stats.TotalHoldings)
		assert.Empty(t, oracle.Requests(), "nothing to price")
	})

	t.Run("values a cash position at the oracle quote", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		account := testutil.NewAccount(user).WithName("Main").WithBroker("Fubon").Build(t, db)
		testutil.NewInstrument("2330").WithName("台積電").WithIndustry("半導體業").Build(t, db)
		testutil.NewTransaction(user).WithAccount(account.ID).WithFee(1000).Build(t, db)
		oracle := testutil.NewFakeOracle(map[string]float64{"2330": 1000})
		svc := testutil.NewTestHoldingService(t, db, oracle)

		result, err := svc.GetHoldings(ctx, user, service.HoldingsQuery{})
		require.NoError(t, err)
		require.Len(t, result.Data, 1)

		h := result.Data[0]
		assert.Equal(t, int64(1000), h.Quantity)
		assert.Equal(t, 900.0, h.CostPrice)
		assert.Equal(t, int64(900000), h.HoldingCost)
		assert.Equal(t, 1000.0, h.CurrentPrice)
		assert.Equal(t, 1000000.0, h.MarketValue)
		assert.Equal(t, int64(95575), h.ProfitLoss)
		assert.Equal(t, 10.62, h.ProfitLossPercent)
		assert.Equal(t, model.PriceSourceRealtime, h.PriceSource)
		assert.Equal(t, "Main", h.AccountName)
		assert.Equal(t, "Fubon", h.BrokerName)
		assert.Equal(t, "半導體業", h.Industry)

		assert.Equal(t, 1, result.Stats.TotalHoldings)
		assert.Equal(t, int64(95575), result.Stats.TotalProfitLoss)

		require.Len(t, oracle.Requests(), 1)
		assert.Equal(t, []pricing.Request{{Code: "2330", MarketHint: "上市"}}, oracle.Requests()[0])
	})

	t.Run("falls back to the last transaction price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTransaction(user).WithFee(1000).Build(t, db)
		svc := testutil.NewTestHoldingService(t, db, testutil.NewFakeOracle(nil))

		result, err := svc.GetHoldings(ctx, user, service.HoldingsQuery{})
		require.NoError(t, err)
		require.Len(t, result.Data, 1)

		assert.Equal(t, 899.0, result.Data[0].CurrentPrice)
		assert.Equal(t, model.PriceSourceTransaction, result.Data[0].PriceSource)
	})

	t.Run("passes the refresh flag to the oracle", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTransaction(user).Build(t, db)
		oracle := testutil.NewFakeOracle(map[string]float64{"2330": 1000})
		svc := testutil.NewTestHoldingService(t, db, oracle)

		_, err := svc.GetHoldings(ctx, user, service.HoldingsQuery{Refresh: true})
		require.NoError(t, err)

		assert.Equal(t, []bool{true}, oracle.Refreshes())
	})

	t.Run("applies the user's fee settings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTransaction(user).WithFee(1000).Build(t, db)
		testutil.SetFeeSettings(t, db, user, `{"taxRate":0.15}`)
		svc := testutil.NewTestHoldingService(t, db, testutil.NewFakeOracle(map[string]float64{"2330": 1000}))

		result, err := svc.GetHoldings(ctx, user, service.HoldingsQuery{})
		require.NoError(t, err)
		require.Len(t, result.Data, 1)

		// exit tax 1500 instead of 3000
		assert.Equal(t, int64(97075), result.Data[0].ProfitLoss)
	})

	t.Run("malformed fee settings fall back to defaults", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTransaction(user).WithFee(1000).Build(t, db)
		testutil.SetFeeSettings(t, db, user, `not json`)
		svc := testutil.NewTestHoldingService(t, db, testutil.NewFakeOracle(map[string]float64{"2330": 1000}))

		result, err := svc.GetHoldings(ctx, user, service.HoldingsQuery{})
		require.NoError(t, err)
		require.Len(t, result.Data, 1)

		assert.Equal(t, int64(95575), result.Data[0].ProfitLoss)
	})

	t.Run("filters by account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		account := testutil.NewAccount(user).Build(t, db)
		testutil.NewTransaction(user).WithAccount(account.ID).Build(t, db)
		testutil.NewTransaction(user).WithStock("0050", "元大台灣50").WithPrice(59.76).Build(t, db)
		svc := testutil.NewTestHoldingService(t, db, testutil.NewFakeOracle(nil))

		result, err := svc.GetHoldings(ctx, user, service.HoldingsQuery{SecuritiesAccountID: "null"})
		require.NoError(t, err)
		require.Len(t, result.Data, 1)

		assert.Equal(t, "0050", result.Data[0].StockCode)
		assert.Nil(t, result.Data[0].SecuritiesAccountID)
	})
}

// TestHoldingService_ManualPrice tests manual price overrides end to end.
//
// WHY: A manual price is how users value instruments the oracle cannot
// price. It must win over a live quote, evict that code's cached quote,
// and disappear cleanly when removed.
func TestHoldingService_ManualPrice(t *testing.T) {
	ctx := context.Background()
	user := "user-1"

	t.Run("manual price takes precedence over the oracle", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTransaction(user).WithFee(1000).Build(t, db)
		oracle := testutil.NewFakeOracle(map[string]float64{"2330": 950})
		svc := testutil.NewTestHoldingService(t, db, oracle)

		stored, err := svc.SetManualPrice(ctx, user, model.ManualPrice{
			SecuritiesAccountID: "null",
			StockCode:           "2330",
			Price:               1000.004,
		})
		require.NoError(t, err)
		assert.Equal(t, 1000.0, stored.Price)
		assert.Equal(t, model.KindCash, stored.TransactionType)
		assert.True(t, testutil.TradingNow.Equal(stored.UpdatedAt))
		assert.Equal(t, []string{"2330"}, oracle.Invalidated())

		result, err := svc.GetHoldings(ctx, user, service.HoldingsQuery{})
		require.NoError(t, err)
		require.Len(t, result.Data, 1)

		h := result.Data[0]
		assert.Equal(t, 1000.0, h.CurrentPrice)
		assert.Equal(t, model.PriceSourceManual, h.PriceSource)
		assert.Equal(t, int64(95575), h.ProfitLoss)
		require.NotNil(t, h.PriceUpdatedAt)
	})

	t.Run("manual price only applies to its own kind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTransaction(user).Build(t, db)
		svc := testutil.NewTestHoldingService(t, db, testutil.NewFakeOracle(map[string]float64{"2330": 950}))

		_, err := svc.SetManualPrice(ctx, user, model.ManualPrice{
			SecuritiesAccountID: "null",
			StockCode:           "2330",
			TransactionType:     model.KindMarginFinancing,
			Price:               1200,
		})
		require.NoError(t, err)

		result, err := svc.GetHoldings(ctx, user, service.HoldingsQuery{})
		require.NoError(t, err)
		require.Len(t, result.Data, 1)
		assert.Equal(t, 950.0, result.Data[0].CurrentPrice)
	})

	t.Run("clearing returns the position to the oracle", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		account := testutil.NewAccount(user).Build(t, db)
		testutil.NewTransaction(user).WithAccount(account.ID).Build(t, db)
		oracle := testutil.NewFakeOracle(map[string]float64{"2330": 950})
		svc := testutil.NewTestHoldingService(t, db, oracle)

		_, err := svc.SetManualPrice(ctx, user, model.ManualPrice{
			SecuritiesAccountID: account.ID,
			StockCode:           "2330",
			Price:               1000,
		})
		require.NoError(t, err)
		require.NoError(t, svc.ClearManualPrice(ctx, user, account.ID, "2330", ""))
		require.NoError(t, svc.ClearManualPrice(ctx, user, account.ID, "2330", ""), "clearing twice succeeds")

		result, err := svc.GetHoldings(ctx, user, service.HoldingsQuery{})
		require.NoError(t, err)
		require.Len(t, result.Data, 1)
		assert.Equal(t, 950.0, result.Data[0].CurrentPrice)
		assert.Equal(t, model.PriceSourceRealtime, result.Data[0].PriceSource)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		foreignAccount := testutil.NewAccount("someone-else").Build(t, db)
		svc := testutil.NewTestHoldingService(t, db, nil)

		tests := []struct {
			name string
			mp   model.ManualPrice
			want error
		}{
			{"zero price", model.ManualPrice{SecuritiesAccountID: "null", StockCode: "2330"}, apperrors.ErrInvalidPrice},
			{"rounds to zero", model.ManualPrice{SecuritiesAccountID: "null", StockCode: "2330", Price: 0.001}, apperrors.ErrInvalidPrice},
			{"missing code", model.ManualPrice{SecuritiesAccountID: "null", Price: 10}, apperrors.ErrInvalidStockCode},
			{"unknown kind", model.ManualPrice{SecuritiesAccountID: "null", StockCode: "2330", TransactionType: "futures", Price: 10}, apperrors.ErrInvalidPositionKind},
			{"unknown account", model.ManualPrice{SecuritiesAccountID: testutil.MakeID(), StockCode: "2330", Price: 10}, apperrors.ErrAccountNotFound},
			{"another user's account", model.ManualPrice{SecuritiesAccountID: foreignAccount.ID, StockCode: "2330", Price: 10}, apperrors.ErrAccountNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.SetManualPrice(ctx, user, tt.mp)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})
}

func TestHoldingService_GetLotDetails(t *testing.T) {
	ctx := context.Background()
	user := "user-1"

	t.Run("returns empty slice when nothing is open", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestHoldingService(t, db, nil)

		details, err := svc.GetLotDetails(ctx, user, service.DetailsQuery{})

		require.NoError(t, err)
		assert.NotNil(t, details)
		assert.Empty(t, details)
	})

	t.Run("lists open domestic lots only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		buy := testutil.NewTransaction(user).WithFee(1000).Build(t, db)
		testutil.NewTransaction(user).WithStock("AAPL", "Apple").WithCurrency("USD").WithPrice(190).WithQuantity(10).Build(t, db)
		svc := testutil.NewTestHoldingService(t, db, nil)

		details, err := svc.GetLotDetails(ctx, user, service.DetailsQuery{})
		require.NoError(t, err)
		require.Len(t, details, 1)

		assert.Equal(t, buy.ID, details[0].ID)
		assert.Equal(t, int64(1000), details[0].Quantity)
		assert.Equal(t, int64(900000), details[0].HoldingCost)
	})

	t.Run("margin lots are opt-in", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTransaction(user).WithType("融資買進").WithFinancing(539000).Build(t, db)
		svc := testutil.NewTestHoldingService(t, db, nil)

		without, err := svc.GetLotDetails(ctx, user, service.DetailsQuery{})
		require.NoError(t, err)
		assert.Empty(t, without)

		with, err := svc.GetLotDetails(ctx, user, service.DetailsQuery{IncludeMargin: true})
		require.NoError(t, err)
		require.Len(t, with, 1)
		assert.Equal(t, model.KindMarginFinancing, with[0].TransactionType)
	})
}

// TestHoldingService_WarmQuotes tests the cache warm-up pass.
//
// WHY: The warm-up job should ask for exactly the codes someone still
// holds. Closed positions and foreign codes would only waste source quota.
func TestHoldingService_WarmQuotes(t *testing.T) {
	ctx := context.Background()

	db := testutil.SetupTestDB(t)
	testutil.NewTransaction("user-a").Build(t, db)
	testutil.NewTransaction("user-b").Build(t, db)
	testutil.NewTransaction("user-b").WithStock("0050", "元大台灣50").Build(t, db)
	testutil.NewTransaction("user-b").WithStock("2603", "長榮").Build(t, db)
	testutil.NewTransaction("user-b").WithStock("2603", "長榮").WithType("sell").WithTradeDate(testutil.TradingNow.AddDate(0, 0, -3)).Build(t, db)
	testutil.NewTransaction("user-c").WithStock("AAPL", "Apple").WithCurrency("USD").Build(t, db)
	oracle := testutil.NewFakeOracle(nil)
	svc := testutil.NewTestHoldingService(t, db, oracle)

	n, err := svc.WarmQuotes(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	require.Len(t, oracle.Requests(), 1)
	codes := []string{}
	for _, r := range oracle.Requests()[0] {
		codes = append(codes, r.Code)
	}
	assert.ElementsMatch(t, []string{"2330", "0050"}, codes)
	assert.Equal(t, []bool{false}, oracle.Refreshes())
}
