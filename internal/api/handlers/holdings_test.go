package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/response"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/testutil"
)

const testUser = "user-1"

func setupHoldingHandler(t *testing.T, prices map[string]float64) (*HoldingHandler, *sql.DB, *testutil.FakeOracle) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	oracle := testutil.NewFakeOracle(prices)
	return NewHoldingHandler(testutil.NewTestHoldingService(t, db, oracle)), db, oracle
}

func TestHoldingHandler_Holdings(t *testing.T) {
	t.Run("returns 401 without a user", func(t *testing.T) {
		handler, _, _ := setupHoldingHandler(t, nil)

		w := httptest.NewRecorder()
		handler.Holdings(w, httptest.NewRequest(http.MethodGet, "/api/holdings", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("returns empty data for a new user", func(t *testing.T) {
		handler, _, _ := setupHoldingHandler(t, nil)

		w := httptest.NewRecorder()
		handler.Holdings(w, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/holdings", nil), testUser))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"data":[],"stats":{"totalHoldings":0,"totalMarketValue":0,"totalCost":0,"totalProfitLoss":0,"totalProfitLossPercent":0}}`, w.Body.String())
	})

	t.Run("returns valued holdings", func(t *testing.T) {
		handler, db, oracle := setupHoldingHandler(t, map[string]float64{"2330": 1000})
		testutil.NewTransaction(testUser).WithFee(1000).Build(t, db)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/holdings", map[string]string{
			"stockCode": "233",
			"refresh":   "true",
		})
		w := httptest.NewRecorder()
		handler.Holdings(w, testutil.WithUser(req, testUser))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result model.HoldingsResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		require.Len(t, result.Data, 1)
		assert.Equal(t, "2330", result.Data[0].StockCode)
		assert.Equal(t, int64(95575), result.Data[0].ProfitLoss)
		assert.Equal(t, []bool{true}, oracle.Refreshes())
	})

	t.Run("returns 400 for malformed account filter", func(t *testing.T) {
		handler, _, _ := setupHoldingHandler(t, nil)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/holdings", map[string]string{
			"securitiesAccountId": "not-a-uuid",
		})
		w := httptest.NewRecorder()
		handler.Holdings(w, testutil.WithUser(req, testUser))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 500 when the ledger cannot be read", func(t *testing.T) {
		handler, db, _ := setupHoldingHandler(t, nil)
		db.Close()

		w := httptest.NewRecorder()
		handler.Holdings(w, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/holdings", nil), testUser))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHoldingHandler_Details(t *testing.T) {
	t.Run("wraps lots in data", func(t *testing.T) {
		handler, db, _ := setupHoldingHandler(t, nil)
		testutil.NewTransaction(testUser).Build(t, db)
		testutil.NewTransaction(testUser).WithType("融資買進").WithFinancing(539000).Build(t, db)

		w := httptest.NewRecorder()
		handler.Details(w, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/holdings/details", nil), testUser))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp LotDetailsResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Len(t, resp.Data, 1)
	})

	t.Run("include_margin adds margin lots", func(t *testing.T) {
		handler, db, _ := setupHoldingHandler(t, nil)
		testutil.NewTransaction(testUser).Build(t, db)
		testutil.NewTransaction(testUser).WithType("融資買進").WithFinancing(539000).Build(t, db)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/holdings/details", map[string]string{
			"include_margin": "true",
		})
		w := httptest.NewRecorder()
		handler.Details(w, testutil.WithUser(req, testUser))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp LotDetailsResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Len(t, resp.Data, 2)
	})

	t.Run("returns 400 for malformed include_margin", func(t *testing.T) {
		handler, _, _ := setupHoldingHandler(t, nil)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/holdings/details", map[string]string{
			"include_margin": "sometimes",
		})
		w := httptest.NewRecorder()
		handler.Details(w, testutil.WithUser(req, testUser))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestHoldingHandler_SetPrice tests the manual price endpoint.
//
// WHY: The endpoint translates service errors into statuses the UI relies
// on: 400 for input it can correct, 404 for an account that is not the
// caller's.
func TestHoldingHandler_SetPrice(t *testing.T) {
	params := map[string]string{"accountId": "null", "stockCode": "2330"}

	t.Run("stores a rounded price", func(t *testing.T) {
		handler, _, oracle := setupHoldingHandler(t, nil)

		req := testutil.NewJSONRequest(http.MethodPut, "/api/holdings/null/2330/price",
			`{"price": 612.456, "transactionType": "margin_short"}`, params)
		w := httptest.NewRecorder()
		handler.SetPrice(w, testutil.WithUser(req, testUser))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var stored model.ManualPrice
		require.NoError(t, json.NewDecoder(w.Body).Decode(&stored))
		assert.Equal(t, 612.46, stored.Price)
		assert.Equal(t, model.KindMarginShort, stored.TransactionType)
		assert.Equal(t, "null", stored.SecuritiesAccountID)
		assert.Equal(t, []string{"2330"}, oracle.Invalidated())
	})

	tests := []struct {
		name   string
		params map[string]string
		body   string
		status int
	}{
		{"malformed body", params, `{"price":`, http.StatusBadRequest},
		{"unknown field", params, `{"price": 10, "user": "x"}`, http.StatusBadRequest},
		{"missing price", params, `{"transactionType": "cash"}`, http.StatusBadRequest},
		{"negative price", params, `{"price": -1}`, http.StatusBadRequest},
		{"unknown type", params, `{"price": 10, "transactionType": "futures"}`, http.StatusBadRequest},
		{"unknown account", map[string]string{"accountId": testutil.MakeID(), "stockCode": "2330"}, `{"price": 10}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, _ := setupHoldingHandler(t, nil)

			req := testutil.NewJSONRequest(http.MethodPut, "/api/holdings/x/2330/price", tt.body, tt.params)
			w := httptest.NewRecorder()
			handler.SetPrice(w, testutil.WithUser(req, testUser))

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var errResp response.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

func TestHoldingHandler_ClearPrice(t *testing.T) {
	t.Run("returns 204 and evicts the quote", func(t *testing.T) {
		handler, db, oracle := setupHoldingHandler(t, nil)
		account := testutil.NewAccount(testUser).Build(t, db)

		req := testutil.NewRequestWithURLParams(http.MethodDelete, "/api/holdings/"+account.ID+"/2330/price?transactionType=margin_financing",
			map[string]string{"accountId": account.ID, "stockCode": "2330"})
		w := httptest.NewRecorder()
		handler.ClearPrice(w, testutil.WithUser(req, testUser))

		assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
		assert.Equal(t, []string{"2330"}, oracle.Invalidated())
	})

	t.Run("returns 400 for unknown transactionType", func(t *testing.T) {
		handler, _, _ := setupHoldingHandler(t, nil)

		req := testutil.NewRequestWithURLParams(http.MethodDelete, "/api/holdings/null/2330/price?transactionType=bogus",
			map[string]string{"accountId": "null", "stockCode": "2330"})
		w := httptest.NewRecorder()
		handler.ClearPrice(w, testutil.WithUser(req, testUser))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 404 for another user's account", func(t *testing.T) {
		handler, db, _ := setupHoldingHandler(t, nil)
		account := testutil.NewAccount("someone-else").Build(t, db)

		req := testutil.NewRequestWithURLParams(http.MethodDelete, "/api/holdings/"+account.ID+"/2330/price",
			map[string]string{"accountId": account.ID, "stockCode": "2330"})
		w := httptest.NewRecorder()
		handler.ClearPrice(w, testutil.WithUser(req, testUser))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
