package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *FinanceClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFinanceClientWithBaseURL(srv.URL, srv.Client())
}

// TestQueryQuote covers parsing of the chart metadata block.
//
// WHY: only meta.regularMarketPrice is used as the live price; a listing
// that has not traded today still has a previous close that is better
// than nothing, while an envelope error must not be read as price 0.
func TestQueryQuote(t *testing.T) {
	t.Run("regular market price", func(t *testing.T) {
		var gotPath, gotQuery string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"2330.TW","currency":"TWD",
				"regularMarketPrice":1085.0,"previousClose":1070.0,"regularMarketTime":1750740000}}],"error":null}}`))
		})

		q, err := client.QueryQuote(context.Background(), "2330.TW")
		require.NoError(t, err)

		assert.Equal(t, "/2330.TW", gotPath)
		assert.Equal(t, "interval=1m&range=1d", gotQuery)
		assert.Equal(t, 1085.0, q.Price)
		assert.Equal(t, 1070.0, q.PreviousClose)
		assert.Equal(t, "TWD", q.Currency)
		assert.Equal(t, time.Unix(1750740000, 0).UTC(), q.MarketTime)
	})

	t.Run("previous close when no trade", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"6488.TWO","chartPreviousClose":512.0}}]}}`))
		})

		q, err := client.QueryQuote(context.Background(), "6488.TWO")
		require.NoError(t, err)
		assert.Equal(t, 512.0, q.Price)
		assert.True(t, q.MarketTime.IsZero())
	})

	t.Run("api error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
		})

		_, err := client.QueryQuote(context.Background(), "9999.TW")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delisted")
	})

	t.Run("no price", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"1234.TW"}}]}}`))
		})

		_, err := client.QueryQuote(context.Background(), "1234.TW")
		assert.Error(t, err)
	})

	t.Run("server error without json", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		})

		_, err := client.QueryQuote(context.Background(), "2330.TW")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "2330.TW", Symbol("2330", false))
	assert.Equal(t, "6488.TWO", Symbol("6488", true))
}
