package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/request"
)

// TestParseJSON tests the parseJSON helper function.
// This is an internal test (package handlers, not handlers_test) because
// parseJSON is unexported.
func TestParseJSON(t *testing.T) {
	newReq := func(body string) *http.Request {
		return httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	}

	t.Run("decodes a valid body", func(t *testing.T) {
		req, err := parseJSON[request.ManualPriceRequest](newReq(`{"price": 612.5, "transactionType": "cash"}`))
		require.NoError(t, err)
		require.NotNil(t, req.Price)
		assert.Equal(t, 612.5, *req.Price)
		assert.Equal(t, "cash", req.TransactionType)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := parseJSON[request.ManualPriceRequest](newReq(`{"price": 1, "userId": "x"}`))
		assert.Error(t, err)
	})

	t.Run("rejects empty body", func(t *testing.T) {
		_, err := parseJSON[request.ManualPriceRequest](newReq(""))
		assert.Error(t, err)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		body := `{"transactionType": "` + strings.Repeat("a", maxBodyBytes) + `"}`
		_, err := parseJSON[request.ManualPriceRequest](newReq(body))
		assert.Error(t, err)
	})
}

func TestRequireUser(t *testing.T) {
	w := httptest.NewRecorder()
	_, ok := requireUser(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
