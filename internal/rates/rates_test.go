package rates

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s: got %s want %s", msg, got, want)
}

// TestResolve covers default filling and the legacy discount rules.
//
// WHY: the stored settings blob has changed shape over time. Older users
// only have feeDiscount, some have no blob at all, and a partially filled
// blob must never leave a zero or missing rate in the resolved config.
func TestResolve(t *testing.T) {
	t.Run("empty settings resolve to defaults", func(t *testing.T) {
		cfg := Resolve(Settings{})

		assert.Equal(t, ConfigVersion, cfg.Version)
		assertDec(t, "0.001425", cfg.BaseFeeRate, "base fee")
		assertDec(t, "0.001425", cfg.ETFFeeRate, "etf fee")
		assertDec(t, "0.6", cfg.BuyDiscount, "buy discount")
		assertDec(t, "0.6", cfg.SellDiscount, "sell discount")
		assertDec(t, "0.003", cfg.TaxRate, "tax")
		assertDec(t, "0.001", cfg.ETFTaxRate, "etf tax")
		assertDec(t, "20", cfg.MinimumFee, "minimum fee")
	})

	t.Run("legacy feeDiscount seeds both discounts", func(t *testing.T) {
		cfg := Resolve(Settings{FeeDiscount: f(0.28)})

		assertDec(t, "0.28", cfg.BuyDiscount, "buy discount")
		assertDec(t, "0.28", cfg.SellDiscount, "sell discount")
	})

	t.Run("split discounts win over legacy feeDiscount", func(t *testing.T) {
		cfg := Resolve(Settings{FeeDiscount: f(0.28), BuyFeeDiscount: f(0.5)})

		assertDec(t, "0.5", cfg.BuyDiscount, "buy discount")
		assertDec(t, "0.6", cfg.SellDiscount, "sell discount keeps default")
	})

	t.Run("etf fee falls back to the given base fee", func(t *testing.T) {
		cfg := Resolve(Settings{BaseFeeRate: f(0.1)})

		assertDec(t, "0.001", cfg.BaseFeeRate, "base fee")
		assertDec(t, "0.001", cfg.ETFFeeRate, "etf fee")
	})

	t.Run("etf tax never inherits the general tax", func(t *testing.T) {
		cfg := Resolve(Settings{TaxRate: f(0.15)})

		assertDec(t, "0.0015", cfg.TaxRate, "tax")
		assertDec(t, "0.001", cfg.ETFTaxRate, "etf tax")
	})

	t.Run("non-positive values are treated as absent", func(t *testing.T) {
		cfg := Resolve(Settings{TaxRate: f(0), BaseFeeRate: f(-1)})

		assertDec(t, "0.003", cfg.TaxRate, "tax")
		assertDec(t, "0.001425", cfg.BaseFeeRate, "base fee")
	})
}

func TestConfigRates(t *testing.T) {
	cfg := Resolve(Settings{ETFFeeRate: f(0.1), BuyFeeDiscount: f(0.5), SellFeeDiscount: f(0.4)})

	assertDec(t, "0.001425", cfg.FeeRate(false), "stock fee")
	assertDec(t, "0.001", cfg.FeeRate(true), "etf fee")
	assertDec(t, "0.0007125", cfg.BuyFeeRate(false), "stock buy fee")
	assertDec(t, "0.0004", cfg.SellFeeRate(true), "etf sell fee")
	assertDec(t, "0.003", cfg.TransactionTaxRate(false), "stock tax")
	assertDec(t, "0.001", cfg.TransactionTaxRate(true), "etf tax")
}

func TestIsETF(t *testing.T) {
	tests := []struct {
		code    string
		etfType string
		want    bool
	}{
		{"0050", "", true},
		{"0057", "", true},
		{"0058", "", false},
		{"006208", "", true},
		{"00878", "", true},
		{"00632R", "", true},
		{"00679B", "", true},
		{"2330", "", false},
		{"2330", "equity", true},
		{"AAPL", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.etfType, func(t *testing.T) {
			assert.Equal(t, tt.want, IsETF(tt.code, tt.etfType))
		})
	}
}
