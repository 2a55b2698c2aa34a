// Package rates resolves a user's stored fee and tax settings into a complete,
// versioned rate configuration. Settings are stored as percentages (0.1425
// means 0.1425 %); the resolved Config carries fractions ready for arithmetic.
package rates

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/money"
)

// ConfigVersion identifies the shape of Config. Bump it when a rule changes
// so cached or persisted configs can be recognised as stale.
const ConfigVersion = 1

// Default settings, expressed as percentages the way the settings screen stores them.
var (
	DefaultBaseFeeRate    = decimal.RequireFromString("0.1425")
	DefaultETFFeeRate     = decimal.RequireFromString("0.1425")
	DefaultBuyDiscount    = decimal.RequireFromString("0.6")
	DefaultSellDiscount   = decimal.RequireFromString("0.6")
	DefaultTaxRate        = decimal.RequireFromString("0.3")
	DefaultETFTaxRate     = decimal.RequireFromString("0.1")
	DefaultMinimumFee     = decimal.NewFromInt(20)
	financingRatio        = decimal.RequireFromString("0.6")
	shortDepositRatio     = decimal.RequireFromString("0.9")
	financingInterestRate = decimal.RequireFromString("0.06")
	borrowingFeeRate      = decimal.RequireFromString("0.001")
	foreignExitCostRate   = decimal.RequireFromString("0.01")
	breakEvenInterestRate = decimal.RequireFromString("0.001")
)

// Settings is the raw, user-editable fee configuration. Every field is
// optional; a nil field falls back to its default during Resolve.
type Settings struct {
	BaseFeeRate     *float64 `json:"baseFeeRate,omitempty"`
	ETFFeeRate      *float64 `json:"etfFeeRate,omitempty"`
	BuyFeeDiscount  *float64 `json:"buyFeeDiscount,omitempty"`
	SellFeeDiscount *float64 `json:"sellFeeDiscount,omitempty"`
	TaxRate         *float64 `json:"taxRate,omitempty"`
	ETFTaxRate      *float64 `json:"etfTaxRate,omitempty"`
	MinFee          *float64 `json:"minFee,omitempty"`

	// FeeDiscount is the pre-split single discount. It only applies when
	// neither BuyFeeDiscount nor SellFeeDiscount is present.
	FeeDiscount *float64 `json:"feeDiscount,omitempty"`
}

// Config is a fully resolved rate configuration. All rates are fractions.
type Config struct {
	Version int

	BaseFeeRate  decimal.Decimal
	ETFFeeRate   decimal.Decimal
	BuyDiscount  decimal.Decimal
	SellDiscount decimal.Decimal
	TaxRate      decimal.Decimal
	ETFTaxRate   decimal.Decimal

	// MinimumFee is the broker's per-order minimum in TWD. It is carried for
	// order-entry estimates; ledger fees are never raised to it.
	MinimumFee decimal.Decimal

	FinancingRatio        decimal.Decimal
	ShortDepositRatio     decimal.Decimal
	FinancingInterestRate decimal.Decimal
	BorrowingFeeRate      decimal.Decimal
	ForeignExitCostRate   decimal.Decimal

	// BreakEvenInterestRate approximates financing interest as a share of
	// the exit price when computing a margin-financing break-even.
	BreakEvenInterestRate decimal.Decimal
}

// Default returns the configuration used when no settings are stored.
func Default() Config {
	return Resolve(Settings{})
}

// Resolve fills every absent or non-positive field with its default and
// converts percentages to fractions. It never fails: any input yields a
// complete Config.
//
// Resolution rules:
//   - ETFFeeRate falls back to BaseFeeRate when only the base is given.
//   - FeeDiscount (legacy) seeds both discounts when neither split discount is set.
//   - ETFTaxRate falls back to its own default, never to TaxRate.
func Resolve(s Settings) Config {
	base := pick(s.BaseFeeRate, DefaultBaseFeeRate)

	etfFee := pick(s.ETFFeeRate, decimal.Zero)
	if etfFee.IsZero() {
		if present(s.BaseFeeRate) {
			etfFee = base
		} else {
			etfFee = DefaultETFFeeRate
		}
	}

	buyDiscount := pick(s.BuyFeeDiscount, DefaultBuyDiscount)
	sellDiscount := pick(s.SellFeeDiscount, DefaultSellDiscount)
	if present(s.FeeDiscount) && !present(s.BuyFeeDiscount) && !present(s.SellFeeDiscount) {
		buyDiscount = decimal.NewFromFloat(*s.FeeDiscount)
		sellDiscount = buyDiscount
	}

	return Config{
		Version:               ConfigVersion,
		BaseFeeRate:           money.Percent(base),
		ETFFeeRate:            money.Percent(etfFee),
		BuyDiscount:           buyDiscount,
		SellDiscount:          sellDiscount,
		TaxRate:               money.Percent(pick(s.TaxRate, DefaultTaxRate)),
		ETFTaxRate:            money.Percent(pick(s.ETFTaxRate, DefaultETFTaxRate)),
		MinimumFee:            pick(s.MinFee, DefaultMinimumFee),
		FinancingRatio:        financingRatio,
		ShortDepositRatio:     shortDepositRatio,
		FinancingInterestRate: financingInterestRate,
		BorrowingFeeRate:      borrowingFeeRate,
		ForeignExitCostRate:   foreignExitCostRate,
		BreakEvenInterestRate: breakEvenInterestRate,
	}
}

// FeeRate is the undiscounted commission rate. Valuation uses it for the
// estimated cost of exiting a position.
func (c Config) FeeRate(etf bool) decimal.Decimal {
	if etf {
		return c.ETFFeeRate
	}
	return c.BaseFeeRate
}

// BuyFeeRate is the discounted commission rate for buys.
func (c Config) BuyFeeRate(etf bool) decimal.Decimal {
	return c.FeeRate(etf).Mul(c.BuyDiscount)
}

// SellFeeRate is the discounted commission rate for sells.
func (c Config) SellFeeRate(etf bool) decimal.Decimal {
	return c.FeeRate(etf).Mul(c.SellDiscount)
}

// TransactionTaxRate is the securities transaction tax charged on a sale.
func (c Config) TransactionTaxRate(etf bool) decimal.Decimal {
	if etf {
		return c.ETFTaxRate
	}
	return c.TaxRate
}

func present(v *float64) bool {
	return v != nil && *v > 0
}

func pick(v *float64, def decimal.Decimal) decimal.Decimal {
	if !present(v) {
		return def
	}
	return decimal.NewFromFloat(*v)
}
