package holdings

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/money"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/rates"
)

var (
	one        = decimal.NewFromInt(1)
	oneHundred = decimal.NewFromInt(100)
)

// PriceLookup returns the quote a group should be valued at. A false
// result, or a non-positive price, falls back to the group's last
// transaction price.
type PriceLookup func(g *Group) (model.Quote, bool)

// NoPrices values every group at its last transaction price.
func NoPrices(*Group) (model.Quote, bool) { return model.Quote{}, false }

// valuation is the kind-specific part of a Holding, still in decimals.
type valuation struct {
	quantity    int64
	available   *int64
	costPrice   decimal.Decimal
	holdingCost decimal.Decimal
	marketValue decimal.Decimal
	profitLoss  decimal.Decimal
	interest    decimal.Decimal
	breakEven   decimal.Decimal
	price       decimal.Decimal
}

// Value turns every open group in book into a Holding, ordered by stock
// code, and aggregates the totals. Groups with zero quantity are omitted.
func Value(book *Book, prices PriceLookup, cfg rates.Config, today time.Time) model.HoldingsResult {
	if prices == nil {
		prices = NoPrices
	}

	out := make([]model.Holding, 0, len(book.groups))
	var totalMV, totalCost, totalPL decimal.Decimal

	for _, g := range book.groups {
		if g.Quantity() <= 0 {
			continue
		}

		quote, quoted := prices(g)
		price := g.LastPrice
		source := model.PriceSourceTransaction
		var updatedAt *time.Time
		if quoted && quote.Price > 0 {
			price = money.FromFloat(quote.Price)
			source = quote.Source
			if !quote.UpdatedAt.IsZero() {
				at := quote.UpdatedAt
				updatedAt = &at
			}
		}

		v, ok := valueGroup(g, price, cfg, today)
		if !ok {
			continue
		}

		holdingCost := money.Int(v.holdingCost)
		profitLoss := money.Int(money.RoundInt(v.profitLoss))
		percent := decimal.Zero
		if v.holdingCost.IsPositive() {
			percent = money.Round2(money.FromInt(profitLoss).Mul(oneHundred).Div(v.holdingCost))
		}

		out = append(out, model.Holding{
			SecuritiesAccountID: g.AccountID,
			AccountName:         g.AccountName,
			BrokerName:          g.BrokerName,
			StockCode:           g.Key.Code,
			StockName:           g.StockName,
			MarketType:          g.MarketType,
			Industry:            g.Industry,
			TransactionType:     g.Key.Kind.String(),
			Currency:            g.Currency,
			Quantity:            v.quantity,
			AvailableQuantity:   v.available,
			CostPrice:           money.Float(v.costPrice),
			BreakEvenPrice:      money.Float(v.breakEven),
			CurrentPrice:        money.Float(v.price),
			MarketValue:         money.Float(v.marketValue),
			HoldingCost:         holdingCost,
			ProfitLoss:          profitLoss,
			ProfitLossPercent:   money.Float(percent),
			EstimatedInterest:   money.Float(v.interest),
			PriceSource:         source,
			PriceUpdatedAt:      updatedAt,
		})

		totalMV = totalMV.Add(v.marketValue)
		totalCost = totalCost.Add(money.FromInt(holdingCost))
		totalPL = totalPL.Add(money.FromInt(profitLoss))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StockCode < out[j].StockCode
	})

	stats := model.HoldingStats{
		TotalHoldings:    len(out),
		TotalMarketValue: money.Float(totalMV),
		TotalCost:        money.Int(totalCost),
		TotalProfitLoss:  money.Int(totalPL),
	}
	if totalCost.IsPositive() {
		stats.TotalProfitLossPercent = money.Float(money.Round2(totalPL.Mul(oneHundred).Div(totalCost)))
	}

	return model.HoldingsResult{Data: out, Stats: stats}
}

func valueGroup(g *Group, price decimal.Decimal, cfg rates.Config, today time.Time) (valuation, bool) {
	switch p := g.position.(type) {
	case *cashPosition:
		if g.Key.Domestic {
			return valueDomesticCash(p, price, cfg, g.ETF), true
		}
		return valueForeignCash(p, price, cfg)
	case *financingPosition:
		return valueFinancing(p, price, cfg, g.ETF, today), true
	case *shortPosition:
		return valueShort(p, price, cfg, g.ETF), true
	}
	return valuation{}, false
}

// valueDomesticCash estimates the exit with the undiscounted commission
// and the instrument's transaction tax, both floored to whole TWD on the
// whole-TWD market value.
func valueDomesticCash(p *cashPosition, price decimal.Decimal, cfg rates.Config, etf bool) valuation {
	qty := money.FromInt(p.quantity)
	total := p.priceQty.Add(p.fees)
	costPrice := money.Round4(total.Div(qty))
	if !price.IsPositive() {
		price = costPrice
	}

	feeRate := cfg.FeeRate(etf)
	taxRate := cfg.TransactionTaxRate(etf)

	marketValue := money.Floor2(price.Mul(qty))
	wholeValue := money.RoundInt(marketValue)
	holdingCost := money.RoundInt(total)
	sellFee := money.FloorInt(wholeValue.Mul(feeRate))
	sellTax := money.FloorInt(wholeValue.Mul(taxRate))

	return valuation{
		quantity:    p.quantity,
		costPrice:   costPrice,
		holdingCost: holdingCost,
		marketValue: marketValue,
		profitLoss:  wholeValue.Sub(holdingCost).Sub(sellFee).Sub(sellTax),
		breakEven:   breakEven(costPrice, feeRate, taxRate),
		price:       price,
	}
}

// valueForeignCash values only the orderable shares and charges a flat
// exit cost. Positions with nothing orderable yet are not reported.
func valueForeignCash(p *cashPosition, price decimal.Decimal, cfg rates.Config) (valuation, bool) {
	avail := p.availableQuantity()
	if avail <= 0 {
		return valuation{}, false
	}
	qty := money.FromInt(avail)
	avgCost := p.priceQty.Add(p.fees).Div(money.FromInt(p.quantity))
	holdingCost := money.RoundInt(avgCost.Mul(qty))
	costPrice := money.Round4(holdingCost.Div(qty))
	if !price.IsPositive() {
		price = costPrice
	}

	marketValue := money.Floor2(price.Mul(qty))
	exitCost := money.Floor2(marketValue.Mul(cfg.ForeignExitCostRate))

	return valuation{
		quantity:    avail,
		available:   &avail,
		costPrice:   costPrice,
		holdingCost: holdingCost,
		marketValue: marketValue,
		profitLoss:  money.Floor2(marketValue.Sub(holdingCost.Add(exitCost))),
		breakEven:   money.Round2(costPrice),
		price:       price,
	}, true
}

func valueFinancing(p *financingPosition, price decimal.Decimal, cfg rates.Config, etf bool, today time.Time) valuation {
	qty := money.FromInt(p.quantity)
	lotPriceQty := p.lotPriceQty()
	costPrice := money.Round4(lotPriceQty.Add(p.fees).Div(qty))
	if !price.IsPositive() {
		price = costPrice
	}

	feeRate := cfg.FeeRate(etf)
	taxRate := cfg.TransactionTaxRate(etf)

	marketValue := money.Floor2(price.Mul(qty))
	sellFee := money.Floor2(marketValue.Mul(feeRate))
	sellTax := money.Floor2(marketValue.Mul(taxRate))
	interest := money.Floor2(p.accruedInterest(today, cfg.FinancingInterestRate))
	exit := lotPriceQty.Add(p.fees).Add(sellFee).Add(sellTax).Add(interest)

	return valuation{
		quantity:    p.quantity,
		costPrice:   costPrice,
		holdingCost: money.RoundInt(p.margin.Add(p.fees)),
		marketValue: marketValue,
		profitLoss:  money.Floor2(marketValue.Sub(exit)),
		interest:    interest,
		breakEven:   breakEven(costPrice, feeRate, taxRate, cfg.BreakEvenInterestRate),
		price:       price,
	}
}

// valueShort reports realised cover cost against collateral. Interest on
// the short leg is not accrued.
func valueShort(p *shortPosition, price decimal.Decimal, cfg rates.Config, etf bool) valuation {
	qty := money.FromInt(p.quantity)
	openPriceQty, openFees, collateral := p.openTotals()
	costPrice := money.Round4(openPriceQty.Sub(openFees).Div(qty))
	if !price.IsPositive() {
		price = costPrice
	}

	coverPriceQty, coverFees := p.coverTotals()
	accruedShortInterest := decimal.Zero

	return valuation{
		quantity:    p.quantity,
		costPrice:   costPrice,
		holdingCost: money.RoundInt(p.deposit),
		marketValue: money.Floor2(price.Mul(qty)),
		profitLoss:  money.Floor2(collateral.Add(accruedShortInterest).Sub(coverPriceQty.Add(coverFees))),
		breakEven:   breakEven(costPrice, cfg.FeeRate(etf)),
		price:       price,
	}
}

// breakEven is costPrice / (1 − Σrates), rounded to cents.
func breakEven(costPrice decimal.Decimal, exitRates ...decimal.Decimal) decimal.Decimal {
	factor := one
	for _, r := range exitRates {
		factor = factor.Sub(r)
	}
	if !factor.IsPositive() {
		return money.Round2(costPrice)
	}
	return money.Round2(costPrice.Div(factor))
}
