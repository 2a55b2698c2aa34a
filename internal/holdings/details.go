package holdings

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/money"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/rates"
)

// DetailOptions selects which opening transactions LotDetails reports.
type DetailOptions struct {
	// IncludeMargin adds margin-financing buys and margin-short opens to
	// the default cash-buy view.
	IncludeMargin bool
}

type openLot struct {
	index     int
	remaining int64
}

// LotDetails re-derives, per domestic opening transaction, how much of it
// is still open and what that remainder cost. Each group is replayed with
// its own FIFO queue; the trackers used by Value are not involved.
// Rows are ordered newest trade date first, later ledger rows first within
// a date.
func LotDetails(txns []model.Transaction, cfg rates.Config, today time.Time, opts DetailOptions) []model.LotDetail {
	remaining := make(map[int]int64)
	queues := make(map[GroupKey][]openLot)

	for i, t := range txns {
		if !t.IsDomestic() || t.Quantity <= 0 {
			continue
		}
		kind, dir := Classify(t.TransactionType)
		if dir == Unknown || (kind != Cash && !opts.IncludeMargin) {
			continue
		}
		key := KeyOf(t)

		if opens(kind, dir) {
			queues[key] = append(queues[key], openLot{index: i, remaining: t.Quantity})
			remaining[i] = t.Quantity
			continue
		}

		toClose := t.Quantity
		q := queues[key]
		for len(q) > 0 && toClose > 0 {
			head := &q[0]
			if head.remaining <= toClose {
				toClose -= head.remaining
				remaining[head.index] = 0
				q = q[1:]
				continue
			}
			head.remaining -= toClose
			remaining[head.index] = head.remaining
			toClose = 0
		}
		queues[key] = q
	}

	indexes := make([]int, 0, len(remaining))
	for i, qty := range remaining {
		if qty > 0 {
			indexes = append(indexes, i)
		}
	}
	sort.Slice(indexes, func(a, b int) bool {
		ta, tb := txns[indexes[a]].TradeDate, txns[indexes[b]].TradeDate
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return indexes[a] > indexes[b]
	})

	out := make([]model.LotDetail, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, lotDetail(txns[i], remaining[i], cfg, today))
	}
	return out
}

func opens(kind Kind, dir Direction) bool {
	if kind == MarginShort {
		return dir == Sell
	}
	return dir == Buy
}

func lotDetail(t model.Transaction, remaining int64, cfg rates.Config, today time.Time) model.LotDetail {
	kind, _ := Classify(t.TransactionType)
	etf := rates.IsETF(t.StockCode, t.ETFType)
	price := money.FromFloat(t.Price)
	priceQty := money.Floor2(price.Mul(money.FromInt(remaining)))
	share := func(amount float64) decimal.Decimal {
		return money.Prorate(money.FromFloat(amount), remaining, t.Quantity)
	}

	d := model.LotDetail{
		ID:                  t.ID,
		SecuritiesAccountID: t.SecuritiesAccountID,
		AccountName:         t.AccountName,
		TransactionType:     kind.String(),
		StockCode:           t.StockCode,
		StockName:           t.StockName,
		TradeDate:           t.TradeDate,
		Quantity:            remaining,
		OriginalQuantity:    t.Quantity,
		Price:               t.Price,
		Currency:            "TWD",
		BuyReason:           t.BuyReason,
	}
	if d.AccountName == "" {
		d.AccountName = "-"
	}

	switch kind {
	case Cash:
		fee := money.Floor2(priceQty.Mul(cfg.BuyFeeRate(etf)))
		if t.Fee != 0 {
			fee = money.Floor2(share(t.Fee))
		}
		d.HoldingCost = money.Int(money.RoundInt(priceQty.Add(fee)))

	case MarginFinancing:
		financed := FinancingAmount(price, remaining, cfg.FinancingRatio)
		fee := money.Floor2(priceQty.Mul(cfg.BuyFeeRate(etf)))
		if t.Fee != 0 {
			fee = money.Round2(share(t.Fee))
		}
		d.HoldingCost = money.Int(money.RoundInt(priceQty.Sub(financed).Add(fee)))
		if t.SettlementDate != nil {
			if days := WholeDaysBetween(*t.SettlementDate, today); days > 0 {
				d.EstimatedInterest = money.Float(Interest(financed, cfg.FinancingInterestRate, days))
			}
		}
		figure := money.Float(financed)
		d.FinancingAmountOrCollateral = &figure

	case MarginShort:
		d.HoldingCost = money.Int(money.RoundInt(ShortDeposit(price, remaining, cfg.ShortDepositRatio)))
		fees := share(t.Fee).Add(share(t.Tax + t.SecuritiesTax)).Add(share(t.BorrowingFee))
		figure := money.Float(money.Floor2(priceQty.Sub(money.Floor2(fees))))
		d.FinancingAmountOrCollateral = &figure
	}

	return d
}
