package holdings

import (
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
)

var today = time.Date(2025, 6, 24, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return today.AddDate(0, 0, -n)
}

type txOpt func(*model.Transaction)

func fee(v float64) txOpt { return func(t *model.Transaction) { t.Fee = v } }

func tax(v float64) txOpt { return func(t *model.Transaction) { t.Tax = v } }

func on(d time.Time) txOpt { return func(t *model.Transaction) { t.TradeDate = d } }

func settled(d time.Time) txOpt {
	return func(t *model.Transaction) { t.SettlementDate = &d }
}

func account(id string) txOpt {
	return func(t *model.Transaction) { t.SecuritiesAccountID = &id; t.AccountName = "acct-" + id }
}

func currency(c string) txOpt { return func(t *model.Transaction) { t.Currency = c } }

func tx(typ, code string, qty int64, price float64, opts ...txOpt) model.Transaction {
	t := model.Transaction{
		ID:              uuid.NewString(),
		TradeDate:       daysAgo(30),
		TransactionType: typ,
		StockCode:       code,
		StockName:       "name-" + code,
		Quantity:        qty,
		Price:           price,
		Currency:        "TWD",
	}
	for _, o := range opts {
		o(&t)
	}
	return t
}

func quoteAt(price float64) PriceLookup {
	return func(*Group) (model.Quote, bool) {
		return model.Quote{Price: price, Source: model.PriceSourceRealtime, UpdatedAt: today}, true
	}
}

func quotes(byCode map[string]float64) PriceLookup {
	return func(g *Group) (model.Quote, bool) {
		p, ok := byCode[g.Key.Code]
		return model.Quote{Price: p, Source: model.PriceSourceClose}, ok
	}
}
