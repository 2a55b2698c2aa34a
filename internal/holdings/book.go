package holdings

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/money"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/rates"
)

// position is implemented by *cashPosition, *financingPosition and
// *shortPosition. Valuation switches on the concrete type.
type position interface {
	heldQuantity() int64
}

// Group is the accumulator for one GroupKey.
type Group struct {
	Key GroupKey

	AccountID   *string
	AccountName string
	BrokerName  string
	StockName   string
	MarketType  string
	Industry    string
	Currency    string
	ETF         bool

	// LastPrice is the price of the group's most recent transaction, the
	// fallback when no quote is available.
	LastPrice decimal.Decimal

	position position
}

// Quantity is the group's held quantity.
func (g *Group) Quantity() int64 {
	return g.position.heldQuantity()
}

// Book is the result of scanning a ledger: groups in first-seen order.
type Book struct {
	groups []*Group
	index  map[GroupKey]*Group
}

// Groups returns every group, including those closed to zero.
func (b *Book) Groups() []*Group {
	return b.groups
}

// Group looks up a group by key.
func (b *Book) Group(key GroupKey) (*Group, bool) {
	g, ok := b.index[key]
	return g, ok
}

// Instruments lists the distinct domestic codes with an open position,
// each with the market hint of its first group.
func (b *Book) Instruments() []model.Instrument {
	seen := make(map[string]bool)
	var out []model.Instrument
	for _, g := range b.groups {
		if !g.Key.Domestic || g.Quantity() <= 0 || seen[g.Key.Code] {
			continue
		}
		seen[g.Key.Code] = true
		out = append(out, model.Instrument{Code: g.Key.Code, MarketType: g.MarketType})
	}
	return out
}

// Scan folds a chronologically ordered ledger into position groups.
// today is the market-local calendar date, as returned by Today.
func Scan(txns []model.Transaction, cfg rates.Config, today time.Time) *Book {
	b := &Book{index: make(map[GroupKey]*Group)}
	for _, t := range txns {
		b.apply(t, cfg, today)
	}
	return b
}

func (b *Book) apply(t model.Transaction, cfg rates.Config, today time.Time) {
	kind, dir := Classify(t.TransactionType)
	if dir == Unknown || t.Quantity <= 0 {
		return
	}

	g := b.group(t, kind, cfg)
	g.LastPrice = money.FromFloat(t.Price)
	if t.MarketType != "" {
		g.MarketType = t.MarketType
	}

	price := money.FromFloat(t.Price)
	priceQty := price.Mul(money.FromInt(t.Quantity))
	isToday := SameDay(t.TradeDate, today)

	switch p := g.position.(type) {
	case *cashPosition:
		if dir == Buy {
			p.buy(price, t.Quantity, buyFee(t, priceQty, cfg, g.ETF), t.TradeDate, isToday)
		} else {
			p.sell(t.Quantity, isToday)
		}
	case *financingPosition:
		if dir == Buy {
			p.buy(price, t.Quantity, buyFee(t, priceQty, cfg, g.ETF), settlementOf(t))
		} else {
			p.sell(t.Quantity)
		}
	case *shortPosition:
		if dir == Sell {
			tax := money.FromFloat(t.Tax).Add(money.FromFloat(t.SecuritiesTax))
			borrowing := money.FromFloat(t.BorrowingFee)
			if borrowing.IsZero() {
				borrowing = money.Floor2(priceQty.Mul(cfg.BorrowingFeeRate))
			}
			p.open(price, t.Quantity, money.FromFloat(t.Fee), tax, borrowing, settlementOf(t))
		} else {
			p.cover(price, t.Quantity, money.FromFloat(t.Fee))
		}
	}
}

func (b *Book) group(t model.Transaction, kind Kind, cfg rates.Config) *Group {
	key := GroupKey{Account: t.AccountKey(), Code: t.StockCode, Kind: kind, Domestic: t.IsDomestic()}
	if g, ok := b.index[key]; ok {
		return g
	}

	currency := t.Currency
	if currency == "" {
		currency = "TWD"
	}
	g := &Group{
		Key:         key,
		AccountID:   t.SecuritiesAccountID,
		AccountName: t.AccountName,
		BrokerName:  t.BrokerName,
		StockName:   t.StockName,
		MarketType:  t.MarketType,
		Industry:    t.Industry,
		Currency:    currency,
		ETF:         rates.IsETF(t.StockCode, t.ETFType),
	}
	switch kind {
	case MarginFinancing:
		g.position = &financingPosition{ratio: cfg.FinancingRatio}
	case MarginShort:
		g.position = &shortPosition{ratio: cfg.ShortDepositRatio}
	default:
		g.position = &cashPosition{}
	}

	b.index[key] = g
	b.groups = append(b.groups, g)
	return g
}

// buyFee is the recorded fee, or the discounted commission when the
// ledger row carries none.
func buyFee(t model.Transaction, priceQty decimal.Decimal, cfg rates.Config, etf bool) decimal.Decimal {
	if t.Fee != 0 {
		return money.FromFloat(t.Fee)
	}
	return money.Floor2(priceQty.Mul(cfg.BuyFeeRate(etf)))
}

func settlementOf(t model.Transaction) time.Time {
	if t.SettlementDate != nil && !t.SettlementDate.IsZero() {
		return *t.SettlementDate
	}
	return t.TradeDate
}

// Today returns the calendar date of now in loc, as midnight UTC so it
// compares directly with ledger dates.
func Today(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay compares calendar dates, ignoring time of day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WholeDaysBetween is the absolute number of whole days between two dates.
func WholeDaysBetween(from, to time.Time) int64 {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	days := int64(b.Sub(a).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
