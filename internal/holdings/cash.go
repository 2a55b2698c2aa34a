package holdings

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/money"
)

// Lot is one open purchase in a cash position.
type Lot struct {
	Price     decimal.Decimal
	Quantity  int64
	Fee       decimal.Decimal
	TradeDate time.Time
}

// Retired is the cost removed from a position by a sale.
type Retired struct {
	Quantity int64
	PriceQty decimal.Decimal
	Fee      decimal.Decimal
}

// RetireFIFO consumes qty units from lots oldest-first and returns the lots
// still open together with the cost that left the position. A partially
// consumed lot keeps its unit price; its fee shrinks pro rata. lots is not
// modified. qty beyond the lots' total is ignored.
func RetireFIFO(lots []Lot, qty int64) ([]Lot, Retired) {
	var out Retired
	remaining := qty
	i := 0
	for ; i < len(lots) && remaining > 0; i++ {
		lot := lots[i]
		if lot.Quantity <= remaining {
			out.Quantity += lot.Quantity
			out.PriceQty = out.PriceQty.Add(lot.Price.Mul(money.FromInt(lot.Quantity)))
			out.Fee = out.Fee.Add(lot.Fee)
			remaining -= lot.Quantity
			continue
		}

		fee := money.Prorate(lot.Fee, remaining, lot.Quantity)
		out.Quantity += remaining
		out.PriceQty = out.PriceQty.Add(lot.Price.Mul(money.FromInt(remaining)))
		out.Fee = out.Fee.Add(fee)

		kept := make([]Lot, 0, len(lots)-i)
		kept = append(kept, Lot{
			Price:     lot.Price,
			Quantity:  lot.Quantity - remaining,
			Fee:       lot.Fee.Sub(fee),
			TradeDate: lot.TradeDate,
		})
		return append(kept, lots[i+1:]...), out
	}

	kept := make([]Lot, len(lots)-i)
	copy(kept, lots[i:])
	return kept, out
}

// cashPosition is the FIFO tracker for fully-paid positions.
type cashPosition struct {
	lots     []Lot
	quantity int64
	priceQty decimal.Decimal
	fees     decimal.Decimal

	// Foreign orderability: shares bought today cannot be sold yet.
	totalBought int64
	todayBought int64
	todaySold   int64
}

func (p *cashPosition) buy(price decimal.Decimal, qty int64, fee decimal.Decimal, tradeDate time.Time, today bool) {
	p.lots = append(p.lots, Lot{Price: price, Quantity: qty, Fee: fee, TradeDate: tradeDate})
	p.quantity += qty
	p.priceQty = p.priceQty.Add(price.Mul(money.FromInt(qty)))
	p.fees = p.fees.Add(fee)

	p.totalBought += qty
	if today {
		p.todayBought += qty
	}
}

func (p *cashPosition) sell(qty int64, today bool) {
	var retired Retired
	p.lots, retired = RetireFIFO(p.lots, qty)
	if retired.Quantity == 0 {
		return
	}
	p.quantity -= retired.Quantity
	p.priceQty = p.priceQty.Sub(retired.PriceQty)
	p.fees = p.fees.Sub(retired.Fee)

	if today {
		p.todaySold += retired.Quantity
	}
}

func (p *cashPosition) heldQuantity() int64 {
	return p.quantity
}

// Lots returns a copy of the open lots, oldest first.
func (p *cashPosition) Lots() []Lot {
	out := make([]Lot, len(p.lots))
	copy(out, p.lots)
	return out
}

// availableQuantity is what a foreign position can sell right now.
func (p *cashPosition) availableQuantity() int64 {
	avail := p.totalBought - p.todayBought - p.todaySold
	if avail < 0 {
		return 0
	}
	if avail > p.quantity {
		return p.quantity
	}
	return avail
}
