package holdings

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/money"
)

// shortOpen is a margin-short sale. Open lots are never reduced by covers;
// valuation reads them in full.
type shortOpen struct {
	Quantity       int64
	Price          decimal.Decimal
	Fee            decimal.Decimal
	Tax            decimal.Decimal
	BorrowingFee   decimal.Decimal
	Collateral     decimal.Decimal
	SettlementDate time.Time
}

// shortCover is a buy-to-cover.
type shortCover struct {
	Quantity int64
	Price    decimal.Decimal
	Fee      decimal.Decimal
	PriceQty decimal.Decimal
}

type shortPosition struct {
	quantity int64
	deposit  decimal.Decimal
	opens    []shortOpen
	covers   []shortCover

	ratio decimal.Decimal
}

// ShortDeposit is the margin deposit for a short sale: price·qty·ratio,
// rounded up to whole hundreds of TWD.
func ShortDeposit(price decimal.Decimal, qty int64, ratio decimal.Decimal) decimal.Decimal {
	return money.CeilToHundred(price.Mul(money.FromInt(qty)).Mul(ratio))
}

func (p *shortPosition) open(price decimal.Decimal, qty int64, fee, tax, borrowingFee decimal.Decimal, settlement time.Time) {
	priceQty := price.Mul(money.FromInt(qty))
	totalFee := money.Floor2(fee.Add(tax).Add(borrowingFee))

	p.quantity += qty
	p.deposit = p.deposit.Add(ShortDeposit(price, qty, p.ratio))
	p.opens = append(p.opens, shortOpen{
		Quantity:       qty,
		Price:          price,
		Fee:            fee,
		Tax:            tax,
		BorrowingFee:   borrowingFee,
		Collateral:     money.Floor2(priceQty.Sub(totalFee)),
		SettlementDate: settlement,
	})
}

// cover records a buy-to-cover. The cover lot carries the clamped
// quantity but the price·qty of the whole transaction.
func (p *shortPosition) cover(price decimal.Decimal, qty int64, fee decimal.Decimal) {
	removed := min(qty, p.quantity)
	if p.quantity > 0 {
		keep := money.Ratio(p.quantity-removed, p.quantity)
		p.quantity -= removed
		p.deposit = money.Floor2(p.deposit.Mul(keep))
	}
	p.covers = append(p.covers, shortCover{
		Quantity: removed,
		Price:    price,
		Fee:      fee,
		PriceQty: price.Mul(money.FromInt(qty)),
	})
}

func (p *shortPosition) heldQuantity() int64 {
	return p.quantity
}

func (p *shortPosition) openTotals() (priceQty, fees, collateral decimal.Decimal) {
	for _, o := range p.opens {
		priceQty = priceQty.Add(o.Price.Mul(money.FromInt(o.Quantity)))
		fees = fees.Add(o.Fee).Add(o.Tax).Add(o.BorrowingFee)
		collateral = collateral.Add(o.Collateral)
	}
	return priceQty, fees, collateral
}

func (p *shortPosition) coverTotals() (priceQty, fees decimal.Decimal) {
	for _, c := range p.covers {
		priceQty = priceQty.Add(c.PriceQty)
		fees = fees.Add(c.Fee)
	}
	return priceQty, fees
}
