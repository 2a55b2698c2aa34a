package holdings

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/money"
)

var daysPerYear = decimal.NewFromInt(365)

// financingLot is a margin-financing purchase kept for interest accrual.
type financingLot struct {
	Quantity        int64
	Price           decimal.Decimal
	SettlementDate  time.Time
	FinancingAmount decimal.Decimal
}

// financingPosition tracks a leveraged long position. Sales scale the
// running totals proportionally instead of retiring lots at their own cost;
// the lot list is only trimmed oldest-first so interest follows the shares
// still open.
type financingPosition struct {
	quantity  int64
	margin    decimal.Decimal
	fees      decimal.Decimal
	financing decimal.Decimal
	lots      []financingLot

	ratio decimal.Decimal
}

// FinancingAmount is the broker loan for a purchase: price·qty·ratio,
// floored to whole thousands of TWD.
func FinancingAmount(price decimal.Decimal, qty int64, ratio decimal.Decimal) decimal.Decimal {
	return money.FloorToThousand(price.Mul(money.FromInt(qty)).Mul(ratio))
}

// Interest accrues simple interest on a financed amount for whole days.
func Interest(amount, annualRate decimal.Decimal, days int64) decimal.Decimal {
	return money.Floor2(amount.Mul(annualRate).Mul(money.FromInt(days)).Div(daysPerYear))
}

func (p *financingPosition) buy(price decimal.Decimal, qty int64, fee decimal.Decimal, settlement time.Time) {
	priceQty := price.Mul(money.FromInt(qty))
	financed := FinancingAmount(price, qty, p.ratio)

	p.quantity += qty
	p.margin = p.margin.Add(priceQty.Sub(financed))
	p.fees = p.fees.Add(fee)
	p.financing = p.financing.Add(financed)
	p.lots = append(p.lots, financingLot{
		Quantity:        qty,
		Price:           price,
		SettlementDate:  settlement,
		FinancingAmount: financed,
	})
}

func (p *financingPosition) sell(qty int64) {
	removed := min(qty, p.quantity)
	if removed <= 0 {
		return
	}
	keep := money.Ratio(p.quantity-removed, p.quantity)
	p.quantity -= removed
	p.margin = money.Floor2(p.margin.Mul(keep))
	p.fees = money.Floor2(p.fees.Mul(keep))
	p.financing = money.Floor2(p.financing.Mul(keep))

	remaining := removed
	kept := make([]financingLot, 0, len(p.lots))
	for _, lot := range p.lots {
		switch {
		case remaining == 0:
			kept = append(kept, lot)
		case lot.Quantity <= remaining:
			remaining -= lot.Quantity
		default:
			lot.Quantity -= remaining
			lot.FinancingAmount = FinancingAmount(lot.Price, lot.Quantity, p.ratio)
			remaining = 0
			kept = append(kept, lot)
		}
	}
	p.lots = kept
}

func (p *financingPosition) heldQuantity() int64 {
	return p.quantity
}

// lotPriceQty is Σ price·qty over the lots still open.
func (p *financingPosition) lotPriceQty() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range p.lots {
		total = total.Add(lot.Price.Mul(money.FromInt(lot.Quantity)))
	}
	return total
}

// accruedInterest sums per-lot interest from settlement to today.
func (p *financingPosition) accruedInterest(today time.Time, annualRate decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range p.lots {
		days := WholeDaysBetween(lot.SettlementDate, today)
		if days > 0 {
			total = total.Add(Interest(lot.FinancingAmount, annualRate, days))
		}
	}
	return total
}
