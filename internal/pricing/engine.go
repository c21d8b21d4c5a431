package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/money"
)

// Policy holds the storefront charges applied on top of the discounted subtotal.
type Policy struct {
	FlatShippingFee money.Money
	// FreeShippingThreshold waives shipping when the subtotal is strictly
	// greater than it. Zero disables free shipping.
	FreeShippingThreshold money.Money
	// TaxPercent is a percentage, 18 for 18% GST.
	TaxPercent decimal.Decimal
}

// Breakdown is the full price of an order.
type Breakdown struct {
	Subtotal           money.Money `json:"subtotal"`
	Discount           money.Money `json:"discount"`
	DiscountedSubtotal money.Money `json:"discounted_subtotal"`
	Shipping           money.Money `json:"shipping"`
	Tax                money.Money `json:"tax"`
	Total              money.Money `json:"total"`
}

// Line is a priced cart line.
type Line struct {
	UnitPrice money.Money
	Quantity  money.Quantity
}

// Subtotal sums price times quantity over lines with overflow guards.
func Subtotal(lines []Line) (money.Money, error) {
	var subtotal money.Money
	for i, l := range lines {
		lineTotal, err := l.UnitPrice.MulQty(l.Quantity)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", i, err)
		}
		if subtotal, err = subtotal.Add(lineTotal); err != nil {
			return 0, fmt.Errorf("line %d: %w", i, err)
		}
	}
	return subtotal, nil
}

// Compute derives shipping, tax and the total for a subtotal and an already
// clamped discount.
func Compute(subtotal, discount money.Money, p Policy) (Breakdown, error) {
	discounted, err := subtotal.Sub(discount)
	if err != nil {
		return Breakdown{}, fmt.Errorf("discount exceeds subtotal: %w", err)
	}
	shipping := p.shippingFor(subtotal)
	tax, err := discounted.Percent(p.TaxPercent)
	if err != nil {
		return Breakdown{}, fmt.Errorf("tax: %w", err)
	}
	total, err := discounted.Add(shipping)
	if err != nil {
		return Breakdown{}, err
	}
	if total, err = total.Add(tax); err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		Subtotal:           subtotal,
		Discount:           discount,
		DiscountedSubtotal: discounted,
		Shipping:           shipping,
		Tax:                tax,
		Total:              total,
	}, nil
}

func (p Policy) shippingFor(subtotal money.Money) money.Money {
	if subtotal == 0 {
		return 0
	}
	if p.FreeShippingThreshold > 0 && subtotal > p.FreeShippingThreshold {
		return 0
	}
	return p.FlatShippingFee
}
