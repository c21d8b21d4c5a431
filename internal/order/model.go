package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/events"
	"github.com/noah-isme/toko-checkout/internal/money"
)

// Address is the shipping destination captured at checkout. Email is the
// contact address used for order notifications.
type Address struct {
	Name       string `json:"name" validate:"required,max=200"`
	Phone      string `json:"phone" validate:"required,max=32"`
	Email      string `json:"email" validate:"omitempty,email"`
	Line1      string `json:"line1" validate:"required,max=300"`
	Line2      string `json:"line2,omitempty" validate:"max=300"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=16"`
	Country    string `json:"country" validate:"omitempty,len=2"`
}

// ItemView is one order line.
type ItemView struct {
	VariantID uuid.UUID   `json:"variant_id"`
	ProductID uuid.UUID   `json:"product_id"`
	Quantity  int32       `json:"quantity"`
	UnitPrice money.Money `json:"unit_price"`
	LineTotal money.Money `json:"line_total"`
}

// View is the API representation of an order.
type View struct {
	ID              uuid.UUID         `json:"id"`
	UserID          string            `json:"user_id"`
	Status          dbgen.OrderStatus `json:"status"`
	Currency        string            `json:"currency"`
	Subtotal        money.Money       `json:"subtotal"`
	DiscountAmount  money.Money       `json:"discount_amount"`
	ShippingAmount  money.Money       `json:"shipping_amount"`
	TaxAmount       money.Money       `json:"tax_amount"`
	Total           money.Money       `json:"total"`
	CouponCode      *string           `json:"coupon_code"`
	ShippingAddress Address           `json:"shipping_address"`
	Items           []ItemView        `json:"items,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ToView assembles the view of a stored order and its items.
func ToView(o dbgen.Order, items []dbgen.OrderItem) View {
	v := View{
		ID:             o.ID,
		UserID:         o.UserID,
		Status:         o.Status,
		Currency:       o.Currency,
		Subtotal:       money.Money(o.Subtotal),
		DiscountAmount: money.Money(o.DiscountAmount),
		ShippingAmount: money.Money(o.ShippingAmount),
		TaxAmount:      money.Money(o.TaxAmount),
		Total:          money.Money(o.Total),
		CreatedAt:      o.CreatedAt.Time,
		UpdatedAt:      o.UpdatedAt.Time,
	}
	if o.CouponCode.Valid {
		code := o.CouponCode.String
		v.CouponCode = &code
	}
	if len(o.ShippingAddress) > 0 {
		_ = json.Unmarshal(o.ShippingAddress, &v.ShippingAddress)
	}
	for _, it := range items {
		v.Items = append(v.Items, ItemView{
			VariantID: it.VariantID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: money.Money(it.UnitPrice),
			LineTotal: money.Money(it.LineTotal),
		})
	}
	return v
}

// Payload builds the event body for an order.
func (v View) Payload() events.OrderPayload {
	p := events.OrderPayload{
		OrderID:  v.ID.String(),
		UserID:   v.UserID,
		Status:   string(v.Status),
		Total:    v.Total.Int64(),
		Currency: v.Currency,
		Email:    v.ShippingAddress.Email,
	}
	if v.CouponCode != nil {
		p.CouponCode = *v.CouponCode
	}
	return p
}
