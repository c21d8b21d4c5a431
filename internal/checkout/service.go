// Package checkout places orders: it re-prices the requested lines, applies a
// coupon, reserves stock and records the order in one unit of work.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/coupon"
	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/events"
	"github.com/noah-isme/toko-checkout/internal/inventory"
	"github.com/noah-isme/toko-checkout/internal/money"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/order"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/repo"
)

const maxLines = 100

// Line is a requested variant and quantity.
type Line struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

// Request places an order for UserID.
type Request struct {
	UserID          string
	Lines           []Line
	CouponCode      string
	ShippingAddress order.Address
	// SessionID is set when the lines came from a session cart, which is
	// cleared after a successful placement.
	SessionID string
}

// PricedLine is a line priced from current variant data.
type PricedLine struct {
	VariantID uuid.UUID   `json:"variant_id"`
	ProductID uuid.UUID   `json:"product_id"`
	SKU       string      `json:"sku"`
	Quantity  int32       `json:"quantity"`
	UnitPrice money.Money `json:"unit_price"`
	LineTotal money.Money `json:"line_total"`
}

// Quote is the priced result of a set of lines.
type Quote struct {
	Lines     []PricedLine      `json:"lines"`
	Coupon    *coupon.Result    `json:"coupon,omitempty"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	Currency  string            `json:"currency"`
}

// CartClearer empties a session cart.
type CartClearer interface {
	Clear(ctx context.Context, session string) error
}

// Service is the order placement orchestrator.
type Service struct {
	Store    repo.Store
	Coupons  *coupon.Service
	Policy   pricing.Policy
	Currency string
	// Retries is how many extra attempts a PERSISTENCE_CONFLICT gets.
	Retries int
	Timeout time.Duration
	Events  *events.Bus
	Cart    CartClearer
	Log     zerolog.Logger
}

// PlaceOrder prices and records an order. Either every effect (stock
// decrement, order rows, coupon usage) commits or none does.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (view order.View, err error) {
	if s == nil || s.Store == nil {
		return order.View{}, errors.New("checkout service not configured")
	}
	if req.UserID == "" {
		return order.View{}, common.ErrAuthorizationDenied.With("authentication required", nil)
	}
	if err := common.ValidateStruct(req.ShippingAddress); err != nil {
		return order.View{}, err
	}
	lines, err := merge(req.Lines)
	if err != nil {
		return order.View{}, err
	}
	address, err := json.Marshal(req.ShippingAddress)
	if err != nil {
		return order.View{}, fmt.Errorf("encode address: %w", err)
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		obs.RecordCheckoutLatency(context.WithoutCancel(ctx), time.Since(start), outcome(err))
	}()

	err = repo.Retry(ctx, s.Retries, func() error {
		return s.Store.InTx(ctx, func(q dbgen.Querier) error {
			quote, err := s.quote(ctx, q, lines, req.CouponCode)
			if err != nil {
				return err
			}
			if err := inventory.DecrementMany(ctx, q, quantities(lines)); err != nil {
				return err
			}
			view, err = s.insert(ctx, q, req.UserID, quote, address)
			if err != nil {
				return err
			}
			if quote.Coupon != nil {
				if err := s.Coupons.Redeem(ctx, q, quote.Coupon.CouponID); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		if !common.IsAppError(err) {
			s.Log.Error().Err(err).Str("user_id", req.UserID).Msg("place order failed")
		}
		return order.View{}, err
	}
	obs.CountOrderPlaced()
	s.afterCommit(ctx, view, req.SessionID)
	return view, nil
}

// Quote prices lines and evaluates the coupon without reserving anything.
func (s *Service) Quote(ctx context.Context, reqLines []Line, couponCode string) (Quote, error) {
	if s == nil || s.Store == nil {
		return Quote{}, errors.New("checkout service not configured")
	}
	lines, err := merge(reqLines)
	if err != nil {
		return Quote{}, err
	}
	var out Quote
	err = s.Store.InTx(ctx, func(q dbgen.Querier) error {
		out, err = s.quote(ctx, q, lines, couponCode)
		return err
	})
	return out, err
}

func (s *Service) quote(ctx context.Context, q dbgen.Querier, lines []Line, couponCode string) (Quote, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.VariantID)
	}
	rows, err := q.ListVariantsByIDs(ctx, ids)
	if err != nil {
		return Quote{}, fmt.Errorf("load variants: %w", err)
	}
	byID := make(map[uuid.UUID]dbgen.Variant, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	var unavailable []uuid.UUID
	priced := make([]PricedLine, 0, len(lines))
	pricingLines := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		v, ok := byID[l.VariantID]
		if !ok || v.DeletedAt.Valid || !v.IsActive {
			unavailable = append(unavailable, l.VariantID)
			continue
		}
		unit := money.Money(v.Price)
		lineTotal, err := unit.MulQty(money.Quantity(l.Quantity))
		if err != nil {
			return Quote{}, common.Validation("line total out of range", map[string]any{"variant_id": l.VariantID})
		}
		priced = append(priced, PricedLine{
			VariantID: v.ID,
			ProductID: v.ProductID,
			SKU:       v.Sku,
			Quantity:  int32(l.Quantity),
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
		pricingLines = append(pricingLines, pricing.Line{UnitPrice: unit, Quantity: money.Quantity(l.Quantity)})
	}
	if len(unavailable) > 0 {
		return Quote{}, common.ErrVariantUnavailable.With("", map[string]any{"variant_ids": unavailable})
	}
	subtotal, err := pricing.Subtotal(pricingLines)
	if err != nil {
		return Quote{}, common.Validation("order total out of range", nil)
	}
	out := Quote{Lines: priced, Currency: s.Currency}
	var discount money.Money
	if couponCode != "" {
		if s.Coupons == nil {
			return Quote{}, errors.New("checkout: coupon service not configured")
		}
		res, err := s.Coupons.Validate(ctx, q, couponCode, subtotal)
		if err != nil {
			return Quote{}, err
		}
		out.Coupon = &res
		discount = res.DiscountAmount
	}
	out.Breakdown, err = pricing.Compute(subtotal, discount, s.Policy)
	if err != nil {
		return Quote{}, fmt.Errorf("price order: %w", err)
	}
	return out, nil
}

func (s *Service) insert(ctx context.Context, q dbgen.Querier, userID string, quote Quote, address []byte) (order.View, error) {
	arg := dbgen.CreateOrderParams{
		UserID:          userID,
		Status:          dbgen.OrderStatusPENDING,
		Currency:        s.Currency,
		Subtotal:        quote.Breakdown.Subtotal.Int64(),
		DiscountAmount:  quote.Breakdown.Discount.Int64(),
		ShippingAmount:  quote.Breakdown.Shipping.Int64(),
		TaxAmount:       quote.Breakdown.Tax.Int64(),
		Total:           quote.Breakdown.Total.Int64(),
		ShippingAddress: address,
	}
	if quote.Coupon != nil {
		arg.CouponID = uuid.NullUUID{UUID: quote.Coupon.CouponID, Valid: true}
		arg.CouponCode = pgtype.Text{String: quote.Coupon.Code, Valid: true}
	}
	row, err := q.CreateOrder(ctx, arg)
	if err != nil {
		return order.View{}, fmt.Errorf("create order: %w", err)
	}
	items := make([]dbgen.OrderItem, 0, len(quote.Lines))
	for _, l := range quote.Lines {
		item, err := q.CreateOrderItem(ctx, dbgen.CreateOrderItemParams{
			OrderID:   row.ID,
			VariantID: l.VariantID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.Int64(),
			LineTotal: l.LineTotal.Int64(),
		})
		if err != nil {
			return order.View{}, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}
	return order.ToView(row, items), nil
}

// afterCommit runs the best-effort side effects of a placed order.
func (s *Service) afterCommit(ctx context.Context, v order.View, session string) {
	ctx = context.WithoutCancel(ctx)
	log := s.Log.With().Str("order_id", v.ID.String()).Logger()
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicOrderPlaced, v.ID, v.Payload()); err != nil {
			log.Error().Err(err).Msg("emit order.placed failed")
		}
	}
	if session != "" && s.Cart != nil {
		if err := s.Cart.Clear(ctx, session); err != nil {
			log.Warn().Err(err).Msg("clear cart after checkout failed")
		}
	}
	log.Info().Str("user_id", v.UserID).Int64("total", v.Total.Int64()).Msg("order placed")
}

// merge validates lines and folds duplicates, keeping first-seen order.
func merge(in []Line) ([]Line, error) {
	if len(in) == 0 {
		return nil, common.Validation("at least one line is required", nil)
	}
	if len(in) > maxLines {
		return nil, common.Validation("too many lines", map[string]any{"max": maxLines})
	}
	index := make(map[uuid.UUID]int, len(in))
	out := make([]Line, 0, len(in))
	for _, l := range in {
		if l.VariantID == uuid.Nil {
			return nil, common.Validation("variant_id is required", nil)
		}
		if _, err := money.NewQuantity(l.Quantity); err != nil {
			return nil, common.Validation("quantity must be positive", map[string]any{"variant_id": l.VariantID, "quantity": l.Quantity})
		}
		if i, ok := index[l.VariantID]; ok {
			sum, err := money.NewQuantity(out[i].Quantity + l.Quantity)
			if err != nil {
				return nil, common.Validation("quantity too large", map[string]any{"variant_id": l.VariantID})
			}
			out[i].Quantity = int(sum)
			continue
		}
		index[l.VariantID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

func quantities(lines []Line) map[uuid.UUID]money.Quantity {
	out := make(map[uuid.UUID]money.Quantity, len(lines))
	for _, l := range lines {
		out[l.VariantID] = money.Quantity(l.Quantity)
	}
	return out
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := common.CodeOf(err); code != "" {
		return code
	}
	return "error"
}
