package checkout

import (
	"context"
	"net/http"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/order"
)

// CartReader loads a session cart.
type CartReader interface {
	Get(ctx context.Context, session string) (cart.Cart, error)
}

// Handler serves checkout endpoints.
type Handler struct {
	Svc   *Service
	Carts CartReader
}

type checkoutRequest struct {
	Items           []Line        `json:"items" validate:"omitempty,dive"`
	CouponCode      string        `json:"coupon_code" validate:"max=64"`
	ShippingAddress order.Address `json:"shipping_address"`
}

type quoteRequest struct {
	Items      []Line `json:"items" validate:"omitempty,dive"`
	CouponCode string `json:"coupon_code" validate:"max=64"`
}

// Checkout handles POST /checkout. Without items the session cart is used.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "authentication required", nil)
		return
	}
	var req checkoutRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, err)
		return
	}
	lines, session, err := h.lines(r, req.Items)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.PlaceOrder(r.Context(), Request{
		UserID:          userID,
		Lines:           lines,
		CouponCode:      req.CouponCode,
		ShippingAddress: req.ShippingAddress,
		SessionID:       session,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

// Quote handles POST /checkout/quote and POST /cart/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, err)
		return
	}
	lines, _, err := h.lines(r, req.Items)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Quote(r.Context(), lines, req.CouponCode)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) lines(r *http.Request, items []Line) ([]Line, string, error) {
	if len(items) > 0 {
		return items, "", nil
	}
	session := r.Header.Get(cart.SessionHeader)
	if session == "" || h.Carts == nil {
		return nil, "", common.Validation("items are required when no cart session is given", nil)
	}
	c, err := h.Carts.Get(r.Context(), session)
	if err != nil {
		return nil, "", err
	}
	out := make([]Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, Line{VariantID: l.VariantID, Quantity: int(l.Quantity)})
	}
	if len(out) == 0 {
		return nil, "", common.Validation("cart is empty", nil)
	}
	return out, session, nil
}
