// Package cart keeps session-scoped carts in Redis. Prices stored on lines are
// display snapshots; checkout always re-prices from the catalog.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/money"
)

const maxSessionIDLen = 128

// watchRetries bounds optimistic retries when two requests edit one cart.
const watchRetries = 5

// Line is one cart entry.
type Line struct {
	VariantID uuid.UUID   `json:"variant_id"`
	UnitPrice money.Money `json:"unit_price"`
	Quantity  int32       `json:"quantity"`
}

// Cart is the session cart.
type Cart struct {
	SessionID string      `json:"session_id"`
	Lines     []Line      `json:"lines"`
	Subtotal  money.Money `json:"subtotal"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// VariantLookup resolves variants for price snapshots.
type VariantLookup interface {
	GetVariant(ctx context.Context, id uuid.UUID) (catalog.VariantView, error)
}

// Service encapsulates cart operations.
type Service struct {
	R       *redis.Client
	TTL     time.Duration
	Catalog VariantLookup
	Now     func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func key(session string) string {
	return "cart:" + session
}

func normalizeSession(session string) (string, error) {
	session = strings.TrimSpace(session)
	if session == "" || len(session) > maxSessionIDLen {
		return "", common.Validation("X-Session-ID header is required", nil)
	}
	return session, nil
}

// Get returns the cart of session. A missing cart is an empty cart.
func (s *Service) Get(ctx context.Context, session string) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	session, err := normalizeSession(session)
	if err != nil {
		return Cart{}, err
	}
	return s.load(ctx, s.R, session)
}

// Add puts qty units of variant into the cart, merging with an existing line.
func (s *Service) Add(ctx context.Context, session string, variantID uuid.UUID, qty int) (Cart, error) {
	if _, err := money.NewQuantity(qty); err != nil {
		return Cart{}, common.Validation("quantity must be positive", map[string]any{"quantity": qty})
	}
	v, err := s.available(ctx, variantID)
	if err != nil {
		return Cart{}, err
	}
	return s.mutate(ctx, session, func(c *Cart) error {
		for i := range c.Lines {
			if c.Lines[i].VariantID == variantID {
				total, err := money.NewQuantity(int(c.Lines[i].Quantity) + qty)
				if err != nil {
					return common.Validation("quantity too large", map[string]any{"variant_id": variantID})
				}
				c.Lines[i].Quantity = int32(total)
				c.Lines[i].UnitPrice = v.Price
				return nil
			}
		}
		c.Lines = append(c.Lines, Line{VariantID: variantID, UnitPrice: v.Price, Quantity: int32(qty)})
		return nil
	})
}

// Update sets the quantity of an existing line. Zero removes the line.
func (s *Service) Update(ctx context.Context, session string, variantID uuid.UUID, qty int) (Cart, error) {
	if qty < 0 {
		return Cart{}, common.Validation("quantity cannot be negative", map[string]any{"quantity": qty})
	}
	if qty == 0 {
		return s.Remove(ctx, session, variantID)
	}
	if _, err := money.NewQuantity(qty); err != nil {
		return Cart{}, common.Validation("quantity too large", map[string]any{"quantity": qty})
	}
	return s.mutate(ctx, session, func(c *Cart) error {
		for i := range c.Lines {
			if c.Lines[i].VariantID == variantID {
				c.Lines[i].Quantity = int32(qty)
				return nil
			}
		}
		return common.ErrNotFound.With("variant is not in the cart", map[string]any{"variant_id": variantID})
	})
}

// Remove drops a line from the cart.
func (s *Service) Remove(ctx context.Context, session string, variantID uuid.UUID) (Cart, error) {
	return s.mutate(ctx, session, func(c *Cart) error {
		for i := range c.Lines {
			if c.Lines[i].VariantID == variantID {
				c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
				return nil
			}
		}
		return common.ErrNotFound.With("variant is not in the cart", map[string]any{"variant_id": variantID})
	})
}

// Clear deletes the cart.
func (s *Service) Clear(ctx context.Context, session string) error {
	if s == nil || s.R == nil {
		return errors.New("cart service not configured")
	}
	session, err := normalizeSession(session)
	if err != nil {
		return err
	}
	return s.R.Del(ctx, key(session)).Err()
}

func (s *Service) available(ctx context.Context, id uuid.UUID) (catalog.VariantView, error) {
	if s.Catalog == nil {
		return catalog.VariantView{}, errors.New("cart: catalog not configured")
	}
	v, err := s.Catalog.GetVariant(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return catalog.VariantView{}, common.ErrVariantUnavailable.With("", map[string]any{"variant_ids": []uuid.UUID{id}})
		}
		return catalog.VariantView{}, err
	}
	if !v.Available() {
		return catalog.VariantView{}, common.ErrVariantUnavailable.With("", map[string]any{"variant_ids": []uuid.UUID{id}})
	}
	return v, nil
}

// mutate applies fn under WATCH so concurrent edits of one cart never lose
// updates.
func (s *Service) mutate(ctx context.Context, session string, fn func(*Cart) error) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	session, err := normalizeSession(session)
	if err != nil {
		return Cart{}, err
	}
	k := key(session)
	var out Cart
	txf := func(tx *redis.Tx) error {
		c, err := s.load(ctx, tx, session)
		if err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		c.UpdatedAt = s.now().UTC()
		c.Subtotal = subtotal(c.Lines)
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode cart: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(c.Lines) == 0 {
				pipe.Del(ctx, k)
				return nil
			}
			pipe.Set(ctx, k, data, s.ttl())
			return nil
		})
		if err == nil {
			out = c
		}
		return err
	}
	for range watchRetries {
		err = s.R.Watch(ctx, txf, k)
		if !errors.Is(err, redis.TxFailedErr) {
			return out, err
		}
	}
	return Cart{}, common.ErrPersistenceConflict.With("cart changed concurrently", nil)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Service) load(ctx context.Context, c getter, session string) (Cart, error) {
	data, err := c.Get(ctx, key(session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Cart{SessionID: session, Lines: []Line{}}, nil
	}
	if err != nil {
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	var out Cart
	if err := json.Unmarshal(data, &out); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	out.SessionID = session
	return out, nil
}

// subtotal is the display total of the snapshot prices. Saturates instead of
// failing; checkout computes the real figure.
func subtotal(lines []Line) money.Money {
	var total money.Money
	for _, l := range lines {
		lt, err := l.UnitPrice.MulQty(money.Quantity(l.Quantity))
		if err != nil {
			continue
		}
		if sum, err := total.Add(lt); err == nil {
			total = sum
		}
	}
	return total
}
