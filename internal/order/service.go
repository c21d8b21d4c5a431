package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/common"
	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/events"
	"github.com/noah-isme/toko-checkout/internal/inventory"
	"github.com/noah-isme/toko-checkout/internal/money"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/repo"
)

// Service drives the order lifecycle after placement.
type Service struct {
	Store   repo.Store
	Events  *events.Bus
	Retries int
	Log     zerolog.Logger
}

// Transition moves an order to target. Admin only. Cancelling restocks the
// order's items in the same unit of work.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target dbgen.OrderStatus) (View, error) {
	if err := common.RequireAdmin(ctx); err != nil {
		return View{}, err
	}
	if _, ok := ParseStatus(string(target)); !ok {
		return View{}, common.Validation("unknown order status", map[string]any{"status": target})
	}
	return s.transition(ctx, id, target, nil)
}

// CancelOwn lets a customer cancel their own order while it is still PENDING.
func (s *Service) CancelOwn(ctx context.Context, id uuid.UUID) (View, error) {
	caller, ok := common.IdentityFrom(ctx)
	if !ok {
		return View{}, common.ErrAuthorizationDenied.With("authentication required", nil)
	}
	return s.transition(ctx, id, dbgen.OrderStatusCANCELLED, func(o dbgen.Order) error {
		if o.UserID != caller.ID {
			return notFound(id)
		}
		if o.Status != dbgen.OrderStatusPENDING {
			return common.ErrInvalidState.With("only pending orders can be cancelled by the customer", map[string]any{
				"from": o.Status,
				"to":   dbgen.OrderStatusCANCELLED,
			})
		}
		return nil
	})
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, target dbgen.OrderStatus, guard func(dbgen.Order) error) (View, error) {
	var (
		from    dbgen.OrderStatus
		updated View
	)
	err := repo.Retry(ctx, s.Retries, func() error {
		return s.Store.InTx(ctx, func(q dbgen.Querier) error {
			o, err := q.GetOrder(ctx, id)
			if err != nil {
				if repo.IsNoRows(err) {
					return notFound(id)
				}
				return fmt.Errorf("load order: %w", err)
			}
			if guard != nil {
				if err := guard(o); err != nil {
					return err
				}
			}
			if !CanTransition(o.Status, target) {
				return common.ErrInvalidState.With(
					fmt.Sprintf("cannot move order from %s to %s", o.Status, target),
					map[string]any{"from": o.Status, "to": target},
				)
			}
			n, err := q.UpdateOrderStatus(ctx, dbgen.UpdateOrderStatusParams{ToStatus: target, ID: id, FromStatus: o.Status})
			if err != nil {
				return fmt.Errorf("update order status: %w", err)
			}
			if n == 0 {
				return common.ErrPersistenceConflict.With("order status changed concurrently", map[string]any{"order_id": id})
			}
			items, err := q.ListOrderItems(ctx, id)
			if err != nil {
				return fmt.Errorf("load order items: %w", err)
			}
			if target == dbgen.OrderStatusCANCELLED {
				if err := s.restock(ctx, q, items); err != nil {
					return err
				}
			}
			fresh, err := q.GetOrder(ctx, id)
			if err != nil {
				return fmt.Errorf("reload order: %w", err)
			}
			from = o.Status
			updated = ToView(fresh, items)
			return nil
		})
	})
	if err != nil {
		return View{}, err
	}
	obs.CountOrderTransition(string(from), string(target))
	s.emitTransition(ctx, from, updated)
	return updated, nil
}

// restock returns cancelled quantities to stock. Variants deleted since the
// order was placed are skipped.
func (s *Service) restock(ctx context.Context, q dbgen.Querier, items []dbgen.OrderItem) error {
	lines := make(map[uuid.UUID]money.Quantity, len(items))
	for _, it := range items {
		lines[it.VariantID] += money.Quantity(it.Quantity)
	}
	for id := range lines {
		v, err := q.GetVariant(ctx, id)
		if err != nil && !repo.IsNoRows(err) {
			return fmt.Errorf("load variant %s: %w", id, err)
		}
		if err != nil || v.DeletedAt.Valid {
			s.Log.Warn().Str("variant_id", id.String()).Msg("skipping restock of deleted variant")
			delete(lines, id)
		}
	}
	return inventory.IncrementMany(ctx, q, lines)
}

func (s *Service) emitTransition(ctx context.Context, from dbgen.OrderStatus, v View) {
	if s.Events == nil {
		return
	}
	payload := v.Payload()
	payload.FromStatus = string(from)
	topics := []string{events.TopicOrderStatusChanged}
	switch v.Status {
	case dbgen.OrderStatusSHIPPED:
		topics = append(topics, events.TopicOrderShipped)
	case dbgen.OrderStatusCANCELLED:
		topics = append(topics, events.TopicOrderCancelled)
	}
	for _, topic := range topics {
		if _, err := s.Events.Emit(ctx, topic, v.ID, payload); err != nil {
			s.Log.Error().Err(err).Str("order_id", v.ID.String()).Str("topic", topic).Msg("emit order event failed")
		}
	}
}

// Get returns an order visible to the caller: its owner or an admin.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (View, error) {
	caller, ok := common.IdentityFrom(ctx)
	if !ok {
		return View{}, common.ErrAuthorizationDenied.With("authentication required", nil)
	}
	q := s.Store.Queries()
	o, err := q.GetOrder(ctx, id)
	if err != nil {
		if repo.IsNoRows(err) {
			return View{}, notFound(id)
		}
		return View{}, fmt.Errorf("get order: %w", err)
	}
	if o.UserID != caller.ID && !caller.IsAdmin() {
		return View{}, notFound(id)
	}
	items, err := q.ListOrderItems(ctx, id)
	if err != nil {
		return View{}, fmt.Errorf("list order items: %w", err)
	}
	return ToView(o, items), nil
}

// ListMine pages through the caller's orders, newest first.
func (s *Service) ListMine(ctx context.Context, page, perPage int) ([]View, error) {
	caller, ok := common.IdentityFrom(ctx)
	if !ok {
		return nil, common.ErrAuthorizationDenied.With("authentication required", nil)
	}
	limit, offset := common.LimitOffset(page, perPage)
	rows, err := s.Store.Queries().ListOrdersByUser(ctx, dbgen.ListOrdersByUserParams{UserID: caller.ID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return views(rows), nil
}

// ListAll pages through every order. Admin only.
func (s *Service) ListAll(ctx context.Context, page, perPage int) ([]View, error) {
	if err := common.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	limit, offset := common.LimitOffset(page, perPage)
	rows, err := s.Store.Queries().ListOrders(ctx, dbgen.ListOrdersParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return views(rows), nil
}

func views(rows []dbgen.Order) []View {
	out := make([]View, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToView(row, nil))
	}
	return out
}

func notFound(id uuid.UUID) error {
	return common.ErrNotFound.With("order not found", map[string]any{"order_id": id})
}
