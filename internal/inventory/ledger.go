// Package inventory mutates variant stock and prices through the caller's unit
// of work. Every counter change is a single conditional statement whose
// affected-row count decides success.
package inventory

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/toko-checkout/internal/common"
	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/money"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/repo"
)

// Patch lists the fields a bulk set overwrites. Nil fields are left untouched.
type Patch struct {
	Stock    *int32
	Price    *money.Money
	IsActive *bool
}

// ItemResult reports the outcome for one variant of a batch.
type ItemResult struct {
	VariantID uuid.UUID `json:"variant_id"`
	OK        bool      `json:"ok"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// DecrementMany removes qty units for every variant in lines. Variants are
// processed in id order so concurrent callers lock rows in the same order.
// The first shortfall aborts with INSUFFICIENT_STOCK and the caller must roll
// the unit of work back.
func DecrementMany(ctx context.Context, q dbgen.Querier, lines map[uuid.UUID]money.Quantity) error {
	for _, id := range sortedIDs(lines) {
		qty := lines[id]
		if qty <= 0 {
			return common.Validation("quantity must be positive", map[string]any{"variant_id": id, "quantity": qty})
		}
		n, err := q.DecrementVariantStock(ctx, dbgen.DecrementVariantStockParams{Qty: int32(qty), ID: id})
		if err != nil {
			return fmt.Errorf("decrement stock %s: %w", id, repo.MapError(err))
		}
		if n == 1 {
			continue
		}
		obs.CountStockConflict()
		return shortfall(ctx, q, id, qty)
	}
	return nil
}

// IncrementMany returns qty units to every variant in lines.
func IncrementMany(ctx context.Context, q dbgen.Querier, lines map[uuid.UUID]money.Quantity) error {
	for _, id := range sortedIDs(lines) {
		qty := lines[id]
		if qty <= 0 {
			return common.Validation("quantity must be positive", map[string]any{"variant_id": id, "quantity": qty})
		}
		n, err := q.IncrementVariantStock(ctx, dbgen.IncrementVariantStockParams{Qty: int32(qty), ID: id})
		if err != nil {
			return fmt.Errorf("increment stock %s: %w", id, repo.MapError(err))
		}
		if n == 0 {
			return common.ErrVariantUnavailable.With("", map[string]any{"variant_ids": []uuid.UUID{id}})
		}
	}
	return nil
}

// BulkSet applies p to every live variant in ids with one statement. Ids that
// do not name a live variant are reported VARIANT_UNAVAILABLE.
func BulkSet(ctx context.Context, q dbgen.Querier, ids []uuid.UUID, p Patch) ([]ItemResult, error) {
	if p.Stock == nil && p.Price == nil && p.IsActive == nil {
		return nil, common.Validation("patch has no fields", nil)
	}
	if p.Stock != nil && *p.Stock < 0 {
		return nil, common.Validation("stock cannot be negative", map[string]any{"stock": *p.Stock})
	}
	if p.Price != nil && *p.Price < 0 {
		return nil, common.Validation("price cannot be negative", map[string]any{"price": *p.Price})
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, common.Validation("at least one variant id is required", nil)
	}
	arg := dbgen.BulkSetVariantsParams{Ids: ids}
	if p.Stock != nil {
		arg.Stock = pgtype.Int4{Int32: *p.Stock, Valid: true}
	}
	if p.Price != nil {
		arg.Price = pgtype.Int8{Int64: p.Price.Int64(), Valid: true}
	}
	if p.IsActive != nil {
		arg.IsActive = pgtype.Bool{Bool: *p.IsActive, Valid: true}
	}
	updated, err := q.BulkSetVariants(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("bulk set variants: %w", repo.MapError(err))
	}
	return results(ids, updated), nil
}

// BulkReprice writes a new price per variant with one statement.
func BulkReprice(ctx context.Context, q dbgen.Querier, prices map[uuid.UUID]money.Money) ([]ItemResult, error) {
	if len(prices) == 0 {
		return nil, common.Validation("at least one variant id is required", nil)
	}
	ids := sortedIDs(prices)
	arg := dbgen.RepriceVariantsParams{Ids: ids, Prices: make([]int64, 0, len(ids))}
	for _, id := range ids {
		if prices[id] < 0 {
			return nil, common.Validation("price cannot be negative", map[string]any{"variant_id": id, "price": prices[id]})
		}
		arg.Prices = append(arg.Prices, prices[id].Int64())
	}
	updated, err := q.RepriceVariants(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("reprice variants: %w", repo.MapError(err))
	}
	return results(ids, updated), nil
}

func shortfall(ctx context.Context, q dbgen.Querier, id uuid.UUID, requested money.Quantity) error {
	v, err := q.GetVariant(ctx, id)
	if err != nil {
		if repo.IsNoRows(err) {
			return common.ErrVariantUnavailable.With("", map[string]any{"variant_ids": []uuid.UUID{id}})
		}
		return fmt.Errorf("read variant %s: %w", id, err)
	}
	if v.DeletedAt.Valid {
		return common.ErrVariantUnavailable.With("", map[string]any{"variant_ids": []uuid.UUID{id}})
	}
	return common.ErrInsufficientStock.With(
		fmt.Sprintf("insufficient stock for %s: available %d, requested %d", v.Sku, v.Stock, requested),
		map[string]any{"variant_id": id, "requested": int32(requested), "available": v.Stock},
	)
}

func results(ids, updated []uuid.UUID) []ItemResult {
	hit := make(map[uuid.UUID]struct{}, len(updated))
	for _, id := range updated {
		hit[id] = struct{}{}
	}
	out := make([]ItemResult, 0, len(ids))
	for _, id := range ids {
		if _, ok := hit[id]; ok {
			out = append(out, ItemResult{VariantID: id, OK: true})
			continue
		}
		out = append(out, ItemResult{
			VariantID: id,
			Code:      common.CodeVariantUnavailable,
			Message:   "variant not found or deleted",
		})
	}
	return out
}

func sortedIDs[V any](m map[uuid.UUID]V) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return ids
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
