// Package maintenance runs admin bulk jobs over variants: repricing,
// visibility toggles and stock overwrites.
package maintenance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/common"
	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/inventory"
	"github.com/noah-isme/toko-checkout/internal/lock"
	"github.com/noah-isme/toko-checkout/internal/money"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/repo"
)

// LockKey serializes bulk jobs across API replicas.
const LockKey = "lock:maintenance:variants"

const maxIDs = 1000

// Direction of a price adjustment.
type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
)

// ParseDirection accepts increase or decrease in any case.
func ParseDirection(raw string) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(raw))); d {
	case Increase, Decrease:
		return d, true
	}
	return "", false
}

// Report summarizes a bulk job.
type Report struct {
	Requested int                    `json:"requested"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Results   []inventory.ItemResult `json:"results"`
}

// CacheInvalidator drops cached variant reads.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

// Service runs bulk jobs. Locker may be nil when no Redis is configured.
type Service struct {
	Store   repo.Store
	Locker  lock.Locker
	LockTTL time.Duration
	// Retries is how many extra attempts a PERSISTENCE_CONFLICT gets. Bulk
	// updates can deadlock with checkouts that lock the same rows.
	Retries int
	Cache   CacheInvalidator
	Log     zerolog.Logger
}

// BulkAdjustPrice moves every price by percentage in direction, rounding half
// up and clamping at zero. Prices are read inside the same unit of work that
// writes them.
func (s *Service) BulkAdjustPrice(ctx context.Context, ids []uuid.UUID, percentage decimal.Decimal, dir Direction) (Report, error) {
	if err := common.RequireAdmin(ctx); err != nil {
		return Report{}, err
	}
	if _, ok := ParseDirection(string(dir)); !ok {
		return Report{}, common.Validation("direction must be increase or decrease", map[string]any{"direction": dir})
	}
	if !percentage.IsPositive() || percentage.GreaterThan(decimal.NewFromInt(1000)) {
		return Report{}, common.Validation("percentage must be greater than 0 and at most 1000", map[string]any{"percentage": percentage.String()})
	}
	ids, err := checkIDs(ids)
	if err != nil {
		return Report{}, err
	}
	return s.run(ctx, "adjust_price", ids, func(q dbgen.Querier) ([]inventory.ItemResult, error) {
		rows, err := q.ListVariantsByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load variants: %w", err)
		}
		prices := make(map[uuid.UUID]money.Money, len(rows))
		for _, v := range rows {
			if v.DeletedAt.Valid {
				continue
			}
			next, err := adjust(money.Money(v.Price), percentage, dir)
			if err != nil {
				return nil, common.Validation("adjusted price out of range", map[string]any{"variant_id": v.ID})
			}
			prices[v.ID] = next
		}
		if len(prices) == 0 {
			return missing(ids), nil
		}
		updated, err := inventory.BulkReprice(ctx, q, prices)
		if err != nil {
			return nil, err
		}
		return merge(ids, updated), nil
	})
}

// BulkToggleVisibility sets is_active on every live variant in ids.
func (s *Service) BulkToggleVisibility(ctx context.Context, ids []uuid.UUID, active bool) (Report, error) {
	return s.bulkSet(ctx, "toggle_visibility", ids, inventory.Patch{IsActive: &active})
}

// BulkSetStock overwrites the stock of every live variant in ids.
func (s *Service) BulkSetStock(ctx context.Context, ids []uuid.UUID, stock int32) (Report, error) {
	return s.bulkSet(ctx, "set_stock", ids, inventory.Patch{Stock: &stock})
}

func (s *Service) bulkSet(ctx context.Context, op string, ids []uuid.UUID, p inventory.Patch) (Report, error) {
	if err := common.RequireAdmin(ctx); err != nil {
		return Report{}, err
	}
	ids, err := checkIDs(ids)
	if err != nil {
		return Report{}, err
	}
	return s.run(ctx, op, ids, func(q dbgen.Querier) ([]inventory.ItemResult, error) {
		return inventory.BulkSet(ctx, q, ids, p)
	})
}

// run executes job in one unit of work under the maintenance lock, retrying
// the whole unit on PERSISTENCE_CONFLICT.
func (s *Service) run(ctx context.Context, op string, ids []uuid.UUID, job func(q dbgen.Querier) ([]inventory.ItemResult, error)) (Report, error) {
	var results []inventory.ItemResult
	work := func(ctx context.Context) error {
		return repo.Retry(ctx, s.Retries, func() error {
			return s.Store.InTx(ctx, func(q dbgen.Querier) error {
				var err error
				results, err = job(q)
				return err
			})
		})
	}
	var err error
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, LockKey, s.lockTTL(), work)
	} else {
		err = work(ctx)
	}
	if err != nil {
		return Report{}, err
	}

	rep := Report{Requested: len(ids), Results: results}
	touched := make([]uuid.UUID, 0, len(results))
	for _, r := range results {
		if r.OK {
			rep.Succeeded++
			touched = append(touched, r.VariantID)
		} else {
			rep.Failed++
		}
	}
	obs.CountBulkItems(op, rep.Succeeded, rep.Failed)
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, touched...)
	}
	s.Log.Info().Str("op", op).Int("requested", rep.Requested).Int("succeeded", rep.Succeeded).
		Int("failed", rep.Failed).Msg("bulk job finished")
	return rep, nil
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL > 0 {
		return s.LockTTL
	}
	return time.Minute
}

func adjust(price money.Money, pct decimal.Decimal, dir Direction) (money.Money, error) {
	delta, err := price.Percent(pct)
	if err != nil {
		return 0, err
	}
	if dir == Increase {
		return price.Add(delta)
	}
	if delta >= price {
		return 0, nil
	}
	return price.Sub(delta)
}

func checkIDs(ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, common.Validation("at least one variant id is required", nil)
	}
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, common.Validation("variant ids must be valid", nil)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) > maxIDs {
		return nil, common.Validation("too many variant ids", map[string]any{"max": maxIDs})
	}
	return out, nil
}

// merge orders results by the request and marks ids the batch never reached.
func merge(ids []uuid.UUID, got []inventory.ItemResult) []inventory.ItemResult {
	byID := make(map[uuid.UUID]inventory.ItemResult, len(got))
	for _, r := range got {
		byID[r.VariantID] = r
	}
	out := missing(ids)
	for i, id := range ids {
		if r, ok := byID[id]; ok {
			out[i] = r
		}
	}
	return out
}

func missing(ids []uuid.UUID) []inventory.ItemResult {
	out := make([]inventory.ItemResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, inventory.ItemResult{
			VariantID: id,
			Code:      common.CodeVariantUnavailable,
			Message:   "variant not found or deleted",
		})
	}
	return out
}
