package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/common"
	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/money"
	"github.com/noah-isme/toko-checkout/internal/repo"
)

// VariantView is the public shape of a purchasable variant.
type VariantView struct {
	ID        uuid.UUID   `json:"id"`
	ProductID uuid.UUID   `json:"product_id"`
	SKU       string      `json:"sku"`
	Name      string      `json:"name"`
	Price     money.Money `json:"price"`
	Stock     int32       `json:"stock"`
	IsActive  bool        `json:"is_active"`
	Deleted   bool        `json:"deleted"`
}

// Available reports whether the variant can be sold.
func (v VariantView) Available() bool {
	return v.IsActive && !v.Deleted
}

// VariantInput is the admin payload for creating a variant. When ProductID is
// empty a new product named ProductName is created in the same unit of work.
type VariantInput struct {
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	ProductName string     `json:"product_name,omitempty" validate:"max=200"`
	SKU         string     `json:"sku" validate:"required,max=64"`
	Name        string     `json:"name" validate:"required,max=200"`
	Price       int64      `json:"price" validate:"gte=0"`
	Stock       int32      `json:"stock" validate:"gte=0"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

// Service serves variant reads with a Redis cache in front of the store and
// handles admin variant lifecycle.
type Service struct {
	Store repo.Store
	Cache *Cache
	Log   zerolog.Logger
}

// ToView converts a stored variant.
func ToView(v dbgen.Variant) VariantView {
	return VariantView{
		ID:        v.ID,
		ProductID: v.ProductID,
		SKU:       v.Sku,
		Name:      v.Name,
		Price:     money.Money(v.Price),
		Stock:     v.Stock,
		IsActive:  v.IsActive,
		Deleted:   v.DeletedAt.Valid,
	}
}

// GetVariant returns a variant, preferring the cache. Cached values are for
// display only; mutations always read through the unit of work.
func (s *Service) GetVariant(ctx context.Context, id uuid.UUID) (VariantView, error) {
	if s == nil || s.Store == nil {
		return VariantView{}, errors.New("catalog service not configured")
	}
	if cached, ok, err := s.Cache.Get(ctx, id); err != nil {
		s.Log.Warn().Err(err).Str("variant_id", id.String()).Msg("catalog cache read failed")
	} else if ok {
		return cached, nil
	}
	row, err := s.Store.Queries().GetVariant(ctx, id)
	if err != nil {
		if repo.IsNoRows(err) {
			return VariantView{}, common.ErrNotFound.With("variant not found", map[string]any{"variant_id": id})
		}
		return VariantView{}, fmt.Errorf("get variant: %w", err)
	}
	view := ToView(row)
	if err := s.Cache.Put(ctx, view); err != nil {
		s.Log.Warn().Err(err).Str("variant_id", id.String()).Msg("catalog cache write failed")
	}
	return view, nil
}

// ListVariants pages through live variants.
func (s *Service) ListVariants(ctx context.Context, page, perPage int) ([]VariantView, error) {
	limit, offset := common.LimitOffset(page, perPage)
	rows, err := s.Store.Queries().ListVariants(ctx, dbgen.ListVariantsParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	out := make([]VariantView, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToView(row))
	}
	return out, nil
}

// CreateVariant adds a variant. Admin only.
func (s *Service) CreateVariant(ctx context.Context, in VariantInput) (VariantView, error) {
	if err := common.RequireAdmin(ctx); err != nil {
		return VariantView{}, err
	}
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	in.Name = strings.TrimSpace(in.Name)
	in.ProductName = strings.TrimSpace(in.ProductName)
	if err := common.ValidateStruct(in); err != nil {
		return VariantView{}, err
	}
	if in.ProductID == nil && in.ProductName == "" {
		return VariantView{}, common.Validation("product_id or product_name is required", nil)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	var created dbgen.Variant
	err := s.Store.InTx(ctx, func(q dbgen.Querier) error {
		productID := uuid.Nil
		if in.ProductID != nil {
			productID = *in.ProductID
		} else {
			p, err := q.CreateProduct(ctx, in.ProductName)
			if err != nil {
				return fmt.Errorf("create product: %w", err)
			}
			productID = p.ID
		}
		row, err := q.CreateVariant(ctx, dbgen.CreateVariantParams{
			ProductID: productID,
			Sku:       in.SKU,
			Name:      in.Name,
			Price:     in.Price,
			Stock:     in.Stock,
			IsActive:  active,
		})
		if err != nil {
			switch {
			case repo.IsUniqueViolation(err):
				return common.ErrConflict.With("sku already exists", map[string]any{"sku": in.SKU})
			case repo.IsForeignKeyViolation(err):
				return common.ErrNotFound.With("product not found", map[string]any{"product_id": productID})
			}
			return fmt.Errorf("create variant: %w", err)
		}
		created = row
		return nil
	})
	if err != nil {
		return VariantView{}, err
	}
	s.Log.Info().Str("variant_id", created.ID.String()).Str("sku", created.Sku).Msg("variant created")
	return ToView(created), nil
}

// DeleteVariant soft-deletes a variant so it can no longer be sold. Admin only.
func (s *Service) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	if err := common.RequireAdmin(ctx); err != nil {
		return err
	}
	n, err := s.Store.Queries().SoftDeleteVariant(ctx, id)
	if err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound.With("variant not found", map[string]any{"variant_id": id})
	}
	s.Invalidate(ctx, id)
	s.Log.Info().Str("variant_id", id.String()).Msg("variant deleted")
	return nil
}

// Invalidate drops cached views of ids. Failures are logged only.
func (s *Service) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if s == nil || len(ids) == 0 {
		return
	}
	if err := s.Cache.Drop(ctx, ids...); err != nil {
		s.Log.Warn().Err(err).Int("variants", len(ids)).Msg("catalog cache invalidation failed")
	}
}
