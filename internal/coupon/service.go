package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/common"
	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/money"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/repo"
)

// Input is the admin payload for creating or replacing a coupon.
type Input struct {
	Code           string     `json:"code" validate:"required,max=64"`
	DiscountType   string     `json:"discount_type" validate:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue  int64      `json:"discount_value" validate:"gt=0"`
	MinOrderAmount int64      `json:"min_order_amount" validate:"gte=0"`
	MaxDiscount    *int64     `json:"max_discount,omitempty" validate:"omitempty,gte=0"`
	UsageLimit     *int32     `json:"usage_limit,omitempty" validate:"omitempty,gte=0"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
}

// View is the API representation of a stored coupon.
type View struct {
	ID             uuid.UUID          `json:"id"`
	Code           string             `json:"code"`
	DiscountType   dbgen.DiscountType `json:"discount_type"`
	DiscountValue  int64              `json:"discount_value"`
	MinOrderAmount int64              `json:"min_order_amount"`
	MaxDiscount    *int64             `json:"max_discount"`
	UsageLimit     *int32             `json:"usage_limit"`
	UsedCount      int32              `json:"used_count"`
	ExpiresAt      *time.Time         `json:"expires_at"`
	IsActive       bool               `json:"is_active"`
}

// Service validates coupons against a unit of work and manages the coupon catalogue.
type Service struct {
	Store repo.Store
	Now   func() time.Time
	Log   zerolog.Logger
}

// Validate looks the code up through q and evaluates it against subtotal.
// Rejections are returned as coupon AppErrors.
func (s *Service) Validate(ctx context.Context, q dbgen.Querier, code string, subtotal money.Money) (Result, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Result{}, common.Validation("coupon code is required", nil)
	}
	row, err := q.GetCouponByCode(ctx, normalized)
	if err != nil {
		if repo.IsNoRows(err) {
			obs.CountCouponRejection(common.CodeCouponNotFound)
			return Result{}, common.ErrCouponNotFound.With("", map[string]any{"code": normalized})
		}
		return Result{}, fmt.Errorf("load coupon: %w", err)
	}
	res, err := RuleFromModel(row).Validate(s.now(), subtotal)
	if err != nil {
		obs.CountCouponRejection(common.CodeOf(err))
		return Result{}, err
	}
	return res, nil
}

// Preview evaluates a coupon outside of any order. It never records usage.
func (s *Service) Preview(ctx context.Context, code string, subtotal money.Money) (Result, error) {
	if s == nil || s.Store == nil {
		return Result{}, errors.New("coupon service not configured")
	}
	return s.Validate(ctx, s.Store.Queries(), code, subtotal)
}

// Redeem records one usage of the coupon inside the caller's unit of work.
// Losing the race for the last use surfaces as PERSISTENCE_CONFLICT.
func (s *Service) Redeem(ctx context.Context, q dbgen.Querier, id uuid.UUID) error {
	n, err := q.RedeemCoupon(ctx, id)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}
	if n == 0 {
		return common.ErrPersistenceConflict.With("coupon usage could not be recorded", map[string]any{"coupon_id": id})
	}
	return nil
}

// Create stores a new coupon. Admin only.
func (s *Service) Create(ctx context.Context, in Input) (View, error) {
	if err := common.RequireAdmin(ctx); err != nil {
		return View{}, err
	}
	params, err := buildParams(in)
	if err != nil {
		return View{}, err
	}
	row, err := s.Store.Queries().CreateCoupon(ctx, params)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return View{}, common.ErrConflict.With("coupon code already exists", map[string]any{"code": params.Code})
		}
		if repo.IsCheckViolation(err) {
			return View{}, common.Validation("coupon violates a constraint", map[string]any{"error": err.Error()})
		}
		return View{}, fmt.Errorf("create coupon: %w", err)
	}
	s.Log.Info().Str("code", row.Code).Msg("coupon created")
	return ToView(row), nil
}

// Update replaces the rule fields of the coupon identified by code. The usage
// counter is left untouched, and an omitted is_active keeps the stored flag.
// Admin only.
func (s *Service) Update(ctx context.Context, code string, in Input) (View, error) {
	if err := common.RequireAdmin(ctx); err != nil {
		return View{}, err
	}
	in.Code = code
	params, err := buildParams(in)
	if err != nil {
		return View{}, err
	}
	var row dbgen.Coupon
	err = s.Store.InTx(ctx, func(q dbgen.Querier) error {
		if in.IsActive == nil {
			current, err := q.GetCouponByCode(ctx, params.Code)
			if err != nil {
				return err
			}
			params.IsActive = current.IsActive
		}
		var err error
		row, err = q.UpdateCoupon(ctx, dbgen.UpdateCouponParams(params))
		return err
	})
	if err != nil {
		if repo.IsNoRows(err) {
			return View{}, common.ErrCouponNotFound.With("", map[string]any{"code": params.Code})
		}
		if repo.IsCheckViolation(err) {
			return View{}, common.Validation("coupon violates a constraint", map[string]any{"error": err.Error()})
		}
		return View{}, fmt.Errorf("update coupon: %w", err)
	}
	return ToView(row), nil
}

// Get returns a coupon by code. Admin only.
func (s *Service) Get(ctx context.Context, code string) (View, error) {
	if err := common.RequireAdmin(ctx); err != nil {
		return View{}, err
	}
	row, err := s.Store.Queries().GetCouponByCode(ctx, NormalizeCode(code))
	if err != nil {
		if repo.IsNoRows(err) {
			return View{}, common.ErrCouponNotFound.With("", map[string]any{"code": NormalizeCode(code)})
		}
		return View{}, fmt.Errorf("get coupon: %w", err)
	}
	return ToView(row), nil
}

// List pages through coupons, newest first. Admin only.
func (s *Service) List(ctx context.Context, page, perPage int) ([]View, error) {
	if err := common.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	limit, offset := common.LimitOffset(page, perPage)
	rows, err := s.Store.Queries().ListCoupons(ctx, dbgen.ListCouponsParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	out := make([]View, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToView(row))
	}
	return out, nil
}

// Delete removes a coupon. Orders that used it keep the applied code. Admin only.
func (s *Service) Delete(ctx context.Context, code string) error {
	if err := common.RequireAdmin(ctx); err != nil {
		return err
	}
	normalized := NormalizeCode(code)
	n, err := s.Store.Queries().DeleteCoupon(ctx, normalized)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if n == 0 {
		return common.ErrCouponNotFound.With("", map[string]any{"code": normalized})
	}
	s.Log.Info().Str("code", normalized).Msg("coupon deleted")
	return nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func buildParams(in Input) (dbgen.CreateCouponParams, error) {
	in.Code = NormalizeCode(in.Code)
	if err := common.ValidateStruct(in); err != nil {
		return dbgen.CreateCouponParams{}, err
	}
	kind := dbgen.DiscountType(in.DiscountType)
	if kind == dbgen.DiscountTypePERCENTAGE && in.DiscountValue > MaxPercent {
		return dbgen.CreateCouponParams{}, common.Validation("percentage discount cannot exceed 100", map[string]any{
			"discount_value": in.DiscountValue,
		})
	}
	params := dbgen.CreateCouponParams{
		Code:           in.Code,
		DiscountType:   kind,
		DiscountValue:  in.DiscountValue,
		MinOrderAmount: in.MinOrderAmount,
		IsActive:       true,
	}
	if in.MaxDiscount != nil {
		params.MaxDiscount = pgtype.Int8{Int64: *in.MaxDiscount, Valid: true}
	}
	if in.UsageLimit != nil {
		params.UsageLimit = pgtype.Int4{Int32: *in.UsageLimit, Valid: true}
	}
	if in.ExpiresAt != nil {
		params.ExpiresAt = pgtype.Timestamptz{Time: in.ExpiresAt.UTC(), Valid: true}
	}
	if in.IsActive != nil {
		params.IsActive = *in.IsActive
	}
	return params, nil
}

// ToView converts the stored row into its API shape.
func ToView(c dbgen.Coupon) View {
	v := View{
		ID:             c.ID,
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		MinOrderAmount: c.MinOrderAmount,
		UsedCount:      c.UsedCount,
		IsActive:       c.IsActive,
	}
	if c.MaxDiscount.Valid {
		capAmount := c.MaxDiscount.Int64
		v.MaxDiscount = &capAmount
	}
	if c.UsageLimit.Valid {
		limit := c.UsageLimit.Int32
		v.UsageLimit = &limit
	}
	if c.ExpiresAt.Valid {
		exp := c.ExpiresAt.Time
		v.ExpiresAt = &exp
	}
	return v
}
