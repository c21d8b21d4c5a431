package coupon

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/common"
	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/money"
)

// MaxPercent is the largest PERCENTAGE discount value.
const MaxPercent = 100

// Rule captures the runtime constraints of a coupon.
type Rule struct {
	ID          uuid.UUID
	Code        string
	Type        dbgen.DiscountType
	Value       int64
	MinOrder    money.Money
	MaxDiscount *money.Money
	UsageLimit  *int32
	UsedCount   int32
	ExpiresAt   *time.Time
	Active      bool
}

// Result is an applicable discount.
type Result struct {
	CouponID       uuid.UUID          `json:"-"`
	Code           string             `json:"code"`
	DiscountType   dbgen.DiscountType `json:"discount_type"`
	DiscountValue  int64              `json:"discount_value"`
	DiscountAmount money.Money        `json:"discount_amount"`
}

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the rule against the evaluation instant and cart subtotal and
// computes the discount. Checks run in a fixed order and the first failure is
// returned. It never mutates anything.
func (r Rule) Validate(now time.Time, subtotal money.Money) (Result, error) {
	if !r.Active {
		return Result{}, common.ErrCouponInactive.With("", map[string]any{"code": r.Code})
	}
	if r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
		return Result{}, common.ErrCouponExpired.With(
			fmt.Sprintf("coupon %s expired at %s", r.Code, r.ExpiresAt.UTC().Format(time.RFC3339)),
			map[string]any{"code": r.Code, "expires_at": r.ExpiresAt.UTC()},
		)
	}
	if r.UsageLimit != nil && r.UsedCount >= *r.UsageLimit {
		return Result{}, common.ErrUsageLimitReached.With("", map[string]any{
			"code":        r.Code,
			"usage_limit": *r.UsageLimit,
		})
	}
	if subtotal < r.MinOrder {
		shortfall := r.MinOrder - subtotal
		return Result{}, common.ErrMinimumOrderNotMet.With(
			fmt.Sprintf("coupon %s requires a minimum order of %s, add %s more", r.Code, r.MinOrder, shortfall),
			map[string]any{
				"code":             r.Code,
				"min_order_amount": r.MinOrder,
				"subtotal":         subtotal,
				"shortfall":        shortfall,
			},
		)
	}
	raw, err := r.rawDiscount(subtotal)
	if err != nil {
		return Result{}, err
	}
	return Result{
		CouponID:       r.ID,
		Code:           r.Code,
		DiscountType:   r.Type,
		DiscountValue:  r.Value,
		DiscountAmount: money.Min(raw, subtotal),
	}, nil
}

func (r Rule) rawDiscount(subtotal money.Money) (money.Money, error) {
	switch r.Type {
	case dbgen.DiscountTypePERCENTAGE:
		raw, err := subtotal.Percent(decimal.NewFromInt(r.Value))
		if err != nil {
			return 0, fmt.Errorf("percentage discount: %w", err)
		}
		if r.MaxDiscount != nil && raw > *r.MaxDiscount {
			raw = *r.MaxDiscount
		}
		return raw, nil
	case dbgen.DiscountTypeFIXED:
		return money.New(r.Value)
	default:
		return 0, fmt.Errorf("unknown discount type %q", r.Type)
	}
}

// RuleFromModel converts the stored coupon into a Rule used for evaluation.
func RuleFromModel(c dbgen.Coupon) Rule {
	rule := Rule{
		ID:        c.ID,
		Code:      c.Code,
		Type:      c.DiscountType,
		Value:     c.DiscountValue,
		MinOrder:  money.Money(c.MinOrderAmount),
		UsedCount: c.UsedCount,
		Active:    c.IsActive,
	}
	if c.MaxDiscount.Valid {
		capAmount := money.Money(c.MaxDiscount.Int64)
		rule.MaxDiscount = &capAmount
	}
	if c.UsageLimit.Valid {
		limit := c.UsageLimit.Int32
		rule.UsageLimit = &limit
	}
	if c.ExpiresAt.Valid {
		exp := c.ExpiresAt.Time
		rule.ExpiresAt = &exp
	}
	return rule
}
