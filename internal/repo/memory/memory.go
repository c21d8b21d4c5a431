// Package memory provides an in-process Store used by STORE_DRIVER=memory and
// by tests. Units of work are serialized with a single mutex and rolled back
// by restoring a snapshot taken at begin.
package memory

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
)

type state struct {
	products map[uuid.UUID]dbgen.Product
	variants map[uuid.UUID]dbgen.Variant
	coupons  map[uuid.UUID]dbgen.Coupon
	orders   map[uuid.UUID]dbgen.Order
	items    map[uuid.UUID][]dbgen.OrderItem
	events   []dbgen.DomainEvent
}

func newState() *state {
	return &state{
		products: map[uuid.UUID]dbgen.Product{},
		variants: map[uuid.UUID]dbgen.Variant{},
		coupons:  map[uuid.UUID]dbgen.Coupon{},
		orders:   map[uuid.UUID]dbgen.Order{},
		items:    map[uuid.UUID][]dbgen.OrderItem{},
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.variants {
		out.variants[k] = v
	}
	for k, v := range s.coupons {
		out.coupons[k] = v
	}
	for k, v := range s.orders {
		out.orders[k] = v
	}
	for k, v := range s.items {
		out.items[k] = slices.Clone(v)
	}
	out.events = slices.Clone(s.events)
	return out
}

// Store keeps every table in memory.
type Store struct {
	mu  sync.Mutex
	st  *state
	Now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState()}
}

// Queries returns a querier where every call is its own unit of work.
func (s *Store) Queries() dbgen.Querier {
	return &view{s: s}
}

// InTx runs fn with exclusive access to the store. The state is restored when
// fn fails or the context is done.
func (s *Store) InTx(ctx context.Context, fn func(q dbgen.Querier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	err := fn(&view{s: s, inTx: true})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Events returns a copy of the recorded domain events.
func (s *Store) Events() []dbgen.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.events)
}

func (s *Store) now() pgtype.Timestamptz {
	t := time.Now()
	if s.Now != nil {
		t = s.Now()
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

type view struct {
	s    *Store
	inTx bool
}

var _ dbgen.Querier = (*view)(nil)

func (v *view) enter() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

func checkViolation(constraint string) error {
	return &pgconn.PgError{Code: "23514", ConstraintName: constraint, Message: "new row violates check constraint"}
}

func compareUUID(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

func newestFirst(a, b dbgen.Order) int {
	if c := b.CreatedAt.Time.Compare(a.CreatedAt.Time); c != 0 {
		return c
	}
	return compareUUID(a.ID, b.ID)
}

func page[T any](rows []T, limit, offset int32) []T {
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit >= 0 && int(limit) < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func (v *view) CreateProduct(ctx context.Context, name string) (dbgen.Product, error) {
	defer v.enter()()
	p := dbgen.Product{ID: uuid.New(), Name: name, CreatedAt: v.s.now()}
	v.s.st.products[p.ID] = p
	return p, nil
}

func (v *view) CreateVariant(ctx context.Context, arg dbgen.CreateVariantParams) (dbgen.Variant, error) {
	defer v.enter()()
	if _, ok := v.s.st.products[arg.ProductID]; !ok {
		return dbgen.Variant{}, &pgconn.PgError{Code: "23503", ConstraintName: "variants_product_id_fkey"}
	}
	if arg.Price < 0 || arg.Stock < 0 {
		return dbgen.Variant{}, checkViolation("variants_check")
	}
	for _, existing := range v.s.st.variants {
		if existing.Sku == arg.Sku {
			return dbgen.Variant{}, uniqueViolation("variants_sku_key")
		}
	}
	now := v.s.now()
	row := dbgen.Variant{
		ID:        uuid.New(),
		ProductID: arg.ProductID,
		Sku:       arg.Sku,
		Name:      arg.Name,
		Price:     arg.Price,
		Stock:     arg.Stock,
		IsActive:  arg.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	v.s.st.variants[row.ID] = row
	return row, nil
}

func (v *view) GetVariant(ctx context.Context, id uuid.UUID) (dbgen.Variant, error) {
	defer v.enter()()
	row, ok := v.s.st.variants[id]
	if !ok {
		return dbgen.Variant{}, pgx.ErrNoRows
	}
	return row, nil
}

func (v *view) ListVariantsByIDs(ctx context.Context, ids []uuid.UUID) ([]dbgen.Variant, error) {
	defer v.enter()()
	out := []dbgen.Variant{}
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if row, ok := v.s.st.variants[id]; ok {
			out = append(out, row)
		}
	}
	slices.SortFunc(out, func(a, b dbgen.Variant) int { return compareUUID(a.ID, b.ID) })
	return out, nil
}

func (v *view) ListVariants(ctx context.Context, arg dbgen.ListVariantsParams) ([]dbgen.Variant, error) {
	defer v.enter()()
	out := []dbgen.Variant{}
	for _, row := range v.s.st.variants {
		if !row.DeletedAt.Valid {
			out = append(out, row)
		}
	}
	slices.SortFunc(out, func(a, b dbgen.Variant) int {
		if c := a.CreatedAt.Time.Compare(b.CreatedAt.Time); c != 0 {
			return c
		}
		return compareUUID(a.ID, b.ID)
	})
	return page(out, arg.Limit, arg.Offset), nil
}

func (v *view) DecrementVariantStock(ctx context.Context, arg dbgen.DecrementVariantStockParams) (int64, error) {
	defer v.enter()()
	row, ok := v.s.st.variants[arg.ID]
	if !ok || row.DeletedAt.Valid || row.Stock < arg.Qty {
		return 0, nil
	}
	row.Stock -= arg.Qty
	row.UpdatedAt = v.s.now()
	v.s.st.variants[arg.ID] = row
	return 1, nil
}

func (v *view) IncrementVariantStock(ctx context.Context, arg dbgen.IncrementVariantStockParams) (int64, error) {
	defer v.enter()()
	row, ok := v.s.st.variants[arg.ID]
	if !ok || row.DeletedAt.Valid {
		return 0, nil
	}
	row.Stock += arg.Qty
	if row.Stock < 0 {
		return 0, checkViolation("variants_stock_check")
	}
	row.UpdatedAt = v.s.now()
	v.s.st.variants[arg.ID] = row
	return 1, nil
}

func (v *view) BulkSetVariants(ctx context.Context, arg dbgen.BulkSetVariantsParams) ([]uuid.UUID, error) {
	defer v.enter()()
	if (arg.Stock.Valid && arg.Stock.Int32 < 0) || (arg.Price.Valid && arg.Price.Int64 < 0) {
		return nil, checkViolation("variants_check")
	}
	now := v.s.now()
	out := []uuid.UUID{}
	seen := map[uuid.UUID]bool{}
	for _, id := range arg.Ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		row, ok := v.s.st.variants[id]
		if !ok || row.DeletedAt.Valid {
			continue
		}
		if arg.Stock.Valid {
			row.Stock = arg.Stock.Int32
		}
		if arg.Price.Valid {
			row.Price = arg.Price.Int64
		}
		if arg.IsActive.Valid {
			row.IsActive = arg.IsActive.Bool
		}
		row.UpdatedAt = now
		v.s.st.variants[id] = row
		out = append(out, id)
	}
	return out, nil
}

func (v *view) RepriceVariants(ctx context.Context, arg dbgen.RepriceVariantsParams) ([]uuid.UUID, error) {
	defer v.enter()()
	if len(arg.Ids) != len(arg.Prices) {
		return nil, errors.New("ids and prices must have the same length")
	}
	for _, p := range arg.Prices {
		if p < 0 {
			return nil, checkViolation("variants_price_check")
		}
	}
	now := v.s.now()
	out := []uuid.UUID{}
	seen := map[uuid.UUID]bool{}
	for i, id := range arg.Ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		row, ok := v.s.st.variants[id]
		if !ok || row.DeletedAt.Valid {
			continue
		}
		row.Price = arg.Prices[i]
		row.UpdatedAt = now
		v.s.st.variants[id] = row
		out = append(out, id)
	}
	return out, nil
}

func (v *view) SoftDeleteVariant(ctx context.Context, id uuid.UUID) (int64, error) {
	defer v.enter()()
	row, ok := v.s.st.variants[id]
	if !ok || row.DeletedAt.Valid {
		return 0, nil
	}
	now := v.s.now()
	row.DeletedAt = now
	row.IsActive = false
	row.UpdatedAt = now
	v.s.st.variants[id] = row
	return 1, nil
}

func (v *view) couponByCode(code string) (dbgen.Coupon, bool) {
	for _, c := range v.s.st.coupons {
		if c.Code == code {
			return c, true
		}
	}
	return dbgen.Coupon{}, false
}

func validCoupon(code string, kind dbgen.DiscountType, value int64, usageLimit pgtype.Int4) error {
	if code == "" || code != strings.ToUpper(strings.TrimSpace(code)) {
		return checkViolation("coupons_code_check")
	}
	if value <= 0 || (kind == dbgen.DiscountTypePERCENTAGE && value > 100) {
		return checkViolation("coupons_percentage_range")
	}
	if usageLimit.Valid && usageLimit.Int32 < 0 {
		return checkViolation("coupons_usage_limit_check")
	}
	return nil
}

func (v *view) CreateCoupon(ctx context.Context, arg dbgen.CreateCouponParams) (dbgen.Coupon, error) {
	defer v.enter()()
	if err := validCoupon(arg.Code, arg.DiscountType, arg.DiscountValue, arg.UsageLimit); err != nil {
		return dbgen.Coupon{}, err
	}
	if _, exists := v.couponByCode(arg.Code); exists {
		return dbgen.Coupon{}, uniqueViolation("coupons_code_key")
	}
	now := v.s.now()
	row := dbgen.Coupon{
		ID:             uuid.New(),
		Code:           arg.Code,
		DiscountType:   arg.DiscountType,
		DiscountValue:  arg.DiscountValue,
		MinOrderAmount: arg.MinOrderAmount,
		MaxDiscount:    arg.MaxDiscount,
		UsageLimit:     arg.UsageLimit,
		ExpiresAt:      arg.ExpiresAt,
		IsActive:       arg.IsActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	v.s.st.coupons[row.ID] = row
	return row, nil
}

func (v *view) UpdateCoupon(ctx context.Context, arg dbgen.UpdateCouponParams) (dbgen.Coupon, error) {
	defer v.enter()()
	row, ok := v.couponByCode(arg.Code)
	if !ok {
		return dbgen.Coupon{}, pgx.ErrNoRows
	}
	if err := validCoupon(arg.Code, arg.DiscountType, arg.DiscountValue, arg.UsageLimit); err != nil {
		return dbgen.Coupon{}, err
	}
	if arg.UsageLimit.Valid && row.UsedCount > arg.UsageLimit.Int32 {
		return dbgen.Coupon{}, checkViolation("coupons_usage_within_limit")
	}
	row.DiscountType = arg.DiscountType
	row.DiscountValue = arg.DiscountValue
	row.MinOrderAmount = arg.MinOrderAmount
	row.MaxDiscount = arg.MaxDiscount
	row.UsageLimit = arg.UsageLimit
	row.ExpiresAt = arg.ExpiresAt
	row.IsActive = arg.IsActive
	row.UpdatedAt = v.s.now()
	v.s.st.coupons[row.ID] = row
	return row, nil
}

func (v *view) GetCouponByCode(ctx context.Context, code string) (dbgen.Coupon, error) {
	defer v.enter()()
	row, ok := v.couponByCode(strings.ToUpper(strings.TrimSpace(code)))
	if !ok {
		return dbgen.Coupon{}, pgx.ErrNoRows
	}
	return row, nil
}

func (v *view) ListCoupons(ctx context.Context, arg dbgen.ListCouponsParams) ([]dbgen.Coupon, error) {
	defer v.enter()()
	out := make([]dbgen.Coupon, 0, len(v.s.st.coupons))
	for _, c := range v.s.st.coupons {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b dbgen.Coupon) int {
		if c := b.CreatedAt.Time.Compare(a.CreatedAt.Time); c != 0 {
			return c
		}
		return compareUUID(a.ID, b.ID)
	})
	return page(out, arg.Limit, arg.Offset), nil
}

func (v *view) DeleteCoupon(ctx context.Context, code string) (int64, error) {
	defer v.enter()()
	row, ok := v.couponByCode(code)
	if !ok {
		return 0, nil
	}
	delete(v.s.st.coupons, row.ID)
	for id, o := range v.s.st.orders {
		if o.CouponID.Valid && o.CouponID.UUID == row.ID {
			o.CouponID = uuid.NullUUID{}
			v.s.st.orders[id] = o
		}
	}
	return 1, nil
}

func (v *view) RedeemCoupon(ctx context.Context, id uuid.UUID) (int64, error) {
	defer v.enter()()
	row, ok := v.s.st.coupons[id]
	if !ok || !row.IsActive {
		return 0, nil
	}
	if row.UsageLimit.Valid && row.UsedCount >= row.UsageLimit.Int32 {
		return 0, nil
	}
	row.UsedCount++
	row.UpdatedAt = v.s.now()
	v.s.st.coupons[id] = row
	return 1, nil
}

func (v *view) CreateOrder(ctx context.Context, arg dbgen.CreateOrderParams) (dbgen.Order, error) {
	defer v.enter()()
	if arg.Subtotal < 0 || arg.DiscountAmount < 0 || arg.DiscountAmount > arg.Subtotal ||
		arg.ShippingAmount < 0 || arg.TaxAmount < 0 || arg.Total < 0 {
		return dbgen.Order{}, checkViolation("orders_check")
	}
	if arg.CouponID.Valid {
		if _, ok := v.s.st.coupons[arg.CouponID.UUID]; !ok {
			return dbgen.Order{}, &pgconn.PgError{Code: "23503", ConstraintName: "orders_coupon_id_fkey"}
		}
	}
	address := arg.ShippingAddress
	if len(address) == 0 {
		address = []byte("{}")
	}
	now := v.s.now()
	row := dbgen.Order{
		ID:              uuid.New(),
		UserID:          arg.UserID,
		Status:          arg.Status,
		Currency:        arg.Currency,
		Subtotal:        arg.Subtotal,
		DiscountAmount:  arg.DiscountAmount,
		ShippingAmount:  arg.ShippingAmount,
		TaxAmount:       arg.TaxAmount,
		Total:           arg.Total,
		CouponID:        arg.CouponID,
		CouponCode:      arg.CouponCode,
		ShippingAddress: slices.Clone(address),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	v.s.st.orders[row.ID] = row
	return row, nil
}

func (v *view) CreateOrderItem(ctx context.Context, arg dbgen.CreateOrderItemParams) (dbgen.OrderItem, error) {
	defer v.enter()()
	if _, ok := v.s.st.orders[arg.OrderID]; !ok {
		return dbgen.OrderItem{}, &pgconn.PgError{Code: "23503", ConstraintName: "order_items_order_id_fkey"}
	}
	if arg.Quantity <= 0 || arg.UnitPrice < 0 || arg.LineTotal < 0 {
		return dbgen.OrderItem{}, checkViolation("order_items_check")
	}
	row := dbgen.OrderItem{
		ID:        uuid.New(),
		OrderID:   arg.OrderID,
		VariantID: arg.VariantID,
		ProductID: arg.ProductID,
		Quantity:  arg.Quantity,
		UnitPrice: arg.UnitPrice,
		LineTotal: arg.LineTotal,
	}
	v.s.st.items[arg.OrderID] = append(v.s.st.items[arg.OrderID], row)
	return row, nil
}

func (v *view) GetOrder(ctx context.Context, id uuid.UUID) (dbgen.Order, error) {
	defer v.enter()()
	row, ok := v.s.st.orders[id]
	if !ok {
		return dbgen.Order{}, pgx.ErrNoRows
	}
	return row, nil
}

func (v *view) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]dbgen.OrderItem, error) {
	defer v.enter()()
	out := slices.Clone(v.s.st.items[orderID])
	if out == nil {
		out = []dbgen.OrderItem{}
	}
	slices.SortFunc(out, func(a, b dbgen.OrderItem) int { return compareUUID(a.VariantID, b.VariantID) })
	return out, nil
}

func (v *view) ListOrders(ctx context.Context, arg dbgen.ListOrdersParams) ([]dbgen.Order, error) {
	defer v.enter()()
	out := make([]dbgen.Order, 0, len(v.s.st.orders))
	for _, o := range v.s.st.orders {
		out = append(out, o)
	}
	slices.SortFunc(out, newestFirst)
	return page(out, arg.Limit, arg.Offset), nil
}

func (v *view) ListOrdersByUser(ctx context.Context, arg dbgen.ListOrdersByUserParams) ([]dbgen.Order, error) {
	defer v.enter()()
	out := []dbgen.Order{}
	for _, o := range v.s.st.orders {
		if o.UserID == arg.UserID {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, newestFirst)
	return page(out, arg.Limit, arg.Offset), nil
}

func (v *view) UpdateOrderStatus(ctx context.Context, arg dbgen.UpdateOrderStatusParams) (int64, error) {
	defer v.enter()()
	row, ok := v.s.st.orders[arg.ID]
	if !ok || row.Status != arg.FromStatus {
		return 0, nil
	}
	row.Status = arg.ToStatus
	row.UpdatedAt = v.s.now()
	v.s.st.orders[arg.ID] = row
	return 1, nil
}

func (v *view) InsertDomainEvent(ctx context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error) {
	defer v.enter()()
	payload := arg.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	row := dbgen.DomainEvent{
		ID:          uuid.New(),
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     slices.Clone(payload),
		OccurredAt:  v.s.now(),
	}
	v.s.st.events = append(v.s.st.events, row)
	return row, nil
}
