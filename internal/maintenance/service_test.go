package maintenance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/common"
	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
	"github.com/noah-isme/toko-checkout/internal/lock"
	"github.com/noah-isme/toko-checkout/internal/maintenance"
	"github.com/noah-isme/toko-checkout/internal/repo"
	"github.com/noah-isme/toko-checkout/internal/repo/memory"
)

var admin = common.WithIdentity(context.Background(), common.Identity{ID: "admin", Role: common.RoleAdmin})

type invalidations struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (i *invalidations) Invalidate(_ context.Context, ids ...uuid.UUID) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ids = append(i.ids, ids...)
}

// deniedStore fails the test on any storage access.
type deniedStore struct{ t *testing.T }

func (d deniedStore) InTx(context.Context, func(dbgen.Querier) error) error {
	d.t.Fatal("storage accessed")
	return nil
}

func (d deniedStore) Queries() dbgen.Querier {
	d.t.Fatal("storage accessed")
	return nil
}

// deadlockingStore fails its first conflicts units of work the way the pgx
// store reports a 40P01 deadlock, then delegates.
type deadlockingStore struct {
	*memory.Store
	conflicts int
	calls     int
}

func (d *deadlockingStore) InTx(ctx context.Context, fn func(dbgen.Querier) error) error {
	d.calls++
	if d.calls <= d.conflicts {
		return repo.MapError(&pgconn.PgError{Code: "40P01"})
	}
	return d.Store.InTx(ctx, fn)
}

func seed(t *testing.T, store *memory.Store, prices ...int64) []uuid.UUID {
	t.Helper()
	ctx := context.Background()
	p, err := store.Queries().CreateProduct(ctx, "Dupatta")
	require.NoError(t, err)
	var ids []uuid.UUID
	for i, price := range prices {
		v, err := store.Queries().CreateVariant(ctx, dbgen.CreateVariantParams{
			ProductID: p.ID,
			Sku:       "DUP-" + string(rune('A'+i)),
			Name:      "Dupatta",
			Price:     price,
			Stock:     4,
			IsActive:  true,
		})
		require.NoError(t, err)
		ids = append(ids, v.ID)
	}
	return ids
}

func variant(t *testing.T, store *memory.Store, id uuid.UUID) dbgen.Variant {
	t.Helper()
	v, err := store.Queries().GetVariant(context.Background(), id)
	require.NoError(t, err)
	return v
}

func TestBulkJobsRequireAdminBeforeStorage(t *testing.T) {
	svc := &maintenance.Service{Store: deniedStore{t}, Log: zerolog.Nop()}
	customer := common.WithIdentity(context.Background(), common.Identity{ID: "u1"})
	ids := []uuid.UUID{uuid.New()}

	_, err := svc.BulkAdjustPrice(customer, ids, decimal.NewFromInt(10), maintenance.Increase)
	require.ErrorIs(t, err, common.ErrAuthorizationDenied)
	_, err = svc.BulkToggleVisibility(customer, ids, false)
	require.ErrorIs(t, err, common.ErrAuthorizationDenied)
	_, err = svc.BulkSetStock(context.Background(), ids, 3)
	require.ErrorIs(t, err, common.ErrAuthorizationDenied)
}

func TestBulkAdjustPrice(t *testing.T) {
	store := memory.New()
	// 999.99, 0.05, 100.00
	ids := seed(t, store, 99999, 5, 10000)
	gone := seed(t, store, 5000)[0]
	_, err := store.Queries().SoftDeleteVariant(context.Background(), gone)
	require.NoError(t, err)
	cache := &invalidations{}
	svc := &maintenance.Service{Store: store, Locker: &lock.Local{}, Cache: cache, Log: zerolog.Nop()}

	req := append(append([]uuid.UUID{}, ids...), gone, uuid.New())
	rep, err := svc.BulkAdjustPrice(admin, req, decimal.RequireFromString("12.5"), maintenance.Increase)
	require.NoError(t, err)
	require.Equal(t, 5, rep.Requested)
	require.Equal(t, 3, rep.Succeeded)
	require.Equal(t, 2, rep.Failed)
	require.Len(t, rep.Results, 5)
	require.Equal(t, gone, rep.Results[3].VariantID)
	require.Equal(t, common.CodeVariantUnavailable, rep.Results[3].Code)

	// 99999 * 1.125 = 112498.875 -> 112499; 5 * 0.125 = 0.625 -> 1
	require.Equal(t, int64(112499), variant(t, store, ids[0]).Price)
	require.Equal(t, int64(6), variant(t, store, ids[1]).Price)
	require.Equal(t, int64(11250), variant(t, store, ids[2]).Price)
	require.Equal(t, int64(5000), variant(t, store, gone).Price)
	require.ElementsMatch(t, ids, cache.ids)
}

func TestBulkJobsRetryDeadlocks(t *testing.T) {
	mem := memory.New()
	ids := seed(t, mem, 10000)
	store := &deadlockingStore{Store: mem, conflicts: 2}
	svc := &maintenance.Service{Store: store, Locker: &lock.Local{}, Retries: 3, Log: zerolog.Nop()}

	rep, err := svc.BulkAdjustPrice(admin, ids, decimal.NewFromInt(10), maintenance.Increase)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Succeeded)
	require.Equal(t, 3, store.calls)
	require.Equal(t, int64(11000), variant(t, mem, ids[0]).Price)

	exhausted := &deadlockingStore{Store: mem, conflicts: 5}
	svc = &maintenance.Service{Store: exhausted, Locker: &lock.Local{}, Retries: 1, Log: zerolog.Nop()}
	_, err = svc.BulkSetStock(admin, ids, 9)
	require.ErrorIs(t, err, common.ErrPersistenceConflict)
	require.Equal(t, 2, exhausted.calls)
	require.Equal(t, int32(4), variant(t, mem, ids[0]).Stock)
}

func TestBulkAdjustPriceDecreaseClampsAtZero(t *testing.T) {
	store := memory.New()
	ids := seed(t, store, 10000, 333)
	svc := &maintenance.Service{Store: store, Log: zerolog.Nop()}

	_, err := svc.BulkAdjustPrice(admin, ids, decimal.NewFromInt(150), maintenance.Decrease)
	require.NoError(t, err)
	require.Zero(t, variant(t, store, ids[0]).Price)
	require.Zero(t, variant(t, store, ids[1]).Price)

	ids = seed(t, store, 333)
	_, err = svc.BulkAdjustPrice(admin, ids, decimal.NewFromInt(10), maintenance.Decrease)
	require.NoError(t, err)
	// 333 - 33.3 -> 333 - 33 = 300
	require.Equal(t, int64(300), variant(t, store, ids[0]).Price)
}

func TestBulkAdjustPriceValidation(t *testing.T) {
	svc := &maintenance.Service{Store: memory.New(), Log: zerolog.Nop()}
	ids := []uuid.UUID{uuid.New()}

	_, err := svc.BulkAdjustPrice(admin, ids, decimal.Zero, maintenance.Increase)
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.BulkAdjustPrice(admin, ids, decimal.NewFromInt(10), "sideways")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.BulkAdjustPrice(admin, nil, decimal.NewFromInt(10), maintenance.Increase)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestBulkToggleAndStock(t *testing.T) {
	store := memory.New()
	ids := seed(t, store, 100, 200)
	unknown := uuid.New()
	svc := &maintenance.Service{Store: store, Log: zerolog.Nop()}

	rep, err := svc.BulkToggleVisibility(admin, []uuid.UUID{ids[0], unknown, ids[0]}, false)
	require.NoError(t, err)
	require.Equal(t, 2, rep.Requested)
	require.Equal(t, 1, rep.Succeeded)
	require.Equal(t, 1, rep.Failed)
	require.False(t, variant(t, store, ids[0]).IsActive)
	require.True(t, variant(t, store, ids[1]).IsActive)

	rep, err = svc.BulkSetStock(admin, ids, 25)
	require.NoError(t, err)
	require.Equal(t, 2, rep.Succeeded)
	require.Equal(t, int32(25), variant(t, store, ids[1]).Stock)

	_, err = svc.BulkSetStock(admin, ids, -1)
	require.ErrorIs(t, err, common.ErrValidation)
	require.Equal(t, int32(25), variant(t, store, ids[1]).Stock)
}

func TestBulkJobsTakeRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, mr.Set(maintenance.LockKey, "other-job"))

	store := memory.New()
	ids := seed(t, store, 100)
	svc := &maintenance.Service{
		Store:  store,
		Locker: lock.Redis{R: client, RetryBackoff: time.Millisecond},
		Log:    zerolog.Nop(),
	}

	ctx, cancel := context.WithTimeout(admin, 30*time.Millisecond)
	defer cancel()
	_, err := svc.BulkSetStock(ctx, ids, 9)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, int32(4), variant(t, store, ids[0]).Stock)

	mr.Del(maintenance.LockKey)
	rep, err := svc.BulkSetStock(admin, ids, 9)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Succeeded)
	require.False(t, mr.Exists(maintenance.LockKey))
}

func TestHandlers(t *testing.T) {
	store := memory.New()
	ids := seed(t, store, 10000)
	h := &maintenance.Handler{Svc: &maintenance.Service{Store: store, Log: zerolog.Nop()}}

	body := `{"ids":["` + ids[0].String() + `"],"percentage":"10","direction":"INCREASE"}`
	rec := httptest.NewRecorder()
	h.AdjustPrice(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)).WithContext(admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, int64(11000), variant(t, store, ids[0]).Price)

	rec = httptest.NewRecorder()
	h.ToggleVisibility(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":["`+ids[0].String()+`"]}`)).WithContext(admin))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.SetStock(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":["`+ids[0].String()+`"],"stock":0}`)).WithContext(admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Zero(t, variant(t, store, ids[0]).Stock)

	customer := common.WithIdentity(context.Background(), common.Identity{ID: "u1"})
	rec = httptest.NewRecorder()
	h.SetStock(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":["`+ids[0].String()+`"],"stock":1}`)).WithContext(customer))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
