package common_test

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/common"
)

func TestParsePagination(t *testing.T) {
	page, perPage := common.ParsePagination(httptest.NewRequest(http.MethodGet, "/orders", nil), 20)
	require.Equal(t, 1, page)
	require.Equal(t, 20, perPage)

	page, perPage = common.ParsePagination(httptest.NewRequest(http.MethodGet, "/orders?page=3&limit=500", nil), 20)
	require.Equal(t, 3, page)
	require.Equal(t, 100, perPage)

	page, _ = common.ParsePagination(httptest.NewRequest(http.MethodGet, "/orders?page=-4", nil), 20)
	require.Equal(t, 1, page)
}

func TestLimitOffset(t *testing.T) {
	limit, offset := common.LimitOffset(3, 20)
	require.Equal(t, int32(20), limit)
	require.Equal(t, int32(40), offset)

	limit, offset = common.LimitOffset(0, 20)
	require.Equal(t, int32(20), limit)
	require.Zero(t, offset)
}

func TestLimitOffsetSaturatesHugePages(t *testing.T) {
	limit, offset := common.LimitOffset(21474839, 100)
	require.Equal(t, int32(100), limit)
	require.Equal(t, int32(math.MaxInt32), offset)

	_, offset = common.LimitOffset(math.MaxInt, 100)
	require.Equal(t, int32(math.MaxInt32), offset)
}
