package common_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/common"
)

func TestAppErrorMatchesSentinelByCode(t *testing.T) {
	detailed := common.ErrInsufficientStock.With("variant v1 has 2 left", map[string]any{"available": 2})
	wrapped := fmt.Errorf("place order: %w", detailed)

	require.ErrorIs(t, wrapped, common.ErrInsufficientStock)
	require.NotErrorIs(t, wrapped, common.ErrVariantUnavailable)
	require.Equal(t, common.CodeInsufficientStock, common.CodeOf(wrapped))
	require.Equal(t, "insufficient stock", common.ErrInsufficientStock.Message, "sentinel must stay untouched")
}

func TestWriteErrorRendersEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	common.WriteError(rr, common.ErrMinimumOrderNotMet.With("add 500.00 more", map[string]any{"shortfall": 50000}))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var body struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, common.CodeMinimumOrderNotMet, body.Error.Code)
	require.Equal(t, "add 500.00 more", body.Error.Message)
}

func TestWriteErrorHidesUnexpectedErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	common.WriteError(rr, errors.New("dial tcp 10.0.0.1:5432: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "10.0.0.1")
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	type payload struct {
		Code  string `json:"code" validate:"required"`
		Value int64  `json:"value" validate:"gt=0"`
	}
	err := common.ValidateStruct(payload{})
	require.ErrorIs(t, err, common.ErrValidation)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	fields := appErr.Details.(map[string]any)["fields"].(map[string]string)
	require.Equal(t, "required", fields["payload.code"])
	require.Equal(t, "gt", fields["payload.value"])
}

func TestRequireAdmin(t *testing.T) {
	ctx := common.WithIdentity(t.Context(), common.Identity{ID: "u1", Role: "customer"})
	require.ErrorIs(t, common.RequireAdmin(ctx), common.ErrAuthorizationDenied)

	ctx = common.WithIdentity(t.Context(), common.Identity{ID: "u2", Role: "admin"})
	require.NoError(t, common.RequireAdmin(ctx))

	require.ErrorIs(t, common.RequireAdmin(t.Context()), common.ErrAuthorizationDenied)
}
