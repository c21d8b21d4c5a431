package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/common"
)

func newVerifier(t *testing.T, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{Secret: "test-secret", Issuer: "toko-idp", Audience: "toko-checkout", ClockSkew: time.Second})
	require.NoError(t, err)
	v.WithNow(func() time.Time { return now })
	return v
}

func TestSignAndParseRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	v := newVerifier(t, now)

	token, exp, err := v.SignAccessToken(common.Identity{ID: "user-1", Role: common.RoleAdmin}, "ops@example.com")
	require.NoError(t, err)
	require.Equal(t, now.Add(defaultAccessTTL), exp)

	claims, err := v.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.ID)
	require.True(t, claims.IsAdmin())
	require.Equal(t, "ops@example.com", claims.Email)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	v := newVerifier(t, now)
	token, _, err := v.SignAccessToken(common.Identity{ID: "user-1"}, "")
	require.NoError(t, err)

	v.WithNow(func() time.Time { return now.Add(time.Hour) })
	_, err = v.Parse(token)
	require.Equal(t, common.CodeUnauthorized, common.CodeOf(err))

	other, err := NewVerifier(Config{Secret: "another-secret", Issuer: "toko-idp", Audience: "toko-checkout"})
	require.NoError(t, err)
	other.WithNow(func() time.Time { return now })
	foreign, _, err := other.SignAccessToken(common.Identity{ID: "user-1"}, "")
	require.NoError(t, err)
	v.WithNow(func() time.Time { return now })
	_, err = v.Parse(foreign)
	require.Error(t, err)

	_, err = v.Parse("")
	require.Equal(t, common.CodeUnauthorized, common.CodeOf(err))
}

func TestParseRejectsWrongIssuerAndAlgorithm(t *testing.T) {
	now := time.Now()
	v := newVerifier(t, now)

	tok, err := jwt.NewBuilder().Issuer("someone-else").Audience([]string{"toko-checkout"}).
		Subject("user-1").Expiration(now.Add(time.Minute)).Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("test-secret")))
	require.NoError(t, err)
	_, err = v.Parse(string(signed))
	require.Error(t, err)

	tok, err = jwt.NewBuilder().Issuer("toko-idp").Audience([]string{"toko-checkout"}).
		Subject("user-1").Expiration(now.Add(time.Minute)).Build()
	require.NoError(t, err)
	signed, err = jwt.Sign(tok, jwt.WithKey(jwa.HS512, []byte("test-secret")))
	require.NoError(t, err)
	_, err = v.Parse(string(signed))
	require.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	v := newVerifier(t, time.Now())
	m := Middleware{Verifier: v}
	customer, _, err := v.SignAccessToken(common.Identity{ID: "u1", Role: "customer"}, "")
	require.NoError(t, err)
	admin, _, err := v.SignAccessToken(common.Identity{ID: "a1", Role: common.RoleAdmin}, "")
	require.NoError(t, err)

	var seen common.Identity
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	adminOnly := m.RequireAuth(RequireRole(common.RoleAdmin)(final))

	do := func(h http.Handler, token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusUnauthorized, do(adminOnly, ""))
	require.Equal(t, http.StatusUnauthorized, do(adminOnly, "garbage"))
	require.Equal(t, http.StatusForbidden, do(adminOnly, customer))
	require.Equal(t, http.StatusNoContent, do(adminOnly, admin))
	require.Equal(t, "a1", seen.ID)

	seen = common.Identity{}
	require.Equal(t, http.StatusNoContent, do(m.Authenticate(final), ""))
	require.Empty(t, seen.ID)
	require.Equal(t, http.StatusNoContent, do(m.Authenticate(final), customer))
	require.Equal(t, "u1", seen.ID)
}
