// Package auth verifies HS256 access tokens issued by the identity provider
// and exposes the caller identity to handlers.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/toko-checkout/internal/common"
)

const (
	claimRole  = "role"
	claimEmail = "email"

	defaultAccessTTL = 15 * time.Minute
)

// Config configures the verifier.
type Config struct {
	Secret    string
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	// AccessTTL bounds tokens minted by SignAccessToken.
	AccessTTL time.Duration
}

// Claims is the verified content of an access token.
type Claims struct {
	common.Identity
	Email     string
	ExpiresAt time.Time
}

// Verifier parses and validates access tokens.
type Verifier struct {
	secret    []byte
	issuer    string
	audience  string
	clockSkew time.Duration
	accessTTL time.Duration
	now       func() time.Time
}

// NewVerifier builds a Verifier. The secret is required.
func NewVerifier(cfg Config) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	ttl := cfg.AccessTTL
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	skew := cfg.ClockSkew
	if skew < 0 {
		skew = 0
	}
	return &Verifier{
		secret:    []byte(secret),
		issuer:    strings.TrimSpace(cfg.Issuer),
		audience:  strings.TrimSpace(cfg.Audience),
		clockSkew: skew,
		accessTTL: ttl,
		now:       time.Now,
	}, nil
}

// WithNow overrides the clock, for tests.
func (v *Verifier) WithNow(now func() time.Time) {
	if now != nil {
		v.now = now
	}
}

// Parse verifies the signature, algorithm and registered claims of token.
func (v *Verifier) Parse(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, unauthorized("missing token", nil)
	}
	alg, err := tokenAlgorithm(token)
	if err != nil {
		return Claims{}, unauthorized("invalid token", err)
	}
	if alg != jwa.HS256 {
		return Claims{}, unauthorized("invalid token", fmt.Errorf("unexpected token algorithm %s", alg))
	}
	parsed, err := jwt.ParseString(token, jwt.WithKey(jwa.HS256, v.secret), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, unauthorized("invalid token", err)
	}
	if err := jwt.Validate(parsed, v.validateOptions()...); err != nil {
		return Claims{}, unauthorized("invalid token", err)
	}
	if parsed.Subject() == "" {
		return Claims{}, unauthorized("invalid token", errors.New("token has no subject"))
	}
	out := Claims{
		Identity:  common.Identity{ID: parsed.Subject()},
		ExpiresAt: parsed.Expiration(),
	}
	if raw, ok := parsed.Get(claimRole); ok {
		out.Role, _ = raw.(string)
	}
	if raw, ok := parsed.Get(claimEmail); ok {
		out.Email, _ = raw.(string)
	}
	return out, nil
}

func (v *Verifier) validateOptions() []jwt.ValidateOption {
	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
	}
	if v.clockSkew > 0 {
		opts = append(opts, jwt.WithAcceptableSkew(v.clockSkew))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	return opts
}

// SignAccessToken mints a token for id. The seeder and tests use it; in
// production tokens come from the identity provider.
func (v *Verifier) SignAccessToken(id common.Identity, email string) (string, time.Time, error) {
	now := v.now()
	exp := now.Add(v.accessTTL)
	b := jwt.NewBuilder().
		Subject(id.ID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(exp).
		Claim(claimRole, id.Role)
	if v.issuer != "" {
		b = b.Issuer(v.issuer)
	}
	if v.audience != "" {
		b = b.Audience([]string{v.audience})
	}
	if email != "" {
		b = b.Claim(claimEmail, email)
	}
	tok, err := b.Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, v.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return string(signed), exp, nil
}

// tokenAlgorithm reads the alg header of every signature and requires them to
// agree. Unsigned tokens are rejected.
func tokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	msg, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var alg jwa.SignatureAlgorithm
	for _, sig := range sigs {
		headers := sig.ProtectedHeaders()
		if headers == nil || headers.Algorithm() == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if headers.Algorithm() == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if alg != "" && alg != headers.Algorithm() {
			return "", errors.New("auth: token signatures disagree on algorithm")
		}
		alg = headers.Algorithm()
	}
	return alg, nil
}

func unauthorized(message string, cause error) error {
	return common.NewAppError(common.CodeUnauthorized, message, http.StatusUnauthorized, cause)
}
