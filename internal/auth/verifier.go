package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/simonexlue/tradelens/internal/cache"
	"github.com/simonexlue/tradelens/internal/config"
)

// TokenVerifier turns a bearer credential into an owner id or rejects it.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// SupabaseVerifier validates Supabase-issued JWTs. Asymmetric tokens
// (RS256/ES256) are checked against the project JWKS; when a shared secret is
// configured, HS256 tokens are accepted too. Issuer and expiry are always
// enforced, and the sub claim becomes the owner id.
type SupabaseVerifier struct {
	Issuer string
	Secret []byte
	Keys   *JWKSSource
}

func NewSupabaseVerifier(cfg config.AuthConfig, store cache.Store) *SupabaseVerifier {
	base := strings.TrimRight(cfg.SupabaseURL, "/")
	v := &SupabaseVerifier{
		Issuer: base + "/auth/v1",
	}
	if cfg.JWTSecret != "" {
		v.Secret = []byte(cfg.JWTSecret)
	}
	if cfg.SupabaseURL != "" {
		v.Keys = NewJWKSSource(base+"/auth/v1/.well-known/jwks.json", cfg.JWKSTTL, store, cfg.HTTPTimeout)
	}
	return v
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if len(v.Secret) == 0 {
				return nil, errors.New("hmac tokens not accepted")
			}
			return v.Secret, nil
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			if v.Keys == nil {
				return nil, errors.New("no signing keys configured")
			}
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("token missing kid")
			}
			return v.Keys.Key(ctx, kid)
		default:
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
	},
		jwt.WithIssuer(v.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token missing sub claim")
	}
	return sub, nil
}
