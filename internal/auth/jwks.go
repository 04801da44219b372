package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/simonexlue/tradelens/internal/cache"
)

const jwksCacheKey = "auth:jwks"

type jwksDocument struct {
	Keys []jsonWebKey `json:"keys"`
}

type jsonWebKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// JWKSSource fetches the identity provider's public signing keys and keeps
// them in a TTL cache. Refreshes are allowed to race: the document is
// idempotent for a given key set, so overlapping writes are harmless.
type JWKSSource struct {
	URL    string
	TTL    time.Duration
	Cache  cache.Store
	Client *resty.Client
}

func NewJWKSSource(url string, ttl time.Duration, store cache.Store, timeout time.Duration) *JWKSSource {
	return &JWKSSource{
		URL:    url,
		TTL:    ttl,
		Cache:  store,
		Client: resty.New().SetTimeout(timeout),
	}
}

// Key returns the public key for the given kid, fetching the JWKS document
// when the cache is cold.
func (s *JWKSSource) Key(ctx context.Context, kid string) (crypto.PublicKey, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range doc.Keys {
		if k.Kid == kid {
			return parseJWK(k)
		}
	}
	return nil, fmt.Errorf("auth: unknown signing key %q", kid)
}

func (s *JWKSSource) document(ctx context.Context) (*jwksDocument, error) {
	if s.Cache != nil {
		if raw, ok, err := s.Cache.Get(ctx, jwksCacheKey); err == nil && ok {
			var doc jwksDocument
			if err := json.Unmarshal(raw, &doc); err == nil {
				return &doc, nil
			}
		}
	}

	resp, err := s.Client.R().SetContext(ctx).Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("auth: jwks fetch failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("auth: jwks fetch failed: status %d", resp.StatusCode())
	}

	var doc jwksDocument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("auth: jwks decode failed: %w", err)
	}

	if s.Cache != nil {
		_ = s.Cache.Set(ctx, jwksCacheKey, resp.Body(), s.TTL)
	}
	return &doc, nil
}

func parseJWK(k jsonWebKey) (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("auth: bad jwk modulus: %w", err)
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("auth: bad jwk exponent: %w", err)
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}, nil
	case "EC":
		curve, err := curveByName(k.Crv)
		if err != nil {
			return nil, err
		}
		x, err := base64.RawURLEncoding.DecodeString(k.X)
		if err != nil {
			return nil, fmt.Errorf("auth: bad jwk x: %w", err)
		}
		y, err := base64.RawURLEncoding.DecodeString(k.Y)
		if err != nil {
			return nil, fmt.Errorf("auth: bad jwk y: %w", err)
		}
		return &ecdsa.PublicKey{
			Curve: curve,
			X:     new(big.Int).SetBytes(x),
			Y:     new(big.Int).SetBytes(y),
		}, nil
	default:
		return nil, fmt.Errorf("auth: unsupported jwk type %q", k.Kty)
	}
}

func curveByName(name string) (elliptic.Curve, error) {
	switch name {
	case "P-256":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("auth: unsupported curve %q", name)
	}
}
