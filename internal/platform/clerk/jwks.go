package clerk

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"
)

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`

	// RSA
	N string `json:"n"`
	E string `json:"e"`

	// EC
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// jwksCache holds the instance signing keys by kid. A miss or a stale set
// triggers a refetch; on refetch failure a previously cached key is still served.
type jwksCache struct {
	httpClient *http.Client
	url        string
	ttl        time.Duration

	mu        sync.RWMutex
	keys      map[string]any
	fetchedAt time.Time
}

func newJWKSCache(httpClient *http.Client, url string) *jwksCache {
	return &jwksCache{
		httpClient: httpClient,
		url:        url,
		ttl:        time.Hour,
		keys:       map[string]any{},
	}
}

func (j *jwksCache) getKey(ctx context.Context, kid string) (any, error) {
	j.mu.RLock()
	key := j.keys[kid]
	stale := time.Since(j.fetchedAt) > j.ttl
	j.mu.RUnlock()

	if key != nil && !stale {
		return key, nil
	}
	if strings.TrimSpace(j.url) == "" {
		return nil, errors.New("jwks url not set")
	}

	if err := j.refresh(ctx); err != nil {
		j.mu.RLock()
		key = j.keys[kid]
		j.mu.RUnlock()
		if key != nil {
			return key, nil
		}
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	key = j.keys[kid]
	if key == nil {
		return nil, fmt.Errorf("kid not found in jwks: %s", kid)
	}
	return key, nil
}

func (j *jwksCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.url, nil)
	if err != nil {
		return err
	}
	res, err := j.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("jwks fetch failed: %s", res.Status)
	}

	var set jwkSet
	if err := json.NewDecoder(res.Body).Decode(&set); err != nil {
		return err
	}

	next := map[string]any{}
	for _, k := range set.Keys {
		if strings.TrimSpace(k.Kid) == "" {
			continue
		}
		switch k.Kty {
		case "RSA":
			if pub, err := rsaFromModExp(k.N, k.E); err == nil {
				next[k.Kid] = pub
			}
		case "EC":
			if pub, err := ecdsaFromXY(k.Crv, k.X, k.Y); err == nil {
				next[k.Kid] = pub
			}
		}
	}
	if len(next) == 0 {
		return fmt.Errorf("jwks contained no usable keys")
	}

	j.mu.Lock()
	j.keys = next
	j.fetchedAt = time.Now()
	j.mu.Unlock()
	return nil
}

func rsaFromModExp(nB64, eB64 string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eb {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}

func ecdsaFromXY(crv, xB64, yB64 string) (*ecdsa.PublicKey, error) {
	var curve elliptic.Curve
	switch crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	default:
		return nil, fmt.Errorf("unsupported curve: %s", crv)
	}
	xb, err := base64.RawURLEncoding.DecodeString(xB64)
	if err != nil {
		return nil, err
	}
	yb, err := base64.RawURLEncoding.DecodeString(yB64)
	if err != nil {
		return nil, err
	}
	x := new(big.Int).SetBytes(xb)
	y := new(big.Int).SetBytes(yb)
	if !curve.IsOnCurve(x, y) {
		return nil, fmt.Errorf("invalid EC point")
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}
