package clerk

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jwksClient(t *testing.T, key *rsa.PublicKey, kid string, hits *int32) *http.Client {
	t.Helper()
	set := map[string]any{"keys": []map[string]string{{
		"kty": "RSA",
		"kid": kid,
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}}}
	body, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(hits, 1)
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(string(body))),
		}, nil
	})}
}

func sign(t *testing.T, method jwt.SigningMethod, key any, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub": "user_2abc",
		"sid": "sess_123",
		"iss": "https://relevant-burro-77.clerk.accounts.dev",
		"azp": "http://localhost:5173",
		"iat": now.Unix(),
		"nbf": now.Add(-time.Second).Unix(),
		"exp": now.Add(time.Minute).Unix(),
	}
}

func TestVerifyJWKS(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	var hits int32
	v, err := NewVerifier(logger.Nop(), Config{
		JWKSURL:           "https://clerk.example/.well-known/jwks.json",
		Issuer:            "https://relevant-burro-77.clerk.accounts.dev",
		AuthorizedParties: []string{"http://localhost:5173"},
	}, jwksClient(t, &priv.PublicKey, "ins_1", &hits))
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	token := sign(t, jwt.SigningMethodRS256, priv, "ins_1", baseClaims())
	for i := 0; i < 3; i++ {
		sess, err := v.Verify(context.Background(), token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if sess.UserID != "user_2abc" || sess.SessionID != "sess_123" {
			t.Fatalf("session: got=%+v", sess)
		}
	}
	if hits != 1 {
		t.Fatalf("jwks fetches: want=1 got=%d", hits)
	}
}

func TestVerifyRejects(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	var hits int32
	v, err := NewVerifier(logger.Nop(), Config{
		JWKSURL:           "https://clerk.example/.well-known/jwks.json",
		Issuer:            "https://relevant-burro-77.clerk.accounts.dev",
		AuthorizedParties: []string{"http://localhost:5173"},
	}, jwksClient(t, &priv.PublicKey, "ins_1", &hits))
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	expired := baseClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	badIssuer := baseClaims()
	badIssuer["iss"] = "https://evil.example"
	badParty := baseClaims()
	badParty["azp"] = "https://evil.example"
	noSub := baseClaims()
	delete(noSub, "sub")

	cases := map[string]string{
		"expired":     sign(t, jwt.SigningMethodRS256, priv, "ins_1", expired),
		"issuer":      sign(t, jwt.SigningMethodRS256, priv, "ins_1", badIssuer),
		"azp":         sign(t, jwt.SigningMethodRS256, priv, "ins_1", badParty),
		"no sub":      sign(t, jwt.SigningMethodRS256, priv, "ins_1", noSub),
		"wrong key":   sign(t, jwt.SigningMethodRS256, other, "ins_1", baseClaims()),
		"unknown kid": sign(t, jwt.SigningMethodRS256, priv, "ins_2", baseClaims()),
		"missing kid": sign(t, jwt.SigningMethodRS256, priv, "", baseClaims()),
		"hmac":        sign(t, jwt.SigningMethodHS256, []byte("secret"), "ins_1", baseClaims()),
		"garbage":     "not.a.jwt",
	}
	for name, token := range cases {
		if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: want ErrInvalidToken got=%v", name, err)
		}
	}
	if _, err := v.Verify(context.Background(), "  "); !errors.Is(err, ErrNoToken) {
		t.Fatalf("empty: want ErrNoToken got=%v", err)
	}
}

func TestVerifyPEMKey(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	escaped := strings.ReplaceAll(strings.TrimSpace(pemText), "\n", `\n`)

	v, err := NewVerifier(logger.Nop(), Config{PEMKey: escaped}, nil)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	sess, err := v.Verify(context.Background(), sign(t, jwt.SigningMethodES256, priv, "", baseClaims()))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sess.UserID != "user_2abc" {
		t.Fatalf("user: got=%q", sess.UserID)
	}
}

func TestSignInRedirect(t *testing.T) {
	original := "https://app.example/chat/abc?rewindTo=m2"
	once := SignInRedirect(DefaultSignInURL, original)
	u, err := url.Parse(once)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := u.Query().Get("redirect_url"); got != original {
		t.Fatalf("redirect_url: want=%q got=%q", original, got)
	}

	twice := SignInRedirect(once, "https://app.example/other")
	if twice != once {
		t.Fatalf("second redirect must not rewrite: want=%q got=%q", once, twice)
	}
	if strings.Count(twice, "redirect_url=") != 1 {
		t.Fatalf("redirect_url appended more than once: %q", twice)
	}
}

func TestLoadConfigRequiresKeySource(t *testing.T) {
	t.Setenv("CLERK_JWKS_URL", "")
	t.Setenv("CLERK_JWT_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("want configuration error")
	}
	t.Setenv("CLERK_JWKS_URL", "https://clerk.example/jwks")
	t.Setenv("CLERK_SIGN_IN_URL", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SignInURL != DefaultSignInURL {
		t.Fatalf("sign in default: got=%q", cfg.SignInURL)
	}
}
