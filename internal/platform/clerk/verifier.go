package clerk

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/apierr"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/envutil"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

const (
	DefaultSignInURL = "https://relevant-burro-77.accounts.dev/sign-in"
	DefaultSignUpURL = "https://relevant-burro-77.accounts.dev/sign-up"

	// SessionCookie is the cookie Clerk's frontend SDK writes the session JWT to.
	SessionCookie = "__session"
)

var (
	ErrNoToken      = errors.New("no session token")
	ErrInvalidToken = errors.New("invalid session token")
)

type Config struct {
	JWKSURL           string
	PEMKey            string
	Issuer            string
	AuthorizedParties []string
	SignInURL         string
	SignUpURL         string
}

func LoadConfig() (Config, error) {
	cfg := Config{
		JWKSURL:           envutil.String("CLERK_JWKS_URL", ""),
		PEMKey:            envutil.String("CLERK_JWT_KEY", ""),
		Issuer:            envutil.String("CLERK_ISSUER", ""),
		AuthorizedParties: envutil.List("CLERK_AUTHORIZED_PARTIES"),
		SignInURL:         envutil.String("CLERK_SIGN_IN_URL", DefaultSignInURL),
		SignUpURL:         envutil.String("CLERK_SIGN_UP_URL", DefaultSignUpURL),
	}
	if cfg.JWKSURL == "" && cfg.PEMKey == "" {
		return cfg, apierr.Configuration("Clerk is not configured. Please set CLERK_JWKS_URL or CLERK_JWT_KEY.")
	}
	return cfg, nil
}

// Session is the verified identity behind a request.
type Session struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Session, error)
}

type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID       string `json:"sid"`
	AuthorizedParty string `json:"azp"`
}

type verifier struct {
	log     *logger.Logger
	cfg     Config
	jwks    *jwksCache
	pemKey  any
	methods []string
}

func NewVerifier(log *logger.Logger, cfg Config, httpClient *http.Client) (Verifier, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	v := &verifier{
		log:     log.With("service", "ClerkVerifier"),
		cfg:     cfg,
		methods: []string{"RS256", "RS384", "RS512", "ES256", "ES384"},
	}
	switch {
	case strings.TrimSpace(cfg.PEMKey) != "":
		pub, err := parsePEM(cfg.PEMKey)
		if err != nil {
			return nil, fmt.Errorf("parse CLERK_JWT_KEY: %w", err)
		}
		v.pemKey = pub
	case strings.TrimSpace(cfg.JWKSURL) != "":
		v.jwks = newJWKSCache(httpClient, strings.TrimSpace(cfg.JWKSURL))
	default:
		return nil, apierr.Configuration("clerk verifier needs a jwks url or a pem key")
	}
	return v, nil
}

// parsePEM accepts keys pasted into env files with literal \n separators.
func parsePEM(raw string) (any, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), `\n`, "\n")
	if pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(raw)); err == nil {
		return pub, nil
	}
	return jwt.ParseECPublicKeyFromPEM([]byte(raw))
}

func (v *verifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if v.pemKey != nil {
			return v.pemKey, nil
		}
		kid, _ := t.Header["kid"].(string)
		if strings.TrimSpace(kid) == "" {
			return nil, fmt.Errorf("missing kid")
		}
		return v.jwks.getKey(ctx, kid)
	}
}

func (v *verifier) Verify(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Second),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	claims := &sessionClaims{}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, v.keyFunc(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tok == nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if len(v.cfg.AuthorizedParties) > 0 && claims.AuthorizedParty != "" && !partyAllowed(v.cfg.AuthorizedParties, claims.AuthorizedParty) {
		return nil, fmt.Errorf("%w: azp %q not authorized", ErrInvalidToken, claims.AuthorizedParty)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	out := &Session{UserID: claims.Subject, SessionID: claims.SessionID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func partyAllowed(list []string, azp string) bool {
	for _, p := range list {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if len(p) == len(azp) && subtle.ConstantTimeCompare([]byte(p), []byte(azp)) == 1 {
			return true
		}
	}
	return false
}
