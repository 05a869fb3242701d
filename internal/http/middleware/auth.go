package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/clerk"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/ctxutil"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

type AuthMiddleware struct {
	log           *logger.Logger
	verifier      clerk.Verifier
	signInURL     string
	publicBaseURL string
}

// NewAuthMiddleware builds the session gate. publicBaseURL, when set, replaces
// the scheme and host of the request when computing the post-login destination.
func NewAuthMiddleware(log *logger.Logger, verifier clerk.Verifier, signInURL, publicBaseURL string) *AuthMiddleware {
	if strings.TrimSpace(signInURL) == "" {
		signInURL = clerk.DefaultSignInURL
	}
	return &AuthMiddleware{
		log:           log.With("middleware", "AuthMiddleware"),
		verifier:      verifier,
		signInURL:     signInURL,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

// RequireUser attaches the caller's RequestData or aborts with a redirect to
// the sign-in page carrying the original URL.
func (am *AuthMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractSessionToken(c)
		sess, err := am.verifier.Verify(c.Request.Context(), token)
		if err != nil || sess == nil || strings.TrimSpace(sess.UserID) == "" {
			if token != "" {
				am.log.Debug("session rejected", "path", c.Request.URL.Path, "error", err)
			}
			am.redirect(c)
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			UserID:    sess.UserID,
			SessionID: sess.SessionID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) redirect(c *gin.Context) {
	target := clerk.SignInRedirect(am.signInURL, am.originalURL(c.Request))
	c.Header("Location", target)
	c.AbortWithStatusJSON(http.StatusFound, gin.H{
		"error":       "unauthenticated",
		"redirectUrl": target,
	})
}

func (am *AuthMiddleware) originalURL(r *http.Request) string {
	if am.publicBaseURL != "" {
		return am.publicBaseURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0]); fwd != "" {
		scheme = fwd
	}
	host := r.Host
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-Host")); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host + r.URL.RequestURI()
}

func extractSessionToken(c *gin.Context) string {
	if v, err := c.Cookie(clerk.SessionCookie); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
