package clerk

import (
	"net/url"
	"strings"
)

// SignInRedirect points signInURL back at originalURL through redirect_url.
// An existing redirect_url is left untouched so repeated bounces never nest.
func SignInRedirect(signInURL, originalURL string) string {
	u, err := url.Parse(strings.TrimSpace(signInURL))
	if err != nil {
		return signInURL
	}
	q := u.Query()
	if q.Get("redirect_url") == "" && strings.TrimSpace(originalURL) != "" {
		q.Set("redirect_url", originalURL)
		u.RawQuery = q.Encode()
	}
	return u.String()
}
