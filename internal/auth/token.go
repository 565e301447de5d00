package auth

import (
	"net/http"
	"strings"
)

const (
	// TokenQueryParam carries the credential on websocket upgrade requests.
	TokenQueryParam = "token"
	// TokenCookieName is the cookie the merchant dashboard sets. Its value
	// may be a signed composite ("token.signature").
	TokenCookieName = "auth_token"
)

// ParseToken extracts the session token from a presented credential. A
// bare token passes through; a "token.signature" composite yields only
// the segment before the first separator. The signature is the issuer's
// concern, not ours; the store lookup is what authenticates the token.
func ParseToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		return raw[:i]
	}
	return raw
}

// CredentialFromRequest pulls the raw credential off an upgrade request:
// explicit query parameter first, then the dashboard cookie. Returns ""
// when nothing was presented.
func CredentialFromRequest(r *http.Request) string {
	if tok := r.URL.Query().Get(TokenQueryParam); tok != "" {
		return tok
	}
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}
