package session

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// DeviceCookieName names the cookie that scopes the durable cart to one
// browser, the way localStorage is scoped to one origin.
const DeviceCookieName = "X-Cart-Device"

// DeviceCookieMaxAge keeps the device id for a year.
const DeviceCookieMaxAge = 365 * 24 * 60 * 60

// CSRFCookieName holds the double-submit CSRF token.
const CSRFCookieName = "X-CSRF-Token"

// localCookies are owned by this front-end and never forwarded upstream.
var localCookies = map[string]struct{}{
	DeviceCookieName: {},
	CSRFCookieName:   {},
}

func DeviceCookie(value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     DeviceCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   DeviceCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

// NewDeviceID returns a fresh device id.
func NewDeviceID() string {
	return uuid.NewString()
}

// DeviceID returns the device id carried by r, if it is a valid uuid.
func DeviceID(r *http.Request) (string, bool) {
	c, err := r.Cookie(DeviceCookieName)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Value))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// UpstreamCookies returns the request cookies that belong to the price API
// session.
func UpstreamCookies(r *http.Request) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range r.Cookies() {
		if _, local := localCookies[c.Name]; local {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// Relay copies upstream Set-Cookie headers onto w, rescoped to this host.
func Relay(w http.ResponseWriter, cookies []*http.Cookie, secure bool) {
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		if _, local := localCookies[c.Name]; local {
			continue
		}
		relayed := *c
		relayed.Domain = ""
		if relayed.Path == "" {
			relayed.Path = "/"
		}
		relayed.HttpOnly = true
		relayed.Secure = secure || c.Secure
		if relayed.SameSite == 0 {
			relayed.SameSite = http.SameSiteLaxMode
		}
		http.SetCookie(w, &relayed)
	}
}

// ExpireUpstream clears every upstream cookie the browser sent.
func ExpireUpstream(w http.ResponseWriter, r *http.Request) {
	for _, c := range UpstreamCookies(r) {
		http.SetCookie(w, &http.Cookie{Name: c.Name, Value: "", Path: "/", MaxAge: -1})
	}
}

// AuthToken returns a stable cache key for the upstream session carried by
// r, or "" when the browser sent no upstream cookies.
func AuthToken(r *http.Request) string {
	cookies := UpstreamCookies(r)
	if len(cookies) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, ";")
}
