package priceapi

import (
	"context"
	"net/http"
)

type cookiesKey struct{}

// WithCookies attaches the browser's upstream session cookies to ctx. The
// client forwards them on every request made with that context.
func WithCookies(ctx context.Context, cookies []*http.Cookie) context.Context {
	if len(cookies) == 0 {
		return ctx
	}
	return context.WithValue(ctx, cookiesKey{}, cookies)
}

// CookiesFrom returns the cookies attached by WithCookies.
func CookiesFrom(ctx context.Context) []*http.Cookie {
	cookies, _ := ctx.Value(cookiesKey{}).([]*http.Cookie)
	return cookies
}
