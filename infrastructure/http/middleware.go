package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	sharedcontext "pricescanner/frontend/shared/context"
	"pricescanner/frontend/shared/html"
	"pricescanner/infrastructure/cartstore"
	"pricescanner/infrastructure/priceapi"
	sessioncookie "pricescanner/infrastructure/session"
)

// RequestLoggerMiddleware attaches a request-scoped zerolog logger and logs
// request.start / request.complete.
func (s *Server) RequestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = s.Log.WithRequestID(ctx, reqID)
		}
		ctx = s.Log.WithFields(ctx, map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
		})

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		s.Log.From(ctx).Debug().Msg("request.start")

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.Log.From(ctx).Info().
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("request.complete")
	})
}

// UpstreamCookiesMiddleware hands the browser's upstream session cookies to
// the price API client through the request context.
func (s *Server) UpstreamCookiesMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := priceapi.WithCookies(r.Context(), sessioncookie.UpstreamCookies(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceMiddleware makes sure the browser carries a device id; the id scopes
// its durable cart.
func (s *Server) DeviceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID, ok := sessioncookie.DeviceID(r)
		if !ok {
			deviceID = sessioncookie.NewDeviceID()
			http.SetCookie(w, sessioncookie.DeviceCookie(deviceID, s.SecureCookies))
		}
		ctx := sharedcontext.NewContextWithDevice(r.Context(), deviceID)
		ctx = s.Log.WithDeviceID(ctx, deviceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthenticateMiddleware asks the upstream whether the browser's session is
// signed in, caching positive answers briefly. Unauthenticated sessions and
// any 401 go to the login screen. An unreachable upstream lets the request
// through so the cart stays usable.
func (s *Server) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessioncookie.AuthToken(r)
		if token == "" {
			html.RedirectToLogin(w, r)
			return
		}

		status, found := s.AuthCache.Find(token)
		if !found {
			var err error
			status, err = s.API.AuthStatus(r.Context())
			switch {
			case errors.Is(err, priceapi.ErrUnauthorized):
				html.RedirectToLogin(w, r)
				return
			case err != nil:
				s.Log.Warn(r.Context(), "auth.status.unavailable", err)
				next.ServeHTTP(w, r)
				return
			}
			if !status.Authenticated {
				html.RedirectToLogin(w, r)
				return
			}
			s.AuthCache.Add(token, status)
		}

		ctx := sharedcontext.NewContextWithUser(r.Context(), status)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CartMiddleware opens the device's cart store for the request.
func (s *Server) CartMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID, _ := sharedcontext.GetDeviceFromContext(r.Context())
		store := s.Carts.Open(r.Context(), deviceID, cartstore.WithLogger(*s.Log.From(r.Context())))
		ctx := sharedcontext.NewContextWithCart(r.Context(), store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
