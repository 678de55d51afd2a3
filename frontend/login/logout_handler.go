package login

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	sessioncookie "pricescanner/infrastructure/session"
)

// LogoutHandler ends the upstream session and clears its cookies. The cart
// is kept: it belongs to the device, not the user.
func LogoutHandler(client AuthClient, sessions SessionCache, secure bool, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg := msgLoggedOut
		result, cookies, err := client.Logout(r.Context())
		if err != nil {
			log.Warn().Err(err).Msg("logout.upstream.failed")
		} else if m := strings.TrimSpace(result.Message); m != "" {
			msg = m
		}

		if token := sessioncookie.AuthToken(r); token != "" && sessions != nil {
			sessions.Delete(token)
		}
		sessioncookie.ExpireUpstream(w, r)
		sessioncookie.Relay(w, cookies, secure)
		http.Redirect(w, r, "/login?status="+url.QueryEscape(msg), http.StatusSeeOther)
	}
}
