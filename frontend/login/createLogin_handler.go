package login

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"pricescanner/infrastructure/priceapi"
	sessioncookie "pricescanner/infrastructure/session"
)

const (
	msgInvalidForm    = "بيانات النموذج غير صالحة"
	msgCredentials    = "الرجاء إدخال اسم المستخدم وكلمة المرور"
	msgRejected       = "اسم المستخدم أو كلمة المرور غير صحيحة"
	msgUpstreamFailed = "تعذر تسجيل الدخول، حاول مرة أخرى"
	msgLoggedOut      = "تم تسجيل الخروج"
)

// CreateLoginHandler signs in against the upstream API and relays its
// session cookies to the browser.
func CreateLoginHandler(client AuthClient, sessions SessionCache, secure bool, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/login?error="+url.QueryEscape(msgInvalidForm), http.StatusSeeOther)
			return
		}

		form := loginForm{
			Username: strings.TrimSpace(r.FormValue("username")),
			Password: r.FormValue("password"),
		}
		username := form.Username
		if err := formValidator.Struct(form); err != nil {
			log.Debug().Err(err).Msg("login.form.invalid")
			http.Redirect(w, r, loginURL(username, msgCredentials), http.StatusSeeOther)
			return
		}

		result, cookies, err := client.Login(r.Context(), priceapi.Credentials{Username: form.Username, Password: form.Password})
		if err != nil {
			log.Warn().Err(err).Str("username", username).Msg("login.upstream.failed")
			http.Redirect(w, r, loginURL(username, msgUpstreamFailed), http.StatusSeeOther)
			return
		}
		if !result.Success {
			msg := strings.TrimSpace(result.Message)
			if msg == "" {
				msg = msgRejected
			}
			http.Redirect(w, r, loginURL(username, msg), http.StatusSeeOther)
			return
		}

		// Any cached "not authenticated" answer for the old cookies is stale.
		if token := sessioncookie.AuthToken(r); token != "" && sessions != nil {
			sessions.Delete(token)
		}
		sessioncookie.Relay(w, cookies, secure)
		log.Info().Str("username", username).Msg("login.succeeded")
		http.Redirect(w, r, landing(result.RedirectURL), http.StatusSeeOther)
	}
}

func loginURL(username, msg string) string {
	q := url.Values{"error": {msg}}
	if username != "" {
		q.Set("username", username)
	}
	return "/login?" + q.Encode()
}

// landing accepts only local absolute paths from the upstream.
func landing(redirect string) string {
	redirect = strings.TrimSpace(redirect)
	if redirect == "" || redirect == "/" || !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") || strings.HasPrefix(redirect, "/login") {
		return DefaultLanding
	}
	return redirect
}
