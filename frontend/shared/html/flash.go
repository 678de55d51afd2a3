package html

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"pricescanner/infrastructure/priceapi"
)

// Flash is a one-shot message carried in the redirect query string.
type Flash struct {
	Status string
	Error  string
}

func FlashFromRequest(r *http.Request) Flash {
	q := r.URL.Query()
	return Flash{
		Status: strings.TrimSpace(q.Get("status")),
		Error:  strings.TrimSpace(q.Get("error")),
	}
}

func (f Flash) Empty() bool {
	return f.Status == "" && f.Error == ""
}

// Toast renders the flash as an auto-dismissing notification.
func Toast(f Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if f.Empty() {
			return nil
		}
		kind, msg := "success", f.Status
		if f.Error != "" {
			kind, msg = "error", f.Error
		}
		_, err := fmt.Fprintf(w, `<div class="toast toast-%s" role="status" data-autodismiss="3000">%s</div>`, kind, templ.EscapeString(msg))
		return err
	})
}

func RedirectWithStatus(w http.ResponseWriter, r *http.Request, path, msg string) {
	redirectWith(w, r, path, "status", msg)
}

func RedirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	redirectWith(w, r, path, "error", msg)
}

func redirectWith(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	http.Redirect(w, r, path+sep+key+"="+url.QueryEscape(msg), http.StatusSeeOther)
}

// LoginPath is where every expired upstream session is sent.
const LoginPath = "/login"

func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// HandleUnauthorized redirects to the login screen when err says the
// upstream session is gone. It reports whether it wrote a response.
func HandleUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, priceapi.ErrUnauthorized) {
		return false
	}
	RedirectToLogin(w, r)
	return true
}
