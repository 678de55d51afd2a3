package html

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// CSRFFieldName is the form field checked by the CSRF middleware. app.js
// copies the token from the csrf-token meta tag into every POST form.
const CSRFFieldName = "_csrf"

type csrfKey struct{}

// WithCSRFToken stores the request's CSRF token for rendering.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfKey{}, token)
}

// CSRFToken returns the token stored by WithCSRFToken, or "".
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}

// Head opens the document: RTL shell, stylesheet and the csrf-token meta tag.
func Head(title, bodyClass string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!doctype html><html lang="ar" dir="rtl"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title>`, templ.EscapeString(title)); err != nil {
			return err
		}
		if token := CSRFToken(ctx); token != "" {
			if _, err := fmt.Fprintf(w, `<meta name="csrf-token" content="%s">`, templ.EscapeString(token)); err != nil {
				return err
			}
		}
		attr := ""
		if bodyClass != "" {
			attr = fmt.Sprintf(` class="%s"`, templ.EscapeString(bodyClass))
		}
		_, err := fmt.Fprintf(w, `<link rel="stylesheet" href="/assets/app.css"></head><body%s>`, attr)
		return err
	})
}

// Foot loads the client script and closes the document.
func Foot() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<script src="/assets/app.js" defer></script></body></html>`)
		return err
	})
}
