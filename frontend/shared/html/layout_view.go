package html

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"pricescanner/frontend/shared/nav"
)

// Page carries the chrome shared by every screen.
type Page struct {
	Title string
	Nav   nav.TopNavData
	Flash Flash
}

// Layout wraps body in the mobile-first RTL shell: navigation with the cart
// badge, the transient toast and the client scripts.
func Layout(page Page, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := Head(page.Title, "").Render(ctx, w); err != nil {
			return err
		}
		if err := nav.TopNav(page.Nav).Render(ctx, w); err != nil {
			return err
		}
		if err := Toast(page.Flash).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<main>`); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</main>`); err != nil {
			return err
		}
		return Foot().Render(ctx, w)
	})
}
