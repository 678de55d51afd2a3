package login

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"pricescanner/frontend/shared/html"
)

// GetLoginScreen renders the standalone sign-in page.
func GetLoginScreen(data ScreenData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := html.Head("تسجيل الدخول", "login").Render(ctx, w); err != nil {
			return err
		}
		if err := html.Toast(html.Flash{Status: data.Status, Error: data.Error}).Render(ctx, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<main><form method="POST" action="/login" class="login-form">
  <h1>تسجيل الدخول</h1>
  <label for="username">اسم المستخدم</label>
  <input id="username" name="username" type="text" autocomplete="username" required value="%s">
  <label for="password">كلمة المرور</label>
  <input id="password" name="password" type="password" autocomplete="current-password" required>
  <button type="submit">دخول</button>
</form></main>`, templ.EscapeString(data.Username)); err != nil {
			return err
		}
		return html.Foot().Render(ctx, w)
	})
}
