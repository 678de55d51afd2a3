package info

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"pricescanner/frontend/shared/html"
)

func InfoPage(page html.Page, data PageData) templ.Component {
	return html.Layout(page, infoBody(data))
}

func infoBody(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section class="info"><h1>%s</h1>`, templ.EscapeString(data.ShopName)); err != nil {
			return err
		}
		if data.AppURL != "" {
			if _, err := fmt.Fprintf(w, `<div class="app-url"><img src="/info/qr.png" alt="QR" width="240" height="240"><p><a href="%s">%s</a></p></div>`,
				templ.EscapeString(string(templ.URL(data.AppURL))), templ.EscapeString(data.AppURL)); err != nil {
				return err
			}
		} else {
			if _, err := io.WriteString(w, `<p class="notice">رابط التطبيق غير متاح حالياً</p>`); err != nil {
				return err
			}
		}

		state := "unknown"
		if data.Upstream.Known {
			state = "down"
			if data.Upstream.Healthy {
				state = "up"
			}
		}
		if _, err := fmt.Fprintf(w, `<p class="upstream upstream-%s">حالة الخادم: <strong>%s</strong>`, state, templ.EscapeString(data.UpstreamText())); err != nil {
			return err
		}
		if data.Upstream.Known && data.Upstream.Message != "" {
			if _, err := fmt.Fprintf(w, ` <small>%s</small>`, templ.EscapeString(data.Upstream.Message)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</p><h2>سجل النشاط</h2><ul class="activity">`); err != nil {
			return err
		}
		for _, e := range data.Activity {
			if _, err := fmt.Fprintf(w, `<li class="level-%s"><time>%s</time> %s</li>`,
				strings.ToLower(string(e.Level)), e.Time.Format("15:04:05"), templ.EscapeString(e.Message)); err != nil {
				return err
			}
		}
		if len(data.Activity) == 0 {
			if _, err := io.WriteString(w, `<li>`+templ.EscapeString(emptyActivity)+`</li>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></section>`)
		return err
	})
}

const emptyActivity = "لا يوجد نشاط بعد"
