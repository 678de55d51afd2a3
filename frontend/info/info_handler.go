package info

import (
	"net/http"

	"github.com/rs/zerolog"

	"pricescanner/frontend/shared/barcode"
	"pricescanner/frontend/shared/html"
	"pricescanner/frontend/shared/nav"
	"pricescanner/infrastructure/activity"
)

// InfoPageQueryHandler shows how to reach the app, upstream health and the
// recent activity feed.
func InfoPageQueryHandler(shopName string, urls AppURLSource, status StatusSource, feed *activity.Log, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := PageData{
			ShopName: shopName,
			Activity: feed.Recent(RecentEntries),
		}
		if status != nil {
			data.Upstream = status.Status()
		}
		appURL, err := urls.AppURL(r.Context())
		if err != nil {
			if html.HandleUnauthorized(w, r, err) {
				return
			}
			log.Warn().Err(err).Msg("info.app_url.failed")
		}
		data.AppURL = appURL

		page := html.Page{
			Title: "معلومات",
			Nav:   nav.BuildTopNavData(r.Context(), nav.PageInfo),
			Flash: html.FlashFromRequest(r),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := InfoPage(page, data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render info page", http.StatusInternalServerError)
			return
		}
	}
}

// QRCodeQueryHandler renders the app URL as a QR code PNG.
func QRCodeQueryHandler(urls AppURLSource, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appURL, err := urls.AppURL(r.Context())
		if err != nil {
			if html.HandleUnauthorized(w, r, err) {
				return
			}
			log.Warn().Err(err).Msg("info.qr.app_url_failed")
			http.Error(w, "app url unavailable", http.StatusBadGateway)
			return
		}
		png, err := barcode.QRPNG(appURL, 320)
		if err != nil {
			http.Error(w, "failed to render qr code", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(png)
	}
}
