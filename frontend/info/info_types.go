package info

import (
	"context"

	"pricescanner/infrastructure/activity"
	"pricescanner/infrastructure/monitor"
)

// AppURLSource resolves the URL other devices use to reach the app.
type AppURLSource interface {
	AppURL(ctx context.Context) (string, error)
}

// StatusSource reports the last upstream health check.
type StatusSource interface {
	Status() monitor.Status
}

// RecentEntries is how many activity entries the page shows.
const RecentEntries = 20

type PageData struct {
	ShopName string
	AppURL   string
	Upstream monitor.Status
	Activity []activity.Entry
}

func (d PageData) UpstreamText() string {
	switch {
	case !d.Upstream.Known:
		return "جارٍ التحقق..."
	case d.Upstream.Healthy:
		return "متصل"
	default:
		return "غير متصل"
	}
}
