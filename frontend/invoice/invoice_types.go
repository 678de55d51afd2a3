package invoice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pricescanner/infrastructure/cartstore"
	"pricescanner/infrastructure/priceapi"
)

// Printer forwards a rendered invoice to the upstream print endpoint.
type Printer interface {
	UploadAndPrint(ctx context.Context, filename string, pdf []byte) (priceapi.PrintResult, error)
}

// AppURLSource resolves the URL customers scan to open the app.
type AppURLSource interface {
	AppURL(ctx context.Context) (string, error)
}

// Data is everything an invoice page shows.
type Data struct {
	ShopName  string
	AppURL    string
	Lines     []cartstore.Line
	Count     int
	Total     decimal.Decimal
	PrintedAt time.Time
}

// Filename names the PDF after its print time.
func (d Data) Filename() string {
	return "invoice-" + d.PrintedAt.Format("20060102-150405") + ".pdf"
}
