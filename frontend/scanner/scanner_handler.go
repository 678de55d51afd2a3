package scanner

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	sharedcontext "pricescanner/frontend/shared/context"
	"pricescanner/frontend/shared/barcode"
	"pricescanner/frontend/shared/html"
	"pricescanner/frontend/shared/nav"
	"pricescanner/frontend/shared/qty"
	"pricescanner/infrastructure/priceapi"
)

const (
	msgBarcodeRequired = "الرجاء إدخال الباركود"
	msgNotFound        = "المنتج غير موجود"
	msgInvalidBarcode  = "باركود غير صالح"
	msgUpstreamFailed  = "تعذر الاتصال بالخادم، حاول مرة أخرى"
	msgAdded           = "تمت إضافة المنتج إلى السلة"
	msgCartUnavailable = "السلة غير متاحة"
	msgStockExhausted  = "لا يمكن إضافة المزيد، الكمية في السلة تساوي المخزون المتاح"
)

// ScannerPageQueryHandler renders the scanner screen without a result.
func ScannerPageQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, PageData{})
	}
}

// LookupQueryHandler looks up ?barcode= and renders the result panel.
func LookupQueryHandler(lookup *Lookup, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(r.URL.Query().Get("barcode"))
		if code == "" {
			html.RedirectWithError(w, r, "/scanner", msgBarcodeRequired)
			return
		}

		product, err := lookup.Find(r.Context(), code)
		if err != nil {
			if html.HandleUnauthorized(w, r, err) {
				return
			}
			log.Warn().Err(err).Str("barcode", code).Msg("scanner.lookup.failed")
			html.RedirectWithError(w, r, "/scanner", lookupMessage(err))
			return
		}

		data := PageData{Query: code, Product: &product}
		if store, ok := sharedcontext.GetCartFromContext(r.Context()); ok {
			if line, found := store.Line(product.Barcode); found {
				data.InCart = line.Quantity
			}
		}
		cp := product.CartProduct()
		data.MaxAdd = qty.Limit(cp.StockQuantity) - data.InCart
		render(w, r, data)
	}
}

// AddToCartCommandHandler adds the scanned product with the requested
// quantity, clamped to the known stock.
func AddToCartCommandHandler(lookup *Lookup, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			html.RedirectWithError(w, r, "/scanner", "invalid form data")
			return
		}
		code := strings.TrimSpace(r.FormValue("barcode"))
		if code == "" {
			html.RedirectWithError(w, r, "/scanner", msgBarcodeRequired)
			return
		}
		back := "/scanner/lookup?barcode=" + url.QueryEscape(code)

		requested, msg := qty.Parse(r.FormValue("quantity"))
		if msg != "" {
			html.RedirectWithError(w, r, back, msg)
			return
		}

		store, ok := sharedcontext.GetCartFromContext(r.Context())
		if !ok {
			html.RedirectWithError(w, r, back, msgCartUnavailable)
			return
		}

		product, err := lookup.Find(r.Context(), code)
		if err != nil {
			if html.HandleUnauthorized(w, r, err) {
				return
			}
			log.Warn().Err(err).Str("barcode", code).Msg("scanner.add.lookup_failed")
			html.RedirectWithError(w, r, "/scanner", lookupMessage(err))
			return
		}
		cp := product.CartProduct()

		existing := 0
		if line, found := store.Line(cp.Barcode); found {
			existing = line.Quantity
		}
		if requested < 1 {
			requested = 1
		}
		clamped, clampMsg := qty.Clamp(existing+requested, cp.StockQuantity)
		add := clamped - existing
		if add < 1 {
			html.RedirectWithError(w, r, back, msgStockExhausted)
			return
		}
		if !store.AddProduct(r.Context(), cp, add) {
			html.RedirectWithError(w, r, back, msgInvalidBarcode)
			return
		}
		if clampMsg != "" {
			html.RedirectWithError(w, r, back, clampMsg)
			return
		}
		html.RedirectWithStatus(w, r, back, msgAdded)
	}
}

// BarcodeImageQueryHandler renders a Code 128 PNG for the result panel.
func BarcodeImageQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "barcode"))
		width := 600
		if v, err := strconv.Atoi(r.URL.Query().Get("w")); err == nil && v >= 200 && v <= 1600 {
			width = v
		}
		png, err := barcode.Code128PNG(code, width, width/4)
		if err != nil {
			http.Error(w, "invalid barcode", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(png)
	}
}

func lookupMessage(err error) string {
	switch {
	case errors.Is(err, priceapi.ErrNotFound):
		return msgNotFound
	case errors.Is(err, priceapi.ErrInvalidBarcode):
		return msgInvalidBarcode
	default:
		return msgUpstreamFailed
	}
}

func render(w http.ResponseWriter, r *http.Request, data PageData) {
	page := html.Page{
		Title: "ماسح الأسعار",
		Nav:   nav.BuildTopNavData(r.Context(), nav.PageScanner),
		Flash: html.FlashFromRequest(r),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ScannerPage(page, data).Render(r.Context(), w); err != nil {
		http.Error(w, "failed to render scanner page", http.StatusInternalServerError)
		return
	}
}
