package invoice

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	sharedcontext "pricescanner/frontend/shared/context"
	"pricescanner/frontend/shared/html"
	"pricescanner/infrastructure/cartstore"
)

const (
	msgEmptyCart       = "السلة فارغة"
	msgPrinted         = "تم إرسال الفاتورة للطباعة بنجاح"
	msgPrintFallback   = "تعذرت الطباعة. تم فتح الفاتورة للتنزيل."
	msgRenderFailed    = "تعذر إنشاء الفاتورة"
	msgCartUnavailable = "السلة غير متاحة"
)

// FallbackQuery tells the cart page script to open the PDF after a failed
// print.
const FallbackQuery = "open=invoice"

// Service renders invoices for the request's cart.
type Service struct {
	shopName string
	appURL   AppURLSource
	printer  Printer
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(shopName string, appURL AppURLSource, printer Printer, log zerolog.Logger) *Service {
	return &Service{
		shopName: shopName,
		appURL:   appURL,
		printer:  printer,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) build(ctx context.Context, store *cartstore.Store) Data {
	snap := store.Snapshot()
	data := Data{
		ShopName:  s.shopName,
		Lines:     snap.Lines,
		Count:     snap.Count,
		Total:     snap.Total,
		PrintedAt: s.now(),
	}
	if s.appURL != nil {
		// The QR code is optional; an expired session only loses it here.
		if url, err := s.appURL.AppURL(ctx); err == nil {
			data.AppURL = url
		} else {
			s.log.Debug().Err(err).Msg("invoice.app_url.failed")
		}
	}
	return data
}

// PDFQueryHandler serves the invoice for download.
func (s *Service) PDFQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sharedcontext.GetCartFromContext(r.Context())
		if !ok {
			http.Error(w, msgCartUnavailable, http.StatusInternalServerError)
			return
		}
		if store.Count() == 0 {
			html.RedirectWithError(w, r, "/cart", msgEmptyCart)
			return
		}
		data := s.build(r.Context(), store)
		pdf, err := renderInvoicePDF(data)
		if err != nil {
			s.log.Error().Err(err).Msg("invoice.render.failed")
			http.Error(w, "failed to render invoice", http.StatusInternalServerError)
			return
		}
		disposition := "attachment"
		if r.URL.Query().Get("inline") == "1" {
			disposition = "inline"
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", disposition+"; filename="+data.Filename())
		_, _ = w.Write(pdf)
	}
}

// PrintCommandHandler uploads the invoice to the print endpoint. A failed
// print falls back to opening the PDF in the browser.
func (s *Service) PrintCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sharedcontext.GetCartFromContext(r.Context())
		if !ok {
			html.RedirectWithError(w, r, "/cart", msgCartUnavailable)
			return
		}
		if store.Count() == 0 {
			html.RedirectWithError(w, r, "/cart", msgEmptyCart)
			return
		}
		data := s.build(r.Context(), store)
		pdf, err := renderInvoicePDF(data)
		if err != nil {
			s.log.Error().Err(err).Msg("invoice.render.failed")
			html.RedirectWithError(w, r, "/cart", msgRenderFailed)
			return
		}

		result, err := s.printer.UploadAndPrint(r.Context(), data.Filename(), pdf)
		if err != nil {
			if html.HandleUnauthorized(w, r, err) {
				return
			}
			s.log.Warn().Err(err).Msg("invoice.print.failed")
			html.RedirectWithError(w, r, "/cart?"+FallbackQuery, msgPrintFallback)
			return
		}
		msg := strings.TrimSpace(result.Message)
		if !result.Success {
			if msg == "" {
				msg = msgPrintFallback
			}
			html.RedirectWithError(w, r, "/cart?"+FallbackQuery, msg)
			return
		}
		if msg == "" {
			msg = msgPrinted
		}
		html.RedirectWithStatus(w, r, "/cart", msg)
	}
}

// CSVExportHandler downloads the cart as CSV.
func CSVExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sharedcontext.GetCartFromContext(r.Context())
		if !ok {
			http.Error(w, msgCartUnavailable, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=cart.csv")
		if err := WriteCSV(w, store.Cart()); err != nil {
			http.Error(w, "failed to export csv", http.StatusInternalServerError)
			return
		}
	}
}
