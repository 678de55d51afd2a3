package cart

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	sharedcontext "pricescanner/frontend/shared/context"
	"pricescanner/frontend/shared/html"
	"pricescanner/frontend/shared/nav"
	"pricescanner/frontend/shared/qty"
)

const (
	msgUpdated         = "تم تحديث الكمية"
	msgRemoved         = "تم حذف المنتج من السلة"
	msgCleared         = "تم إفراغ السلة"
	msgNotInCart       = "المنتج غير موجود في السلة"
	msgCartUnavailable = "السلة غير متاحة"
)

// CartPageQueryHandler renders the cart list with totals.
func CartPageQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sharedcontext.GetCartFromContext(r.Context())
		if !ok {
			http.Error(w, msgCartUnavailable, http.StatusInternalServerError)
			return
		}
		page := html.Page{
			Title: "السلة",
			Nav:   nav.BuildTopNavData(r.Context(), nav.PageCart),
			Flash: html.FlashFromRequest(r),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := CartPage(page, buildPageData(store.Snapshot())).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render cart page", http.StatusInternalServerError)
			return
		}
	}
}

// UpdateQuantityCommandHandler sets a line's quantity. Zero or less removes
// the line; anything above the known stock is clamped.
func UpdateQuantityCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sharedcontext.GetCartFromContext(r.Context())
		if !ok {
			html.RedirectWithError(w, r, "/cart", msgCartUnavailable)
			return
		}
		if err := r.ParseForm(); err != nil {
			html.RedirectWithError(w, r, "/cart", "invalid form data")
			return
		}
		barcode := strings.TrimSpace(chi.URLParam(r, "barcode"))
		requested, msg := qty.Parse(r.FormValue("quantity"))
		if msg != "" {
			html.RedirectWithError(w, r, "/cart", msg)
			return
		}

		line, found := store.Line(barcode)
		if !found {
			html.RedirectWithError(w, r, "/cart", msgNotInCart)
			return
		}
		if requested <= 0 {
			store.UpdateQuantity(r.Context(), barcode, requested)
			html.RedirectWithStatus(w, r, "/cart", msgRemoved)
			return
		}

		clamped, clampMsg := qty.Clamp(requested, line.StockQuantity)
		if !store.UpdateQuantity(r.Context(), barcode, clamped) {
			html.RedirectWithError(w, r, "/cart", msgNotInCart)
			return
		}
		if clampMsg != "" {
			html.RedirectWithError(w, r, "/cart", clampMsg)
			return
		}
		html.RedirectWithStatus(w, r, "/cart", msgUpdated)
	}
}

func RemoveItemCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sharedcontext.GetCartFromContext(r.Context())
		if !ok {
			html.RedirectWithError(w, r, "/cart", msgCartUnavailable)
			return
		}
		if !store.RemoveProduct(r.Context(), chi.URLParam(r, "barcode")) {
			html.RedirectWithError(w, r, "/cart", msgNotInCart)
			return
		}
		html.RedirectWithStatus(w, r, "/cart", msgRemoved)
	}
}

func ClearCartCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sharedcontext.GetCartFromContext(r.Context())
		if !ok {
			html.RedirectWithError(w, r, "/cart", msgCartUnavailable)
			return
		}
		store.ClearCart(r.Context())
		html.RedirectWithStatus(w, r, "/cart", msgCleared)
	}
}

// SnapshotQueryHandler returns the cart as JSON.
func SnapshotQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sharedcontext.GetCartFromContext(r.Context())
		if !ok {
			http.Error(w, msgCartUnavailable, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(NewPayload(store.Snapshot(), true))
	}
}
