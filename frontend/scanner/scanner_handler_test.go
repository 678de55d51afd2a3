package scanner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedcontext "pricescanner/frontend/shared/context"
	"pricescanner/infrastructure/cache"
	"pricescanner/infrastructure/cartstore"
	"pricescanner/infrastructure/priceapi"
)

type fakePrices struct {
	products map[string]priceapi.Product
	err      error
	calls    int
}

func (f *fakePrices) Price(_ context.Context, barcode string) (priceapi.Product, error) {
	f.calls++
	if f.err != nil {
		return priceapi.Product{}, f.err
	}
	p, ok := f.products[barcode]
	if !ok {
		return priceapi.Product{}, priceapi.ErrNotFound
	}
	return p, nil
}

func stockPtr(v float64) *float64 { return &v }

func newFixture(t *testing.T) (*fakePrices, *Lookup, *cartstore.Store) {
	t.Helper()
	prices := &fakePrices{products: map[string]priceapi.Product{
		"A1": {Barcode: "A1", ProductName: "Widget", Price: 9.99, Currency: "USD", StockQty: stockPtr(5)},
		"B2": {Barcode: "B2", ProductName: "شاي", Price: 2.5, Currency: "SAR"},
	}}
	lookup := NewLookup(prices, cache.NewProductCache(time.Minute))
	store := cartstore.Open(context.Background(), cartstore.NewMemoryStorage())
	return prices, lookup, store
}

func withCart(r *http.Request, store *cartstore.Store) *http.Request {
	return r.WithContext(sharedcontext.NewContextWithCart(r.Context(), store))
}

func postAdd(t *testing.T, h http.HandlerFunc, store *cartstore.Store, barcode, quantity string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"barcode": {barcode}, "quantity": {quantity}}
	r := httptest.NewRequest(http.MethodPost, "/scanner/add", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h(w, withCart(r, store))
	return w
}

func TestLookupRendersResultPanel(t *testing.T) {
	_, lookup, store := newFixture(t)
	r := httptest.NewRequest(http.MethodGet, "/scanner/lookup?barcode=+A1+", nil)
	w := httptest.NewRecorder()

	LookupQueryHandler(lookup, zerolog.Nop())(w, withCart(r, store))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Widget")
	assert.Contains(t, body, "9.99")
	assert.Contains(t, body, `max="5"`)
	assert.Contains(t, body, `/scanner/barcode/A1.png`)
	assert.Contains(t, body, `id="cart-badge"`)
}

func TestLookupEmptyBarcodeRedirects(t *testing.T) {
	_, lookup, store := newFixture(t)
	r := httptest.NewRequest(http.MethodGet, "/scanner/lookup?barcode=+++", nil)
	w := httptest.NewRecorder()

	LookupQueryHandler(lookup, zerolog.Nop())(w, withCart(r, store))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/scanner?error="))
}

func TestLookupNotFoundRedirectsWithMessage(t *testing.T) {
	_, lookup, store := newFixture(t)
	r := httptest.NewRequest(http.MethodGet, "/scanner/lookup?barcode=ZZ", nil)
	w := httptest.NewRecorder()

	LookupQueryHandler(lookup, zerolog.Nop())(w, withCart(r, store))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/scanner?error="+url.QueryEscape(msgNotFound), w.Header().Get("Location"))
}

func TestLookupUnauthorizedRedirectsToLogin(t *testing.T) {
	prices, lookup, store := newFixture(t)
	prices.err = priceapi.ErrUnauthorized
	r := httptest.NewRequest(http.MethodGet, "/scanner/lookup?barcode=A1", nil)
	w := httptest.NewRecorder()

	LookupQueryHandler(lookup, zerolog.Nop())(w, withCart(r, store))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAddMergesAndClampsToStock(t *testing.T) {
	prices, lookup, store := newFixture(t)
	h := AddToCartCommandHandler(lookup, zerolog.Nop())

	w := postAdd(t, h, store, "A1", "2")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "status=")
	assert.Equal(t, 2, store.Count())

	w = postAdd(t, h, store, "A1", "10")
	assert.Contains(t, w.Header().Get("Location"), "error=")
	line, ok := store.Line("A1")
	require.True(t, ok)
	assert.Equal(t, 5, line.Quantity)
	assert.Len(t, store.Cart(), 1)

	w = postAdd(t, h, store, "A1", "1")
	assert.Contains(t, w.Header().Get("Location"), "error="+url.QueryEscape(msgStockExhausted))
	assert.Equal(t, 5, store.Count())

	assert.Equal(t, 1, prices.calls, "cache should absorb repeated lookups")
}

func TestAddUnknownStockCapsAtMax(t *testing.T) {
	_, lookup, store := newFixture(t)
	h := AddToCartCommandHandler(lookup, zerolog.Nop())

	postAdd(t, h, store, "B2", "1500")
	line, ok := store.Line("B2")
	require.True(t, ok)
	assert.Equal(t, cartstore.MaxQuantity, line.Quantity)
	assert.Equal(t, "SAR", line.Currency)
	assert.Equal(t, "2497.5", store.Total().String())
}

func TestAddHugeQuantityMergesToMax(t *testing.T) {
	_, lookup, store := newFixture(t)
	h := AddToCartCommandHandler(lookup, zerolog.Nop())

	postAdd(t, h, store, "B2", "2")
	w := postAdd(t, h, store, "B2", "9223372036854775807")

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.NotEqual(t, msgStockExhausted, loc.Query().Get("error"))
	assert.Contains(t, loc.Query().Get("error"), "999")
	line, ok := store.Line("B2")
	require.True(t, ok)
	assert.Equal(t, cartstore.MaxQuantity, line.Quantity)
}

func TestAddRejectsBadQuantity(t *testing.T) {
	_, lookup, store := newFixture(t)
	w := postAdd(t, AddToCartCommandHandler(lookup, zerolog.Nop()), store, "A1", "abc")

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "error=")
	assert.Equal(t, 0, store.Count())
}

func TestBarcodeImage(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/scanner/barcode/{barcode}.png", BarcodeImageQueryHandler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scanner/barcode/6291041500213.png", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}
