package priceapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricescanner/infrastructure/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL+"/", opts...)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestPriceReturnsProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/price/123456789012", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"barcode":      "123456789012",
			"product_name": "Coca Cola 330ml",
			"price":        2.5,
			"currency":     "USD",
			"stock_qty":    12,
		})
	})

	p, err := client.Price(context.Background(), " 123456789012 ")
	require.NoError(t, err)
	assert.Equal(t, "Coca Cola 330ml", p.ProductName)
	assert.Equal(t, 2.5, p.Price)

	cp := p.CartProduct()
	require.NotNil(t, cp.StockQuantity)
	assert.Equal(t, 12, *cp.StockQuantity)
}

func TestPriceStatusMapping(t *testing.T) {
	cases := map[int]error{
		http.StatusNotFound:     ErrNotFound,
		http.StatusBadRequest:   ErrInvalidBarcode,
		http.StatusUnauthorized: ErrUnauthorized,
	}
	for status, want := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, map[string]string{"detail": "nope"})
		})
		_, err := client.Price(context.Background(), "A1")
		assert.ErrorIs(t, err, want, "status %d", status)
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Database error: gone"})
	})
	_, err := client.Price(context.Background(), "A1")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Equal(t, "Database error: gone", statusErr.Detail)
}

func TestPriceRejectsBlankBarcodeWithoutCalling(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	_, err := client.Price(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidBarcode)
	assert.False(t, called)
}

func TestPriceValidatesPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"barcode": "A1", "price": -1})
	})
	_, err := client.Price(context.Background(), "A1")
	assert.Error(t, err)
}

func TestForwardsCookies(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc", c.Value)
		}
		writeJSON(w, http.StatusOK, AuthStatus{Authenticated: true, Username: "amal"})
	})

	ctx := WithCookies(context.Background(), []*http.Cookie{{Name: "session", Value: "abc"}})
	status, err := client.AuthStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.Equal(t, "amal", status.Username)
}

func TestLoginRelaysCookiesAndRejections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "اسم المستخدم أو كلمة المرور غير صحيحة"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "xyz", Path: "/"})
		writeJSON(w, http.StatusOK, LoginResult{Success: true, Username: creds.Username, RedirectURL: "/"})
	})

	result, cookies, err := client.Login(context.Background(), Credentials{Username: " amal ", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "amal", result.Username)
	require.Len(t, cookies, 1)
	assert.Equal(t, "xyz", cookies[0].Value)

	result, cookies, err = client.Login(context.Background(), Credentials{Username: "amal", Password: "wrong"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
	assert.Empty(t, cookies)

	_, _, err = client.Login(context.Background(), Credentials{Username: "", Password: "x"})
	assert.Error(t, err)
}

func TestUploadAndPrintSendsMultipartFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "invoice.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.3", string(data))
		writeJSON(w, http.StatusOK, PrintResult{Success: true, Message: "تم إرسال الملف للطباعة"})
	})

	result, err := client.UploadAndPrint(context.Background(), "invoice.pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestAppURLAndHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/app-url":
			writeJSON(w, http.StatusOK, map[string]string{"url": "https://192.168.1.5:8000"})
		case "/api/health":
			writeJSON(w, http.StatusOK, HealthStatus{Status: "healthy", Database: "connected"})
		default:
			http.NotFound(w, r)
		}
	})

	u, err := client.AppURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://192.168.1.5:8000", u)

	h, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Healthy())
}

func TestRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthStatus{Status: "healthy"})
	}, WithMetrics(metrics.NewUpstreamMetrics(reg)))

	_, err := client.Health(context.Background())
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "upstream_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}, WithTimeout(20*time.Millisecond))

	_, err := client.Health(context.Background())
	assert.Error(t, err)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	assert.Error(t, err)
}
