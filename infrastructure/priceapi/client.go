package priceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"pricescanner/infrastructure/metrics"
)

const (
	defaultTimeout         = 10 * time.Second
	responseBodyLimit      = 1 << 20
	errorBodyLimit   int64 = 1024
)

var (
	ErrUnauthorized   = errors.New("upstream session is not authenticated")
	ErrNotFound       = errors.New("product not found")
	ErrInvalidBarcode = errors.New("invalid barcode")
	errBaseURL        = errors.New("price api base url is required")
)

// StatusError is returned for unexpected upstream statuses.
type StatusError struct {
	Endpoint string
	Status   int
	Detail   string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: upstream status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: upstream status %d: %s", e.Endpoint, e.Status, e.Detail)
}

// Client talks to the price scanner REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	validate   *validator.Validate
	metrics    *metrics.UpstreamMetrics
	log        zerolog.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient builds a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURL
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, errors.Wrap(err, "parse price api base url")
	}

	client := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    trimmed,
		validate:   validator.New(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Price looks up a product by barcode.
func (c *Client) Price(ctx context.Context, barcode string) (Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Product{}, ErrInvalidBarcode
	}

	var product Product
	status, err := c.doJSON(ctx, "price", http.MethodGet, "/api/price/"+url.PathEscape(barcode), nil, &product)
	switch {
	case status == http.StatusNotFound:
		return Product{}, ErrNotFound
	case status == http.StatusBadRequest:
		return Product{}, ErrInvalidBarcode
	case err != nil:
		return Product{}, err
	}

	if strings.TrimSpace(product.Barcode) == "" {
		product.Barcode = barcode
	}
	if err := c.validate.Struct(product); err != nil {
		return Product{}, errors.Wrapf(err, "invalid product payload for %s", barcode)
	}
	return product, nil
}

// Login posts credentials. The returned cookies are the upstream session
// cookies to relay to the browser.
func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResult, []*http.Cookie, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := c.validate.Struct(creds); err != nil {
		return LoginResult{}, nil, errors.Wrap(err, "invalid credentials")
	}
	body, err := json.Marshal(creds)
	if err != nil {
		return LoginResult{}, nil, errors.Wrap(err, "marshal login request")
	}

	var result LoginResult
	resp, err := c.send(ctx, "login", http.MethodPost, "/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return LoginResult{}, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	// A rejected login answers 401 with a message; that is a result, not a
	// session expiry.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		detail := readDetail(resp.Body)
		return LoginResult{Success: false, Message: detail}, nil, nil
	}
	if err := decodeResponse(resp, "login", &result); err != nil {
		return LoginResult{}, nil, err
	}
	return result, resp.Cookies(), nil
}

// Logout ends the upstream session. The returned cookies clear it in the
// browser.
func (c *Client) Logout(ctx context.Context) (LogoutResult, []*http.Cookie, error) {
	resp, err := c.send(ctx, "logout", http.MethodPost, "/api/logout", "", nil)
	if err != nil {
		return LogoutResult{}, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var result LogoutResult
	if err := decodeResponse(resp, "logout", &result); err != nil {
		return LogoutResult{}, nil, err
	}
	return result, resp.Cookies(), nil
}

func (c *Client) AuthStatus(ctx context.Context) (AuthStatus, error) {
	var status AuthStatus
	if _, err := c.doJSON(ctx, "auth_status", http.MethodGet, "/api/auth-status", nil, &status); err != nil {
		return AuthStatus{}, err
	}
	return status, nil
}

// AppURL returns the URL other devices should open.
func (c *Client) AppURL(ctx context.Context) (string, error) {
	var out appURLResponse
	if _, err := c.doJSON(ctx, "app_url", http.MethodGet, "/api/app-url", nil, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", errors.New("app-url: empty url")
	}
	return out.URL, nil
}

func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	if _, err := c.doJSON(ctx, "health", http.MethodGet, "/api/health", nil, &out); err != nil {
		return HealthStatus{}, err
	}
	return out, nil
}

// UploadAndPrint sends a PDF as multipart field "file".
func (c *Client) UploadAndPrint(ctx context.Context, filename string, pdf []byte) (PrintResult, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return PrintResult{}, errors.Wrap(err, "create multipart file")
	}
	if _, err := part.Write(pdf); err != nil {
		return PrintResult{}, errors.Wrap(err, "write multipart file")
	}
	if err := form.Close(); err != nil {
		return PrintResult{}, errors.Wrap(err, "close multipart body")
	}

	resp, err := c.send(ctx, "upload_and_print", http.MethodPost, "/api/upload-and-print", form.FormDataContentType(), &buf)
	if err != nil {
		return PrintResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var result PrintResult
	if err := decodeResponse(resp, "upload_and_print", &result); err != nil {
		return PrintResult{}, err
	}
	return result, nil
}

func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, body io.Reader, out any) (int, error) {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	resp, err := c.send(ctx, endpoint, method, path, contentType, body)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode, decodeResponse(resp, endpoint, out)
}

func (c *Client) send(ctx context.Context, endpoint, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s request", endpoint)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, cookie := range CookiesFrom(ctx) {
		req.AddCookie(cookie)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, 0, time.Since(start))
		c.log.Warn().Err(err).Str("endpoint", endpoint).Msg("upstream.request.failed")
		return nil, errors.Wrapf(err, "execute %s request", endpoint)
	}
	c.metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(start))
	return resp, nil
}

func decodeResponse(resp *http.Response, endpoint string, out any) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &StatusError{Endpoint: endpoint, Status: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyLimit)).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s response", endpoint)
	}
	return nil
}

func readDetail(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, errorBodyLimit))
	var parsed errorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Detail != "" {
			return parsed.Detail
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
