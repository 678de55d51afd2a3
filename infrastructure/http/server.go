package http

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pricescanner/frontend/invoice"
	"pricescanner/frontend/scanner"
	"pricescanner/infrastructure/activity"
	"pricescanner/infrastructure/cache"
	"pricescanner/infrastructure/cartstore"
	"pricescanner/infrastructure/logger"
	"pricescanner/infrastructure/monitor"
	"pricescanner/infrastructure/priceapi"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 2 * time.Second

// StorageProbe reports whether durable cart storage is reachable.
type StorageProbe func(ctx context.Context) error

// Options carries the server's collaborators.
type Options struct {
	Addr          string
	ShopName      string
	SecureCookies bool

	Log       *logger.Logger
	Carts     *cartstore.Opener
	API       *priceapi.Client
	AuthCache *cache.AuthSessionCache
	Products  *cache.ProductCache
	Activity  *activity.Log
	Monitor   *monitor.Monitor
	Gatherer  prometheus.Gatherer
	Storage   StorageProbe
	Heartbeat time.Duration
}

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	ShopName      string
	SecureCookies bool
	Log           *logger.Logger
	Carts         *cartstore.Opener
	API           *priceapi.Client
	AuthCache     *cache.AuthSessionCache
	Activity      *activity.Log
	Monitor       *monitor.Monitor
	Storage       StorageProbe
	Heartbeat     time.Duration

	lookup   *scanner.Lookup
	invoices *invoice.Service
}

// NewServer creates a new http server.
func NewServer(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Activity == nil {
		opts.Activity = activity.NewLog(activity.DefaultMaxEntries)
	}
	if opts.AuthCache == nil {
		opts.AuthCache = cache.NewAuthSessionCache(0)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		Addr:          opts.Addr,
		router:        chi.NewRouter(),
		ShopName:      opts.ShopName,
		SecureCookies: opts.SecureCookies,
		Log:           opts.Log,
		Carts:         opts.Carts,
		API:           opts.API,
		AuthCache:     opts.AuthCache,
		Activity:      opts.Activity,
		Monitor:       opts.Monitor,
		Storage:       opts.Storage,
		Heartbeat:     opts.Heartbeat,
		server: &http.Server{
			MaxHeaderBytes: 1 << 20,
		},
	}
	s.lookup = scanner.NewLookup(opts.API, opts.Products)
	s.invoices = invoice.NewService(opts.ShopName, opts.API, opts.API, opts.Log.Component("invoice"))

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.RequestID)
	s.router.Use(s.RequestLoggerMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.CSRFMiddleware)
	s.router.Use(s.UpstreamCookiesMiddleware)

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/scanner", http.StatusSeeOther)
	})

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Get("/api/local-health", s.LocalHealthHandler)
	s.router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		zl := s.Log.Zerolog()
		zl.Error().Err(err).Msg("assets subfs init failed; serving fallback fs")
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	s.RegisterLoginRoutes()

	s.router.Group(func(r chi.Router) {
		r.Use(s.DeviceMiddleware)
		r.Use(s.AuthenticateMiddleware)
		r.Use(s.CartMiddleware)
		s.RegisterFrontendRoutes(r)
	})

	// Open event streams end when shutdown starts instead of holding it up.
	baseCtx, cancel := context.WithCancel(context.Background())
	s.server.BaseContext = func(net.Listener) context.Context { return baseCtx }
	s.server.RegisterOnShutdown(cancel)

	s.server.Handler = s.router
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go s.server.Serve(s.ln)
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}

// URL returns the listening address once started.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}
