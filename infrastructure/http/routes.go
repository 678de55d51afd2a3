package http

import (
	"github.com/go-chi/chi/v5"

	cartpage "pricescanner/frontend/cart"
	infopage "pricescanner/frontend/info"
	"pricescanner/frontend/invoice"
	"pricescanner/frontend/login"
	"pricescanner/frontend/scanner"
)

// RegisterLoginRoutes registers login/logout routes.
func (s *Server) RegisterLoginRoutes() {
	log := s.Log.Component("login")
	s.router.Get("/login", login.GetLoginScreenHandler)
	s.router.Post("/login", login.CreateLoginHandler(s.API, s.AuthCache, s.SecureCookies, log))
	s.router.Post("/logout", login.LogoutHandler(s.API, s.AuthCache, s.SecureCookies, log))
}

// RegisterFrontendRoutes registers authenticated routes.
func (s *Server) RegisterFrontendRoutes(r chi.Router) chi.Router {
	s.RegisterScannerRoutes(r)
	s.RegisterCartRoutes(r)
	s.RegisterInvoiceRoutes(r)

	log := s.Log.Component("info")
	r.Get("/info", infopage.InfoPageQueryHandler(s.ShopName, s.API, s.monitorStatus(), s.Activity, log))
	r.Get("/info/qr.png", infopage.QRCodeQueryHandler(s.API, log))
	return r
}

func (s *Server) RegisterScannerRoutes(r chi.Router) {
	log := s.Log.Component("scanner")
	r.Get("/scanner", scanner.ScannerPageQueryHandler())
	r.Get("/scanner/lookup", scanner.LookupQueryHandler(s.lookup, log))
	r.Post("/scanner/add", scanner.AddToCartCommandHandler(s.lookup, log))
	r.Get("/scanner/barcode/{barcode}.png", scanner.BarcodeImageQueryHandler())
}

func (s *Server) RegisterCartRoutes(r chi.Router) {
	r.Get("/cart", cartpage.CartPageQueryHandler())
	r.Get("/cart/snapshot", cartpage.SnapshotQueryHandler())
	r.Get("/cart/events", cartpage.EventsHandler(s.Heartbeat, s.Log.Component("cart_events")))
	r.Post("/cart/items/{barcode}/quantity", cartpage.UpdateQuantityCommandHandler())
	r.Post("/cart/items/{barcode}/remove", cartpage.RemoveItemCommandHandler())
	r.Post("/cart/clear", cartpage.ClearCartCommandHandler())
	r.Get("/cart/export.csv", invoice.CSVExportHandler())
}

func (s *Server) RegisterInvoiceRoutes(r chi.Router) {
	r.Get("/invoice.pdf", s.invoices.PDFQueryHandler())
	r.Post("/invoice/print", s.invoices.PrintCommandHandler())
}

// monitorStatus avoids handing the info page a typed nil.
func (s *Server) monitorStatus() infopage.StatusSource {
	if s.Monitor == nil {
		return nil
	}
	return s.Monitor
}
