package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"receipt-recon/internal/catalog"
	"receipt-recon/internal/layout"
	"receipt-recon/internal/settings"
)

// Resolver reconciles parsed line items against the catalog.
type Resolver interface {
	Resolve(ctx context.Context, items []*layout.LineItem, s settings.Settings) []*layout.LineItem
}

// BarcodeLookup resolves scanned barcodes to catalog products.
type BarcodeLookup interface {
	Lookup(ctx context.Context, barcode string, s settings.Settings) (*catalog.BarcodeResult, error)
}

// MatchCacheClearer wipes the receipt-name match cache so items re-match.
type MatchCacheClearer interface {
	Clear() error
}

// SettingsStore loads and persists the matching settings document.
type SettingsStore interface {
	Load() settings.Settings
	Save(s settings.Settings) error
}

// BasicAuth holds basic authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Server handles HTTP requests for receipt parsing, barcode lookups, and
// settings.
type Server struct {
	resolver  Resolver
	barcodes  BarcodeLookup
	cache     MatchCacheClearer
	settings  SettingsStore
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// NewServer creates a new Server with a default mux.
func NewServer(resolver Resolver, barcodes BarcodeLookup, cache MatchCacheClearer, store SettingsStore, basicAuth BasicAuth) *Server {
	return NewServerWithMux(resolver, barcodes, cache, store, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing.
func NewServerWithMux(resolver Resolver, barcodes BarcodeLookup, cache MatchCacheClearer, store SettingsStore, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		resolver:  resolver,
		barcodes:  barcodes,
		cache:     cache,
		settings:  store,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Receipt Recon"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// corsMiddleware adds CORS headers and answers preflight requests.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/receipts/parse", s.corsMiddleware(s.requireAuth(s.handleParseReceipt)))
	s.mux.HandleFunc("POST /api/products/barcode", s.corsMiddleware(s.requireAuth(s.handleBarcodeLookup)))

	s.mux.HandleFunc("GET /api/settings", s.corsMiddleware(s.requireAuth(s.handleGetSettings)))
	s.mux.HandleFunc("PUT /api/settings", s.corsMiddleware(s.requireAuth(s.handleUpdateSettings)))
	s.mux.HandleFunc("POST /api/settings/clear-cache", s.corsMiddleware(s.requireAuth(s.handleClearCache)))

	s.mux.HandleFunc("GET /api/health", s.corsMiddleware(s.handleHealth))

	// Method-scoped patterns never see OPTIONS, so preflight gets its own route.
	s.mux.HandleFunc("OPTIONS /api/", s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {}))
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

// ServeHTTP makes the server usable as an http.Handler in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
