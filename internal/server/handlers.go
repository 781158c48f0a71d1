package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"receipt-recon/internal/layout"
	"receipt-recon/internal/settings"
)

// maxReceiptSize bounds the print-layout documents we accept; real receipts
// are a few hundred KB at most.
const maxReceiptSize = 4 << 20 // 4MB

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleHealth is the liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleParseReceipt parses a raw print-layout receipt document and, when
// matching is enabled, reconciles the parsed items against the catalog.
func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxReceiptSize))
	if err != nil {
		slog.Error("Error reading request body", "error", err)
		corsError(w, "Error reading request", http.StatusBadRequest)
		return
	}

	result := layout.Parse(body)
	if result.ParseError == "" && len(result.Items) > 0 {
		cfg := s.settings.Load()
		result.Items = s.resolver.Resolve(r.Context(), result.Items, cfg)
	}

	writeJSON(w, result)
}

// handleBarcodeLookup resolves a scanned barcode to a catalog product.
func (s *Server) handleBarcodeLookup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Barcode string `json:"barcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Barcode == "" {
		corsError(w, "barcode is required", http.StatusBadRequest)
		return
	}

	cfg := s.settings.Load()
	result, err := s.barcodes.Lookup(r.Context(), req.Barcode, cfg)
	if err != nil {
		slog.Error("Barcode lookup failed", "barcode", req.Barcode, "error", err)
		corsError(w, "Barcode lookup failed", http.StatusBadGateway)
		return
	}
	if result == nil {
		corsError(w, "Product not found", http.StatusNotFound)
		return
	}

	writeJSON(w, result)
}

// handleGetSettings returns the current settings document.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.settings.Load())
}

// handleUpdateSettings validates and persists a settings document. Partial
// documents merge over the currently saved settings.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		corsError(w, "Error reading request", http.StatusBadRequest)
		return
	}

	if err := settings.Validate(body); err != nil {
		slog.Warn("Rejected settings update", "error", err)
		corsError(w, "Invalid settings: "+err.Error(), http.StatusBadRequest)
		return
	}

	merged := s.settings.Load()
	if err := json.Unmarshal(body, &merged); err != nil {
		corsError(w, "Invalid settings document", http.StatusBadRequest)
		return
	}
	if err := s.settings.Save(merged); err != nil {
		slog.Error("Error saving settings", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, merged)
}

// handleClearCache deletes the receipt-name match cache so all items get
// re-matched on the next parse.
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Clear(); err != nil {
		slog.Error("Error clearing match cache", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "cleared"})
}
