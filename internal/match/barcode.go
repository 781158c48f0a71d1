package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"receipt-recon/internal/catalog"
	"receipt-recon/internal/settings"
)

// CatalogLookup is the catalog surface the barcode path needs beyond the
// resolver's Gateway: per-barcode page search and per-SKU detail.
type CatalogLookup interface {
	SearchCandidates(ctx context.Context, query string) ([]catalog.Candidate, error)
	FindSKUByBarcode(ctx context.Context, barcode string) (string, error)
	ProductBySKU(ctx context.Context, sku string) (*catalog.Product, error)
}

// FoodFacts supplies a product name for a barcode the catalog does not know.
type FoodFacts interface {
	Lookup(ctx context.Context, barcode string) (*catalog.OFFProduct, error)
}

// BarcodeCache is the read-through store for resolved barcodes.
type BarcodeCache interface {
	GetBarcode(code string) (catalog.BarcodeResult, bool, error)
	PutBarcode(code string, result catalog.BarcodeResult) error
}

// BarcodeService resolves scanned barcodes to catalog products, falling back
// to an OpenFoodFacts name lookup plus EAN-similarity matching when the
// catalog has no direct hit.
type BarcodeService struct {
	catalog CatalogLookup
	off     FoodFacts
	cache   BarcodeCache
}

// NewBarcodeService creates a BarcodeService.
func NewBarcodeService(catalogLookup CatalogLookup, off FoodFacts, barcodeCache BarcodeCache) *BarcodeService {
	return &BarcodeService{catalog: catalogLookup, off: off, cache: barcodeCache}
}

// Lookup resolves a barcode to a product summary, or nil when nothing
// matches. Results are cached per raw barcode when caching is enabled.
func (b *BarcodeService) Lookup(ctx context.Context, barcode string, s settings.Settings) (*catalog.BarcodeResult, error) {
	if s.UseBarcodeCache {
		cached, ok, err := b.cache.GetBarcode(barcode)
		if err != nil {
			slog.Warn("Barcode cache read failed", "barcode", barcode, "error", err)
		} else if ok {
			return &cached, nil
		}
	}

	result, err := b.resolve(ctx, barcode, s)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	if s.UseBarcodeCache {
		if err := b.cache.PutBarcode(barcode, *result); err != nil {
			slog.Warn("Barcode cache write failed", "barcode", barcode, "error", err)
		}
	}
	return result, nil
}

func (b *BarcodeService) resolve(ctx context.Context, barcode string, s settings.Settings) (*catalog.BarcodeResult, error) {
	normalized := nonDigitRe.ReplaceAllString(barcode, "")

	sku, err := b.catalog.FindSKUByBarcode(ctx, barcode)
	if err != nil {
		slog.Warn("Catalog barcode search failed", "barcode", barcode, "error", err)
		sku = ""
	}
	if sku == "" {
		return b.fallback(ctx, barcode, s)
	}

	product, err := b.catalog.ProductBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("fetching product %s: %w", sku, err)
	}
	if product == nil {
		return b.fallback(ctx, barcode, s)
	}
	if product.EAN != barcode && product.EAN != normalized {
		slog.Info("EAN mismatch on direct hit", "barcode", barcode, "ean", product.EAN)
		return b.fallback(ctx, barcode, s)
	}

	return &catalog.BarcodeResult{
		SKU:      product.SKU,
		Title:    product.Title,
		EAN:      barcode,
		Brand:    product.Brand,
		Image:    product.Image,
		Price:    product.Price,
		Verified: true,
	}, nil
}

// fallback asks OpenFoodFacts for the product name, searches the catalog with
// it, and picks the candidate with the best EAN similarity to the scanned
// barcode. A strong EAN match (>=90) counts as verified.
func (b *BarcodeService) fallback(ctx context.Context, barcode string, s settings.Settings) (*catalog.BarcodeResult, error) {
	if !s.UseOpenFoodFactsFallback {
		return nil, nil
	}

	off, err := b.off.Lookup(ctx, barcode)
	if err != nil {
		slog.Warn("OpenFoodFacts lookup failed", "barcode", barcode, "error", err)
		return nil, nil
	}
	if off == nil {
		return nil, nil
	}

	var parts []string
	if s.UseBrandInSearch && off.Brands != "" {
		parts = append(parts, strings.TrimSpace(strings.SplitN(off.Brands, ",", 2)[0]))
	}
	parts = append(parts, off.Name)
	if s.UseQuantityInSearch && off.Quantity != "" {
		parts = append(parts, off.Quantity)
	}
	query := strings.Join(parts, " ")

	// Size information matters for EAN disambiguation, so the raw query goes
	// out without receipt-name cleaning.
	candidates, err := b.catalog.SearchCandidates(ctx, query)
	if err != nil {
		slog.Warn("Fallback candidate search failed", "query", query, "error", err)
		return nil, nil
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	limit := s.MaxProductCandidates
	if limit > len(candidates) {
		limit = len(candidates)
	}

	var best *catalog.Product
	bestScore := 0
	for _, c := range candidates[:limit] {
		p, err := b.catalog.ProductBySKU(ctx, c.SKU)
		if err != nil || p == nil || p.EAN == "" {
			continue
		}
		if score := EANSimilarity(barcode, p.EAN, s); score > bestScore {
			bestScore = score
			best = p
		}
	}

	if best == nil {
		// No EAN overlap anywhere: fall back to the top search hit.
		p, err := b.catalog.ProductBySKU(ctx, candidates[0].SKU)
		if err != nil || p == nil {
			return nil, nil
		}
		best = p
		bestScore = 0
	}

	return &catalog.BarcodeResult{
		SKU:            best.SKU,
		Title:          best.Title,
		EAN:            best.EAN,
		ScannedBarcode: barcode,
		Brand:          best.Brand,
		Image:          best.Image,
		Price:          best.Price,
		Verified:       bestScore >= 90,
		MatchSource:    "OpenFoodFacts",
		MatchedName:    off.Name,
		EANMatchScore:  bestScore,
	}, nil
}
