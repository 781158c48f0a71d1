package match

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"receipt-recon/internal/cache"
	"receipt-recon/internal/catalog"
	"receipt-recon/internal/layout"
	"receipt-recon/internal/settings"
)

// Gateway is the catalog boundary the resolver consumes: candidate search and
// batched detail fetch.
type Gateway interface {
	// SearchCandidates returns catalog hits for a query, in the catalog's
	// result order, at most 8.
	SearchCandidates(ctx context.Context, query string) ([]catalog.Candidate, error)

	// BatchFetch returns details for multiple SKUs in one call. SKUs the
	// catalog does not know are simply absent from the result.
	BatchFetch(ctx context.Context, skus []string) (map[string]catalog.Product, error)
}

// MatchCache is the persistent name-to-match store. Key normalization is the
// resolver's job; the cache treats keys as opaque strings.
type MatchCache interface {
	Get(key string) (cache.Entry, bool, error)
	Put(key string, entry cache.Entry)
	Flush() error
}

// Resolver reconciles parsed receipt line items against the product catalog.
type Resolver struct {
	gateway Gateway
	cache   MatchCache
}

// NewResolver creates a Resolver.
func NewResolver(gateway Gateway, matchCache MatchCache) *Resolver {
	return &Resolver{gateway: gateway, cache: matchCache}
}

// cacheKey normalizes a receipt name into its cache key.
func cacheKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Resolve enriches receipt line items with catalog product details. It runs a
// five-phase pipeline: cache partition, candidate search, batched detail
// fetch, scoring and selection, enrichment. Each phase completes for all items
// before the next starts. Gateway failures degrade per item or per phase;
// Resolve itself never fails. Items are mutated in place and returned.
func (r *Resolver) Resolve(ctx context.Context, items []*layout.LineItem, s settings.Settings) []*layout.LineItem {
	if !s.MatchingEnabled {
		return items
	}

	threshold := s.EffectiveThreshold()

	// Phase 1: split items into cache hits and names needing a search.
	type searchItem struct {
		idx  int
		name string
	}
	var toSearch []searchItem
	matched := make(map[int]cache.Entry)

	for idx, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" || item.IsDeposit {
			continue
		}
		entry, ok, err := r.cache.Get(cacheKey(name))
		if err != nil {
			slog.Warn("Match cache read failed", "name", name, "error", err)
			continue
		}
		if ok {
			matched[idx] = entry
		} else {
			toSearch = append(toSearch, searchItem{idx: idx, name: name})
		}
	}

	// Phase 2: search candidates per unknown item. A failed search is
	// isolated to its item.
	candidateSKUs := make(map[string]bool)
	candidatesPerItem := make(map[int][]catalog.Candidate)

	for _, si := range toSearch {
		candidates, err := r.search(ctx, si.name)
		if err != nil {
			slog.Warn("Candidate search failed", "name", si.name, "error", err)
			continue
		}
		candidatesPerItem[si.idx] = candidates
		for _, c := range candidates {
			candidateSKUs[c.SKU] = true
		}
	}

	// Phase 3: one batched fetch over candidate and cached SKUs. A failure
	// degrades to an empty detail map.
	for _, entry := range matched {
		candidateSKUs[entry.SKU] = true
	}
	var products map[string]catalog.Product
	if len(candidateSKUs) > 0 {
		skus := make([]string, 0, len(candidateSKUs))
		for sku := range candidateSKUs {
			skus = append(skus, sku)
		}
		var err error
		products, err = r.gateway.BatchFetch(ctx, skus)
		if err != nil {
			slog.Warn("Batch product fetch failed", "skus", len(skus), "error", err)
			products = map[string]catalog.Product{}
		}
	} else {
		products = map[string]catalog.Product{}
	}

	// Phase 4: score candidates and cache the best guess for each name,
	// whether or not it clears the threshold. Ties keep the first-seen
	// candidate, i.e. search-order priority.
	for _, si := range toSearch {
		candidates := candidatesPerItem[si.idx]
		if len(candidates) == 0 {
			continue
		}

		item := items[si.idx]
		target := 0.0
		if item.UnitPrice != nil {
			target = *item.UnitPrice
		} else if item.Price != nil {
			target = *item.Price
		}
		targetCents := int(math.Round(target * 100))

		bestSKU := ""
		bestScore := -1
		for _, c := range candidates {
			p, ok := products[c.SKU]
			if !ok {
				continue
			}
			if conf := Confidence(si.name, targetCents, p, s); conf > bestScore {
				bestScore = conf
				bestSKU = c.SKU
			}
		}

		if bestSKU != "" {
			entry := cache.Entry{SKU: bestSKU, Confidence: bestScore}
			r.cache.Put(cacheKey(si.name), entry)
			matched[si.idx] = entry
		}
	}

	// Phase 5: enrich items whose match clears the effective threshold.
	// Below it, only the confidence is recorded; name and price stay as
	// parsed rather than being overwritten with unverified data.
	for idx, item := range items {
		entry, ok := matched[idx]
		if !ok {
			continue
		}
		confidence := entry.Confidence
		item.MatchConfidence = &confidence

		if confidence < threshold {
			slog.Info("Skipping low-confidence match",
				"name", item.Name, "sku", entry.SKU,
				"confidence", confidence, "threshold", threshold,
			)
			continue
		}

		p, ok := products[entry.SKU]
		if !ok {
			continue
		}
		price := p.Price
		item.SKU = p.SKU
		item.FullTitle = p.Title
		item.Subtitle = p.Subtitle
		item.Image = p.Image
		item.Brand = p.Brand
		item.Link = p.Link
		item.CatalogPrice = &price
	}

	if err := r.cache.Flush(); err != nil {
		slog.Warn("Match cache flush failed", "error", err)
	}

	return items
}

// search queries the gateway with the raw name first and a cleaned variant
// only when it differs, returning the first non-empty result set.
func (r *Resolver) search(ctx context.Context, name string) ([]catalog.Candidate, error) {
	raw := strings.TrimSpace(name)
	attempts := []string{raw}
	if cleaned := CleanReceiptName(name); !strings.EqualFold(cleaned, raw) {
		attempts = append(attempts, cleaned)
	}

	for _, attempt := range attempts {
		candidates, err := r.gateway.SearchCandidates(ctx, attempt)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	return nil, nil
}
