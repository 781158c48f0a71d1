package match

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"receipt-recon/internal/catalog"
	"receipt-recon/internal/settings"
)

// mockCatalogLookup is a mock implementation of CatalogLookup
type mockCatalogLookup struct {
	skuByBarcode  map[string]string
	barcodeErr    error
	products      map[string]*catalog.Product
	productErr    error
	searchResults map[string][]catalog.Candidate
	searchErr     error
	searchCalls   []string
}

func newMockCatalogLookup() *mockCatalogLookup {
	return &mockCatalogLookup{
		skuByBarcode:  make(map[string]string),
		products:      make(map[string]*catalog.Product),
		searchResults: make(map[string][]catalog.Candidate),
	}
}

func (m *mockCatalogLookup) SearchCandidates(ctx context.Context, query string) ([]catalog.Candidate, error) {
	m.searchCalls = append(m.searchCalls, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResults[query], nil
}

func (m *mockCatalogLookup) FindSKUByBarcode(ctx context.Context, barcode string) (string, error) {
	if m.barcodeErr != nil {
		return "", m.barcodeErr
	}
	return m.skuByBarcode[barcode], nil
}

func (m *mockCatalogLookup) ProductBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	if m.productErr != nil {
		return nil, m.productErr
	}
	return m.products[sku], nil
}

// mockFoodFacts is a mock implementation of FoodFacts
type mockFoodFacts struct {
	product *catalog.OFFProduct
	err     error
	calls   int
}

func (m *mockFoodFacts) Lookup(ctx context.Context, barcode string) (*catalog.OFFProduct, error) {
	m.calls++
	return m.product, m.err
}

// mockBarcodeCache is a mock implementation of BarcodeCache
type mockBarcodeCache struct {
	entries map[string]catalog.BarcodeResult
	getErr  error
	putErr  error
	puts    int
}

func newMockBarcodeCache() *mockBarcodeCache {
	return &mockBarcodeCache{entries: make(map[string]catalog.BarcodeResult)}
}

func (m *mockBarcodeCache) GetBarcode(code string) (catalog.BarcodeResult, bool, error) {
	if m.getErr != nil {
		return catalog.BarcodeResult{}, false, m.getErr
	}
	r, ok := m.entries[code]
	return r, ok, nil
}

func (m *mockBarcodeCache) PutBarcode(code string, result catalog.BarcodeResult) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[code] = result
	return nil
}

var _ = Describe("BarcodeService", func() {
	var (
		lookup  *mockCatalogLookup
		off     *mockFoodFacts
		store   *mockBarcodeCache
		service *BarcodeService
		cfg     settings.Settings

		barcode string
		result  *catalog.BarcodeResult
		err     error
	)

	BeforeEach(func() {
		lookup = newMockCatalogLookup()
		off = &mockFoodFacts{}
		store = newMockBarcodeCache()
		service = NewBarcodeService(lookup, off, store)
		cfg = settings.Default()
		barcode = "8718452044801"
	})

	JustBeforeEach(func() {
		result, err = service.Lookup(context.Background(), barcode, cfg)
	})

	When("the catalog knows the barcode and the EAN matches", func() {
		BeforeEach(func() {
			lookup.skuByBarcode[barcode] = "SKU1"
			lookup.products["SKU1"] = &catalog.Product{
				SKU: "SKU1", Title: "Cola fles", Brand: "Jumbo",
				EAN: barcode, Price: catalog.Price{Price: 189},
			}
		})

		It("should return a verified result", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(result).ToNot(BeNil())
			Expect(result.SKU).To(Equal("SKU1"))
			Expect(result.Verified).To(BeTrue())
			Expect(result.MatchSource).To(BeEmpty())
		})

		It("should not consult OpenFoodFacts", func() {
			Expect(off.calls).To(BeZero())
		})

		It("should cache the result", func() {
			Expect(store.entries).To(HaveKey(barcode))
		})
	})

	When("the scanned code carries non-digit noise", func() {
		BeforeEach(func() {
			barcode = "8718452-044801"
			lookup.skuByBarcode[barcode] = "SKU1"
			lookup.products["SKU1"] = &catalog.Product{
				SKU: "SKU1", Title: "Cola fles", EAN: "8718452044801",
			}
		})

		It("should accept the normalized EAN as a direct hit", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Verified).To(BeTrue())
		})
	})

	When("the direct hit has a different EAN", func() {
		BeforeEach(func() {
			lookup.skuByBarcode[barcode] = "SKU1"
			lookup.products["SKU1"] = &catalog.Product{SKU: "SKU1", EAN: "9999999999999"}
			off.product = &catalog.OFFProduct{Name: "Cola"}
			lookup.searchResults["Cola"] = []catalog.Candidate{{SKU: "SKU2"}}
			lookup.products["SKU2"] = &catalog.Product{SKU: "SKU2", Title: "Cola blik", EAN: barcode}
		})

		It("should resolve through the fallback", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(result.SKU).To(Equal("SKU2"))
			Expect(result.MatchSource).To(Equal("OpenFoodFacts"))
			Expect(result.ScannedBarcode).To(Equal(barcode))
		})
	})

	When("a previous lookup was cached", func() {
		BeforeEach(func() {
			store.entries[barcode] = catalog.BarcodeResult{SKU: "CACHED", Verified: true}
		})

		It("should answer from the cache", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(result.SKU).To(Equal("CACHED"))
			Expect(off.calls).To(BeZero())
			Expect(store.puts).To(BeZero())
		})
	})

	When("the barcode cache is disabled", func() {
		BeforeEach(func() {
			cfg.UseBarcodeCache = false
			store.entries[barcode] = catalog.BarcodeResult{SKU: "CACHED"}
			lookup.skuByBarcode[barcode] = "SKU1"
			lookup.products["SKU1"] = &catalog.Product{SKU: "SKU1", EAN: barcode}
		})

		It("should resolve fresh and skip the cache write", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(result.SKU).To(Equal("SKU1"))
			Expect(store.puts).To(BeZero())
		})
	})

	When("the catalog has no hit and fallback candidates differ in EAN", func() {
		BeforeEach(func() {
			off.product = &catalog.OFFProduct{Name: "Chips paprika", Brands: "Lay's, PepsiCo", Quantity: "250 g"}
			cfg.UseBrandInSearch = true
			cfg.UseQuantityInSearch = true
			lookup.searchResults["Lay's Chips paprika 250 g"] = []catalog.Candidate{
				{SKU: "FAR"}, {SKU: "NEAR"},
			}
			lookup.products["FAR"] = &catalog.Product{SKU: "FAR", EAN: "1111111111111"}
			lookup.products["NEAR"] = &catalog.Product{SKU: "NEAR", Title: "Chips paprika", EAN: "8718452044899"}
		})

		It("should build the query from brand, name and quantity", func() {
			Expect(lookup.searchCalls).To(ConsistOf("Lay's Chips paprika 250 g"))
		})

		It("should pick the closest EAN", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(result.SKU).To(Equal("NEAR"))
			Expect(result.EANMatchScore).To(Equal(92))
			Expect(result.Verified).To(BeTrue())
			Expect(result.MatchedName).To(Equal("Chips paprika"))
		})
	})

	When("no fallback candidate shares an EAN prefix worth anything", func() {
		BeforeEach(func() {
			off.product = &catalog.OFFProduct{Name: "Cola"}
			lookup.searchResults["Cola"] = []catalog.Candidate{{SKU: "TOP"}}
			lookup.products["TOP"] = &catalog.Product{SKU: "TOP", Title: "Cola fles"}
		})

		It("should return the top hit unverified", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(result.SKU).To(Equal("TOP"))
			Expect(result.Verified).To(BeFalse())
			Expect(result.EANMatchScore).To(BeZero())
		})
	})

	When("OpenFoodFacts does not know the barcode", func() {
		It("should return no result without error", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(BeNil())
		})
	})

	When("the fallback is disabled", func() {
		BeforeEach(func() {
			cfg.UseOpenFoodFactsFallback = false
		})

		It("should return no result without consulting OpenFoodFacts", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(BeNil())
			Expect(off.calls).To(BeZero())
		})
	})

	When("fetching the direct hit fails", func() {
		BeforeEach(func() {
			lookup.skuByBarcode[barcode] = "SKU1"
			lookup.productErr = errors.New("catalog down")
		})

		It("should surface the error", func() {
			Expect(err).To(MatchError(ContainSubstring("catalog down")))
			Expect(result).To(BeNil())
		})
	})
})
