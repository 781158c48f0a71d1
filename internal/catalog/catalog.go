package catalog

// Candidate is a product suggested by a catalog name search, not yet confirmed.
type Candidate struct {
	Slug string `json:"slug"`
	SKU  string `json:"sku"`
}

// PricePerUnit is the catalog's normalized unit price.
type PricePerUnit struct {
	Price int    `json:"price"`
	Unit  string `json:"unit"`
}

// Price holds catalog prices in cents.
type Price struct {
	Price        int           `json:"price"`
	PromoPrice   *int          `json:"promoPrice,omitempty"`
	PricePerUnit *PricePerUnit `json:"pricePerUnit,omitempty"`
}

// Product is the catalog detail record for a single SKU.
type Product struct {
	SKU      string `json:"sku"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Brand    string `json:"brand"`
	Image    string `json:"image"`
	Link     string `json:"link"`
	EAN      string `json:"ean"`
	Price    Price  `json:"price"`
}

// BarcodeResult is the resolved product summary for a scanned barcode.
type BarcodeResult struct {
	SKU            string `json:"sku"`
	Title          string `json:"title"`
	EAN            string `json:"ean"`
	ScannedBarcode string `json:"scannedBarcode,omitempty"`
	Brand          string `json:"brand,omitempty"`
	Image          string `json:"image,omitempty"`
	Price          Price  `json:"price"`
	Verified       bool   `json:"verified"`
	MatchSource    string `json:"matchSource,omitempty"`
	MatchedName    string `json:"matchedName,omitempty"`
	EANMatchScore  int    `json:"eanMatchScore,omitempty"`
}
