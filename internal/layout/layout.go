package layout

import "receipt-recon/internal/catalog"

// LineItem is one parsed product or deposit entry from a receipt. The catalog
// fields stay empty until the resolver enriches the item with a confident match.
type LineItem struct {
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Quantity  int      `json:"quantity"`
	UnitPrice *float64 `json:"unitPrice"`
	IsPromo   bool     `json:"isPromo"`
	IsDeposit bool     `json:"isDeposit"`

	MatchConfidence *int           `json:"matchConfidence,omitempty"`
	SKU             string         `json:"sku,omitempty"`
	FullTitle       string         `json:"fullTitle,omitempty"`
	Subtitle        string         `json:"subtitle,omitempty"`
	Image           string         `json:"image,omitempty"`
	Brand           string         `json:"brand,omitempty"`
	Link            string         `json:"link,omitempty"`
	CatalogPrice    *catalog.Price `json:"catalogPrice,omitempty"`
}

// VATLine is one per-rate row of the receipt's VAT summary.
type VATLine struct {
	Rate       string `json:"rate"`
	AmountExcl string `json:"amountExcl"`
	VATAmount  string `json:"vatAmount"`
}

// ParseResult is the structured output of parsing a print-layout receipt.
// Items and Deposits together preserve the original document order.
type ParseResult struct {
	Items         []*LineItem `json:"items"`
	Deposits      []*LineItem `json:"deposits,omitempty"`
	Total         *float64    `json:"total,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	VATSummary    []VATLine   `json:"vatSummary,omitempty"`
	ItemCount     *int        `json:"itemCount,omitempty"`
	ParseError    string      `json:"parseError,omitempty"`
}
