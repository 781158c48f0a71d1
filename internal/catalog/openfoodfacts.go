package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OFFProduct is the subset of an OpenFoodFacts record used for barcode matching.
type OFFProduct struct {
	Name     string
	Brands   string
	Quantity string
}

// OpenFoodFacts looks up product names by barcode as a fallback when the
// catalog has no direct hit.
type OpenFoodFacts struct {
	baseURL string
	client  *http.Client
}

// NewOpenFoodFacts creates an OpenFoodFacts client for the given base URL.
func NewOpenFoodFacts(baseURL string) *OpenFoodFacts {
	if baseURL == "" {
		baseURL = "https://world.openfoodfacts.net"
	}
	return &OpenFoodFacts{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewOpenFoodFactsWithHTTPClient creates an OpenFoodFacts client with a custom
// http.Client for testing.
func NewOpenFoodFactsWithHTTPClient(baseURL string, httpClient *http.Client) *OpenFoodFacts {
	return &OpenFoodFacts{baseURL: baseURL, client: httpClient}
}

// Lookup fetches the product record for a barcode. Returns nil when the
// barcode is unknown or the record carries no product name.
func (o *OpenFoodFacts) Lookup(ctx context.Context, barcode string) (*OFFProduct, error) {
	url := fmt.Sprintf("%s/api/v2/product/%s", o.baseURL, barcode)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openfoodfacts API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openfoodfacts API error (status %d)", resp.StatusCode)
	}

	var body struct {
		Status  int `json:"status"`
		Product struct {
			ProductName   string `json:"product_name"`
			ProductNameNL string `json:"product_name_nl"`
			Brands        string `json:"brands"`
			Quantity      string `json:"quantity"`
		} `json:"product"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if body.Status != 1 {
		return nil, nil
	}

	name := body.Product.ProductName
	if name == "" {
		name = body.Product.ProductNameNL
	}
	if name == "" {
		return nil, nil
	}

	return &OFFProduct{
		Name:     name,
		Brands:   body.Product.Brands,
		Quantity: body.Product.Quantity,
	}, nil
}
