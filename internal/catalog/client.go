package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

const defaultUserAgent = "receipt-recon/1.0"

// productLinkRe extracts (slug, sku) pairs from search result product links.
var productLinkRe = regexp.MustCompile(`href="/producten/([^"]+?)-(\d{3,}[A-Z]{2,})"`)

// productPathRe finds a SKU in any product path, used as a barcode lookup fallback.
var productPathRe = regexp.MustCompile(`/producten/[^"']+-([A-Z0-9]{6,})`)

// Client talks to the remote catalog: keyword search over the product pages
// and GraphQL for detail fetches.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a catalog Client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client for testing.
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, client: httpClient}
}

// SearchCandidates runs a keyword search and returns unique (slug, sku) pairs
// in result order, capped at 8.
func (c *Client) SearchCandidates(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("searchType", "keyword")
	params.Set("searchTerms", query)

	html, err := c.getHTML(ctx, fmt.Sprintf("%s/producten/?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var candidates []Candidate
	for _, m := range productLinkRe.FindAllStringSubmatch(html, -1) {
		slug, sku := m[1], m[2]
		if seen[sku] {
			continue
		}
		seen[sku] = true
		candidates = append(candidates, Candidate{Slug: slug, SKU: sku})
		if len(candidates) == 8 {
			break
		}
	}
	return candidates, nil
}

// FindSKUByBarcode searches the catalog pages for a scanned barcode and
// returns the first product SKU found, or "" when nothing matches.
func (c *Client) FindSKUByBarcode(ctx context.Context, barcode string) (string, error) {
	params := url.Values{}
	params.Set("searchType", "keyword")
	params.Set("searchTerms", barcode)

	html, err := c.getHTML(ctx, fmt.Sprintf("%s/producten/?%s", c.baseURL, params.Encode()))
	if err != nil {
		return "", err
	}

	if m := productPathRe.FindStringSubmatch(html); m != nil {
		return m[1], nil
	}
	return "", nil
}

const batchFetchQuery = `
query Products($skus: [String!]!) {
  products(skus: $skus) {
    sku
    title
    subtitle
    image
    brand
    link
    ean
    price {
      price
      promoPrice
      pricePerUnit { price unit }
    }
  }
}`

// BatchFetch retrieves details for multiple SKUs in one GraphQL call.
// Missing SKUs are simply absent from the result.
func (c *Client) BatchFetch(ctx context.Context, skus []string) (map[string]Product, error) {
	if len(skus) == 0 {
		return map[string]Product{}, nil
	}

	var resp struct {
		Products []Product `json:"products"`
	}
	if err := c.graphql(ctx, batchFetchQuery, map[string]any{"skus": skus}, &resp); err != nil {
		return nil, err
	}

	products := make(map[string]Product, len(resp.Products))
	for _, p := range resp.Products {
		products[p.SKU] = p
	}
	return products, nil
}

const productDetailQuery = `
query productDetail($sku: String!) {
  product(sku: $sku) {
    sku
    title
    subtitle
    brand
    image
    link
    ean
    price {
      price
      promoPrice
      pricePerUnit { price unit }
    }
  }
}`

// ProductBySKU fetches the detail record for a single SKU. Returns nil when
// the catalog has no such product.
func (c *Client) ProductBySKU(ctx context.Context, sku string) (*Product, error) {
	var resp struct {
		Product *Product `json:"product"`
	}
	if err := c.graphql(ctx, productDetailQuery, map[string]any{"sku": sku}, &resp); err != nil {
		return nil, err
	}
	return resp.Product, nil
}

// graphql posts a query to the catalog GraphQL endpoint and decodes the data
// payload into out.
func (c *Client) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/graphql", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling catalog API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("catalog API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("catalog GraphQL error: %s", envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}

// getHTML fetches a catalog HTML page as a string.
func (c *Client) getHTML(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling catalog search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("catalog search error (status %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(body), nil
}
