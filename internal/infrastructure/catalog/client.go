package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/bundleup/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Client handles communication with the Serper shopping search API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new catalog search client
func NewClient(apiKey, baseURL string) *Client {
	// Stay well under the Serper plan limit; burst absorbs a single
	// multi-component solve
	limiter := rate.NewLimiter(rate.Limit(2), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug enables verbose request/response logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// searchRequest is the Serper shopping request payload
type searchRequest struct {
	Query      string `json:"q"`
	Num        int    `json:"num,omitempty"`
	PriceRange string `json:"tbs,omitempty"`
}

// doRequest executes an HTTP POST request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, payload searchRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "BundleUp/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogAPIFailure, err)
	}

	return resp, nil
}

// SearchProducts searches the shopping index for products matching the query
func (c *Client) SearchProducts(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Product, error) {
	if c.debug {
		log.Printf("[CATALOG] SearchProducts called with query: %q", query)
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	payload := searchRequest{Query: query, Num: maxResults}
	if opts.PriceMax > 0 {
		payload.PriceRange = fmt.Sprintf("price:1,ppr_min:%g,ppr_max:%g", opts.PriceMin, opts.PriceMax)
	}

	// Retry up to 3 times for transient failures
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, payload)
		if err != nil {
			log.Printf("[CATALOG] Request error (attempt %d): %v", attempt, err)
			lastErr = err
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Printf("[CATALOG] API error (attempt %d) - Status: %d, Body: %s", attempt, resp.StatusCode, string(body))
			if resp.StatusCode == http.StatusTooManyRequests {
				lastErr = domain.ErrRateLimited
			} else {
				lastErr = fmt.Errorf("%w: status %d", domain.ErrCatalogAPIFailure, resp.StatusCode)
			}
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		var searchResp shoppingResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			log.Printf("[CATALOG] JSON decode error: %v", err)
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		products := MapToProducts(&searchResp)
		if c.debug {
			log.Printf("[CATALOG] Found %d products for query: %q", len(products), query)
		}
		return products, nil
	}

	log.Printf("[CATALOG] All retries failed for query: %q", query)
	return nil, lastErr
}
