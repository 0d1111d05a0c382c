package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/infrastructure/config"
)

const (
	// maxShopfrontResponseSize limits the response body size to prevent memory exhaustion
	maxShopfrontResponseSize = 10 * 1024 * 1024 // 10MB max response

	// throttledMessage is the error message the source emits when rate limited
	throttledMessage = "Throttled"
)

// ShopfrontClient implements CatalogSource against the Shopfront GraphQL API.
// Page fetches are paced so back-to-back calls from a sync loop stay under
// the source rate limit, and Throttled responses are retried with backoff.
type ShopfrontClient struct {
	config     *config.ShopfrontConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	lastFetchAt time.Time
}

// NewShopfrontClient creates a new Shopfront catalog client
func NewShopfrontClient(cfg *config.ShopfrontConfig, logger *zap.Logger) *ShopfrontClient {
	return &ShopfrontClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("shopfront"),
	}
}

// FetchPage fetches one page of the traversal identified by filter, starting
// after cursor. Explicit product ID filters have no connection argument on
// the source, so they are served as one synthetic page of per-ID lookups.
func (c *ShopfrontClient) FetchPage(ctx context.Context, cred *integration.Credential, filter integration.SyncFilter, cursor string) (*integration.ProductPage, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	if filter.Mode == integration.FilterModeProducts {
		return c.fetchExplicitProducts(ctx, cred, filter.ProductIDs)
	}

	variables := map[string]any{
		"first": c.config.PageSize,
	}
	if cursor != "" {
		variables["after"] = cursor
	}
	if filter.Mode == integration.FilterModeCategories {
		variables["categories"] = filter.CategoryIDs
	}

	body, err := c.query(ctx, cred, productsQuery, variables)
	if err != nil {
		return nil, err
	}

	var resp shopfrontProductsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("non-JSON catalog response", zap.ByteString("body", truncate(body, 500)))
		return nil, fmt.Errorf("%w: non-JSON response", integration.ErrProtocol)
	}
	if err := graphqlErrorOf(resp.Errors); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.Products == nil {
		c.logger.Error("catalog response missing products", zap.ByteString("body", truncate(body, 500)))
		return nil, fmt.Errorf("%w: response has no products connection", integration.ErrProtocol)
	}

	conn := resp.Data.Products
	page := &integration.ProductPage{
		EndCursor:   conn.PageInfo.EndCursor,
		HasNextPage: conn.PageInfo.HasNextPage,
		TotalCount:  conn.TotalCount,
	}
	for _, edge := range conn.Edges {
		if edge.Node == nil {
			continue
		}
		page.Products = append(page.Products, *edge.Node.toDomain())
	}

	c.logger.Debug("fetched catalog page",
		zap.Int("products", len(page.Products)),
		zap.Bool("has_next", page.HasNextPage),
	)
	return page, nil
}

// FetchProduct fetches a single product by source ID
func (c *ShopfrontClient) FetchProduct(ctx context.Context, cred *integration.Credential, productID string) (*integration.SourceProduct, error) {
	body, err := c.query(ctx, cred, productQuery, map[string]any{"id": productID})
	if err != nil {
		return nil, err
	}

	var resp shopfrontProductResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("non-JSON product response", zap.ByteString("body", truncate(body, 500)))
		return nil, fmt.Errorf("%w: non-JSON response", integration.ErrProtocol)
	}
	if err := graphqlErrorOf(resp.Errors); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.Product == nil {
		return nil, fmt.Errorf("%w: product %s not found", integration.ErrProtocol, productID)
	}

	return resp.Data.Product.toDomain(), nil
}

// fetchExplicitProducts serves an explicit ID set as a single page
func (c *ShopfrontClient) fetchExplicitProducts(ctx context.Context, cred *integration.Credential, productIDs []string) (*integration.ProductPage, error) {
	page := &integration.ProductPage{
		TotalCount: len(productIDs),
	}
	for _, id := range productIDs {
		product, err := c.FetchProduct(ctx, cred, id)
		if err != nil {
			return nil, err
		}
		page.Products = append(page.Products, *product)
	}
	return page, nil
}

// query runs one GraphQL request, pacing calls and retrying throttles.
// The passed query string is constant; all inputs travel as variables.
func (c *ShopfrontClient) query(ctx context.Context, cred *integration.Credential, query string, variables map[string]any) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		body, err := c.doRequest(ctx, cred, query, variables)
		if err != nil {
			return nil, err
		}

		if isThrottled(body) {
			if attempt >= c.config.MaxRetries {
				return nil, fmt.Errorf("%w: gave up after %d retries", integration.ErrSourceThrottled, c.config.MaxRetries)
			}
			delay := c.config.RetryBaseDelay * (1 << uint(attempt))
			c.logger.Warn("source throttled, backing off",
				zap.Duration("delay", delay),
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", c.config.MaxRetries),
			)
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		return body, nil
	}
}

// pace blocks until PageInterval has elapsed since the previous request
func (c *ShopfrontClient) pace(ctx context.Context) error {
	c.mu.Lock()
	wait := c.config.PageInterval - time.Since(c.lastFetchAt)
	if wait > 0 {
		c.lastFetchAt = c.lastFetchAt.Add(c.config.PageInterval)
	} else {
		c.lastFetchAt = time.Now()
		wait = 0
	}
	c.mu.Unlock()

	if wait > 0 {
		return sleepCtx(ctx, wait)
	}
	return nil
}

// doRequest performs one HTTP request to the vendor's GraphQL endpoint
func (c *ShopfrontClient) doRequest(ctx context.Context, cred *integration.Credential, query string, variables map[string]any) ([]byte, error) {
	bodyBytes, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("shopfront: failed to marshal request: %w", err)
	}

	url := c.config.VendorAPIURL(cred.VendorID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("shopfront: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrProtocol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxShopfrontResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopfront: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, integration.ErrCredentialExpired
	}
	if resp.StatusCode >= 400 {
		c.logger.Error("catalog request failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(body, 500)),
		)
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrProtocol, resp.StatusCode)
	}

	return body, nil
}

// isThrottled reports whether the GraphQL errors array carries the source's
// rate limit signal. HTTP status stays 200 in that case.
func isThrottled(body []byte) bool {
	var envelope struct {
		Errors []graphqlError `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false
	}
	for _, e := range envelope.Errors {
		if e.Message == throttledMessage {
			return true
		}
	}
	return false
}

// graphqlErrorOf converts a non-throttle errors array to a protocol error
func graphqlErrorOf(errs []graphqlError) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", integration.ErrProtocol, errs[0].Message)
}

// sleepCtx sleeps for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// truncate caps a byte slice for log output
func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// Ensure ShopfrontClient implements CatalogSource
var _ integration.CatalogSource = (*ShopfrontClient)(nil)
