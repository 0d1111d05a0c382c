package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/infrastructure/config"
)

const (
	// maxShopifyResponseSize limits the response body size to prevent memory exhaustion
	maxShopifyResponseSize = 10 * 1024 * 1024 // 10MB max response

	// tagSearchPageLimit is the page size of the tag search traversal
	tagSearchPageLimit = 50
)

// linkNextRe extracts the rel="next" URL from a Link header
var linkNextRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// ShopifyClient implements DestinationCatalog against the Shopify admin REST
// API. All requests share one pacing gate so the burst bucket is never
// drained regardless of which operation is calling.
type ShopifyClient struct {
	config     *config.ShopifyConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu              sync.Mutex
	lastCompletedAt time.Time
}

// NewShopifyClient creates a new Shopify admin API client
func NewShopifyClient(cfg *config.ShopifyConfig, logger *zap.Logger) *ShopifyClient {
	return &ShopifyClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("shopify"),
	}
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// FindBySourceID looks up the destination product carrying the source tag.
// The tag search matches substrings, so every page is re-checked for an
// exact tag before anything is returned.
func (c *ShopifyClient) FindBySourceID(ctx context.Context, sourceID string) (*integration.DestinationProduct, error) {
	tag := integration.SourceTag(sourceID)
	endpoint := fmt.Sprintf("products.json?limit=%d&tag=%s", tagSearchPageLimit, url.QueryEscape(tag))

	var found *integration.DestinationProduct
	for endpoint != "" {
		body, header, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		var envelope shopifyProductsEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("shopify: failed to parse products response: %w", err)
		}

		for i := range envelope.Products {
			if !hasExactTag(envelope.Products[i].Tags, tag) {
				continue
			}
			if found != nil && found.ID != envelope.Products[i].ID {
				c.logger.Error("duplicate source tag on destination",
					zap.String("tag", tag),
					zap.Int64("first_product", found.ID),
					zap.Int64("second_product", envelope.Products[i].ID),
				)
				return nil, fmt.Errorf("%w: tag %s", integration.ErrDuplicateSourceTag, tag)
			}
			if found == nil {
				found = envelope.Products[i].toDomain()
			}
		}

		endpoint = c.nextPageEndpoint(header.Get("Link"))
	}

	if found == nil {
		return nil, integration.ErrDestinationNotFound
	}
	return found, nil
}

// CreateProduct creates a product and returns the destination record
func (c *ShopifyClient) CreateProduct(ctx context.Context, payload *integration.ProductPayload) (*integration.DestinationProduct, error) {
	body, _, err := c.doRequest(ctx, http.MethodPost, "products.json",
		shopifyProductEnvelope{Product: wireProductOf(payload)})
	if err != nil {
		return nil, err
	}

	var envelope shopifyProductEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse product response: %w", err)
	}

	c.logger.Info("created destination product",
		zap.Int64("product_id", envelope.Product.ID),
		zap.String("title", envelope.Product.Title),
	)
	return envelope.Product.toDomain(), nil
}

// UpdateProduct updates core product fields and returns the fresh record.
// Variants are deliberately absent from the write; they are updated one by
// one so a rejected variant does not void the whole update.
func (c *ShopifyClient) UpdateProduct(ctx context.Context, productID int64, payload *integration.ProductPayload) (*integration.DestinationProduct, error) {
	product := wireProductOf(payload)
	product.ID = productID
	product.Variants = nil
	product.Options = nil

	body, _, err := c.doRequest(ctx, http.MethodPut,
		fmt.Sprintf("products/%d.json", productID),
		shopifyProductEnvelope{Product: product})
	if err != nil {
		return nil, err
	}

	var envelope shopifyProductEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse product response: %w", err)
	}
	return envelope.Product.toDomain(), nil
}

// UpdateVariant updates price/identifier fields of one variant
func (c *ShopifyClient) UpdateVariant(ctx context.Context, productID, variantID int64, variant *integration.VariantPayload) error {
	_, _, err := c.doRequest(ctx, http.MethodPut,
		fmt.Sprintf("products/%d/variants/%d.json", productID, variantID),
		shopifyVariantEnvelope{Variant: shopifyVariant{
			ID:      variantID,
			Price:   variant.Price,
			SKU:     variant.SKU,
			Barcode: variant.Barcode,
		}})
	return err
}

// ---------------------------------------------------------------------------
// Inventory Operations
// ---------------------------------------------------------------------------

// Locations lists the destination's stock locations
func (c *ShopifyClient) Locations(ctx context.Context) ([]integration.Location, error) {
	body, _, err := c.doRequest(ctx, http.MethodGet, "locations.json", nil)
	if err != nil {
		return nil, err
	}

	var envelope shopifyLocationsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse locations response: %w", err)
	}

	locations := make([]integration.Location, len(envelope.Locations))
	for i, loc := range envelope.Locations {
		locations[i] = integration.Location{ID: loc.ID, Name: loc.Name}
	}
	return locations, nil
}

// SetInventory sets the available quantity of an inventory item at a location
func (c *ShopifyClient) SetInventory(ctx context.Context, inventoryItemID, locationID int64, quantity int) error {
	_, _, err := c.doRequest(ctx, http.MethodPost, "inventory_levels/set.json",
		shopifyInventoryLevel{
			LocationID:      locationID,
			InventoryItemID: inventoryItemID,
			Available:       quantity,
		})
	return err
}

// ---------------------------------------------------------------------------
// Collection Operations
// ---------------------------------------------------------------------------

// GetOrCreateCollection finds a custom collection by title or creates it
func (c *ShopifyClient) GetOrCreateCollection(ctx context.Context, title string) (*integration.Collection, error) {
	body, _, err := c.doRequest(ctx, http.MethodGet,
		"custom_collections.json?title="+url.QueryEscape(title), nil)
	if err != nil {
		return nil, err
	}

	var listEnvelope shopifyCollectionsEnvelope
	if err := json.Unmarshal(body, &listEnvelope); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse collections response: %w", err)
	}
	if len(listEnvelope.CustomCollections) > 0 {
		first := listEnvelope.CustomCollections[0]
		return &integration.Collection{ID: first.ID, Title: first.Title}, nil
	}

	body, _, err = c.doRequest(ctx, http.MethodPost, "custom_collections.json",
		shopifyCollectionEnvelope{CustomCollection: shopifyCollection{Title: title}})
	if err != nil {
		return nil, err
	}

	var envelope shopifyCollectionEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse collection response: %w", err)
	}

	c.logger.Info("created collection",
		zap.Int64("collection_id", envelope.CustomCollection.ID),
		zap.String("title", title),
	)
	return &integration.Collection{ID: envelope.CustomCollection.ID, Title: envelope.CustomCollection.Title}, nil
}

// AddToCollection adds a product to a collection. The membership endpoint
// rejects duplicates with 422; that counts as success here.
func (c *ShopifyClient) AddToCollection(ctx context.Context, productID, collectionID int64) error {
	_, _, err := c.doRequest(ctx, http.MethodPost, "collects.json",
		shopifyCollectEnvelope{Collect: shopifyCollect{
			ProductID:    productID,
			CollectionID: collectionID,
		}})
	if err != nil && isAlreadyExists(err) {
		return nil
	}
	return err
}

// ---------------------------------------------------------------------------
// Metafield Operations
// ---------------------------------------------------------------------------

// SetMetafield creates or updates a product metafield by namespace+key
func (c *ShopifyClient) SetMetafield(ctx context.Context, productID int64, namespace, key, value, valueType string) error {
	body, _, err := c.doRequest(ctx, http.MethodGet,
		fmt.Sprintf("products/%d/metafields.json", productID), nil)
	if err != nil {
		return err
	}

	var listEnvelope shopifyMetafieldsEnvelope
	if err := json.Unmarshal(body, &listEnvelope); err != nil {
		return fmt.Errorf("shopify: failed to parse metafields response: %w", err)
	}

	for _, existing := range listEnvelope.Metafields {
		if existing.Namespace == namespace && existing.Key == key {
			_, _, err := c.doRequest(ctx, http.MethodPut,
				fmt.Sprintf("metafields/%d.json", existing.ID),
				shopifyMetafieldEnvelope{Metafield: shopifyMetafield{
					ID:    existing.ID,
					Value: value,
					Type:  valueType,
				}})
			return err
		}
	}

	_, _, err = c.doRequest(ctx, http.MethodPost,
		fmt.Sprintf("products/%d/metafields.json", productID),
		shopifyMetafieldEnvelope{Metafield: shopifyMetafield{
			Namespace: namespace,
			Key:       key,
			Value:     value,
			Type:      valueType,
		}})
	return err
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs one paced request against the admin API. A 429 is
// retried exactly once after the cooldown; a second 429 surfaces as
// ErrDestinationRateLimited.
func (c *ShopifyClient) doRequest(ctx context.Context, method, endpoint string, payload any) ([]byte, http.Header, error) {
	retried := false
	for {
		body, header, status, err := c.pacedSend(ctx, method, endpoint, payload)
		if err != nil {
			return nil, nil, err
		}

		if status == http.StatusTooManyRequests {
			if retried {
				return nil, nil, fmt.Errorf("%w: %s %s", integration.ErrDestinationRateLimited, method, endpoint)
			}
			retried = true
			cooldown := c.config.ThrottleCooldown
			if retryAfter := parseRetryAfter(header.Get("Retry-After")); retryAfter > cooldown {
				cooldown = retryAfter
			}
			c.logger.Warn("destination rate limited, retrying once",
				zap.String("endpoint", endpoint),
				zap.Duration("cooldown", cooldown),
			)
			if err := sleepCtx(ctx, cooldown); err != nil {
				return nil, nil, err
			}
			continue
		}

		if status == http.StatusNotFound {
			return nil, nil, fmt.Errorf("%w: %s %s", integration.ErrDestinationNotFound, method, endpoint)
		}
		if status >= 400 {
			c.logger.Error("destination request failed",
				zap.String("method", method),
				zap.String("endpoint", endpoint),
				zap.Int("status", status),
				zap.ByteString("body", truncate(body, 500)),
			)
			return nil, nil, fmt.Errorf("%w: HTTP %d: %s", integration.ErrDestinationRequestFailed, status, truncate(body, 200))
		}

		return body, header, nil
	}
}

// send performs a single HTTP round trip
func (c *ShopifyClient) send(ctx context.Context, method, endpoint string, payload any) ([]byte, http.Header, int, error) {
	var reqBody io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("shopify: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	url := fmt.Sprintf("%s/admin/api/%s/%s", c.baseURL(), c.config.APIVersion, endpoint)
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.config.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", integration.ErrDestinationUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxShopifyResponseSize))
	if err != nil {
		return nil, nil, 0, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	return body, resp.Header, resp.StatusCode, nil
}

// pacedSend performs one round trip behind the shared pacing gate, whichever
// operation issued it. The interval is measured from the completion of the
// previous request, not its start, so the gap between requests never shrinks
// below MinRequestInterval however slow a response is.
func (c *ShopifyClient) pacedSend(ctx context.Context, method, endpoint string, payload any) ([]byte, http.Header, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wait := c.config.MinRequestInterval - time.Since(c.lastCompletedAt); wait > 0 {
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, nil, 0, err
		}
	}

	body, header, status, err := c.send(ctx, method, endpoint, payload)
	c.lastCompletedAt = time.Now()
	return body, header, status, err
}

// nextPageEndpoint resolves the Link header's rel="next" URL to an endpoint
// relative to the admin API root, or "" when there is no next page
func (c *ShopifyClient) nextPageEndpoint(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	match := linkNextRe.FindStringSubmatch(linkHeader)
	if match == nil {
		return ""
	}
	prefix := fmt.Sprintf("%s/admin/api/%s/", c.baseURL(), c.config.APIVersion)
	return strings.TrimPrefix(match[1], prefix)
}

// baseURL returns the shop origin; a bare domain implies https
func (c *ShopifyClient) baseURL() string {
	if strings.Contains(c.config.Domain, "://") {
		return strings.TrimSuffix(c.config.Domain, "/")
	}
	return "https://" + c.config.Domain
}

// parseRetryAfter parses a Retry-After header value in seconds
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := time.ParseDuration(strings.TrimSpace(value) + "s")
	if err != nil {
		return 0
	}
	return seconds
}

// hasExactTag reports whether the comma-joined tags field contains tag
// exactly, not as a substring of a longer tag
func hasExactTag(tags, tag string) bool {
	for _, t := range splitTags(tags) {
		if t == tag {
			return true
		}
	}
	return false
}

// isAlreadyExists reports whether a request error carries the destination's
// duplicate-membership message. A 422 with any other validation error is a
// genuine failure and must surface.
func isAlreadyExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "already in this collection") ||
		strings.Contains(msg, "already exists")
}

// Ensure ShopifyClient implements DestinationCatalog
var _ integration.DestinationCatalog = (*ShopifyClient)(nil)
