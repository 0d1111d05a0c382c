package integration

import (
	"context"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Source platform port
// ---------------------------------------------------------------------------

// CatalogSource is the port to the source platform's paginated catalog.
// Implementations retry throttling signals with backoff and pace requests so
// callers can loop pages back to back.
type CatalogSource interface {
	// FetchPage fetches one page of the traversal identified by filter,
	// starting after cursor (empty cursor = start of traversal)
	FetchPage(ctx context.Context, cred *Credential, filter SyncFilter, cursor string) (*ProductPage, error)

	// FetchProduct fetches a single product by source ID
	FetchProduct(ctx context.Context, cred *Credential, productID string) (*SourceProduct, error)
}

// TokenExchanger is the port to the source platform's OAuth token endpoint
type TokenExchanger interface {
	// ExchangeCode exchanges an authorization code for a credential
	ExchangeCode(ctx context.Context, vendorID, code string) (*Credential, error)

	// RefreshCredential exchanges the refresh token for a new token pair.
	// The passed credential is not mutated.
	RefreshCredential(ctx context.Context, cred *Credential) (*Credential, error)
}

// ---------------------------------------------------------------------------
// Destination platform port
// ---------------------------------------------------------------------------

// ProductPayload is the destination-shaped product write
type ProductPayload struct {
	Title       string
	BodyHTML    string
	Vendor      string
	ProductType string
	Status      string
	Tags        []string
	ImageURLs   []string
	OptionName  string
	Variants    []VariantPayload
}

// VariantPayload is the destination-shaped variant write
type VariantPayload struct {
	Option1             string
	Price               string
	SKU                 string
	Barcode             string
	InventoryManagement string
}

// DestinationCatalog is the port to the destination storefront platform.
// Implementations rate-limit all requests globally per credential.
type DestinationCatalog interface {
	// FindBySourceID looks up the destination product carrying the source
	// tag, traversing every page of the tag search. Returns
	// ErrDestinationNotFound when no product matches and
	// ErrDuplicateSourceTag when more than one does.
	FindBySourceID(ctx context.Context, sourceID string) (*DestinationProduct, error)

	// CreateProduct creates a product and returns the destination record
	CreateProduct(ctx context.Context, payload *ProductPayload) (*DestinationProduct, error)

	// UpdateProduct updates core product fields and returns the fresh record
	UpdateProduct(ctx context.Context, productID int64, payload *ProductPayload) (*DestinationProduct, error)

	// UpdateVariant updates price/identifier fields of one variant
	UpdateVariant(ctx context.Context, productID, variantID int64, variant *VariantPayload) error

	// Locations lists the destination's stock locations
	Locations(ctx context.Context) ([]Location, error)

	// SetInventory sets the available quantity of an inventory item at a location
	SetInventory(ctx context.Context, inventoryItemID, locationID int64, quantity int) error

	// GetOrCreateCollection finds a custom collection by title or creates it
	GetOrCreateCollection(ctx context.Context, title string) (*Collection, error)

	// AddToCollection adds a product to a collection. Adding an existing
	// membership is success, not an error.
	AddToCollection(ctx context.Context, productID, collectionID int64) error

	// SetMetafield creates or updates a product metafield by namespace+key
	SetMetafield(ctx context.Context, productID int64, namespace, key, value, valueType string) error
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// TokenRepository persists vendor credentials
type TokenRepository interface {
	// Find returns the stored credential or ErrNotAuthorized
	Find(ctx context.Context, vendorID string) (*Credential, error)

	// Save upserts the credential for its vendor
	Save(ctx context.Context, cred *Credential) error

	// Delete removes the credential for a vendor
	Delete(ctx context.Context, vendorID string) error
}

// TaskRepository persists sync tasks
type TaskRepository interface {
	// Save upserts a task
	Save(ctx context.Context, task *SyncTask) error

	// FindByID returns a task or ErrTaskNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*SyncTask, error)

	// FindActiveByVendor returns the pending/running task for a vendor,
	// or ErrTaskNotFound when none is active
	FindActiveByVendor(ctx context.Context, vendorID string) (*SyncTask, error)

	// FindRecentByVendor returns the most recent tasks for a vendor,
	// newest first
	FindRecentByVendor(ctx context.Context, vendorID string, limit int) ([]*SyncTask, error)

	// FailStaleRunning marks every non-terminal task as failed with the
	// given reason. Called on process start so an interrupted run never
	// blocks the one-task-per-vendor rule.
	FailStaleRunning(ctx context.Context, reason string) (int64, error)
}
