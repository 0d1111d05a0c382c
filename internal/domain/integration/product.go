package integration

import (
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ProductStatus
// ---------------------------------------------------------------------------

// ProductStatus represents the lifecycle status of a product on the source platform
type ProductStatus string

const (
	// ProductStatusActive indicates the product is live and sellable
	ProductStatusActive ProductStatus = "ACTIVE"
	// ProductStatusDraft indicates the product has not been published
	ProductStatusDraft ProductStatus = "DRAFT"
	// ProductStatusInactive indicates the product was deactivated
	ProductStatusInactive ProductStatus = "INACTIVE"
)

// IsActive returns true if the product should be published on the destination
func (s ProductStatus) IsActive() bool {
	return s == ProductStatusActive
}

// String returns the string representation of ProductStatus
func (s ProductStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Source catalog value objects
// ---------------------------------------------------------------------------

// SourceProduct is an immutable snapshot of one product on the source
// platform, fetched per sync pass. The ID is opaque and stable across syncs.
type SourceProduct struct {
	// ID is the opaque source platform identifier
	ID string
	// Name is the product display name
	Name string
	// Description is the product description (may contain HTML)
	Description string
	// Status is the source lifecycle status
	Status ProductStatus
	// Type is the source product type label
	Type string
	// Category is the source category, if assigned
	Category *CategoryRef
	// Brand is the source brand, if assigned
	Brand *BrandRef
	// Image is the primary image URL
	Image string
	// AlternateImages holds additional image URLs
	AlternateImages []string
	// Prices holds the quantity-break price tiers
	Prices []PriceTier
	// Barcodes holds barcode/SKU-like identifier codes
	Barcodes []Barcode
	// Inventory holds per-outlet stock levels
	Inventory []OutletInventory
	// CustomFields holds free-form source fields (name, value)
	CustomFields []CustomField
}

// CategoryRef references a source category
type CategoryRef struct {
	ID   string
	Name string
}

// BrandRef references a source brand
type BrandRef struct {
	ID   string
	Name string
}

// PriceTier is one quantity-break price on a source product
type PriceTier struct {
	// Quantity is the pack quantity this tier applies to (1 = single unit)
	Quantity int
	// Price is the tier price including tax
	Price decimal.Decimal
	// PriceEx is the tier price excluding tax
	PriceEx decimal.Decimal
}

// Barcode is one identifier code on a source product
type Barcode struct {
	Code     string
	Quantity int
}

// OutletInventory is the stock level of a product at one source outlet
type OutletInventory struct {
	OutletID   string
	OutletName string
	Quantity   int
}

// CustomField is a free-form source field attached to a product
type CustomField struct {
	Name  string
	Value string
}

// ---------------------------------------------------------------------------
// Destination catalog value objects
// ---------------------------------------------------------------------------

// SourceTagPrefix prefixes the destination tag that carries the source
// product ID. The tag is the sole cross-system join key; neither platform
// enforces it as a unique constraint.
const SourceTagPrefix = "SOURCE_ID:"

// SourceTag returns the destination tag for a source product ID
func SourceTag(sourceID string) string {
	return SourceTagPrefix + sourceID
}

// DestinationProduct is the destination-side representation of a product,
// keyed by the destination's own identifier.
type DestinationProduct struct {
	ID       int64
	Title    string
	Status   string
	Tags     []string
	Variants []DestinationVariant
}

// DestinationVariant is one variant of a destination product
type DestinationVariant struct {
	ID              int64
	SKU             string
	Price           string
	Barcode         string
	Option1         string
	InventoryItemID int64
}

// Location is a stock location on the destination platform
type Location struct {
	ID   int64
	Name string
}

// Collection is a custom collection on the destination platform
type Collection struct {
	ID    int64
	Title string
}
