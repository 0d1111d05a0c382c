package integration

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
)

const (
	// packOptionName labels the quantity-break option on destination products
	packOptionName = "Packaging"

	// metafieldNamespace is the namespace all synced custom fields live under
	metafieldNamespace = "custom"

	// metafieldType keeps synced fields as text; values can be mixed content
	metafieldType = "single_line_text_field"
)

var (
	packQuantityRe = regexp.MustCompile(`(\d+)\s*Pack`)
	keyStripRe     = regexp.MustCompile(`[^a-z0-9_]`)
	numericUnitRe  = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*[a-zA-Z]+$`)
)

// Importer is the matching and upsert engine. Each source product maps to at
// most one destination product joined on the SOURCE_ID tag, and the engine
// decides per record whether to create, update, archive or skip.
type Importer struct {
	destination integration.DestinationCatalog
	logger      *zap.Logger

	locMu     sync.Mutex
	locations []integration.Location
}

// NewImporter creates a new Importer
func NewImporter(destination integration.DestinationCatalog, logger *zap.Logger) *Importer {
	return &Importer{
		destination: destination,
		logger:      logger.Named("importer"),
	}
}

// SyncProduct runs the upsert state machine for one source product. The
// returned result is always usable; record-level failures are reported in
// it rather than as an error.
func (i *Importer) SyncProduct(ctx context.Context, product *integration.SourceProduct) integration.RecordResult {
	result := integration.RecordResult{
		ProductID:   product.ID,
		ProductName: product.Name,
	}

	existing, err := i.destination.FindBySourceID(ctx, product.ID)
	switch {
	case err == nil:
		if product.Status.IsActive() {
			i.update(ctx, product, existing, &result)
		} else {
			i.archive(ctx, product, existing, &result)
		}
	case errors.Is(err, integration.ErrDestinationNotFound):
		if product.Status.IsActive() {
			i.create(ctx, product, &result)
		} else {
			// Never create a product that is not live on the source
			result.Action = integration.RecordActionSkipped
			result.Success = true
			result.Skipped = true
		}
	default:
		// Includes duplicate SOURCE_ID tags: a reportable anomaly, not a
		// silent pick-the-first
		result.Action = integration.RecordActionFailed
		result.Error = err.Error()
		i.logger.Error("product lookup failed",
			zap.String("source_id", product.ID),
			zap.Error(err),
		)
	}

	return result
}

// create builds a full destination product and pushes inventory, collection
// and custom fields behind it
func (i *Importer) create(ctx context.Context, product *integration.SourceProduct, result *integration.RecordResult) {
	payload := buildPayload(product)

	created, err := i.destination.CreateProduct(ctx, payload)
	if err != nil {
		result.Action = integration.RecordActionFailed
		result.Error = fmt.Sprintf("create: %v", err)
		return
	}

	result.Action = integration.RecordActionCreated
	result.Success = true

	i.syncInventory(ctx, product, created, result)
	i.syncCollection(ctx, product, created.ID, result)
	i.syncCustomFields(ctx, product, created.ID, result)

	i.logger.Info("created product",
		zap.String("source_id", product.ID),
		zap.Int64("destination_id", created.ID),
		zap.String("name", product.Name),
	)
}

// update refreshes core fields, variants, inventory, collection and custom
// fields on an existing destination product without recreating its identity
func (i *Importer) update(ctx context.Context, product *integration.SourceProduct, existing *integration.DestinationProduct, result *integration.RecordResult) {
	payload := buildPayload(product)

	updated, err := i.destination.UpdateProduct(ctx, existing.ID, payload)
	if err != nil {
		result.Action = integration.RecordActionFailed
		result.Error = fmt.Sprintf("update: %v", err)
		return
	}

	result.Action = integration.RecordActionUpdated
	result.Success = true

	i.syncVariants(ctx, product, updated, result)
	i.syncInventory(ctx, product, updated, result)
	i.syncCollection(ctx, product, updated.ID, result)
	i.syncCustomFields(ctx, product, updated.ID, result)

	i.logger.Info("updated product",
		zap.String("source_id", product.ID),
		zap.Int64("destination_id", updated.ID),
	)
}

// archive flips the destination product's lifecycle flag. Tags and custom
// fields are still refreshed; inventory and collection sync is skipped for
// archived items.
func (i *Importer) archive(ctx context.Context, product *integration.SourceProduct, existing *integration.DestinationProduct, result *integration.RecordResult) {
	payload := buildPayload(product)
	payload.Status = "archived"

	if _, err := i.destination.UpdateProduct(ctx, existing.ID, payload); err != nil {
		result.Action = integration.RecordActionFailed
		result.Error = fmt.Sprintf("archive: %v", err)
		return
	}

	result.Action = integration.RecordActionArchived
	result.Success = true

	i.syncCustomFields(ctx, product, existing.ID, result)

	i.logger.Info("archived product",
		zap.String("source_id", product.ID),
		zap.Int64("destination_id", existing.ID),
	)
}

// syncVariants matches destination variants to price tiers by pack quantity
// and updates price and identifier fields one variant at a time
func (i *Importer) syncVariants(ctx context.Context, product *integration.SourceProduct, dest *integration.DestinationProduct, result *integration.RecordResult) {
	for _, variant := range dest.Variants {
		quantity := parsePackQuantity(variant.Option1)
		tier, ok := tierForQuantity(product.Prices, quantity)
		if !ok {
			continue
		}

		payload := &integration.VariantPayload{
			Price:   tier.Price.StringFixed(2),
			SKU:     primaryBarcode(product),
			Barcode: primaryBarcode(product),
		}
		if err := i.destination.UpdateVariant(ctx, dest.ID, variant.ID, payload); err != nil {
			result.FieldErrors = append(result.FieldErrors,
				fmt.Sprintf("variant %d: %v", variant.ID, err))
		}
	}
}

// syncInventory sets per-location stock for every variant, matching source
// outlets to destination locations by trimmed name
func (i *Importer) syncInventory(ctx context.Context, product *integration.SourceProduct, dest *integration.DestinationProduct, result *integration.RecordResult) {
	if len(product.Inventory) == 0 || len(dest.Variants) == 0 {
		return
	}

	locations, err := i.destinationLocations(ctx)
	if err != nil {
		result.FieldErrors = append(result.FieldErrors, fmt.Sprintf("locations: %v", err))
		return
	}

	for _, variant := range dest.Variants {
		if variant.InventoryItemID == 0 {
			continue
		}
		for _, outlet := range product.Inventory {
			location, ok := locationByName(locations, outlet.OutletName)
			if !ok {
				continue
			}
			if err := i.destination.SetInventory(ctx, variant.InventoryItemID, location.ID, outlet.Quantity); err != nil {
				result.FieldErrors = append(result.FieldErrors,
					fmt.Sprintf("inventory %s: %v", outlet.OutletName, err))
			}
		}
	}
}

// syncCollection derives a collection from the source category and ensures
// membership
func (i *Importer) syncCollection(ctx context.Context, product *integration.SourceProduct, productID int64, result *integration.RecordResult) {
	if product.Category == nil || product.Category.Name == "" {
		return
	}

	collection, err := i.destination.GetOrCreateCollection(ctx, product.Category.Name)
	if err != nil {
		result.FieldErrors = append(result.FieldErrors, fmt.Sprintf("collection: %v", err))
		return
	}
	if err := i.destination.AddToCollection(ctx, productID, collection.ID); err != nil {
		result.FieldErrors = append(result.FieldErrors, fmt.Sprintf("collect: %v", err))
	}
}

// syncCustomFields writes sanitized source custom fields as metafields. One
// bad field never aborts the rest.
func (i *Importer) syncCustomFields(ctx context.Context, product *integration.SourceProduct, productID int64, result *integration.RecordResult) {
	for _, field := range product.CustomFields {
		key, value, ok := SanitizeCustomField(field.Name, field.Value)
		if !ok {
			continue
		}
		if err := i.destination.SetMetafield(ctx, productID, metafieldNamespace, key, value, metafieldType); err != nil {
			result.FieldErrors = append(result.FieldErrors,
				fmt.Sprintf("field %s: %v", key, err))
		}
	}
}

// destinationLocations loads the destination's locations once per importer
func (i *Importer) destinationLocations(ctx context.Context) ([]integration.Location, error) {
	i.locMu.Lock()
	defer i.locMu.Unlock()
	if i.locations != nil {
		return i.locations, nil
	}
	locations, err := i.destination.Locations(ctx)
	if err != nil {
		return nil, err
	}
	i.locations = locations
	return locations, nil
}

// ---------------------------------------------------------------------------
// Payload construction
// ---------------------------------------------------------------------------

// buildPayload maps a source product to the destination write shape. Each
// price tier becomes one variant named by its pack quantity.
func buildPayload(product *integration.SourceProduct) *integration.ProductPayload {
	payload := &integration.ProductPayload{
		Title:       product.Name,
		BodyHTML:    product.Description,
		Vendor:      brandName(product),
		ProductType: categoryName(product),
		Status:      "active",
		Tags:        []string{integration.SourceTag(product.ID)},
		OptionName:  packOptionName,
	}

	if product.Image != "" {
		payload.ImageURLs = append(payload.ImageURLs, product.Image)
	}
	for _, img := range product.AlternateImages {
		if img != "" {
			payload.ImageURLs = append(payload.ImageURLs, img)
		}
	}

	barcode := primaryBarcode(product)
	for _, tier := range product.Prices {
		payload.Variants = append(payload.Variants, integration.VariantPayload{
			Option1:             packOptionValue(tier.Quantity),
			Price:               tier.Price.StringFixed(2),
			SKU:                 barcode,
			Barcode:             barcode,
			InventoryManagement: "shopify",
		})
	}

	return payload
}

// packOptionValue names a pack quantity: 1 is "Single", anything else "N Pack"
func packOptionValue(quantity int) string {
	if quantity == 1 {
		return "Single"
	}
	return fmt.Sprintf("%d Pack", quantity)
}

// parsePackQuantity inverts packOptionValue; unknown labels map to 1
func parsePackQuantity(option string) int {
	if option == "" || option == "Single" {
		return 1
	}
	match := packQuantityRe.FindStringSubmatch(option)
	if match == nil {
		return 1
	}
	quantity, err := strconv.Atoi(match[1])
	if err != nil || quantity < 1 {
		return 1
	}
	return quantity
}

func tierForQuantity(tiers []integration.PriceTier, quantity int) (integration.PriceTier, bool) {
	for _, tier := range tiers {
		if tier.Quantity == quantity {
			return tier, true
		}
	}
	return integration.PriceTier{}, false
}

func primaryBarcode(product *integration.SourceProduct) string {
	if len(product.Barcodes) == 0 {
		return ""
	}
	return product.Barcodes[0].Code
}

func brandName(product *integration.SourceProduct) string {
	if product.Brand == nil || product.Brand.Name == "" {
		return "Unknown"
	}
	return product.Brand.Name
}

func categoryName(product *integration.SourceProduct) string {
	if product.Category == nil {
		return ""
	}
	return product.Category.Name
}

func locationByName(locations []integration.Location, name string) (integration.Location, bool) {
	for _, location := range locations {
		if strings.TrimSpace(location.Name) == strings.TrimSpace(name) {
			return location, true
		}
	}
	return integration.Location{}, false
}

// ---------------------------------------------------------------------------
// Custom field sanitization
// ---------------------------------------------------------------------------

// SanitizeCustomField derives a metafield key and value from a source custom
// field. Keys are lower-cased with spaces as underscores and everything else
// stripped. A field whose trimmed value is empty is omitted entirely. Values
// that are a number with a trailing unit keep only the numeric portion.
func SanitizeCustomField(name, value string) (key, sanitized string, ok bool) {
	key = strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "_")
	key = keyStripRe.ReplaceAllString(key, "")
	if key == "" {
		return "", "", false
	}

	sanitized = strings.TrimSpace(value)
	if sanitized == "" {
		return "", "", false
	}
	if match := numericUnitRe.FindStringSubmatch(sanitized); match != nil {
		sanitized = match[1]
	}

	return key, sanitized, true
}
