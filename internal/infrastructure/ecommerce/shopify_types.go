package ecommerce

import (
	"strings"

	"github.com/shopsync/backend/internal/domain/integration"
)

// shopifyProduct is the admin REST shape of a product
type shopifyProduct struct {
	ID          int64            `json:"id,omitempty"`
	Title       string           `json:"title,omitempty"`
	BodyHTML    string           `json:"body_html,omitempty"`
	Vendor      string           `json:"vendor,omitempty"`
	ProductType string           `json:"product_type,omitempty"`
	Status      string           `json:"status,omitempty"`
	Tags        string           `json:"tags,omitempty"`
	Images      []shopifyImage   `json:"images,omitempty"`
	Options     []shopifyOption  `json:"options,omitempty"`
	Variants    []shopifyVariant `json:"variants,omitempty"`
}

type shopifyImage struct {
	Src string `json:"src"`
}

type shopifyOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// shopifyVariant is the admin REST shape of a variant
type shopifyVariant struct {
	ID                  int64  `json:"id,omitempty"`
	Option1             string `json:"option1,omitempty"`
	Price               string `json:"price,omitempty"`
	SKU                 string `json:"sku,omitempty"`
	Barcode             string `json:"barcode,omitempty"`
	InventoryManagement string `json:"inventory_management,omitempty"`
	InventoryQuantity   int    `json:"inventory_quantity"`
	InventoryItemID     int64  `json:"inventory_item_id,omitempty"`
}

type shopifyProductEnvelope struct {
	Product shopifyProduct `json:"product"`
}

type shopifyProductsEnvelope struct {
	Products []shopifyProduct `json:"products"`
}

type shopifyVariantEnvelope struct {
	Variant shopifyVariant `json:"variant"`
}

type shopifyLocation struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type shopifyLocationsEnvelope struct {
	Locations []shopifyLocation `json:"locations"`
}

type shopifyCollection struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type shopifyCollectionEnvelope struct {
	CustomCollection shopifyCollection `json:"custom_collection"`
}

type shopifyCollectionsEnvelope struct {
	CustomCollections []shopifyCollection `json:"custom_collections"`
}

type shopifyCollect struct {
	ProductID    int64 `json:"product_id"`
	CollectionID int64 `json:"collection_id"`
}

type shopifyCollectEnvelope struct {
	Collect shopifyCollect `json:"collect"`
}

type shopifyInventoryLevel struct {
	LocationID      int64 `json:"location_id"`
	InventoryItemID int64 `json:"inventory_item_id"`
	Available       int   `json:"available"`
}

type shopifyMetafield struct {
	ID        int64  `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type shopifyMetafieldEnvelope struct {
	Metafield shopifyMetafield `json:"metafield"`
}

type shopifyMetafieldsEnvelope struct {
	Metafields []shopifyMetafield `json:"metafields"`
}

// toDomain converts the wire product to a domain DestinationProduct
func (p *shopifyProduct) toDomain() *integration.DestinationProduct {
	product := &integration.DestinationProduct{
		ID:     p.ID,
		Title:  p.Title,
		Status: p.Status,
		Tags:   splitTags(p.Tags),
	}
	for _, v := range p.Variants {
		product.Variants = append(product.Variants, integration.DestinationVariant{
			ID:              v.ID,
			SKU:             v.SKU,
			Price:           v.Price,
			Barcode:         v.Barcode,
			Option1:         v.Option1,
			InventoryItemID: v.InventoryItemID,
		})
	}
	return product
}

// splitTags splits the comma-joined tags field into trimmed tags
func splitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// wireProductOf builds the wire product from a write payload
func wireProductOf(payload *integration.ProductPayload) shopifyProduct {
	product := shopifyProduct{
		Title:       payload.Title,
		BodyHTML:    payload.BodyHTML,
		Vendor:      payload.Vendor,
		ProductType: payload.ProductType,
		Status:      payload.Status,
		Tags:        strings.Join(payload.Tags, ", "),
	}
	for _, src := range payload.ImageURLs {
		if src != "" {
			product.Images = append(product.Images, shopifyImage{Src: src})
		}
	}
	if len(payload.Variants) > 0 {
		values := make([]string, 0, len(payload.Variants))
		for _, v := range payload.Variants {
			values = append(values, v.Option1)
			product.Variants = append(product.Variants, shopifyVariant{
				Option1:             v.Option1,
				Price:               v.Price,
				SKU:                 v.SKU,
				Barcode:             v.Barcode,
				InventoryManagement: v.InventoryManagement,
			})
		}
		if payload.OptionName != "" {
			product.Options = []shopifyOption{{Name: payload.OptionName, Values: values}}
		}
	}
	return product
}
