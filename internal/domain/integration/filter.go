package integration

import (
	"fmt"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// SyncFilter
// ---------------------------------------------------------------------------

// FilterMode selects which slice of the source catalog a traversal covers.
// Modes are mutually exclusive: a cursor obtained under one mode (or one
// category/ID set) is not valid under another.
type FilterMode string

const (
	// FilterModeAllActive traverses every active product
	FilterModeAllActive FilterMode = "ALL_ACTIVE"
	// FilterModeCategories traverses products in an explicit category set
	FilterModeCategories FilterMode = "CATEGORIES"
	// FilterModeProducts traverses an explicit product ID set
	FilterModeProducts FilterMode = "PRODUCTS"
)

// IsValid returns true if the filter mode is valid
func (m FilterMode) IsValid() bool {
	switch m {
	case FilterModeAllActive, FilterModeCategories, FilterModeProducts:
		return true
	default:
		return false
	}
}

// String returns the string representation of FilterMode
func (m FilterMode) String() string {
	return string(m)
}

// SyncFilter describes one traversal context over the source catalog.
type SyncFilter struct {
	// Mode selects the traversal kind
	Mode FilterMode `json:"mode"`
	// CategoryIDs is the category set for FilterModeCategories
	CategoryIDs []string `json:"category_ids,omitempty"`
	// ProductIDs is the explicit ID set for FilterModeProducts
	ProductIDs []string `json:"product_ids,omitempty"`
}

// AllActiveFilter returns a filter covering every active product
func AllActiveFilter() SyncFilter {
	return SyncFilter{Mode: FilterModeAllActive}
}

// CategoryFilter returns a filter covering the given categories
func CategoryFilter(categoryIDs ...string) SyncFilter {
	return SyncFilter{Mode: FilterModeCategories, CategoryIDs: categoryIDs}
}

// ProductFilter returns a filter covering the given explicit product IDs
func ProductFilter(productIDs ...string) SyncFilter {
	return SyncFilter{Mode: FilterModeProducts, ProductIDs: productIDs}
}

// Validate checks mode validity and mutual exclusion of the ID sets
func (f SyncFilter) Validate() error {
	if !f.Mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidFilter, string(f.Mode))
	}
	switch f.Mode {
	case FilterModeAllActive:
		if len(f.CategoryIDs) > 0 || len(f.ProductIDs) > 0 {
			return fmt.Errorf("%w: %s accepts no ID sets", ErrInvalidFilter, f.Mode)
		}
	case FilterModeCategories:
		if len(f.CategoryIDs) == 0 {
			return fmt.Errorf("%w: %s requires at least one category", ErrInvalidFilter, f.Mode)
		}
		if len(f.ProductIDs) > 0 {
			return fmt.Errorf("%w: %s cannot mix in product IDs", ErrInvalidFilter, f.Mode)
		}
	case FilterModeProducts:
		if len(f.ProductIDs) == 0 {
			return fmt.Errorf("%w: %s requires at least one product ID", ErrInvalidFilter, f.Mode)
		}
		if len(f.CategoryIDs) > 0 {
			return fmt.Errorf("%w: %s cannot mix in category IDs", ErrInvalidFilter, f.Mode)
		}
	}
	return nil
}

// ContextKey returns a stable key identifying the traversal context. Cursors
// checkpointed for one context key must never be replayed under another.
func (f SyncFilter) ContextKey() string {
	switch f.Mode {
	case FilterModeCategories:
		ids := append([]string(nil), f.CategoryIDs...)
		sort.Strings(ids)
		return string(f.Mode) + ":" + strings.Join(ids, ",")
	case FilterModeProducts:
		ids := append([]string(nil), f.ProductIDs...)
		sort.Strings(ids)
		return string(f.Mode) + ":" + strings.Join(ids, ",")
	default:
		return string(f.Mode)
	}
}

// ---------------------------------------------------------------------------
// ProductPage
// ---------------------------------------------------------------------------

// ProductPage is one page of a cursor traversal over the source catalog
type ProductPage struct {
	// Products holds the page's records in source-returned order
	Products []SourceProduct
	// EndCursor is the opaque cursor marking the end of this page
	EndCursor string
	// HasNextPage indicates another page follows
	HasNextPage bool
	// TotalCount is the total number of records in the traversal context
	TotalCount int
}
