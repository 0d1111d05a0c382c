package ecommerce

import (
	"github.com/shopspring/decimal"

	"github.com/shopsync/backend/internal/domain/integration"
)

// graphqlRequest is the wire shape of a Shopfront GraphQL call. Queries are
// always parameterized; user input travels in Variables, never in Query.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlError is one entry of a GraphQL errors array
type graphqlError struct {
	Message string `json:"message"`
}

// productsQuery is the paginated catalog traversal
const productsQuery = `query Products($first: Int!, $after: String, $categories: [String!]) {
  products(first: $first, after: $after, categories: $categories) {
    totalCount
    edges {
      node {
        id
        name
        description
        status
        type
        category { id name }
        brand { id name }
        image
        alternateImages
        prices { quantity price priceEx }
        barcodes { code quantity }
        inventory { outlet { id name } quantity }
        customFields { name value }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

// productQuery is the single-product lookup used for explicit ID syncs
const productQuery = `query Product($id: ID!) {
  product(id: $id) {
    id
    name
    description
    status
    type
    category { id name }
    brand { id name }
    image
    alternateImages
    prices { quantity price priceEx }
    barcodes { code quantity }
    inventory { outlet { id name } quantity }
    customFields { name value }
  }
}`

// shopfrontProductsResponse is the envelope of the products connection query
type shopfrontProductsResponse struct {
	Data *struct {
		Products *struct {
			TotalCount int `json:"totalCount"`
			Edges      []struct {
				Node *shopfrontProduct `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"products"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// shopfrontProductResponse is the envelope of the single-product query
type shopfrontProductResponse struct {
	Data *struct {
		Product *shopfrontProduct `json:"product"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// shopfrontProduct is the wire shape of one catalog record
type shopfrontProduct struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Type        string    `json:"type"`
	Category    *namedRef `json:"category"`
	Brand       *namedRef `json:"brand"`
	Image       string    `json:"image"`

	AlternateImages []string `json:"alternateImages"`

	Prices []struct {
		Quantity int             `json:"quantity"`
		Price    decimal.Decimal `json:"price"`
		PriceEx  decimal.Decimal `json:"priceEx"`
	} `json:"prices"`

	Barcodes []struct {
		Code     string `json:"code"`
		Quantity int    `json:"quantity"`
	} `json:"barcodes"`

	Inventory []struct {
		Outlet   namedRef `json:"outlet"`
		Quantity int      `json:"quantity"`
	} `json:"inventory"`

	CustomFields []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"customFields"`
}

// namedRef is an id+name reference used by category, brand and outlet fields
type namedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// toDomain converts the wire record to a domain SourceProduct
func (p *shopfrontProduct) toDomain() *integration.SourceProduct {
	product := &integration.SourceProduct{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Status:          integration.ProductStatus(p.Status),
		Type:            p.Type,
		Image:           p.Image,
		AlternateImages: p.AlternateImages,
	}

	if p.Category != nil {
		product.Category = &integration.CategoryRef{ID: p.Category.ID, Name: p.Category.Name}
	}
	if p.Brand != nil {
		product.Brand = &integration.BrandRef{ID: p.Brand.ID, Name: p.Brand.Name}
	}

	for _, tier := range p.Prices {
		product.Prices = append(product.Prices, integration.PriceTier{
			Quantity: tier.Quantity,
			Price:    tier.Price,
			PriceEx:  tier.PriceEx,
		})
	}
	for _, barcode := range p.Barcodes {
		product.Barcodes = append(product.Barcodes, integration.Barcode{
			Code:     barcode.Code,
			Quantity: barcode.Quantity,
		})
	}
	for _, level := range p.Inventory {
		product.Inventory = append(product.Inventory, integration.OutletInventory{
			OutletID:   level.Outlet.ID,
			OutletName: level.Outlet.Name,
			Quantity:   level.Quantity,
		})
	}
	for _, field := range p.CustomFields {
		product.CustomFields = append(product.CustomFields, integration.CustomField{
			Name:  field.Name,
			Value: field.Value,
		})
	}

	return product
}

// shopfrontTokenResponse is the OAuth token endpoint response
type shopfrontTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}
