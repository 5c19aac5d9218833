package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aramunz/bazar-backend/internal/pricing"
	"github.com/aramunz/bazar-backend/pkg/db/models"
)

// ProductDTO is the JSON shape returned by product read paths. Price is
// exported both as the structured variant and as the display string the
// storefront renders.
type ProductDTO struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Description    *string          `json:"description,omitempty"`
	Category       string           `json:"category"`
	PriceAmount    *decimal.Decimal `json:"priceAmount,omitempty"`
	PriceOnRequest bool             `json:"priceOnRequest"`
	PriceDisplay   string           `json:"priceDisplay"`
	Stock          int              `json:"stock"`
	ImageURLs      []string         `json:"imageUrls"`
	IsActive       bool             `json:"isActive"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// NewProductDTO maps a product row into its transport shape.
func NewProductDTO(product *models.Product) *ProductDTO {
	price := pricing.FromColumns(product.PriceAmount, product.PriceOnRequest)
	return &ProductDTO{
		ID:             product.ID,
		Name:           product.Name,
		Description:    product.Description,
		Category:       product.Category,
		PriceAmount:    product.PriceAmount,
		PriceOnRequest: product.PriceOnRequest,
		PriceDisplay:   price.Format(),
		Stock:          product.Stock,
		ImageURLs:      append([]string(nil), product.ImageURLs...),
		IsActive:       product.IsActive,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}

// CreateProductInput holds the validated payload to create a product.
// Price arrives either as an amount or an explicit on-request flag;
// RawPrice takes whatever string the operator typed and is normalized
// when neither structured field is set.
type CreateProductInput struct {
	Name           string
	Description    *string
	Category       string
	PriceAmount    *decimal.Decimal
	PriceOnRequest bool
	RawPrice       *string
	Stock          int
	ImageURLs      []string
	IsActive       bool
}

// UpdateProductInput holds optional mutation values. Stock is absent on
// purpose; it moves only through the ledger.
type UpdateProductInput struct {
	Name           *string
	Description    *string
	Category       *string
	PriceAmount    *decimal.Decimal
	PriceOnRequest *bool
	RawPrice       *string
	ImageURLs      *[]string
	IsActive       *bool
}

// ListProductsInput captures list filters plus cursor pagination.
type ListProductsInput struct {
	Category    *string
	Query       string
	ActiveOnly  bool
	InStockOnly bool
	Limit       int
	Cursor      string
}

// ProductListResult is one page of products plus the next cursor.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"nextCursor,omitempty"`
}
