package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aramunz/bazar-backend/internal/pricing"
	"github.com/aramunz/bazar-backend/pkg/db/models"
	"github.com/aramunz/bazar-backend/pkg/enums"
)

// SaleItemDTO is the transport shape of one line item. Subtotal is
// always the recomputed value, never the stored cache.
type SaleItemDTO struct {
	ID                 uuid.UUID        `json:"id"`
	ProductID          *uuid.UUID       `json:"productId,omitempty"`
	ProductName        string           `json:"productName"`
	Quantity           int              `json:"quantity"`
	UnitPriceAmount    *decimal.Decimal `json:"unitPriceAmount,omitempty"`
	UnitPriceOnRequest bool             `json:"unitPriceOnRequest"`
	UnitPriceDisplay   string           `json:"unitPriceDisplay"`
	Subtotal           decimal.Decimal  `json:"subtotal"`
}

// SaleDTO is the transport shape of the full aggregate.
type SaleDTO struct {
	ID             uuid.UUID            `json:"id"`
	CustomerID     *uuid.UUID           `json:"customerId,omitempty"`
	CustomerName   string               `json:"customerName"`
	Kind           enums.SaleKind       `json:"kind"`
	PaymentStatus  enums.PaymentStatus  `json:"paymentStatus"`
	SaleStatus     enums.SaleStatus     `json:"saleStatus"`
	DeliveryStatus enums.DeliveryStatus `json:"deliveryStatus"`
	Total          decimal.Decimal      `json:"total"`
	TotalDisplay   string               `json:"totalDisplay"`
	ReceiptURL     *string              `json:"receiptUrl,omitempty"`
	Items          []SaleItemDTO        `json:"items"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

func newSaleItemDTO(item *models.SaleItem) SaleItemDTO {
	unitPrice := pricing.FromColumns(item.UnitPriceAmount, item.UnitPriceOnRequest)
	return SaleItemDTO{
		ID:                 item.ID,
		ProductID:          item.ProductID,
		ProductName:        item.ProductName,
		Quantity:           item.Quantity,
		UnitPriceAmount:    item.UnitPriceAmount,
		UnitPriceOnRequest: item.UnitPriceOnRequest,
		UnitPriceDisplay:   unitPrice.Format(),
		Subtotal:           unitPrice.Subtotal(item.Quantity),
	}
}

// newSaleDTO maps the aggregate, exporting the stored header total.
// The stored total is trusted here because every mutation path
// recomputes it before persisting.
func newSaleDTO(sale *models.Sale) *SaleDTO {
	items := make([]SaleItemDTO, 0, len(sale.Items))
	for i := range sale.Items {
		items = append(items, newSaleItemDTO(&sale.Items[i]))
	}
	return &SaleDTO{
		ID:             sale.ID,
		CustomerID:     sale.CustomerID,
		CustomerName:   sale.CustomerName,
		Kind:           sale.Kind,
		PaymentStatus:  sale.PaymentStatus,
		SaleStatus:     sale.SaleStatus,
		DeliveryStatus: sale.DeliveryStatus,
		Total:          sale.TotalAmount,
		TotalDisplay:   pricing.Numeric(sale.TotalAmount).Format(),
		ReceiptURL:     sale.ReceiptURL,
		Items:          items,
		CreatedAt:      sale.CreatedAt,
		UpdatedAt:      sale.UpdatedAt,
	}
}

// SaleItemInput is one requested line. A product-linked line snapshots
// the catalog name and price and reserves stock; a free-form line
// carries its own name and price and never touches stock. Any
// caller-supplied subtotal is ignored.
type SaleItemInput struct {
	ProductID    *uuid.UUID
	ProductName  *string
	Quantity     int
	PriceAmount  *decimal.Decimal
	OnRequest    bool
	RawUnitPrice *string
}

// CreateSaleInput holds the validated payload to create a sale or
// reservation.
type CreateSaleInput struct {
	CustomerID    *uuid.UUID
	CustomerName  *string
	Kind          enums.SaleKind
	PaymentStatus *enums.PaymentStatus
	ReceiptURL    *string
	Items         []SaleItemInput
}

// ChangeStatusInput carries a payment and/or delivery status change.
// GateSecret is required only for transitions into or out of the
// offered state.
type ChangeStatusInput struct {
	PaymentStatus  *enums.PaymentStatus
	DeliveryStatus *enums.DeliveryStatus
	GateSecret     string
}

// DeleteSaleResult surfaces the non-restoring delete to the operator.
type DeleteSaleResult struct {
	Warning string `json:"warning"`
}

// ListSalesInput captures list filters plus cursor pagination.
type ListSalesInput struct {
	Kind          *enums.SaleKind
	PaymentStatus *enums.PaymentStatus
	Limit         int
	Cursor        string
}

// SaleListResult is one page of sales plus the next cursor.
type SaleListResult struct {
	Sales      []SaleDTO `json:"sales"`
	NextCursor string    `json:"nextCursor,omitempty"`
}
