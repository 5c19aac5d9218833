package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aramunz/bazar-backend/internal/inventory"
	"github.com/aramunz/bazar-backend/internal/pricing"
	"github.com/aramunz/bazar-backend/pkg/db"
	"github.com/aramunz/bazar-backend/pkg/db/models"
	"github.com/aramunz/bazar-backend/pkg/enums"
	pkgerrors "github.com/aramunz/bazar-backend/pkg/errors"
	"github.com/aramunz/bazar-backend/pkg/logger"
	"github.com/aramunz/bazar-backend/pkg/outbox"
	"github.com/aramunz/bazar-backend/pkg/pagination"
	"github.com/aramunz/bazar-backend/pkg/security"
)

// DeleteStockWarning tells the operator that deleting a sale leaves
// stock as-is. Cancellation is the path that restores stock.
const DeleteStockWarning = "sale deleted; reserved stock was NOT restored. Cancel the sale instead if the items should return to stock."

// Actor identifies the authenticated back-office member performing an
// operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.MemberRole
}

func (a Actor) Ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: string(a.Role)}
}

// Service owns the sale/reservation aggregate.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateSaleInput) (*SaleDTO, error)
	Get(ctx context.Context, saleID uuid.UUID) (*SaleDTO, error)
	List(ctx context.Context, input ListSalesInput) (*SaleListResult, error)
	ChangeStatus(ctx context.Context, actor Actor, saleID uuid.UUID, input ChangeStatusInput) (*SaleDTO, error)
	AddItem(ctx context.Context, actor Actor, saleID uuid.UUID, input SaleItemInput) (*SaleDTO, error)
	RemoveItem(ctx context.Context, actor Actor, itemID uuid.UUID) (*SaleDTO, error)
	Delete(ctx context.Context, actor Actor, saleID uuid.UUID) (*DeleteSaleResult, error)
	RecalculateTotal(ctx context.Context, saleID uuid.UUID) (decimal.Decimal, error)
}

type customerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type service struct {
	repo           *Repository
	dbClient       *db.Client
	ledger         inventory.Service
	outboxSvc      *outbox.Service
	customers      customerLoader
	logg           *logger.Logger
	gateSecretHash string
}

// NewService constructs the sale aggregate service. gateSecretHash is
// the Argon2id hash the offered-status gate verifies against.
func NewService(repo *Repository, dbClient *db.Client, ledger inventory.Service, outboxSvc *outbox.Service, customers customerLoader, logg *logger.Logger, gateSecretHash string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if gateSecretHash == "" {
		return nil, fmt.Errorf("offered gate secret hash required")
	}
	return &service{
		repo:           repo,
		dbClient:       dbClient,
		ledger:         ledger,
		outboxSvc:      outboxSvc,
		customers:      customers,
		logg:           logg,
		gateSecretHash: gateSecretHash,
	}, nil
}

// buildItem normalizes one requested line into a persistable item. For
// product-linked lines the catalog row is the price and name source
// unless the request overrides them.
func buildItem(input SaleItemInput, product *models.Product) (*models.SaleItem, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var name string
	var unitPrice pricing.Price

	switch {
	case product != nil:
		name = product.Name
		unitPrice = pricing.FromColumns(product.PriceAmount, product.PriceOnRequest)
		if input.PriceAmount != nil || input.OnRequest || input.RawUnitPrice != nil {
			unitPrice = resolveUnitPrice(input)
		}
		if input.ProductName != nil && strings.TrimSpace(*input.ProductName) != "" {
			name = strings.TrimSpace(*input.ProductName)
		}
	default:
		if input.ProductName == nil || strings.TrimSpace(*input.ProductName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required for off-catalog items")
		}
		name = strings.TrimSpace(*input.ProductName)
		unitPrice = resolveUnitPrice(input)
	}

	amount, onRequest := unitPrice.Columns()
	return &models.SaleItem{
		ProductID:          input.ProductID,
		ProductName:        name,
		Quantity:           input.Quantity,
		UnitPriceAmount:    amount,
		UnitPriceOnRequest: onRequest,
		SubtotalAmount:     unitPrice.Subtotal(input.Quantity),
	}, nil
}

func resolveUnitPrice(input SaleItemInput) pricing.Price {
	if input.OnRequest {
		return pricing.OnRequest()
	}
	if input.PriceAmount != nil {
		return pricing.Numeric(*input.PriceAmount)
	}
	if input.RawUnitPrice != nil {
		return pricing.Parse(*input.RawUnitPrice)
	}
	return pricing.Numeric(decimal.Zero)
}

// recomputedTotal sums the recomputed subtotal of every item, ignoring
// the stored caches.
func recomputedTotal(items []models.SaleItem) decimal.Decimal {
	lines := make([]pricing.Line, 0, len(items))
	for i := range items {
		lines = append(lines, pricing.Line{
			Price:    pricing.FromColumns(items[i].UnitPriceAmount, items[i].UnitPriceOnRequest),
			Quantity: items[i].Quantity,
		})
	}
	return pricing.Total(lines)
}

// Create persists the header and items in one transaction, reserving
// stock for every product-linked line. Any failure aborts the whole
// sale with nothing persisted.
func (s *service) Create(ctx context.Context, actor Actor, input CreateSaleInput) (*SaleDTO, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sale kind")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}

	paymentStatus := enums.PaymentStatusPending
	if input.PaymentStatus != nil {
		paymentStatus = *input.PaymentStatus
		if !paymentStatus.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
		}
		if paymentStatus == enums.PaymentStatusOffered {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a sale cannot be created as offered; change its status after creation")
		}
	}

	customerID, customerName, err := s.resolveCustomer(ctx, input)
	if err != nil {
		return nil, err
	}

	var saleID uuid.UUID
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		sale := &models.Sale{
			CustomerID:     customerID,
			CustomerName:   customerName,
			Kind:           input.Kind,
			PaymentStatus:  paymentStatus,
			SaleStatus:     paymentStatus.DerivedSaleStatus(),
			DeliveryStatus: enums.DeliveryStatusReserved,
			ReceiptURL:     input.ReceiptURL,
			TotalAmount:    decimal.Zero,
		}

		items := make([]models.SaleItem, 0, len(input.Items))
		for _, itemInput := range input.Items {
			var product *models.Product
			if itemInput.ProductID != nil {
				var loadErr error
				product, loadErr = loadProductTx(ctx, tx, *itemInput.ProductID)
				if loadErr != nil {
					return loadErr
				}
			}
			item, err := buildItem(itemInput, product)
			if err != nil {
				return err
			}
			items = append(items, *item)
		}

		sale.Items = items
		sale.TotalAmount = recomputedTotal(items)

		if _, err := txRepo.Create(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert sale")
		}
		saleID = sale.ID

		for _, item := range sale.Items {
			if item.ProductID == nil {
				continue
			}
			err := s.ledger.Reserve(ctx, tx, inventory.Adjustment{
				ProductID: *item.ProductID,
				SaleID:    &sale.ID,
				Quantity:  item.Quantity,
				Movement:  enums.StockMovementSale,
			})
			if err != nil {
				return err
			}
		}

		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleCreated,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         actor.Ref(),
			Data: map[string]any{
				"kind":  sale.Kind,
				"total": sale.TotalAmount.StringFixed(2),
				"items": len(sale.Items),
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
	}

	return s.Get(ctx, saleID)
}

func (s *service) resolveCustomer(ctx context.Context, input CreateSaleInput) (*uuid.UUID, string, error) {
	if input.CustomerID != nil {
		customer, err := s.customers.FindByID(ctx, *input.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "customer not found")
			}
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
		return &customer.ID, customer.Name, nil
	}
	if input.CustomerName == nil || strings.TrimSpace(*input.CustomerName) == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	return nil, strings.TrimSpace(*input.CustomerName), nil
}

func (s *service) Get(ctx context.Context, saleID uuid.UUID) (*SaleDTO, error) {
	sale, err := s.loadSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return newSaleDTO(sale), nil
}

func (s *service) List(ctx context.Context, input ListSalesInput) (*SaleListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, listQuery{
		Pagination:    pagination.Params{Limit: input.Limit, Cursor: input.Cursor},
		Kind:          input.Kind,
		PaymentStatus: input.PaymentStatus,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list sales")
	}
	dtos := make([]SaleDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newSaleDTO(&rows[i]))
	}
	return &SaleListResult{Sales: dtos, NextCursor: nextCursor}, nil
}

// ChangeStatus applies payment and delivery status transitions.
// Entering the offered state stashes the current total in
// original_total and zeroes the header; leaving it restores the stash,
// or recomputes from items when the stash is missing.
func (s *service) ChangeStatus(ctx context.Context, actor Actor, saleID uuid.UUID, input ChangeStatusInput) (*SaleDTO, error) {
	if input.PaymentStatus == nil && input.DeliveryStatus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no status change requested")
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	if input.DeliveryStatus != nil && !input.DeliveryStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery status")
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		sale, err := loadSaleTx(ctx, txRepo, saleID)
		if err != nil {
			return err
		}

		previous := sale.PaymentStatus
		if input.PaymentStatus != nil && *input.PaymentStatus != previous {
			next := *input.PaymentStatus
			touchesOffered := next == enums.PaymentStatusOffered || previous == enums.PaymentStatusOffered
			if touchesOffered {
				if err := s.checkOfferedGate(actor, input.GateSecret); err != nil {
					return err
				}
			}

			switch {
			case next == enums.PaymentStatusOffered:
				total := recomputedTotal(sale.Items)
				sale.OriginalTotal = &total
				sale.TotalAmount = decimal.Zero
			case previous == enums.PaymentStatusOffered:
				if sale.OriginalTotal != nil {
					sale.TotalAmount = *sale.OriginalTotal
				} else {
					sale.TotalAmount = recomputedTotal(sale.Items)
				}
				sale.OriginalTotal = nil
			}

			sale.PaymentStatus = next
			sale.SaleStatus = next.DerivedSaleStatus()
		}

		if input.DeliveryStatus != nil {
			sale.DeliveryStatus = *input.DeliveryStatus
		}

		if err := txRepo.Save(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update sale")
		}

		if input.PaymentStatus != nil && *input.PaymentStatus != previous {
			return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventSalePaymentChanged,
				AggregateType: enums.AggregateSale,
				AggregateID:   sale.ID,
				Actor:         actor.Ref(),
				Data: map[string]any{
					"from":  previous,
					"to":    sale.PaymentStatus,
					"total": sale.TotalAmount.StringFixed(2),
				},
			})
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "change sale status")
	}

	return s.Get(ctx, saleID)
}

// checkOfferedGate guards the zero-out path: admin role plus the
// shared operator secret.
func (s *service) checkOfferedGate(actor Actor, gateSecret string) error {
	if actor.Role != enums.MemberRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "offered transitions require the admin role")
	}
	if gateSecret == "" {
		return pkgerrors.New(pkgerrors.CodeForbidden, "gate secret required for offered transitions")
	}
	ok, err := security.VerifySecret(gateSecret, s.gateSecretHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify gate secret")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "gate secret mismatch")
	}
	return nil
}

// AddItem appends a line, reserves its stock, and recomputes the header
// total from every current item.
func (s *service) AddItem(ctx context.Context, actor Actor, saleID uuid.UUID, input SaleItemInput) (*SaleDTO, error) {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		sale, err := loadSaleTx(ctx, txRepo, saleID)
		if err != nil {
			return err
		}
		if err := itemMutationAllowed(sale); err != nil {
			return err
		}

		var product *models.Product
		if input.ProductID != nil {
			product, err = loadProductTx(ctx, tx, *input.ProductID)
			if err != nil {
				return err
			}
		}
		item, err := buildItem(input, product)
		if err != nil {
			return err
		}
		item.SaleID = sale.ID

		if err := txRepo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert sale item")
		}

		if item.ProductID != nil {
			err := s.ledger.Reserve(ctx, tx, inventory.Adjustment{
				ProductID: *item.ProductID,
				SaleID:    &sale.ID,
				Quantity:  item.Quantity,
				Movement:  enums.StockMovementItemAdded,
			})
			if err != nil {
				return err
			}
		}

		sale.Items = append(sale.Items, *item)
		sale.TotalAmount = recomputedTotal(sale.Items)
		if err := txRepo.Save(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update sale total")
		}

		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleItemAdded,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         actor.Ref(),
			Data: map[string]any{
				"itemId":   item.ID,
				"quantity": item.Quantity,
				"total":    sale.TotalAmount.StringFixed(2),
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add sale item")
	}

	return s.Get(ctx, saleID)
}

// RemoveItem deletes a line, releases its stock, and subtracts the
// line's recomputed subtotal from the header total. The stored
// subtotal cache is never trusted.
func (s *service) RemoveItem(ctx context.Context, actor Actor, itemID uuid.UUID) (*SaleDTO, error) {
	var saleID uuid.UUID
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		item, err := txRepo.FindItemByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale item")
		}
		saleID = item.SaleID

		sale, err := loadSaleTx(ctx, txRepo, item.SaleID)
		if err != nil {
			return err
		}
		if err := itemMutationAllowed(sale); err != nil {
			return err
		}

		if err := txRepo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete sale item")
		}

		unitPrice := pricing.FromColumns(item.UnitPriceAmount, item.UnitPriceOnRequest)
		sale.TotalAmount = sale.TotalAmount.Sub(unitPrice.Subtotal(item.Quantity))
		if err := txRepo.Save(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update sale total")
		}

		if item.ProductID != nil {
			err := s.ledger.Release(ctx, tx, inventory.Adjustment{
				ProductID: *item.ProductID,
				SaleID:    &sale.ID,
				Quantity:  item.Quantity,
				Movement:  enums.StockMovementItemRemoved,
			})
			if err != nil {
				return err
			}
		}

		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleItemRemoved,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         actor.Ref(),
			Data: map[string]any{
				"itemId":   item.ID,
				"quantity": item.Quantity,
				"total":    sale.TotalAmount.StringFixed(2),
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove sale item")
	}

	return s.Get(ctx, saleID)
}

// Delete removes the aggregate without restoring stock. The asymmetry
// against cancellation is intentional and surfaced to the operator.
func (s *service) Delete(ctx context.Context, actor Actor, saleID uuid.UUID) (*DeleteSaleResult, error) {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		sale, err := loadSaleTx(ctx, txRepo, saleID)
		if err != nil {
			return err
		}

		if err := txRepo.DeleteSale(ctx, sale.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete sale")
		}

		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleDeleted,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         actor.Ref(),
			Data: map[string]any{
				"kind":  sale.Kind,
				"items": len(sale.Items),
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete sale")
	}

	logCtx := s.logg.WithSaleID(ctx, saleID.String())
	s.logg.Warn(logCtx, "sale deleted without stock restoration")

	return &DeleteSaleResult{Warning: DeleteStockWarning}, nil
}

// RecalculateTotal is the authoritative money read: the sum of every
// item's recomputed subtotal.
func (s *service) RecalculateTotal(ctx context.Context, saleID uuid.UUID) (decimal.Decimal, error) {
	sale, err := s.loadSale(ctx, saleID)
	if err != nil {
		return decimal.Zero, err
	}
	return recomputedTotal(sale.Items), nil
}

// itemMutationAllowed refuses line edits on offered and canceled sales;
// the former would silently unzero the total, the latter is terminal.
func itemMutationAllowed(sale *models.Sale) error {
	switch sale.PaymentStatus {
	case enums.PaymentStatusOffered:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot modify items of an offered sale")
	case enums.PaymentStatusCanceled:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot modify items of a canceled sale")
	}
	return nil
}

func (s *service) loadSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	return loadSaleTx(ctx, s.repo, saleID)
}

func loadSaleTx(ctx context.Context, repo *Repository, saleID uuid.UUID) (*models.Sale, error) {
	sale, err := repo.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

func loadProductTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := tx.WithContext(ctx).First(&product, "id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &product, nil
}
