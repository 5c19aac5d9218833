package products

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
)

// Service exposes catalog management operations.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, productID uuid.UUID) error
	Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int, actor *outbox.ActorRef) (*ProductDTO, error)
}

type service struct {
	repo      *Repository
	dbClient  *db.Client
	ledger    inventory.Service
	outboxSvc *outbox.Service
	logg      *logger.Logger
}

// NewService constructs the product service.
func NewService(repo *Repository, dbClient *db.Client, ledger inventory.Service, outboxSvc *outbox.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
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
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		dbClient:  dbClient,
		ledger:    ledger,
		outboxSvc: outboxSvc,
		logg:      logg,
	}, nil
}

// resolvePrice maps the three accepted price inputs onto the variant.
// A raw operator string only applies when no structured value is set.
func resolvePrice(amount *decimal.Decimal, onRequest bool, raw *string) pricing.Price {
	if onRequest {
		return pricing.OnRequest()
	}
	if amount != nil {
		return pricing.Numeric(*amount)
	}
	if raw != nil {
		return pricing.Parse(*raw)
	}
	return pricing.Numeric(decimal.Zero)
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}

	price := resolvePrice(input.PriceAmount, input.PriceOnRequest, input.RawPrice)
	amount, onRequest := price.Columns()

	product := &models.Product{
		Name:           name,
		Description:    input.Description,
		Category:       strings.TrimSpace(input.Category),
		PriceAmount:    amount,
		PriceOnRequest: onRequest,
		Stock:          input.Stock,
		ImageURLs:      append([]string(nil), input.ImageURLs...),
		IsActive:       input.IsActive,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(created), nil
}

func (s *service) Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be empty")
		}
		product.Category = category
	}
	if input.PriceAmount != nil || input.PriceOnRequest != nil || input.RawPrice != nil {
		onRequest := false
		if input.PriceOnRequest != nil {
			onRequest = *input.PriceOnRequest
		}
		price := resolvePrice(input.PriceAmount, onRequest, input.RawPrice)
		product.PriceAmount, product.PriceOnRequest = price.Columns()
	}
	if input.ImageURLs != nil {
		product.ImageURLs = append([]string(nil), (*input.ImageURLs)...)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if _, err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}

	// reload so the DTO carries the authoritative stock value
	updated, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.loadProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, listQuery{
		Pagination: pagination.Params{Limit: input.Limit, Cursor: input.Cursor},
		Filters:    input,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewProductDTO(&rows[i]))
	}
	return &ProductListResult{Products: dtos, NextCursor: nextCursor}, nil
}

// AdjustStock applies a manual correction through the ledger. Positive
// deltas add stock, negative deltas remove it; a removal past zero is
// refused with the usual insufficient-stock failure.
func (s *service) AdjustStock(ctx context.Context, productID uuid.UUID, delta int, actor *outbox.ActorRef) (*ProductDTO, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	var remaining int
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		adj := inventory.Adjustment{
			ProductID: productID,
			Movement:  enums.StockMovementAdjustment,
		}
		var err error
		if delta > 0 {
			adj.Quantity = delta
			err = s.ledger.Release(ctx, tx, adj)
		} else {
			adj.Quantity = -delta
			err = s.ledger.Reserve(ctx, tx, adj)
		}
		if err != nil {
			return err
		}

		remaining, err = s.ledger.StockFor(ctx, tx, productID)
		if err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventProductStockAdjusted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Actor:         actor,
			Data: map[string]any{
				"delta":     delta,
				"remaining": remaining,
			},
		}
		if err := s.outboxSvc.Emit(ctx, tx, event); err != nil {
			return err
		}
		if remaining == 0 {
			exhausted := event
			exhausted.EventType = enums.EventProductStockExhausted
			if err := s.outboxSvc.Emit(ctx, tx, exhausted); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id": productID.String(),
		"delta":      delta,
		"remaining":  remaining,
	})
	s.logg.Info(logCtx, "stock adjusted")

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
