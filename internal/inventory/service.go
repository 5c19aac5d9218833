package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aramunz/bazar-backend/pkg/db/models"
	"github.com/aramunz/bazar-backend/pkg/enums"
	pkgerrors "github.com/aramunz/bazar-backend/pkg/errors"
)

// Service is the single owner of the products.stock column. Every
// lifecycle transition that touches stock goes through Reserve or
// Release; nothing else writes the column.
type Service interface {
	Reserve(ctx context.Context, tx *gorm.DB, adj Adjustment) error
	Release(ctx context.Context, tx *gorm.DB, adj Adjustment) error
	StockFor(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error)
}

// Adjustment describes one stock delta and the movement that caused it.
type Adjustment struct {
	ProductID uuid.UUID
	SaleID    *uuid.UUID
	Quantity  int
	Movement  enums.StockMovementType
}

type service struct{}

// NewService returns the inventory ledger.
func NewService() Service {
	return service{}
}

func (adj Adjustment) validate() error {
	if adj.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if adj.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !adj.Movement.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid stock movement type")
	}
	return nil
}

// Reserve decrements stock by adj.Quantity. The check and the write
// are one conditional update, so two concurrent reservations can never
// drive stock negative: the loser sees zero rows affected and gets an
// insufficient-stock failure carrying available vs requested.
func (service) Reserve(ctx context.Context, tx *gorm.DB, adj Adjustment) error {
	if err := adj.validate(); err != nil {
		return err
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", adj.ProductID, adj.Quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", adj.Quantity))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		var product models.Product
		err := tx.WithContext(ctx).First(&product, "id = ?", adj.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		return pkgerrors.InsufficientStock(product.Stock, adj.Quantity)
	}

	return recordMovement(ctx, tx, adj, -adj.Quantity)
}

// Release returns adj.Quantity units to stock.
func (service) Release(ctx context.Context, tx *gorm.DB, adj Adjustment) error {
	if err := adj.validate(); err != nil {
		return err
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", adj.ProductID).
		UpdateColumn("stock", gorm.Expr("stock + ?", adj.Quantity))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	return recordMovement(ctx, tx, adj, adj.Quantity)
}

// StockFor reads the current stock count.
func (service) StockFor(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error) {
	var product models.Product
	err := tx.WithContext(ctx).Select("id", "stock").First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product.Stock, nil
}

func recordMovement(ctx context.Context, tx *gorm.DB, adj Adjustment, delta int) error {
	movement := models.StockMovement{
		ProductID: adj.ProductID,
		SaleID:    adj.SaleID,
		Type:      adj.Movement,
		Delta:     delta,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	return nil
}
