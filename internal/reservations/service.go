package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aramunz/bazar-backend/internal/inventory"
	"github.com/aramunz/bazar-backend/internal/sales"
	"github.com/aramunz/bazar-backend/pkg/db"
	"github.com/aramunz/bazar-backend/pkg/db/models"
	"github.com/aramunz/bazar-backend/pkg/enums"
	pkgerrors "github.com/aramunz/bazar-backend/pkg/errors"
	"github.com/aramunz/bazar-backend/pkg/logger"
	"github.com/aramunz/bazar-backend/pkg/outbox"
)

// Service drives the reservation lifecycle: pending holds either
// confirm into a completed sale or cancel and return their stock. The
// 48-hour pickup window is a counter convention, not a scheduled job.
type Service interface {
	Confirm(ctx context.Context, actor sales.Actor, saleID uuid.UUID) (*sales.SaleDTO, error)
	Cancel(ctx context.Context, actor sales.Actor, saleID uuid.UUID) (*sales.SaleDTO, error)
}

type service struct {
	saleRepo  *sales.Repository
	saleSvc   sales.Service
	dbClient  *db.Client
	ledger    inventory.Service
	outboxSvc *outbox.Service
	logg      *logger.Logger
}

func NewService(saleRepo *sales.Repository, saleSvc sales.Service, dbClient *db.Client, ledger inventory.Service, outboxSvc *outbox.Service, logg *logger.Logger) (Service, error) {
	if saleRepo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if saleSvc == nil {
		return nil, fmt.Errorf("sale service required")
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
		saleRepo:  saleRepo,
		saleSvc:   saleSvc,
		dbClient:  dbClient,
		ledger:    ledger,
		outboxSvc: outboxSvc,
		logg:      logg,
	}, nil
}

// Confirm settles a pending reservation: payment goes to paid and the
// derived sale status to completed. The stock hold simply becomes
// permanent; no inventory movement happens here.
func (s *service) Confirm(ctx context.Context, actor sales.Actor, saleID uuid.UUID) (*sales.SaleDTO, error) {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.saleRepo.WithTx(tx)
		sale, err := s.loadPendingReservation(ctx, txRepo, saleID)
		if err != nil {
			return err
		}

		sale.PaymentStatus = enums.PaymentStatusPaid
		sale.SaleStatus = enums.PaymentStatusPaid.DerivedSaleStatus()
		if err := txRepo.Save(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: confirm reservation")
		}

		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationConfirmed,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         actor.Ref(),
			Data: map[string]any{
				"total": sale.TotalAmount.StringFixed(2),
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm reservation")
	}

	return s.saleSvc.Get(ctx, saleID)
}

// Cancel releases a pending reservation: every product-linked item
// returns to stock inside the same transaction that flips the status.
func (s *service) Cancel(ctx context.Context, actor sales.Actor, saleID uuid.UUID) (*sales.SaleDTO, error) {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.saleRepo.WithTx(tx)
		sale, err := s.loadPendingReservation(ctx, txRepo, saleID)
		if err != nil {
			return err
		}

		for i := range sale.Items {
			item := &sale.Items[i]
			if item.ProductID == nil {
				continue
			}
			err := s.ledger.Release(ctx, tx, inventory.Adjustment{
				ProductID: *item.ProductID,
				SaleID:    &sale.ID,
				Quantity:  item.Quantity,
				Movement:  enums.StockMovementCancellation,
			})
			if err != nil {
				return err
			}
		}

		sale.PaymentStatus = enums.PaymentStatusCanceled
		sale.SaleStatus = enums.PaymentStatusCanceled.DerivedSaleStatus()
		if err := txRepo.Save(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cancel reservation")
		}

		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationCanceled,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         actor.Ref(),
			Data: map[string]any{
				"items": len(sale.Items),
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel reservation")
	}

	logCtx := s.logg.WithSaleID(ctx, saleID.String())
	s.logg.Info(logCtx, "reservation canceled, stock restored")

	return s.saleSvc.Get(ctx, saleID)
}

func (s *service) loadPendingReservation(ctx context.Context, repo *sales.Repository, saleID uuid.UUID) (*models.Sale, error) {
	sale, err := repo.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
	}
	if sale.Kind != enums.SaleKindReservation {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sale is not a reservation")
	}
	if sale.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reservation already settled").
			WithDetails(map[string]any{"paymentStatus": sale.PaymentStatus})
	}
	return sale, nil
}
