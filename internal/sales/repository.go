package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aramunz/bazar-backend/pkg/db/models"
	"github.com/aramunz/bazar-backend/pkg/enums"
	"github.com/aramunz/bazar-backend/pkg/pagination"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the header with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// Create inserts the header and its items in one shot.
func (r *Repository) Create(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// Save persists header mutations. Items are managed through the item
// methods, never through association writes.
func (r *Repository) Save(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Omit("Items", "created_at").Save(sale).Error
}

func (r *Repository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.SaleItem, error) {
	var item models.SaleItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.SaleItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.SaleItem{}).Error
}

// DeleteSale removes the items then the header.
func (r *Repository) DeleteSale(ctx context.Context, saleID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Delete(&models.SaleItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", saleID).Delete(&models.Sale{}).Error
}

type listQuery struct {
	Pagination    pagination.Params
	Kind          *enums.SaleKind
	PaymentStatus *enums.PaymentStatus
}

// List pages sale headers with items preloaded, newest first.
func (r *Repository) List(ctx context.Context, query listQuery) ([]models.Sale, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Model(&models.Sale{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
	if query.Kind != nil {
		qb = qb.Where("kind = ?", *query.Kind)
	}
	if query.PaymentStatus != nil {
		qb = qb.Where("payment_status = ?", *query.PaymentStatus)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Sale
	err = qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
