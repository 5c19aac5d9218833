package sales

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aramunz/bazar-backend/internal/customers"
	"github.com/aramunz/bazar-backend/internal/inventory"
	"github.com/aramunz/bazar-backend/pkg/db"
	"github.com/aramunz/bazar-backend/pkg/db/models"
	"github.com/aramunz/bazar-backend/pkg/enums"
	pkgerrors "github.com/aramunz/bazar-backend/pkg/errors"
	"github.com/aramunz/bazar-backend/pkg/logger"
	"github.com/aramunz/bazar-backend/pkg/outbox"
	"github.com/aramunz/bazar-backend/pkg/security"
)

const testGateSecret = "segredo-ofertado"

var (
	adminActor = Actor{UserID: uuid.New(), Role: enums.MemberRoleAdmin}
	staffActor = Actor{UserID: uuid.New(), Role: enums.MemberRoleStaff}
)

type testEnv struct {
	db  *gorm.DB
	svc Service
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dsn := "file:sales_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Product{},
		&models.Customer{},
		&models.Sale{},
		&models.SaleItem{},
		&models.StockMovement{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	gateHash, err := security.HashSecret(testGateSecret, security.DefaultArgonParams)
	if err != nil {
		t.Fatalf("hash gate secret: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "sales-test"})
	svc, err := NewService(
		NewRepository(conn),
		db.FromGorm(conn),
		inventory.NewService(),
		outbox.NewService(outbox.NewRepository(conn), logg),
		customers.NewRepository(conn),
		logg,
		gateHash,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return testEnv{db: conn, svc: svc}
}

func (env testEnv) seedProduct(t *testing.T, name string, price string, stock int) uuid.UUID {
	t.Helper()
	amount := decimal.RequireFromString(price)
	product := models.Product{
		Name:        name,
		Category:    "geral",
		PriceAmount: &amount,
		Stock:       stock,
		IsActive:    true,
	}
	if err := env.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func (env testEnv) seedOnRequestProduct(t *testing.T, name string, stock int) uuid.UUID {
	t.Helper()
	product := models.Product{
		Name:           name,
		Category:       "geral",
		PriceOnRequest: true,
		Stock:          stock,
		IsActive:       true,
	}
	if err := env.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func (env testEnv) stockOf(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := env.db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.Stock
}

func namePtr(s string) *string { return &s }

func TestCreateSaleReservesStock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	productID := env.seedProduct(t, "Caneca", "10.00", 5)

	dto, err := env.svc.Create(ctx, staffActor, CreateSaleInput{
		CustomerName: namePtr("Maria"),
		Kind:         enums.SaleKindSale,
		Items: []SaleItemInput{
			{ProductID: &productID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !dto.Total.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("unexpected total %s", dto.Total)
	}
	if got := env.stockOf(t, productID); got != 2 {
		t.Fatalf("expected stock 2, got %d", got)
	}

	var event models.OutboxEvent
	if err := env.db.First(&event, "event_type = ?", "sale_created").Error; err != nil {
		t.Fatalf("sale_created event missing: %v", err)
	}
}

func TestCreateSaleInsufficientStockPersistsNothing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	okProduct := env.seedProduct(t, "Caneca", "10.00", 5)
	lowProduct := env.seedProduct(t, "Camiseta", "25.00", 1)

	_, err := env.svc.Create(ctx, staffActor, CreateSaleInput{
		CustomerName: namePtr("Maria"),
		Kind:         enums.SaleKindSale,
		Items: []SaleItemInput{
			{ProductID: &okProduct, Quantity: 2},
			{ProductID: &lowProduct, Quantity: 3},
		},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var saleCount, itemCount int64
	env.db.Model(&models.Sale{}).Count(&saleCount)
	env.db.Model(&models.SaleItem{}).Count(&itemCount)
	if saleCount != 0 || itemCount != 0 {
		t.Fatalf("aborted sale left rows: sales=%d items=%d", saleCount, itemCount)
	}
	if got := env.stockOf(t, okProduct); got != 5 {
		t.Fatalf("rollback should leave stock at 5, got %d", got)
	}
}

func TestCreateSaleOnRequestItemsContributeZero(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	priced := env.seedProduct(t, "Caneca", "10.00", 10)
	onRequest := env.seedOnRequestProduct(t, "Quadro", 10)

	dto, err := env.svc.Create(ctx, staffActor, CreateSaleInput{
		CustomerName: namePtr("Maria"),
		Kind:         enums.SaleKindSale,
		Items: []SaleItemInput{
			{ProductID: &priced, Quantity: 2},
			{ProductID: &onRequest, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !dto.Total.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected total 20.00, got %s", dto.Total)
	}
	if dto.Items[1].UnitPriceDisplay != "Consulte Valores" {
		t.Fatalf("unexpected display %q", dto.Items[1].UnitPriceDisplay)
	}
}

func TestOfferedRoundTripRestoresTotal(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	productID := env.seedProduct(t, "Caneca", "12.50", 10)

	created, err := env.svc.Create(ctx, adminActor, CreateSaleInput{
		CustomerName: namePtr("Maria"),
		Kind:         enums.SaleKindSale,
		Items:        []SaleItemInput{{ProductID: &productID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	offered := enums.PaymentStatusOffered
	dto, err := env.svc.ChangeStatus(ctx, adminActor, created.ID, ChangeStatusInput{
		PaymentStatus: &offered,
		GateSecret:    testGateSecret,
	})
	if err != nil {
		t.Fatalf("to offered: %v", err)
	}
	if !dto.Total.IsZero() {
		t.Fatalf("offered sale should have zero total, got %s", dto.Total)
	}

	var row models.Sale
	if err := env.db.First(&row, "id = ?", created.ID).Error; err != nil {
		t.Fatalf("load sale: %v", err)
	}
	if row.OriginalTotal == nil || !row.OriginalTotal.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("original total not stashed: %v", row.OriginalTotal)
	}

	pending := enums.PaymentStatusPending
	dto, err = env.svc.ChangeStatus(ctx, adminActor, created.ID, ChangeStatusInput{
		PaymentStatus: &pending,
		GateSecret:    testGateSecret,
	})
	if err != nil {
		t.Fatalf("back to pending: %v", err)
	}
	if !dto.Total.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("total not restored, got %s", dto.Total)
	}

	// Reload into a fresh struct: gorm does not overwrite a non-nil
	// pointer field when scanning a NULL column.
	var restored models.Sale
	if err := env.db.First(&restored, "id = ?", created.ID).Error; err != nil {
		t.Fatalf("reload sale: %v", err)
	}
	if restored.OriginalTotal != nil {
		t.Fatalf("original total should be cleared, got %v", restored.OriginalTotal)
	}
}

func TestOfferedGateRejectsStaffAndBadSecret(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	productID := env.seedProduct(t, "Caneca", "10.00", 10)

	created, err := env.svc.Create(ctx, staffActor, CreateSaleInput{
		CustomerName: namePtr("Maria"),
		Kind:         enums.SaleKindSale,
		Items:        []SaleItemInput{{ProductID: &productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	offered := enums.PaymentStatusOffered
	_, err = env.svc.ChangeStatus(ctx, staffActor, created.ID, ChangeStatusInput{
		PaymentStatus: &offered,
		GateSecret:    testGateSecret,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("staff should be refused, got %v", err)
	}

	_, err = env.svc.ChangeStatus(ctx, adminActor, created.ID, ChangeStatusInput{
		PaymentStatus: &offered,
		GateSecret:    "chute-errado",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("bad secret should be refused, got %v", err)
	}
}

func TestPaidDerivesCompletedStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	productID := env.seedProduct(t, "Caneca", "10.00", 10)

	created, err := env.svc.Create(ctx, staffActor, CreateSaleInput{
		CustomerName: namePtr("Maria"),
		Kind:         enums.SaleKindSale,
		Items:        []SaleItemInput{{ProductID: &productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SaleStatus != enums.SaleStatusPending {
		t.Fatalf("expected pending, got %s", created.SaleStatus)
	}

	paid := enums.PaymentStatusPaid
	dto, err := env.svc.ChangeStatus(ctx, staffActor, created.ID, ChangeStatusInput{PaymentStatus: &paid})
	if err != nil {
		t.Fatalf("to paid: %v", err)
	}
	if dto.SaleStatus != enums.SaleStatusCompleted {
		t.Fatalf("expected completed, got %s", dto.SaleStatus)
	}
}

func TestAddItemRecomputesTotalAndReservesStock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	first := env.seedProduct(t, "Caneca", "10.00", 10)
	second := env.seedProduct(t, "Chaveiro", "5.50", 10)

	created, err := env.svc.Create(ctx, staffActor, CreateSaleInput{
		CustomerName: namePtr("Maria"),
		Kind:         enums.SaleKindSale,
		Items:        []SaleItemInput{{ProductID: &first, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Total.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected total 20.00, got %s", created.Total)
	}

	dto, err := env.svc.AddItem(ctx, staffActor, created.ID, SaleItemInput{
		ProductID: &second,
		Quantity:  3,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if !dto.Total.Equal(decimal.RequireFromString("36.50")) {
		t.Fatalf("expected total 36.50, got %s", dto.Total)
	}
	if got := env.stockOf(t, second); got != 7 {
		t.Fatalf("expected stock 7, got %d", got)
	}
}

func TestRemoveItemUsesRecomputedSubtotal(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	productID := env.seedProduct(t, "Chaveiro", "5.50", 10)

	// header total and stored item subtotal are both stale on purpose
	unitPrice := decimal.RequireFromString("5.50")
	sale := models.Sale{
		CustomerName:   "Maria",
		Kind:           enums.SaleKindSale,
		PaymentStatus:  enums.PaymentStatusPending,
		SaleStatus:     enums.SaleStatusPending,
		DeliveryStatus: enums.DeliveryStatusReserved,
		TotalAmount:    decimal.RequireFromString("100.00"),
		Items: []models.SaleItem{{
			ProductID:       &productID,
			ProductName:     "Chaveiro",
			Quantity:        3,
			UnitPriceAmount: &unitPrice,
			SubtotalAmount:  decimal.RequireFromString("36.50"),
		}},
	}
	if err := env.db.Create(&sale).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	dto, err := env.svc.RemoveItem(ctx, staffActor, sale.Items[0].ID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	// 100.00 - (5.50 * 3) = 83.50; the stale 36.50 cache never enters
	if !dto.Total.Equal(decimal.RequireFromString("83.50")) {
		t.Fatalf("expected total 83.50, got %s", dto.Total)
	}
	if got := env.stockOf(t, productID); got != 13 {
		t.Fatalf("expected stock 13, got %d", got)
	}
}

func TestDeleteDoesNotRestoreStock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	productID := env.seedProduct(t, "Caneca", "10.00", 5)

	created, err := env.svc.Create(ctx, adminActor, CreateSaleInput{
		CustomerName: namePtr("Maria"),
		Kind:         enums.SaleKindSale,
		Items:        []SaleItemInput{{ProductID: &productID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := env.stockOf(t, productID); got != 2 {
		t.Fatalf("expected stock 2, got %d", got)
	}

	result, err := env.svc.Delete(ctx, adminActor, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.Warning == "" {
		t.Fatal("delete must carry the stock warning")
	}

	if got := env.stockOf(t, productID); got != 2 {
		t.Fatalf("delete must not restore stock, got %d", got)
	}
	_, err = env.svc.Get(ctx, created.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestRecalculateTotalIgnoresStaleCaches(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	unitPrice := decimal.RequireFromString("10.00")
	sale := models.Sale{
		CustomerName:   "Maria",
		Kind:           enums.SaleKindSale,
		PaymentStatus:  enums.PaymentStatusPending,
		SaleStatus:     enums.SaleStatusPending,
		DeliveryStatus: enums.DeliveryStatusReserved,
		TotalAmount:    decimal.RequireFromString("999.99"),
		Items: []models.SaleItem{{
			ProductName:     "Caneca",
			Quantity:        2,
			UnitPriceAmount: &unitPrice,
			SubtotalAmount:  decimal.RequireFromString("555.55"),
		}},
	}
	if err := env.db.Create(&sale).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	total, err := env.svc.RecalculateTotal(ctx, sale.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected 20.00, got %s", total)
	}
}

func TestItemMutationsRefusedWhileOffered(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	productID := env.seedProduct(t, "Caneca", "10.00", 10)

	created, err := env.svc.Create(ctx, adminActor, CreateSaleInput{
		CustomerName: namePtr("Maria"),
		Kind:         enums.SaleKindSale,
		Items:        []SaleItemInput{{ProductID: &productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	offered := enums.PaymentStatusOffered
	if _, err := env.svc.ChangeStatus(ctx, adminActor, created.ID, ChangeStatusInput{
		PaymentStatus: &offered,
		GateSecret:    testGateSecret,
	}); err != nil {
		t.Fatalf("to offered: %v", err)
	}

	_, err = env.svc.AddItem(ctx, adminActor, created.ID, SaleItemInput{ProductID: &productID, Quantity: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreateWithRegisteredCustomerSnapshotsName(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	productID := env.seedProduct(t, "Caneca", "10.00", 10)

	customer := models.Customer{Name: "Dona Cida"}
	if err := env.db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	created, err := env.svc.Create(ctx, staffActor, CreateSaleInput{
		CustomerID: &customer.ID,
		Kind:       enums.SaleKindReservation,
		Items:      []SaleItemInput{{ProductID: &productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CustomerName != "Dona Cida" {
		t.Fatalf("expected snapshot name, got %q", created.CustomerName)
	}

	// renaming the customer must not rewrite the sale
	if err := env.db.Model(&models.Customer{}).Where("id = ?", customer.ID).Update("name", "Cida Silva").Error; err != nil {
		t.Fatalf("rename customer: %v", err)
	}
	reloaded, err := env.svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.CustomerName != "Dona Cida" {
		t.Fatalf("snapshot should survive rename, got %q", reloaded.CustomerName)
	}
}
