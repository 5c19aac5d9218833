package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aramunz/bazar-backend/api/middleware"
	productsvc "github.com/aramunz/bazar-backend/internal/products"
	"github.com/aramunz/bazar-backend/pkg/logger"
	"github.com/aramunz/bazar-backend/pkg/outbox"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func mustDecimal(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	value, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", raw, err)
	}
	return value
}

func withRouteParam(req *http.Request, param, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(param, value)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func TestCreateProduct(t *testing.T) {
	logg := testLogger()

	t.Run("defaults active when omitted", func(t *testing.T) {
		stub := &stubProductService{}
		body := `{"name":"  Bolo de fubá ","category":"Doces","priceAmount":"12.50","stock":3}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
		rec := httptest.NewRecorder()
		CreateProduct(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.createInput == nil {
			t.Fatalf("expected Create to be invoked")
		}
		if stub.createInput.Name != "Bolo de fubá" {
			t.Fatalf("expected trimmed name, got %q", stub.createInput.Name)
		}
		if !stub.createInput.IsActive {
			t.Fatalf("expected isActive to default to true")
		}
		if stub.createInput.PriceAmount == nil || !stub.createInput.PriceAmount.Equal(mustDecimal(t, "12.50")) {
			t.Fatalf("unexpected price amount: %v", stub.createInput.PriceAmount)
		}
	})

	t.Run("missing name rejected", func(t *testing.T) {
		stub := &stubProductService{}
		body := `{"category":"Doces","stock":1}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
		rec := httptest.NewRecorder()
		CreateProduct(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if stub.createInput != nil {
			t.Fatalf("expected Create not to be invoked")
		}
	})

	t.Run("malformed price rejected", func(t *testing.T) {
		stub := &stubProductService{}
		body := `{"name":"Caneca","category":"Utilidades","priceAmount":"doze reais","stock":1}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
		rec := httptest.NewRecorder()
		CreateProduct(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for malformed price, got %d", rec.Code)
		}
	})
}

func TestGetProductInvalidID(t *testing.T) {
	stub := &stubProductService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	req = withRouteParam(req, "productID", "not-a-uuid")
	rec := httptest.NewRecorder()
	GetProduct(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid id, got %d", rec.Code)
	}
}

func TestPublicListProductsForcesActiveOnly(t *testing.T) {
	stub := &stubProductService{}
	req := httptest.NewRequest(http.MethodGet, "/api/public/v1/products?activeOnly=false&limit=5", nil)
	rec := httptest.NewRecorder()
	PublicListProducts(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.listInput == nil {
		t.Fatalf("expected List to be invoked")
	}
	if !stub.listInput.ActiveOnly {
		t.Fatalf("storefront listing must be active-only")
	}
	if stub.listInput.Limit != 5 {
		t.Fatalf("expected limit 5, got %d", stub.listInput.Limit)
	}
}

func TestAdjustStock(t *testing.T) {
	logg := testLogger()
	productID := uuid.New()
	userID := uuid.New()

	t.Run("missing user context", func(t *testing.T) {
		stub := &stubProductService{}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+productID.String()+"/stock", strings.NewReader(`{"delta":-2}`))
		req = withRouteParam(req, "productID", productID.String())
		rec := httptest.NewRecorder()
		AdjustStock(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without user context, got %d", rec.Code)
		}
	})

	t.Run("success carries actor", func(t *testing.T) {
		stub := &stubProductService{}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+productID.String()+"/stock", strings.NewReader(`{"delta":-2}`))
		req = withRouteParam(req, "productID", productID.String())
		ctx := middleware.WithUserID(req.Context(), userID.String())
		ctx = middleware.WithRole(ctx, "staff")
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		AdjustStock(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.adjustDelta != -2 {
			t.Fatalf("expected delta -2, got %d", stub.adjustDelta)
		}
		if stub.adjustActor == nil || stub.adjustActor.UserID != userID {
			t.Fatalf("expected actor ref with user id %s", userID)
		}
	})
}

type stubProductService struct {
	createInput *productsvc.CreateProductInput
	listInput   *productsvc.ListProductsInput
	adjustDelta int
	adjustActor *outbox.ActorRef
}

func (s *stubProductService) Create(ctx context.Context, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	s.createInput = &input
	return &productsvc.ProductDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (s *stubProductService) Update(ctx context.Context, productID uuid.UUID, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{ID: productID}, nil
}

func (s *stubProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	return nil
}

func (s *stubProductService) Get(ctx context.Context, productID uuid.UUID) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{ID: productID}, nil
}

func (s *stubProductService) List(ctx context.Context, input productsvc.ListProductsInput) (*productsvc.ProductListResult, error) {
	s.listInput = &input
	return &productsvc.ProductListResult{}, nil
}

func (s *stubProductService) AdjustStock(ctx context.Context, productID uuid.UUID, delta int, actor *outbox.ActorRef) (*productsvc.ProductDTO, error) {
	s.adjustDelta = delta
	s.adjustActor = actor
	return &productsvc.ProductDTO{ID: productID, Stock: 1}, nil
}
