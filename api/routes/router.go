package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aramunz/bazar-backend/api/controllers"
	"github.com/aramunz/bazar-backend/api/middleware"
	customersvc "github.com/aramunz/bazar-backend/internal/customers"
	productsvc "github.com/aramunz/bazar-backend/internal/products"
	reportsvc "github.com/aramunz/bazar-backend/internal/reports"
	reservationsvc "github.com/aramunz/bazar-backend/internal/reservations"
	salesvc "github.com/aramunz/bazar-backend/internal/sales"
	contentsvc "github.com/aramunz/bazar-backend/internal/sitecontent"
	"github.com/aramunz/bazar-backend/pkg/config"
	"github.com/aramunz/bazar-backend/pkg/logger"
	"github.com/aramunz/bazar-backend/pkg/metrics"
	"github.com/aramunz/bazar-backend/pkg/redis"
)

// Deps carries the wired services and infrastructure handles the router needs.
type Deps struct {
	DB           controllers.Pinger
	Redis        *redis.Client
	Products     productsvc.Service
	Customers    customersvc.Service
	Sales        salesvc.Service
	Reservations reservationsvc.Service
	Reports      reportsvc.Service
	SiteContent  contentsvc.Service
	HTTPMetrics  *metrics.HTTPMetrics
	Registry     *prometheus.Registry
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	// A nil *redis.Client stored in an interface is not a nil interface,
	// so the conversion has to happen behind an explicit check.
	var idemStore redis.IdempotencyStore
	pingers := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		idemStore = deps.Redis
		pingers["redis"] = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Registry))
	}

	// Storefront endpoints need no token. Only active products and
	// published content are reachable here.
	r.Route("/api/public/v1", func(r chi.Router) {
		r.Get("/products", controllers.PublicListProducts(deps.Products, logg))
		r.Get("/products/{productID}", controllers.GetProduct(deps.Products, logg))
		r.Get("/site-content/{key}", controllers.PublicGetContent(deps.SiteContent, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Post("/", controllers.CreateProduct(deps.Products, logg))
			r.Get("/{productID}", controllers.GetProduct(deps.Products, logg))
			r.Put("/{productID}", controllers.UpdateProduct(deps.Products, logg))
			r.Delete("/{productID}", controllers.DeleteProduct(deps.Products, logg))
			r.Post("/{productID}/stock", controllers.AdjustStock(deps.Products, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.ListCustomers(deps.Customers, logg))
			r.Post("/", controllers.CreateCustomer(deps.Customers, logg))
			r.Get("/{customerID}", controllers.GetCustomer(deps.Customers, logg))
			r.Put("/{customerID}", controllers.UpdateCustomer(deps.Customers, logg))
			r.Delete("/{customerID}", controllers.DeleteCustomer(deps.Customers, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(deps.Sales, logg))
			r.Post("/", controllers.CreateSale(deps.Sales, logg))
			r.Get("/{saleID}", controllers.GetSale(deps.Sales, logg))
			r.Post("/{saleID}/status", controllers.ChangeSaleStatus(deps.Sales, logg))
			r.Post("/{saleID}/items", controllers.AddSaleItem(deps.Sales, logg))
			r.Delete("/{saleID}/items/{itemID}", controllers.RemoveSaleItem(deps.Sales, logg))
			r.Post("/{saleID}/recalculate", controllers.RecalculateSaleTotal(deps.Sales, logg))
			r.With(middleware.RequireRole("admin", logg)).
				Delete("/{saleID}", controllers.DeleteSale(deps.Sales, logg))
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/{reservationID}/confirm", controllers.ConfirmReservation(deps.Reservations, logg))
			r.Post("/{reservationID}/cancel", controllers.CancelReservation(deps.Reservations, logg))
		})

		r.Get("/reports/sales", controllers.SalesSummaryReport(deps.Reports, logg))

		r.Route("/site-content", func(r chi.Router) {
			r.Get("/", controllers.ListContent(deps.SiteContent, logg))
			r.Get("/{key}", controllers.PublicGetContent(deps.SiteContent, logg))
			r.With(middleware.RequireRole("admin", logg)).
				Put("/{key}", controllers.UpsertContent(deps.SiteContent, logg))
			r.With(middleware.RequireRole("admin", logg)).
				Delete("/{key}", controllers.DeleteContent(deps.SiteContent, logg))
		})
	})

	return r
}
