package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aramunz/bazar-backend/api/responses"
	"github.com/aramunz/bazar-backend/api/validators"
	productsvc "github.com/aramunz/bazar-backend/internal/products"
	"github.com/aramunz/bazar-backend/pkg/errors"
	"github.com/aramunz/bazar-backend/pkg/logger"
	"github.com/aramunz/bazar-backend/pkg/pagination"
)

type createProductRequest struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Description    *string  `json:"description,omitempty"`
	Category       string   `json:"category" validate:"required,max=100"`
	PriceAmount    *string  `json:"priceAmount,omitempty"`
	PriceOnRequest bool     `json:"priceOnRequest,omitempty"`
	RawPrice       *string  `json:"rawPrice,omitempty"`
	Stock          int      `json:"stock" validate:"min=0"`
	ImageURLs      []string `json:"imageUrls,omitempty" validate:"omitempty,dive,url"`
	IsActive       *bool    `json:"isActive,omitempty"`
}

type updateProductRequest struct {
	Name           *string   `json:"name,omitempty" validate:"omitempty,max=200"`
	Description    *string   `json:"description,omitempty"`
	Category       *string   `json:"category,omitempty" validate:"omitempty,max=100"`
	PriceAmount    *string   `json:"priceAmount,omitempty"`
	PriceOnRequest *bool     `json:"priceOnRequest,omitempty"`
	RawPrice       *string   `json:"rawPrice,omitempty"`
	ImageURLs      *[]string `json:"imageUrls,omitempty" validate:"omitempty,dive,url"`
	IsActive       *bool     `json:"isActive,omitempty"`
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

func parseAmount(raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "invalid price amount")
	}
	return &amount, nil
}

func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := parseAmount(payload.PriceAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		isActive := true
		if payload.IsActive != nil {
			isActive = *payload.IsActive
		}

		product, err := svc.Create(r.Context(), productsvc.CreateProductInput{
			Name:           validators.SanitizeString(payload.Name, 200),
			Description:    payload.Description,
			Category:       validators.SanitizeString(payload.Category, 100),
			PriceAmount:    amount,
			PriceOnRequest: payload.PriceOnRequest,
			RawPrice:       payload.RawPrice,
			Stock:          payload.Stock,
			ImageURLs:      payload.ImageURLs,
			IsActive:       isActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := parseAmount(payload.PriceAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), productID, productsvc.UpdateProductInput{
			Name:           payload.Name,
			Description:    payload.Description,
			Category:       payload.Category,
			PriceAmount:    amount,
			PriceOnRequest: payload.PriceOnRequest,
			RawPrice:       payload.RawPrice,
			ImageURLs:      payload.ImageURLs,
			IsActive:       payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := listProductsInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PublicListProducts serves the storefront catalog: active listings
// only, regardless of query parameters.
func PublicListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := listProductsInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ActiveOnly = true

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func AdjustStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AdjustStock(r.Context(), productID, payload.Delta, actor.Ref())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func listProductsInput(r *http.Request) (productsvc.ListProductsInput, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return productsvc.ListProductsInput{}, err
	}
	activeOnly, err := validators.ParseQueryBool(r, "activeOnly")
	if err != nil {
		return productsvc.ListProductsInput{}, err
	}
	inStockOnly, err := validators.ParseQueryBool(r, "inStockOnly")
	if err != nil {
		return productsvc.ListProductsInput{}, err
	}

	input := productsvc.ListProductsInput{
		Query:       validators.SanitizeString(r.URL.Query().Get("q"), 200),
		ActiveOnly:  activeOnly,
		InStockOnly: inStockOnly,
		Limit:       limit,
		Cursor:      strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	if category := validators.SanitizeString(r.URL.Query().Get("category"), 100); category != "" {
		input.Category = &category
	}
	return input, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Wrap(errors.CodeValidation, err, "invalid "+param)
	}
	return parsed, nil
}
