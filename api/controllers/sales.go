package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aramunz/bazar-backend/api/responses"
	"github.com/aramunz/bazar-backend/api/validators"
	salesvc "github.com/aramunz/bazar-backend/internal/sales"
	"github.com/aramunz/bazar-backend/pkg/enums"
	"github.com/aramunz/bazar-backend/pkg/errors"
	"github.com/aramunz/bazar-backend/pkg/logger"
	"github.com/aramunz/bazar-backend/pkg/pagination"
)

type saleItemRequest struct {
	ProductID    *string `json:"productId,omitempty"`
	ProductName  *string `json:"productName,omitempty" validate:"omitempty,max=200"`
	Quantity     int     `json:"quantity" validate:"required,min=1"`
	PriceAmount  *string `json:"priceAmount,omitempty"`
	OnRequest    bool    `json:"onRequest,omitempty"`
	RawUnitPrice *string `json:"rawUnitPrice,omitempty"`
}

type createSaleRequest struct {
	CustomerID    *string           `json:"customerId,omitempty"`
	CustomerName  *string           `json:"customerName,omitempty" validate:"omitempty,max=200"`
	Kind          string            `json:"kind" validate:"required,oneof=sale reservation"`
	PaymentStatus *string           `json:"paymentStatus,omitempty"`
	ReceiptURL    *string           `json:"receiptUrl,omitempty" validate:"omitempty,url"`
	Items         []saleItemRequest `json:"items" validate:"required,min=1,dive"`
}

type changeStatusRequest struct {
	PaymentStatus  *string `json:"paymentStatus,omitempty"`
	DeliveryStatus *string `json:"deliveryStatus,omitempty"`
	GateSecret     string  `json:"gateSecret,omitempty"`
}

func (req saleItemRequest) toInput() (salesvc.SaleItemInput, error) {
	input := salesvc.SaleItemInput{
		ProductName:  req.ProductName,
		Quantity:     req.Quantity,
		OnRequest:    req.OnRequest,
		RawUnitPrice: req.RawUnitPrice,
	}

	if req.ProductID != nil && strings.TrimSpace(*req.ProductID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*req.ProductID))
		if err != nil {
			return salesvc.SaleItemInput{}, errors.Wrap(errors.CodeValidation, err, "invalid product id")
		}
		input.ProductID = &parsed
	}

	if req.PriceAmount != nil && strings.TrimSpace(*req.PriceAmount) != "" {
		amount, err := decimal.NewFromString(strings.TrimSpace(*req.PriceAmount))
		if err != nil {
			return salesvc.SaleItemInput{}, errors.Wrap(errors.CodeValidation, err, "invalid unit price")
		}
		input.PriceAmount = &amount
	}

	return input, nil
}

func (req createSaleRequest) toInput() (salesvc.CreateSaleInput, error) {
	kind, err := enums.ParseSaleKind(strings.TrimSpace(req.Kind))
	if err != nil {
		return salesvc.CreateSaleInput{}, errors.Wrap(errors.CodeValidation, err, "invalid kind")
	}

	input := salesvc.CreateSaleInput{
		Kind:         kind,
		CustomerName: req.CustomerName,
		ReceiptURL:   req.ReceiptURL,
	}

	if req.CustomerID != nil && strings.TrimSpace(*req.CustomerID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*req.CustomerID))
		if err != nil {
			return salesvc.CreateSaleInput{}, errors.Wrap(errors.CodeValidation, err, "invalid customer id")
		}
		input.CustomerID = &parsed
	}

	if req.PaymentStatus != nil {
		status, err := enums.ParsePaymentStatus(strings.TrimSpace(*req.PaymentStatus))
		if err != nil {
			return salesvc.CreateSaleInput{}, errors.Wrap(errors.CodeValidation, err, "invalid payment status")
		}
		input.PaymentStatus = &status
	}

	for _, item := range req.Items {
		itemInput, err := item.toInput()
		if err != nil {
			return salesvc.CreateSaleInput{}, err
		}
		input.Items = append(input.Items, itemInput)
	}

	return input, nil
}

func CreateSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}

func GetSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID, err := pathUUID(r, "saleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Get(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}

func ListSales(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := salesvc.ListSalesInput{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind, err := enums.ParseSaleKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "invalid kind"))
				return
			}
			input.Kind = &kind
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("paymentStatus")); raw != "" {
			status, err := enums.ParsePaymentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "invalid payment status"))
				return
			}
			input.PaymentStatus = &status
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func ChangeSaleStatus(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saleID, err := pathUUID(r, "saleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload changeStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := salesvc.ChangeStatusInput{GateSecret: payload.GateSecret}
		if payload.PaymentStatus != nil {
			status, err := enums.ParsePaymentStatus(strings.TrimSpace(*payload.PaymentStatus))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "invalid payment status"))
				return
			}
			input.PaymentStatus = &status
		}
		if payload.DeliveryStatus != nil {
			status, err := enums.ParseDeliveryStatus(strings.TrimSpace(*payload.DeliveryStatus))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "invalid delivery status"))
				return
			}
			input.DeliveryStatus = &status
		}

		sale, err := svc.ChangeStatus(r.Context(), actor, saleID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}

func AddSaleItem(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saleID, err := pathUUID(r, "saleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload saleItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.AddItem(r.Context(), actor, saleID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}

func RemoveSaleItem(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.RemoveItem(r.Context(), actor, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}

// DeleteSale removes the record without restoring stock. The response
// carries the warning so the back office surfaces it to the operator.
func DeleteSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saleID, err := pathUUID(r, "saleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Delete(r.Context(), actor, saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// RecalculateSaleTotal recomputes the total from normalized line
// prices, repairing any stale caches.
func RecalculateSaleTotal(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID, err := pathUUID(r, "saleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		total, err := svc.RecalculateTotal(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"total": total})
	}
}
