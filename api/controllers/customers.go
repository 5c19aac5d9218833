package controllers

import (
	"net/http"
	"strings"

	"github.com/aramunz/bazar-backend/api/responses"
	"github.com/aramunz/bazar-backend/api/validators"
	customersvc "github.com/aramunz/bazar-backend/internal/customers"
	"github.com/aramunz/bazar-backend/pkg/logger"
	"github.com/aramunz/bazar-backend/pkg/pagination"
)

type createCustomerRequest struct {
	Name       string  `json:"name" validate:"required,max=200"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Generation *string `json:"generation,omitempty"`
}

type updateCustomerRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Generation *string `json:"generation,omitempty"`
}

func CreateCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Create(r.Context(), customersvc.CreateCustomerInput{
			Name:       validators.SanitizeString(payload.Name, 200),
			Phone:      payload.Phone,
			Email:      payload.Email,
			Generation: payload.Generation,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

func UpdateCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := pathUUID(r, "customerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Update(r.Context(), customerID, customersvc.UpdateCustomerInput{
			Name:       payload.Name,
			Phone:      payload.Phone,
			Email:      payload.Email,
			Generation: payload.Generation,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customer)
	}
}

func DeleteCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := pathUUID(r, "customerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), customerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func GetCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := pathUUID(r, "customerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Get(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customer)
	}
}

func ListCustomers(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := customersvc.ListCustomersInput{
			Query:  validators.SanitizeString(r.URL.Query().Get("q"), 200),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if generation := strings.TrimSpace(r.URL.Query().Get("generation")); generation != "" {
			input.Generation = &generation
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
