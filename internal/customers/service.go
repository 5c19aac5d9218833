package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aramunz/bazar-backend/pkg/db/models"
	"github.com/aramunz/bazar-backend/pkg/enums"
	pkgerrors "github.com/aramunz/bazar-backend/pkg/errors"
	"github.com/aramunz/bazar-backend/pkg/pagination"
)

// CustomerDTO is the transport shape for customer records.
type CustomerDTO struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Phone      *string           `json:"phone,omitempty"`
	Email      *string           `json:"email,omitempty"`
	Generation *enums.Generation `json:"generation,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func newCustomerDTO(customer *models.Customer) *CustomerDTO {
	return &CustomerDTO{
		ID:         customer.ID,
		Name:       customer.Name,
		Phone:      customer.Phone,
		Email:      customer.Email,
		Generation: customer.Generation,
		CreatedAt:  customer.CreatedAt,
		UpdatedAt:  customer.UpdatedAt,
	}
}

// CreateCustomerInput holds the validated payload to create a customer.
type CreateCustomerInput struct {
	Name       string
	Phone      *string
	Email      *string
	Generation *string
}

// UpdateCustomerInput holds optional mutation values.
type UpdateCustomerInput struct {
	Name       *string
	Phone      *string
	Email      *string
	Generation *string
}

// ListCustomersInput captures list filters plus cursor pagination.
type ListCustomersInput struct {
	Generation *string
	Query      string
	Limit      int
	Cursor     string
}

// CustomerListResult is one page of customers plus the next cursor.
type CustomerListResult struct {
	Customers  []CustomerDTO `json:"customers"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// Service exposes back-office customer management.
type Service interface {
	Create(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error)
	Update(ctx context.Context, customerID uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error)
	Delete(ctx context.Context, customerID uuid.UUID) error
	Get(ctx context.Context, customerID uuid.UUID) (*CustomerDTO, error)
	List(ctx context.Context, input ListCustomersInput) (*CustomerListResult, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{repo: repo}, nil
}

func parseGeneration(raw *string) (*enums.Generation, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	generation, err := enums.ParseGeneration(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown generation")
	}
	return &generation, nil
}

func (s *service) Create(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	generation, err := parseGeneration(input.Generation)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Name:       name,
		Phone:      input.Phone,
		Email:      input.Email,
		Generation: generation,
	}
	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert customer")
	}
	return newCustomerDTO(created), nil
}

func (s *service) Update(ctx context.Context, customerID uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error) {
	customer, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		customer.Name = name
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.Email != nil {
		customer.Email = input.Email
	}
	if input.Generation != nil {
		generation, err := parseGeneration(input.Generation)
		if err != nil {
			return nil, err
		}
		customer.Generation = generation
	}

	updated, err := s.repo.Update(ctx, customer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update customer")
	}
	return newCustomerDTO(updated), nil
}

// Delete removes the contact record. Existing sales keep their
// denormalized customer name.
func (s *service) Delete(ctx context.Context, customerID uuid.UUID) error {
	if _, err := s.load(ctx, customerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete customer")
	}
	return nil
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return newCustomerDTO(customer), nil
}

func (s *service) List(ctx context.Context, input ListCustomersInput) (*CustomerListResult, error) {
	generation, err := parseGeneration(input.Generation)
	if err != nil {
		return nil, err
	}

	rows, nextCursor, err := s.repo.List(ctx, listQuery{
		Pagination: pagination.Params{Limit: input.Limit, Cursor: input.Cursor},
		Generation: generation,
		Query:      input.Query,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list customers")
	}

	dtos := make([]CustomerDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newCustomerDTO(&rows[i]))
	}
	return &CustomerListResult{Customers: dtos, NextCursor: nextCursor}, nil
}

func (s *service) load(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}
