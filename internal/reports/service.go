package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aramunz/bazar-backend/internal/pricing"
	"github.com/aramunz/bazar-backend/pkg/db/models"
	"github.com/aramunz/bazar-backend/pkg/enums"
	pkgerrors "github.com/aramunz/bazar-backend/pkg/errors"
)

// PeriodInput bounds a report window. Zero times mean unbounded.
type PeriodInput struct {
	From time.Time
	To   time.Time
}

// StatusSummary aggregates one payment status bucket.
type StatusSummary struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// ProductRank is one row of the quantity ranking.
type ProductRank struct {
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// SalesSummary is the period report. Revenue figures are recomputed
// through the price normalizer; the stored header and subtotal caches
// are never read.
type SalesSummary struct {
	From      *time.Time                            `json:"from,omitempty"`
	To        *time.Time                            `json:"to,omitempty"`
	SaleCount int                                   `json:"saleCount"`
	Revenue   decimal.Decimal                       `json:"revenue"`
	ByStatus  map[enums.PaymentStatus]StatusSummary `json:"byStatus"`
	Ranking   []ProductRank                         `json:"ranking"`
}

// Service produces back-office period reports.
type Service interface {
	SalesSummary(ctx context.Context, input PeriodInput) (*SalesSummary, error)
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &service{db: db}, nil
}

func (s *service) SalesSummary(ctx context.Context, input PeriodInput) (*SalesSummary, error) {
	if !input.From.IsZero() && !input.To.IsZero() && input.To.Before(input.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report window end precedes start")
	}

	qb := s.db.WithContext(ctx).Model(&models.Sale{}).Preload("Items")
	if !input.From.IsZero() {
		qb = qb.Where("created_at >= ?", input.From)
	}
	if !input.To.IsZero() {
		qb = qb.Where("created_at < ?", input.To)
	}

	var rows []models.Sale
	if err := qb.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load sales for report")
	}

	summary := &SalesSummary{
		ByStatus: make(map[enums.PaymentStatus]StatusSummary),
		Revenue:  decimal.Zero,
	}
	if !input.From.IsZero() {
		from := input.From
		summary.From = &from
	}
	if !input.To.IsZero() {
		to := input.To
		summary.To = &to
	}

	type rankEntry struct {
		quantity int
		revenue  decimal.Decimal
	}
	ranking := make(map[string]rankEntry)

	for i := range rows {
		sale := &rows[i]
		total := decimal.Zero
		for j := range sale.Items {
			item := &sale.Items[j]
			unitPrice := pricing.FromColumns(item.UnitPriceAmount, item.UnitPriceOnRequest)
			subtotal := unitPrice.Subtotal(item.Quantity)
			total = total.Add(subtotal)

			if sale.PaymentStatus != enums.PaymentStatusCanceled {
				entry := ranking[item.ProductName]
				entry.quantity += item.Quantity
				entry.revenue = entry.revenue.Add(subtotal)
				ranking[item.ProductName] = entry
			}
		}
		// an offered sale recomputes like any other but earns nothing
		if sale.PaymentStatus == enums.PaymentStatusOffered {
			total = decimal.Zero
		}

		summary.SaleCount++
		bucket := summary.ByStatus[sale.PaymentStatus]
		bucket.Count++
		bucket.Total = bucket.Total.Add(total)
		summary.ByStatus[sale.PaymentStatus] = bucket

		if sale.PaymentStatus == enums.PaymentStatusPaid {
			summary.Revenue = summary.Revenue.Add(total)
		}
	}

	summary.Ranking = make([]ProductRank, 0, len(ranking))
	for name, entry := range ranking {
		summary.Ranking = append(summary.Ranking, ProductRank{
			ProductName: name,
			Quantity:    entry.quantity,
			Revenue:     entry.revenue,
		})
	}
	sort.Slice(summary.Ranking, func(i, j int) bool {
		if summary.Ranking[i].Quantity != summary.Ranking[j].Quantity {
			return summary.Ranking[i].Quantity > summary.Ranking[j].Quantity
		}
		return summary.Ranking[i].ProductName < summary.Ranking[j].ProductName
	})

	return summary, nil
}
