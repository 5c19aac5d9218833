package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/aramunz/bazar-backend/api/responses"
	reportsvc "github.com/aramunz/bazar-backend/internal/reports"
	"github.com/aramunz/bazar-backend/pkg/errors"
	"github.com/aramunz/bazar-backend/pkg/logger"
)

// SalesSummaryReport serves the period report. "from" and "to" accept
// RFC 3339 timestamps or plain dates; either bound may be omitted.
func SalesSummaryReport(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := parsePeriodBound(r.URL.Query().Get("from"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := parsePeriodBound(r.URL.Query().Get("to"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.SalesSummary(r.Context(), reportsvc.PeriodInput{From: from, To: to})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

func parsePeriodBound(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.CodeValidation, err, "invalid period bound")
	}
	return parsed, nil
}
