package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OnRequestSentinel is the storefront price meaning "contact us for
// pricing". It aggregates as zero and renders verbatim.
const OnRequestSentinel = "Consulte Valores"

// Price is the tagged variant behind every monetary field: either a
// numeric amount or the on-request sentinel. The zero value is a
// numeric zero.
type Price struct {
	amount    decimal.Decimal
	onRequest bool
}

// Numeric builds a price from a concrete amount.
func Numeric(amount decimal.Decimal) Price {
	return Price{amount: amount}
}

// OnRequest builds the "Consulte Valores" variant.
func OnRequest() Price {
	return Price{onRequest: true}
}

// FromColumns rebuilds a Price from its two persisted columns.
func FromColumns(amount *decimal.Decimal, onRequest bool) Price {
	if onRequest {
		return OnRequest()
	}
	if amount == nil {
		return Numeric(decimal.Zero)
	}
	return Numeric(*amount)
}

// Parse converts a raw legacy price string into a Price. Malformed,
// empty, and whitespace-only input degrades to a numeric zero; this
// function never fails, because broken legacy strings are expected
// input, not an exceptional condition.
func Parse(raw string) Price {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Numeric(decimal.Zero)
	}
	if trimmed == OnRequestSentinel {
		return OnRequest()
	}

	cleaned := cleanNumeric(trimmed)
	if cleaned == "" {
		return Numeric(decimal.Zero)
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Numeric(decimal.Zero)
	}
	return Numeric(amount)
}

// cleanNumeric strips currency noise and normalizes the Brazilian
// "1.234,56" convention: when a comma is present it is the decimal
// separator and dots are thousands separators.
func cleanNumeric(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	s := b.String()
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
		// a second comma means garbage, not a number
		if strings.Contains(s, ",") {
			return ""
		}
	}
	if strings.Count(s, ".") > 1 {
		return ""
	}
	return s
}

// IsOnRequest reports whether the price is the sentinel variant.
func (p Price) IsOnRequest() bool {
	return p.onRequest
}

// Amount returns the numeric value; the on-request variant counts as zero.
func (p Price) Amount() decimal.Decimal {
	if p.onRequest {
		return decimal.Zero
	}
	return p.amount
}

// Subtotal returns amount × quantity. The on-request variant
// contributes zero regardless of quantity.
func (p Price) Subtotal(quantity int) decimal.Decimal {
	if p.onRequest {
		return decimal.Zero
	}
	return p.amount.Mul(decimal.NewFromInt(int64(quantity)))
}

// Columns splits the price back into its persisted representation.
func (p Price) Columns() (*decimal.Decimal, bool) {
	if p.onRequest {
		return nil, true
	}
	amount := p.amount
	return &amount, false
}

// Line pairs a unit price with a quantity for aggregation.
type Line struct {
	Price    Price
	Quantity int
}

// Total sums the recomputed subtotals of the given lines. On-request
// lines contribute zero.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Price.Subtotal(line.Quantity))
	}
	return total
}

// Format renders numeric prices as a fixed two-decimal BRL string
// ("R$ 1.234,56"); the on-request variant renders verbatim.
func (p Price) Format() string {
	if p.onRequest {
		return OnRequestSentinel
	}
	fixed := p.amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := "R$ " + strings.Join(groups, ".") + "," + fracPart
	if negative {
		out = "-" + out
	}
	return out
}
