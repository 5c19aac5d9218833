package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseNumericStrings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{"10", "10"},
		{"10,50", "10.5"},
		{"10.50", "10.5"},
		{"R$ 5,00", "5"},
		{"1.234,56", "1234.56"},
		{"R$ 1.234,56", "1234.56"},
		{"  7,25  ", "7.25"},
	}

	for _, tc := range cases {
		price := Parse(tc.raw)
		if price.IsOnRequest() {
			t.Fatalf("Parse(%q) unexpectedly produced on-request variant", tc.raw)
		}
		want := decimal.RequireFromString(tc.want)
		if !price.Amount().Equal(want) {
			t.Fatalf("Parse(%q) = %s, want %s", tc.raw, price.Amount(), want)
		}
	}
}

func TestParseDegradesToZero(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "abc", "R$", "1,2,3", "1.2.3", "--"} {
		price := Parse(raw)
		if price.IsOnRequest() {
			t.Fatalf("Parse(%q) should not be on-request", raw)
		}
		if !price.Amount().IsZero() {
			t.Fatalf("Parse(%q) = %s, want 0", raw, price.Amount())
		}
	}
}

func TestParseSentinel(t *testing.T) {
	t.Parallel()

	price := Parse(OnRequestSentinel)
	if !price.IsOnRequest() {
		t.Fatal("sentinel should parse to the on-request variant")
	}
	if !price.Amount().IsZero() {
		t.Fatalf("on-request amount should be zero, got %s", price.Amount())
	}
	if price.Subtotal(7).Sign() != 0 {
		t.Fatal("on-request subtotal should be zero for any quantity")
	}
}

func TestParseIsStableForNumericInput(t *testing.T) {
	t.Parallel()

	first := Parse("1.234,56")
	second := Parse(first.Amount().String())
	if !first.Amount().Equal(second.Amount()) {
		t.Fatalf("re-parsing a parsed amount changed it: %s vs %s", first.Amount(), second.Amount())
	}
}

func TestSubtotal(t *testing.T) {
	t.Parallel()

	price := Numeric(decimal.RequireFromString("5.50"))
	got := price.Subtotal(3)
	if !got.Equal(decimal.RequireFromString("16.50")) {
		t.Fatalf("subtotal = %s, want 16.50", got)
	}
}

func TestColumnsRoundTrip(t *testing.T) {
	t.Parallel()

	amount, onRequest := Numeric(decimal.RequireFromString("12.30")).Columns()
	if onRequest || amount == nil || !amount.Equal(decimal.RequireFromString("12.30")) {
		t.Fatalf("unexpected columns %v %v", amount, onRequest)
	}
	rebuilt := FromColumns(amount, onRequest)
	if rebuilt.IsOnRequest() || !rebuilt.Amount().Equal(*amount) {
		t.Fatal("round trip through columns changed the price")
	}

	amount, onRequest = OnRequest().Columns()
	if !onRequest || amount != nil {
		t.Fatalf("on-request columns should be (nil, true), got (%v, %v)", amount, onRequest)
	}
	if !FromColumns(nil, true).IsOnRequest() {
		t.Fatal("FromColumns(nil, true) should rebuild the on-request variant")
	}
	if FromColumns(nil, false).Amount().Sign() != 0 {
		t.Fatal("missing amount should rebuild as numeric zero")
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		amount string
		want   string
	}{
		{"0", "R$ 0,00"},
		{"5", "R$ 5,00"},
		{"10.5", "R$ 10,50"},
		{"1234.56", "R$ 1.234,56"},
		{"1234567.89", "R$ 1.234.567,89"},
		{"-42.10", "-R$ 42,10"},
	}
	for _, tc := range cases {
		got := Numeric(decimal.RequireFromString(tc.amount)).Format()
		if got != tc.want {
			t.Fatalf("Format(%s) = %q, want %q", tc.amount, got, tc.want)
		}
	}

	if got := OnRequest().Format(); got != OnRequestSentinel {
		t.Fatalf("on-request should format verbatim, got %q", got)
	}
}
