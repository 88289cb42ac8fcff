package pricing

import (
	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Calculator derives an itemized quote from service inputs.
type Calculator interface {
	// Quote returns nil when the inputs are incomplete or unknown.
	Quote(in Input) *Quote
}

// Input is the pricing-relevant slice of a draft. Measure and Tier are raw form values.
type Input struct {
	Category catalog.Category
	SubType  string
	Tier     string // size class for transportation, lawn condition for lawn care
	Measure  string // miles for transportation, square feet for lawn care
}

// LineItem is one row of a quote.
type LineItem struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Quote is an itemized price. Total is always the sum of Items.
type Quote struct {
	Items    []LineItem      `json:"items"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// TotalCents returns the total rounded to the cent.
func (q Quote) TotalCents() int64 {
	return q.Total.Round(2).Shift(2).IntPart()
}

// Equal compares totals at presentation precision.
func (q Quote) Equal(other Quote) bool {
	return q.Currency == other.Currency && q.TotalCents() == other.TotalCents()
}

// FormatAmount renders an amount as dollars with two fraction digits, e.g. "$250.00".
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// FromCents converts a persisted cent amount back to a decimal.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
