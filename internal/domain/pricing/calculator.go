package pricing

import (
	"strings"

	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/jayzilla/service-booking/internal/platform/domain"
	"github.com/shopspring/decimal"
)

const (
	LabelBasePrice           = "Base Price"
	LabelDistanceCost        = "Distance Cost"
	LabelSizeAdjustment      = "Size Adjustment"
	LabelAreaCost            = "Area Cost"
	LabelConditionAdjustment = "Condition Adjustment"
)

type itemLabels struct {
	measure    string
	adjustment string
}

var categoryLabels = map[catalog.Category]itemLabels{
	catalog.CategoryTransportation: {measure: LabelDistanceCost, adjustment: LabelSizeAdjustment},
	catalog.CategoryLawnCare:       {measure: LabelAreaCost, adjustment: LabelConditionAdjustment},
}

// TableCalculator prices from a static RateTable.
type TableCalculator struct {
	table    RateTable
	currency string
}

// NewTableCalculator creates a calculator over table.
func NewTableCalculator(table RateTable) *TableCalculator {
	return &TableCalculator{table: table, currency: domain.CurrencyUSD}
}

// NewStandardCalculator creates a calculator using the default price list.
func NewStandardCalculator() *TableCalculator {
	return NewTableCalculator(DefaultRateTable())
}

// Quote computes:
//
//	measureCost = measure * perUnit
//	subtotal    = base + measureCost
//	adjustment  = subtotal * (multiplier - 1)
//	total       = base + measureCost + adjustment
//
// Zero-amount rows other than the base price are omitted.
func (c *TableCalculator) Quote(in Input) *Quote {
	labels, ok := categoryLabels[in.Category]
	if !ok {
		return nil
	}
	rate, ok := c.table.Lookup(in.Category, in.SubType, in.Tier)
	if !ok {
		return nil
	}
	measure, err := decimal.NewFromString(strings.TrimSpace(in.Measure))
	if err != nil || measure.IsNegative() {
		return nil
	}

	measureCost := measure.Mul(rate.PerUnit)
	subtotal := rate.Base.Add(measureCost)
	adjustment := subtotal.Mul(rate.Multiplier.Sub(decimal.NewFromInt(1)))

	items := []LineItem{{Label: LabelBasePrice, Amount: rate.Base}}
	if !measureCost.IsZero() {
		items = append(items, LineItem{Label: labels.measure, Amount: measureCost})
	}
	if !adjustment.IsZero() {
		items = append(items, LineItem{Label: labels.adjustment, Amount: adjustment})
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}

	return &Quote{Items: items, Total: total, Currency: c.currency}
}
