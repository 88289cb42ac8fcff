package pricing

import (
	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Rate is one priced combination of sub-service and tier.
type Rate struct {
	Base       decimal.Decimal
	PerUnit    decimal.Decimal
	Multiplier decimal.Decimal
}

// RateTable is keyed by category, then sub-service, then tier.
type RateTable map[catalog.Category]map[string]map[string]Rate

// Lookup finds the rate for a combination.
func (t RateTable) Lookup(category catalog.Category, subType, tier string) (Rate, bool) {
	bySub, ok := t[category]
	if !ok {
		return Rate{}, false
	}
	byTier, ok := bySub[subType]
	if !ok {
		return Rate{}, false
	}
	rate, ok := byTier[tier]
	return rate, ok
}

func rate(base, perUnit, multiplier string) Rate {
	return Rate{
		Base:       decimal.RequireFromString(base),
		PerUnit:    decimal.RequireFromString(perUnit),
		Multiplier: decimal.RequireFromString(multiplier),
	}
}

func tiers(base, perUnit string, multipliers map[string]string) map[string]Rate {
	out := make(map[string]Rate, len(multipliers))
	for tier, m := range multipliers {
		out[tier] = rate(base, perUnit, m)
	}
	return out
}

// DefaultRateTable returns the standard price list.
//
// Transportation rates are per mile and tiered by load size.
// Lawn care rates are per square foot and tiered by lawn condition.
func DefaultRateTable() RateTable {
	sizes := func(medium, large string) map[string]string {
		return map[string]string{
			string(catalog.SizeSmall):  "1",
			string(catalog.SizeMedium): medium,
			string(catalog.SizeLarge):  large,
		}
	}
	conditions := func(fair, poor string) map[string]string {
		return map[string]string{
			string(catalog.ConditionGood): "1",
			string(catalog.ConditionFair): fair,
			string(catalog.ConditionPoor): poor,
		}
	}

	return RateTable{
		catalog.CategoryTransportation: {
			string(catalog.TransportLocalMoving): tiers("100", "2.5", sizes("1.5", "2")),
			string(catalog.TransportJunkRemoval): tiers("75", "1.5", sizes("1.25", "1.75")),
			string(catalog.TransportDelivery):    tiers("50", "2", sizes("1.2", "1.5")),
		},
		catalog.CategoryLawnCare: {
			string(catalog.LawnMowing):      tiers("30", "0.02", conditions("1.25", "1.5")),
			string(catalog.LawnLandscaping): tiers("150", "0.05", conditions("1.2", "1.4")),
			string(catalog.LawnCleanup):     tiers("60", "0.03", conditions("1.3", "1.6")),
		},
	}
}
