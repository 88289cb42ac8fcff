package catalog

import "fmt"

// Category is a top-level service line.
type Category string

const (
	CategoryTransportation Category = "transportation"
	CategoryLawnCare       Category = "lawncare"
)

// IsValid returns true if the category is offered.
func (c Category) IsValid() bool {
	return c == CategoryTransportation || c == CategoryLawnCare
}

// Label returns the display name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryTransportation:
		return "Transportation"
	case CategoryLawnCare:
		return "Lawn Care"
	}
	return string(c)
}

// ParseCategory converts a string to a Category, returning an error if unknown.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid service category: %s", s)
	}
	return c, nil
}

// TransportType is a transportation sub-service.
type TransportType string

const (
	TransportLocalMoving TransportType = "local-moving"
	TransportJunkRemoval TransportType = "junk-removal"
	TransportDelivery    TransportType = "delivery"
)

// IsValid returns true if the transport type is recognized.
func (t TransportType) IsValid() bool {
	switch t {
	case TransportLocalMoving, TransportJunkRemoval, TransportDelivery:
		return true
	}
	return false
}

// SizeClass is the load size of a transportation job.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// IsValid returns true if the size class is recognized.
func (s SizeClass) IsValid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// LawnService is a lawn care sub-service.
type LawnService string

const (
	LawnMowing      LawnService = "mowing"
	LawnLandscaping LawnService = "landscaping"
	LawnCleanup     LawnService = "cleanup"
)

// IsValid returns true if the lawn service is recognized.
func (l LawnService) IsValid() bool {
	switch l {
	case LawnMowing, LawnLandscaping, LawnCleanup:
		return true
	}
	return false
}

// LawnCondition is the state of the lawn before work starts.
type LawnCondition string

const (
	ConditionGood LawnCondition = "good"
	ConditionFair LawnCondition = "fair"
	ConditionPoor LawnCondition = "poor"
)

// IsValid returns true if the condition is recognized.
func (l LawnCondition) IsValid() bool {
	switch l {
	case ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentCard    PaymentMethod = "card"
	PaymentPayPal  PaymentMethod = "paypal"
	PaymentCashApp PaymentMethod = "cashapp"
	PaymentZelle   PaymentMethod = "zelle"
)

// IsValid returns true if the payment method is accepted.
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentCard, PaymentPayPal, PaymentCashApp, PaymentZelle:
		return true
	}
	return false
}

// IsManual returns true for methods settled outside the card processor.
func (p PaymentMethod) IsManual() bool {
	return p == PaymentCashApp || p == PaymentZelle || p == PaymentPayPal
}

// Label returns the display name of the payment method.
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentCard:
		return "Credit Card"
	case PaymentPayPal:
		return "PayPal"
	case PaymentCashApp:
		return "Cash App"
	case PaymentZelle:
		return "Zelle"
	}
	return string(p)
}

// ValidSubType reports whether subType belongs to category.
func ValidSubType(category Category, subType string) bool {
	switch category {
	case CategoryTransportation:
		return TransportType(subType).IsValid()
	case CategoryLawnCare:
		return LawnService(subType).IsValid()
	}
	return false
}

// ValidTier reports whether tier is a size class or lawn condition for category.
func ValidTier(category Category, tier string) bool {
	switch category {
	case CategoryTransportation:
		return SizeClass(tier).IsValid()
	case CategoryLawnCare:
		return LawnCondition(tier).IsValid()
	}
	return false
}
