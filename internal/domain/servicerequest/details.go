package servicerequest

import (
	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
)

// ServiceSpec is an immutable value object describing the requested work.
type ServiceSpec struct {
	Category catalog.Category `json:"category" bson:"category"`
	SubType  string           `json:"sub_type" bson:"sub_type"`
	Tier     string           `json:"tier" bson:"tier"`
	Measure  string           `json:"measure" bson:"measure"`
}

// PricingInput returns the calculator input for this spec.
func (s ServiceSpec) PricingInput() pricing.Input {
	return pricing.Input{
		Category: s.Category,
		SubType:  s.SubType,
		Tier:     s.Tier,
		Measure:  s.Measure,
	}
}

// Contact is who to reach about the request.
type Contact struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}

// Location is where the work happens.
type Location struct {
	Address string `json:"address" bson:"address"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
}
