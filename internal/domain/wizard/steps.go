package wizard

import "github.com/jayzilla/service-booking/internal/domain/catalog"

// Step names one screen of the wizard.
type Step string

const (
	StepServiceDetails Step = "service_details"
	StepContact        Step = "contact"
	StepSchedule       Step = "schedule"
	StepReview         Step = "review"
)

// StepDefinition declares which fields a step collects and requires.
type StepDefinition struct {
	Step     Step
	Fields   []Field
	Required []Field
	// CategoryScoped adds category sub-fields; only the active category's are required.
	CategoryScoped bool
	// Summarize marks the step whose entry recomputes the quote and renders the summary.
	Summarize bool
}

// DefaultSteps is the standard four-step booking flow.
func DefaultSteps() []StepDefinition {
	return []StepDefinition{
		{
			Step:           StepServiceDetails,
			Fields:         []Field{FieldCategory},
			Required:       []Field{FieldCategory},
			CategoryScoped: true,
		},
		{
			Step:     StepContact,
			Fields:   []Field{FieldName, FieldEmail, FieldPhone},
			Required: []Field{FieldName, FieldEmail, FieldPhone},
		},
		{
			Step:     StepSchedule,
			Fields:   []Field{FieldAddress, FieldState, FieldPreferredDate, FieldNotes},
			Required: []Field{FieldAddress, FieldPreferredDate},
		},
		{
			Step:      StepReview,
			Fields:    []Field{FieldPaymentMethod},
			Required:  []Field{FieldPaymentMethod},
			Summarize: true,
		},
	}
}

// Collects returns every field the step accepts. A category-scoped step accepts the
// sub-fields of every category so values typed before a category switch are kept.
func (s StepDefinition) Collects() []Field {
	fields := append([]Field(nil), s.Fields...)
	if s.CategoryScoped {
		for _, c := range []catalog.Category{catalog.CategoryTransportation, catalog.CategoryLawnCare} {
			fields = append(fields, categoryFields[c]...)
		}
	}
	return fields
}

// RequiredFor returns the required fields of the step under category.
func (s StepDefinition) RequiredFor(category catalog.Category) []Field {
	required := append([]Field(nil), s.Required...)
	if s.CategoryScoped {
		required = append(required, categoryFields[category]...)
	}
	return required
}
