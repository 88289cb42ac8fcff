package wizard

import (
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
)

// Field names a single form input.
type Field string

const (
	FieldCategory      Field = "category"
	FieldSubType       Field = "subType"
	FieldDistance      Field = "distance"
	FieldSizeClass     Field = "sizeClass"
	FieldLawnSubType   Field = "lawnSubType"
	FieldLawnSize      Field = "lawnSize"
	FieldLawnCondition Field = "lawnCondition"
	FieldName          Field = "name"
	FieldEmail         Field = "email"
	FieldPhone         Field = "phone"
	FieldAddress       Field = "address"
	FieldState         Field = "state"
	FieldPreferredDate Field = "preferredDate"
	FieldNotes         Field = "notes"
	FieldPaymentMethod Field = "paymentMethod"

	// FieldAttachments keys attachment errors; it never holds a value.
	FieldAttachments Field = "attachments"
	// FieldQuotedTotal keys a stale client total on direct submission.
	FieldQuotedTotal Field = "quotedTotal"
)

var dataFields = map[Field]bool{
	FieldCategory: true, FieldSubType: true, FieldDistance: true, FieldSizeClass: true,
	FieldLawnSubType: true, FieldLawnSize: true, FieldLawnCondition: true,
	FieldName: true, FieldEmail: true, FieldPhone: true, FieldAddress: true,
	FieldState: true, FieldPreferredDate: true, FieldNotes: true, FieldPaymentMethod: true,
}

// IsData reports whether f is a text field the wizard collects.
func (f Field) IsData() bool {
	return dataFields[f]
}

// categoryFields lists the sub-fields a category makes required, in display order.
var categoryFields = map[catalog.Category][]Field{
	catalog.CategoryTransportation: {FieldSubType, FieldDistance, FieldSizeClass},
	catalog.CategoryLawnCare:       {FieldLawnSubType, FieldLawnSize, FieldLawnCondition},
}

// CategoryFields returns the sub-fields owned by category.
func CategoryFields(category catalog.Category) []Field {
	return append([]Field(nil), categoryFields[category]...)
}

func isCategoryField(f Field) bool {
	for _, fields := range categoryFields {
		for _, cf := range fields {
			if cf == f {
				return true
			}
		}
	}
	return false
}

// Draft is the accumulated form data. Values are only ever overwritten per key.
// Draft values are treated as immutable: every mutation returns a copy.
type Draft struct {
	Values      map[Field]string    `json:"values"`
	Attachments []attachment.Staged `json:"attachments"`
}

// NewDraft returns an empty draft.
func NewDraft() Draft {
	return Draft{Values: map[Field]string{}, Attachments: []attachment.Staged{}}
}

// Get returns the stored value for f, or "".
func (d Draft) Get(f Field) string {
	return d.Values[f]
}

// Category returns the selected category, which may be empty or unknown.
func (d Draft) Category() catalog.Category {
	return catalog.Category(d.Values[FieldCategory])
}

// Merge returns a copy of d with fields overwritten. Absent keys are kept.
func (d Draft) Merge(fields map[Field]string) Draft {
	out := d.clone()
	for k, v := range fields {
		out.Values[k] = v
	}
	return out
}

// WithAttachments returns a copy of d with files appended.
func (d Draft) WithAttachments(files ...attachment.Staged) Draft {
	out := d.clone()
	out.Attachments = append(out.Attachments, files...)
	return out
}

// WithoutAttachment returns a copy of d with the attachment at index removed.
func (d Draft) WithoutAttachment(index int) Draft {
	out := d.clone()
	out.Attachments = append(out.Attachments[:index], out.Attachments[index+1:]...)
	return out
}

// SubmissionFields returns the values that belong in a submission.
// Sub-fields of the inactive category stay in the draft but are left out here.
func (d Draft) SubmissionFields() map[Field]string {
	active := map[Field]bool{}
	for _, f := range categoryFields[d.Category()] {
		active[f] = true
	}

	out := make(map[Field]string, len(d.Values))
	for k, v := range d.Values {
		if isCategoryField(k) && !active[k] {
			continue
		}
		if v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// PricingInput projects the active category's pricing fields.
func (d Draft) PricingInput() pricing.Input {
	return PricingInputFrom(d.Values)
}

// PricingInputFrom projects pricing fields from a raw value map.
func PricingInputFrom(values map[Field]string) pricing.Input {
	category := catalog.Category(values[FieldCategory])
	in := pricing.Input{Category: category}
	switch category {
	case catalog.CategoryTransportation:
		in.SubType = values[FieldSubType]
		in.Tier = values[FieldSizeClass]
		in.Measure = values[FieldDistance]
	case catalog.CategoryLawnCare:
		in.SubType = values[FieldLawnSubType]
		in.Tier = values[FieldLawnCondition]
		in.Measure = values[FieldLawnSize]
	}
	return in
}

func (d Draft) clone() Draft {
	values := make(map[Field]string, len(d.Values))
	for k, v := range d.Values {
		values[k] = v
	}
	files := make([]attachment.Staged, len(d.Attachments))
	copy(files, d.Attachments)
	return Draft{Values: values, Attachments: files}
}
