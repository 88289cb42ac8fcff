package wizard

import (
	"strconv"
	"strings"
	"time"

	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
)

// Summary is the display projection of a draft shown on the review step.
type Summary struct {
	Sections []SummarySection `json:"sections"`
	Pricing  []SummaryLine    `json:"pricing,omitempty"`
	Total    string           `json:"total,omitempty"`
}

// SummarySection groups lines under a heading.
type SummarySection struct {
	Title string        `json:"title"`
	Lines []SummaryLine `json:"lines"`
}

// SummaryLine is one label/value row.
type SummaryLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type sectionBuilder struct {
	section SummarySection
}

func (b *sectionBuilder) add(label, value string) {
	if value == "" {
		return
	}
	b.section.Lines = append(b.section.Lines, SummaryLine{Label: label, Value: value})
}

// RenderSummary projects the draft and quote into display text.
func RenderSummary(d Draft, q *pricing.Quote) Summary {
	service := &sectionBuilder{section: SummarySection{Title: "Service Details"}}
	category := d.Category()
	service.add("Service Type", category.Label())
	switch category {
	case catalog.CategoryTransportation:
		service.add("Service", displayName(d.Get(FieldSubType)))
		service.add("Distance", withUnit(d.Get(FieldDistance), "mile", "miles"))
		service.add("Load Size", displayName(d.Get(FieldSizeClass)))
	case catalog.CategoryLawnCare:
		service.add("Service", displayName(d.Get(FieldLawnSubType)))
		service.add("Lawn Size", withUnit(d.Get(FieldLawnSize), "sq ft", "sq ft"))
		service.add("Condition", displayName(d.Get(FieldLawnCondition)))
	}
	if n := len(d.Attachments); n > 0 {
		service.add("Photos", strconv.Itoa(n)+" attached")
	}

	contact := &sectionBuilder{section: SummarySection{Title: "Contact Information"}}
	contact.add("Name", d.Get(FieldName))
	contact.add("Email", d.Get(FieldEmail))
	contact.add("Phone", d.Get(FieldPhone))

	schedule := &sectionBuilder{section: SummarySection{Title: "Location & Schedule"}}
	schedule.add("Address", d.Get(FieldAddress))
	schedule.add("State", d.Get(FieldState))
	schedule.add("Preferred Date", displayDate(d.Get(FieldPreferredDate)))
	schedule.add("Notes", d.Get(FieldNotes))

	summary := Summary{Sections: []SummarySection{service.section, contact.section, schedule.section}}

	if method := catalog.PaymentMethod(d.Get(FieldPaymentMethod)); method != "" {
		payment := &sectionBuilder{section: SummarySection{Title: "Payment"}}
		payment.add("Payment Method", method.Label())
		summary.Sections = append(summary.Sections, payment.section)
	}

	if q != nil {
		for _, item := range q.Items {
			summary.Pricing = append(summary.Pricing, SummaryLine{Label: item.Label, Value: pricing.FormatAmount(item.Amount)})
		}
		summary.Total = pricing.FormatAmount(q.Total)
	}
	return summary
}

// displayName turns "local-moving" into "Local Moving".
func displayName(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func withUnit(v, singular, plural string) string {
	if v == "" {
		return ""
	}
	if v == "1" {
		return v + " " + singular
	}
	return v + " " + plural
}

func displayDate(v string) string {
	d, err := time.Parse(DateLayout, v)
	if err != nil {
		return v
	}
	return d.Format("Monday, January 2, 2006")
}
