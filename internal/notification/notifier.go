package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/jayzilla/service-booking/internal/contracts/events"
	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
	"github.com/jayzilla/service-booking/internal/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	subjectConfirmed = "Service Request Confirmation"
	subjectPending   = "Service Request Received - Payment Instructions"
)

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<h2>Thank you, {{.Name}}!</h2>
<p>We received your service request <strong>{{.Reference}}</strong>.</p>
<table>
{{range .Items}}<tr><td>{{.Label}}</td><td>{{.Amount}}</td></tr>
{{end}}<tr><td><strong>Total</strong></td><td><strong>{{.Total}}</strong></td></tr>
</table>
<p>Preferred date: {{.Date}}<br>Address: {{.Address}}</p>
{{if .Instructions}}<p><strong>Payment:</strong> {{.Instructions}}</p>{{end}}`))

type confirmationView struct {
	Name         string
	Reference    string
	Items        []events.LineItem
	Total        string
	Date         string
	Address      string
	Instructions string
}

// Notifier sends customer notifications for service request events.
type Notifier struct {
	mailer Mailer
	texter Texter
	manual payment.ManualConfig
	logger *zap.Logger
}

// NewNotifier creates a Notifier. texter may be nil when SMS is not configured.
func NewNotifier(mailer Mailer, texter Texter, manual payment.ManualConfig, logger *zap.Logger) *Notifier {
	return &Notifier{mailer: mailer, texter: texter, manual: manual, logger: logger}
}

// ServiceRequestSubmitted emails the confirmation and, when configured, texts the customer.
// An SMS failure is logged and does not fail the call.
func (n *Notifier) ServiceRequestSubmitted(ctx context.Context, evt events.ServiceRequestSubmittedEvent) error {
	email, err := n.confirmationEmail(evt)
	if err != nil {
		return err
	}
	if err := n.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("confirmation email for %s: %w", evt.ReferenceNumber, err)
	}

	if n.texter != nil && evt.CustomerPhone != "" {
		body := fmt.Sprintf("Jayzilla: we received service request %s for %s. Total %s.",
			evt.ReferenceNumber, evt.PreferredDate, formatWireAmount(evt.Total))
		if err := n.texter.SendText(ctx, evt.CustomerPhone, body); err != nil {
			n.logger.Warn("confirmation sms failed",
				zap.String("reference", evt.ReferenceNumber),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (n *Notifier) confirmationEmail(evt events.ServiceRequestSubmittedEvent) (Email, error) {
	method := catalog.PaymentMethod(evt.PaymentMethod)
	subject := subjectPending
	instructions := ""
	if evt.PaymentStatus == "paid" {
		subject = subjectConfirmed
	} else if method.IsManual() {
		instructions = n.manual.Instructions(method, formatWireAmount(evt.Total), evt.PaymentReference)
	} else {
		instructions = "Complete your card payment using the link in the booking page."
	}

	items := make([]events.LineItem, 0, len(evt.LineItems))
	for _, li := range evt.LineItems {
		items = append(items, events.LineItem{Label: li.Label, Amount: formatWireAmount(li.Amount)})
	}
	view := confirmationView{
		Name:         evt.CustomerName,
		Reference:    evt.ReferenceNumber,
		Items:        items,
		Total:        formatWireAmount(evt.Total),
		Date:         evt.PreferredDate,
		Address:      evt.Address,
		Instructions: instructions,
	}

	var html bytes.Buffer
	if err := confirmationTemplate.Execute(&html, view); err != nil {
		return Email{}, fmt.Errorf("failed to render confirmation email: %w", err)
	}

	var plain strings.Builder
	fmt.Fprintf(&plain, "Thank you, %s!\n\nWe received your service request %s.\n\n", view.Name, view.Reference)
	for _, li := range view.Items {
		fmt.Fprintf(&plain, "%s: %s\n", li.Label, li.Amount)
	}
	fmt.Fprintf(&plain, "Total: %s\n\nPreferred date: %s\nAddress: %s\n", view.Total, view.Date, view.Address)
	if instructions != "" {
		fmt.Fprintf(&plain, "\nPayment: %s\n", instructions)
	}

	return Email{
		ToName:    evt.CustomerName,
		ToAddress: evt.CustomerEmail,
		Subject:   subject,
		PlainText: plain.String(),
		HTML:      html.String(),
	}, nil
}

// formatWireAmount renders a decimal string from an event payload as currency.
func formatWireAmount(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return pricing.FormatAmount(d)
}
