package notification

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// Texter delivers SMS messages.
type Texter interface {
	SendText(ctx context.Context, to, body string) error
}

// TwilioTexter sends SMS through the Twilio REST API.
type TwilioTexter struct {
	client *twilio.RestClient
	from   string
	logger *zap.Logger
}

// NewTwilioTexter creates a texter sending from the given number.
func NewTwilioTexter(accountSID, authToken, from string, logger *zap.Logger) *TwilioTexter {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioTexter{client: client, from: from, logger: logger}
}

// SendText sends body to a US number. The Twilio client has no context support;
// ctx is only checked before the call.
func (t *TwilioTexter) SendText(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(E164(to))
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	if resp.Sid != nil {
		t.logger.Debug("sms sent", zap.String("sid", *resp.Sid))
	}
	return nil
}

// E164 converts a normalized US number (555-123-4567) to +15551234567.
func E164(phone string) string {
	digits := make([]byte, 0, 11)
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) == 10 {
		return "+1" + string(digits)
	}
	return "+" + string(digits)
}
