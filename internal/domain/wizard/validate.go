package wizard

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of preferredDate.
const DateLayout = "2006-01-02"

var validate = validator.New()

// plainNumber is the accepted measure grammar: digits with an optional fraction.
var plainNumber = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// FieldError marks one invalid field.
type FieldError struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

// fieldRule normalizes a non-empty value or explains why it is invalid.
type fieldRule func(value string, today time.Time) (string, string)

var fieldRules = map[Field]fieldRule{
	FieldCategory:      oneOf(func(v string) bool { return catalog.Category(v).IsValid() }, "select a service category"),
	FieldSubType:       oneOf(func(v string) bool { return catalog.TransportType(v).IsValid() }, "select a transportation service"),
	FieldDistance:      positiveNumber("distance must be a number greater than 0"),
	FieldSizeClass:     oneOf(func(v string) bool { return catalog.SizeClass(v).IsValid() }, "select a load size"),
	FieldLawnSubType:   oneOf(func(v string) bool { return catalog.LawnService(v).IsValid() }, "select a lawn care service"),
	FieldLawnSize:      positiveNumber("lawn size must be a number greater than 0"),
	FieldLawnCondition: oneOf(func(v string) bool { return catalog.LawnCondition(v).IsValid() }, "select the lawn condition"),
	FieldName:          maxLength(100),
	FieldEmail:         email,
	FieldPhone:         phone,
	FieldAddress:       maxLength(300),
	FieldState:         maxLength(50),
	FieldPreferredDate: futureDate,
	FieldNotes:         maxLength(2000),
	FieldPaymentMethod: oneOf(func(v string) bool { return catalog.PaymentMethod(v).IsValid() }, "select a payment method"),
}

func oneOf(valid func(string) bool, message string) fieldRule {
	return func(v string, _ time.Time) (string, string) {
		if !valid(v) {
			return v, message
		}
		return v, ""
	}
}

func positiveNumber(message string) fieldRule {
	return func(v string, _ time.Time) (string, string) {
		if !IsPositiveNumber(v) {
			return v, message
		}
		return v, ""
	}
}

// IsPositiveNumber reports whether v is a plain decimal such as "1000" or "2.5"
// greater than zero. Signs, exponents and bare dots are refused.
func IsPositiveNumber(v string) bool {
	if !plainNumber.MatchString(v) {
		return false
	}
	d, err := decimal.NewFromString(v)
	return err == nil && d.IsPositive()
}

func maxLength(n int) fieldRule {
	return func(v string, _ time.Time) (string, string) {
		if utf8.RuneCountInString(v) > n {
			return v, "must be at most " + strconv.Itoa(n) + " characters"
		}
		return v, ""
	}
}

// email accepts local@domain.tld.
func email(v string, _ time.Time) (string, string) {
	const message = "enter a valid email address"
	if err := validate.Var(v, "email"); err != nil {
		return v, message
	}
	at := strings.LastIndexByte(v, '@')
	if !strings.Contains(v[at+1:], ".") {
		return v, message
	}
	return strings.ToLower(v), ""
}

// phone accepts any punctuation around exactly ten digits and normalizes to 555-123-4567.
func phone(v string, _ time.Time) (string, string) {
	digits := make([]rune, 0, 10)
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, r)
		case strings.ContainsRune(" ()-.+", r):
		default:
			return v, "enter a 10-digit phone number"
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return v, "enter a 10-digit phone number"
	}
	s := string(digits)
	return s[:3] + "-" + s[3:6] + "-" + s[6:], ""
}

// futureDate requires a calendar date strictly after today.
func futureDate(v string, today time.Time) (string, string) {
	d, err := time.Parse(DateLayout, v)
	if err != nil {
		return v, "enter a date as YYYY-MM-DD"
	}
	y, m, day := today.Date()
	midnight := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	if !d.After(midnight) {
		return v, "date must be in the future"
	}
	return v, ""
}

// ValidateFields checks required presence and format. Optional fields are only
// format-checked when non-empty. It returns the normalized values of every field
// it was asked about together with one error per failing field.
func ValidateFields(values map[Field]string, fields, required []Field, today time.Time) (map[Field]string, []FieldError) {
	isRequired := make(map[Field]bool, len(required))
	for _, f := range required {
		isRequired[f] = true
	}

	normalized := make(map[Field]string, len(fields))
	var errs []FieldError
	seen := map[Field]bool{}
	for _, f := range append(append([]Field(nil), required...), fields...) {
		if seen[f] {
			continue
		}
		seen[f] = true

		v, present := values[f]
		v = strings.TrimSpace(v)
		if v == "" {
			if isRequired[f] {
				errs = append(errs, FieldError{Field: f, Message: "this field is required"})
			} else if present {
				normalized[f] = ""
			}
			continue
		}

		if rule, ok := fieldRules[f]; ok {
			n, msg := rule(v, today)
			if msg != "" {
				errs = append(errs, FieldError{Field: f, Message: msg})
				continue
			}
			v = n
		}
		normalized[f] = v
	}
	return normalized, errs
}
