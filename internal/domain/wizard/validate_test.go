package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneRule(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{"5551234567", "555-123-4567", true},
		{"(555) 123-4567", "555-123-4567", true},
		{"555.123.4567", "555-123-4567", true},
		{"+1 555 123 4567", "555-123-4567", true},
		{"555123", "", false},
		{"555-123-456a", "", false},
		{"25551234567", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, msg := phone(tt.in, fixedNow)
			if !tt.valid {
				assert.NotEmpty(t, msg)
				return
			}
			assert.Empty(t, msg)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmailRule(t *testing.T) {
	for _, v := range []string{"jane@example.com", "J.Doe+tag@mail.example.org"} {
		_, msg := email(v, fixedNow)
		assert.Empty(t, msg, v)
	}
	for _, v := range []string{"jane", "jane@example", "@example.com", "jane@@example.com", "jane doe@example.com"} {
		_, msg := email(v, fixedNow)
		assert.NotEmpty(t, msg, v)
	}

	got, _ := email("Jane@Example.COM", fixedNow)
	assert.Equal(t, "jane@example.com", got)
}

func TestValidateFields_OptionalOnlyFormatChecked(t *testing.T) {
	values := map[Field]string{
		FieldAddress:       "  12 Elm St ",
		FieldPreferredDate: "2026-04-01",
		FieldNotes:         "",
	}
	normalized, errs := ValidateFields(values,
		[]Field{FieldAddress, FieldState, FieldPreferredDate, FieldNotes},
		[]Field{FieldAddress, FieldPreferredDate},
		fixedNow,
	)

	assert.Empty(t, errs)
	assert.Equal(t, "12 Elm St", normalized[FieldAddress])
	assert.Contains(t, normalized, FieldNotes)
	assert.NotContains(t, normalized, FieldState)
}

func TestValidateFields_NumericMustBePositive(t *testing.T) {
	for _, v := range []string{"0", "-3", "ten", "1e", "1e3", ".5", "1000.", "+5", "0x10", "0.00"} {
		_, errs := ValidateFields(map[Field]string{FieldDistance: v}, []Field{FieldDistance}, nil, fixedNow)
		assert.Len(t, errs, 1, v)
	}
	for _, v := range []string{"2500.5", "0.5", "007", " 1000 "} {
		_, errs := ValidateFields(map[Field]string{FieldLawnSize: v}, []Field{FieldLawnSize}, nil, fixedNow)
		assert.Empty(t, errs, v)
	}
}
