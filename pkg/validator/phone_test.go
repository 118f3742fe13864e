package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"local number", "0771234567", true},
		{"international", "+94771234567", true},
		{"with spaces", "+94 77 123 4567", true},
		{"with dashes", "077-123-4567", true},
		{"too short", "12345", false},
		{"too long", "12345678901234567", false},
		{"letters", "not-a-number", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidPhone(tt.value))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+94771234567", NormalizePhone("+94 77 123 4567"))
	assert.Equal(t, "0771234567", NormalizePhone("077-123-4567"))
	assert.Equal(t, "0771234567", NormalizePhone("  0771234567  "))
}
