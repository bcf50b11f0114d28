package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		password string
		want     error
	}{
		{"secret123", nil},
		{"s3cret", ErrPasswordTooShort},
		{strings.Repeat("a1", 40), ErrPasswordTooLong},
		{"12345678", ErrPasswordNoLetter},
		{"secretpassword", ErrPasswordNoDigit},
		{"şifre1234", nil},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPassword(tt.password))
		})
	}
}

func TestStringValidation(t *testing.T) {
	assert.True(t, NewStringValidation("ada@uni.edu").WithPattern(CompiledPatterns.Email).Validate())
	assert.False(t, NewStringValidation("Ada@uni.edu").WithPattern(CompiledPatterns.Email).Validate())
	assert.False(t, NewStringValidation("ada@uni").WithPattern(CompiledPatterns.Email).Validate())

	assert.False(t, NewStringValidation("").Validate())
	assert.True(t, NewStringValidation("").WithRequired(false).WithMinLength(3).Validate())

	assert.True(t, NewStringValidation("çğü").WithMaxLength(3).Validate(), "lengths count runes")
	assert.False(t, NewStringValidation("abcd").WithMaxLength(3).Validate())
	assert.False(t, NewStringValidation("ab").WithMinLength(3).Validate())
}
