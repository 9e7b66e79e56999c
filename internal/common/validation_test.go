package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	blank := "  "
	tooMany := 10001
	v := NewValidator().
		Field("title", blank, Required, MaxLength(200)).
		Field("subject", (*string)(nil), MaxLength(100)).
		Field("estimated_minutes", &tooMany, IntRange(0, 10000)).
		Field("priority", 3, IntRange(1, 5))

	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	assert.Equal(t, "title is required; estimated_minutes must be between 0 and 10000", v.ErrorMessage())
	assert.ErrorIs(t, v.Err(), ErrValidation)
}

func TestValidator_NoErrors(t *testing.T) {
	v := NewValidator().
		Field("title", "Chapter 4 problems", Required, MaxLength(200)).
		Field("id", "3f1c1f4e-8a5e-4c38-9d43-3f0e6f0b1c2d", UUID)
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Err())
}
