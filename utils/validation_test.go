package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testProfileInput struct {
	Firstname string   `validate:"required"`
	Sex       string   `validate:"omitempty,oneof=male female other"`
	HeightCm  *float64 `validate:"omitempty,gt=0,lte=300"`
	Timezone  string   `validate:"omitempty,timezone"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		height := 170.0
		s := testProfileInput{
			Firstname: "Jane",
			Sex:       "female",
			HeightCm:  &height,
			Timezone:  "Europe/Madrid",
		}

		err := ValidateStruct(&s)
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		s := testProfileInput{Sex: "female"}

		err := ValidateStruct(&s)
		assert.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Firstname")
		assert.Contains(t, fields["Firstname"], "required")
	})

	t.Run("invalid enum value", func(t *testing.T) {
		s := testProfileInput{
			Firstname: "Jane",
			Sex:       "unknown",
		}

		err := ValidateStruct(&s)
		assert.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Sex")
		assert.Contains(t, fields["Sex"], "must be one of")
	})

	t.Run("value out of range", func(t *testing.T) {
		height := 400.0
		s := testProfileInput{
			Firstname: "Jane",
			HeightCm:  &height,
		}

		err := ValidateStruct(&s)
		assert.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "HeightCm")
	})

	t.Run("invalid timezone", func(t *testing.T) {
		s := testProfileInput{
			Firstname: "Jane",
			Timezone:  "Mars/Olympus_Mons",
		}

		err := ValidateStruct(&s)
		assert.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Timezone")
		assert.Contains(t, fields["Timezone"], "IANA")
	})
}

func TestIsValidationError(t *testing.T) {
	assert.False(t, IsValidationError(nil))
	assert.False(t, IsValidationError(assert.AnError))
	assert.True(t, IsValidationError(&ValidationError{Message: "Validation failed"}))
}

func TestGetValidationFields_NonValidationError(t *testing.T) {
	assert.Nil(t, GetValidationFields(assert.AnError))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(""))
}

func TestValidateRequired(t *testing.T) {
	assert.NoError(t, ValidateRequired("value", "field"))

	err := ValidateRequired("", "firstname")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "firstname")
}
