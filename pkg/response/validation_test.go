package response

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type signup struct {
	Name         string `validate:"required"`
	EmailAddress string `validate:"required,email"`
	Password     string `validate:"min=8"`
}

func TestFieldErrorsFromValidator(t *testing.T) {
	err := validator.New().Struct(signup{EmailAddress: "nope", Password: "short"})
	fields := FieldErrors(err)

	assert.Equal(t, []string{"The name field is required."}, fields["name"])
	assert.Equal(t, []string{"The email address field must be a valid email address."}, fields["email_address"])
	assert.Equal(t, []string{"The password field must be at least 8 characters."}, fields["password"])
}

func TestFieldErrorsFromMalformedBody(t *testing.T) {
	fields := FieldErrors(errors.New("unexpected EOF"))
	assert.Contains(t, fields, "body")
}

func TestValidationEnvelope(t *testing.T) {
	r := Validation(422, "The given data was invalid.", map[string][]string{"name": {"x"}})
	assert.Equal(t, "error", r.Status)
	assert.Equal(t, 422, r.StatusCode)
	assert.Equal(t, []string{"x"}, r.Errors["name"])
}
