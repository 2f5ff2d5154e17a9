package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	type req struct {
		Name   string `validate:"required"`
		Email  string `validate:"required,email"`
		Status string `validate:"oneof=trial paid"`
	}

	err := validator.New().Struct(req{Email: "not-an-email", Status: "gold"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Name is a required field")
	assert.Contains(t, resp.Error, "field Email must be a valid email")
	assert.Contains(t, resp.Error, "field Status must be one of: trial paid")
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, Response{Status: StatusOK, Data: 1}, StatusOKWithData(1))
	assert.Equal(t, Response{Status: StatusError, Error: "boom"}, Error("boom"))
}
