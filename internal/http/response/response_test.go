package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=72"`
	Plan     string `validate:"required,oneof=starter pro"`
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{
			name: "missing fields",
			in:   sample{},
			want: "field Email is a required field, field Password is a required field, field Plan is a required field",
		},
		{
			name: "bad values",
			in:   sample{Email: "nope", Password: "short", Plan: "gold"},
			want: "field Email must be a valid email, field Password must be at least 8 characters, field Plan must be one of: starter pro",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.New().Struct(tt.in)
			require.Error(t, err)
			resp := ValidationError(err.(validator.ValidationErrors))
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestHelpers(t *testing.T) {
	ok := StatusOKWithData(map[string]string{"k": "v"})
	assert.Equal(t, StatusOK, ok.Status)
	assert.Empty(t, ok.Error)

	e := Error("boom")
	assert.Equal(t, StatusError, e.Status)
	assert.Equal(t, "boom", e.Error)
	assert.Nil(t, e.Data)
}
