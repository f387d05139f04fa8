package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolbox/internal/domain"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Level string `json:"level" validate:"omitempty,oneof=easy hard"`
	Count int    `koanf:"count" validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(sample{Name: "ok", Level: "easy"}))

	err := ValidateStruct(sample{Level: "medium", Count: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors, 3)
	assert.Equal(t, "name", verr.Errors[0].Field)
	assert.Equal(t, "is required", verr.Errors[0].Message)
	assert.Equal(t, "level", verr.Errors[1].Field)
	assert.Equal(t, "must be one of: easy hard", verr.Errors[1].Message)
	assert.Equal(t, "count", verr.Errors[2].Field)
}

type nested struct {
	Store struct {
		Path string `koanf:"path" validate:"required"`
	} `koanf:"store"`
}

func TestValidateStructNestedPath(t *testing.T) {
	var verr *domain.ValidationError
	require.ErrorAs(t, ValidateStruct(nested{}), &verr)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "store.path", verr.Errors[0].Field)
}
