package metaerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("field", "com.acme.Person", "age")

	assert.Equal(t, `beanmeta: com.acme.Person does not contain the field "age"`, err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConfiguration))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, "field", err.Kind())
	assert.Equal(t, "com.acme.Person", err.Bean())
	assert.Equal(t, "age", err.Member())
}

func TestTypeNotFoundError(t *testing.T) {
	err := NewTypeNotFoundError("com.acme.Missing")
	assert.Equal(t, "beanmeta: type com.acme.Missing not found", err.Error())
	assert.True(t, IsNotFound(err))
}

func TestDefinedTwiceError(t *testing.T) {
	err := NewDefinedTwiceError("Person", "age")

	assert.Contains(t, err.Error(), "age is defined twice in mapping for bean Person")
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.True(t, IsConfiguration(fmt.Errorf("pass: %w", err)))
	assert.False(t, IsNotFound(err))
}

func TestNilErrors(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsConfiguration(nil))
}
