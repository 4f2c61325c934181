package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchingSurvivesWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("placing order: %w", ErrStore.Wrap(cause))

	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrDelivery)

	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindDependency, e.Kind)
	assert.Equal(t, http.StatusInternalServerError, e.Status)

	custom := ErrInvalidInput.WithMessage("quantity must be positive")
	assert.ErrorIs(t, custom, ErrInvalidInput)
	assert.Equal(t, "invalid request", ErrInvalidInput.Message, "sentinels are not mutated")
}
