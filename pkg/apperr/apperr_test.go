package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Validation("score must be between %d and %d", 1, 10)

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "score must be between 1 and 10", err.Error())
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("while voting: %w", NotFound("review"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.StatusNotFound, From(err).Status)
}

func TestFromFallsBackToInternal(t *testing.T) {
	e := From(errors.New("driver: bad connection"))

	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.Equal(t, "internal error", e.Message)
}

func TestFromUnwrapsDomainError(t *testing.T) {
	e := From(fmt.Errorf("rolled back: %w", ErrRoleInUse))

	assert.Equal(t, CodeRoleInUse, e.Code)
	assert.Equal(t, http.StatusConflict, e.Status)
}

func TestUnauthorizedCarriesMessage(t *testing.T) {
	err := Unauthorized("token expired")

	e := From(err)
	assert.Equal(t, CodeUnauthorized, e.Code)
	assert.Equal(t, http.StatusUnauthorized, e.Status)
	assert.Equal(t, "token expired", e.Message)
}
