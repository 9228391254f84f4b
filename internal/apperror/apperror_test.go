package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs_MatchesOnCode(t *testing.T) {
	wrapped := fmt.Errorf("create sale: %w", ErrInsufficientStock.Wrap(errors.New("product p1")))

	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))
	assert.False(t, errors.Is(wrapped, ErrDuplicateSubmission))
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, KindOf(errors.New("boom")).HTTPStatus())
}

func TestWithData_DoesNotMutateSentinel(t *testing.T) {
	e := ErrVendorLimit.WithData(map[string]interface{}{"Max": 2})

	assert.Nil(t, ErrVendorLimit.Data)
	assert.Equal(t, 2, e.Data["Max"])
	assert.True(t, errors.Is(e, ErrVendorLimit))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[*Error]int{
		ErrInvalidInput:    http.StatusBadRequest,
		ErrUnauthenticated: http.StatusUnauthorized,
		ErrOwnerOnly:       http.StatusForbidden,
		ErrProductNotFound: http.StatusNotFound,
		ErrVendorLimit:     http.StatusConflict,
		ErrRateLimited:     http.StatusTooManyRequests,
		ErrUnavailable:     http.StatusServiceUnavailable,
	}
	for e, want := range cases {
		assert.Equal(t, want, e.Kind.HTTPStatus(), e.Code)
	}
}
