package widget

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  *Error
		kind error
		code int
	}{
		{Validation("Color must be 'red' or 'blue'"), ErrValidation, http.StatusBadRequest},
		{NotFound("abc"), ErrNotFound, http.StatusNotFound},
		{Internal("Failed to read widget"), ErrInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.ErrorIs(t, tc.err, tc.kind)
		require.Equal(t, tc.code, StatusCode(tc.err))
		for _, other := range []error{ErrValidation, ErrNotFound, ErrInternal} {
			if other != tc.kind {
				require.NotErrorIs(t, tc.err, other)
			}
		}
	}
}

func TestStatusCodeWrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("x"))
	require.Equal(t, http.StatusNotFound, StatusCode(err))
	require.True(t, errors.Is(err, ErrNotFound))
	require.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
}

func TestNotFoundMessage(t *testing.T) {
	require.Equal(t, "404: Widget with ID 'abc' not found", NotFound("abc").Error())
}

func TestValidColor(t *testing.T) {
	require.True(t, ValidColor("red"))
	require.True(t, ValidColor("blue"))
	require.False(t, ValidColor("green"))
	require.False(t, ValidColor("Red"))
	require.False(t, ValidColor(""))
}
