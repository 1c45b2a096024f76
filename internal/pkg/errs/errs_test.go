package errs

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewErrorKnownCode(t *testing.T) {
	req := require.New(t)

	customErr := NewError(ErrForbidden)
	req.Equal(ErrForbidden, customErr.Code)
	req.Equal(http.StatusForbidden, customErr.Status)
	req.NotEmpty(customErr.Message)
}

func TestNewErrorDefaultsStatusToOK(t *testing.T) {
	req := require.New(t)

	// Business errors without an explicit HTTP status ride on a 200 envelope.
	customErr := NewError(ErrEmptyMessage)
	req.Equal(http.StatusOK, customErr.Status)
}

func TestNewErrorUnknownCodeFallsBack(t *testing.T) {
	req := require.New(t)

	customErr := NewError(999999)
	req.Equal(ErrUnknown, customErr.Code)
	req.Equal(http.StatusInternalServerError, customErr.Status)
}

func TestCustomErrorImplementsError(t *testing.T) {
	req := require.New(t)

	var err error = NewError(ErrUnauthenticated)
	req.Contains(err.Error(), "3001")
}
