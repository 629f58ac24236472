package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed to reach database")

	require.Equal(t, "failed to reach database: connection refused", err.Error())
	require.True(t, stderrors.Is(err, cause))
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	clone := Clone(ErrConflict, "quantity cannot shrink below distributed total")

	require.Equal(t, ErrConflict.Code, clone.Code)
	require.Equal(t, ErrConflict.Status, clone.Status)
	require.Equal(t, "quantity cannot shrink below distributed total", clone.Message)
	require.Equal(t, "conflict", ErrConflict.Message)

	// Empty message keeps the original text.
	require.Equal(t, "conflict", Clone(ErrConflict, "").Message)
}

func TestIsMatchesByCode(t *testing.T) {
	require.True(t, Is(Clone(ErrNotFound, "donation not found"), ErrNotFound))
	require.True(t, Is(fmt.Errorf("load donation: %w", Clone(ErrNotFound, "")), ErrNotFound))
	require.False(t, Is(Clone(ErrNotFound, ""), ErrConflict))
	require.False(t, Is(stderrors.New("plain"), ErrNotFound))
	require.False(t, Is(nil, ErrNotFound))
}

func TestFromErrorNormalises(t *testing.T) {
	require.Nil(t, FromError(nil))

	typed := FromError(Clone(ErrValidation, ""))
	require.Equal(t, ErrValidation.Code, typed.Code)

	wrapped := FromError(stderrors.New("boom"))
	require.Equal(t, ErrInternal.Code, wrapped.Code)
	require.Equal(t, http.StatusInternalServerError, wrapped.Status)
}
