package errors

import (
	"database/sql"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneKeepsCodeForErrorsIs(t *testing.T) {
	err := Clone(ErrInsufficientBalance, "balance 19 is below cost 20")
	require.True(t, stdErrors.Is(err, ErrInsufficientBalance))
	require.False(t, stdErrors.Is(err, ErrFeatureDisabled))

	wrapped := fmt.Errorf("submit: %w", err)
	require.True(t, stdErrors.Is(wrapped, ErrInsufficientBalance))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	require.Equal(t, ErrInternal.Code, appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.Status)
	require.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestStoreWrapsAsUnavailable(t *testing.T) {
	appErr := Store(sql.ErrConnDone, "failed to load adjustments")
	require.Equal(t, "STORE_UNAVAILABLE", appErr.Code)
	require.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	require.ErrorIs(t, appErr, sql.ErrConnDone)
}
