package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewStorageError("RAW_FILE_MISSING", "mandatory raw file is missing")
	assert.Equal(t, "RAW_FILE_MISSING: mandatory raw file is missing", err.Error())

	wrapped := WrapError(fmt.Errorf("disk full"), ErrorTypeStorage, "FILE_WRITE_FAILED", "cannot write part file")
	assert.Equal(t, "FILE_WRITE_FAILED: cannot write part file: disk full", wrapped.Error())
}

func TestIsMatchesByTypeAndCode(t *testing.T) {
	err := ErrRawFileMissing.WithContext("ingest_date", "2025-07-01")
	assert.True(t, stderrors.Is(err, ErrRawFileMissing))
	assert.False(t, stderrors.Is(err, ErrRawHeaderInvalid))
	assert.False(t, stderrors.Is(err, stderrors.New("RAW_FILE_MISSING")))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := WrapError(cause, ErrorTypePipeline, "DATE_FAILED", "date processing failed")

	assert.Equal(t, cause, stderrors.Unwrap(err))

	var appErr *AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, "DATE_FAILED", appErr.Code)
}

func TestWithContextLeavesSentinelUntouched(t *testing.T) {
	_ = ErrInvalidDate.WithContext("date", "bogus")
	assert.Empty(t, ErrInvalidDate.Context)
}

func TestWithContextAccumulates(t *testing.T) {
	err := NewConfigurationError("INVALID_DATE", "bad date").
		WithContext("date", "bogus").
		WithContext("flag", "--start")

	assert.Equal(t, "bogus", err.Context["date"])
	assert.Equal(t, "--start", err.Context["flag"])
}
