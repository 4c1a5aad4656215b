package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisError_Error(t *testing.T) {
	err := NewAnalysisError(ErrorCategoryValidation, "regime", "classify", "observations out of order")
	assert.Contains(t, err.Error(), "VALIDATION")
	assert.Contains(t, err.Error(), "regime")
	assert.Contains(t, err.Error(), "observations out of order")
}

func TestWrapError_PreservesUnderlying(t *testing.T) {
	underlying := errors.New("connection refused")
	err := WrapError(underlying, ErrorCategoryNetwork, "fetch", "fred_request")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Nil(t, WrapError(nil, ErrorCategoryNetwork, "fetch", "fred_request"))
}

func TestRetryableCategories(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		retryable bool
	}{
		{ErrorCategoryNetwork, true},
		{ErrorCategoryTimeout, true},
		{ErrorCategoryRateLimit, true},
		{ErrorCategoryFatal, false},
		{ErrorCategoryConfiguration, false},
		{ErrorCategoryDataGap, false},
		{ErrorCategoryValidation, false},
		{ErrorCategorySample, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := NewAnalysisError(tt.category, "test", "op", "msg")
			assert.Equal(t, tt.retryable, err.IsRetryable())
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, NewConfigError("config", "validate", "bad weights").IsFatal())
	assert.True(t, NewAnalysisError(ErrorCategoryFatal, "data", "load", "corrupt file").IsFatal())
	assert.False(t, NewDataGapError("data", "join", "gap").IsFatal())
	assert.False(t, NewSampleWarning("scenario", "percentiles", "one event").IsFatal())
}

func TestIsCategory(t *testing.T) {
	err := NewDataGapError("data", "join", "gap")
	assert.True(t, IsCategory(err, ErrorCategoryDataGap))
	assert.False(t, IsCategory(err, ErrorCategoryNetwork))

	// Survives wrapping in plain error chains
	wrapped := fmt.Errorf("loading dataset: %w", err)
	assert.True(t, IsCategory(wrapped, ErrorCategoryDataGap))

	assert.False(t, IsCategory(errors.New("plain"), ErrorCategoryDataGap))
	assert.False(t, IsCategory(nil, ErrorCategoryDataGap))
}

func TestWithContext(t *testing.T) {
	err := NewDataGapError("data", "join", "gap").
		WithContext("symbol", "TLT").
		WithContext("rows", 3)

	assert.Equal(t, "TLT", err.Context["symbol"])
	assert.Equal(t, 3, err.Context["rows"])
}

func TestWithMessage(t *testing.T) {
	err := NewDataGapError("data", "join", "gap").WithMessage("no overlap")
	assert.Contains(t, err.Error(), "no overlap")
}
