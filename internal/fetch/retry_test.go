package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/macroquant/regime-analyzer/internal/errors"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		if attempts < 3 {
			return apperrors.NewAnalysisError(apperrors.ErrorCategoryNetwork, "fetch", "test", "flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	fatal := apperrors.NewConfigError("fetch", "test", "bad api key")

	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts, "configuration errors must not be retried")
}

func TestRetry_PlainErrorsAreNotRetried(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return errors.New("unexpected")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return apperrors.NewAnalysisError(apperrors.ErrorCategoryRateLimit, "fetch", "test", "throttled")
	})

	assert.Error(t, err)
	assert.Equal(t, 4, attempts, "initial attempt plus three retries")
}

func TestRetry_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastRetryConfig(), func() error {
		t.Fatal("function must not run after cancellation")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelay_BackoffAndCap(t *testing.T) {
	config := RetryConfig{
		InitialDelay:  time.Second,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}

	assert.Equal(t, time.Second, calculateDelay(0, config))
	assert.Equal(t, 2*time.Second, calculateDelay(1, config))
	assert.Equal(t, 4*time.Second, calculateDelay(2, config))
	assert.Equal(t, 5*time.Second, calculateDelay(3, config), "delay is capped at MaxDelay")
}

func TestParseStooqCSV(t *testing.T) {
	body := []byte(`Date,Open,High,Low,Close,Volume
2020-01-02,323.54,324.89,322.53,324.87,59151200
2020-01-03,321.16,323.64,321.10,322.41,77709700
bad-date,1,2,3,4,5
2020-01-06,320.00,322.00,319.00,0,100
`)

	bars, err := parseStooqCSV(body, "SPY")
	require.NoError(t, err)
	require.Len(t, bars, 2, "bad dates and non-positive closes are skipped")
	assert.Equal(t, "SPY", bars[0].Symbol)
	assert.InDelta(t, 324.87, bars[0].Close, 1e-9)
}

func TestParseStooqCSV_NoDataResponse(t *testing.T) {
	_, err := parseStooqCSV([]byte("No data"), "XYZ")
	assert.Error(t, err)
}
