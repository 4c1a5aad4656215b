package fetch

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/macroquant/regime-analyzer/internal/errors"
)

// RetryConfig holds configuration for retry mechanisms
type RetryConfig struct {
	MaxRetries    int           `json:"max_retries"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
	JitterEnabled bool          `json:"jitter_enabled"`
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func() error

// Retry executes a function with exponential backoff. Errors categorized as
// non-retryable (bad API key, malformed response) abort immediately.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == config.MaxRetries {
			break
		}
		if !isRetryable(err) {
			break
		}

		delay := calculateDelay(attempt, config)
		log.Warn().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("request failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// isRetryable treats categorized transient errors as retryable and any
// uncategorized error as permanent.
func isRetryable(err error) bool {
	var ae *apperrors.AnalysisError
	if errors.As(err, &ae) {
		return ae.IsRetryable()
	}
	return false
}

// calculateDelay computes exponential backoff with optional jitter
func calculateDelay(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	if config.JitterEnabled {
		// Up to 25% random jitter to avoid thundering retries
		delay += delay * 0.25 * rand.Float64()
	}
	return time.Duration(delay)
}
