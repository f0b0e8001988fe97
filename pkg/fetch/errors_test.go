package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test the status-to-kind classification mapping, including the ambiguous
// 403 rule
func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		header   http.Header
		expected Kind
	}{
		{
			name:     "429 is a rate limit",
			status:   http.StatusTooManyRequests,
			expected: KindRateLimit,
		},
		{
			name:     "bare 403 is permanent",
			status:   http.StatusForbidden,
			expected: KindPermanent,
		},
		{
			name:     "403 with retry-after is a rate limit",
			status:   http.StatusForbidden,
			header:   http.Header{"Retry-After": {"60"}},
			expected: KindRateLimit,
		},
		{
			name:     "403 with zero remaining quota is a rate limit",
			status:   http.StatusForbidden,
			header:   http.Header{"X-Ratelimit-Remaining": {"0"}},
			expected: KindRateLimit,
		},
		{
			name:     "403 with remaining quota is permanent",
			status:   http.StatusForbidden,
			header:   http.Header{"X-Ratelimit-Remaining": {"42"}},
			expected: KindPermanent,
		},
		{
			name:     "404 is permanent",
			status:   http.StatusNotFound,
			expected: KindPermanent,
		},
		{
			name:     "401 is permanent",
			status:   http.StatusUnauthorized,
			expected: KindPermanent,
		},
		{
			name:     "408 is transient",
			status:   http.StatusRequestTimeout,
			expected: KindTransient,
		},
		{
			name:     "500 is transient",
			status:   http.StatusInternalServerError,
			expected: KindTransient,
		},
		{
			name:     "503 is transient",
			status:   http.StatusServiceUnavailable,
			expected: KindTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := tt.header
			if header == nil {
				header = http.Header{}
			}
			assert.Equal(t, tt.expected, ClassifyResponse(tt.status, header))
		})
	}
}

// Test the classification predicates against wrapped errors
func TestPredicates(t *testing.T) {
	transient := NewError(KindTransient, "connection reset")
	rateLimited := NewError(KindRateLimit, "quota exhausted")
	permanent := NewError(KindPermanent, "not found")

	assert.True(t, IsTransient(transient))
	assert.False(t, IsTransient(rateLimited))

	assert.True(t, IsRateLimit(rateLimited))
	assert.False(t, IsRateLimit(permanent))

	assert.True(t, IsPermanent(permanent))
	assert.False(t, IsPermanent(transient))

	// Wrapped errors keep their classification
	wrapped := fmt.Errorf("fetching user: %w", permanent)
	assert.True(t, IsPermanent(wrapped))

	// Unclassified errors match nothing
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsPermanent(nil))
}

// Test that StatusError extracts the retry-after hint on rate limits
func TestStatusError_RetryAfter(t *testing.T) {
	header := http.Header{"Retry-After": {"2"}}
	err := StatusError(http.StatusTooManyRequests, header, "too many requests")

	assert.Equal(t, KindRateLimit, err.Kind)
	assert.Equal(t, "2s", RetryAfter(err).String())
}

// Test that WrapError preserves existing classifications
func TestWrapError(t *testing.T) {
	original := NewError(KindRateLimit, "quota exhausted")
	rewrapped := WrapError(original, KindTransient)

	assert.Equal(t, KindRateLimit, rewrapped.Kind)
	assert.Nil(t, WrapError(nil, KindTransient))
}
