package parser

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrNoFields is returned when a provider answered but nothing usable could
// be decoded from its output.
var ErrNoFields = errors.New("parser returned no invoice fields")

// RateLimitError indicates a parser provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// IsRateLimited reports whether err carries a RateLimitError.
func IsRateLimited(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// StatusError builds the error for a non-200 provider response, promoting
// 429 to a RateLimitError.
func StatusError(provider string, status int, body []byte, retryAfter string) error {
	baseErr := fmt.Errorf("%s API error (status %d): %s", provider, status, truncate(string(body), 500))
	if status == 429 {
		return NewRateLimitError(provider, baseErr, ParseRetryAfterHeader(retryAfter))
	}
	return baseErr
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
