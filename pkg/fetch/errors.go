package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind categorizes fetch errors for retry handling.
type Kind string

const (
	// KindTransient covers network failures and 5xx-equivalent responses.
	// Retried with exponential backoff up to the attempt budget.
	KindTransient Kind = "transient"

	// KindRateLimit covers quota-exhausted responses. Retried after the
	// quota window refreshes without charging the attempt budget.
	KindRateLimit Kind = "rate_limited"

	// KindPermanent covers not-found and unauthorized responses. Never
	// retried; surfaced per-key without failing sibling keys.
	KindPermanent Kind = "permanent"
)

// Error carries the classification needed by the retry loop.
type Error struct {
	Kind       Kind
	Message    string
	Status     int
	RetryAfter time.Duration
	wrapped    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.wrapped }

// NewError builds a classified fetch error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError classifies an existing error. Errors that already carry a
// classification keep it.
func WrapError(err error, kind Kind) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Kind: kind, Message: err.Error(), wrapped: err}
}

// StatusError builds a classified error from an HTTP response status.
func StatusError(status int, header http.Header, message string) *Error {
	e := &Error{
		Kind:    ClassifyResponse(status, header),
		Message: message,
		Status:  status,
	}
	if e.Kind == KindRateLimit {
		e.RetryAfter = retryAfterHeader(header)
	}
	return e
}

func classify(kind Kind) func(error) bool {
	return func(err error) bool {
		if err == nil {
			return false
		}
		var fe *Error
		if errors.As(err, &fe) {
			return fe.Kind == kind
		}
		return false
	}
}

// Predicates used by the retry loop and by callers recording per-key outcomes.
var (
	IsTransient = classify(KindTransient)
	IsRateLimit = classify(KindRateLimit)
	IsPermanent = classify(KindPermanent)
)

// RetryAfter extracts the server-provided retry hint, if any.
func RetryAfter(err error) time.Duration {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.RetryAfter
	}
	return 0
}

// ClassifyResponse maps an HTTP status to an error kind. A 403 is ambiguous
// between forbidden and quota-exhausted for some services; it counts as a
// rate limit only when the response carries a Retry-After header or reports
// zero remaining quota, otherwise it is permanent.
func ClassifyResponse(status int, header http.Header) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusForbidden:
		if header.Get("Retry-After") != "" || header.Get("X-RateLimit-Remaining") == "0" {
			return KindRateLimit
		}
		return KindPermanent
	case status == http.StatusRequestTimeout:
		return KindTransient
	case status >= 500:
		return KindTransient
	case status >= 400:
		return KindPermanent
	default:
		return KindTransient
	}
}

func retryAfterHeader(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if d, err := time.ParseDuration(value + "s"); err == nil {
		return d
	}
	return 0
}
