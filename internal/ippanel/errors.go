package ippanel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	ErrAPIKeyMissing       = errors.New("ippanel api key is missing or not configured")
	ErrSenderNumberMissing = errors.New("ippanel sender number is missing or not configured")
	ErrInvalidEndpoint     = errors.New("invalid ippanel endpoint")
	ErrStructural          = errors.New("ippanel channel misuse")
)

// StructuralError reports a programming error in how the channel was called.
// It is never the result of provider behaviour.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", ErrStructural.Error(), e.Reason)
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// ProviderError describes a dispatch IPPanel did not accept. Outcome tells
// whether IPPanel answered and refused the message (OutcomeRejected), answered
// with a failing status or unreadable body (OutcomeTransportFailure), or was
// never reached (OutcomeUnexpected).
type ProviderError struct {
	Outcome    Outcome
	StatusCode int
	Message    string
	Body       string
	Transient  bool
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}

	prefix := "ippanel sms dispatch failed"
	if e.Outcome.IsValid() && e.Outcome.Failed() {
		prefix = "ippanel sms " + strings.ToLower(e.Outcome.String())
	}

	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.StatusCode > 0 {
		msg = fmt.Sprintf("ippanel responded with status code %d", e.StatusCode)
	}

	parts := []string{prefix}
	if msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsTransient reports whether sending the same SMS again could succeed.
// An explicit IPPanel refusal (status not OK or code not 200) is final;
// rate limiting, 5xx answers and timeouts are not. The channel itself never
// retries.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) && providerErr.Outcome == OutcomeRejected {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if providerErr != nil {
		return providerErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}
