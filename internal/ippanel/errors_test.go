package ippanel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline exceeded", err: fmt.Errorf("send: %w", context.DeadlineExceeded), want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "transient provider error", err: &ProviderError{StatusCode: http.StatusBadGateway, Transient: true}, want: true},
		{name: "permanent provider error", err: &ProviderError{StatusCode: http.StatusBadRequest}, want: false},
		{name: "ippanel refusal is final", err: &ProviderError{Outcome: OutcomeRejected, StatusCode: http.StatusOK, Transient: true}, want: false},
		{name: "refusal wrapping a deadline", err: &ProviderError{Outcome: OutcomeRejected, Cause: context.DeadlineExceeded}, want: false},
		{name: "unreached provider", err: &ProviderError{Outcome: OutcomeUnexpected, Transient: true, Cause: timeoutError{}}, want: true},
		{name: "network timeout", err: fmt.Errorf("dial: %w", timeoutError{}), want: true},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsTransient(tt.err); got != tt.want {
				t.Fatalf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	t.Parallel()

	for status, want := range map[int]bool{
		http.StatusBadRequest:          false,
		http.StatusUnauthorized:        false,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
	} {
		if got := isTransientHTTPStatus(status); got != want {
			t.Errorf("isTransientHTTPStatus(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestProviderErrorFormatting(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *ProviderError
		want string
	}{
		{
			name: "rejected",
			err:  &ProviderError{Outcome: OutcomeRejected, StatusCode: http.StatusOK, Message: `ippanel responded with status code 200: "invalid sender"`},
			want: `ippanel sms rejected: ippanel responded with status code 200: "invalid sender"`,
		},
		{
			name: "status only",
			err:  &ProviderError{Outcome: OutcomeTransportFailure, StatusCode: http.StatusBadGateway},
			want: "ippanel sms transport_failure: ippanel responded with status code 502",
		},
		{
			name: "request failure",
			err:  &ProviderError{Outcome: OutcomeUnexpected, Message: "ippanel request failed", Cause: cause},
			want: "ippanel sms unexpected: ippanel request failed: connection refused",
		},
		{
			name: "no outcome",
			err:  &ProviderError{Message: "bad sender"},
			want: "ippanel sms dispatch failed: bad sender",
		},
		{
			name: "non failing outcome",
			err:  &ProviderError{Outcome: OutcomeAccepted, Message: "bad sender"},
			want: "ippanel sms dispatch failed: bad sender",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	if err := (&ProviderError{Cause: cause}); !errors.Is(err, cause) {
		t.Fatal("ProviderError should unwrap to its cause")
	}

	var nilErr *ProviderError
	if nilErr.Error() != "<nil>" || nilErr.Unwrap() != nil {
		t.Fatal("nil ProviderError should be safe to use")
	}
}

func TestStructuralError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("send: %w", &StructuralError{Reason: "notifiable is required"})
	if !errors.Is(err, ErrStructural) {
		t.Fatal("StructuralError should match ErrStructural")
	}
	if !strings.Contains(err.Error(), "notifiable is required") {
		t.Fatalf("Error() = %q", err.Error())
	}
}
