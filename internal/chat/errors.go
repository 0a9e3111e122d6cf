package chat

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind is the shared failure taxonomy every adapter maps its backend
// errors onto.
type ErrorKind string

const (
	ErrKindUnauthenticated       ErrorKind = "unauthenticated"
	ErrKindRateLimited           ErrorKind = "rate_limited"
	ErrKindTimeout               ErrorKind = "timeout"
	ErrKindMalformedResponse     ErrorKind = "malformed_response"
	ErrKindNetworkFailure        ErrorKind = "network_failure"
	ErrKindAllProvidersExhausted ErrorKind = "all_providers_exhausted"
)

// ErrEmptyConversation indicates a malformed inbound request. It is the
// only error surfaced to callers before any provider is attempted.
var ErrEmptyConversation = errors.New("chat: conversation must contain at least one user message")

// ProviderError wraps a backend failure with its classified kind and the
// adapter that produced it.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("chat: provider %s failed (%s)", e.Provider, e.Kind)
	}
	return fmt.Sprintf("chat: provider %s failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// KindOf extracts the ErrorKind from an adapter error, classifying raw
// transport errors when the adapter did not wrap them itself.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return classifyTransport(err)
}

// classifyTransport maps context and net errors onto the taxonomy. Anything
// unrecognized counts as a network failure rather than a parse failure,
// since we never saw a response body.
func classifyTransport(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrKindTimeout
	}
	return ErrKindNetworkFailure
}
