package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable covers transport failures, timeouts and non-2xx responses.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderProtocol means a response arrived but did not have the expected shape.
	ErrProviderProtocol = errors.New("provider protocol error")
)

type ProviderErrorKind int

const (
	ProviderErrorUnavailable ProviderErrorKind = iota + 1
	ProviderErrorProtocol
)

func (k ProviderErrorKind) String() string {
	switch k {
	case ProviderErrorUnavailable:
		return "unavailable"
	case ProviderErrorProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// ProviderError is the single error type returned by provider clients.
// errors.Is matches it against ErrProviderUnavailable / ErrProviderProtocol by Kind.
type ProviderError struct {
	Kind       ProviderErrorKind
	Op         string // "list_countries", "list_numbers", "fetch_inbox"
	StatusCode int    // HTTP status when one was received
	Err        error
}

func NewUnavailableError(op string, statusCode int, err error) *ProviderError {
	return &ProviderError{Kind: ProviderErrorUnavailable, Op: op, StatusCode: statusCode, Err: err}
}

func NewProtocolError(op string, err error) *ProviderError {
	return &ProviderError{Kind: ProviderErrorProtocol, Op: op, Err: err}
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s (%s)", e.Kind, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrProviderUnavailable:
		return e.Kind == ProviderErrorUnavailable
	case ErrProviderProtocol:
		return e.Kind == ProviderErrorProtocol
	}
	return false
}
