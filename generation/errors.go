package generation

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrBackendUnavailable matches backend errors caused by outages, throttling or
	// network failures.
	ErrBackendUnavailable = errors.New("generation backend unavailable")

	// ErrPromptRejected matches backend errors caused by the request itself.
	ErrPromptRejected = errors.New("generation backend rejected the prompt")

	// ErrUnknownBackend is returned by New for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown generation backend")

	// ErrDispatcherStopped is returned when submitting to a stopped dispatcher.
	ErrDispatcherStopped = errors.New("generation dispatcher stopped")
)

// Kind classifies a backend failure.
type Kind int

const (
	// KindUnavailable failures are transient and may be retried.
	KindUnavailable Kind = iota
	// KindRejected failures are terminal for the request.
	KindRejected
)

func (k Kind) String() string {
	if k == KindRejected {
		return "rejected"
	}
	return "unavailable"
}

// BackendError describes a failed call to a generation backend. StatusCode is 0
// when no response was received.
type BackendError struct {
	Backend    string
	StatusCode int
	Message    string
	Kind       Kind
}

func (e *BackendError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s backend %s: %s", e.Backend, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s backend %s: status %d: %s", e.Backend, e.Kind, e.StatusCode, e.Message)
}

// Is lets callers match on ErrBackendUnavailable and ErrPromptRejected.
func (e *BackendError) Is(target error) bool {
	switch target {
	case ErrBackendUnavailable:
		return e.Kind == KindUnavailable
	case ErrPromptRejected:
		return e.Kind == KindRejected
	}
	return false
}

// KindForStatus maps an HTTP status code to a failure kind.
func KindForStatus(status int) Kind {
	if status == 0 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500 {
		return KindUnavailable
	}
	return KindRejected
}

// IsRetryable reports whether err is a transient backend failure.
func IsRetryable(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Kind == KindUnavailable
}

func unavailable(backend string, err error) *BackendError {
	return &BackendError{Backend: backend, Message: err.Error(), Kind: KindUnavailable}
}

func rejected(backend string, status int, msg string) *BackendError {
	return &BackendError{Backend: backend, StatusCode: status, Message: msg, Kind: KindRejected}
}

func statusError(backend string, status int, msg string) *BackendError {
	return &BackendError{Backend: backend, StatusCode: status, Message: msg, Kind: KindForStatus(status)}
}
