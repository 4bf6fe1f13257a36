package logbench

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationFailed is returned when a backend rejects its sink setup.
	ErrConfigurationFailed = errors.New("configuration failed")
	// ErrEmitFailed marks a record that could not be queued or written.
	ErrEmitFailed = errors.New("emit failed")
	// ErrFlushTimeout marks a flush that did not complete within the bound.
	ErrFlushTimeout = errors.New("flush timeout")
	// ErrFlushFailed marks a flush that returned an error before the bound.
	ErrFlushFailed = errors.New("flush failed")
	// ErrDisposeFailed marks a failed resource cleanup.
	ErrDisposeFailed = errors.New("dispose failed")
	// ErrVerifyFailed marks an output file that does not match what was emitted.
	ErrVerifyFailed = errors.New("verify failed")

	// ErrNotConfigured is returned by adapters used before Configure.
	ErrNotConfigured = errors.New("adapter not configured")
	// ErrAlreadyConfigured is returned when an adapter is configured twice.
	ErrAlreadyConfigured = errors.New("adapter already configured")
	// ErrDisposed is returned by adapters used after Dispose.
	ErrDisposed = errors.New("adapter disposed")
)

// AdapterError ties a failure of one adapter to its error kind. errors.Is
// matches both the kind sentinel and anything in the wrapped cause chain.
type AdapterError struct {
	Adapter string
	Kind    error
	Err     error
}

// Error formats as "adapter: kind: cause".
func (e *AdapterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Adapter, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Adapter, e.Kind, e.Err)
}

// Unwrap returns the kind and, when set, the cause.
func (e *AdapterError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newAdapterError(adapter string, kind, err error) *AdapterError {
	return &AdapterError{Adapter: adapter, Kind: kind, Err: err}
}

// KindName returns the short name of an error kind sentinel.
func KindName(kind error) string {
	switch {
	case errors.Is(kind, ErrConfigurationFailed):
		return "ConfigurationFailed"
	case errors.Is(kind, ErrEmitFailed):
		return "EmitFailed"
	case errors.Is(kind, ErrFlushTimeout):
		return "FlushTimeout"
	case errors.Is(kind, ErrFlushFailed):
		return "FlushFailed"
	case errors.Is(kind, ErrDisposeFailed):
		return "DisposeFailed"
	case errors.Is(kind, ErrVerifyFailed):
		return "VerifyFailed"
	default:
		return "Unknown"
	}
}
