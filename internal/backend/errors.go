package backend

import (
	"github.com/pkg/errors"
)

var (
	// ErrConnection is returned when the primary backend could not be reached,
	// or the connection was lost while a request was in flight.
	ErrConnection = errors.New("backend connection failed")

	// ErrSandboxInit is returned when the sandbox worker never acknowledged
	// that its toolchain is ready.
	ErrSandboxInit = errors.New("sandbox toolchain failed to initialize")

	// ErrProtocol is returned for malformed messages, or an explicit protocol
	// level error reported by the backend.
	ErrProtocol = errors.New("backend protocol error")

	// ErrTimeout is returned by the primary backend when no message arrived for
	// the in-flight request within the inactivity window.
	ErrTimeout = errors.New("backend request timed out")
)

// IsFallback reports whether the error is one the orchestrator recovers from
// by trying the next backend in the preference order. Protocol and timeout
// errors are deliberately treated the same as connection errors.
func IsFallback(err error) bool {
	switch errors.Cause(err) {
	case ErrConnection, ErrSandboxInit, ErrProtocol, ErrTimeout:
		return true
	default:
		return false
	}
}
