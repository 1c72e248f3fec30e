package race

import (
	"errors"
	"fmt"
)

var (
	// ErrRenderUnavailable is returned by renderer factories when no 3D
	// capability exists. It aborts Initialize.
	ErrRenderUnavailable = errors.New("3D rendering unavailable")

	ErrAlreadyInitialized = errors.New("session already initialized")
	ErrDestroyed          = errors.New("session destroyed")
)

// InitError is a fatal initialization failure. The caller may show it to the
// user and retry with a fresh session.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a new session may succeed. Only a destroyed
// session is final.
func (e *InitError) Retryable() bool {
	return !errors.Is(e.Err, ErrDestroyed)
}
