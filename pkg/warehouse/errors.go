package warehouse

import (
	"errors"
	"fmt"
)

var ErrInvalidIdentifier = errors.New("invalid identifier")

// ConnectionError is fatal to a session: the caller must report it and stop
// instead of continuing without a handle.
type ConnectionError struct {
	Account string
	Op      string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("warehouse %s failed for account %q: %v", e.Op, e.Account, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
