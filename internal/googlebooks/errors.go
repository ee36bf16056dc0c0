package googlebooks

import (
	"errors"
	"fmt"
)

// Sentinel errors for Google Books API operations.
var (
	ErrNotFound    = errors.New("googlebooks: not found")
	ErrRateLimited = errors.New("googlebooks: rate limited by server")
	ErrBadRequest  = errors.New("googlebooks: bad request")
	ErrServer      = errors.New("googlebooks: server error")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op    string // "volumes"
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("googlebooks %s [%s]: %v", e.Op, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, query string, err error) error {
	return &Error{Op: op, Query: query, Err: err}
}
