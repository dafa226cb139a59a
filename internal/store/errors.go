package store

import (
	"errors"
	"fmt"
)

// Errors returned during client construction.
var (
	// ErrMissingBaseURL indicates the client was constructed without a
	// database URL. This is a startup configuration error: nothing can
	// proceed without a store to talk to.
	ErrMissingBaseURL = errors.New("missing database URL")

	// ErrInvalidBaseURL indicates the configured database URL could not
	// be parsed as an absolute URL.
	ErrInvalidBaseURL = errors.New("invalid database URL")
)

// StatusError is a non-2xx response from the store. The store uses plain
// HTTP status semantics: 401/403 for rule violations, 404 for a bad
// database name, 5xx for service trouble. Absent paths are not errors;
// they read as JSON null.
type StatusError struct {
	Op         string // HTTP method
	Path       string // tree path, without the .json suffix
	StatusCode int
	Body       string // response body, truncated
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: store returned %d", e.Op, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: store returned %d: %s", e.Op, e.Path, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
