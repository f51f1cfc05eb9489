package static

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden indicates a target resolving outside the served root
	ErrForbidden = errors.New("static: path outside served root")

	// ErrNotFound indicates a target with no file behind it
	ErrNotFound = errors.New("static: file not found")
)

// ResolveError carries the request target and the file it resolved to.
type ResolveError struct {
	Op     string
	Target string
	Path   string
	Err    error
}

func (e *ResolveError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("static: %s %q (%s): %v", e.Op, e.Target, e.Path, e.Err)
	}
	return fmt.Sprintf("static: %s %q: %v", e.Op, e.Target, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
