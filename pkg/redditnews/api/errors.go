package api

import (
	"errors"
	"fmt"
)

// ErrBadRequest is matched by every *BadRequestError.
var ErrBadRequest = errors.New("api: malformed process request")

var (
	errMissing  = errors.New("missing")
	errNotCount = errors.New("not a non-negative integer")
)

// BadRequestError reports a form field that is missing or malformed.
type BadRequestError struct {
	Field string
	Err   error
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("api: field %s: %v", e.Field, e.Err)
}

func (e *BadRequestError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrBadRequest) match.
func (e *BadRequestError) Is(target error) bool {
	return target == ErrBadRequest
}

// FetchError wraps a failure of the Fetcher.
type FetchError struct {
	Target string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("api: fetch %s: %v", e.Target, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
