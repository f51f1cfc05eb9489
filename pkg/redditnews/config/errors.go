package config

import (
	"errors"
	"fmt"
)

// ErrUsage is returned when the command line cannot be parsed.
var ErrUsage = errors.New("config: usage: reddit-news <port> <directory> [-c[duration]]")

// KeyError reports a configuration value that failed to decode.
type KeyError struct {
	Key   string
	Value string
	Err   error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("config: key %q (value %q): %v", e.Key, e.Value, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// IntegrityError reports packaged defaults that no longer hash to the
// canonical value.
type IntegrityError struct {
	Want string
	Got  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("config: default configuration hash mismatch: want %s, got %s", e.Want, e.Got)
}
