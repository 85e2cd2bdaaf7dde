package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey means neither the config file, the environment nor
	// the env file supplied a key.
	ErrMissingAPIKey = errors.New("api key is required (set " + APIKeyEnv + " or llm.token)")
	ErrInvalid       = errors.New("invalid value")
)

// Error is a configuration failure tied to a single key.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalid(field, value string) error {
	return &Error{Field: field, Err: fmt.Errorf("%w: %q", ErrInvalid, value)}
}
