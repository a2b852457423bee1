package e

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrMalformedKey  = errors.New("malformed cache key")
	ErrOriginTimeout = errors.New("origin timed out")
)

// StoreError marks a failure of the cache store itself (unreachable backend,
// corrupt catalog, malformed key). It must never be read as a cache miss.
type StoreError struct {
	Op  string
	Err error
}

func (s *StoreError) Error() string {
	return fmt.Sprintf("store %s: %s", s.Op, s.Err.Error())
}

func (s *StoreError) Unwrap() error { return s.Err }

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StoreError
	if errors.As(err, &existing) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// OriginError is returned when an upstream origin answers with a non-2xx
// status or cannot be reached. StatusCode is 0 for network failures.
type OriginError struct {
	StatusCode int
	Err        error
}

func (o *OriginError) Error() string {
	if o.Err != nil {
		return fmt.Sprintf("origin error (status %d): %s", o.StatusCode, o.Err.Error())
	}
	return fmt.Sprintf("origin error (status %d)", o.StatusCode)
}

func (o *OriginError) Unwrap() error { return o.Err }
