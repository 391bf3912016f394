package replaycache

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable matches every *StoreError.
	ErrStoreUnavailable = errors.New("replaycache: store unavailable")
	// ErrFetch matches every *FetchError.
	ErrFetch = errors.New("replaycache: fetch failed")
	// ErrUnsupportedValue is returned by Store for values other than text, bytes, integers and floats.
	ErrUnsupportedValue = errors.New("replaycache: unsupported value type")
)

// StoreError reports a kv.Store operation that could not complete.
type StoreError struct {
	Op  string // store command, e.g. "set", "incr+rpush"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("replaycache: store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() []error {
	errs := []error{ErrStoreUnavailable}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// DecodeError reports raw bytes that could not be turned into the requested type.
type DecodeError struct {
	Key  string
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("replaycache: decode %q as %s: %v", e.Key, e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FetchError reports a failed fetch of an external resource.
// StatusCode is set when the remote answered with a non-success status.
type FetchError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("replaycache: fetch %q: status %d: %v", e.Resource, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("replaycache: fetch %q: status %d", e.Resource, e.StatusCode)
	default:
		return fmt.Sprintf("replaycache: fetch %q: %v", e.Resource, e.Err)
	}
}

func (e *FetchError) Unwrap() []error {
	errs := []error{ErrFetch}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func storeErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Key: key, Err: err}
}
