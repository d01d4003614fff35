package icontheme

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is the sentinel wrapped by NotFoundError, for errors.Is
// checks without caring about the requested names.
var ErrNotFound = errors.New("icon not present")

// ErrInvalidRequest marks caller contract violations: conflicting flags,
// non-positive size or scale, or an empty name list.
var ErrInvalidRequest = errors.New("invalid icon request")

// NotFoundError reports that no theme directory, unthemed fallback, or
// builtin icon matched any of the candidate names.
type NotFoundError struct {
	Names []string
	Theme string
}

func (e *NotFoundError) Error() string {
	if e.Theme != "" {
		return fmt.Sprintf("icon %q not present in theme %s", strings.Join(e.Names, ", "), e.Theme)
	}
	return fmt.Sprintf("icon %q not present", strings.Join(e.Names, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// LoadError wraps a codec or filesystem failure while rendering a
// resolved icon. The underlying error is surfaced unchanged via Unwrap.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load icon %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
