// Package internalerr holds the sentinel errors shared across chainer packages.
// Wrap them with errors.Wrapf to add context; check them with errors.Is.
package internalerr

import "github.com/cockroachdb/errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidQuery     = errors.New("invalid query")
	ErrUnsafeRule       = errors.New("unsafe rule")
	ErrDerivationLimit  = errors.New("derivation limit exceeded")
	ErrParse            = errors.New("parse error")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

