package fits

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// The error taxonomy is closed and flat: each member below is a
// concrete type satisfying error, carries the structured fields spec.md
// §7 calls for (offset, keyword name, axis index, or offending bytes),
// and formats deterministically so tests can assert on the rendered
// message. Nothing in this package wraps one of these in another kind
// from the list; a caller that needs to distinguish a cause uses
// errors.As against the concrete type.

// InvalidCardBytesError reports a card containing a byte outside the
// legal printable range 0x20..0x7E.
type InvalidCardBytesError struct {
	Offset int
}

func (e *InvalidCardBytesError) Error() string {
	return fmt.Sprintf("fits: invalid card bytes at offset %d", e.Offset)
}

// InvalidValueError reports a value zone that does not parse under any
// recognized grammar variant.
type InvalidValueError struct {
	Key string
	Raw string
}

func (e *InvalidValueError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("fits: invalid value for %s: %q", e.Key, e.Raw)
	}
	return fmt.Sprintf("fits: invalid value: %q", e.Raw)
}

// MissingKeywordError reports an HDU whose header lacks a keyword
// mandatory for its class.
type MissingKeywordError struct {
	Name string
}

func (e *MissingKeywordError) Error() string {
	return fmt.Sprintf("fits: missing mandatory keyword %s", e.Name)
}

// InvalidHeaderError reports a header fault that MissingKeywordError
// does not already cover: NAXIS out of range, a mandatory keyword with
// a disallowed value, a malformed keyword name, NAXIS1 disagreeing with
// the TFORM widths, overlapping ASCII fields, or a column index out of
// range. Keyword order and duplicate keywords are not checked.
type InvalidHeaderError struct {
	Reason string
}

func (e *InvalidHeaderError) Error() string {
	return fmt.Sprintf("fits: invalid header: %s", e.Reason)
}

// InvalidBitpixError reports an out-of-range BITPIX value.
type InvalidBitpixError struct {
	Value int64
}

func (e *InvalidBitpixError) Error() string {
	return fmt.Sprintf("fits: invalid BITPIX value %d", e.Value)
}

// UnsupportedTFormError reports a TFORMn string that does not match the
// binary or ASCII table grammar.
type UnsupportedTFormError struct {
	Raw string
}

func (e *UnsupportedTFormError) Error() string {
	return fmt.Sprintf("fits: unsupported TFORM %q", e.Raw)
}

// UnsupportedExtensionError reports a typed read on an HDU whose kind
// that read does not handle: an image read on an unclassified
// extension, or a binary/ASCII column read on any HDU that is not that
// table kind. XTension carries the HDU's XTENSION value ("" for a
// primary HDU).
type UnsupportedExtensionError struct {
	XTension string
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("fits: unsupported extension %q", e.XTension)
}

// UnexpectedEOFError reports a data-unit short read.
type UnexpectedEOFError struct {
	Expected int
	Actual   int
}

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("fits: unexpected EOF: expected %d bytes, got %d", e.Expected, e.Actual)
}

// HeapOutOfRangeError reports a P/Q descriptor that addresses bytes
// outside the binary table's heap.
type HeapOutOfRangeError struct {
	Offset, NElem, HeapSize int
}

func (e *HeapOutOfRangeError) Error() string {
	return fmt.Sprintf("fits: heap descriptor [offset=%d nelem=%d] out of range (heap size %d)",
		e.Offset, e.NElem, e.HeapSize)
}

// RegionOutOfBoundsError reports a sub-region request whose bounds
// violate 0 <= lo <= hi <= NAXISn for some axis.
type RegionOutOfBoundsError struct {
	Axis   int
	Lo, Hi int
	NAxis  int
}

func (e *RegionOutOfBoundsError) Error() string {
	return fmt.Sprintf("fits: region out of bounds on axis %d: [%d,%d) vs NAXIS=%d",
		e.Axis, e.Lo, e.Hi, e.NAxis)
}

// IntegrityViolationError reports a computed data-unit size inconsistent
// with the file length or declared axis product.
type IntegrityViolationError struct {
	Reason string
	cause  error
}

func (e *IntegrityViolationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("fits: integrity violation: %s: %s", e.Reason, e.cause)
	}
	return fmt.Sprintf("fits: integrity violation: %s", e.Reason)
}

// Unwrap exposes the underlying cause, if any, to errors.Is/errors.As.
func (e *IntegrityViolationError) Unwrap() error {
	return e.cause
}

// HeaderValidationError accumulates every mandatory-keyword violation
// found for a single HDU, per spec.md §4.3/§7: validation runs after a
// full header parse rather than aborting on the first bad keyword, so
// diagnostics can report the complete list at once. It is built on
// hashicorp/go-multierror, whose default formatter lists errors in
// insertion order, which keeps Error() deterministic for tests.
type HeaderValidationError struct {
	HDUIndex int
	errs     *multierror.Error
}

// Add appends a violation (expected to be one of the flat taxonomy
// members above) to the set of errors for this HDU.
func (e *HeaderValidationError) Add(err error) {
	e.errs = multierror.Append(e.errs, err)
}

// HasErrors reports whether any violation has been recorded.
func (e *HeaderValidationError) HasErrors() bool {
	return e.errs != nil && e.errs.Len() > 0
}

// Unwrap exposes the individual violations to errors.Is/errors.As.
func (e *HeaderValidationError) Unwrap() []error {
	if e.errs == nil {
		return nil
	}
	return e.errs.Errors
}

func (e *HeaderValidationError) Error() string {
	if e.errs == nil {
		return fmt.Sprintf("fits: HDU %d: no header violations", e.HDUIndex)
	}
	return fmt.Sprintf("fits: HDU %d header validation failed: %s", e.HDUIndex, e.errs.Error())
}

// wrapIntegrity converts an unexpected internal bounds/arithmetic error
// encountered while computing a data-unit span into an
// IntegrityViolationError. The cause is kept both in Error()'s rendered
// message (deterministic: it is the cause's own Error() string, not a
// stack trace) and, via pkg/errors, as a StackTrace()-capable value
// reachable through errors.Unwrap for callers that want %+v diagnostics
// without that detail polluting the taxonomy's own deterministic output.
func wrapIntegrity(reason string, cause error) *IntegrityViolationError {
	if cause == nil {
		return &IntegrityViolationError{Reason: reason}
	}
	return &IntegrityViolationError{Reason: reason, cause: errors.WithStack(cause)}
}
