package vcard

import (
	"fmt"
	"strings"
)

// StructureError reports a fragment whose BEGIN:VCARD/END:VCARD framing is
// missing or malformed.
type StructureError struct {
	Reason string
}

func (e *StructureError) Error() string {
	return "vcard: " + e.Reason
}

// MissingRequiredFieldsError reports a fragment lacking the mandatory fields
// for its version. N is required starting at 3.0; VERSION and FN always are.
type MissingRequiredFieldsError struct {
	Version float64
	Found   int
}

func (e *MissingRequiredFieldsError) Error() string {
	return fmt.Sprintf("vcard: one or more required fields are missing (VERSION, N or FN); found %d for version %g", e.Found, e.Version)
}

// UnknownFieldError reports a field name outside the recognized vocabulary
// that is not an X- extension.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("vcard: invalid field found: %q", e.Field)
}

// UnsupportedVersionError reports a VERSION outside {2.1, 3.0, 4.0}, or an
// absent/unparseable one (reported as 0).
type UnsupportedVersionError struct {
	Version float64
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("vcard: unsupported version %g", e.Version)
}

// MalformedFieldError reports a structured field whose positional value has
// more parts than the field can carry.
type MalformedFieldError struct {
	Field string
	Parts int
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("vcard: field %s has %d parts, more than its fixed arity", e.Field, e.Parts)
}

// NoFieldsDecodedError reports a fragment that passed validation yet yielded
// an empty property map. Should be unreachable; kept as a guard.
type NoFieldsDecodedError struct{}

func (e *NoFieldsDecodedError) Error() string {
	return "vcard: no fields decoded"
}

// FragmentError wraps a per-fragment failure with the fragment's position in
// the upload.
type FragmentError struct {
	Index int
	Err   error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("fragment %d: %v", e.Index, e.Err)
}

func (e *FragmentError) Unwrap() error { return e.Err }

// DecodeErrors aggregates every failed fragment of a batch decode. A batch
// with any failed fragment produces no contacts; callers get the full list so
// a UI can enumerate every invalid fragment rather than only the first.
type DecodeErrors []*FragmentError

func (e DecodeErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("vcard: %d fragment(s) failed: %s", len(e), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual fragment errors to errors.Is and errors.As.
func (e DecodeErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, fe := range e {
		errs[i] = fe
	}
	return errs
}
