package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled is returned when a reduction is stopped by its context before
// every record was built. It wraps the context error.
var ErrCancelled = errors.New("cancelled")

// FormatError reports a version label that cannot be turned into a weight.
// ID is set once the label is traced back to the identifier it came from.
type FormatError struct {
	ID    string
	Label string
	Err   error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("invalid version label %q", e.Label)
	if e.ID != "" {
		msg = fmt.Sprintf("identifier %q: %s", e.ID, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// MalformedIdentifierError reports an identifier whose name does not follow
// any known naming scheme.
type MalformedIdentifierError struct {
	ID     string
	Tokens int
	Reason string
}

func (e *MalformedIdentifierError) Error() string {
	msg := fmt.Sprintf("malformed identifier %q (%d tokens)", e.ID, e.Tokens)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// UnreadableSourceError reports that metadata could not be read for an
// identifier.
type UnreadableSourceError struct {
	ID  string
	Err error
}

func (e *UnreadableSourceError) Error() string {
	return fmt.Sprintf("reading metadata for %q: %v", e.ID, e.Err)
}

func (e *UnreadableSourceError) Unwrap() error {
	return e.Err
}

// NoCriteriaSuppliedError is returned by the enumerator when it is called
// without any search constraint.
type NoCriteriaSuppliedError struct {
	Accepted []string
}

func (e *NoCriteriaSuppliedError) Error() string {
	return "no search criteria provided; provide search constraints such as: " + strings.Join(e.Accepted, ", ")
}

// IdentifierOf returns the identifier carried by a record-building error, or
// "" when err is not one of them.
func IdentifierOf(err error) string {
	var malformed *MalformedIdentifierError
	if errors.As(err, &malformed) {
		return malformed.ID
	}
	var unreadable *UnreadableSourceError
	if errors.As(err, &unreadable) {
		return unreadable.ID
	}
	var format *FormatError
	if errors.As(err, &format) {
		return format.ID
	}
	return ""
}
