package types

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below match them with errors.Is.
var (
	ErrMissingSource       = errors.New("missing source")
	ErrMalformedInput      = errors.New("malformed input")
	ErrUnresolvedReference = errors.New("unresolved reference")
)

// MissingSourceError reports a required input that is absent or unreadable.
type MissingSourceError struct {
	Path string
	Err  error
}

func (e *MissingSourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("missing source: %v", e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("missing source %s", e.Path)
	}
	return fmt.Sprintf("missing source %s: %v", e.Path, e.Err)
}

func (e *MissingSourceError) Unwrap() error { return e.Err }

func (e *MissingSourceError) Is(target error) bool { return target == ErrMissingSource }

// MalformedInputError reports a field that is absent or does not parse as its
// semantic type. Record is the 1-based position of the record in its source;
// zero means the error concerns the document as a whole.
type MalformedInputError struct {
	Source string
	Record int
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	msg := "malformed input in " + e.Source
	if e.Record > 0 {
		msg += fmt.Sprintf(" record %d", e.Record)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field %s", e.Field)
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" value %q", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// ReferenceKind names the entity a dangling reference points at.
type ReferenceKind string

const (
	PassengerReference ReferenceKind = "passenger"
	CategoryReference  ReferenceKind = "category"
	RouteReference     ReferenceKind = "route"
)

// UnresolvedReferenceError reports a foreign key with no matching entity.
// It is never fatal: the monthly report drops the payment and the integrity
// check lists it as a warning.
type UnresolvedReferenceError struct {
	Kind ReferenceKind
	ID   int

	// From describes the referencing record, e.g. "passenger 3".
	From string
}

func (e *UnresolvedReferenceError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("unresolved %s reference %d", e.Kind, e.ID)
	}
	return fmt.Sprintf("%s references unknown %s %d", e.From, e.Kind, e.ID)
}

func (e *UnresolvedReferenceError) Is(target error) bool { return target == ErrUnresolvedReference }
