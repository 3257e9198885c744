package services

import (
	"errors"
	"fmt"
)

// FailureKind classifies why an upstream call produced no usable data.
type FailureKind int

const (
	NetworkFailure FailureKind = iota + 1
	NonSuccessStatus
	UnparsableBody
	InvalidValue
	SchemaViolation
	MissingCredential
)

func (k FailureKind) String() string {
	switch k {
	case NetworkFailure:
		return "network_failure"
	case NonSuccessStatus:
		return "non_success_status"
	case UnparsableBody:
		return "unparsable_body"
	case InvalidValue:
		return "invalid_value"
	case SchemaViolation:
		return "schema_violation"
	case MissingCredential:
		return "missing_credential"
	default:
		return "unknown"
	}
}

// FetchError is the Unavailable outcome of every upstream call.
type FetchError struct {
	Kind   FailureKind
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (%d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches another *FetchError by kind, so errors.Is(err, ErrMissingCredential)
// works for any operation.
func (e *FetchError) Is(target error) bool {
	t, ok := target.(*FetchError)
	if !ok {
		return false
	}
	return t.Op == "" && t.Kind == e.Kind
}

var (
	ErrNetworkFailure    = &FetchError{Kind: NetworkFailure}
	ErrNonSuccessStatus  = &FetchError{Kind: NonSuccessStatus}
	ErrUnparsableBody    = &FetchError{Kind: UnparsableBody}
	ErrInvalidValue      = &FetchError{Kind: InvalidValue}
	ErrSchemaViolation   = &FetchError{Kind: SchemaViolation}
	ErrMissingCredential = &FetchError{Kind: MissingCredential}
)

func failure(op string, kind FailureKind, err error) *FetchError {
	return &FetchError{Op: op, Kind: kind, Err: err}
}

// KindOf returns the failure kind carried by err, or 0.
func KindOf(err error) FailureKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}
