package genome

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ServiceError.
type ErrorKind int

const (
	// Unavailable covers transport failures, non-success status codes and
	// malformed payloads.
	Unavailable ErrorKind = iota
	// NotFound means the requested entity does not exist upstream.
	NotFound
)

func (k ErrorKind) String() string {
	switch k {
	case Unavailable:
		return "Unavailable"
	case NotFound:
		return "NotFound"
	}
	return "Unknown"
}

// Sentinels for errors.Is.
var (
	ErrUnavailable = errors.New("genome service unavailable")
	ErrNotFound    = errors.New("not found")
)

// TruncationWarning prefixes the non-fatal message reported when the service
// serves a narrower range than requested.
const TruncationWarning = "range truncated"

// ServiceError is returned by every failing Client operation.
type ServiceError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is matches the ErrUnavailable and ErrNotFound sentinels by kind.
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return e.Kind == Unavailable
	case ErrNotFound:
		return e.Kind == NotFound
	}
	return false
}

func unavailable(op string, err error) error {
	return &ServiceError{Kind: Unavailable, Op: op, Err: err}
}

func notFound(op string, err error) error {
	return &ServiceError{Kind: NotFound, Op: op, Err: err}
}
