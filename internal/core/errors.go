package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure so callers can pick a message without
// parsing error text.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindUpstreamStatus
	KindDecode
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindUpstreamStatus:
		return "upstream_status_error"
	case KindDecode:
		return "decode_error"
	case KindValidation:
		return "validation_error"
	default:
		return "internal_error"
	}
}

var (
	ErrInvalidYear     = errors.New("invalid year")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidDeputyID = errors.New("invalid deputy id")
	ErrMissingEnvelope = errors.New("missing dados envelope")
)

// Error is the tagged error returned by the data-access layer.
type Error struct {
	Kind   ErrorKind
	Op     string
	Status int // upstream HTTP status, only for KindUpstreamStatus
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindUpstreamStatus && e.Err == nil:
		return fmt.Sprintf("%s: upstream status %d", e.Op, e.Status)
	case e.Kind == KindUpstreamStatus:
		return fmt.Sprintf("%s: upstream status %d: %v", e.Op, e.Status, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func NetworkError(op string, err error) error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

func UpstreamStatusError(op string, status int) error {
	return &Error{Kind: KindUpstreamStatus, Op: op, Status: status}
}

func DecodeError(op string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

func ValidationError(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UpstreamStatus returns the status code carried by a KindUpstreamStatus
// error.
func UpstreamStatus(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindUpstreamStatus {
		return e.Status, true
	}
	return 0, false
}

// HTTPStatus maps an error to the status a passthrough endpoint answers with:
// validation is 400, an upstream status is propagated, anything else is 500.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstreamStatus:
		if e.Status >= 400 && e.Status <= 599 {
			return e.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
