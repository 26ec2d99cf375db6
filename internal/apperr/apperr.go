// Package apperr defines the error taxonomy shared by every tandem component.
//
// Each failure carries a Kind that the transports map to a status code. The
// wrapped cause stays reachable through errors.Unwrap so provider details
// survive for logging.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindTranscription       Kind = "transcription"
	KindModelCall           Kind = "model_call"
	KindSynthesis           Kind = "synthesis"
	KindInvalidSession      Kind = "invalid_session"
	KindUnsupportedProvider Kind = "unsupported_provider"
	KindInvalidRequest      Kind = "invalid_request"
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrTranscription       = &Error{Kind: KindTranscription}
	ErrModelCall           = &Error{Kind: KindModelCall}
	ErrSynthesis           = &Error{Kind: KindSynthesis}
	ErrInvalidSession      = &Error{Kind: KindInvalidSession}
	ErrUnsupportedProvider = &Error{Kind: KindUnsupportedProvider}
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest}
)

// Error is a classified failure.
type Error struct {
	Kind Kind
	// Op names the operation that failed (e.g. "tutor.comment").
	Op  string
	Err error
}

// New wraps err under kind. A nil err is allowed; the Op then serves as message.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the outermost classified error in err's chain,
// or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Ensure classifies err as kind unless it already carries a Kind.
func Ensure(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	return New(kind, op, err)
}

// HTTPStatus maps an error to the status code the HTTP boundary returns.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidSession, KindInvalidRequest, KindUnsupportedProvider:
		return http.StatusBadRequest
	case KindTranscription, KindModelCall, KindSynthesis:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
