// Package apperr carries the closed error taxonomy shared by the HTTP and
// websocket surfaces. Every orchestration failure maps to exactly one code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Code codes.Code

const (
	// CodeValidation: malformed or missing request fields; the caller must fix
	// the request before retrying.
	CodeValidation = Code(codes.InvalidArgument)
	// CodeNotFound also covers a join attempt that lost the race or targets a
	// full/foreign room. The caller cannot tell which, on purpose.
	CodeNotFound  = Code(codes.NotFound)
	CodeForbidden = Code(codes.PermissionDenied)
	// CodeConflict: valid target, wrong state for the requested transition.
	CodeConflict = Code(codes.FailedPrecondition)
	// CodeEvaluation: the external judge failed or timed out. Distinct from a
	// judged failing verdict, which is not an error at all.
	CodeEvaluation = Code(codes.Unavailable)
	CodeInternal   = Code(codes.Internal)
)

var code2http = map[Code]int{
	CodeValidation: http.StatusBadRequest,
	CodeNotFound:   http.StatusNotFound,
	CodeForbidden:  http.StatusForbidden,
	CodeConflict:   http.StatusConflict,
	CodeEvaluation: http.StatusBadGateway,
	CodeInternal:   http.StatusInternalServerError,
}

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	err     error
}

func New(code Code, opts ...Option) *Error {
	e := &Error{
		Code:    code,
		Message: codes.Code(code).String(),
	}

	for _, opt := range opts {
		opt.apply(e)
	}

	return e
}

func (e *Error) Error() string {
	s := fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
	if e.err != nil {
		s += fmt.Sprintf(", err: %s", e.err)
	}

	return s
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) GRPCStatus() *status.Status {
	return status.New(codes.Code(e.Code), e.Message)
}

func (e *Error) HTTPStatusCode() int {
	if c, ok := code2http[e.Code]; ok {
		return c
	}

	return http.StatusInternalServerError
}

// Convert normalizes any error into an *Error, wrapping unknown errors as
// internal.
func Convert(err error) *Error {
	var e *Error
	if !errors.As(err, &e) {
		return Internal(err)
	}

	return e
}

func Internal(err error) *Error {
	return New(CodeInternal, WithCause(err))
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

type Option interface {
	apply(*Error)
}

type optionFunc func(*Error)

func (f optionFunc) apply(e *Error) {
	f(e)
}

func WithCause(err error) Option {
	return optionFunc(func(e *Error) {
		e.err = err
	})
}

func WithMessagef(format string, args ...any) Option {
	return optionFunc(func(e *Error) {
		e.Message = fmt.Sprintf(format, args...)
	})
}
