package errors

import (
	"errors"
	"fmt"
)

var ErrAccessToken = fmt.Errorf("access token error")
var ErrBadResponse = fmt.Errorf("bad response")
var ErrCapability = fmt.Errorf("operation not supported")
var ErrClientNotAttached = fmt.Errorf("no http client attached")
var ErrDecode = fmt.Errorf("decode error")
var ErrInternal = fmt.Errorf("internal error")
var ErrNotFound = fmt.Errorf("not found")
var ErrParameter = fmt.Errorf("missing parameter")
var ErrRequest = fmt.Errorf("request error")
var ErrValidation = fmt.Errorf("validation failed")

type myError struct {
	msg    string
	target error
}

func (m myError) Error() string        { return m.msg }
func (m myError) Is(target error) bool { return target == m.target }

func NewCapabilityError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrCapability,
	}
}

func NewNotFoundError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrNotFound,
	}
}

func NewParameterError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrParameter,
	}
}

func NewValidationError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrValidation,
	}
}

// AccessTokenError is returned whenever a bearer token could not be acquired.
// The underlying cause, if any, is available through errors.Unwrap.
type AccessTokenError struct {
	msg   string
	cause error
}

func NewAccessTokenError(msg string, cause error) *AccessTokenError {
	return &AccessTokenError{msg: msg, cause: cause}
}

func (e *AccessTokenError) Error() string {
	if e.cause != nil && e.msg == "" {
		return e.cause.Error()
	}
	return e.msg
}

func (e *AccessTokenError) Is(target error) bool { return target == ErrAccessToken }
func (e *AccessTokenError) Unwrap() error        { return e.cause }

// BadResponseError carries the status code and raw body of a response that
// was neither 200 nor 201.
type BadResponseError struct {
	StatusCode int
	Body       string
}

func NewBadResponseError(code int, body []byte) *BadResponseError {
	return &BadResponseError{StatusCode: code, Body: string(body)}
}

func (e *BadResponseError) Error() string {
	return fmt.Sprintf("unexpected response code %d: %s", e.StatusCode, e.Body)
}

func (e *BadResponseError) Is(target error) bool { return target == ErrBadResponse }

// ClientError is the single error kind surfaced by the http client. It keeps
// the original error chain so callers can still match on the cause.
type ClientError struct {
	Code int
	err  error
}

func NewClientError(code int, err error) *ClientError {
	return &ClientError{Code: code, err: err}
}

func (e *ClientError) Error() string { return e.err.Error() }
func (e *ClientError) Unwrap() error { return e.err }

// StatusCode returns the http status code carried by err, or 0 when err did
// not originate from a received response.
func StatusCode(err error) int {
	var bre *BadResponseError
	if errors.As(err, &bre) {
		return bre.StatusCode
	}

	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Code
	}

	return 0
}
