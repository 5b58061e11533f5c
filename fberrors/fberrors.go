// Copyright 2026 The pureflashblade-mcp Authors

package fberrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

type ErrorCode uint32

const (
	OK                ErrorCode = 0
	Canceled          ErrorCode = 1
	Unknown           ErrorCode = 2
	InvalidArgument   ErrorCode = 3
	NotFound          ErrorCode = 4
	AlreadyExists     ErrorCode = 5
	PermissionDenied  ErrorCode = 6
	ResourceExhausted ErrorCode = 7
	Aborted           ErrorCode = 8
	Unimplemented     ErrorCode = 9
	Internal          ErrorCode = 10
	DataLoss          ErrorCode = 11
	Unauthenticated   ErrorCode = 12
	Timeout           ErrorCode = 13
	ConnectionFailed  ErrorCode = 14
	_maxCode          ErrorCode = 15
)

const (
	errorMessageInvalidInputParameters = "invalid input parameters"
)

// FlashBladeError is the error type returned by every package in this module
type FlashBladeError struct {
	Code ErrorCode `json:"code"`
	Text string    `json:"text,omitempty"`
}

// NewError takes an array of objects and returns a pointer to a FlashBladeError object.  The
// following input parameters, in any order, are supported:
//     FlashBladeError - FlashBladeError object
//     error           - All other error objects
//     ErrorCode       - error code
//     string          - error text
func NewError(args ...interface{}) *FlashBladeError {

	var fbError *FlashBladeError
	var otherError error
	errorCode := _maxCode
	errorMessage := ""

	for _, arg := range args {
		switch v := arg.(type) {
		case ErrorCode:
			errorCode = v
		case string:
			errorMessage = v
		case FlashBladeError:
			fbError = &v
		case *FlashBladeError:
			fbError = v
		case error:
			otherError = v
		}
	}

	err := &FlashBladeError{Code: _maxCode, Text: ""}

	// Populate the Text property
	if fbError != nil {
		copied := *fbError
		err = &copied
	} else if otherError != nil {
		err.Text = otherError.Error()
	} else if errorMessage != "" {
		err.Text = errorMessage
	}

	// Populate the Code property
	if errorCode < _maxCode {
		err.Code = errorCode
	}

	// If neither an error message or an error code were provided, fail with generic error
	if (err.Code == _maxCode) && (err.Text == "") {
		return &FlashBladeError{Code: Internal, Text: errorMessageInvalidInputParameters}
	}

	if err.Code == _maxCode {
		err.Code = Unknown
	}

	if err.Text == "" {
		err.Text = err.Code.String()
	}

	return err
}

func NewErrorf(c ErrorCode, format string, a ...interface{}) *FlashBladeError {
	return &FlashBladeError{Code: c, Text: fmt.Sprintf(format, a...)}
}

func (e *FlashBladeError) Error() string {
	return fmt.Sprintf("status: %d msg: %s", e.Code, e.Text)
}

// ErrorCode returns the status code contained in FlashBladeError
func (e *FlashBladeError) ErrorCode() ErrorCode {
	if e == nil {
		return OK
	}
	return e.Code
}

// ErrorText returns the text contained in FlashBladeError
func (e *FlashBladeError) ErrorText() string {
	if e == nil {
		return ""
	}
	return e.Text
}

// CodeOf extracts the code from any error; non FlashBladeError values are Unknown,
// context errors map to Canceled/Timeout.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return OK
	}
	var fbErr *FlashBladeError
	if errors.As(err, &fbErr) {
		return fbErr.ErrorCode()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, context.Canceled):
		return Canceled
	}
	return Unknown
}

// TextOf returns the bare message of err without the status prefix
func TextOf(err error) string {
	if err == nil {
		return ""
	}
	var fbErr *FlashBladeError
	if errors.As(err, &fbErr) {
		return fbErr.ErrorText()
	}
	return err.Error()
}

// CodeFromHTTPStatus maps a REST status code returned by the array to an ErrorCode
func CodeFromHTTPStatus(status int) ErrorCode {
	switch {
	case status < http.StatusBadRequest:
		return OK
	case status == http.StatusBadRequest:
		return InvalidArgument
	case status == http.StatusUnauthorized:
		return Unauthenticated
	case status == http.StatusForbidden:
		return PermissionDenied
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusConflict:
		return AlreadyExists
	case status == http.StatusTooManyRequests:
		return ResourceExhausted
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return Timeout
	case status == http.StatusNotImplemented:
		return Unimplemented
	case status >= http.StatusInternalServerError:
		return Internal
	default:
		return Unknown
	}
}

// HTTPStatus is the reverse of CodeFromHTTPStatus, used when serving errors over HTTP
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case OK:
		return http.StatusOK
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists:
		return http.StatusConflict
	case ResourceExhausted:
		return http.StatusTooManyRequests
	case Unimplemented:
		return http.StatusNotImplemented
	case Timeout:
		return http.StatusGatewayTimeout
	case ConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (c ErrorCode) String() string {
	switch c {
	case OK:
		return "OK"
	case Canceled:
		return "Canceled"
	case Unknown:
		return "Unknown"
	case InvalidArgument:
		return "InvalidArgument"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case PermissionDenied:
		return "PermissionDenied"
	case ResourceExhausted:
		return "ResourceExhausted"
	case Aborted:
		return "Aborted"
	case Unimplemented:
		return "Unimplemented"
	case Internal:
		return "Internal"
	case DataLoss:
		return "DataLoss"
	case Unauthenticated:
		return "Unauthenticated"
	case Timeout:
		return "Timeout"
	case ConnectionFailed:
		return "ConnectionFailed"
	default:
		return "Code(" + strconv.FormatInt(int64(c), 10) + ")"
	}
}
