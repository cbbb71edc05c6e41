// Package domainerrors defines code-carrying errors shared by all custody
// domain packages. Services construct these at validation points; the HTTP
// layer translates codes to status responses via ToHTTPStatus.
//
// Every failure carries exactly one code so callers can branch on the kind
// of failure without parsing messages.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the kind of a domain failure.
type Code string

const (
	// CodeUnauthorized means the caller lacks the required role or authority.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidAsset means the asset identifier is empty or malformed.
	CodeInvalidAsset Code = "invalid_asset"
	// CodeInvalidCategory means a participant or carrier category is
	// unrecognized or disallowed for the operation.
	CodeInvalidCategory Code = "invalid_category"
	// CodeDuplicateAsset means the asset identifier is already registered.
	CodeDuplicateAsset Code = "duplicate_asset"
	// CodeUnknownAsset means the asset identifier is not registered.
	CodeUnknownAsset Code = "unknown_asset"
	// CodeNotCurrentHolder means a handover was attempted by someone other
	// than the chain's current holder.
	CodeNotCurrentHolder Code = "not_current_holder"
	// CodeMissingConditions means a handover was attempted before the prior
	// carrier leg's transit conditions were logged.
	CodeMissingConditions Code = "missing_conditions"
	// CodeInvalidConditionsTarget means transit conditions were submitted
	// for anything other than the most recent handover.
	CodeInvalidConditionsTarget Code = "invalid_conditions_target"
	// CodeIndexOutOfRange means a read past the end of the handover log.
	CodeIndexOutOfRange Code = "index_out_of_range"

	// CodeBadRequest covers malformed input at the transport boundary.
	CodeBadRequest Code = "bad_request"
	// CodeInternal covers unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable code and human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or any error in its chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.cause
			continue
		}
		return false
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code carried by err, or CodeInternal when
// err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to an HTTP status for transport handlers.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized, CodeNotCurrentHolder:
		return http.StatusForbidden
	case CodeInvalidAsset, CodeInvalidCategory, CodeBadRequest, CodeInvalidConditionsTarget:
		return http.StatusBadRequest
	case CodeDuplicateAsset:
		return http.StatusConflict
	case CodeUnknownAsset, CodeIndexOutOfRange:
		return http.StatusNotFound
	case CodeMissingConditions:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}
