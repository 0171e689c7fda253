package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindUpstream   Kind = "UpstreamError"
	KindParse      Kind = "ParseError"
	KindSchema     Kind = "SchemaError"
	KindNotFound   Kind = "NotFoundError"
	KindForbidden  Kind = "ForbiddenError"
	KindInternal   Kind = "InternalError"
)

const (
	MsgMissingCreateFields = "Missing input or userId"
	MsgMissingFields       = "Missing fields"
	MsgEntryNotFound       = "Entry not found"
	MsgParseFailed         = "Failed to parse AI response"
	MsgUpstreamFailed      = "AI provider request failed"
	MsgForbidden           = "Forbidden"
	MsgServerError         = "Server error"
)

// Error is what services return across the HTTP boundary. Message is safe to
// show clients; Err holds the cause and is only logged.
type Error struct {
	Status  int
	Code    string
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	case e.Err != nil:
		return e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	case e.Status != 0:
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Kind: KindInternal, Message: MsgServerError, Err: err}
}

func Validation(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "validation_failed", Kind: KindValidation, Message: msg}
}

func Upstream(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "upstream_failed", Kind: KindUpstream, Message: MsgUpstreamFailed, Err: err}
}

func Parse(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "parse_failed", Kind: KindParse, Message: MsgParseFailed, Err: err}
}

func Schema(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "schema_failed", Kind: KindSchema, Message: MsgParseFailed, Err: err}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Kind: KindNotFound, Message: msg}
}

func Forbidden() *Error {
	return &Error{Status: http.StatusForbidden, Code: "forbidden", Kind: KindForbidden, Message: MsgForbidden}
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "internal", err)
}

// Public maps any error onto the status and client message it should produce.
func Public(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		msg := ae.Message
		if msg == "" {
			msg = MsgServerError
		}
		return status, msg
	}
	return http.StatusInternalServerError, MsgServerError
}

// KindOf returns the taxonomy kind, defaulting to KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) && ae != nil && ae.Kind != "" {
		return ae.Kind
	}
	return KindInternal
}
