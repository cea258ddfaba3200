package ruwuma

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// Marshaling errors. They are wrapped with fmt.Errorf and %w when context is
// needed, so test for them with errors.Is.
var (
	ErrNoMatchingVersion      = errors.New("no matching version")
	ErrMissingCredential      = errors.New("missing credential")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrMalformedPath          = errors.New("malformed path")
	ErrQueryDecoding          = errors.New("query decoding failed")
	ErrBodyDecoding           = errors.New("body decoding failed")
	ErrEncoding               = errors.New("encoding failed")
	ErrInvalidParam           = errors.New("invalid parameter")
	ErrMethodNotAllowed       = errors.New("method not allowed")
	ErrInvalidMetadata        = errors.New("invalid endpoint metadata")
	ErrInvalidVersion         = errors.New("invalid version")
	ErrTooLarge               = errors.New("request too large")
)

// ErrorCode is a machine-readable protocol error code.
type ErrorCode string

const (
	CodeForbidden     ErrorCode = "M_FORBIDDEN"
	CodeUnknownToken  ErrorCode = "M_UNKNOWN_TOKEN"
	CodeMissingToken  ErrorCode = "M_MISSING_TOKEN"
	CodeBadJSON       ErrorCode = "M_BAD_JSON"
	CodeNotJSON       ErrorCode = "M_NOT_JSON"
	CodeNotFound      ErrorCode = "M_NOT_FOUND"
	CodeLimitExceeded ErrorCode = "M_LIMIT_EXCEEDED"
	CodeUnrecognized  ErrorCode = "M_UNRECOGNIZED"
	CodeUnknown       ErrorCode = "M_UNKNOWN"
	CodeInvalidParam  ErrorCode = "M_INVALID_PARAM"
	CodeMissingParam  ErrorCode = "M_MISSING_PARAM"
	CodeTooLarge      ErrorCode = "M_TOO_LARGE"
)

// Error is the standard JSON error body: {"errcode": ..., "error": ...}.
// Details are flattened into the same object, e.g. retry_after_ms.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	// Status overrides the status derived from Code when non-zero.
	Status int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new protocol error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new protocol error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Status:  e.Status,
	}
}

// WithStatus returns a copy of e answered with the given HTTP status.
func (e *Error) WithStatus(status int) *Error {
	c := *e
	c.Status = status
	return &c
}

// HTTPStatus is the status the error is sent with.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Code.HTTPStatus()
}

func (e *Error) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(e.Details)+2)
	for k, v := range e.Details {
		body[k] = v
	}
	body["errcode"] = e.Code
	body["error"] = e.Message
	return json.Marshal(body)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	code, _ := body["errcode"].(string)
	if code == "" {
		return fmt.Errorf("error body has no errcode")
	}
	e.Code = ErrorCode(code)
	e.Message, _ = body["error"].(string)
	delete(body, "errcode")
	delete(body, "error")
	if len(body) > 0 {
		e.Details = body
	}
	return nil
}

// ErrorTransformer maps an application error to a protocol error.
// If it returns nil, DefaultErrorTransformer is applied.
type ErrorTransformer func(error) *Error

// DefaultErrorTransformer maps marshaling and validation errors to protocol
// errors. Anything unrecognized becomes M_UNKNOWN.
func DefaultErrorTransformer(err error) *Error {
	if err == nil {
		return nil
	}

	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		details := make(map[string]any)
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			msg := formatValidationError(ve)
			details[ve.Field()] = msg
			messages = append(messages, ve.Field()+": "+msg)
		}
		return &Error{
			Code:    CodeInvalidParam,
			Message: strings.Join(messages, "; "),
			Details: map[string]any{"fields": details},
		}
	}

	switch {
	case errors.Is(err, ErrAuthenticationRequired), errors.Is(err, ErrMissingCredential):
		return NewError(CodeMissingToken, err.Error())
	case errors.Is(err, ErrBodyDecoding):
		return NewError(CodeBadJSON, err.Error())
	case errors.Is(err, ErrMalformedPath), errors.Is(err, ErrQueryDecoding), errors.Is(err, ErrInvalidParam):
		return NewError(CodeInvalidParam, err.Error())
	case errors.Is(err, ErrMethodNotAllowed):
		return NewError(CodeUnrecognized, err.Error()).WithStatus(http.StatusMethodNotAllowed)
	case errors.Is(err, ErrNoMatchingVersion):
		return NewError(CodeUnrecognized, err.Error())
	case errors.Is(err, ErrTooLarge):
		return NewError(CodeTooLarge, err.Error())
	}

	// Handle multi-errors (errors.Join)
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		errs := u.Unwrap()
		if len(errs) > 0 {
			firstMapped := DefaultErrorTransformer(errs[0])
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return &Error{
				Code:    firstMapped.Code,
				Message: strings.Join(msgs, "; "),
				Details: firstMapped.Details,
				Status:  firstMapped.Status,
			}
		}
	}

	return NewError(CodeUnknown, err.Error())
}

// HTTPStatus maps an ErrorCode to an HTTP status code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnknownToken, CodeMissingToken:
		return http.StatusUnauthorized
	case CodeBadJSON, CodeNotJSON, CodeInvalidParam, CodeMissingParam:
		return http.StatusBadRequest
	case CodeNotFound, CodeUnrecognized:
		return http.StatusNotFound
	case CodeLimitExceeded:
		return http.StatusTooManyRequests
	case CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", ve.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", ve.Param())
	case "startswith":
		return fmt.Sprintf("must start with %q", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
