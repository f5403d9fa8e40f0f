package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/broady/dsgen/decl"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

const (
	CodeInvalidArgument   ErrorCode = "invalid_argument"
	CodeNotFound          ErrorCode = "not_found"
	CodeInvalidDescriptor ErrorCode = "invalid_descriptor"
	CodeCanceled          ErrorCode = "canceled"
	CodeInternal          ErrorCode = "internal"
)

// Error is the JSON error envelope.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus maps an ErrorCode to an HTTP status code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidDescriptor:
		return http.StatusUnprocessableEntity
	case CodeCanceled:
		return 499 // Client Closed Request (Nginx standard)
	default:
		return http.StatusInternalServerError
	}
}

// toError maps request and generation failures to the envelope.
func toError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var de *decl.Error
	if errors.As(err, &de) {
		return &Error{
			Code:    CodeInvalidDescriptor,
			Message: err.Error(),
			Details: map[string]any{"reason": string(de.Code), "context": de.Context},
		}
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Code: CodeCanceled, Message: "context canceled"}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return &Error{Code: CodeNotFound, Message: err.Error()}
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
		return &Error{Code: CodeInvalidArgument, Message: strings.Join(messages, "; "), Details: details}
	}

	var multi schema.MultiError
	if errors.As(err, &multi) {
		return &Error{Code: CodeInvalidArgument, Message: multi.Error()}
	}

	return &Error{Code: CodeInternal, Message: err.Error()}
}

func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", ve.Param())
	case "relpath":
		return "must be a clean relative path"
	case "modulename":
		return "must be a file name without separators"
	default:
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

func writeError(w http.ResponseWriter, e *Error, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code.HTTPStatus())
	if err := json.NewEncoder(w).Encode(e); err != nil {
		logger.Error("failed to encode error response",
			slog.String("code", string(e.Code)),
			slog.String("message", e.Message),
			slog.Any("error", err))
	}
}
