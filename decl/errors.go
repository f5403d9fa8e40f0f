package decl

import (
	"errors"
	"fmt"
)

// ErrInvalidDescriptor is matched by every *Error via errors.Is.
var ErrInvalidDescriptor = errors.New("dsgen: invalid descriptor")

// ErrorCode is a machine-readable descriptor error code.
type ErrorCode string

const (
	CodeMissingModuleName      ErrorCode = "missing_module_name"
	CodeMissingService         ErrorCode = "missing_service"
	CodeMissingEndpointDir     ErrorCode = "missing_endpoint_directory"
	CodeNoEndpoints            ErrorCode = "no_endpoints"
	CodeMissingModuleExtension ErrorCode = "missing_module_extension"
	CodeMissingDeclaration     ErrorCode = "missing_declaration"
	CodeMissingFunctionName    ErrorCode = "missing_function_name"
	CodeDuplicateFunction      ErrorCode = "duplicate_function"
	CodeDuplicateParam         ErrorCode = "duplicate_param"
	CodeMissingParamName       ErrorCode = "missing_param_name"
	CodeMissingDatatype        ErrorCode = "missing_datatype"
	CodeInvalidDatatype        ErrorCode = "invalid_datatype"
	CodeInvalidFlag            ErrorCode = "invalid_flag"
	CodeSessionMultiple        ErrorCode = "session_multiple"
	CodeMultipleSessionParams  ErrorCode = "multiple_session_params"
	CodeUnsupportedJSType      ErrorCode = "unsupported_js_type"
	CodeUnknownDatatype        ErrorCode = "unknown_datatype"
	CodeInvalidOutputMode      ErrorCode = "invalid_output_mode"
)

// Error reports a descriptor that violates a generation contract.
type Error struct {
	Code ErrorCode

	// Context names the offending descriptor part, e.g. "id parameter".
	Context string

	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is ErrInvalidDescriptor.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidDescriptor
}

// Errorf creates a descriptor error with a formatted message.
func Errorf(code ErrorCode, context, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Context: context,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf returns the code of a descriptor error, or "" when err is not one.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
