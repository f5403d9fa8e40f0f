package decl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	must(v.RegisterValidation("datatype", func(fl validator.FieldLevel) bool {
		return IsDatatype(fl.Field().String())
	}))
	must(v.RegisterValidation("jsonbool", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		switch f.Kind() {
		case reflect.Bool:
			return true
		case reflect.Interface, reflect.Invalid:
			return !f.IsValid() || f.IsNil()
		default:
			return false
		}
	}, true))
	v.RegisterStructValidation(validateFunctionShape, FunctionDescriptor{})
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// validateFunctionShape checks the rules that span several fields.
func validateFunctionShape(sl validator.StructLevel) {
	fd := sl.Current().Interface().(FunctionDescriptor)
	sessions := 0
	for i, p := range fd.Params {
		if p == nil {
			continue
		}
		field := fmt.Sprintf("params[%d].name", i)
		if p.Name == "" {
			sl.ReportError(p.Name, field, "Name", "required", "")
		}
		if p.Datatype != SessionDatatype {
			continue
		}
		sessions++
		if sessions > 1 {
			sl.ReportError(p.Name, field, "Name", "single_session", "")
		}
		if b, ok := p.Multiple.(bool); ok && b {
			sl.ReportError(p.Multiple, fmt.Sprintf("params[%d].multiple", i), "Multiple", "session_multiple", "")
		}
	}
	if fd.Return == nil || fd.Return.JSType == "" {
		return
	}
	types, ok := JSTypesFor(fd.Return.Datatype)
	if !ok {
		sl.ReportError(fd.Return.JSType, "return.$jsType", "JSType", "jstype", "")
		return
	}
	for _, allowed := range types.Allowed {
		if allowed == fd.Return.JSType {
			return
		}
	}
	sl.ReportError(fd.Return.JSType, "return.$jsType", "JSType", "jstype", strings.Join(types.Allowed, " "))
}

// ValidationError is one violation of the descriptor shape.
type ValidationError struct {
	// Field is the JSON path of the offending value, e.g. "params[0].datatype".
	Field string

	// Rule is the violated rule, e.g. "required" or "datatype".
	Rule string

	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	IsValid bool
	Errors  []*ValidationError
}

// Err joins the validation errors, or returns nil when the descriptor is valid.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Validate checks a function descriptor against the documented *.api shape.
// Unlike normalization it reports every violation, not just the first.
func Validate(fd *FunctionDescriptor) ValidationResult {
	if fd == nil {
		return invalid(&ValidationError{Rule: "required", Message: "missing declaration"})
	}
	return resultOf(validate.Struct(fd))
}

// ValidateJSON decodes a *.api file strictly, rejecting unknown properties,
// then validates it.
func ValidateJSON(data []byte) (*FunctionDescriptor, ValidationResult) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var fd FunctionDescriptor
	if err := dec.Decode(&fd); err != nil {
		return nil, invalid(&ValidationError{Rule: "json", Message: err.Error()})
	}
	return &fd, Validate(&fd)
}

// ValidateServiceJSON decodes a service.json file strictly, rejecting
// unknown properties, then validates it.
func ValidateServiceJSON(data []byte) (*ServiceDescriptor, ValidationResult) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var sd ServiceDescriptor
	if err := dec.Decode(&sd); err != nil {
		return nil, invalid(&ValidationError{Rule: "json", Message: err.Error()})
	}
	return &sd, resultOf(validate.Struct(&sd))
}

func resultOf(err error) ValidationResult {
	if err == nil {
		return ValidationResult{IsValid: true}
	}
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return invalid(&ValidationError{Rule: "internal", Message: err.Error()})
	}
	result := ValidationResult{}
	for _, fe := range valErrs {
		result.Errors = append(result.Errors, &ValidationError{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Message: formatFieldError(fe),
		})
	}
	return result
}

func invalid(errs ...*ValidationError) ValidationResult {
	return ValidationResult{IsValid: false, Errors: errs}
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "datatype":
		return fmt.Sprintf("unknown datatype %v", fe.Value())
	case "jsonbool":
		return fmt.Sprintf("must be true or false, got %v", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "single_session":
		return "only one session parameter is allowed"
	case "session_multiple":
		return "session parameter cannot be multiple"
	case "jstype":
		if fe.Param() == "" {
			return fmt.Sprintf("$jsType %v not supported for this datatype", fe.Value())
		}
		return fmt.Sprintf("$jsType %v must be one of: %s", fe.Value(), fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
