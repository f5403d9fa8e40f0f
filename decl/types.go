// Package decl defines the declarative descriptors that drive proxy
// generation and the normalizer that turns them into fully specified,
// internally consistent values.
//
// Raw descriptors mirror the JSON files found in a service directory
// (service.json and *.api). They are never modified; normalization returns
// new values of the Endpoint/Function/Param/Return types.
package decl

// ServiceDescriptor is the content of a service.json file.
type ServiceDescriptor struct {
	// EndpointDirectory is the server directory holding the endpoint modules.
	EndpointDirectory string `json:"endpointDirectory" validate:"required"`

	// Desc documents the generated class.
	Desc string `json:"desc,omitempty"`

	// JSModule optionally names the generated module and its output path.
	JSModule string `json:"$jsModule,omitempty"`
}

// EndpointDescriptor pairs a function declaration with the extension of the
// main module implementing it (".sjs", ".mjs" or ".xqy").
type EndpointDescriptor struct {
	Declaration     *FunctionDescriptor
	ModuleExtension string
}

// FunctionDescriptor is the content of a *.api file.
type FunctionDescriptor struct {
	FunctionName string            `json:"functionName" validate:"required"`
	Params       []*DataDescriptor `json:"params,omitempty" validate:"omitempty,dive,required"`
	Return       *DataDescriptor   `json:"return,omitempty"`
	Desc         string            `json:"desc,omitempty"`
	OutputMode   string            `json:"$jsOutputMode,omitempty" validate:"omitempty,oneof=promise stream"`
}

// DataDescriptor describes a parameter or a return value.
//
// Multiple and Nullable are kept untyped so that a descriptor such as
// {"multiple": "yes"} can be rejected instead of silently decoded. Absent
// (nil) means false.
type DataDescriptor struct {
	Datatype string `json:"datatype" validate:"required,datatype"`
	Multiple any    `json:"multiple,omitempty" validate:"jsonbool"`
	Nullable any    `json:"nullable,omitempty" validate:"jsonbool"`
	Desc     string `json:"desc,omitempty"`

	// Name is required for parameters and ignored for return values.
	Name string `json:"name,omitempty"`

	// JSType is only meaningful on return values.
	JSType string `json:"$jsType,omitempty"`
}
