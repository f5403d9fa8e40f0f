package decl

// Data is a normalized data descriptor.
type Data struct {
	Datatype string
	Kind     DataKind
	MimeType string
	Multiple bool
	Nullable bool
	Desc     string
}

// Param is a normalized parameter.
type Param struct {
	Name string
	Data
}

// Return is a normalized return value. JSType is always set for atomic
// datatypes and always empty for node datatypes.
type Return struct {
	Data
	JSType string
}

// Function is a normalized function descriptor.
type Function struct {
	Name string
	Desc string

	// Params holds the positional parameters in declared order. The session
	// parameter, if any, is not part of it.
	Params []Param

	// SessionParam is the session parameter, always passed last.
	SessionParam *Param

	// MaxArgs counts Params plus the session parameter.
	MaxArgs int

	ParamsKind ParamsKind

	// Return is nil when ReturnKind is ReturnEmpty.
	Return     *Return
	ReturnKind ReturnKind

	OutputMode OutputMode
}

// HasSession reports whether the function takes a session parameter.
func (f *Function) HasSession() bool {
	return f.SessionParam != nil
}

// ArgNames returns the call parameter names: positional parameters in
// declared order followed by the session parameter. The session is always
// the last argument of the remote call wherever it was declared, so callers
// can omit it and MaxArgs still counts it.
func (f *Function) ArgNames() []string {
	names := make([]string, 0, f.MaxArgs)
	for _, p := range f.Params {
		names = append(names, p.Name)
	}
	if f.SessionParam != nil {
		names = append(names, f.SessionParam.Name)
	}
	return names
}

// Endpoint is a normalized endpoint descriptor.
type Endpoint struct {
	// ModuleExtension always starts with a single ".".
	ModuleExtension string
	Function        *Function

	// Declaration is the raw declaration the endpoint was normalized from.
	Declaration *FunctionDescriptor
}
