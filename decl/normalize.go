package decl

import (
	"strings"
)

// ModuleExtensionSeparator starts every normalized module extension.
const ModuleExtensionSeparator = "."

// NormalizeData validates a data descriptor and derives its kind and mime
// type. context names the descriptor in error messages.
func NormalizeData(context string, d *DataDescriptor) (Data, error) {
	if d.Datatype == "" {
		return Data{}, Errorf(CodeMissingDatatype, context, "missing datatype for %s", context)
	}
	info, ok := datatypes[d.Datatype]
	if !ok {
		return Data{}, Errorf(CodeInvalidDatatype, context, "invalid datatype %s for %s", d.Datatype, context)
	}

	multiple, err := boolFlag("multiple", d.Multiple, context)
	if err != nil {
		return Data{}, err
	}
	nullable, err := boolFlag("nullable", d.Nullable, context)
	if err != nil {
		return Data{}, err
	}
	if multiple && info.kind == KindSession {
		return Data{}, Errorf(CodeSessionMultiple, context, "session datatype cannot be multiple for %s", context)
	}

	return Data{
		Datatype: d.Datatype,
		Kind:     info.kind,
		MimeType: info.mime,
		Multiple: multiple,
		Nullable: nullable,
		Desc:     d.Desc,
	}, nil
}

func boolFlag(name string, v any, context string) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	default:
		return false, Errorf(CodeInvalidFlag, context, "optional %s property %v must be true or false for %s", name, v, context)
	}
}

// NormalizeParam validates a parameter descriptor.
func NormalizeParam(d *DataDescriptor) (Param, error) {
	if d.Name == "" {
		return Param{}, Errorf(CodeMissingParamName, "parameter", "parameter without name")
	}
	data, err := NormalizeData(d.Name+" parameter", d)
	if err != nil {
		return Param{}, err
	}
	return Param{Name: d.Name, Data: data}, nil
}

// NormalizeReturn validates a return value descriptor and resolves its
// JavaScript type.
func NormalizeReturn(d *DataDescriptor) (*Return, error) {
	const context = "return value"
	data, err := NormalizeData(context, d)
	if err != nil {
		return nil, err
	}

	ret := &Return{Data: data}
	switch data.Kind {
	case KindNode:
		if d.JSType != "" {
			return nil, Errorf(CodeUnsupportedJSType, context,
				"optional $jsType %s not supported for datatype %s %s", d.JSType, d.Datatype, context)
		}
		return ret, nil
	case KindAtomic:
		types, ok := JSTypesFor(d.Datatype)
		if !ok {
			break
		}
		if d.JSType == "" {
			ret.JSType = types.Default
			return ret, nil
		}
		for _, allowed := range types.Allowed {
			if d.JSType == allowed {
				ret.JSType = d.JSType
				return ret, nil
			}
		}
		return nil, Errorf(CodeUnsupportedJSType, context,
			"optional $jsType %s can only be %s for datatype %s %s", d.JSType, quoteAlternatives(types.Allowed), d.Datatype, context)
	}
	return nil, Errorf(CodeUnknownDatatype, context, "unknown datatype %s for %s", d.Datatype, context)
}

func quoteAlternatives(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return strings.Join(quoted, " or ")
}

// NormalizeFunction validates a function descriptor and derives the
// parameter and return summaries.
func NormalizeFunction(fd *FunctionDescriptor) (*Function, error) {
	if fd.FunctionName == "" {
		return nil, Errorf(CodeMissingFunctionName, "function", "function declaration without functionName")
	}

	fn := &Function{
		Name:   fd.FunctionName,
		Desc:   fd.Desc,
		Params: []Param{},
	}

	for _, pd := range fd.Params {
		if pd == nil {
			return nil, Errorf(CodeMissingDatatype, fd.FunctionName, "null parameter in function %s", fd.FunctionName)
		}
		if pd.Datatype == SessionDatatype {
			if fn.SessionParam != nil {
				return nil, Errorf(CodeMultipleSessionParams, fd.FunctionName,
					"function %s cannot have multiple session parameters: %s and %s", fd.FunctionName, fn.SessionParam.Name, pd.Name)
			}
			p, err := NormalizeParam(pd)
			if err != nil {
				return nil, err
			}
			fn.SessionParam = &p
			continue
		}

		p, err := NormalizeParam(pd)
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, p)
		switch {
		case p.Kind == KindNode:
			fn.ParamsKind = ParamsMultiNode
		case fn.ParamsKind == ParamsEmpty:
			fn.ParamsKind = ParamsMultiAtomic
		}
	}

	fn.MaxArgs = len(fn.Params)
	if fn.SessionParam != nil {
		fn.MaxArgs++
	}

	if fd.Return != nil {
		ret, err := NormalizeReturn(fd.Return)
		if err != nil {
			return nil, err
		}
		fn.Return = ret
		fn.ReturnKind = ReturnSingle
		if ret.Multiple {
			fn.ReturnKind = ReturnMultipart
		}
	}

	switch OutputMode(fd.OutputMode) {
	case "", OutputPromise:
		fn.OutputMode = OutputPromise
	case OutputStream:
		fn.OutputMode = OutputStream
	default:
		return nil, Errorf(CodeInvalidOutputMode, fd.FunctionName,
			`invalid $jsOutputMode %s for function %s: can only be "promise" or "stream"`, fd.OutputMode, fd.FunctionName)
	}

	return fn, nil
}

// NormalizeModuleExtension returns ext with exactly one leading separator.
func NormalizeModuleExtension(ext string) string {
	trimmed := strings.TrimLeft(ext, ModuleExtensionSeparator)
	if trimmed == "" {
		return ""
	}
	return ModuleExtensionSeparator + trimmed
}

// NormalizeEndpoint validates an endpoint and its declaration.
func NormalizeEndpoint(ed *EndpointDescriptor) (*Endpoint, error) {
	ext := NormalizeModuleExtension(ed.ModuleExtension)
	if ext == "" {
		return nil, Errorf(CodeMissingModuleExtension, "endpoint", "endpoint without main module extension")
	}
	if ed.Declaration == nil {
		return nil, Errorf(CodeMissingDeclaration, "endpoint", "endpoint without *.api declaration")
	}
	fn, err := NormalizeFunction(ed.Declaration)
	if err != nil {
		return nil, err
	}
	return &Endpoint{
		ModuleExtension: ext,
		Function:        fn,
		Declaration:     ed.Declaration,
	}, nil
}

// HasSessionParam reports whether the raw declaration declares a session
// parameter.
func (fd *FunctionDescriptor) HasSessionParam() bool {
	if fd == nil {
		return false
	}
	for _, p := range fd.Params {
		if p != nil && p.Datatype == SessionDatatype {
			return true
		}
	}
	return false
}
