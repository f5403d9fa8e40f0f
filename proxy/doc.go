package proxy

import (
	"strings"

	"github.com/broady/dsgen/decl"
	"github.com/broady/dsgen/jsast"
)

// Value shapes accepted for document parameters.
var nodeParamTypes = map[string]string{
	"array":          "array",
	"object":         "object",
	"jsonDocument":   "object|array|string|Buffer|stream.Readable",
	"binaryDocument": "Buffer|stream.Readable",
	"textDocument":   "string|Buffer|stream.Readable",
	"xmlDocument":    "string|Buffer|stream.Readable",
}

// Value shapes produced for document return values.
var nodeReturnTypes = map[string]string{
	"array":          "array",
	"object":         "object",
	"jsonDocument":   "object|array",
	"binaryDocument": "Buffer",
	"textDocument":   "string",
	"xmlDocument":    "string",
}

const sessionType = "SessionState"

func classDoc(service *decl.ServiceDescriptor) *jsast.Doc {
	summary := service.Desc
	if summary == "" {
		summary = "Provides a set of operations on the database server."
	}
	return &jsast.Doc{Summary: summary}
}

func clientTags() []jsast.DocTag {
	return []jsast.DocTag{
		{Tag: "param", Type: "DatabaseClient", Name: clientParam, Text: "the client for communicating with the database server"},
		{Tag: "param", Type: "object", Name: serviceParam, Optional: true, Text: "a declaration that overrides the generated service declaration"},
	}
}

func factoryDoc(className string) *jsast.Doc {
	return &jsast.Doc{
		Summary: "A factory for creating a " + className + " object.",
		Tags: append(clientTags(),
			jsast.DocTag{Tag: "returns", Type: className, Text: "the object for the database operations"}),
	}
}

func constructorDoc(className string) *jsast.Doc {
	return &jsast.Doc{
		Summary: "The constructor for a " + className + " object.",
		Tags:    clientTags(),
	}
}

func sessionDoc() *jsast.Doc {
	return &jsast.Doc{
		Summary: "Allocates a session for operations that keep state on the database server.",
		Tags: []jsast.DocTag{
			{Tag: "returns", Type: sessionType, Text: "the session to pass as the last argument of session operations"},
		},
	}
}

func methodDoc(fn *decl.Function) *jsast.Doc {
	summary := fn.Desc
	if summary == "" {
		summary = "Invokes the " + fn.Name + " operation on the database server."
	}
	doc := &jsast.Doc{Summary: summary}
	for _, p := range fn.Params {
		doc.Tags = append(doc.Tags, paramTag(p))
	}
	if fn.SessionParam != nil {
		doc.Tags = append(doc.Tags, paramTag(*fn.SessionParam))
	}
	doc.Tags = append(doc.Tags, returnTag(fn))
	return doc
}

func paramTag(p decl.Param) jsast.DocTag {
	text := p.Desc
	if text == "" {
		text = "provides input"
		if p.Kind == decl.KindSession {
			text = "holds the server state shared across calls"
		}
	}
	return jsast.DocTag{
		Tag:      "param",
		Type:     ParamType(p.Data),
		Name:     p.Name,
		Optional: p.Nullable || p.Kind == decl.KindSession,
		Text:     text,
	}
}

func returnTag(fn *decl.Function) jsast.DocTag {
	if fn.OutputMode == decl.OutputStream {
		text := "a readable stream of the results"
		if fn.Return != nil && fn.Return.Desc != "" {
			text = fn.Return.Desc
		}
		return jsast.DocTag{Tag: "returns", Type: "stream.Readable", Text: text}
	}

	if fn.Return == nil {
		return jsast.DocTag{Tag: "returns", Type: "Promise<void>", Text: "a promise that resolves when the operation completes"}
	}
	text := fn.Return.Desc
	if text == "" {
		text = "a promise for the result"
	}
	return jsast.DocTag{Tag: "returns", Type: "Promise<" + ReturnType(fn.Return) + ">", Text: text}
}

// ParamType describes the values a parameter accepts.
func ParamType(d decl.Data) string {
	var t string
	switch d.Kind {
	case decl.KindAtomic:
		types, _ := decl.JSTypesFor(d.Datatype)
		t = strings.Join(types.Allowed, "|")
	case decl.KindNode:
		t = nodeParamTypes[d.Datatype]
	case decl.KindSession:
		return sessionType
	}
	if d.Multiple {
		t = "Array<" + t + ">"
	}
	return t
}

// ReturnType describes the value a return descriptor resolves to.
func ReturnType(r *decl.Return) string {
	t := r.JSType
	if r.Kind == decl.KindNode {
		t = nodeReturnTypes[r.Datatype]
	}
	if r.Multiple {
		t = "Array<" + t + ">"
	}
	if r.Nullable {
		t += "|null"
	}
	return t
}
