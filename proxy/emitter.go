// Package proxy builds the syntax tree of a client class for a data
// service: a static factory, a constructor that registers every endpoint
// with the client's proxy, and one method per endpoint.
package proxy

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/broady/dsgen/decl"
	"github.com/broady/dsgen/jsast"
)

// Names used by the generated code to reach the client library.
const (
	clientParam      = "client"
	serviceParam     = "serviceDeclaration"
	proxyField       = "$mlProxy"
	createProxyName  = "createProxy"
	withFunctionName = "withFunction"
	executeName      = "execute"
	sessionFactory   = "createSession"
	factoryName      = "on"
)

// DefaultHeader is written at the top of every generated module.
var DefaultHeader = []string{"GENERATED - DO NOT EDIT!"}

// Emitter builds proxy class trees.
type Emitter struct {
	// Header replaces DefaultHeader when non-nil.
	Header []string
}

// Generate builds the module for one service using a default Emitter.
func Generate(moduleName string, service *decl.ServiceDescriptor, endpoints []*decl.EndpointDescriptor) (*jsast.Module, error) {
	return (&Emitter{}).Generate(moduleName, service, endpoints)
}

// Generate validates its inputs, normalizes every endpoint and builds the
// module tree. Validation happens before any normalization; normalization
// of all endpoints completes before any node is built.
func (e *Emitter) Generate(moduleName string, service *decl.ServiceDescriptor, endpoints []*decl.EndpointDescriptor) (*jsast.Module, error) {
	if err := checkInputs(moduleName, service, endpoints); err != nil {
		return nil, err
	}

	hasSession := false
	for _, ep := range endpoints {
		if ep.Declaration.HasSessionParam() {
			hasSession = true
			break
		}
	}

	normalized := make([]*decl.Endpoint, len(endpoints))
	taken := map[string]string{"constructor": "the constructor"}
	if hasSession {
		taken[sessionFactory] = "the session factory"
	}
	for i, ep := range endpoints {
		n, err := decl.NormalizeEndpoint(ep)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", ep.Declaration.FunctionName, err)
		}
		name := Identifier(n.Function.Name)
		if prev, ok := taken[name]; ok {
			return nil, decl.Errorf(decl.CodeDuplicateFunction, n.Function.Name,
				"function %s collides with %s in the generated class", n.Function.Name, prev)
		}
		taken[name] = "function " + n.Function.Name
		if err := checkParams(n.Function); err != nil {
			return nil, err
		}
		normalized[i] = n
	}

	className := ClassName(moduleName)
	class := &jsast.Class{
		Name: className,
		Doc:  classDoc(service),
	}
	class.Members = append(class.Members,
		factory(className),
		constructor(className, service, normalized),
	)
	for _, ep := range normalized {
		class.Members = append(class.Members, method(ep.Function))
	}
	if hasSession {
		class.Members = append(class.Members, sessionMethod())
	}

	header := e.Header
	if header == nil {
		header = DefaultHeader
	}
	return &jsast.Module{Header: header, Class: class}, nil
}

func checkInputs(moduleName string, service *decl.ServiceDescriptor, endpoints []*decl.EndpointDescriptor) error {
	if moduleName == "" {
		return decl.Errorf(decl.CodeMissingModuleName, "module", "missing module name")
	}
	if service == nil {
		return decl.Errorf(decl.CodeMissingService, "service", "missing service.json declaration")
	}
	if service.EndpointDirectory == "" {
		return decl.Errorf(decl.CodeMissingEndpointDir, "service", "service.json declaration without endpointDirectory property")
	}
	if len(endpoints) == 0 {
		return decl.Errorf(decl.CodeNoEndpoints, "service", "no endpoint pairs of *.api declaration and main module")
	}
	for _, ep := range endpoints {
		switch {
		case ep == nil || ep.ModuleExtension == "":
			return decl.Errorf(decl.CodeMissingModuleExtension, "endpoint", "endpoint without main module extension")
		case ep.Declaration == nil:
			return decl.Errorf(decl.CodeMissingDeclaration, "endpoint", "endpoint without *.api declaration")
		case ep.Declaration.FunctionName == "":
			return decl.Errorf(decl.CodeMissingFunctionName, "endpoint", "endpoint *.api declaration without functionName property")
		}
	}
	return nil
}

// checkParams rejects parameters that would share a binding in the
// generated method.
func checkParams(fn *decl.Function) error {
	seen := make(map[string]string, fn.MaxArgs)
	for _, name := range fn.ArgNames() {
		id := Identifier(name)
		if prev, ok := seen[id]; ok {
			return decl.Errorf(decl.CodeDuplicateParam, fn.Name,
				"parameters %s and %s of function %s collide in the generated method", prev, name, fn.Name)
		}
		seen[id] = name
	}
	return nil
}

// ClassName derives the class name from a module name: the first rune is
// upper-cased and characters that cannot appear in an identifier become "_".
func ClassName(moduleName string) string {
	r, size := utf8.DecodeRuneInString(moduleName)
	return Identifier(string(unicode.ToUpper(r)) + moduleName[size:])
}

// Identifier maps name onto the identifier alphabet shared by the supported
// output languages.
func Identifier(name string) string {
	if name == "" {
		return "_"
	}
	out := make([]rune, 0, len(name)+1)
	for i, r := range name {
		if i == 0 && unicode.IsDigit(r) {
			out = append(out, '_')
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}

func factory(className string) *jsast.Method {
	return &jsast.Method{
		Kind:   jsast.MethodStatic,
		Name:   factoryName,
		Doc:    factoryDoc(className),
		Params: []string{clientParam, serviceParam},
		Body: []jsast.Stmt{
			&jsast.Return{Value: &jsast.New{
				Class: jsast.Id(className),
				Args:  []jsast.Expr{jsast.Id(clientParam), jsast.Id(serviceParam)},
			}},
		},
	}
}

// constructor registers the endpoints in declared order; the generated code
// repeats at runtime the registration the generator performed here.
func constructor(className string, service *decl.ServiceDescriptor, endpoints []*decl.Endpoint) *jsast.Method {
	var proxy jsast.Expr = jsast.CallOf(jsast.Id(clientParam), createProxyName, jsast.Id(serviceParam))
	for _, ep := range endpoints {
		proxy = jsast.CallOf(proxy, withFunctionName, jsast.Lit(ep.Declaration), jsast.Lit(ep.ModuleExtension))
	}

	return &jsast.Method{
		Kind:   jsast.MethodConstructor,
		Doc:    constructorDoc(className),
		Params: []string{clientParam, serviceParam},
		Body: []jsast.Stmt{
			&jsast.If{
				Cond: jsast.IsNullish(jsast.Id(clientParam)),
				Then: []jsast.Stmt{
					&jsast.Throw{Value: &jsast.New{
						Class: jsast.Id("Error"),
						Args:  []jsast.Expr{jsast.Lit("missing required client")},
					}},
				},
			},
			&jsast.If{
				Cond: jsast.IsNullish(jsast.Id(serviceParam)),
				Then: []jsast.Stmt{
					&jsast.Assign{Target: jsast.Id(serviceParam), Value: jsast.Lit(service)},
				},
			},
			&jsast.Assign{
				Target: jsast.Sel(&jsast.This{}, proxyField),
				Value:  proxy,
			},
		},
	}
}

func method(fn *decl.Function) *jsast.Method {
	args := fn.ArgNames()
	props := make([]jsast.Prop, len(args))
	for i, name := range args {
		props[i] = jsast.Prop{Key: name, Value: jsast.Id(name)}
	}

	return &jsast.Method{
		Kind:   jsast.MethodInstance,
		Name:   Identifier(fn.Name),
		Doc:    methodDoc(fn),
		Params: args,
		Body: []jsast.Stmt{
			&jsast.Return{Value: jsast.CallOf(
				jsast.Sel(&jsast.This{}, proxyField),
				executeName,
				jsast.Lit(fn.Name),
				&jsast.Object{Props: props},
				&jsast.ArgCount{},
			)},
		},
	}
}

func sessionMethod() *jsast.Method {
	return &jsast.Method{
		Kind: jsast.MethodInstance,
		Name: sessionFactory,
		Doc:  sessionDoc(),
		Body: []jsast.Stmt{
			&jsast.Return{Value: jsast.CallOf(jsast.Sel(&jsast.This{}, proxyField), sessionFactory)},
		},
	}
}
