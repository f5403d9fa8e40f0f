// Package jsast defines a small, language-neutral syntax tree for generated
// client modules. The proxy emitter builds trees; a Renderer turns them into
// source text for a concrete output syntax.
package jsast

// Renderer turns a module tree into source text.
type Renderer interface {
	// Name returns the renderer's identifier (e.g., "javascript").
	Name() string

	// Render produces the source text for m.
	Render(m *Module) ([]byte, error)
}

// Module is the root of a generated source file: one exported class.
type Module struct {
	// Header lines are emitted as line comments at the top of the file.
	Header []string
	Class  *Class
}

// Class is a class declaration.
type Class struct {
	Name    string
	Doc     *Doc
	Members []*Method
}

// MethodKind distinguishes constructors, static and instance methods.
type MethodKind int

const (
	MethodInstance MethodKind = iota
	MethodStatic
	MethodConstructor
)

// String returns the string representation of the method kind.
func (k MethodKind) String() string {
	switch k {
	case MethodInstance:
		return "instance"
	case MethodStatic:
		return "static"
	case MethodConstructor:
		return "constructor"
	default:
		return "unknown"
	}
}

// Method is a class member function. Name is ignored for constructors.
type Method struct {
	Kind   MethodKind
	Name   string
	Doc    *Doc
	Params []string
	Body   []Stmt
}

// Doc is a documentation block.
type Doc struct {
	// Summary is the free text before the tags.
	Summary string
	Tags    []DocTag
}

// DocTag is one block tag such as @param or @returns.
type DocTag struct {
	// Tag is the tag name without "@".
	Tag string

	// Type is the type expression, rendered inside braces when set.
	Type string

	// Name is the documented parameter, if any.
	Name string

	// Optional marks an optional parameter.
	Optional bool

	Text string
}

// Stmt is a statement node.
type Stmt interface{ stmt() }

// Expr is an expression node.
type Expr interface{ expr() }

type (
	// Return is `return Value;`. Value may be nil.
	Return struct{ Value Expr }

	// Throw is `throw Value;`.
	Throw struct{ Value Expr }

	// If is a conditional without an else branch.
	If struct {
		Cond Expr
		Then []Stmt
	}

	// Assign is `Target = Value;`.
	Assign struct {
		Target Expr
		Value  Expr
	}

	// ExprStmt evaluates an expression for its effects.
	ExprStmt struct{ X Expr }
)

func (*Return) stmt()   {}
func (*Throw) stmt()    {}
func (*If) stmt()       {}
func (*Assign) stmt()   {}
func (*ExprStmt) stmt() {}

type (
	// Ident is an identifier reference.
	Ident struct{ Name string }

	// This is the receiver of the current method.
	This struct{}

	// Member is property access: X.Name.
	Member struct {
		X    Expr
		Name string
	}

	// Call is a function or method call.
	Call struct {
		Fn   Expr
		Args []Expr
	}

	// New is a constructor invocation.
	New struct {
		Class Expr
		Args  []Expr
	}

	// Binary is a binary operation.
	Binary struct {
		Op   string
		X, Y Expr
	}

	// Literal is a scalar or structured literal whose value is encoded as JSON.
	Literal struct{ Value any }

	// Object is an object literal with ordered properties.
	Object struct{ Props []Prop }

	// ArgCount is the number of arguments the current method was called
	// with. It never resolves to a parameter, whatever the parameters are
	// named.
	ArgCount struct{}
)

// Prop is one key/value pair of an object literal.
type Prop struct {
	Key   string
	Value Expr
}

func (*Ident) expr()    {}
func (*This) expr()     {}
func (*Member) expr()   {}
func (*Call) expr()     {}
func (*New) expr()      {}
func (*Binary) expr()   {}
func (*Literal) expr()  {}
func (*Object) expr()   {}
func (*ArgCount) expr() {}

// Id returns an identifier expression.
func Id(name string) *Ident { return &Ident{Name: name} }

// Sel returns a chain of property accesses starting at x.
func Sel(x Expr, names ...string) Expr {
	for _, n := range names {
		x = &Member{X: x, Name: n}
	}
	return x
}

// CallOf calls the method name on x.
func CallOf(x Expr, name string, args ...Expr) *Call {
	return &Call{Fn: &Member{X: x, Name: name}, Args: args}
}

// Lit returns a literal expression.
func Lit(v any) *Literal { return &Literal{Value: v} }

// IsNullish returns `x === undefined || x === null`.
func IsNullish(x Expr) Expr {
	return &Binary{
		Op: "||",
		X:  &Binary{Op: "===", X: x, Y: Id("undefined")},
		Y:  &Binary{Op: "===", X: x, Y: Lit(nil)},
	}
}

// Method returns the first class member with the given kind and name.
func (c *Class) Method(kind MethodKind, name string) *Method {
	for _, m := range c.Members {
		if m.Kind == kind && (kind == MethodConstructor || m.Name == name) {
			return m
		}
	}
	return nil
}
