// Package javascript renders proxy module trees as JavaScript source.
package javascript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/broady/dsgen/jsast"
)

// Config controls the shape of the rendered source.
type Config struct {
	// ModuleStyle is "commonjs" (module.exports) or "esm" (export default).
	// Default: "commonjs"
	ModuleStyle string

	// Formatting
	IndentStyle     string // "space" or "tab"
	IndentSize      int    // Spaces per indent level (when IndentStyle is "space")
	LineEnding      string // "lf" or "crlf"
	TrailingNewline bool   // Ensure files end with a newline

	// BreakChains puts every call of a method chain with two or more calls
	// on its own line.
	BreakChains bool
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return Config{
		ModuleStyle:     "commonjs",
		IndentStyle:     "space",
		IndentSize:      2,
		LineEnding:      "lf",
		TrailingNewline: true,
		BreakChains:     true,
	}
}

// applyDefaults fills unset fields of cfg.
func applyDefaults(cfg Config) Config {
	if cfg.ModuleStyle == "" {
		cfg.ModuleStyle = "commonjs"
	}
	if cfg.IndentStyle == "" {
		cfg.IndentStyle = "space"
	}
	if cfg.IndentSize <= 0 {
		cfg.IndentSize = 2
	}
	if cfg.LineEnding == "" {
		cfg.LineEnding = "lf"
	}
	return cfg
}

// Renderer implements jsast.Renderer for JavaScript.
type Renderer struct {
	cfg    Config
	indent string
}

var _ jsast.Renderer = (*Renderer)(nil)

// New creates a Renderer. Zero fields of cfg take their defaults.
func New(cfg Config) *Renderer {
	cfg = applyDefaults(cfg)
	indent := strings.Repeat(" ", cfg.IndentSize)
	if cfg.IndentStyle == "tab" {
		indent = "\t"
	}
	return &Renderer{cfg: cfg, indent: indent}
}

// Name returns "javascript".
func (r *Renderer) Name() string { return "javascript" }

// Render produces the source text of m.
func (r *Renderer) Render(m *jsast.Module) ([]byte, error) {
	if m == nil || m.Class == nil {
		return nil, fmt.Errorf("module has no class")
	}
	switch r.cfg.ModuleStyle {
	case "commonjs", "esm":
	default:
		return nil, fmt.Errorf("unknown module style: %q (expected \"commonjs\" or \"esm\")", r.cfg.ModuleStyle)
	}

	w := &writer{r: r}
	for _, line := range m.Header {
		w.line(0, "// "+line)
	}
	if r.cfg.ModuleStyle == "commonjs" {
		w.line(0, "'use strict';")
	}
	w.blank()

	if err := w.class(m.Class); err != nil {
		return nil, err
	}

	w.blank()
	className := escapeReservedWord(m.Class.Name)
	if r.cfg.ModuleStyle == "esm" {
		w.line(0, "export default "+className+";")
	} else {
		w.line(0, "module.exports = "+className+";")
	}

	out := w.buf.String()
	if !r.cfg.TrailingNewline {
		out = strings.TrimRight(out, "\n")
	}
	if r.cfg.LineEnding == "crlf" {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	return []byte(out), nil
}

type writer struct {
	r   *Renderer
	buf bytes.Buffer

	// params holds the parameter names of the method being written.
	params map[string]bool
}

func (w *writer) line(level int, s string) {
	w.buf.WriteString(strings.Repeat(w.r.indent, level))
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

func (w *writer) blank() {
	w.buf.WriteByte('\n')
}

func (w *writer) class(c *jsast.Class) error {
	if c.Name == "" {
		return fmt.Errorf("class has no name")
	}
	w.doc(0, c.Doc)
	w.line(0, "class "+escapeReservedWord(c.Name)+" {")
	for i, m := range c.Members {
		if i > 0 {
			w.blank()
		}
		if err := w.method(m); err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
	}
	w.line(0, "}")
	return nil
}

func (w *writer) method(m *jsast.Method) error {
	var head string
	switch m.Kind {
	case jsast.MethodConstructor:
		head = "constructor"
	case jsast.MethodStatic:
		head = "static " + m.Name
	case jsast.MethodInstance:
		head = m.Name
	default:
		return fmt.Errorf("unsupported method kind: %s", m.Kind)
	}
	if m.Kind != jsast.MethodConstructor && needsQuoting(m.Name) {
		return fmt.Errorf("invalid method name %q", m.Name)
	}

	w.params = make(map[string]bool, len(m.Params))
	names := make([]string, len(m.Params))
	bound := make(map[string]string, len(m.Params))
	for i, p := range m.Params {
		name := sanitizeIdentifier(p)
		if prev, ok := bound[name]; ok {
			return fmt.Errorf("method %s: parameters %q and %q both bind %s", head, prev, p, name)
		}
		bound[name] = p
		w.params[p] = true
		names[i] = name
	}

	w.doc(1, m.Doc)
	w.line(1, head+"("+strings.Join(names, ", ")+") {")
	if err := w.stmts(2, m.Body); err != nil {
		return fmt.Errorf("method %s: %w", head, err)
	}
	w.line(1, "}")
	w.params = nil
	return nil
}

func (w *writer) doc(level int, d *jsast.Doc) {
	if d == nil {
		return
	}
	w.line(level, "/**")
	if d.Summary != "" {
		for _, l := range strings.Split(d.Summary, "\n") {
			w.line(level, strings.TrimRight(" * "+escapeComment(l), " "))
		}
	}
	for _, tag := range d.Tags {
		var b strings.Builder
		b.WriteString(" * @")
		b.WriteString(tag.Tag)
		if tag.Type != "" {
			b.WriteString(" {")
			b.WriteString(escapeComment(tag.Type))
			b.WriteString("}")
		}
		if tag.Name != "" {
			b.WriteString(" ")
			if tag.Optional {
				b.WriteString("[" + tag.Name + "]")
			} else {
				b.WriteString(tag.Name)
			}
		}
		if tag.Text != "" {
			if tag.Name != "" {
				b.WriteString(" -")
			}
			b.WriteString(" ")
			b.WriteString(escapeComment(strings.ReplaceAll(tag.Text, "\n", " ")))
		}
		w.line(level, b.String())
	}
	w.line(level, " */")
}

func escapeComment(s string) string {
	return strings.ReplaceAll(s, "*/", "*\\/")
}

func (w *writer) stmts(level int, body []jsast.Stmt) error {
	for _, s := range body {
		if err := w.stmt(level, s); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) stmt(level int, s jsast.Stmt) error {
	switch s := s.(type) {
	case *jsast.Return:
		if s.Value == nil {
			w.line(level, "return;")
			return nil
		}
		x, err := w.expr(level, s.Value)
		if err != nil {
			return err
		}
		w.line(level, "return "+x+";")
	case *jsast.Throw:
		x, err := w.expr(level, s.Value)
		if err != nil {
			return err
		}
		w.line(level, "throw "+x+";")
	case *jsast.If:
		cond, err := w.expr(level, s.Cond)
		if err != nil {
			return err
		}
		w.line(level, "if ("+cond+") {")
		if err := w.stmts(level+1, s.Then); err != nil {
			return err
		}
		w.line(level, "}")
	case *jsast.Assign:
		target, err := w.expr(level, s.Target)
		if err != nil {
			return err
		}
		value, err := w.expr(level, s.Value)
		if err != nil {
			return err
		}
		w.line(level, target+" = "+value+";")
	case *jsast.ExprStmt:
		x, err := w.expr(level, s.X)
		if err != nil {
			return err
		}
		w.line(level, x+";")
	default:
		return fmt.Errorf("unsupported statement %T", s)
	}
	return nil
}

var precedence = map[string]int{
	"||":  1,
	"&&":  2,
	"===": 3,
	"!==": 3,
	"==":  3,
	"!=":  3,
	"+":   4,
	"-":   4,
}

func (w *writer) expr(level int, e jsast.Expr) (string, error) {
	switch e := e.(type) {
	case *jsast.Ident:
		if w.params[e.Name] {
			return sanitizeIdentifier(e.Name), nil
		}
		return e.Name, nil
	case *jsast.This:
		return "this", nil
	case *jsast.ArgCount:
		return "arguments.length", nil
	case *jsast.Member:
		x, err := w.expr(level, e.X)
		if err != nil {
			return "", err
		}
		return x + property(e.Name), nil
	case *jsast.Call:
		if w.r.cfg.BreakChains {
			if calls, base := chain(e); len(calls) >= 2 {
				return w.chain(level, base, calls)
			}
		}
		fn, err := w.expr(level, e.Fn)
		if err != nil {
			return "", err
		}
		args, err := w.args(level, e.Args)
		if err != nil {
			return "", err
		}
		return fn + "(" + args + ")", nil
	case *jsast.New:
		class, err := w.expr(level, e.Class)
		if err != nil {
			return "", err
		}
		args, err := w.args(level, e.Args)
		if err != nil {
			return "", err
		}
		return "new " + class + "(" + args + ")", nil
	case *jsast.Binary:
		x, err := w.operand(level, e.Op, e.X)
		if err != nil {
			return "", err
		}
		y, err := w.operand(level, e.Op, e.Y)
		if err != nil {
			return "", err
		}
		return x + " " + e.Op + " " + y, nil
	case *jsast.Literal:
		return literal(e.Value)
	case *jsast.Object:
		if len(e.Props) == 0 {
			return "{}", nil
		}
		parts := make([]string, len(e.Props))
		for i, p := range e.Props {
			v, err := w.expr(level, p.Value)
			if err != nil {
				return "", err
			}
			key := p.Key
			if needsQuoting(key) {
				key = quote(key)
			}
			parts[i] = key + ": " + v
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	case nil:
		return "", fmt.Errorf("missing expression")
	default:
		return "", fmt.Errorf("unsupported expression %T", e)
	}
}

func (w *writer) operand(level int, op string, e jsast.Expr) (string, error) {
	s, err := w.expr(level, e)
	if err != nil {
		return "", err
	}
	if b, ok := e.(*jsast.Binary); ok && precedence[b.Op] < precedence[op] {
		return "(" + s + ")", nil
	}
	return s, nil
}

func (w *writer) args(level int, args []jsast.Expr) (string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		s, err := w.expr(level, a)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

// chain unwinds x.a(...).b(...).c(...) into its calls, outermost last, and
// the expression the first call is made on.
func chain(c *jsast.Call) ([]*jsast.Call, jsast.Expr) {
	var calls []*jsast.Call
	var base jsast.Expr = c
	for {
		call, ok := base.(*jsast.Call)
		if !ok {
			break
		}
		m, ok := call.Fn.(*jsast.Member)
		if !ok {
			break
		}
		calls = append([]*jsast.Call{call}, calls...)
		base = m.X
	}
	return calls, base
}

func (w *writer) chain(level int, base jsast.Expr, calls []*jsast.Call) (string, error) {
	var b strings.Builder
	x, err := w.expr(level, base)
	if err != nil {
		return "", err
	}
	b.WriteString(x)
	cont := "\n" + strings.Repeat(w.r.indent, level+2)
	for i, call := range calls {
		if i > 0 {
			b.WriteString(cont)
		}
		args, err := w.args(level+2, call.Args)
		if err != nil {
			return "", err
		}
		b.WriteString(property(call.Fn.(*jsast.Member).Name))
		b.WriteString("(" + args + ")")
	}
	return b.String(), nil
}

func property(name string) string {
	if needsQuoting(name) {
		return "[" + quote(name) + "]"
	}
	return "." + name
}

func quote(s string) string {
	q, _ := literal(s)
	return q
}

// literal encodes v as JSON, which is valid JavaScript expression syntax.
func literal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode literal: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
