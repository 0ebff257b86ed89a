package scene

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Expr is a parsed expression. String renders it back as source text.
type Expr interface {
	fmt.Stringer
	exprNode()
}

type (
	// NumberLit is a numeric literal.
	NumberLit struct{ Value float64 }
	// StringLit is a string literal.
	StringLit struct{ Value string }
	// BoolLit is true or false.
	BoolLit struct{ Value bool }
	// UndefLit is the undef literal.
	UndefLit struct{}
	// Ident references a variable.
	Ident struct{ Name string }
	// VectorExpr is a bracketed list of expressions.
	VectorExpr struct{ Elems []Expr }
	// UnaryExpr applies Op ("-", "+" or "!") to X.
	UnaryExpr struct {
		Op string
		X  Expr
	}
	// BinaryExpr applies an infix operator.
	BinaryExpr struct {
		Op          string
		Left, Right Expr
	}
	// TernaryExpr is cond ? then : else.
	TernaryExpr struct {
		Cond, Then, Else Expr
	}
	// IndexExpr selects one element of a vector or string.
	IndexExpr struct {
		X, Index Expr
	}
)

func (NumberLit) exprNode()   {}
func (StringLit) exprNode()   {}
func (BoolLit) exprNode()     {}
func (UndefLit) exprNode()    {}
func (Ident) exprNode()       {}
func (VectorExpr) exprNode()  {}
func (UnaryExpr) exprNode()   {}
func (BinaryExpr) exprNode()  {}
func (TernaryExpr) exprNode() {}
func (IndexExpr) exprNode()   {}

func (e NumberLit) String() string { return FormatNumber(e.Value) }
func (e StringLit) String() string { return quote(e.Value) }
func (e BoolLit) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}
func (UndefLit) String() string { return "undef" }
func (e Ident) String() string  { return e.Name }

func (e VectorExpr) String() string {
	parts := make([]string, len(e.Elems))
	for i, el := range e.Elems {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (e UnaryExpr) String() string { return e.Op + e.X.String() }

func (e BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Op + " " + e.Right.String() + ")"
}

func (e IndexExpr) String() string { return e.X.String() + "[" + e.Index.String() + "]" }

func (e TernaryExpr) String() string {
	return "(" + e.Cond.String() + " ? " + e.Then.String() + " : " + e.Else.String() + ")"
}

// Argument is one call argument or module parameter. Name is empty for
// positional arguments; Value is nil for parameters without a default.
type Argument struct {
	Name  string
	Value Expr
}

func (a Argument) String() string {
	switch {
	case a.Name == "":
		return a.Value.String()
	case a.Value == nil:
		return a.Name
	default:
		return a.Name + " = " + a.Value.String()
	}
}

func joinArgs(args []Argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// Modifier is the single-character tag prefixed to a module call.
type Modifier int

const (
	ModNone Modifier = iota
	ModRoot
	ModHighlight
	ModBackground
	ModDisable
)

func (m Modifier) String() string {
	switch m {
	case ModRoot:
		return "!"
	case ModHighlight:
		return "#"
	case ModBackground:
		return "%"
	case ModDisable:
		return "*"
	}
	return ""
}

// Stmt is a statement of a scope.
type Stmt interface {
	dump(sb *strings.Builder, indent string)
}

// Assignment binds Name in the enclosing scope.
type Assignment struct {
	Name  string
	Value Expr
}

// Instantiation is a module call with its child statements.
type Instantiation struct {
	Modifiers []Modifier
	Name      string
	Args      []Argument
	Children  []Stmt
	// Dir is the directory of the file the call was written in. Relative
	// file arguments resolve against it.
	Dir  string
	Line int
}

// HasModifier reports whether m was written on the call.
func (in *Instantiation) HasModifier(m Modifier) bool {
	for _, x := range in.Modifiers {
		if x == m {
			return true
		}
	}
	return false
}

// Assert fails instantiation when Cond is false.
type Assert struct {
	Cond    Expr
	Message Expr
	Line    int
}

// ModuleDef is a user module definition.
type ModuleDef struct {
	Name   string
	Params []Argument
	Body   []Stmt
}

// Use records a use <path> directive. Path is as written.
type Use struct {
	Path string
}

func (s *Assignment) dump(sb *strings.Builder, indent string) {
	fmt.Fprintf(sb, "%s%s = %s;\n", indent, s.Name, s.Value)
}

func (s *Instantiation) dump(sb *strings.Builder, indent string) {
	sb.WriteString(indent)
	for _, m := range s.Modifiers {
		sb.WriteString(m.String())
	}
	fmt.Fprintf(sb, "%s(%s)", s.Name, joinArgs(s.Args))
	if len(s.Children) == 0 {
		sb.WriteString(";\n")
		return
	}
	sb.WriteString(" {\n")
	for _, c := range s.Children {
		c.dump(sb, indent+"\t")
	}
	sb.WriteString(indent + "}\n")
}

func (s *Assert) dump(sb *strings.Builder, indent string) {
	if s.Message == nil {
		fmt.Fprintf(sb, "%sassert(%s);\n", indent, s.Cond)
		return
	}
	fmt.Fprintf(sb, "%sassert(%s, %s);\n", indent, s.Cond, s.Message)
}

func (s *ModuleDef) dump(sb *strings.Builder, indent string) {
	fmt.Fprintf(sb, "%smodule %s(%s) {\n", indent, s.Name, joinArgs(s.Params))
	for _, c := range s.Body {
		c.dump(sb, indent+"\t")
	}
	sb.WriteString(indent + "}\n")
}

func (s *Use) dump(sb *strings.Builder, indent string) {
	fmt.Fprintf(sb, "%suse <%s>\n", indent, s.Path)
}

// Module is a parsed source document.
type Module struct {
	// Dir is the absolute directory the document's relative paths resolve
	// against.
	Dir  string
	Body []Stmt
	// Libraries are the documents pulled in with use, in directive order.
	Libraries []*Module
}

// Dump renders the module back as source text.
func (m *Module) Dump() string {
	var sb strings.Builder
	for _, s := range m.Body {
		s.dump(&sb, "")
	}
	return sb.String()
}

// lookupModule finds a module definition in m or, failing that, in its
// libraries. Later definitions win.
func (m *Module) lookupModule(name string) *ModuleDef {
	var found *ModuleDef
	for _, s := range m.Body {
		if def, ok := s.(*ModuleDef); ok && def.Name == name {
			found = def
		}
	}
	if found != nil {
		return found
	}
	for i := len(m.Libraries) - 1; i >= 0; i-- {
		if def := m.Libraries[i].lookupModule(name); def != nil {
			return def
		}
	}
	return nil
}

func dirOf(file, fallback string) string {
	if file == "" {
		return fallback
	}
	return filepath.Dir(file)
}
