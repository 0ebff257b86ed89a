package scene

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scadc/internal/monitoring"
)

// maxCallDepth bounds nested user module calls.
const maxCallDepth = 1000

type scope struct {
	parent  *scope
	vars    map[string]Value
	modules map[string]*ModuleDef
	// defs is the scope module definitions found here were written in.
	defs *scope
	// module is set on document scopes; its libraries are searched last.
	module *Module

	children     []Stmt
	childrenFrom *scope
}

func newScope(parent *scope) *scope {
	return &scope{
		parent:  parent,
		vars:    make(map[string]Value),
		modules: make(map[string]*ModuleDef),
	}
}

func (s *scope) lookup(name string) (Value, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.vars[name]; ok {
			return v, true
		}
	}
	return Undef, false
}

// caller finds the nearest enclosing module-call scope.
func (s *scope) caller() *scope {
	for c := s; c != nil; c = c.parent {
		if c.childrenFrom != nil {
			return c
		}
	}
	return nil
}

type instantiator struct {
	next      int
	depth     int
	libScopes map[*Module]*scope
}

// Instantiate evaluates m and returns the root of its node tree. The root is
// always a group node with index 0.
func (f *Frontend) Instantiate(m *Module) (*Node, error) {
	in := &instantiator{libScopes: make(map[*Module]*scope)}
	top := builtinScope()
	top.module = m

	root := in.newNode(NodeGroup)
	children, err := in.body(m.Body, top)
	if err != nil {
		return nil, err
	}
	root.Children = children
	return root, nil
}

func builtinScope() *scope {
	s := newScope(nil)
	s.vars["PI"] = NumberValue(math.Pi)
	s.vars["$fn"] = NumberValue(0)
	s.vars["$fa"] = NumberValue(12)
	s.vars["$fs"] = NumberValue(2)
	s.vars["$t"] = NumberValue(0)
	return s
}

func (in *instantiator) newNode(kind NodeKind) *Node {
	n := &Node{Index: in.next, Kind: kind, Matrix: Identity(), Convexity: 1}
	in.next++
	return n
}

// body evaluates one scope: module definitions and assignments first, then
// every instantiation in source order. A variable assigned more than once
// takes its last value at the position of its first assignment.
func (in *instantiator) body(stmts []Stmt, sc *scope) ([]*Node, error) {
	var order []string
	last := make(map[string]Expr)
	for _, s := range stmts {
		switch s := s.(type) {
		case *ModuleDef:
			sc.modules[s.Name] = s
		case *Assignment:
			if _, seen := last[s.Name]; !seen {
				order = append(order, s.Name)
			}
			last[s.Name] = s.Value
		}
	}
	for _, name := range order {
		sc.vars[name] = in.eval(last[name], sc)
	}

	var nodes []*Node
	for _, s := range stmts {
		switch s := s.(type) {
		case *Instantiation:
			n, err := in.call(s, sc)
			if err != nil {
				return nil, err
			}
			if n != nil {
				nodes = append(nodes, n)
			}
		case *Assert:
			if err := in.assert(s, sc); err != nil {
				return nil, err
			}
		}
	}
	return nodes, nil
}

func (in *instantiator) assert(a *Assert, sc *scope) error {
	if in.eval(a.Cond, sc).Truthy() {
		return nil
	}
	msg := a.Cond.String()
	if a.Message != nil {
		v := in.eval(a.Message, sc)
		if v.Type == TypeString {
			msg = v.Str
		} else {
			msg = v.String()
		}
	}
	return fmt.Errorf("%w in line %d: %s", ErrAssertion, a.Line, msg)
}

type callArgs struct {
	positional []Value
	named      map[string]Value
	names      []string
}

func (a callArgs) get(name string, pos int) (Value, bool) {
	if v, ok := a.named[name]; ok {
		return v, true
	}
	if pos >= 0 && pos < len(a.positional) {
		return a.positional[pos], true
	}
	return Undef, false
}

func (in *instantiator) evalArgs(args []Argument, sc *scope) callArgs {
	out := callArgs{named: make(map[string]Value)}
	for _, a := range args {
		v := in.eval(a.Value, sc)
		if a.Name == "" {
			out.positional = append(out.positional, v)
			continue
		}
		if _, dup := out.named[a.Name]; !dup {
			out.names = append(out.names, a.Name)
		}
		out.named[a.Name] = v
	}
	return out
}

func tagsOf(inst *Instantiation) Tag {
	var t Tag
	if inst.HasModifier(ModRoot) {
		t |= TagRoot
	}
	if inst.HasModifier(ModHighlight) {
		t |= TagHighlight
	}
	if inst.HasModifier(ModBackground) {
		t |= TagBackground
	}
	return t
}

func (in *instantiator) call(inst *Instantiation, sc *scope) (*Node, error) {
	if inst.HasModifier(ModDisable) {
		return nil, nil
	}
	if inst.Name == "echo" {
		in.echo(inst, sc)
		return nil, nil
	}
	if inst.Name == "children" {
		return in.childrenCall(inst, sc)
	}
	if def, defScope := in.lookupModule(inst.Name, sc); def != nil {
		return in.userCall(inst, def, defScope, sc)
	}

	build, ok := builtins[inst.Name]
	if !ok {
		monitoring.Logf("WARNING: Ignoring unknown module '%s'.", inst.Name)
		return nil, nil
	}
	args := in.evalArgs(inst.Args, sc)
	n := in.newNode(NodeGroup)
	n.Tags = tagsOf(inst)
	if err := build(n, args, inst); err != nil {
		return nil, err
	}
	if n.Kind.IsLeaf() {
		return n, nil
	}
	children, err := in.body(inst.Children, newScope(sc))
	if err != nil {
		return nil, err
	}
	n.Children = children
	return n, nil
}

func (in *instantiator) echo(inst *Instantiation, sc *scope) {
	parts := make([]string, 0, len(inst.Args))
	for _, a := range inst.Args {
		v := in.eval(a.Value, sc)
		if a.Name == "" {
			parts = append(parts, v.String())
		} else {
			parts = append(parts, a.Name+" = "+v.String())
		}
	}
	monitoring.Logf("ECHO: %s", strings.Join(parts, ", "))
}

func (in *instantiator) childrenCall(inst *Instantiation, sc *scope) (*Node, error) {
	c := sc.caller()
	if c == nil {
		return nil, nil
	}
	stmts := c.children
	args := in.evalArgs(inst.Args, sc)
	if v, ok := args.get("index", 0); ok {
		idx, isNum := v.Number()
		var picked []Stmt
		count := 0
		for _, s := range stmts {
			if _, isInst := s.(*Instantiation); !isInst {
				picked = append(picked, s)
				continue
			}
			if isNum && float64(count) == idx {
				picked = append(picked, s)
			}
			count++
		}
		stmts = picked
	}
	n := in.newNode(NodeGroup)
	n.Tags = tagsOf(inst)
	children, err := in.body(stmts, newScope(c.childrenFrom))
	if err != nil {
		return nil, err
	}
	n.Children = children
	return n, nil
}

func (in *instantiator) lookupModule(name string, sc *scope) (*ModuleDef, *scope) {
	for c := sc; c != nil; c = c.parent {
		if def, ok := c.modules[name]; ok {
			return def, c
		}
		if c.module == nil {
			continue
		}
		for i := len(c.module.Libraries) - 1; i >= 0; i-- {
			lib := c.module.Libraries[i]
			if def := lib.lookupModule(name); def != nil {
				return def, in.libraryScope(lib)
			}
		}
	}
	return nil, nil
}

// libraryScope evaluates the top-level assignments and module definitions
// of a used library once. Its instantiations are not run.
func (in *instantiator) libraryScope(lib *Module) *scope {
	if s, ok := in.libScopes[lib]; ok {
		return s
	}
	s := builtinScope()
	s.module = lib
	in.libScopes[lib] = s
	var defs []Stmt
	for _, st := range lib.Body {
		switch st.(type) {
		case *Assignment, *ModuleDef:
			defs = append(defs, st)
		}
	}
	// Only definitions are evaluated, so no node can be produced here.
	_, _ = in.body(defs, s)
	return s
}

func (in *instantiator) userCall(inst *Instantiation, def *ModuleDef, defScope, sc *scope) (*Node, error) {
	if in.depth >= maxCallDepth {
		return nil, fmt.Errorf("%w calling module '%s'", ErrRecursion, def.Name)
	}
	in.depth++
	defer func() { in.depth-- }()

	args := in.evalArgs(inst.Args, sc)
	body := newScope(defScope)
	body.children = inst.Children
	body.childrenFrom = sc

	for i, p := range def.Params {
		if v, ok := args.get(p.Name, i); ok {
			body.vars[p.Name] = v
		} else if p.Value != nil {
			body.vars[p.Name] = in.eval(p.Value, body)
		} else {
			body.vars[p.Name] = Undef
		}
	}
	for _, name := range args.names {
		if !hasParam(def, name) && !strings.HasPrefix(name, "$") {
			monitoring.Logf("WARNING: Ignoring unknown parameter '%s' of module '%s'.", name, def.Name)
		}
		if strings.HasPrefix(name, "$") {
			body.vars[name] = args.named[name]
		}
	}

	n := in.newNode(NodeGroup)
	n.Tags = tagsOf(inst)
	children, err := in.body(def.Body, body)
	if err != nil {
		return nil, err
	}
	n.Children = children
	return n, nil
}

func hasParam(def *ModuleDef, name string) bool {
	for _, p := range def.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (in *instantiator) eval(e Expr, sc *scope) Value {
	switch e := e.(type) {
	case nil:
		return Undef
	case NumberLit:
		return NumberValue(e.Value)
	case StringLit:
		return StringValue(e.Value)
	case BoolLit:
		return BoolValue(e.Value)
	case UndefLit:
		return Undef
	case Ident:
		v, ok := sc.lookup(e.Name)
		if !ok {
			monitoring.Logf("WARNING: Ignoring unknown variable '%s'.", e.Name)
		}
		return v
	case VectorExpr:
		out := make([]Value, len(e.Elems))
		for i, el := range e.Elems {
			out[i] = in.eval(el, sc)
		}
		return VectorValue(out...)
	case UnaryExpr:
		return unaryOp(e.Op, in.eval(e.X, sc))
	case BinaryExpr:
		return binaryOp(e.Op, in.eval(e.Left, sc), in.eval(e.Right, sc))
	case TernaryExpr:
		if in.eval(e.Cond, sc).Truthy() {
			return in.eval(e.Then, sc)
		}
		return in.eval(e.Else, sc)
	case IndexExpr:
		return index(in.eval(e.X, sc), in.eval(e.Index, sc))
	}
	return Undef
}

func index(x, i Value) Value {
	n, ok := i.Number()
	if !ok || n < 0 || n != math.Trunc(n) {
		return Undef
	}
	idx := int(n)
	switch x.Type {
	case TypeVector:
		if idx < len(x.Vec) {
			return x.Vec[idx]
		}
	case TypeString:
		if idx < len(x.Str) {
			return StringValue(x.Str[idx : idx+1])
		}
	}
	return Undef
}

type builtinFunc func(n *Node, args callArgs, inst *Instantiation) error

var builtins = map[string]builtinFunc{
	"group":        groupKind(NodeGroup),
	"union":        groupKind(NodeUnion),
	"difference":   groupKind(NodeDifference),
	"intersection": groupKind(NodeIntersection),
	"translate":    translateNode,
	"scale":        scaleNode,
	"rotate":       rotateNode,
	"multmatrix":   multmatrixNode,
	"cube":         cubeNode,
	"square":       squareNode,
	"polygon":      polygonNode,
	"polyhedron":   polyhedronNode,
	"import":       importNode,
}

func groupKind(kind NodeKind) builtinFunc {
	return func(n *Node, _ callArgs, _ *Instantiation) error {
		n.Kind = kind
		return nil
	}
}

func translateNode(n *Node, args callArgs, _ *Instantiation) error {
	n.Kind = NodeTransform
	v, _ := args.get("v", 0)
	if vec, ok := v.Vec3(0); ok && v.Type == TypeVector {
		n.Matrix = Translation(vec)
	}
	return nil
}

func scaleNode(n *Node, args callArgs, _ *Instantiation) error {
	n.Kind = NodeTransform
	v, _ := args.get("v", 0)
	if vec, ok := v.Vec3(1); ok {
		n.Matrix = Scaling(vec)
	}
	return nil
}

func rotateNode(n *Node, args callArgs, _ *Instantiation) error {
	n.Kind = NodeTransform
	a, _ := args.get("a", 0)
	if a.Type == TypeVector {
		if deg, ok := a.Vec3(0); ok {
			n.Matrix = EulerRotation(deg)
		}
		return nil
	}
	deg, ok := a.Number()
	if !ok {
		return nil
	}
	axis := r3.Vec{Z: 1}
	if v, ok := args.get("v", 1); ok {
		if vec, ok := v.Vec3(0); ok && v.Type == TypeVector {
			axis = vec
		}
	}
	n.Matrix = AxisRotation(deg, axis)
	return nil
}

func multmatrixNode(n *Node, args callArgs, _ *Instantiation) error {
	n.Kind = NodeTransform
	m, _ := args.get("m", 0)
	if m.Type != TypeVector {
		return nil
	}
	out := Identity()
	for r, row := range m.Vec {
		if r >= 4 || row.Type != TypeVector {
			continue
		}
		for c, cell := range row.Vec {
			if v, ok := cell.Number(); ok && c < 4 {
				out[r*4+c] = v
			}
		}
	}
	n.Matrix = out
	return nil
}

func cubeNode(n *Node, args callArgs, _ *Instantiation) error {
	n.Kind = NodeCube
	n.Size = r3.Vec{X: 1, Y: 1, Z: 1}
	if v, ok := args.get("size", 0); ok {
		if size, ok := v.Vec3(1); ok {
			n.Size = size
		}
	}
	if v, ok := args.get("center", 1); ok {
		n.Center = v.Truthy()
	}
	return nil
}

func squareNode(n *Node, args callArgs, _ *Instantiation) error {
	n.Kind = NodeSquare
	n.Size = r3.Vec{X: 1, Y: 1}
	if v, ok := args.get("size", 0); ok {
		if size, ok := v.Vec3(1); ok {
			n.Size = r3.Vec{X: size.X, Y: size.Y}
		}
	}
	if v, ok := args.get("center", 1); ok {
		n.Center = v.Truthy()
	}
	return nil
}

func polygonNode(n *Node, args callArgs, _ *Instantiation) error {
	n.Kind = NodePolygon
	if v, ok := args.get("points", 0); ok {
		if pts, ok := v.Points(); ok {
			for i := range pts {
				pts[i].Z = 0
			}
			n.Points = pts
		}
	}
	if v, ok := args.get("paths", 1); ok && v.Type == TypeVector {
		if paths, ok := v.Indices(); ok {
			n.Paths = paths
		}
	}
	setConvexity(n, args, 2)
	return nil
}

func polyhedronNode(n *Node, args callArgs, _ *Instantiation) error {
	n.Kind = NodePolyhedron
	if v, ok := args.get("points", 0); ok {
		if pts, ok := v.Points(); ok {
			n.Points = pts
		}
	}
	faces, ok := args.get("faces", 1)
	if !ok {
		faces, _ = args.get("triangles", -1)
	}
	if idx, ok := faces.Indices(); ok {
		n.Paths = idx
	}
	setConvexity(n, args, 2)
	return nil
}

func importNode(n *Node, args callArgs, inst *Instantiation) error {
	n.Kind = NodeImport
	v, ok := args.get("file", 0)
	if !ok || v.Type != TypeString || v.Str == "" {
		monitoring.Logf("WARNING: import() without a file name in line %d.", inst.Line)
		return nil
	}
	n.File = resolvePath(inst.Dir, v.Str)
	setConvexity(n, args, 1)
	return nil
}

func setConvexity(n *Node, args callArgs, pos int) {
	if v, ok := args.get("convexity", pos); ok {
		if c, ok := v.Number(); ok && c >= 1 {
			n.Convexity = int(c)
		}
	}
}
