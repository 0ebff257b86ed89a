package scene

import (
	"fmt"
	"path/filepath"

	"github.com/banshee-data/scadc/internal/fsutil"
	"github.com/banshee-data/scadc/internal/monitoring"
)

// maxIncludeDepth bounds nested include directives.
const maxIncludeDepth = 64

// DependencyHandler is told about every file the front-end opens.
type DependencyHandler interface {
	Handle(path string)
}

// Frontend parses and instantiates scene documents.
type Frontend struct {
	fs       fsutil.FileSystem
	deps     DependencyHandler
	features Features
}

// NewFrontend returns a Frontend reading included files from fsys and
// reporting them to deps, which may be nil.
func NewFrontend(fsys fsutil.FileSystem, deps DependencyHandler, features Features) *Frontend {
	return &Frontend{fs: fsys, deps: deps, features: features}
}

// Features returns the enabled experimental features.
func (f *Frontend) Features() Features { return f.features }

func (f *Frontend) handleDep(path string) {
	if f.deps != nil {
		f.deps.Handle(path)
	}
}

// Parse parses text as a document whose relative paths resolve against the
// absolute directory docDir. include directives are expanded in place and
// use directives load their libraries.
func (f *Frontend) Parse(text, docDir string) (*Module, error) {
	return f.parse(text, "", docDir, map[string]bool{})
}

func (f *Frontend) parse(text, file, dir string, loaded map[string]bool) (*Module, error) {
	toks, err := f.lex(text, file, dir, nil)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, dir: dir, features: f.features}
	body, err := p.statements(false)
	if err != nil {
		return nil, err
	}
	m := &Module{Dir: dir, Body: body}

	for _, u := range p.uses {
		lib, err := f.loadLibrary(u, loaded)
		if err != nil {
			return nil, err
		}
		if lib != nil {
			m.Libraries = append(m.Libraries, lib)
		}
	}
	return m, nil
}

// lex tokenises text and splices in the tokens of every included file.
func (f *Frontend) lex(text, file, dir string, stack []string) ([]token, error) {
	raw, err := newLexer(text, file).tokens()
	if err != nil {
		return nil, err
	}
	out := make([]token, 0, len(raw))
	for _, t := range raw {
		if t.kind != tokInclude {
			out = append(out, t)
			continue
		}
		path := resolvePath(dirOf(t.file, dir), t.text)
		f.handleDep(path)
		for _, s := range stack {
			if s == path {
				return nil, &SyntaxError{File: t.file, Line: t.line, Msg: fmt.Sprintf("circular include of %s", t.text)}
			}
		}
		if len(stack) >= maxIncludeDepth {
			return nil, &SyntaxError{File: t.file, Line: t.line, Msg: "includes nested too deeply"}
		}
		data, err := f.fs.ReadFile(path)
		if err != nil {
			monitoring.Logf("WARNING: Can't open include file '%s'.", t.text)
			continue
		}
		sub, err := f.lex(string(data), path, filepath.Dir(path), append(stack, path))
		if err != nil {
			return nil, err
		}
		out = append(out, sub[:len(sub)-1]...)
	}
	return out, nil
}

type pendingUse struct {
	path string
	tok  token
}

func (f *Frontend) loadLibrary(u pendingUse, loaded map[string]bool) (*Module, error) {
	f.handleDep(u.path)
	if loaded[u.path] {
		return nil, nil
	}
	loaded[u.path] = true
	data, err := f.fs.ReadFile(u.path)
	if err != nil {
		monitoring.Logf("WARNING: Can't open library '%s'.", u.tok.text)
		return nil, nil
	}
	return f.parse(string(data), u.path, filepath.Dir(u.path), loaded)
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

type parser struct {
	toks     []token
	pos      int
	dir      string
	features Features
	uses     []pendingUse
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) accept(s string) bool {
	if p.isPunct(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) errorf(t token, format string, v ...interface{}) error {
	return &SyntaxError{File: t.file, Line: t.line, Msg: fmt.Sprintf(format, v...)}
}

func (p *parser) expect(s string) error {
	if p.accept(s) {
		return nil
	}
	t := p.peek()
	return p.errorf(t, "syntax error, expected '%s' but found %s", s, t)
}

func (p *parser) ident() (token, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return t, p.errorf(t, "syntax error, expected identifier but found %s", t)
	}
	return p.next(), nil
}

// statements parses until end of input, or until the closing brace when
// inBlock is set.
func (p *parser) statements(inBlock bool) ([]Stmt, error) {
	var out []Stmt
	for {
		t := p.peek()
		if t.kind == tokEOF {
			if inBlock {
				return nil, p.errorf(t, "syntax error, unexpected end of input, expected '}'")
			}
			return out, nil
		}
		if inBlock && p.isPunct("}") {
			p.next()
			return out, nil
		}
		stmts, err := p.statement()
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
}

func (p *parser) statement() ([]Stmt, error) {
	t := p.peek()
	switch {
	case t.kind == tokPunct && t.text == ";":
		p.next()
		return nil, nil
	case t.kind == tokPunct && t.text == "{":
		p.next()
		return p.statements(true)
	case t.kind == tokUse:
		p.next()
		p.uses = append(p.uses, pendingUse{path: resolvePath(dirOf(t.file, p.dir), t.text), tok: t})
		return []Stmt{&Use{Path: t.text}}, nil
	case t.kind == tokIdent && t.text == "module":
		def, err := p.moduleDef()
		if err != nil {
			return nil, err
		}
		return []Stmt{def}, nil
	case t.kind == tokIdent && t.text == "function":
		return nil, p.errorf(t, "function definitions are not supported")
	case t.kind == tokIdent && p.peekAt(1).kind == tokPunct && p.peekAt(1).text == "=":
		p.next()
		p.next()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(";"); err != nil {
			return nil, err
		}
		return []Stmt{&Assignment{Name: t.text, Value: e}}, nil
	}
	s, err := p.instantiation()
	if err != nil {
		return nil, err
	}
	return []Stmt{s}, nil
}

func (p *parser) moduleDef() (*ModuleDef, error) {
	p.next() // module
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var params []Argument
	for !p.isPunct(")") {
		id, err := p.ident()
		if err != nil {
			return nil, err
		}
		param := Argument{Name: id.text}
		if p.accept("=") {
			if param.Value, err = p.expr(); err != nil {
				return nil, err
			}
		}
		params = append(params, param)
		if !p.accept(",") {
			break
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.childStatements()
	if err != nil {
		return nil, err
	}
	return &ModuleDef{Name: name.text, Params: params, Body: body}, nil
}

var modifierPunct = map[string]Modifier{
	"!": ModRoot,
	"#": ModHighlight,
	"%": ModBackground,
	"*": ModDisable,
}

func (p *parser) instantiation() (Stmt, error) {
	var mods []Modifier
	for {
		t := p.peek()
		m, ok := modifierPunct[t.text]
		if t.kind != tokPunct || !ok {
			break
		}
		p.next()
		mods = append(mods, m)
	}

	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	args, err := p.arguments()
	if err != nil {
		return nil, err
	}

	if name.text == "assert" && p.features.Enabled(FeatureAssert) {
		if err := p.expect(";"); err != nil {
			return nil, err
		}
		return p.assertStmt(name, args)
	}

	children, err := p.childStatements()
	if err != nil {
		return nil, err
	}
	return &Instantiation{
		Modifiers: mods,
		Name:      name.text,
		Args:      args,
		Children:  children,
		Dir:       dirOf(name.file, p.dir),
		Line:      name.line,
	}, nil
}

func (p *parser) assertStmt(name token, args []Argument) (Stmt, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, p.errorf(name, "assert takes a condition and an optional message")
	}
	a := &Assert{Cond: args[0].Value, Line: name.line}
	if len(args) == 2 {
		a.Message = args[1].Value
	}
	return a, nil
}

// childStatements parses what follows a module call or definition header:
// ';', a braced block or a single nested statement.
func (p *parser) childStatements() ([]Stmt, error) {
	if p.accept(";") {
		return nil, nil
	}
	if p.accept("{") {
		return p.statements(true)
	}
	return p.statement()
}

func (p *parser) arguments() ([]Argument, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []Argument
	for !p.isPunct(")") {
		var a Argument
		if t := p.peek(); t.kind == tokIdent && p.peekAt(1).kind == tokPunct && p.peekAt(1).text == "=" {
			p.next()
			p.next()
			a.Name = t.text
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		a.Value = e
		args = append(args, a)
		if !p.accept(",") {
			break
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) expr() (Expr, error) {
	cond, err := p.binary(0)
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return cond, nil
	}
	then, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.expr()
	if err != nil {
		return nil, err
	}
	return TernaryExpr{Cond: cond, Then: then, Else: els}, nil
}

// precedence lists binary operators from loosest to tightest binding.
var precedence = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) binary(level int) (Expr, error) {
	if level == len(precedence) {
		return p.unary()
	}
	left, err := p.binary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokPunct || !contains(precedence[level], t.text) {
			return left, nil
		}
		p.next()
		right, err := p.binary(level + 1)
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: t.text, Left: left, Right: right}
	}
}

func (p *parser) unary() (Expr, error) {
	t := p.peek()
	if t.kind == tokPunct && (t.text == "-" || t.text == "+" || t.text == "!") {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if n, ok := x.(NumberLit); ok && t.text == "-" {
			return NumberLit{Value: -n.Value}, nil
		}
		return UnaryExpr{Op: t.text, X: x}, nil
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.postfix()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind != tokPunct || t.text != "^" {
		return base, nil
	}
	if !p.features.Enabled(FeatureExponent) {
		return nil, p.errorf(t, "the ^ operator requires the %q feature", FeatureExponent)
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return BinaryExpr{Op: "^", Left: base, Right: exp}, nil
}

func (p *parser) postfix() (Expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.accept("[") {
		idx, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		x = IndexExpr{X: x, Index: idx}
	}
	return x, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return NumberLit{Value: t.num}, nil
	case tokString:
		return StringLit{Value: t.text}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return BoolLit{Value: true}, nil
		case "false":
			return BoolLit{Value: false}, nil
		case "undef":
			return UndefLit{}, nil
		}
		return Ident{Name: t.text}, nil
	case tokPunct:
		switch t.text {
		case "(":
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			return e, p.expect(")")
		case "[":
			var elems []Expr
			for !p.isPunct("]") {
				e, err := p.expr()
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
				if !p.accept(",") {
					break
				}
			}
			return VectorExpr{Elems: elems}, p.expect("]")
		}
	}
	return nil, p.errorf(t, "syntax error, unexpected %s", t)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
