package scene

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokInclude // include <path>
	tokUse     // use <path>
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	num  float64
	file string
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return strconv.Quote(t.text)
	default:
		return fmt.Sprintf("'%s'", t.text)
	}
}

// twoCharPunct lists the operators lexed as a single token.
var twoCharPunct = []string{"==", "!=", "<=", ">=", "&&", "||"}

const singlePunct = "{}()[];,=+-*/%!#<>?:.^"

type lexer struct {
	src  string
	file string
	pos  int
	line int
}

func newLexer(src, file string) *lexer {
	return &lexer{src: src, file: file, line: 1}
}

// tokens lexes the whole input. include and use directives are returned as
// single tokens carrying the bracketed path.
func (l *lexer) tokens() ([]token, error) {
	var out []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.kind == tokEOF {
			return out, nil
		}
	}
}

func (l *lexer) errorf(format string, v ...interface{}) error {
	return &SyntaxError{File: l.file, Line: l.line, Msg: fmt.Sprintf(format, v...)}
}

func (l *lexer) skipSpaceAndComments() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case strings.HasPrefix(l.src[l.pos:], "//"):
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return l.errorf("unterminated comment")
			}
			l.line += strings.Count(l.src[l.pos:l.pos+2+end], "\n")
			l.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return token{}, err
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, file: l.file, line: l.line}, nil
	}
	start := l.pos
	c := l.src[l.pos]

	switch {
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		word := l.src[start:l.pos]
		if word == "include" || word == "use" {
			return l.directive(word)
		}
		return token{kind: tokIdent, text: word, file: l.file, line: l.line}, nil

	case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.number()

	case c == '"':
		return l.str()
	}

	for _, p := range twoCharPunct {
		if strings.HasPrefix(l.src[l.pos:], p) {
			l.pos += 2
			return token{kind: tokPunct, text: p, file: l.file, line: l.line}, nil
		}
	}
	if strings.IndexByte(singlePunct, c) >= 0 {
		l.pos++
		return token{kind: tokPunct, text: string(c), file: l.file, line: l.line}, nil
	}
	return token{}, l.errorf("unexpected character %q", rune(c))
}

func (l *lexer) directive(word string) (token, error) {
	line := l.line
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}
	if l.pos >= len(l.src) || l.src[l.pos] != '<' {
		return token{}, l.errorf("expected <path> after %s", word)
	}
	end := strings.IndexAny(l.src[l.pos+1:], ">\n")
	if end < 0 || l.src[l.pos+1+end] != '>' {
		return token{}, l.errorf("unterminated path after %s", word)
	}
	path := strings.TrimSpace(l.src[l.pos+1 : l.pos+1+end])
	l.pos += end + 2
	kind := tokInclude
	if word == "use" {
		kind = tokUse
	}
	return token{kind: kind, text: path, file: l.file, line: line}, nil
}

func (l *lexer) number() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	text := l.src[start:l.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, l.errorf("invalid number %q", text)
	}
	return token{kind: tokNumber, text: text, num: v, file: l.file, line: l.line}, nil
}

func (l *lexer) str() (token, error) {
	line := l.line
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			return token{kind: tokString, text: sb.String(), file: l.file, line: line}, nil
		case '\\':
			if l.pos+1 >= len(l.src) {
				return token{}, l.errorf("unterminated string")
			}
			l.pos++
			switch esc := l.src[l.pos]; esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(esc)
			}
		case '\n':
			l.line++
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
		l.pos++
	}
	return token{}, l.errorf("unterminated string")
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || unicode.IsLetter(rune(c))
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
