package scene

import (
	"errors"
	"fmt"
)

// SyntaxError reports a lexing or parsing failure at a source position.
type SyntaxError struct {
	File string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("Parser error in line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("Parser error in file %q, line %d: %s", e.File, e.Line, e.Msg)
}

// ErrAssertion is wrapped by instantiation errors raised by a failed assert.
var ErrAssertion = errors.New("assertion failed")

// ErrRecursion is returned when module calls nest deeper than the limit.
var ErrRecursion = errors.New("recursion detected")
