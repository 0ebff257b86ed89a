// Package dirctx tracks which directory relative paths resolve against
// during a run.
//
// A Context never changes the process working directory. It holds the
// invocation directory, the directory of the source document and the
// directory currently in effect; every path-resolving operation of a run goes
// through it. Directory switches are scoped: Enter returns a restore func that
// must run on every exit path, typically via defer.
package dirctx

import (
	"fmt"
	"os"
	"path/filepath"
)

// Context is the directory state of one run. It is not safe for concurrent
// use; a run is single-threaded.
type Context struct {
	original string
	document string
	current  string
	depth    int
}

// New returns a Context whose original and current directory is dir, which
// must be absolute.
func New(dir string) (*Context, error) {
	if !filepath.IsAbs(dir) {
		return nil, fmt.Errorf("invocation directory must be absolute, got %q", dir)
	}
	dir = filepath.Clean(dir)
	return &Context{original: dir, document: dir, current: dir}, nil
}

// FromWorkingDirectory captures the process working directory as the
// original directory. It is the only place the process directory is read.
func FromWorkingDirectory() (*Context, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return New(wd)
}

// SetDocument records the parent directory of the source document at
// sourcePath, resolved against the current directory. It returns the
// absolute document directory.
func (c *Context) SetDocument(sourcePath string) string {
	c.document = filepath.Dir(c.Resolve(sourcePath))
	return c.document
}

// Original is the invocation directory.
func (c *Context) Original() string { return c.original }

// Document is the source document's parent directory.
func (c *Context) Document() string { return c.document }

// Current is the directory relative paths resolve against right now.
func (c *Context) Current() string { return c.current }

// Depth is the number of scoped switches that have not been restored.
func (c *Context) Depth() int { return c.depth }

// Resolve returns p as an absolute path, joining relative paths onto the
// current directory.
func (c *Context) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.current, p)
}

// Rel expresses p relative to the current directory. Paths that cannot be
// made relative are returned absolute.
func (c *Context) Rel(p string) string {
	abs := c.Resolve(p)
	rel, err := filepath.Rel(c.current, abs)
	if err != nil {
		return abs
	}
	return rel
}

// Enter switches the current directory to dir (resolved against the current
// directory) until the returned func is called. The restore func is safe to
// call more than once.
func (c *Context) Enter(dir string) (restore func()) {
	prev := c.current
	c.current = c.Resolve(dir)
	c.depth++
	done := false
	return func() {
		if done {
			return
		}
		done = true
		c.current = prev
		c.depth--
	}
}

// EnterDocument switches to the document directory.
func (c *Context) EnterDocument() (restore func()) {
	return c.Enter(c.document)
}

// EnterOriginal switches to the invocation directory.
func (c *Context) EnterOriginal() (restore func()) {
	return c.Enter(c.original)
}

// Within runs fn with dir as the current directory and restores the previous
// directory afterwards, whether or not fn fails.
func (c *Context) Within(dir string, fn func() error) error {
	restore := c.Enter(dir)
	defer restore()
	return fn()
}
