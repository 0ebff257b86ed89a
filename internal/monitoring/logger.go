// Package monitoring holds the diagnostic logger shared by a run.
package monitoring

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger or Redirect. Scene echo output, warnings and
// progress messages all pass through it.
var Logf func(format string, v ...interface{}) = log.Printf

var mu sync.Mutex

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Redirect sends every message to w, one message per line, until the
// returned func restores the previous logger. It is used to capture echo
// output into a file instead of the normal log stream.
func Redirect(w io.Writer) (restore func()) {
	mu.Lock()
	prev := Logf
	mu.Unlock()

	SetLogger(func(format string, v ...interface{}) {
		msg := strings.TrimRight(fmt.Sprintf(format, v...), "\n")
		fmt.Fprintf(w, "%s\n", msg)
	})
	return func() { SetLogger(prev) }
}

// Deprecationf logs a deprecation notice.
func Deprecationf(format string, v ...interface{}) {
	Logf("DEPRECATED: "+format, v...)
}
