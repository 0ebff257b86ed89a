// Package security validates user-supplied values that reach external
// processes.
package security

import (
	"fmt"
	"strings"
)

// disallowedCommandChars are shell metacharacters. Commands run without a
// shell, so their presence means the user expected shell semantics.
const disallowedCommandChars = "|;&$`\\\"'<>"

// SplitMakeCommand validates a make command and splits it into the program
// and its leading arguments. The dependency path is appended by the caller.
func SplitMakeCommand(command string) ([]string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty make command")
	}
	if strings.ContainsAny(command, disallowedCommandChars) {
		return nil, fmt.Errorf("invalid make command %q: contains disallowed characters", command)
	}
	return fields, nil
}
