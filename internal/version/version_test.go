package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	if got := String(); got != "scadc version "+Version {
		t.Errorf("String() = %q", got)
	}
}

func TestInfo(t *testing.T) {
	info := Info()
	for _, want := range []string{Version, GitSHA, BuildTime, "Go: "} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() missing %q:\n%s", want, info)
		}
	}
}
