package deps

import (
	"fmt"
	"strings"

	"github.com/banshee-data/scadc/internal/fsutil"
)

// FormatManifest renders a make rule with target depending on prereqs.
// Spaces in paths are escaped the way make expects.
func FormatManifest(target string, prereqs []string) string {
	var b strings.Builder
	b.WriteString(escape(target))
	b.WriteString(":")
	for _, p := range prereqs {
		fmt.Fprintf(&b, " \\\n\t%s", escape(p))
	}
	b.WriteString("\n")
	return b.String()
}

// WriteManifest writes the manifest for target to manifestPath, an absolute
// path.
func WriteManifest(fsys fsutil.FileSystem, manifestPath, target string, prereqs []string) error {
	if err := fsys.WriteFile(manifestPath, []byte(FormatManifest(target, prereqs)), 0644); err != nil {
		return fmt.Errorf("can't open dependencies file %q for writing: %w", manifestPath, err)
	}
	return nil
}

func escape(p string) string {
	return strings.ReplaceAll(p, " ", `\ `)
}
