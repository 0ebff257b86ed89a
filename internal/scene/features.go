package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Feature names an experimental language feature.
type Feature string

const (
	// FeatureAssert enables the assert(condition, message) statement.
	FeatureAssert Feature = "assert"
	// FeatureExponent enables the ^ power operator.
	FeatureExponent Feature = "exponent"
)

var knownFeatures = map[Feature]struct{}{
	FeatureAssert:   {},
	FeatureExponent: {},
}

// ErrUnknownFeature is returned for an --enable name that is not a feature.
var ErrUnknownFeature = errors.New("unknown experimental feature")

// Features is an immutable set of enabled features. The zero value enables
// nothing.
type Features struct {
	enabled map[Feature]struct{}
}

// NewFeatures builds a feature set from names.
func NewFeatures(names ...string) (Features, error) {
	f := Features{enabled: make(map[Feature]struct{}, len(names))}
	for _, n := range names {
		feat := Feature(strings.TrimSpace(n))
		if _, ok := knownFeatures[feat]; !ok {
			return Features{}, fmt.Errorf("%w: %q", ErrUnknownFeature, n)
		}
		f.enabled[feat] = struct{}{}
	}
	return f, nil
}

// Enabled reports whether feat is on.
func (f Features) Enabled(feat Feature) bool {
	_, ok := f.enabled[feat]
	return ok
}

// Names lists the enabled features in sorted order.
func (f Features) Names() []string {
	out := make([]string, 0, len(f.enabled))
	for feat := range f.enabled {
		out = append(out, string(feat))
	}
	sort.Strings(out)
	return out
}

// KnownFeatures lists every feature name accepted by NewFeatures.
func KnownFeatures() []string {
	out := make([]string, 0, len(knownFeatures))
	for feat := range knownFeatures {
		out = append(out, string(feat))
	}
	sort.Strings(out)
	return out
}
