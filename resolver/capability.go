package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// Capability is a set of lookup kinds a resolver supports.
type Capability uint8

const (
	Components Capability = 1 << iota
	Helpers
	Modifiers
	Partials

	AllCapabilities = Components | Helpers | Modifiers | Partials
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{Components, "components"},
	{Helpers, "helpers"},
	{Modifiers, "modifiers"},
	{Partials, "partials"},
}

// Has reports whether every capability in want is present.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, n := range capabilityNames {
		if c.Has(n.cap) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseCapabilities converts capability names, as written in configuration,
// into a set.
func ParseCapabilities(names []string) (Capability, error) {
	var c Capability
	for _, name := range names {
		found := false
		for _, n := range capabilityNames {
			if strings.EqualFold(name, n.name) {
				c |= n.cap
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown resolver capability %q", name)
		}
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// ErrUnsupported is wrapped by every UnsupportedError.
var ErrUnsupported = errors.New("operation not supported by resolver")

// UnsupportedError reports a lookup the resolver does not implement. It is
// distinct from a lookup that found nothing, which is not an error.
type UnsupportedError struct {
	Resolver string
	Op       string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s resolver: %s: %v", e.Resolver, e.Op, ErrUnsupported)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// IsUnsupported reports whether err says a lookup is unsupported.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
