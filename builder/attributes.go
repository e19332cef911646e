package builder

import (
	"fmt"
	"strings"

	"github.com/chazu/filament/dom"
	"github.com/chazu/filament/reference"
	"github.com/chazu/filament/vm"
)

// dynamicAttribute is a vm.DynamicAttribute that can also apply its first
// value.
type dynamicAttribute interface {
	vm.DynamicAttribute
	set(value any)
}

// dynamicAttributeFor picks the strategy for name on el.
func dynamicAttributeFor(el *dom.Element, name, namespace string, trusting bool) dynamicAttribute {
	if namespace == "" && el.NamespaceURI() == dom.HTMLNamespace {
		if isPropertyAttribute(el.TagName(), name) {
			return &propertyAttribute{element: el, name: name}
		}
		if booleanAttributes[name] {
			return &booleanAttribute{element: el, name: name}
		}
	}
	return &simpleAttribute{element: el, name: name, namespace: namespace, trusting: trusting}
}

// ---------------------------------------------------------------------------
// Strategies
// ---------------------------------------------------------------------------

// simpleAttribute writes the normalized value as an attribute, removing the
// attribute for nil and false.
type simpleAttribute struct {
	element   *dom.Element
	name      string
	namespace string
	trusting  bool
}

func (a *simpleAttribute) set(value any) {
	s, ok := normalizeValue(value)
	if !ok {
		if a.namespace != "" {
			a.element.RemoveAttributeNS(a.namespace, a.name)
		} else {
			a.element.RemoveAttribute(a.name)
		}
		return
	}
	if !a.trusting {
		s = sanitizeAttributeValue(a.element.TagName(), a.name, s)
	}
	if a.namespace != "" {
		a.element.SetAttributeNS(a.namespace, a.name, s)
		return
	}
	a.element.SetAttribute(a.name, s)
}

func (a *simpleAttribute) Update(value any, _ vm.Environment) {
	a.set(value)
}

// propertyAttribute writes a live property instead of an attribute, as form
// controls need for value and checked state.
type propertyAttribute struct {
	element *dom.Element
	name    string
}

func (a *propertyAttribute) set(value any) {
	if a.name == "value" && value == nil {
		value = ""
	}
	if current, ok := a.element.Property(a.name); ok && reference.Same(current, value) {
		return
	}
	a.element.SetProperty(a.name, value)
}

func (a *propertyAttribute) Update(value any, _ vm.Environment) {
	a.set(value)
}

// booleanAttribute is present with an empty value when truthy.
type booleanAttribute struct {
	element *dom.Element
	name    string
}

func (a *booleanAttribute) set(value any) {
	if truthy(value) {
		a.element.SetAttribute(a.name, "")
		return
	}
	a.element.RemoveAttribute(a.name)
}

func (a *booleanAttribute) Update(value any, _ vm.Environment) {
	a.set(value)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var booleanAttributes = map[string]bool{
	"autofocus": true,
	"disabled":  true,
	"hidden":    true,
	"multiple":  true,
	"readonly":  true,
	"required":  true,
	"selected":  true,
}

func isPropertyAttribute(tag, name string) bool {
	switch tag {
	case "input":
		return name == "value" || name == "checked" || name == "indeterminate"
	case "textarea", "select":
		return name == "value"
	case "option":
		return name == "selected" || name == "value"
	}
	return false
}

// normalizeValue renders value as attribute text. ok is false when the
// attribute should be removed.
func normalizeValue(value any) (s string, ok bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case bool:
		if !v {
			return "", false
		}
		return "", true
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	default:
		return true
	}
}

var (
	urlTags       = map[string]bool{"a": true, "body": true, "link": true, "img": true, "iframe": true, "base": true, "form": true}
	urlAttributes = map[string]bool{"href": true, "src": true, "background": true, "action": true}
	badProtocols  = map[string]bool{"javascript:": true, "vbscript:": true}
)

// sanitizeAttributeValue neutralizes script URLs in untrusted URL-bearing
// attributes by prefixing them with "unsafe:".
func sanitizeAttributeValue(tag, name, value string) string {
	if !urlAttributes[name] {
		return value
	}
	if !urlTags[tag] && !(tag == "embed" && name == "src") {
		return value
	}
	if badProtocols[protocolOf(value)] {
		return "unsafe:" + value
	}
	return value
}

func protocolOf(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s[:i+1])
}
