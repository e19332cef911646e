package dom

import "fmt"

// Well-known namespaces.
const (
	HTMLNamespace  = "http://www.w3.org/1999/xhtml"
	SVGNamespace   = "http://www.w3.org/2000/svg"
	XLinkNamespace = "http://www.w3.org/1999/xlink"
)

// Attr is a single attribute. Namespace is empty for plain attributes.
type Attr struct {
	Namespace string
	Name      string
	Value     string
}

// Element is an element node.
type Element struct {
	nodeBase
	tagName   string
	namespace string
	attrs     []Attr
	props     map[string]any
	children  []Node
}

// NewElement creates a detached HTML element.
func NewElement(tagName string) *Element {
	return &Element{tagName: tagName, namespace: HTMLNamespace}
}

// NewElementNS creates a detached element in namespace.
func NewElementNS(namespace, tagName string) *Element {
	return &Element{tagName: tagName, namespace: namespace}
}

func (e *Element) NodeType() NodeType { return ElementNode }
func (e *Element) NextSibling() Node  { return nextSiblingOf(e, e.parent) }

// TagName returns the element's tag name.
func (e *Element) TagName() string { return e.tagName }

// NamespaceURI returns the element's namespace.
func (e *Element) NamespaceURI() string { return e.namespace }

// ---------------------------------------------------------------------------
// Children
// ---------------------------------------------------------------------------

// Children returns a copy of the child list.
func (e *Element) Children() []Node {
	out := make([]Node, len(e.children))
	copy(out, e.children)
	return out
}

// FirstChild returns the first child, or nil.
func (e *Element) FirstChild() Node {
	if len(e.children) == 0 {
		return nil
	}
	return e.children[0]
}

// LastChild returns the last child, or nil.
func (e *Element) LastChild() Node {
	if len(e.children) == 0 {
		return nil
	}
	return e.children[len(e.children)-1]
}

// AppendChild inserts child as the last child of e.
func (e *Element) AppendChild(child Node) {
	e.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref. A nil ref appends. The child is
// detached from any previous parent first. It panics if ref is not a child
// of e.
func (e *Element) InsertBefore(child, ref Node) {
	if p := child.ParentElement(); p != nil {
		p.RemoveChild(child)
	}
	if ref == nil {
		e.children = append(e.children, child)
		child.setParent(e)
		return
	}
	idx := e.indexOf(ref)
	if idx < 0 {
		panic(fmt.Sprintf("dom: InsertBefore reference node is not a child of <%s>", e.tagName))
	}
	e.children = append(e.children, nil)
	copy(e.children[idx+1:], e.children[idx:])
	e.children[idx] = child
	child.setParent(e)
}

// RemoveChild detaches child from e. Removing a non-child is a no-op.
func (e *Element) RemoveChild(child Node) {
	idx := e.indexOf(child)
	if idx < 0 {
		return
	}
	e.children = append(e.children[:idx], e.children[idx+1:]...)
	child.setParent(nil)
}

func (e *Element) indexOf(n Node) int {
	for i, c := range e.children {
		if c == n {
			return i
		}
	}
	return -1
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

// SetAttribute sets a plain attribute.
func (e *Element) SetAttribute(name, value string) {
	e.SetAttributeNS("", name, value)
}

// SetAttributeNS sets an attribute in namespace, keeping its position if it
// already exists.
func (e *Element) SetAttributeNS(namespace, name, value string) {
	for i := range e.attrs {
		if e.attrs[i].Namespace == namespace && e.attrs[i].Name == name {
			e.attrs[i].Value = value
			return
		}
	}
	e.attrs = append(e.attrs, Attr{Namespace: namespace, Name: name, Value: value})
}

// GetAttribute returns a plain attribute's value.
func (e *Element) GetAttribute(name string) (string, bool) {
	return e.GetAttributeNS("", name)
}

// GetAttributeNS returns a namespaced attribute's value.
func (e *Element) GetAttributeNS(namespace, name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Namespace == namespace && a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttribute reports whether a plain attribute is present.
func (e *Element) HasAttribute(name string) bool {
	_, ok := e.GetAttribute(name)
	return ok
}

// RemoveAttribute removes a plain attribute.
func (e *Element) RemoveAttribute(name string) {
	e.RemoveAttributeNS("", name)
}

// RemoveAttributeNS removes a namespaced attribute.
func (e *Element) RemoveAttributeNS(namespace, name string) {
	for i, a := range e.attrs {
		if a.Namespace == namespace && a.Name == name {
			e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
			return
		}
	}
}

// Attributes returns a copy of the attribute list in insertion order.
func (e *Element) Attributes() []Attr {
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

// SetProperty sets a live property. Properties are not serialized.
func (e *Element) SetProperty(name string, value any) {
	if e.props == nil {
		e.props = make(map[string]any)
	}
	e.props[name] = value
}

// Property returns a live property.
func (e *Element) Property(name string) (any, bool) {
	v, ok := e.props[name]
	return v, ok
}
