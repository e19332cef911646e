// Package builder is the reference ElementBuilder: it writes the append VM's
// output into an in-memory dom tree.
package builder

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/filament/dom"
	"github.com/chazu/filament/vm"
)

var log = commonlog.GetLogger("filament.builder")

type frameKind int

const (
	rootFrame frameKind = iota
	elementFrame
	remoteFrame
)

// frame is an insertion point: new nodes go into element before nextSibling.
type frame struct {
	kind        frameKind
	element     *dom.Element
	nextSibling dom.Node
	modifiers   []vm.ModifierPair
	guid        string
}

// Builder implements vm.ElementBuilder over a dom tree.
type Builder struct {
	frames       []*frame
	constructing *dom.Element
	remotes      map[string]*dom.Element
	ops          treeOperations
}

// New creates a builder that appends into parent before nextSibling. A nil
// nextSibling appends at the end.
func New(parent *dom.Element, nextSibling dom.Node) *Builder {
	return &Builder{
		frames:  []*frame{{kind: rootFrame, element: parent, nextSibling: nextSibling}},
		remotes: make(map[string]*dom.Element),
	}
}

var _ vm.ElementBuilder = (*Builder)(nil)

func (b *Builder) current() *frame {
	return b.frames[len(b.frames)-1]
}

// Element returns the element output is currently written into.
func (b *Builder) Element() *dom.Element {
	return b.current().element
}

// Depth returns the number of open element and remote frames.
func (b *Builder) Depth() int {
	return len(b.frames) - 1
}

// RemoteElement returns the target of the remote block with guid.
func (b *Builder) RemoteElement(guid string) (*dom.Element, bool) {
	el, ok := b.remotes[guid]
	return el, ok
}

func (b *Builder) insert(node dom.Node) {
	f := b.current()
	f.element.InsertBefore(node, f.nextSibling)
}

// AppendText implements vm.ElementBuilder.
func (b *Builder) AppendText(text string) *dom.Text {
	b.requireFlushed("AppendText")
	node := dom.NewText(text)
	b.insert(node)
	return node
}

// AppendComment implements vm.ElementBuilder.
func (b *Builder) AppendComment(text string) *dom.Comment {
	b.requireFlushed("AppendComment")
	node := dom.NewComment(text)
	b.insert(node)
	return node
}

// OpenElement implements vm.ElementBuilder. The namespace is inferred from
// the tag and the enclosing element.
func (b *Builder) OpenElement(tag string) *dom.Element {
	b.requireFlushed("OpenElement")
	el := dom.NewElementNS(namespaceFor(tag, b.current().element), tag)
	b.constructing = el
	return el
}

func namespaceFor(tag string, parent *dom.Element) string {
	if tag == "svg" {
		return dom.SVGNamespace
	}
	if parent != nil && parent.NamespaceURI() == dom.SVGNamespace && parent.TagName() != "foreignObject" {
		return dom.SVGNamespace
	}
	return dom.HTMLNamespace
}

// FlushElement implements vm.ElementBuilder. The element is inserted and
// becomes the insertion point for its children.
func (b *Builder) FlushElement(modifiers []vm.ModifierPair) {
	el := b.requireConstructing("FlushElement")
	b.insert(el)
	b.frames = append(b.frames, &frame{kind: elementFrame, element: el, modifiers: modifiers})
	b.constructing = nil
}

// CloseElement implements vm.ElementBuilder.
func (b *Builder) CloseElement() []vm.ModifierPair {
	b.requireFlushed("CloseElement")
	f := b.current()
	if f.kind != elementFrame {
		vm.Fatalf(vm.StackImbalance, "CloseElement", "no open element to close")
	}
	b.frames = b.frames[:len(b.frames)-1]
	return f.modifiers
}

// PushRemoteElement implements vm.ElementBuilder.
func (b *Builder) PushRemoteElement(element *dom.Element, guid string, nextSibling dom.Node) {
	b.requireFlushed("PushRemoteElement")
	if nextSibling != nil && nextSibling.ParentElement() != element {
		vm.Fatalf(vm.InvariantViolation, "PushRemoteElement", "next sibling is not a child of the remote element")
	}
	log.Debugf("remote block %s into <%s>", guid, element.TagName())
	b.remotes[guid] = element
	b.frames = append(b.frames, &frame{kind: remoteFrame, element: element, nextSibling: nextSibling, guid: guid})
}

// PopRemoteElement implements vm.ElementBuilder.
func (b *Builder) PopRemoteElement() {
	b.requireFlushed("PopRemoteElement")
	if b.current().kind != remoteFrame {
		vm.Fatalf(vm.StackImbalance, "PopRemoteElement", "no remote element to pop")
	}
	b.frames = b.frames[:len(b.frames)-1]
}

// SetStaticAttribute implements vm.ElementBuilder.
func (b *Builder) SetStaticAttribute(name, value, namespace string) {
	el := b.requireConstructing("StaticAttr")
	if namespace != "" {
		el.SetAttributeNS(namespace, name, value)
		return
	}
	el.SetAttribute(name, value)
}

// SetDynamicAttribute implements vm.ElementBuilder.
func (b *Builder) SetDynamicAttribute(name string, value any, trusting bool, namespace string) vm.DynamicAttribute {
	el := b.requireConstructing("DynamicAttr")
	attr := dynamicAttributeFor(el, name, namespace, trusting)
	attr.set(value)
	return attr
}

// Constructing implements vm.ElementBuilder.
func (b *Builder) Constructing() *dom.Element {
	return b.constructing
}

// TreeOperations implements vm.ElementBuilder.
func (b *Builder) TreeOperations() vm.TreeOperations {
	return b.ops
}

func (b *Builder) requireConstructing(op string) *dom.Element {
	if b.constructing == nil {
		vm.Fatalf(vm.MissingContext, op, "no element is being constructed")
	}
	return b.constructing
}

func (b *Builder) requireFlushed(op string) {
	if b.constructing != nil {
		vm.Fatalf(vm.MissingContext, op, "open tag <%s> was never flushed", b.constructing.TagName())
	}
}

// ---------------------------------------------------------------------------
// Tree operations
// ---------------------------------------------------------------------------

type treeOperations struct{}

func (treeOperations) CreateElement(tag string, namespace string) *dom.Element {
	if namespace == "" {
		namespace = dom.HTMLNamespace
	}
	return dom.NewElementNS(namespace, tag)
}

func (treeOperations) CreateText(text string) *dom.Text {
	return dom.NewText(text)
}

func (treeOperations) InsertBefore(parent *dom.Element, node, reference dom.Node) {
	parent.InsertBefore(node, reference)
}
