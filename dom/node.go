// Package dom is a minimal in-memory output tree: elements, text and
// comments, with attributes, properties and HTML serialization. It is the
// target the reference element builder writes into.
package dom

import "fmt"

// NodeType identifies the kind of a node, using the DOM's numbering.
type NodeType int

const (
	ElementNode NodeType = 1
	TextNode    NodeType = 3
	CommentNode NodeType = 8
)

func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Node is any node of the output tree.
type Node interface {
	NodeType() NodeType
	ParentElement() *Element
	NextSibling() Node

	setParent(*Element)
}

type nodeBase struct {
	parent *Element
}

func (n *nodeBase) ParentElement() *Element { return n.parent }
func (n *nodeBase) setParent(p *Element)    { n.parent = p }

func nextSiblingOf(self Node, parent *Element) Node {
	if parent == nil {
		return nil
	}
	for i, c := range parent.children {
		if c == self {
			if i+1 < len(parent.children) {
				return parent.children[i+1]
			}
			return nil
		}
	}
	return nil
}

// Text is a text leaf.
type Text struct {
	nodeBase
	Data string
}

// NewText creates a detached text node.
func NewText(data string) *Text {
	return &Text{Data: data}
}

func (t *Text) NodeType() NodeType { return TextNode }
func (t *Text) NextSibling() Node  { return nextSiblingOf(t, t.parent) }

// Comment is a comment leaf.
type Comment struct {
	nodeBase
	Data string
}

// NewComment creates a detached comment node.
func NewComment(data string) *Comment {
	return &Comment{Data: data}
}

func (c *Comment) NodeType() NodeType { return CommentNode }
func (c *Comment) NextSibling() Node  { return nextSiblingOf(c, c.parent) }
