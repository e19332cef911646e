package dom

import (
	"html"
	"strings"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Serialize renders n as HTML.
func Serialize(n Node) string {
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

// InnerHTML renders e's children as HTML.
func (e *Element) InnerHTML() string {
	var sb strings.Builder
	for _, c := range e.children {
		writeNode(&sb, c)
	}
	return sb.String()
}

// OuterHTML renders e as HTML.
func (e *Element) OuterHTML() string {
	return Serialize(e)
}

func writeNode(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Text:
		sb.WriteString(html.EscapeString(n.Data))
	case *Comment:
		sb.WriteString("<!--")
		sb.WriteString(n.Data)
		sb.WriteString("-->")
	case *Element:
		sb.WriteByte('<')
		sb.WriteString(n.tagName)
		for _, a := range n.attrs {
			sb.WriteByte(' ')
			if a.Namespace == XLinkNamespace {
				sb.WriteString("xlink:")
			}
			sb.WriteString(a.Name)
			sb.WriteString(`="`)
			sb.WriteString(html.EscapeString(a.Value))
			sb.WriteByte('"')
		}
		sb.WriteByte('>')
		if voidElements[n.tagName] && n.namespace == HTMLNamespace {
			return
		}
		for _, c := range n.children {
			writeNode(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(n.tagName)
		sb.WriteByte('>')
	}
}
