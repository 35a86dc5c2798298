// Package dom defines the generic markup tree the renderer decorates: tag
// names, a string attribute map and ordered element/text children. Trees are
// mutated in place and must not be shared between concurrent renders.
package dom

import (
	"sort"
	"strings"
)

// NodeType distinguishes the kinds of nodes in a tree.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
)

// Node is one element, text, comment, doctype or document node.
type Node struct {
	Type     NodeType
	Tag      string
	Attrs    map[string]string
	Data     string
	Children []*Node
}

// Element builds an element node. Nil children are skipped.
func Element(tag string, attrs map[string]string, children ...*Node) *Node {
	node := &Node{Type: ElementNode, Tag: strings.ToLower(tag), Attrs: attrs}
	for _, child := range children {
		node.AppendChild(child)
	}
	return node
}

// Text builds a text node.
func Text(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// Document wraps children in a document node.
func Document(children ...*Node) *Node {
	node := &Node{Type: DocumentNode}
	for _, child := range children {
		node.AppendChild(child)
	}
	return node
}

// IsElement reports whether n is an element node.
func (n *Node) IsElement() bool {
	return n != nil && n.Type == ElementNode
}

// Attr returns the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil || n.Attrs == nil {
		return "", false
	}
	value, ok := n.Attrs[name]
	return value, ok
}

// AttrValue returns the named attribute or the empty string.
func (n *Node) AttrValue(name string) string {
	value, _ := n.Attr(name)
	return value
}

// SetAttr sets an attribute, allocating the map when needed.
func (n *Node) SetAttr(name, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[name] = value
}

// SetAttrs copies attrs onto n, overwriting existing keys.
func (n *Node) SetAttrs(attrs map[string]string) {
	for name, value := range attrs {
		n.SetAttr(name, value)
	}
}

// RemoveAttr deletes an attribute.
func (n *Node) RemoveAttr(name string) {
	if n.Attrs != nil {
		delete(n.Attrs, name)
	}
}

// AttrNames returns attribute names in sorted order.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasClass reports whether the class attribute contains class.
func (n *Node) HasClass(class string) bool {
	for _, candidate := range strings.Fields(n.AttrValue("class")) {
		if candidate == class {
			return true
		}
	}
	return false
}

// AddClass appends class to the class attribute unless already present.
func (n *Node) AddClass(class string) {
	if class == "" || n.HasClass(class) {
		return
	}
	current := strings.TrimSpace(n.AttrValue("class"))
	if current == "" {
		n.SetAttr("class", class)
		return
	}
	n.SetAttr("class", current+" "+class)
}

// AppendChild adds child as the last child. Nil is ignored.
func (n *Node) AppendChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
}

// RemoveChildren drops every child.
func (n *Node) RemoveChildren() {
	n.Children = nil
}

// SetText replaces the children with a single text node. An empty string
// leaves the node without children.
func (n *Node) SetText(text string) {
	n.RemoveChildren()
	if text != "" {
		n.AppendChild(Text(text))
	}
}

// TextContent concatenates the text of every descendant text node.
func (n *Node) TextContent() string {
	var b strings.Builder
	Walk(n, func(node *Node) bool {
		if node.Type == TextNode {
			b.WriteString(node.Data)
		}
		return true
	})
	return b.String()
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := &Node{Type: n.Type, Tag: n.Tag, Data: n.Data}
	if n.Attrs != nil {
		clone.Attrs = make(map[string]string, len(n.Attrs))
		for name, value := range n.Attrs {
			clone.Attrs[name] = value
		}
	}
	if len(n.Children) > 0 {
		clone.Children = make([]*Node, len(n.Children))
		for idx, child := range n.Children {
			clone.Children[idx] = child.Clone()
		}
	}
	return clone
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children. Children replaced by fn are the ones visited.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for idx := 0; idx < len(n.Children); idx++ {
		Walk(n.Children[idx], fn)
	}
}

// Find returns every element with the given tag, in document order.
func Find(n *Node, tag string) []*Node {
	var out []*Node
	Walk(n, func(node *Node) bool {
		if node.IsElement() && node.Tag == tag {
			out = append(out, node)
		}
		return true
	})
	return out
}

// FindByAttr returns every element whose attribute equals value.
func FindByAttr(n *Node, name, value string) []*Node {
	var out []*Node
	Walk(n, func(node *Node) bool {
		if node.IsElement() {
			if got, ok := node.Attr(name); ok && got == value {
				out = append(out, node)
			}
		}
		return true
	})
	return out
}
