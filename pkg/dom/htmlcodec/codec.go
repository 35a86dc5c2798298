// Package htmlcodec converts between HTML text and dom trees using
// golang.org/x/net/html. Attributes are written in sorted order so rendering
// the same tree twice yields identical bytes.
package htmlcodec

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-formflow/pkg/dom"
)

// Parse reads a full HTML document.
func Parse(r io.Reader) (*dom.Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmlcodec: parse: %w", err)
	}
	return fromHTML(root), nil
}

// ParseString is Parse over a string.
func ParseString(src string) (*dom.Node, error) {
	return Parse(strings.NewReader(src))
}

// ParseFragment reads an HTML fragment in a <body> context and returns a
// document node holding the fragment's top-level nodes.
func ParseFragment(r io.Reader) (*dom.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("htmlcodec: parse fragment: %w", err)
	}
	doc := dom.Document()
	for _, node := range nodes {
		doc.AppendChild(fromHTML(node))
	}
	return doc, nil
}

// Render writes n as HTML.
func Render(w io.Writer, n *dom.Node) error {
	if n == nil {
		return fmt.Errorf("htmlcodec: node is nil")
	}
	if n.Type == dom.DocumentNode {
		for _, child := range n.Children {
			if err := html.Render(w, toHTML(child)); err != nil {
				return fmt.Errorf("htmlcodec: render: %w", err)
			}
		}
		return nil
	}
	if err := html.Render(w, toHTML(n)); err != nil {
		return fmt.Errorf("htmlcodec: render: %w", err)
	}
	return nil
}

// RenderString renders n into a string.
func RenderString(n *dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func fromHTML(src *html.Node) *dom.Node {
	node := &dom.Node{}
	switch src.Type {
	case html.DocumentNode:
		node.Type = dom.DocumentNode
	case html.ElementNode:
		node.Type = dom.ElementNode
		node.Tag = src.Data
		if len(src.Attr) > 0 {
			node.Attrs = make(map[string]string, len(src.Attr))
			for _, attr := range src.Attr {
				key := attr.Key
				if attr.Namespace != "" {
					key = attr.Namespace + ":" + attr.Key
				}
				node.Attrs[key] = attr.Val
			}
		}
	case html.TextNode:
		node.Type = dom.TextNode
		node.Data = src.Data
	case html.CommentNode:
		node.Type = dom.CommentNode
		node.Data = src.Data
	case html.DoctypeNode:
		node.Type = dom.DoctypeNode
		node.Data = src.Data
		for _, attr := range src.Attr {
			if node.Attrs == nil {
				node.Attrs = make(map[string]string, len(src.Attr))
			}
			node.Attrs[attr.Key] = attr.Val
		}
	default:
		node.Type = dom.TextNode
	}
	for child := src.FirstChild; child != nil; child = child.NextSibling {
		node.AppendChild(fromHTML(child))
	}
	return node
}

func toHTML(src *dom.Node) *html.Node {
	node := &html.Node{}
	switch src.Type {
	case dom.DocumentNode:
		node.Type = html.DocumentNode
	case dom.ElementNode:
		node.Type = html.ElementNode
		node.Data = src.Tag
		node.DataAtom = atom.Lookup([]byte(src.Tag))
		for _, name := range src.AttrNames() {
			node.Attr = append(node.Attr, html.Attribute{Key: name, Val: src.Attrs[name]})
		}
	case dom.TextNode:
		node.Type = html.TextNode
		node.Data = src.Data
	case dom.CommentNode:
		node.Type = html.CommentNode
		node.Data = src.Data
	case dom.DoctypeNode:
		node.Type = html.DoctypeNode
		node.Data = src.Data
		for _, name := range src.AttrNames() {
			node.Attr = append(node.Attr, html.Attribute{Key: name, Val: src.Attrs[name]})
		}
	}
	for _, child := range src.Children {
		node.AppendChild(toHTML(child))
	}
	return node
}
