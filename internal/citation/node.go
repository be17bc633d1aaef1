// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package citation

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// =============================================================================
// NODE TREE
// =============================================================================

// NodeKind tags the variant held by a Node.
type NodeKind int

const (
	KindText NodeKind = iota
	KindNumber
	KindSequence
	KindElement
)

// Node is a renderer-independent view of rendered link content.
//
// Exactly one variant is meaningful per Kind:
//   - KindText: Text
//   - KindNumber: Number
//   - KindSequence: Items
//   - KindElement: Tag and Items (the element's children)
type Node struct {
	Kind   NodeKind
	Text   string
	Number float64
	Tag    string
	Items  []Node
}

// TextNode returns a text leaf.
func TextNode(s string) Node { return Node{Kind: KindText, Text: s} }

// NumberNode returns a numeric leaf.
func NumberNode(n float64) Node { return Node{Kind: KindNumber, Number: n} }

// Sequence returns a list of sibling nodes.
func Sequence(items ...Node) Node { return Node{Kind: KindSequence, Items: items} }

// Element returns a composite node with children.
func Element(tag string, children ...Node) Node {
	return Node{Kind: KindElement, Tag: tag, Items: children}
}

// Fold reduces a node tree depth-first, left to right. leaf is called for text and
// number nodes; sequences and elements contribute only through their children.
func Fold[T any](n Node, acc T, leaf func(T, Node) T) T {
	switch n.Kind {
	case KindText, KindNumber:
		return leaf(acc, n)
	case KindSequence, KindElement:
		for _, child := range n.Items {
			acc = Fold(child, acc, leaf)
		}
	}
	return acc
}

// Flatten extracts the plain text of a node tree.
func Flatten(n Node) string {
	var sb strings.Builder
	Fold(n, &sb, func(b *strings.Builder, leaf Node) *strings.Builder {
		if leaf.Kind == KindNumber {
			b.WriteString(strconv.FormatFloat(leaf.Number, 'f', -1, 64))
		} else {
			b.WriteString(leaf.Text)
		}
		return b
	})
	return sb.String()
}

// FromMarkdownAST converts a goldmark subtree into a Node. source is the document the
// AST was parsed from; text segments are resolved against it.
func FromMarkdownAST(n ast.Node, source []byte) Node {
	switch v := n.(type) {
	case *ast.Text:
		text := string(v.Segment.Value(source))
		if v.SoftLineBreak() {
			text += " "
		}
		return TextNode(text)
	case *ast.String:
		return TextNode(string(v.Value))
	case *ast.CodeSpan:
		// Code spans keep their raw text children.
	case *ast.AutoLink:
		return TextNode(string(v.Label(source)))
	}

	var children []Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		children = append(children, FromMarkdownAST(c, source))
	}
	return Element(n.Kind().String(), children...)
}
