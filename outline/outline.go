// Package outline builds a heading hierarchy from an ordered paragraph
// stream and merges hierarchies from several documents into one.
//
// A document's paragraphs become a forest of [Node] values: each heading
// opens a node at its level, body paragraphs attach to the nearest open
// heading, and paragraphs before the first heading collect into a synthetic
// preamble node at level -1. Forests from addition documents are merged
// into the template forest by heading name, and the merged forest flattens
// back into a single paragraph stream.
package outline

import (
	"strings"

	"github.com/tsawler/hanmerge/internal/norm"
	"github.com/tsawler/hanmerge/model"
)

// PreambleLevel marks the synthetic node holding paragraphs that precede
// any heading.
const PreambleLevel = -1

// Node is one heading with its body content and sub-headings. For regular
// nodes the first paragraph is the heading itself and the rest are body
// paragraphs; a preamble node holds only body paragraphs.
type Node struct {
	Level      int
	Name       string
	Paragraphs []*model.Paragraph
	Children   []*Node
}

// IsPreamble reports whether the node is the synthetic preamble.
func (n *Node) IsPreamble() bool { return n.Level == PreambleLevel }

// Body returns the node's body paragraphs, excluding the heading paragraph.
func (n *Node) Body() []*model.Paragraph {
	if n.IsPreamble() || len(n.Paragraphs) == 0 {
		return n.Paragraphs
	}
	return n.Paragraphs[1:]
}

// Build converts a paragraph stream into an outline forest in a single
// pass. Paragraphs seen before the first heading become a preamble node
// placed ahead of the first root.
func Build(paragraphs []*model.Paragraph) []*Node {
	var forest []*Node
	var stack []*Node
	var preamble []*model.Paragraph

	for _, p := range paragraphs {
		if !p.IsHeading {
			if len(stack) == 0 {
				preamble = append(preamble, p)
			} else {
				top := stack[len(stack)-1]
				top.Paragraphs = append(top.Paragraphs, p)
			}
			continue
		}

		node := &Node{
			Level:      p.Level,
			Name:       strings.TrimSpace(p.Text),
			Paragraphs: []*model.Paragraph{p},
		}
		for len(stack) > 0 && stack[len(stack)-1].Level >= p.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			if len(preamble) > 0 && len(forest) == 0 {
				forest = append(forest, &Node{Level: PreambleLevel, Paragraphs: preamble})
				preamble = nil
			}
			forest = append(forest, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, node)
	}

	if len(preamble) > 0 {
		forest = append(forest, &Node{Level: PreambleLevel, Paragraphs: preamble})
	}
	return forest
}

// Flatten converts a forest back into an ordered paragraph stream: each
// node's own paragraphs first, then its children depth-first.
func Flatten(forest []*Node) []*model.Paragraph {
	var out []*model.Paragraph
	for _, n := range forest {
		out = append(out, n.Paragraphs...)
		out = append(out, Flatten(n.Children)...)
	}
	return out
}

// sameName reports whether two heading names refer to the same section.
// Names are compared in normalized form since documents from different
// authors mix full-width and half-width characters.
func sameName(a, b string) bool {
	return norm.Equal(a, b)
}
