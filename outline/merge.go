package outline

// Merge folds the addition forest into the template forest and returns the
// result. Nodes are matched by heading name; on a match the addition's body
// paragraphs are appended to the template node with the template's body
// style applied, and children merge recursively. Unmatched addition nodes
// are appended as new siblings in input order. The template forest is
// mutated in place.
func Merge(template, addition []*Node) []*Node {
	for _, add := range addition {
		match := findNode(template, add)
		if match == nil {
			if add.IsPreamble() {
				template = append([]*Node{add}, template...)
			} else {
				template = append(template, add)
			}
			continue
		}
		mergeNode(match, add)
	}
	return template
}

func findNode(forest []*Node, want *Node) *Node {
	for _, n := range forest {
		if n.IsPreamble() != want.IsPreamble() {
			continue
		}
		if want.IsPreamble() || sameName(n.Name, want.Name) {
			return n
		}
	}
	return nil
}

func mergeNode(dst, src *Node) {
	style := bodyStyle(dst)
	for _, p := range src.Body() {
		if style != "" && !p.IsHeading {
			p.StyleID = style
		}
		dst.Paragraphs = append(dst.Paragraphs, p)
	}
	dst.Children = Merge(dst.Children, src.Children)
}

// bodyStyle returns the paragraph style of the node's first body paragraph,
// used as the inherited style for merged-in content.
func bodyStyle(n *Node) string {
	for _, p := range n.Body() {
		if !p.IsHeading {
			return p.StyleID
		}
	}
	return ""
}

// MergeAll merges the forests of several documents pairwise into the first
// one, applying the exclusion set before each step and once more on the
// final result.
func MergeAll(forests [][]*Node, exclude *ExclusionSet) []*Node {
	if len(forests) == 0 {
		return nil
	}
	merged := Filter(forests[0], exclude)
	for _, f := range forests[1:] {
		merged = Merge(merged, Filter(f, exclude))
	}
	return Filter(merged, exclude)
}
