package outline

import (
	"strings"
	"unicode"

	"github.com/tsawler/hanmerge/internal/norm"
)

// ExclusionSet removes outline nodes by heading name. Three pattern forms
// are accepted:
//
//   - an exact heading name
//   - a pattern ending in "." matching any heading with that prefix
//   - a bare number N matching headings prefixed "N."
type ExclusionSet struct {
	patterns []string
}

// NewExclusionSet creates a set from the given patterns. Blank patterns are
// ignored.
func NewExclusionSet(patterns ...string) *ExclusionSet {
	s := &ExclusionSet{}
	for _, p := range patterns {
		if strings.TrimSpace(p) != "" {
			s.patterns = append(s.patterns, strings.TrimSpace(p))
		}
	}
	return s
}

// Matches reports whether a heading name is excluded.
func (s *ExclusionSet) Matches(name string) bool {
	if s == nil {
		return false
	}
	key := norm.Key(name)
	for _, p := range s.patterns {
		pk := norm.Key(p)
		if key == pk {
			return true
		}
		if strings.HasSuffix(pk, ".") && strings.HasPrefix(key, pk) {
			return true
		}
		if isNumber(pk) && strings.HasPrefix(key, pk+".") {
			return true
		}
	}
	return false
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Filter returns the forest with excluded nodes removed, recursively. A
// matching node disappears together with its whole subtree. A nil set
// returns the forest unchanged.
func Filter(forest []*Node, exclude *ExclusionSet) []*Node {
	if exclude == nil || len(exclude.patterns) == 0 {
		return forest
	}
	var out []*Node
	for _, n := range forest {
		if !n.IsPreamble() && exclude.Matches(n.Name) {
			continue
		}
		n.Children = Filter(n.Children, exclude)
		out = append(out, n)
	}
	return out
}
