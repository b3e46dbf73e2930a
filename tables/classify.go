package tables

import (
	"strconv"
	"strings"

	"github.com/tsawler/hanmerge/model"
)

// addTextMin is the trimmed text length at which a no-background cell in the
// first body row is treated as a free-text addition cell.
const addTextMin = 30

// Classifier assigns role-derived field names to every unnamed cell of a
// template table. Cells that already carry a name keep it, so running the
// classifier twice is a no-op.
type Classifier struct {
	ids IDSource
}

// NewClassifier creates a classifier. A nil id source gets a random one.
func NewClassifier(ids IDSource) *Classifier {
	if ids == nil {
		ids = RandomIDs()
	}
	return &Classifier{ids: ids}
}

// Classify names every unnamed cell in the grid in four ordered passes:
// header rows, addition cells, stub/group-stub labels, then input/data
// cells. Later passes only see cells still unnamed by earlier ones.
func (cl *Classifier) Classify(g *model.Grid) {
	headerRows := cl.classifyHeaders(g)
	cl.classifyAdds(g, headerRows)
	cl.classifyStubs(g)
	cl.classifyInputs(g)
}

// classifyHeaders scans rows top-down and names every cell of each fully
// backgrounded row. It returns the number of qualifying rows. A column still
// covered by a span opened in an earlier qualifying row counts through its
// owning cell.
func (cl *Classifier) classifyHeaders(g *model.Grid) int {
	rows := 0
	for r := 0; r < g.RowCount(); r++ {
		qualifies := true
		for c := 0; c < g.ColCount(); c++ {
			cell := g.CellAt(r, c)
			if cell == nil || !cell.HasBackground() {
				qualifies = false
				break
			}
		}
		if !qualifies {
			break
		}
		for c := 0; c < g.ColCount(); c++ {
			cell := g.CellAt(r, c)
			if cell.FieldName == "" {
				cell.FieldName = PrefixHeader + cl.ids.Next()
			}
		}
		rows++
	}
	return rows
}

// classifyAdds names free-text addition cells: the single cell of a lone
// unfilled 1x1 table, or any long no-background cell in the first row after
// the headers.
func (cl *Classifier) classifyAdds(g *model.Grid, headerRows int) {
	if g.RowCount() == 1 && g.ColCount() == 1 {
		cell := g.CellAt(0, 0)
		if cell != nil && cell.FieldName == "" && !cell.HasBackground() {
			cell.FieldName = PrefixAdd + cl.ids.Next()
		}
		return
	}
	if headerRows >= g.RowCount() {
		return
	}
	for _, cell := range g.RowCells(headerRows) {
		if cell.FieldName != "" || cell.HasBackground() {
			continue
		}
		if cell.TrimmedLen() >= addTextMin {
			cell.FieldName = PrefixAdd + cl.ids.Next()
		}
	}
}

// classifyStubs names row-label cells: a non-empty cell with an empty cell
// somewhere to its right in the same row, beyond its own column span. A
// label spanning several rows is a group stub.
func (cl *Classifier) classifyStubs(g *model.Grid) {
	for _, cell := range g.Cells() {
		if cell.FieldName != "" || cell.IsEmpty() {
			continue
		}
		if !hasEmptyToRight(g, cell) {
			continue
		}
		if cell.RowSpan > 1 {
			cell.FieldName = PrefixGStub + cl.ids.Next()
		} else {
			cell.FieldName = PrefixStub + cl.ids.Next()
		}
	}
}

func hasEmptyToRight(g *model.Grid, cell *model.Cell) bool {
	for c := cell.EndCol() + 1; c < g.ColCount(); c++ {
		right := g.CellAt(cell.Row, c)
		if right != nil && right != cell && right.IsEmpty() {
			return true
		}
	}
	return false
}

// classifyInputs names everything still unnamed. Non-empty cells become data
// cells. Empty cells are grouped by their column heading and the sequence of
// stub labels to their left; cells in one group share a single input name.
func (cl *Classifier) classifyInputs(g *model.Grid) {
	groups := make(map[string]string)
	for _, cell := range g.Cells() {
		if cell.FieldName != "" {
			continue
		}
		if !cell.IsEmpty() {
			cell.FieldName = PrefixData + cl.ids.Next()
			continue
		}
		key, ok := cl.groupKey(g, cell)
		if !ok {
			cell.FieldName = PrefixInput + cl.ids.Next()
			continue
		}
		name, seen := groups[key]
		if !seen {
			name = PrefixInput + cl.ids.Next()
			groups[key] = name
		}
		cell.FieldName = name
	}
}

// groupKey derives the grouping key for an empty cell: the first non-empty
// text above it in the same column (skipping stub cells), plus the cell's
// column, span, and the contiguous stub names to its left. A textual
// non-stub cell to the left disqualifies grouping.
func (cl *Classifier) groupKey(g *model.Grid, cell *model.Cell) (string, bool) {
	header := ""
	for r := cell.Row - 1; r >= 0; r-- {
		above := g.CellAt(r, cell.Col)
		if above == nil || above == cell {
			continue
		}
		if isStubRole(above.FieldName) {
			continue
		}
		if !above.IsEmpty() {
			header = strings.TrimSpace(above.Text)
			break
		}
	}
	if header == "" {
		return "", false
	}

	var stubs []string
	var prev *model.Cell
	for c := cell.Col - 1; c >= 0; c-- {
		left := g.CellAt(cell.Row, c)
		if left == nil || left == prev || left == cell {
			continue
		}
		prev = left
		if isStubRole(left.FieldName) {
			stubs = append(stubs, left.FieldName)
			continue
		}
		if !left.IsEmpty() {
			return "", false
		}
	}

	key := strings.Join(append([]string{
		header,
		strconv.Itoa(cell.Col),
		strconv.Itoa(cell.ColSpan),
	}, stubs...), "\x00")
	return key, true
}
