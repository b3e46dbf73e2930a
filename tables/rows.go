package tables

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tsawler/hanmerge/internal/norm"
	"github.com/tsawler/hanmerge/model"
)

// Row is one incoming data row: field name to cell text.
type Row map[string]string

// DefaultSeparator joins successive values written into the same add_ cell.
const DefaultSeparator = " "

// RowMerger folds data rows into a template grid. Each row is written into
// an existing blank row when its stub context matches, spliced inside a
// matching group-stub span, or appended as a new bottom row. The grid is
// mutated in place and never shrinks.
type RowMerger struct {
	// Separator joins concatenated add_ values. Defaults to one space.
	Separator string

	grid *model.Grid
	ids  IDSource
}

// NewRowMerger creates a merger for the given template grid. A nil id
// source gets a random one.
func NewRowMerger(g *model.Grid, ids IDSource) *RowMerger {
	if ids == nil {
		ids = RandomIDs()
	}
	return &RowMerger{Separator: DefaultSeparator, grid: g, ids: ids}
}

// MergeRows merges the batch of rows in order. add_ values are collected
// across the whole batch, concatenated per field and appended to every cell
// carrying that field name. Rows with nothing mergeable are skipped
// silently; rows that cannot be placed at all produce a warning. An error
// is returned only when a grid mutation violates the coverage invariant,
// which indicates a malformed template.
func (m *RowMerger) MergeRows(rows []Row) ([]string, error) {
	var warnings []string
	addValues := make(map[string][]string)
	var addOrder []string

	for _, row := range rows {
		rest := make(Row)
		mergeable := false
		for _, name := range sortedKeys(row) {
			v := row[name]
			switch RoleOf(name) {
			case PrefixAdd:
				if strings.TrimSpace(v) == "" {
					continue
				}
				if _, seen := addValues[name]; !seen {
					addOrder = append(addOrder, name)
				}
				addValues[name] = append(addValues[name], v)
			case PrefixGStub, PrefixStub, PrefixInput:
				mergeable = true
				rest[name] = v
			default:
				rest[name] = v
			}
		}
		if !mergeable {
			continue
		}
		if m.grid.RowCount() == 0 || m.grid.ColCount() == 0 {
			warnings = append(warnings, fmt.Sprintf("row dropped: template table has no usable columns (fields %v)", sortedKeys(rest)))
			continue
		}
		if m.fillEmpty(rest) {
			continue
		}
		if err := m.insertRow(rest); err != nil {
			return warnings, err
		}
	}

	for _, name := range addOrder {
		joined := strings.Join(addValues[name], m.sep())
		for _, cell := range m.grid.CellsByField(name) {
			if cell.IsEmpty() {
				cell.Text = joined
			} else {
				cell.Text += m.sep() + joined
			}
		}
	}
	return warnings, nil
}

func (m *RowMerger) sep() string {
	if m.Separator == "" {
		return DefaultSeparator
	}
	return m.Separator
}

// fillEmpty looks for an existing row whose stub context matches the
// incoming row and whose input cells are still blank, and writes the values
// in place. It reports whether such a row was found.
func (m *RowMerger) fillEmpty(row Row) bool {
	for r := 0; r < m.grid.RowCount(); r++ {
		if !m.rowMatches(r, row) {
			continue
		}
		for name, v := range row {
			if RoleOf(name) != PrefixInput {
				continue
			}
			for _, cell := range m.grid.CellsByField(name) {
				if cell.Row == r {
					cell.Text = v
				}
			}
		}
		return true
	}
	return false
}

func (m *RowMerger) rowMatches(r int, row Row) bool {
	inputs := 0
	for name, v := range row {
		switch RoleOf(name) {
		case PrefixGStub:
			if !m.hasLabelAt(r, name, v, true) {
				return false
			}
		case PrefixStub:
			if !m.hasLabelAt(r, name, v, false) {
				return false
			}
		case PrefixInput:
			inputs++
			cells := m.cellsInRow(r, name)
			if len(cells) == 0 {
				return false
			}
			for _, c := range cells {
				if !c.IsEmpty() {
					return false
				}
			}
		}
	}
	return inputs > 0
}

// hasLabelAt reports whether a stub-role cell with the given value sits at
// row r. Group stubs match any row their span covers; plain stubs match
// their start row only. Cells are matched by field name when the grid has
// any, otherwise by role.
func (m *RowMerger) hasLabelAt(r int, name, value string, spanning bool) bool {
	for _, cell := range m.labelCells(name) {
		covers := cell.Row == r
		if spanning {
			covers = r >= cell.Row && r <= cell.EndRow()
		}
		if covers && norm.Equal(cell.Text, value) {
			return true
		}
	}
	return false
}

func (m *RowMerger) labelCells(name string) []*model.Cell {
	if cells := m.grid.CellsByField(name); len(cells) > 0 {
		return cells
	}
	role := RoleOf(name)
	var out []*model.Cell
	for _, cell := range m.grid.Cells() {
		if RoleOf(cell.FieldName) == role {
			out = append(out, cell)
		}
	}
	return out
}

func (m *RowMerger) cellsInRow(r int, name string) []*model.Cell {
	var out []*model.Cell
	for _, cell := range m.grid.CellsByField(name) {
		if cell.Row == r {
			out = append(out, cell)
		}
	}
	return out
}

// insertRow adds the incoming row as a new grid row. When a group-stub
// value matches an existing group-stub cell the row is spliced directly
// below that cell's current span and the cell grows to cover it; otherwise
// the row goes to the bottom. Column structure is derived from the row
// above the insertion point.
func (m *RowMerger) insertRow(row Row) error {
	matched := m.matchingGStubs(row)

	at := m.grid.RowCount()
	if len(matched) > 0 {
		at = matched[0].EndRow() + 1
		for _, c := range matched[1:] {
			if c.EndRow()+1 < at {
				at = c.EndRow() + 1
			}
		}
	}

	if err := m.grid.InsertRow(at); err != nil {
		return err
	}
	for _, c := range matched {
		if c.EndRow() == at-1 {
			if err := m.grid.ExtendRowSpan(c, 1); err != nil {
				return err
			}
		}
	}

	for col := 0; col < m.grid.ColCount(); {
		if owner := m.grid.CellAt(at, col); owner != nil {
			col = owner.EndCol() + 1
			continue
		}
		above := m.grid.CellAt(at-1, col)
		if above == nil {
			if err := m.grid.PlaceCell(&model.Cell{Row: at, Col: col, RowSpan: 1, ColSpan: 1}); err != nil {
				return err
			}
			col++
			continue
		}
		next, err := m.fillColumn(at, col, above, row)
		if err != nil {
			return err
		}
		col = next
	}

	for name, v := range row {
		for _, cell := range m.grid.CellsByField(name) {
			if cell.Row == at && cell.IsEmpty() {
				cell.Text = v
			}
		}
	}
	return nil
}

// fillColumn decides the action for one column of the new row: extend the
// cell above, or place a fresh cell patterned on it. It returns the next
// column to process.
func (m *RowMerger) fillColumn(at, col int, above *model.Cell, row Row) (int, error) {
	role := RoleOf(above.FieldName)
	value, hasValue := m.columnValue(row, above)

	extend := false
	switch role {
	case PrefixHeader:
		extend = true
	case PrefixGStub, PrefixStub:
		extend = hasValue && norm.Equal(value, above.Text)
	}
	if extend {
		if err := m.grid.ExtendRowSpan(above, 1); err != nil {
			return col, err
		}
		return above.EndCol() + 1, nil
	}

	span := 0
	for c := col; c <= above.EndCol(); c++ {
		if m.grid.CellAt(at, c) != nil {
			break
		}
		span++
	}
	if span == 0 {
		span = 1
	}
	cell := &model.Cell{
		Row:     at,
		Col:     col,
		RowSpan: 1,
		ColSpan: span,
		Width:   above.Width,
		Height:  above.Height,
		FillRef: above.FillRef,
	}
	switch role {
	case PrefixGStub:
		if hasValue && strings.TrimSpace(value) != "" {
			cell.FieldName = PrefixGStub + m.ids.Next()
			cell.Text = value
		}
	case PrefixStub:
		cell.FieldName = above.FieldName
		if hasValue {
			cell.Text = value
		}
	case PrefixInput, PrefixData:
		cell.FieldName = above.FieldName
	}
	if err := m.grid.PlaceCell(cell); err != nil {
		return col, err
	}
	return cell.EndCol() + 1, nil
}

// columnValue finds the incoming value for the column patterned on the
// given cell: by exact field name, or, when the row carries exactly one
// field of the same role, that lone value.
func (m *RowMerger) columnValue(row Row, above *model.Cell) (string, bool) {
	if v, ok := row[above.FieldName]; ok {
		return v, true
	}
	role := RoleOf(above.FieldName)
	if role == "" {
		return "", false
	}
	var found string
	n := 0
	for name, v := range row {
		if RoleOf(name) == role {
			found = v
			n++
		}
	}
	if n == 1 {
		return found, true
	}
	return "", false
}

func (m *RowMerger) matchingGStubs(row Row) []*model.Cell {
	var out []*model.Cell
	for _, name := range sortedKeys(row) {
		if RoleOf(name) != PrefixGStub {
			continue
		}
		v := row[name]
		for _, cell := range m.grid.Cells() {
			if RoleOf(cell.FieldName) == PrefixGStub && norm.Equal(cell.Text, v) {
				out = append(out, cell)
			}
		}
	}
	return out
}

func sortedKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
