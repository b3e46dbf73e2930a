package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// nearWhite is the per-channel floor above which a fill color is treated as
// no background. Hancom's default table fill is a very light gray rather
// than pure white.
const nearWhite = 220

// Cell is one logical table cell. A cell occupies the rectangle from
// (Row, Col) to (EndRow, EndCol) inclusive; positions inside that rectangle
// other than the start are covered, not separately stored.
type Cell struct {
	Row     int
	Col     int
	RowSpan int
	ColSpan int

	Text string

	// FieldName is the click-here field name attached to the cell, empty if
	// the cell carries none. Names follow the role-prefix vocabulary
	// (header_, add_, stub_, gstub_, input_, data_).
	FieldName string

	// Background is the fill color as "#RRGGBB", empty when the cell has no
	// explicit fill. FillRef is the border-fill id the color came from, kept
	// so the cell can be written back referencing the same definition.
	Background string
	FillRef    string

	// Width and Height are the cell dimensions in HWPUNIT (1/7200 inch).
	Width  int
	Height int
}

// EndRow returns the last row index the cell covers.
func (c *Cell) EndRow() int { return c.Row + c.RowSpan - 1 }

// EndCol returns the last column index the cell covers.
func (c *Cell) EndCol() int { return c.Col + c.ColSpan - 1 }

// Covers reports whether the cell's span includes position (row, col).
func (c *Cell) Covers(row, col int) bool {
	return row >= c.Row && row <= c.EndRow() && col >= c.Col && col <= c.EndCol()
}

// IsEmpty reports whether the cell holds no visible text.
func (c *Cell) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// TrimmedLen returns the number of runes in the cell text after trimming
// surrounding whitespace.
func (c *Cell) TrimmedLen() int {
	return utf8.RuneCountInString(strings.TrimSpace(c.Text))
}

// HasBackground reports whether the cell carries a visible fill. Missing,
// unparsable and near-white fills (every channel at or above 220) all count
// as no background.
func (c *Cell) HasBackground() bool {
	r, g, b, ok := parseHexColor(c.Background)
	if !ok {
		return false
	}
	return r < nearWhite || g < nearWhite || b < nearWhite
}

func parseHexColor(s string) (r, g, b int, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

func (c *Cell) clone() *Cell {
	dup := *c
	return &dup
}

// Grid is a table addressed by (row, column) with span coverage: every
// position inside the grid resolves to exactly one owning cell. All
// mutating methods preserve that invariant.
type Grid struct {
	rows  int
	cols  int
	cells []*Cell
	cover [][]*Cell
}

// NewGrid creates an empty grid with the given dimensions.
func NewGrid(rows, cols int) *Grid {
	g := &Grid{rows: rows, cols: cols}
	g.cover = make([][]*Cell, rows)
	for i := range g.cover {
		g.cover[i] = make([]*Cell, cols)
	}
	return g
}

// RowCount returns the number of rows in the grid.
func (g *Grid) RowCount() int { return g.rows }

// ColCount returns the number of columns in the grid.
func (g *Grid) ColCount() int { return g.cols }

// PlaceCell adds a cell to the grid. It returns an error if the cell's span
// falls outside the grid or overlaps a cell already placed.
func (g *Grid) PlaceCell(c *Cell) error {
	if c.RowSpan < 1 || c.ColSpan < 1 {
		return fmt.Errorf("cell at (%d,%d) has invalid span %dx%d", c.Row, c.Col, c.RowSpan, c.ColSpan)
	}
	if c.Row < 0 || c.Col < 0 || c.EndRow() >= g.rows || c.EndCol() >= g.cols {
		return fmt.Errorf("cell span (%d,%d)-(%d,%d) outside %dx%d grid", c.Row, c.Col, c.EndRow(), c.EndCol(), g.rows, g.cols)
	}
	for r := c.Row; r <= c.EndRow(); r++ {
		for col := c.Col; col <= c.EndCol(); col++ {
			if g.cover[r][col] != nil {
				return fmt.Errorf("cell at (%d,%d) overlaps existing cell at (%d,%d)", c.Row, c.Col, r, col)
			}
		}
	}
	for r := c.Row; r <= c.EndRow(); r++ {
		for col := c.Col; col <= c.EndCol(); col++ {
			g.cover[r][col] = c
		}
	}
	g.cells = append(g.cells, c)
	return nil
}

// CellAt returns the cell owning position (row, col): the cell that starts
// there, or the spanning cell that covers it. It returns nil when the
// position is outside the grid or unoccupied.
func (g *Grid) CellAt(row, col int) *Cell {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return nil
	}
	return g.cover[row][col]
}

// Cells returns all cells in reading order: by start row, then start column.
func (g *Grid) Cells() []*Cell {
	out := make([]*Cell, len(g.cells))
	copy(out, g.cells)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// RowCells returns the cells that start in the given row, ordered by column.
func (g *Grid) RowCells(row int) []*Cell {
	var out []*Cell
	for _, c := range g.Cells() {
		if c.Row == row {
			out = append(out, c)
		}
	}
	return out
}

// CellsByField returns every cell whose field name equals name, in reading
// order.
func (g *Grid) CellsByField(name string) []*Cell {
	var out []*Cell
	for _, c := range g.Cells() {
		if c.FieldName == name {
			out = append(out, c)
		}
	}
	return out
}

// FieldNames returns the distinct field names present in the grid, in the
// order their cells first appear.
func (g *Grid) FieldNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range g.Cells() {
		if c.FieldName == "" || seen[c.FieldName] {
			continue
		}
		seen[c.FieldName] = true
		out = append(out, c.FieldName)
	}
	return out
}

// ExtendRowSpan grows a cell's row span by the given number of rows. The
// newly covered positions must exist and be unoccupied.
func (g *Grid) ExtendRowSpan(c *Cell, by int) error {
	if by <= 0 {
		return fmt.Errorf("row span extension must be positive, got %d", by)
	}
	if c.EndRow()+by >= g.rows {
		return fmt.Errorf("extending cell at (%d,%d) by %d exceeds %d rows", c.Row, c.Col, by, g.rows)
	}
	for r := c.EndRow() + 1; r <= c.EndRow()+by; r++ {
		for col := c.Col; col <= c.EndCol(); col++ {
			if g.cover[r][col] != nil {
				return fmt.Errorf("cell at (%d,%d) cannot extend over occupied position (%d,%d)", c.Row, c.Col, r, col)
			}
		}
	}
	for r := c.EndRow() + 1; r <= c.EndRow()+by; r++ {
		for col := c.Col; col <= c.EndCol(); col++ {
			g.cover[r][col] = c
		}
	}
	c.RowSpan += by
	return nil
}

// AddRow appends an empty row to the bottom of the grid and returns its
// index. The caller places cells covering the new row afterwards.
func (g *Grid) AddRow() int {
	g.cover = append(g.cover, make([]*Cell, g.cols))
	g.rows++
	return g.rows - 1
}

// InsertRow opens an empty row at the given index. Cells starting at or
// below the index move down one row; cells spanning across the index grow
// by one row and keep covering the opened gap. The caller fills the
// remaining positions in the new row.
func (g *Grid) InsertRow(at int) error {
	if at < 0 || at > g.rows {
		return fmt.Errorf("insert row %d outside %d-row grid", at, g.rows)
	}
	for _, c := range g.cells {
		switch {
		case c.Row >= at:
			c.Row++
		case c.EndRow() >= at:
			c.RowSpan++
		}
	}
	g.rows++
	g.rebuildCover()
	return nil
}

func (g *Grid) rebuildCover() {
	g.cover = make([][]*Cell, g.rows)
	for i := range g.cover {
		g.cover[i] = make([]*Cell, g.cols)
	}
	for _, c := range g.cells {
		for r := c.Row; r <= c.EndRow(); r++ {
			for col := c.Col; col <= c.EndCol(); col++ {
				g.cover[r][col] = c
			}
		}
	}
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	dup := NewGrid(g.rows, g.cols)
	for _, c := range g.cells {
		// placement cannot fail: the source grid already satisfies the
		// coverage invariant
		_ = dup.PlaceCell(c.clone())
	}
	return dup
}
