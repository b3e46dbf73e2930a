package tables

import (
	"github.com/tsawler/hanmerge/model"
)

// ExtractRows converts a parsed addition table into the data rows the merge
// side consumes. Row 0 is the heading row and is never extracted. Stub and
// group-stub labels propagate to every row their span covers. Rows carrying
// only data fields, and rows whose input values are all blank, are dropped.
// add_ values from anywhere in the table are collected into one leading row
// of their own.
func ExtractRows(g *model.Grid) []Row {
	var out []Row

	adds := make(Row)
	for _, cell := range g.Cells() {
		if RoleOf(cell.FieldName) != PrefixAdd || cell.IsEmpty() {
			continue
		}
		if prev, ok := adds[cell.FieldName]; ok {
			adds[cell.FieldName] = prev + DefaultSeparator + cell.Text
		} else {
			adds[cell.FieldName] = cell.Text
		}
	}
	if len(adds) > 0 {
		out = append(out, adds)
	}

	for r := 1; r < g.RowCount(); r++ {
		row := make(Row)
		inputs := 0
		inputValues := 0
		labeled := false

		for col := 0; col < g.ColCount(); col++ {
			cell := g.CellAt(r, col)
			if cell == nil {
				continue
			}
			col = cell.EndCol()

			switch RoleOf(cell.FieldName) {
			case PrefixGStub, PrefixStub:
				row[cell.FieldName] = cell.Text
				labeled = true
			case PrefixInput:
				if cell.Row != r {
					continue
				}
				row[cell.FieldName] = cell.Text
				inputs++
				if !cell.IsEmpty() {
					inputValues++
				}
			case PrefixData:
				if cell.Row != r {
					continue
				}
				row[cell.FieldName] = cell.Text
			}
		}

		if inputs == 0 && !labeled {
			continue
		}
		if inputs > 0 && inputValues == 0 {
			continue
		}
		out = append(out, row)
	}
	return out
}
