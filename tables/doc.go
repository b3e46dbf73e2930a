// Package tables classifies table cells into semantic field roles and merges
// incoming data rows into a template table.
//
// # Roles
//
// Every cell in a template table carries a field name built from a fixed
// role-prefix vocabulary:
//
//   - header_ - column heading cells, detected by background fill
//   - add_    - free-text cells whose incoming values are concatenated
//   - stub_   - single-row row-label cells
//   - gstub_  - row-spanning group-label cells
//   - input_  - empty cells grouped under a shared column heading
//   - data_   - remaining non-empty cells
//
// Classification is performed once per template table by [Classifier].
// Cells that already carry a name are never renamed, so classification is
// idempotent.
//
// # Merging
//
// [RowMerger] folds data rows (field-name to value maps) into the template
// grid. Each row is either written into an existing blank row, appended as a
// new bottom row, or spliced into the middle of a group-stub span:
//
//	merger := tables.NewRowMerger(grid, nil)
//	warnings, err := merger.MergeRows(rows)
//
// [ExtractRows] produces the data rows for a parsed addition table, applying
// the propagation and skip rules the merge side expects.
package tables
