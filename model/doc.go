// Package model provides the intermediate representation (IR) for parsed
// document content.
//
// This package defines the data structures every reader produces and the
// merge engine consumes: an ordered [Paragraph] stream, a set of [Grid]
// tables addressed by (row, column) with row/column-span coverage, the
// style-id to heading-level map, and binary [Attachment] parts.
//
// # Documents
//
// A [Document] holds one parsed input file:
//
//	doc := model.NewDocument("report.hwpx")
//	doc.AddParagraph(para)
//
// Paragraphs reference tables and attachments by index and id rather than by
// pointer into a parser's element tree, so merge operations never alias into
// reader-owned state.
//
// # Grids
//
// The [Grid] type is the span-covered table model. Every position inside the
// grid resolves to exactly one owning [Cell], reachable both by exact-start
// lookup and by coverage scan:
//
//	cell := grid.CellAt(2, 1) // owning cell, even under a rowspan
//
// Mutations (PlaceCell, ExtendRowSpan, InsertRow, AddRow) preserve that
// invariant after every call.
package model
