// Package hwpx reads and writes HWPX documents (Hancom Office, OWPML).
//
// An HWPX file is a ZIP archive of XML parts. The reader parses
// Contents/header.xml for outline styles and cell fill colors,
// Contents/section*.xml for paragraphs, tables and images, and BinData/*
// for binary attachments, producing a [model.Document]. The writer
// serializes a merged document back into the container, regenerating the
// section part and the package manifest while copying everything else
// through from the source archive.
//
//	doc, err := hwpx.Open("report.hwpx")
//	...
//	err = hwpx.WriteFile("merged.hwpx", doc)
//
// The mimetype entry is written first and stored uncompressed, as the
// format requires.
package hwpx
