// Package hanmerge provides a fluent API for merging structured HWPX
// documents: same-named outline sections are combined, and tabular data
// from addition documents is folded into the first document's template
// tables.
//
// Basic usage:
//
//	doc, warnings, err := hanmerge.Open("template.hwpx", "week1.hwpx", "week2.hwpx").Merge()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", hanmerge.FormatWarnings(warnings))
//	}
//	err = hwpx.WriteFile("merged.hwpx", doc)
//
// With options:
//
//	warnings, err := hanmerge.Open(files...).
//	    Exclude("부록", "2.").
//	    Separator("; ").
//	    MergeToFile("merged.hwpx")
//
// The first input is always the template: its outline order, styles and
// table layouts win. HTML files may be supplied as addition documents.
package hanmerge

import (
	"github.com/tsawler/hanmerge/model"
)

// Open prepares a merge of the named files. The first file is the
// template. Nothing is read until a terminal operation runs.
//
// Example:
//
//	doc, warnings, err := hanmerge.Open("a.hwpx", "b.hwpx").Merge()
func Open(filenames ...string) *Merger {
	return &Merger{
		filenames: filenames,
		options:   defaultOptions(),
	}
}

// FromDocuments prepares a merge of already-parsed documents. The first
// document is the template. Useful when inputs come from memory or from a
// custom reader.
func FromDocuments(docs ...*model.Document) *Merger {
	return &Merger{
		docs:    docs,
		options: defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustMerge wraps a call to Merge() and panics on error, discarding
// warnings.
//
// Example:
//
//	doc := hanmerge.MustMerge(hanmerge.Open(files...).Merge())
func MustMerge[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
