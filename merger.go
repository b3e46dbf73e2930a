package hanmerge

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tsawler/hanmerge/format"
	"github.com/tsawler/hanmerge/htmldoc"
	"github.com/tsawler/hanmerge/hwpx"
	"github.com/tsawler/hanmerge/model"
	"github.com/tsawler/hanmerge/ocr"
	"github.com/tsawler/hanmerge/outline"
	"github.com/tsawler/hanmerge/tables"
)

// templateDefaultCharStyle is the character-property id applied to
// paragraphs merged in from addition documents, so they render with the
// template's default character formatting.
const templateDefaultCharStyle = "0"

// Merger coordinates a merge job. Configuration methods return a new
// Merger, so a configured value can be shared and reconfigured without
// affecting earlier references:
//
//	base := hanmerge.Open("tmpl.hwpx", "a.hwpx", "b.hwpx")
//	strict := base.Exclude("부록")
//
// Terminal operations (Merge, MergeToFile, Captions) read the inputs and
// run the pipeline. A Merger given parsed documents via FromDocuments
// mutates the first document during Merge; treat it as single-use.
type Merger struct {
	filenames []string
	docs      []*model.Document
	options   MergeOptions
	err       error
}

// clone creates a copy of the Merger with deep-copied options. Input
// documents are shared, not copied.
func (m *Merger) clone() *Merger {
	newM := &Merger{
		options: m.options.clone(),
		err:     m.err,
	}
	if m.filenames != nil {
		newM.filenames = make([]string, len(m.filenames))
		copy(newM.filenames, m.filenames)
	}
	if m.docs != nil {
		newM.docs = make([]*model.Document, len(m.docs))
		copy(newM.docs, m.docs)
	}
	return newM
}

// Exclude adds heading names or patterns to remove from every document's
// outline before merging. A pattern ending in "." or consisting of digits
// matches a numbered section and all its subsections ("2." removes "2.",
// "2.1", "2.1.3"). Other patterns match by exact normalized name.
func (m *Merger) Exclude(names ...string) *Merger {
	newM := m.clone()
	newM.options.exclusions = append(newM.options.exclusions, names...)
	return newM
}

// Separator sets the string that joins free-text values collected from
// several documents into the same cell. The default is a single space.
func (m *Merger) Separator(sep string) *Merger {
	newM := m.clone()
	newM.options.separator = sep
	return newM
}

// CaptionLanguage sets the Tesseract language used by Captions, e.g.
// "kor+eng". The default is "eng".
func (m *Merger) CaptionLanguage(lang string) *Merger {
	newM := m.clone()
	newM.options.captionLanguage = lang
	return newM
}

// WithOptionsFile loads a YAML options file and folds it into the current
// options. Exclusions accumulate; separator and caption language override
// when set. A load error is deferred to the terminal operation.
func (m *Merger) WithOptionsFile(path string) *Merger {
	newM := m.clone()
	fileOpts, err := loadOptionsFile(path)
	if err != nil {
		newM.err = err
		return newM
	}
	newM.options = fileOpts.apply(newM.options)
	return newM
}

// Merge runs the merge and returns the combined document. The first input
// is the template: the output keeps its outline order, heading styles,
// table layouts and unmodeled archive parts. Warnings report rows or
// attachments that could not be placed; the merge itself still succeeds.
func (m *Merger) Merge() (*model.Document, []Warning, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	docs, err := m.loadDocuments()
	if err != nil {
		return nil, nil, err
	}
	if len(docs) == 0 {
		return nil, nil, fmt.Errorf("no input documents")
	}
	return mergeDocuments(docs, m.options)
}

// MergeToFile runs the merge and writes the result as an HWPX archive.
func (m *Merger) MergeToFile(path string) ([]Warning, error) {
	doc, warnings, err := m.Merge()
	if err != nil {
		return warnings, err
	}
	if err := hwpx.WriteFile(path, doc); err != nil {
		return warnings, fmt.Errorf("writing %s: %w", path, err)
	}
	return warnings, nil
}

// Captions runs OCR over every image attachment of every input and
// returns recognized text keyed by "source#id". When the library is built
// without the ocr tag a warning is returned instead of an error.
func (m *Merger) Captions() (map[string]string, []Warning, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	docs, err := m.loadDocuments()
	if err != nil {
		return nil, nil, err
	}

	client, err := ocr.New()
	if err != nil {
		return nil, []Warning{{Message: fmt.Sprintf("captions skipped: %v", err)}}, nil
	}
	defer client.Close()

	var warnings []Warning
	if err := client.SetLanguage(m.options.captionLanguage); err != nil {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("caption language %q: %v", m.options.captionLanguage, err)})
	}

	captions := make(map[string]string)
	for _, doc := range docs {
		for _, a := range doc.Attachments {
			text, err := client.Caption(a)
			if err != nil {
				warnings = append(warnings, Warning{Source: doc.Source, Message: fmt.Sprintf("attachment %s: %v", a.ID, err)})
				continue
			}
			if text != "" {
				captions[doc.Source+"#"+a.ID] = text
			}
		}
	}
	return captions, warnings, nil
}

// loadDocuments parses the configured filenames, or returns the documents
// supplied via FromDocuments.
func (m *Merger) loadDocuments() ([]*model.Document, error) {
	if m.docs != nil {
		return m.docs, nil
	}
	docs := make([]*model.Document, 0, len(m.filenames))
	for _, name := range m.filenames {
		doc, err := loadDocument(name)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// loadDocument parses one input file, trying the filename extension first
// and falling back to content sniffing.
func loadDocument(filename string) (*model.Document, error) {
	switch format.Detect(filename) {
	case format.HWPX:
		return hwpx.Open(filename)
	case format.HTML:
		return htmldoc.Open(filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}

	detected, err := format.DetectFromReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("detecting format of %s: %w", filename, err)
	}
	switch detected {
	case format.HWPX:
		return hwpx.Read(f, info.Size(), filename)
	case format.HTML:
		if _, err := f.Seek(0, 0); err != nil {
			return nil, fmt.Errorf("opening %s: %w", filename, err)
		}
		return htmldoc.Read(f, filename)
	}
	return nil, fmt.Errorf("%s: unsupported format", filename)
}

// mergeDocuments is the pipeline: classify the template's tables, merge
// the outlines, fold addition tables into the template's, then assemble
// the output document and deduplicate attachments.
func mergeDocuments(docs []*model.Document, opts MergeOptions) (*model.Document, []Warning, error) {
	template := docs[0]
	ids := tables.RandomIDs()

	classifier := tables.NewClassifier(ids)
	for _, g := range template.Grids {
		classifier.Classify(g)
	}

	bySource := make(map[string]*model.Document, len(docs))
	for _, d := range docs {
		bySource[d.Source] = d
	}

	exclude := outline.NewExclusionSet(opts.exclusions...)
	forests := make([][]*outline.Node, len(docs))
	for i, d := range docs {
		forests[i] = outline.Build(d.Paragraphs)
	}
	merged := outline.MergeAll(forests, exclude)
	stream := outline.Flatten(merged)

	var warnings []Warning

	// Fold addition tables into the template grids they share the most
	// field names with. Tables sharing nothing are kept verbatim.
	type gridKey struct {
		source string
		index  int
	}
	folded := make(map[gridKey]bool)
	for _, p := range stream {
		if p.Source == template.Source || !p.HasTable() {
			continue
		}
		src := bySource[p.Source]
		if src == nil {
			continue
		}
		for _, gi := range p.Tables {
			grid := src.Grids[gi]
			target := routeGrid(template.Grids, grid)
			if target < 0 {
				continue
			}
			merger := tables.NewRowMerger(template.Grids[target], ids)
			merger.Separator = opts.separator
			rowWarnings, err := merger.MergeRows(tables.ExtractRows(grid))
			for _, w := range rowWarnings {
				warnings = append(warnings, Warning{Source: p.Source, Message: w})
			}
			if err != nil {
				return nil, warnings, fmt.Errorf("merging table from %s: %w", p.Source, err)
			}
			folded[gridKey{p.Source, gi}] = true
		}
	}

	out := model.NewDocument(template.Source)
	out.Raw = template.Raw
	out.HeadingLevels = template.HeadingLevels
	out.Grids = append(out.Grids, template.Grids...)

	attachmentIDs := dedupeAttachments(out, docs)

	for _, p := range stream {
		q := *p
		if q.Source != template.Source {
			q.CharStyleID = templateDefaultCharStyle

			var kept []int
			for _, gi := range p.Tables {
				if folded[gridKey{p.Source, gi}] {
					continue
				}
				src := bySource[p.Source]
				if src == nil {
					continue
				}
				kept = append(kept, out.AddGrid(src.Grids[gi].Clone()))
			}
			q.Tables = kept
			if len(p.Tables) > 0 && len(kept) == 0 && strings.TrimSpace(q.Text) == "" && !q.HasImage() {
				continue
			}
		}
		if remap := attachmentIDs[q.Source]; remap != nil && len(q.Images) > 0 {
			images := make([]string, 0, len(q.Images))
			for _, id := range q.Images {
				if mapped, ok := remap[id]; ok {
					images = append(images, mapped)
				} else {
					images = append(images, id)
				}
			}
			q.Images = images
		}
		out.AddParagraph(&q)
	}

	return out, warnings, nil
}

// routeGrid picks the template grid sharing the most field names with the
// addition grid, lowest index on a tie. It returns -1 when no template
// grid shares any field.
func routeGrid(templates []*model.Grid, addition *model.Grid) int {
	fields := make(map[string]bool)
	for _, name := range addition.FieldNames() {
		fields[name] = true
	}

	best, bestShared := -1, 0
	for i, t := range templates {
		shared := 0
		for _, name := range t.FieldNames() {
			if fields[name] {
				shared++
			}
		}
		if shared > bestShared {
			best, bestShared = i, shared
		}
	}
	return best
}

// dedupeAttachments copies every input's attachments into the output,
// dropping byte-identical duplicates and renumbering ids sequentially.
// The returned map gives, per source document, the new id for each old
// one.
func dedupeAttachments(out *model.Document, docs []*model.Document) map[string]map[string]string {
	remap := make(map[string]map[string]string)
	next := 1
	for _, doc := range docs {
		for _, a := range doc.Attachments {
			newID := ""
			for _, kept := range out.Attachments {
				if bytes.Equal(kept.Data, a.Data) {
					newID = kept.ID
					break
				}
			}
			if newID == "" {
				newID = strconv.Itoa(next)
				next++
				out.Attachments = append(out.Attachments, &model.Attachment{
					ID:        newID,
					Name:      "BinData/image" + newID + filepath.Ext(a.Name),
					MediaType: a.MediaType,
					Data:      a.Data,
				})
			}
			if remap[doc.Source] == nil {
				remap[doc.Source] = make(map[string]string)
			}
			remap[doc.Source][a.ID] = newID
		}
	}
	return remap
}
