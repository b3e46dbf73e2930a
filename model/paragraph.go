package model

// Paragraph represents one body or heading paragraph from a parsed document.
// Paragraphs are produced once at parse time; the merge phase may overwrite
// Text, StyleID and CharStyleID, and relocates paragraphs within the merged
// stream, but never deletes fields or renumbers Index.
type Paragraph struct {
	// Index is the ordinal position within the source document.
	Index int

	// IsHeading marks outline headings. Level is the 0-based outline depth,
	// or -1 for non-heading paragraphs.
	IsHeading bool
	Level     int

	Text string

	// StyleID is the paragraph-property reference carried through from the
	// source document. CharStyleID is the character-property reference; the
	// orchestrator resets it to the template default for merged-in
	// paragraphs.
	StyleID     string
	CharStyleID string

	// Source identifies the owning document (its path or label).
	Source string

	// Tables holds indices into the owning Document's Grids slice, one per
	// table anchored in this paragraph. Images holds attachment ids
	// referenced by this paragraph.
	Tables []int
	Images []string
}

// HasTable reports whether the paragraph anchors at least one table.
func (p *Paragraph) HasTable() bool { return len(p.Tables) > 0 }

// HasImage reports whether the paragraph references at least one image.
func (p *Paragraph) HasImage() bool { return len(p.Images) > 0 }

// Attachment is a binary part (typically an image) embedded in a document.
type Attachment struct {
	// ID is the reference id paragraphs use (e.g. "1" for image1.png).
	ID string

	// Name is the archive entry name, e.g. "BinData/image1.png".
	Name string

	// MediaType is the MIME type, sniffed from the content where possible.
	MediaType string

	Data []byte
}

// Document is one parsed input: the paragraph stream, its table grids, the
// style-id to heading-level map, and binary attachments. The same shape is
// produced for the merged output.
type Document struct {
	// Source is the path or label of the input this document came from.
	Source string

	Paragraphs []*Paragraph
	Grids      []*Grid

	// HeadingLevels maps a paragraph style id to its 0-based outline level.
	// Only styles that denote headings appear here.
	HeadingLevels map[string]int

	Attachments []*Attachment

	// Raw holds archive entries the merge engine does not model (settings,
	// previews, version info). The writer copies them through from the
	// template. Nil for synthetic documents.
	Raw map[string][]byte
}

// NewDocument creates an empty document for the given source.
func NewDocument(source string) *Document {
	return &Document{
		Source:        source,
		HeadingLevels: make(map[string]int),
	}
}

// AddParagraph appends a paragraph, assigning its Index and Source.
func (d *Document) AddParagraph(p *Paragraph) {
	p.Index = len(d.Paragraphs)
	if p.Source == "" {
		p.Source = d.Source
	}
	d.Paragraphs = append(d.Paragraphs, p)
}

// AddGrid appends a table grid and returns its index.
func (d *Document) AddGrid(g *Grid) int {
	d.Grids = append(d.Grids, g)
	return len(d.Grids) - 1
}

// Attachment returns the attachment with the given id, or nil.
func (d *Document) Attachment(id string) *Attachment {
	for _, a := range d.Attachments {
		if a.ID == id {
			return a
		}
	}
	return nil
}
