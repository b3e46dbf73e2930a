package hwpx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/hanmerge/model"
)

// MimeType is the content of the mimetype entry of an HWPX archive.
const MimeType = "application/hwp+zip"

var imageIDPattern = regexp.MustCompile(`image(\d+)`)

// Open reads an HWPX file into a document.
func Open(filename string) (*model.Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening HWPX file: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("opening HWPX file: %w", err)
	}
	return Read(f, st.Size(), filename)
}

// Read parses an HWPX archive from an in-memory or file-backed reader.
// The source label is recorded on the document and its paragraphs.
func Read(r io.ReaderAt, size int64, source string) (*model.Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	p := &parser{zr: zr, doc: model.NewDocument(source)}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := p.parseHeader(); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if err := p.parseSections(); err != nil {
		return nil, err
	}
	if err := p.collectBinData(); err != nil {
		return nil, err
	}
	p.collectRaw()
	return p.doc, nil
}

type parser struct {
	zr  *zip.Reader
	doc *model.Document

	// borderFillIDRef to fill color, from header.xml
	fills map[string]string
}

func (p *parser) validate() error {
	required := []string{"Contents/header.xml", "Contents/section0.xml"}
	have := make(map[string]bool)
	for _, f := range p.zr.File {
		have[f.Name] = true
	}
	for _, name := range required {
		if !have[name] {
			return fmt.Errorf("missing required file: %s", name)
		}
	}
	return nil
}

func (p *parser) fileContent(name string) ([]byte, error) {
	for _, f := range p.zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("file not found: %s", name)
}

// headerXML carries the pieces of Contents/header.xml the merge needs:
// which paragraph styles are outline headings, and the fill color behind
// each borderFill id.
type headerXML struct {
	ParaPrs     []paraPrXML     `xml:"refList>paraProperties>paraPr"`
	BorderFills []borderFillXML `xml:"refList>borderFills>borderFill"`
}

type paraPrXML struct {
	ID      string      `xml:"id,attr"`
	Heading *headingXML `xml:"heading"`
}

type headingXML struct {
	Type  string `xml:"type,attr"`
	Level int    `xml:"level,attr"`
}

type borderFillXML struct {
	ID    string        `xml:"id,attr"`
	Brush []winBrushXML `xml:"fillBrush>winBrush"`
}

type winBrushXML struct {
	FaceColor string `xml:"faceColor,attr"`
}

func (p *parser) parseHeader() error {
	content, err := p.fileContent("Contents/header.xml")
	if err != nil {
		return err
	}

	var hdr headerXML
	if err := xml.Unmarshal(content, &hdr); err != nil {
		return err
	}

	for _, pr := range hdr.ParaPrs {
		if pr.ID == "" || pr.Heading == nil {
			continue
		}
		if pr.Heading.Type == "OUTLINE" {
			p.doc.HeadingLevels[pr.ID] = pr.Heading.Level
		}
	}

	p.fills = make(map[string]string)
	for _, bf := range hdr.BorderFills {
		if bf.ID == "" || len(bf.Brush) == 0 {
			continue
		}
		p.fills[bf.ID] = bf.Brush[0].FaceColor
	}
	return nil
}

// Section XML shapes. Element names match on local name, so the hp:/hs:
// prefixes in the file are irrelevant here.
type sectionXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

type paragraphXML struct {
	ParaPrIDRef string   `xml:"paraPrIDRef,attr"`
	Runs        []runXML `xml:"run"`
}

type runXML struct {
	CharPrIDRef string       `xml:"charPrIDRef,attr"`
	Texts       []string     `xml:"t"`
	Tables      []tableXML   `xml:"tbl"`
	Pictures    []pictureXML `xml:"pic"`
}

type pictureXML struct {
	Images []imageXML `xml:"img"`
}

type imageXML struct {
	BinDataIDRef string `xml:"binDataIDRef,attr"`
}

type tableXML struct {
	ID   string  `xml:"id,attr"`
	Rows []trXML `xml:"tr"`
}

type trXML struct {
	Cells []tcXML `xml:"tc"`
}

type tcXML struct {
	Name            string      `xml:"name,attr"`
	BorderFillIDRef string      `xml:"borderFillIDRef,attr"`
	Addr            *cellAddr   `xml:"cellAddr"`
	Span            *cellSpan   `xml:"cellSpan"`
	Size            *cellSize   `xml:"cellSz"`
	SubList         *subListXML `xml:"subList"`
}

type cellAddr struct {
	Col int `xml:"colAddr,attr"`
	Row int `xml:"rowAddr,attr"`
}

type cellSpan struct {
	Col int `xml:"colSpan,attr"`
	Row int `xml:"rowSpan,attr"`
}

type cellSize struct {
	Width  int `xml:"width,attr"`
	Height int `xml:"height,attr"`
}

type subListXML struct {
	Paragraphs []subParagraphXML `xml:"p"`
}

type subParagraphXML struct {
	Runs []subRunXML `xml:"run"`
}

type subRunXML struct {
	Texts       []string        `xml:"t"`
	FieldBegins []fieldBeginXML `xml:"ctrl>fieldBegin"`
}

type fieldBeginXML struct {
	Name string `xml:"name,attr"`
}

func (p *parser) parseSections() error {
	var names []string
	for _, f := range p.zr.File {
		if strings.HasPrefix(f.Name, "Contents/section") && strings.HasSuffix(f.Name, ".xml") {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := p.fileContent(name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		var sec sectionXML
		if err := xml.Unmarshal(content, &sec); err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		if err := p.addSection(&sec); err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
	}
	return nil
}

func (p *parser) addSection(sec *sectionXML) error {
	for _, para := range sec.Paragraphs {
		mp := &model.Paragraph{
			StyleID: para.ParaPrIDRef,
			Level:   -1,
		}
		if level, ok := p.doc.HeadingLevels[para.ParaPrIDRef]; ok {
			mp.IsHeading = true
			mp.Level = level
		}

		var text strings.Builder
		for _, run := range para.Runs {
			if mp.CharStyleID == "" {
				mp.CharStyleID = run.CharPrIDRef
			}
			for _, t := range run.Texts {
				text.WriteString(t)
			}
			for _, tbl := range run.Tables {
				grid, err := p.buildGrid(&tbl)
				if err != nil {
					return err
				}
				mp.Tables = append(mp.Tables, p.doc.AddGrid(grid))
			}
			for _, pic := range run.Pictures {
				for _, img := range pic.Images {
					if img.BinDataIDRef != "" {
						mp.Images = append(mp.Images, img.BinDataIDRef)
					}
				}
			}
		}
		mp.Text = text.String()
		p.doc.AddParagraph(mp)
	}
	return nil
}

func (p *parser) buildGrid(tbl *tableXML) (*model.Grid, error) {
	var cells []*model.Cell

	rowIdx := 0
	for _, tr := range tbl.Rows {
		colIdx := 0
		for _, tc := range tr.Cells {
			cell := &model.Cell{Row: rowIdx, Col: colIdx, RowSpan: 1, ColSpan: 1}
			if tc.Addr != nil {
				cell.Row = tc.Addr.Row
				cell.Col = tc.Addr.Col
			}
			if tc.Span != nil {
				if tc.Span.Row > 0 {
					cell.RowSpan = tc.Span.Row
				}
				if tc.Span.Col > 0 {
					cell.ColSpan = tc.Span.Col
				}
			}
			if tc.Size != nil {
				cell.Width = tc.Size.Width
				cell.Height = tc.Size.Height
			}
			cell.Background = p.fills[tc.BorderFillIDRef]
			cell.FillRef = tc.BorderFillIDRef
			cell.FieldName = tc.Name
			if tc.SubList != nil {
				var text strings.Builder
				for _, sp := range tc.SubList.Paragraphs {
					for _, run := range sp.Runs {
						for _, t := range run.Texts {
							text.WriteString(t)
						}
						if cell.FieldName == "" {
							for _, fb := range run.FieldBegins {
								if fb.Name != "" {
									cell.FieldName = fb.Name
									break
								}
							}
						}
					}
				}
				cell.Text = text.String()
			}
			cells = append(cells, cell)
			colIdx = cell.Col + cell.ColSpan
		}
		rowIdx++
	}

	rows, cols := 0, 0
	for _, c := range cells {
		if c.EndRow()+1 > rows {
			rows = c.EndRow() + 1
		}
		if c.EndCol()+1 > cols {
			cols = c.EndCol() + 1
		}
	}
	grid := model.NewGrid(rows, cols)
	for _, c := range cells {
		if err := grid.PlaceCell(c); err != nil {
			return nil, fmt.Errorf("table %s: %w", tbl.ID, err)
		}
	}
	return grid, nil
}

func (p *parser) collectBinData() error {
	var names []string
	for _, f := range p.zr.File {
		if strings.HasPrefix(f.Name, "BinData/") {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := p.fileContent(name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		id := ""
		if m := imageIDPattern.FindStringSubmatch(path.Base(name)); m != nil {
			id = m[1]
		}
		p.doc.Attachments = append(p.doc.Attachments, &model.Attachment{
			ID:        id,
			Name:      name,
			MediaType: mediaType(data, name),
			Data:      data,
		})
	}
	return nil
}

// collectRaw keeps every entry the model does not represent, so the writer
// can copy them through unchanged.
func (p *parser) collectRaw() {
	p.doc.Raw = make(map[string][]byte)
	for _, f := range p.zr.File {
		if strings.HasPrefix(f.Name, "BinData/") {
			continue
		}
		if strings.HasPrefix(f.Name, "Contents/section") && strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		content, err := p.fileContent(f.Name)
		if err != nil {
			continue
		}
		p.doc.Raw[f.Name] = content
	}
}
