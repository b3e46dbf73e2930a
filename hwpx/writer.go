package hwpx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/tsawler/hanmerge/model"
)

// defaultCharStyle is the character-property id used when a paragraph
// carries none.
const defaultCharStyle = "0"

// WriteFile serializes the document into a new HWPX file.
func WriteFile(filename string, doc *model.Document) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating HWPX file: %w", err)
	}
	if err := Write(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write serializes the document as an HWPX archive. The mimetype entry
// goes first and uncompressed, the section part and package manifest are
// regenerated from the document, and every other entry carried over from
// the source archive is copied through.
func Write(w io.Writer, doc *model.Document) error {
	zw := zip.NewWriter(w)

	mimetype := doc.Raw["mimetype"]
	if len(mimetype) == 0 {
		mimetype = []byte(MimeType)
	}
	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("writing mimetype: %w", err)
	}
	if _, err := mw.Write(mimetype); err != nil {
		return fmt.Errorf("writing mimetype: %w", err)
	}

	section, err := marshalSection(doc)
	if err != nil {
		return fmt.Errorf("serializing section: %w", err)
	}
	if err := writeEntry(zw, "Contents/section0.xml", section); err != nil {
		return err
	}

	for _, a := range doc.Attachments {
		if err := writeEntry(zw, a.Name, a.Data); err != nil {
			return err
		}
	}

	var rawNames []string
	for name := range doc.Raw {
		rawNames = append(rawNames, name)
	}
	sort.Strings(rawNames)
	for _, name := range rawNames {
		if name == "mimetype" {
			continue
		}
		content := doc.Raw[name]
		if name == "Contents/content.hpf" {
			content = updateManifest(content, doc.Attachments)
		}
		if err := writeEntry(zw, name, content); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, content []byte) error {
	ew, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if _, err := ew.Write(content); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Output XML shapes. Prefixes are written literally; the namespace
// declarations sit on the section root.
type secOut struct {
	XMLName     xml.Name  `xml:"hs:sec"`
	NSSection   string    `xml:"xmlns:hs,attr"`
	NSParagraph string    `xml:"xmlns:hp,attr"`
	NSCore      string    `xml:"xmlns:hc,attr"`
	Paragraphs  []paraOut `xml:"hp:p"`
}

type paraOut struct {
	ParaPrIDRef string   `xml:"paraPrIDRef,attr,omitempty"`
	Runs        []runOut `xml:"hp:run"`
}

type runOut struct {
	CharPrIDRef string   `xml:"charPrIDRef,attr"`
	Text        *textOut `xml:"hp:t"`
	Table       *tblOut  `xml:"hp:tbl"`
	Picture     *picOut  `xml:"hp:pic"`
}

type textOut struct {
	Value string `xml:",chardata"`
}

type picOut struct {
	Image imgOut `xml:"hc:img"`
}

type imgOut struct {
	BinDataIDRef string `xml:"binDataIDRef,attr"`
}

type tblOut struct {
	RowCnt int     `xml:"rowCnt,attr"`
	ColCnt int     `xml:"colCnt,attr"`
	Rows   []trOut `xml:"hp:tr"`
}

type trOut struct {
	Cells []tcOut `xml:"hp:tc"`
}

type tcOut struct {
	Name    string     `xml:"name,attr,omitempty"`
	FillRef string     `xml:"borderFillIDRef,attr,omitempty"`
	SubList subListOut `xml:"hp:subList"`
	Addr    addrOut    `xml:"hp:cellAddr"`
	Span    spanOut    `xml:"hp:cellSpan"`
	Size    sizeOut    `xml:"hp:cellSz"`
}

type addrOut struct {
	Col int `xml:"colAddr,attr"`
	Row int `xml:"rowAddr,attr"`
}

type spanOut struct {
	Col int `xml:"colSpan,attr"`
	Row int `xml:"rowSpan,attr"`
}

type sizeOut struct {
	Width  int `xml:"width,attr"`
	Height int `xml:"height,attr"`
}

type subListOut struct {
	Paragraphs []subPOut `xml:"hp:p"`
}

type subPOut struct {
	Runs []subROut `xml:"hp:run"`
}

type subROut struct {
	CharPrIDRef string  `xml:"charPrIDRef,attr"`
	Text        textOut `xml:"hp:t"`
}

func marshalSection(doc *model.Document) ([]byte, error) {
	sec := secOut{
		NSSection:   "http://www.hancom.co.kr/hwpml/2011/section",
		NSParagraph: "http://www.hancom.co.kr/hwpml/2011/paragraph",
		NSCore:      "http://www.hancom.co.kr/hwpml/2011/core",
	}

	for _, p := range doc.Paragraphs {
		po := paraOut{ParaPrIDRef: p.StyleID}
		charStyle := p.CharStyleID
		if charStyle == "" {
			charStyle = defaultCharStyle
		}

		po.Runs = append(po.Runs, runOut{
			CharPrIDRef: charStyle,
			Text:        &textOut{Value: p.Text},
		})
		for _, idx := range p.Tables {
			if idx < 0 || idx >= len(doc.Grids) {
				continue
			}
			po.Runs = append(po.Runs, runOut{
				CharPrIDRef: charStyle,
				Table:       tableOut(doc.Grids[idx]),
			})
		}
		for _, id := range p.Images {
			po.Runs = append(po.Runs, runOut{
				CharPrIDRef: charStyle,
				Picture:     &picOut{Image: imgOut{BinDataIDRef: id}},
			})
		}
		sec.Paragraphs = append(sec.Paragraphs, po)
	}

	body, err := xml.Marshal(sec)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func tableOut(g *model.Grid) *tblOut {
	t := &tblOut{RowCnt: g.RowCount(), ColCnt: g.ColCount()}
	for r := 0; r < g.RowCount(); r++ {
		var row trOut
		for _, cell := range g.RowCells(r) {
			row.Cells = append(row.Cells, tcOut{
				Name:    cell.FieldName,
				FillRef: cell.FillRef,
				SubList: subListOut{Paragraphs: []subPOut{{
					Runs: []subROut{{
						CharPrIDRef: defaultCharStyle,
						Text:        textOut{Value: cell.Text},
					}},
				}}},
				Addr: addrOut{Col: cell.Col, Row: cell.Row},
				Span: spanOut{Col: cell.ColSpan, Row: cell.RowSpan},
				Size: sizeOut{Width: cell.Width, Height: cell.Height},
			})
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// updateManifest adds package-manifest items for attachments the template
// did not originally carry. The rest of the manifest is left untouched.
func updateManifest(hpf []byte, attachments []*model.Attachment) []byte {
	content := string(hpf)

	closing := "</opf:manifest>"
	prefix := "opf:"
	idx := strings.Index(content, closing)
	if idx < 0 {
		closing = "</manifest>"
		prefix = ""
		idx = strings.Index(content, closing)
	}
	if idx < 0 {
		return hpf
	}

	var items strings.Builder
	for _, a := range attachments {
		if a.ID == "" {
			continue
		}
		itemID := "image" + a.ID
		if strings.Contains(content, fmt.Sprintf("id=%q", itemID)) {
			continue
		}
		href := a.Name
		mt := a.MediaType
		if mt == "" {
			mt = mediaType(a.Data, path.Base(a.Name))
		}
		fmt.Fprintf(&items, `<%sitem id="%s" href="%s" media-type="%s" isEmbeded="1"/>`,
			prefix, itemID, href, mt)
	}
	if items.Len() == 0 {
		return hpf
	}
	return []byte(content[:idx] + items.String() + content[idx:])
}
