package hanmerge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/hanmerge/model"
)

const fillBlue = "#4472C4"

// templateDoc builds the first input: two sections, the first of which
// anchors a 2x2 table with one blank input row.
func templateDoc() *model.Document {
	d := model.NewDocument("template.hwpx")

	g := model.NewGrid(2, 2)
	g.PlaceCell(&model.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, Text: "구분", FieldName: "header_h1", Background: fillBlue})
	g.PlaceCell(&model.Cell{Row: 0, Col: 1, RowSpan: 1, ColSpan: 1, Text: "내용", FieldName: "header_h2", Background: fillBlue})
	g.PlaceCell(&model.Cell{Row: 1, Col: 0, RowSpan: 1, ColSpan: 1, Text: "A", FieldName: "stub_s1"})
	g.PlaceCell(&model.Cell{Row: 1, Col: 1, RowSpan: 1, ColSpan: 1, FieldName: "input_i1"})
	gi := d.AddGrid(g)

	d.AddParagraph(&model.Paragraph{IsHeading: true, Level: 0, Text: "1. 개요", StyleID: "7"})
	d.AddParagraph(&model.Paragraph{Text: "개요 본문", StyleID: "2"})
	d.AddParagraph(&model.Paragraph{Tables: []int{gi}})
	d.AddParagraph(&model.Paragraph{IsHeading: true, Level: 0, Text: "2. 부록", StyleID: "7"})
	d.AddParagraph(&model.Paragraph{Text: "부록 본문", StyleID: "2"})
	return d
}

// additionDoc builds a second input whose first section carries one data
// row for the template table.
func additionDoc(source, stub, input string) *model.Document {
	d := model.NewDocument(source)

	g := model.NewGrid(2, 2)
	g.PlaceCell(&model.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, Text: "구분", Background: fillBlue})
	g.PlaceCell(&model.Cell{Row: 0, Col: 1, RowSpan: 1, ColSpan: 1, Text: "내용", Background: fillBlue})
	g.PlaceCell(&model.Cell{Row: 1, Col: 0, RowSpan: 1, ColSpan: 1, Text: stub, FieldName: "stub_s1"})
	g.PlaceCell(&model.Cell{Row: 1, Col: 1, RowSpan: 1, ColSpan: 1, Text: input, FieldName: "input_i1"})
	gi := d.AddGrid(g)

	d.AddParagraph(&model.Paragraph{IsHeading: true, Level: 0, Text: "1. 개요", StyleID: "3"})
	d.AddParagraph(&model.Paragraph{Text: "추가 본문", StyleID: "9"})
	d.AddParagraph(&model.Paragraph{Tables: []int{gi}})
	return d
}

func paragraphTexts(d *model.Document) []string {
	out := make([]string, len(d.Paragraphs))
	for i, p := range d.Paragraphs {
		out[i] = p.Text
	}
	return out
}

func TestMergeFillsTemplateTable(t *testing.T) {
	tmpl := templateDoc()
	add := additionDoc("week1.hwpx", "A", "X")

	out, warnings, err := FromDocuments(tmpl, add).Merge()
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	if len(out.Grids) != 1 {
		t.Fatalf("expected 1 grid in output, got %d", len(out.Grids))
	}
	g := out.Grids[0]
	if g.RowCount() != 2 {
		t.Errorf("expected row count 2 after in-place fill, got %d", g.RowCount())
	}
	if got := g.CellAt(1, 1).Text; got != "X" {
		t.Errorf("expected input cell text %q, got %q", "X", got)
	}

	// The addition's table paragraph was fully folded and should be gone.
	for _, p := range out.Paragraphs {
		if p.Source == "week1.hwpx" && p.HasTable() {
			t.Errorf("expected folded table paragraph to be dropped, found %+v", p)
		}
	}
}

func TestMergeAppendsNewRow(t *testing.T) {
	tmpl := templateDoc()
	add := additionDoc("week1.hwpx", "B", "Y")

	out, _, err := FromDocuments(tmpl, add).Merge()
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	g := out.Grids[0]
	if g.RowCount() != 3 {
		t.Fatalf("expected row count 3 after append, got %d", g.RowCount())
	}
	if got := g.CellAt(2, 0).Text; got != "B" {
		t.Errorf("expected new stub text %q, got %q", "B", got)
	}
	if got := g.CellAt(2, 1).Text; got != "Y" {
		t.Errorf("expected new input text %q, got %q", "Y", got)
	}
}

func TestMergeBodyInheritsTemplateStyle(t *testing.T) {
	tmpl := templateDoc()
	add := additionDoc("week1.hwpx", "A", "X")

	out, _, err := FromDocuments(tmpl, add).Merge()
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	var merged *model.Paragraph
	for _, p := range out.Paragraphs {
		if p.Text == "추가 본문" {
			merged = p
		}
	}
	if merged == nil {
		t.Fatalf("merged body paragraph not found; paragraphs: %v", paragraphTexts(out))
	}
	if merged.StyleID != "2" {
		t.Errorf("expected inherited style %q, got %q", "2", merged.StyleID)
	}
	if merged.CharStyleID != templateDefaultCharStyle {
		t.Errorf("expected char style %q, got %q", templateDefaultCharStyle, merged.CharStyleID)
	}

	// Section order follows the template: the merged body sits inside
	// section 1, before section 2.
	texts := paragraphTexts(out)
	idxMerged, idxSection2 := -1, -1
	for i, s := range texts {
		switch s {
		case "추가 본문":
			idxMerged = i
		case "2. 부록":
			idxSection2 = i
		}
	}
	if idxMerged > idxSection2 {
		t.Errorf("expected merged body before section 2, got order %v", texts)
	}
}

func TestMergeCopiesUnrelatedTableVerbatim(t *testing.T) {
	tmpl := templateDoc()

	add := model.NewDocument("notes.hwpx")
	g := model.NewGrid(1, 1)
	g.PlaceCell(&model.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, Text: "메모", FieldName: "data_d1"})
	gi := add.AddGrid(g)
	add.AddParagraph(&model.Paragraph{IsHeading: true, Level: 0, Text: "3. 기타", StyleID: "7"})
	add.AddParagraph(&model.Paragraph{Tables: []int{gi}})

	out, _, err := FromDocuments(tmpl, add).Merge()
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if len(out.Grids) != 2 {
		t.Fatalf("expected 2 grids (template + verbatim copy), got %d", len(out.Grids))
	}
	var carrier *model.Paragraph
	for _, p := range out.Paragraphs {
		if p.Source == "notes.hwpx" && p.HasTable() {
			carrier = p
		}
	}
	if carrier == nil {
		t.Fatal("expected the unmatched table paragraph to survive")
	}
	if len(carrier.Tables) != 1 || carrier.Tables[0] != 1 {
		t.Errorf("expected remapped table index [1], got %v", carrier.Tables)
	}
	if got := out.Grids[1].CellAt(0, 0).Text; got != "메모" {
		t.Errorf("expected copied cell text %q, got %q", "메모", got)
	}
}

func TestRouteGridPrefersMostSharedFields(t *testing.T) {
	g1 := model.NewGrid(1, 1)
	g1.PlaceCell(&model.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, FieldName: "input_a"})

	g2 := model.NewGrid(1, 2)
	g2.PlaceCell(&model.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, FieldName: "input_a"})
	g2.PlaceCell(&model.Cell{Row: 0, Col: 1, RowSpan: 1, ColSpan: 1, FieldName: "input_b"})

	add := model.NewGrid(1, 2)
	add.PlaceCell(&model.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, FieldName: "input_a"})
	add.PlaceCell(&model.Cell{Row: 0, Col: 1, RowSpan: 1, ColSpan: 1, FieldName: "input_b"})

	if got := routeGrid([]*model.Grid{g1, g2}, add); got != 1 {
		t.Errorf("expected route to grid 1, got %d", got)
	}
}

func TestRouteGridTieBreaksToLowestIndex(t *testing.T) {
	mk := func() *model.Grid {
		g := model.NewGrid(1, 1)
		g.PlaceCell(&model.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, FieldName: "input_a"})
		return g
	}
	add := mk()
	if got := routeGrid([]*model.Grid{mk(), mk()}, add); got != 0 {
		t.Errorf("expected tie to route to grid 0, got %d", got)
	}
}

func TestRouteGridNoSharedFields(t *testing.T) {
	g := model.NewGrid(1, 1)
	g.PlaceCell(&model.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, FieldName: "input_a"})
	add := model.NewGrid(1, 1)
	add.PlaceCell(&model.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, FieldName: "data_z"})

	if got := routeGrid([]*model.Grid{g}, add); got != -1 {
		t.Errorf("expected -1 for no shared fields, got %d", got)
	}
}

func TestExcludeRemovesSection(t *testing.T) {
	tmpl := templateDoc()
	add := additionDoc("week1.hwpx", "A", "X")

	out, _, err := FromDocuments(tmpl, add).Exclude("2.").Merge()
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	for _, p := range out.Paragraphs {
		if strings.HasPrefix(p.Text, "2.") || p.Text == "부록 본문" {
			t.Errorf("expected section 2 to be excluded, found %q", p.Text)
		}
	}
}

func TestWithOptionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merge.yaml")
	content := "exclusions:\n  - \"2.\"\nseparator: \"; \"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing options file: %v", err)
	}

	m := FromDocuments(templateDoc(), additionDoc("week1.hwpx", "A", "X")).WithOptionsFile(path)
	if m.options.separator != "; " {
		t.Errorf("expected separator %q, got %q", "; ", m.options.separator)
	}

	out, _, err := m.Merge()
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	for _, p := range out.Paragraphs {
		if p.Text == "부록 본문" {
			t.Error("expected section 2 body to be excluded via options file")
		}
	}
}

func TestWithOptionsFileMissing(t *testing.T) {
	_, _, err := FromDocuments(templateDoc()).WithOptionsFile("/nonexistent/merge.yaml").Merge()
	if err == nil {
		t.Error("expected error for missing options file")
	}
}

func TestConfigMethodsDoNotMutateReceiver(t *testing.T) {
	base := FromDocuments(templateDoc())
	derived := base.Exclude("2.").Separator("|")

	if len(base.options.exclusions) != 0 {
		t.Errorf("expected base exclusions untouched, got %v", base.options.exclusions)
	}
	if base.options.separator != " " {
		t.Errorf("expected base separator unchanged, got %q", base.options.separator)
	}
	if len(derived.options.exclusions) != 1 || derived.options.separator != "|" {
		t.Errorf("unexpected derived options: %+v", derived.options)
	}
}

func TestMergeNoInputs(t *testing.T) {
	if _, _, err := FromDocuments().Merge(); err == nil {
		t.Error("expected error for empty input set")
	}
}

func TestLoadDocumentUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if _, err := loadDocument(path); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestAttachmentDedup(t *testing.T) {
	tmpl := templateDoc()
	tmpl.Attachments = append(tmpl.Attachments, &model.Attachment{
		ID: "1", Name: "BinData/image1.png", MediaType: "image/png", Data: []byte("shared-bytes"),
	})
	tmpl.Paragraphs[1].Images = []string{"1"}

	add := additionDoc("week1.hwpx", "A", "X")
	add.Attachments = append(add.Attachments,
		&model.Attachment{ID: "1", Name: "BinData/image1.png", MediaType: "image/png", Data: []byte("shared-bytes")},
		&model.Attachment{ID: "2", Name: "BinData/image2.jpg", MediaType: "image/jpeg", Data: []byte("unique-bytes")},
	)
	add.Paragraphs[1].Images = []string{"1", "2"}

	out, _, err := FromDocuments(tmpl, add).Merge()
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if len(out.Attachments) != 2 {
		t.Fatalf("expected 2 attachments after dedup, got %d", len(out.Attachments))
	}
	if out.Attachments[0].ID != "1" || out.Attachments[1].ID != "2" {
		t.Errorf("expected renumbered ids [1 2], got [%s %s]", out.Attachments[0].ID, out.Attachments[1].ID)
	}
	if out.Attachments[1].Name != "BinData/image2.jpg" {
		t.Errorf("expected second attachment name BinData/image2.jpg, got %s", out.Attachments[1].Name)
	}

	var mergedImages []string
	for _, p := range out.Paragraphs {
		if p.Source == "week1.hwpx" && p.HasImage() {
			mergedImages = p.Images
		}
	}
	if len(mergedImages) != 2 || mergedImages[0] != "1" || mergedImages[1] != "2" {
		t.Errorf("expected remapped image refs [1 2], got %v", mergedImages)
	}
}

func TestMergeConcatenatesFreeText(t *testing.T) {
	tmpl := model.NewDocument("template.hwpx")
	g := model.NewGrid(1, 1)
	g.PlaceCell(&model.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, FieldName: "add_notes"})
	gi := tmpl.AddGrid(g)
	tmpl.AddParagraph(&model.Paragraph{IsHeading: true, Level: 0, Text: "1. 비고", StyleID: "7"})
	tmpl.AddParagraph(&model.Paragraph{Tables: []int{gi}})

	mk := func(source, text string) *model.Document {
		d := model.NewDocument(source)
		ag := model.NewGrid(1, 1)
		ag.PlaceCell(&model.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, Text: text, FieldName: "add_notes"})
		agi := d.AddGrid(ag)
		d.AddParagraph(&model.Paragraph{IsHeading: true, Level: 0, Text: "1. 비고", StyleID: "3"})
		d.AddParagraph(&model.Paragraph{Tables: []int{agi}})
		return d
	}

	out, _, err := FromDocuments(tmpl, mk("a.hwpx", "첫째"), mk("b.hwpx", "둘째")).Separator("; ").Merge()
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if got := out.Grids[0].CellAt(0, 0).Text; got != "첫째; 둘째" {
		t.Errorf("expected concatenated text %q, got %q", "첫째; 둘째", got)
	}
}

func TestMustMergePanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustMerge(FromDocuments().Merge())
}

func TestMustPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Must(loadOptionsFile("/nonexistent/merge.yaml"))
}
