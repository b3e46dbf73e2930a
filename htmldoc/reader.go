// Package htmldoc parses HTML files into the document model, so plain HTML
// content can participate in a merge as an addition document. Headings h1-h6
// become outline levels 0-5, and tables with rowspan/colspan/bgcolor map
// onto the grid model. A cell's field name is taken from its data-field
// attribute.
package htmldoc

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/hanmerge/model"
)

// Open parses an HTML file into a document.
func Open(filename string) (*model.Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return Read(f, filename)
}

// Read parses HTML from a reader. The source label is recorded on the
// document.
func Read(r io.Reader, source string) (*model.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	doc := model.NewDocument(source)
	body := findElement(root, "body")
	if body == nil {
		body = root
	}
	walk(body, doc)
	return doc, nil
}

func walk(n *html.Node, doc *model.Document) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(c.Data[1] - '1')
			doc.AddParagraph(&model.Paragraph{
				IsHeading: true,
				Level:     level,
				Text:      textContent(c),
			})
		case "p", "li", "blockquote", "pre":
			text := textContent(c)
			if strings.TrimSpace(text) == "" {
				continue
			}
			doc.AddParagraph(&model.Paragraph{Level: -1, Text: text})
		case "table":
			grid, err := parseTable(c)
			if err != nil || grid == nil {
				continue
			}
			idx := doc.AddGrid(grid)
			doc.AddParagraph(&model.Paragraph{Level: -1, Tables: []int{idx}})
		default:
			walk(c, doc)
		}
	}
}

// parseTable converts a <table> into a grid. Cells already covered by an
// earlier rowspan/colspan push later cells in the same row to the right,
// following the HTML table layout algorithm.
func parseTable(table *html.Node) (*model.Grid, error) {
	var cells []*model.Cell
	taken := make(map[[2]int]bool)

	row := 0
	var visitRows func(n *html.Node)
	visitRows = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data != "tr" {
				visitRows(c)
				continue
			}
			col := 0
			for td := c.FirstChild; td != nil; td = td.NextSibling {
				if td.Type != html.ElementNode || (td.Data != "td" && td.Data != "th") {
					continue
				}
				for taken[[2]int{row, col}] {
					col++
				}
				cell := &model.Cell{
					Row:        row,
					Col:        col,
					RowSpan:    intAttr(td, "rowspan", 1),
					ColSpan:    intAttr(td, "colspan", 1),
					Text:       textContent(td),
					FieldName:  attr(td, "data-field"),
					Background: attr(td, "bgcolor"),
				}
				for r := cell.Row; r <= cell.EndRow(); r++ {
					for cc := cell.Col; cc <= cell.EndCol(); cc++ {
						taken[[2]int{r, cc}] = true
					}
				}
				cells = append(cells, cell)
				col = cell.EndCol() + 1
			}
			row++
		}
	}
	visitRows(table)

	if len(cells) == 0 {
		return nil, nil
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
			return nil, fmt.Errorf("table cell layout: %w", err)
		}
	}
	return grid, nil
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.TrimSpace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func intAttr(n *html.Node, key string, def int) int {
	v := attr(n, key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 1 {
		return def
	}
	return i
}
