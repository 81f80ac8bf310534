package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
)

var (
	districtAliases = []string{"District", "district_name", "dist", "zilla"}
	blockAliases    = []string{"Block", "block_name", "cd_block", "tehsil"}
	kindAliases     = []string{"Kind", "type", "category", "list"}
	nameAliases     = []string{"Name", "value", "item"}
	labelAliases    = []string{"Label", "display", "title"}
)

func normHeader(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// header maps normalized column names to positions.
type header map[string]int

func newHeader(row []string) header {
	h := header{}
	for i, c := range row {
		if _, dup := h[normHeader(c)]; !dup {
			h[normHeader(c)] = i
		}
	}
	return h
}

func (h header) find(aliases ...string) int {
	for _, a := range aliases {
		if i, ok := h[normHeader(a)]; ok {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// blockRows folds District/Block rows into a dataset. An empty district cell
// continues the previous district, as in merged-cell exports.
func blockRows(rows [][]string) (Dataset, error) {
	if len(rows) == 0 {
		return Dataset{}, ErrEmptyImport
	}
	h := newHeader(rows[0])
	cd, cb := h.find(districtAliases...), h.find(blockAliases...)
	if cd == -1 || cb == -1 {
		return Dataset{}, fmt.Errorf("missing District/Block columns, found headers: %v", rows[0])
	}
	var ds Dataset
	pos := map[string]int{}
	cur := ""
	for _, row := range rows[1:] {
		if d := cell(row, cd); d != "" {
			cur = d
		}
		b := cell(row, cb)
		if cur == "" || b == "" {
			continue
		}
		i, ok := pos[cur]
		if !ok {
			i = len(ds.Districts)
			pos[cur] = i
			ds.Districts = append(ds.Districts, DistrictBlocks{Name: cur})
		}
		ds.Districts[i].Blocks = append(ds.Districts[i].Blocks, b)
	}
	if len(ds.Districts) == 0 {
		return Dataset{}, ErrEmptyImport
	}
	return ds, ds.Normalize()
}

// ParseBlocksCSV reads a District,Block CSV export. Header names are matched
// loosely (case, spaces, dashes and underscores are ignored).
func ParseBlocksCSV(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return blockRows(rows)
}

// ParseBlocksHTML scans every table in the page and keeps those with
// District and Block columns.
func ParseBlocksHTML(r io.Reader) (Dataset, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("parse html: %w", err)
	}
	var merged Dataset
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		var rows [][]string
		t.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var row []string
			tr.Find("th,td").Each(func(_ int, c *goquery.Selection) {
				row = append(row, strings.Join(strings.Fields(c.Text()), " "))
			})
			if len(row) > 0 {
				rows = append(rows, row)
			}
		})
		ds, err := blockRows(rows)
		if err != nil {
			return
		}
		merged.Districts = append(merged.Districts, ds.Districts...)
	})
	if len(merged.Districts) == 0 {
		return Dataset{}, ErrEmptyImport
	}
	return merged, merged.Normalize()
}

// ParseWorkbook reads a workbook with a "Blocks" sheet (District, Block) and
// an optional "Items" sheet (Kind, Name, Label). Without a "Blocks" sheet the
// first sheet is read as blocks.
func ParseWorkbook(r io.Reader) (Dataset, error) {
	x, err := excelize.OpenReader(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("open workbook: %w", err)
	}
	defer x.Close()

	sheets := x.GetSheetList()
	if len(sheets) == 0 {
		return Dataset{}, ErrEmptyImport
	}
	blocksSheet, itemsSheet := sheets[0], ""
	for _, s := range sheets {
		switch normHeader(s) {
		case "blocks":
			blocksSheet = s
		case "items":
			itemsSheet = s
		}
	}

	var ds Dataset
	if blocksSheet != itemsSheet {
		rows, err := x.GetRows(blocksSheet)
		if err != nil {
			return Dataset{}, fmt.Errorf("read sheet %s: %w", blocksSheet, err)
		}
		if len(rows) > 0 {
			if ds, err = blockRows(rows); err != nil && !errors.Is(err, ErrEmptyImport) {
				return Dataset{}, fmt.Errorf("sheet %s: %w", blocksSheet, err)
			}
		}
	}
	if itemsSheet != "" {
		rows, err := x.GetRows(itemsSheet)
		if err != nil {
			return Dataset{}, fmt.Errorf("read sheet %s: %w", itemsSheet, err)
		}
		items, err := itemRows(rows)
		if err != nil {
			return Dataset{}, fmt.Errorf("sheet %s: %w", itemsSheet, err)
		}
		ds.Items = items
	}
	if err := ds.Normalize(); err != nil {
		return Dataset{}, err
	}
	if ds.Empty() {
		return Dataset{}, ErrEmptyImport
	}
	return ds, nil
}

func itemRows(rows [][]string) (map[string][]Item, error) {
	out := map[string][]Item{}
	if len(rows) == 0 {
		return out, nil
	}
	h := newHeader(rows[0])
	ck, cn, cl := h.find(kindAliases...), h.find(nameAliases...), h.find(labelAliases...)
	if ck == -1 || cn == -1 {
		return nil, fmt.Errorf("missing Kind/Name columns, found headers: %v", rows[0])
	}
	for _, row := range rows[1:] {
		if cell(row, ck) == "" || cell(row, cn) == "" {
			continue
		}
		kind, err := ParseKind(cell(row, ck))
		if err != nil {
			return nil, err
		}
		out[kind] = append(out[kind], Item{Name: cell(row, cn), Label: cell(row, cl)})
	}
	return out, nil
}
