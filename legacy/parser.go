/*
Package legacy parses the legacy absence export.

PURPOSE:
  The legacy export's structure is not reliable: depending on how it was
  produced it may be a real spreadsheet, an HTML table saved with an .xls
  extension, or a plain-text dump. Parse tries three strategies in order and
  stops at the first that yields a parseable table:

    1. Spreadsheet: open with excelize, flatten each row's cells
    2. Embedded markup: extract the first <table> and use its cells
    3. Free text: scan each line for date and numeric tokens

FIELD EXTRACTION (shared by all three tiers):
  A row qualifies only if it has at least two DD.MM.YYYY dates and at least
  two 6-15 digit numbers. The first number is the internal payroll number;
  of the remaining numbers, excluding any equal to the payroll number, the
  longest (first on ties) is the person's ID - payroll numbers are short and
  fixed-width, national IDs longer. The first two dates are the absence
  start and end. Rows that do not qualify are skipped silently; the source
  is too unreliable for row failures to mean anything. An empty result is a
  valid outcome, not an error.

KNOWN LIMITATIONS:
  - "Longest remaining number" is a best-effort disambiguation. There is no
    check digit or length validation to confirm the token really is the
    person's ID.
  - Tier 1 opens XLSX only. A genuine binary .xls payload falls through to
    the markup and text tiers, which recover the usual exports (HTML tables
    or text dumps saved with an .xls extension) but not a real BIFF workbook.
*/
package legacy

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"github.com/warp/absence-audit/engine"
)

// Record is one absence extracted from the export: the person's normalized
// ID, the inclusive date range, and the internal payroll number the row was
// keyed by.
type Record struct {
	ID      string
	Payroll string
	Start   engine.Day
	End     engine.Day
}

// Intervals converts parsed records to the engine's interval shape.
func Intervals(records []Record) []engine.IntervalRecord {
	out := make([]engine.IntervalRecord, len(records))
	for i, r := range records {
		start, end := r.Start, r.End
		out[i] = engine.IntervalRecord{ID: r.ID, Start: &start, End: &end}
	}
	return out
}

// Parse extracts absence records from the export payload, whatever its
// actual format turns out to be.
func Parse(data []byte) []Record {
	if records, ok := parseSpreadsheet(data); ok {
		return records
	}

	text := decodeText(data)
	if strings.Contains(strings.ToLower(text), "<table") {
		if records, ok := parseMarkup(text); ok {
			return records
		}
	}

	return parseTextLines(text)
}

// =============================================================================
// TIER 1: SPREADSHEET
// =============================================================================

func parseSpreadsheet(data []byte) ([]Record, bool) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, false
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, false
	}

	var records []Record
	for _, row := range rows {
		if r, ok := extractRow(row); ok {
			records = append(records, r)
		}
	}
	return records, true
}

// =============================================================================
// TIER 2: EMBEDDED MARKUP TABLE
// =============================================================================

// parseMarkup extracts the first <table> from an HTML payload and feeds its
// rows through the same extraction as the spreadsheet tier.
func parseMarkup(text string) ([]Record, bool) {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, false
	}
	table := findFirst(doc, "table")
	if table == nil {
		return nil, false
	}

	var records []Record
	walk(table, "tr", func(tr *html.Node) {
		var cells []string
		walk(tr, "td", func(td *html.Node) { cells = append(cells, nodeText(td)) })
		walk(tr, "th", func(th *html.Node) { cells = append(cells, nodeText(th)) })
		if r, ok := extractRow(cells); ok {
			records = append(records, r)
		}
	})
	return records, true
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func walk(n *html.Node, tag string, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			fn(c)
			continue
		}
		walk(c, tag, fn)
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(b.String())
}

// =============================================================================
// TIER 3: FREE TEXT
// =============================================================================

var (
	dateTokenRe = regexp.MustCompile(`\b\d{2}\.\d{2}\.\d{4}\b`)
	numTokenRe  = regexp.MustCompile(`\b\d{6,15}\b`)
)

func parseTextLines(text string) []Record {
	var records []Record
	for _, line := range strings.Split(text, "\n") {
		tokens := rowTokens{
			dates:   dateTokenRe.FindAllString(line, -1),
			numbers: numTokenRe.FindAllString(line, -1),
		}
		if r, ok := tokens.promote(); ok {
			records = append(records, r)
		}
	}
	return records
}

// decodeText decodes the payload as UTF-8, falling back to Latin-1 when the
// bytes are not valid UTF-8.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// =============================================================================
// SHARED ROW EXTRACTION
// =============================================================================

var (
	dateCellRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	numCellRe  = regexp.MustCompile(`^\d{6,15}$`)
)

// rowTokens is the tagged intermediate record all three tiers reduce to: the
// date-like and numeric tokens found in one row, validated once in promote.
type rowTokens struct {
	dates   []string
	numbers []string
}

// extractRow tokenizes a row of cells and promotes it. Cells are joined and
// re-split so multi-token cells behave the same as the free-text tier.
func extractRow(cells []string) (Record, bool) {
	var tokens rowTokens
	for _, cell := range cells {
		for _, part := range strings.Fields(cell) {
			switch {
			case dateCellRe.MatchString(part):
				tokens.dates = append(tokens.dates, part)
			case numCellRe.MatchString(part):
				tokens.numbers = append(tokens.numbers, part)
			}
		}
	}
	return tokens.promote()
}

// promote validates the tokens and produces a typed record, or rejects the
// row.
func (t rowTokens) promote() (Record, bool) {
	if len(t.dates) < 2 || len(t.numbers) < 2 {
		return Record{}, false
	}

	payroll := t.numbers[0]
	var id string
	for _, n := range t.numbers[1:] {
		if n == payroll {
			continue
		}
		if len(n) > len(id) {
			id = n
		}
	}
	if id == "" {
		return Record{}, false
	}

	start := engine.ParseDay(t.dates[0])
	end := engine.ParseDay(t.dates[1])
	if start == nil || end == nil {
		return Record{}, false
	}

	return Record{
		ID:      engine.NormalizeID(id),
		Payroll: payroll,
		Start:   *start,
		End:     *end,
	}, true
}
