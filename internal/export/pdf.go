package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/phpdave11/gofpdf"
)

// DefaultFontPath is tried when no font is configured. DejaVu Sans carries
// Hebrew glyphs.
const DefaultFontPath = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"

// PDFOptions controls PDF rendering.
type PDFOptions struct {
	Title       string
	FontPath    string
	GeneratedAt time.Time
}

var columnWidths = []float64{10, 30, 22, 18, 18, 14, 16, 16, 20, 20, 16, 35, 42}

const (
	margin  = 10.0
	rowH    = 6.0
	headerH = 7.0
)

// WritePDF renders the export table on landscape A4 pages. With a UTF-8 font
// the table is laid out right to left; without one, non-ASCII text is
// replaced by '?' so that the document is still produced.
func WritePDF(w io.Writer, rows [][]string, opts PDFOptions) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle(opts.Title, true)

	family, utf8OK := initFont(pdf, opts.FontPath)
	tw := tableWriter{pdf: pdf, family: family, utf8OK: utf8OK}

	pdf.AddPage()
	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(0, 8, tw.text(opts.Title), "", 1, tw.align(), false, 0, "")
	if !opts.GeneratedAt.IsZero() {
		pdf.SetFont(family, "", 9)
		pdf.SetTextColor(90, 90, 90)
		pdf.CellFormat(0, 5, opts.GeneratedAt.Format("2006-01-02 15:04"), "", 1, tw.align(), false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(2)

	tw.header()
	_, pageH := pdf.GetPageSize()
	for _, row := range rows {
		if pdf.GetY()+rowH > pageH-margin {
			pdf.AddPage()
			tw.header()
		}
		tw.row(row, false)
	}

	if pdf.Err() {
		return fmt.Errorf("render pdf: %w", pdf.Error())
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type tableWriter struct {
	pdf    *gofpdf.Fpdf
	family string
	utf8OK bool
}

func (t tableWriter) header() {
	t.pdf.SetFont(t.family, "B", 9)
	t.pdf.SetFillColor(230, 230, 230)
	t.row(Headers, true)
	t.pdf.SetFont(t.family, "", 9)
}

func (t tableWriter) row(cells []string, fill bool) {
	h := rowH
	if fill {
		h = headerH
	}
	n := len(columnWidths)
	for i := 0; i < n; i++ {
		col := i
		if t.utf8OK {
			col = n - 1 - i
		}
		cell := ""
		if col < len(cells) {
			cell = cells[col]
		}
		width := columnWidths[col]
		t.pdf.CellFormat(width, h, t.fit(t.text(cell), width-1), "1", 0, "C", fill, 0, "")
	}
	t.pdf.Ln(-1)
}

func (t tableWriter) align() string {
	if t.utf8OK {
		return "R"
	}
	return "L"
}

func (t tableWriter) text(s string) string {
	s = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(s))
	if t.utf8OK {
		return visualOrder(s)
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 32 && r <= 126 {
			b.WriteRune(r)
		} else {
			b.WriteRune('?')
		}
	}
	return b.String()
}

// fit trims s until it fits in width millimetres.
func (t tableWriter) fit(s string, width float64) string {
	runes := []rune(s)
	for len(runes) > 0 && t.pdf.GetStringWidth(string(runes)) > width {
		if t.utf8OK {
			// Visual order: the logical end of the text is on the left.
			runes = runes[1:]
		} else {
			runes = runes[:len(runes)-1]
		}
	}
	return string(runes)
}

func initFont(pdf *gofpdf.Fpdf, configured string) (family string, utf8OK bool) {
	const familyName = "unicode"
	for _, p := range []string{strings.TrimSpace(configured), DefaultFontPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		pdf.AddUTF8Font(familyName, "", p)
		if pdf.Err() {
			pdf.ClearError()
			continue
		}
		pdf.AddUTF8Font(familyName, "B", p)
		if pdf.Err() {
			pdf.ClearError()
		}
		return familyName, true
	}
	return "Helvetica", false
}

// visualOrder reorders a right-to-left paragraph for a renderer that only
// draws left to right. Runs of Latin letters and digits keep their order;
// everything else is mirrored.
func visualOrder(s string) string {
	runes := []rune(s)
	if !containsRTL(runes) {
		return s
	}

	type run struct {
		ltr   bool
		runes []rune
	}
	var runs []run
	for i, r := range runes {
		ltr := isLTR(r)
		if !ltr && !isRTL(r) {
			// Neutrals stay inside a left-to-right run only when it continues.
			ltr = i > 0 && isLTR(runes[i-1]) && nextStrongLTR(runes[i+1:])
		}
		if len(runs) > 0 && runs[len(runs)-1].ltr == ltr {
			runs[len(runs)-1].runes = append(runs[len(runs)-1].runes, r)
			continue
		}
		runs = append(runs, run{ltr: ltr, runes: []rune{r}})
	}

	out := make([]rune, 0, len(runes))
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].ltr {
			out = append(out, runs[i].runes...)
			continue
		}
		for j := len(runs[i].runes) - 1; j >= 0; j-- {
			out = append(out, mirror(runs[i].runes[j]))
		}
	}
	return string(out)
}

func isRTL(r rune) bool {
	return unicode.Is(unicode.Hebrew, r) || unicode.Is(unicode.Arabic, r)
}

func isLTR(r rune) bool {
	return (unicode.IsLetter(r) || unicode.IsDigit(r)) && !isRTL(r)
}

func containsRTL(runes []rune) bool {
	for _, r := range runes {
		if isRTL(r) {
			return true
		}
	}
	return false
}

func nextStrongLTR(runes []rune) bool {
	for _, r := range runes {
		if isLTR(r) {
			return true
		}
		if isRTL(r) {
			return false
		}
	}
	return false
}

func mirror(r rune) rune {
	switch r {
	case '(':
		return ')'
	case ')':
		return '('
	case '[':
		return ']'
	case ']':
		return '['
	case '<':
		return '>'
	case '>':
		return '<'
	}
	return r
}
