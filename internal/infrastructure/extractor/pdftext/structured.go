package pdftext

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Structured parses the document with ledongthuc/pdf and rebuilds lines from positioned glyphs.
type Structured struct{}

func (Structured) Extract(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	pages = reader.NumPage()
	pageTexts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText := strings.TrimSpace(layoutGlyphs(page.Content().Text))
		if pageText == "" {
			// Some content streams yield no positioned glyphs; the plain walk still reads them.
			plain, plainErr := page.GetPlainText(nil)
			if plainErr != nil {
				continue
			}
			pageText = strings.TrimSpace(plain)
		}
		if pageText != "" {
			pageTexts = append(pageTexts, pageText)
		}
	}
	return strings.Join(pageTexts, "\n\n"), pages, nil
}

// layoutGlyphs groups single-glyph runs into lines top to bottom, left to right.
// A horizontal gap wider than a fraction of the font size becomes a space.
func layoutGlyphs(glyphs []pdf.Text) string {
	if len(glyphs) == 0 {
		return ""
	}
	ordered := append([]pdf.Text(nil), glyphs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Y > ordered[j].Y })

	var lines [][]pdf.Text
	for _, g := range ordered {
		if n := len(lines); n > 0 && sameLine(lines[n-1][0], g) {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []pdf.Text{g})
	}

	var b strings.Builder
	for i, line := range lines {
		sort.SliceStable(line, func(a, c int) bool { return line[a].X < line[c].X })
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, g := range line {
			if j > 0 && needsSpace(line[j-1], g) {
				b.WriteByte(' ')
			}
			b.WriteString(g.S)
		}
	}
	return b.String()
}

func sameLine(a, b pdf.Text) bool {
	tolerance := math.Max(a.FontSize, b.FontSize) / 2
	if tolerance <= 0 {
		tolerance = 1
	}
	return math.Abs(a.Y-b.Y) < tolerance
}

func needsSpace(prev, next pdf.Text) bool {
	if strings.HasSuffix(prev.S, " ") || strings.HasPrefix(next.S, " ") {
		return false
	}
	size := math.Max(prev.FontSize, next.FontSize)
	if size <= 0 || prev.W <= 0 {
		return false
	}
	return next.X-(prev.X+prev.W) > size*0.15
}
