package pdftext

import (
	"regexp"
	"strings"
)

// literalRun matches a PDF literal string of at least three characters.
// Escaped parentheses are allowed inside the run.
var literalRun = regexp.MustCompile(`\(((?:\\.|[^()\\]){3,})\)`)

var unescaper = strings.NewReplacer(
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\\`, `\`,
	`\(`, "(",
	`\)`, ")",
)

// ByteHeuristic recovers approximate text from literal string objects in raw PDF bytes.
// It is not OCR: image-only documents and compressed content streams yield nothing.
type ByteHeuristic struct{}

func (ByteHeuristic) Extract(data []byte) string {
	raw := latin1(data)

	matches := literalRun.FindAllStringSubmatch(raw, -1)
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		run := m[1]
		if hasControl(run) {
			continue
		}
		parts = append(parts, unescaper.Replace(run))
	}
	return strings.Join(parts, " ")
}

// latin1 maps each byte to the code point of the same value.
func latin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func hasControl(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}
