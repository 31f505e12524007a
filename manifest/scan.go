package manifest

import (
	"strings"
)

// Scan splits manifest text into lines, keeping blank and comment lines so
// that lookups by index stay aligned with the file.
func Scan(text string) []Line {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	lines := make([]Line, 0, len(raw))
	for i, r := range raw {
		lines = append(lines, Line{
			Index:   i + 1,
			Raw:     r,
			Trimmed: strings.TrimSpace(r),
			Indent:  len(r) - len(strings.TrimLeft(r, " \t")),
		})
	}
	return lines
}
