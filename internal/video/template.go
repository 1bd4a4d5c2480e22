// internal/video/template.go
package video

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultTemplate is the file name used when none is configured.
const DefaultTemplate = "{title} - {publishDate} {uniqueId}"

// placeholder matches {field} and {field:N}. N pads integers with zeros.
var placeholder = regexp.MustCompile(`\{(\w+)(?::(\d+))?\}`)

// applyTemplate expands placeholders from fields. Unknown fields stay literal
// so a typo in the template shows up in the file name.
func applyTemplate(tmpl string, fields map[string]any) string {
	var out []byte
	last := 0
	for _, m := range placeholder.FindAllStringSubmatchIndex(tmpl, -1) {
		out = append(out, tmpl[last:m[0]]...)
		last = m[1]

		val, ok := fields[tmpl[m[2]:m[3]]]
		if !ok {
			out = append(out, tmpl[m[0]:m[1]]...)
			continue
		}
		width := 0
		if m[4] >= 0 {
			width, _ = strconv.Atoi(tmpl[m[4]:m[5]])
		}
		out = append(out, render(val, width)...)
	}
	return string(append(out, tmpl[last:]...))
}

func render(val any, width int) string {
	switch v := val.(type) {
	case int:
		return fmt.Sprintf("%0*d", width, v)
	case int64:
		return fmt.Sprintf("%0*d", width, v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
