package settings

import "strings"

// Expand turns a raw parameter field into its list of values. A field of the
// form {{a|b|c}} yields each trimmed, non-empty piece; anything else yields
// the trimmed field itself. {{}} yields an empty list.
func Expand(raw string) []string {
	field := strings.TrimSpace(raw)
	if len(field) < 4 || !strings.HasPrefix(field, "{{") || !strings.HasSuffix(field, "}}") {
		return []string{field}
	}

	pieces := strings.Split(field[2:len(field)-2], "|")
	out := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if piece = strings.TrimSpace(piece); piece != "" {
			out = append(out, piece)
		}
	}
	return out
}
