package notes

import "strings"

// NormalizeColor canonicalizes a color value to uppercase "#RRGGBB" form.
// An empty value falls back to fallback. Lookups against the color table are
// always done on the normalized form, so "#f7eb96" and "#F7EB96" resolve to
// the same row.
func NormalizeColor(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	if value != "" && !strings.HasPrefix(value, "#") {
		value = "#" + value
	}
	return strings.ToUpper(value)
}
