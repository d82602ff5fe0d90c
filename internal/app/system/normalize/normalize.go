// Package normalize provides helper functions for consistent string normalization
// across the application. Use these helpers instead of scattered strings.ToLower
// and strings.TrimSpace calls so stored values and lookups always agree.
package normalize

import (
	"strings"
	"unicode"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email normalizes an email address by trimming whitespace and converting to lowercase.
// Duplicate detection for subscribers and registrations keys on this value.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person's name and collapses internal runs of whitespace.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Status normalizes a status value by trimming whitespace and converting to lowercase.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role normalizes a role value by trimming whitespace and converting to lowercase.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam normalizes a query parameter by trimming whitespace.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Slug turns a title into a URL slug: folded to ASCII lowercase, with every
// run of non-alphanumeric characters replaced by a single hyphen.
//
//	Slug("Spring Food Drive 2026!") == "spring-food-drive-2026"
func Slug(s string) string {
	folded := text.Fold(s)
	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// Lines splits a textarea value into trimmed, non-empty lines.
func Lines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Columns splits one line on "|" and trims each column. The result always
// has n entries; missing columns are empty and extra columns are joined into
// the last one.
func Columns(line string, n int) []string {
	parts := strings.SplitN(line, "|", n)
	out := make([]string, n)
	for i := range out {
		if i < len(parts) {
			out[i] = strings.TrimSpace(parts[i])
		}
	}
	return out
}

// CSVCell makes a visitor-entered value safe to open in a spreadsheet. A
// leading character that starts a formula is escaped with a quote.
func CSVCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// CSVRow applies CSVCell to every value.
func CSVRow(values ...string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = CSVCell(v)
	}
	return out
}
