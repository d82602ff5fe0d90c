package formutil

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// DateTimeLayout matches an <input type="datetime-local"> value.
const DateTimeLayout = "2006-01-02T15:04"

// Location is the zone datetime-local inputs are read in.
var Location = time.Local

// ErrBadDateTime is returned for a value that is not a datetime-local.
var ErrBadDateTime = errors.New("invalid date and time")

// ErrBadNumber is returned for a value that is not a whole number >= 0.
var ErrBadNumber = errors.New("invalid number")

// ParseDateTime reads a datetime-local value. Blank returns nil.
func ParseDateTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateTimeLayout, s, Location)
	if err != nil {
		return nil, ErrBadDateTime
	}
	t = t.UTC()
	return &t, nil
}

// FormatDateTime writes t for a datetime-local input. nil gives "".
func FormatDateTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(Location).Format(DateTimeLayout)
}

// ParseOptionalInt reads a non-negative whole number. Blank returns nil.
func ParseOptionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, ErrBadNumber
	}
	return &n, nil
}

// FormatOptionalInt writes n for a number input. nil gives "".
func FormatOptionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// ParseImpact reads "value | label" lines into impact metrics. Lines
// without a label are skipped.
//
//	1,200 | meals served
//	45 | volunteers
func ParseImpact(text string) []models.ImpactMetric {
	var out []models.ImpactMetric
	for _, line := range normalize.Lines(text) {
		cols := normalize.Columns(line, 2)
		if cols[0] == "" || cols[1] == "" {
			continue
		}
		out = append(out, models.ImpactMetric{Value: cols[0], Label: cols[1]})
	}
	return out
}

// FormatImpact is the inverse of ParseImpact.
func FormatImpact(metrics []models.ImpactMetric) string {
	lines := make([]string, len(metrics))
	for i, m := range metrics {
		lines[i] = m.Value + " | " + m.Label
	}
	return strings.Join(lines, "\n")
}

// PageParam reads the 1-based ?page= value, defaulting to 1.
func PageParam(r *http.Request) int64 {
	if p := query.Get(r, "page"); p != "" {
		if n, err := strconv.ParseInt(p, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return 1
}
