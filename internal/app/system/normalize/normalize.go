// internal/app/system/normalize/normalize.go
package normalize

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every tag; free-text fields are stored as plain text.
var strict = bluemonday.StrictPolicy()

// Name trims and collapses internal whitespace. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Note returns free text (attendance reason, salary description) with any
// markup removed and whitespace trimmed. Entities that the sanitizer escapes
// are turned back into characters so "A & B" round-trips unchanged.
func Note(s string) string {
	clean := strict.Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(clean))
}

// Email lowercases and trims.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// MonthRange turns "YYYY-MM" into the first and last day of that month as
// YYYY-MM-DD strings. Attendance dates are stored in that form, so the pair
// works directly as an inclusive string range filter.
func MonthRange(month string) (first, last string, ok bool) {
	t, err := time.Parse("2006-01", strings.TrimSpace(month))
	if err != nil {
		return "", "", false
	}
	end := t.AddDate(0, 1, -1)
	return t.Format(time.DateOnly), end.Format(time.DateOnly), true
}

// DaysInMonth lists every date of a "YYYY-MM" month as YYYY-MM-DD.
func DaysInMonth(month string) []string {
	t, err := time.Parse("2006-01", strings.TrimSpace(month))
	if err != nil {
		return nil
	}
	var out []string
	for d := t; d.Month() == t.Month(); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(time.DateOnly))
	}
	return out
}

// Date parses YYYY-MM-DD into a UTC midnight time.
func Date(s string) (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
