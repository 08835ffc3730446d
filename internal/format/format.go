// Package format renders portal values the way students expect to read them:
// soles, day-first dates and two-decimal grades.
package format

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// Placeholder is shown for missing values.
const Placeholder = "-"

// Currency renders an amount in soles, e.g. "S/ 1,234.50".
func Currency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + "S/ " + humanize.FormatFloat("#,###.##", amount)
}

// Number renders an integer with thousands separators.
func Number(n int64) string {
	return humanize.Comma(n)
}

// Grade renders a grade with two decimals.
func Grade(g float64) string {
	return humanize.FormatFloat("####.##", g)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseDate accepts the date shapes the backend sends.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date renders a backend date as dd/mm/yyyy. Empty input renders the
// placeholder; unparseable input is returned unchanged.
func Date(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("02/01/2006")
}

// DateTime renders a backend timestamp as dd/mm/yyyy hh:mm.
func DateTime(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("02/01/2006 15:04")
}

// FullName joins the non-empty name parts with single spaces.
func FullName(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Truncate cuts text to max runes and appends "...".
func Truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "..."
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func Capitalize(text string) string {
	if text == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(text)
	return string(unicode.ToUpper(r)) + strings.ToLower(text[size:])
}

// Title capitalizes every word, for names stored in lower case.
func Title(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = Capitalize(w)
	}
	return strings.Join(words, " ")
}
