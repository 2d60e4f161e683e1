package transform

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// dateLayouts are tried in order when a filed date is not already ISO.
var dateLayouts = []string{
	isoDate,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"20060102",
	"2006/01/02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	isoDate,
}

// NormalizeDate reformats a filed date to ISO YYYY-MM-DD. Already-ISO input
// passes through untouched. Unparsable input is retained verbatim and
// reported via ok=false; it is never silently dropped.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if isoDateRe.MatchString(s) {
		return s, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDate), true
		}
	}
	return s, false
}

// NormalizeTimestamp reformats a filed timestamp to full ISO-8601.
// Unparsable input defaults to now, a documented lossy fallback; callers must
// surface ok=false as a data-quality signal.
func NormalizeTimestamp(s string, now time.Time) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339), true
		}
	}
	return now.UTC().Format(time.RFC3339), false
}

var amountCleanRe = regexp.MustCompile(`[\s\x{00a0}_]`)

// ParseAmount turns heterogeneous monetary text into a finite float64.
// It accepts bare numbers, thousands separators in either locale convention
// ("1,234,567.89" and "1.234.567,89"), and a leading parenthesized negative.
// Anything else resolves to 0 with ok=false; the result is always finite.
func ParseAmount(s string) (float64, bool) {
	s = amountCleanRe.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = normalizeSeparators(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// normalizeSeparators reduces localized digit grouping to plain decimal
// notation. When both separators appear, the rightmost one is the decimal
// point. A lone comma is a decimal point unless it groups exactly three
// trailing digits alongside others, in which case it is grouping.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// NormalizeEnum validates a value against a closed set, falling back to the
// given conservative default. Matching ignores case and surrounding space.
func NormalizeEnum(value string, set map[string]bool, fallback string) (string, bool) {
	v := strings.ToUpper(strings.TrimSpace(value))
	if set[v] {
		return v, true
	}
	return fallback, false
}
