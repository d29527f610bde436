package parsers

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/riconcilia/src/models"
)

var (
	digitRun       = regexp.MustCompile(`\d+`)
	amountNoise    = strings.NewReplacer("€", "", "EUR", "", "eur", "", " ", "", "\u00a0", "", "'", "", "\"", "")
	excelEpoch     = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	dayFirstDates  = []string{"2/1/2006", "2-1-2006", "2.1.2006", "2/1/06", "2-1-06", "2.1.06"}
	monthFirstDate = []string{"1/2/2006", "1-2-2006", "1/2/06", "1-2-06"}
	isoDates       = []string{"2006-01-02", "2006/01/02", "20060102"}
)

// ParseAmount parses a monetary cell written either the Italian way ("1.234,56")
// or the plain way ("1234.56"). Currency symbols, spaces and quotes are ignored,
// a leading or trailing minus and accounting parentheses make the value negative.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := amountNoise.Replace(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = s[:len(s)-1]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// normalizeSeparators rewrites s so that '.' is the only decimal separator.
// When both separators appear the rightmost one is the decimal point; a lone
// separator repeated more than once is a thousands separator.
func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case dot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// ParseDate parses a date cell and truncates it to midnight UTC.
// Excel serial day numbers are accepted since workbooks are read with raw cell values.
// With dayFirst unset, month-first layouts are tried before day-first ones.
func ParseDate(raw string, dayFirst bool) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if t, ok := parseExcelSerial(s); ok {
		return t, true
	}

	// Drop the time of day: "02/01/2024 14:30", "2024-01-02T10:00:00Z".
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}

	layouts := make([]string, 0, len(dayFirstDates)+len(monthFirstDate)+len(isoDates))
	layouts = append(layouts, isoDates...)
	if dayFirst {
		layouts = append(layouts, dayFirstDates...)
	} else {
		layouts = append(layouts, monthFirstDate...)
		layouts = append(layouts, dayFirstDates...)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOnly(t), true
		}
	}
	return time.Time{}, false
}

func parseExcelSerial(s string) (time.Time, bool) {
	// yyyymmdd is handled by the ISO layouts.
	if len(s) == 8 && !strings.ContainsAny(s, ".,") {
		return time.Time{}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 1 || f > 2958465 {
		return time.Time{}, false
	}
	return excelEpoch.AddDate(0, 0, int(math.Floor(f))), true
}

// ExtractIdentifier returns the first run of digits in s, e.g. 42 from "PV 00042 - Roma".
func ExtractIdentifier(s string) (int64, bool) {
	run := digitRun.FindString(s)
	if run == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(run, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParseCode parses a numeric point-of-sale code that may come out of a spreadsheet as "42.0".
func ParseCode(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
