package parsers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/username/riconcilia/src/logger"
	"github.com/username/riconcilia/src/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultHeaderScanRows bounds how many leading rows are searched for the header.
const DefaultHeaderScanRows = 30

var (
	// ErrMissingColumn is returned when a required column role cannot be resolved.
	ErrMissingColumn = errors.New("required column not found")
	// ErrEmptyBlock is returned for a sheet without any row.
	ErrEmptyBlock = errors.New("sheet is empty")
)

// FeedLayout describes how one settlement feed maps its columns onto CanonicalRow.
// Aliases are compared against normalized header cells (lowercase, single spaces).
type FeedLayout struct {
	Name  string
	Sheet string

	// HeaderKeywords locate the header row by substring. With RequireAllKeywords
	// every keyword must occur somewhere in the row, otherwise any one is enough.
	// No keywords means the header is the first row.
	HeaderKeywords     []string
	RequireAllKeywords bool
	HeaderScanRows     int

	IdentifierAliases []string
	// IdentifierRequired makes a missing identifier column structural; otherwise the
	// feed is read as single-site.
	IdentifierRequired bool
	// KeepUnidentifiedRows keeps rows whose store cell yields no code, flagged as
	// unidentified, instead of dropping them.
	KeepUnidentifiedRows bool
	DateAliases          []string
	AmountAliases        []string
	// AmountContains resolves the amount column by substring when no alias matches.
	AmountContains string
	SignAliases    []string

	DayFirst bool
}

// NormalizedFeed is a feed after column resolution and value parsing.
type NormalizedFeed struct {
	Rows []models.CanonicalRow
	// HasIdentifier is false for single-site feeds that carry no store column.
	HasIdentifier bool
}

type columnMap struct {
	identifier int
	date       int
	amount     int
	sign       int
}

// Normalize turns a raw block into canonical rows. Structural problems (no header,
// missing date or amount column) are errors; bad values only drop or zero a row.
func Normalize(block *Block, layout FeedLayout) (*NormalizedFeed, error) {
	if block == nil || len(block.Rows) == 0 {
		return nil, ErrEmptyBlock
	}

	headerIdx := findHeaderRow(block.Rows, layout)
	header := make([]string, len(block.Rows[headerIdx]))
	for i, cell := range block.Rows[headerIdx] {
		header[i] = NormalizeHeader(cell)
	}

	cols, err := resolveColumns(header, layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", layout.Name, err)
	}

	feed := &NormalizedFeed{HasIdentifier: cols.identifier >= 0}
	droppedDates, droppedIDs := 0, 0

	for i := headerIdx + 1; i < len(block.Rows); i++ {
		record := block.Rows[i]
		if isBlankRow(record) {
			continue
		}

		row := models.CanonicalRow{SourceRow: i + 1}

		if feed.HasIdentifier {
			id, ok := ExtractIdentifier(cell(record, cols.identifier))
			switch {
			case ok:
				row.Identifier, row.HasIdentifier = id, true
			case !layout.KeepUnidentifiedRows:
				droppedIDs++
				continue
			}
		}

		date, ok := ParseDate(cell(record, cols.date), layout.DayFirst)
		if !ok {
			droppedDates++
			continue
		}
		row.Date = date

		amount, ok := ParseAmount(cell(record, cols.amount))
		if !ok {
			amount = decimal.Zero
		}
		if cols.sign >= 0 && strings.Contains(cell(record, cols.sign), "-") {
			amount = amount.Abs().Neg()
		}
		row.Amount = amount

		feed.Rows = append(feed.Rows, row)
	}

	if droppedDates > 0 || droppedIDs > 0 {
		logger.L.Debug("Feed rows dropped during normalization",
			"feed", layout.Name, "badDate", droppedDates, "badIdentifier", droppedIDs, "kept", len(feed.Rows))
	}
	return feed, nil
}

// NormalizeHeader lowercases a header cell, folds accents ("Unità" becomes "unita")
// and collapses whitespace, newlines included.
func NormalizeHeader(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func findHeaderRow(rows [][]string, layout FeedLayout) int {
	if len(layout.HeaderKeywords) == 0 {
		return 0
	}
	limit := layout.HeaderScanRows
	if limit <= 0 {
		limit = DefaultHeaderScanRows
	}
	if limit > len(rows) {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		hits := 0
		for _, kw := range layout.HeaderKeywords {
			if rowContains(rows[i], kw) {
				hits++
			}
		}
		if (layout.RequireAllKeywords && hits == len(layout.HeaderKeywords)) || (!layout.RequireAllKeywords && hits > 0) {
			return i
		}
	}
	return 0
}

func rowContains(row []string, keyword string) bool {
	for _, c := range row {
		if strings.Contains(NormalizeHeader(c), keyword) {
			return true
		}
	}
	return false
}

func resolveColumns(header []string, layout FeedLayout) (columnMap, error) {
	cols := columnMap{
		identifier: findColumn(header, layout.IdentifierAliases),
		date:       findColumn(header, layout.DateAliases),
		amount:     findColumn(header, layout.AmountAliases),
		sign:       findColumn(header, layout.SignAliases),
	}
	if cols.amount < 0 && layout.AmountContains != "" {
		for i, h := range header {
			if strings.Contains(h, layout.AmountContains) {
				cols.amount = i
				break
			}
		}
	}

	if cols.identifier < 0 && layout.IdentifierRequired {
		return cols, fmt.Errorf("%w: identifier (%s)", ErrMissingColumn, strings.Join(layout.IdentifierAliases, " | "))
	}
	if cols.date < 0 {
		return cols, fmt.Errorf("%w: date (%s)", ErrMissingColumn, strings.Join(layout.DateAliases, " | "))
	}
	if cols.amount < 0 {
		return cols, fmt.Errorf("%w: amount (%s)", ErrMissingColumn, strings.Join(layout.AmountAliases, " | "))
	}
	return cols, nil
}

// findColumn returns the index of the first header equal to any alias, honoring alias priority.
func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range header {
			if h == alias {
				return i
			}
		}
	}
	return -1
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isBlankRow(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

type aggregateKey struct {
	hasIdentifier bool
	identifier    int64
	date          int64
}

// Aggregate sums rows sharing (identifier, date) and counts them. Unidentified rows
// form their own group per date. Output is ordered by identifier then date.
func Aggregate(rows []models.CanonicalRow) []models.ActualRecord {
	index := make(map[aggregateKey]int)
	var out []models.ActualRecord

	for _, r := range rows {
		key := aggregateKey{hasIdentifier: r.HasIdentifier, identifier: r.Identifier, date: r.Date.Unix()}
		if i, ok := index[key]; ok {
			out[i].Amount = out[i].Amount.Add(r.Amount)
			out[i].Count++
			continue
		}
		index[key] = len(out)
		out = append(out, models.ActualRecord{
			Identifier:    r.Identifier,
			HasIdentifier: r.HasIdentifier,
			Date:          r.Date,
			Amount:        r.Amount,
			Count:         1,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Identifier != out[j].Identifier {
			return out[i].Identifier < out[j].Identifier
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Records keeps every row as its own record, in source order. Used where rows are
// matched individually rather than summed per day.
func Records(rows []models.CanonicalRow) []models.ActualRecord {
	out := make([]models.ActualRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ActualRecord{
			Identifier:    r.Identifier,
			HasIdentifier: r.HasIdentifier,
			Date:          r.Date,
			Amount:        r.Amount,
			Count:         1,
		})
	}
	return out
}
