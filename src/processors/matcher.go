package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/riconcilia/src/models"
	"github.com/username/riconcilia/src/security/validation"
)

// CategoryProfile parameterizes the generic matcher for one payment category.
type CategoryProfile struct {
	Category models.Category
	// FeedLabel names the feed in "File <label> non caricato".
	FeedLabel string
	Join      JoinStrategy
	Tolerance Tolerance

	// PositiveDaysOnly skips theoretical days with no positive amount.
	PositiveDaysOnly bool
	// Unaggregated keeps settlement rows individual instead of summing them per day.
	Unaggregated bool
	// WholeFeedFallback uses every row when none carries the installation's code.
	WholeFeedFallback bool

	Note func(p Pairing) string
}

// CategoryFeed is the normalized settlement feed of one category for a whole run.
// Present is false when no file was discovered; Err holds a structural read failure.
type CategoryFeed struct {
	Present       bool
	Err           error
	HasIdentifier bool
	Records       []models.ActualRecord
}

// Matcher reconciles one category for one installation at a time.
type Matcher struct {
	profile CategoryProfile
}

func NewMatcher(profile CategoryProfile) *Matcher {
	return &Matcher{profile: profile}
}

func (m *Matcher) Category() models.Category {
	return m.profile.Category
}

// Reconcile produces the report rows of the matcher's category. It never fails: a missing
// or unreadable feed, or a feed without rows for the installation, degrades into rows
// carrying the full theoretical amount as difference and an explanatory note.
func (m *Matcher) Reconcile(installationID, posCode int64, days []models.TheoreticalDay, feed CategoryFeed) []models.ReportRow {
	points := m.points(days)
	if len(points) == 0 {
		return nil
	}

	if !feed.Present {
		return m.missing(installationID, points, fmt.Sprintf("File %s non caricato", m.profile.FeedLabel))
	}
	if feed.Err != nil {
		return m.missing(installationID, points, fmt.Sprintf("File illeggibile/Struttura Errata (%s)", validation.SanitizeNote(feed.Err.Error())))
	}

	actuals, ok := m.actualsFor(posCode, feed)
	if !ok {
		return m.missing(installationID, points, fmt.Sprintf("Dati per PV %d non trovati nel file", posCode))
	}

	pairs := m.profile.Join.Pair(points, actuals, m.profile.Tolerance)
	rows := make([]models.ReportRow, 0, len(pairs))
	for _, p := range pairs {
		note := ""
		if m.profile.Note != nil {
			note = m.profile.Note(p)
		}
		rows = append(rows, newReportRow(installationID, m.profile.Category, p.Date, p.Theoretical, p.Actual, p.Status, note))
	}
	return rows
}

func (m *Matcher) points(days []models.TheoreticalDay) []TheoreticalPoint {
	points := make([]TheoreticalPoint, 0, len(days))
	for _, d := range days {
		amount := d.Amount(m.profile.Category)
		if m.profile.PositiveDaysOnly && !amount.IsPositive() {
			continue
		}
		points = append(points, TheoreticalPoint{Date: models.DateOnly(d.Date), Amount: amount})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// actualsFor narrows the feed to one installation. Single-site feeds apply whole.
func (m *Matcher) actualsFor(posCode int64, feed CategoryFeed) ([]models.ActualRecord, bool) {
	if !feed.HasIdentifier {
		return feed.Records, true
	}
	var out []models.ActualRecord
	for _, r := range feed.Records {
		if r.HasIdentifier && r.Identifier == posCode {
			out = append(out, r)
		}
	}
	if len(out) > 0 {
		return out, true
	}
	if m.profile.WholeFeedFallback {
		return feed.Records, true
	}
	return nil, false
}

func (m *Matcher) missing(installationID int64, points []TheoreticalPoint, note string) []models.ReportRow {
	rows := make([]models.ReportRow, 0, len(points))
	for _, p := range points {
		status := models.StatusBalanced
		n := ""
		if p.Amount.IsPositive() {
			status = models.StatusNotFound
			n = note
		}
		rows = append(rows, newReportRow(installationID, m.profile.Category, p.Date, p.Amount, decimal.Zero, status, n))
	}
	return rows
}

func newReportRow(installationID int64, c models.Category, date time.Time, theoretical, actual decimal.Decimal, status models.Status, note string) models.ReportRow {
	return models.ReportRow{
		InstallationID: installationID,
		ReferenceDate:  date,
		Category:       c,
		Theoretical:    theoretical.InexactFloat64(),
		Actual:         actual.InexactFloat64(),
		Difference:     theoretical.Sub(actual).InexactFloat64(),
		Status:         status,
		Note:           validation.SanitizeNote(note),
	}
}
