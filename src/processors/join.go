package processors

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/riconcilia/src/models"
)

// TheoreticalPoint is the expected amount of one category on one day.
type TheoreticalPoint struct {
	Date   time.Time
	Amount decimal.Decimal
}

// Pairing is a classified theoretical day with the actual money attributed to it.
type Pairing struct {
	Date        time.Time
	Theoretical decimal.Decimal
	Actual      decimal.Decimal
	Status      models.Status

	// Matched is true when at least one settlement row was attributed to the day.
	Matched bool
	// MatchedDate is the settlement date the actual amount came from.
	MatchedDate time.Time
	// Count is the number of settlement rows summed into Actual.
	Count int
	// Consumed reports whether a windowed match removed the settlement from the pool.
	Consumed bool
}

// Difference is theoretical minus actual.
func (p Pairing) Difference() decimal.Decimal {
	return p.Theoretical.Sub(p.Actual)
}

// DateOffsetJoin is a left join of every theoretical day onto the settlements dated
// OffsetDays later. Settlements sharing a date are summed.
type DateOffsetJoin struct {
	OffsetDays int
}

func (j DateOffsetJoin) Pair(days []TheoreticalPoint, actuals []models.ActualRecord, tol Tolerance) []Pairing {
	type bucket struct {
		amount decimal.Decimal
		count  int
	}
	byDate := make(map[int64]*bucket)
	for _, a := range actuals {
		key := models.DateOnly(a.Date).Unix()
		b, ok := byDate[key]
		if !ok {
			b = &bucket{amount: decimal.Zero}
			byDate[key] = b
		}
		b.amount = b.amount.Add(a.Amount)
		b.count += a.Count
	}

	out := make([]Pairing, 0, len(days))
	for _, d := range days {
		target := models.DateOnly(d.Date).AddDate(0, 0, j.OffsetDays)
		p := Pairing{Date: d.Date, Theoretical: d.Amount, Actual: decimal.Zero}
		if b, ok := byDate[target.Unix()]; ok {
			p.Actual = b.amount
			p.Count = b.count
			p.Matched = true
			p.MatchedDate = target
		}
		p.Status = tol.Classify(p.Theoretical, p.Actual)
		out = append(out, p)
	}
	return out
}

// WindowJoin pairs each theoretical day with the single unconsumed positive settlement
// dated within [day-Before, day+After] whose amount is closest. Days are processed in
// ascending date order and ties keep the first candidate in date order. A chosen
// settlement is consumed unless the pair classifies as ANOMALIA_GRAVE.
type WindowJoin struct {
	Before int
	After  int
}

func (j WindowJoin) Pair(days []TheoreticalPoint, actuals []models.ActualRecord, tol Tolerance) []Pairing {
	var pool []models.ActualRecord
	for _, a := range actuals {
		if a.Amount.IsPositive() {
			pool = append(pool, a)
		}
	}
	sort.SliceStable(pool, func(a, b int) bool { return pool[a].Date.Before(pool[b].Date) })
	consumed := make([]bool, len(pool))

	ordered := make([]TheoreticalPoint, len(days))
	copy(ordered, days)
	sort.SliceStable(ordered, func(a, b int) bool { return ordered[a].Date.Before(ordered[b].Date) })

	out := make([]Pairing, 0, len(ordered))
	for _, d := range ordered {
		day := models.DateOnly(d.Date)
		from := day.AddDate(0, 0, -j.Before)
		to := day.AddDate(0, 0, j.After)

		best := -1
		var bestDiff decimal.Decimal
		for i, a := range pool {
			if consumed[i] {
				continue
			}
			ad := models.DateOnly(a.Date)
			if ad.Before(from) || ad.After(to) {
				continue
			}
			diff := a.Amount.Sub(d.Amount).Abs()
			if best < 0 || diff.LessThan(bestDiff) {
				best, bestDiff = i, diff
			}
		}

		p := Pairing{Date: d.Date, Theoretical: d.Amount, Actual: decimal.Zero}
		if best < 0 {
			p.Status = models.StatusMajorAnomaly
			out = append(out, p)
			continue
		}

		chosen := pool[best]
		p.Actual = chosen.Amount
		p.Matched = true
		p.MatchedDate = models.DateOnly(chosen.Date)
		p.Count = 1
		p.Status = tol.Tier(p.Difference().Abs())
		if p.Status != models.StatusMajorAnomaly {
			consumed[best] = true
			p.Consumed = true
		}
		out = append(out, p)
	}
	return out
}
