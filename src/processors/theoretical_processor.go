package processors

import (
	"sort"
	"strconv"

	"github.com/username/riconcilia/src/models"
)

type theoreticalProcessorImpl struct{}

func NewTheoreticalProcessor() TheoreticalProcessor {
	return &theoreticalProcessorImpl{}
}

type dayKey struct {
	code int64
	date int64
}

// Aggregate sums export rows per (POS code, date). Negative totals pass through unchanged.
// The result is ordered by POS code, then date.
func (p *theoreticalProcessorImpl) Aggregate(rows []models.POSExportRow) []models.TheoreticalDay {
	index := make(map[dayKey]int)
	var days []models.TheoreticalDay

	for _, r := range rows {
		key := dayKey{code: r.POSCode, date: r.Date.Unix()}
		i, ok := index[key]
		if !ok {
			index[key] = len(days)
			days = append(days, models.TheoreticalDay{
				POSCode:      r.POSCode,
				Date:         models.DateOnly(r.Date),
				Cash:         r.Cash,
				BankCard:     r.BankCard,
				FuelCard:     r.FuelCard,
				Voucher:      r.Voucher,
				MobilePay:    r.MobilePay,
				TotalTakings: r.TotalTakings,
			})
			continue
		}
		d := &days[i]
		d.Cash = d.Cash.Add(r.Cash)
		d.BankCard = d.BankCard.Add(r.BankCard)
		d.FuelCard = d.FuelCard.Add(r.FuelCard)
		d.Voucher = d.Voucher.Add(r.Voucher)
		d.MobilePay = d.MobilePay.Add(r.MobilePay)
		d.TotalTakings = d.TotalTakings.Add(r.TotalTakings)
	}

	sort.SliceStable(days, func(i, j int) bool {
		if days[i].POSCode != days[j].POSCode {
			return days[i].POSCode < days[j].POSCode
		}
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

// BuildAuditRecords maps each raw export row of a registered installation to its audit copy,
// keyed by installation id. Rows of unknown POS codes are left out.
func (p *theoreticalProcessorImpl) BuildAuditRecords(rows []models.POSExportRow, installationIDs map[int64]int64) map[int64][]models.ImportAudit {
	out := make(map[int64][]models.ImportAudit)
	for _, r := range rows {
		id, ok := installationIDs[r.POSCode]
		if !ok {
			continue
		}
		out[id] = append(out[id], models.ImportAudit{
			InstallationID: id,
			POSCode:        strconv.FormatInt(r.POSCode, 10),
			AccountingDate: models.DateOnly(r.Date),
			TotalTakings:   r.TotalTakings.InexactFloat64(),
			BankCard:       r.BankCard.InexactFloat64(),
			FuelCard:       r.FuelCard.InexactFloat64(),
			Voucher:        r.Voucher.InexactFloat64(),
			MobilePay:      r.MobilePay.InexactFloat64(),
			Cash:           r.Cash.InexactFloat64(),
		})
	}
	return out
}

// POSCodes returns the distinct POS codes of days in ascending order.
func POSCodes(days []models.TheoreticalDay) []int64 {
	seen := make(map[int64]bool)
	var codes []int64
	for _, d := range days {
		if !seen[d.POSCode] {
			seen[d.POSCode] = true
			codes = append(codes, d.POSCode)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// DaysFor filters the aggregate down to one installation, keeping date order.
func DaysFor(days []models.TheoreticalDay, posCode int64) []models.TheoreticalDay {
	var out []models.TheoreticalDay
	for _, d := range days {
		if d.POSCode == posCode {
			out = append(out, d)
		}
	}
	return out
}
