package parsers

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/username/riconcilia/src/logger"
	"github.com/username/riconcilia/src/models"
)

// POSExportSheet is the sheet of the point-of-sale (Fortech) workbook holding the takings.
const POSExportSheet = "Incassi"

// Sub-columns summed into each category total.
var (
	bankCardColumns  = []string{"BANCOMAT GESTORE", "CARTA CREDITO GESTORE", "AMEX", "CARTA CREDITO GENERICA", "PAGOBANCOMAT", "TBS"}
	fuelCardColumns  = []string{"DKV", "UTA", "CARTAMAXIMA"}
	voucherColumns   = []string{"CARTAPETROLIFERA", "BUONI"}
	mobilePayColumns = []string{"PAGAMENTIINNOVATIVI"}
	cashColumns      = []string{"CONTANTI"}
	totalColumns     = []string{"CORRISPETTIVOTOTALE"}
)

// ParsePOSExport derives the five category totals of every export row.
// CodicePV and DataContabile are required; missing sub-columns count as zero.
// Rows whose code or date cannot be parsed are dropped.
func ParsePOSExport(block *Block) ([]models.POSExportRow, error) {
	if block == nil || len(block.Rows) == 0 {
		return nil, ErrEmptyBlock
	}

	header := block.Rows[0]
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	codeCol, ok := index["codicepv"]
	if !ok {
		return nil, fmt.Errorf("%w: CodicePV", ErrMissingColumn)
	}
	dateCol, ok := index["datacontabile"]
	if !ok {
		return nil, fmt.Errorf("%w: DataContabile", ErrMissingColumn)
	}

	sum := func(record []string, names []string) decimal.Decimal {
		total := decimal.Zero
		for _, n := range names {
			if i, ok := index[NormalizeHeader(n)]; ok {
				if v, ok := ParseAmount(cell(record, i)); ok {
					total = total.Add(v)
				}
			}
		}
		return total
	}

	var out []models.POSExportRow
	dropped := 0
	for i := 1; i < len(block.Rows); i++ {
		record := block.Rows[i]
		if isBlankRow(record) {
			continue
		}
		code, ok := ParseCode(cell(record, codeCol))
		if !ok {
			dropped++
			continue
		}
		date, ok := ParseDate(cell(record, dateCol), true)
		if !ok {
			dropped++
			continue
		}
		out = append(out, models.POSExportRow{
			POSCode:      code,
			Date:         date,
			BankCard:     sum(record, bankCardColumns),
			FuelCard:     sum(record, fuelCardColumns),
			Voucher:      sum(record, voucherColumns),
			MobilePay:    sum(record, mobilePayColumns),
			Cash:         sum(record, cashColumns),
			TotalTakings: sum(record, totalColumns),
			SourceRow:    i + 1,
		})
	}

	if dropped > 0 {
		logger.L.Warn("POS export rows dropped", "count", dropped, "kept", len(out))
	}
	return out, nil
}
