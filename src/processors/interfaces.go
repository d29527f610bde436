package processors

import "github.com/username/riconcilia/src/models"

// TheoreticalProcessor turns point-of-sale export rows into per-day expected takings.
type TheoreticalProcessor interface {
	Aggregate(rows []models.POSExportRow) []models.TheoreticalDay
	BuildAuditRecords(rows []models.POSExportRow, installationIDs map[int64]int64) map[int64][]models.ImportAudit
}

// JoinStrategy pairs theoretical days with actual settlements and classifies each pair.
type JoinStrategy interface {
	Pair(days []TheoreticalPoint, actuals []models.ActualRecord, tol Tolerance) []Pairing
}
