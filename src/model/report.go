package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/username/riconcilia/src/models"
)

// UpsertReport writes one reconciliation row keyed by (installation, date, category).
// An existing row gets its values, status and note replaced and its processed timestamp bumped;
// otherwise a new row is inserted. Re-running with the same key never duplicates rows.
func UpsertReport(ctx context.Context, q Querier, row models.ReportRow) error {
	date := row.ReferenceDate.Format(models.DateLayout)

	var existingID int64
	err := q.QueryRowContext(ctx, `
		SELECT id FROM report_riconciliazioni
		WHERE impianto_id = ? AND data_riferimento = ? AND categoria = ?
		ORDER BY id LIMIT 1`,
		row.InstallationID, date, string(row.Category)).Scan(&existingID)

	switch {
	case err == nil:
		_, err = q.ExecContext(ctx, `
			UPDATE report_riconciliazioni
			SET valore_fortech = ?, valore_reale = ?, differenza = ?, stato = ?, note = ?, data_elaborazione = CURRENT_TIMESTAMP
			WHERE id = ?`,
			row.Theoretical, row.Actual, row.Difference, string(row.Status), row.Note, existingID)
		if err != nil {
			return fmt.Errorf("update report row %d: %w", existingID, err)
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		_, err = q.ExecContext(ctx, `
			INSERT INTO report_riconciliazioni
			(impianto_id, data_riferimento, categoria, valore_fortech, valore_reale, differenza, stato, note)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			row.InstallationID, date, string(row.Category),
			row.Theoretical, row.Actual, row.Difference, string(row.Status), row.Note)
		if err != nil {
			return fmt.Errorf("insert report row (installation %d, %s, %s): %w", row.InstallationID, date, row.Category, err)
		}
		return nil
	default:
		return fmt.Errorf("lookup report row (installation %d, %s, %s): %w", row.InstallationID, date, row.Category, err)
	}
}

// PurgeReports removes every report row of an installation and returns how many were deleted.
func PurgeReports(ctx context.Context, q Querier, installationID int64) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM report_riconciliazioni WHERE impianto_id = ?`, installationID)
	if err != nil {
		return 0, fmt.Errorf("purge reports for installation %d: %w", installationID, err)
	}
	return res.RowsAffected()
}

// ListReports returns the report rows of an installation ordered by date and category.
func ListReports(ctx context.Context, q Querier, installationID int64) ([]models.ReportRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, impianto_id, data_riferimento, categoria, valore_fortech, valore_reale, differenza, stato, note, data_elaborazione
		FROM report_riconciliazioni
		WHERE impianto_id = ?
		ORDER BY data_riferimento, categoria, id`, installationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReportRow
	for rows.Next() {
		var (
			r           models.ReportRow
			date        string
			category    string
			status      string
			processedAt sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.InstallationID, &date, &category, &r.Theoretical, &r.Actual, &r.Difference, &status, &r.Note, &processedAt); err != nil {
			return nil, err
		}
		r.ReferenceDate, err = time.Parse(models.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("report row %d has malformed date %s: %w", r.ID, date, err)
		}
		r.Category = models.Category(category)
		r.Status = models.Status(status)
		if processedAt.Valid {
			r.ProcessedAt = processedAt.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
