package model

import (
	"context"
	"fmt"
	"time"

	"github.com/username/riconcilia/src/models"
)

// DeleteImportAudit clears the audit copy of an installation before a fresh import.
func DeleteImportAudit(ctx context.Context, q Querier, installationID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM import_fortech_master WHERE impianto_id = ?`, installationID); err != nil {
		return fmt.Errorf("delete import audit for installation %d: %w", installationID, err)
	}
	return nil
}

// InsertImportAudit stores one denormalized point-of-sale export row.
func InsertImportAudit(ctx context.Context, q Querier, a models.ImportAudit) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO import_fortech_master
		(impianto_id, codice_pv, data_contabile, corrispettivo_totale,
		 incasso_carte_bancarie_teorico, incasso_carte_petrolifere_teorico,
		 incasso_buoni_teorico, incasso_satispay_teorico, incasso_contanti_teorico)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.InstallationID, a.POSCode, a.AccountingDate.Format(models.DateLayout), a.TotalTakings,
		a.BankCard, a.FuelCard, a.Voucher, a.MobilePay, a.Cash)
	if err != nil {
		return fmt.Errorf("insert import audit (installation %d, %s): %w", a.InstallationID, a.AccountingDate.Format(models.DateLayout), err)
	}
	return nil
}

// ListImportAudit returns the audit rows of an installation ordered by accounting date.
func ListImportAudit(ctx context.Context, q Querier, installationID int64) ([]models.ImportAudit, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, impianto_id, codice_pv, data_contabile, corrispettivo_totale,
		       incasso_carte_bancarie_teorico, incasso_carte_petrolifere_teorico,
		       incasso_buoni_teorico, incasso_satispay_teorico, incasso_contanti_teorico
		FROM import_fortech_master
		WHERE impianto_id = ?
		ORDER BY data_contabile, id`, installationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ImportAudit
	for rows.Next() {
		var a models.ImportAudit
		var date string
		if err := rows.Scan(&a.ID, &a.InstallationID, &a.POSCode, &date, &a.TotalTakings,
			&a.BankCard, &a.FuelCard, &a.Voucher, &a.MobilePay, &a.Cash); err != nil {
			return nil, err
		}
		if a.AccountingDate, err = time.Parse(models.DateLayout, date); err != nil {
			return nil, fmt.Errorf("import audit row %d has malformed date %s: %w", a.ID, date, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
