package services

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/riconcilia/src/database/dbtest"
	"github.com/username/riconcilia/src/model"
	"github.com/username/riconcilia/src/models"
	"github.com/username/riconcilia/src/processors"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func newTestService(t *testing.T) (*reconciliationServiceImpl, *sql.DB) {
	t.Helper()
	db := dbtest.New(t)
	svc := NewReconciliationService(db, NewInstallationRegistry(time.Minute), processors.NewTheoreticalProcessor(), 30)
	return svc.(*reconciliationServiceImpl), db
}

func reportsByCategory(t *testing.T, db *sql.DB, installationID int64) map[models.Category]models.ReportRow {
	t.Helper()
	rows, err := model.ListReports(context.Background(), db, installationID)
	require.NoError(t, err)
	out := make(map[models.Category]models.ReportRow)
	for _, r := range rows {
		out[r.Category] = r
	}
	return out
}

func TestRun_EndToEnd(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	id := dbtest.AddInstallation(t, db, "42", "Stazione Nord")

	dir := t.TempDir()
	writeFile(t, dir, "A_fortech.csv",
		"CodicePV;DataContabile;BANCOMAT GESTORE;DKV;BUONI;PAGAMENTIINNOVATIVI;CONTANTI;CorrispettivoTotale\n"+
			"42;01/05/2024;100,00;80,00;50,00;5,00;300,00;535,00\n"+
			"99;01/05/2024;1;1;1;1;1;5\n")
	writeFile(t, dir, "2_numia.csv",
		"Estrazione del 03/05/2024\n"+
			"Data e ora;Terminale;Importo\n"+
			"01/05/2024 10:00;T1;60,00\n"+
			"01/05/2024 18:00;T1;39,70\n")
	writeFile(t, dir, "4_buoni.csv",
		"Punto vendita;Data registrazione;Importo\n"+
			"PV 42 Roma;02/05/2024;35,00\n"+
			"PV 43 Milano;02/05/2024;99,00\n")
	writeFile(t, dir, "5_satispay.csv", "Negozio;Data\nx;y\n")

	result, err := svc.Run(ctx, RunConfig{InputDir: dir, RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, 1, result.InstallationsProcessed)
	assert.Equal(t, []int64{99}, result.SkippedPOSCodes)

	reports := reportsByCategory(t, db, id)
	require.Len(t, reports, 5)

	bank := reports[models.CategoryBankCard]
	assert.Equal(t, models.StatusBalanced, bank.Status)
	assert.InDelta(t, 0.30, bank.Difference, 1e-9)
	assert.True(t, bank.ReferenceDate.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))

	voucher := reports[models.CategoryVoucher]
	assert.Equal(t, models.StatusMajorAnomaly, voucher.Status)
	assert.Equal(t, 15.0, voucher.Difference)

	cash := reports[models.CategoryCash]
	assert.Equal(t, models.StatusNotFound, cash.Status)
	assert.Equal(t, 300.0, cash.Difference)
	assert.Equal(t, "File Contanti AS400 non caricato", cash.Note)

	assert.Equal(t, models.StatusNotFound, reports[models.CategoryFuelCard].Status)

	mobile := reports[models.CategoryMobilePay]
	assert.Equal(t, models.StatusNotFound, mobile.Status)
	assert.Contains(t, mobile.Note, "File illeggibile/Struttura Errata")

	audit, err := model.ListImportAudit(ctx, db, id)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, 535.0, audit[0].TotalTakings)
	assert.Equal(t, 100.0, audit[0].BankCard)
}

func TestRun_IsIdempotentAndLeavesNoStaleRows(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	id := dbtest.AddInstallation(t, db, "42", "Stazione Nord")

	first := t.TempDir()
	writeFile(t, first, "fortech.csv",
		"CodicePV;DataContabile;BANCOMAT GESTORE;CONTANTI\n"+
			"42;01/05/2024;100;50\n"+
			"42;02/05/2024;100;50\n")

	for i := 0; i < 2; i++ {
		_, err := svc.Run(ctx, RunConfig{InputDir: first})
		require.NoError(t, err)
	}
	rows, err := model.ListReports(ctx, db, id)
	require.NoError(t, err)
	assert.Len(t, rows, 10, "two days times five categories, no duplicates after a re-run")

	second := t.TempDir()
	writeFile(t, second, "fortech.csv",
		"CodicePV;DataContabile;BANCOMAT GESTORE;CONTANTI\n"+
			"42;03/05/2024;10;0\n")
	_, err = svc.Run(ctx, RunConfig{InputDir: second})
	require.NoError(t, err)

	rows, err = model.ListReports(ctx, db, id)
	require.NoError(t, err)
	require.Len(t, rows, 4, "zero cash days produce no cash row")
	for _, r := range rows {
		assert.Equal(t, "2024-05-03", r.ReferenceDate.Format(models.DateLayout))
	}

	audit, err := model.ListImportAudit(ctx, db, id)
	require.NoError(t, err)
	assert.Len(t, audit, 1)
}

func TestRun_FatalConditions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	empty := t.TempDir()
	writeFile(t, empty, "2_numia.csv", "Data;Importo\n01/05/2024;1\n")
	_, err := svc.Run(ctx, RunConfig{InputDir: empty})
	assert.ErrorIs(t, err, ErrTheoreticalExportMissing)

	headerOnly := t.TempDir()
	writeFile(t, headerOnly, "fortech.csv", "CodicePV;DataContabile;CONTANTI\n")
	_, err = svc.Run(ctx, RunConfig{InputDir: headerOnly})
	assert.ErrorIs(t, err, ErrNoTheoreticalData)

	wrongSheet := t.TempDir()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"CodicePV", "DataContabile"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{42, "01/05/2024"}))
	require.NoError(t, f.SaveAs(filepath.Join(wrongSheet, "A_fortech.xlsx")))
	require.NoError(t, f.Close())
	_, err = svc.Run(ctx, RunConfig{InputDir: wrongSheet})
	assert.ErrorIs(t, err, ErrNoTheoreticalData)
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	svc, _ := newTestService(t)
	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err := svc.Run(context.Background(), RunConfig{InputDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestInstallationRegistry_CachesHitsOnly(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	registry := NewInstallationRegistry(time.Minute)

	_, err := registry.Lookup(ctx, db, 42)
	assert.ErrorIs(t, err, model.ErrInstallationNotFound)

	id := dbtest.AddInstallation(t, db, "42", "Stazione Nord")
	got, err := registry.Lookup(ctx, db, 42)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = db.Exec(`DELETE FROM impianti WHERE id = ?`, id)
	require.NoError(t, err)
	got, err = registry.Lookup(ctx, db, 42)
	require.NoError(t, err, "served from cache")
	assert.Equal(t, id, got)

	registry.Invalidate()
	_, err = registry.Lookup(ctx, db, 42)
	assert.ErrorIs(t, err, model.ErrInstallationNotFound)
}
