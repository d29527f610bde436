package parsers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cellRef, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cellRef, &r))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	path := filepath.Join(t.TempDir(), "feed.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadWorkbook_XLSXSelectsSheetCaseInsensitively(t *testing.T) {
	path := writeXLSX(t, map[string][][]interface{}{
		"Riepilogo": {{"nothing here"}},
		"Incassi": {
			{"CodicePV", "DataContabile", "CONTANTI"},
			{42, "01/05/2024", 120.5},
		},
	})

	block, err := ReadWorkbook(path, "incassi")
	require.NoError(t, err)
	assert.Equal(t, "Incassi", block.Sheet)
	require.Len(t, block.Rows, 2)
	assert.Equal(t, []string{"42", "01/05/2024", "120.5"}, block.Rows[1])
}

func TestReadWorkbook_XLSXMissingSheet(t *testing.T) {
	path := writeXLSX(t, map[string][][]interface{}{"Foglio1": {{"a"}}})

	_, err := ReadWorkbook(path, POSExportSheet)
	assert.ErrorIs(t, err, ErrSheetNotFound)

	block, err := ReadWorkbook(path, "")
	require.NoError(t, err)
	assert.Equal(t, "Foglio1", block.Sheet)
}

func TestReadWorkbook_CSVWindows1252Semicolon(t *testing.T) {
	content := []byte("Descrizione;Importo\r\nCaff\xe8 bar;1,50\r\n\"Quota; divisa\";2,00\r\n")
	path := filepath.Join(t.TempDir(), "contanti.csv")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	block, err := ReadWorkbook(path, "ignored")
	require.NoError(t, err)
	require.Len(t, block.Rows, 3)
	assert.Equal(t, "Caffè bar", block.Rows[1][0])
	assert.Equal(t, "Quota; divisa", block.Rows[2][0])
}

func TestReadWorkbookFrom_CSVWithBOMAndCommas(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Data transazione,Importo totale\n2024-05-01,3.50\n")...)

	block, err := ReadWorkbookFrom(bytes.NewReader(content), "")
	require.NoError(t, err)
	require.Len(t, block.Rows, 2)
	assert.Equal(t, "Data transazione", block.Rows[0][0])
	assert.Equal(t, "3.50", block.Rows[1][1])
}

func TestReadWorkbookFrom_RejectsEmpty(t *testing.T) {
	_, err := ReadWorkbookFrom(bytes.NewReader(nil), "")
	assert.Error(t, err)
}

func TestReadWorkbook_LegacyXLS(t *testing.T) {
	path := filepath.Join("testdata", "sheets.xls")

	block, err := ReadWorkbook(path, "")
	require.NoError(t, err)
	assert.Equal(t, "Test sheet 1", block.Sheet)
	require.GreaterOrEqual(t, len(block.Rows), 2)
	require.GreaterOrEqual(t, len(block.Rows[0]), 3)
	assert.Equal(t, []string{"Test1", "Lorem", "Ipsum"}, block.Rows[0][:3])
	assert.Equal(t, "Avocado", block.Rows[1][0])

	block, err = ReadWorkbook(path, "TEST SHEET 2")
	require.NoError(t, err)
	assert.Equal(t, "Test sheet 2", block.Sheet)
	require.NotEmpty(t, block.Rows)
	assert.Equal(t, "Test2", block.Rows[0][0])

	_, err = ReadWorkbook(path, POSExportSheet)
	assert.ErrorIs(t, err, ErrSheetNotFound)
}
