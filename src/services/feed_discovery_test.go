package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/riconcilia/src/models"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	return path
}

func TestClassifyFeedName(t *testing.T) {
	tests := map[string]string{
		"A_export.xlsx":               "pos_export",
		"Incassi FORTECH maggio.xlsx": "pos_export",
		"1_as400.xls":                 string(models.CategoryCash),
		"versamenti_contanti.csv":     string(models.CategoryCash),
		"2_numia.xlsx":                string(models.CategoryBankCard),
		"carte_bancarie.xlsx":         string(models.CategoryBankCard),
		"2_carte_petrolifere.xlsx":    string(models.CategoryFuelCard),
		"portale azzurro.xlsx":        string(models.CategoryFuelCard),
		"4_ip.xlsx":                   string(models.CategoryVoucher),
		"buoni_rosso.csv":             string(models.CategoryVoucher),
		"5_export.csv":                string(models.CategoryMobilePay),
		"Grigio.xlsx":                 string(models.CategoryMobilePay),
		"riepilogo.xlsx":              "",
	}
	for name, want := range tests {
		assert.Equal(t, want, ClassifyFeedName(name), name)
	}
}

func TestDiscoverFeeds(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "A_fortech_aprile.xlsx")
	fortech := touch(t, dir, "A_fortech_maggio.xlsx")
	fuel := touch(t, dir, "2_carte_petrolifere.xlsx")
	bank := touch(t, dir, "numia.csv")
	cash := touch(t, dir, "1_contanti.xls")
	touch(t, dir, "notes.txt")
	touch(t, dir, "satispay.pdf")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "buoni"), 0o700))

	set, err := DiscoverFeeds(dir)
	require.NoError(t, err)

	assert.Equal(t, fortech, set.POSExport, "the last file in name order wins")
	assert.Equal(t, fuel, set.FuelCard)
	assert.Equal(t, bank, set.BankCard)
	assert.Equal(t, cash, set.Cash)
	assert.Empty(t, set.Voucher)
	assert.Empty(t, set.MobilePay)
	assert.Equal(t, fuel, set.PathFor(models.CategoryFuelCard))
}

func TestDiscoverFeeds_MissingDirectory(t *testing.T) {
	_, err := DiscoverFeeds(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
