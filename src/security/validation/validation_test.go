package validation

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    FeedFormat
		wantErr bool
	}{
		{"xlsx zip container", append([]byte("PK\x03\x04"), make([]byte, 20)...), FormatXLSX, false},
		{"legacy xls", append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 20)...), FormatXLS, false},
		{"semicolon csv", []byte("Data;Importo\n01/02/2024;10,00\n"), FormatCSV, false},
		{"windows-1252 csv", []byte("Descrizione;Importo\nCaff\xe8;1,00\n"), FormatCSV, false},
		{"empty", nil, "", true},
		{"unknown binary", []byte{0x7F, 'E', 'L', 'F', 0, 0, 0}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(bytes.NewReader(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFileFormat_RewindsForCaller(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, os.WriteFile(path, []byte("a;b\n1;2\n"), 0o600))

	got, err := DetectFileFormat(path)
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, got)
}

func TestIsFeedFile(t *testing.T) {
	assert.True(t, IsFeedFile("A_fortech.XLSX"))
	assert.True(t, IsFeedFile("1_contanti.csv"))
	assert.True(t, IsFeedFile("numia.xls"))
	assert.False(t, IsFeedFile("notes.txt"))
	assert.False(t, IsFeedFile("~$lock"))
}

func TestSanitizeNote(t *testing.T) {
	assert.Equal(t, "File illeggibile (colonna 'Importo' mancante)", SanitizeNote("File illeggibile <b>(colonna 'Importo' mancante)</b>"))
	assert.Equal(t, "x", SanitizeNote("x<script>alert(1)</script>"))
	assert.Equal(t, "a b", SanitizeNote("  a\x07\n   b "))

	long := SanitizeNote(strings.Repeat("x", MaxNoteLength+50))
	assert.Len(t, []rune(long), MaxNoteLength)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestResolveWithinRoot(t *testing.T) {
	root := t.TempDir()

	got, err := ResolveWithinRoot(root, "2024-01", "input_dir")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2024-01"), got)

	got, err = ResolveWithinRoot(root, filepath.Join(root, "batch"), "input_dir")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "batch"), got)

	_, err = ResolveWithinRoot(root, "../etc", "input_dir")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ResolveWithinRoot(root, "  ", "input_dir")
	assert.ErrorIs(t, err, ErrValidationFailed)
}
