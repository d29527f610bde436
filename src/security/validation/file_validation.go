package validation

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/username/riconcilia/src/logger"
)

// FeedFormat is the physical container of a tabular input file.
type FeedFormat string

const (
	FormatXLSX FeedFormat = "xlsx"
	FormatXLS  FeedFormat = "xls"
	FormatCSV  FeedFormat = "csv"
)

var (
	zipSignature = []byte("PK\x03\x04")
	cfbSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// AllowedFeedExtensions lists the extensions considered during feed discovery.
var AllowedFeedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

// IsFeedFile reports whether the file name carries an accepted tabular extension.
func IsFeedFile(name string) bool {
	return AllowedFeedExtensions[strings.ToLower(filepath.Ext(name))]
}

// isBinaryContent checks for null bytes, which never occur in a delimited text export.
func isBinaryContent(buf []byte) bool {
	return bytes.IndexByte(buf, 0) != -1
}

// DetectFormat inspects the magic bytes of file and rewinds it.
// Extensions lie often enough (HTML saved as .xls, CSV saved as .xlsx) that the content decides.
func DetectFormat(file io.ReadSeeker) (FeedFormat, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 1024)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file for format detection: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("file is empty")
	}

	head := buffer[:n]
	switch {
	case bytes.HasPrefix(head, zipSignature):
		return FormatXLSX, nil
	case bytes.HasPrefix(head, cfbSignature):
		return FormatXLS, nil
	case isBinaryContent(head):
		logger.L.Warn("File rejected: binary content with unknown signature")
		return "", fmt.Errorf("file is binary but neither xlsx nor xls")
	}

	if !utf8.Valid(head) {
		// Legacy exports are Windows-1252; the reader transcodes them.
		logger.L.Debug("Text file is not valid UTF-8, treating as Windows-1252")
	}
	return FormatCSV, nil
}

// DetectFileFormat opens path and runs DetectFormat on it.
func DetectFileFormat(path string) (FeedFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return DetectFormat(f)
}
