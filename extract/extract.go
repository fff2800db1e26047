// Package extract converts files of heterogeneous formats into plain text.
// Extraction never fails: any unreadable or corrupt input yields an empty
// string and the caller decides how to log and continue.
package extract

import (
	"os"
	"path/filepath"
	"strings"
)

// Text extracts plain text from the file at path, dispatching on its
// lowercased extension. Unknown extensions are read as UTF-8 text verbatim.
// Returns "" on any failure.
func Text(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return pdfText(path)
	case ".docx":
		return docxText(path)
	case ".odt":
		return odtText(path)
	default:
		return plainText(path)
	}
}

// plainText reads the file verbatim. Content with NUL bytes near the start
// is treated as binary and skipped.
func plainText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if isBinary(data) {
		return ""
	}
	return string(data)
}

// isBinary checks the first 512 bytes for NUL bytes, which indicates binary
// data.
func isBinary(data []byte) bool {
	checkSize := 512
	if len(data) < checkSize {
		checkSize = len(data)
	}
	for i := 0; i < checkSize; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}
