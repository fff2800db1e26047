package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"
)

// docxText extracts raw paragraph text from word/document.xml inside the
// DOCX zip container, without any formatting.
func docxText(path string) string {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return ""
	}
	defer zr.Close()

	data := readZipMember(&zr.Reader, "word/document.xml")
	if data == nil {
		return ""
	}

	var b strings.Builder
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			// Paragraph boundaries become line breaks.
			if t.Name.Local == "p" {
				b.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// readZipMember returns the named member's bytes, or nil if absent or
// unreadable.
func readZipMember(zr *zip.Reader, name string) []byte {
	for _, file := range zr.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil
		}
		return data
	}
	return nil
}
