package extract

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfText concatenates the text layer of every page. The pdf package can
// panic on malformed files, so the whole extraction runs under a recover.
func pdfText(path string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var b strings.Builder
	totalPages := r.NumPage()
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Extract what we can from the remaining pages.
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
