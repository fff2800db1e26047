package extract

import (
	"archive/zip"
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	odtHeadingRe   = regexp.MustCompile(`<text:h[^>]*text:outline-level="(\d+)"[^>]*>`)
	odtHeadingEnd  = regexp.MustCompile(`</text:h>`)
	odtParaStart   = regexp.MustCompile(`<text:p[^>]*>`)
	odtParaEnd     = regexp.MustCompile(`</text:p>`)
	odtTabRe       = regexp.MustCompile(`<text:tab[^>]*/?>`)
	odtLineBreakRe = regexp.MustCompile(`<text:line-break[^>]*/?>`)
	odtAnyTagRe    = regexp.MustCompile(`<[^>]+>`)
)

// odtText opens the ODT zip container, reads content.xml and heuristically
// converts its structural tags to plain text: headings with outline levels
// 1-3 become Markdown prefixes, paragraphs become blank-line separators,
// tab and line-break tags become literal whitespace. All remaining tags are
// stripped.
func odtText(path string) string {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return ""
	}
	defer zr.Close()

	data := readZipMember(&zr.Reader, "content.xml")
	if data == nil {
		return ""
	}
	content := string(data)

	content = odtHeadingRe.ReplaceAllStringFunc(content, func(tag string) string {
		m := odtHeadingRe.FindStringSubmatch(tag)
		level, _ := strconv.Atoi(m[1])
		if level >= 1 && level <= 3 {
			return "\n\n" + strings.Repeat("#", level) + " "
		}
		return "\n\n"
	})
	content = odtHeadingEnd.ReplaceAllString(content, "\n\n")
	content = odtParaStart.ReplaceAllString(content, "")
	content = odtParaEnd.ReplaceAllString(content, "\n\n")
	content = odtTabRe.ReplaceAllString(content, "\t")
	content = odtLineBreakRe.ReplaceAllString(content, "\n")
	content = odtAnyTagRe.ReplaceAllString(content, "")

	content = html.UnescapeString(content)
	return strings.TrimSpace(collapseBlankLines(content))
}

// collapseBlankLines reduces runs of three or more newlines to exactly two.
func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
