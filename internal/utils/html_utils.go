package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Excerpt returns the first maxLines non-empty lines of text from rendered
// poem HTML. Line breaks and paragraph ends both count as line ends.
func Excerpt(htmlStr string, maxLines int) string {
	if htmlStr == "" || maxLines <= 0 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, li, blockquote, h1, h2, h3, h4, h5, h6").Each(func(i int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := make([]string, 0, maxLines)
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == maxLines {
			break
		}
	}
	return strings.Join(lines, "\n")
}
