package source

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanText collapses whitespace (including non-breaking spaces) to single
// spaces and trims the ends.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// StripHTML reduces an HTML fragment to its visible text. Feed descriptions
// and mail bodies arrive as markup; filters and scoring want plain text.
func StripHTML(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return CleanText(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanText(fragment)
	}
	return CleanText(doc.Text())
}
