package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// selectText returns the trimmed text of the first element matching selector.
func selectText(doc *goquery.Document, selector string) (string, bool) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// selectLinks collects hrefs of anchors matching selector, or of anchors nested
// inside matching elements, resolved against base and de-duplicated in document order.
func selectLinks(doc *goquery.Document, base *url.URL, selector string) []string {
	var links []string
	seen := make(map[string]bool)

	add := func(a *goquery.Selection) {
		href, ok := a.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		if !seen[href] {
			seen[href] = true
			links = append(links, href)
		}
	}

	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "a" {
			add(s)
			return
		}
		s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			add(a)
		})
	})
	return links
}
