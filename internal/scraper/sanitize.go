package scraper

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	keptTags = map[string]bool{
		"p": true, "ul": true, "ol": true, "li": true,
		"h1": true, "h2": true, "h3": true, "h4": true,
		"strong": true, "em": true, "b": true, "i": true,
	}
	blockTags = map[string]bool{
		"div": true, "section": true, "article": true, "header": true, "footer": true,
		"aside": true, "main": true, "table": true, "tr": true, "td": true, "th": true,
		"thead": true, "tbody": true,
	}
	droppedTags = map[string]bool{
		"script": true, "style": true, "iframe": true, "noscript": true, "head": true,
	}

	paragraphBreak = regexp.MustCompile(`\s*(?:\n\s*){2,}`)
	brRun          = regexp.MustCompile(`(?:<br>\s*){2,}`)
	wideSpace      = regexp.MustCompile(`\s{3,}`)
	anyTag         = regexp.MustCompile(`<[^>]+>`)
	emptyTags      []*regexp.Regexp
)

func init() {
	for _, t := range []string{"p", "li", "h1", "h2", "h3", "h4", "strong", "em", "b", "i", "ul", "ol"} {
		emptyTags = append(emptyTags, regexp.MustCompile(`<`+t+`>\s*</`+t+`>`))
	}
}

// Sanitize reduces an HTML fragment to semantic tags and plain http links.
// Layout containers become paragraph breaks; attributes are dropped.
func Sanitize(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var b strings.Builder
	writeClean(&b, doc.Find("body"))
	return tidy(b.String())
}

func writeClean(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		switch {
		case name == "#text":
			b.WriteString(html.EscapeString(s.Text()))
		case strings.HasPrefix(name, "#"), droppedTags[name]:
		case name == "br":
			b.WriteString("<br>")
		case name == "a":
			href, _ := s.Attr("href")
			if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
				b.WriteString(`<a href="` + html.EscapeString(href) + `" target="_blank" rel="noopener noreferrer">`)
				writeClean(b, s)
				b.WriteString("</a>")
				return
			}
			writeClean(b, s)
		case keptTags[name]:
			b.WriteString("<" + name + ">")
			writeClean(b, s)
			b.WriteString("</" + name + ">")
		case blockTags[name]:
			b.WriteString("\n")
			writeClean(b, s)
			b.WriteString("\n")
		default:
			writeClean(b, s)
		}
	})
}

func tidy(s string) string {
	s = paragraphBreak.ReplaceAllString(s, "</p><p>")
	s = strings.ReplaceAll(s, "\u200b", "")
	s = brRun.ReplaceAllString(s, "</p><p>")
	for changed := true; changed; {
		changed = false
		for _, re := range emptyTags {
			if next := re.ReplaceAllString(s, ""); next != s {
				s, changed = next, true
			}
		}
	}
	s = strings.ReplaceAll(s, "​", "")
	s = strings.TrimSpace(wideSpace.ReplaceAllString(s, " "))
	for strings.HasPrefix(s, "</p><p>") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "</p><p>"))
	}
	for strings.HasSuffix(s, "</p><p>") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "</p><p>"))
	}
	if s != "" && !strings.HasPrefix(s, "<") {
		s = "<p>" + s + "</p>"
	}
	return s
}

// PlainText flattens sanitised HTML to single-spaced text.
func PlainText(s string) string {
	s = anyTag.ReplaceAllString(s, " ")
	return collapseSpace(html.UnescapeString(s))
}
