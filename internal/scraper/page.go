package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// Description containers per source, tried in order.
var sourceSelectors = map[string][]string{
	"greenhouse":      {"#app_body .content", "#content", ".job__description"},
	"lever":           {".content .section-wrapper", ".posting-page .content"},
	"ashby":           {".ashby-job-posting-brief", "[data-testid='job-posting']"},
	"workable":        {".job-description", ".jobdesciption"},
	"smartrecruiters": {".job-description", ".jobad-description"},
	"recruitee":       {".offer-description", ".job-description"},
	"teamtailor":      {".description", ".job-ad__description"},
}

const (
	selectorMinHTML = 100
	blockMinText    = 200
)

func (f *Fetcher) page(ctx context.Context, jobURL, source string) (posting, error) {
	if ctx.Err() != nil {
		return posting{}, ctx.Err()
	}

	c := colly.NewCollector(colly.UserAgent(UserAgent))
	c.SetRequestTimeout(f.opts.PageTimeout)

	var (
		out    posting
		reqErr error
	)
	c.OnRequest(func(r *colly.Request) {
		for k, v := range httpHeaders() {
			r.Headers.Set(k, v)
		}
		r.Headers.Set("Accept", "text/html")
	})
	c.OnHTML("html", func(e *colly.HTMLElement) {
		out = extractPosting(e.DOM, source)
	})
	c.OnError(func(_ *colly.Response, err error) {
		reqErr = err
	})

	if err := c.Visit(jobURL); err != nil {
		return posting{}, err
	}
	c.Wait()
	if reqErr != nil {
		return posting{}, reqErr
	}
	if strings.TrimSpace(out.html) == "" {
		return posting{}, ErrNoContent
	}
	return out, nil
}

// extractPosting tries the source's selectors, then falls back to the
// innermost div carrying the most text.
func extractPosting(doc *goquery.Selection, source string) posting {
	out := posting{title: collapseSpace(doc.Find("title").First().Text())}

	for _, sel := range sourceSelectors[source] {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if h, err := s.Html(); err == nil && len(h) > selectorMinHTML {
			out.html = h
			return out
		}
	}

	best := blockMinText
	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		if s.Find("div").Length() > 0 {
			return
		}
		if n := len(collapseSpace(s.Text())); n > best {
			if h, err := s.Html(); err == nil {
				best = n
				out.html = h
			}
		}
	})
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
