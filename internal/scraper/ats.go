package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

var (
	greenhousePath = regexp.MustCompile(`(?:/ts)?/([^/]+)/jobs/(\d+)`)
	leverPath      = regexp.MustCompile(`/([^/]+)/([a-f0-9-]+)`)
	ashbyPath      = regexp.MustCompile(`(?i)^/([^/]+)/([a-f0-9-]+)`)
)

func slugAndID(raw string, re *regexp.Regexp) (string, string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	m := re.FindStringSubmatch(u.Path)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// greenhouse serves https://boards.greenhouse.io/{slug}/jobs/{id} and the
// job-boards.greenhouse.io/ts/ variant.
func (f *Fetcher) greenhouse(ctx context.Context, jobURL string) (posting, bool, error) {
	slug, id, ok := slugAndID(jobURL, greenhousePath)
	if !ok {
		return posting{}, false, nil
	}
	var out struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	endpoint := fmt.Sprintf("%s/v1/boards/%s/jobs/%s", strings.TrimRight(f.opts.GreenhouseAPI, "/"), url.PathEscape(slug), id)
	if err := f.getJSON(ctx, endpoint, &out); err != nil {
		return posting{}, false, err
	}
	// The board API returns the description entity-encoded.
	return posting{title: out.Title, html: html.UnescapeString(out.Content)}, true, nil
}

func (f *Fetcher) lever(ctx context.Context, jobURL string) (posting, bool, error) {
	slug, id, ok := slugAndID(jobURL, leverPath)
	if !ok {
		return posting{}, false, nil
	}
	var out struct {
		Text             string `json:"text"`
		DescriptionPlain string `json:"descriptionPlain"`
		Lists            []struct {
			Text    string `json:"text"`
			Content string `json:"content"`
		} `json:"lists"`
		Additional string `json:"additional"`
	}
	endpoint := fmt.Sprintf("%s/v0/postings/%s/%s", strings.TrimRight(f.opts.LeverAPI, "/"), url.PathEscape(slug), id)
	if err := f.getJSON(ctx, endpoint, &out); err != nil {
		return posting{}, false, err
	}

	var b strings.Builder
	if out.DescriptionPlain != "" {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(out.DescriptionPlain), "\n", "<br>"))
		b.WriteString("</p>")
	}
	for _, l := range out.Lists {
		b.WriteString("<h3>" + html.EscapeString(l.Text) + "</h3><ul>" + l.Content + "</ul>")
	}
	if out.Additional != "" {
		b.WriteString("<div>" + out.Additional + "</div>")
	}
	return posting{title: out.Text, html: b.String()}, true, nil
}

func (f *Fetcher) ashby(ctx context.Context, jobURL string) (posting, bool, error) {
	slug, id, ok := slugAndID(jobURL, ashbyPath)
	if !ok {
		return posting{}, false, nil
	}
	var out struct {
		Title           string `json:"title"`
		DescriptionHTML string `json:"descriptionHtml"`
		DescriptionBody string `json:"descriptionBody"`
	}
	endpoint := fmt.Sprintf("%s/posting-api/job-board/%s/job-postings/%s", strings.TrimRight(f.opts.AshbyAPI, "/"), url.PathEscape(slug), id)
	if err := f.getJSON(ctx, endpoint, &out); err != nil {
		return posting{}, false, err
	}
	body := out.DescriptionHTML
	if body == "" {
		body = out.DescriptionBody
	}
	return posting{title: out.Title, html: body}, true, nil
}

func (f *Fetcher) getJSON(ctx context.Context, endpoint string, out any) error {
	b, err := httpGetWithRetry(ctx, f.client, endpoint, 1)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
