// Package scraper fetches live job posting details. Greenhouse, Lever and
// Ashby postings go through their public JSON APIs; everything else, and any
// API miss, falls back to scraping the page HTML.
package scraper

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fdeworld/internal/domain/job"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const UserAgent = "Mozilla/5.0 (compatible; FDEWorld/1.0; +https://fdeworld.com)"

var ErrNoContent = errors.New("no posting content found")

type Options struct {
	GreenhouseAPI string
	LeverAPI      string
	AshbyAPI      string
	APITimeout    time.Duration
	PageTimeout   time.Duration
}

func DefaultOptions() Options {
	return Options{
		GreenhouseAPI: "https://boards-api.greenhouse.io",
		LeverAPI:      "https://api.lever.co",
		AshbyAPI:      "https://api.ashbyhq.com",
		APITimeout:    8 * time.Second,
		PageTimeout:   10 * time.Second,
	}
}

type Fetcher struct {
	opts   Options
	client *http.Client
	logger *zap.SugaredLogger
}

func NewFetcher(opts Options, logger *zap.SugaredLogger) *Fetcher {
	def := DefaultOptions()
	if opts.GreenhouseAPI == "" {
		opts.GreenhouseAPI = def.GreenhouseAPI
	}
	if opts.LeverAPI == "" {
		opts.LeverAPI = def.LeverAPI
	}
	if opts.AshbyAPI == "" {
		opts.AshbyAPI = def.AshbyAPI
	}
	if opts.APITimeout <= 0 {
		opts.APITimeout = def.APITimeout
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = def.PageTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Fetcher{
		opts:   opts,
		client: &http.Client{Timeout: opts.APITimeout},
		logger: logger,
	}
}

// posting is an ATS or page result before sanitising.
type posting struct {
	title string
	html  string
}

// Fetch returns the posting's title and plain text. source is a hint
// (greenhouse, lever, ashby, workable, ...) and may be empty.
func (f *Fetcher) Fetch(ctx context.Context, jobURL, source string) (job.Detail, error) {
	source = strings.ToLower(strings.TrimSpace(source))

	var (
		p   posting
		err error
		ok  bool
	)
	switch {
	case source == "greenhouse" || strings.Contains(jobURL, "greenhouse.io"):
		p, ok, err = f.greenhouse(ctx, jobURL)
	case source == "lever" || strings.Contains(jobURL, "lever.co"):
		p, ok, err = f.lever(ctx, jobURL)
	case source == "ashby" || strings.Contains(jobURL, "ashbyhq.com"):
		p, ok, err = f.ashby(ctx, jobURL)
	}
	if err != nil {
		f.logger.Debugw("[Detail] ATS API miss, scraping page", "url", jobURL, "source", source, "error", err)
	}
	if !ok || strings.TrimSpace(p.html) == "" {
		p, err = f.page(ctx, jobURL, source)
		if err != nil {
			return job.Detail{}, err
		}
	}

	clean := Sanitize(p.html)
	text := PlainText(clean)
	if text == "" {
		return job.Detail{}, ErrNoContent
	}
	return job.Detail{
		URL:    jobURL,
		Source: source,
		Title:  strings.TrimSpace(p.title),
		Text:   text,
		HTML:   clean,
	}, nil
}
