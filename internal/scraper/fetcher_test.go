package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, mux *http.ServeMux) (*Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	f := NewFetcher(Options{
		GreenhouseAPI: srv.URL,
		LeverAPI:      srv.URL,
		AshbyAPI:      srv.URL,
		APITimeout:    2 * time.Second,
		PageTimeout:   2 * time.Second,
	}, nil)
	return f, srv
}

func TestFetch_GreenhouseAPI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/boards/acme/jobs/4012", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Forward Deployed Engineer","content":"&lt;p&gt;Ship &amp;amp; support&lt;/p&gt;&lt;script&gt;x()&lt;/script&gt;"}`))
	})
	f, _ := newTestFetcher(t, mux)

	d, err := f.Fetch(context.Background(), "https://boards.greenhouse.io/acme/jobs/4012", "greenhouse")
	require.NoError(t, err)
	assert.Equal(t, "Forward Deployed Engineer", d.Title)
	assert.Equal(t, "Ship & support", d.Text)
	assert.Equal(t, "<p>Ship &amp; support</p>", d.HTML)
}

func TestFetch_LeverAPI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v0/postings/acme/0f3c9a2e-1111-2222-3333-444455556666", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"Solutions Engineer","descriptionPlain":"Work with customers.","lists":[{"text":"You have","content":"<li>Go</li><li>SQL</li>"}]}`))
	})
	f, _ := newTestFetcher(t, mux)

	d, err := f.Fetch(context.Background(), "https://jobs.lever.co/acme/0f3c9a2e-1111-2222-3333-444455556666", "")
	require.NoError(t, err)
	assert.Equal(t, "Solutions Engineer", d.Title)
	assert.Equal(t, "Work with customers. You have Go SQL", d.Text)
	assert.Contains(t, d.HTML, "<h3>You have</h3><ul><li>Go</li><li>SQL</li></ul>")
}

func TestFetch_APIMissFallsBackToPage(t *testing.T) {
	body := strings.Repeat("Customer facing engineering work. ", 10)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/boards/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	page := `<html><head><title> Acme | FDE </title></head><body>
		<div class="nav"><a href="/">Home</a></div>
		<div class="wrapper"><div class="posting"><p>` + body + `</p><a href="javascript:alert(1)">apply</a></div></div>
	</body></html>`
	mux.HandleFunc("/acme/jobs/77", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})
	f, srv := newTestFetcher(t, mux)

	d, err := f.Fetch(context.Background(), srv.URL+"/acme/jobs/77", "greenhouse")
	require.NoError(t, err)
	assert.Equal(t, "Acme | FDE", d.Title)
	assert.Contains(t, d.Text, "Customer facing engineering work.")
	assert.NotContains(t, d.HTML, "javascript")
	assert.Contains(t, d.Text, "apply")
}

func TestFetch_PageErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	mux.HandleFunc("/thin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div>too short</div></body></html>`))
	})
	f, srv := newTestFetcher(t, mux)

	_, err := f.Fetch(context.Background(), srv.URL+"/gone", "")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), srv.URL+"/thin", "")
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestExtractPosting_SourceSelector(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><head><title>Role</title></head><body>
		<div class="job-description"><p>` + strings.Repeat("x", 150) + `</p></div>
		<div>` + strings.Repeat("y ", 300) + `</div></body></html>`))
	require.NoError(t, err)

	p := extractPosting(doc.Selection, "workable")
	assert.Equal(t, "Role", p.title)
	assert.Contains(t, p.html, strings.Repeat("x", 150))
	assert.NotContains(t, p.html, "y y")

	p = extractPosting(doc.Selection, "")
	assert.Contains(t, p.html, "y y")
}

func TestSanitize(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"drops scripts and attributes": {
			in:   `<p class="x" onclick="evil()">Hi <strong>there</strong></p><script>bad()</script>`,
			want: `<p>Hi <strong>there</strong></p>`,
		},
		"keeps only http links": {
			in:   `<p><a href="https://acme.io/apply">Apply</a> or <a href="mailto:a@b.c">mail</a></p>`,
			want: `<p><a href="https://acme.io/apply" target="_blank" rel="noopener noreferrer">Apply</a> or mail</p>`,
		},
		"blocks become paragraphs": {
			in:   `<div>First</div><div>Second</div>`,
			want: `<p>First</p><p>Second</p>`,
		},
		"br runs become paragraphs": {
			in:   `One<br><br>Two`,
			want: `<p>One</p><p>Two</p>`,
		},
		"removes empty tags": {
			in:   `<p>  </p><ul><li></li></ul><p>Body</p>`,
			want: `<p>Body</p>`,
		},
		"empty": {in: "  ", want: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "a & b c", PlainText("<p>a &amp; b</p><p>c</p>"))
}
