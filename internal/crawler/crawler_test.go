package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SiddhantNarel/mini-search-engine/pkg/config"
)

func testConfig() config.CrawlerConfig {
	return config.CrawlerConfig{
		MaxDepth:       2,
		MaxPages:       50,
		Delay:          0,
		RequestTimeout: 5 * time.Second,
		UserAgent:      "MiniSearchBot/1.0",
	}
}

// testSite serves a small fixed site:
//
//	/        -> /a, /b
//	/a       -> /deep
//	/b       (leaf)
//	/deep    (leaf, depth 2)
//	/blocked (disallowed by robots.txt)
//	/pdf     (non-HTML content type)
func testSite(robots string) *httptest.Server {
	mux := http.NewServeMux()
	page := func(title, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html><head><title>" + title + "</title>" +
				"<script>var x = 1;</script></head><body>" + body + "</body></html>"))
		}
	}
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		if robots == "" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(robots))
	})
	mux.Handle("/", page("Home", `welcome home <a href="/a">a</a> <a href="/b">b</a> <a href="/blocked">x</a> <a href="/pdf">p</a> <a href="https://elsewhere.test/off">off</a>`))
	mux.Handle("/a", page("Page A", `alpha content <a href="/deep">deeper</a>`))
	mux.Handle("/b", page("Page B", `beta content`))
	mux.Handle("/deep", page("Deep", `deep content <a href="/deeper-still">too far</a>`))
	mux.Handle("/deeper-still", page("Too Deep", `should never be fetched`))
	mux.Handle("/blocked", page("Blocked", `secret`))
	mux.HandleFunc("/pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	})
	return httptest.NewServer(mux)
}

func urlsOf(pages []Page) []string {
	urls := make([]string, len(pages))
	for i, p := range pages {
		urls[i] = p.URL
	}
	return urls
}

func TestCrawlFollowsLinksBreadthFirst(t *testing.T) {
	srv := testSite("")
	defer srv.Close()

	c := New(testConfig(), nil)
	pages, err := c.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	// No robots.txt here, so /blocked is fair game; /pdf fails the content
	// type check and /deep arrives last at depth 2.
	want := []string{srv.URL + "/", srv.URL + "/a", srv.URL + "/b", srv.URL + "/blocked", srv.URL + "/deep"}
	got := urlsOf(pages)
	if len(got) != len(want) {
		t.Fatalf("crawled %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("page %d = %s, want %s", i, got[i], want[i])
		}
	}
	if pages[0].Title != "Home" {
		t.Errorf("title = %q, want Home", pages[0].Title)
	}
	if !strings.Contains(pages[0].Text, "welcome home") {
		t.Errorf("text missing body words: %q", pages[0].Text)
	}
	if strings.Contains(pages[0].Text, "var x") {
		t.Errorf("script content leaked into text: %q", pages[0].Text)
	}
}

func TestCrawlHonoursRobots(t *testing.T) {
	srv := testSite("User-agent: *\nDisallow: /blocked\n")
	defer srv.Close()

	c := New(testConfig(), nil)
	pages, err := c.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	for _, u := range urlsOf(pages) {
		if strings.HasSuffix(u, "/blocked") {
			t.Errorf("crawled a disallowed URL: %s", u)
		}
	}
}

func TestCrawlDepthBound(t *testing.T) {
	srv := testSite("")
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxDepth = 1
	c := New(cfg, nil)
	pages, err := c.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	for _, u := range urlsOf(pages) {
		if strings.HasSuffix(u, "/deep") || strings.HasSuffix(u, "/deeper-still") {
			t.Errorf("depth bound ignored, fetched %s", u)
		}
	}
}

func TestCrawlPageBound(t *testing.T) {
	srv := testSite("")
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxPages = 2
	c := New(cfg, nil)
	pages, err := c.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(pages) != 2 {
		t.Errorf("crawled %d pages, want 2", len(pages))
	}
}

func TestCrawlStaysOnHost(t *testing.T) {
	srv := testSite("")
	defer srv.Close()

	c := New(testConfig(), nil)
	pages, err := c.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	for _, u := range urlsOf(pages) {
		if !strings.HasPrefix(u, srv.URL) {
			t.Errorf("left the seed host: %s", u)
		}
	}
}

func TestCrawlSkipsNonHTML(t *testing.T) {
	srv := testSite("")
	defer srv.Close()

	c := New(testConfig(), nil)
	pages, err := c.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	for _, u := range urlsOf(pages) {
		if strings.HasSuffix(u, "/pdf") {
			t.Errorf("non-HTML response was kept: %s", u)
		}
	}
}

func TestCrawlInvalidSeed(t *testing.T) {
	c := New(testConfig(), nil)
	for _, seed := range []string{"", "not a url", "example.com/no-scheme"} {
		if _, err := c.Crawl(context.Background(), seed); err == nil {
			t.Errorf("Crawl(%q) succeeded, want error", seed)
		}
	}
}

func TestCrawlCancellation(t *testing.T) {
	srv := testSite("")
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(testConfig(), nil)
	pages, err := c.Crawl(ctx, srv.URL+"/")
	if err == nil {
		t.Fatal("Crawl with cancelled context returned nil error")
	}
	if len(pages) != 0 {
		t.Errorf("cancelled before any fetch, got %d pages", len(pages))
	}
}

func TestCrawlOnPageCallback(t *testing.T) {
	srv := testSite("")
	defer srv.Close()

	var calls int
	c := New(testConfig(), nil)
	c.OnPage = func(fetched, max int, url string) {
		calls++
		if fetched != calls {
			t.Errorf("fetched = %d on call %d", fetched, calls)
		}
	}
	pages, err := c.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if calls != len(pages) {
		t.Errorf("OnPage called %d times for %d pages", calls, len(pages))
	}
}
