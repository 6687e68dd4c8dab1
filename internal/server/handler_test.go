package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SiddhantNarel/mini-search-engine/internal/archive"
	"github.com/SiddhantNarel/mini-search-engine/internal/crawler"
	"github.com/SiddhantNarel/mini-search-engine/internal/engine"
	"github.com/SiddhantNarel/mini-search-engine/internal/index"
	"github.com/SiddhantNarel/mini-search-engine/pkg/config"
)

func newTestServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading default config: %v", err)
	}
	dir := t.TempDir()
	cfg.Index.DataDir = dir
	cfg.Index.IndexFile = filepath.Join(dir, "index.json")
	cfg.Index.SampleFile = filepath.Join(dir, "sample_index.json")

	ix := index.New(cfg.Index.SnippetLength)
	ix.Add("Cat page", "http://a.test/cat", "The cat sat on the mat")
	ix.Add("Dog page", "http://b.test/dog", "Dogs chase cats")
	if err := ix.Save(cfg.Index.IndexFile); err != nil {
		t.Fatalf("saving test index: %v", err)
	}

	eng := engine.New(nil, cfg.Index.IndexFile, cfg.Index.SampleFile)
	h := NewHandler(eng, nil, nil, cfg, nil)
	srv := httptest.NewServer(New(cfg, h, nil, nil).Handler)
	t.Cleanup(srv.Close)
	return srv, h
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s response: %v", url, err)
		}
	}
	return resp
}

func TestAPISearch(t *testing.T) {
	srv, _ := newTestServer(t)

	var body struct {
		Query   string          `json:"query"`
		Results []engine.Result `json:"results"`
	}
	resp := getJSON(t, srv.URL+"/api/search?q=cat", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body.Query != "cat" {
		t.Errorf("echoed query = %q, want cat", body.Query)
	}
	if len(body.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(body.Results))
	}
	if body.Results[0].DocID != "doc_0" {
		t.Errorf("first result = %s, want doc_0", body.Results[0].DocID)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Errorf("X-Request-ID header missing")
	}
}

func TestAPISearchTopK(t *testing.T) {
	srv, _ := newTestServer(t)

	var body struct {
		Results []engine.Result `json:"results"`
	}
	if resp := getJSON(t, srv.URL+"/api/search?q=cat&top_k=1", &body); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(body.Results) != 1 {
		t.Errorf("top_k=1 returned %d results", len(body.Results))
	}

	// Oversized top_k is capped, not rejected.
	if resp := getJSON(t, srv.URL+"/api/search?q=cat&top_k=100000", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("huge top_k: status = %d, want 200", resp.StatusCode)
	}
}

func TestAPISearchBadTopK(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, raw := range []string{"abc", "-1", "1.5"} {
		var body struct {
			Error string `json:"error"`
		}
		resp := getJSON(t, srv.URL+"/api/search?q=cat&top_k="+raw, &body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("top_k=%s: status = %d, want 400", raw, resp.StatusCode)
		}
		if body.Error == "" {
			t.Errorf("top_k=%s: error message missing", raw)
		}
	}
}

func TestAPISearchEmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	var body struct {
		Query   string          `json:"query"`
		Results []engine.Result `json:"results"`
	}
	resp := getJSON(t, srv.URL+"/api/search", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(body.Results) != 0 {
		t.Errorf("empty query returned %d results", len(body.Results))
	}
}

func TestAPIStats(t *testing.T) {
	srv, _ := newTestServer(t)

	var body struct {
		Documents       int  `json:"documents"`
		Terms           int  `json:"terms"`
		CrawlInProgress bool `json:"crawl_in_progress"`
	}
	resp := getJSON(t, srv.URL+"/api/stats", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body.Documents != 2 || body.Terms != 5 {
		t.Errorf("stats = %+v, want 2 documents and 5 terms", body)
	}
	if body.CrawlInProgress {
		t.Errorf("crawl_in_progress = true on an idle server")
	}
}

func TestAPICacheStatsDisabled(t *testing.T) {
	srv, _ := newTestServer(t)

	var body struct {
		Status string `json:"status"`
	}
	resp := getJSON(t, srv.URL+"/api/cache/stats", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body.Status != "disabled" {
		t.Errorf("status = %q, want disabled", body.Status)
	}
}

func TestAPICrawlValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", "{not json", http.StatusBadRequest},
		{"missing seed", `{}`, http.StatusBadRequest},
		{"empty seed", `{"seed_url": ""}`, http.StatusBadRequest},
		{"negative depth", `{"seed_url": "http://a.test/", "max_depth": -1}`, http.StatusBadRequest},
		{"negative pages", `{"seed_url": "http://a.test/", "max_pages": -5}`, http.StatusBadRequest},
		{"zero pages", `{"seed_url": "http://a.test/", "max_pages": 0}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/crawl", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestAPICrawlConflict(t *testing.T) {
	srv, h := newTestServer(t)

	h.crawling.Store(true)
	defer h.crawling.Store(false)

	resp, err := http.Post(srv.URL+"/api/crawl", "application/json",
		strings.NewReader(`{"seed_url": "http://a.test/"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409 while a crawl is running", resp.StatusCode)
	}
}

// A dead or typo'd seed yields zero pages without a crawl error. The rebuild
// must not replace the live index or the archive with nothing.
func TestRunCrawlKeepsIndexOnEmptyCrawl(t *testing.T) {
	_, h := newTestServer(t)

	arc, err := archive.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer arc.Close()
	archived := []crawler.Page{{URL: "http://a.test/", Title: "Kept", Text: "kept page"}}
	if err := arc.Replace(context.Background(), archived); err != nil {
		t.Fatalf("seeding archive: %v", err)
	}
	h.archive = arc

	dead := httptest.NewServer(http.NotFoundHandler())
	seed := dead.URL
	dead.Close()

	crawlCfg := h.cfg.Crawler
	crawlCfg.Delay = 0
	h.runCrawl(crawlCfg, seed)

	if stats := h.engine.Stats(); stats.Documents != 2 {
		t.Errorf("documents = %d after empty crawl, want the 2 already indexed", stats.Documents)
	}
	ix, err := index.Load(h.cfg.Index.IndexFile)
	if err != nil {
		t.Fatalf("index file unreadable after empty crawl: %v", err)
	}
	if ix.DocCount() != 2 {
		t.Errorf("persisted index has %d documents, want 2", ix.DocCount())
	}
	pages, err := arc.Pages(context.Background())
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if len(pages) != 1 || pages[0].Title != "Kept" {
		t.Errorf("archive overwritten by empty crawl: %v", pages)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	if resp := getJSON(t, srv.URL+"/health/live", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("liveness status = %d, want 200", resp.StatusCode)
	}
	// Readiness is degraded without Redis, which reports as unavailable.
	if resp := getJSON(t, srv.URL+"/health/ready", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readiness status = %d, want 503 with caching disabled", resp.StatusCode)
	}
}

func TestMethodRouting(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/search", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /api/search: status = %d, want 405", resp.StatusCode)
	}
}

func TestHTMLPages(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/", "/search?q=cat", "/crawl"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
			t.Errorf("GET %s: content type %q", path, ct)
		}
	}
}
