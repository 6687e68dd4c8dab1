package archive

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/SiddhantNarel/mini-search-engine/internal/crawler"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestReplaceAndPages(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	pages := []crawler.Page{
		{URL: "http://a.test/", Title: "Home", Text: "welcome home"},
		{URL: "http://a.test/about", Title: "About", Text: "about us"},
		{URL: "http://a.test/blog", Title: "Blog", Text: "latest posts"},
	}
	if err := a.Replace(ctx, pages); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := a.Pages(ctx)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if !reflect.DeepEqual(got, pages) {
		t.Errorf("round trip changed pages:\ngot  %v\nwant %v", got, pages)
	}
}

func TestReplaceDiscardsPreviousCrawl(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	first := []crawler.Page{
		{URL: "http://old.test/", Title: "Old", Text: "stale"},
		{URL: "http://old.test/2", Title: "Old 2", Text: "stale"},
	}
	if err := a.Replace(ctx, first); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	second := []crawler.Page{
		{URL: "http://new.test/", Title: "New", Text: "fresh"},
	}
	if err := a.Replace(ctx, second); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := a.Pages(ctx)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Errorf("old crawl survived a Replace: %v", got)
	}
	if n, err := a.Count(ctx); err != nil || n != 1 {
		t.Errorf("Count = %d, %v; want 1, nil", n, err)
	}
}

func TestEmptyArchive(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	got, err := a.Pages(ctx)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("fresh archive has %d pages", len(got))
	}
	if n, err := a.Count(ctx); err != nil || n != 0 {
		t.Errorf("Count = %d, %v; want 0, nil", n, err)
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	ctx := context.Background()

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	pages := []crawler.Page{{URL: "http://a.test/", Title: "Home", Text: "welcome"}}
	if err := a.Replace(ctx, pages); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	a, err = Open(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer a.Close()

	got, err := a.Pages(ctx)
	if err != nil {
		t.Fatalf("Pages after reopen: %v", err)
	}
	if !reflect.DeepEqual(got, pages) {
		t.Errorf("pages lost across reopen: %v", got)
	}
}
