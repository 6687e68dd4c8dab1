// Package engine exposes the public query API. It owns the lifecycle of the
// in-memory index snapshot: on construction it walks an ordered chain of
// candidate index files and loads the first one that works, degrading to an
// empty index when none is usable.
package engine

import (
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"

	"github.com/SiddhantNarel/mini-search-engine/internal/index"
	"github.com/SiddhantNarel/mini-search-engine/internal/ranker"
	"github.com/SiddhantNarel/mini-search-engine/internal/tokenizer"
	"github.com/SiddhantNarel/mini-search-engine/pkg/logger"
	"github.com/SiddhantNarel/mini-search-engine/pkg/metrics"
)

// Result is one ranked search hit, enriched with document metadata.
// Score is rounded to four decimals for display stability; accumulation
// happens at full float64 precision before rounding.
type Result struct {
	DocID   string  `json:"doc_id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Stats reports the size of the currently loaded snapshot.
type Stats struct {
	Documents int `json:"documents"`
	Terms     int `json:"terms"`
}

// Engine answers queries against an immutable index snapshot. Any number of
// Search calls may run concurrently; Reload swaps the snapshot pointer, so
// in-flight queries keep reading the old (consistent, possibly stale) index
// until they finish.
type Engine struct {
	sources []string
	current atomic.Pointer[index.Index]
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Engine and loads the first usable index from sources, tried
// in order. A nil metrics receiver disables instrumentation. New never
// fails: with no loadable source the engine starts empty and every query
// returns no results.
func New(m *metrics.Metrics, sources ...string) *Engine {
	e := &Engine{
		sources: sources,
		metrics: m,
		logger:  logger.WithComponent("search-engine"),
	}
	e.Reload()
	return e
}

// Reload re-runs the source chain and atomically replaces the snapshot.
func (e *Engine) Reload() {
	e.current.Store(e.loadBestAvailable())
}

func (e *Engine) loadBestAvailable() *index.Index {
	for _, path := range e.sources {
		ix, err := index.Load(path)
		if err != nil {
			switch {
			case errors.Is(err, fs.ErrNotExist):
				e.logger.Debug("index file not present", "path", path)
				e.countLoad("missing")
			default:
				e.logger.Warn("ignoring unusable index file", "path", path, "error", err)
				e.countLoad("corrupt")
			}
			continue
		}
		e.logger.Info("index loaded",
			"path", path,
			"documents", ix.DocCount(),
			"terms", ix.TermCount(),
		)
		e.countLoad("loaded")
		return ix
	}
	e.logger.Warn("no index available, starting with an empty one",
		"sources", len(e.sources))
	e.countLoad("empty")
	return index.New(index.DefaultSnippetLength)
}

func (e *Engine) countLoad(outcome string) {
	if e.metrics != nil {
		e.metrics.IndexLoadsTotal.WithLabelValues(outcome).Inc()
	}
}

// Search tokenises the query with the same pipeline used at index time, ranks
// matching documents, and enriches the topK best with metadata. Blank
// queries and queries that normalise to zero terms return an empty slice.
// A negative topK is clamped to zero.
func (e *Engine) Search(query string, topK int) []Result {
	if topK < 0 {
		topK = 0
	}
	if strings.TrimSpace(query) == "" {
		return []Result{}
	}
	terms := tokenizer.Tokenize(query)
	if len(terms) == 0 {
		return []Result{}
	}

	snapshot := e.current.Load()
	ranked := ranker.Rank(terms, snapshot, topK)

	results := make([]Result, 0, len(ranked))
	for _, sd := range ranked {
		result := Result{
			DocID: index.FormatDocID(sd.DocID),
			Title: "Untitled",
			URL:   "#",
			Score: math.Round(sd.Score*10000) / 10000,
		}
		if doc, ok := snapshot.Doc(sd.DocID); ok {
			result.Title = doc.Title
			result.URL = doc.URL
			result.Snippet = doc.Snippet
		}
		results = append(results, result)
	}
	return results
}

// Stats returns document and term counts from the current snapshot.
func (e *Engine) Stats() Stats {
	snapshot := e.current.Load()
	return Stats{
		Documents: snapshot.DocCount(),
		Terms:     snapshot.TermCount(),
	}
}
