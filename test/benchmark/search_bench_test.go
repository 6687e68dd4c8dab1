package benchmark

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/SiddhantNarel/mini-search-engine/internal/engine"
	"github.com/SiddhantNarel/mini-search-engine/internal/ranker"
	"github.com/SiddhantNarel/mini-search-engine/internal/tokenizer"
)

// BenchmarkRank measures TF-IDF scoring and sorting at various corpus sizes.
func BenchmarkRank(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	terms := tokenizer.Tokenize("inverted indexes ranking")
	for _, n := range sizes {
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			ix := buildBenchIndex(n)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ranked := ranker.Rank(terms, ix, 10)
				_ = ranked
			}
		})
	}
}

// BenchmarkRankMultiTerm measures ranking cost as query length grows.
func BenchmarkRankMultiTerm(b *testing.B) {
	ix := buildBenchIndex(1000)
	queries := []struct {
		name  string
		query string
	}{
		{"terms_1", "ranking"},
		{"terms_3", "inverted indexes ranking"},
		{"terms_6", "search engines build inverted indexes mapping"},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			terms := tokenizer.Tokenize(q.query)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ranked := ranker.Rank(terms, ix, 10)
				_ = ranked
			}
		})
	}
}

// BenchmarkEngineSearch measures the full query path: tokenize, rank, and
// enrich with document metadata.
func BenchmarkEngineSearch(b *testing.B) {
	path := filepath.Join(b.TempDir(), "index.json")
	if err := buildBenchIndex(5000).Save(path); err != nil {
		b.Fatal(err)
	}
	eng := engine.New(nil, path)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results := eng.Search("inverted indexes ranking", 10)
		_ = results
	}
}

// BenchmarkEngineSearchParallel measures concurrent read throughput against a
// single loaded snapshot.
func BenchmarkEngineSearchParallel(b *testing.B) {
	path := filepath.Join(b.TempDir(), "index.json")
	if err := buildBenchIndex(5000).Save(path); err != nil {
		b.Fatal(err)
	}
	eng := engine.New(nil, path)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results := eng.Search("inverted indexes ranking", 10)
			_ = results
		}
	})
}
