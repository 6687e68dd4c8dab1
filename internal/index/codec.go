package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SiddhantNarel/mini-search-engine/pkg/errors"
)

// indexFile is the serialised on-disk form. Doc ids are rendered as
// "doc_<N>" strings with N the zero-based build order.
type indexFile struct {
	Index     map[string]map[string][]int `json:"index"`
	DocFreq   map[string]int              `json:"doc_freq"`
	Documents map[string]docMeta          `json:"documents"`
}

type docMeta struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Length  int    `json:"length"`
}

// FormatDocID renders an internal doc id in its serialised string form.
func FormatDocID(docID int) string {
	return fmt.Sprintf("doc_%d", docID)
}

// ParseDocID parses a serialised "doc_<N>" id back to its internal form.
func ParseDocID(s string) (int, error) {
	num, ok := strings.CutPrefix(s, "doc_")
	if !ok {
		return 0, fmt.Errorf("doc id %q lacks doc_ prefix", s)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("doc id %q has invalid sequence number", s)
	}
	return n, nil
}

// Save writes the index to path as a single JSON document. The write is
// atomic: content goes to a temp file in the same directory which is renamed
// over the target on success, so readers never observe a partial index.
func (ix *Index) Save(path string) error {
	out := indexFile{
		Index:     make(map[string]map[string][]int, len(ix.postings)),
		DocFreq:   make(map[string]int, len(ix.docFreq)),
		Documents: make(map[string]docMeta, len(ix.docs)),
	}
	for term, docs := range ix.postings {
		entry := make(map[string][]int, len(docs))
		for docID, positions := range docs {
			entry[FormatDocID(docID)] = positions
		}
		out.Index[term] = entry
	}
	for term, df := range ix.docFreq {
		out.DocFreq[term] = df
	}
	for docID, doc := range ix.docs {
		out.Documents[FormatDocID(docID)] = docMeta{
			Title:   doc.Title,
			URL:     doc.URL,
			Snippet: doc.Snippet,
			Length:  doc.Length,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating index directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing index file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing index file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming index file: %w", err)
	}
	return nil
}

// Load reads a serialised index from path and rebuilds the in-memory form.
// A missing file surfaces as an error wrapping fs.ErrNotExist so callers can
// advance their source chain; malformed or structurally invalid content
// returns an error wrapping errors.ErrCorruptIndex and never panics.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}

	var in indexFile
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", errors.ErrCorruptIndex, path, err)
	}

	ix := New(DefaultSnippetLength)
	ix.docs = make([]Document, len(in.Documents))
	seen := make([]bool, len(in.Documents))
	for docKey, meta := range in.Documents {
		docID, err := ParseDocID(docKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrCorruptIndex, err)
		}
		if docID >= len(in.Documents) || seen[docID] {
			return nil, fmt.Errorf("%w: doc ids are not a dense sequence (got %s among %d documents)",
				errors.ErrCorruptIndex, docKey, len(in.Documents))
		}
		if meta.Length < 0 {
			return nil, fmt.Errorf("%w: document %s has negative length", errors.ErrCorruptIndex, docKey)
		}
		seen[docID] = true
		ix.docs[docID] = Document{
			Title:   meta.Title,
			URL:     meta.URL,
			Snippet: meta.Snippet,
			Length:  meta.Length,
		}
	}

	for term, docs := range in.Index {
		if len(docs) == 0 {
			return nil, fmt.Errorf("%w: term %q has no postings", errors.ErrCorruptIndex, term)
		}
		entry := make(map[int][]int, len(docs))
		for docKey, positions := range docs {
			docID, err := ParseDocID(docKey)
			if err != nil {
				return nil, fmt.Errorf("%w: term %q: %v", errors.ErrCorruptIndex, term, err)
			}
			if docID >= len(ix.docs) {
				return nil, fmt.Errorf("%w: term %q references unknown document %s",
					errors.ErrCorruptIndex, term, docKey)
			}
			if len(positions) == 0 {
				return nil, fmt.Errorf("%w: term %q has an empty position list for %s",
					errors.ErrCorruptIndex, term, docKey)
			}
			for _, pos := range positions {
				if pos < 0 {
					return nil, fmt.Errorf("%w: term %q has a negative position in %s",
						errors.ErrCorruptIndex, term, docKey)
				}
			}
			entry[docID] = positions
		}
		ix.postings[term] = entry
	}

	// doc_freq must agree with the postings exactly; a divergence would skew
	// every subsequent ranking, so it is rejected at the boundary.
	if len(in.DocFreq) != len(ix.postings) {
		return nil, fmt.Errorf("%w: doc_freq has %d terms, index has %d",
			errors.ErrCorruptIndex, len(in.DocFreq), len(ix.postings))
	}
	for term, df := range in.DocFreq {
		if df <= 0 {
			return nil, fmt.Errorf("%w: doc_freq[%q]=%d", errors.ErrCorruptIndex, term, df)
		}
		if df != len(ix.postings[term]) {
			return nil, fmt.Errorf("%w: doc_freq[%q]=%d but %d documents contain it",
				errors.ErrCorruptIndex, term, df, len(ix.postings[term]))
		}
		ix.docFreq[term] = df
	}

	return ix, nil
}
