// Package index builds and persists the inverted index at the heart of the
// search engine. An Index maps each term to per-document position lists,
// tracks per-term document frequency, and stores display metadata for every
// document.
//
// Documents are identified internally by dense ints assigned in ingestion
// order; the string form "doc_<N>" exists only in the serialised file.
package index

import (
	"strings"
	"unicode/utf8"

	"github.com/SiddhantNarel/mini-search-engine/internal/crawler"
	"github.com/SiddhantNarel/mini-search-engine/internal/tokenizer"
)

// DefaultSnippetLength is the snippet character budget used when no explicit
// length is configured.
const DefaultSnippetLength = 200

// Document holds the display metadata recorded for one ingested page.
// Length is the post-normalisation token count and is the TF denominator;
// it deliberately excludes stop-words.
type Document struct {
	Title   string
	URL     string
	Snippet string
	Length  int
}

// Index is the in-memory inverted index. It is built by Add calls and then
// treated as immutable: the query side only ever reads a finished Index.
//
// Invariants, enforced by the single mutation path in Add:
//   - a term key exists iff at least one document contains it;
//   - a doc id appears under a term iff its position list is non-empty;
//   - docFreq[t] always equals the number of doc ids under t.
type Index struct {
	postings   map[string]map[int][]int
	docFreq    map[string]int
	docs       []Document
	snippetLen int
}

// New creates an empty Index with the given snippet character budget.
// A non-positive length falls back to DefaultSnippetLength.
func New(snippetLen int) *Index {
	if snippetLen <= 0 {
		snippetLen = DefaultSnippetLength
	}
	return &Index{
		postings:   make(map[string]map[int][]int),
		docFreq:    make(map[string]int),
		snippetLen: snippetLen,
	}
}

// Add tokenises one document and folds it into the index, returning the
// assigned doc id. Metadata is always recorded, even for documents that
// normalise to zero tokens.
func (ix *Index) Add(title, url, text string) int {
	tokens := tokenizer.Tokenize(text)

	if title == "" {
		title = "Untitled"
	}
	docID := len(ix.docs)
	ix.docs = append(ix.docs, Document{
		Title:   title,
		URL:     url,
		Snippet: makeSnippet(text, ix.snippetLen),
		Length:  len(tokens),
	})

	for pos, term := range tokens {
		ix.addOccurrence(term, docID, pos)
	}
	return docID
}

// addOccurrence is the only writer of postings and docFreq, so the two can
// never diverge: docFreq is bumped exactly when a doc id first appears under
// a term.
func (ix *Index) addOccurrence(term string, docID, pos int) {
	docs, ok := ix.postings[term]
	if !ok {
		docs = make(map[int][]int)
		ix.postings[term] = docs
	}
	if _, seen := docs[docID]; !seen {
		ix.docFreq[term]++
	}
	docs[docID] = append(docs[docID], pos)
}

// Build creates a fresh index from crawled pages, assigning sequential doc
// ids starting at 0 in input order. It is the only bulk-ingestion path; a
// rebuild always starts empty rather than appending to a previous index.
func Build(pages []crawler.Page, snippetLen int) *Index {
	ix := New(snippetLen)
	for _, page := range pages {
		ix.Add(page.Title, page.URL, page.Text)
	}
	return ix
}

// Postings returns the doc id to position-list mapping for term, or nil if no
// document contains it. Callers must not mutate the returned map.
func (ix *Index) Postings(term string) map[int][]int {
	return ix.postings[term]
}

// DocFreq returns the number of distinct documents containing term.
func (ix *Index) DocFreq(term string) int {
	return ix.docFreq[term]
}

// Doc returns the metadata for a doc id.
func (ix *Index) Doc(docID int) (Document, bool) {
	if docID < 0 || docID >= len(ix.docs) {
		return Document{}, false
	}
	return ix.docs[docID], true
}

// DocCount returns the number of ingested documents.
func (ix *Index) DocCount() int {
	return len(ix.docs)
}

// TermCount returns the number of distinct terms in the index.
func (ix *Index) TermCount() int {
	return len(ix.postings)
}

// makeSnippet builds a short excerpt from the original, untokenised text:
// internal whitespace is collapsed, the text is cut at the last space before
// the character budget, and a running-on marker is appended when truncated.
// Spaceless text (CJK pages have no word separators) is cut at the nearest
// rune boundary instead, so a snippet is always valid UTF-8.
func makeSnippet(text string, length int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= length {
		return text
	}
	cut := strings.LastIndex(text[:length], " ")
	if cut == -1 {
		cut = length
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
	}
	return text[:cut] + "…"
}
