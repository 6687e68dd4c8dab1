// Package ranker scores candidate documents for a query with TF-IDF.
//
// For each distinct query term present in the index:
//
//	idf = ln((totalDocs + 1) / (df + 1)) + 1
//	tf  = occurrences in doc / max(doc token count, 1)
//
// and a document's score is the sum of tf*idf over the query terms it
// contains. The smoothed idf stays finite and positive even when a term
// appears in every document, or the index is empty.
package ranker

import (
	"math"
	"sort"

	"github.com/SiddhantNarel/mini-search-engine/internal/index"
)

// ScoredDoc pairs an internal doc id with its accumulated relevance score.
type ScoredDoc struct {
	DocID int
	Score float64
}

// Rank scores every document containing at least one query term and returns
// the topK best, sorted by score descending. It is a pure function of its
// inputs. Ties break on ascending doc id so results are reproducible.
// Documents matching no query term are excluded rather than scored zero.
func Rank(queryTerms []string, ix *index.Index, topK int) []ScoredDoc {
	if topK <= 0 {
		return []ScoredDoc{}
	}

	totalDocs := ix.DocCount()
	scores := make(map[int]float64)
	seen := make(map[string]struct{}, len(queryTerms))

	for _, term := range queryTerms {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}

		postings := ix.Postings(term)
		if len(postings) == 0 {
			// Term absent from every document; contributes nothing.
			continue
		}
		df := ix.DocFreq(term)
		idf := math.Log(float64(totalDocs+1)/float64(df+1)) + 1

		for docID, positions := range postings {
			doc, ok := ix.Doc(docID)
			if !ok {
				continue
			}
			length := doc.Length
			if length < 1 {
				length = 1
			}
			tf := float64(len(positions)) / float64(length)
			scores[docID] += tf * idf
		}
	}

	ranked := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		ranked = append(ranked, ScoredDoc{DocID: docID, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
