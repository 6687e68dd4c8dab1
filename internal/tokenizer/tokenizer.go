// Package tokenizer normalises raw text into index terms. It lower-cases
// input, splits on non-alphanumeric boundaries, drops short words and
// stop-words, and applies a single-pass suffix-stripping stemmer.
//
// The same pipeline runs on documents at index time and on queries at search
// time; ranking depends on both sides producing identical terms.
package tokenizer

import (
	"strings"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {},
	"by": {}, "from": {}, "is": {}, "it": {}, "its": {}, "be": {}, "was": {},
	"are": {}, "were": {}, "been": {}, "has": {}, "have": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "shall": {}, "can": {}, "not": {},
	"no": {}, "nor": {}, "so": {}, "yet": {}, "both": {}, "either": {},
	"neither": {}, "as": {}, "up": {}, "out": {}, "about": {}, "into": {},
	"than": {}, "then": {}, "that": {}, "this": {}, "these": {}, "those": {},
	"which": {}, "who": {}, "whom": {}, "what": {}, "when": {}, "where": {},
	"why": {}, "how": {}, "all": {}, "each": {}, "every": {}, "any": {},
	"some": {}, "such": {}, "more": {}, "most": {}, "also": {}, "over": {},
	"under": {}, "again": {}, "further": {}, "once": {}, "here": {},
	"there": {}, "just": {}, "too": {}, "very": {}, "own": {}, "same": {},
	"other": {}, "only": {}, "even": {}, "after": {}, "before": {},
	"during": {}, "while": {}, "because": {}, "although": {}, "though": {},
	"since": {}, "until": {}, "unless": {}, "between": {}, "through": {},
	"i": {}, "me": {}, "my": {}, "we": {}, "our": {}, "you": {}, "your": {},
	"he": {}, "him": {}, "his": {}, "she": {}, "her": {}, "they": {},
	"them": {}, "their": {}, "us": {}, "s": {}, "t": {},
}

// suffixRules is scanned in order; the first rule whose stripped result keeps
// length >= minStemLen wins. A matching rule with a too-short result falls
// through to later rules. Longer suffixes come first.
var suffixRules = []struct {
	suffix      string
	replacement string
}{
	{"ational", "ate"},
	{"tional", "tion"},
	{"enci", "ence"},
	{"anci", "ance"},
	{"izer", "ize"},
	{"ising", "ise"},
	{"izing", "ize"},
	{"nesses", "ness"},
	{"ness", ""},
	{"ments", "ment"},
	{"ment", ""},
	{"ings", "ing"},
	{"ing", ""},
	{"edly", ""},
	{"ingly", ""},
	{"ies", "y"},
	{"ied", "y"},
	{"sses", "ss"},
	{"tions", "te"},
	{"tion", "te"},
	{"ers", "er"},
	{"ly", ""},
	{"ed", ""},
	{"er", ""},
	{"es", ""},
	{"s", ""},
}

const minStemLen = 3

// Tokenize converts raw text into an ordered slice of normalised terms.
//
// Pipeline: lowercase, replace every non [a-z0-9] byte with a space, split on
// whitespace, drop words shorter than 2 characters, drop stop-words, stem.
// The slice index of each term is its token position; positions are recorded
// against this normalised sequence, not the raw text.
func Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte(' ')
		}
	}
	words := strings.Fields(b.String())
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		tokens = append(tokens, Stem(word))
	}
	return tokens
}

// Stem applies the suffix-stripping rules to a single lowercase word. Words
// of length <= 3 are returned unchanged. Stemming is single-pass: the result
// is never re-stemmed.
func Stem(word string) string {
	if len(word) <= minStemLen {
		return word
	}
	for _, rule := range suffixRules {
		if !strings.HasSuffix(word, rule.suffix) {
			continue
		}
		stemmed := word[:len(word)-len(rule.suffix)] + rule.replacement
		if len(stemmed) >= minStemLen {
			return stemmed
		}
	}
	return word
}
