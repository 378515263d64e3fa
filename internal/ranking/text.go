// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"strings"
	"unicode"
)

// stopwords are dropped from query terms. Generic build verbs are included
// because nearly every query carries one.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "were": true, "been": true, "be": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "must": true,
	"can": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true,
	"they": true, "my": true, "me": true, "how": true, "what": true, "which": true,
	"using": true, "use": true, "make": true, "build": true, "create": true,
	"app": true, "application": true, "tool": true,
}

// Tokenize lowercases s and splits it into word tokens. Characters common in
// technology names ('+', '#') stay inside tokens so "c++" and "c#" survive.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#')
	})
}

// Keywords returns the query's content words in order, without stopwords,
// single characters, or repeats.
func Keywords(query string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range Tokenize(query) {
		if len(tok) < 2 || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// queryTerms is the parsed form of a query used for matching.
type queryTerms struct {
	// terms holds keywords followed by keyword bigrams.
	terms []string

	// phrase is the whole query as a space-joined token sequence.
	phrase string
}

func parseQuery(query string) queryTerms {
	kw := Keywords(query)
	terms := append([]string(nil), kw...)
	for i := 0; i+1 < len(kw); i++ {
		terms = append(terms, kw[i]+" "+kw[i+1])
	}
	return queryTerms{
		terms:  terms,
		phrase: strings.Join(Tokenize(query), " "),
	}
}

// field is a tokenized record field padded with spaces so that term lookups
// match whole words only.
type field string

func newField(parts ...string) field {
	var toks []string
	for _, p := range parts {
		toks = append(toks, Tokenize(p)...)
	}
	if len(toks) == 0 {
		return ""
	}
	return field(" " + strings.Join(toks, " ") + " ")
}

func (f field) contains(term string) bool {
	if f == "" || term == "" {
		return false
	}
	return strings.Contains(string(f), " "+term+" ")
}

// overlap counts how many query terms appear in f.
func (f field) overlap(q queryTerms) int {
	n := 0
	for _, t := range q.terms {
		if f.contains(t) {
			n++
		}
	}
	return n
}
