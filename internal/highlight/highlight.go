// Package highlight marks the parts of display text that matched a query.
// It returns structured spans rather than markup, leaving styling to the
// rendering layer.
package highlight

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/textmatch"
)

// Terms splits a query into folded terms, lowercased with accents removed
// as the matcher does. Single-rune terms are dropped.
func Terms(query string) []string {
	fields := strings.Fields(textmatch.Normalize(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			terms = append(terms, f)
		}
	}
	return terms
}

// folded is text folded rune by rune, with owner[i] the index of the
// original rune that produced folded rune i. vanished marks original runes
// that fold to nothing, such as combining accents.
type folded struct {
	runes    []rune
	owner    []int
	vanished []bool
}

func fold(tr []rune) folded {
	f := folded{
		runes:    make([]rune, 0, len(tr)),
		owner:    make([]int, 0, len(tr)),
		vanished: make([]bool, len(tr)),
	}
	for i, r := range tr {
		out := textmatch.FoldRune(r)
		f.vanished[i] = len(out) == 0
		for _, fr := range out {
			f.runes = append(f.runes, fr)
			f.owner = append(f.owner, i)
		}
	}
	return f
}

// Highlight splits text into spans, flagging every occurrence of each query
// term. Comparison ignores case and accents, so "cable" marks "Câble".
// Terms are applied in query order; a rune covered by any term is matched.
// Joining the span texts yields text.
func Highlight(text, query string) []domain.Span {
	if text == "" {
		return []domain.Span{}
	}
	terms := Terms(query)
	if len(terms) == 0 {
		return []domain.Span{{Text: text}}
	}

	tr := []rune(text)
	f := fold(tr)
	marked := make([]bool, len(tr))
	found := false
	for _, term := range terms {
		pattern := []rune(term)
		for i := 0; i+len(pattern) <= len(f.runes); {
			if !slices.Equal(f.runes[i:i+len(pattern)], pattern) {
				i++
				continue
			}
			for j := i; j < i+len(pattern); j++ {
				marked[f.owner[j]] = true
			}
			found = true
			i += len(pattern)
		}
	}
	if !found {
		return []domain.Span{{Text: text}}
	}
	// A combining mark belongs to the letter before it.
	for i := 1; i < len(tr); i++ {
		if f.vanished[i] && marked[i-1] {
			marked[i] = true
		}
	}

	var spans []domain.Span
	start := 0
	for i := 1; i <= len(tr); i++ {
		if i == len(tr) || marked[i] != marked[start] {
			spans = append(spans, domain.Span{Text: string(tr[start:i]), Matched: marked[start]})
			start = i
		}
	}
	return spans
}

// Join concatenates span texts, wrapping matched spans in before and after.
func Join(spans []domain.Span, before, after string) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Matched {
			b.WriteString(before)
			b.WriteString(s.Text)
			b.WriteString(after)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// Matched returns the distinct matched span texts of Highlight(text, query)
// in order of appearance.
func Matched(text, query string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, s := range Highlight(text, query) {
		if !s.Matched {
			continue
		}
		key := strings.ToLower(s.Text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s.Text)
	}
	return out
}

// FuzzySnippets returns the words of text that each query term matched
// through typo tolerance, where the literal term does not occur. A term
// picks the best word containing its runes in order; failing that, the word
// with the highest token similarity, if it reaches textmatch.TokenFloor.
func FuzzySnippets(text, query string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	foldedWords := make([]string, len(words))
	for i, w := range words {
		foldedWords[i] = textmatch.Normalize(w)
	}

	var out []string
	seen := make(map[int]struct{})
	for _, term := range Terms(query) {
		idx := -1
		if matches := fuzzy.Find(term, foldedWords); len(matches) > 0 {
			idx = matches[0].Index
		} else {
			idx = closestWord(term, foldedWords)
		}
		if idx < 0 {
			continue
		}
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, words[idx])
	}
	return out
}

// closestWord returns the index of the word most similar to term, or -1
// when none reaches textmatch.TokenFloor.
func closestWord(term string, words []string) int {
	best, bestScore := -1, textmatch.TokenFloor
	for i, w := range words {
		for _, tok := range textmatch.Tokens(w) {
			if s := textmatch.TokenSimilarity(term, tok); s >= bestScore && (best < 0 || s > bestScore) {
				best, bestScore = i, s
			}
		}
	}
	return best
}
