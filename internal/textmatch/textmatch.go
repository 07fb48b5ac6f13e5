// Package textmatch implements the string similarity measures used by the
// material search engine: normalization, padded-word trigrams, Jaro-Winkler
// and a token-level typo-tolerant score built from them.
package textmatch

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// TokenFloor is the minimum token similarity for a query token to count
	// as matched in Similarity.
	TokenFloor = 0.7

	// shortTokenJW is the Jaro-Winkler score a query token shorter than four
	// runes must reach; short tokens produce too many accidental JW hits.
	shortTokenJW = 0.85

	coverageWeight      = 0.85
	trigramWeight       = 0.15
	looseCoverageWeight = 0.6
	looseTrigramWeight  = 0.4
)

// Normalize lowercases s, folds accents, trims it and collapses internal
// whitespace to single spaces.
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// FoldRune folds r the way Normalize does: compatibility decomposition,
// combining marks dropped, lowercased. Ligatures fold to several runes and
// a lone combining mark folds to none.
func FoldRune(r rune) []rune {
	if r < utf8.RuneSelf {
		return []rune{unicode.ToLower(r)}
	}
	var out []rune
	for _, d := range norm.NFKD.String(string(r)) {
		if unicode.Is(unicode.Mn, d) {
			continue
		}
		out = append(out, unicode.ToLower(d))
	}
	return out
}

// Tokens splits a normalized string into alphanumeric words.
func Tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Trigrams returns the sorted, de-duplicated trigram set of s. Each word is
// padded with two leading blanks and one trailing blank, so short words and
// word starts carry weight.
func Trigrams(s string) []string {
	seen := make(map[string]struct{})
	for _, w := range Tokens(s) {
		r := []rune("  " + w + " ")
		for i := 0; i+3 <= len(r); i++ {
			seen[string(r[i:i+3])] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Dice returns the Sørensen-Dice coefficient of two sorted trigram sets.
func Dice(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			shared++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return 2 * float64(shared) / float64(len(a)+len(b))
}

// JaroWinkler returns the Jaro-Winkler similarity of a and b in [0, 1].
func JaroWinkler(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 && len(br) == 0 {
		return 1
	}
	if len(ar) == 0 || len(br) == 0 {
		return 0
	}

	window := max(len(ar), len(br))/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, len(ar))
	bMatched := make([]bool, len(br))
	matches := 0
	for i := range ar {
		lo := max(0, i-window)
		hi := min(len(br)-1, i+window)
		for j := lo; j <= hi; j++ {
			if bMatched[j] || ar[i] != br[j] {
				continue
			}
			aMatched[i] = true
			bMatched[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	halfTranspositions := 0
	k := 0
	for i := range ar {
		if !aMatched[i] {
			continue
		}
		for !bMatched[k] {
			k++
		}
		if ar[i] != br[k] {
			halfTranspositions++
		}
		k++
	}

	m := float64(matches)
	jaro := (m/float64(len(ar)) + m/float64(len(br)) + (m-float64(halfTranspositions)/2)/m) / 3

	prefix := 0
	for prefix < min(4, len(ar), len(br)) && ar[prefix] == br[prefix] {
		prefix++
	}
	return jaro + float64(prefix)*0.1*(1-jaro)
}

// abbreviation scores q as an abbreviation of t: same first rune and every
// rune of q appears in t in order ("skt" for "socket").
func abbreviation(q, t string) float64 {
	qn, tn := utf8.RuneCountInString(q), utf8.RuneCountInString(t)
	if qn < 2 || qn >= tn {
		return 0
	}
	qr, tr := []rune(q), []rune(t)
	if qr[0] != tr[0] {
		return 0
	}
	i := 0
	for _, r := range tr {
		if i < len(qr) && qr[i] == r {
			i++
		}
	}
	if i < len(qr) {
		return 0
	}
	return 0.6 + 0.3*float64(qn)/float64(tn)
}

// TokenSimilarity compares a single query token against a single candidate
// token, both normalized.
func TokenSimilarity(q, t string) float64 {
	if q == t {
		return 1
	}
	qn, tn := utf8.RuneCountInString(q), utf8.RuneCountInString(t)
	if strings.HasPrefix(t, q) {
		return 0.9 + 0.1*float64(qn)/float64(tn)
	}
	jw := JaroWinkler(q, t)
	if qn < 4 && jw < shortTokenJW {
		jw = 0
	}
	return max(jw, abbreviation(q, t))
}

// Prepared is a normalized string with its tokens and trigram set
// precomputed, so corpus entries are analyzed once.
type Prepared struct {
	Text     string
	Tokens   []string
	Trigrams []string
}

// Prepare normalizes s and precomputes its tokens and trigrams.
func Prepare(s string) Prepared {
	n := Normalize(s)
	return Prepared{Text: n, Tokens: Tokens(n), Trigrams: Trigrams(n)}
}

// queryTokens drops single-rune tokens unless nothing else is left.
func queryTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if utf8.RuneCountInString(t) > 1 {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return tokens
	}
	return out
}

func bestToken(q string, candidates []string) float64 {
	best := 0.0
	for _, t := range candidates {
		if s := TokenSimilarity(q, t); s > best {
			best = s
			if best == 1 {
				break
			}
		}
	}
	return best
}

// Similarity is the typo-tolerant score of a query against a candidate.
// Query tokens whose best candidate token scores below TokenFloor count as
// unmatched; a candidate with no matched token scores zero.
func Similarity(q, c Prepared) float64 {
	tokens := queryTokens(q.Tokens)
	if len(tokens) == 0 || len(c.Tokens) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range tokens {
		if s := bestToken(t, c.Tokens); s >= TokenFloor {
			sum += s
		}
	}
	if sum == 0 {
		return 0
	}
	coverage := sum / float64(len(tokens))
	return coverageWeight*coverage + trigramWeight*Dice(q.Trigrams, c.Trigrams)
}

// LooseSimilarity scores without the per-token floor, so weak resemblances
// still rank. It backs "did you mean" suggestions.
func LooseSimilarity(q, c Prepared) float64 {
	tokens := queryTokens(q.Tokens)
	if len(tokens) == 0 || len(c.Tokens) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range tokens {
		sum += bestToken(t, c.Tokens)
	}
	coverage := sum / float64(len(tokens))
	return looseCoverageWeight*coverage + looseTrigramWeight*Dice(q.Trigrams, c.Trigrams)
}
