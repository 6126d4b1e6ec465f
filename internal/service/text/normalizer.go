// Package text cleans raw utterance transcripts before they reach the
// intent gate and the embedding cache. Everything here is a pure function of
// its input; no I/O, no state.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

// fillerTokens are hesitation markers and interjections that carry no
// semantic content in a voice transcript. Matched case-insensitively against
// whole tokens (multi-word fillers against token windows).
var fillerTokens = map[string]struct{}{
	"um": {}, "uh": {}, "uhm": {}, "er": {}, "ah": {}, "hmm": {}, "hm": {},
	"mhm": {}, "like": {}, "well": {}, "so": {}, "anyway": {}, "basically": {},
	"literally": {}, "actually": {}, "right": {},
}

var multiWordFillers = compileFillers(
	"you know", "i mean", "sort of", "kind of",
)

func compileFillers(phrases ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(phrases))
	for i, p := range phrases {
		res[i] = regexp.MustCompile(`(?i)\b` + strings.ReplaceAll(p, " ", `\s+`) + `\b`)
	}
	return res
}

var whitespace = regexp.MustCompile(`\s+`)

var repeatablePunct = map[rune]struct{}{
	'.': {}, ',': {}, '!': {}, '?': {}, ';': {}, ':': {},
}

// collapseRepeatedPunct reduces runs of the same punctuation rune to a single
// one ("!!!" to "!"). Runs of distinct marks ("?!") are left alone.
func collapseRepeatedPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		if r == prev {
			if _, ok := repeatablePunct[r]; ok {
				continue
			}
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// Normalize strips filler tokens and collapses whitespace and repeated
// punctuation. Case is preserved so cache keys stay stable for the text the
// user actually said.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	cleaned := text
	for _, re := range multiWordFillers {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}

	words := strings.Fields(cleaned)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		bare := strings.ToLower(strings.TrimFunc(w, isPunct))
		if _, filler := fillerTokens[bare]; filler {
			continue
		}
		kept = append(kept, w)
	}

	out := strings.Join(kept, " ")
	out = collapseRepeatedPunct(out)
	out = whitespace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// stopwords excluded from key-term extraction. Function words only; content
// words (nouns, verbs, names) pass through.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"of": {}, "at": {}, "by": {}, "for": {}, "with": {}, "about": {},
	"to": {}, "from": {}, "in": {}, "on": {}, "up": {}, "down": {}, "out": {},
	"is": {}, "am": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "do": {}, "does": {}, "did": {}, "have": {}, "has": {},
	"had": {}, "will": {}, "would": {}, "can": {}, "could": {}, "should": {},
	"shall": {}, "may": {}, "might": {}, "must": {},
	"i": {}, "me": {}, "my": {}, "we": {}, "our": {}, "you": {}, "your": {},
	"he": {}, "him": {}, "his": {}, "she": {}, "her": {}, "it": {}, "its": {},
	"they": {}, "them": {}, "their": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "there": {}, "here": {}, "what": {}, "which": {}, "who": {},
	"when": {}, "where": {}, "how": {}, "why": {}, "not": {}, "no": {},
	"yes": {}, "very": {}, "too": {}, "just": {}, "as": {},
	"than": {}, "then": {}, "now": {}, "also": {}, "into": {}, "over": {},
}

// ExtractKeyTerms pulls the content-bearing tokens out of an utterance as a
// cheap semantic summary: stopwords and fillers are dropped, the rest kept in
// order of first occurrence, deduplicated case-insensitively. An empty result
// is valid.
func ExtractKeyTerms(text string) []string {
	words := strings.Fields(text)
	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))

	for _, w := range words {
		bare := strings.TrimFunc(w, isPunct)
		if bare == "" {
			continue
		}
		lower := strings.ToLower(bare)
		if _, skip := stopwords[lower]; skip {
			continue
		}
		if _, skip := fillerTokens[lower]; skip {
			continue
		}
		if len([]rune(lower)) < 3 && !isCapitalized(bare) {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		terms = append(terms, bare)
	}

	return terms
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isCapitalized(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
