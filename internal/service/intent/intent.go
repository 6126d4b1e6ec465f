// Package intent gates which utterances are worth the cost of embedding and
// retrieval. Classification is purely computational and deterministic: the
// same message always yields the same verdict.
package intent

import (
	"strings"

	"github.com/sandevgo/voxmem/internal/core"
	"github.com/sandevgo/voxmem/internal/service/text"
)

// backchannels are acknowledgement utterances matched exactly after trimming
// and case-folding.
var backchannels = map[string]struct{}{
	"uh-huh": {}, "uh huh": {}, "mm-hmm": {}, "mhm": {}, "yeah": {},
	"yep": {}, "ok": {}, "okay": {}, "got it": {}, "gotcha": {}, "sure": {},
	"right": {}, "i see": {}, "makes sense": {}, "alright": {}, "all right": {},
}

// affirmations are bare agreement phrases. Distinct from backchannels: an
// affirmation answers a question, a backchannel just keeps the channel open.
var affirmations = map[string]struct{}{
	"yes": {}, "yeah": {}, "yep": {}, "yup": {}, "sure": {}, "ok": {},
	"okay": {}, "definitely": {}, "absolutely": {}, "of course": {},
	"sounds good": {}, "that works": {}, "sure thing": {}, "exactly": {},
	"correct": {}, "that's right": {}, "please do": {}, "go ahead": {},
}

var questionWords = map[string]struct{}{
	"what": {}, "when": {}, "where": {}, "who": {}, "why": {}, "how": {},
	"which": {}, "can": {}, "could": {}, "would": {}, "should": {}, "do": {},
	"does": {}, "did": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"will": {}, "may": {},
}

// Classify computes the full gating verdict for a message. All fields are
// always populated; gating applies them in the documented order.
func Classify(message string) core.IntentClassification {
	trimmed := strings.TrimSpace(message)
	folded := strings.ToLower(trimmed)
	words := strings.Fields(trimmed)
	wordCount := len(words)

	isShort := wordCount < 5
	substantive := hasSubstantiveContent(trimmed, words)
	_, isBackchannel := backchannels[folded]
	isFillerOnly := wordCount < 10 && isFillerContent(trimmed)
	isAffirmative := isAffirmation(folded)

	shouldProcess := !isShort && substantive && !isFillerOnly && !isAffirmative && !isBackchannel

	return core.IntentClassification{
		ShouldProcessRAG:      shouldProcess,
		IsContinuation:        !shouldProcess,
		IsShortResponse:       isShort,
		MessageLength:         wordCount,
		HasSubstantiveContent: substantive,
	}
}

// SimilarityThreshold maps message length to the retrieval cutoff. Longer
// utterances carry more signal, so a match has to be stronger before it is
// worth injecting.
func SimilarityThreshold(c core.IntentClassification) float64 {
	switch {
	case c.MessageLength > 15:
		return 0.70
	case c.MessageLength > 10:
		return 0.65
	default:
		return 0.60
	}
}

// IsSimpleAffirmation reports whether the message is a bare agreement of
// fewer than three words. Cheaper than a full Classify for callers that only
// need this check.
func IsSimpleAffirmation(message string) bool {
	trimmed := strings.TrimSpace(message)
	if len(strings.Fields(trimmed)) >= 3 {
		return false
	}
	return isAffirmation(strings.ToLower(trimmed))
}

func isAffirmation(folded string) bool {
	folded = strings.TrimRight(folded, ".!")
	_, ok := affirmations[folded]
	return ok
}

// hasSubstantiveContent approximates "contains a noun or verb, or asks a
// question" without a POS tagger: the key-term extractor keeps exactly the
// content-bearing tokens.
func hasSubstantiveContent(message string, words []string) bool {
	if strings.HasSuffix(strings.TrimSpace(message), "?") {
		return true
	}
	if len(words) > 0 {
		first := strings.ToLower(strings.Trim(words[0], ".,!?"))
		if _, ok := questionWords[first]; ok {
			return true
		}
	}
	return len(text.ExtractKeyTerms(message)) > 0
}

// isFillerContent reports whether normalization strips the message down to
// nothing, i.e. it was hesitation markers all the way through.
func isFillerContent(message string) bool {
	return text.Normalize(message) == ""
}
