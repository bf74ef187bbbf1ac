// Package adaptation learns interaction patterns and tunes runtime behavior.
package adaptation

import (
	"strings"
	"time"
	"unicode"
)

// Pattern is a learned association between a key phrase and an intent.
// Confidence moves with decision outcomes and stays within [0.1, 1.0]
// once adjusted; new patterns start at 0.5.
type Pattern struct {
	Phrase      string    `json:"phrase"`
	Intent      string    `json:"intent"`
	Confidence  float64   `json:"confidence"`
	Occurrences int       `json:"occurrences"`
	LastSeen    time.Time `json:"last_seen"`
}

const (
	patternInitialConfidence = 0.5
	patternReward            = 0.1
	patternPenalty           = 0.05
	patternFloor             = 0.1
	patternCeiling           = 1.0

	// rewardThreshold separates reinforcing outcomes from weakening ones.
	rewardThreshold = 0.7

	// patternEstablished is the confidence at which a pattern is considered
	// learned and worth a memory record.
	patternEstablished = 0.7
)

// defaultPhrases is the built-in key phrase lexicon, used when no lexicon
// file is configured. Matching is case-insensitive.
var defaultPhrases = []string{
	"help me",
	"how do i",
	"can you",
	"what is",
	"show me",
	"set up",
	"fix the",
	"deploy to",
}

// extractPhrases returns the candidate key phrases found in text: every
// bigram and trigram plus any lexicon phrase present as a substring. The
// result is lowercased and de-duplicated, preserving first-seen order.
func extractPhrases(text string, lexicon []string) []string {
	lowered := strings.ToLower(text)
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})

	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	for i := 0; i+1 < len(words); i++ {
		add(words[i] + " " + words[i+1])
	}
	for i := 0; i+2 < len(words); i++ {
		add(words[i] + " " + words[i+1] + " " + words[i+2])
	}
	for _, phrase := range lexicon {
		if strings.Contains(lowered, strings.ToLower(phrase)) {
			add(strings.ToLower(phrase))
		}
	}
	return out
}

// adjust moves the pattern's confidence by one outcome. Rewards and
// penalties are asymmetric so confidence is earned slowly and lost slower.
func (p *Pattern) adjust(decisionConfidence float64) {
	if decisionConfidence > rewardThreshold {
		p.Confidence += patternReward
		if p.Confidence > patternCeiling {
			p.Confidence = patternCeiling
		}
	} else {
		p.Confidence -= patternPenalty
		if p.Confidence < patternFloor {
			p.Confidence = patternFloor
		}
	}
	p.Occurrences++
	p.LastSeen = time.Now()
}
