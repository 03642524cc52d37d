// Package content judges detail-page bodies and schedules re-fetches for the
// ones that are missing or unusable.
package content

import (
	"strings"

	"github.com/ian939/jobtrack/internal/model"
)

const (
	// leadingWindow is how many runes of the body the noise check inspects.
	leadingWindow = 200
	// noisyMaxLength: bodies longer than this are assumed to carry real text
	// past the boilerplate, however noisy their head is.
	noisyMaxLength = 600
	// minNoiseHits distinct noise-phrase occurrences needed to call it NOISY.
	minNoiseHits = 2
)

// Classifier derives a QualityState from a content body. It is a pure
// function of its rule set: same input, same label, every time.
type Classifier struct {
	MinLength    int      // bodies shorter than this (in runes) are EMPTY
	NoisePhrases []string // login walls, placeholder text, bot checks
}

// NewClassifier builds a classifier from the configured rule set.
func NewClassifier(minLength int, noisePhrases []string) *Classifier {
	return &Classifier{MinLength: minLength, NoisePhrases: noisePhrases}
}

// Classify labels a content body. Rules in order: the fetcher's failure
// sentinel, the image-only marker, blank, below minimum length, noise
// concentration in the leading portion of a still-short body, otherwise valid.
func (c *Classifier) Classify(content string) model.QualityState {
	if content == model.FetchFailedSentinel {
		return model.QualityFetchFailed
	}

	// Image-only postings have no extractable text to improve on. The marker
	// is the best body we will ever get, so it counts as valid; otherwise the
	// length rule would label it EMPTY and re-fetch it every run.
	if content == model.ImageOnlyMarker {
		return model.QualityValid
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return model.QualityEmpty
	}

	runes := []rune(trimmed)
	if len(runes) < c.MinLength {
		return model.QualityEmpty
	}

	head := trimmed
	if len(runes) > leadingWindow {
		head = string(runes[:leadingWindow])
	}
	if len(runes) < noisyMaxLength && c.noiseHits(head) >= minNoiseHits {
		return model.QualityNoisy
	}

	return model.QualityValid
}

// NeedsFetch reports whether a record with this label must be (re)fetched.
func NeedsFetch(q model.QualityState) bool {
	switch q {
	case model.QualityEmpty, model.QualityNoisy, model.QualityFetchFailed, model.QualityUnfetched:
		return true
	}
	return false
}

func (c *Classifier) noiseHits(head string) int {
	hits := 0
	for _, phrase := range c.NoisePhrases {
		if phrase == "" {
			continue
		}
		hits += strings.Count(head, phrase)
	}
	return hits
}
