// Package tokencount estimates prompt sizes before a call goes out, so
// PromptRenderer can warn when a rendered prompt is likely to blow a
// step's MaxTokens budget. Not present in the teacher repo; grounded in
// the rest of the example corpus's common use of pkoukk/tiktoken-go for
// this exact pre-flight estimate.
package tokencount

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator counts tokens for a given encoding, caching the loaded BPE
// ranks since construction is the expensive part.
type Estimator struct {
	mu       sync.Mutex
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewEstimator builds an estimator for encoding (e.g. "cl100k_base").
// Falls back to a whitespace-split estimate if the encoding can't load,
// since no workflow step should fail purely because token counting did.
func NewEstimator(encoding string) *Estimator {
	return &Estimator{encoding: encoding}
}

// Count returns the token count of text, or a rough word-count estimate
// if the tiktoken encoding failed to load.
func (e *Estimator) Count(text string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.enc == nil {
		enc, err := tiktoken.GetEncoding(e.encoding)
		if err != nil {
			return wordEstimate(text)
		}
		e.enc = enc
	}

	return len(e.enc.Encode(text, nil, nil))
}

func wordEstimate(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}
