package tokencount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimator_CountIsPositiveForNonEmptyText(t *testing.T) {
	e := NewEstimator("cl100k_base")
	assert.Greater(t, e.Count("translate this poem into English"), 0)
}

func TestEstimator_CountIsZeroForEmptyText(t *testing.T) {
	e := NewEstimator("cl100k_base")
	assert.Equal(t, 0, e.Count(""))
}

func TestEstimator_LongerTextCountsAtLeastAsManyTokens(t *testing.T) {
	e := NewEstimator("cl100k_base")
	short := e.Count("one two three")
	long := e.Count("one two three four five six seven eight nine ten")
	assert.GreaterOrEqual(t, long, short)
}

func TestWordEstimate_FallbackCountsWhitespaceSeparatedWords(t *testing.T) {
	assert.Equal(t, 4, wordEstimate("one two  three\tfour"))
	assert.Equal(t, 0, wordEstimate("   \n\t"))
}
