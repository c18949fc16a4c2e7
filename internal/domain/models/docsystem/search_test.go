package docsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchOptions_ApplyDefaults_FillsUnsetFields(t *testing.T) {
	opts := &SearchOptions{Query: "dragon"}
	opts.ApplyDefaults()

	assert.Equal(t, []SearchField{SearchFieldName, SearchFieldContent}, opts.Fields)
	assert.Equal(t, DefaultSearchLimit, opts.Limit)
	assert.Equal(t, DefaultSearchOffset, opts.Offset)
	assert.Equal(t, DefaultSearchLanguage, opts.Language)
	assert.Equal(t, DefaultSearchStrategy, opts.Strategy)
}

func TestSearchOptions_ApplyDefaults_PreservesExplicitValues(t *testing.T) {
	opts := &SearchOptions{
		Query:    "dragon",
		Fields:   []SearchField{SearchFieldContent},
		Limit:    5,
		Offset:   10,
		Language: "french",
		Strategy: SearchStrategyFullText,
	}
	opts.ApplyDefaults()

	assert.Equal(t, []SearchField{SearchFieldContent}, opts.Fields)
	assert.Equal(t, 5, opts.Limit)
	assert.Equal(t, 10, opts.Offset)
	assert.Equal(t, "french", opts.Language)
}

func TestSearchOptions_Validate_RejectsEmptyQuery(t *testing.T) {
	err := (&SearchOptions{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}

func TestSearchOptions_Validate_RejectsLimitOver100(t *testing.T) {
	err := (&SearchOptions{Query: "dragon", Limit: 101}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "100")
}

func TestSearchOptions_Validate_RejectsNegativeOffset(t *testing.T) {
	err := (&SearchOptions{Query: "dragon", Offset: -1}).Validate()
	require.Error(t, err)
}

func TestSearchOptions_Validate_RejectsUnknownField(t *testing.T) {
	err := (&SearchOptions{Query: "dragon", Fields: []SearchField{"path"}}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search field")
}

func TestSearchOptions_Validate_RejectsUnimplementedStrategy(t *testing.T) {
	err := (&SearchOptions{Query: "dragon", Strategy: SearchStrategyVector}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not yet implemented")
}

func TestSearchOptions_Validate_AcceptsWellFormedOptions(t *testing.T) {
	err := (&SearchOptions{Query: "dragon", Limit: 20, Offset: 0}).Validate()
	require.NoError(t, err)
}

func TestNewSearchResults_ComputesHasMore(t *testing.T) {
	opts := &SearchOptions{Query: "dragon", Limit: 2, Offset: 0}
	results := []SearchResult{{Score: 0.9}, {Score: 0.5}}

	sr := NewSearchResults(results, 5, opts)
	assert.True(t, sr.HasMore)
	assert.Equal(t, 5, sr.TotalCount)
}

func TestNewSearchResults_NoMoreWhenAllResultsReturned(t *testing.T) {
	opts := &SearchOptions{Query: "dragon", Limit: 20, Offset: 0}
	results := []SearchResult{{Score: 0.9}}

	sr := NewSearchResults(results, 1, opts)
	assert.False(t, sr.HasMore)
}
