package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_EmptyKeyword(t *testing.T) {
	store := loadTestStore(t)

	_, err := store.Search("", 10)
	assert.ErrorIs(t, err, ErrEmptyKeyword)

	_, err = store.Search("   ", 10)
	assert.ErrorIs(t, err, ErrEmptyKeyword)
}

func TestSearch_NameMatchRanksFirst(t *testing.T) {
	store := loadTestStore(t)

	results, err := store.Search("daily", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "daily", results[0].Name)
}

func TestSearch_ScoresNonIncreasing(t *testing.T) {
	store := loadTestStore(t)

	results, err := store.Search("stock", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearch_LimitClamped(t *testing.T) {
	store := loadTestStore(t)

	results, err := store.Search("ts_code", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)

	// Requested limit larger than the catalog clamps to catalog size.
	results, err = store.Search("ts_code", 100)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), store.Len())
}

func TestSearch_DefaultLimit(t *testing.T) {
	store := loadTestStore(t)

	results, err := store.Search("stock", 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), DefaultSearchLimit)
}

func TestSearch_ParameterNameMatches(t *testing.T) {
	store := loadTestStore(t)

	results, err := store.Search("list_status", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "stock_basic", results[0].Name)
}

func TestSearch_AliasMatches(t *testing.T) {
	store := loadTestStore(t)

	results, err := store.Search("daily_quote", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "daily", results[0].Name)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	store := loadTestStore(t)

	lower, err := store.Search("daily", 10)
	require.NoError(t, err)
	upper, err := store.Search("DAILY", 10)
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

func TestSearch_FuzzyNearMiss(t *testing.T) {
	store := loadTestStore(t)

	// Subsequence of "fina_indicator"; no exact substring hit anywhere.
	results, err := store.Search("finaind", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "fina_indicator", results[0].Name)
}

func TestSearch_NoMatches(t *testing.T) {
	store := loadTestStore(t)

	results, err := store.Search("zzzzqqqq", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_TieBreakKeepsInsertionOrder(t *testing.T) {
	doc := `{"apis": {`
	for i := 0; i < 5; i++ {
		if i > 0 {
			doc += ","
		}
		doc += fmt.Sprintf(`"api_%d": {"description": "identical margin data"}`, i)
	}
	doc += `}}`

	store, err := Load(writeCatalog(t, doc))
	require.NoError(t, err)

	results, err := store.Search("margin", 10)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("api_%d", i), r.Name)
	}
}

func TestSearch_RequiredParamsIncluded(t *testing.T) {
	store := loadTestStore(t)

	results, err := store.Search("fina_indicator", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, []string{"ts_code"}, results[0].RequiredParams)
}

func TestSuggest(t *testing.T) {
	store := loadTestStore(t)

	suggestions := store.Suggest("daly", 3)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "daily", suggestions[0])

	assert.Len(t, store.Suggest("s", 2), 2)
	assert.Nil(t, store.Suggest("daily", 0))
}
