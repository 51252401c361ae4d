package catalog

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"
)

// ErrEmptyKeyword rejects blank search keywords; an empty keyword would
// otherwise dump the whole catalog.
var ErrEmptyKeyword = errors.New("search keyword must not be empty")

// DefaultSearchLimit is used when the caller does not request a limit.
const DefaultSearchLimit = 10

// fuzzyBonusCap bounds the contribution of edit-distance proximity so
// exact substring hits always dominate the ranking.
const fuzzyBonusCap = 5

// SearchResult is one ranked catalog hit.
type SearchResult struct {
	Name           string   `json:"name"`
	Title          string   `json:"title,omitempty"`
	Description    string   `json:"description,omitempty"`
	RequiredParams []string `json:"required_params"`
	Score          int      `json:"score"`
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " ")))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(normalize(text), func(r rune) bool {
		return r == ' ' || r == '_' || r == ',' || r == '.' || r == '-'
	})
}

// Search ranks catalog entries against keyword and returns at most
// limit results ordered by descending score. Ties keep catalog
// insertion order. A limit <= 0 means DefaultSearchLimit; the limit is
// clamped to the catalog size. Read-only and never throttled.
func (s *Store) Search(keyword string, limit int) ([]SearchResult, error) {
	kw := normalize(keyword)
	if kw == "" {
		return nil, ErrEmptyKeyword
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > s.Len() {
		limit = s.Len()
	}

	fuzzyBonus := s.nameProximity(kw)

	var results []SearchResult
	for _, name := range s.order {
		spec := s.apis[name]
		score := scoreSpec(kw, spec) + fuzzyBonus[name]
		if score <= 0 {
			continue
		}
		results = append(results, SearchResult{
			Name:           spec.Name,
			Title:          spec.Title,
			Description:    spec.Description,
			RequiredParams: spec.RequiredParams(),
			Score:          score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scoreSpec weighs exact substring hits per field plus query token
// overlap with the spec's searchable text.
func scoreSpec(kw string, spec *ApiSpec) int {
	score := 0
	if strings.Contains(normalize(spec.Name), kw) {
		score += 10
	}
	if spec.Title != "" && strings.Contains(normalize(spec.Title), kw) {
		score += 5
	}
	for _, alias := range spec.Aliases {
		if strings.Contains(normalize(alias), kw) {
			score += 5
			break
		}
	}
	if spec.Description != "" && strings.Contains(normalize(spec.Description), kw) {
		score += 3
	}
	for _, p := range spec.Parameters {
		if strings.Contains(normalize(p.Name), kw) {
			score += 2
			break
		}
	}

	haystack := make(map[string]bool)
	for _, tok := range tokenize(spec.Name + " " + spec.Title + " " + spec.Description) {
		haystack[tok] = true
	}
	for _, alias := range spec.Aliases {
		for _, tok := range tokenize(alias) {
			haystack[tok] = true
		}
	}
	for _, p := range spec.Parameters {
		for _, tok := range tokenize(p.Name) {
			haystack[tok] = true
		}
	}
	for _, f := range spec.ReturnFields {
		for _, tok := range tokenize(f.Name) {
			haystack[tok] = true
		}
	}
	for _, tok := range tokenize(kw) {
		if haystack[tok] {
			score++
		}
	}
	return score
}

// nameProximity gives near-miss spellings of an api name a small
// bounded bonus so "dayly" still surfaces "daily". Subsequence hits
// and low edit distance both contribute; exact substring hits from
// scoreSpec still dominate.
func (s *Store) nameProximity(kw string) map[string]int {
	bonus := make(map[string]int)
	for _, match := range fuzzy.Find(kw, s.order) {
		b := 1 + match.Score/16
		if b < 1 {
			b = 1
		}
		bonus[match.Str] = b
	}
	for _, name := range s.order {
		if d := levenshtein.ComputeDistance(kw, normalize(name)); d <= 2 {
			bonus[name] += 3 - d
		}
	}
	for name, b := range bonus {
		if b > fuzzyBonusCap {
			bonus[name] = fuzzyBonusCap
		}
	}
	return bonus
}

// Suggest returns up to n api names closest to name, used to build
// "did you mean" hints for unknown api errors. Candidates within a
// keyword-proportional edit distance rank first; any remaining slots
// are filled from the full-text ranking.
func (s *Store) Suggest(name string, n int) []string {
	if n <= 0 {
		return nil
	}
	kw := normalize(name)
	if kw == "" {
		return nil
	}

	type candidate struct {
		name string
		dist int
	}
	threshold := len(kw)/2 + 1
	var candidates []candidate
	for _, apiName := range s.order {
		normalized := normalize(apiName)
		dist := levenshtein.ComputeDistance(kw, normalized)
		if dist > threshold && strings.Contains(normalized, kw) {
			dist = threshold
		}
		if dist <= threshold {
			candidates = append(candidates, candidate{name: apiName, dist: dist})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	var suggestions []string
	for _, c := range candidates {
		if len(suggestions) == n {
			return suggestions
		}
		suggestions = append(suggestions, c.name)
	}

	// Top up from the full-text ranking when edit distance alone finds
	// too few candidates.
	results, err := s.Search(name, n)
	if err != nil {
		return suggestions
	}
	for _, r := range results {
		if len(suggestions) == n {
			break
		}
		duplicate := false
		for _, existing := range suggestions {
			if existing == r.Name {
				duplicate = true
				break
			}
		}
		if !duplicate {
			suggestions = append(suggestions, r.Name)
		}
	}
	return suggestions
}
