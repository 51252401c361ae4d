package limits

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrConfig is wrapped by every limits configuration failure. A
// malformed tiers document is fatal at startup; a missing one is not.
var ErrConfig = errors.New("rate limit config error")

// Hard defaults, used when neither explicit overrides nor a qualifying
// tier provide a value.
const (
	DefaultMaxRows     = 100
	DefaultMinInterval = 0.35
)

// Overrides carries explicit caller-supplied limits. Nil fields are
// unset and resolve through the tiers document or defaults.
type Overrides struct {
	MaxRows     *int
	MinInterval *float64
}

// Tier is one row of the tiers document: the throttling parameters
// granted at a minimum points entitlement.
type Tier struct {
	MinPoints   int      `json:"min_points" yaml:"min_points"`
	MaxRows     *int     `json:"max_rows" yaml:"max_rows"`
	MinInterval *float64 `json:"min_interval_seconds" yaml:"min_interval_seconds"`

	// IndependentPermissions overrides the generic row cap for the
	// named apis only; Tushare documents per-endpoint limits that the
	// generic truncation must not clobber.
	IndependentPermissions map[string]int `json:"independent_permissions" yaml:"independent_permissions"`
}

type tiersDocument struct {
	Tiers   []Tier `json:"tiers" yaml:"tiers"`
	Default *Tier  `json:"default" yaml:"default"`
}

// EffectiveLimits is the resolved throttling configuration for the
// running process. Computed once at startup, immutable thereafter.
type EffectiveLimits struct {
	MaxRows       int
	MinInterval   float64
	PerAPIMaxRows map[string]int
	Source        string
}

// RowCapFor returns the row cap for apiName, honoring an independent
// permission when one exists. A cap <= 0 disables truncation.
func (l EffectiveLimits) RowCapFor(apiName string) int {
	if cap, ok := l.PerAPIMaxRows[apiName]; ok {
		return cap
	}
	return l.MaxRows
}

// Resolve computes the effective limits once at startup.
//
// Precedence, highest first: explicit overrides (verbatim), the highest
// qualifying tier for the given points, the tiers document's default
// block, then hard defaults. A partial explicit override keeps the
// explicit value and resolves the other field through the lower levels.
func Resolve(overrides Overrides, points *int, tiersPath string) (EffectiveLimits, error) {
	if overrides.MaxRows != nil && overrides.MinInterval != nil {
		limits := EffectiveLimits{
			MaxRows:     *overrides.MaxRows,
			MinInterval: *overrides.MinInterval,
			Source:      "explicit",
		}
		return limits, validate(limits)
	}

	doc, err := loadTiers(tiersPath)
	if err != nil {
		return EffectiveLimits{}, err
	}

	resolved := EffectiveLimits{
		MaxRows:     DefaultMaxRows,
		MinInterval: DefaultMinInterval,
		Source:      "default",
	}

	if doc != nil {
		if tier := selectTier(doc.Tiers, points); tier != nil {
			resolved = fromTier(*tier, fmt.Sprintf("tier:%d", tier.MinPoints))
		} else if doc.Default != nil {
			resolved = fromTier(*doc.Default, "tiers-default")
		}
	}

	// Partial explicit overrides beat whatever the tiers resolved.
	if overrides.MaxRows != nil {
		resolved.MaxRows = *overrides.MaxRows
		resolved.Source = "partial"
	}
	if overrides.MinInterval != nil {
		resolved.MinInterval = *overrides.MinInterval
		resolved.Source = "partial"
	}

	return resolved, validate(resolved)
}

func validate(limits EffectiveLimits) error {
	if limits.MinInterval < 0 {
		return fmt.Errorf("%w: min_interval_seconds must not be negative, got %v",
			ErrConfig, limits.MinInterval)
	}
	return nil
}

func fromTier(tier Tier, source string) EffectiveLimits {
	limits := EffectiveLimits{
		MaxRows:       DefaultMaxRows,
		MinInterval:   DefaultMinInterval,
		PerAPIMaxRows: tier.IndependentPermissions,
		Source:        source,
	}
	if tier.MaxRows != nil {
		limits.MaxRows = *tier.MaxRows
	}
	if tier.MinInterval != nil {
		limits.MinInterval = *tier.MinInterval
	}
	return limits
}

// selectTier picks the tier with the greatest min_points <= points, or
// nil when points are absent or no tier qualifies.
func selectTier(tiers []Tier, points *int) *Tier {
	if points == nil {
		return nil
	}
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinPoints < sorted[j].MinPoints
	})
	var selected *Tier
	for i := range sorted {
		if *points >= sorted[i].MinPoints {
			selected = &sorted[i]
		}
	}
	return selected
}

// loadTiers reads the tiers document (JSON or YAML). A missing file is
// not an error; a present but malformed file is fatal.
func loadTiers(path string) (*tiersDocument, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
	}

	var doc tiersDocument
	if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, jsonErr)
		}
	}
	return &doc, nil
}
