package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/rosterforge/legend-engine/internal/model"
)

// Ruleset is the full scoring and allocation rule document. All numeric
// thresholds live here, never in code.
type Ruleset struct {
	Eras        EraConfig                      `yaml:"eras"`
	Metrics     map[string]MetricConfig        `yaml:"metrics"`
	Peak        PeakConfig                     `yaml:"peak"`
	Ranking     RankingConfig                  `yaml:"ranking"`
	Eligibility EligibilityConfig              `yaml:"eligibility"`
	Weights     WeightConfig                   `yaml:"weights"`
	Quotas      QuotaConfig                    `yaml:"quotas"`
	Attributes  map[string]AttributeConfig     `yaml:"attributes"`
	Archetypes  map[model.Position][]Archetype `yaml:"archetypes"`
}

// EraConfig defines the ordered era buckets and the minimum cohort size
// below which normalization widens to adjacent buckets.
type EraConfig struct {
	Buckets   []EraBucket `yaml:"buckets"`
	MinCohort int         `yaml:"min_cohort"`
}

// EraBucket is a contiguous range of first-season years treated as one
// normalization cohort.
type EraBucket struct {
	Name     string `yaml:"name"`
	FromYear int    `yaml:"from_year"`
	ToYear   int    `yaml:"to_year"`
}

// Contains reports whether the bucket covers the given year.
func (b EraBucket) Contains(year int) bool {
	return year >= b.FromYear && year <= b.ToYear
}

// MetricConfig describes how a raw metric compares across individuals.
type MetricConfig struct {
	// LowerBetter inverts percentile direction (forty time, draft pick).
	LowerBetter bool `yaml:"lower_better"`
}

// PeakConfig configures the peak-window finder.
type PeakConfig struct {
	WindowLength int `yaml:"window_length"`
	// AllowGaps permits windows spanning inactive calendar years.
	AllowGaps bool `yaml:"allow_gaps"`
	// SeasonValueMetric names the per-season scalar used for peak windows
	// and era dominance (a value-over-replacement style statistic).
	SeasonValueMetric string `yaml:"season_value_metric"`
}

// RankingConfig names the career aggregate used for the career term and
// the positional top-K leaderboards.
type RankingConfig struct {
	CareerValueMetric string `yaml:"career_value_metric"`
}

// EligibilityConfig holds the thresholds for the three qualification paths.
type EligibilityConfig struct {
	MinGames int                    `yaml:"min_games"`
	Peak     PeakDominanceConfig    `yaml:"peak_dominance"`
	Sustain  SustainedConfig        `yaml:"sustained_excellence"`
	Impact   PositionalImpactConfig `yaml:"positional_impact"`
}

// PeakDominanceConfig: honors-count burst, elite peer recognition, or hall
// of fame, all behind the minimum-games floor.
type PeakDominanceConfig struct {
	MinHonors     int `yaml:"min_honors"`
	WithinSeasons int `yaml:"within_seasons"`
}

// SustainedConfig: long careers with or without honors.
type SustainedConfig struct {
	SeasonsWithHonor int `yaml:"seasons_with_honor"`
	SeasonsAny       int `yaml:"seasons_any"`
}

// PositionalImpactConfig: draft pedigree, career-stat rank, or single-team
// tenure with postseason play.
type PositionalImpactConfig struct {
	MaxDraftPick       int `yaml:"max_draft_pick"`
	DraftMinSeasons    int `yaml:"draft_min_seasons"`
	TopCareerRank      int `yaml:"top_career_rank"`
	TopRankMinSeasons  int `yaml:"top_rank_min_seasons"`
	SingleTeamSeasons  int `yaml:"single_team_seasons"`
	MinPostseasonGames int `yaml:"min_postseason_games"`
}

// WeightConfig holds the composite ranking weights.
type WeightConfig struct {
	Peak         float64 `yaml:"peak"`
	Career       float64 `yaml:"career"`
	EraDominance float64 `yaml:"era_dominance"`
	Honors       float64 `yaml:"honors"`
}

// Sum returns the total weight.
func (w WeightConfig) Sum() float64 {
	return w.Peak + w.Career + w.EraDominance + w.Honors
}

// FlexMode selects what happens to unused quota slots.
type FlexMode string

const (
	// FlexRedistribute reassigns unused slots to a cross-position pool
	// ranked by composite score.
	FlexRedistribute FlexMode = "redistribute"
	// FlexShrink leaves unused slots empty, shrinking the final roster.
	FlexShrink FlexMode = "shrink"
)

// QuotaConfig bounds per-position and global selection counts.
type QuotaConfig struct {
	PerPosition map[model.Position]int `yaml:"per_position"`
	GlobalTotal int                    `yaml:"global_total"`
	FlexMode    FlexMode               `yaml:"flex_mode"`
}

// SourceKind identifies how one tier of an attribute chain produces a value.
type SourceKind string

const (
	SourceMetric          SourceKind = "metric"           // tier 1: direct measurement
	SourceProxy           SourceKind = "proxy"            // tier 2: derived proxy
	SourcePositionAverage SourceKind = "position_average" // tier 3
	SourceDefault         SourceKind = "default"          // tier 4
)

// SourceConfig is one entry of an attribute's tiered fallback chain,
// tried in priority order with a first-success-wins contract.
type SourceConfig struct {
	Tier   int        `yaml:"tier"`
	Kind   SourceKind `yaml:"kind"`
	Metric string     `yaml:"metric,omitempty"`
	// Default is the on-scale value used by SourceDefault tiers.
	Default int `yaml:"default,omitempty"`
}

// AttributeConfig maps a semantic attribute onto the bounded rating scale.
// A floor or ceiling of 0 means unset and gets the 40/99 defaults, so the
// scale is 1-based; zero-based scales are not representable.
type AttributeConfig struct {
	Floor   int            `yaml:"floor"`
	Ceiling int            `yaml:"ceiling"`
	Sources []SourceConfig `yaml:"sources"`
}

// Archetype is a discrete style bucket within a position: a feature
// centroid for assignment plus a bounded signed modifier vector.
type Archetype struct {
	Label     string             `yaml:"label"`
	Centroid  map[string]float64 `yaml:"centroid"`
	Modifiers map[string]int     `yaml:"modifiers"`
}

// Load reads a ruleset document from a YAML file and applies defaults.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rules: read %s", path)
	}

	var wrapper struct {
		Rules Ruleset `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "rules: parse")
	}

	rs := &wrapper.Rules
	rs.applyDefaults()
	return rs, nil
}

func (r *Ruleset) applyDefaults() {
	if r.Eras.MinCohort == 0 {
		r.Eras.MinCohort = 8
	}
	if r.Peak.WindowLength == 0 {
		r.Peak.WindowLength = 5
	}
	if r.Peak.SeasonValueMetric == "" {
		r.Peak.SeasonValueMetric = "approx_value"
	}
	if r.Ranking.CareerValueMetric == "" {
		r.Ranking.CareerValueMetric = "career_approx_value"
	}
	if r.Quotas.FlexMode == "" {
		r.Quotas.FlexMode = FlexShrink
	}
	if r.Eligibility.MinGames == 0 {
		r.Eligibility.MinGames = 16
	}
	for key, ac := range r.Attributes {
		if ac.Ceiling == 0 {
			ac.Ceiling = 99
		}
		if ac.Floor == 0 {
			ac.Floor = 40
		}
		r.Attributes[key] = ac
	}
}

// Hash returns the sha256 content hash of the canonical YAML encoding of
// the ruleset, used to key run provenance.
func (r *Ruleset) Hash() (string, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return "", eris.Wrap(err, "rules: marshal for hash")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// BucketFor returns the era bucket covering the given first-season year.
// The second return is false when no bucket covers the year.
func (r *Ruleset) BucketFor(year int) (EraBucket, bool) {
	for _, b := range r.Eras.Buckets {
		if b.Contains(year) {
			return b, true
		}
	}
	return EraBucket{}, false
}

// BucketIndex returns the position of the named bucket in the ordered
// bucket list, or -1.
func (r *Ruleset) BucketIndex(name string) int {
	for i, b := range r.Eras.Buckets {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// MetricLowerBetter reports the configured direction for a metric.
// Unconfigured metrics default to higher-is-better.
func (r *Ruleset) MetricLowerBetter(metric string) bool {
	if mc, ok := r.Metrics[metric]; ok {
		return mc.LowerBetter
	}
	return false
}
