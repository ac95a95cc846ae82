package model

// EligibilityRecord is the gate's verdict for one individual-position pair.
// A record with Qualifies=false must never appear in a later selection.
type EligibilityRecord struct {
	IndividualID string       `json:"individual_id"`
	Position     Position     `json:"position"`
	Qualifies    bool         `json:"qualifies"`
	Paths        []PathResult `json:"paths"`
}

// PathKind tags one of the alternative qualification paths.
type PathKind string

const (
	PathPeakDominance       PathKind = "peak_dominance"
	PathSustainedExcellence PathKind = "sustained_excellence"
	PathPositionalImpact    PathKind = "positional_impact"
)

// PathResult records whether one qualification path matched and which
// measurements satisfied it.
type PathResult struct {
	Kind    PathKind `json:"kind"`
	Matched bool     `json:"matched"`
	Detail  string   `json:"detail,omitempty"`
}

// MatchedPaths returns the kinds of all paths that matched.
func (e *EligibilityRecord) MatchedPaths() []PathKind {
	var kinds []PathKind
	for _, p := range e.Paths {
		if p.Matched {
			kinds = append(kinds, p.Kind)
		}
	}
	return kinds
}

// RankScore holds the composite ranking terms for one individual-position
// pair. Every term is normalized to [0,1] before weighting; Composite is
// always finite.
type RankScore struct {
	IndividualID string   `json:"individual_id"`
	Position     Position `json:"position"`
	PeakScore    float64  `json:"peak_score"`
	CareerScore  float64  `json:"career_score"`
	EraDominance float64  `json:"era_dominance"`
	HonorsIndex  float64  `json:"honors_index"`
	Composite    float64  `json:"composite"`
	ShortCareer  bool     `json:"short_career,omitempty"`
	PeakStart    int      `json:"peak_start,omitempty"`
	PeakEnd      int      `json:"peak_end,omitempty"`
}

// Selection reasons attached to manifest entries.
const (
	ReasonSelected      = "selected"
	ReasonSelectedFlex  = "selected via flex pool"
	ReasonQuotaExceeded = "quota exceeded"
	ReasonIneligible    = "no qualifying path"
)

// SelectionEntry is one row of the selection manifest. Every
// individual-position pair that reached the allocator appears exactly once.
type SelectionEntry struct {
	IndividualID string   `json:"individual_id"`
	Position     Position `json:"position"`
	Rank         int      `json:"rank"`
	Included     bool     `json:"included"`
	Reason       string   `json:"reason"`
	Composite    float64  `json:"composite"`
}

// PositionSummary records per-bucket allocation accounting.
type PositionSummary struct {
	Position  Position `json:"position"`
	Quota     int      `json:"quota"`
	Eligible  int      `json:"eligible"`
	Included  int      `json:"included"`
	Shortfall int      `json:"shortfall,omitempty"`
}

// SelectionManifest is the full, ordered allocation record for a run.
type SelectionManifest struct {
	Entries   []SelectionEntry  `json:"entries"`
	Summaries []PositionSummary `json:"summaries"`
	FlexUsed  int               `json:"flex_used,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// IncludedCount returns the number of included entries across all positions.
func (m *SelectionManifest) IncludedCount() int {
	n := 0
	for i := range m.Entries {
		if m.Entries[i].Included {
			n++
		}
	}
	return n
}
