package model

// Source tiers for attribute ratings, highest priority first.
const (
	TierDirect          = 1 // directly measured statistic
	TierProxy           = 2 // derived proxy statistic
	TierPositionAverage = 3 // positional-average fallback
	TierDefault         = 4 // configured default
)

// AttributeRating is one bounded integer rating for a selected individual.
// Value always lies within the configured [floor, ceiling] range, including
// after the archetype modifier has been applied.
type AttributeRating struct {
	IndividualID string   `json:"individual_id"`
	Position     Position `json:"position"`
	Attribute    string   `json:"attribute"`
	Value        int      `json:"value"`
	SourceTier   int      `json:"source_tier"`
	// Metrics lists the contributing metric names for provenance.
	Metrics []string `json:"metrics,omitempty"`
	// Modifier is the archetype adjustment folded into Value (post-clamp).
	Modifier int `json:"modifier,omitempty"`
}

// ArchetypeAssignment maps a selected individual to a style bucket within
// its position, plus the modifier vector that was applied. Assignments are
// produced strictly after selection and never influence eligibility or rank.
type ArchetypeAssignment struct {
	IndividualID string         `json:"individual_id"`
	Position     Position       `json:"position"`
	Label        string         `json:"label"`
	Modifiers    map[string]int `json:"modifiers,omitempty"`
}
