package pipeline

import (
	"math"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

// AttributeMapper converts normalized metrics into bounded integer ratings,
// re-entering the era normalizer per attribute.
type AttributeMapper struct {
	cohorts *CohortTable
	rs      *rules.Ruleset
}

// NewAttributeMapper builds a mapper over an immutable cohort table.
func NewAttributeMapper(cohorts *CohortTable, rs *rules.Ruleset) *AttributeMapper {
	return &AttributeMapper{cohorts: cohorts, rs: rs}
}

// Map resolves one attribute for one individual via the configured tiered
// source chain: the first tier with sufficient data wins and is recorded on
// the rating. An insufficient cohort counts as missing data and falls
// through to the next tier, never to a misleading zero.
func (m *AttributeMapper) Map(attrKey string, metrics map[string]float64, pos model.Position, era string) model.AttributeRating {
	ac := m.rs.Attributes[attrKey]
	rating := model.AttributeRating{
		Position:  pos,
		Attribute: attrKey,
	}

	for _, src := range ac.Sources {
		switch src.Kind {
		case rules.SourceMetric, rules.SourceProxy:
			value, ok := metrics[src.Metric]
			if !ok {
				continue
			}
			pct, ok := m.cohorts.Normalize(src.Metric, value, pos, era)
			if !ok {
				continue
			}
			rating.Value = scaleToBounds(pct, ac)
			rating.SourceTier = src.Tier
			rating.Metrics = []string{src.Metric}
			return rating
		case rules.SourcePositionAverage:
			rating.Value = scaleToBounds(neutralComponent, ac)
			rating.SourceTier = src.Tier
			return rating
		case rules.SourceDefault:
			rating.Value = clampValue(src.Default, ac)
			rating.SourceTier = src.Tier
			return rating
		}
	}

	// No tier produced a value; land on the scale floor at the lowest
	// priority so the gap is visible in provenance.
	rating.Value = ac.Floor
	rating.SourceTier = model.TierDefault
	return rating
}

// scaleToBounds maps a percentile onto the bounded integer scale via linear
// interpolation between floor and ceiling. Strictly higher percentiles
// never produce a strictly lower value.
func scaleToBounds(pct float64, ac rules.AttributeConfig) int {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	v := float64(ac.Floor) + pct*float64(ac.Ceiling-ac.Floor)
	return clampValue(int(math.Round(v)), ac)
}

func clampValue(v int, ac rules.AttributeConfig) int {
	if v < ac.Floor {
		return ac.Floor
	}
	if v > ac.Ceiling {
		return ac.Ceiling
	}
	return v
}

// ApplyModifier folds an archetype modifier into a rating and re-clamps, so
// the final value never leaves the configured bounds regardless of the
// modifier's sign or size.
func (m *AttributeMapper) ApplyModifier(rating model.AttributeRating, modifier int) model.AttributeRating {
	if modifier == 0 {
		return rating
	}
	ac := m.rs.Attributes[rating.Attribute]
	rating.Value = clampValue(rating.Value+modifier, ac)
	rating.Modifier = modifier
	return rating
}
