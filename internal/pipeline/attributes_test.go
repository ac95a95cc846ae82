package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

func attrRules(minCohort int) *rules.Ruleset {
	rs := eraTestRules(minCohort)
	rs.Attributes = map[string]rules.AttributeConfig{
		"speed": {
			Floor:   40,
			Ceiling: 99,
			Sources: []rules.SourceConfig{
				{Tier: 1, Kind: rules.SourceMetric, Metric: "forty_time"},
				{Tier: 2, Kind: rules.SourceProxy, Metric: "career_ypc"},
				{Tier: 3, Kind: rules.SourcePositionAverage},
			},
		},
		"durability": {
			Floor:   40,
			Ceiling: 99,
			Sources: []rules.SourceConfig{
				{Tier: 1, Kind: rules.SourceMetric, Metric: "total_career_games"},
				{Tier: 4, Kind: rules.SourceDefault, Default: 70},
			},
		},
	}
	return rs
}

func ypcRec(id string, firstYear int, ypc float64) model.IndividualRecord {
	return model.IndividualRecord{
		ID:          id,
		Positions:   []model.Position{model.PosRB},
		FirstYear:   firstYear,
		CareerStats: map[string]float64{"career_ypc": ypc},
	}
}

func TestAttributeMapper_ProxyTierWhenDirectMissing(t *testing.T) {
	rs := attrRules(4)
	individuals := []model.IndividualRecord{
		ypcRec("p1", 2005, 3.8),
		ypcRec("p2", 2005, 4.2),
		ypcRec("p3", 2005, 4.6),
		ypcRec("p4", 2005, 5.0),
	}
	cohorts := BuildCohorts(individuals, rs)
	mapper := NewAttributeMapper(cohorts, rs)

	// No forty time recorded, so the proxy tier resolves.
	metrics := map[string]float64{"career_ypc": 5.0}
	r := mapper.Map("speed", metrics, model.PosRB, "2000s")
	assert.Equal(t, model.TierProxy, r.SourceTier)
	assert.Equal(t, []string{"career_ypc"}, r.Metrics)
	// pct 0.875 over [40,99]: 40 + 0.875*59 = 91.6 -> 92
	assert.Equal(t, 92, r.Value)
}

func TestAttributeMapper_InsufficientCohortFallsThrough(t *testing.T) {
	rs := attrRules(10)
	individuals := []model.IndividualRecord{
		ypcRec("p1", 2005, 3.8),
		ypcRec("p2", 2005, 4.2),
	}
	cohorts := BuildCohorts(individuals, rs)
	mapper := NewAttributeMapper(cohorts, rs)

	// The metric exists but its cohort is below the minimum even after
	// widening; the chain must fall through to the positional average, not
	// produce a misleading zero-percentile value.
	metrics := map[string]float64{"career_ypc": 4.2}
	r := mapper.Map("speed", metrics, model.PosRB, "2000s")
	assert.Equal(t, model.TierPositionAverage, r.SourceTier)
	// 40 + 0.5*59 = 69.5 -> 70
	assert.Equal(t, 70, r.Value)
}

func TestAttributeMapper_UndraftedFallsThroughDraftTier(t *testing.T) {
	rs := attrRules(2)
	rs.Attributes["pedigree"] = rules.AttributeConfig{
		Floor:   40,
		Ceiling: 99,
		Sources: []rules.SourceConfig{
			{Tier: 1, Kind: rules.SourceMetric, Metric: "draft_pick"},
			{Tier: 3, Kind: rules.SourcePositionAverage},
		},
	}
	drafted := ypcRec("p1", 2005, 4.0)
	drafted.Draft = &model.DraftInfo{OverallPick: 12}
	undrafted := ypcRec("p2", 2005, 4.4)
	individuals := []model.IndividualRecord{drafted, undrafted, ypcRec("p3", 2005, 4.8)}
	cohorts := BuildCohorts(individuals, rs)
	mapper := NewAttributeMapper(cohorts, rs)

	// The undrafted record carries no draft_pick observation at all, so the
	// chain falls through to the positional average instead of scoring a
	// sentinel pick.
	r := mapper.Map("pedigree", CareerMetrics(&undrafted), model.PosRB, "2000s")
	assert.Equal(t, model.TierPositionAverage, r.SourceTier)
	assert.Equal(t, 70, r.Value)
}

func TestAttributeMapper_DefaultTier(t *testing.T) {
	rs := attrRules(10)
	cohorts := BuildCohorts(nil, rs)
	mapper := NewAttributeMapper(cohorts, rs)

	r := mapper.Map("durability", map[string]float64{}, model.PosRB, "2000s")
	assert.Equal(t, model.TierDefault, r.SourceTier)
	assert.Equal(t, 70, r.Value)
}

func TestAttributeMapper_ExhaustedChainLandsOnFloor(t *testing.T) {
	rs := attrRules(10)
	rs.Attributes["speed"] = rules.AttributeConfig{
		Floor:   40,
		Ceiling: 99,
		Sources: []rules.SourceConfig{
			{Tier: 1, Kind: rules.SourceMetric, Metric: "forty_time"},
		},
	}
	cohorts := BuildCohorts(nil, rs)
	mapper := NewAttributeMapper(cohorts, rs)

	r := mapper.Map("speed", map[string]float64{}, model.PosRB, "2000s")
	assert.Equal(t, 40, r.Value)
	assert.Equal(t, model.TierDefault, r.SourceTier)
}

func TestScaleToBounds(t *testing.T) {
	ac := rules.AttributeConfig{Floor: 40, Ceiling: 99}
	assert.Equal(t, 40, scaleToBounds(0, ac))
	assert.Equal(t, 99, scaleToBounds(1, ac))
	assert.Equal(t, 70, scaleToBounds(0.5, ac))
	// Out-of-range percentiles clamp rather than escape the scale.
	assert.Equal(t, 99, scaleToBounds(1.4, ac))
	assert.Equal(t, 40, scaleToBounds(-0.2, ac))
}

func TestApplyModifier_ReClamps(t *testing.T) {
	rs := attrRules(4)
	mapper := NewAttributeMapper(BuildCohorts(nil, rs), rs)

	r := model.AttributeRating{Attribute: "speed", Value: 97}
	got := mapper.ApplyModifier(r, 5)
	assert.Equal(t, 99, got.Value, "modifier must not push past the ceiling")
	assert.Equal(t, 5, got.Modifier)

	low := model.AttributeRating{Attribute: "speed", Value: 42}
	got = mapper.ApplyModifier(low, -6)
	assert.Equal(t, 40, got.Value)

	unchanged := mapper.ApplyModifier(r, 0)
	assert.Equal(t, r, unchanged)
}
