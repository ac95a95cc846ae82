package pipeline

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

var unitWeights = rules.WeightConfig{Peak: 1, Career: 1, EraDominance: 1, Honors: 1}

func TestComposite_WeightedSum(t *testing.T) {
	w := rules.WeightConfig{Peak: 2, Career: 1, EraDominance: 1, Honors: 1}
	rs := Composite("p1", model.PosQB, Components{Peak: 1, Career: 0, EraDominance: 0.5, Honors: 0.5}, w)
	assert.InDelta(t, (2*1+0+0.5+0.5)/5, rs.Composite, 1e-9)
}

func TestComposite_UndefinedTermsResolveToNeutral(t *testing.T) {
	rs := Composite("p1", model.PosQB, Components{
		Peak:         math.NaN(),
		Career:       math.NaN(),
		EraDominance: math.NaN(),
		Honors:       math.NaN(),
	}, unitWeights)
	assert.InDelta(t, 0.5, rs.Composite, 1e-9)
	assert.InDelta(t, 0.5, rs.PeakScore, 1e-9)
	assert.False(t, math.IsNaN(rs.Composite))
}

func TestComposite_ClampsOutOfRangeTerms(t *testing.T) {
	rs := Composite("p1", model.PosQB, Components{Peak: 1.5, Career: -0.3, EraDominance: math.Inf(1), Honors: 0.5}, unitWeights)
	assert.Equal(t, 1.0, rs.PeakScore)
	assert.Equal(t, 0.0, rs.CareerScore)
	assert.Equal(t, 0.5, rs.EraDominance)
	assert.True(t, rs.Composite >= 0 && rs.Composite <= 1)
}

func TestRankLess_TotalOrder(t *testing.T) {
	scores := []model.RankScore{
		{IndividualID: "c", Composite: 0.7},
		{IndividualID: "a", Composite: 0.9},
		{IndividualID: "b", Composite: 0.7},
	}
	sort.SliceStable(scores, func(i, j int) bool { return RankLess(scores[i], scores[j]) })
	assert.Equal(t, "a", scores[0].IndividualID)
	// Equal composites break by ID ascending.
	assert.Equal(t, "b", scores[1].IndividualID)
	assert.Equal(t, "c", scores[2].IndividualID)
}

func TestCareerScore(t *testing.T) {
	h := model.Honors{ProBowls: 5, AllPros: 2, HallOfFame: true}
	// monitor = 0.04*5 + 0.08*2 + 0.4 = 0.76
	got := careerScore(0.8, true, h)
	assert.InDelta(t, 0.7*0.8+0.3*0.76, got, 1e-9)

	// Undefined career percentile falls back to the neutral midpoint.
	got = careerScore(0, false, h)
	assert.InDelta(t, 0.7*0.5+0.3*0.76, got, 1e-9)
}

func TestHofMonitor_Capped(t *testing.T) {
	h := model.Honors{ProBowls: 12, AllPros: 8, HallOfFame: true}
	assert.Equal(t, 1.0, hofMonitor(h))
	assert.Equal(t, 0.0, hofMonitor(model.Honors{}))
}

func TestHonorsIndex(t *testing.T) {
	assert.InDelta(t, 0.45*0.9+0.35*0.8, honorsIndex(0.9, 0.8, true, false), 1e-9)
	assert.InDelta(t, 0.45*0.9+0.35*0.8+0.2, honorsIndex(0.9, 0.8, true, true), 1e-9)
	assert.Equal(t, 1.0, honorsIndex(1, 1, true, true))
	// Undefined honors percentiles fall back to neutral.
	assert.InDelta(t, 0.45*0.5+0.35*0.5, honorsIndex(0, 0, false, false), 1e-9)
}

func TestZToUnit(t *testing.T) {
	assert.InDelta(t, 0.5, zToUnit(0), 1e-9)
	assert.Greater(t, zToUnit(2), 0.97)
	assert.Less(t, zToUnit(-2), 0.03)
}
