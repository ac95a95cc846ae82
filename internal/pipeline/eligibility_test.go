package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

func gateConfig() rules.EligibilityConfig {
	return rules.EligibilityConfig{
		MinGames: 40,
		Peak:     rules.PeakDominanceConfig{MinHonors: 3, WithinSeasons: 5},
		Sustain:  rules.SustainedConfig{SeasonsWithHonor: 8, SeasonsAny: 12},
		Impact: rules.PositionalImpactConfig{
			MaxDraftPick:       10,
			DraftMinSeasons:    4,
			TopCareerRank:      5,
			TopRankMinSeasons:  3,
			SingleTeamSeasons:  10,
			MinPostseasonGames: 4,
		},
	}
}

func matched(er model.EligibilityRecord, kind model.PathKind) bool {
	for _, p := range er.Paths {
		if p.Kind == kind {
			return p.Matched
		}
	}
	return false
}

func TestEligibility_PeakDominanceHonorsBurst(t *testing.T) {
	rec := &model.IndividualRecord{
		ID: "p1", Games: 60, Seasons: 4,
		Honors: model.Honors{ProBowls: 2, AllPros: 1},
	}
	er := EvaluateEligibility(rec, model.PosQB, EligibilityInput{}, gateConfig())
	assert.True(t, er.Qualifies)
	assert.True(t, matched(er, model.PathPeakDominance))
}

func TestEligibility_GamesFloorBlocksPeakPathOnly(t *testing.T) {
	// Below the games floor, the honors burst cannot qualify, but a long
	// career still can.
	rec := &model.IndividualRecord{
		ID: "p1", Games: 30, Seasons: 12,
		Honors: model.Honors{ProBowls: 4},
	}
	er := EvaluateEligibility(rec, model.PosQB, EligibilityInput{}, gateConfig())
	assert.True(t, er.Qualifies)
	assert.False(t, matched(er, model.PathPeakDominance))
	assert.True(t, matched(er, model.PathSustainedExcellence))
}

func TestEligibility_HallOfFame(t *testing.T) {
	rec := &model.IndividualRecord{
		ID: "p1", Games: 80, Seasons: 6,
		Honors: model.Honors{HallOfFame: true},
	}
	er := EvaluateEligibility(rec, model.PosDL, EligibilityInput{}, gateConfig())
	assert.True(t, er.Qualifies)
	assert.True(t, matched(er, model.PathPeakDominance))
}

func TestEligibility_ElitePeerRecognition(t *testing.T) {
	rec := &model.IndividualRecord{
		ID: "p1", Games: 50, Seasons: 5,
		Honors: model.Honors{ElitePeer: true},
	}
	er := EvaluateEligibility(rec, model.PosLB, EligibilityInput{}, gateConfig())
	assert.True(t, er.Qualifies)
}

func TestEligibility_SustainedWithHonor(t *testing.T) {
	rec := &model.IndividualRecord{
		ID: "p1", Games: 100, Seasons: 8,
		Honors: model.Honors{ProBowls: 1},
	}
	er := EvaluateEligibility(rec, model.PosOL, EligibilityInput{}, gateConfig())
	assert.True(t, er.Qualifies)
	assert.True(t, matched(er, model.PathSustainedExcellence))
}

func TestEligibility_DraftPedigree(t *testing.T) {
	rec := &model.IndividualRecord{
		ID: "p1", Games: 50, Seasons: 4,
		Draft: &model.DraftInfo{OverallPick: 5},
	}
	er := EvaluateEligibility(rec, model.PosWR, EligibilityInput{}, gateConfig())
	assert.True(t, er.Qualifies)
	assert.True(t, matched(er, model.PathPositionalImpact))
}

func TestEligibility_TopCareerRank(t *testing.T) {
	rec := &model.IndividualRecord{ID: "p1", Games: 50, Seasons: 3}
	er := EvaluateEligibility(rec, model.PosTE, EligibilityInput{CareerStatRank: 4}, gateConfig())
	assert.True(t, er.Qualifies)
	assert.True(t, matched(er, model.PathPositionalImpact))

	// Rank outside K does not qualify.
	er = EvaluateEligibility(rec, model.PosTE, EligibilityInput{CareerStatRank: 6}, gateConfig())
	assert.False(t, er.Qualifies)
}

func TestEligibility_SingleTeamTenure(t *testing.T) {
	rec := &model.IndividualRecord{
		ID: "p1", Games: 120, Seasons: 10,
		Tenures: []model.TeamTenure{{Team: "A", FirstYear: 1990, LastYear: 1999, PostseasonGames: 6}},
	}
	er := EvaluateEligibility(rec, model.PosDB, EligibilityInput{}, gateConfig())
	assert.True(t, er.Qualifies)
	assert.True(t, matched(er, model.PathPositionalImpact))
}

func TestEligibility_ZeroSustainedThresholdsDisablePath(t *testing.T) {
	// An omitted sustained_excellence section must not qualify everyone.
	ec := rules.EligibilityConfig{MinGames: 40}
	rec := &model.IndividualRecord{ID: "p1", Games: 2, Seasons: 1}
	er := EvaluateEligibility(rec, model.PosQB, EligibilityInput{}, ec)
	assert.False(t, er.Qualifies)
	assert.False(t, matched(er, model.PathSustainedExcellence))

	// The honor-gated branch is disabled independently of seasons_any.
	ec.Sustain = rules.SustainedConfig{SeasonsAny: 12}
	rec = &model.IndividualRecord{
		ID: "p2", Games: 100, Seasons: 6,
		Honors: model.Honors{ProBowls: 1},
	}
	er = EvaluateEligibility(rec, model.PosQB, EligibilityInput{}, ec)
	assert.False(t, matched(er, model.PathSustainedExcellence))
}

func TestEligibility_NoPathRetainedNotDropped(t *testing.T) {
	rec := &model.IndividualRecord{ID: "p1", Games: 20, Seasons: 2}
	er := EvaluateEligibility(rec, model.PosQB, EligibilityInput{}, gateConfig())
	assert.False(t, er.Qualifies)
	require.Len(t, er.Paths, 3)
	for _, p := range er.Paths {
		assert.False(t, p.Matched)
	}
	assert.Empty(t, er.MatchedPaths())
}
