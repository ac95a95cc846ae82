package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

func invariantFixture() (*model.SelectionManifest, map[PairKey]model.EligibilityRecord, *rules.Ruleset) {
	rs := attrRules(4)
	rs.Quotas = rules.QuotaConfig{
		PerPosition: map[model.Position]int{model.PosQB: 1},
		GlobalTotal: 5,
		FlexMode:    rules.FlexShrink,
	}

	manifest := &model.SelectionManifest{
		Entries: []model.SelectionEntry{
			{IndividualID: "p1", Position: model.PosQB, Rank: 1, Included: true, Reason: model.ReasonSelected, Composite: 0.8},
			{IndividualID: "p2", Position: model.PosQB, Rank: 2, Reason: model.ReasonQuotaExceeded, Composite: 0.6},
		},
		Summaries: []model.PositionSummary{
			{Position: model.PosQB, Quota: 1, Eligible: 2, Included: 1},
		},
	}
	eligibility := map[PairKey]model.EligibilityRecord{
		{ID: "p1", Position: model.PosQB}: {IndividualID: "p1", Position: model.PosQB, Qualifies: true},
		{ID: "p2", Position: model.PosQB}: {IndividualID: "p2", Position: model.PosQB, Qualifies: true},
	}
	return manifest, eligibility, rs
}

func TestCheckInvariants_CleanRun(t *testing.T) {
	manifest, eligibility, rs := invariantFixture()
	assert.NoError(t, CheckInvariants(manifest, eligibility, nil, rs))
}

func TestCheckInvariants_IncludedIneligible(t *testing.T) {
	manifest, eligibility, rs := invariantFixture()
	eligibility[PairKey{ID: "p1", Position: model.PosQB}] = model.EligibilityRecord{
		IndividualID: "p1", Position: model.PosQB, Qualifies: false,
	}
	err := CheckInvariants(manifest, eligibility, nil, rs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ineligible selection")
}

func TestCheckInvariants_DuplicatePair(t *testing.T) {
	manifest, eligibility, rs := invariantFixture()
	manifest.Entries = append(manifest.Entries, manifest.Entries[0])
	err := CheckInvariants(manifest, eligibility, nil, rs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestCheckInvariants_MissingEligibilityRecord(t *testing.T) {
	manifest, eligibility, rs := invariantFixture()
	delete(eligibility, PairKey{ID: "p2", Position: model.PosQB})
	err := CheckInvariants(manifest, eligibility, nil, rs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no eligibility record")
}

func TestCheckInvariants_GatedPairMissingFromManifest(t *testing.T) {
	manifest, eligibility, rs := invariantFixture()
	eligibility[PairKey{ID: "p9", Position: model.PosQB}] = model.EligibilityRecord{
		IndividualID: "p9", Position: model.PosQB,
	}
	err := CheckInvariants(manifest, eligibility, nil, rs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing from the manifest")
}

func TestCheckInvariants_NonFiniteComposite(t *testing.T) {
	manifest, eligibility, rs := invariantFixture()
	manifest.Entries[0].Composite = math.NaN()
	err := CheckInvariants(manifest, eligibility, nil, rs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finite composite")
}

func TestCheckInvariants_ShortfallMismatch(t *testing.T) {
	manifest, eligibility, rs := invariantFixture()
	manifest.Summaries[0].Quota = 5
	manifest.Summaries[0].Shortfall = 1 // should be 3
	err := CheckInvariants(manifest, eligibility, nil, rs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shortfall")
}

func TestCheckInvariants_RatingOutOfBounds(t *testing.T) {
	manifest, eligibility, rs := invariantFixture()
	ratings := []model.AttributeRating{
		{IndividualID: "p1", Attribute: "speed", Value: 120},
	}
	err := CheckInvariants(manifest, eligibility, ratings, rs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bounded rating")
}

func TestBuildRunManifest(t *testing.T) {
	rs := eraTestRules(4)
	individuals := []model.IndividualRecord{
		careerRec("p1", model.PosQB, 1985, 10),
		careerRec("p2", model.PosRB, 2005, 20),
		careerRec("p3", model.PosRB, 1850, 30),
	}
	m := BuildRunManifest("run-1", "snap-1", "hash-1", individuals, rs, []string{"zz warning", "aa warning"})

	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, 3, m.RecordCount)
	assert.Equal(t, 2, m.PositionCounts[model.PosRB])
	assert.Equal(t, 1, m.EraCounts["1980s"])
	assert.Equal(t, 1, m.EraCounts["unbucketed"])
	assert.Equal(t, []string{"aa warning", "zz warning"}, m.Warnings)
	assert.NotEmpty(t, m.ComponentVersions)
	assert.NotEmpty(t, m.ProcessingSteps)
}
