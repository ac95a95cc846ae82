package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

// InvariantError marks a programming-level defect: the pipeline's own
// contracts were broken, not a data-quality issue. Runs abort on it.
type InvariantError struct {
	Stage     string
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation at %s: %s: %s", e.Stage, e.Invariant, e.Detail)
}

// CheckInvariants verifies the cross-stage contracts before a run result is
// persisted: quota conservation, eligibility completeness, rating bounds,
// and finite composites.
func CheckInvariants(manifest *model.SelectionManifest, eligibility map[PairKey]model.EligibilityRecord, ratings []model.AttributeRating, rs *rules.Ruleset) error {
	// Every pair appears exactly once.
	seen := make(map[PairKey]bool, len(manifest.Entries))
	flexByPos := make(map[model.Position]int)
	includedTotal := 0
	for i := range manifest.Entries {
		e := &manifest.Entries[i]
		key := PairKey{ID: e.IndividualID, Position: e.Position}
		if seen[key] {
			return &InvariantError{Stage: "allocate", Invariant: "eligibility completeness",
				Detail: fmt.Sprintf("pair %s/%s appears more than once in the manifest", e.IndividualID, e.Position)}
		}
		seen[key] = true

		if math.IsNaN(e.Composite) || math.IsInf(e.Composite, 0) {
			return &InvariantError{Stage: "rank", Invariant: "finite composite",
				Detail: fmt.Sprintf("pair %s/%s has non-finite composite", e.IndividualID, e.Position)}
		}

		er, ok := eligibility[key]
		if !ok {
			return &InvariantError{Stage: "gate", Invariant: "eligibility completeness",
				Detail: fmt.Sprintf("manifest pair %s/%s has no eligibility record", e.IndividualID, e.Position)}
		}
		if e.Included {
			includedTotal++
			if !er.Qualifies {
				return &InvariantError{Stage: "allocate", Invariant: "no ineligible selection",
					Detail: fmt.Sprintf("pair %s/%s included with qualifies=false", e.IndividualID, e.Position)}
			}
			if e.Reason == model.ReasonSelectedFlex {
				flexByPos[e.Position]++
			}
		}
	}
	for key := range eligibility {
		if !seen[key] {
			return &InvariantError{Stage: "allocate", Invariant: "eligibility completeness",
				Detail: fmt.Sprintf("gated pair %s/%s missing from the manifest", key.ID, key.Position)}
		}
	}

	// Quota conservation per position: included equals min(quota, eligible)
	// plus any flex promotions, and a shortfall must be recorded when
	// eligibility ran out. A recorded global-budget cap legitimately leaves
	// buckets below quota.
	capped := budgetCapped(manifest)
	for _, s := range manifest.Summaries {
		expected := s.Quota
		if s.Eligible < expected {
			expected = s.Eligible
		}
		expected += flexByPos[s.Position]
		if s.Included > expected {
			return &InvariantError{Stage: "allocate", Invariant: "quota conservation",
				Detail: fmt.Sprintf("position %s included %d, expected at most %d", s.Position, s.Included, expected)}
		}
		if s.Included < expected && !capped {
			return &InvariantError{Stage: "allocate", Invariant: "quota conservation",
				Detail: fmt.Sprintf("position %s included %d below %d without a recorded shortfall", s.Position, s.Included, expected)}
		}
		if s.Eligible < s.Quota && s.Shortfall != s.Quota-s.Eligible {
			return &InvariantError{Stage: "allocate", Invariant: "quota conservation",
				Detail: fmt.Sprintf("position %s shortfall %d, expected %d", s.Position, s.Shortfall, s.Quota-s.Eligible)}
		}
	}
	if includedTotal > rs.Quotas.GlobalTotal {
		return &InvariantError{Stage: "allocate", Invariant: "global budget",
			Detail: fmt.Sprintf("included %d above global total %d", includedTotal, rs.Quotas.GlobalTotal)}
	}

	// Rating bounds post-modifier.
	for i := range ratings {
		r := &ratings[i]
		ac, ok := rs.Attributes[r.Attribute]
		if !ok {
			continue
		}
		if r.Value < ac.Floor || r.Value > ac.Ceiling {
			return &InvariantError{Stage: "attributes", Invariant: "bounded rating",
				Detail: fmt.Sprintf("%s/%s value %d outside [%d,%d]", r.IndividualID, r.Attribute, r.Value, ac.Floor, ac.Ceiling)}
		}
	}

	return nil
}

// budgetCapped reports whether the allocator recorded a global-budget
// warning, which legitimately leaves positions below quota.
func budgetCapped(manifest *model.SelectionManifest) bool {
	for _, w := range manifest.Warnings {
		if strings.Contains(w, "global budget reached") {
			return true
		}
	}
	return false
}

// Component version markers recorded in every run manifest so downstream
// consumers can verify which rule implementations produced a roster.
var componentVersions = map[string]string{
	"era_normalizer":     "v2",
	"peak_window":        "v1",
	"eligibility_gate":   "v2",
	"composite_ranker":   "v2",
	"quota_allocator":    "v2",
	"attribute_mapper":   "v1",
	"archetype_assigner": "v1",
}

var processingSteps = []string{
	"cohort_build",
	"peak_detection",
	"eligibility_gating",
	"composite_ranking",
	"quota_allocation",
	"attribute_mapping",
	"archetype_assignment",
}

// BuildRunManifest assembles the provenance record for a completed run.
func BuildRunManifest(runID, snapshotID, configHash string, individuals []model.IndividualRecord, rs *rules.Ruleset, warnings []string) *model.RunManifest {
	posCounts := make(map[model.Position]int)
	eraCounts := make(map[string]int)
	for i := range individuals {
		rec := &individuals[i]
		for _, pos := range rec.Positions {
			posCounts[pos]++
		}
		if b, ok := rs.BucketFor(rec.FirstYear); ok {
			eraCounts[b.Name]++
		} else {
			eraCounts["unbucketed"]++
		}
	}

	sorted := append([]string(nil), warnings...)
	sort.Strings(sorted)

	versions := make(map[string]string, len(componentVersions))
	for k, v := range componentVersions {
		versions[k] = v
	}

	return &model.RunManifest{
		RunID:             runID,
		RunDate:           time.Now().UTC().Format("2006-01-02"),
		SnapshotID:        snapshotID,
		ConfigHash:        configHash,
		ComponentVersions: versions,
		RecordCount:       len(individuals),
		PositionCounts:    posCounts,
		EraCounts:         eraCounts,
		ProcessingSteps:   append([]string(nil), processingSteps...),
		Warnings:          sorted,
	}
}
