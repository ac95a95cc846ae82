package pipeline

import (
	"fmt"
	"sort"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

// AllocationInput carries every individual-position pair that reached the
// allocator, split by gate verdict.
type AllocationInput struct {
	Eligible   map[model.Position][]model.RankScore
	Ineligible map[model.Position][]model.RankScore
}

// Allocate selects the top-quota eligible records per position bucket under
// the global capacity budget and returns the full inclusion/exclusion
// manifest. Allocation is a pure function of its inputs: identical ranked
// input and quota configuration always yield an identical manifest.
//
// Positions are processed in sorted order and every sort uses the total
// order from RankLess, so repeated runs are byte-identical.
func Allocate(in AllocationInput, qc rules.QuotaConfig) *model.SelectionManifest {
	manifest := &model.SelectionManifest{}

	positions := allocationPositions(in)

	quotaSum := 0
	for _, q := range qc.PerPosition {
		quotaSum += q
	}
	if quotaSum > qc.GlobalTotal {
		manifest.Warnings = append(manifest.Warnings,
			fmt.Sprintf("per-position quotas sum to %d, above global total %d; later buckets may be capped", quotaSum, qc.GlobalTotal))
	}

	budget := qc.GlobalTotal
	// Index of each eligible-but-excluded entry for flex promotion.
	type excludedRef struct {
		entryIdx int
		score    model.RankScore
	}
	var excluded []excludedRef

	for _, pos := range positions {
		eligible := append([]model.RankScore(nil), in.Eligible[pos]...)
		sort.SliceStable(eligible, func(i, j int) bool { return RankLess(eligible[i], eligible[j]) })

		quota := qc.PerPosition[pos]
		take := quota
		if take > len(eligible) {
			take = len(eligible)
		}
		if take > budget {
			manifest.Warnings = append(manifest.Warnings,
				fmt.Sprintf("position %s capped at %d of quota %d: global budget reached", pos, budget, quota))
			take = budget
		}

		summary := model.PositionSummary{
			Position: pos,
			Quota:    quota,
			Eligible: len(eligible),
		}
		if len(eligible) < quota {
			summary.Shortfall = quota - len(eligible)
		}
		if len(eligible) == 0 && quota > 0 {
			manifest.Warnings = append(manifest.Warnings,
				fmt.Sprintf("position %s has zero eligible individuals for quota %d", pos, quota))
		}

		rank := 0
		for i, rs := range eligible {
			rank++
			entry := model.SelectionEntry{
				IndividualID: rs.IndividualID,
				Position:     pos,
				Rank:         rank,
				Composite:    rs.Composite,
			}
			if i < take {
				entry.Included = true
				entry.Reason = model.ReasonSelected
				summary.Included++
				budget--
			} else {
				entry.Reason = model.ReasonQuotaExceeded
				excluded = append(excluded, excludedRef{entryIdx: len(manifest.Entries), score: rs})
			}
			manifest.Entries = append(manifest.Entries, entry)
		}

		ineligible := append([]model.RankScore(nil), in.Ineligible[pos]...)
		sort.SliceStable(ineligible, func(i, j int) bool { return RankLess(ineligible[i], ineligible[j]) })
		for _, rs := range ineligible {
			rank++
			manifest.Entries = append(manifest.Entries, model.SelectionEntry{
				IndividualID: rs.IndividualID,
				Position:     pos,
				Rank:         rank,
				Reason:       model.ReasonIneligible,
				Composite:    rs.Composite,
			})
		}

		manifest.Summaries = append(manifest.Summaries, summary)
	}

	// Flex redistribution: unused global slots go to the best excluded
	// eligible records across all positions. This runs strictly after every
	// per-position allocation completes.
	if qc.FlexMode == rules.FlexRedistribute && budget > 0 && len(excluded) > 0 {
		sort.SliceStable(excluded, func(i, j int) bool { return RankLess(excluded[i].score, excluded[j].score) })
		for _, ref := range excluded {
			if budget == 0 {
				break
			}
			entry := &manifest.Entries[ref.entryIdx]
			entry.Included = true
			entry.Reason = model.ReasonSelectedFlex
			manifest.FlexUsed++
			budget--
			for i := range manifest.Summaries {
				if manifest.Summaries[i].Position == entry.Position {
					manifest.Summaries[i].Included++
				}
			}
		}
	}

	return manifest
}

func allocationPositions(in AllocationInput) []model.Position {
	seen := make(map[model.Position]bool)
	var positions []model.Position
	for pos := range in.Eligible {
		if !seen[pos] {
			seen[pos] = true
			positions = append(positions, pos)
		}
	}
	for pos := range in.Ineligible {
		if !seen[pos] {
			seen[pos] = true
			positions = append(positions, pos)
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	return positions
}
