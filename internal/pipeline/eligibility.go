package pipeline

import (
	"fmt"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

// EligibilityInput carries the per-position derived facts the gate needs
// beyond the raw record.
type EligibilityInput struct {
	// CareerStatRank is this individual's 1-based rank in the position's
	// career primary-stat leaderboard; 0 when unranked.
	CareerStatRank int
}

// pathDef is one qualification path: a tagged pure predicate over the
// record. Paths are evaluated in order but combined by OR, so evaluation
// order never changes the verdict. New paths are added by appending here.
type pathDef struct {
	kind model.PathKind
	eval func(rec *model.IndividualRecord, in EligibilityInput, ec rules.EligibilityConfig) (bool, string)
}

var eligibilityPaths = []pathDef{
	{kind: model.PathPeakDominance, eval: evalPeakDominance},
	{kind: model.PathSustainedExcellence, eval: evalSustainedExcellence},
	{kind: model.PathPositionalImpact, eval: evalPositionalImpact},
}

// EvaluateEligibility runs all qualification paths for one
// individual-position pair. The record qualifies if any path matches; a
// record failing every path is retained with Qualifies=false rather than
// dropped, so the allocator can record it as excluded.
func EvaluateEligibility(rec *model.IndividualRecord, pos model.Position, in EligibilityInput, ec rules.EligibilityConfig) model.EligibilityRecord {
	er := model.EligibilityRecord{
		IndividualID: rec.ID,
		Position:     pos,
	}
	for _, p := range eligibilityPaths {
		matched, detail := p.eval(rec, in, ec)
		er.Paths = append(er.Paths, model.PathResult{Kind: p.kind, Matched: matched, Detail: detail})
		if matched {
			er.Qualifies = true
		}
	}
	return er
}

// evalPeakDominance: an honors burst, elite peer recognition, or hall of
// fame induction, all behind the minimum-games floor.
func evalPeakDominance(rec *model.IndividualRecord, _ EligibilityInput, ec rules.EligibilityConfig) (bool, string) {
	if rec.Games < ec.MinGames {
		return false, fmt.Sprintf("below minimum games floor (%d < %d)", rec.Games, ec.MinGames)
	}
	honors := rec.Honors.ProBowls + rec.Honors.AllPros
	if ec.Peak.MinHonors > 0 && honors >= ec.Peak.MinHonors && rec.Seasons <= ec.Peak.WithinSeasons {
		return true, fmt.Sprintf("%d honors within %d seasons", honors, rec.Seasons)
	}
	if rec.Honors.ElitePeer {
		return true, "elite peer recognition"
	}
	if rec.Honors.HallOfFame {
		return true, "hall of fame"
	}
	return false, ""
}

// evalSustainedExcellence: long careers, with a lower season bar when at
// least one honor was earned.
func evalSustainedExcellence(rec *model.IndividualRecord, _ EligibilityInput, ec rules.EligibilityConfig) (bool, string) {
	honors := rec.Honors.ProBowls + rec.Honors.AllPros
	if ec.Sustain.SeasonsWithHonor > 0 && rec.Seasons >= ec.Sustain.SeasonsWithHonor && honors >= 1 {
		return true, fmt.Sprintf("%d seasons with %d honors", rec.Seasons, honors)
	}
	if ec.Sustain.SeasonsAny > 0 && rec.Seasons >= ec.Sustain.SeasonsAny {
		return true, fmt.Sprintf("%d seasons", rec.Seasons)
	}
	return false, ""
}

// evalPositionalImpact: draft pedigree, a top-K career-stat rank, or a long
// single-team tenure with postseason play.
func evalPositionalImpact(rec *model.IndividualRecord, in EligibilityInput, ec rules.EligibilityConfig) (bool, string) {
	if rec.Draft != nil && ec.Impact.MaxDraftPick > 0 &&
		rec.Draft.OverallPick <= ec.Impact.MaxDraftPick && rec.Seasons >= ec.Impact.DraftMinSeasons {
		return true, fmt.Sprintf("draft pick %d with %d seasons", rec.Draft.OverallPick, rec.Seasons)
	}
	if in.CareerStatRank > 0 && ec.Impact.TopCareerRank > 0 &&
		in.CareerStatRank <= ec.Impact.TopCareerRank && rec.Seasons >= ec.Impact.TopRankMinSeasons {
		return true, fmt.Sprintf("career-stat rank %d at position", in.CareerStatRank)
	}
	tenure, postseason := rec.LongestTenure()
	if ec.Impact.SingleTeamSeasons > 0 && tenure >= ec.Impact.SingleTeamSeasons &&
		postseason >= ec.Impact.MinPostseasonGames {
		return true, fmt.Sprintf("%d-season tenure with %d postseason games", tenure, postseason)
	}
	return false, ""
}
