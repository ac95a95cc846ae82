package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

// PairKey identifies one individual-position pair.
type PairKey struct {
	ID       string
	Position model.Position
}

// Engine runs the full legend scoring and roster allocation pipeline over
// an immutable input snapshot. All state the stages share is read-only, so
// position buckets execute in parallel without locks.
type Engine struct {
	rs      *rules.Ruleset
	workers int
}

// NewEngine creates an engine. workers bounds per-position parallelism;
// values below one run sequentially.
func NewEngine(rs *rules.Ruleset, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{rs: rs, workers: workers}
}

// positionOutcome is one bucket's disjoint output partition.
type positionOutcome struct {
	eligible    []model.RankScore
	ineligible  []model.RankScore
	eligibility []model.EligibilityRecord
	warnings    []string
}

// Run executes stages 1-7 over the snapshot and returns the complete run
// result. Identical inputs and ruleset always yield byte-identical
// manifests and ratings, sequential or parallel.
func (e *Engine) Run(ctx context.Context, runID, snapshotID string, individuals []model.IndividualRecord) (*model.RunResult, error) {
	log := zap.L().With(zap.String("run_id", runID), zap.String("snapshot", snapshotID))
	log.Info("pipeline: starting run", zap.Int("individuals", len(individuals)))

	configHash, err := e.rs.Hash()
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: hash ruleset")
	}

	result := &model.RunResult{}
	var phasesMu sync.Mutex
	trackPhase := func(name string, fn func() (map[string]any, error)) error {
		start := time.Now()
		meta, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		pr := model.PhaseResult{Name: name, Duration: duration, Metadata: meta}
		if fnErr != nil {
			pr.Status = "failed"
			pr.Error = fnErr.Error()
			log.Error("pipeline: phase failed", zap.String("phase", name), zap.Int64("duration_ms", duration), zap.Error(fnErr))
		} else {
			pr.Status = "complete"
			log.Info("pipeline: phase complete", zap.String("phase", name), zap.Int64("duration_ms", duration))
		}
		phasesMu.Lock()
		result.Phases = append(result.Phases, pr)
		phasesMu.Unlock()
		return fnErr
	}

	// ===== Stage 1: cohort build (once per run, immutable afterwards) =====
	var cohorts *CohortTable
	if err := trackPhase("1_cohorts", func() (map[string]any, error) {
		cohorts = BuildCohorts(individuals, e.rs)
		return map[string]any{"positions": len(cohorts.values)}, nil
	}); err != nil {
		return result, err
	}

	byPos := groupByPosition(individuals)
	positions := sortedPositions(byPos)
	leaderboards := e.careerLeaderboards(byPos)

	// ===== Stages 2-4: peak detection, gating, ranking per position =====
	outcomes := make([]positionOutcome, len(positions))
	if err := trackPhase("2_rank", func() (map[string]any, error) {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for i, pos := range positions {
			i, pos := i, pos
			g.Go(func() error {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				outcomes[i] = e.rankPosition(pos, byPos[pos], cohorts, leaderboards[pos])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, eris.Wrap(err, "pipeline: rank positions")
		}
		return map[string]any{"positions": len(positions)}, nil
	}); err != nil {
		return result, err
	}

	eligibility := make(map[PairKey]model.EligibilityRecord)
	input := AllocationInput{
		Eligible:   make(map[model.Position][]model.RankScore),
		Ineligible: make(map[model.Position][]model.RankScore),
	}
	var warnings []string
	ranked := 0
	for i, pos := range positions {
		out := &outcomes[i]
		input.Eligible[pos] = out.eligible
		input.Ineligible[pos] = out.ineligible
		ranked += len(out.eligible) + len(out.ineligible)
		for _, er := range out.eligibility {
			eligibility[PairKey{ID: er.IndividualID, Position: er.Position}] = er
		}
		warnings = append(warnings, out.warnings...)
	}
	result.TotalRanked = ranked

	// ===== Stage 5: quota allocation (join point: needs every bucket) =====
	var manifest *model.SelectionManifest
	if err := trackPhase("3_allocate", func() (map[string]any, error) {
		manifest = Allocate(input, e.rs.Quotas)
		return map[string]any{
			"entries":  len(manifest.Entries),
			"included": manifest.IncludedCount(),
			"flex":     manifest.FlexUsed,
		}, nil
	}); err != nil {
		return result, err
	}
	warnings = append(warnings, manifest.Warnings...)

	// ===== Stages 6-7: attribute mapping and archetypes for the winners =====
	var ratings []model.AttributeRating
	var archetypes []model.ArchetypeAssignment
	if err := trackPhase("4_attributes", func() (map[string]any, error) {
		ratings, archetypes = e.mapSelected(manifest, byPos, cohorts)
		return map[string]any{"ratings": len(ratings), "archetypes": len(archetypes)}, nil
	}); err != nil {
		return result, err
	}

	if err := CheckInvariants(manifest, eligibility, ratings, e.rs); err != nil {
		return result, eris.Wrap(err, "pipeline: contract check")
	}

	result.Selection = manifest
	result.Ratings = ratings
	result.Archetypes = archetypes
	result.Manifest = BuildRunManifest(runID, snapshotID, configHash, individuals, e.rs, warnings)

	log.Info("pipeline: run complete",
		zap.Int("ranked", ranked),
		zap.Int("included", manifest.IncludedCount()),
		zap.Int("ratings", len(ratings)),
		zap.Int("warnings", len(result.Manifest.Warnings)),
	)
	return result, nil
}

// rankPosition computes stages 2-4 for one position bucket. It reads only
// the shared cohort table and writes only its own outcome.
func (e *Engine) rankPosition(pos model.Position, recs []*model.IndividualRecord, cohorts *CohortTable, statRank map[string]int) positionOutcome {
	out := positionOutcome{}
	svMetric := e.rs.Peak.SeasonValueMetric
	cvMetric := e.rs.Ranking.CareerValueMetric

	for _, rec := range recs {
		era, clamped := e.eraFor(rec.FirstYear)
		if clamped {
			out.warnings = append(out.warnings,
				fmt.Sprintf("individual %s first year %d outside configured era buckets, clamped to %s", rec.ID, rec.FirstYear, era))
		}

		// Normalized per-season series for peak detection. Undefined
		// percentiles contribute the neutral midpoint so gaps in cohort
		// coverage don't break window consecutiveness.
		var series []SeasonValue
		var zSum float64
		var zCount int
		for _, sm := range rec.SeasonStats {
			if sm.Position != pos {
				continue
			}
			raw, ok := sm.Values[svMetric]
			if !ok {
				continue
			}
			seasonEra, _ := e.eraFor(sm.Year)
			pct, ok := cohorts.Normalize(svMetric, raw, pos, seasonEra)
			if !ok {
				pct = neutralComponent
			}
			series = append(series, SeasonValue{Year: sm.Year, Value: pct})
			if z, ok := cohorts.SeasonZ(raw, pos, sm.Year); ok {
				zSum += z
				zCount++
			}
		}

		pw := FindPeak(series, e.rs.Peak.WindowLength, e.rs.Peak.AllowGaps)
		peak := math.NaN()
		if len(series) > 0 {
			peak = pw.Score
		}

		eraDom := math.NaN()
		if zCount > 0 {
			eraDom = zToUnit(zSum / float64(zCount))
		}

		metrics := CareerMetrics(rec)
		var career float64
		if cv, ok := metrics[cvMetric]; ok {
			pct, pok := cohorts.Normalize(cvMetric, cv, pos, era)
			career = careerScore(pct, pok, rec.Honors)
		} else {
			career = careerScore(0, false, rec.Honors)
		}

		pbPct, ok1 := cohorts.Normalize("pro_bowls", float64(rec.Honors.ProBowls), pos, era)
		apPct, ok2 := cohorts.Normalize("all_pros", float64(rec.Honors.AllPros), pos, era)
		honors := honorsIndex(pbPct, apPct, ok1 && ok2, rec.Honors.HallOfFame)

		rs := Composite(rec.ID, pos, Components{
			Peak:         peak,
			Career:       career,
			EraDominance: eraDom,
			Honors:       honors,
		}, e.rs.Weights)
		if len(series) > 0 {
			rs.PeakStart = pw.StartYear
			rs.PeakEnd = pw.EndYear
			rs.ShortCareer = pw.ShortCareer
		}

		er := EvaluateEligibility(rec, pos, EligibilityInput{CareerStatRank: statRank[rec.ID]}, e.rs.Eligibility)
		out.eligibility = append(out.eligibility, er)
		if er.Qualifies {
			out.eligible = append(out.eligible, rs)
		} else {
			out.ineligible = append(out.ineligible, rs)
		}
	}
	return out
}

// mapSelected runs attribute mapping and archetype assignment for every
// included manifest entry, in deterministic order.
func (e *Engine) mapSelected(manifest *model.SelectionManifest, byPos map[model.Position][]*model.IndividualRecord, cohorts *CohortTable) ([]model.AttributeRating, []model.ArchetypeAssignment) {
	mapper := NewAttributeMapper(cohorts, e.rs)

	attrKeys := make([]string, 0, len(e.rs.Attributes))
	for k := range e.rs.Attributes {
		attrKeys = append(attrKeys, k)
	}
	sort.Strings(attrKeys)

	recIndex := make(map[PairKey]*model.IndividualRecord)
	for pos, recs := range byPos {
		for _, rec := range recs {
			recIndex[PairKey{ID: rec.ID, Position: pos}] = rec
		}
	}

	// Included entries grouped per position, manifest order (already
	// deterministic).
	includedByPos := make(map[model.Position][]model.SelectionEntry)
	var positions []model.Position
	for _, entry := range manifest.Entries {
		if !entry.Included {
			continue
		}
		if _, ok := includedByPos[entry.Position]; !ok {
			positions = append(positions, entry.Position)
		}
		includedByPos[entry.Position] = append(includedByPos[entry.Position], entry)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	var ratings []model.AttributeRating
	var assignments []model.ArchetypeAssignment

	for _, pos := range positions {
		defs := e.rs.Archetypes[pos]

		// Feature vectors over the archetype centroids' feature metrics.
		features := make(map[string]FeatureVector)
		perIndividual := make(map[string][]model.AttributeRating)

		for _, entry := range includedByPos[pos] {
			rec := recIndex[PairKey{ID: entry.IndividualID, Position: pos}]
			if rec == nil {
				continue
			}
			era, _ := e.eraFor(rec.FirstYear)
			metrics := CareerMetrics(rec)

			var indRatings []model.AttributeRating
			for _, key := range attrKeys {
				r := mapper.Map(key, metrics, pos, era)
				r.IndividualID = rec.ID
				indRatings = append(indRatings, r)
			}
			perIndividual[rec.ID] = indRatings

			fv := make(FeatureVector)
			for _, def := range defs {
				for metric := range def.Centroid {
					if v, ok := metrics[metric]; ok {
						if pct, ok := cohorts.Normalize(metric, v, pos, era); ok {
							fv[metric] = pct
						}
					}
				}
			}
			features[rec.ID] = fv
		}

		assigned := AssignArchetypes(pos, features, defs)

		for _, entry := range includedByPos[pos] {
			indRatings := perIndividual[entry.IndividualID]
			if a, ok := assigned[entry.IndividualID]; ok {
				assignments = append(assignments, a)
				for i := range indRatings {
					if mod, ok := a.Modifiers[indRatings[i].Attribute]; ok {
						indRatings[i] = mapper.ApplyModifier(indRatings[i], mod)
					}
				}
			}
			ratings = append(ratings, indRatings...)
		}
	}

	sort.Slice(ratings, func(i, j int) bool {
		if ratings[i].IndividualID != ratings[j].IndividualID {
			return ratings[i].IndividualID < ratings[j].IndividualID
		}
		return ratings[i].Attribute < ratings[j].Attribute
	})
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].Position != assignments[j].Position {
			return assignments[i].Position < assignments[j].Position
		}
		return assignments[i].IndividualID < assignments[j].IndividualID
	})
	return ratings, assignments
}

// careerLeaderboards ranks each position's individuals by the configured
// career value metric, for the top-K positional-impact path.
func (e *Engine) careerLeaderboards(byPos map[model.Position][]*model.IndividualRecord) map[model.Position]map[string]int {
	cvMetric := e.rs.Ranking.CareerValueMetric
	boards := make(map[model.Position]map[string]int, len(byPos))
	for pos, recs := range byPos {
		type entry struct {
			id    string
			value float64
		}
		var entries []entry
		for _, rec := range recs {
			if v, ok := rec.CareerStats[cvMetric]; ok {
				entries = append(entries, entry{id: rec.ID, value: v})
			}
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].value != entries[j].value {
				return entries[i].value > entries[j].value
			}
			return entries[i].id < entries[j].id
		})
		ranks := make(map[string]int, len(entries))
		for i, en := range entries {
			ranks[en.id] = i + 1
		}
		boards[pos] = ranks
	}
	return boards
}

// eraFor returns the era bucket name for a first-season year, clamping
// years outside the configured range to the nearest bucket. The second
// return reports whether clamping happened.
func (e *Engine) eraFor(year int) (string, bool) {
	if b, ok := e.rs.BucketFor(year); ok {
		return b.Name, false
	}
	buckets := e.rs.Eras.Buckets
	if len(buckets) == 0 {
		return "", true
	}
	if year < buckets[0].FromYear {
		return buckets[0].Name, true
	}
	return buckets[len(buckets)-1].Name, true
}

func groupByPosition(individuals []model.IndividualRecord) map[model.Position][]*model.IndividualRecord {
	byPos := make(map[model.Position][]*model.IndividualRecord)
	for i := range individuals {
		rec := &individuals[i]
		for _, pos := range rec.Positions {
			byPos[pos] = append(byPos[pos], rec)
		}
	}
	// Sort each bucket by ID so worker output never depends on input order.
	for _, recs := range byPos {
		sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	}
	return byPos
}

func sortedPositions(byPos map[model.Position][]*model.IndividualRecord) []model.Position {
	positions := make([]model.Position, 0, len(byPos))
	for pos := range byPos {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	return positions
}
