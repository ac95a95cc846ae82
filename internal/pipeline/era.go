package pipeline

import (
	"math"
	"sort"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

// CohortTable is the immutable normalization reference built once per run.
// Career-level observations are bucketed by the individual's first-season
// era; season-level observations by the season's own era. The table is
// read-only after Build, so per-position workers can share it freely.
type CohortTable struct {
	rs *rules.Ruleset
	// values[pos][bucketIdx][metric] holds sorted observations.
	values map[model.Position][]map[string][]float64
	// seasonObs[key] holds raw season-value observations for per-season
	// z-scores (era dominance).
	seasonObs map[seasonKey][]float64
}

type seasonKey struct {
	Position model.Position
	Year     int
}

// BuildCohorts assembles the cohort table from the input snapshot.
func BuildCohorts(individuals []model.IndividualRecord, rs *rules.Ruleset) *CohortTable {
	t := &CohortTable{
		rs:        rs,
		values:    make(map[model.Position][]map[string][]float64),
		seasonObs: make(map[seasonKey][]float64),
	}

	nBuckets := len(rs.Eras.Buckets)
	bucketMaps := func(pos model.Position) []map[string][]float64 {
		if m, ok := t.values[pos]; ok {
			return m
		}
		m := make([]map[string][]float64, nBuckets)
		for i := range m {
			m[i] = make(map[string][]float64)
		}
		t.values[pos] = m
		return m
	}

	svMetric := rs.Peak.SeasonValueMetric

	for i := range individuals {
		rec := &individuals[i]
		careerBucket, ok := rs.BucketFor(rec.FirstYear)
		careerIdx := -1
		if ok {
			careerIdx = rs.BucketIndex(careerBucket.Name)
		}

		for _, pos := range rec.Positions {
			buckets := bucketMaps(pos)
			if careerIdx >= 0 {
				for metric, value := range CareerMetrics(rec) {
					buckets[careerIdx][metric] = append(buckets[careerIdx][metric], value)
				}
			}

			for _, sm := range rec.SeasonStats {
				if sm.Position != pos {
					continue
				}
				sb, ok := rs.BucketFor(sm.Year)
				if !ok {
					continue
				}
				idx := rs.BucketIndex(sb.Name)
				for metric, value := range sm.Values {
					buckets[idx][metric] = append(buckets[idx][metric], value)
				}
				if v, ok := sm.Values[svMetric]; ok {
					key := seasonKey{Position: pos, Year: sm.Year}
					t.seasonObs[key] = append(t.seasonObs[key], v)
				}
			}
		}
	}

	for _, buckets := range t.values {
		for _, metrics := range buckets {
			for _, obs := range metrics {
				sort.Float64s(obs)
			}
		}
	}

	return t
}

// Normalize returns the empirical percentile in [0,1] of a raw value within
// the (position, era) cohort, honoring the metric's configured direction.
// Ties receive the midpoint percentile of the tied group, so the mapping is
// monotonic and identical raw values get identical percentiles.
//
// Cohorts below the configured minimum widen to adjacent era buckets; when
// even the full population is too small the percentile is undefined and
// ok=false is returned. Callers must treat that as missing, not zero.
func (t *CohortTable) Normalize(metric string, value float64, pos model.Position, era string) (float64, bool) {
	if math.IsNaN(value) {
		return 0, false
	}
	buckets, ok := t.values[pos]
	if !ok {
		return 0, false
	}
	center := t.rs.BucketIndex(era)
	if center < 0 {
		return 0, false
	}

	lo, hi := center, center
	for {
		n := 0
		for i := lo; i <= hi; i++ {
			n += len(buckets[i][metric])
		}
		if n >= t.rs.Eras.MinCohort {
			return t.percentile(buckets, metric, value, lo, hi), true
		}
		if lo == 0 && hi == len(buckets)-1 {
			return 0, false
		}
		if lo > 0 {
			lo--
		}
		if hi < len(buckets)-1 {
			hi++
		}
	}
}

// percentile computes the midpoint-rank percentile over the merged bucket
// window [lo,hi]. Each per-bucket slice is already sorted, so counts come
// from binary searches rather than a merge.
func (t *CohortTable) percentile(buckets []map[string][]float64, metric string, value float64, lo, hi int) float64 {
	var n, less, lessEq int
	for i := lo; i <= hi; i++ {
		obs := buckets[i][metric]
		n += len(obs)
		less += sort.SearchFloat64s(obs, value)
		lessEq += sort.Search(len(obs), func(j int) bool { return obs[j] > value })
	}
	if n == 0 {
		return 0
	}
	pct := float64(less+lessEq) / float64(2*n)
	if t.rs.MetricLowerBetter(metric) {
		pct = 1 - pct
	}
	return pct
}

// SeasonZ returns the z-score of a season value against position peers in
// the same calendar season. Degenerate cohorts (fewer than two observations
// or zero variance) are undefined.
func (t *CohortTable) SeasonZ(value float64, pos model.Position, year int) (float64, bool) {
	obs := t.seasonObs[seasonKey{Position: pos, Year: year}]
	if len(obs) < 2 {
		return 0, false
	}
	var sum float64
	for _, v := range obs {
		sum += v
	}
	mean := sum / float64(len(obs))
	var sq float64
	for _, v := range obs {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(obs)))
	if std == 0 {
		return 0, false
	}
	return (value - mean) / std, true
}

// CareerMetrics flattens an individual's career-level observations into a
// metric map for normalization: physicals, draft slot, honors counts,
// longevity, plus all ingested career aggregates. Undrafted individuals
// contribute no draft_pick observation.
func CareerMetrics(rec *model.IndividualRecord) map[string]float64 {
	m := make(map[string]float64, len(rec.CareerStats)+8)
	for k, v := range rec.CareerStats {
		m[k] = v
	}
	if rec.Measurements.HeightIn != nil {
		m["height_in"] = *rec.Measurements.HeightIn
	}
	if rec.Measurements.WeightLb != nil {
		m["weight_lb"] = *rec.Measurements.WeightLb
	}
	if rec.Measurements.FortyTime != nil {
		m["forty_time"] = *rec.Measurements.FortyTime
	}
	if rec.Measurements.VerticalJump != nil {
		m["vertical_jump"] = *rec.Measurements.VerticalJump
	}
	if rec.Measurements.BenchPress != nil {
		m["bench_press"] = *rec.Measurements.BenchPress
	}
	if rec.Draft != nil {
		m["draft_pick"] = float64(rec.Draft.OverallPick)
	}
	m["pro_bowls"] = float64(rec.Honors.ProBowls)
	m["all_pros"] = float64(rec.Honors.AllPros)
	m["career_seasons"] = float64(rec.Seasons)
	m["total_career_games"] = float64(rec.Games)
	return m
}
