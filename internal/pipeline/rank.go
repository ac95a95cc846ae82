package pipeline

import (
	"math"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

// neutralComponent replaces missing or undefined ranking terms so a data
// gap contributes the cohort midpoint instead of poisoning the composite.
const neutralComponent = 0.5

// Components are the four ranking terms, each already normalized to [0,1].
// NaN marks a term that could not be computed.
type Components struct {
	Peak         float64
	Career       float64
	EraDominance float64
	Honors       float64
}

// Composite combines the four terms into a single deterministic weighted
// score. Undefined terms are resolved to the neutral midpoint before
// weighting; the result is always finite.
func Composite(id string, pos model.Position, c Components, w rules.WeightConfig) model.RankScore {
	peak := sanitizeComponent(c.Peak)
	career := sanitizeComponent(c.Career)
	era := sanitizeComponent(c.EraDominance)
	honors := sanitizeComponent(c.Honors)

	total := w.Sum()
	var composite float64
	if total > 0 {
		composite = (w.Peak*peak + w.Career*career + w.EraDominance*era + w.Honors*honors) / total
	}

	return model.RankScore{
		IndividualID: id,
		Position:     pos,
		PeakScore:    peak,
		CareerScore:  career,
		EraDominance: era,
		HonorsIndex:  honors,
		Composite:    composite,
	}
}

func sanitizeComponent(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return neutralComponent
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RankLess orders rank scores into the total order used everywhere:
// composite descending, then individual ID ascending as the stable
// secondary key. Selection is reproducible because no comparison depends
// on map iteration order.
func RankLess(a, b model.RankScore) bool {
	if a.Composite != b.Composite {
		return a.Composite > b.Composite
	}
	return a.IndividualID < b.IndividualID
}

// careerScore blends the career value-over-replacement percentile with a
// hall-of-fame-monitor style index.
func careerScore(careerValuePct float64, careerValueOK bool, h model.Honors) float64 {
	monitor := hofMonitor(h)
	if !careerValueOK {
		return 0.7*neutralComponent + 0.3*monitor
	}
	return 0.7*careerValuePct + 0.3*monitor
}

// hofMonitor approximates hall-of-fame likelihood from honors counts.
func hofMonitor(h model.Honors) float64 {
	score := 0.04*float64(h.ProBowls) + 0.08*float64(h.AllPros)
	if h.HallOfFame {
		score += 0.4
	}
	if score > 1 {
		score = 1
	}
	return score
}

// honorsIndex combines honors percentiles within the position-era cohort
// with the hall-of-fame flag.
func honorsIndex(proBowlPct, allProPct float64, ok bool, hof bool) float64 {
	if !ok {
		proBowlPct, allProPct = neutralComponent, neutralComponent
	}
	idx := 0.45*proBowlPct + 0.35*allProPct
	if hof {
		idx += 0.2
	}
	if idx > 1 {
		idx = 1
	}
	return idx
}

// zToUnit maps a mean z-score onto [0,1] through the standard normal CDF,
// keeping era dominance on the same scale as the other terms.
func zToUnit(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}
