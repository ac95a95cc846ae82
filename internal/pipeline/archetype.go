package pipeline

import (
	"sort"

	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/rules"
)

// FeatureVector is the small position-specific feature set used for style
// clustering, keyed by feature name with values in [0,1].
type FeatureVector map[string]float64

// AssignArchetypes buckets selected individuals within one position into the
// fixed archetype set by nearest centroid over their feature vectors.
// Assignment runs strictly after selection and its output never feeds back
// into eligibility or ranking.
//
// Ties on distance break lexicographically by archetype label, and missing
// features count as the 0.5 midpoint, keeping assignment deterministic for
// identical inputs.
func AssignArchetypes(pos model.Position, features map[string]FeatureVector, defs []rules.Archetype) map[string]model.ArchetypeAssignment {
	assignments := make(map[string]model.ArchetypeAssignment, len(features))
	if len(defs) == 0 {
		return assignments
	}

	ids := make([]string, 0, len(features))
	for id := range features {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		best := defs[0]
		bestDist := centroidDistance(features[id], defs[0].Centroid)
		for _, def := range defs[1:] {
			d := centroidDistance(features[id], def.Centroid)
			if d < bestDist || (d == bestDist && def.Label < best.Label) {
				best = def
				bestDist = d
			}
		}
		assignments[id] = model.ArchetypeAssignment{
			IndividualID: id,
			Position:     pos,
			Label:        best.Label,
			Modifiers:    best.Modifiers,
		}
	}
	return assignments
}

// centroidDistance is the squared euclidean distance over the centroid's
// feature keys. Features absent from the vector contribute the midpoint.
func centroidDistance(fv FeatureVector, centroid map[string]float64) float64 {
	keys := make([]string, 0, len(centroid))
	for k := range centroid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dist float64
	for _, k := range keys {
		v, ok := fv[k]
		if !ok {
			v = neutralComponent
		}
		d := v - centroid[k]
		dist += d * d
	}
	return dist
}
