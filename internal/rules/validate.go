package rules

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Validate checks the ruleset for internal consistency. Errors are
// configuration mistakes that must be fixed before a run; Warnings are
// tolerated inconsistencies the allocator will work around (and record in
// the run manifest).
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the ruleset has no hard errors.
func (v *ValidationResult) OK() bool { return len(v.Errors) == 0 }

// Validate performs structural checks over the ruleset.
func (r *Ruleset) Validate() *ValidationResult {
	res := &ValidationResult{}
	errf := func(format string, args ...any) {
		res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
	}
	warnf := func(format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
	}

	if len(r.Eras.Buckets) == 0 {
		errf("eras: at least one bucket is required")
	}
	prevEnd := 0
	for i, b := range r.Eras.Buckets {
		if b.Name == "" {
			errf("eras: bucket %d has no name", i)
		}
		if b.FromYear > b.ToYear {
			errf("eras: bucket %q from_year %d > to_year %d", b.Name, b.FromYear, b.ToYear)
		}
		if i > 0 && b.FromYear != prevEnd+1 {
			errf("eras: bucket %q does not start immediately after the previous bucket", b.Name)
		}
		prevEnd = b.ToYear
	}
	if r.Eras.MinCohort < 1 {
		errf("eras: min_cohort must be positive")
	}

	if r.Peak.WindowLength < 1 {
		errf("peak: window_length must be positive")
	}

	if r.Weights.Sum() <= 0 {
		errf("weights: sum must be positive")
	}

	if r.Eligibility.Sustain.SeasonsWithHonor == 0 && r.Eligibility.Sustain.SeasonsAny == 0 {
		warnf("eligibility: sustained_excellence has no thresholds configured; the path is disabled")
	}

	if r.Quotas.GlobalTotal <= 0 {
		errf("quotas: global_total must be positive")
	}
	quotaSum := 0
	for pos, q := range r.Quotas.PerPosition {
		if q < 0 {
			errf("quotas: position %s has negative quota", pos)
		}
		quotaSum += q
	}
	if quotaSum > r.Quotas.GlobalTotal {
		warnf("quotas: per-position quotas sum to %d, above global total %d; allocation will be capped", quotaSum, r.Quotas.GlobalTotal)
	}
	switch r.Quotas.FlexMode {
	case FlexRedistribute, FlexShrink:
	default:
		errf("quotas: unknown flex_mode %q", r.Quotas.FlexMode)
	}

	for key, ac := range r.Attributes {
		// Zero means unset and is defaulted at load time; the scale itself
		// is 1-based.
		if ac.Floor < 1 || ac.Ceiling < 1 {
			errf("attributes: %s floor %d / ceiling %d must be positive (0 means unset)", key, ac.Floor, ac.Ceiling)
		}
		if ac.Floor >= ac.Ceiling {
			errf("attributes: %s floor %d >= ceiling %d", key, ac.Floor, ac.Ceiling)
		}
		if len(ac.Sources) == 0 {
			errf("attributes: %s has no sources", key)
		}
		prevTier := 0
		for _, src := range ac.Sources {
			if src.Tier <= prevTier {
				errf("attributes: %s source tiers must be strictly increasing", key)
			}
			prevTier = src.Tier
			switch src.Kind {
			case SourceMetric, SourceProxy:
				if src.Metric == "" {
					errf("attributes: %s tier %d needs a metric name", key, src.Tier)
				}
			case SourcePositionAverage:
			case SourceDefault:
				if src.Default < ac.Floor || src.Default > ac.Ceiling {
					errf("attributes: %s tier %d default %d outside [%d,%d]", key, src.Tier, src.Default, ac.Floor, ac.Ceiling)
				}
			default:
				errf("attributes: %s tier %d has unknown kind %q", key, src.Tier, src.Kind)
			}
		}
	}

	for pos, archetypes := range r.Archetypes {
		if len(archetypes) == 0 {
			warnf("archetypes: position %s has an empty archetype list", pos)
		}
		seen := make(map[string]bool)
		for _, a := range archetypes {
			if a.Label == "" {
				errf("archetypes: position %s has an unlabeled archetype", pos)
			}
			if seen[a.Label] {
				errf("archetypes: position %s repeats label %q", pos, a.Label)
			}
			seen[a.Label] = true
			for attr, mod := range a.Modifiers {
				if mod < -10 || mod > 10 {
					errf("archetypes: %s/%s modifier for %s is %d, outside [-10,10]", pos, a.Label, attr, mod)
				}
			}
		}
	}

	return res
}

// MustValidate returns an error summarizing hard validation failures.
func (r *Ruleset) MustValidate() error {
	res := r.Validate()
	if res.OK() {
		return nil
	}
	return eris.Errorf("rules: %d validation error(s), first: %s", len(res.Errors), res.Errors[0])
}
