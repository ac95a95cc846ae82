package pipeline

import "sort"

// SeasonValue is one already-normalized per-season scalar.
type SeasonValue struct {
	Year  int
	Value float64
}

// PeakWindow is the best contiguous span of seasons for an individual.
type PeakWindow struct {
	StartYear int
	EndYear   int
	// Score is the average season value across the window.
	Score float64
	// ShortCareer marks individuals with fewer seasons than the window
	// length, scored over their full span instead.
	ShortCareer bool
}

// FindPeak locates the contiguous run of exactly windowLen active seasons
// maximizing the average value. By default a window must cover consecutive
// calendar years; allowGaps relaxes that to consecutive active seasons.
// Ties break toward the earliest-starting window. Runs in a single pass
// over the series via sliding-window accumulation.
func FindPeak(series []SeasonValue, windowLen int, allowGaps bool) PeakWindow {
	if len(series) == 0 || windowLen <= 0 {
		return PeakWindow{}
	}

	ordered := make([]SeasonValue, len(series))
	copy(ordered, series)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Year < ordered[j].Year })

	if len(ordered) < windowLen {
		var sum float64
		for _, sv := range ordered {
			sum += sv.Value
		}
		return PeakWindow{
			StartYear:   ordered[0].Year,
			EndYear:     ordered[len(ordered)-1].Year,
			Score:       sum / float64(len(ordered)),
			ShortCareer: true,
		}
	}

	best := PeakWindow{Score: 0}
	found := false
	consider := func(run []SeasonValue) {
		if len(run) < windowLen {
			return
		}
		var sum float64
		for i := 0; i < windowLen; i++ {
			sum += run[i].Value
		}
		bestHere := func(start int, windowSum float64) {
			avg := windowSum / float64(windowLen)
			if !found || avg > best.Score {
				found = true
				best = PeakWindow{
					StartYear: run[start].Year,
					EndYear:   run[start+windowLen-1].Year,
					Score:     avg,
				}
			}
		}
		bestHere(0, sum)
		for i := windowLen; i < len(run); i++ {
			sum += run[i].Value - run[i-windowLen].Value
			bestHere(i-windowLen+1, sum)
		}
	}

	if allowGaps {
		consider(ordered)
	} else {
		// Split into runs of consecutive calendar years.
		start := 0
		for i := 1; i <= len(ordered); i++ {
			if i == len(ordered) || ordered[i].Year != ordered[i-1].Year+1 {
				consider(ordered[start:i])
				start = i
			}
		}
	}

	if !found {
		// Active seasons never formed a consecutive run of windowLen;
		// treat like a short career, averaging over all active seasons.
		var sum float64
		for _, sv := range ordered {
			sum += sv.Value
		}
		return PeakWindow{
			StartYear:   ordered[0].Year,
			EndYear:     ordered[len(ordered)-1].Year,
			Score:       sum / float64(len(ordered)),
			ShortCareer: true,
		}
	}
	return best
}
