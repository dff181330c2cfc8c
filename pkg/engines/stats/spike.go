package stats

import (
	"time"
)

// Spike records one rolling window whose event count stands out from the
// mean window count.
type Spike struct {
	// Timestamp is the event that closed the flagged window.
	Timestamp time.Time

	// Count is the number of events inside the window.
	Count int

	// ExpectedCount is the mean count across all windows.
	ExpectedCount float64

	// ZScore is (Count − ExpectedCount) / population std of window counts.
	ZScore float64

	// AnomalyScore is ZScore relative to the detection multiplier,
	// capped at 1.0.
	AnomalyScore float64
}

// detectSpikes finds frequency spikes in a sorted event series. Each
// event's trailing window of the given size is counted, the counts are
// compared against the mean of all window counts, and a window is flagged
// when its z-score exceeds the multiplier. Windows are only flagged when
// the population standard deviation of counts is nonzero.
//
// Overlapping windows contribute to the mean individually, so adjacent
// events are double-counted in the baseline. That matches the behavior of
// the system this detector was ported from and is kept deliberately; see
// DESIGN.md before changing it.
func detectSpikes(events []time.Time, window time.Duration, multiplier float64) []Spike {
	if len(events) < 3 {
		return nil
	}

	counts := make([]int, len(events))
	start := 0
	for i, ts := range events {
		for ts.Sub(events[start]) > window {
			start++
		}
		counts[i] = i - start + 1
	}

	countsF := make([]float64, len(counts))
	for i, c := range counts {
		countsF[i] = float64(c)
	}
	expected := mean(countsF)
	sd := popStdDev(countsF)
	if sd == 0 {
		return nil
	}

	var spikes []Spike
	for i, ts := range events {
		z := (float64(counts[i]) - expected) / sd
		if z > multiplier {
			score := z / multiplier
			if score > 1 {
				score = 1
			}
			spikes = append(spikes, Spike{
				Timestamp:     ts,
				Count:         counts[i],
				ExpectedCount: expected,
				ZScore:        z,
				AnomalyScore:  score,
			})
		}
	}
	return spikes
}
