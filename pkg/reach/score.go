package reach

import (
	"sort"

	"github.com/MrHaila/kantama/pkg/core"
)

// Composite weights. The near horizon dominates: a zone that puts much
// of its group within 15 minutes is better connected than one that only
// reaches it within 45, and the mean term nudges ties between otherwise
// similar zones toward the one with faster typical trips.
const (
	weightWithin15 = 0.40
	weightWithin30 = 0.30
	weightWithin45 = 0.20
	weightMean     = 0.10
)

// Horizon boundaries in seconds.
const (
	horizon15 = 900
	horizon30 = 1800
	horizon45 = 2700
)

// Compute scores every zone from its realized routes. byOrigin maps an
// origin zone ID to its non-pending route records, as loaded from the
// record store. The result is sorted best first and densely ranked;
// ties break on zone ID so ranking is deterministic.
//
// A zone with no successful route at all scores zero: unreachable means
// unreachable, not average.
func Compute(zones []core.Zone, byOrigin map[string][]core.RouteRecord, period core.Period) []core.ReachabilityScore {
	// Every other zone is a potential destination.
	destinations := len(zones) - 1
	if destinations < 1 {
		destinations = 1
	}

	scores := make([]core.ReachabilityScore, 0, len(zones))
	for _, zone := range zones {
		scores = append(scores, scoreZone(zone, byOrigin[zone.ID], period, destinations))
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ZoneID < scores[j].ZoneID
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

func scoreZone(zone core.Zone, records []core.RouteRecord, period core.Period, destinations int) core.ReachabilityScore {
	score := core.ReachabilityScore{Period: period, ZoneID: zone.ID}

	var durations []int
	for _, rec := range records {
		if rec.Status != core.StatusOK || rec.Duration == nil {
			continue
		}
		d := *rec.Duration
		durations = append(durations, d)
		if d <= horizon15 {
			score.Within15++
		}
		if d <= horizon30 {
			score.Within30++
		}
		if d <= horizon45 {
			score.Within45++
		}
	}
	if len(durations) == 0 {
		return score
	}

	sort.Ints(durations)
	var sum int
	for _, d := range durations {
		sum += d
	}
	score.MeanDuration = float64(sum) / float64(len(durations))
	// Lower-middle median keeps the value an observed duration.
	score.MedianDuration = durations[(len(durations)-1)/2]

	n := float64(destinations)
	maxDuration := durations[len(durations)-1]
	if maxDuration < 1 {
		maxDuration = 1
	}
	meanTerm := clamp01(1 - score.MeanDuration/float64(maxDuration))
	score.Score = clamp01(
		weightWithin15*float64(score.Within15)/n +
			weightWithin30*float64(score.Within30)/n +
			weightWithin45*float64(score.Within45)/n +
			weightMean*meanTerm)
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
