package tq

import (
	"fmt"
	"math"

	"github.com/five82/crfboost/internal/reporter"
	"github.com/five82/crfboost/internal/util"
)

// RunStats contains aggregated statistics from a search run.
type RunStats struct {
	Scenes int
	Met    int
	Missed int
	Failed int

	// Trials per scene
	AvgTrials float64
	MinTrials int
	MaxTrials int

	// TrialsBreakdown counts scenes by trial count, 4+ grouped under 4.
	TrialsBreakdown map[int]int
	TrialsCached    int
	TrialsTotal     int

	// Chosen CRF distribution
	CRFMin    int
	CRFMax    int
	CRFMean   float64
	CRFStdDev float64

	FailedScenes []Decision
	MissedScenes []Decision
}

// ComputeRunStats computes aggregated statistics from scene decisions.
func ComputeRunStats(decisions []Decision) *RunStats {
	stats := &RunStats{
		Scenes:          len(decisions),
		TrialsBreakdown: make(map[int]int),
		MinTrials:       math.MaxInt,
		CRFMin:          math.MaxInt,
	}
	if len(decisions) == 0 {
		stats.MinTrials = 0
		stats.CRFMin = 0
		return stats
	}

	crfs := make([]float64, 0, len(decisions))
	for _, d := range decisions {
		switch {
		case d.Failed:
			stats.Failed++
			stats.FailedScenes = append(stats.FailedScenes, d)
		case d.MetTarget:
			stats.Met++
		default:
			stats.Missed++
			stats.MissedScenes = append(stats.MissedScenes, d)
		}

		stats.TrialsTotal += d.Trials
		stats.TrialsCached += d.Cached
		stats.MinTrials = min(stats.MinTrials, d.Trials)
		stats.MaxTrials = max(stats.MaxTrials, d.Trials)
		stats.TrialsBreakdown[min(d.Trials, 4)]++

		stats.CRFMin = min(stats.CRFMin, d.CRF)
		stats.CRFMax = max(stats.CRFMax, d.CRF)
		crfs = append(crfs, float64(d.CRF))
	}

	stats.AvgTrials = float64(stats.TrialsTotal) / float64(len(decisions))
	stats.CRFMean = util.Mean(crfs)
	stats.CRFStdDev = util.StdDev(crfs)
	return stats
}

// OutputRunStats writes the run statistics to the reporter's verbose stream.
func OutputRunStats(stats *RunStats, rep reporter.Reporter, target float64) {
	if stats == nil || stats.Scenes == 0 {
		return
	}

	rep.Verbose("")
	rep.Verbose("=== Search Statistics ===")
	rep.Verbose(fmt.Sprintf("Scenes: %d (met %d, missed %d, failed %d) at target %.1f",
		stats.Scenes, stats.Met, stats.Missed, stats.Failed, target))
	rep.Verbose(fmt.Sprintf("Trials: total=%d, cached=%d, avg=%.1f, min=%d, max=%d",
		stats.TrialsTotal, stats.TrialsCached, stats.AvgTrials, stats.MinTrials, stats.MaxTrials))
	outputTrialsBreakdown(rep, stats.TrialsBreakdown)
	rep.Verbose(fmt.Sprintf("CRF distribution: min=%d, max=%d, mean=%.1f, stddev=%.1f",
		stats.CRFMin, stats.CRFMax, stats.CRFMean, stats.CRFStdDev))
	outputScenes(rep, "Missed target", stats.MissedScenes)
	outputScenes(rep, "Failed", stats.FailedScenes)
	rep.Verbose("=== End Search Statistics ===")
	rep.Verbose("")
}

func outputTrialsBreakdown(rep reporter.Reporter, breakdown map[int]int) {
	rep.Verbose("Trials breakdown:")
	for n := 0; n <= 4; n++ {
		count := breakdown[n]
		if count == 0 {
			continue
		}
		if n == 4 {
			rep.Verbose(fmt.Sprintf("  4+ trials: %d scenes", count))
		} else {
			rep.Verbose(fmt.Sprintf("  %d trial%s: %d scenes", n, pluralS(n), count))
		}
	}
}

func outputScenes(rep reporter.Reporter, label string, scenes []Decision) {
	if len(scenes) == 0 {
		return
	}
	rep.Verbose(fmt.Sprintf("%s: %d scenes", label, len(scenes)))
	for _, d := range scenes {
		line := fmt.Sprintf("  %s: CRF %d, score %.2f", d.Scene, d.CRF, d.Score)
		if d.Err != "" {
			line += " (" + d.Err + ")"
		}
		rep.Verbose(line)
		for _, cs := range d.History {
			rep.Verbose(fmt.Sprintf("      CRF %d -> %.2f", cs.CRF, cs.Score))
		}
	}
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
