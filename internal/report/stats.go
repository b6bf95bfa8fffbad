package report

import (
	"fmt"
	"strings"

	"github.com/five82/crfboost/internal/util"
)

// PercentileRanks are the percentiles reported for score statistics.
var PercentileRanks = []float64{0, 5, 10, 20, 25, 50, 75, 80, 90, 95, 100}

// Percentile is one reported percentile.
type Percentile struct {
	N     float64
	Score float64
}

// ScoreStats summarizes a set of quality scores.
type ScoreStats struct {
	Count       int
	Mean        float64
	StdDev      float64
	Percentiles []Percentile
}

// ComputeScoreStats computes statistics over scores. An empty input yields
// a zero ScoreStats.
func ComputeScoreStats(scores []float64) ScoreStats {
	if len(scores) == 0 {
		return ScoreStats{}
	}
	st := ScoreStats{
		Count:  len(scores),
		Mean:   util.Mean(scores),
		StdDev: util.StdDev(scores),
	}
	for _, p := range PercentileRanks {
		st.Percentiles = append(st.Percentiles, Percentile{N: p, Score: util.Percentile(scores, p)})
	}
	return st
}

// SceneScores returns the mean score of every row.
func SceneScores(rows []Row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.MeanScore
	}
	return out
}

// Percentile returns the score at rank n, if it was computed.
func (s ScoreStats) Percentile(n float64) (float64, bool) {
	for _, p := range s.Percentiles {
		if p.N == n {
			return p.Score, true
		}
	}
	return 0, false
}

func (s ScoreStats) String() string {
	if s.Count == 0 {
		return "no scores"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Scores: %d, mean %.2f, stddev %.2f\n", s.Count, s.Mean, s.StdDev)
	for _, p := range s.Percentiles {
		fmt.Fprintf(&b, "  p%-3.0f %6.2f\n", p.N, p.Score)
	}
	return strings.TrimRight(b.String(), "\n")
}
