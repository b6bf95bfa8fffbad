// Package tq implements the per-scene CRF search: trial scheduling, score
// aggregation and the selection policy that picks the cheapest CRF meeting
// the target quality.
package tq

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/crfboost/internal/util"
)

// ErrInvalidAggregation is returned for an unknown aggregation mode.
var ErrInvalidAggregation = errors.New("invalid aggregation mode")

// AggregationMode selects how per-frame scores collapse into one candidate score.
type AggregationMode string

const (
	// AggregateMin uses the worst frame. A single visible dip fails the candidate.
	AggregateMin AggregationMode = "min"
	// AggregateMean uses the arithmetic mean of all sampled frames.
	AggregateMean AggregationMode = "mean"
	// AggregatePercentile uses the Nth percentile of sampled frames.
	AggregatePercentile AggregationMode = "percentile"
)

// Aggregation is a parsed aggregation mode.
type Aggregation struct {
	Mode       AggregationMode
	Percentile float64 // only for AggregatePercentile
}

// DefaultAggregation returns the minimum-score aggregation.
func DefaultAggregation() Aggregation {
	return Aggregation{Mode: AggregateMin}
}

// ParseAggregation parses "min", "mean" or "pN" (e.g. "p10").
func ParseAggregation(s string) (Aggregation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "min":
		return Aggregation{Mode: AggregateMin}, nil
	case "mean":
		return Aggregation{Mode: AggregateMean}, nil
	}

	if rest, ok := strings.CutPrefix(s, "p"); ok {
		p, err := strconv.ParseFloat(rest, 64)
		if err != nil || p < 0 || p > 100 {
			return Aggregation{}, fmt.Errorf("%w: %q (percentile must be p0-p100)", ErrInvalidAggregation, s)
		}
		return Aggregation{Mode: AggregatePercentile, Percentile: p}, nil
	}
	return Aggregation{}, fmt.Errorf("%w: %q (expected min, mean or pN)", ErrInvalidAggregation, s)
}

// Apply reduces frame scores to one value. Empty input yields 0.
func (a Aggregation) Apply(scores []float64) float64 {
	switch a.Mode {
	case AggregateMean:
		return util.Mean(scores)
	case AggregatePercentile:
		return util.Percentile(scores, a.Percentile)
	default:
		return util.Min(scores)
	}
}

func (a Aggregation) String() string {
	if a.Mode == AggregatePercentile {
		return "p" + strconv.FormatFloat(a.Percentile, 'f', -1, 64)
	}
	if a.Mode == "" {
		return string(AggregateMin)
	}
	return string(a.Mode)
}
