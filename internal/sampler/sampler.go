// Package sampler chooses which frames of a scene are encoded and scored as
// quality probes.
package sampler

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/five82/crfboost/internal/scene"
)

// Distribution selects how sample frames are spread across a scene.
type Distribution string

const (
	// Center takes contiguous frames around the scene midpoint.
	Center Distribution = "center"
	// Evenly spaces frames across the whole scene, first and last included.
	Evenly Distribution = "evenly"
	// StartMiddleEnd takes three contiguous groups at the start, middle and end.
	StartMiddleEnd Distribution = "start-middle-end"
)

// ErrInvalidDistribution indicates an unknown distribution name.
var ErrInvalidDistribution = errors.New("invalid frame distribution")

// Distributions lists the accepted distribution names.
func Distributions() []Distribution {
	return []Distribution{Center, Evenly, StartMiddleEnd}
}

// ParseDistribution parses a distribution name (case-insensitive).
func ParseDistribution(s string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "center", "centre":
		return Center, nil
	case "evenly", "even":
		return Evenly, nil
	case "start-middle-end", "sme":
		return StartMiddleEnd, nil
	default:
		return "", fmt.Errorf("%w: '%s', valid options: center, evenly, start-middle-end", ErrInvalidDistribution, s)
	}
}

func (d Distribution) String() string {
	return string(d)
}

// Sample returns the ascending, duplicate-free frame indices to probe for s.
// n is clamped to [1, s.Len()]; when the scene is shorter than n every frame
// is used. An empty scene yields nil.
func Sample(s scene.Scene, n int, dist Distribution) []int {
	length := s.Len()
	if length <= 0 {
		return nil
	}
	n = min(max(n, 1), length)

	if n == length {
		return window(s.StartFrame, length)
	}

	var frames []int
	switch dist {
	case Evenly:
		frames = evenly(s, n)
	case StartMiddleEnd:
		frames = startMiddleEnd(s, n)
	default:
		frames = centered(s, n)
	}

	sort.Ints(frames)
	return dedupe(frames)
}

// centered returns n contiguous frames around the midpoint, clamped to the scene.
func centered(s scene.Scene, n int) []int {
	offset := s.Middle() - n/2
	offset = max(offset, s.StartFrame)
	offset = min(offset, s.EndFrame-n)
	return window(offset, n)
}

// evenly spaces n frames from the first to the last frame of the scene.
func evenly(s scene.Scene, n int) []int {
	if n == 1 {
		return []int{s.Middle()}
	}

	last := s.EndFrame - 1
	step := float64(last-s.StartFrame) / float64(n-1)

	frames := make([]int, n)
	for i := range frames {
		frames[i] = s.StartFrame + int(math.Round(step*float64(i)))
	}
	return frames
}

// startMiddleEnd splits the budget into three groups. A single leftover
// frame goes to the middle group, two go to the start and end groups.
func startMiddleEnd(s scene.Scene, n int) []int {
	base := n / 3
	head, mid, tail := base, base, base
	switch n % 3 {
	case 1:
		mid++
	case 2:
		head++
		tail++
	}

	frames := make([]int, 0, n)
	frames = append(frames, window(s.StartFrame, head)...)
	if mid > 0 {
		frames = append(frames, centered(s, mid)...)
	}
	frames = append(frames, window(s.EndFrame-tail, tail)...)
	return frames
}

func window(start, n int) []int {
	frames := make([]int, n)
	for i := range frames {
		frames[i] = start + i
	}
	return frames
}

func dedupe(sorted []int) []int {
	if len(sorted) <= 1 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
