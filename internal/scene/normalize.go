package scene

import (
	"math"
	"sort"
)

// Normalize converts raw cut points into a contiguous scene partition of
// [0, totalFrames).
//
// Cuts are scene start frames; they may be unsorted, duplicated or out of
// range. Scenes shorter than minLen are merged forward into their successor
// (a trailing short scene merges backward). Afterwards any scene longer than
// maxLen is split into the fewest equal parts (±1 frame) that fit.
// minLen or maxLen of 0 disables the corresponding step.
func Normalize(cuts []int, totalFrames, minLen, maxLen int) []Scene {
	if totalFrames <= 0 {
		return nil
	}

	ranges := cutsToRanges(cuts, totalFrames)
	if minLen > 0 {
		ranges = mergeShort(ranges, minLen)
	}
	if maxLen > 0 {
		ranges = splitLong(ranges, maxLen)
	}

	scenes := make([]Scene, len(ranges))
	for i, r := range ranges {
		scenes[i] = Scene{ID: i, StartFrame: r[0], EndFrame: r[1]}
	}
	return scenes
}

// cutsToRanges builds gap-free [start, end) ranges from cut points.
func cutsToRanges(cuts []int, totalFrames int) [][2]int {
	bounds := make([]int, 0, len(cuts)+1)
	bounds = append(bounds, 0)
	for _, c := range cuts {
		if c > 0 && c < totalFrames {
			bounds = append(bounds, c)
		}
	}

	sort.Ints(bounds)
	bounds = dedupe(bounds)

	ranges := make([][2]int, len(bounds))
	for i, start := range bounds {
		end := totalFrames
		if i+1 < len(bounds) {
			end = bounds[i+1]
		}
		ranges[i] = [2]int{start, end}
	}
	return ranges
}

// mergeShort absorbs ranges shorter than minLen into the following range.
// A short trailing range is merged into its predecessor instead.
func mergeShort(ranges [][2]int, minLen int) [][2]int {
	if len(ranges) <= 1 {
		return ranges
	}

	merged := make([][2]int, 0, len(ranges))
	cur := ranges[0]

	for _, r := range ranges[1:] {
		if cur[1]-cur[0] < minLen {
			cur[1] = r[1]
			continue
		}
		merged = append(merged, cur)
		cur = r
	}

	if cur[1]-cur[0] < minLen && len(merged) > 0 {
		merged[len(merged)-1][1] = cur[1]
	} else {
		merged = append(merged, cur)
	}
	return merged
}

// splitLong subdivides ranges longer than maxLen into the smallest number of
// near-equal parts. Earlier parts take the extra frame when the length does
// not divide evenly.
func splitLong(ranges [][2]int, maxLen int) [][2]int {
	result := make([][2]int, 0, len(ranges))

	for _, r := range ranges {
		length := r[1] - r[0]
		if length <= maxLen {
			result = append(result, r)
			continue
		}

		parts := (length + maxLen - 1) / maxLen
		size := length / parts
		extra := length % parts

		start := r[0]
		for i := 0; i < parts; i++ {
			n := size
			if i < extra {
				n++
			}
			result = append(result, [2]int{start, start + n})
			start += n
		}
	}
	return result
}

// dedupe removes duplicate values from a sorted slice.
func dedupe(sorted []int) []int {
	if len(sorted) <= 1 {
		return sorted
	}

	result := make([]int, 0, len(sorted))
	result = append(result, sorted[0])

	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			result = append(result, sorted[i])
		}
	}

	return result
}

// FramesForSeconds converts a duration to a frame count at fps, rounding
// up so a partial frame still counts.
func FramesForSeconds(secs, fps float64) int {
	if secs <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Ceil(secs * fps))
}
