package ffmpeg

import (
	"fmt"
	"strings"
)

// VideoFilterChain builds video filter chains.
type VideoFilterChain struct {
	filters []string
}

// NewVideoFilterChain creates a new empty filter chain.
func NewVideoFilterChain() *VideoFilterChain {
	return &VideoFilterChain{}
}

// AddSelectFrames keeps only the listed frame numbers.
func (c *VideoFilterChain) AddSelectFrames(frames []int) *VideoFilterChain {
	if len(frames) == 0 {
		return c
	}
	terms := make([]string, len(frames))
	for i, f := range frames {
		terms[i] = fmt.Sprintf("eq(n,%d)", f)
	}
	c.filters = append(c.filters, fmt.Sprintf("select='%s'", strings.Join(terms, "+")))
	return c
}

// Build builds the filter chain into a single filter string.
// Returns empty string if no filters are present.
func (c *VideoFilterChain) Build() string {
	if len(c.filters) == 0 {
		return ""
	}
	return strings.Join(c.filters, ",")
}

// SelectY4MArgs returns ffmpeg arguments that write the given frames of
// input to stdout as a 10-bit y4m stream.
func SelectY4MArgs(input string, frames []int) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-i", input, "-map", "0:v:0"}
	if vf := NewVideoFilterChain().AddSelectFrames(frames).Build(); vf != "" {
		args = append(args, "-vf", vf)
	}
	return append(args,
		"-fps_mode", "passthrough",
		"-pix_fmt", "yuv420p10le",
		"-strict", "-1",
		"-f", "yuv4mpegpipe",
		"-",
	)
}

// ImageSequenceArgs returns ffmpeg arguments that decode input (or stdin
// when input is "-") into numbered PNG files matching pattern, starting at 0.
func ImageSequenceArgs(input, pattern string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y"}
	if input == "-" {
		args = append(args, "-f", "yuv4mpegpipe")
	}
	return append(args,
		"-i", input,
		"-fps_mode", "passthrough",
		"-start_number", "0",
		"-pix_fmt", "rgb48be",
		pattern,
	)
}
