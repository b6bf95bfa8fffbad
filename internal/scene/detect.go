package scene

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	cerrors "github.com/five82/crfboost/internal/errors"
)

// DefaultSceneThreshold is the default ffmpeg scene-change threshold.
// Higher values detect fewer cuts. Range is 0.0 to 1.0.
const DefaultSceneThreshold = 0.5

// Detector yields raw scene cut frames for a video.
type Detector interface {
	DetectCuts(ctx context.Context, videoPath string, fps float64) ([]int, error)
}

// FFmpegDetector detects cuts with ffmpeg's scene filter.
type FFmpegDetector struct {
	Threshold float64
}

var ptsTimeRegex = regexp.MustCompile(`pts_time:(\d+\.?\d*)`)

// DetectCuts runs ffmpeg's scene detection filter on a video file and
// returns sorted, deduplicated cut frames starting at 0.
func (d FFmpegDetector) DetectCuts(ctx context.Context, videoPath string, fps float64) ([]int, error) {
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = DefaultSceneThreshold
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-i", videoPath,
		"-vf", fmt.Sprintf("select='gt(scene,%g)',showinfo", threshold),
		"-an",
		"-f", "null",
		"-",
	)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, cerrors.NewCommandStartError("ffmpeg", err)
	}

	cuts, scanErr := parseShowinfo(stderr, fps)

	// ffmpeg writes to the null muxer, so only cancellation is treated as fatal.
	_ = cmd.Wait()
	if ctx.Err() != nil {
		return nil, cerrors.NewCancelledError()
	}
	if scanErr != nil {
		return nil, fmt.Errorf("error reading ffmpeg output: %w", scanErr)
	}

	return cuts, nil
}

// parseShowinfo extracts pts_time values from showinfo output and converts them to frames.
func parseShowinfo(r io.Reader, fps float64) ([]int, error) {
	var frames []int
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		matches := ptsTimeRegex.FindStringSubmatch(scanner.Text())
		if len(matches) < 2 {
			continue
		}
		ptsTime, err := strconv.ParseFloat(matches[1], 64)
		if err != nil {
			continue
		}
		frames = append(frames, int(math.Round(ptsTime*fps)))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(frames) == 0 || frames[0] != 0 {
		frames = append([]int{0}, frames...)
	}
	sort.Ints(frames)
	return dedupe(frames), nil
}

// ExternalDetector runs a helper binary that writes a scene list JSON file,
// such as a TransNetV2 frontend. The binary is invoked as
//
//	<binary> --input VIDEO --output SCENES.json [extra args]
type ExternalDetector struct {
	Binary  string
	Args    []string
	WorkDir string
}

// DetectCuts runs the helper and returns the start frames it reported.
func (d ExternalDetector) DetectCuts(ctx context.Context, videoPath string, _ float64) ([]int, error) {
	binPath, err := exec.LookPath(d.Binary)
	if err != nil {
		return nil, cerrors.NewCommandStartError(d.Binary, err)
	}

	outFile := filepath.Join(d.WorkDir, "detected_scenes.json")
	args := append([]string{"--input", videoPath, "--output", outFile}, d.Args...)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, cerrors.NewCancelledError()
		}
		return nil, cerrors.WrapExecError(d.Binary, err, stderr.String())
	}
	defer func() { _ = os.Remove(outFile) }()

	list, err := LoadList(outFile)
	if err != nil {
		return nil, err
	}
	return list.Cuts(), nil
}

// IsAvailable reports whether the helper binary can be found in PATH.
func (d ExternalDetector) IsAvailable() bool {
	_, err := exec.LookPath(d.Binary)
	return err == nil
}
