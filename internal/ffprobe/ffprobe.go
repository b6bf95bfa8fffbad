// Package ffprobe extracts the video properties the search needs using ffprobe.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/ffmpeg"
)

// VideoInfo describes the first video stream of a file.
type VideoInfo struct {
	Width        int
	Height       int
	Frames       int
	FPSNum       int
	FPSDen       int
	DurationSecs float64
	PixFmt       string
	BitDepth     int
	IsHDR        bool
}

// FPS returns the frame rate as a float.
func (v VideoInfo) FPS() float64 {
	if v.FPSDen == 0 {
		return 0
	}
	return float64(v.FPSNum) / float64(v.FPSDen)
}

// ffprobeOutput represents the JSON output from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType        string `json:"codec_type"`
	CodecName        string `json:"codec_name"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	NbFrames         string `json:"nb_frames"`
	NbReadPackets    string `json:"nb_read_packets"`
	RFrameRate       string `json:"r_frame_rate"`
	AvgFrameRate     string `json:"avg_frame_rate"`
	Duration         string `json:"duration"`
	PixFmt           string `json:"pix_fmt"`
	ColorPrimaries   string `json:"color_primaries"`
	ColorTransfer    string `json:"color_transfer"`
	ColorSpace       string `json:"color_space"`
	BitsPerRawSample string `json:"bits_per_raw_sample"`
}

// Probe runs ffprobe on path. When countPackets is set, ffprobe demuxes the
// whole stream to count frames exactly, which matters for containers that do
// not store a frame count.
func Probe(ctx context.Context, path string, countPackets bool) (*VideoInfo, error) {
	args := []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", "-select_streams", "v:0"}
	if countPackets {
		args = append(args, "-count_packets")
	}
	args = append(args, path)

	out, err := ffmpeg.Output(ctx, "ffprobe", args...)
	if err != nil {
		return nil, err
	}

	probe, err := parseFFprobeOutput(out)
	if err != nil {
		return nil, err
	}
	return extractVideoInfo(probe, path)
}

func parseFFprobeOutput(data []byte) (*ffprobeOutput, error) {
	var result ffprobeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, cerrors.NewJSONParseError("failed to parse ffprobe output", err)
	}
	return &result, nil
}

func extractVideoInfo(probe *ffprobeOutput, path string) (*VideoInfo, error) {
	var vs *ffprobeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			vs = &probe.Streams[i]
			break
		}
	}
	if vs == nil {
		return nil, cerrors.NewPathError(fmt.Sprintf("no video stream found in %s", path))
	}
	if vs.Width <= 0 || vs.Height <= 0 {
		return nil, cerrors.NewPathError(fmt.Sprintf("invalid dimensions in %s: %dx%d", path, vs.Width, vs.Height))
	}

	info := &VideoInfo{
		Width:  vs.Width,
		Height: vs.Height,
		PixFmt: vs.PixFmt,
		IsHDR:  detectHDR(vs.ColorPrimaries, vs.ColorTransfer, vs.ColorSpace),
	}

	rate := vs.AvgFrameRate
	if num, den, ok := parseRational(rate); ok {
		info.FPSNum, info.FPSDen = num, den
	} else if num, den, ok := parseRational(vs.RFrameRate); ok {
		info.FPSNum, info.FPSDen = num, den
	} else {
		return nil, cerrors.NewPathError(fmt.Sprintf("unknown frame rate in %s", path))
	}

	for _, d := range []string{vs.Duration, probe.Format.Duration} {
		if secs, err := strconv.ParseFloat(d, 64); err == nil && secs > 0 {
			info.DurationSecs = secs
			break
		}
	}

	if bits, err := strconv.Atoi(vs.BitsPerRawSample); err == nil {
		info.BitDepth = bits
	} else if strings.Contains(vs.PixFmt, "10") {
		info.BitDepth = 10
	} else {
		info.BitDepth = 8
	}

	switch {
	case vs.NbReadPackets != "":
		info.Frames, _ = strconv.Atoi(vs.NbReadPackets)
	case vs.NbFrames != "":
		info.Frames, _ = strconv.Atoi(vs.NbFrames)
	}
	if info.Frames <= 0 && info.DurationSecs > 0 {
		info.Frames = int(math.Round(info.DurationSecs * info.FPS()))
	}
	if info.Frames <= 0 {
		return nil, cerrors.NewPathError(fmt.Sprintf("could not determine frame count of %s", path))
	}

	return info, nil
}

// parseRational parses "num/den" frame rates such as "24000/1001".
func parseRational(s string) (int, int, bool) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		den = "1"
	}
	n, err1 := strconv.Atoi(num)
	d, err2 := strconv.Atoi(den)
	if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
		return 0, 0, false
	}
	return n, d, true
}

// detectHDR determines if content is HDR based on color metadata.
func detectHDR(primaries, transfer, matrix string) bool {
	hdrTransfers := []string{"smpte2084", "arib-std-b67"}
	for _, t := range hdrTransfers {
		if containsCI(transfer, t) {
			return true
		}
	}
	return containsCI(primaries, "bt2020") && containsCI(matrix, "bt2020")
}

func containsCI(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
