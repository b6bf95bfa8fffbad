package ffprobe

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	cerrors "github.com/five82/crfboost/internal/errors"
)

// loadTestData loads a JSON fixture from the testdata directory.
func loadTestData(t *testing.T, filename string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", filename))
	if err != nil {
		t.Fatalf("failed to load test data %s: %v", filename, err)
	}
	return data
}

func TestExtractVideoInfo_1080pSDR(t *testing.T) {
	probe, err := parseFFprobeOutput(loadTestData(t, "video_1080p_sdr.json"))
	if err != nil {
		t.Fatalf("parseFFprobeOutput() error = %v", err)
	}

	info, err := extractVideoInfo(probe, "movie.mkv")
	if err != nil {
		t.Fatalf("extractVideoInfo() error = %v", err)
	}

	if info.Width != 1920 || info.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", info.Width, info.Height)
	}
	if info.Frames != 2889 {
		t.Errorf("Frames = %d, want 2889", info.Frames)
	}
	if math.Abs(info.FPS()-23.976) > 0.001 {
		t.Errorf("FPS() = %v, want ~23.976", info.FPS())
	}
	if info.BitDepth != 8 {
		t.Errorf("BitDepth = %d, want 8", info.BitDepth)
	}
	if info.IsHDR {
		t.Error("IsHDR = true, want false")
	}
	if info.DurationSecs != 120.5 {
		t.Errorf("DurationSecs = %v, want 120.5", info.DurationSecs)
	}
}

func TestExtractVideoInfo_4KHDRPQ(t *testing.T) {
	probe, err := parseFFprobeOutput(loadTestData(t, "video_4k_hdr_pq.json"))
	if err != nil {
		t.Fatalf("parseFFprobeOutput() error = %v", err)
	}

	info, err := extractVideoInfo(probe, "hdr.mkv")
	if err != nil {
		t.Fatalf("extractVideoInfo() error = %v", err)
	}

	if info.FPSNum != 24 || info.FPSDen != 1 {
		t.Errorf("fps = %d/%d, want r_frame_rate fallback 24/1", info.FPSNum, info.FPSDen)
	}
	if info.Frames != 1440 {
		t.Errorf("Frames = %d, want packet count 1440", info.Frames)
	}
	if info.BitDepth != 10 {
		t.Errorf("BitDepth = %d, want 10", info.BitDepth)
	}
	if !info.IsHDR {
		t.Error("IsHDR = false, want true")
	}
}

func TestExtractVideoInfo_FramesFromDuration(t *testing.T) {
	probe := &ffprobeOutput{
		Format: ffprobeFormat{Duration: "10.0"},
		Streams: []ffprobeStream{
			{CodecType: "video", Width: 640, Height: 360, AvgFrameRate: "25/1"},
		},
	}
	info, err := extractVideoInfo(probe, "x.mkv")
	if err != nil {
		t.Fatalf("extractVideoInfo() error = %v", err)
	}
	if info.Frames != 250 {
		t.Errorf("Frames = %d, want 250", info.Frames)
	}
}

func TestExtractVideoInfo_Errors(t *testing.T) {
	tests := []struct {
		name  string
		probe *ffprobeOutput
	}{
		{"no video stream", &ffprobeOutput{Streams: []ffprobeStream{{CodecType: "audio"}}}},
		{"bad dimensions", &ffprobeOutput{Streams: []ffprobeStream{{CodecType: "video", AvgFrameRate: "24/1"}}}},
		{"no frame rate", &ffprobeOutput{Streams: []ffprobeStream{{CodecType: "video", Width: 2, Height: 2}}}},
		{"no frame count", &ffprobeOutput{Streams: []ffprobeStream{{CodecType: "video", Width: 2, Height: 2, AvgFrameRate: "24/1"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := extractVideoInfo(tt.probe, "x.mkv"); !cerrors.IsKind(err, cerrors.KindPath) {
				t.Errorf("extractVideoInfo() error = %v, want path error", err)
			}
		})
	}
}

func TestParseFFprobeOutput_MalformedJSON(t *testing.T) {
	_, err := parseFFprobeOutput([]byte("{not json"))
	if !cerrors.IsKind(err, cerrors.KindJSONParse) {
		t.Errorf("parseFFprobeOutput() error = %v, want JSON parse error", err)
	}
}

func TestParseRational(t *testing.T) {
	tests := []struct {
		in       string
		num, den int
		ok       bool
	}{
		{"24000/1001", 24000, 1001, true},
		{"25", 25, 1, true},
		{"0/0", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		num, den, ok := parseRational(tt.in)
		if num != tt.num || den != tt.den || ok != tt.ok {
			t.Errorf("parseRational(%q) = %d, %d, %v", tt.in, num, den, ok)
		}
	}
}

func TestDetectHDR(t *testing.T) {
	tests := []struct {
		primaries, transfer, matrix string
		want                        bool
	}{
		{"bt709", "bt709", "bt709", false},
		{"bt2020", "smpte2084", "bt2020nc", true},
		{"bt2020", "arib-std-b67", "bt2020nc", true},
		{"bt2020", "bt709", "bt2020nc", true},
		{"", "", "", false},
	}
	for _, tt := range tests {
		if got := detectHDR(tt.primaries, tt.transfer, tt.matrix); got != tt.want {
			t.Errorf("detectHDR(%q, %q, %q) = %v, want %v", tt.primaries, tt.transfer, tt.matrix, got, tt.want)
		}
	}
}
