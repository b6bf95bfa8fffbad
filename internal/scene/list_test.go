package scene

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	cerrors "github.com/five82/crfboost/internal/errors"
)

func TestParseList(t *testing.T) {
	data := []byte(`{
  "scenes": [
    {"start_frame": 0, "end_frame": 48, "zone_overrides": null},
    {"start_frame": 48, "end_frame": 130}
  ],
  "frames": 130
}`)

	list, err := ParseList(data)
	if err != nil {
		t.Fatalf("ParseList error: %v", err)
	}
	if list.Frames != 130 {
		t.Errorf("Frames = %d, want 130", list.Frames)
	}
	if got := list.Cuts(); !reflect.DeepEqual(got, []int{0, 48}) {
		t.Errorf("Cuts() = %v, want [0 48]", got)
	}
}

func TestParseListInfersFrames(t *testing.T) {
	list, err := ParseList([]byte(`{"scenes":[{"start_frame":0,"end_frame":10},{"start_frame":10,"end_frame":25}]}`))
	if err != nil {
		t.Fatalf("ParseList error: %v", err)
	}
	if list.Frames != 25 {
		t.Errorf("Frames = %d, want 25", list.Frames)
	}
}

func TestParseListErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"scenes":`},
		{"empty range", `{"scenes":[{"start_frame":5,"end_frame":5}]}`},
		{"inverted range", `{"scenes":[{"start_frame":9,"end_frame":2}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseList([]byte(tt.data))
			if !cerrors.IsKind(err, cerrors.KindJSONParse) {
				t.Errorf("ParseList error = %v, want KindJSONParse", err)
			}
		})
	}
}

func TestLoadListMissingFile(t *testing.T) {
	_, err := LoadList(filepath.Join(t.TempDir(), "missing.json"))
	if !cerrors.IsKind(err, cerrors.KindIO) {
		t.Errorf("LoadList error = %v, want KindIO", err)
	}
}

func TestListMarshalRoundTrip(t *testing.T) {
	scenes := Normalize([]int{0, 30, 90}, 120, 0, 0)
	data, err := NewList(scenes, 120).Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "scenes.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := LoadList(path)
	if err != nil {
		t.Fatalf("LoadList error: %v", err)
	}
	if !reflect.DeepEqual(list.Cuts(), []int{0, 30, 90}) || list.Frames != 120 {
		t.Errorf("round trip mismatch: cuts=%v frames=%d", list.Cuts(), list.Frames)
	}
}

func TestParseShowinfo(t *testing.T) {
	output := strings.Join([]string{
		"[Parsed_showinfo_1 @ 0x55] n:   0 pts:  5005 pts_time:5.005 duration: 1001",
		"frame=  10 fps=0.0 q=-0.0 size=N/A",
		"[Parsed_showinfo_1 @ 0x55] n:   1 pts: 12012 pts_time:12.012 duration: 1001",
		"[Parsed_showinfo_1 @ 0x55] n:   2 pts: 12012 pts_time:12.012 duration: 1001",
	}, "\n")

	got, err := parseShowinfo(strings.NewReader(output), 24000.0/1001.0)
	if err != nil {
		t.Fatalf("parseShowinfo error: %v", err)
	}
	want := []int{0, 120, 288}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseShowinfo() = %v, want %v", got, want)
	}
}

func TestExternalDetectorMissingBinary(t *testing.T) {
	d := ExternalDetector{Binary: "crfboost-no-such-detector", WorkDir: t.TempDir()}
	if d.IsAvailable() {
		t.Skip("unexpected binary in PATH")
	}
	if _, err := d.DetectCuts(t.Context(), "in.mkv", 24); !cerrors.IsKind(err, cerrors.KindCommand) {
		t.Errorf("DetectCuts error = %v, want KindCommand", err)
	}
}
