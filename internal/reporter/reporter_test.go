package reporter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

var _ Reporter = NullReporter{}
var _ Reporter = (*TerminalReporter)(nil)
var _ Reporter = (*JSONReporter)(nil)
var _ Reporter = (*CompositeReporter)(nil)

func decodeEvents(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var events []map[string]interface{}
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var ev map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("invalid NDJSON line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestJSONReporterEvents(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporterWithWriter(&buf, "run-1")

	r.SearchStarted(3)
	r.TrialComplete(TrialSummary{SceneID: 1, CRF: 30, Score: 82.5, Frames: 10, Passed: true})
	r.SceneComplete(SceneOutcome{SceneID: 1, CRF: 30, Score: 82.5, MetTarget: true, Trials: 2})
	r.Verbose("ignored")
	r.SearchComplete(SearchOutcome{
		OutputFile:   "/out/zones.json",
		Scenes:       []SceneOutcome{{SceneID: 1, CRF: 30}},
		Met:          1,
		Distribution: []CRFShare{{CRF: 30, Percent: 100}},
		TotalTime:    3 * time.Second,
	})

	events := decodeEvents(t, &buf)
	wantTypes := []string{"search_started", "trial_complete", "scene_complete", "search_complete"}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(events), len(wantTypes))
	}
	for i, ev := range events {
		if ev["type"] != wantTypes[i] {
			t.Errorf("event %d type = %v, want %s", i, ev["type"], wantTypes[i])
		}
		if ev["run_id"] != "run-1" {
			t.Errorf("event %d run_id = %v", i, ev["run_id"])
		}
		if _, ok := ev["timestamp"]; !ok {
			t.Errorf("event %d missing timestamp", i)
		}
	}

	if events[2]["crf"] != float64(30) || events[2]["met_target"] != true {
		t.Errorf("scene_complete payload = %v", events[2])
	}
	if _, ok := events[2]["error"]; ok {
		t.Error("error key should be omitted for successful scenes")
	}
	if scenes, ok := events[3]["scenes"].([]interface{}); !ok || len(scenes) != 1 {
		t.Errorf("search_complete scenes = %v", events[3]["scenes"])
	}
}

func TestJSONReporterThrottlesProgress(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporterWithWriter(&buf, "")
	r.SearchStarted(100)

	r.SearchProgress(ProgressSnapshot{Percent: 10.1})
	r.SearchProgress(ProgressSnapshot{Percent: 10.4})
	r.SearchProgress(ProgressSnapshot{Percent: 11})
	r.SearchProgress(ProgressSnapshot{Percent: 99.5})

	var progress int
	for _, ev := range decodeEvents(t, &buf) {
		if ev["type"] == "search_progress" {
			progress++
		}
		if _, ok := ev["run_id"]; ok {
			t.Error("run_id should be omitted when empty")
		}
	}
	if progress != 3 {
		t.Errorf("emitted %d progress events, want 3", progress)
	}
}

type countingReporter struct {
	NullReporter
	scenes   int
	warnings int
}

func (c *countingReporter) SceneComplete(SceneOutcome) { c.scenes++ }
func (c *countingReporter) Warning(string)             { c.warnings++ }

func TestCompositeReporterFansOut(t *testing.T) {
	a, b := &countingReporter{}, &countingReporter{}
	c := NewCompositeReporter(a, nil, b)

	c.SceneComplete(SceneOutcome{})
	c.Warning("w")
	c.Warning("w")

	for i, r := range []*countingReporter{a, b} {
		if r.scenes != 1 || r.warnings != 2 {
			t.Errorf("reporter %d got scenes=%d warnings=%d", i, r.scenes, r.warnings)
		}
	}
}

func TestTerminalReporterOutput(t *testing.T) {
	color.NoColor = true

	var out, errOut bytes.Buffer
	r := NewTerminalReporterWithWriters(&out, &errOut, true)

	r.ScenesReady(SceneSummary{Source: "ffmpeg scdet", RawCuts: 4, Scenes: 6})
	r.SceneComplete(SceneOutcome{SceneID: 2, CRF: 21, Failed: true, Error: "encoder crashed"})
	r.SearchComplete(SearchOutcome{
		OutputFile:   "/out/[BOOST]_movie.json",
		Target:       81,
		Scenes:       []SceneOutcome{{SceneID: 0, StartFrame: 0, EndFrame: 48, CRF: 30, Score: 82.1, MetTarget: true, Trials: 2}},
		Met:          1,
		Distribution: []CRFShare{{CRF: 30, Percent: 100}},
	})
	r.Error(ReporterError{Title: "Search failed", Message: "boom", Suggestion: "retry"})

	got := out.String()
	for _, want := range []string{
		"SCENES",
		"Ffmpeg Scdet",
		"4 detected -> 6 scenes",
		"scene 2 failed, using CRF 21: encoder crashed",
		"RESULTS",
		"met",
		"30: 100.0%",
		"[BOOST]_movie.json",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("stdout missing %q:\n%s", want, got)
		}
	}
	if !strings.Contains(errOut.String(), "ERROR Search failed") || !strings.Contains(errOut.String(), "Suggestion: retry") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestTerminalReporterQuietVerbose(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	r := NewTerminalReporterWithWriters(&out, &bytes.Buffer{}, false)
	r.Verbose("hidden")
	r.TrialComplete(TrialSummary{SceneID: 1})
	r.SceneComplete(SceneOutcome{SceneID: 1, MetTarget: true})

	if out.Len() != 0 {
		t.Errorf("non-verbose reporter wrote %q", out.String())
	}
}
