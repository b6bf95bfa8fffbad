package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := New()

	r.TrialDone("run")
	r.TrialDone("run")
	r.TrialDone("cache")
	r.ObserveEncode(2*time.Second, nil)
	r.ObserveEvaluate(100*time.Millisecond, nil)
	r.ObserveEvaluate(100*time.Millisecond, errors.New("boom"))

	r.SceneStarted()
	r.SceneStarted()
	r.SceneStarted()
	r.SceneDecided(30, true, false)
	r.SceneDecided(21, false, false)
	r.SceneDecided(21, false, true)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"trials run", testutil.ToFloat64(r.TrialsTotal.WithLabelValues("run")), 2},
		{"trials cache", testutil.ToFloat64(r.TrialsTotal.WithLabelValues("cache")), 1},
		{"frames scored", testutil.ToFloat64(r.FramesScored), 1},
		{"met", testutil.ToFloat64(r.ScenesTotal.WithLabelValues("met")), 1},
		{"missed", testutil.ToFloat64(r.ScenesTotal.WithLabelValues("missed")), 1},
		{"failed", testutil.ToFloat64(r.ScenesTotal.WithLabelValues("failed")), 1},
		{"crf 21", testutil.ToFloat64(r.ChosenCRF.WithLabelValues("21")), 2},
		{"in flight", testutil.ToFloat64(r.ScenesInFlight), 0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if n := testutil.CollectAndCount(r.EvaluateDuration); n != 2 {
		t.Errorf("evaluate duration series = %d, want 2", n)
	}
}

func TestRecorderNilSafe(t *testing.T) {
	var r *Recorder
	r.TrialDone("run")
	r.ObserveEncode(time.Second, nil)
	r.ObserveEvaluate(time.Second, nil)
	r.SceneStarted()
	r.SceneDecided(30, true, false)
	r.RunComplete(time.Now())
	if r.Registry() != nil {
		t.Error("nil recorder should have no registry")
	}
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("WriteTextfile() on nil = %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.TrialDone("run")
	r.RunComplete(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "crfboost.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`crfboost_trials_total{source="run"} 1`,
		"crfboost_last_run_timestamp_seconds 1.7e+09",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}
