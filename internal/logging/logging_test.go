package logging

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupDisabled(t *testing.T) {
	l, err := Setup(t.TempDir(), "run", false, true)
	if err != nil || l != nil {
		t.Fatalf("Setup(noLog) = %v, %v, want nil, nil", l, err)
	}

	// nil RunLog is safe to use.
	l.Info("ignored %d", 1)
	l.Debug("ignored")
	if l.Writer() != io.Discard {
		t.Error("nil RunLog Writer should discard")
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestSetupWritesHeaderAndLevels(t *testing.T) {
	dir := t.TempDir()
	l, err := Setup(dir, "0f5c", false, false)
	if err != nil {
		t.Fatal(err)
	}

	l.Info("scene %d decided", 3)
	l.Debug("hidden")
	l.Warn("careful")
	if _, err := l.Writer().Write([]byte("structured line\n")); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(filepath.Base(l.FilePath()), "crfboost_run_") {
		t.Errorf("log file name = %s", l.FilePath())
	}
	data, err := os.ReadFile(l.FilePath())
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"run 0f5c", "[INFO] scene 3 decided", "[WARN] careful", "structured line"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug line written without verbose")
	}
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := Global()
	defer SetGlobal(prev)

	Init(slog.LevelDebug, &buf)
	NewComponentLogger("tq").Info("trial complete", CRF(30), Score(81.5), Err(errors.New("x")))

	out := buf.String()
	for _, want := range []string{"component=tq", "crf=30", "score=81.5", "error=x"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestWithFile(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Output: &buf, Enabled: true}).WithFile("movie.mkv")
	l.Info("scene decided")
	if !strings.Contains(buf.String(), "file=movie.mkv") {
		t.Errorf("output missing file attr: %s", buf.String())
	}
}
