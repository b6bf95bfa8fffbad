package ffmpeg

import (
	"context"
	"os/exec"
	"reflect"
	"strings"
	"testing"

	cerrors "github.com/five82/crfboost/internal/errors"
)

func TestParams(t *testing.T) {
	p := ParseParams("--preset 4  --tune 3 --film-grain 0 --enable-overlays --crf 30")

	if v, ok := p.Value("--preset"); !ok || v != "4" {
		t.Errorf("Value(--preset) = %q, %v", v, ok)
	}
	if _, ok := p.Value("--enable-overlays"); ok {
		t.Error("valueless flag should report no value")
	}
	if !p.Has("--enable-overlays") {
		t.Error("Has(--enable-overlays) = false")
	}

	tests := []struct {
		name string
		got  Params
		want string
	}{
		{"replace", p.With("--crf", "24"), "--preset 4 --tune 3 --film-grain 0 --enable-overlays --crf 24"},
		{"append", p.With("--lp", "2"), "--preset 4 --tune 3 --film-grain 0 --enable-overlays --crf 30 --lp 2"},
		{"insert value", p.With("--enable-overlays", "1"), "--preset 4 --tune 3 --film-grain 0 --enable-overlays 1 --crf 30"},
		{"remove pair", p.Without("--tune"), "--preset 4 --film-grain 0 --enable-overlays --crf 30"},
		{"remove flag", p.Without("--enable-overlays"), "--preset 4 --tune 3 --film-grain 0 --crf 30"},
		{"remove missing", p.Without("--keyint"), p.String()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.String() != tt.want {
				t.Errorf("got %q, want %q", tt.got.String(), tt.want)
			}
		})
	}

	if p.String() != "--preset 4 --tune 3 --film-grain 0 --enable-overlays --crf 30" {
		t.Errorf("original params were modified: %q", p.String())
	}
}

func TestParamsNegativeValue(t *testing.T) {
	p := ParseParams("--chroma-qm-min -2 --sharpness -1")
	if v, ok := p.Value("--chroma-qm-min"); !ok || v != "-2" {
		t.Errorf("Value(--chroma-qm-min) = %q, %v, want -2", v, ok)
	}
	if got := p.Without("--chroma-qm-min").String(); got != "--sharpness -1" {
		t.Errorf("Without() = %q", got)
	}
}

func TestSelectFrames(t *testing.T) {
	got := NewVideoFilterChain().AddSelectFrames([]int{3, 10}).Build()
	if got != "select='eq(n,3)+eq(n,10)'" {
		t.Errorf("Build() = %q", got)
	}
	if NewVideoFilterChain().AddSelectFrames(nil).Build() != "" {
		t.Error("empty frame list should add no filter")
	}
}

func TestSelectY4MArgs(t *testing.T) {
	args := SelectY4MArgs("in.mkv", []int{5})
	joined := strings.Join(args, " ")
	for _, want := range []string{"-i in.mkv", "-vf select='eq(n,5)'", "-f yuv4mpegpipe", "-fps_mode passthrough"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
	if args[len(args)-1] != "-" {
		t.Errorf("last arg = %q, want stdout", args[len(args)-1])
	}
}

func TestImageSequenceArgs(t *testing.T) {
	fromPipe := ImageSequenceArgs("-", "ref_%04d.png")
	if !reflect.DeepEqual(fromPipe[5:9], []string{"-f", "yuv4mpegpipe", "-i", "-"}) {
		t.Errorf("stdin args = %v", fromPipe)
	}
	fromFile := ImageSequenceArgs("sample.ivf", "d_%04d.png")
	if strings.Contains(strings.Join(fromFile, " "), "yuv4mpegpipe") {
		t.Errorf("file input should not force y4m demuxer: %v", fromFile)
	}
}

func TestTail(t *testing.T) {
	s := "a\n\nb\nc\n\n"
	if got := Tail(s, 2); got != "b\nc" {
		t.Errorf("Tail() = %q", got)
	}
	if got := Tail(s, 10); got != "a\nb\nc" {
		t.Errorf("Tail() = %q", got)
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), "crfboost-no-such-tool")
	if !cerrors.IsKind(err, cerrors.KindCommand) {
		t.Errorf("Run() error = %v, want command error", err)
	}
}

func TestPipe(t *testing.T) {
	if !IsAvailable("sh") {
		t.Skip("sh not available")
	}
	ctx := context.Background()

	producer := exec.CommandContext(ctx, "sh", "-c", "printf 'hello'")
	consumer := exec.CommandContext(ctx, "sh", "-c", "cat >/dev/null; exit 3")
	err := Pipe(ctx, producer, consumer)

	if !cerrors.IsKind(err, cerrors.KindCommand) {
		t.Fatalf("Pipe() error = %v, want command error", err)
	}

	producer = exec.CommandContext(ctx, "sh", "-c", "printf 'hello'")
	consumer = exec.CommandContext(ctx, "sh", "-c", "test \"$(cat)\" = hello")
	if err := Pipe(ctx, producer, consumer); err != nil {
		t.Errorf("Pipe() = %v", err)
	}
}
