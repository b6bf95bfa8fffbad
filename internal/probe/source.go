package probe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/ffmpeg"
)

// Backend names a frame source implementation.
type Backend string

const (
	BackendFFmpeg     Backend = "ffmpeg"
	BackendLsmash     Backend = "lsmash"
	BackendBestSource Backend = "bestsource"
	BackendFFMS2      Backend = "ffms2"
)

// Backends lists every supported backend.
func Backends() []Backend {
	return []Backend{BackendFFmpeg, BackendLsmash, BackendBestSource, BackendFFMS2}
}

// ParseBackend converts a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendFFmpeg, BackendLsmash, BackendBestSource, BackendFFMS2:
		return b, nil
	case "bs":
		return BackendBestSource, nil
	case "lsmas":
		return BackendLsmash, nil
	}
	return "", fmt.Errorf("unknown source backend %q", s)
}

// Capabilities describes what a source backend can do and needs.
type Capabilities struct {
	Backend       Backend
	FrameAccurate bool // seeks land on exact frame numbers
	Indexed       bool // builds an index or cache file next to the video
	NeedsVSPipe   bool
}

// Tools returns the executables the backend needs on PATH.
func (c Capabilities) Tools() []string {
	if c.NeedsVSPipe {
		return []string{"vspipe"}
	}
	return []string{"ffmpeg"}
}

// Source streams selected frames of a video as y4m on stdout.
type Source interface {
	Capabilities() Capabilities
	Stream(ctx context.Context, video string, frames []int, dir string) (*exec.Cmd, error)
}

// NewSource returns the source for a backend. cacheDir holds index files
// for backends that build one.
func NewSource(b Backend, cacheDir string) (Source, error) {
	switch b {
	case BackendFFmpeg:
		return FFmpegSource{}, nil
	case BackendLsmash, BackendBestSource, BackendFFMS2:
		return VapourSynthSource{Backend: b, CacheDir: cacheDir}, nil
	}
	return nil, fmt.Errorf("unknown source backend %q", b)
}

// FFmpegSource selects frames with ffmpeg's select filter.
type FFmpegSource struct{}

// Capabilities implements Source.
func (FFmpegSource) Capabilities() Capabilities {
	return Capabilities{Backend: BackendFFmpeg}
}

// Stream implements Source.
func (FFmpegSource) Stream(ctx context.Context, video string, frames []int, _ string) (*exec.Cmd, error) {
	return exec.CommandContext(ctx, "ffmpeg", ffmpeg.SelectY4MArgs(video, frames)...), nil
}

// VapourSynthSource writes a script that splices the requested frames and
// runs it through vspipe.
type VapourSynthSource struct {
	Backend  Backend
	CacheDir string
}

// Capabilities implements Source.
func (s VapourSynthSource) Capabilities() Capabilities {
	return Capabilities{Backend: s.Backend, FrameAccurate: true, Indexed: true, NeedsVSPipe: true}
}

// Stream implements Source.
func (s VapourSynthSource) Stream(ctx context.Context, video string, frames []int, dir string) (*exec.Cmd, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cerrors.NewIOError("failed to create script directory", err)
	}

	script, err := s.Script(video, frames)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "select_"+uuid.NewString()+".vpy")
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return nil, cerrors.NewIOError("failed to write VapourSynth script", err)
	}

	return exec.CommandContext(ctx, "vspipe", "-c", "y4m", path, "-"), nil
}

// Script renders the VapourSynth script for video and frames.
func (s VapourSynthSource) Script(video string, frames []int) (string, error) {
	abs, err := filepath.Abs(video)
	if err != nil {
		return "", cerrors.NewPathError(fmt.Sprintf("invalid video path %s: %v", video, err))
	}

	cacheDir := s.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Dir(abs)
	}
	stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	cache := filepath.Join(cacheDir, stem)

	var call string
	switch s.Backend {
	case BackendLsmash:
		call = fmt.Sprintf("core.lsmas.LWLibavSource(%s, cachefile=%s)", pyString(abs), pyString(cache+".lwi"))
	case BackendBestSource:
		call = fmt.Sprintf("core.bs.VideoSource(%s, cachepath=%s, cachemode=4)", pyString(abs), pyString(cache+".bsindex"))
	case BackendFFMS2:
		call = fmt.Sprintf("core.ffms2.Source(%s, cachefile=%s)", pyString(abs), pyString(cache+".ffindex"))
	default:
		return "", fmt.Errorf("backend %q does not use VapourSynth", s.Backend)
	}

	list := make([]string, len(frames))
	for i, f := range frames {
		list[i] = strconv.Itoa(f)
	}

	var b strings.Builder
	b.WriteString("import vapoursynth as vs\n")
	b.WriteString("core = vs.core\n\n")
	fmt.Fprintf(&b, "src = %s\n", call)
	b.WriteString("src = core.resize.Point(src, format=vs.YUV420P10)\n")
	if len(frames) > 0 {
		fmt.Fprintf(&b, "frames = [%s]\n", strings.Join(list, ", "))
		b.WriteString("src = core.std.Splice([src[f] for f in frames])\n")
	}
	b.WriteString("src.set_output()\n")
	return b.String(), nil
}

func pyString(s string) string {
	return strconv.Quote(s)
}

// Extractor writes reference PNGs for sampled frames through a Source.
type Extractor struct {
	Source Source
}

// Extract implements FrameExtractor.
func (e Extractor) Extract(ctx context.Context, video string, frames []int, dir string) ([]Frame, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cerrors.NewIOError("failed to create frame directory", err)
	}

	stream, err := e.Source.Stream(ctx, video, frames, dir)
	if err != nil {
		return nil, err
	}

	pattern := filepath.Join(dir, "ref_%04d.png")
	decode := exec.CommandContext(ctx, "ffmpeg", ffmpeg.ImageSequenceArgs("-", pattern)...)
	if err := ffmpeg.Pipe(ctx, stream, decode); err != nil {
		return nil, err
	}

	return collectFrames(frames, pattern)
}

// collectFrames pairs numbered images with their source frame numbers.
func collectFrames(frames []int, pattern string) ([]Frame, error) {
	out := make([]Frame, len(frames))
	for i, f := range frames {
		path := fmt.Sprintf(pattern, i)
		if _, err := os.Stat(path); err != nil {
			return nil, cerrors.NewIOError(fmt.Sprintf("decoded frame %d missing", f), err)
		}
		out[i] = Frame{Index: f, Path: path}
	}
	return out, nil
}
