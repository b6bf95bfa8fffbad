package probe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/ffmpeg"
)

const svtEncBinary = "SvtAv1EncApp"

// SvtEncoder encodes samples with SvtAv1EncApp fed by a Source and decodes
// the result back to PNGs for scoring.
type SvtEncoder struct {
	Source Source
	Binary string // defaults to SvtAv1EncApp
}

// Encode implements Encoder.
func (e SvtEncoder) Encode(ctx context.Context, req EncodeRequest) (*Sample, error) {
	if len(req.Frames) == 0 {
		return nil, cerrors.NewEncodeError(fmt.Sprintf("scene %d: no frames to encode", req.SceneID), nil)
	}
	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return nil, cerrors.NewIOError("failed to create sample directory", err)
	}

	out := filepath.Join(req.Dir, fmt.Sprintf("%04d_crf%02d.ivf", req.SceneID, req.CRF))

	stream, err := e.Source.Stream(ctx, req.Video, req.Frames, req.Dir)
	if err != nil {
		return nil, encodeErr(req, err)
	}

	binary := e.Binary
	if binary == "" {
		binary = svtEncBinary
	}
	enc := exec.CommandContext(ctx, binary, BuildSvtArgs(req.Params, req.CRF, out)...)
	if err := ffmpeg.Pipe(ctx, stream, enc); err != nil {
		return nil, encodeErr(req, err)
	}

	stat, err := os.Stat(out)
	if err != nil {
		return nil, encodeErr(req, err)
	}

	pattern := filepath.Join(req.Dir, fmt.Sprintf("%04d_crf%02d_%%04d.png", req.SceneID, req.CRF))
	if _, err := ffmpeg.Run(ctx, "ffmpeg", ffmpeg.ImageSequenceArgs(out, pattern)...); err != nil {
		return nil, encodeErr(req, err)
	}

	frames, err := collectFrames(req.Frames, pattern)
	if err != nil {
		return nil, encodeErr(req, err)
	}

	return &Sample{CRF: req.CRF, Path: out, Size: stat.Size(), Frames: frames}, nil
}

func encodeErr(req EncodeRequest, err error) error {
	if cerrors.IsCancelled(err) {
		return err
	}
	return cerrors.NewEncodeError(fmt.Sprintf("scene %d: sample encode at CRF %d failed", req.SceneID, req.CRF), err)
}

// BuildSvtArgs returns the SvtAv1EncApp arguments for reading y4m from
// stdin with params and crf applied.
func BuildSvtArgs(params ffmpeg.Params, crf int, output string) []string {
	p := params.Without("-i").Without("-b").With("--crf", strconv.Itoa(crf))
	args := []string{"-i", "stdin"}
	args = append(args, p...)
	if !p.Has("--progress") {
		args = append(args, "--progress", "0")
	}
	return append(args, "-b", output)
}

// IsSvtAvailable checks if SvtAv1EncApp is available in PATH.
func IsSvtAvailable() bool {
	return ffmpeg.IsAvailable(svtEncBinary)
}
