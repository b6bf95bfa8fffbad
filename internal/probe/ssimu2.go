package probe

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/ffmpeg"
)

const ssimu2Binary = "ssimulacra2"

var scoreRegex = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*$`)

// Ssimulacra2Evaluator scores frames with the ssimulacra2 command-line tool,
// which prints a single score for a reference and distorted image.
type Ssimulacra2Evaluator struct {
	Binary string // defaults to ssimulacra2
}

// Score implements Evaluator. Scores below zero are clamped to zero.
func (e Ssimulacra2Evaluator) Score(ctx context.Context, reference, distorted Frame) (float64, error) {
	binary := e.Binary
	if binary == "" {
		binary = ssimu2Binary
	}

	out, err := ffmpeg.Output(ctx, binary, reference.Path, distorted.Path)
	if err != nil {
		if cerrors.IsCancelled(err) {
			return 0, err
		}
		return 0, cerrors.NewEvaluateError(fmt.Sprintf("frame %d: %s failed", reference.Index, binary), err)
	}

	score, err := parseScore(out)
	if err != nil {
		return 0, cerrors.NewEvaluateError(fmt.Sprintf("frame %d: unreadable score", reference.Index), err)
	}
	return clampScore(score), nil
}

func parseScore(out []byte) (float64, error) {
	m := scoreRegex.FindSubmatch(trimSpace(out))
	if m == nil {
		return 0, fmt.Errorf("no score in output %q", string(out))
	}
	return strconv.ParseFloat(string(m[1]), 64)
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r' || b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

func clampScore(s float64) float64 {
	return min(max(s, 0), 100)
}

// IsSsimulacra2Available checks if ssimulacra2 is available in PATH.
func IsSsimulacra2Available() bool {
	return ffmpeg.IsAvailable(ssimu2Binary)
}
