// Package probe holds the external collaborators a trial calls: a source
// backend that yields selected frames, a sample encoder and a quality
// evaluator.
package probe

import (
	"context"

	"github.com/five82/crfboost/internal/ffmpeg"
)

// Frame is one decoded image on disk together with the source frame number
// it was taken from.
type Frame struct {
	Index int
	Path  string
}

// Sample is the artifact of encoding a set of frames at one CRF.
type Sample struct {
	CRF    int
	Path   string
	Size   int64
	Frames []Frame // decoded frames, same order as the request
}

// EncodeRequest describes one sample encode.
type EncodeRequest struct {
	Video   string
	SceneID int
	Frames  []int
	CRF     int
	Params  ffmpeg.Params
	Dir     string
}

// Encoder encodes the sampled frames of a scene at a CRF.
type Encoder interface {
	Encode(ctx context.Context, req EncodeRequest) (*Sample, error)
}

// Evaluator scores a distorted frame against its reference on a 0-100 scale.
type Evaluator interface {
	Score(ctx context.Context, reference, distorted Frame) (float64, error)
}

// FrameExtractor writes reference images for the given source frames.
type FrameExtractor interface {
	Extract(ctx context.Context, video string, frames []int, dir string) ([]Frame, error)
}
