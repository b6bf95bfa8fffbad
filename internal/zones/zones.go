// Package zones builds and writes the zone override file that tells an
// av1an-style encode orchestrator which CRF to use for every scene.
package zones

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/ffmpeg"
	"github.com/five82/crfboost/internal/scene"
	"github.com/five82/crfboost/internal/util"
)

// Overrides is the per-zone parameter block. Unset optional values encode
// as null.
type Overrides struct {
	Encoder           *string  `json:"encoder"`
	Passes            *int     `json:"passes"`
	VideoParams       []string `json:"video_params"`
	PhotonNoise       *int     `json:"photon_noise"`
	PhotonNoiseHeight *int     `json:"photon_noise_height"`
	PhotonNoiseWidth  *int     `json:"photon_noise_width"`
	ChromaNoise       bool     `json:"chroma_noise"`
	ExtraSplitsLen    *int     `json:"extra_splits_len"`
	MinSceneLen       *int     `json:"min_scene_len"`
}

// CRF returns the --crf value in VideoParams.
func (o Overrides) CRF() (int, bool) {
	v, ok := ffmpeg.Params(o.VideoParams).Value("--crf")
	if !ok {
		return 0, false
	}
	var crf int
	if _, err := fmt.Sscanf(v, "%d", &crf); err != nil {
		return 0, false
	}
	return crf, true
}

// Template derives zone overrides from orchestrator and encoder parameters.
type Template struct {
	overrides Overrides
	encoder   ffmpeg.Params
}

// NewTemplate parses orchestrator parameters (e.g. "--encoder svt-av1
// --passes 1 --photon-noise 10") and the encoder parameter template.
func NewTemplate(orchestratorParams, encoderParams string) Template {
	p := ffmpeg.ParseParams(orchestratorParams)

	var o Overrides
	if enc, ok := p.Value("--encoder"); ok {
		if enc == "svt-av1" {
			enc = "svt_av1"
		}
		o.Encoder = &enc
	}
	o.Passes = intParam(p, "--passes")
	o.PhotonNoise = intParam(p, "--photon-noise")
	o.PhotonNoiseWidth = intParam(p, "--photon-noise-width")
	o.PhotonNoiseHeight = intParam(p, "--photon-noise-height")
	o.ChromaNoise = p.Has("--chroma-noise")
	o.ExtraSplitsLen = intParam(p, "--extra-split")
	o.MinSceneLen = intParam(p, "--min-scene-len")

	if o.Passes == nil {
		o.Passes = ptr(1)
	}
	if o.ExtraSplitsLen == nil {
		o.ExtraSplitsLen = ptr(0)
	}
	if o.MinSceneLen == nil {
		o.MinSceneLen = ptr(0)
	}

	return Template{overrides: o, encoder: ffmpeg.ParseParams(encoderParams)}
}

// For returns the overrides for a zone encoded at crf.
func (t Template) For(crf int) Overrides {
	o := t.overrides
	o.VideoParams = WithCRF(t.encoder, crf)
	return o
}

func ptr[T any](v T) *T { return &v }

// Zone is one scene with its overrides.
type Zone struct {
	StartFrame int       `json:"start_frame"`
	EndFrame   int       `json:"end_frame"`
	Overrides  Overrides `json:"zone_overrides"`
}

// Document is the zone file.
type Document struct {
	Scenes []Zone `json:"scenes"`
	Frames int    `json:"frames"`
}

// Assignment is a scene and the CRF chosen for it.
type Assignment struct {
	Scene scene.Scene
	CRF   int
}

// Build creates a zone document from per-scene assignments. The scenes must
// partition [0, totalFrames).
func Build(assignments []Assignment, tmpl Template, totalFrames int) (*Document, error) {
	scenes := make([]scene.Scene, len(assignments))
	for i, a := range assignments {
		scenes[i] = a.Scene
	}
	if err := scene.Validate(scenes, totalFrames); err != nil {
		return nil, fmt.Errorf("zone scenes: %w", err)
	}

	doc := &Document{Scenes: make([]Zone, len(assignments)), Frames: totalFrames}
	for i, a := range assignments {
		doc.Scenes[i] = Zone{
			StartFrame: a.Scene.StartFrame,
			EndFrame:   a.Scene.EndFrame,
			Overrides:  tmpl.For(a.CRF),
		}
	}
	return doc, nil
}

// Load reads a zone document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.NewIOError("read zone file "+path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, cerrors.NewJSONParseError("decode zone file "+path, err)
	}
	return &doc, nil
}

// Writer writes zone documents. Without Force an existing file is never
// replaced.
type Writer struct {
	Force bool
}

// Write serializes doc to path atomically while holding <path>.lock.
func (w Writer) Write(path string, doc *Document) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return cerrors.NewIOError("lock zone file "+path, err)
	}
	if !locked {
		return cerrors.NewIOError(fmt.Sprintf("zone file %s is being written by another process", path), nil)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(path + ".lock")
	}()

	if !w.Force && util.FileExists(path) {
		return cerrors.NewAlreadyExistsError(path)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return cerrors.NewIOError("encode zone file", err)
	}
	data = append(data, '\n')

	if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
		return cerrors.NewIOError("write zone file "+path, err)
	}
	return nil
}
