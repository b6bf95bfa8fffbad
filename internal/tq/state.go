package tq

import (
	"slices"

	"github.com/five82/crfboost/internal/scene"
)

// SceneState tracks the search for one scene across its candidates.
type SceneState struct {
	Scene  scene.Scene
	Frames []int // sampled frames, sorted

	target float64
	latest map[int]float64 // most recent score per frame
	passed map[int]bool    // frames that already met the target

	// Candidates holds one aggregated score per tried CRF, in trial order.
	Candidates []CandidateScore
	// Trials holds every per-frame result actually evaluated or loaded.
	Trials []TrialResult
}

// NewSceneState creates the search state for a scene and its sampled frames.
func NewSceneState(s scene.Scene, frames []int, target float64) *SceneState {
	sorted := slices.Clone(frames)
	slices.Sort(sorted)
	return &SceneState{
		Scene:  s,
		Frames: sorted,
		target: target,
		latest: make(map[int]float64, len(frames)),
		passed: make(map[int]bool, len(frames)),
	}
}

// ActiveFrames returns the frames that still need scoring at the next
// candidate. With filter set, frames that already met the target at a
// cheaper CRF are skipped.
func (st *SceneState) ActiveFrames(filter bool) []int {
	if !filter {
		return slices.Clone(st.Frames)
	}
	active := make([]int, 0, len(st.Frames))
	for _, f := range st.Frames {
		if !st.passed[f] {
			active = append(active, f)
		}
	}
	return active
}

// Record stores the frame scores obtained at crf and returns the candidate's
// aggregated score. Frames not in scores keep their last known score.
func (st *SceneState) Record(sceneID, crf int, scores map[int]float64, agg Aggregation, cached bool) CandidateScore {
	for _, f := range st.Frames {
		score, ok := scores[f]
		if !ok {
			continue
		}
		st.latest[f] = score
		if score >= st.target {
			st.passed[f] = true
		}
		st.Trials = append(st.Trials, TrialResult{SceneID: sceneID, CRF: crf, Frame: f, Score: score})
	}

	values := make([]float64, 0, len(st.Frames))
	for _, f := range st.Frames {
		if score, ok := st.latest[f]; ok {
			values = append(values, score)
		}
	}

	cs := CandidateScore{
		CRF:       crf,
		Score:     agg.Apply(values),
		Evaluated: len(scores),
		Cached:    cached,
	}
	st.Candidates = append(st.Candidates, cs)
	return cs
}

// Latest returns a copy of the most recent score of every scored frame.
func (st *SceneState) Latest() map[int]float64 {
	out := make(map[int]float64, len(st.latest))
	for f, v := range st.latest {
		out[f] = v
	}
	return out
}
