package tq

import (
	"github.com/five82/crfboost/internal/crf"
	"github.com/five82/crfboost/internal/scene"
)

// TrialResult is one scored frame from one (scene, CRF) trial.
type TrialResult struct {
	SceneID int
	CRF     int
	Frame   int
	Score   float64
}

// CandidateScore is the aggregated score of a scene at one CRF.
type CandidateScore struct {
	CRF       int
	Score     float64
	Evaluated int  // frames encoded and scored (or loaded) for this trial
	Cached    bool // scores came from the resume cache
}

// Decision is the final CRF assignment for a scene.
type Decision struct {
	SceneID   int
	Scene     scene.Scene
	CRF       int
	MetTarget bool
	Score     float64
	Failed    bool
	Err       string
	Trials    int
	Cached    int
	History   []CandidateScore

	// FrameScores holds the latest score of every sampled frame.
	FrameScores map[int]float64
}

// Decide picks the cheapest candidate, in space order, whose aggregated score
// reaches target. When none does the most expensive candidate is chosen and
// MetTarget is false. Candidates missing from scores are treated as untried.
func Decide(sceneID int, space crf.Space, target float64, scores []CandidateScore) Decision {
	byCRF := make(map[int]CandidateScore, len(scores))
	for _, cs := range scores {
		byCRF[cs.CRF] = cs
	}

	d := Decision{SceneID: sceneID, History: scores}
	for _, cs := range scores {
		d.Trials++
		if cs.Cached {
			d.Cached++
		}
	}

	for _, c := range space.Values() {
		cs, ok := byCRF[c]
		if ok && cs.Score >= target {
			d.CRF = c
			d.Score = cs.Score
			d.MetTarget = true
			return d
		}
	}

	d.CRF = space.MostExpensive()
	if cs, ok := byCRF[d.CRF]; ok {
		d.Score = cs.Score
	} else {
		for _, cs := range scores {
			d.Score = max(d.Score, cs.Score)
		}
	}
	return d
}

// Fallback returns the best-effort decision for a scene whose search was
// aborted by a trial failure.
func Fallback(sceneID int, space crf.Space, target float64, scores []CandidateScore, err error) Decision {
	d := Decide(sceneID, space, target, scores)
	d.CRF = space.MostExpensive()
	d.MetTarget = false
	d.Failed = true
	if err != nil {
		d.Err = err.Error()
	}
	return d
}
