package tq

import (
	"slices"
	"testing"

	"github.com/five82/crfboost/internal/scene"
)

func TestSceneStateActiveFrames(t *testing.T) {
	st := NewSceneState(scene.Scene{StartFrame: 0, EndFrame: 10}, []int{6, 2, 4}, 80)

	if got := st.ActiveFrames(true); !slices.Equal(got, []int{2, 4, 6}) {
		t.Errorf("initial ActiveFrames = %v, want [2 4 6]", got)
	}

	cs := st.Record(0, 35, map[int]float64{2: 85, 4: 79, 6: 90}, DefaultAggregation(), false)
	if cs.Score != 79 || cs.Evaluated != 3 {
		t.Errorf("Record = %+v, want score 79 from 3 frames", cs)
	}

	if got := st.ActiveFrames(true); !slices.Equal(got, []int{4}) {
		t.Errorf("filtered ActiveFrames = %v, want [4]", got)
	}
	if got := st.ActiveFrames(false); !slices.Equal(got, []int{2, 4, 6}) {
		t.Errorf("unfiltered ActiveFrames = %v, want all frames", got)
	}

	cs = st.Record(0, 30, map[int]float64{4: 82}, DefaultAggregation(), false)
	if cs.Score != 82 {
		t.Errorf("second Record score = %v, want 82 (carried 85 and 90)", cs.Score)
	}
	if !st.passed[4] {
		t.Error("frame 4 should be marked passed")
	}
	if len(st.Candidates) != 2 || len(st.Trials) != 4 {
		t.Errorf("candidates=%d trials=%d, want 2 and 4", len(st.Candidates), len(st.Trials))
	}
}
