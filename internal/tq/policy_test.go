package tq

import (
	"slices"
	"testing"

	"github.com/five82/crfboost/internal/crf"
)

func scoresFor(pairs ...float64) []CandidateScore {
	var out []CandidateScore
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, CandidateScore{CRF: int(pairs[i]), Score: pairs[i+1]})
	}
	return out
}

func TestDecide(t *testing.T) {
	space := crf.MustParse("36,30,24")

	tests := []struct {
		name    string
		target  float64
		scores  []CandidateScore
		wantCRF int
		wantMet bool
	}{
		{"cheapest passing", 80, scoresFor(36, 70, 30, 82, 24, 90), 30, true},
		{"none passing", 80, scoresFor(36, 60, 30, 65, 24, 70), 24, false},
		{"first passes", 50, scoresFor(36, 70), 36, true},
		{"exact target passes", 70, scoresFor(36, 70), 36, true},
		{"only expensive tried", 80, scoresFor(24, 85), 24, true},
		{"nothing tried", 80, nil, 24, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(7, space, tt.target, tt.scores)
			if d.CRF != tt.wantCRF || d.MetTarget != tt.wantMet {
				t.Errorf("Decide() = crf %d met %v, want crf %d met %v", d.CRF, d.MetTarget, tt.wantCRF, tt.wantMet)
			}
			if d.SceneID != 7 {
				t.Errorf("SceneID = %d, want 7", d.SceneID)
			}
			if d.Trials != len(tt.scores) {
				t.Errorf("Trials = %d, want %d", d.Trials, len(tt.scores))
			}
		})
	}
}

func TestDecideMissedScoreIsMostExpensive(t *testing.T) {
	d := Decide(0, crf.MustParse("36,30,24"), 80, scoresFor(36, 60, 30, 65, 24, 70))
	if d.Score != 70 {
		t.Errorf("Score = %v, want 70", d.Score)
	}
}

func TestDecideMonotoneInTarget(t *testing.T) {
	space := crf.MustParse("40..20:4")
	scores := scoresFor(40, 55, 36, 61, 32, 60, 28, 74, 24, 83, 20, 91)

	values := space.Values()
	prev := -1
	for target := 0.0; target <= 100; target += 0.5 {
		idx := slices.Index(values, Decide(0, space, target, scores).CRF)
		if idx < prev {
			t.Fatalf("target %.1f chose cheaper candidate (index %d) than a lower target (index %d)", target, idx, prev)
		}
		prev = idx
	}
}

func TestDecideDeterministic(t *testing.T) {
	space := crf.MustParse("35,30,27,24,21")
	scores := scoresFor(35, 79.99, 30, 80.0, 27, 85)

	first := Decide(1, space, 80, scores)
	for i := 0; i < 10; i++ {
		d := Decide(1, space, 80, scores)
		if d.CRF != first.CRF || d.MetTarget != first.MetTarget || d.Score != first.Score {
			t.Fatalf("run %d: %+v differs from %+v", i, d, first)
		}
	}
	if first.CRF != 30 {
		t.Errorf("CRF = %d, want 30", first.CRF)
	}
}

func TestFallback(t *testing.T) {
	space := crf.MustParse("36,30,24")
	d := Fallback(3, space, 80, scoresFor(36, 70), errTest)
	if d.CRF != 24 || d.MetTarget || !d.Failed {
		t.Errorf("Fallback() = %+v, want crf 24, not met, failed", d)
	}
	if d.Err != errTest.Error() {
		t.Errorf("Err = %q", d.Err)
	}
}
