package styles

import "testing"

func TestZone(t *testing.T) {
	tests := []struct {
		name  string
		bpm   float64
		maxHR float64
		want  int
	}{
		{"no reading", 0, 190, 0},
		{"no max", 120, 0, 0},
		{"rest", 100, 190, 1},
		{"easy", 120, 190, 2},
		{"aerobic", 140, 190, 3},
		{"threshold", 160, 190, 4},
		{"max", 171, 190, 5},
		{"above max", 200, 190, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Zone(tt.bpm, tt.maxHR); got != tt.want {
				t.Errorf("Zone(%v, %v) = %d, want %d", tt.bpm, tt.maxHR, got, tt.want)
			}
		})
	}
}

func TestGetStageColor(t *testing.T) {
	if GetStageColor("deep") != StageDeep {
		t.Error("deep color mismatch")
	}
	if GetStageColor("rem") != StageREM {
		t.Error("rem color mismatch")
	}
	if GetStageColor("out_of_bed") != StageAwake {
		t.Error("unknown stages should use the awake color")
	}
}
