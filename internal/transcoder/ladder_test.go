package transcoder

import (
	"testing"

	"github.com/streamforge/streamforge/internal/domain/model"
)

func TestRungFor(t *testing.T) {
	tests := []struct {
		name       string
		res        model.Resolution
		wantHeight int
		wantOK     bool
	}{
		{name: "480p", res: model.Resolution480p, wantHeight: 480, wantOK: true},
		{name: "720p", res: model.Resolution720p, wantHeight: 720, wantOK: true},
		{name: "1080p", res: model.Resolution1080p, wantHeight: 1080, wantOK: true},
		{name: "unknown", res: "4k", wantHeight: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := rungFor(tt.res)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && r.Height != tt.wantHeight {
				t.Errorf("Height = %v, want %v", r.Height, tt.wantHeight)
			}
		})
	}
}

func TestFilterLadder(t *testing.T) {
	tests := []struct {
		name         string
		requested    []model.Resolution
		sourceHeight int
		wantHeights  []int
	}{
		{
			name:         "full ladder from 1080p source",
			requested:    []model.Resolution{model.Resolution480p, model.Resolution720p, model.Resolution1080p},
			sourceHeight: 1080,
			wantHeights:  []int{480, 720, 1080},
		},
		{
			name:         "never upscale from 360p source",
			requested:    []model.Resolution{model.Resolution480p, model.Resolution720p, model.Resolution1080p},
			sourceHeight: 360,
			wantHeights:  nil,
		},
		{
			name:         "drops only the renditions taller than source",
			requested:    []model.Resolution{model.Resolution480p, model.Resolution720p, model.Resolution1080p},
			sourceHeight: 720,
			wantHeights:  []int{480, 720},
		},
		{
			name:         "preserves requested order",
			requested:    []model.Resolution{model.Resolution1080p, model.Resolution480p},
			sourceHeight: 1080,
			wantHeights:  []int{1080, 480},
		},
		{
			name:         "unknown resolution label skipped",
			requested:    []model.Resolution{"4k", model.Resolution720p},
			sourceHeight: 1080,
			wantHeights:  []int{720},
		},
		{
			name:         "empty request yields no rungs",
			requested:    nil,
			sourceHeight: 1080,
			wantHeights:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rungs := filterLadder(tt.requested, tt.sourceHeight)
			if len(rungs) != len(tt.wantHeights) {
				t.Fatalf("got %d rungs, want %d", len(rungs), len(tt.wantHeights))
			}
			for i, h := range tt.wantHeights {
				if rungs[i].Height != h {
					t.Errorf("rung[%d].Height = %v, want %v", i, rungs[i].Height, h)
				}
			}
		})
	}
}
