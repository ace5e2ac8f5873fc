package transcoder

import "github.com/streamforge/streamforge/internal/domain/model"

// rung is one entry in the fixed ABR ladder.
type rung struct {
	Resolution  model.Resolution
	Width       int
	Height      int
	BitrateKbps int
}

// ladder is the known set of target renditions, in descending quality order.
var ladder = []rung{
	{Resolution: model.Resolution1080p, Width: 1920, Height: 1080, BitrateKbps: 5000},
	{Resolution: model.Resolution720p, Width: 1280, Height: 720, BitrateKbps: 2500},
	{Resolution: model.Resolution480p, Width: 854, Height: 480, BitrateKbps: 1200},
}

func rungFor(res model.Resolution) (rung, bool) {
	for _, r := range ladder {
		if r.Resolution == res {
			return r, true
		}
	}
	return rung{}, false
}

// filterLadder intersects requested with the known ladder, preserving the
// requested order, and drops any rendition taller than sourceHeight so the
// transcoder never upscales. Resolutions not found in the ladder are
// skipped silently rather than treated as an error.
func filterLadder(requested []model.Resolution, sourceHeight int) []rung {
	var out []rung
	for _, res := range requested {
		r, ok := rungFor(res)
		if !ok {
			continue
		}
		if r.Height > sourceHeight {
			continue
		}
		out = append(out, r)
	}
	return out
}
