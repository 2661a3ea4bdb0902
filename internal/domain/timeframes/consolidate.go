package timeframes

import (
	"fmt"
	"sort"

	"github.com/forPelevin/topiccut/internal/types"
)

// Consolidate orders segments chronologically, sums their playable duration
// (truncated to whole seconds) and renders start/end timecodes.
func Consolidate(segs []types.Segment) (types.Consolidation, error) {
	if len(segs) == 0 {
		return types.Consolidation{}, fmt.Errorf("no valid timeframes: %w", types.ErrMissingData)
	}

	sorted := make([]types.Segment, len(segs))
	copy(sorted, segs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var total float64
	tcs := make([]types.TimecodeRange, 0, len(sorted))
	for _, s := range sorted {
		total += s.End - s.Start
		tcs = append(tcs, types.TimecodeRange{
			Start: Convert(s.Start),
			End:   Convert(s.End),
		})
	}

	return types.Consolidation{
		Duration:   int(total),
		Segments:   sorted,
		Timeframes: tcs,
	}, nil
}
