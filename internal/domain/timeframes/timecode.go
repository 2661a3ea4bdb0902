package timeframes

import (
	"math"

	"github.com/forPelevin/topiccut/internal/types"
)

// FrameRate is the fixed frame rate used for editing handoff.
const FrameRate = 24

// FromSeconds converts a timestamp to hours, minutes, seconds and frames, each
// truncated toward zero.
func FromSeconds(sec float64) types.Timecode {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	hours := math.Floor(sec / 3600)
	rem := sec - hours*3600
	minutes := math.Floor(rem / 60)
	rem -= minutes * 60
	whole := math.Floor(rem)
	frames := int(math.Floor((rem - whole) * FrameRate))
	if frames >= FrameRate {
		frames = FrameRate - 1
	}
	return types.Timecode{
		Hours:   int(hours),
		Minutes: int(minutes),
		Seconds: int(whole),
		Frames:  frames,
	}
}

// Convert renders sec as HH:MM:SS:FF.
func Convert(sec float64) string {
	return FromSeconds(sec).String()
}
