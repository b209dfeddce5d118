package usecase

import (
	"math"
	"strings"
)

const (
	DefaultSeekBackoff = 0.05
	FrameFileSuffix    = "_last_frame.png"
)

// SeekTarget backs off from the reported duration, since seeking to the exact
// end lands past the last decodable frame on many decoders.
func SeekTarget(duration, backoff float64) float64 {
	if math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0
	}
	return math.Max(0, duration-backoff)
}

// SuggestedFileName drops any directory part and the final extension of name
// and appends FrameFileSuffix.
func SuggestedFileName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name + FrameFileSuffix
}
