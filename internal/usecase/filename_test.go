package usecase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestedFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"clip.mov", "clip_last_frame.png"},
		{"my.video.file.webm", "my.video.file_last_frame.png"},
		{"noext", "noext_last_frame.png"},
		{"trailing.", "trailing_last_frame.png"},
		{".hidden", "_last_frame.png"},
		{"uploads/user/clip.mp4", "clip_last_frame.png"},
		{`C:\Videos\clip.mp4`, "clip_last_frame.png"},
		{"家庭录像.mp4", "家庭录像_last_frame.png"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestedFileName(tt.in))
		})
	}
}

func TestSeekTarget(t *testing.T) {
	assert.InDelta(t, 9.95, SeekTarget(10, DefaultSeekBackoff), 1e-9)
	assert.Equal(t, 0.0, SeekTarget(0, DefaultSeekBackoff))
	assert.Equal(t, 0.0, SeekTarget(0.02, DefaultSeekBackoff))
	assert.Equal(t, 0.0, SeekTarget(math.NaN(), DefaultSeekBackoff))
	assert.Equal(t, 0.0, SeekTarget(math.Inf(1), DefaultSeekBackoff))
	assert.InDelta(t, 59.0, SeekTarget(60, 1), 1e-9)
}
