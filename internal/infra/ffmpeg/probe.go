package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"github.com/ysyms/lastFrameV2/internal/domain/entity"
)

// probeOutput is the subset of `ffprobe -of json` used to build metadata.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Duration     string            `json:"duration"`
	Tags         map[string]string `json:"tags"`
	SideDataList []struct {
		Rotation float64 `json:"rotation"`
	} `json:"side_data_list"`
}

func (d *Decoder) probe(ctx context.Context, path string) (entity.MediaMetadata, error) {
	cmd := exec.CommandContext(ctx, d.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_format",
		"-show_streams",
		"-of", "json",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return entity.MediaMetadata{}, fmt.Errorf("ffprobe: %w, stderr: %s", err, string(ee.Stderr))
		}
		return entity.MediaMetadata{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (entity.MediaMetadata, error) {
	var out probeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return entity.MediaMetadata{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var video *probeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "video" {
			video = &out.Streams[i]
			break
		}
	}
	if video == nil {
		return entity.MediaMetadata{}, fmt.Errorf("no video stream found")
	}

	// The container duration also covers audio that outlasts the picture.
	duration, ok := parseSeconds(video.Duration)
	if !ok {
		duration, ok = parseSeconds(out.Format.Duration)
	}
	if !ok {
		return entity.MediaMetadata{}, fmt.Errorf("no duration reported")
	}

	width, height := video.Width, video.Height
	if quarterTurn(video.rotation()) {
		width, height = height, width
	}

	return entity.MediaMetadata{
		Duration: duration,
		Width:    width,
		Height:   height,
	}, nil
}

func (s probeStream) rotation() float64 {
	for _, sd := range s.SideDataList {
		if sd.Rotation != 0 {
			return sd.Rotation
		}
	}
	if r, err := strconv.ParseFloat(s.Tags["rotate"], 64); err == nil {
		return r
	}
	return 0
}

// quarterTurn reports whether the decoder's autorotation swaps the axes.
func quarterTurn(deg float64) bool {
	r := math.Mod(math.Abs(deg), 180)
	return r == 90
}

func parseSeconds(s string) (float64, bool) {
	if s == "" || s == "N/A" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < 0 {
		return 0, false
	}
	return v, true
}
