package audio

import (
	"context"
	"strconv"
	"time"

	"github.com/vozbot/vozbot/internal/proc"
)

// FFmpeg decodes any format ffmpeg understands by converting it to signed
// 16-bit PCM at a fixed rate and channel count.
type FFmpeg struct {
	Path       string
	SampleRate int
	Channels   int
	Timeout    time.Duration
}

// NewFFmpeg returns a strategy producing 44.1kHz stereo. An empty path looks
// up "ffmpeg" on PATH.
func NewFFmpeg(path string) FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return FFmpeg{
		Path:       path,
		SampleRate: 44100,
		Channels:   2,
		Timeout:    15 * time.Second,
	}
}

func (f FFmpeg) Name() string { return "ffmpeg" }

func (f FFmpeg) Decode(ctx context.Context, src Source) (*Decoded, error) {
	args := []string{
		"-v", "error",
		"-i", src.Path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(f.SampleRate),
		"-ac", strconv.Itoa(f.Channels),
		"-",
	}
	// Raw telephony payloads carry no container, so ffmpeg needs the codec spelled out.
	switch src.codec() {
	case "ulaw":
		args = append([]string{"-f", "mulaw", "-ar", strconv.Itoa(formatRate(src.Format, 8000)), "-ac", "1"}, args...)
	case "alaw":
		args = append([]string{"-f", "alaw", "-ar", strconv.Itoa(formatRate(src.Format, 8000)), "-ac", "1"}, args...)
	case "pcm":
		args = append([]string{"-f", "s16le", "-ar", strconv.Itoa(formatRate(src.Format, 44100)), "-ac", "1"}, args...)
	}

	pcm, err := proc.Run(ctx, f.Timeout, f.Path, args...)
	if err != nil {
		return nil, err
	}
	return fromInt16LE(pcm, f.Channels, f.SampleRate), nil
}

var _ Strategy = FFmpeg{}
