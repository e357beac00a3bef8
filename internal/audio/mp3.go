package audio

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// MP3 decodes MPEG audio in-process. go-mp3 always yields 16-bit stereo.
type MP3 struct{}

func (MP3) Name() string { return "mp3" }

func (MP3) Decode(ctx context.Context, src Source) (*Decoded, error) {
	if c := src.codec(); c != "" && c != "mp3" {
		return nil, errNotApplicable
	}

	f, err := os.Open(src.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("invalid mp3 stream: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to read mp3 frames: %w", err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("mp3 stream has no frames")
	}
	return fromInt16LE(pcm, 2, dec.SampleRate()), nil
}

var _ Strategy = MP3{}
