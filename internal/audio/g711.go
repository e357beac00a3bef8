package audio

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/zaf/g711"
)

// G711 decodes raw µ-law or A-law telephony audio, as produced by the
// "ulaw_8000" and "alaw_8000" output formats.
type G711 struct{}

func (G711) Name() string { return "g711" }

func (G711) Decode(ctx context.Context, src Source) (*Decoded, error) {
	var decode func(uint8) int16
	switch src.codec() {
	case "ulaw":
		decode = g711.DecodeUlawFrame
	case "alaw":
		decode = g711.DecodeAlawFrame
	default:
		return nil, errNotApplicable
	}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty g711 payload")
	}

	out := &Decoded{
		Samples:    make([]float32, len(data)),
		Channels:   1,
		SampleRate: formatRate(src.Format, 8000),
	}
	for i, b := range data {
		out.Samples[i] = int16ToFloat(decode(b))
	}
	return out, nil
}

// formatRate extracts the sample rate from a hint such as "ulaw_8000".
func formatRate(format string, fallback int) int {
	parts := strings.Split(format, "_")
	if len(parts) < 2 {
		return fallback
	}
	rate, err := strconv.Atoi(parts[1])
	if err != nil || rate <= 0 {
		return fallback
	}
	return rate
}

var _ Strategy = G711{}
