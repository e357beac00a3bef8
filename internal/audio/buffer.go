package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Decoded is a buffer of float32 samples in [-1, 1], interleaved as
// frames x channels. Mono audio still has Channels == 1.
type Decoded struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// Frames returns the number of sample frames.
func (d *Decoded) Frames() int {
	if d.Channels <= 0 {
		return 0
	}
	return len(d.Samples) / d.Channels
}

// Frame returns the samples of frame i, one per channel.
func (d *Decoded) Frame(i int) []float32 {
	return d.Samples[i*d.Channels : (i+1)*d.Channels]
}

// Duration returns the playback length.
func (d *Decoded) Duration() time.Duration {
	if d.SampleRate <= 0 {
		return 0
	}
	return time.Duration(d.Frames()) * time.Second / time.Duration(d.SampleRate)
}

// Scaled returns a copy with every sample multiplied by volume/100.
// Volume is clamped to 0..100.
func (d *Decoded) Scaled(volume int) *Decoded {
	volume = ClampVolume(volume)
	gain := float32(volume) / 100

	out := &Decoded{
		Samples:    make([]float32, len(d.Samples)),
		Channels:   d.Channels,
		SampleRate: d.SampleRate,
	}
	for i, s := range d.Samples {
		out.Samples[i] = s * gain
	}
	return out
}

// ClampVolume limits v to 0..100.
func ClampVolume(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// Convert returns d remixed to channels and linearly resampled to rate.
// It returns d itself when no conversion is needed.
func (d *Decoded) Convert(rate, channels int) *Decoded {
	out := d
	if d.Channels != channels {
		out = out.remix(channels)
	}
	if d.SampleRate != rate {
		out = out.resample(rate)
	}
	return out
}

func (d *Decoded) remix(channels int) *Decoded {
	frames := d.Frames()
	out := &Decoded{
		Samples:    make([]float32, frames*channels),
		Channels:   channels,
		SampleRate: d.SampleRate,
	}
	for i := 0; i < frames; i++ {
		in := d.Frame(i)
		var mono float32
		for _, s := range in {
			mono += s
		}
		mono /= float32(len(in))

		for c := 0; c < channels; c++ {
			s := mono
			if channels > 1 && c < len(in) {
				s = in[c]
			}
			out.Samples[i*channels+c] = s
		}
	}
	return out
}

func (d *Decoded) resample(rate int) *Decoded {
	frames := d.Frames()
	ch := d.Channels
	if frames == 0 || rate <= 0 {
		return &Decoded{Channels: ch, SampleRate: rate}
	}

	outFrames := int(int64(frames) * int64(rate) / int64(d.SampleRate))
	out := &Decoded{
		Samples:    make([]float32, outFrames*ch),
		Channels:   ch,
		SampleRate: rate,
	}
	step := float64(d.SampleRate) / float64(rate)
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * step
		j := int(pos)
		frac := float32(pos - float64(j))
		next := j + 1
		if next >= frames {
			next = frames - 1
		}
		for c := 0; c < ch; c++ {
			a := d.Samples[j*ch+c]
			b := d.Samples[next*ch+c]
			out.Samples[i*ch+c] = a + (b-a)*frac
		}
	}
	return out
}

// Float32LE encodes the samples as little-endian float32 bytes.
func (d *Decoded) Float32LE() []byte {
	buf := make([]byte, len(d.Samples)*4)
	for i, s := range d.Samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}

// fromInt16LE builds a buffer from interleaved signed 16-bit little-endian PCM.
func fromInt16LE(pcm []byte, channels, rate int) *Decoded {
	n := len(pcm) / 2
	n -= n % channels
	d := &Decoded{
		Samples:    make([]float32, n),
		Channels:   channels,
		SampleRate: rate,
	}
	for i := 0; i < n; i++ {
		d.Samples[i] = int16ToFloat(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return d
}

func int16ToFloat(s int16) float32 {
	return float32(s) / 32768
}
