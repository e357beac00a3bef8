package tts

import (
	"os"
	"strings"
)

// withTempFile writes data to a new file in dir, calls fn with its path and
// removes the file before returning, whatever fn does.
func withTempFile(dir, format string, data []byte, fn func(path string) error) error {
	f, err := os.CreateTemp(dir, "vozbot-*"+extension(format))
	if err != nil {
		return NewSpeechError(ErrorCodeTempFile, "failed to create temp audio file", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return NewSpeechError(ErrorCodeTempFile, "failed to write temp audio file", err)
	}
	if err := f.Close(); err != nil {
		return NewSpeechError(ErrorCodeTempFile, "failed to close temp audio file", err)
	}

	return fn(path)
}

func extension(format string) string {
	codec, _, _ := strings.Cut(strings.ToLower(format), "_")
	switch codec {
	case "mp3":
		return ".mp3"
	case "ulaw", "alaw", "pcm":
		return "." + codec
	default:
		return ".audio"
	}
}
