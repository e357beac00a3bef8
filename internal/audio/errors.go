package audio

import "errors"

var (
	// ErrUnsupportedFormat is returned when no decoder strategy can read a payload.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrDeviceUnavailable is returned when neither device nor default playback works.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrAPIUnavailable means native audio is not compiled in or the host has no backend.
	ErrAPIUnavailable = errors.New("audio API unavailable")

	// errNotApplicable is returned by a strategy that does not handle a format.
	errNotApplicable = errors.New("strategy does not handle this format")
)
