// Package audio decodes synthesized speech into float32 sample buffers and
// plays them, either on a chosen output device through miniaudio or on the
// system default output through oto.
//
// Builds with the nocgo tag compile without native audio; every playback
// path then reports ErrAPIUnavailable.
package audio
