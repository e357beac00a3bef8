// Package tts voices answers. A Synthesizer tries the premium provider
// first and falls back to the free one, degrading to free-only while the
// premium quota is exhausted. Audio payloads pass through short-lived temp
// files on their way to the decoder and the playback router.
package tts
