// Package elevenlabs is a client for the ElevenLabs text-to-speech API and a
// cached catalog of its voices.
package elevenlabs
