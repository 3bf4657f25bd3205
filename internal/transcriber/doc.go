// Package transcriber invokes WhisperX with diarization against an
// episode's audio file.
//
// A run is bounded by a caller timeout. On success the WhisperX outputs
// (audio.json, audio.txt, ...) are renamed to transcript.* in the output
// directory. On failure every partial output is removed, so a half-written
// transcript.json never advances an episode's stage.
package transcriber
