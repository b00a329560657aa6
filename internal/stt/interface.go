package stt

import (
	"context"

	"zhaiyao/internal/media"
)

// Provider defines the interface for speech-to-text providers.
type Provider interface {
	// Transcribe sends one audio segment to the provider and returns the
	// transcript fragment for it.
	Transcribe(ctx context.Context, seg media.Segment) (*Result, error)

	// Name returns the provider name (e.g. "apimart").
	Name() string
}

// Result represents the transcription of a single segment.
type Result struct {
	Text        string // the transcribed text
	RawResponse string // raw provider response body, kept for debugging
}
