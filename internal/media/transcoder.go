package media

import "context"

// Segment is one time-bounded slice of an audio file, sent independently to
// the speech API. Ordinal is the zero-based position in the original file's
// temporal order.
type Segment struct {
	Name    string
	Ordinal int
	Data    []byte
}

// TranscodeParams control the downmix target. The pipeline always produces
// mono MP3.
type TranscodeParams struct {
	SampleRate int    // e.g. 16000
	Bitrate    string // e.g. "48k"
}

// Transcoder is the capability interface over the external media tool.
// Implementations own the subprocess plumbing; callers only see bytes.
type Transcoder interface {
	// Transcode converts arbitrary audio/video input to mono MP3 at the
	// given sample rate and bitrate. Used for video->audio extraction and
	// for shrinking oversized audio.
	Transcode(ctx context.Context, data []byte, params TranscodeParams) ([]byte, error)

	// Segment splits audio into fixed-duration chunks using stream copy.
	// On any failure, or when splitting produces one chunk or fewer, it
	// returns the original input as a single segment and never errors.
	Segment(ctx context.Context, name string, data []byte, seconds int) []Segment
}
