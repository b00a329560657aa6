package ingest

import (
	"path/filepath"
	"strings"
)

// Kind classifies an input source. Anything not recognizably audio or video
// is rejected before the pipeline runs.
type Kind int

const (
	KindUnknown Kind = iota
	KindAudio
	KindVideo
)

var audioExts = map[string]struct{}{
	".mp3": {}, ".m4a": {}, ".wav": {}, ".aac": {}, ".ogg": {},
	".oga": {}, ".flac": {}, ".caf": {}, ".aiff": {}, ".aif": {},
	".wma": {}, ".opus": {}, ".amr": {}, ".mpga": {},
}

var videoExts = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".webm": {},
	".flv": {}, ".wmv": {}, ".mpeg": {}, ".mpg": {}, ".m4v": {},
}

// Classify sniffs the media kind from the declared content type first, then
// the filename extension.
func Classify(filename, contentType string) Kind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	switch {
	case strings.HasPrefix(ct, "audio/"):
		return KindAudio
	case strings.HasPrefix(ct, "video/"):
		return KindVideo
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := audioExts[ext]; ok {
		return KindAudio
	}
	if _, ok := videoExts[ext]; ok {
		return KindVideo
	}
	return KindUnknown
}
