package media

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FFmpeg implements Transcoder by shelling out to an ffmpeg binary. Input is
// fed through stdin and, for transcoding, output is drained from stdout so
// no scratch file is needed. Segmentation writes into a per-call temp
// directory which is always removed.
type FFmpeg struct {
	Bin string // path to the ffmpeg binary, e.g. "ffmpeg"
}

// NewFFmpeg creates a transcoder for the given binary path.
func NewFFmpeg(bin string) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpeg{Bin: bin}
}

// Transcode converts input to mono MP3 at params.SampleRate/params.Bitrate.
func (f *FFmpeg) Transcode(ctx context.Context, data []byte, params TranscodeParams) ([]byte, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(params.SampleRate),
		"-b:a", params.Bitrate,
		"-f", "mp3",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, f.Bin, args...)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg transcode failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg transcode produced no output: %s", strings.TrimSpace(stderr.String()))
	}

	log.Printf("[FFmpeg] transcoded %d -> %d bytes (mono %dHz %s) in %v",
		len(data), stdout.Len(), params.SampleRate, params.Bitrate, time.Since(start))
	return stdout.Bytes(), nil
}

// Segment splits audio into fixed-duration chunks via stream copy with
// per-segment timestamp reset. It degrades to the original input: any
// subprocess failure, a non-positive probed duration, or a split that yields
// one chunk or fewer all return the file unsplit.
func (f *FFmpeg) Segment(ctx context.Context, name string, data []byte, seconds int) []Segment {
	original := []Segment{{Name: name, Ordinal: 0, Data: data}}

	segs, err := f.trySegment(ctx, name, data, seconds)
	if err != nil {
		log.Printf("[FFmpeg] segmentation failed, using original file: %v", err)
		return original
	}
	if len(segs) <= 1 {
		log.Printf("[FFmpeg] segmentation produced %d chunk(s), using original file", len(segs))
		return original
	}
	return segs
}

func (f *FFmpeg) trySegment(ctx context.Context, name string, data []byte, seconds int) ([]Segment, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("invalid segment duration: %d", seconds)
	}

	workDir, err := os.MkdirTemp("", "zhaiyao-segment-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		ext = "mp3"
	}

	inputPath := filepath.Join(workDir, "input."+ext)
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write input file: %w", err)
	}

	duration, err := f.probeDuration(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("duration probe failed: %w", err)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("non-positive duration: %v", duration)
	}

	pattern := filepath.Join(workDir, "chunk-%03d."+ext)
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(seconds),
		"-c", "copy",
		"-reset_timestamps", "1",
		pattern,
	}

	cmd := exec.CommandContext(ctx, f.Bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg segment failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	matches, err := filepath.Glob(filepath.Join(workDir, "chunk-*."+ext))
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	sort.Strings(matches)

	base := strings.TrimSuffix(name, filepath.Ext(name))
	segs := make([]Segment, 0, len(matches))
	for i, path := range matches {
		chunk, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk %s: %w", path, err)
		}
		segs = append(segs, Segment{
			Name:    fmt.Sprintf("%s-part%03d.%s", base, i, ext),
			Ordinal: i,
			Data:    chunk,
		})
	}
	return segs, nil
}

// probeDuration asks ffprobe (expected next to the ffmpeg binary) for the
// audio stream duration in seconds.
func (f *FFmpeg) probeDuration(ctx context.Context, path string) (time.Duration, error) {
	probe := "ffprobe"
	if dir := filepath.Dir(f.Bin); dir != "." {
		probe = filepath.Join(dir, "ffprobe")
	}

	args := []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	out, err := exec.CommandContext(ctx, probe, args...).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" || text == "N/A" {
		return 0, nil
	}

	duration, err := time.ParseDuration(text + "s")
	if err != nil {
		return 0, fmt.Errorf("could not parse duration %q: %w", text, err)
	}
	return duration, nil
}
