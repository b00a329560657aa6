package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"

	"zhaiyao/internal/config"
	"zhaiyao/internal/media"
	"zhaiyao/internal/model"
	"zhaiyao/internal/oss"
	"zhaiyao/internal/repository"
	"zhaiyao/internal/stt"
)

// ErrInvalid marks input validation failures, surfaced as HTTP 400 by the
// handler layer.
var ErrInvalid = errors.New("invalid input")

// Uploader is the slice of the OSS client the orchestrator needs.
type Uploader interface {
	Put(ctx context.Context, key, contentType string, data []byte) (*oss.Object, error)
}

// Source is one ingestion input: either direct upload bytes or a remote URL,
// never both.
type Source struct {
	Filename    string
	ContentType string
	Data        []byte
	RemoteURL   string
}

// Outcome is the terminal result of a successful ingestion.
type Outcome struct {
	Transcript string
	Vendor     string
	Raw        []string
	AudioURL   string
	ObjectKey  string
	Filename   string
}

// Orchestrator runs the ingestion pipeline: validate, convert video,
// upload-or-link, optimize, segment, transcribe, record.
type Orchestrator struct {
	cfg        *config.Config
	transcoder media.Transcoder
	uploader   Uploader
	provider   stt.Provider
	repo       repository.UploadRepository
	httpClient *http.Client
}

// New wires an orchestrator. repo may be nil when history is disabled.
func New(cfg *config.Config, transcoder media.Transcoder, uploader Uploader, provider stt.Provider, repo repository.UploadRepository) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		transcoder: transcoder,
		uploader:   uploader,
		provider:   provider,
		repo:       repo,
		httpClient: &http.Client{},
	}
}

// Ingest runs the pipeline for one request. Exactly one history record is
// written per call: the terminal outcome is inspected at this single point
// after the pipeline finishes, so success and failure paths cannot both
// write.
func (o *Orchestrator) Ingest(ctx context.Context, userID string, src Source) (*Outcome, error) {
	out, err := o.run(ctx, src)
	o.record(ctx, userID, src, out, err)
	return out, err
}

func (o *Orchestrator) run(ctx context.Context, src Source) (*Outcome, error) {
	// Missing configuration fails the whole request before any network call.
	if err := o.cfg.CheckIngest(); err != nil {
		return nil, err
	}

	hasData := len(src.Data) > 0
	hasURL := src.RemoteURL != ""
	if hasData == hasURL {
		return nil, fmt.Errorf("%w: exactly one of file or fileUrl is required", ErrInvalid)
	}

	filename := src.Filename
	contentType := src.ContentType
	data := src.Data

	if hasURL {
		fetched, name, ct, err := o.fetchRemote(ctx, src.RemoteURL)
		if err != nil {
			return nil, err
		}
		data = fetched
		if filename == "" {
			filename = name
		}
		if contentType == "" {
			contentType = ct
		}
	} else if int64(len(data)) > o.cfg.UploadMaxBytes {
		return nil, fmt.Errorf("%w: file size %d exceeds limit of %d bytes", ErrInvalid, len(data), o.cfg.UploadMaxBytes)
	}

	if filename == "" {
		filename = "upload"
	}

	kind := Classify(filename, contentType)
	if kind == KindUnknown {
		return nil, fmt.Errorf("%w: unsupported media type for %q", ErrInvalid, filename)
	}

	params := media.TranscodeParams{SampleRate: o.cfg.SampleRate, Bitrate: o.cfg.Bitrate}

	// Video is always extracted to audio first; failure here is fatal.
	if kind == KindVideo {
		log.Printf("[Ingest] converting video %q to audio", filename)
		converted, err := o.transcoder.Transcode(ctx, data, params)
		if err != nil {
			return nil, fmt.Errorf("video to audio conversion failed: %w", err)
		}
		data = converted
		filename = strings.TrimSuffix(filename, path.Ext(filename)) + ".mp3"
		contentType = "audio/mpeg"
	}

	// Direct uploads are stored; remote URLs are linked as-is without a
	// second copy, with the key decoded from the URL path.
	var object *oss.Object
	if hasURL {
		object = &oss.Object{Key: keyFromURL(src.RemoteURL), URL: src.RemoteURL}
	} else {
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		obj, err := o.uploader.Put(ctx, oss.ObjectKey(filename), contentType, data)
		if err != nil {
			return nil, fmt.Errorf("upload failed: %w", err)
		}
		object = obj
	}

	// Optimization is optional: a transcode failure keeps the original.
	if int64(len(data)) > o.cfg.OptimizeThreshold {
		optimized, err := o.transcoder.Transcode(ctx, data, params)
		if err != nil {
			log.Printf("[Ingest] optimization failed, keeping original audio: %v", err)
		} else {
			log.Printf("[Ingest] optimized audio %d -> %d bytes", len(data), len(optimized))
			data = optimized
		}
	}

	segments := []media.Segment{{Name: filename, Ordinal: 0, Data: data}}
	if o.cfg.SegmentEnabled && int64(len(data)) > o.cfg.SegmentMinBytes {
		segments = o.transcoder.Segment(ctx, filename, data, o.cfg.SegmentSeconds)
	}

	transcript, err := stt.Dispatch(ctx, o.provider, segments, o.cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	text := transcript.Text
	if o.cfg.SimplifyTranscript {
		text = stt.Simplify(text)
	}

	return &Outcome{
		Transcript: text,
		Vendor:     transcript.Vendor,
		Raw:        transcript.Raw,
		AudioURL:   object.URL,
		ObjectKey:  object.Key,
		Filename:   filename,
	}, nil
}

// fetchRemote pulls a remote source into memory. The same size cap as direct
// uploads applies; the original deployment skipped the check for remote URLs
// but an unbounded pull into memory is not worth preserving.
func (o *Orchestrator) fetchRemote(ctx context.Context, rawURL string) ([]byte, string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", "", fmt.Errorf("%w: fileUrl must be an http(s) URL", ErrInvalid)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to create fetch request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to fetch fileUrl: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", "", fmt.Errorf("fileUrl fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, o.cfg.UploadMaxBytes+1))
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read fileUrl body: %w", err)
	}
	if int64(len(data)) > o.cfg.UploadMaxBytes {
		return nil, "", "", fmt.Errorf("%w: remote file exceeds limit of %d bytes", ErrInvalid, o.cfg.UploadMaxBytes)
	}

	name, _ := url.PathUnescape(path.Base(u.Path))
	if name == "." || name == "/" {
		name = ""
	}
	return data, name, resp.Header.Get("Content-Type"), nil
}

// keyFromURL decodes the storage key from a remote object URL's path.
func keyFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p, err := url.PathUnescape(u.Path)
	if err != nil {
		p = u.Path
	}
	return strings.TrimPrefix(p, "/")
}

// record persists the single history row for this attempt.
func (o *Orchestrator) record(ctx context.Context, userID string, src Source, out *Outcome, runErr error) {
	if !o.cfg.HistoryEnabled || o.repo == nil {
		return
	}

	rec := &model.UploadRecord{
		UserID:   userID,
		Filename: src.Filename,
	}
	if rec.Filename == "" {
		rec.Filename = src.RemoteURL
	}

	if runErr != nil {
		msg := runErr.Error()
		rec.Status = model.StatusFailed
		rec.ErrorMessage = &msg
	} else {
		rec.Status = model.StatusCompleted
		rec.Filename = out.Filename
		rec.ObjectURL = out.AudioURL
		rec.ObjectKey = out.ObjectKey
	}

	if err := o.repo.Insert(ctx, rec); err != nil {
		log.Printf("[Ingest] failed to record upload history: %v", err)
	}
}
